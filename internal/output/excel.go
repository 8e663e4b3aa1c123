// internal/output/excel.go
package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/grocerlens/reviewharvest/internal/review"
)

const sheetName = "Reviews"

// AssembleXLSX renders the run as an XLSX workbook with the same rows and
// grouping as the CSV document. The metadata header lands in the top rows,
// product pseudo-rows and the column header are styled bold.
func AssembleXLSX(reviews []review.Review, meta Meta) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), sheetName)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	sorted := sortForExport(reviews, meta.Range)
	rowNum := 1

	writeRow := func(cells []interface{}, style int) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return err
		}
		if style != 0 {
			end, _ := excelize.CoordinatesToCellName(len(Columns), rowNum)
			if err := f.SetCellStyle(sheetName, cell, end, style); err != nil {
				return err
			}
		}
		rowNum++
		return nil
	}

	metaRows := [][]interface{}{
		{"Product Reviews Export"},
		{"Products", meta.TotalProducts},
		{"Extracted", meta.ExtractedAt.Format(ukDateLayout)},
		{"Total Reviews", len(sorted)},
	}
	if !meta.Range.IsZero() {
		inRange := 0
		for _, r := range sorted {
			if r.InDateRange {
				inRange++
			}
		}
		metaRows = append(metaRows,
			[]interface{}{"Date Filter", fmt.Sprintf("%s - %s", boundLabel(meta.Range.From), boundLabel(meta.Range.To))},
			[]interface{}{"Reviews In Range", inRange},
		)
	}
	for _, row := range metaRows {
		if err := writeRow(row, 0); err != nil {
			return nil, fmt.Errorf("failed to write metadata row: %w", err)
		}
	}
	if err := writeRow(nil, 0); err != nil {
		return nil, fmt.Errorf("failed to write spacer row: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := writeRow(header, bold); err != nil {
		return nil, fmt.Errorf("failed to write column header: %w", err)
	}

	currentProduct := ""
	first := true
	for _, r := range sorted {
		if first || r.ProductID != currentProduct {
			if err := writeRow(toCells(productHeaderRow(r)), bold); err != nil {
				return nil, fmt.Errorf("failed to write product row: %w", err)
			}
			currentProduct = r.ProductID
			first = false
		}
		if err := writeRow(toCells(reviewRow(r)), 0); err != nil {
			return nil, fmt.Errorf("failed to write review row: %w", err)
		}
	}

	// Wide text column, readable without resizing
	if err := f.SetColWidth(sheetName, "F", "F", 60); err != nil {
		return nil, fmt.Errorf("failed to size text column: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}
