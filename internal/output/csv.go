// internal/output/csv.go

// Package output assembles the per-run export artifacts: the CSV document
// with its metadata header and per-product grouping, and the equivalent
// XLSX workbook. The column layout is shared between both formats.
package output

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/grocerlens/reviewharvest/internal/review"
)

// Columns is the export column layout, shared by CSV and XLSX
var Columns = []string{"Product Name", "Rating", "Date", "In Date Range", "Title", "Text", "Extracted On"}

// ukDateLayout renders dates the way the retailer sites show them
const ukDateLayout = "02/01/2006"

// Meta describes one scrape run for the document header
type Meta struct {
	// TotalProducts is the number of products that yielded reviews
	TotalProducts int

	// ExtractedAt is the run timestamp
	ExtractedAt time.Time

	// Range is the optional date filter the run was invoked with
	Range review.DateRange
}

// Assemble renders the final CSV document. The format is stable: header
// comment lines, a blank line, the column header row, then reviews grouped
// by product with a pseudo-row opening each group. Filtering never removed
// rows upstream, so out-of-range reviews appear here flagged "No".
func Assemble(reviews []review.Review, meta Meta) string {
	sorted := sortForExport(reviews, meta.Range)

	var b strings.Builder
	writeHeaderComments(&b, sorted, meta)
	b.WriteString("\n")

	w := csv.NewWriter(&b)
	w.Write(Columns)

	currentProduct := ""
	first := true
	for _, r := range sorted {
		if first || r.ProductID != currentProduct {
			w.Write(productHeaderRow(r))
			currentProduct = r.ProductID
			first = false
		}
		w.Write(reviewRow(r))
	}
	w.Flush()

	return b.String()
}

func writeHeaderComments(b *strings.Builder, reviews []review.Review, meta Meta) {
	fmt.Fprintf(b, "# Product Reviews Export\n")
	fmt.Fprintf(b, "# Products: %d\n", meta.TotalProducts)
	fmt.Fprintf(b, "# Extracted: %s\n", meta.ExtractedAt.Format(ukDateLayout))
	fmt.Fprintf(b, "# Total Reviews: %d\n", len(reviews))

	if !meta.Range.IsZero() {
		inRange := 0
		for _, r := range reviews {
			if r.InDateRange {
				inRange++
			}
		}
		fmt.Fprintf(b, "# Date Filter: %s - %s\n", boundLabel(meta.Range.From), boundLabel(meta.Range.To))
		fmt.Fprintf(b, "# Reviews In Range: %d\n", inRange)
	}
}

func boundLabel(d *time.Time) string {
	if d == nil {
		return "any"
	}
	return d.Format(ukDateLayout)
}

func productHeaderRow(r review.Review) []string {
	name := r.ProductName
	if name == "" {
		name = "Unknown product"
	}
	row := make([]string, len(Columns))
	row[0] = fmt.Sprintf("Product: %s (ID: %s)", name, r.ProductID)
	return row
}

func reviewRow(r review.Review) []string {
	return []string{
		r.ProductName,
		ratingLabel(r.Rating),
		review.FormatUK(r.Date),
		inRangeLabel(r.InDateRange),
		r.Title,
		r.Text,
		r.ExtractedAt.Format(ukDateLayout),
	}
}

func ratingLabel(rating int) string {
	if rating == review.RatingUnknown {
		return "Unknown"
	}
	return strconv.Itoa(rating)
}

func inRangeLabel(in bool) string {
	if in {
		return "Yes"
	}
	return "No"
}

// sortForExport groups reviews by product id. With an active date filter
// each group is additionally ordered newest first, unparsed dates last.
func sortForExport(reviews []review.Review, dateRange review.DateRange) []review.Review {
	sorted := make([]review.Review, len(reviews))
	copy(sorted, reviews)

	byDate := !dateRange.IsZero()
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ProductID != sorted[j].ProductID {
			return sorted[i].ProductID < sorted[j].ProductID
		}
		if !byDate {
			return false
		}
		di, dj := sorted[i].Date, sorted[j].Date
		switch {
		case di == nil && dj == nil:
			return false
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.After(*dj)
		}
	})
	return sorted
}

// BuildFilename names the run artifact from the configured prefix
func BuildFilename(prefix string, format string, now time.Time) string {
	if prefix == "" {
		prefix = "reviews"
	}
	ext := "csv"
	if format == "xlsx" {
		ext = "xlsx"
	}
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format("2006-01-02_150405"), ext)
}
