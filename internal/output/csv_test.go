// internal/output/csv_test.go
package output

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/grocerlens/reviewharvest/internal/review"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func sampleReview(productID, productName, title, text string, rating int, reviewDate *time.Time, inRange bool) review.Review {
	return review.Review{
		RawReview: review.RawReview{
			Rating: rating,
			Title:  title,
			Text:   text,
		},
		Date:        reviewDate,
		InDateRange: inRange,
		ProductID:   productID,
		ProductName: productName,
		ExtractedAt: time.Date(2025, 4, 11, 10, 30, 0, 0, time.UTC),
	}
}

func TestAssembleDocumentStructure(t *testing.T) {
	reviews := []review.Review{
		sampleReview("200", "Oat Milk", "Creamy", "Great in coffee, no splitting.", 5, date(2024, 3, 1), true),
		sampleReview("100", "Porridge Oats", "Solid", "Does what porridge should do.", 4, date(2024, 2, 10), true),
		sampleReview("100", "Porridge Oats", "Fine", "Perfectly acceptable breakfast.", 3, date(2024, 1, 5), true),
	}
	meta := Meta{TotalProducts: 2, ExtractedAt: time.Date(2025, 4, 11, 10, 30, 0, 0, time.UTC)}

	doc := Assemble(reviews, meta)
	lines := strings.Split(doc, "\n")

	wantPrefix := []string{
		"# Product Reviews Export",
		"# Products: 2",
		"# Extracted: 11/04/2025",
		"# Total Reviews: 3",
		"",
	}
	for i, want := range wantPrefix {
		if lines[i] != want {
			t.Errorf("line %d = %q, want %q", i, lines[i], want)
		}
	}

	if lines[5] != "Product Name,Rating,Date,In Date Range,Title,Text,Extracted On" {
		t.Errorf("column header = %q", lines[5])
	}
	if !strings.HasPrefix(lines[6], "Product: Porridge Oats (ID: 100)") {
		t.Errorf("expected product 100 pseudo-row first, got %q", lines[6])
	}

	// Products group by id: both 100-rows precede the 200 pseudo-row.
	joined := strings.Join(lines[6:], "\n")
	idx100 := strings.Index(joined, "Product: Porridge Oats")
	idx200 := strings.Index(joined, "Product: Oat Milk")
	if idx100 == -1 || idx200 == -1 || idx100 > idx200 {
		t.Errorf("product groups out of order:\n%s", joined)
	}
}

func TestAssembleEscapingRoundTrip(t *testing.T) {
	text := "Line one, with a comma\nand a \"quoted\" bit"
	reviews := []review.Review{
		sampleReview("100", "Oats", "Tricky, \"title\"", text, 4, date(2024, 2, 10), true),
	}

	doc := Assemble(reviews, Meta{TotalProducts: 1, ExtractedAt: time.Now()})

	r := csv.NewReader(strings.NewReader(doc))
	r.Comment = '#'
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("document must parse with a standard CSV reader: %v", err)
	}

	// header, product pseudo-row, one review row
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	row := records[2]
	if row[4] != "Tricky, \"title\"" {
		t.Errorf("title did not round-trip: %q", row[4])
	}
	if row[5] != text {
		t.Errorf("text did not round-trip: %q", row[5])
	}
}

func TestAssembleUnknownRatingAndDate(t *testing.T) {
	reviews := []review.Review{
		sampleReview("100", "Oats", "No stars shown", "The widget never rendered a rating.", review.RatingUnknown, nil, true),
	}

	doc := Assemble(reviews, Meta{TotalProducts: 1, ExtractedAt: time.Now()})

	r := csv.NewReader(strings.NewReader(doc))
	r.Comment = '#'
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	row := records[2]
	if row[1] != "Unknown" {
		t.Errorf("rating = %q, want Unknown - a missing rating must not become a 5", row[1])
	}
	if row[2] != "" {
		t.Errorf("date = %q, want empty for unparseable dates", row[2])
	}
}

func TestAssembleDateFilterHeaderAndOrder(t *testing.T) {
	dateRange := review.DateRange{From: date(2024, 1, 1), To: date(2024, 12, 31)}
	reviews := []review.Review{
		sampleReview("100", "Oats", "Old", "From before the window opened.", 3, date(2023, 6, 1), false),
		sampleReview("100", "Oats", "Newest", "Most recent in-range review here.", 5, date(2024, 11, 20), true),
		sampleReview("100", "Oats", "Undated", "No parseable date on this one at all.", 4, nil, true),
		sampleReview("100", "Oats", "Mid", "Sits in the middle of the range.", 4, date(2024, 5, 2), true),
	}

	doc := Assemble(reviews, Meta{TotalProducts: 1, ExtractedAt: time.Date(2025, 4, 11, 0, 0, 0, 0, time.UTC), Range: dateRange})

	if !strings.Contains(doc, "# Date Filter: 01/01/2024 - 31/12/2024") {
		t.Errorf("missing date filter header:\n%s", doc)
	}
	if !strings.Contains(doc, "# Reviews In Range: 3") {
		t.Errorf("missing in-range count header:\n%s", doc)
	}

	r := csv.NewReader(strings.NewReader(doc))
	r.Comment = '#'
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var titles []string
	var flags []string
	for _, rec := range records[2:] {
		titles = append(titles, rec[4])
		flags = append(flags, rec[3])
	}
	wantTitles := []string{"Newest", "Mid", "Old", "Undated"}
	for i, want := range wantTitles {
		if titles[i] != want {
			t.Fatalf("row order = %v, want %v (newest first, undated last)", titles, wantTitles)
		}
	}
	if flags[2] != "No" {
		t.Errorf("out-of-range review must be flagged No, got %v", flags)
	}
}

func TestAssembleNoFilterKeepsExtractionOrder(t *testing.T) {
	reviews := []review.Review{
		sampleReview("100", "Oats", "First", "Appeared first on the page today.", 4, date(2024, 1, 1), true),
		sampleReview("100", "Oats", "Second", "Appeared second on the page today.", 4, date(2024, 6, 1), true),
	}

	doc := Assemble(reviews, Meta{TotalProducts: 1, ExtractedAt: time.Now()})
	if strings.Index(doc, "First") > strings.Index(doc, "Second") {
		t.Error("without a date filter, extraction order must be preserved inside a group")
	}
}

func TestBuildFilename(t *testing.T) {
	now := time.Date(2025, 4, 11, 9, 5, 33, 0, time.UTC)
	if got := BuildFilename("reviews", "csv", now); got != "reviews_2025-04-11_090533.csv" {
		t.Errorf("BuildFilename = %q", got)
	}
	if got := BuildFilename("", "xlsx", now); got != "reviews_2025-04-11_090533.xlsx" {
		t.Errorf("BuildFilename = %q", got)
	}
}

func TestAssembleXLSXProducesWorkbook(t *testing.T) {
	reviews := []review.Review{
		sampleReview("100", "Oats", "Solid", "Does what porridge should do.", 4, date(2024, 2, 10), true),
	}
	data, err := AssembleXLSX(reviews, Meta{TotalProducts: 1, ExtractedAt: time.Now()})
	if err != nil {
		t.Fatalf("AssembleXLSX failed: %v", err)
	}
	// XLSX files are zip archives
	if len(data) < 4 || data[0] != 'P' || data[1] != 'K' {
		t.Fatalf("expected a zip container, got %d bytes", len(data))
	}
}
