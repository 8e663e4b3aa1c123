// internal/review/dates_test.go
package review

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestNormalize_Formats(t *testing.T) {
	fixedNow := time.Date(2025, time.April, 11, 15, 30, 0, 0, time.UTC)
	n := &DateNormalizer{Now: func() time.Time { return fixedNow }}

	tests := []struct {
		name string
		raw  string
		want *time.Time
	}{
		{"empty", "", nil},
		{"sentinel", "Unknown date", nil},
		{"sentinel case insensitive", "unknown date", nil},
		{"submitted pattern", "Submitted 03/04/2024, by J. Smith", date(2024, time.April, 3)},
		{"iso", "2023-11-05", date(2023, time.November, 5)},
		{"iso with time", "2023-11-05T08:30:00Z", date(2023, time.November, 5)},
		{"uk slash", "25/12/2022", date(2022, time.December, 25)},
		{"uk dash", "25-12-2022", date(2022, time.December, 25)},
		{"two digit year 2000s", "01/02/24", date(2024, time.February, 1)},
		{"two digit year 1900s", "01/02/99", date(1999, time.February, 1)},
		{"us rescued when day invalid as month", "04/23/2024", date(2024, time.April, 23)},
		{"ordinal day month year", "9th April 2025", date(2025, time.April, 9)},
		{"day month year no ordinal", "25 December 2022", date(2022, time.December, 25)},
		{"month day year", "December 25, 2022", date(2022, time.December, 25)},
		{"month day year ordinal", "April 3rd 2024", date(2024, time.April, 3)},
		{"lowercase month", "25th december 2022", date(2022, time.December, 25)},
		{"abbreviated month", "9 Apr 2025", date(2025, time.April, 9)},
		{"days ago", "2 days ago", date(2025, time.April, 9)},
		{"a week ago", "a week ago", date(2025, time.April, 4)},
		{"months ago", "3 months ago", date(2025, time.January, 11)},
		{"years ago", "1 year ago", date(2024, time.April, 11)},
		{"yesterday", "yesterday", date(2025, time.April, 10)},
		{"today", "today", date(2025, time.April, 11)},
		{"year fallback", "Reviewed in 2023 sometime", date(2023, time.January, 1)},
		{"feb 30 rejected", "30/02/2024", nil},
		{"day first rescued when month invalid", "05/13/2024", date(2024, time.May, 13)},
		{"garbage", "no date here", nil},
		{"invalid iso anchors to year", "2024-02-30", date(2024, time.January, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.raw)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("Normalize(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			if got != nil && !got.Equal(*tt.want) {
				t.Fatalf("Normalize(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize_MonthFirstOrder(t *testing.T) {
	n := &DateNormalizer{Order: MonthFirst}

	got := n.Normalize("03/04/2024")
	want := date(2024, time.March, 4)
	if got == nil || !got.Equal(*want) {
		t.Fatalf("MonthFirst Normalize(03/04/2024) = %v, want %s", got, want)
	}

	// Day-first rescue when the month slot cannot hold the value.
	got = n.Normalize("23/04/2024")
	want = date(2024, time.April, 23)
	if got == nil || !got.Equal(*want) {
		t.Fatalf("MonthFirst Normalize(23/04/2024) = %v, want %s", got, want)
	}
}

func TestNormalize_UKRoundTrip(t *testing.T) {
	n := &DateNormalizer{}
	dates := []*time.Time{
		date(2022, time.January, 1),
		date(2023, time.February, 28),
		date(2024, time.February, 29),
		date(2024, time.December, 31),
		date(2025, time.July, 15),
	}

	for _, d := range dates {
		formatted := FormatUK(d)
		got := n.Normalize(formatted)
		if got == nil || !got.Equal(*d) {
			t.Fatalf("round trip failed for %s: formatted %q, parsed %v", d, formatted, got)
		}
	}
}

func TestFormatUK_NilDate(t *testing.T) {
	if got := FormatUK(nil); got != "" {
		t.Fatalf("FormatUK(nil) = %q, want empty string", got)
	}
}
