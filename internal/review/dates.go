// internal/review/dates.go
package review

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateOrder controls how ambiguous numeric dates such as 03/04/2024 are
// read. Retailer markup gives no authoritative answer, so the order is a
// caller-supplied locale assumption rather than a hardcoded guess.
type DateOrder int

const (
	// DayFirst reads 03/04/2024 as 3 April (UK convention, the default).
	DayFirst DateOrder = iota
	// MonthFirst reads 03/04/2024 as March 4 (US convention).
	MonthFirst
)

// DateNormalizer parses the free-form date strings found in review markup
// into canonical calendar dates. Normalize never returns an error:
// unparseable input yields nil and the caller decides the fallback.
type DateNormalizer struct {
	// Order resolves DD/MM vs MM/DD ambiguity. Zero value is DayFirst.
	Order DateOrder

	// Now supplies the reference time for relative phrases ("2 days ago").
	// Nil means time.Now.
	Now func() time.Time
}

var (
	submittedRe = regexp.MustCompile(`(?i)submitted\s+(\d{1,2})/(\d{1,2})/(\d{4})`)
	isoRe       = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	numericRe   = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})$`)
	dayMonthRe  = regexp.MustCompile(`(?i)^(\d{1,2})(?:st|nd|rd|th)?\s+([a-z]+),?\s+(\d{4})$`)
	monthDayRe  = regexp.MustCompile(`(?i)^([a-z]+)\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})$`)
	relativeRe  = regexp.MustCompile(`(?i)(\d+|an?)\s+(day|week|month|year)s?\s+ago`)
	yearRe      = regexp.MustCompile(`\b(20\d{2})\b`)
)

var monthsByName = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Normalize parses rawDate into a canonical date (midnight UTC), or nil if
// no known format matches. Parse attempts run in fixed order; the first
// producing a real calendar date wins.
func (n *DateNormalizer) Normalize(rawDate string) *time.Time {
	raw := strings.TrimSpace(rawDate)
	if raw == "" || strings.EqualFold(raw, UnknownDateSentinel) {
		return nil
	}

	// "Submitted 03/04/2024, by J. Smith" - always day-first in the
	// retailer markup that produces it.
	if m := submittedRe.FindStringSubmatch(raw); m != nil {
		if d := makeDate(atoi(m[3]), atoi(m[2]), atoi(m[1])); d != nil {
			return d
		}
	}

	if m := isoRe.FindStringSubmatch(raw); m != nil {
		if d := makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); d != nil {
			return d
		}
	}

	if m := numericRe.FindStringSubmatch(raw); m != nil {
		if d := n.parseNumeric(atoi(m[1]), atoi(m[2]), expandYear(m[3])); d != nil {
			return d
		}
	}

	if m := dayMonthRe.FindStringSubmatch(raw); m != nil {
		if month, ok := monthByName(m[2]); ok {
			if d := makeDate(atoi(m[3]), int(month), atoi(m[1])); d != nil {
				return d
			}
		}
	}

	if m := monthDayRe.FindStringSubmatch(raw); m != nil {
		if month, ok := monthByName(m[1]); ok {
			if d := makeDate(atoi(m[3]), int(month), atoi(m[2])); d != nil {
				return d
			}
		}
	}

	if d := n.parseRelative(raw); d != nil {
		return d
	}

	// Last resort: anchor to January 1 of any plausible 4-digit year.
	if m := yearRe.FindStringSubmatch(raw); m != nil {
		return makeDate(atoi(m[1]), 1, 1)
	}

	return nil
}

// parseNumeric applies the configured date order, falling back to the
// other order only when the preferred one cannot form a real date (e.g.
// 04/23/2024 under DayFirst has no month 23).
func (n *DateNormalizer) parseNumeric(first, second, year int) *time.Time {
	day, month := first, second
	if n.Order == MonthFirst {
		day, month = second, first
	}
	if d := makeDate(year, month, day); d != nil {
		return d
	}
	return makeDate(year, day, month)
}

func (n *DateNormalizer) parseRelative(raw string) *time.Time {
	lower := strings.ToLower(strings.TrimSpace(raw))
	now := n.now()

	switch lower {
	case "today", "just now":
		return truncate(now)
	case "yesterday":
		return truncate(now.AddDate(0, 0, -1))
	}

	m := relativeRe.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}

	count := 1
	if v := strings.ToLower(m[1]); v != "a" && v != "an" {
		count = atoi(m[1])
	}

	var then time.Time
	switch strings.ToLower(m[2]) {
	case "day":
		then = now.AddDate(0, 0, -count)
	case "week":
		then = now.AddDate(0, 0, -7*count)
	case "month":
		then = now.AddDate(0, -count, 0)
	case "year":
		then = now.AddDate(-count, 0, 0)
	default:
		return nil
	}
	return truncate(then)
}

func (n *DateNormalizer) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now().UTC()
}

// makeDate builds a date and rejects impossible ones (Feb 30 rolls over
// under time.Date, which is how we detect it).
func makeDate(year, month, day int) *time.Time {
	if year < 1900 || year > 2100 || month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return nil
	}
	return &d
}

// expandYear widens two-digit years: <50 lands in the 2000s, the rest in
// the 1900s.
func expandYear(s string) int {
	y := atoi(s)
	if len(s) == 2 {
		if y < 50 {
			return 2000 + y
		}
		return 1900 + y
	}
	return y
}

func monthByName(name string) (time.Month, bool) {
	key := strings.ToLower(name)
	if len(key) > 3 {
		key = key[:3]
	}
	m, ok := monthsByName[key]
	return m, ok
}

func truncate(t time.Time) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// FormatUK renders a canonical date as DD/MM/YYYY, the format used in the
// CSV Date column. A nil date renders as an empty string rather than a
// guessed value.
func FormatUK(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format("02/01/2006")
}
