// internal/review/filter.go
package review

import "time"

// DateRange is an inclusive [From, To] calendar window. Either bound may be
// nil, meaning unbounded on that side.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// IsZero reports whether no range was requested at all.
func (r DateRange) IsZero() bool {
	return r.From == nil && r.To == nil
}

// Contains reports whether a canonical date falls inside the window. The To
// bound is treated as end-of-day so the entire final day is included. A nil
// date is always in range: dropping a real review because its date could
// not be parsed would be a silent data loss.
func (r DateRange) Contains(d *time.Time) bool {
	if d == nil {
		return true
	}
	if r.From != nil && d.Before(*r.From) {
		return false
	}
	if r.To != nil {
		endOfDay := time.Date(r.To.Year(), r.To.Month(), r.To.Day(),
			23, 59, 59, int(time.Second-time.Nanosecond), r.To.Location())
		if d.After(endOfDay) {
			return false
		}
	}
	return true
}

// TagInRange annotates each review with its range membership. This never
// removes a review from the slice; exclusion-by-date is a presentation
// decision made when the CSV is assembled.
func TagInRange(reviews []Review, r DateRange) {
	for i := range reviews {
		reviews[i].InDateRange = r.IsZero() || r.Contains(reviews[i].Date)
	}
}
