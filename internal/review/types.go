// internal/review/types.go

// Package review defines the review data model and the normalization
// steps applied to extracted records: date parsing, content-fingerprint
// deduplication and date-range tagging.
package review

import (
	"strings"
	"time"
)

// RatingUnknown marks a review whose rating could not be determined from
// the markup. It is deliberately distinct from any valid 1-5 rating so
// that missing signals are never reported as five-star reviews.
const RatingUnknown = 0

const (
	// MinTextLength is the minimum body length for a record to count as a
	// real review. Shorter matches are noise from empty containers or nav
	// chrome.
	MinTextLength = 5

	// UnknownDateSentinel is the raw-date placeholder used when no date
	// markup was found for a review.
	UnknownDateSentinel = "Unknown date"

	// PlaceholderTitle is used when a review container has no title element.
	PlaceholderTitle = "Product Review"
)

// RawReview is the output of one extraction pass over one review container.
// It is transient and carries no provenance; callers attach that when they
// promote it to a Review.
type RawReview struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	RawDate string `json:"raw_date"`
	Text    string `json:"text"`
}

// Valid reports whether the record carries enough body text to count as a
// review at all.
func (r RawReview) Valid() bool {
	return len(strings.TrimSpace(r.Text)) > MinTextLength
}

// Review is a RawReview plus canonical date, range tag and provenance.
type Review struct {
	RawReview

	// Date is the canonical calendar date, nil when the raw date could not
	// be parsed.
	Date *time.Time `json:"date,omitempty"`

	// InDateRange is an annotation, not a filter: out-of-range reviews are
	// still emitted, flagged "No" in the CSV.
	InDateRange bool `json:"in_date_range"`

	SourceURL   string    `json:"source_url"`
	Retailer    string    `json:"retailer"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	ExtractedAt time.Time `json:"extracted_at"`

	// UniqueID is the content fingerprint, a pure function of (title, text).
	UniqueID string `json:"unique_id"`
}

// HasRating reports whether the review carries a determined 1-5 rating.
func (r Review) HasRating() bool {
	return r.Rating >= 1 && r.Rating <= 5
}
