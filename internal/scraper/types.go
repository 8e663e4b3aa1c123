// internal/scraper/types.go

// Package scraper extracts review records from DOM snapshots using ranked
// selector strategies, and drives pagination over a browser page until a
// termination condition holds.
package scraper

import (
	"context"
	"fmt"
	"time"
)

// Common errors
var (
	ErrNoStrategies = fmt.Errorf("no selector strategies configured")
	ErrSnapshot     = fmt.Errorf("page snapshot unavailable")
)

// Page is the browser-automation collaborator the pipeline depends on. The
// core never assumes a specific automation engine; any implementation
// honoring this contract works.
type Page interface {
	// HTML returns a snapshot of the current DOM.
	HTML(ctx context.Context) (string, error)

	// Activate clicks (or script-clicks) the first element matching the
	// selector. It returns (false, nil) when the element is absent or
	// disabled - that is a normal outcome, not an error. Fallback from a
	// direct interaction to a script-based one lives inside the
	// implementation, not at call sites.
	Activate(ctx context.Context, selector string) (bool, error)

	// WaitSettled waits, bounded by timeout, for the page to quiesce after
	// an activation.
	WaitSettled(ctx context.Context, timeout time.Duration) error
}

// SelectorStrategy is a tuple of selector disjunctions for one review
// layout: container plus the four fields. Each slice is tried in order
// ("selector A, else B, else C") to tolerate markup drift across retailer
// redesigns. Strategies themselves are ranked: retailer-exact first,
// generic fallbacks last.
type SelectorStrategy struct {
	Name      string   `yaml:"name" json:"name"`
	Container []string `yaml:"container" json:"container"`
	Rating    []string `yaml:"rating,omitempty" json:"rating,omitempty"`
	Title     []string `yaml:"title,omitempty" json:"title,omitempty"`
	Date      []string `yaml:"date,omitempty" json:"date,omitempty"`
	Text      []string `yaml:"text,omitempty" json:"text,omitempty"`
}

// Validate checks that the strategy can locate containers at all.
func (s SelectorStrategy) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("strategy name is required")
	}
	if len(s.Container) == 0 {
		return fmt.Errorf("strategy %q: at least one container selector is required", s.Name)
	}
	return nil
}

// PaginationConfig bounds the pagination driver for one product page.
type PaginationConfig struct {
	// NextSelectors locate the "next page" / "show more" control, tried in
	// order on each iteration.
	NextSelectors []string `yaml:"next_selectors" json:"next_selectors"`

	// MaxPages is the hard iteration ceiling. Sites differ wildly in
	// typical review volume, so retailers override this per config.
	MaxPages int `yaml:"max_pages" json:"max_pages"`

	// MaxReviews caps the accumulated unique review count.
	MaxReviews int `yaml:"max_reviews" json:"max_reviews"`

	// StagnantLimit is the number of consecutive activations tolerated
	// without the unique review count growing. Silent reloads of the same
	// page are common, so the driver gives up after this many repeats.
	StagnantLimit int `yaml:"stagnant_limit" json:"stagnant_limit"`

	// SettleTimeout bounds the wait after each activation.
	SettleTimeout time.Duration `yaml:"settle_timeout" json:"settle_timeout"`
}

// Defaults observed to work across the supported retailers.
const (
	DefaultMaxPages      = 10
	DefaultStagnantLimit = 2
	DefaultSettleTimeout = 8 * time.Second
)

func (c *PaginationConfig) withDefaults() PaginationConfig {
	out := *c
	if out.MaxPages <= 0 {
		out.MaxPages = DefaultMaxPages
	}
	if out.StagnantLimit <= 0 {
		out.StagnantLimit = DefaultStagnantLimit
	}
	if out.SettleTimeout <= 0 {
		out.SettleTimeout = DefaultSettleTimeout
	}
	return out
}
