// internal/config/types.go

// Package config defines the run configuration for the review harvester:
// politeness limits, browser settings, output options, and the per-retailer
// selector tables that drive extraction. A built-in registry covers the
// major UK grocers; a YAML file can override or extend it.
package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/grocerlens/reviewharvest/internal/browser"
	"github.com/grocerlens/reviewharvest/internal/review"
	"github.com/grocerlens/reviewharvest/internal/scraper"
)

// Config is the root configuration structure
type Config struct {
	// Version of the configuration format
	Version string `yaml:"version" json:"version"`

	// Politeness bounds the request rate against retailer sites
	Politeness PolitenessConfig `yaml:"politeness" json:"politeness"`

	// Browser settings for the automation sessions
	Browser *browser.Config `yaml:"browser,omitempty" json:"browser,omitempty"`

	// Output settings for assembled files
	Output OutputConfig `yaml:"output" json:"output"`

	// Retailers overrides or extends the built-in registry. Entries here
	// replace a built-in with the same name.
	Retailers []RetailerConfig `yaml:"retailers,omitempty" json:"retailers,omitempty"`
}

// PolitenessConfig bounds how hard a run leans on retailer sites
type PolitenessConfig struct {
	// RequestsPerSecond is the sustained page-action rate
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`

	// Burst allows short spikes above the sustained rate
	Burst int `yaml:"burst" json:"burst"`

	// ProductDelay is the minimum pause between products
	ProductDelay Duration `yaml:"product_delay" json:"product_delay"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "3s"
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		var n int64
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("invalid duration %q", node.Value)
		}
		*d = Duration(time.Duration(n))
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library representation
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// OutputConfig controls where and how results are written
type OutputConfig struct {
	// Directory receives the per-run output files
	Directory string `yaml:"directory" json:"directory"`

	// Format is "csv" or "xlsx"
	Format string `yaml:"format" json:"format"`

	// FilenamePrefix prefixes generated filenames
	FilenamePrefix string `yaml:"filename_prefix" json:"filename_prefix"`
}

// RetailerConfig is the selector table and policy for one retailer
type RetailerConfig struct {
	// Name identifies the retailer ("tesco", "ocado", ...)
	Name string `yaml:"name" json:"name"`

	// Hosts are hostname suffixes this retailer serves
	Hosts []string `yaml:"hosts" json:"hosts"`

	// DateOrder is "day-first" (UK default) or "month-first"
	DateOrder string `yaml:"date_order,omitempty" json:"date_order,omitempty"`

	// ProductIDPattern captures the product ID from a product URL. The
	// first capture group wins; without a match the last path segment is
	// used.
	ProductIDPattern string `yaml:"product_id_pattern,omitempty" json:"product_id_pattern,omitempty"`

	// ProductNameSelectors locate the product display name on the page
	ProductNameSelectors []string `yaml:"product_name_selectors,omitempty" json:"product_name_selectors,omitempty"`

	// Strategies are tried in order, retailer-exact first
	Strategies []scraper.SelectorStrategy `yaml:"strategies" json:"strategies"`

	// Pagination bounds the page-walking loop for this retailer
	Pagination scraper.PaginationConfig `yaml:"pagination" json:"pagination"`

	idRe *regexp.Regexp
}

// Validate checks a retailer entry and compiles its ID pattern
func (r *RetailerConfig) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("retailer name is required")
	}
	for _, s := range r.Strategies {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("retailer %q: %w", r.Name, err)
		}
	}
	switch r.DateOrder {
	case "", "day-first", "month-first":
	default:
		return fmt.Errorf("retailer %q: date_order must be day-first or month-first, got %q", r.Name, r.DateOrder)
	}
	if r.ProductIDPattern != "" {
		re, err := regexp.Compile(r.ProductIDPattern)
		if err != nil {
			return fmt.Errorf("retailer %q: invalid product_id_pattern: %w", r.Name, err)
		}
		r.idRe = re
	}
	return nil
}

// Order maps the configured date order onto the normalizer's preference
func (r *RetailerConfig) Order() review.DateOrder {
	if r.DateOrder == "month-first" {
		return review.MonthFirst
	}
	return review.DayFirst
}

// ProductID extracts the product identifier from a product URL, falling
// back to the last path segment when the pattern does not match.
func (r *RetailerConfig) ProductID(rawURL string) string {
	if r.idRe != nil {
		if m := r.idRe.FindStringSubmatch(rawURL); len(m) > 1 {
			return m[1]
		}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return u.Host
}

// matchesHost reports whether the retailer serves the given hostname
func (r *RetailerConfig) matchesHost(host string) bool {
	host = strings.ToLower(host)
	for _, h := range r.Hosts {
		h = strings.ToLower(h)
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// Validate checks the whole configuration
func (c *Config) Validate() error {
	if c.Politeness.RequestsPerSecond < 0 {
		return fmt.Errorf("politeness.requests_per_second cannot be negative")
	}
	switch c.Output.Format {
	case "", "csv", "xlsx":
	default:
		return fmt.Errorf("output.format must be csv or xlsx, got %q", c.Output.Format)
	}
	names := make(map[string]bool, len(c.Retailers))
	for i := range c.Retailers {
		r := &c.Retailers[i]
		if err := r.Validate(); err != nil {
			return err
		}
		if names[r.Name] {
			return fmt.Errorf("duplicate retailer %q", r.Name)
		}
		names[r.Name] = true
	}
	return nil
}

// Resolve picks the retailer serving a product URL and returns it with the
// generic fallback strategies appended, so markup drift on a known retailer
// degrades to generic extraction instead of an empty result.
func (c *Config) Resolve(rawURL string) RetailerConfig {
	u, err := url.Parse(rawURL)
	if err == nil {
		host := u.Hostname()
		for i := range c.Retailers {
			if c.Retailers[i].matchesHost(host) {
				return withGenericFallback(c.Retailers[i])
			}
		}
	}
	return genericRetailer()
}

func withGenericFallback(r RetailerConfig) RetailerConfig {
	have := make(map[string]bool, len(r.Strategies))
	for _, s := range r.Strategies {
		have[s.Name] = true
	}
	strategies := make([]scraper.SelectorStrategy, len(r.Strategies), len(r.Strategies)+2)
	copy(strategies, r.Strategies)
	for _, s := range genericStrategies() {
		if !have[s.Name] {
			strategies = append(strategies, s)
		}
	}
	r.Strategies = strategies
	return r
}
