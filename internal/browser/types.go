// internal/browser/types.go
package browser

import (
	"context"
	"time"
)

// Config defines browser automation configuration
type Config struct {
	Headless       bool          `yaml:"headless" json:"headless"`
	UserDataDir    string        `yaml:"user_data_dir,omitempty" json:"user_data_dir,omitempty"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	ViewportWidth  int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height" json:"viewport_height"`
	WaitDelay      time.Duration `yaml:"wait_delay,omitempty" json:"wait_delay,omitempty"`
	UserAgent      string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	DisableImages  bool          `yaml:"disable_images" json:"disable_images"`
}

// DefaultConfig returns default browser configuration
func DefaultConfig() *Config {
	return &Config{
		Headless:       true,
		Timeout:        60 * time.Second,
		ViewportWidth:  1366,
		ViewportHeight: 900,
		WaitDelay:      2 * time.Second,
		DisableImages:  true,
	}
}

// Session is one live browser tab. It satisfies the page collaborator the
// pagination driver works against, plus navigation and teardown.
type Session interface {
	// Navigate loads a URL and waits for the document to be ready
	Navigate(ctx context.Context, url string) error

	// HTML returns the current DOM serialized as HTML
	HTML(ctx context.Context) (string, error)

	// Activate clicks the element matching selector. It reports false with a
	// nil error when the element is absent or disabled.
	Activate(ctx context.Context, selector string) (bool, error)

	// WaitSettled waits for the page to stop mutating after an activation
	WaitSettled(ctx context.Context, timeout time.Duration) error

	// Screenshot captures the full page, for fault diagnostics
	Screenshot(ctx context.Context) ([]byte, error)

	// Close releases the tab and its browser resources
	Close() error
}

// Pool manages a set of reusable browser sessions
type Pool interface {
	// Get retrieves a session from the pool
	Get(ctx context.Context) (Session, error)

	// Put returns a session to the pool
	Put(session Session) error

	// Close closes all sessions in the pool
	Close() error

	// Size returns the number of idle sessions
	Size() int
}
