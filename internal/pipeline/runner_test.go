// internal/pipeline/runner_test.go
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/grocerlens/reviewharvest/internal/browser"
	"github.com/grocerlens/reviewharvest/internal/config"
	"github.com/grocerlens/reviewharvest/internal/monitoring"
	"github.com/grocerlens/reviewharvest/internal/review"
	"github.com/grocerlens/reviewharvest/pkg/api"
)

// scriptedSession serves canned HTML per navigated URL
type scriptedSession struct {
	pages      map[string]string
	failURLs   map[string]bool
	currentURL string
	onNavigate func(url string)
}

func (s *scriptedSession) Navigate(ctx context.Context, url string) error {
	if s.onNavigate != nil {
		s.onNavigate(url)
	}
	if s.failURLs[url] {
		return fmt.Errorf("net::ERR_NAME_NOT_RESOLVED")
	}
	s.currentURL = url
	return nil
}

func (s *scriptedSession) HTML(ctx context.Context) (string, error) {
	html, ok := s.pages[s.currentURL]
	if !ok {
		return "", fmt.Errorf("no page loaded")
	}
	return html, nil
}

func (s *scriptedSession) Activate(ctx context.Context, selector string) (bool, error) {
	return false, nil
}

func (s *scriptedSession) WaitSettled(ctx context.Context, timeout time.Duration) error { return nil }
func (s *scriptedSession) Screenshot(ctx context.Context) ([]byte, error)               { return nil, nil }
func (s *scriptedSession) Close() error                                                 { return nil }

type singleSessionPool struct {
	session browser.Session
}

func (p *singleSessionPool) Get(ctx context.Context) (browser.Session, error) {
	return p.session, nil
}
func (p *singleSessionPool) Put(session browser.Session) error { return nil }
func (p *singleSessionPool) Close() error                      { return nil }
func (p *singleSessionPool) Size() int                         { return 1 }

type recordedEvent struct {
	name    string
	payload interface{}
}

func productPage(productName, reviewTitle, reviewText string) string {
	return fmt.Sprintf(`<html><body>
		<h1>%s</h1>
		<div class="review">
			<span class="rating">4 out of 5</span>
			<h3>%s</h3>
			<time>01/02/2024</time>
			<p class="review-text">%s</p>
		</div>
	</body></html>`, productName, reviewTitle, reviewText)
}

func testRunner(session browser.Session) *Runner {
	cfg := config.Default()
	cfg.Politeness = config.PolitenessConfig{}
	r := NewRunner(cfg, &singleSessionPool{session: session}, monitoring.NewMetrics(), zerolog.Nop())
	r.now = func() time.Time { return time.Date(2025, 4, 11, 10, 0, 0, 0, time.UTC) }
	return r
}

func TestRunCompleteFlow(t *testing.T) {
	session := &scriptedSession{
		pages: map[string]string{
			"https://shop.example.org/product/1": productPage("Oats", "Great", "Perfect consistency every single morning."),
			"https://shop.example.org/product/2": productPage("Oat Milk", "Creamy", "Froths well and tastes clean in coffee."),
		},
	}
	r := testRunner(session)

	var events []recordedEvent
	result, err := r.Run(context.Background(), Request{
		URLs: []string{"https://shop.example.org/product/1", "https://shop.example.org/product/2"},
	}, func(name string, payload interface{}) {
		events = append(events, recordedEvent{name, payload})
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.TotalReviews != 2 || result.SuccessfulProducts != 2 || result.TotalProducts != 2 {
		t.Errorf("result = %+v", result)
	}
	if !strings.Contains(result.CSV, "Product: Oats (ID: 1)") {
		t.Errorf("CSV missing product group:\n%s", result.CSV)
	}
	if !strings.Contains(result.CSV, "Froths well") {
		t.Errorf("CSV missing second product's review:\n%s", result.CSV)
	}

	wantOrder := []string{api.EventStart, api.EventProgress, api.EventProgress, api.EventComplete}
	if len(events) != len(wantOrder) {
		t.Fatalf("events = %d, want %d", len(events), len(wantOrder))
	}
	for i, want := range wantOrder {
		if events[i].name != want {
			t.Errorf("event %d = %q, want %q", i, events[i].name, want)
		}
	}

	complete := events[len(events)-1].payload.(api.CompleteEvent)
	if complete.TotalReviews != 2 || complete.CSVContent == "" {
		t.Errorf("complete event = %+v", complete)
	}
}

func TestRunFailedURLIsSkippedNotFatal(t *testing.T) {
	session := &scriptedSession{
		pages: map[string]string{
			"https://shop.example.org/product/2": productPage("Oat Milk", "Creamy", "Froths well and tastes clean in coffee."),
		},
		failURLs: map[string]bool{"https://shop.example.org/product/1": true},
	}
	r := testRunner(session)

	var events []recordedEvent
	result, err := r.Run(context.Background(), Request{
		URLs: []string{"https://shop.example.org/product/1", "https://shop.example.org/product/2"},
	}, func(name string, payload interface{}) {
		events = append(events, recordedEvent{name, payload})
	})
	if err != nil {
		t.Fatalf("one failed URL must not abort the run: %v", err)
	}

	if result.SuccessfulProducts != 1 || result.TotalReviews != 1 {
		t.Errorf("result = %+v", result)
	}

	var sawURLError bool
	for _, e := range events {
		if e.name == api.EventURLError {
			sawURLError = true
			ev := e.payload.(api.URLErrorEvent)
			if ev.URL != "https://shop.example.org/product/1" || ev.Message == "" {
				t.Errorf("url_error = %+v", ev)
			}
		}
	}
	if !sawURLError {
		t.Error("expected a url_error event for the failed product")
	}
}

func TestRunNoReviewsIsFatal(t *testing.T) {
	session := &scriptedSession{
		pages: map[string]string{
			"https://shop.example.org/product/1": "<html><body><h1>Oats</h1><p>No reviews yet.</p></body></html>",
		},
	}
	r := testRunner(session)

	var events []recordedEvent
	_, err := r.Run(context.Background(), Request{
		URLs: []string{"https://shop.example.org/product/1"},
	}, func(name string, payload interface{}) {
		events = append(events, recordedEvent{name, payload})
	})
	if err == nil {
		t.Fatal("a run with zero reviews must fail")
	}

	last := events[len(events)-1]
	if last.name != api.EventError {
		t.Errorf("last event = %q, want fatal error event", last.name)
	}
}

func TestRunCancellationKeepsCompletedProducts(t *testing.T) {
	session := &scriptedSession{
		pages: map[string]string{
			"https://shop.example.org/product/1": productPage("Oats", "Great", "Perfect consistency every single morning."),
			"https://shop.example.org/product/2": productPage("Oat Milk", "Creamy", "Froths well and tastes clean in coffee."),
		},
	}
	r := testRunner(session)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// client disconnects while the second product is loading
	session.onNavigate = func(url string) {
		if strings.HasSuffix(url, "/product/2") {
			cancel()
		}
	}
	result, err := r.Run(ctx, Request{
		URLs: []string{"https://shop.example.org/product/1", "https://shop.example.org/product/2"},
	}, nil)
	if err != nil {
		t.Fatalf("cancellation must still assemble completed products: %v", err)
	}

	if result.TotalReviews != 1 {
		t.Errorf("expected only the first product's review, got %d", result.TotalReviews)
	}
	if !strings.Contains(result.CSV, "Perfect consistency") {
		t.Errorf("CSV missing completed product:\n%s", result.CSV)
	}
}

func TestRunDeduplicatesAcrossProducts(t *testing.T) {
	// Retailers sometimes serve the same review widget on variant pages.
	same := productPage("Oats 1kg", "Great", "Perfect consistency every single morning.")
	session := &scriptedSession{
		pages: map[string]string{
			"https://shop.example.org/product/1": same,
			"https://shop.example.org/product/2": same,
		},
	}
	r := testRunner(session)

	result, err := r.Run(context.Background(), Request{
		URLs: []string{"https://shop.example.org/product/1", "https://shop.example.org/product/2"},
	}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.TotalReviews != 1 {
		t.Errorf("duplicate review across products must survive once, got %d", result.TotalReviews)
	}
}

func TestRunDateFilterAnnotates(t *testing.T) {
	session := &scriptedSession{
		pages: map[string]string{
			"https://shop.example.org/product/1": productPage("Oats", "Great", "Perfect consistency every single morning."),
		},
	}
	r := testRunner(session)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	result, err := r.Run(context.Background(), Request{
		URLs:  []string{"https://shop.example.org/product/1"},
		Range: review.DateRange{From: &from},
	}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// review is dated 01/02/2024, before the window: kept but flagged
	if result.TotalReviews != 1 {
		t.Fatalf("filter must annotate, never drop; got %d reviews", result.TotalReviews)
	}
	if result.Reviews[0].InDateRange {
		t.Error("review before the window must be flagged out of range")
	}
	if !strings.Contains(result.CSV, "# Date Filter: 01/01/2025 - any") {
		t.Errorf("CSV missing filter header:\n%s", result.CSV)
	}
}

func TestRunXLSXFormat(t *testing.T) {
	session := &scriptedSession{
		pages: map[string]string{
			"https://shop.example.org/product/1": productPage("Oats", "Great", "Perfect consistency every single morning."),
		},
	}
	r := testRunner(session)

	result, err := r.Run(context.Background(), Request{
		URLs:   []string{"https://shop.example.org/product/1"},
		Format: "xlsx",
	}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.XLSX) == 0 || result.CSV != "" {
		t.Errorf("expected an XLSX artifact, got csv=%d bytes xlsx=%d bytes", len(result.CSV), len(result.XLSX))
	}
	if !strings.HasSuffix(result.Filename, ".xlsx") {
		t.Errorf("filename = %q", result.Filename)
	}
}

func TestParseUKDate(t *testing.T) {
	d, err := ParseUKDate("25/12/2024")
	if err != nil {
		t.Fatalf("ParseUKDate failed: %v", err)
	}
	if d.Day() != 25 || d.Month() != time.December || d.Year() != 2024 {
		t.Errorf("parsed %v", d)
	}

	if d, err := ParseUKDate("  "); err != nil || d != nil {
		t.Errorf("blank input must parse to nil bound, got %v, %v", d, err)
	}
	if _, err := ParseUKDate("2024-12-25"); err == nil {
		t.Error("ISO input must be rejected for filter bounds")
	}
}
