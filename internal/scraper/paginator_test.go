// internal/scraper/paginator_test.go
package scraper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakePage scripts a sequence of DOM snapshots. Each successful activation
// advances to the next snapshot; the last snapshot repeats.
type fakePage struct {
	snapshots   []string
	index       int
	activateOK  bool
	activations int
	htmlErr     error
}

func (f *fakePage) HTML(ctx context.Context) (string, error) {
	if f.htmlErr != nil {
		return "", f.htmlErr
	}
	i := f.index
	if i >= len(f.snapshots) {
		i = len(f.snapshots) - 1
	}
	return f.snapshots[i], nil
}

func (f *fakePage) Activate(ctx context.Context, selector string) (bool, error) {
	f.activations++
	if !f.activateOK {
		return false, nil
	}
	if f.index < len(f.snapshots)-1 {
		f.index++
	}
	return true, nil
}

func (f *fakePage) WaitSettled(ctx context.Context, timeout time.Duration) error {
	return nil
}

func reviewsPage(from, to int) string {
	html := "<html><body>"
	for i := from; i <= to; i++ {
		html += fmt.Sprintf(`<div class="review"><h3 class="title">Review %d</h3><p class="body">Review body number %d with plenty of text.</p></div>`, i, i)
	}
	return html + "</body></html>"
}

func newTestPaginator(cfg PaginationConfig) *Paginator {
	if len(cfg.NextSelectors) == 0 {
		cfg.NextSelectors = []string{".next"}
	}
	return NewPaginator(cfg, newTestExtractor(), zerolog.Nop())
}

func TestCollect_AccumulatesAcrossPages(t *testing.T) {
	page := &fakePage{
		snapshots:  []string{reviewsPage(1, 10), reviewsPage(11, 20)},
		activateOK: true,
	}
	p := newTestPaginator(PaginationConfig{})

	got, err := p.Collect(context.Background(), page, []SelectorStrategy{testStrategy()})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(got) != 20 {
		t.Fatalf("expected 20 reviews across two pages, got %d", len(got))
	}
}

func TestCollect_StopsWhenCountStagnates(t *testing.T) {
	// The same ten reviews re-render on every "next" activation; the driver
	// must stop after two repeats, not loop forever.
	page := &fakePage{
		snapshots:  []string{reviewsPage(1, 10)},
		activateOK: true,
	}
	p := newTestPaginator(PaginationConfig{})

	got, err := p.Collect(context.Background(), page, []SelectorStrategy{testStrategy()})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 unique reviews, got %d", len(got))
	}
	if page.activations != 2 {
		t.Fatalf("expected exactly 2 activations before giving up, got %d", page.activations)
	}
}

func TestCollect_StopsWhenNoControlFound(t *testing.T) {
	page := &fakePage{
		snapshots:  []string{reviewsPage(1, 5)},
		activateOK: false,
	}
	p := newTestPaginator(PaginationConfig{})

	got, err := p.Collect(context.Background(), page, []SelectorStrategy{testStrategy()})
	if err != nil {
		t.Fatalf("missing control is a normal terminal condition, got error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 reviews, got %d", len(got))
	}
	if page.activations != 1 {
		t.Fatalf("expected a single failed activation attempt, got %d", page.activations)
	}
}

func TestCollect_RespectsMaxReviews(t *testing.T) {
	page := &fakePage{
		snapshots:  []string{reviewsPage(1, 10), reviewsPage(11, 20), reviewsPage(21, 30)},
		activateOK: true,
	}
	p := newTestPaginator(PaginationConfig{MaxReviews: 15})

	got, err := p.Collect(context.Background(), page, []SelectorStrategy{testStrategy()})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(got) != 15 {
		t.Fatalf("expected the review cap to hold, got %d", len(got))
	}
}

func TestCollect_RespectsPageCeiling(t *testing.T) {
	snapshots := make([]string, 6)
	for i := range snapshots {
		snapshots[i] = reviewsPage(i*10+1, i*10+10)
	}
	page := &fakePage{snapshots: snapshots, activateOK: true}
	p := newTestPaginator(PaginationConfig{MaxPages: 3})

	got, err := p.Collect(context.Background(), page, []SelectorStrategy{testStrategy()})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(got) != 30 {
		t.Fatalf("expected 3 pages of 10, got %d reviews", len(got))
	}
}

func TestCollect_SnapshotErrorReturnsPartial(t *testing.T) {
	page := &fakePage{
		snapshots:  []string{reviewsPage(1, 5)},
		activateOK: true,
	}
	p := newTestPaginator(PaginationConfig{})

	// First page extracts fine, then the snapshot breaks.
	got, err := p.Collect(context.Background(), pageWithFailAfter(page, 1), []SelectorStrategy{testStrategy()})
	if err == nil {
		t.Fatal("expected snapshot error to propagate")
	}
	if len(got) != 5 {
		t.Fatalf("expected partial results alongside the error, got %d", len(got))
	}
}

// pageWithFailAfter wraps a fakePage so HTML starts failing after n
// successful snapshots.
type failingPage struct {
	*fakePage
	remaining int
}

func pageWithFailAfter(p *fakePage, n int) *failingPage {
	return &failingPage{fakePage: p, remaining: n}
}

func (f *failingPage) HTML(ctx context.Context) (string, error) {
	if f.remaining <= 0 {
		return "", fmt.Errorf("target closed")
	}
	f.remaining--
	return f.fakePage.HTML(ctx)
}

func TestCollect_NoStrategies(t *testing.T) {
	p := newTestPaginator(PaginationConfig{})
	_, err := p.Collect(context.Background(), &fakePage{snapshots: []string{"<html></html>"}}, nil)
	if err == nil {
		t.Fatal("expected error for missing strategies")
	}
}

func TestCollect_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	page := &fakePage{snapshots: []string{reviewsPage(1, 5)}, activateOK: true}
	p := newTestPaginator(PaginationConfig{})

	_, err := p.Collect(ctx, page, []SelectorStrategy{testStrategy()})
	if err == nil {
		t.Fatal("expected context error")
	}
}
