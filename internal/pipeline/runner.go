// internal/pipeline/runner.go

// Package pipeline drives a whole scrape run: one browser session, the
// product URLs processed strictly in sequence, each through navigation,
// pagination, extraction, normalization, range tagging, and run-level
// dedup, with the surviving reviews handed to the output assembler.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/grocerlens/reviewharvest/internal/browser"
	"github.com/grocerlens/reviewharvest/internal/config"
	"github.com/grocerlens/reviewharvest/internal/monitoring"
	"github.com/grocerlens/reviewharvest/internal/output"
	"github.com/grocerlens/reviewharvest/internal/review"
	"github.com/grocerlens/reviewharvest/internal/scraper"
	"github.com/grocerlens/reviewharvest/pkg/api"
)

// ErrNoReviews is returned when a run finishes without a single review
var ErrNoReviews = fmt.Errorf("no reviews extracted from any product")

// Emitter receives progress events during a run. The server forwards them
// onto the SSE stream; the CLI logs them.
type Emitter func(event string, payload interface{})

// Request describes one scrape run
type Request struct {
	URLs   []string
	Range  review.DateRange
	Format string
}

// Result is the outcome of a completed run
type Result struct {
	Reviews            []review.Review
	Filename           string
	CSV                string
	XLSX               []byte
	TotalReviews       int
	TotalProducts      int
	SuccessfulProducts int
}

// Runner executes scrape runs against a session pool
type Runner struct {
	cfg       *config.Config
	sessions  browser.Pool
	metrics   *monitoring.Metrics
	extractor *scraper.Extractor
	limiter   *rate.Limiter
	log       zerolog.Logger

	// now is swappable in tests
	now func() time.Time
}

// NewRunner creates a run driver
func NewRunner(cfg *config.Config, sessions browser.Pool, metrics *monitoring.Metrics, log zerolog.Logger) *Runner {
	limit := rate.Inf
	if cfg.Politeness.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.Politeness.RequestsPerSecond)
	}
	burst := cfg.Politeness.Burst
	if burst < 1 {
		burst = 1
	}

	return &Runner{
		cfg:       cfg,
		sessions:  sessions,
		metrics:   metrics,
		extractor: scraper.NewExtractor(log),
		limiter:   rate.NewLimiter(limit, burst),
		log:       log.With().Str("component", "runner").Logger(),
		now:       time.Now,
	}
}

// Run processes the request's URLs sequentially. A failing product emits a
// url_error event and processing continues; cancellation stops the driver
// before the next product but reviews already collected for completed
// products are still assembled. Only a run yielding nothing at all is a
// fatal error.
func (r *Runner) Run(ctx context.Context, req Request, emit Emitter) (*Result, error) {
	if emit == nil {
		emit = func(string, interface{}) {}
	}
	if len(req.URLs) == 0 {
		emit(api.EventError, api.ErrorEvent{Message: "no product URLs supplied"})
		return nil, fmt.Errorf("no product URLs supplied")
	}

	done := r.metrics.RunStarted()
	defer done()

	emit(api.EventStart, api.StartEvent{TotalURLs: len(req.URLs)})

	session, err := r.sessions.Get(ctx)
	if err != nil {
		emit(api.EventError, api.ErrorEvent{Message: fmt.Sprintf("browser session unavailable: %v", err)})
		return nil, fmt.Errorf("browser session unavailable: %w", err)
	}
	defer r.sessions.Put(session)

	var collected []review.Review
	seen := review.NewDeduper()
	successful := 0

	for i, rawURL := range req.URLs {
		if ctx.Err() != nil {
			r.log.Warn().Int("remaining", len(req.URLs)-i).Msg("run cancelled, assembling completed products")
			break
		}

		emit(api.EventProgress, api.ProgressEvent{Current: i + 1, Total: len(req.URLs), URL: rawURL})

		reviews, err := r.processProduct(ctx, session, rawURL, req.Range, seen)
		if err != nil && ctx.Err() != nil {
			// Cancellation is not a URL fault; keep what completed.
			r.log.Warn().Int("remaining", len(req.URLs)-i-1).Msg("run cancelled, assembling completed products")
			break
		}
		if err != nil {
			retailer := r.cfg.Resolve(rawURL)
			r.metrics.URLError(retailer.Name)
			r.log.Error().Err(err).Str("url", rawURL).Msg("product failed, continuing")
			r.captureFault(ctx, session, i)
			emit(api.EventURLError, api.URLErrorEvent{URL: rawURL, Message: err.Error()})
		} else if len(reviews) > 0 {
			successful++
			collected = append(collected, reviews...)
		}

		if delay := r.cfg.Politeness.ProductDelay.Std(); delay > 0 && i < len(req.URLs)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
		}
	}

	if len(collected) == 0 {
		emit(api.EventError, api.ErrorEvent{Message: ErrNoReviews.Error()})
		return nil, ErrNoReviews
	}

	result, err := r.assemble(collected, req, successful)
	if err != nil {
		emit(api.EventError, api.ErrorEvent{Message: err.Error()})
		return nil, err
	}

	emit(api.EventComplete, api.CompleteEvent{
		Filename:           result.Filename,
		CSVContent:         result.CSV,
		XLSXContent:        result.XLSX,
		TotalReviews:       result.TotalReviews,
		TotalProducts:      result.TotalProducts,
		SuccessfulProducts: result.SuccessfulProducts,
	})
	return result, nil
}

// processProduct runs the full per-product pipeline: navigate, paginate,
// normalize, tag, and fold into the run-level dedup set.
func (r *Runner) processProduct(ctx context.Context, session browser.Session, rawURL string, dateRange review.DateRange, seen *review.Deduper) ([]review.Review, error) {
	url, err := browser.NormalizeURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid product URL: %w", err)
	}

	retailer := r.cfg.Resolve(url)
	log := r.log.With().Str("retailer", retailer.Name).Str("url", url).Logger()

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if err := session.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}

	productName := r.productName(ctx, session, retailer)
	productID := retailer.ProductID(url)

	paginator := scraper.NewPaginator(retailer.Pagination, r.extractor, log)
	paginator.OnPage = func(int) { r.metrics.PageScraped(retailer.Name) }

	raw, err := paginator.Collect(ctx, session, retailer.Strategies)
	if err != nil && len(raw) == 0 {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}
	if err != nil {
		log.Warn().Err(err).Int("partial", len(raw)).Msg("pagination aborted, keeping partial results")
	}

	normalizer := review.DateNormalizer{Order: retailer.Order(), Now: r.now}
	extractedAt := r.now()

	reviews := make([]review.Review, 0, len(raw))
	for _, rec := range raw {
		if seen.Seen(rec.Title, rec.Text) {
			continue
		}
		date := normalizer.Normalize(rec.RawDate)
		if date == nil && rec.RawDate != review.UnknownDateSentinel {
			r.metrics.DateParseFailure()
		}
		reviews = append(reviews, review.Review{
			RawReview:   rec,
			Date:        date,
			SourceURL:   url,
			Retailer:    retailer.Name,
			ProductID:   productID,
			ProductName: productName,
			ExtractedAt: extractedAt,
			UniqueID:    review.Fingerprint(rec.Title, rec.Text),
		})
	}

	review.TagInRange(reviews, dateRange)
	r.metrics.ReviewsExtracted(retailer.Name, len(reviews))
	log.Info().Int("reviews", len(reviews)).Msg("product processed")
	return reviews, nil
}

// productName reads the product display name from the loaded page
func (r *Runner) productName(ctx context.Context, session browser.Session, retailer config.RetailerConfig) string {
	html, err := session.HTML(ctx)
	if err != nil {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	for _, sel := range retailer.ProductNameSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			if name := strings.TrimSpace(found.First().Text()); name != "" {
				return strings.Join(strings.Fields(name), " ")
			}
		}
	}
	return ""
}

// captureFault saves a screenshot of the failed page for diagnostics
func (r *Runner) captureFault(ctx context.Context, session browser.Session, productIndex int) {
	shot, err := session.Screenshot(ctx)
	if err != nil || len(shot) == 0 {
		return
	}
	dir := r.cfg.Output.Directory
	if dir == "" {
		dir = "."
	}
	name := filepath.Join(dir, fmt.Sprintf("fault_%s_p%d.png", r.now().Format("20060102_150405"), productIndex+1))
	if err := os.WriteFile(name, shot, 0o644); err != nil {
		r.log.Debug().Err(err).Msg("failed to save fault screenshot")
		return
	}
	r.log.Info().Str("screenshot", name).Msg("fault screenshot saved")
}

func (r *Runner) assemble(collected []review.Review, req Request, successful int) (*Result, error) {
	now := r.now()
	meta := output.Meta{
		TotalProducts: successful,
		ExtractedAt:   now,
		Range:         req.Range,
	}

	result := &Result{
		Reviews:            collected,
		TotalReviews:       len(collected),
		TotalProducts:      len(req.URLs),
		SuccessfulProducts: successful,
	}

	format := req.Format
	if format == "" {
		format = r.cfg.Output.Format
	}
	result.Filename = output.BuildFilename(r.cfg.Output.FilenamePrefix, format, now)

	if format == "xlsx" {
		data, err := output.AssembleXLSX(collected, meta)
		if err != nil {
			return nil, fmt.Errorf("failed to assemble workbook: %w", err)
		}
		result.XLSX = data
		return result, nil
	}

	result.CSV = output.Assemble(collected, meta)
	return result, nil
}

// ParseUKDate parses a "DD/MM/YYYY" filter bound
func ParseUKDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("02/01/2006", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected DD/MM/YYYY", s)
	}
	return &t, nil
}
