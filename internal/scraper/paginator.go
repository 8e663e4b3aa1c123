// internal/scraper/paginator.go
package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/grocerlens/reviewharvest/internal/review"
)

// Paginator repeatedly extracts the reviews visible on the current page and
// activates the "next page" / "show more" control until a stop condition
// fires. It owns the accumulator for the duration of one product's
// processing; nothing is shared.
type Paginator struct {
	cfg       PaginationConfig
	extractor *Extractor
	log       zerolog.Logger

	// OnPage, when set, is invoked with the page number before each
	// snapshot is extracted.
	OnPage func(pageNum int)
}

// NewPaginator creates a pagination driver with the given bounds.
func NewPaginator(cfg PaginationConfig, extractor *Extractor, log zerolog.Logger) *Paginator {
	return &Paginator{
		cfg:       cfg.withDefaults(),
		extractor: extractor,
		log:       log.With().Str("component", "paginator").Logger(),
	}
}

// Collect runs the extract/activate loop against an already-navigated page.
// Inability to find or activate a next control is the normal terminal
// condition, not an error; only a snapshot-access failure returns one, and
// even then whatever was collected so far is returned alongside it.
func (p *Paginator) Collect(ctx context.Context, page Page, strategies []SelectorStrategy) ([]review.RawReview, error) {
	if len(strategies) == 0 {
		return nil, ErrNoStrategies
	}

	var collected []review.RawReview
	seen := review.NewDeduper()
	stagnant := 0

	for pageNum := 1; ; pageNum++ {
		if err := ctx.Err(); err != nil {
			return collected, err
		}

		if p.OnPage != nil {
			p.OnPage(pageNum)
		}

		html, err := page.HTML(ctx)
		if err != nil {
			return collected, fmt.Errorf("%w: %v", ErrSnapshot, err)
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return collected, fmt.Errorf("%w: %v", ErrSnapshot, err)
		}

		added := 0
		for _, rec := range p.extractor.Extract(doc, strategies) {
			if !rec.Valid() {
				continue
			}
			if seen.Seen(rec.Title, rec.Text) {
				continue
			}
			collected = append(collected, rec)
			added++
			if p.cfg.MaxReviews > 0 && len(collected) >= p.cfg.MaxReviews {
				p.log.Debug().Int("reviews", len(collected)).Msg("review cap reached")
				return collected, nil
			}
		}

		if added == 0 {
			stagnant++
		} else {
			stagnant = 0
		}

		p.log.Debug().
			Int("page", pageNum).
			Int("added", added).
			Int("total", len(collected)).
			Msg("page extracted")

		if stagnant >= p.cfg.StagnantLimit && pageNum > 1 {
			p.log.Debug().Int("stagnant", stagnant).Msg("review count stopped increasing")
			return collected, nil
		}
		if pageNum >= p.cfg.MaxPages {
			p.log.Debug().Int("pages", pageNum).Msg("page ceiling reached")
			return collected, nil
		}

		if !p.activateNext(ctx, page) {
			return collected, nil
		}
		if err := page.WaitSettled(ctx, p.cfg.SettleTimeout); err != nil {
			// A slow settle is tolerable; the next snapshot decides.
			p.log.Debug().Err(err).Msg("settle wait timed out")
		}
	}
}

// activateNext tries each configured control selector until one activates.
// Absent or disabled controls report false from the Page collaborator.
func (p *Paginator) activateNext(ctx context.Context, page Page) bool {
	for _, sel := range p.cfg.NextSelectors {
		ok, err := page.Activate(ctx, sel)
		if err != nil {
			p.log.Debug().Err(err).Str("selector", sel).Msg("activation failed")
			continue
		}
		if ok {
			return true
		}
	}
	return false
}
