// internal/scraper/extractor.go
package scraper

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/grocerlens/reviewharvest/internal/review"
)

// Extractor turns a DOM snapshot into raw review records by trying ranked
// selector strategies. It is a pure function of the snapshot: "no reviews
// found" is an empty list, never an error.
type Extractor struct {
	// Heuristic enables the last-resort content-sniffing pass when no
	// strategy yields a record.
	Heuristic bool

	log zerolog.Logger
}

// NewExtractor creates an extractor with the heuristic pass enabled.
func NewExtractor(log zerolog.Logger) *Extractor {
	return &Extractor{Heuristic: true, log: log.With().Str("component", "extractor").Logger()}
}

// Extract runs the strategies in specificity order against the document.
// The first strategy yielding at least one surviving record wins; later
// strategies are not consulted.
func (e *Extractor) Extract(doc *goquery.Document, strategies []SelectorStrategy) []review.RawReview {
	for _, strategy := range strategies {
		records := e.extractWith(doc, strategy)
		if len(records) > 0 {
			e.log.Debug().
				Str("strategy", strategy.Name).
				Int("records", len(records)).
				Msg("strategy matched")
			return records
		}
	}

	if e.Heuristic {
		if records := e.heuristicPass(doc); len(records) > 0 {
			e.log.Debug().Int("records", len(records)).Msg("heuristic pass matched")
			return records
		}
	}
	return nil
}

func (e *Extractor) extractWith(doc *goquery.Document, strategy SelectorStrategy) []review.RawReview {
	var containers *goquery.Selection
	for _, sel := range strategy.Container {
		if found := safeFind(doc.Selection, sel); found != nil && found.Length() > 0 {
			containers = found
			break
		}
	}
	if containers == nil {
		return nil
	}

	var records []review.RawReview
	containers.Each(func(i int, container *goquery.Selection) {
		rec, ok := e.extractContainer(container, strategy)
		if ok {
			records = append(records, rec)
		}
	})
	return records
}

// extractContainer pulls the four fields out of one container. A fault in
// a single container (detached nodes, malformed selectors) skips that
// container only.
func (e *Extractor) extractContainer(container *goquery.Selection, strategy SelectorStrategy) (rec review.RawReview, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().Str("strategy", strategy.Name).Interface("panic", r).Msg("container extraction fault, skipping")
			ok = false
		}
	}()

	rec.Rating = extractRating(container, strategy.Rating)
	rec.Title = extractTitle(container, strategy.Title)
	rec.RawDate = extractDate(container, strategy.Date)
	rec.Text = extractText(container, strategy.Text, rec.Title, rec.RawDate)

	return rec, rec.Valid()
}

// heuristicPass scans generic text elements for review-shaped content:
// long enough to be prose, outside navigation landmarks, and co-occurring
// with a rating-like or date-like sibling. Matches are low confidence, so
// they carry an unknown rating and the sentinel date.
func (e *Extractor) heuristicPass(doc *goquery.Document) []review.RawReview {
	const minHeuristicLength = 50

	seen := review.NewDeduper()
	var records []review.RawReview

	doc.Find("p, div, span").Each(func(_ int, s *goquery.Selection) {
		text := collapseWhitespace(ownText(s))
		if len(text) <= minHeuristicLength {
			return
		}
		if s.Closest(`nav, header, footer, [role="navigation"]`).Length() > 0 {
			return
		}
		if !hasReviewSibling(s) {
			return
		}
		if seen.Seen("", text) {
			return
		}
		records = append(records, review.RawReview{
			Rating:  review.RatingUnknown,
			Title:   review.PlaceholderTitle,
			RawDate: review.UnknownDateSentinel,
			Text:    text,
		})
	})
	return records
}

// ownText returns the element's text excluding child block elements, so a
// wrapper div does not swallow the paragraphs inside it.
func ownText(s *goquery.Selection) string {
	if s.Is("div") {
		if clone := s.Clone(); clone != nil {
			clone.Find("div, p").Remove()
			return clone.Text()
		}
	}
	return s.Text()
}

func hasReviewSibling(s *goquery.Selection) bool {
	siblings := s.Siblings()
	if siblings.Length() == 0 {
		siblings = s.Parent().Siblings()
	}

	found := false
	siblings.EachWithBreak(func(_ int, sib *goquery.Selection) bool {
		text := sib.Text()
		if ratingTextRe.MatchString(text) || ratingStarsRe.MatchString(text) {
			found = true
			return false
		}
		if looksLikeDate(text) {
			found = true
			return false
		}
		if sib.Find(filledStarSelector).Length() > 0 {
			found = true
			return false
		}
		return true
	})
	return found
}

var dateHints = []*regexp.Regexp{
	regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}`),
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
	regexp.MustCompile(`(?i)\bago\b`),
	regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\b`),
}

func looksLikeDate(text string) bool {
	for _, pat := range dateHints {
		if pat.MatchString(text) {
			return true
		}
	}
	return false
}
