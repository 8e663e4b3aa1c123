// internal/scraper/strategy.go
package scraper

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/grocerlens/reviewharvest/internal/review"
)

var (
	ratingTextRe   = regexp.MustCompile(`(?i)(\d(?:\.\d)?)\s*(?:out of|/)\s*5`)
	ratingStarsRe  = regexp.MustCompile(`(?i)(\d(?:\.\d)?)\s*stars?\b`)
	ratingWidthRe  = regexp.MustCompile(`(?i)width:\s*(\d{1,3}(?:\.\d+)?)\s*%`)
	ratedSuffixRe  = regexp.MustCompile(`(?i)\s*rated\s+\d(?:\.\d)?\s+out\s+of\s+5.*$`)
	collapseRe     = regexp.MustCompile(`\s+`)
	relativeHintRe = regexp.MustCompile(`(?i)\bago\b`)
)

// filledStarSelector matches the "active" sub-elements of star rating
// widgets across the supported retailers.
const filledStarSelector = `.filled, .active, .star--filled, .star-full, [class*="filled"], [class*="star--active"]`

// findFirst returns the first matching non-empty selection for a selector
// disjunction, or nil when nothing matches.
func findFirst(s *goquery.Selection, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		found := safeFind(s, sel)
		if found != nil && found.Length() > 0 {
			return found.First()
		}
	}
	return nil
}

// safeFind wraps goquery's Find, which panics on malformed selector
// expressions. A bad selector in one strategy must only disable that
// strategy, never abort the extraction pass.
func safeFind(s *goquery.Selection, selector string) (result *goquery.Selection) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
		}
	}()
	return s.Find(selector)
}

// extractRating resolves the rating for one container. Fallback order:
// a numeric pattern in visible text, counting filled star sub-elements,
// then a width:NN% progress-bar style converted to a 1-5 scale. When no
// signal is found the rating is RatingUnknown - never a fabricated 5.
func extractRating(container *goquery.Selection, selectors []string) int {
	for _, sel := range selectors {
		widget := safeFind(container, sel)
		if widget == nil || widget.Length() == 0 {
			continue
		}
		widget = widget.First()

		if r := ratingFromText(widget.Text()); r != 0 {
			return r
		}
		if label, ok := widget.Attr("aria-label"); ok {
			if r := ratingFromText(label); r != 0 {
				return r
			}
		}
		if filled := widget.Find(filledStarSelector); filled.Length() >= 1 && filled.Length() <= 5 {
			return filled.Length()
		}
		if r := ratingFromWidth(widget); r != 0 {
			return r
		}
	}

	// A rating pattern in the container's own text still counts even when
	// no rating selector hit.
	if r := ratingFromText(container.Text()); r != 0 {
		return r
	}
	return review.RatingUnknown
}

func ratingFromText(text string) int {
	m := ratingTextRe.FindStringSubmatch(text)
	if m == nil {
		m = ratingStarsRe.FindStringSubmatch(text)
	}
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return clampRating(int(math.Round(v)))
}

func ratingFromWidth(widget *goquery.Selection) int {
	styles := make([]string, 0, 2)
	if style, ok := widget.Attr("style"); ok {
		styles = append(styles, style)
	}
	widget.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		if style, ok := s.Attr("style"); ok {
			styles = append(styles, style)
		}
	})

	for _, style := range styles {
		m := ratingWidthRe.FindStringSubmatch(style)
		if m == nil {
			continue
		}
		pct, err := strconv.ParseFloat(m[1], 64)
		if err != nil || pct <= 0 || pct > 100 {
			continue
		}
		return clampRating(int(math.Round(pct / 20)))
	}
	return 0
}

func clampRating(r int) int {
	if r < 1 {
		return 1
	}
	if r > 5 {
		return 5
	}
	return r
}

// extractTitle returns the first non-empty title text with any trailing
// "Rated N out of 5" cruft stripped, or the generic placeholder.
func extractTitle(container *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		found := safeFind(container, sel)
		if found == nil {
			continue
		}
		title := ""
		found.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if t := strings.TrimSpace(s.Text()); t != "" {
				title = t
				return false
			}
			return true
		})
		if title == "" {
			continue
		}
		title = strings.TrimSpace(ratedSuffixRe.ReplaceAllString(title, ""))
		if title != "" {
			return title
		}
	}
	return review.PlaceholderTitle
}

// extractDate returns the raw date string for a container, preferring a
// machine-readable datetime/data-date attribute when the visible text is a
// relative phrase like "2 days ago".
func extractDate(container *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		found := findFirst(container, []string{sel})
		if found == nil {
			continue
		}
		text := strings.TrimSpace(found.Text())
		attr := dateAttribute(found)

		if text == "" {
			if attr != "" {
				return attr
			}
			continue
		}
		if relativeHintRe.MatchString(text) && attr != "" {
			return attr
		}
		return text
	}
	return review.UnknownDateSentinel
}

func dateAttribute(s *goquery.Selection) string {
	for _, name := range []string{"datetime", "data-date", "content"} {
		if v, ok := s.Attr(name); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// extractText returns the review body: the first field-selector match long
// enough to be real text, else the container's full text with the already
// extracted fragments stripped out.
func extractText(container *goquery.Selection, selectors []string, title, rawDate string) string {
	for _, sel := range selectors {
		found := safeFind(container, sel)
		if found == nil {
			continue
		}
		text := ""
		found.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if t := collapseWhitespace(s.Text()); len(t) > review.MinTextLength {
				text = t
				return false
			}
			return true
		})
		if text != "" {
			return text
		}
	}

	full := collapseWhitespace(container.Text())
	if title != review.PlaceholderTitle {
		full = strings.ReplaceAll(full, title, "")
	}
	if rawDate != review.UnknownDateSentinel {
		full = strings.ReplaceAll(full, rawDate, "")
	}
	full = ratingTextRe.ReplaceAllString(full, "")
	full = ratingStarsRe.ReplaceAllString(full, "")
	return collapseWhitespace(full)
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(collapseRe.ReplaceAllString(s, " "))
}
