// internal/review/dedupe.go
package review

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

const (
	titlePrefixLen = 30
	textPrefixLen  = 50
)

var (
	foldCaser    = cases.Fold()
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Fingerprint derives the deduplication key for a review from its title and
// body. The key is case-folded, whitespace collapses to single hyphens, and
// only the first 30 title / 50 body characters participate - prefix
// collisions on near-identical content are an intentional trade-off, since
// pagination and retries re-render the same review with cosmetic variation.
func Fingerprint(title, text string) string {
	key := prefixRunes(title, titlePrefixLen) + "-" + prefixRunes(text, textPrefixLen)
	key = foldCaser.String(key)
	return whitespaceRe.ReplaceAllString(key, "-")
}

func prefixRunes(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}

// Deduper tracks fingerprints seen during one run. DOM nodes are not stable
// across navigations, so duplicates are recognized by content, not identity.
type Deduper struct {
	seen map[string]struct{}
}

// NewDeduper creates an empty run-scoped fingerprint set.
func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// Seen marks the review's fingerprint and reports whether it was already
// present. The first-seen copy of a review is the one callers keep.
func (d *Deduper) Seen(title, text string) bool {
	fp := Fingerprint(title, text)
	if _, ok := d.seen[fp]; ok {
		return true
	}
	d.seen[fp] = struct{}{}
	return false
}

// Len returns the number of distinct fingerprints recorded.
func (d *Deduper) Len() int {
	return len(d.seen)
}

// Dedupe collapses a review list to unique fingerprints, keeping the
// first-seen record and preserving input order for survivors.
func Dedupe(reviews []Review) []Review {
	d := NewDeduper()
	out := make([]Review, 0, len(reviews))
	for _, r := range reviews {
		if d.Seen(r.Title, r.Text) {
			continue
		}
		out = append(out, r)
	}
	return out
}
