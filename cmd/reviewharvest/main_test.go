// cmd/reviewharvest/main_test.go
package main

import (
	"testing"
	"time"
)

func TestSplitURLs(t *testing.T) {
	urls := splitURLs(" https://a.example/p/1 , ,https://b.example/p/2,")
	if len(urls) != 2 {
		t.Fatalf("expected 2 URLs, got %v", urls)
	}
	if urls[0] != "https://a.example/p/1" || urls[1] != "https://b.example/p/2" {
		t.Errorf("parsed %v", urls)
	}

	if got := splitURLs(""); got != nil {
		t.Errorf("empty input must yield no URLs, got %v", got)
	}
}

func TestParseRange(t *testing.T) {
	r, err := parseRange("01/01/2024", "31/12/2024")
	if err != nil {
		t.Fatalf("parseRange failed: %v", err)
	}
	if r.From.Month() != time.January || r.To.Day() != 31 {
		t.Errorf("range = %+v", r)
	}

	if _, err := parseRange("31/12/2024", "01/01/2024"); err == nil {
		t.Error("inverted range must be rejected")
	}

	r, err = parseRange("", "")
	if err != nil || !r.IsZero() {
		t.Errorf("blank bounds must yield a zero range, got %+v, %v", r, err)
	}
}
