// internal/config/defaults.go
package config

import (
	"time"

	"github.com/grocerlens/reviewharvest/internal/scraper"
)

// bvStrategy is the Bazaarvoice review widget several UK grocers embed.
// One table serves them all; the retailer entry only adds host matching and
// pagination controls.
func bvStrategy() scraper.SelectorStrategy {
	return scraper.SelectorStrategy{
		Name:      "bazaarvoice",
		Container: []string{".bv-content-review", "[data-bv-v] .bv-content-item"},
		Rating:    []string{".bv-content-rating", ".bv-rating-ratings-number", "[itemprop=\"ratingValue\"]"},
		Title:     []string{".bv-content-title", "h4.bv-content-title"},
		Date:      []string{".bv-content-datetime-stamp", "[itemprop=\"dateCreated\"]", ".bv-content-datetime"},
		Text:      []string{".bv-content-summary-body-text", ".bv-content-summary-body"},
	}
}

// genericStrategies are the last-resort tables tried on any retailer after
// its own tables fail. Broad class-substring selectors catch most bespoke
// review widgets.
func genericStrategies() []scraper.SelectorStrategy {
	return []scraper.SelectorStrategy{
		{
			Name:      "generic-review",
			Container: []string{"[itemprop=\"review\"]", "[class*=\"review-item\"]", "[class*=\"ReviewCard\"]", "[class*=\"review__container\"]", ".review"},
			Rating:    []string{"[itemprop=\"ratingValue\"]", "[class*=\"star-rating\"]", "[class*=\"rating\"]", "[class*=\"stars\"]"},
			Title:     []string{"[class*=\"review-title\"]", "[class*=\"ReviewTitle\"]", "h3", "h4"},
			Date:      []string{"time", "[class*=\"review-date\"]", "[class*=\"ReviewDate\"]", "[class*=\"date\"]"},
			Text:      []string{"[class*=\"review-text\"]", "[class*=\"review-body\"]", "[class*=\"ReviewBody\"]", "[class*=\"content\"] p", "p"},
		},
		bvStrategy(),
	}
}

// genericNextSelectors cover the common "next page" / "show more" controls
var genericNextSelectors = []string{
	"button[aria-label*=\"next\" i]",
	"a[rel=\"next\"]",
	"[class*=\"pagination\"] [class*=\"next\"]",
	"button[class*=\"show-more\"]",
	"button[class*=\"load-more\"]",
}

func genericPagination() scraper.PaginationConfig {
	return scraper.PaginationConfig{
		NextSelectors: genericNextSelectors,
		MaxPages:      scraper.DefaultMaxPages,
		StagnantLimit: scraper.DefaultStagnantLimit,
		SettleTimeout: scraper.DefaultSettleTimeout,
	}
}

// genericRetailer is the fallback for URLs no registered retailer serves
func genericRetailer() RetailerConfig {
	return RetailerConfig{
		Name:                 "generic",
		DateOrder:            "day-first",
		ProductNameSelectors: []string{"h1", "[itemprop=\"name\"]"},
		Strategies:           genericStrategies(),
		Pagination:           genericPagination(),
	}
}

// builtinRetailers is the registry of supported UK grocers. A YAML entry
// with the same name replaces the built-in wholesale.
func builtinRetailers() []RetailerConfig {
	bvPagination := scraper.PaginationConfig{
		NextSelectors: append([]string{".bv-content-pagination-buttons-item--next button", ".bv-content-btn-pages-load-more"}, genericNextSelectors...),
		MaxPages:      scraper.DefaultMaxPages,
		StagnantLimit: scraper.DefaultStagnantLimit,
		SettleTimeout: scraper.DefaultSettleTimeout,
	}

	return []RetailerConfig{
		{
			Name:             "tesco",
			Hosts:            []string{"tesco.com", "tesco.ie"},
			DateOrder:        "day-first",
			ProductIDPattern: `/products/(\d+)`,
			ProductNameSelectors: []string{
				"h1[data-auto=\"pdp-product-title\"]", ".product-details-tile h1", "h1",
			},
			Strategies: []scraper.SelectorStrategy{
				{
					Name:      "tesco",
					Container: []string{"[class*=\"ReviewTileContainer\"]", ".ddsweb-reviews-tile"},
					Rating:    []string{"[class*=\"ddsweb-rating__container\"]", "[aria-label*=\"out of 5\"]"},
					Title:     []string{"[class*=\"ReviewTitle\"]", "h4"},
					Date:      []string{"[class*=\"ReviewDate\"]", "[class*=\"SubmissionDateText\"]"},
					Text:      []string{"[class*=\"ReviewContent\"]", "[class*=\"Content\"] span"},
				},
			},
			Pagination: scraper.PaginationConfig{
				NextSelectors: append([]string{"[data-auto=\"pagination-next\"]", "button[class*=\"ShowMore\"]"}, genericNextSelectors...),
				MaxPages:      scraper.DefaultMaxPages,
				StagnantLimit: scraper.DefaultStagnantLimit,
				SettleTimeout: scraper.DefaultSettleTimeout,
			},
		},
		{
			Name:             "sainsburys",
			Hosts:            []string{"sainsburys.co.uk"},
			DateOrder:        "day-first",
			ProductIDPattern: `/product/([^/?#]+)`,
			ProductNameSelectors: []string{
				"h1[data-testid=\"pd-product-title\"]", ".pd__header h1", "h1",
			},
			Strategies: []scraper.SelectorStrategy{
				{
					Name:      "sainsburys",
					Container: []string{".pd-reviews__review-container", ".review__container"},
					Rating:    []string{".review__star-rating", "[class*=\"ds-c-rating\"]"},
					Title:     []string{".review__title"},
					Date:      []string{".review__date"},
					Text:      []string{".review__content", ".review__text"},
				},
			},
			Pagination: scraper.PaginationConfig{
				NextSelectors: append([]string{".ln-c-pagination__item--next a", "button[data-testid=\"show-more-reviews\"]"}, genericNextSelectors...),
				MaxPages:      scraper.DefaultMaxPages,
				StagnantLimit: scraper.DefaultStagnantLimit,
				SettleTimeout: scraper.DefaultSettleTimeout,
			},
		},
		{
			Name:             "asda",
			Hosts:            []string{"asda.com", "groceries.asda.com"},
			DateOrder:        "day-first",
			ProductIDPattern: `/product/(?:[^/]+/)*(\d+)`,
			ProductNameSelectors: []string{
				"h1.pdp-main-details__title", "h1",
			},
			Strategies: []scraper.SelectorStrategy{bvStrategy()},
			Pagination: bvPagination,
		},
		{
			Name:             "morrisons",
			Hosts:            []string{"morrisons.com", "groceries.morrisons.com"},
			DateOrder:        "day-first",
			ProductIDPattern: `/products/(?:[^/]+-)?(\d+)`,
			ProductNameSelectors: []string{
				"h1[data-test=\"product-title\"]", "h1",
			},
			Strategies: []scraper.SelectorStrategy{bvStrategy()},
			Pagination: bvPagination,
		},
		{
			Name:             "ocado",
			Hosts:            []string{"ocado.com"},
			DateOrder:        "day-first",
			ProductIDPattern: `/products/(?:[^/]+-)?(\d+)`,
			ProductNameSelectors: []string{
				"h1[class*=\"bop-title\"]", "h1",
			},
			Strategies: []scraper.SelectorStrategy{
				{
					Name:      "ocado",
					Container: []string{"section[class*=\"ReviewCard\"]", "[data-test=\"review\"]"},
					Rating:    []string{"[data-test=\"star-rating\"]", "[aria-label*=\"out of 5\"]"},
					Title:     []string{"[class*=\"ReviewTitle\"]", "h4"},
					Date:      []string{"[class*=\"ReviewDate\"]", "time"},
					Text:      []string{"[class*=\"ReviewBody\"]", "[data-test=\"review-text\"]"},
				},
			},
			Pagination: scraper.PaginationConfig{
				NextSelectors: append([]string{"button[data-test=\"show-more-reviews\"]"}, genericNextSelectors...),
				MaxPages:      scraper.DefaultMaxPages,
				StagnantLimit: scraper.DefaultStagnantLimit,
				SettleTimeout: scraper.DefaultSettleTimeout,
			},
		},
		{
			Name:             "waitrose",
			Hosts:            []string{"waitrose.com"},
			DateOrder:        "day-first",
			ProductIDPattern: `/products/(?:[^/]+/)*([0-9-]+)`,
			ProductNameSelectors: []string{
				"h1[data-testid=\"product-name\"]", "h1",
			},
			Strategies: []scraper.SelectorStrategy{
				{
					Name:      "waitrose",
					Container: []string{"[data-testid=\"review\"]", "article[class*=\"review\"]"},
					Rating:    []string{"[data-testid=\"star-rating\"]", "[aria-label*=\"out of 5\"]"},
					Title:     []string{"[data-testid=\"review-title\"]"},
					Date:      []string{"[data-testid=\"review-date\"]", "time"},
					Text:      []string{"[data-testid=\"review-text\"]"},
				},
			},
			Pagination: genericPagination(),
		},
		{
			Name:             "aldi",
			Hosts:            []string{"aldi.co.uk"},
			DateOrder:        "day-first",
			ProductIDPattern: `/product/([^/?#]+)`,
			ProductNameSelectors: []string{
				"h1.product-details__title", "h1",
			},
			Strategies: []scraper.SelectorStrategy{
				{
					Name:      "aldi",
					Container: []string{".review-item", "[class*=\"product-review\"]"},
					Rating:    []string{".review-item__rating", "[class*=\"rating\"]"},
					Title:     []string{".review-item__title"},
					Date:      []string{".review-item__date", "time"},
					Text:      []string{".review-item__text", ".review-item__content"},
				},
			},
			Pagination: genericPagination(),
		},
		{
			Name:             "iceland",
			Hosts:            []string{"iceland.co.uk"},
			DateOrder:        "day-first",
			ProductIDPattern: `/p/(?:[^/]+/)*(\d+)`,
			ProductNameSelectors: []string{
				"h1.product-name", "h1",
			},
			Strategies: []scraper.SelectorStrategy{bvStrategy()},
			Pagination: bvPagination,
		},
	}
}

// Default returns the ready-to-run configuration with the built-in registry
func Default() *Config {
	cfg := &Config{
		Version: "1",
		Politeness: PolitenessConfig{
			RequestsPerSecond: 0.5,
			Burst:             1,
			ProductDelay:      Duration(3 * time.Second),
		},
		Output: OutputConfig{
			Directory:      ".",
			Format:         "csv",
			FilenamePrefix: "reviews",
		},
		Retailers: builtinRetailers(),
	}
	for i := range cfg.Retailers {
		// compiles the ID patterns; built-ins are known good
		_ = cfg.Retailers[i].Validate()
	}
	return cfg
}
