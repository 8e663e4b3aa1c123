// pkg/api/types.go

// Package api defines the public request and event types of the scrape
// endpoint. Progress is streamed as Server-Sent Events; each event payload
// below is the JSON body of one event, named by its Type constant.
package api

// ScrapeRequest is the body of POST /api/v1/scrape
type ScrapeRequest struct {
	// URLs is a newline-separated list of product pages, processed
	// sequentially in the order given
	URLs string `json:"urls"`

	// DateFrom/DateTo optionally bound the date filter, ISO "YYYY-MM-DD"
	DateFrom string `json:"dateFrom,omitempty"`
	DateTo   string `json:"dateTo,omitempty"`

	// Format selects the artifact type: "csv" (default) or "xlsx"
	Format string `json:"format,omitempty"`
}

// Event type names used on the SSE stream
const (
	EventStart    = "start"
	EventProgress = "progress"
	EventURLError = "url_error"
	EventComplete = "complete"
	EventError    = "error"
)

// StartEvent opens the stream
type StartEvent struct {
	TotalURLs int `json:"totalUrls"`
}

// ProgressEvent reports the product currently being processed
type ProgressEvent struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	URL     string `json:"url"`
}

// URLErrorEvent reports a product that failed and was skipped. Processing
// continues with the remaining URLs.
type URLErrorEvent struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

// CompleteEvent closes a successful run and carries the artifact
type CompleteEvent struct {
	Filename           string `json:"filename"`
	CSVContent         string `json:"csvContent,omitempty"`
	XLSXContent        []byte `json:"xlsxContent,omitempty"`
	TotalReviews       int    `json:"totalReviews"`
	TotalProducts      int    `json:"totalProducts"`
	SuccessfulProducts int    `json:"successfulProducts"`
}

// ErrorEvent closes a failed run; no artifact is produced
type ErrorEvent struct {
	Message string `json:"message"`
}
