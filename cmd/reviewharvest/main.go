// cmd/reviewharvest/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/grocerlens/reviewharvest/internal/browser"
	"github.com/grocerlens/reviewharvest/internal/config"
	"github.com/grocerlens/reviewharvest/internal/logging"
	"github.com/grocerlens/reviewharvest/internal/monitoring"
	"github.com/grocerlens/reviewharvest/internal/pipeline"
	"github.com/grocerlens/reviewharvest/internal/review"
	"github.com/grocerlens/reviewharvest/pkg/api"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		if err := runCommand(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "validate":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: config file required\n")
			fmt.Fprintf(os.Stderr, "Usage: reviewharvest validate <retailers.yaml>\n")
			os.Exit(1)
		}
		if _, err := config.LoadFromFile(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration file '%s' is valid\n", os.Args[2])

	case "retailers":
		printRetailers()

	case "version", "--version", "-v":
		printVersion()

	case "help", "--help", "-h":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	urlList := fs.String("urls", "", "comma-separated product URLs (alternatively pass URLs as arguments)")
	from := fs.String("from", "", "date filter lower bound, DD/MM/YYYY")
	to := fs.String("to", "", "date filter upper bound, DD/MM/YYYY")
	out := fs.String("out", "", "output file path (default: generated name in the output directory)")
	format := fs.String("format", "", "output format: csv or xlsx")
	configFile := fs.String("config", "", "retailer configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	urls := splitURLs(*urlList)
	urls = append(urls, fs.Args()...)
	if len(urls) == 0 {
		return fmt.Errorf("no product URLs supplied; use --urls or positional arguments")
	}

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.LoadFromFile(*configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	dateRange, err := parseRange(*from, *to)
	if err != nil {
		return err
	}

	log := logging.New()
	metrics := monitoring.NewMetrics()
	pool := browser.NewSessionPool(cfg.Browser, 1)
	defer pool.Close()

	runner := pipeline.NewRunner(cfg, pool, metrics, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := runner.Run(ctx, pipeline.Request{
		URLs:   urls,
		Range:  dateRange,
		Format: *format,
	}, progressPrinter())
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = filepath.Join(cfg.Output.Directory, result.Filename)
	}
	data := []byte(result.CSV)
	if len(result.XLSX) > 0 {
		data = result.XLSX
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Printf("Wrote %d reviews from %d/%d products to %s\n",
		result.TotalReviews, result.SuccessfulProducts, result.TotalProducts, path)
	return nil
}

// progressPrinter reports run progress on stderr
func progressPrinter() pipeline.Emitter {
	return func(event string, payload interface{}) {
		switch event {
		case api.EventProgress:
			p := payload.(api.ProgressEvent)
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", p.Current, p.Total, p.URL)
		case api.EventURLError:
			e := payload.(api.URLErrorEvent)
			fmt.Fprintf(os.Stderr, "skipped %s: %s\n", e.URL, e.Message)
		}
	}
}

func parseRange(from, to string) (review.DateRange, error) {
	fromDate, err := pipeline.ParseUKDate(from)
	if err != nil {
		return review.DateRange{}, err
	}
	toDate, err := pipeline.ParseUKDate(to)
	if err != nil {
		return review.DateRange{}, err
	}
	if fromDate != nil && toDate != nil && toDate.Before(*fromDate) {
		return review.DateRange{}, fmt.Errorf("--to precedes --from")
	}
	return review.DateRange{From: fromDate, To: toDate}, nil
}

// splitURLs splits a comma-separated URL list, dropping empty entries
func splitURLs(s string) []string {
	var urls []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			urls = append(urls, part)
		}
	}
	return urls
}

func printRetailers() {
	fmt.Println("Supported retailers:")
	for _, r := range config.Default().Retailers {
		fmt.Printf("  %-12s %s\n", r.Name, strings.Join(r.Hosts, ", "))
	}
	fmt.Println("  generic      (any other host, generic selector fallbacks)")
}

func printUsage() {
	fmt.Println("reviewharvest - UK grocery product review harvester")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  reviewharvest run [flags] <url>...        Scrape reviews and write CSV/XLSX")
	fmt.Println("  reviewharvest validate <retailers.yaml>   Validate a retailer configuration file")
	fmt.Println("  reviewharvest retailers                   List supported retailers")
	fmt.Println("  reviewharvest version                     Show version information")
	fmt.Println("  reviewharvest help                        Show this help message")
	fmt.Println()
	fmt.Println("Run flags:")
	fmt.Println("  --urls <u1,u2,...>   Product URLs (comma separated)")
	fmt.Println("  --from DD/MM/YYYY    Date filter lower bound")
	fmt.Println("  --to DD/MM/YYYY      Date filter upper bound")
	fmt.Println("  --out <path>         Output file path")
	fmt.Println("  --format csv|xlsx    Output format (default csv)")
	fmt.Println("  --config <path>      Retailer configuration file")
}

func printVersion() {
	fmt.Printf("reviewharvest %s\n", version)
	fmt.Printf("Build time: %s\n", buildTime)
	fmt.Printf("Git commit: %s\n", gitCommit)
}
