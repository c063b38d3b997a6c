package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fedharvest/catalog"
	"fedharvest/config"
	"fedharvest/harvest"
	"fedharvest/publish"
	"fedharvest/types"
)

func main() {
	log.SetOutput(os.Stderr)

	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	token := flag.String("token", os.Getenv("HF_TOKEN"), "Hugging Face access token (defaults to HF_TOKEN env)")
	start := flag.String("start", config.DefaultStartDate, "Start date (YYYY-MM-DD)")
	end := flag.String("end", config.DefaultEndDate, "End date (YYYY-MM-DD)")
	typeNames := flag.String("types", joinCategories(types.AllCategories), "Comma-separated categories to harvest")
	publisher := flag.String("publisher", config.DefaultPublisher, "Account datasets are published under")
	flag.Parse()

	if strings.TrimSpace(*token) == "" {
		fmt.Fprintln(os.Stderr, "Error: HF_TOKEN environment variable or --token required")
		os.Exit(1)
	}

	categories, err := parseCategories(*typeNames)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printBanner(*start, *end, categories)

	// The stop signal is honored between items, so the portal session gets
	// its own lifetime and only the harvester sees the cancellable context.
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := catalog.NewPortalSession(context.Background(), catalog.PortalConfig{
		URL:          config.PortalURL,
		FetchTimeout: config.FetchTimeout,
		PageSize:     config.PageSize,
		SettleDelay:  config.SettleDelay,
	})
	if err != nil {
		log.Fatalf("Failed to open portal session: %v", err)
	}
	defer session.Close()

	store := publish.NewHubClient(*token)
	pub := publish.NewPublisher(store, config.ArtifactFileName, publish.RetryPolicy{
		MaxAttempts: config.MaxPublishAttempts,
		BaseDelay:   config.PublishBackoffBase,
	})

	harvester := harvest.New(session, pub, harvest.MirrorFromEnv(context.Background()), harvest.Config{
		Publisher:  *publisher,
		Namespace:  config.Namespace,
		StartDate:  *start,
		EndDate:    *end,
		Categories: categories,
	})

	results, runErr := harvester.Run(runCtx)

	// The summary is printed even for interrupted runs: everything already
	// published stays published, and a re-run resumes via the exists check.
	fmt.Println(renderSummary(results))

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Fatalf("Harvest aborted: %v", runErr)
	}
}

func joinCategories(cats []types.Category) string {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return strings.Join(names, ",")
}

func parseCategories(csv string) ([]types.Category, error) {
	var cats []types.Category
	for _, name := range strings.Split(csv, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		c, err := types.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	if len(cats) == 0 {
		return nil, errors.New("no categories selected")
	}
	return cats, nil
}

func printBanner(start, end string, categories []types.Category) {
	log.Println("=== Federal Workforce Harvest ===")
	log.Printf("Date range: %s to %s", start, end)
	log.Printf("Categories: %s", joinCategories(categories))

	months := monthsBetween(start, end)
	if months > 0 {
		log.Println("Estimated totals:")
		for _, c := range categories {
			estCSV := config.SizeEstimatesMB[c] * months
			// Parquet with ZSTD lands around 4% of the source CSV size.
			log.Printf("  %s: %d datasets, ~%.0f MB total parquet", c, months, float64(estCSV)*0.04)
		}
	}
}

// monthsBetween counts calendar months in the inclusive range; 0 when either
// date fails to parse.
func monthsBetween(start, end string) int {
	s, err1 := time.Parse("2006-01-02", start)
	e, err2 := time.Parse("2006-01-02", end)
	if err1 != nil || err2 != nil {
		return 0
	}
	n := (e.Year()-s.Year())*12 + int(e.Month()) - int(s.Month()) + 1
	if n < 0 {
		return 0
	}
	return n
}
