package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"fedharvest/api"
	"fedharvest/catalog"
	"fedharvest/config"
	"fedharvest/harvest"
	"fedharvest/publish"
	"fedharvest/state"
	"fedharvest/types"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	// Parse command-line flags
	port := flag.String("port", "8080", "HTTP API port")
	cronSchedule := flag.String("cron", "0 6 5 * *", "Cron schedule for automated runs (default: 06:00 on the 5th of each month)")
	start := flag.String("start", config.DefaultStartDate, "Start date (YYYY-MM-DD)")
	end := flag.String("end", config.DefaultEndDate, "End date (YYYY-MM-DD)")
	publisher := flag.String("publisher", config.DefaultPublisher, "Account datasets are published under")
	flag.Parse()

	token := strings.TrimSpace(os.Getenv("HF_TOKEN"))
	if token == "" {
		fmt.Fprintln(os.Stderr, "Error: HF_TOKEN environment variable required")
		os.Exit(1)
	}

	stateManager := state.NewManager()

	runCfg := harvest.Config{
		Publisher:  *publisher,
		Namespace:  config.Namespace,
		StartDate:  *start,
		EndDate:    *end,
		Categories: types.AllCategories,
	}

	runHarvest := func(ctx context.Context, runID string) {
		runOnce(ctx, stateManager, token, runCfg)
	}

	router := api.NewRouter(stateManager, runHarvest)
	httpServer := &http.Server{
		Addr:    ":" + *port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting harvest service on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Scheduled runs reuse the same entry path as POST /api/harvest/start,
	// including the busy check.
	c := cron.New()
	_, err := c.AddFunc(*cronSchedule, func() {
		log.Println("Cron triggered: starting automated harvest")
		if !stateManager.BeginRun("cron-" + time.Now().Format("20060102-150405")) {
			log.Printf("Cron skipped: harvest already running")
			return
		}
		runOnce(context.Background(), stateManager, token, runCfg)
	})
	if err != nil {
		fmt.Printf("Failed to start cron: %v\n", err)
		os.Exit(1)
	}
	c.Start()

	fmt.Printf("🌾 Harvest Service\n")
	fmt.Printf("   API:            http://0.0.0.0:%s\n", *port)
	fmt.Printf("   Cron Schedule:  %s\n", *cronSchedule)
	fmt.Printf("   Date range:     %s to %s\n", *start, *end)
	fmt.Println("\nPress Ctrl+C to shutdown")

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c.Stop()
	if err := httpServer.Shutdown(ctx); err != nil {
		fmt.Printf("Shutdown error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Server stopped")
}

// runOnce executes one full harvest over a fresh portal session. The session
// is per-run: it carries page and dialog state that cannot outlive a run.
func runOnce(ctx context.Context, stateManager *state.Manager, token string, cfg harvest.Config) {
	session, err := catalog.NewPortalSession(context.Background(), catalog.PortalConfig{
		URL:          config.PortalURL,
		FetchTimeout: config.FetchTimeout,
		PageSize:     config.PageSize,
		SettleDelay:  config.SettleDelay,
	})
	if err != nil {
		stateManager.SetError(fmt.Errorf("opening portal session: %w", err))
		return
	}
	defer session.Close()

	pub := publish.NewPublisher(publish.NewHubClient(token), config.ArtifactFileName, publish.RetryPolicy{
		MaxAttempts: config.MaxPublishAttempts,
		BaseDelay:   config.PublishBackoffBase,
	})

	harvester := harvest.New(session, pub, harvest.MirrorFromEnv(context.Background()), cfg)

	results, err := harvester.Run(ctx)
	for _, r := range results {
		stateManager.AddSummary(types.CategorySummary{
			Category:  r.Category,
			Published: len(r.Published),
			Failed:    len(r.Failed),
		})
	}
	if err != nil {
		stateManager.SetError(err)
		return
	}
	stateManager.Complete()
}
