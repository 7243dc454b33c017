package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"news-ingest/pkg/config"
	"news-ingest/pkg/db"
	"news-ingest/pkg/dedup"
	"news-ingest/pkg/httpclient"
	"news-ingest/pkg/ingest"
	"news-ingest/pkg/scheduler"
	"news-ingest/pkg/sites"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: could not load .env: %v", err)
	}
	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatalf("Invalid settings: %v", err)
	}

	var (
		once     = flag.Bool("once", false, "Run a single ingestion pass and exit")
		interval = flag.Duration("interval", settings.Interval, "Time between ingestion passes")
		sources  = flag.String("sources", settings.SourcesFile, "YAML file with the source table (built-in table when empty)")
		store    = flag.String("store", settings.Store, "Article store: memory, postgres, supabase or mongo")
		workers  = flag.Int("workers", settings.Workers, "Number of sources processed in parallel")
		timeout  = flag.Duration("timeout", settings.FetchTimeout, "Timeout of every network fetch")
	)
	flag.Parse()

	settings.Interval = *interval
	settings.SourcesFile = *sources
	settings.Store = *store
	settings.Workers = *workers
	settings.FetchTimeout = *timeout

	if err := settings.Validate(); err != nil {
		log.Fatalf("Invalid settings: %v", err)
	}

	sourceTable := config.DefaultSources()
	if settings.SourcesFile != "" {
		loaded, err := config.LoadSources(settings.SourcesFile)
		if err != nil {
			log.Fatalf("Failed to load sources: %v", err)
		}
		sourceTable = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	articleStore, closeStore, err := db.OpenStore(ctx, settings)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", settings.Store, err)
	}
	defer closeStore()

	cache, closeCache := openLinkCache(ctx, settings)
	defer closeCache()

	runner, err := ingest.NewRunner(ingest.Config{
		Sources:     sourceTable,
		Fetcher:     httpclient.NewClient(httpclient.FeedClient, settings.FetchTimeout),
		PageFetcher: httpclient.NewClient(httpclient.PageClient, settings.FetchTimeout),
		Profiles:    sites.Profiles(),
		Dedup:       dedup.NewScoped(articleStore, cache),
		Workers:     settings.Workers,
	})
	if err != nil {
		log.Fatalf("Invalid source configuration: %v", err)
	}

	job := func(ctx context.Context) error {
		report, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		log.Print(report)
		return nil
	}

	if *once {
		if err := job(ctx); err != nil {
			log.Fatalf("Ingestion failed: %v", err)
		}
		return
	}

	log.Printf("Ingesting %d pairs every %s", len(runner.Endpoints()), settings.Interval)
	if err := scheduler.Every(ctx, settings.Interval, job); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Scheduler stopped: %v", err)
	}
	log.Printf("Shutdown complete")
}
