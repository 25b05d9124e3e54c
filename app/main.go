package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unrlsd/trackhound/app/api"
	"github.com/unrlsd/trackhound/app/audio"
	"github.com/unrlsd/trackhound/app/catalog"
	"github.com/unrlsd/trackhound/app/cfg"
	"github.com/unrlsd/trackhound/app/database"
	"github.com/unrlsd/trackhound/app/dedup"
	"github.com/unrlsd/trackhound/app/filter"
	"github.com/unrlsd/trackhound/app/fingerprint"
	"github.com/unrlsd/trackhound/app/ingest"
	"github.com/unrlsd/trackhound/app/pipeline"
	"github.com/unrlsd/trackhound/app/search"
	"github.com/unrlsd/trackhound/app/tasks"
	"github.com/unrlsd/trackhound/app/video"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	c, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if c == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if c.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	log.Printf("Starting trackhound %s", c.Version)

	log.Println("Connecting to database...")
	db, err := database.NewConnection(c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	log.Printf("Database ready (schema version %d, dirty: %v)", version, dirty)

	trackRepo := database.NewTrackRepository(db)
	hintRepo := database.NewHintRepository(db)

	log.Printf("Loading filter configurations from %s...", c.FiltersDir)
	configs := filter.NewConfigCache(c.FiltersDir)
	if err := configs.Run(); err != nil {
		log.Fatal("Failed to load filter configurations: ", err)
	}
	log.Printf("Loaded %d filter configurations", configs.GetConfigCount())

	rdb := redis.NewClient(&redis.Options{
		Addr:     c.RedisAddress,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
	deduper := dedup.NewDeduplicator(rdb)
	defer deduper.Close()

	var checker *catalog.Checker
	if searcher := catalog.NewSpotifySearcher(context.Background(), c.SpotifyClientID, c.SpotifyClientSecret); searcher != nil {
		checker = catalog.NewChecker(searcher)
	} else {
		log.Println("Catalog credentials not set, release checks will be skipped")
		checker = catalog.NewChecker(nil)
	}

	acquirer := &audio.Acquirer{
		OutputDir:  c.OutputDir,
		UserAgent:  c.UserAgent,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		Transcoder: &audio.FFmpegTranscoder{BinaryPath: c.FFmpegPath},
		Fetcher:    &audio.YtDlpFetcher{BinaryPath: c.YtDlpPath},
	}

	uploader := &fingerprint.Uploader{
		Host:       c.ACRHost,
		Bucket:     c.ACRBucket,
		Token:      c.ACRToken,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
	}

	indexer := search.NewIndexer(c.MeiliHost, c.MeiliKey, c.MeiliIndex)
	if indexer == nil {
		log.Println("Search host not set, track indexing disabled")
	}

	runner := pipeline.NewRunner(configs, deduper, checker, trackRepo, hintRepo,
		acquirer, uploader, indexer, c.MaxRetries, c.DryRun)

	switch {
	case c.Input != "":
		runBatch(runner, c)
	case c.RetryFailed:
		summary := runner.RetryBatch(context.Background(), 50)
		log.Printf("Retry run finished: %d processed, %d uploaded, %d failed",
			summary.Processed, summary.Uploaded, summary.Failed)
	case c.Serve:
		runServe(runner, trackRepo, hintRepo, configs, c)
	default:
		log.Fatal("No run mode selected: use --input <file>, --retry-failed, or --serve")
	}
}

func runBatch(runner *pipeline.Runner, c *cfg.Cfg) {
	records, err := ingest.ReadBatchFile(c.Input)
	if err != nil {
		log.Fatal("Failed to read batch file: ", err)
	}

	if c.Platform != "" {
		platform, ok := video.ParsePlatform(c.Platform)
		if !ok {
			log.Fatalf("Unknown platform %q", c.Platform)
		}
		filtered := records[:0]
		for _, record := range records {
			if record.Platform() == platform {
				filtered = append(filtered, record)
			}
		}
		records = filtered
	}

	log.Printf("Processing %d records from %s", len(records), c.Input)
	summary := runner.ProcessBatch(context.Background(), records)
	log.Printf("Batch finished: %d processed, %d uploaded, %d failed, %d filtered, %d duplicates, %d hints",
		summary.Processed, summary.Uploaded, summary.Failed,
		summary.Filtered, summary.Duplicates, summary.HintsFound)
}

func runServe(runner *pipeline.Runner, trackRepo database.TrackRepository,
	hintRepo database.HintRepository, configs *filter.ConfigCache, c *cfg.Cfg) {

	var rssSource *ingest.RSSSource
	feedURLs := append([]string{}, c.Targets...)
	if c.FeedsFile != "" {
		fromFile, err := ingest.LoadFeedsFile(c.FeedsFile)
		if err != nil {
			log.Fatal("Failed to load feeds file: ", err)
		}
		feedURLs = append(feedURLs, fromFile...)
	}
	if len(feedURLs) > 0 {
		log.Printf("Polling %d RSS feeds", len(feedURLs))
		rssSource = ingest.NewRSSSource(feedURLs, c.UserAgent)
	}

	log.Printf("Starting background scheduler with %d workers...", c.WorkerCount)
	scheduler := tasks.NewScheduler(runner, rssSource)
	scheduler.Start()
	defer scheduler.Stop()

	var subscriber *ingest.Subscriber
	if c.NatsURL != "" {
		var err error
		subscriber, err = ingest.NewSubscriber(c.NatsURL)
		if err != nil {
			log.Fatal("Failed to connect to NATS: ", err)
		}
		defer subscriber.Close()

		err = subscriber.Subscribe(func(record video.Raw) {
			task := tasks.NewProcessBatchTask(string(record.Platform()), runner, []video.Raw{record})
			if err := scheduler.EnqueueTask(task); err != nil {
				slog.Warn("Failed to enqueue stream record", "platform", record.Platform(), "error", err)
			}
		})
		if err != nil {
			log.Fatal("Failed to subscribe to scrape results: ", err)
		}
		log.Println("Subscribed to scrape result stream")
	}

	log.Println("Initializing HTTP server...")
	handler := api.NewHandler(trackRepo, hintRepo, configs, runner, scheduler, c.Version)
	server := api.NewServer(handler, c.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", c.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("trackhound started successfully!")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	log.Println("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	log.Println("Shutdown complete")
}
