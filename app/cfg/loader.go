package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"trackhound" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"trackhound" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"trackhound" description:"Database name"`

	// Audio fingerprinting service
	ACRHost   string `long:"acr-host" env:"ACR_HOST" default:"https://api-v2.acrcloud.com" description:"Fingerprinting service base URL"`
	ACRBucket string `long:"acr-bucket" env:"ACR_BUCKET" description:"Fingerprinting service bucket identifier"`
	ACRToken  string `long:"acr-token" env:"ACR_TOKEN" description:"Fingerprinting service bearer token"`

	// Release catalog lookup
	SpotifyClientID     string `long:"spotify-client-id" env:"SPOTIFY_CLIENT_ID" description:"Spotify client id for release catalog checks"`
	SpotifyClientSecret string `long:"spotify-client-secret" env:"SPOTIFY_CLIENT_SECRET" description:"Spotify client secret for release catalog checks"`

	// Seen-URL cache
	RedisAddress  string `long:"redis-address" env:"REDIS_ADDRESS" description:"Redis address for the seen-URL cache (optional)"`
	RedisPassword string `long:"redis-password" env:"REDIS_PASSWORD" description:"Redis password"`
	RedisDB       int    `long:"redis-db" env:"REDIS_DB" default:"0" description:"Redis database number"`

	// Raw record transport
	NatsURL string `long:"nats-url" env:"NATS_URL" description:"NATS URL for scraper payloads (serve mode)"`

	// Track search index
	MeiliHost  string `long:"meili-host" env:"MEILI_HOST" description:"Meilisearch host (optional)"`
	MeiliKey   string `long:"meili-key" env:"MEILI_KEY" description:"Meilisearch API key"`
	MeiliIndex string `long:"meili-index" env:"MEILI_INDEX" default:"tracks" description:"Meilisearch index name"`

	// Application configuration
	OutputDir         string `long:"output-dir" env:"OUTPUT_DIR" default:"./data" description:"Directory for the local audio cache"`
	FiltersDir        string `long:"filters-dir" env:"FILTERS_DIR" default:"./filters" description:"Directory containing per-platform filter configuration files"`
	FeedsFile         string `long:"feeds-file" env:"FEEDS_FILE" description:"YAML file listing RSS discovery feeds (optional)"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port (serve mode)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for auxiliary tasks"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds (serve mode)"`
	RetryInterval     int    `long:"retry-interval" env:"RETRY_INTERVAL" default:"3600" description:"Seconds between retry sweeps of failed tracks (serve mode)"`
	MaxRetries        int    `long:"max-retries" env:"MAX_RETRIES" default:"3" description:"Maximum acquisition/upload attempts per track"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// External tools
	FFmpegPath string `long:"ffmpeg-path" env:"FFMPEG_PATH" default:"ffmpeg" description:"Path to the ffmpeg binary"`
	YtDlpPath  string `long:"yt-dlp-path" env:"YT_DLP_PATH" default:"yt-dlp" description:"Path to the yt-dlp binary"`

	// Run mode
	Input       string   `long:"input" short:"i" description:"JSON file of raw scraped records to ingest"`
	Platform    string   `long:"platform" env:"PLATFORM" description:"Only process records from this platform (tiktok, instagram, youtube, soundcloud)"`
	Targets     []string `long:"target" description:"Additional RSS feed URL to poll in serve mode (repeatable)"`
	DryRun      bool     `long:"dry-run" description:"Normalize, filter and report without acquiring, uploading or persisting"`
	RetryFailed bool     `long:"retry-failed" description:"Re-attempt failed tracks that have retries left, then exit"`
	Serve       bool     `long:"serve" description:"Run as a long-lived service (NATS consumer, RSS polling, HTTP API)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36" description:"User agent string for CDN requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:              raw.DBHost,
		DBPort:              raw.DBPort,
		DBUser:              raw.DBUser,
		DBPassword:          raw.DBPassword,
		DBName:              raw.DBName,
		ACRHost:             raw.ACRHost,
		ACRBucket:           raw.ACRBucket,
		ACRToken:            raw.ACRToken,
		SpotifyClientID:     raw.SpotifyClientID,
		SpotifyClientSecret: raw.SpotifyClientSecret,
		RedisAddress:        raw.RedisAddress,
		RedisPassword:       raw.RedisPassword,
		RedisDB:             raw.RedisDB,
		NatsURL:             raw.NatsURL,
		MeiliHost:           raw.MeiliHost,
		MeiliKey:            raw.MeiliKey,
		MeiliIndex:          raw.MeiliIndex,
		OutputDir:           raw.OutputDir,
		FiltersDir:          raw.FiltersDir,
		FeedsFile:           raw.FeedsFile,
		Port:                raw.Port,
		WorkerCount:         raw.WorkerCount,
		SchedulerInterval:   raw.SchedulerInterval,
		RetryInterval:       raw.RetryInterval,
		MaxRetries:          raw.MaxRetries,
		APIAccessKey:        raw.APIAccessKey,
		FFmpegPath:          raw.FFmpegPath,
		YtDlpPath:           raw.YtDlpPath,
		Input:               raw.Input,
		Platform:            raw.Platform,
		Targets:             raw.Targets,
		DryRun:              raw.DryRun,
		RetryFailed:         raw.RetryFailed,
		Serve:               raw.Serve,
		UserAgent:           raw.UserAgent,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
