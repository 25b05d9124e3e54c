package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Audio fingerprinting service (ACRCloud-compatible bucket API)
	ACRHost   string
	ACRBucket string
	ACRToken  string

	// Release catalog lookup (Spotify client credentials)
	SpotifyClientID     string
	SpotifyClientSecret string

	// Seen-URL cache
	RedisAddress  string
	RedisPassword string
	RedisDB       int

	// Raw record transport (serve mode)
	NatsURL string

	// Track search index (optional)
	MeiliHost  string
	MeiliKey   string
	MeiliIndex string

	// Application configuration
	OutputDir         string
	FiltersDir        string
	FeedsFile         string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	RetryInterval     int
	MaxRetries        int
	APIAccessKey      string

	// External tools
	FFmpegPath string
	YtDlpPath  string

	// Run mode
	Input       string
	Platform    string
	Targets     []string
	DryRun      bool
	RetryFailed bool
	Serve       bool

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
