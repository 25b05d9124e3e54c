package filter

// Config holds the filter thresholds for one platform, loaded from
// filters/<platform>.yml.
type Config struct {
	Platform string `yaml:"platform"` // overwritten with the filename stem
	Enabled  bool   `yaml:"enabled"`

	MinDuration     int      `yaml:"min_duration"`  // seconds; 0 disables
	MaxAgeDays      int      `yaml:"max_age_days"`  // 0 disables
	ExcludeKeywords []string `yaml:"exclude_keywords"`
	IncludeKeywords []string `yaml:"include_keywords"`

	// Long-form extension (YouTube, SoundCloud): reject full sets/mixes.
	MaxDuration int      `yaml:"max_duration"` // seconds; 0 disables
	MixKeywords []string `yaml:"mix_keywords"` // empty means the default list
}

// Result is the outcome of evaluating the filter rules for one video.
type Result struct {
	Passed bool
	Reason string
}
