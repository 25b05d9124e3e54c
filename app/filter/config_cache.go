package filter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/unrlsd/trackhound/app/video"
)

// ConfigCache loads and caches per-platform filter configurations from a
// directory of <platform>.yml files.
type ConfigCache struct {
	filtersDir string
	cache      map[video.Platform]*Config
	mu         sync.RWMutex
}

func NewConfigCache(filtersDir string) *ConfigCache {
	return &ConfigCache{
		filtersDir: filtersDir,
		cache:      make(map[video.Platform]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.filtersDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.filtersDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yml")
		platform, ok := video.ParsePlatform(name)
		if !ok {
			return fmt.Errorf("filter config %s does not name a known platform", file)
		}

		config, err := cc.loadFile(file, platform)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		cc.mu.Lock()
		cc.cache[platform] = config
		cc.mu.Unlock()

		slog.Debug("Filter configuration loaded", "platform", platform,
			"enabled", config.Enabled, "min_duration", config.MinDuration,
			"max_age_days", config.MaxAgeDays)
	}

	return nil
}

// GetConfig returns the platform's filter config, or a pass-through default
// when no file was provided for it.
func (cc *ConfigCache) GetConfig(platform video.Platform) *Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	if config, ok := cc.cache[platform]; ok {
		return config
	}
	return &Config{Platform: string(platform)}
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) loadFile(path string, platform video.Platform) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.Platform = string(platform)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func validateConfig(config *Config) error {
	nonNegativeFields := map[string]int{
		"min_duration": config.MinDuration,
		"max_age_days": config.MaxAgeDays,
		"max_duration": config.MaxDuration,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	if config.MaxDuration > 0 && config.MinDuration > config.MaxDuration {
		return fmt.Errorf("min_duration exceeds max_duration")
	}

	return nil
}
