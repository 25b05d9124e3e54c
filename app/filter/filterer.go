package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/unrlsd/trackhound/app/video"
)

// defaultMixKeywords flag recordings that are almost certainly full DJ sets
// rather than individual tracks.
var defaultMixKeywords = []string{
	"dj set",
	"b2b",
	"boiler room",
	"essential mix",
	"full set",
	"live set",
	"mix compilation",
}

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run evaluates the filter rules in order; the first failing rule
// short-circuits. The caller supplies now so the age check stays
// deterministic for a batch.
func (f *Filterer) Run(v video.Video, cfg *Config, now time.Time) Result {
	if cfg == nil || !cfg.Enabled {
		return Result{Passed: true}
	}

	if cfg.MinDuration > 0 && v.Duration < cfg.MinDuration {
		return Result{Reason: fmt.Sprintf("too short: %ds < %ds", v.Duration, cfg.MinDuration)}
	}

	if cfg.MaxAgeDays > 0 && !v.UploadedAt.IsZero() {
		ageDays := int(now.Sub(v.UploadedAt).Hours() / 24)
		if ageDays > cfg.MaxAgeDays {
			return Result{Reason: fmt.Sprintf("too old: %d days > %d days", ageDays, cfg.MaxAgeDays)}
		}
	}

	text := strings.ToLower(v.Title + " " + v.Description)

	for _, keyword := range cfg.ExcludeKeywords {
		if containsKeyword(text, strings.ToLower(keyword)) {
			return Result{Reason: fmt.Sprintf("excluded keyword '%s'", keyword)}
		}
	}

	if len(cfg.IncludeKeywords) > 0 {
		matched := false
		for _, keyword := range cfg.IncludeKeywords {
			if strings.Contains(text, strings.ToLower(keyword)) {
				matched = true
				break
			}
		}
		if !matched {
			return Result{Reason: fmt.Sprintf("no include keyword matched (%v)", cfg.IncludeKeywords)}
		}
	}

	if v.Platform.LongForm() {
		if result := f.applyLongFormRules(v, cfg, text); !result.Passed {
			return result
		}
	}

	return Result{Passed: true}
}

// applyLongFormRules rejects full sets and mixes on long-form platforms.
func (f *Filterer) applyLongFormRules(v video.Video, cfg *Config, text string) Result {
	if cfg.MaxDuration > 0 && v.Duration > cfg.MaxDuration {
		return Result{Reason: fmt.Sprintf("too long: %ds > %ds, likely a full mix/set", v.Duration, cfg.MaxDuration)}
	}

	mixKeywords := cfg.MixKeywords
	if len(mixKeywords) == 0 {
		mixKeywords = defaultMixKeywords
	}
	for _, keyword := range mixKeywords {
		if strings.Contains(text, strings.ToLower(keyword)) {
			return Result{Reason: fmt.Sprintf("likely a full mix/set: matched '%s'", keyword)}
		}
	}

	return Result{Passed: true}
}

// containsKeyword matches a case-insensitive substring, except that
// "released" must not match inside "unreleased". Go's regexp has no
// lookbehind, so occurrences are scanned and matches immediately preceded
// by "un" are skipped.
func containsKeyword(text, keyword string) bool {
	if keyword != "released" {
		return strings.Contains(text, keyword)
	}

	for offset := 0; ; {
		idx := strings.Index(text[offset:], keyword)
		if idx < 0 {
			return false
		}
		abs := offset + idx
		if abs < 2 || text[abs-2:abs] != "un" {
			return true
		}
		offset = abs + len(keyword)
	}
}
