package config

import (
	"time"

	"github.com/bnema/safari-blocker-converter/internal/models"
)

// DefaultPath is where init writes the config and where it is searched first
const DefaultPath = "./configs/filter_lists.toml"

// DefaultCategories are the content blockers a run produces
func DefaultCategories() []models.Category {
	ids := []string{"ads", "privacy", "security", "multipurpose", "annoyances", "experimental", "foreign", "custom"}
	cats := make([]models.Category, 0, len(ids))
	for _, id := range ids {
		cats = append(cats, models.Category{ID: id, File: id + ".json"})
	}
	return cats
}

// DefaultConfig returns the configuration written by init
func DefaultConfig() models.Config {
	return models.Config{
		HTTP: models.HTTPConfig{
			Timeout:   30 * time.Second,
			Retries:   3,
			UserAgent: "safari-blocker-converter/1.0",
		},
		Output: models.OutputConfig{
			Dir:              "./output",
			AdvancedFile:     "advancedBlocking.json",
			GenerateManifest: true,
			Deduplicate:      true,
		},
		Conversion: models.ConversionConfig{
			TargetVersion:  16,
			Optimize:       true,
			EmitAdvanced:   true,
			AdvancedFormat: "json",
			Workers:        4,
		},
		Log: models.LogConfig{
			Level:  "info",
			Format: "console",
		},
		Categories: DefaultCategories(),
		Lists: []models.FilterList{
			{Name: "easylist", URL: "https://easylist.to/easylist/easylist.txt", Category: "ads", Enabled: true},
			{Name: "easyprivacy", URL: "https://easylist.to/easylist/easyprivacy.txt", Category: "privacy", Enabled: true},
			{Name: "ublock-filters", URL: "https://ublockorigin.github.io/uAssets/filters/filters.txt", Category: "ads", Enabled: true},
			{Name: "ublock-privacy", URL: "https://ublockorigin.github.io/uAssets/filters/privacy.txt", Category: "privacy", Enabled: true},
			{Name: "ublock-badware", URL: "https://ublockorigin.github.io/uAssets/filters/badware.txt", Category: "security", Enabled: true},
			{Name: "ublock-unbreak", URL: "https://ublockorigin.github.io/uAssets/filters/unbreak.txt", Category: "ads", Enabled: true},
			{Name: "ublock-quick-fixes", URL: "https://ublockorigin.github.io/uAssets/filters/quick-fixes.txt", Category: "multipurpose", Enabled: true},
			{Name: "peter-lowe", URL: "https://pgl.yoyo.org/adservers/serverlist.php?hostformat=adblockplus&showintro=0&mimetype=plaintext", Category: "ads", Enabled: true},
			{Name: "fanboy-annoyance", URL: "https://secure.fanboy.co.nz/fanboy-annoyance.txt", Category: "annoyances", Enabled: false},
			{Name: "local-rules", Path: "./configs/custom.txt", Category: "custom", Enabled: false},
		},
	}
}
