package models

import "time"

// Config represents the main configuration
type Config struct {
	HTTP       HTTPConfig       `mapstructure:"http"`
	Output     OutputConfig     `mapstructure:"output"`
	Conversion ConversionConfig `mapstructure:"conversion"`
	Log        LogConfig        `mapstructure:"log"`
	Categories []Category       `mapstructure:"categories"`
	Lists      []FilterList     `mapstructure:"lists"`
}

// HTTPConfig contains HTTP client settings
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	Retries   int           `mapstructure:"retries"` // extra attempts after the first
	UserAgent string        `mapstructure:"user_agent"`
}

// OutputConfig contains output settings
type OutputConfig struct {
	Dir              string `mapstructure:"dir"`
	AdvancedFile     string `mapstructure:"advanced_file"`
	GenerateManifest bool   `mapstructure:"generate_manifest"`
	Deduplicate      bool   `mapstructure:"deduplicate"`
	Indent           bool   `mapstructure:"indent"`
}

// ConversionConfig controls the rule converter and the worker pool
type ConversionConfig struct {
	TargetVersion  int    `mapstructure:"target_version"`
	Optimize       bool   `mapstructure:"optimize"`
	EmitAdvanced   bool   `mapstructure:"emit_advanced"`
	AdvancedFormat string `mapstructure:"advanced_format"`
	MaxRules       int    `mapstructure:"max_rules"`
	MaxJSONBytes   int    `mapstructure:"max_json_bytes"`
	Workers        int    `mapstructure:"workers"`
}

// LogConfig contains logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Category maps a category identifier to its content blocker file
type Category struct {
	ID   string `mapstructure:"id"`
	File string `mapstructure:"file"`
}

// FilterList represents a single filter list configuration
type FilterList struct {
	Name     string `mapstructure:"name"`
	URL      string `mapstructure:"url"`
	Path     string `mapstructure:"path"`
	Category string `mapstructure:"category"`
	Enabled  bool   `mapstructure:"enabled"`
}

// Source returns the URL or local path of the list
func (l FilterList) Source() string {
	if l.URL != "" {
		return l.URL
	}
	return l.Path
}

// EnabledLists returns only enabled filter lists
func (c *Config) EnabledLists() []FilterList {
	var enabled []FilterList
	for _, l := range c.Lists {
		if l.Enabled {
			enabled = append(enabled, l)
		}
	}
	return enabled
}

// Category returns the category with the given id
func (c *Config) Category(id string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}
