package config

import (
	"bytes"
	"fmt"

	"github.com/bnema/safari-blocker-converter/internal/models"
	"github.com/pelletier/go-toml/v2"
)

type document struct {
	HTTP struct {
		Timeout   string `toml:"timeout" comment:"Per request timeout, e.g. 30s"`
		Retries   int    `toml:"retries" comment:"Extra attempts after a failed download, 0 disables retrying"`
		UserAgent string `toml:"user_agent"`
	} `toml:"http"`
	Output struct {
		Dir              string `toml:"dir"`
		AdvancedFile     string `toml:"advanced_file"`
		GenerateManifest bool   `toml:"generate_manifest"`
		Deduplicate      bool   `toml:"deduplicate"`
		Indent           bool   `toml:"indent"`
	} `toml:"output"`
	Conversion struct {
		TargetVersion  int    `toml:"target_version" comment:"Safari major version the rules are built for"`
		Optimize       bool   `toml:"optimize"`
		EmitAdvanced   bool   `toml:"emit_advanced"`
		AdvancedFormat string `toml:"advanced_format"`
		MaxRules       int    `toml:"max_rules" comment:"0 uses the Safari limit for target_version"`
		MaxJSONBytes   int    `toml:"max_json_bytes" comment:"0 uses 2 MiB, negative disables the check"`
		Workers        int    `toml:"workers"`
	} `toml:"conversion"`
	Log struct {
		Level  string `toml:"level" comment:"trace, debug, info, warn, error or disabled"`
		Format string `toml:"format" comment:"console or json"`
	} `toml:"log"`
	Categories []category `toml:"categories"`
	Lists      []list     `toml:"lists"`
}

type category struct {
	ID   string `toml:"id"`
	File string `toml:"file"`
}

type list struct {
	Name     string `toml:"name"`
	URL      string `toml:"url,omitempty"`
	Path     string `toml:"path,omitempty"`
	Category string `toml:"category"`
	Enabled  bool   `toml:"enabled"`
}

func toDocument(cfg models.Config) document {
	var d document
	d.HTTP.Timeout = cfg.HTTP.Timeout.String()
	d.HTTP.Retries = cfg.HTTP.Retries
	d.HTTP.UserAgent = cfg.HTTP.UserAgent

	d.Output.Dir = cfg.Output.Dir
	d.Output.AdvancedFile = cfg.Output.AdvancedFile
	d.Output.GenerateManifest = cfg.Output.GenerateManifest
	d.Output.Deduplicate = cfg.Output.Deduplicate
	d.Output.Indent = cfg.Output.Indent

	d.Conversion.TargetVersion = cfg.Conversion.TargetVersion
	d.Conversion.Optimize = cfg.Conversion.Optimize
	d.Conversion.EmitAdvanced = cfg.Conversion.EmitAdvanced
	d.Conversion.AdvancedFormat = cfg.Conversion.AdvancedFormat
	d.Conversion.MaxRules = cfg.Conversion.MaxRules
	d.Conversion.MaxJSONBytes = cfg.Conversion.MaxJSONBytes
	d.Conversion.Workers = cfg.Conversion.Workers

	d.Log.Level = cfg.Log.Level
	d.Log.Format = cfg.Log.Format

	for _, c := range cfg.Categories {
		d.Categories = append(d.Categories, category{ID: c.ID, File: c.File})
	}
	for _, l := range cfg.Lists {
		d.Lists = append(d.Lists, list{Name: l.Name, URL: l.URL, Path: l.Path, Category: l.Category, Enabled: l.Enabled})
	}
	return d
}

// Render encodes cfg as TOML in the layout Load reads
func Render(cfg models.Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# safari-blocker-converter configuration\n\n")

	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(toDocument(cfg)); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderDefault encodes DefaultConfig
func RenderDefault() ([]byte, error) {
	return Render(DefaultConfig())
}
