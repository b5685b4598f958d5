package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bnema/safari-blocker-converter/internal/converter"
	"github.com/bnema/safari-blocker-converter/internal/logging"
	"github.com/bnema/safari-blocker-converter/internal/models"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SBC_OUTPUT_DIR
const EnvPrefix = "SBC"

// minTargetVersion is the first Safari release with content blockers
const minTargetVersion = 11

// Loader reads the configuration from file, environment and flags.
// CLI flags > environment > config file > defaults precedence.
type Loader struct {
	v    *viper.Viper
	path string
}

// NewLoader creates a loader. An empty path searches ./configs and the
// working directory for filter_lists.toml.
func NewLoader(path string) *Loader {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("filter_lists")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath))
		v.AddConfigPath(".")
	}
	return &Loader{v: v, path: path}
}

// SetFs sets the filesystem the config file is read from
func (l *Loader) SetFs(fs afero.Fs) {
	l.v.SetFs(fs)
}

// BindFlag lets a command line flag override key
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag for %s", key)
	}
	return l.v.BindPFlag(key, flag)
}

// ConfigFile returns the file in use, empty when running on defaults
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("http.timeout", d.HTTP.Timeout.String())
	v.SetDefault("http.retries", d.HTTP.Retries)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.advanced_file", d.Output.AdvancedFile)
	v.SetDefault("output.generate_manifest", d.Output.GenerateManifest)
	v.SetDefault("output.deduplicate", d.Output.Deduplicate)
	v.SetDefault("output.indent", d.Output.Indent)

	v.SetDefault("conversion.target_version", d.Conversion.TargetVersion)
	v.SetDefault("conversion.optimize", d.Conversion.Optimize)
	v.SetDefault("conversion.emit_advanced", d.Conversion.EmitAdvanced)
	v.SetDefault("conversion.advanced_format", d.Conversion.AdvancedFormat)
	v.SetDefault("conversion.max_rules", d.Conversion.MaxRules)
	v.SetDefault("conversion.max_json_bytes", d.Conversion.MaxJSONBytes)
	v.SetDefault("conversion.workers", d.Conversion.Workers)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	cats := make([]map[string]any, 0, len(d.Categories))
	for _, c := range d.Categories {
		cats = append(cats, map[string]any{"id": c.ID, "file": c.File})
	}
	v.SetDefault("categories", cats)
}

// Load reads and validates the configuration. A missing file is only an
// error when a path was given explicitly.
func (l *Loader) Load() (models.Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.path != "" || !errors.As(err, &notFound) {
			return models.Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return l.decode()
}

func (l *Loader) decode() (models.Config, error) {
	var cfg models.Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return models.Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return models.Config{}, err
	}
	return cfg, nil
}

// Watch calls fn with the reloaded configuration whenever the config file
// changes. Invalid configurations are passed with their error.
func (l *Loader) Watch(fn func(models.Config, error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		fn(l.decode())
	})
	l.v.WatchConfig()
}

// Validate checks the configuration for values the pipeline cannot run with
func Validate(cfg models.Config) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if cfg.HTTP.Timeout < 0 {
		add("http.timeout must not be negative, got %v", cfg.HTTP.Timeout)
	}
	if cfg.HTTP.Retries < 0 {
		add("http.retries must not be negative, got %d", cfg.HTTP.Retries)
	}
	if cfg.Conversion.Workers <= 0 {
		add("conversion.workers must be positive, got %d", cfg.Conversion.Workers)
	}
	if cfg.Conversion.TargetVersion < minTargetVersion {
		add("conversion.target_version must be at least %d, got %d", minTargetVersion, cfg.Conversion.TargetVersion)
	}
	if cfg.Conversion.MaxRules < 0 {
		add("conversion.max_rules must not be negative, got %d", cfg.Conversion.MaxRules)
	}
	if f := cfg.Conversion.AdvancedFormat; f != "" && f != converter.AdvancedFormatJSON {
		add("conversion.advanced_format %q is not supported", f)
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		add("log.level: %v", err)
	}
	if _, err := logging.ParseFormat(cfg.Log.Format); err != nil {
		add("log.format: %v", err)
	}

	if len(cfg.Categories) == 0 {
		add("at least one category is required")
	}
	ids := make(map[string]bool)
	files := map[string]bool{cfg.Output.AdvancedFile: true, "manifest.json": true}
	for _, c := range cfg.Categories {
		switch {
		case c.ID == "":
			add("category without id")
		case ids[c.ID]:
			add("duplicate category %q", c.ID)
		}
		ids[c.ID] = true

		switch {
		case !strings.HasSuffix(c.File, ".json") || filepath.Base(c.File) != c.File:
			add("category %q: file must be a plain .json file name, got %q", c.ID, c.File)
		case files[c.File]:
			add("category %q: file %q is already used", c.ID, c.File)
		}
		files[c.File] = true
	}

	names := make(map[string]bool)
	for _, l := range cfg.Lists {
		if l.Name == "" {
			add("list without name")
		} else if names[l.Name] {
			add("duplicate list %q", l.Name)
		}
		names[l.Name] = true

		if (l.URL == "") == (l.Path == "") {
			add("list %q: exactly one of url and path is required", l.Name)
		}
		if !ids[l.Category] {
			add("list %q: unknown category %q", l.Name, l.Category)
		}
	}

	return errors.Join(errs...)
}
