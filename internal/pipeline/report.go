package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bnema/safari-blocker-converter/internal/aggregator"
	"github.com/bnema/safari-blocker-converter/internal/models"
	"gopkg.in/yaml.v3"
)

// Report formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// CategorySummary reports one category file
type CategorySummary struct {
	ID     string       `json:"id" yaml:"id"`
	File   string       `json:"file" yaml:"file"`
	Rules  int          `json:"rules" yaml:"rules"`
	Noop   bool         `json:"noop,omitempty" yaml:"noop,omitempty"`
	Stats  models.Stats `json:"stats" yaml:"stats"`
	Errors []string     `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Report is the outcome of a run
type Report struct {
	RunID      string                   `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time                `json:"started_at" yaml:"started_at"`
	Duration   time.Duration            `json:"duration_ns" yaml:"duration"`
	DryRun     bool                     `json:"dry_run" yaml:"dry_run"`
	OutputDir  string                   `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	Written    []string                 `json:"written,omitempty" yaml:"written,omitempty"`
	Lists      []aggregator.ListSummary `json:"lists" yaml:"lists"`
	Categories []CategorySummary        `json:"categories" yaml:"categories"`
	Advanced   int                      `json:"advanced_rules" yaml:"advanced_rules"`
	Stats      models.Stats             `json:"stats" yaml:"stats"`
	Failures   []string                 `json:"failures,omitempty" yaml:"failures,omitempty"`

	// Errors holds one *models.ListError per failed list
	Errors []error `json:"-" yaml:"-"`
}

func (r *Report) fill(out *aggregator.Output, results []aggregator.ListResult) {
	r.Lists = out.Lists
	r.Stats = out.Stats
	r.Advanced = len(out.Advanced)
	for _, cat := range out.Categories {
		rules := len(cat.Rules)
		if cat.Noop {
			rules = 0
		}
		r.Categories = append(r.Categories, CategorySummary{
			ID:     cat.Category.ID,
			File:   cat.Category.File,
			Rules:  rules,
			Noop:   cat.Noop,
			Stats:  cat.Stats,
			Errors: cat.Errors,
		})
	}
	for _, res := range results {
		if res.Err != nil {
			r.Errors = append(r.Errors, res.Err)
			r.Failures = append(r.Failures, res.Err.Error())
		}
	}
}

// Err joins the errors of all failed lists
func (r *Report) Err() error {
	return errors.Join(r.Errors...)
}

// Clean reports whether every list converted and no category is over limit
func (r *Report) Clean() bool {
	return len(r.Errors) == 0 && !r.Stats.OverLimit
}

// Render writes the report in the given format
func (r *Report) Render(w io.Writer, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return r.renderText(w)
	}
	return fmt.Errorf("unknown report format %q", format)
}

func (r *Report) renderText(w io.Writer) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("Run %s\n", r.RunID)
	if r.DryRun {
		printf("[DRY RUN] No files were written\n")
	}

	printf("\nLists:\n")
	for _, l := range r.Lists {
		if l.Error != "" {
			printf("  %-24s ERROR: %s\n", l.Name, l.Error)
			continue
		}
		printf("  %-24s %s\n", l.Name, l.Stats.Message)
	}

	printf("\nCategories:\n")
	for _, c := range r.Categories {
		flag := ""
		if c.Stats.OverLimit {
			flag = " (over limit)"
		}
		if c.Noop {
			flag += " (empty)"
		}
		printf("  %-14s %-22s %7d rules%s\n", c.ID, c.File, c.Rules, flag)
	}

	printf("\nTotal: %d converted, %d advanced, %d errors of %d rules\n",
		r.Stats.ConvertedCount, r.Stats.AdvancedBlockingConvertedCount, r.Stats.ErrorsCount, r.Stats.TotalConvertedCount)
	if len(r.Failures) > 0 {
		printf("\nFailed lists:\n")
		for _, f := range r.Failures {
			printf("  - %s\n", f)
		}
	}
	if len(r.Written) > 0 {
		printf("\nWrote %d files to %s\n", len(r.Written), r.OutputDir)
	}
	return err
}
