package emitter

import (
	"errors"
	"fmt"
	"time"

	"github.com/bnema/safari-blocker-converter/internal/aggregator"
	"github.com/bnema/safari-blocker-converter/internal/models"
)

// Output file names
const (
	DefaultAdvancedFile = "advancedBlocking.json"
	ManifestFile        = "manifest.json"
)

// Manifest contains metadata about the conversion
type Manifest struct {
	Version     string                   `json:"version"`
	GeneratedAt string                   `json:"generated_at"`
	RunID       string                   `json:"run_id"`
	Lists       []aggregator.ListSummary `json:"lists"`
	Categories  []CategoryInfo           `json:"categories"`
	Advanced    AdvancedInfo             `json:"advanced"`
	Stats       models.Stats             `json:"stats"`
}

// CategoryInfo describes one category file
type CategoryInfo struct {
	ID    string       `json:"id"`
	File  string       `json:"file"`
	Rules int          `json:"rules"`
	Noop  bool         `json:"noop,omitempty"`
	Lists []string     `json:"lists,omitempty"`
	Stats models.Stats `json:"stats"`
}

// AdvancedInfo describes the combined advanced rules file
type AdvancedInfo struct {
	File  string `json:"file"`
	Rules int    `json:"rules"`
}

// Emitter writes aggregated output
type Emitter struct {
	w            *Writer
	advancedFile string
	manifest     bool
	now          func() time.Time
}

// New creates an emitter on top of w
func New(w *Writer, cfg models.OutputConfig) *Emitter {
	advanced := cfg.AdvancedFile
	if advanced == "" {
		advanced = DefaultAdvancedFile
	}
	return &Emitter{
		w:            w,
		advancedFile: advanced,
		manifest:     cfg.GenerateManifest,
		now:          time.Now,
	}
}

// WriteOutput writes every category file, the combined advanced rules and
// the manifest. It keeps going after a failed file and returns the joined
// errors together with the files that were written.
func (e *Emitter) WriteOutput(out *aggregator.Output, runID string) ([]string, error) {
	var written []string
	var errs []error

	write := func(name string, v any) {
		if err := e.w.WriteJSON(name, v); err != nil {
			errs = append(errs, err)
			return
		}
		written = append(written, name)
	}

	for _, cat := range out.Categories {
		write(cat.Category.File, cat.Rules)
	}

	advanced := out.Advanced
	if advanced == nil {
		advanced = []models.AdvancedRule{}
	}
	write(e.advancedFile, advanced)

	if e.manifest {
		write(ManifestFile, e.buildManifest(out, runID))
	}

	if len(errs) > 0 {
		return written, fmt.Errorf("write output: %w", errors.Join(errs...))
	}
	return written, nil
}

func (e *Emitter) buildManifest(out *aggregator.Output, runID string) Manifest {
	now := e.now()
	m := Manifest{
		Version:     now.Format("2006.01.02"),
		GeneratedAt: now.UTC().Format(time.RFC3339),
		RunID:       runID,
		Lists:       out.Lists,
		Advanced:    AdvancedInfo{File: e.advancedFile, Rules: len(out.Advanced)},
		Stats:       out.Stats,
	}
	for _, cat := range out.Categories {
		rules := len(cat.Rules)
		if cat.Noop {
			rules = 0
		}
		m.Categories = append(m.Categories, CategoryInfo{
			ID:    cat.Category.ID,
			File:  cat.Category.File,
			Rules: rules,
			Noop:  cat.Noop,
			Lists: cat.Lists,
			Stats: cat.Stats,
		})
	}
	return m
}
