package emitter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Writer writes JSON files so that readers only ever see complete files
type Writer struct {
	fs     afero.Fs
	dir    string
	indent bool
	logger zerolog.Logger
}

// NewWriter creates a writer rooted at dir
func NewWriter(fs afero.Fs, dir string, indent bool, logger zerolog.Logger) *Writer {
	return &Writer{
		fs:     fs,
		dir:    dir,
		indent: indent,
		logger: logger.With().Str("component", "emitter").Logger(),
	}
}

// Dir returns the output directory
func (w *Writer) Dir() string {
	return w.dir
}

// WriteJSON encodes v to name inside the output directory. The data goes to
// a temporary file in the same directory which is renamed over the target.
func (w *Writer) WriteJSON(name string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return w.WriteFile(name, buf.Bytes())
}

// WriteFile atomically replaces name with data
func (w *Writer) WriteFile(name string, data []byte) error {
	if err := w.fs.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	target := filepath.Join(w.dir, name)
	tmp, err := afero.TempFile(w.fs, w.dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = w.fs.Remove(tmpName)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(fmt.Errorf("write %s: %w", name, err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("sync %s: %w", name, err))
	}
	if err := tmp.Close(); err != nil {
		_ = w.fs.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := w.fs.Chmod(tmpName, 0o644); err != nil {
		_ = w.fs.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := w.fs.Rename(tmpName, target); err != nil {
		_ = w.fs.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", name, err)
	}

	w.logger.Debug().Str("file", target).Int("bytes", len(data)).Msg("written")
	return nil
}
