// Package schema generates JSON schemas for the content blocker files
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/bnema/safari-blocker-converter/internal/models"
	"github.com/invopop/jsonschema"
)

// Schema kinds
const (
	KindStandard = "standard"
	KindAdvanced = "advanced"
)

const baseID = "https://github.com/bnema/safari-blocker-converter/"

// Standard returns the schema of a category file
func Standard() *jsonschema.Schema {
	r := &jsonschema.Reflector{DoNotReference: true}
	s := r.Reflect([]models.StandardRule{})
	s.ID = baseID + "content-blocker.schema.json"
	s.Title = "Safari Content Blocker"
	s.Description = "WebKit content blocker rules, applied in order"
	return s
}

// Advanced returns the schema of the combined advanced rules file
func Advanced() *jsonschema.Schema {
	r := &jsonschema.Reflector{DoNotReference: true}
	s := r.Reflect([]models.AdvancedRule{})
	s.ID = baseID + "advanced-blocking.schema.json"
	s.Title = "Advanced Blocking Rules"
	s.Description = "Script, scriptlet and CSS injection rules"
	return s
}

// Generate returns the indented schema of the given kind
func Generate(kind string) ([]byte, error) {
	var s *jsonschema.Schema
	switch kind {
	case KindStandard:
		s = Standard()
	case KindAdvanced:
		s = Advanced()
	default:
		return nil, fmt.Errorf("unknown schema %q, want %s or %s", kind, KindStandard, KindAdvanced)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}
