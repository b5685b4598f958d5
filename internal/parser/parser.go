package parser

import (
	"iter"
	"strings"

	"github.com/bnema/safari-blocker-converter/internal/models"
)

// Diagnostic messages attached to invalid filters
const (
	ErrEmptyPattern        = "empty pattern"
	ErrEmptyModifiers      = "empty modifier list"
	ErrEmptyModifier       = "empty modifier"
	ErrUnknownModifier     = "unknown modifier"
	ErrModifierValue       = "modifier does not take a value"
	ErrModifierNoValue     = "modifier requires a value"
	ErrModifierNegation    = "modifier cannot be negated"
	ErrEmptyDomain         = "empty domain"
	ErrExceptionOnly       = "modifier only allowed on exception rules"
	ErrUnknownMarker       = "unknown cosmetic marker"
	ErrEmptyCosmetic       = "empty cosmetic body"
	ErrHTMLFilter          = "html filtering rules are not supported"
	ErrCSSInjectNoStyle    = "css injection requires a style block"
	ErrScriptletSyntax     = "malformed scriptlet call"
	ErrExceptionNoPattern  = "exception without pattern or scope"
	ErrCosmeticBadDomains  = "malformed cosmetic domain list"
	ErrScriptletEmptyName  = "scriptlet without name"
	ErrUnbalancedQuotes    = "unbalanced quotes in scriptlet arguments"
	ErrStyleUnbalanced     = "unbalanced :style() block"
	ErrNetworkRuleTooShort = "pattern too short"
)

// Parse lazily parses filter list text. Comments, section headers and
// empty lines are dropped; malformed lines are yielded as KindInvalid.
// The returned sequence can be iterated any number of times.
func Parse(text string) iter.Seq[models.Filter] {
	return func(yield func(models.Filter) bool) {
		for lineNo, line := range Lines(text) {
			f, ok := ParseLine(line)
			if !ok {
				continue
			}
			f.Line = lineNo
			if !yield(f) {
				return
			}
		}
	}
}

// Lines splits text on \n, \r\n and \r, yielding 1-based line numbers
func Lines(text string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		rest := text
		lineNo := 0
		for rest != "" {
			line := rest
			rest = ""
			if i := strings.IndexAny(line, "\r\n"); i >= 0 {
				next := i + 1
				if line[i] == '\r' && next < len(line) && line[next] == '\n' {
					next++
				}
				rest = line[next:]
				line = line[:i]
			}
			lineNo++
			if !yield(lineNo, line) {
				return
			}
		}
	}
}

// ParseLine parses a single filter line. The boolean is false for lines
// that carry no rule (empty, comment, section header).
func ParseLine(line string) (models.Filter, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return models.Filter{}, false
	}

	// Comments and [Adblock Plus 2.0] style headers
	if strings.HasPrefix(line, "!") || strings.HasPrefix(line, "[") {
		return models.Filter{}, false
	}

	if f, ok := parseCosmetic(line); ok {
		return f, true
	}

	// Exception rules (allowlist)
	if strings.HasPrefix(line, "@@") {
		return parseNetwork(line, line[2:], true), true
	}

	return parseNetwork(line, line, false), true
}

func invalid(raw, reason string) models.Filter {
	return models.Filter{Kind: models.KindInvalid, Raw: raw, Error: reason}
}

// parseNetwork parses a network filter
func parseNetwork(raw, line string, isException bool) models.Filter {
	kind := models.KindNetwork
	if isException {
		kind = models.KindNetworkException
	}

	pattern := line
	var options models.FilterOptions

	// Split pattern and options
	if idx := optionsIndex(line); idx != -1 {
		pattern = line[:idx]
		opts, reason := parseOptions(line[idx+1:])
		if reason != "" {
			return invalid(raw, reason)
		}
		options = opts
	}

	if reason := validateNetwork(pattern, options, isException); reason != "" {
		return invalid(raw, reason)
	}

	return models.Filter{
		Kind:      kind,
		Raw:       raw,
		Pattern:   pattern,
		Options:   options,
		Exception: isException,
	}
}

// optionsIndex returns the position of the $ that starts the modifier list
func optionsIndex(line string) int {
	idx := strings.LastIndex(line, "$")
	if idx == -1 {
		return -1
	}
	// Escaped dollar is part of the pattern
	if idx > 0 && line[idx-1] == '\\' {
		return -1
	}
	// Looks like a regex end anchor: /ads$/
	if strings.HasPrefix(line[idx+1:], "/") {
		return -1
	}
	return idx
}

// validateNetwork checks modifiers against what a network rule may carry
func validateNetwork(pattern string, opts models.FilterOptions, isException bool) string {
	if !isException && (opts.ElemHide || opts.GenericHide) {
		return ErrExceptionOnly
	}
	if pattern == "" && opts.IsEmpty() {
		if isException {
			return ErrExceptionNoPattern
		}
		return ErrEmptyPattern
	}
	// Single characters such as "|" or "^" match almost anything
	trimmed := strings.Trim(pattern, "|^*")
	if pattern != "" && trimmed == "" && opts.IsEmpty() {
		return ErrNetworkRuleTooShort
	}
	return ""
}
