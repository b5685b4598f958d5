package parser

import (
	"strings"

	"github.com/bnema/safari-blocker-converter/internal/models"
)

// cosmeticMarker describes one #...# separator
type cosmeticMarker struct {
	kind      models.Kind
	exception bool
}

var cosmeticMarkers = map[string]cosmeticMarker{
	"##":    {models.KindCosmeticHide, false},
	"#@#":   {models.KindCosmeticException, true},
	"#?#":   {models.KindExtendedCSS, false},
	"#@?#":  {models.KindExtendedCSS, true},
	"#$#":   {models.KindCSSInject, false},
	"#@$#":  {models.KindCSSInject, true},
	"#$?#":  {models.KindExtendedCSS, false},
	"#@$?#": {models.KindExtendedCSS, true},
	"#%#":   {models.KindScript, false},
	"#@%#":  {models.KindScript, true},
}

// markerChars may appear between the two # of a cosmetic separator
const markerChars = "@?$%^+!"

// proceduralPseudos need a script runtime to evaluate
var proceduralPseudos = []string{
	":has(", ":has-text(", ":contains(", ":-abp-has(", ":-abp-contains(",
	":-abp-properties(", ":matches-css(", ":matches-css-before(",
	":matches-css-after(", ":matches-attr(", ":matches-property(",
	":xpath(", ":upward(", ":nth-ancestor(", ":remove(", ":min-text-length(",
	":watch-attr(", ":if(", ":if-not(",
}

// containsProcedural checks for procedural cosmetic filter syntax
func containsProcedural(selector string) bool {
	for _, p := range proceduralPseudos {
		if strings.Contains(selector, p) {
			return true
		}
	}
	return false
}

// parseCosmetic recognises cosmetic rules. The boolean is false when the
// line is not cosmetic and must be parsed as a network rule.
func parseCosmetic(line string) (models.Filter, bool) {
	idx := strings.IndexByte(line, '#')
	if idx == -1 || !isDomainList(line[:idx]) {
		return models.Filter{}, false
	}

	closing := strings.IndexByte(line[idx+1:], '#')
	if closing == -1 {
		return models.Filter{}, false
	}
	middle := line[idx+1 : idx+1+closing]
	if strings.Trim(middle, markerChars) != "" {
		return models.Filter{}, false
	}

	separator := line[idx : idx+closing+2]
	marker, known := cosmeticMarkers[separator]
	if !known {
		return invalid(line, ErrUnknownMarker), true
	}

	domains, ok := parseDomainList(line[:idx])
	if !ok {
		return invalid(line, ErrCosmeticBadDomains), true
	}

	body := strings.TrimSpace(line[idx+len(separator):])
	if body == "" {
		return invalid(line, ErrEmptyCosmetic), true
	}

	f := models.Filter{
		Kind:      marker.kind,
		Raw:       line,
		Domains:   domains,
		Exception: marker.exception,
	}

	switch marker.kind {
	case models.KindCosmeticHide, models.KindCosmeticException:
		return classifyElementHiding(f, body), true
	case models.KindCSSInject:
		return classifyCSSInject(f, body), true
	case models.KindExtendedCSS:
		f.Selector = body
		return f, true
	case models.KindScript:
		return classifyScript(f, body), true
	}
	return invalid(line, ErrUnknownMarker), true
}

// classifyElementHiding splits ## bodies into plain hiding, uBO scriptlets,
// :style() injections and procedural selectors
func classifyElementHiding(f models.Filter, body string) models.Filter {
	switch {
	case strings.HasPrefix(body, "+js("):
		call, reason := parseUBOScriptlet(body)
		if reason != "" {
			return invalid(f.Raw, reason)
		}
		f.Kind = models.KindScriptlet
		f.Scriptlet = call
		return f
	case strings.HasPrefix(body, "^"):
		return invalid(f.Raw, ErrHTMLFilter)
	}

	if sel, style, ok := splitStyle(body); ok {
		if sel == "" || style == "" {
			return invalid(f.Raw, ErrStyleUnbalanced)
		}
		f.Kind = models.KindCSSInject
		f.Selector = sel + " { " + style + " }"
		if containsProcedural(sel) {
			f.Kind = models.KindExtendedCSS
		}
		return f
	}

	f.Selector = body
	if containsProcedural(body) {
		f.Kind = models.KindExtendedCSS
	}
	return f
}

// splitStyle handles uBO sel:style(decl) syntax
func splitStyle(body string) (string, string, bool) {
	idx := strings.LastIndex(body, ":style(")
	if idx == -1 {
		return "", "", false
	}
	rest := body[idx+len(":style("):]
	if !strings.HasSuffix(rest, ")") {
		return "", "", true
	}
	return strings.TrimSpace(body[:idx]), strings.TrimSpace(rest[:len(rest)-1]), true
}

func classifyCSSInject(f models.Filter, body string) models.Filter {
	open := strings.IndexByte(body, '{')
	if open <= 0 || !strings.HasSuffix(body, "}") {
		return invalid(f.Raw, ErrCSSInjectNoStyle)
	}
	f.Selector = body
	if containsProcedural(body[:open]) {
		f.Kind = models.KindExtendedCSS
	}
	return f
}

func classifyScript(f models.Filter, body string) models.Filter {
	if strings.HasPrefix(body, "//scriptlet(") {
		call, reason := parseAdGuardScriptlet(body)
		if reason != "" {
			return invalid(f.Raw, reason)
		}
		f.Kind = models.KindScriptlet
		f.Scriptlet = call
		return f
	}
	f.Selector = body
	return f
}

// isDomainList reports whether s can be the domain part of a cosmetic rule
func isDomainList(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == ',', r == '~', r == '*', r == '_':
		case r > 127: // IDN
		default:
			return false
		}
	}
	return true
}

// parseDomainList parses comma-separated domain list
func parseDomainList(s string) ([]string, bool) {
	if s == "" {
		return nil, true
	}
	parts := strings.Split(s, ",")
	domains := make([]string, 0, len(parts))
	for _, d := range parts {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" || d == "~" {
			return nil, false
		}
		domains = append(domains, d)
	}
	return domains, true
}
