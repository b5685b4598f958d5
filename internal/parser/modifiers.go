package parser

import (
	"slices"
	"strings"

	"github.com/bnema/safari-blocker-converter/internal/models"
)

// resourceTypeAliases maps modifier names to their canonical filter-list name
var resourceTypeAliases = map[string]string{
	"script":            "script",
	"image":             "image",
	"img":               "image",
	"stylesheet":        "stylesheet",
	"css":               "stylesheet",
	"font":              "font",
	"media":             "media",
	"xmlhttprequest":    "xmlhttprequest",
	"xhr":               "xmlhttprequest",
	"subdocument":       "subdocument",
	"frame":             "subdocument",
	"object":            "object",
	"object-subrequest": "object",
	"ping":              "ping",
	"beacon":            "ping",
	"websocket":         "websocket",
	"other":             "other",
	"popup":             "popup",
}

// unsupportedModifiers are valid filter syntax with no WebKit equivalent
var unsupportedModifiers = map[string]bool{
	"redirect":      true,
	"redirect-rule": true,
	"csp":           true,
	"removeparam":   true,
	"replace":       true,
	"header":        true,
	"method":        true,
	"to":            true,
	"permissions":   true,
	"uritransform":  true,
	"cookie":        true,
	"removeheader":  true,
	"hls":           true,
	"jsonprune":     true,
	"denyallow":     true,
	"rewrite":       true,
	"stealth":       true,
	"urlblock":      true,
	"content":       true,
	"jsinject":      true,
	"extension":     true,
}

// ResourceTypeNames returns every canonical resource type name, sorted
func ResourceTypeNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, v := range resourceTypeAliases {
		if !seen[v] {
			seen[v] = true
			names = append(names, v)
		}
	}
	slices.Sort(names)
	return names
}

// parseOptions parses network filter options. A non-empty reason marks
// the rule invalid.
func parseOptions(s string) (models.FilterOptions, string) {
	var opts models.FilterOptions
	if strings.TrimSpace(s) == "" {
		return opts, ErrEmptyModifiers
	}

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return opts, ErrEmptyModifier
		}

		key, value, hasValue := strings.Cut(part, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		negated := strings.HasPrefix(key, "~")
		name := strings.TrimPrefix(key, "~")

		canonical, reason := applyOption(&opts, name, value, negated, hasValue)
		if reason != "" {
			return opts, reason
		}
		if canonical != "" {
			opts.Canonical = append(opts.Canonical, canonical)
		}
	}

	slices.Sort(opts.Canonical)
	opts.Canonical = slices.Compact(opts.Canonical)
	return opts, ""
}

// applyOption records one modifier and returns its canonical token
func applyOption(opts *models.FilterOptions, name, value string, negated, hasValue bool) (string, string) {
	if name == "domain" {
		if negated {
			return "", ErrModifierNegation
		}
		if !hasValue || strings.TrimSpace(value) == "" {
			return "", ErrModifierNoValue
		}
		include, exclude, ok := parseDomainOption(value)
		if !ok {
			return "", ErrEmptyDomain
		}
		opts.Domains = append(opts.Domains, include...)
		opts.ExcludeDomains = append(opts.ExcludeDomains, exclude...)
		return "domain=" + canonicalDomains(include, exclude), ""
	}

	if unsupportedModifiers[name] {
		opts.Unsupported = append(opts.Unsupported, name)
		token := name
		if negated {
			token = "~" + token
		}
		if hasValue {
			token += "=" + value
		}
		return token, ""
	}

	if hasValue {
		return "", ErrModifierValue
	}

	switch name {
	case "third-party", "3p":
		tp := !negated
		opts.ThirdParty = &tp
		if negated {
			return "~third-party", ""
		}
		return "third-party", ""
	case "first-party", "1p":
		tp := negated
		opts.ThirdParty = &tp
		if negated {
			return "third-party", ""
		}
		return "~third-party", ""
	}

	if rt, ok := resourceTypeAliases[name]; ok {
		if negated {
			opts.ExcludedResourceTypes = appendUnique(opts.ExcludedResourceTypes, rt)
			return "~" + rt, ""
		}
		opts.ResourceTypes = appendUnique(opts.ResourceTypes, rt)
		return rt, ""
	}

	if negated {
		if _, known := flagModifiers[name]; known {
			return "", ErrModifierNegation
		}
		return "", ErrUnknownModifier
	}

	canonical, known := flagModifiers[name]
	if !known {
		return "", ErrUnknownModifier
	}
	switch canonical {
	case "match-case":
		opts.MatchCase = true
	case "important":
		opts.Important = true
	case "badfilter":
		opts.BadFilter = true
		return "", ""
	case "document":
		opts.Document = true
	case "elemhide":
		opts.ElemHide = true
	case "generichide":
		opts.GenericHide = true
	}
	return canonical, ""
}

// flagModifiers maps value-less modifiers to their canonical name
var flagModifiers = map[string]string{
	"match-case":  "match-case",
	"important":   "important",
	"badfilter":   "badfilter",
	"document":    "document",
	"doc":         "document",
	"elemhide":    "elemhide",
	"ehide":       "elemhide",
	"generichide": "generichide",
	"ghide":       "generichide",
}

// parseDomainOption parses domain=example.com|~excluded.com
func parseDomainOption(s string) (include, exclude []string, ok bool) {
	for _, d := range strings.Split(s, "|") {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" || d == "~" {
			return nil, nil, false
		}
		if strings.HasPrefix(d, "~") {
			exclude = append(exclude, d[1:])
		} else {
			include = append(include, d)
		}
	}
	return include, exclude, true
}

func canonicalDomains(include, exclude []string) string {
	parts := make([]string, 0, len(include)+len(exclude))
	parts = append(parts, include...)
	for _, d := range exclude {
		parts = append(parts, "~"+d)
	}
	slices.Sort(parts)
	return strings.Join(slices.Compact(parts), "|")
}

func appendUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
