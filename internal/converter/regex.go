package converter

import (
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

const (
	// separatorClass is the expansion of ^: anything that cannot be part of
	// a host or path token
	separatorClass = `[^%.0-9a-z_-]`
	// hostAnchor is the expansion of ||: scheme plus optional subdomains
	hostAnchor = `^[a-z-]+://([^/?#]+\.)?`
	// hostAnchorDot is used when the pattern itself starts with a dot
	hostAnchorDot = `^[a-z-]+://([^/?#]+)?`
)

var (
	reSpecialChars          = regexp.MustCompile(`[.+?${}()|[\]\\]`)
	reLeadingWildcards      = regexp.MustCompile(`^\*+`)
	reTrailingWildcards     = regexp.MustCompile(`\*+$`)
	reWildcards             = regexp.MustCompile(`\*+`)
	reNumericQuantifierOpen = regexp.MustCompile(`\{[0-9]+,\}`)
)

// shorthandClasses are escapes WebKit lacks, with their explicit classes
var shorthandClasses = []struct{ escape, class string }{
	{`\w`, `[a-zA-Z0-9_]`},
	{`\W`, `[^a-zA-Z0-9_]`},
	{`\d`, `[0-9]`},
	{`\D`, `[^0-9]`},
	{`\s`, `[ \t\n\r\f\v]`},
	{`\S`, `[^ \t\n\r\f\v]`},
}

type anchors struct {
	host  bool // ||
	start bool // leading |
	end   bool // trailing |
}

func (a anchors) any() bool {
	return a.host || a.start || a.end
}

func splitAnchors(pattern string) (string, anchors) {
	var a anchors
	switch {
	case strings.HasPrefix(pattern, "||"):
		a.host = true
		pattern = pattern[2:]
	case strings.HasPrefix(pattern, "|"):
		a.start = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "|") {
		a.end = true
		pattern = pattern[:len(pattern)-1]
	}
	return pattern, a
}

// PatternToRegex translates an AdBlock network pattern into a url-filter
func PatternToRegex(pattern string) string {
	if pattern == "" || pattern == "*" {
		return ".*"
	}

	body, a := splitAnchors(pattern)

	// /.../ is a regex already; with anchors around it the slashes are literal
	if !a.any() && len(body) > 2 && strings.HasPrefix(body, "/") && strings.HasSuffix(body, "/") {
		return expandCharacterClasses(body[1 : len(body)-1])
	}

	if a.host {
		body = punycodeHost(body)
	}

	// A final ^ also matches the end of the URL
	if !a.end {
		body = strings.TrimRight(body, "*")
	}
	sepEnd := len(body) > 0 && body[len(body)-1] == '^'
	if sepEnd {
		body = body[:len(body)-1]
	}

	re := reSpecialChars.ReplaceAllString(body, `\$0`)
	re = strings.ReplaceAll(re, "^", separatorClass)
	if !a.start && !a.host {
		re = reLeadingWildcards.ReplaceAllString(re, "")
	}
	if !a.end && !sepEnd {
		re = reTrailingWildcards.ReplaceAllString(re, "")
	}
	re = reWildcards.ReplaceAllString(re, ".*")

	switch {
	case a.host && strings.HasPrefix(re, `\.`):
		re = hostAnchorDot + re
	case a.host:
		re = hostAnchor + re
	case a.start:
		re = "^" + re
	}
	switch {
	case sepEnd && a.end:
		re += "(" + separatorClass + ")?$"
	case sepEnd:
		re += "(" + separatorClass + ".*)?$"
	case a.end:
		re += "$"
	}

	if re == "" {
		return ".*"
	}
	return re
}

// punycodeHost converts the host part of a ||host/path pattern to ASCII
func punycodeHost(s string) string {
	end := strings.IndexAny(s, "^/*|:?")
	if end == -1 {
		end = len(s)
	}
	host := s[:end]
	if isASCII(host) {
		return s
	}
	ascii, err := idna.ToASCII(strings.ToLower(host))
	if err != nil {
		// ValidateRegex rejects the non-ASCII result
		return s
	}
	return ascii + s[end:]
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

// ValidateRegex reports whether WebKit accepts pattern as a url-filter.
// Fixable constructs must have been rewritten by expandCharacterClasses.
func ValidateRegex(pattern string) bool {
	if _, err := regexp.Compile(pattern); err != nil {
		return false
	}
	return len(CheckRegex(pattern)) == 0
}

// containsDisjunction reports a | outside of character classes
func containsDisjunction(pattern string) bool {
	inClass, escaped := false, false
	for _, ch := range pattern {
		switch {
		case escaped:
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '[':
			inClass = true
		case ch == ']':
			inClass = false
		case ch == '|' && !inClass:
			return true
		}
	}
	return false
}

// expandCharacterClasses rewrites the constructs WebKit lacks but that have
// an equivalent: shorthand classes and {n,}, which becomes +
func expandCharacterClasses(pattern string) string {
	for _, sc := range shorthandClasses {
		pattern = strings.ReplaceAll(pattern, sc.escape, sc.class)
	}
	return reNumericQuantifierOpen.ReplaceAllString(pattern, "+")
}
