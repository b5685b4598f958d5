package converter

import (
	"regexp"
	"strings"
)

// url-filter is a restricted regex: character classes, groups, the greedy
// quantifiers * + ? and anchors at either end. Everything below is rejected
// by the WebKit rule compiler, or fixed up before validation when a
// replacement exists.

var (
	reNumericQuantifier = regexp.MustCompile(`\{[0-9]+(,[0-9]+)?\}`)
	reNonASCII          = regexp.MustCompile(`[^\x00-\x7F]`)
	reNamedGroup        = regexp.MustCompile(`\(\?P?<[A-Za-z]`)
)

// RegexIssue is one unsupported construct found in a url-filter
type RegexIssue struct {
	Feature     string
	Match       string
	Replacement string // empty when the construct cannot be rewritten
}

// Fixable reports whether the construct has a WebKit equivalent
func (i RegexIssue) Fixable() bool {
	return i.Replacement != ""
}

func (i RegexIssue) String() string {
	if i.Match == "" {
		return i.Feature
	}
	return i.Feature + " " + i.Match
}

type regexCheck struct {
	feature     string
	find        func(string) []string
	replacement string
}

func literal(token string) func(string) []string {
	return func(p string) []string {
		if strings.Contains(p, token) {
			return []string{token}
		}
		return nil
	}
}

func allOf(re *regexp.Regexp) func(string) []string {
	return func(p string) []string { return re.FindAllString(p, -1) }
}

var regexChecks = []regexCheck{
	{"word boundary", literal(`\b`), ""},
	{"word boundary", literal(`\B`), ""},
	{"open quantifier", allOf(reNumericQuantifierOpen), "+"},
	{"counted quantifier", allOf(reNumericQuantifier), ""},
	{"lookbehind", literal(`(?<!`), ""},
	{"lookbehind", literal(`(?<=`), ""},
	{"lookahead", literal(`(?=`), ""},
	{"lookahead", literal(`(?!`), ""},
	{"named group", allOf(reNamedGroup), ""},
	{"unicode property", literal(`\p{`), ""},
	{"unicode property", literal(`\P{`), ""},
	{"disjunction", func(p string) []string {
		if containsDisjunction(p) {
			return []string{"|"}
		}
		return nil
	}, ""},
	{"non-ASCII", func(p string) []string {
		if reNonASCII.MatchString(p) {
			return []string{""}
		}
		return nil
	}, ""},
}

// CheckRegex lists the constructs in pattern WebKit does not accept
func CheckRegex(pattern string) []RegexIssue {
	var issues []RegexIssue
	for _, sc := range shorthandClasses {
		if strings.Contains(pattern, sc.escape) {
			issues = append(issues, RegexIssue{Feature: "shorthand class", Match: sc.escape, Replacement: sc.class})
		}
	}
	for _, c := range regexChecks {
		for _, m := range c.find(pattern) {
			issues = append(issues, RegexIssue{Feature: c.feature, Match: m, Replacement: c.replacement})
		}
	}
	return issues
}

// HasUnfixableIssues reports whether pattern contains a construct without
// a WebKit equivalent
func HasUnfixableIssues(pattern string) bool {
	for _, issue := range CheckRegex(pattern) {
		if !issue.Fixable() {
			return true
		}
	}
	return false
}

// DescribeIssues joins issues for log output
func DescribeIssues(issues []RegexIssue) string {
	parts := make([]string, len(issues))
	for i, issue := range issues {
		parts[i] = issue.String()
	}
	return strings.Join(parts, ", ")
}
