package converter

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandCharacterClasses(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"digits in a size token", `\d+x\d+\.gif`, `[0-9]+x[0-9]+\.gif`},
		{"word run with open quantifier", `\/\w{8,}\.js`, `\/[a-zA-Z0-9_]+\.js`},
		{"negated classes", `\W\D\S`, `[^a-zA-Z0-9_][^0-9][^ \t\n\r\f\v]`},
		{"whitespace", `ad\sunit`, `ad[ \t\n\r\f\v]unit`},
		{"open quantifier on a class", `[0-9]{2,}`, `[0-9]+`},
		{"counted quantifier is left for validation", `[0-9]{2}`, `[0-9]{2}`},
		{"nothing to rewrite", `^https?://cdn\.`, `^https?://cdn\.`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandCharacterClasses(tt.input))
		})
	}
}

func TestPatternToRegex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ".*"},
		{"lone wildcard", "*", ".*"},
		{"path fragment", "/banner/ads", `/banner/ads`},
		{"regex metacharacters are escaped", "a+b?c", `a\+b\?c`},
		{"host without separator", "||ads.example.com", `^[a-z-]+://([^/?#]+\.)?ads\.example\.com`},
		{"host with separator", "||tracker.io^", `^[a-z-]+://([^/?#]+\.)?tracker\.io([^%.0-9a-z_-].*)?$`},
		{"host with separator and end anchor", "||tracker.io^|", `^[a-z-]+://([^/?#]+\.)?tracker\.io([^%.0-9a-z_-])?$`},
		{"host starting with a dot", "||.cdn.net^", `^[a-z-]+://([^/?#]+)?\.cdn\.net([^%.0-9a-z_-].*)?$`},
		{"separator then wildcard", "||cdn.test^*/ads/", `^[a-z-]+://([^/?#]+\.)?cdn\.test[^%.0-9a-z_-].*/ads/`},
		{"internationalized host", "||bücher.example^", `^[a-z-]+://([^/?#]+\.)?xn--bcher-kva\.example([^%.0-9a-z_-].*)?$`},
		{"start anchor", "|https://cdn.test/ad.js", `^https://cdn\.test/ad\.js`},
		{"start anchor keeps slashes literal", "|/ads/", `^/ads/`},
		{"end anchor", ".swf|", `\.swf$`},
		{"wildcard before end anchor", "ads*|", `ads.*$`},
		{"edge wildcards dropped", "*/pixel.gif*", `/pixel\.gif`},
		{"regex with open quantifier", `/\/ads\/[0-9]{2,}\//`, `\/ads\/[0-9]+\/`},
		{"regex with shorthand classes", `/\d+x\d+\.gif/`, `[0-9]+x[0-9]+\.gif`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PatternToRegex(tt.input))
		})
	}
}

func TestPatternToRegexMatching(t *testing.T) {
	tests := []struct {
		pattern string
		url     string
		match   bool
	}{
		{"||example.com^", "https://example.com/", true},
		{"||example.com^", "https://example.com", true},
		{"||example.com^", "https://ads.example.com/banner.png", true},
		{"||example.com^", "https://notexample.com/", false},
		{"||example.com^", "https://example.community/", false},
		{"||example.com/banner^", "https://example.com/banner", true},
		{"||example.com/banner^", "https://example.com/banner?size=big", true},
		{"||example.com/banner^", "https://example.com/bannerx", false},
		{"/ads/track^", "https://site.com/ads/track", true},
		{"/ads/track^", "https://site.com/ads/track/pixel", true},
		{"/ads/track^", "https://site.com/ads/tracker", false},
		{"||a.com^|", "https://a.com/", true},
		{"||a.com^|", "https://a.com", true},
		{"||a.com^|", "https://a.com/x", false},
		{"||.example.com^", "https://cdn.example.com/", true},
		{"||bücher.example^", "https://xn--bcher-kva.example/", true},
		{"|https://ads.", "https://ads.tracker.net/x.js", true},
		{"|https://ads.", "http://site.com/?u=https://ads.", false},
		{"/banner/*/img^", "https://site.com/banner/300/img?x=1", true},
		{"/banner/*/img^", "https://site.com/banner/300/img", true},
		{"ads*|", "https://x.com/ads/1", true},
		{"swf|", "https://site.com/movie.swf", true},
		{"swf|", "https://site.com/movie.swf?x", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.url, func(t *testing.T) {
			re := PatternToRegex(tt.pattern)
			require.True(t, ValidateRegex(re), re)
			assert.Equal(t, tt.match, regexp.MustCompile(re).MatchString(tt.url))
		})
	}
}

func TestValidateRegex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"host anchor output", `^[a-z-]+://([^/?#]+\.)?ads\.com`, true},
		{"separator or end", `ads\.com([^%.0-9a-z_-].*)?$`, true},
		{"expanded classes", `[a-zA-Z0-9_]+\.js`, true},
		{"pipe inside a class", `[^|]+`, true},
		{"disjunction", `ads|track`, false},
		{"disjunction in a group", `(ads|track)\.js`, false},
		{"counted quantifier", `[0-9]{4}`, false},
		{"open quantifier left unexpanded", `[0-9]{4,}`, false},
		{"lookahead", `ads(?=\.js)`, false},
		{"lookbehind", `(?<=cdn)\.js`, false},
		{"word boundary", `\bads\b`, false},
		{"unicode property", `\p{L}+`, false},
		{"non-ASCII literal", `bücher\.example`, false},
		{"does not compile", `(ads`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateRegex(tt.input))
		})
	}
}

func TestCheckRegex(t *testing.T) {
	tests := []struct {
		input     string
		issues    []string
		unfixable bool
	}{
		{input: `^https?://ads\.`, issues: nil},
		{input: `\d+\.js`, issues: []string{`shorthand class \d`}},
		{input: `[a-z]{3,}`, issues: []string{"open quantifier {3,}"}},
		{input: `[a-z]{3}x{1,2}`, issues: []string{"counted quantifier {3}", "counted quantifier {1,2}"}, unfixable: true},
		{input: `(?P<id>[0-9]+)`, issues: []string{"named group (?P<i"}, unfixable: true},
		{input: `ads|banners`, issues: []string{"disjunction |"}, unfixable: true},
		{input: `реклама`, issues: []string{"non-ASCII"}, unfixable: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			issues := CheckRegex(tt.input)
			var got []string
			for _, i := range issues {
				got = append(got, i.String())
			}
			assert.Equal(t, tt.issues, got)
			assert.Equal(t, tt.unfixable, HasUnfixableIssues(tt.input))
			if len(issues) > 0 {
				assert.Contains(t, DescribeIssues(issues), issues[0].Feature)
			}
		})
	}
}

func TestContainsDisjunction(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{`^[a-z-]+://([^/?#]+\.)?ads`, false},
		{`[^|]+\.js`, false},
		{`ads\|track`, false},
		{`ads|track`, true},
		{`([a-z]|x)`, true},
		{`[a]|b`, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, containsDisjunction(tt.input))
		})
	}
}
