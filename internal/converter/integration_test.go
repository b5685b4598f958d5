package converter

import (
	"testing"

	"github.com/bnema/safari-blocker-converter/internal/models"
	"github.com/bnema/safari-blocker-converter/internal/parser"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func convertText(t *testing.T, text string, tweak ...func(*Options)) *models.ConversionResult {
	t.Helper()
	opts := DefaultOptions()
	for _, fn := range tweak {
		fn(&opts)
	}
	result := New(opts, zerolog.Nop()).Convert(parser.Parse(text))
	require.NotNil(t, result)
	return result
}

func TestParserToConverterFlow(t *testing.T) {
	tests := []struct {
		name           string
		filterLine     string
		expectSkipped  bool
		expectExpanded bool // if not skipped, check if \w was expanded
	}{
		{
			name:           "regex with \\w and numeric quantifier should be converted (approximated)",
			filterLine:     `/(https?:\/\/)\w{30,}\.me\/\w{30,}\./$script,third-party`,
			expectSkipped:  false,
			expectExpanded: true,
		},
		{
			name:          "regex with exact numeric quantifier should be skipped",
			filterLine:    `/(https?:\/\/)\w{30}\.me\/\w{30}\./$script`,
			expectSkipped: true,
		},
		{
			name:           "regex with \\w and basic quantifier should be converted",
			filterLine:     `/(https?:\/\/)\w+\.me\/\w+\./$script,third-party`,
			expectSkipped:  false,
			expectExpanded: true,
		},
		{
			name:          "regex with disjunction should be skipped",
			filterLine:    `/foo|bar/$script`,
			expectSkipped: true,
		},
		{
			name:          "regex with lookahead should be skipped",
			filterLine:    `/ads(?!\.txt)/`,
			expectSkipped: true,
		},
		{
			name:           "simple network filter should be converted",
			filterLine:     `||example.com^`,
			expectSkipped:  false,
			expectExpanded: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := convertText(t, tt.filterLine)
			assert.Equal(t, 1, result.TotalConvertedCount)

			if tt.expectSkipped {
				assert.Empty(t, result.Rules, "Expected rule to be skipped")
				assert.Equal(t, 1, result.ErrorsCount)
				assert.Equal(t, 1, result.ErrorReasons[ReasonInvalidRegex])
				return
			}

			require.Len(t, result.Rules, 1, "Expected rule to be converted")
			assert.Zero(t, result.ErrorsCount)
			if tt.expectExpanded {
				urlFilter := result.Rules[0].Trigger.URLFilter
				assert.NotContains(t, urlFilter, `\w`, "Expected \\w to be expanded")
				assert.Contains(t, urlFilter, `[a-zA-Z0-9_]`, "Expected expanded character class")
			}
		})
	}
}

func TestConvertMixedList(t *testing.T) {
	result := convertText(t, "##.ad-banner\n||ads.example.com^\n! comment\n")

	assert.Equal(t, 2, result.TotalConvertedCount)
	assert.Equal(t, 2, result.ConvertedCount)
	assert.Zero(t, result.AdvancedBlockingConvertedCount)
	assert.Zero(t, result.ErrorsCount)
	assert.False(t, result.OverLimit)
	assert.Empty(t, result.AdvancedBlocking)
	assert.Nil(t, result.ErrorReasons)

	assert.JSONEq(t, `[
		{"trigger":{"url-filter":".*"},"action":{"type":"css-display-none","selector":".ad-banner"}},
		{"trigger":{"url-filter":"^[a-z-]+://([^/?#]+\\.)?ads\\.example\\.com([^%.0-9a-z_-].*)?$"},"action":{"type":"block"}}
	]`, result.Converted)
	assert.Equal(t, "Converted 2 of 2 rules (0 advanced, 0 errors)", result.Message)
}

func TestConvertRealWorldList(t *testing.T) {
	list := `[Adblock Plus 2.0]
! Title: Test list
||doubleclick.net^$third-party
||ads.example.com^$script,image
@@||ads.example.com/allowed.js$script
example.com##.sponsored
example.com,~shop.example.com##.banner
news.example.org#@#.ad
##+js(set-constant, canRunAds, true)
example.com#%#//scriptlet('abort-on-property-read', 'adsbygoogle')
example.org#$#.overlay { display: none !important; }
##.feed:has(> .promoted)
||tracker.net^$redirect=noopjs
||broken.com^$nonsense
@@||trusted.example^$document
`
	result := convertText(t, list)

	assert.Equal(t, 13, result.TotalConvertedCount)
	assert.Equal(t, 5, result.ConvertedCount)
	assert.Equal(t, 4, result.AdvancedBlockingConvertedCount)
	assert.Equal(t, 3, result.ErrorsCount)
	assert.Equal(t, 1, result.ErrorReasons[ReasonDomainConflict])
	assert.Equal(t, 1, result.ErrorReasons[ReasonUnsupportedOption])
	assert.Equal(t, 1, result.ErrorReasons[parser.ErrUnknownModifier])
	assert.LessOrEqual(t,
		result.ConvertedCount+result.AdvancedBlockingConvertedCount+result.ErrorsCount,
		result.TotalConvertedCount)

	require.Len(t, result.Diagnostics, 3)
	assert.Equal(t, 7, result.Diagnostics[0].Line)
	assert.Equal(t, 13, result.Diagnostics[1].Line)
	assert.Equal(t, 14, result.Diagnostics[2].Line)
	assert.Equal(t, parser.ErrUnknownModifier, result.Diagnostics[2].Reason)

	// Groups are emitted in ascending order
	for i := 1; i < len(result.Rules); i++ {
		assert.LessOrEqual(t, result.Rules[i-1].Group, result.Rules[i].Group)
	}
	last := result.Rules[len(result.Rules)-1]
	assert.Equal(t, models.GroupPageException, last.Group)
	assert.Equal(t, []string{"*trusted.example"}, last.Trigger.IfDomain)

	assert.NotEmpty(t, result.AdvancedBlocking)
}

func TestConvertIdempotent(t *testing.T) {
	list := "||a.com^\n@@||a.com/ok^\nb.com##.x\nc.com##.x\n#%#console.log(1)\n"
	first := convertText(t, list)
	second := convertText(t, list)

	assert.Equal(t, first.Converted, second.Converted)
	assert.Equal(t, first.AdvancedBlocking, second.AdvancedBlocking)
	assert.Equal(t, first.Stats(), second.Stats())
}
