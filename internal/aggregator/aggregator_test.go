package aggregator

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/bnema/safari-blocker-converter/internal/converter"
	"github.com/bnema/safari-blocker-converter/internal/models"
	"github.com/bnema/safari-blocker-converter/internal/parser"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var categories = []models.Category{
	{ID: "ads", File: "ads.json"},
	{ID: "privacy", File: "privacy.json"},
	{ID: "custom", File: "custom.json"},
}

func convert(t *testing.T, text string) *models.ConversionResult {
	t.Helper()
	return converter.New(converter.DefaultOptions(), zerolog.Nop()).Convert(parser.Parse(text))
}

func listResult(t *testing.T, index int, name, category, text string) ListResult {
	return ListResult{
		Index:  index,
		List:   models.FilterList{Name: name, Category: category, URL: "https://lists.test/" + name},
		Result: convert(t, text),
	}
}

func TestAggregateGroupsByCategory(t *testing.T) {
	results := []ListResult{
		listResult(t, 0, "easylist", "ads", "||ads.com^\nexample.com##.ad\n#%#window.a = 1;\n"),
		listResult(t, 1, "easyprivacy", "privacy", "||tracker.net^$third-party\n"),
		listResult(t, 2, "adguard", "ads", "@@||ads.com/ok^\n##+js(nowebrtc)\n"),
	}

	out := New(categories, Options{}, zerolog.Nop()).Aggregate(results)
	require.Len(t, out.Categories, 3)

	ads := out.Categories[0]
	assert.Equal(t, "ads", ads.Category.ID)
	assert.Equal(t, []string{"easylist", "adguard"}, ads.Lists)
	require.Len(t, ads.Rules, 3)
	assert.Equal(t, models.GroupCosmetic, ads.Rules[0].Group)
	assert.Equal(t, models.ActionBlock, ads.Rules[1].Action.Type)
	assert.Equal(t, models.ActionIgnorePreviousRule, ads.Rules[2].Action.Type)
	assert.Equal(t, 3, ads.Stats.ConvertedCount)
	assert.Equal(t, 2, ads.Stats.AdvancedBlockingConvertedCount)

	privacy := out.Categories[1]
	require.Len(t, privacy.Rules, 1)
	assert.False(t, privacy.Noop)

	assert.Len(t, out.Advanced, 2)
	assert.Equal(t, models.AdvancedScript, out.Advanced[0].Action.Type)
	assert.Equal(t, 4, out.Stats.ConvertedCount)
	assert.Len(t, out.Lists, 3)
}

func TestAggregateEmptyCategoryGetsNoop(t *testing.T) {
	out := New(categories, Options{}, zerolog.Nop()).Aggregate([]ListResult{
		listResult(t, 0, "comments", "custom", "! nothing here\n"),
	})

	for _, cat := range out.Categories {
		require.Len(t, cat.Rules, 1, cat.Category.ID)
		assert.True(t, cat.Noop)

		data, err := json.Marshal(cat.Rules)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"trigger":{"url-filter":".*"},"action":{"type":"ignore-previous-rules"}}]`, string(data))
	}
	assert.NotNil(t, out.Advanced)
	assert.Empty(t, out.Advanced)
}

func TestAggregateFailedList(t *testing.T) {
	results := []ListResult{
		listResult(t, 0, "easylist", "ads", "||ads.com^\n"),
		{
			Index: 1,
			List:  models.FilterList{Name: "broken", Category: "ads", URL: "https://lists.test/broken"},
			Err:   &models.ListError{List: "broken", Err: models.ErrInvalidResponse},
		},
	}

	out := New(categories, Options{}, zerolog.Nop()).Aggregate(results)
	ads := out.Categories[0]
	assert.Len(t, ads.Rules, 1)
	assert.Equal(t, 1, ads.Stats.ErrorsCount)
	require.Len(t, ads.Errors, 1)
	assert.Contains(t, ads.Errors[0], "broken")

	require.Len(t, out.Lists, 2)
	assert.Equal(t, 1, out.Lists[1].Stats.ErrorsCount)
	assert.NotEmpty(t, out.Lists[1].Error)
	assert.Equal(t, 1, out.Stats.ErrorsCount)
}

func TestAggregateOrderIndependent(t *testing.T) {
	a := listResult(t, 0, "one", "ads", "||one.com^\n@@||one.com/ok^\n")
	b := listResult(t, 1, "two", "ads", "||two.com^\n")

	agg := New(categories, Options{}, zerolog.Nop())
	first := agg.Aggregate([]ListResult{a, b})
	second := agg.Aggregate([]ListResult{b, a})

	assert.Equal(t, first.Categories[0].Rules, second.Categories[0].Rules)
	assert.Equal(t, first.Lists, second.Lists)
}

func TestAggregateDeduplicate(t *testing.T) {
	results := []ListResult{
		listResult(t, 0, "one", "ads", "||dup.com^\n"),
		listResult(t, 1, "two", "ads", "||dup.com^\n||other.com^\n"),
	}

	plain := New(categories, Options{}, zerolog.Nop()).Aggregate(results)
	assert.Len(t, plain.Categories[0].Rules, 3)

	deduped := New(categories, Options{Deduplicate: true}, zerolog.Nop()).Aggregate(results)
	assert.Len(t, deduped.Categories[0].Rules, 2)
}

func TestAggregateOverLimitPropagates(t *testing.T) {
	over := listResult(t, 0, "big", "privacy", "||a.com^\n")
	over.Result.OverLimit = true

	out := New(categories, Options{}, zerolog.Nop()).Aggregate([]ListResult{over})
	assert.True(t, out.Categories[1].Stats.OverLimit)
	assert.True(t, out.Stats.OverLimit)
	assert.False(t, out.Categories[0].Stats.OverLimit)
}

func TestAggregateUnknownCategory(t *testing.T) {
	out := New(categories, Options{}, zerolog.Nop()).Aggregate([]ListResult{
		listResult(t, 0, "regional", "foreign", "||ads.de^\n"),
	})
	require.Len(t, out.Categories, 4)
	assert.Equal(t, "foreign.json", out.Categories[3].Category.File)
	assert.Len(t, out.Categories[3].Rules, 1)
	assert.False(t, out.Categories[3].Noop)
}

func TestListErrorUnwrap(t *testing.T) {
	err := error(&models.ListError{List: "x", Err: models.ErrInvalidEncoding})
	assert.True(t, errors.Is(err, models.ErrInvalidEncoding))
}
