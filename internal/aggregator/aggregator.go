package aggregator

import (
	"cmp"
	"slices"

	"github.com/bnema/safari-blocker-converter/internal/converter"
	"github.com/bnema/safari-blocker-converter/internal/models"
	"github.com/rs/zerolog"
)

// ListResult is the outcome of one filter list. Exactly one of Result
// and Err is set.
type ListResult struct {
	Index  int // position in the configured list order
	List   models.FilterList
	Result *models.ConversionResult
	Err    error
}

// Options controls aggregation
type Options struct {
	// Deduplicate drops rules repeated across the lists of a category
	Deduplicate bool
}

// CategoryOutput is the content of one category file
type CategoryOutput struct {
	Category models.Category
	Rules    []models.StandardRule
	Stats    models.Stats
	Lists    []string
	Errors   []string
	Noop     bool // Rules holds only the placeholder rule
}

// ListSummary reports one list of the run
type ListSummary struct {
	Name     string       `json:"name" yaml:"name"`
	Category string       `json:"category" yaml:"category"`
	Source   string       `json:"source" yaml:"source"`
	Stats    models.Stats `json:"stats" yaml:"stats"`
	Error    string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// Output is everything a run writes
type Output struct {
	Categories []CategoryOutput
	Advanced   []models.AdvancedRule
	Lists      []ListSummary
	Stats      models.Stats
}

// Aggregator groups list results into category files
type Aggregator struct {
	categories []models.Category
	opts       Options
	logger     zerolog.Logger
}

// New creates an aggregator for the configured categories
func New(categories []models.Category, opts Options, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		categories: categories,
		opts:       opts,
		logger:     logger.With().Str("component", "aggregator").Logger(),
	}
}

// Aggregate builds the per-category rule sets and the combined advanced
// rules. The output does not depend on the order of results.
func (a *Aggregator) Aggregate(results []ListResult) *Output {
	ordered := slices.Clone(results)
	slices.SortStableFunc(ordered, func(x, y ListResult) int {
		return cmp.Compare(x.Index, y.Index)
	})

	out := &Output{Advanced: []models.AdvancedRule{}}
	index := make(map[string]int, len(a.categories))
	for _, c := range a.categories {
		index[c.ID] = len(out.Categories)
		out.Categories = append(out.Categories, CategoryOutput{Category: c})
	}

	for _, r := range ordered {
		i, ok := index[r.List.Category]
		if !ok {
			a.logger.Warn().Str("list", r.List.Name).Str("category", r.List.Category).Msg("unknown category, creating it")
			i = len(out.Categories)
			index[r.List.Category] = i
			out.Categories = append(out.Categories, CategoryOutput{
				Category: models.Category{ID: r.List.Category, File: r.List.Category + ".json"},
			})
		}
		cat := &out.Categories[i]
		cat.Lists = append(cat.Lists, r.List.Name)

		summary := ListSummary{Name: r.List.Name, Category: r.List.Category, Source: r.List.Source()}
		if r.Err != nil || r.Result == nil {
			summary.Stats = models.Stats{ErrorsCount: 1}
			if r.Err != nil {
				summary.Error = r.Err.Error()
				cat.Errors = append(cat.Errors, r.Err.Error())
			}
		} else {
			summary.Stats = r.Result.Stats()
			cat.Rules = append(cat.Rules, r.Result.Rules...)
			out.Advanced = append(out.Advanced, r.Result.AdvancedRules...)
		}
		cat.Stats.Add(summary.Stats)
		out.Lists = append(out.Lists, summary)
	}

	for i := range out.Categories {
		a.finishCategory(&out.Categories[i])
		out.Stats.Add(out.Categories[i].Stats)
	}

	a.logger.Debug().
		Int("categories", len(out.Categories)).
		Int("lists", len(out.Lists)).
		Int("advanced", len(out.Advanced)).
		Msg("aggregated")
	return out
}

// finishCategory orders the rules of a category and fills empty ones
func (a *Aggregator) finishCategory(cat *CategoryOutput) {
	// Exceptions of one list must follow the blocking rules of every list
	slices.SortStableFunc(cat.Rules, func(x, y models.StandardRule) int {
		return cmp.Compare(x.Group, y.Group)
	})
	if a.opts.Deduplicate {
		cat.Rules = converter.Deduplicate(cat.Rules)
	}
	if len(cat.Rules) == 0 {
		cat.Rules = []models.StandardRule{models.NoopRule()}
		cat.Noop = true
	}
}
