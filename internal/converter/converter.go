package converter

import (
	"encoding/json"
	"fmt"
	"iter"
	"slices"

	"github.com/bnema/safari-blocker-converter/internal/models"
	"github.com/rs/zerolog"
)

// Rule limits of the Safari content blocking engine
const (
	MaxRulesLegacy      = 50000  // Safari 14 and earlier
	MaxRulesModern      = 150000 // Safari 15 and later
	DefaultMaxJSONBytes = 2 << 20
	DefaultTarget       = 16

	// modernTarget is the first Safari version with the larger rule limit
	// and the fetch/websocket/ping/other resource types.
	modernTarget = 15

	// maxDiagnostics bounds the per-list diagnostic list
	maxDiagnostics = 500
)

// AdvancedFormatJSON is the only supported advanced rules encoding
const AdvancedFormatJSON = "json"

// Error reason constants
const (
	ReasonInvalidRegex        = "invalid-regex"
	ReasonUnsupportedOption   = "unsupported-option (redirect, csp, etc)"
	ReasonDomainConflict      = "if-domain and unless-domain in one rule"
	ReasonInvalidDomain       = "invalid-domain"
	ReasonMatchesEverything   = "rule matches every request"
	ReasonNoResourceTypes     = "resource type exclusion leaves nothing"
	ReasonAdvancedDisabled    = "advanced rules disabled"
	ReasonInvalidPayload      = "invalid advanced payload"
	ReasonUnsupportedSelector = "unsupported-selector"
)

// Options configures a conversion
type Options struct {
	TargetVersion  int
	Optimize       bool
	EmitAdvanced   bool
	AdvancedFormat string
	MaxRules       int // 0 derives the limit from TargetVersion
	MaxJSONBytes   int // 0 uses DefaultMaxJSONBytes, negative disables the check
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		TargetVersion:  DefaultTarget,
		Optimize:       true,
		EmitAdvanced:   true,
		AdvancedFormat: AdvancedFormatJSON,
	}
}

func (o Options) withDefaults() Options {
	if o.TargetVersion <= 0 {
		o.TargetVersion = DefaultTarget
	}
	if o.AdvancedFormat == "" {
		o.AdvancedFormat = AdvancedFormatJSON
	}
	if o.MaxRules <= 0 {
		o.MaxRules = RuleLimit(o.TargetVersion)
	}
	if o.MaxJSONBytes == 0 {
		o.MaxJSONBytes = DefaultMaxJSONBytes
	}
	return o
}

// Validate rejects option combinations the converter cannot honour
func (o Options) Validate() error {
	if o.AdvancedFormat != "" && o.AdvancedFormat != AdvancedFormatJSON {
		return fmt.Errorf("unsupported advanced format %q", o.AdvancedFormat)
	}
	return nil
}

// RuleLimit returns the maximum number of rules per content blocker
func RuleLimit(targetVersion int) int {
	if targetVersion >= modernTarget {
		return MaxRulesModern
	}
	return MaxRulesLegacy
}

// Converter converts parsed filters to WebKit rules. It holds no state
// between calls and can be shared by goroutines.
type Converter struct {
	opts   Options
	logger zerolog.Logger
}

// New creates a new converter
func New(opts Options, logger zerolog.Logger) *Converter {
	return &Converter{
		opts:   opts.withDefaults(),
		logger: logger.With().Str("component", "converter").Logger(),
	}
}

// Options returns the effective options
func (c *Converter) Options() Options {
	return c.opts
}

// conversion accumulates the state of a single Convert call
type conversion struct {
	result   *models.ConversionResult
	standard []models.StandardRule
	advanced []models.AdvancedRule
	advExc   []domainException
	cssExc   []domainException
}

func (cv *conversion) fail(f models.Filter, reason string) {
	r := cv.result
	r.ErrorsCount++
	r.ErrorReasons[reason]++
	if len(r.Diagnostics) < maxDiagnostics {
		r.Diagnostics = append(r.Diagnostics, models.Diagnostic{Line: f.Line, Raw: f.Raw, Reason: reason})
	}
}

// Convert transforms parsed filters into standard and advanced rules.
// Failures are per rule; the batch always completes.
func (c *Converter) Convert(filters iter.Seq[models.Filter]) *models.ConversionResult {
	cv := &conversion{
		result: &models.ConversionResult{
			ErrorReasons: make(map[string]int),
			Kinds:        make(map[string]int),
		},
	}

	// First pass: collect, so $badfilter can cancel rules listed before it
	var pending []models.Filter
	bad := make(map[string]bool)
	for f := range filters {
		cv.result.TotalConvertedCount++
		cv.result.Kinds[f.Kind.String()]++

		if !f.Valid() {
			c.logger.Debug().Int("line", f.Line).Str("rule", f.Raw).Str("reason", f.Error).Msg("invalid rule")
			cv.fail(f, f.Error)
			continue
		}
		if f.Options.BadFilter {
			bad[badFilterKey(f)] = true
			continue
		}
		pending = append(pending, f)
	}

	// Second pass: convert what survived $badfilter
	for _, f := range pending {
		if len(bad) > 0 && bad[badFilterKey(f)] {
			continue
		}
		c.convertOne(cv, f)
	}

	cv.standard = applyCosmeticExceptions(cv.standard, cv.cssExc)
	cv.advanced = applyAdvancedExceptions(cv.advanced, cv.advExc)

	slices.SortStableFunc(cv.standard, func(a, b models.StandardRule) int {
		return int(a.Group) - int(b.Group)
	})
	if c.opts.Optimize {
		cv.standard = Optimize(cv.standard)
	}

	c.finish(cv)
	return cv.result
}

// convertOne dispatches a single valid filter
func (c *Converter) convertOne(cv *conversion, f models.Filter) {
	var rule *models.StandardRule
	var reason string

	switch {
	case f.Kind.IsNetwork():
		rule, reason = c.convertNetwork(f)
	case f.Kind == models.KindCosmeticHide:
		rule, reason = c.convertCosmetic(f)
	case f.Kind == models.KindCosmeticException:
		exc, r := c.convertCosmeticException(f)
		if r != "" {
			reason = r
			break
		}
		cv.cssExc = append(cv.cssExc, exc)
		return
	case f.Kind.IsAdvanced():
		if !c.opts.EmitAdvanced {
			reason = ReasonAdvancedDisabled
			break
		}
		if f.Exception {
			exc, r := c.convertAdvancedException(f)
			if r != "" {
				reason = r
				break
			}
			cv.advExc = append(cv.advExc, exc)
			return
		}
		adv, r := c.convertAdvanced(f)
		if r != "" {
			reason = r
			break
		}
		cv.advanced = append(cv.advanced, *adv)
		return
	default:
		return
	}

	if rule == nil {
		c.logger.Debug().Int("line", f.Line).Str("rule", f.Raw).Str("reason", reason).Msg("rule not converted")
		cv.fail(f, reason)
		return
	}
	cv.standard = append(cv.standard, *rule)
}

// finish serializes the output and fills counters
func (c *Converter) finish(cv *conversion) {
	r := cv.result
	r.Rules = cv.standard
	r.AdvancedRules = cv.advanced
	r.ConvertedCount = len(cv.standard)
	r.AdvancedBlockingConvertedCount = len(cv.advanced)

	r.Converted = "[]"
	if len(cv.standard) > 0 {
		data, err := json.Marshal(cv.standard)
		if err != nil {
			// Only strings and slices are marshalled; this cannot fail in practice.
			c.logger.Error().Err(err).Msg("failed to serialize standard rules")
		} else {
			r.Converted = string(data)
		}
	}
	if len(cv.advanced) > 0 {
		data, err := json.Marshal(cv.advanced)
		if err != nil {
			c.logger.Error().Err(err).Msg("failed to serialize advanced rules")
		} else {
			r.AdvancedBlocking = string(data)
		}
	}

	var limitMsg string
	if r.ConvertedCount > c.opts.MaxRules {
		r.OverLimit = true
		limitMsg = fmt.Sprintf("; over limit: %d rules exceed the limit of %d", r.ConvertedCount, c.opts.MaxRules)
	} else if c.opts.MaxJSONBytes > 0 && len(r.Converted) > c.opts.MaxJSONBytes {
		r.OverLimit = true
		limitMsg = fmt.Sprintf("; over limit: %d bytes exceed the limit of %d", len(r.Converted), c.opts.MaxJSONBytes)
	}

	r.Message = fmt.Sprintf("Converted %d of %d rules (%d advanced, %d errors)%s",
		r.ConvertedCount, r.TotalConvertedCount, r.AdvancedBlockingConvertedCount, r.ErrorsCount, limitMsg)

	if len(r.ErrorReasons) == 0 {
		r.ErrorReasons = nil
	}
	slices.SortStableFunc(r.Diagnostics, func(a, b models.Diagnostic) int {
		return a.Line - b.Line
	})

	c.logger.Debug().
		Int("total", r.TotalConvertedCount).
		Int("converted", r.ConvertedCount).
		Int("advanced", r.AdvancedBlockingConvertedCount).
		Int("errors", r.ErrorsCount).
		Bool("over_limit", r.OverLimit).
		Msg("conversion finished")
}
