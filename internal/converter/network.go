package converter

import (
	"strings"

	"github.com/bnema/safari-blocker-converter/internal/models"
)

// convertNetwork converts a network filter to a WebKit rule
func (c *Converter) convertNetwork(f models.Filter) (*models.StandardRule, string) {
	opts := f.Options
	if len(opts.Unsupported) > 0 {
		return nil, ReasonUnsupportedOption
	}
	if len(opts.Domains) > 0 && len(opts.ExcludeDomains) > 0 {
		return nil, ReasonDomainConflict
	}

	ifDomain, err := normalizeDomains(opts.Domains)
	if err != nil {
		return nil, ReasonInvalidDomain
	}
	unlessDomain, err := normalizeDomains(opts.ExcludeDomains)
	if err != nil {
		return nil, ReasonInvalidDomain
	}

	if f.Exception && (opts.Document || opts.ElemHide || opts.GenericHide) {
		return c.convertPageException(f, ifDomain, unlessDomain)
	}

	regex := PatternToRegex(f.Pattern)

	// Validate the regex is WebKit-compatible
	if !ValidateRegex(regex) {
		c.logger.Debug().
			Str("url_filter", regex).
			Str("issues", DescribeIssues(CheckRegex(regex))).
			Msg("url-filter rejected")
		return nil, ReasonInvalidRegex
	}

	rule := &models.StandardRule{
		Trigger: models.Trigger{
			URLFilter: regex,
		},
		Action: models.Action{
			Type: models.ActionBlock,
		},
		Group: models.GroupBlock,
	}

	// Exception rules use ignore-previous-rules
	if f.Exception {
		rule.Action.Type = models.ActionIgnorePreviousRule
		rule.Group = models.GroupException
	}
	if opts.Important {
		rule.Group += models.GroupImportantBlock - models.GroupBlock
	}

	// Apply options
	if opts.MatchCase {
		t := true
		rule.Trigger.URLFilterIsCaseSensitive = &t
	}

	// Resource types
	types, ok := c.resourceTypes(opts)
	if !ok {
		return nil, ReasonNoResourceTypes
	}
	rule.Trigger.ResourceType = types

	// Load type (first/third party)
	if opts.ThirdParty != nil {
		if *opts.ThirdParty {
			rule.Trigger.LoadType = []string{models.LoadThirdParty}
		} else {
			rule.Trigger.LoadType = []string{models.LoadFirstParty}
		}
	}

	// Domain restrictions
	rule.Trigger.IfDomain = ifDomain
	rule.Trigger.UnlessDomain = unlessDomain

	if !f.Exception && regex == models.URLFilterAny && len(types) == 0 &&
		len(rule.Trigger.LoadType) == 0 && len(ifDomain) == 0 {
		return nil, ReasonMatchesEverything
	}

	return rule, ""
}

// convertPageException handles $document, $elemhide and $generichide
// exceptions, which disable filtering on the pages they match
func (c *Converter) convertPageException(f models.Filter, ifDomain, unlessDomain []string) (*models.StandardRule, string) {
	group := models.GroupPageException
	if !f.Options.Document {
		group = models.GroupCosmeticException
	}

	rule := &models.StandardRule{
		Trigger: models.Trigger{URLFilter: models.URLFilterAny},
		Action:  models.Action{Type: models.ActionIgnorePreviousRule},
		Group:   group,
	}

	if host, ok := anchoredHost(f.Pattern); ok {
		d, err := normalizeDomain(host)
		if err != nil {
			return nil, ReasonInvalidDomain
		}
		rule.Trigger.IfDomain = append([]string{d}, ifDomain...)
		return rule, ""
	}

	if f.Pattern != "" && f.Pattern != "*" {
		regex := PatternToRegex(f.Pattern)
		if !ValidateRegex(regex) {
			return nil, ReasonInvalidRegex
		}
		rule.Trigger.URLFilter = regex
		rule.Trigger.ResourceType = []string{models.ResourceDocument}
	}
	if len(ifDomain) == 0 && rule.Trigger.URLFilter == models.URLFilterAny {
		return nil, ReasonMatchesEverything
	}
	rule.Trigger.IfDomain = ifDomain
	rule.Trigger.UnlessDomain = unlessDomain
	return rule, ""
}

// anchoredHost extracts the host of a ||host^ pattern
func anchoredHost(pattern string) (string, bool) {
	if !strings.HasPrefix(pattern, "||") {
		return "", false
	}
	rest := pattern[2:]
	end := strings.IndexAny(rest, "^/|*:$")
	host := rest
	tail := ""
	if end != -1 {
		host, tail = rest[:end], rest[end:]
	}
	switch tail {
	case "", "^", "^|", "/", "|":
	default:
		return "", false
	}
	if host == "" || !strings.Contains(host, ".") {
		return "", false
	}
	return host, true
}
