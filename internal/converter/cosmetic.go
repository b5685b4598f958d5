package converter

import (
	"strings"

	"github.com/bnema/safari-blocker-converter/internal/models"
)

// convertCosmetic converts an element hiding filter
func (c *Converter) convertCosmetic(f models.Filter) (*models.StandardRule, string) {
	if strings.ContainsAny(f.Selector, "{}") {
		return nil, ReasonUnsupportedSelector
	}

	include, exclude, err := splitDomains(f.Domains)
	if err != nil {
		return nil, ReasonInvalidDomain
	}
	if len(include) > 0 && len(exclude) > 0 {
		return nil, ReasonDomainConflict
	}

	return &models.StandardRule{
		Trigger: models.Trigger{
			URLFilter:    models.URLFilterAny,
			IfDomain:     include,
			UnlessDomain: exclude,
		},
		Action: models.Action{
			Type:     models.ActionCSSDisplayNone,
			Selector: f.Selector,
		},
		Group: models.GroupCosmetic,
	}, ""
}

// convertCosmeticException turns #@# into an exception for the hiding
// rules with the same selector
func (c *Converter) convertCosmeticException(f models.Filter) (domainException, string) {
	include, exclude, err := splitDomains(f.Domains)
	if err != nil {
		return domainException{}, ReasonInvalidDomain
	}
	if len(exclude) > 0 {
		return domainException{}, ReasonDomainConflict
	}
	return domainException{key: f.Selector, domains: include}, ""
}

// applyCosmeticExceptions scopes or removes the hiding rules that an
// exception of the same list disables
func applyCosmeticExceptions(rules []models.StandardRule, excs []domainException) []models.StandardRule {
	if len(excs) == 0 {
		return rules
	}
	byKey := groupExceptions(excs)
	out := rules[:0]
	for _, r := range rules {
		if r.Action.Type != models.ActionCSSDisplayNone || narrowTrigger(&r.Trigger, byKey[r.Action.Selector]) {
			out = append(out, r)
		}
	}
	return out
}
