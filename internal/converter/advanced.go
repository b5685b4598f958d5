package converter

import (
	"encoding/json"

	"github.com/bnema/safari-blocker-converter/internal/models"
)

// convertAdvanced converts script, scriptlet and CSS injection filters
func (c *Converter) convertAdvanced(f models.Filter) (*models.AdvancedRule, string) {
	include, exclude, err := splitDomains(f.Domains)
	if err != nil {
		return nil, ReasonInvalidDomain
	}
	if len(include) > 0 && len(exclude) > 0 {
		return nil, ReasonDomainConflict
	}

	action, reason := advancedAction(f)
	if reason != "" {
		return nil, reason
	}

	rule := &models.AdvancedRule{
		Trigger: models.Trigger{
			URLFilter:    models.URLFilterAny,
			IfDomain:     include,
			UnlessDomain: exclude,
		},
		Action: action,
	}
	if err := rule.Validate(); err != nil {
		return nil, ReasonInvalidPayload
	}
	return rule, ""
}

// convertAdvancedException turns #@%#, #@$#, #@?# and #@#+js() filters
// into a payload exception
func (c *Converter) convertAdvancedException(f models.Filter) (domainException, string) {
	include, exclude, err := splitDomains(f.Domains)
	if err != nil {
		return domainException{}, ReasonInvalidDomain
	}
	if len(exclude) > 0 {
		return domainException{}, ReasonDomainConflict
	}
	action, reason := advancedAction(f)
	if reason != "" {
		return domainException{}, reason
	}
	return domainException{key: payloadKey(action), domains: include}, ""
}

func advancedAction(f models.Filter) (models.AdvancedAction, string) {
	switch f.Kind {
	case models.KindExtendedCSS:
		return models.AdvancedAction{Type: models.AdvancedCSSExtended, CSS: f.Selector}, ""
	case models.KindCSSInject:
		return models.AdvancedAction{Type: models.AdvancedCSSInject, CSS: f.Selector}, ""
	case models.KindScript:
		return models.AdvancedAction{Type: models.AdvancedScript, Script: f.Selector}, ""
	case models.KindScriptlet:
		if f.Scriptlet == nil {
			return models.AdvancedAction{}, ReasonInvalidPayload
		}
		param, err := json.Marshal(f.Scriptlet)
		if err != nil {
			return models.AdvancedAction{}, ReasonInvalidPayload
		}
		return models.AdvancedAction{
			Type:           models.AdvancedScriptlet,
			Scriptlet:      f.Scriptlet.Name,
			ScriptletParam: string(param),
		}, ""
	}
	return models.AdvancedAction{}, ReasonInvalidPayload
}

func payloadKey(a models.AdvancedAction) string {
	return a.Type + "\x00" + a.Payload()
}

// applyAdvancedExceptions scopes or removes advanced rules that an
// exception of the same list disables
func applyAdvancedExceptions(rules []models.AdvancedRule, excs []domainException) []models.AdvancedRule {
	if len(excs) == 0 {
		return rules
	}
	byKey := groupExceptions(excs)
	out := rules[:0]
	for _, r := range rules {
		if narrowTrigger(&r.Trigger, byKey[payloadKey(r.Action)]) {
			out = append(out, r)
		}
	}
	return out
}
