package converter

import (
	"encoding/json"
	"slices"

	"github.com/bnema/safari-blocker-converter/internal/models"
)

// Optimize removes duplicate rules and merges rules that only differ in
// their if-domain list. The first occurrence keeps its position.
func Optimize(rules []models.StandardRule) []models.StandardRule {
	return MergeDomains(Deduplicate(rules))
}

// Deduplicate removes duplicate rules based on their JSON representation
func Deduplicate(rules []models.StandardRule) []models.StandardRule {
	seen := make(map[string]bool)
	result := make([]models.StandardRule, 0, len(rules))

	for _, r := range rules {
		key := ruleKey(r)
		if !seen[key] {
			seen[key] = true
			result = append(result, r)
		}
	}

	return result
}

// MergeDomains folds rules with identical trigger and action, apart from
// if-domain, into one rule carrying the union of their domains
func MergeDomains(rules []models.StandardRule) []models.StandardRule {
	index := make(map[string]int)
	result := make([]models.StandardRule, 0, len(rules))

	for _, r := range rules {
		if len(r.Trigger.IfDomain) == 0 || len(r.Trigger.UnlessDomain) > 0 {
			result = append(result, r)
			continue
		}

		scoped := r
		scoped.Trigger.IfDomain = nil
		key := ruleKey(scoped)

		if i, ok := index[key]; ok {
			merged := slices.Clone(result[i].Trigger.IfDomain)
			for _, d := range r.Trigger.IfDomain {
				if !slices.Contains(merged, d) {
					merged = append(merged, d)
				}
			}
			result[i].Trigger.IfDomain = merged
			continue
		}

		index[key] = len(result)
		result = append(result, r)
	}

	return result
}

// ruleKey creates a key from trigger, action and group
func ruleKey(r models.StandardRule) string {
	data, _ := json.Marshal(struct {
		T models.Trigger
		A models.Action
		G models.Group
	}{r.Trigger, r.Action, r.Group})
	return string(data)
}
