package converter

import (
	"slices"

	"github.com/bnema/safari-blocker-converter/internal/models"
)

// domainException disables the rules sharing its key on some domains, or
// everywhere when domains is empty
type domainException struct {
	key     string
	domains []string
}

func groupExceptions(excs []domainException) map[string][]domainException {
	byKey := make(map[string][]domainException, len(excs))
	for _, e := range excs {
		byKey[e.key] = append(byKey[e.key], e)
	}
	return byKey
}

// narrowTrigger removes the exception domains from t. It returns false
// when the rule no longer applies anywhere.
func narrowTrigger(t *models.Trigger, excs []domainException) bool {
	for _, e := range excs {
		if len(e.domains) == 0 {
			return false
		}
		if len(t.IfDomain) > 0 {
			t.IfDomain = slices.DeleteFunc(slices.Clone(t.IfDomain), func(d string) bool {
				return slices.Contains(e.domains, d)
			})
			if len(t.IfDomain) == 0 {
				return false
			}
			continue
		}
		for _, d := range e.domains {
			if !slices.Contains(t.UnlessDomain, d) {
				t.UnlessDomain = append(slices.Clip(t.UnlessDomain), d)
			}
		}
	}
	return true
}
