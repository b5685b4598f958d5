package converter

import (
	"strings"

	"github.com/bnema/safari-blocker-converter/internal/models"
)

// badFilterKey identifies a network rule by exception flag, pattern and
// modifiers. A $badfilter rule and the rule it disables share the key.
func badFilterKey(f models.Filter) string {
	var b strings.Builder
	if f.Exception {
		b.WriteString("@@")
	}
	b.WriteString(f.Pattern)
	b.WriteByte('$')
	b.WriteString(strings.Join(f.Options.Canonical, ","))
	return b.String()
}
