package converter

import (
	"regexp"
	"strings"
	"testing"

	"github.com/bnema/safari-blocker-converter/internal/parser"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
)

func TestHostRuleProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	label := gen.RegexMatch(`[a-z][a-z0-9]{0,9}`)
	tld := gen.OneConstOf("com", "net", "org", "io")
	conv := New(DefaultOptions(), zerolog.Nop())

	properties.Property("||host^ blocks the host and its subdomains", prop.ForAll(
		func(name, sub, tld string) bool {
			host := name + "." + tld
			result := conv.Convert(parser.Parse("||" + host + "^"))
			if result.ConvertedCount != 1 || result.ErrorsCount != 0 {
				return false
			}
			re := regexp.MustCompile(result.Rules[0].Trigger.URLFilter)
			return re.MatchString("https://"+host+"/") &&
				re.MatchString("https://"+host) &&
				re.MatchString("https://"+sub+"."+host+"/path") &&
				!re.MatchString("https://"+host+"x.example/")
		},
		label, label, tld,
	))

	properties.Property("counts never exceed the number of rules", prop.ForAll(
		func(names []string) bool {
			var b strings.Builder
			for i, n := range names {
				switch i % 4 {
				case 0:
					b.WriteString("||" + n + ".com^\n")
				case 1:
					b.WriteString(n + ".org##." + n + "\n")
				case 2:
					b.WriteString("@@||" + n + ".net^$script\n")
				default:
					b.WriteString("||" + n + "^$bogus\n")
				}
			}
			result := conv.Convert(parser.Parse(b.String()))
			sum := result.ConvertedCount + result.AdvancedBlockingConvertedCount + result.ErrorsCount
			return result.TotalConvertedCount == len(names) && sum <= result.TotalConvertedCount
		},
		gen.SliceOf(label),
	))

	properties.Property("conversion is deterministic", prop.ForAll(
		func(names []string) bool {
			text := strings.Join(names, ".com##.ad\n")
			a := conv.Convert(parser.Parse(text))
			b := conv.Convert(parser.Parse(text))
			return a.Converted == b.Converted && a.Stats() == b.Stats()
		},
		gen.SliceOf(label),
	))

	properties.TestingRun(t)
}
