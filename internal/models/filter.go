package models

// Kind is the syntactic class of a parsed filter rule
type Kind int

const (
	KindInvalid Kind = iota
	KindNetwork
	KindNetworkException
	KindCosmeticHide
	KindCosmeticException
	KindExtendedCSS // #?#, procedural ## selectors, #$?#
	KindCSSInject   // #$#
	KindScript      // #%#
	KindScriptlet   // #%#//scriptlet(), ##+js()
)

var kindNames = [...]string{
	KindInvalid:           "invalid",
	KindNetwork:           "network",
	KindNetworkException:  "network-exception",
	KindCosmeticHide:      "cosmetic-hide",
	KindCosmeticException: "cosmetic-exception",
	KindExtendedCSS:       "extended-css",
	KindCSSInject:         "css-inject",
	KindScript:            "script",
	KindScriptlet:         "scriptlet",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// IsNetwork reports whether the kind targets requests rather than page elements
func (k Kind) IsNetwork() bool {
	return k == KindNetwork || k == KindNetworkException
}

// IsAdvanced reports whether the kind needs script execution or dynamic CSS
func (k Kind) IsAdvanced() bool {
	switch k {
	case KindExtendedCSS, KindCSSInject, KindScript, KindScriptlet:
		return true
	}
	return false
}

// Filter represents a parsed ABP/AdGuard/uBlock filter
type Filter struct {
	Kind      Kind
	Line      int           // 1-based line number in the source list
	Raw       string        // Original filter line
	Pattern   string        // URL pattern for network filters
	Selector  string        // CSS selector, injected CSS or script body
	Domains   []string      // Cosmetic domain list, ~ prefix kept for exclusions
	Options   FilterOptions // Network filter options
	Scriptlet *ScriptletCall
	Exception bool   // @@, #@#, #@?#, #@$#, #@%#
	Error     string // Diagnostic for KindInvalid
}

// Valid reports whether the filter can be handed to the converter
func (f Filter) Valid() bool {
	return f.Kind != KindInvalid
}

// ScriptletCall is a parsed scriptlet invocation
type ScriptletCall struct {
	Name string   `json:"name"`
	Args []string `json:"args"`
}

// FilterOptions contains parsed network filter options
type FilterOptions struct {
	ThirdParty            *bool    // nil = any, true = 3p only, false = 1p only
	ResourceTypes         []string // filter-list names: script, image, stylesheet, ...
	ExcludedResourceTypes []string // ~script, ~image, ...
	Domains               []string // domain= values (apply to these domains)
	ExcludeDomains        []string // ~domain values (exclude these domains)
	MatchCase             bool     // case-sensitive matching
	Important             bool     // override exceptions
	BadFilter             bool     // disables the identical rule
	Document              bool     // page-level exception
	ElemHide              bool     // disables cosmetic rules on the page
	GenericHide           bool     // disables generic cosmetic rules on the page
	Unsupported           []string // recognised modifiers with no WebKit equivalent

	// Canonical holds the normalized modifier tokens, sorted, without badfilter.
	Canonical []string
}

// IsEmpty returns true if no options are set
func (o FilterOptions) IsEmpty() bool {
	return o.ThirdParty == nil &&
		len(o.ResourceTypes) == 0 &&
		len(o.ExcludedResourceTypes) == 0 &&
		len(o.Domains) == 0 &&
		len(o.ExcludeDomains) == 0 &&
		!o.MatchCase &&
		!o.Important &&
		!o.BadFilter &&
		!o.Document &&
		!o.ElemHide &&
		!o.GenericHide &&
		len(o.Unsupported) == 0
}
