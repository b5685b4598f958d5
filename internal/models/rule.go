package models

import "errors"

// StandardRule represents a Safari/WebKit content blocker rule
type StandardRule struct {
	Trigger Trigger `json:"trigger"`
	Action  Action  `json:"action"`

	// Group orders the rule inside a content blocker; see Group constants.
	Group Group `json:"-"`
}

// Trigger defines when a rule should activate
type Trigger struct {
	URLFilter                string   `json:"url-filter" jsonschema:"required,description=Regular expression matched against the request URL"`
	URLFilterIsCaseSensitive *bool    `json:"url-filter-is-case-sensitive,omitempty"`
	IfDomain                 []string `json:"if-domain,omitempty" jsonschema:"description=Page domains the rule applies to; * prefix includes subdomains"`
	UnlessDomain             []string `json:"unless-domain,omitempty" jsonschema:"description=Page domains the rule never applies to"`
	ResourceType             []string `json:"resource-type,omitempty"`
	LoadType                 []string `json:"load-type,omitempty" jsonschema:"enum=first-party,enum=third-party"`
}

// Action defines what to do when a rule triggers
type Action struct {
	Type     string `json:"type" jsonschema:"required,enum=block,enum=block-cookies,enum=css-display-none,enum=ignore-previous-rules"`
	Selector string `json:"selector,omitempty"` // only for css-display-none
}

// Action type constants
const (
	ActionBlock              = "block"
	ActionBlockCookies       = "block-cookies"
	ActionCSSDisplayNone     = "css-display-none"
	ActionIgnorePreviousRule = "ignore-previous-rules"
)

// Resource type constants (WebKit names)
const (
	ResourceDocument   = "document"
	ResourceImage      = "image"
	ResourceStyleSheet = "style-sheet"
	ResourceScript     = "script"
	ResourceFont       = "font"
	ResourceRaw        = "raw"
	ResourceSVG        = "svg-document"
	ResourceMedia      = "media"
	ResourcePopup      = "popup"
	ResourcePing       = "ping"
	ResourceFetch      = "fetch"
	ResourceWebSocket  = "websocket"
	ResourceOther      = "other"
)

// Load type constants
const (
	LoadFirstParty = "first-party"
	LoadThirdParty = "third-party"
)

// URLFilterAny matches every URL
const URLFilterAny = ".*"

// Group is the position class of a standard rule. WebKit applies
// ignore-previous-rules only to rules listed before it, so groups are
// emitted in ascending order.
type Group int

const (
	GroupCosmetic Group = iota
	GroupCosmeticException
	GroupBlock
	GroupException
	GroupImportantBlock
	GroupImportantException
	GroupPageException
)

// NoopRule returns the placeholder emitted for categories without rules
func NoopRule() StandardRule {
	return StandardRule{
		Trigger: Trigger{URLFilter: URLFilterAny},
		Action:  Action{Type: ActionIgnorePreviousRule},
	}
}

// AdvancedRule is a rule evaluated by the script/CSS injection runtime
type AdvancedRule struct {
	Trigger Trigger        `json:"trigger"`
	Action  AdvancedAction `json:"action"`
}

// AdvancedAction carries exactly one payload
type AdvancedAction struct {
	Type           string `json:"type" jsonschema:"required,enum=script,enum=scriptlet,enum=css-inject,enum=css-extended"`
	Script         string `json:"script,omitempty"`
	CSS            string `json:"css,omitempty"`
	Scriptlet      string `json:"scriptlet,omitempty"`
	ScriptletParam string `json:"scriptletParam,omitempty" jsonschema:"description=JSON object with name and args of the scriptlet"`
}

// Advanced action type constants
const (
	AdvancedScript      = "script"
	AdvancedScriptlet   = "scriptlet"
	AdvancedCSSInject   = "css-inject"
	AdvancedCSSExtended = "css-extended"
)

// ErrPayloadCount is returned when an advanced rule does not carry exactly one payload
var ErrPayloadCount = errors.New("advanced rule must carry exactly one payload")

// Payload returns the single payload string of the action
func (a AdvancedAction) Payload() string {
	switch a.Type {
	case AdvancedScript:
		return a.Script
	case AdvancedScriptlet:
		return a.Scriptlet + a.ScriptletParam
	default:
		return a.CSS
	}
}

// Validate checks the single-payload invariant
func (r AdvancedRule) Validate() error {
	n := 0
	for _, p := range []string{r.Action.Script, r.Action.CSS, r.Action.Scriptlet} {
		if p != "" {
			n++
		}
	}
	if n != 1 {
		return ErrPayloadCount
	}

	var ok bool
	switch r.Action.Type {
	case AdvancedScript:
		ok = r.Action.Script != ""
	case AdvancedScriptlet:
		ok = r.Action.Scriptlet != ""
	case AdvancedCSSInject, AdvancedCSSExtended:
		ok = r.Action.CSS != ""
	}
	if !ok || (r.Action.ScriptletParam != "" && r.Action.Type != AdvancedScriptlet) {
		return ErrPayloadCount
	}
	return nil
}
