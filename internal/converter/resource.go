package converter

import (
	"slices"

	"github.com/bnema/safari-blocker-converter/internal/models"
)

// contentTypes are the filter-list resource types a negated type list is
// complemented against; popup is a navigation, not a content type.
var contentTypes = []string{
	"font", "image", "media", "object", "other", "ping", "script",
	"stylesheet", "subdocument", "websocket", "xmlhttprequest",
}

// resourceTypes maps filter-list types to WebKit resource types for the
// configured Safari version. ok is false when exclusions remove every type.
func (c *Converter) resourceTypes(opts models.FilterOptions) ([]string, bool) {
	names := slices.Clone(opts.ResourceTypes)

	if len(opts.ExcludedResourceTypes) > 0 {
		base := names
		if len(base) == 0 {
			base = contentTypes
		}
		names = nil
		for _, n := range base {
			if !slices.Contains(opts.ExcludedResourceTypes, n) {
				names = append(names, n)
			}
		}
		if len(names) == 0 {
			return nil, false
		}
	}

	var out []string
	for _, n := range names {
		if wk := c.webkitType(n); wk != "" && !slices.Contains(out, wk) {
			out = append(out, wk)
		}
	}
	if opts.Document && !slices.Contains(out, models.ResourceDocument) {
		out = append(out, models.ResourceDocument)
	}
	slices.Sort(out)
	return out, true
}

// webkitType maps one filter-list resource type to its WebKit name
func (c *Converter) webkitType(name string) string {
	modern := c.opts.TargetVersion >= modernTarget

	switch name {
	case "script":
		return models.ResourceScript
	case "image":
		return models.ResourceImage
	case "stylesheet":
		return models.ResourceStyleSheet
	case "font":
		return models.ResourceFont
	case "media":
		return models.ResourceMedia
	case "subdocument":
		return models.ResourceDocument
	case "popup":
		return models.ResourcePopup
	case "xmlhttprequest":
		if modern {
			return models.ResourceFetch
		}
		return models.ResourceRaw
	case "websocket":
		if modern {
			return models.ResourceWebSocket
		}
		return models.ResourceRaw
	case "ping":
		if modern {
			return models.ResourcePing
		}
		return models.ResourceRaw
	case "object", "other":
		if modern {
			return models.ResourceOther
		}
		return models.ResourceRaw
	}
	return ""
}
