package converter

import (
	"errors"
	"slices"
	"strings"

	"golang.org/x/net/idna"
)

var (
	errEmptyDomain    = errors.New("empty domain")
	errWildcardDomain = errors.New("wildcard domains are not supported")
)

// normalizeDomains normalizes every domain, failing on the first bad one
func normalizeDomains(domains []string) ([]string, error) {
	if len(domains) == 0 {
		return nil, nil
	}
	result := make([]string, 0, len(domains))
	for _, d := range domains {
		n, err := normalizeDomain(d)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(result, n) {
			result = append(result, n)
		}
	}
	return result, nil
}

// normalizeDomain ensures domain has proper format for WebKit: lowercase,
// punycode and a * prefix so subdomains match too
func normalizeDomain(d string) (string, error) {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimPrefix(d, "*")
	d = strings.TrimPrefix(d, ".")
	if d == "" {
		return "", errEmptyDomain
	}
	// example.* style TLD wildcards have no WebKit equivalent
	if strings.Contains(d, "*") {
		return "", errWildcardDomain
	}

	ascii, err := idna.ToASCII(d)
	if err != nil {
		return "", err
	}
	return "*" + ascii, nil
}

// splitDomains separates a cosmetic domain list into includes and excludes
func splitDomains(domains []string) (include, exclude []string, err error) {
	var inc, exc []string
	for _, d := range domains {
		if strings.HasPrefix(d, "~") {
			exc = append(exc, d[1:])
		} else {
			inc = append(inc, d)
		}
	}
	if include, err = normalizeDomains(inc); err != nil {
		return nil, nil, err
	}
	if exclude, err = normalizeDomains(exc); err != nil {
		return nil, nil, err
	}
	return include, exclude, nil
}
