package parser

import (
	"strings"

	"github.com/bnema/safari-blocker-converter/internal/models"
)

// uboPrefix marks scriptlets written in uBlock Origin syntax
const uboPrefix = "ubo-"

// parseAdGuardScriptlet parses //scriptlet('name', 'arg1', "arg2")
func parseAdGuardScriptlet(body string) (*models.ScriptletCall, string) {
	inner, ok := callArgs(body, "//scriptlet(")
	if !ok {
		return nil, ErrScriptletSyntax
	}
	args, reason := splitQuotedArgs(inner)
	if reason != "" {
		return nil, reason
	}
	if len(args) == 0 || args[0] == "" {
		return nil, ErrScriptletEmptyName
	}
	return &models.ScriptletCall{Name: args[0], Args: nonNil(args[1:])}, ""
}

// parseUBOScriptlet parses +js(name, arg1, arg2)
func parseUBOScriptlet(body string) (*models.ScriptletCall, string) {
	inner, ok := callArgs(body, "+js(")
	if !ok {
		return nil, ErrScriptletSyntax
	}

	var args []string
	var cur strings.Builder
	escaped := false
	for _, r := range inner {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ',':
			args = append(args, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	args = append(args, strings.TrimSpace(cur.String()))

	name := strings.TrimSuffix(args[0], ".js")
	if name == "" {
		return nil, ErrScriptletEmptyName
	}
	if !strings.HasPrefix(name, uboPrefix) {
		name = uboPrefix + name
	}
	return &models.ScriptletCall{Name: name, Args: nonNil(args[1:])}, ""
}

// callArgs returns the text between prefix and the final closing parenthesis
func callArgs(body, prefix string) (string, bool) {
	if !strings.HasPrefix(body, prefix) || !strings.HasSuffix(body, ")") {
		return "", false
	}
	return body[len(prefix) : len(body)-1], true
}

// splitQuotedArgs splits 'a', "b" style argument lists
func splitQuotedArgs(s string) ([]string, string) {
	var args []string
	i := 0
	for {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i >= len(s) {
			break
		}

		quote := s[i]
		if quote != '\'' && quote != '"' {
			return nil, ErrScriptletSyntax
		}
		i++

		var cur strings.Builder
		closed := false
		for i < len(s) {
			c := s[i]
			if c == '\\' && i+1 < len(s) {
				cur.WriteByte(s[i+1])
				i += 2
				continue
			}
			i++
			if c == quote {
				closed = true
				break
			}
			cur.WriteByte(c)
		}
		if !closed {
			return nil, ErrUnbalancedQuotes
		}
		args = append(args, cur.String())

		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i >= len(s) {
			break
		}
		if s[i] != ',' {
			return nil, ErrScriptletSyntax
		}
		i++
	}
	return args, ""
}

func nonNil(args []string) []string {
	if args == nil {
		return []string{}
	}
	return args
}
