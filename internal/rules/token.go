package rules

import (
	"fmt"
	"strings"
)

// Token is one parsed validation rule: "max:255" becomes {Name: "max", Params: ["255"]}.
type Token struct {
	Name   string
	Params []string
	// Values and EnumType are set by object rules such as enum class references.
	Values   []any
	EnumType string
}

// Param returns the i-th parameter or "".
func (t Token) Param(i int) string {
	if i < 0 || i >= len(t.Params) {
		return ""
	}
	return t.Params[i]
}

// String renders the token back in pipe-rule syntax.
func (t Token) String() string {
	if len(t.Params) == 0 {
		return t.Name
	}
	return t.Name + ":" + strings.Join(t.Params, ",")
}

// ParseTokens turns the raw rules of one field into tokens. Strings may hold
// several pipe-delimited rules; maps describe object rules, either
// {rule: enum, values: [...], type: string} or a single {name: params} pair.
// Anything else is skipped.
func ParseTokens(raw []any) []Token {
	var out []Token
	for _, r := range raw {
		switch v := r.(type) {
		case string:
			out = append(out, parseRuleString(v)...)
		case map[string]any:
			if t, ok := parseRuleObject(v); ok {
				out = append(out, t)
			}
		case Token:
			out = append(out, v)
		}
	}
	return out
}

// ParseRuleString parses a pipe-delimited rule list.
func ParseRuleString(s string) []Token {
	return parseRuleString(s)
}

func parseRuleString(s string) []Token {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	// A regex rule owns the rest of the string, pipes included.
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "regex:") || strings.HasPrefix(lower, "not_regex:") {
		return []Token{parseSingle(s)}
	}
	var out []Token
	for i, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pl := strings.ToLower(part)
		if strings.HasPrefix(pl, "regex:") || strings.HasPrefix(pl, "not_regex:") {
			rest := strings.SplitN(s, "|", i+1)
			out = append(out, parseSingle(rest[len(rest)-1]))
			return out
		}
		out = append(out, parseSingle(part))
	}
	return out
}

func parseSingle(part string) Token {
	name, params, found := strings.Cut(part, ":")
	t := Token{Name: strings.ToLower(strings.TrimSpace(name))}
	if !found {
		return t
	}
	switch t.Name {
	case "regex", "not_regex", "date_format":
		t.Params = []string{params}
	default:
		for _, p := range strings.Split(params, ",") {
			t.Params = append(t.Params, strings.TrimSpace(p))
		}
	}
	return t
}

func parseRuleObject(m map[string]any) (Token, bool) {
	if name, ok := m["rule"].(string); ok {
		t := Token{Name: strings.ToLower(strings.TrimSpace(name))}
		if vals, ok := m["values"].([]any); ok {
			t.Values = vals
		}
		if typ, ok := m["type"].(string); ok {
			t.EnumType = typ
		}
		switch p := m["params"].(type) {
		case []any:
			t.Params = stringify(p)
		case string:
			t.Params = strings.Split(p, ",")
		}
		if len(t.Params) == 0 && len(t.Values) > 0 {
			t.Params = stringify(t.Values)
		}
		return t, t.Name != ""
	}
	if len(m) != 1 {
		return Token{}, false
	}
	for k, v := range m {
		t := Token{Name: strings.ToLower(strings.TrimSpace(k))}
		switch p := v.(type) {
		case []any:
			t.Values = p
			t.Params = stringify(p)
		case nil:
		default:
			t.Params = []string{fmt.Sprint(p)}
		}
		return t, t.Name != ""
	}
	return Token{}, false
}

func stringify(in []any) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, fmt.Sprint(v))
	}
	return out
}
