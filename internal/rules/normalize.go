package rules

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mark3labs/rulespec/internal/analysis"
)

// DefaultImageMimes are the extensions accepted by an "image" rule without mimes.
var DefaultImageMimes = []string{"jpeg", "png", "gif", "bmp", "svg", "webp"}

// Normalize folds a field -> rules mapping into top-level descriptors.
// Dotted paths become nested children, "*" segments become array items.
// Top-level order follows first declaration.
func Normalize(rules analysis.RuleMap) []*FieldDescriptor {
	tree := newPathTree()
	for _, fr := range rules {
		tree.insert(fr.Field, ParseTokens(fr.Rules))
	}
	return tree.build()
}

// NormalizeConditional resolves the branches of rs. Each branch starts from
// the unconditional rules and overrides fields it redeclares. Branches with
// the same label are merged. A rule set without branches yields nil.
func NormalizeConditional(rs *analysis.RuleSet) *ConditionalRuleSet {
	if rs == nil || len(rs.Conditional) == 0 {
		return nil
	}
	type merged struct {
		label string
		rules analysis.RuleMap
	}
	var order []*merged
	byLabel := map[string]*merged{}
	for _, b := range rs.Conditional {
		label := BranchLabel(b)
		m, ok := byLabel[label]
		if !ok {
			m = &merged{label: label, rules: append(analysis.RuleMap(nil), rs.Rules...)}
			byLabel[label] = m
			order = append(order, m)
		}
		m.rules = overlay(m.rules, b.Rules)
	}
	out := &ConditionalRuleSet{}
	for _, m := range order {
		out.Branches = append(out.Branches, Branch{Label: m.label, Fields: Normalize(m.rules)})
	}
	return out
}

// BranchLabel is the branch title stem: the explicit label, else the
// upper-cased condition, else DEFAULT.
func BranchLabel(b analysis.ConditionalBranch) string {
	if l := strings.TrimSpace(b.Label); l != "" {
		return l
	}
	if c := strings.TrimSpace(b.Condition); c != "" {
		return strings.ToUpper(c)
	}
	return "DEFAULT"
}

func overlay(base, over analysis.RuleMap) analysis.RuleMap {
	out := append(analysis.RuleMap(nil), base...)
	for _, fr := range over {
		replaced := false
		for i := range out {
			if out[i].Field == fr.Field {
				out[i] = fr
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, fr)
		}
	}
	return out
}

// pathTree is an arena of path segments. Node 0 is the root.
type pathTree struct {
	nodes []pathNode
}

type pathNode struct {
	segment  string
	path     string
	children []int
	index    map[string]int
	tokens   []Token
	declared bool
}

func newPathTree() *pathTree {
	return &pathTree{nodes: []pathNode{{index: map[string]int{}}}}
}

func (t *pathTree) insert(path string, tokens []Token) {
	path = strings.Trim(strings.TrimSpace(path), ".")
	if path == "" {
		return
	}
	cur := 0
	for _, seg := range strings.Split(path, ".") {
		next, ok := t.nodes[cur].index[seg]
		if !ok {
			next = len(t.nodes)
			full := seg
			if cur != 0 {
				full = t.nodes[cur].path + "." + seg
			}
			t.nodes = append(t.nodes, pathNode{segment: seg, path: full, index: map[string]int{}})
			t.nodes[cur].children = append(t.nodes[cur].children, next)
			t.nodes[cur].index[seg] = next
		}
		cur = next
	}
	t.nodes[cur].declared = true
	t.nodes[cur].tokens = append(t.nodes[cur].tokens, tokens...)
}

func (t *pathTree) build() []*FieldDescriptor {
	var out []*FieldDescriptor
	for _, c := range t.nodes[0].children {
		out = append(out, t.buildNode(c))
	}
	return withConfirmations(out)
}

func (t *pathTree) buildNode(idx int) *FieldDescriptor {
	n := t.nodes[idx]
	star := -1
	var named []int
	for _, c := range n.children {
		if t.nodes[c].segment == "*" {
			star = c
			continue
		}
		named = append(named, c)
	}
	var forced Type
	switch {
	case len(named) > 0:
		forced = TypeObject
	case star >= 0:
		forced = TypeArray
	}
	d := describe(n.path, n.tokens, n.declared, forced)
	if star >= 0 && len(named) == 0 {
		d.Items = t.buildNode(star)
	}
	for _, c := range named {
		d.Children = append(d.Children, t.buildNode(c))
	}
	d.Children = withConfirmations(d.Children)
	return d
}

// withConfirmations inserts a "<field>_confirmation" sibling after every
// field carrying a "confirmed" rule.
func withConfirmations(fields []*FieldDescriptor) []*FieldDescriptor {
	var out []*FieldDescriptor
	for _, f := range fields {
		out = append(out, f)
		if !f.Has("confirmed") {
			continue
		}
		name := f.Name + "_confirmation"
		exists := false
		for _, o := range fields {
			if o.Name == name {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		c := &FieldDescriptor{
			Name:        name,
			Type:        f.Type,
			Format:      f.Format,
			Required:    f.Required,
			Nullable:    f.Nullable,
			Constraints: f.Constraints,
			Description: "Must match " + f.Key() + ".",
		}
		out = append(out, c)
	}
	return out
}

// describe builds the descriptor of a single node from its own tokens.
// forced overrides the token-inferred type when the path has children.
func describe(path string, tokens []Token, declared bool, forced Type) *FieldDescriptor {
	d := &FieldDescriptor{Name: path, Tokens: tokens}
	d.Type = inferType(tokens)
	for _, tok := range tokens {
		if tok.Name == "enum" && tok.EnumType != "" {
			if typ, ok := scalarType(tok.EnumType); ok {
				d.Type = typ
			}
		}
	}
	if forced != "" {
		d.Type = forced
	}
	if d.Type == TypeFile {
		d.Format = "binary"
		d.File = &FileConstraints{}
	}

	var regexPattern, charPattern string
	image := false
	for _, tok := range tokens {
		switch tok.Name {
		case "required", "required_if", "required_unless", "required_with", "required_with_all",
			"required_without", "required_without_all", "required_if_accepted", "required_if_declined":
			d.Required = true
		case "nullable":
			d.Nullable = true
		case "in":
			d.Enum = enumValues(tok, d.Type)
		case "enum":
			d.Enum = enumValues(tok, d.Type)
			d.EnumType = tok.EnumType
		case "email":
			d.Format = "email"
		case "url", "active_url":
			d.Format = "uri"
		case "uuid":
			d.Format = "uuid"
		case "ulid":
			charPattern = "^[0-9A-HJKMNP-TV-Z]{26}$"
		case "ipv4":
			d.Format = "ipv4"
		case "ipv6":
			d.Format = "ipv6"
		case "mac_address":
			charPattern = "^([0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}$"
		case "password", "current_password":
			d.Format = "password"
		case "date", "before", "after", "before_or_equal", "after_or_equal", "date_equals":
			if d.Format == "" && d.Type == TypeString {
				d.Format = "date"
			}
		case "date_format":
			if d.Type == TypeString {
				d.Format = dateFormat(tok.Param(0))
			}
		case "regex":
			regexPattern = stripDelimiters(tok.Param(0))
		case "alpha":
			charPattern = "^[a-zA-Z]+$"
		case "alpha_num":
			charPattern = "^[a-zA-Z0-9]+$"
		case "alpha_dash":
			charPattern = "^[a-zA-Z0-9_-]+$"
		case "lowercase":
			charPattern = "^[^A-Z]*$"
		case "uppercase":
			charPattern = "^[^a-z]*$"
		case "min":
			if v, ok := number(tok.Param(0)); ok {
				setMin(d, v)
			}
		case "max":
			if v, ok := number(tok.Param(0)); ok {
				setMax(d, v)
			}
		case "between":
			if lo, ok := number(tok.Param(0)); ok {
				setMin(d, lo)
			}
			if hi, ok := number(tok.Param(1)); ok {
				setMax(d, hi)
			}
		case "size":
			if v, ok := number(tok.Param(0)); ok {
				setMin(d, v)
				setMax(d, v)
			}
		case "digits":
			if n, ok := number(tok.Param(0)); ok {
				setDigits(d, n, n)
			}
		case "digits_between":
			lo, ok1 := number(tok.Param(0))
			hi, ok2 := number(tok.Param(1))
			if ok1 && ok2 {
				setDigits(d, lo, hi)
			}
		case "gt", "gte":
			if v, ok := number(tok.Param(0)); ok && isNumeric(d.Type) {
				if tok.Name == "gt" && d.Type == TypeInteger {
					v++
				}
				d.Constraints.Minimum = &v
			}
		case "lt", "lte":
			if v, ok := number(tok.Param(0)); ok && isNumeric(d.Type) {
				if tok.Name == "lt" && d.Type == TypeInteger {
					v--
				}
				d.Constraints.Maximum = &v
			}
		case "image":
			image = true
		case "mimes", "mimetypes", "extensions":
			if d.File != nil {
				d.File.Mimes = append(d.File.Mimes, nonEmpty(tok.Params)...)
			}
		case "dimensions":
			if d.File != nil {
				d.File.Dimensions = append(d.File.Dimensions, nonEmpty(tok.Params)...)
			}
		}
	}
	if d.File != nil && image && len(d.File.Mimes) == 0 {
		d.File.Mimes = append([]string(nil), DefaultImageMimes...)
	}
	if d.Type == TypeString {
		if regexPattern != "" && compiles(regexPattern) {
			d.Constraints.Pattern = regexPattern
		} else if charPattern != "" {
			d.Constraints.Pattern = charPattern
		}
	}
	if declared && !d.Required && !d.Nullable && !presenceEnforced(tokens) {
		d.Nullable = true
	}
	return d
}

// presenceEnforced reports rules that reject null for an optional field.
func presenceEnforced(tokens []Token) bool {
	for _, t := range tokens {
		switch t.Name {
		case "filled", "present", "sometimes", "accepted", "declined", "prohibited", "missing":
			return true
		}
	}
	return false
}

func inferType(tokens []Token) Type {
	has := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		has[t.Name] = true
	}
	switch {
	case has["file"] || has["image"] || has["mimes"] || has["mimetypes"] || has["dimensions"] || has["extensions"]:
		return TypeFile
	case has["integer"] || has["int"] || has["digits"] || has["digits_between"]:
		return TypeInteger
	case has["numeric"] || has["decimal"]:
		return TypeNumber
	case has["boolean"] || has["bool"] || has["accepted"] || has["declined"]:
		return TypeBoolean
	case has["array"] || has["list"]:
		return TypeArray
	default:
		return TypeString
	}
}

func scalarType(s string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string":
		return TypeString, true
	case "int", "integer":
		return TypeInteger, true
	case "float", "double", "number", "numeric":
		return TypeNumber, true
	case "bool", "boolean":
		return TypeBoolean, true
	}
	return "", false
}

func enumValues(tok Token, typ Type) []any {
	var out []any
	if len(tok.Values) > 0 {
		return append(out, tok.Values...)
	}
	for _, p := range tok.Params {
		p = strings.Trim(p, `"'`)
		switch typ {
		case TypeInteger:
			if n, err := strconv.ParseInt(p, 10, 64); err == nil {
				out = append(out, n)
				continue
			}
		case TypeNumber:
			if f, err := strconv.ParseFloat(p, 64); err == nil {
				out = append(out, f)
				continue
			}
		case TypeBoolean:
			if b, err := strconv.ParseBool(p); err == nil {
				out = append(out, b)
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

func setMin(d *FieldDescriptor, v float64) {
	switch d.Type {
	case TypeInteger, TypeNumber:
		d.Constraints.Minimum = &v
	case TypeString:
		n := int(v)
		d.Constraints.MinLength = &n
	case TypeArray:
		n := int(v)
		d.Constraints.MinItems = &n
	case TypeFile:
		d.File.MinSize = int64(v * 1024)
	}
}

func setMax(d *FieldDescriptor, v float64) {
	switch d.Type {
	case TypeInteger, TypeNumber:
		d.Constraints.Maximum = &v
	case TypeString:
		n := int(v)
		d.Constraints.MaxLength = &n
	case TypeArray:
		n := int(v)
		d.Constraints.MaxItems = &n
	case TypeFile:
		d.File.MaxSize = int64(v * 1024)
	}
}

func setDigits(d *FieldDescriptor, lo, hi float64) {
	switch d.Type {
	case TypeInteger, TypeNumber:
		minV := 0.0
		if lo > 1 {
			minV = math.Pow(10, lo-1)
		}
		maxV := math.Pow(10, hi) - 1
		d.Constraints.Minimum = &minV
		d.Constraints.Maximum = &maxV
	case TypeString:
		a, b := int(lo), int(hi)
		d.Constraints.MinLength = &a
		d.Constraints.MaxLength = &b
	}
}

func isNumeric(t Type) bool { return t == TypeInteger || t == TypeNumber }

func number(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// dateFormat maps a PHP date format to date or date-time.
func dateFormat(layout string) string {
	if strings.ContainsAny(layout, "HhGgisaAuvU") || strings.Contains(layout, "\\T") {
		return "date-time"
	}
	return "date"
}

// compiles drops source patterns using syntax RE2 does not support.
func compiles(p string) bool {
	_, err := regexp.Compile(p)
	return err == nil
}

// stripDelimiters turns "/^[a-z]+$/i" into "^[a-z]+$".
func stripDelimiters(p string) string {
	p = strings.TrimSpace(p)
	if len(p) < 2 {
		return p
	}
	delim := p[0]
	if delim == '#' || delim == '/' || delim == '~' || delim == '!' || delim == '@' || delim == '%' {
		if end := strings.LastIndexByte(p, delim); end > 0 {
			return p[1:end]
		}
	}
	return p
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
