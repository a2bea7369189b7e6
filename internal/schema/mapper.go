// Package schema turns field descriptors into OpenAPI schemas and keeps the
// named component schemas of one generation pass.
package schema

import (
	"fmt"
	"math"
	"strconv"

	"github.com/mark3labs/rulespec/internal/rules"
	"github.com/mark3labs/rulespec/internal/spec"
)

// EnumInfo is implemented by enum descriptions that know their value list and
// OpenAPI scalar type.
type EnumInfo interface {
	EnumValues() []any
	OpenAPIType() string
}

// EnumSpec is the structured {values, type} enum shape.
type EnumSpec struct {
	Values []any
	Type   string
}

func (e EnumSpec) EnumValues() []any   { return e.Values }
func (e EnumSpec) OpenAPIType() string { return e.Type }

// Source is the loose property description the mapper accepts. Enum may be a
// plain list, a {values, type} map, an EnumSpec or any EnumInfo.
type Source struct {
	Type        string
	Description string
	Example     any
	Format      string
	Pattern     string
	Default     any
	Minimum     *float64
	Maximum     *float64
	MinLength   *int
	MaxLength   *int
	MinItems    *int
	MaxItems    *int
	Enum        any
	Nullable    bool
	ReadOnly    bool
	WriteOnly   bool
	Deprecated  bool
}

// SourceFromField builds a mapper source from a normalized descriptor. File
// fields map to binary strings.
func SourceFromField(d *rules.FieldDescriptor) Source {
	src := Source{
		Type:        string(d.Type),
		Description: d.Description,
		Example:     d.Example,
		Format:      d.Format,
		Pattern:     d.Constraints.Pattern,
		Default:     d.Default,
		Minimum:     d.Constraints.Minimum,
		Maximum:     d.Constraints.Maximum,
		MinLength:   d.Constraints.MinLength,
		MaxLength:   d.Constraints.MaxLength,
		MinItems:    d.Constraints.MinItems,
		MaxItems:    d.Constraints.MaxItems,
		Nullable:    d.Nullable,
		ReadOnly:    d.ReadOnly,
		WriteOnly:   d.WriteOnly,
		Deprecated:  d.Deprecated,
	}
	if len(d.Enum) > 0 {
		src.Enum = EnumSpec{Values: d.Enum, Type: enumType(d)}
	}
	if d.Type == rules.TypeFile {
		src.Type = spec.TypeString
		src.Format = "binary"
	}
	return src
}

func enumType(d *rules.FieldDescriptor) string {
	switch d.Type {
	case rules.TypeInteger, rules.TypeNumber, rules.TypeBoolean, rules.TypeString:
		return string(d.Type)
	}
	return ""
}

// SourceFromMap reads a legacy flat property array (OpenAPI-style keys).
func SourceFromMap(m map[string]any) Source {
	src := Source{
		Type:        str(m["type"]),
		Description: str(m["description"]),
		Example:     m["example"],
		Format:      str(m["format"]),
		Pattern:     str(m["pattern"]),
		Default:     m["default"],
		Minimum:     floatPtr(m["minimum"]),
		Maximum:     floatPtr(m["maximum"]),
		MinLength:   intPtr(m["minLength"]),
		MaxLength:   intPtr(m["maxLength"]),
		MinItems:    intPtr(m["minItems"]),
		MaxItems:    intPtr(m["maxItems"]),
		Nullable:    truthy(m["nullable"]),
		ReadOnly:    truthy(m["readOnly"]),
		WriteOnly:   truthy(m["writeOnly"]),
		Deprecated:  truthy(m["deprecated"]),
	}
	if e, ok := m["enum"]; ok {
		src.Enum = e
	}
	return src
}

// Map produces the property fragment for src. Keys are applied in a fixed
// order: type, scalar copy-through, type-specific constraints, enum, flags.
// Flags are only ever set when true.
func Map(src Source) *spec.Schema {
	s := &spec.Schema{}

	typ := src.Type
	if typ == "" {
		typ = spec.TypeString
	}
	format := src.Format
	if typ == string(rules.TypeFile) {
		typ = spec.TypeString
		format = "binary"
	}
	s.Type = spec.Types{typ}

	s.Description = src.Description
	s.Example = src.Example
	s.Format = format
	s.Pattern = src.Pattern
	s.Default = src.Default

	switch typ {
	case spec.TypeInteger, spec.TypeNumber:
		s.Minimum = cloneFloat(src.Minimum)
		s.Maximum = cloneFloat(src.Maximum)
	case spec.TypeString:
		s.MinLength = cloneInt(src.MinLength)
		s.MaxLength = cloneInt(src.MaxLength)
	case spec.TypeArray:
		s.MinItems = cloneInt(src.MinItems)
		s.MaxItems = cloneInt(src.MaxItems)
	}

	if values, enumTyp := NormalizeEnum(src.Enum); len(values) > 0 {
		s.Enum = values
		if enumTyp != "" {
			s.Type = spec.Types{enumTyp}
		}
	}

	if src.Nullable {
		s.Nullable = true
	}
	if src.ReadOnly {
		s.ReadOnly = true
	}
	if src.WriteOnly {
		s.WriteOnly = true
	}
	if src.Deprecated {
		s.Deprecated = true
	}
	return s
}

// MapField maps a descriptor's scalar part.
func MapField(d *rules.FieldDescriptor) *spec.Schema {
	return Map(SourceFromField(d))
}

// MapAll maps every fragment of a legacy property array, recursing into
// items and properties. Mapping an already mapped result yields the same
// result.
func MapAll(props map[string]map[string]any) map[string]map[string]any {
	out := make(map[string]map[string]any, len(props))
	for name, frag := range props {
		out[name] = mapFragment(frag)
	}
	return out
}

func mapFragment(frag map[string]any) map[string]any {
	if ref, ok := frag["$ref"].(string); ok && ref != "" {
		return map[string]any{"$ref": ref}
	}
	out := Map(SourceFromMap(frag)).Fragment()
	if items, ok := frag["items"].(map[string]any); ok {
		out["items"] = mapFragment(items)
	}
	if props, ok := frag["properties"].(map[string]any); ok {
		mapped := make(map[string]any, len(props))
		for key, p := range props {
			if pm, ok := p.(map[string]any); ok {
				mapped[key] = mapFragment(pm)
			}
		}
		out["properties"] = mapped
	}
	if req := stringList(frag["required"]); len(req) > 0 {
		out["required"] = req
	}
	return out
}

func stringList(v any) []any {
	var out []any
	switch l := v.(type) {
	case []string:
		for _, s := range l {
			out = append(out, s)
		}
	case []any:
		for _, s := range l {
			if s, ok := s.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// NormalizeEnum reduces the accepted enum shapes to a value list and an
// optional type override.
func NormalizeEnum(v any) ([]any, string) {
	switch e := v.(type) {
	case nil:
		return nil, ""
	case EnumInfo:
		return append([]any(nil), e.EnumValues()...), e.OpenAPIType()
	case []any:
		return append([]any(nil), e...), ""
	case []string:
		out := make([]any, len(e))
		for i, s := range e {
			out[i] = s
		}
		return out, ""
	case map[string]any:
		vals, _ := e["values"].([]any)
		if vals == nil {
			if ss, ok := e["values"].([]string); ok {
				vals, _ = NormalizeEnum(ss)
			}
		}
		return append([]any(nil), vals...), str(e["type"])
	}
	return nil, ""
}

func str(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case fmt.Stringer:
		return s.String()
	}
	return ""
}

func truthy(v any) bool {
	b, _ := v.(bool)
	return b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	case *float64:
		if n != nil {
			return *n, true
		}
	case *int:
		if n != nil {
			return float64(*n), true
		}
	}
	return 0, false
}

func floatPtr(v any) *float64 {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func intPtr(v any) *int {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) {
		return nil
	}
	n := int(f)
	return &n
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
