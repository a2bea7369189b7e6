package generator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mark3labs/rulespec/internal/analysis"
	"github.com/mark3labs/rulespec/internal/rules"
	"github.com/mark3labs/rulespec/internal/schema"
	"github.com/mark3labs/rulespec/internal/spec"
)

var pathParamRe = regexp.MustCompile(`\{([^}?]+)(\?)?\}`)

// NormalizePath returns the OpenAPI path of a route URI: a leading slash is
// added and optional placeholders "{id?}" become "{id}".
func NormalizePath(uri string) string {
	p := "/" + strings.Trim(strings.TrimSpace(uri), "/")
	return pathParamRe.ReplaceAllString(p, "{$1}")
}

// PathParamNames lists the placeholders of a URI in order.
func PathParamNames(uri string) []string {
	var out []string
	for _, m := range pathParamRe.FindAllStringSubmatch(uri, -1) {
		out = append(out, m[1])
	}
	return out
}

var (
	numericPatternRe = regexp.MustCompile(`^\^?(\[0-9\]|\\d)(\+|\*|\{\d+(,\d*)?\})\$?$`)
	uuidPatternRe    = regexp.MustCompile(`(?i)^\^?\[(0-9a-f|a-f0-9|\\da-f)[^\]]*\]\{8\}-`)
	alphaPatternRe   = regexp.MustCompile(`^\^?\[(a-zA-Z|A-Za-z|a-z|A-Z)\]\+\$?$`)
)

// PathParameters builds the path parameters of a route. Every placeholder is
// required, including optional "{id?}" ones, since OpenAPI has no optional
// path segments. The type comes from the route pattern when one is declared
// ("[0-9]+" is an integer), else names like "id" or "user_id" are integers.
// Enum parameters declared for the path override the schema.
func PathParameters(route analysis.Route, enums []analysis.EnumParameter) []*spec.Parameter {
	declared := map[string]analysis.PathParameter{}
	for _, p := range route.PathParameters {
		declared[p.Name] = p
	}
	pathEnums := map[string]analysis.EnumParameter{}
	for _, e := range enums {
		if strings.EqualFold(e.In, "path") {
			pathEnums[e.Name] = e
		}
	}

	var out []*spec.Parameter
	seen := map[string]struct{}{}
	for _, m := range pathParamRe.FindAllStringSubmatch(route.URI, -1) {
		name := m[1]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		decl := declared[name]
		p := &spec.Parameter{
			Name:        name,
			In:          "path",
			Required:    true,
			Description: decl.Description,
			Schema:      pathSchema(name, decl.Pattern),
		}
		if m[2] == "?" || decl.Optional {
			p.Description = joinText(p.Description, "Optional in the route definition.")
		}
		if e, ok := pathEnums[name]; ok {
			p.Schema = enumSchema(e)
			if e.Description != "" {
				p.Description = e.Description
			}
		}
		if p.Description == "" {
			p.Description = fmt.Sprintf("The %s identifier", strings.ReplaceAll(name, "_", " "))
		}
		out = append(out, p)
	}
	return out
}

func pathSchema(name, pattern string) *spec.Schema {
	pattern = strings.TrimSpace(pattern)
	switch {
	case numericPatternRe.MatchString(pattern):
		return spec.NewType(spec.TypeInteger)
	case uuidPatternRe.MatchString(pattern):
		s := spec.NewType(spec.TypeString)
		s.Format = "uuid"
		return s
	case alphaPatternRe.MatchString(pattern):
		s := spec.NewType(spec.TypeString)
		s.Pattern = anchor(pattern)
		return s
	case pattern != "":
		return spec.NewType(spec.TypeString)
	}
	lower := strings.ToLower(name)
	if lower == "id" || strings.HasSuffix(lower, "_id") || strings.HasSuffix(name, "Id") {
		return spec.NewType(spec.TypeInteger)
	}
	if lower == "uuid" || strings.HasSuffix(lower, "_uuid") {
		s := spec.NewType(spec.TypeString)
		s.Format = "uuid"
		return s
	}
	return spec.NewType(spec.TypeString)
}

func anchor(p string) string {
	if !strings.HasPrefix(p, "^") {
		p = "^" + p
	}
	if !strings.HasSuffix(p, "$") {
		p += "$"
	}
	return p
}

func enumSchema(e analysis.EnumParameter) *spec.Schema {
	typ := e.Type
	if typ == "" {
		typ = spec.TypeString
		if len(e.Values) > 0 {
			if _, ok := e.Values[0].(int); ok {
				typ = spec.TypeInteger
			}
		}
	}
	return schema.Map(schema.Source{
		Type:        typ,
		Description: e.Description,
		Enum:        schema.EnumSpec{Values: e.Values, Type: typ},
	})
}

// QueryParameters builds the query parameters of an operation from the
// analyzed query inputs, query enums, the validation rules of read-only
// methods, Fractal includes and the paginator. Names are unique; the first
// declaration wins.
func QueryParameters(ca *analysis.ControllerAnalysis, ruleFields []*rules.FieldDescriptor, includes []string, pagination string, gen *schema.Generator) []*spec.Parameter {
	var out []*spec.Parameter
	seen := map[string]struct{}{}
	add := func(p *spec.Parameter) {
		if _, dup := seen[p.Name]; dup {
			return
		}
		seen[p.Name] = struct{}{}
		out = append(out, p)
	}

	if ca != nil {
		for _, q := range ca.QueryParameters {
			if strings.TrimSpace(q.Name) == "" {
				continue
			}
			typ := q.Type
			if typ == "" {
				typ = spec.TypeString
			}
			src := schema.Source{Type: typ, Format: q.Format, Default: q.Default}
			if len(q.Enum) > 0 {
				src.Enum = q.Enum
			}
			s := schema.Map(src)
			if s.Type.Primary() == spec.TypeArray && s.Items == nil {
				s.Items = spec.NewType(spec.TypeString)
			}
			add(&spec.Parameter{Name: q.Name, In: "query", Required: q.Required, Description: q.Description, Schema: s})
		}
		for _, e := range ca.EnumParameters {
			if e.In != "" && !strings.EqualFold(e.In, "query") {
				continue
			}
			add(&spec.Parameter{Name: e.Name, In: "query", Required: e.Required, Description: e.Description, Schema: enumSchema(e)})
		}
	}

	for _, f := range ruleFields {
		if f.Type == rules.TypeObject || f.Type == rules.TypeFile {
			continue
		}
		s := gen.Field(f)
		name := f.Key()
		if f.Type == rules.TypeArray {
			if s.Items != nil && s.Items.Type.Primary() == spec.TypeObject {
				continue
			}
			name += "[]"
		}
		add(&spec.Parameter{Name: name, In: "query", Required: f.Required, Description: s.Description, Schema: s})
	}

	if len(includes) > 0 {
		add(&spec.Parameter{
			Name:        "include",
			In:          "query",
			Description: "Comma-separated relationships to include. Available: " + strings.Join(includes, ", ") + ".",
			Schema:      spec.NewType(spec.TypeString),
			Example:     strings.Join(includes, ","),
		})
	}

	switch pagination {
	case PaginationLengthAware, PaginationSimple:
		page := spec.NewType(spec.TypeInteger)
		page.Minimum = spec.Float(1)
		page.Default = 1
		add(&spec.Parameter{Name: "page", In: "query", Description: "Page number.", Schema: page})
		add(&spec.Parameter{Name: "per_page", In: "query", Description: "Items per page.", Schema: perPage()})
	case PaginationCursor:
		add(&spec.Parameter{Name: "cursor", In: "query", Description: "Cursor of the page to fetch.", Schema: spec.NewType(spec.TypeString)})
		add(&spec.Parameter{Name: "per_page", In: "query", Description: "Items per page.", Schema: perPage()})
	}
	return out
}

func perPage() *spec.Schema {
	s := spec.NewType(spec.TypeInteger)
	s.Minimum = spec.Float(1)
	s.Default = 15
	return s
}

func joinText(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return strings.TrimSuffix(a, ".") + ". " + b
}
