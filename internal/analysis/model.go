// Package analysis defines the data handed to the generator by the source
// analyzers: routes, per-action controller facts, validation rule sets and
// resource field lists.
package analysis

import (
	"strings"
)

// Route is one registered route of the analyzed application.
type Route struct {
	URI            string          `yaml:"uri" json:"uri"`
	Methods        []string        `yaml:"methods" json:"methods"`
	Controller     string          `yaml:"controller,omitempty" json:"controller,omitempty"`
	Action         string          `yaml:"action,omitempty" json:"action,omitempty"`
	Name           string          `yaml:"name,omitempty" json:"name,omitempty"`
	Middleware     []string        `yaml:"middleware,omitempty" json:"middleware,omitempty"`
	PathParameters []PathParameter `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// Key identifies the controller action handling the route ("Class@method").
func (r Route) Key() string {
	if r.Action == "" {
		return r.Controller
	}
	return r.Controller + "@" + r.Action
}

// HasMiddleware reports whether the route carries middleware name exactly.
func (r Route) HasMiddleware(name string) bool {
	for _, m := range r.Middleware {
		if strings.TrimSpace(m) == name {
			return true
		}
	}
	return false
}

// PathParameter describes a URI placeholder and its optional pattern constraint.
type PathParameter struct {
	Name        string `yaml:"name" json:"name"`
	Pattern     string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Optional    bool   `yaml:"optional,omitempty" json:"optional,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// ControllerAnalysis carries what is statically known about one controller action.
type ControllerAnalysis struct {
	Summary           string            `yaml:"summary,omitempty"`
	Description       string            `yaml:"description,omitempty"`
	FormRequest       string            `yaml:"form_request,omitempty"`
	Rules             *RuleSet          `yaml:"rules,omitempty"`
	Resource          string            `yaml:"resource,omitempty"`
	Resources         []string          `yaml:"resources,omitempty"`
	ReturnsCollection bool              `yaml:"returns_collection,omitempty"`
	Pagination        *PaginationInfo   `yaml:"pagination,omitempty"`
	QueryParameters   []QueryParameter  `yaml:"query_parameters,omitempty"`
	EnumParameters    []EnumParameter   `yaml:"enum_parameters,omitempty"`
	Response          *ResponseTypeInfo `yaml:"response,omitempty"`
	Callbacks         []CallbackInfo    `yaml:"callbacks,omitempty"`
	Deprecated        bool              `yaml:"deprecated,omitempty"`
}

// ResourceClasses returns the resource classes in declaration order without duplicates.
func (c *ControllerAnalysis) ResourceClasses() []string {
	if c == nil {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, r := range append([]string{c.Resource}, c.Resources...) {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// PaginationInfo names the paginator returned by an action.
type PaginationInfo struct {
	Type     string `yaml:"type"`
	Resource string `yaml:"resource,omitempty"`
}

// QueryParameter is a query-string input detected in the action body.
type QueryParameter struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type,omitempty"`
	Format      string `yaml:"format,omitempty"`
	Required    bool   `yaml:"required,omitempty"`
	Default     any    `yaml:"default,omitempty"`
	Enum        []any  `yaml:"enum,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// EnumParameter is a path or query input bound to an enum type.
type EnumParameter struct {
	Name        string `yaml:"name"`
	In          string `yaml:"in,omitempty"`
	Type        string `yaml:"type,omitempty"`
	Values      []any  `yaml:"values"`
	Class       string `yaml:"class,omitempty"`
	Required    bool   `yaml:"required,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// ResponseTypeInfo describes a non-resource response body.
type ResponseTypeInfo struct {
	// Type is one of object, array, binary, void.
	Type        string         `yaml:"type"`
	Status      int            `yaml:"status,omitempty"`
	ContentType string         `yaml:"content_type,omitempty"`
	Fields      ResourceFields `yaml:"fields,omitempty"`
	Description string         `yaml:"description,omitempty"`
}

// CallbackInfo declares an outgoing request the API makes on behalf of an operation.
type CallbackInfo struct {
	Name        string         `yaml:"name"`
	Expression  string         `yaml:"expression"`
	Method      string         `yaml:"method,omitempty"`
	Resource    string         `yaml:"resource,omitempty"`
	Fields      ResourceFields `yaml:"fields,omitempty"`
	Description string         `yaml:"description,omitempty"`
}

// RuleSet is a validation rule list with its messages and conditional branches.
type RuleSet struct {
	Rules       RuleMap             `yaml:"rules"`
	Messages    map[string]string   `yaml:"messages,omitempty"`
	Attributes  map[string]string   `yaml:"attributes,omitempty"`
	Conditional []ConditionalBranch `yaml:"conditional,omitempty"`
}

// Empty reports whether the rule set carries neither plain nor conditional rules.
func (r *RuleSet) Empty() bool {
	if r == nil {
		return true
	}
	if len(r.Rules) > 0 {
		return false
	}
	for _, b := range r.Conditional {
		if len(b.Rules) > 0 {
			return false
		}
	}
	return true
}

// ConditionalBranch is one alternative rule list selected by a condition
// (an HTTP method, or a field-value branch).
type ConditionalBranch struct {
	Condition string  `yaml:"condition"`
	Label     string  `yaml:"label,omitempty"`
	Rules     RuleMap `yaml:"rules"`
}

// RuleMap is an ordered field -> raw rules mapping. Each raw rule is a string
// (possibly pipe-delimited) or a map for object rules such as enums.
type RuleMap []FieldRules

// FieldRules holds the raw rules of one (possibly dotted) field path.
type FieldRules struct {
	Field string
	Rules []any
}

// Get returns the raw rules declared for field.
func (m RuleMap) Get(field string) ([]any, bool) {
	for _, fr := range m {
		if fr.Field == field {
			return fr.Rules, true
		}
	}
	return nil, false
}

// ResourceInfo is the serialized shape of a resource or transformer class.
type ResourceInfo struct {
	Description       string                    `yaml:"description,omitempty"`
	Fields            ResourceFields            `yaml:"fields,omitempty"`
	Groups            map[string]ResourceFields `yaml:"groups,omitempty"`
	Fractal           bool                      `yaml:"fractal,omitempty"`
	AvailableIncludes []string                  `yaml:"available_includes,omitempty"`
	DefaultIncludes   []string                  `yaml:"default_includes,omitempty"`
	Example           map[string]any            `yaml:"example,omitempty"`
}

// FieldList returns the fields to serialize, unwrapping the "default"
// transformer group when the fields are grouped.
func (r *ResourceInfo) FieldList() ResourceFields {
	if r == nil {
		return nil
	}
	if len(r.Fields) > 0 {
		return r.Fields
	}
	if def, ok := r.Groups["default"]; ok {
		return def
	}
	return nil
}

// ResourceFields is an ordered list of serialized fields.
type ResourceFields []ResourceField

// ResourceField describes one serialized output field.
type ResourceField struct {
	Name        string         `yaml:"-"`
	Type        string         `yaml:"type,omitempty"`
	Format      string         `yaml:"format,omitempty"`
	Nullable    bool           `yaml:"nullable,omitempty"`
	ReadOnly    bool           `yaml:"read_only,omitempty"`
	WriteOnly   bool           `yaml:"write_only,omitempty"`
	Deprecated  bool           `yaml:"deprecated,omitempty"`
	Description string         `yaml:"description,omitempty"`
	Example     any            `yaml:"example,omitempty"`
	Enum        []any          `yaml:"enum,omitempty"`
	Resource    string         `yaml:"resource,omitempty"`
	Collection  bool           `yaml:"collection,omitempty"`
	Items       *ResourceField `yaml:"items,omitempty"`
	Properties  ResourceFields `yaml:"properties,omitempty"`
}
