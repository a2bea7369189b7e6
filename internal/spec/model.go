package spec

import (
	"encoding/json"
	"strings"
)

// Document model for the generated OpenAPI output. Field order in the structs
// below is the key order of the serialized document.

const (
	Version30 = "3.0.3"
	Version31 = "3.1.0"
)

type HttpMethod string

const (
	GET     HttpMethod = "get"
	POST    HttpMethod = "post"
	PUT     HttpMethod = "put"
	DELETE  HttpMethod = "delete"
	PATCH   HttpMethod = "patch"
	HEAD    HttpMethod = "head"
	OPTIONS HttpMethod = "options"
	TRACE   HttpMethod = "trace"
)

// ParseMethod lower-cases m and reports whether it is an OpenAPI operation method.
func ParseMethod(m string) (HttpMethod, bool) {
	switch hm := HttpMethod(strings.ToLower(strings.TrimSpace(m))); hm {
	case GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS, TRACE:
		return hm, true
	default:
		return "", false
	}
}

type Document struct {
	OpenAPI    string                 `json:"openapi" yaml:"openapi"`
	Info       Info                   `json:"info" yaml:"info"`
	Servers    []Server               `json:"servers,omitempty" yaml:"servers,omitempty"`
	Paths      *OrderedMap[*PathItem] `json:"paths" yaml:"paths"`
	Components *Components            `json:"components,omitempty" yaml:"components,omitempty"`
	Security   SecurityRequirements   `json:"security,omitempty" yaml:"security,omitempty"`
	Tags       []Tag                  `json:"tags,omitempty" yaml:"tags,omitempty"`
	TagGroups  []TagGroup             `json:"x-tagGroups,omitempty" yaml:"x-tagGroups,omitempty"`
}

// NewDocument returns a skeleton with empty paths and components.
func NewDocument(version string, info Info) *Document {
	if version == "" {
		version = Version30
	}
	return &Document{
		OpenAPI:    version,
		Info:       info,
		Paths:      NewOrderedMap[*PathItem](),
		Components: &Components{},
	}
}

type Info struct {
	Title          string   `json:"title" yaml:"title"`
	Description    string   `json:"description,omitempty" yaml:"description,omitempty"`
	TermsOfService string   `json:"termsOfService,omitempty" yaml:"termsOfService,omitempty"`
	Contact        *Contact `json:"contact,omitempty" yaml:"contact,omitempty"`
	License        *License `json:"license,omitempty" yaml:"license,omitempty"`
	Version        string   `json:"version" yaml:"version"`
}

type Contact struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

type License struct {
	Name       string `json:"name" yaml:"name"`
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
}

type Server struct {
	URL         string `json:"url" yaml:"url"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type Tag struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// TagGroup is one entry of the x-tagGroups extension.
type TagGroup struct {
	Name string   `json:"name" yaml:"name"`
	Tags []string `json:"tags" yaml:"tags"`
}

type PathItem struct {
	Get     *Operation `json:"get,omitempty" yaml:"get,omitempty"`
	Put     *Operation `json:"put,omitempty" yaml:"put,omitempty"`
	Post    *Operation `json:"post,omitempty" yaml:"post,omitempty"`
	Delete  *Operation `json:"delete,omitempty" yaml:"delete,omitempty"`
	Options *Operation `json:"options,omitempty" yaml:"options,omitempty"`
	Head    *Operation `json:"head,omitempty" yaml:"head,omitempty"`
	Patch   *Operation `json:"patch,omitempty" yaml:"patch,omitempty"`
	Trace   *Operation `json:"trace,omitempty" yaml:"trace,omitempty"`
}

// SetOperation stores op under method.
func (p *PathItem) SetOperation(method HttpMethod, op *Operation) {
	switch method {
	case GET:
		p.Get = op
	case PUT:
		p.Put = op
	case POST:
		p.Post = op
	case DELETE:
		p.Delete = op
	case OPTIONS:
		p.Options = op
	case HEAD:
		p.Head = op
	case PATCH:
		p.Patch = op
	case TRACE:
		p.Trace = op
	}
}

// Operation returns the operation stored under method, or nil.
func (p *PathItem) Operation(method HttpMethod) *Operation {
	switch method {
	case GET:
		return p.Get
	case PUT:
		return p.Put
	case POST:
		return p.Post
	case DELETE:
		return p.Delete
	case OPTIONS:
		return p.Options
	case HEAD:
		return p.Head
	case PATCH:
		return p.Patch
	case TRACE:
		return p.Trace
	}
	return nil
}

// MethodOperation pairs an operation with its method.
type MethodOperation struct {
	Method    HttpMethod
	Operation *Operation
}

// Operations lists the non-nil operations in serialization order.
func (p *PathItem) Operations() []MethodOperation {
	var out []MethodOperation
	for _, m := range []HttpMethod{GET, PUT, POST, DELETE, OPTIONS, HEAD, PATCH, TRACE} {
		if op := p.Operation(m); op != nil {
			out = append(out, MethodOperation{Method: m, Operation: op})
		}
	}
	return out
}

// Operation is one method of a path item. Security is nil when the operation
// inherits the document requirement; a non-nil empty list marks it public.
type Operation struct {
	Tags        []string               `json:"tags,omitempty" yaml:"tags,omitempty"`
	Summary     string                 `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	OperationID string                 `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	Parameters  []*Parameter           `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	RequestBody *RequestBody           `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
	Responses   *OrderedMap[*Response] `json:"responses" yaml:"responses"`
	Callbacks   *OrderedMap[*Callback] `json:"callbacks,omitempty" yaml:"callbacks,omitempty"`
	Deprecated  bool                   `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	Security    *SecurityRequirements  `json:"security,omitempty" yaml:"security,omitempty"`
}

// Callback maps runtime expressions to the path items invoked on them.
type Callback = OrderedMap[*PathItem]

type Parameter struct {
	Name        string  `json:"name" yaml:"name"`
	In          string  `json:"in" yaml:"in"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool    `json:"required,omitempty" yaml:"required,omitempty"`
	Deprecated  bool    `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	Schema      *Schema `json:"schema,omitempty" yaml:"schema,omitempty"`
	Example     any     `json:"example,omitempty" yaml:"example,omitempty"`
}

type RequestBody struct {
	Description string                  `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool                    `json:"required,omitempty" yaml:"required,omitempty"`
	Content     *OrderedMap[*MediaType] `json:"content" yaml:"content"`
}

type Response struct {
	Description string                  `json:"description" yaml:"description"`
	Content     *OrderedMap[*MediaType] `json:"content,omitempty" yaml:"content,omitempty"`
}

type MediaType struct {
	Schema  *Schema `json:"schema,omitempty" yaml:"schema,omitempty"`
	Example any     `json:"example,omitempty" yaml:"example,omitempty"`
}

// JSONContent is a shortcut for a single application/json media type.
func JSONContent(schema *Schema, example any) *OrderedMap[*MediaType] {
	return SingleContent("application/json", schema, example)
}

// SingleContent returns a content map holding one media type.
func SingleContent(mime string, schema *Schema, example any) *OrderedMap[*MediaType] {
	content := NewOrderedMap[*MediaType]()
	content.Set(mime, &MediaType{Schema: schema, Example: example})
	return content
}

type Components struct {
	Schemas         *OrderedMap[*Schema]         `json:"schemas,omitempty" yaml:"schemas,omitempty"`
	SecuritySchemes *OrderedMap[*SecurityScheme] `json:"securitySchemes,omitempty" yaml:"securitySchemes,omitempty"`
}

type SecurityScheme struct {
	Type             string      `json:"type" yaml:"type"`
	Description      string      `json:"description,omitempty" yaml:"description,omitempty"`
	Name             string      `json:"name,omitempty" yaml:"name,omitempty"`
	In               string      `json:"in,omitempty" yaml:"in,omitempty"`
	Scheme           string      `json:"scheme,omitempty" yaml:"scheme,omitempty"`
	BearerFormat     string      `json:"bearerFormat,omitempty" yaml:"bearerFormat,omitempty"`
	Flows            *OAuthFlows `json:"flows,omitempty" yaml:"flows,omitempty"`
	OpenIDConnectURL string      `json:"openIdConnectUrl,omitempty" yaml:"openIdConnectUrl,omitempty"`
}

type OAuthFlows struct {
	Implicit          *OAuthFlow `json:"implicit,omitempty" yaml:"implicit,omitempty"`
	Password          *OAuthFlow `json:"password,omitempty" yaml:"password,omitempty"`
	ClientCredentials *OAuthFlow `json:"clientCredentials,omitempty" yaml:"clientCredentials,omitempty"`
	AuthorizationCode *OAuthFlow `json:"authorizationCode,omitempty" yaml:"authorizationCode,omitempty"`
}

type OAuthFlow struct {
	AuthorizationURL string            `json:"authorizationUrl,omitempty" yaml:"authorizationUrl,omitempty"`
	TokenURL         string            `json:"tokenUrl,omitempty" yaml:"tokenUrl,omitempty"`
	RefreshURL       string            `json:"refreshUrl,omitempty" yaml:"refreshUrl,omitempty"`
	Scopes           map[string]string `json:"scopes" yaml:"scopes"`
}

// SecurityRequirement maps scheme names to required scopes.
type SecurityRequirement map[string][]string

type SecurityRequirements []SecurityRequirement

// NewSecurityRequirement builds a requirement for one scheme. Scopes is never nil
// so that it serializes as an empty list.
func NewSecurityRequirement(scheme string, scopes ...string) SecurityRequirement {
	if scopes == nil {
		scopes = []string{}
	}
	return SecurityRequirement{scheme: scopes}
}

// Types is the schema "type" keyword. A single entry serializes as a string,
// several entries (3.1 nullable types) as a list.
type Types []string

// Is reports whether t contains name.
func (t Types) Is(name string) bool {
	for _, v := range t {
		if v == name {
			return true
		}
	}
	return false
}

// Primary returns the first non-null type, or "".
func (t Types) Primary() string {
	for _, v := range t {
		if v != TypeNull {
			return v
		}
	}
	return ""
}

func (t Types) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return json.Marshal(t[0])
	}
	return json.Marshal([]string(t))
}

func (t Types) MarshalYAML() (any, error) {
	if len(t) == 1 {
		return t[0], nil
	}
	return []string(t), nil
}

const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
	TypeNull    = "null"
)

// Schema is the subset of the OpenAPI schema object the generator emits.
type Schema struct {
	Ref              string               `json:"$ref,omitempty" yaml:"$ref,omitempty"`
	Title            string               `json:"title,omitempty" yaml:"title,omitempty"`
	Type             Types                `json:"type,omitempty" yaml:"type,omitempty"`
	Description      string               `json:"description,omitempty" yaml:"description,omitempty"`
	Example          any                  `json:"example,omitempty" yaml:"example,omitempty"`
	Examples         []any                `json:"examples,omitempty" yaml:"examples,omitempty"`
	Format           string               `json:"format,omitempty" yaml:"format,omitempty"`
	Pattern          string               `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Default          any                  `json:"default,omitempty" yaml:"default,omitempty"`
	Const            any                  `json:"const,omitempty" yaml:"const,omitempty"`
	Minimum          *float64             `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum          *float64             `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	MinLength        *int                 `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength        *int                 `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	MinItems         *int                 `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	MaxItems         *int                 `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`
	Enum             []any                `json:"enum,omitempty" yaml:"enum,omitempty"`
	Nullable         bool                 `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	ReadOnly         bool                 `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
	WriteOnly        bool                 `json:"writeOnly,omitempty" yaml:"writeOnly,omitempty"`
	Deprecated       bool                 `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	ContentMediaType string               `json:"contentMediaType,omitempty" yaml:"contentMediaType,omitempty"`
	ContentEncoding  string               `json:"contentEncoding,omitempty" yaml:"contentEncoding,omitempty"`
	Properties       *OrderedMap[*Schema] `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required         []string             `json:"required,omitempty" yaml:"required,omitempty"`
	Items            *Schema              `json:"items,omitempty" yaml:"items,omitempty"`
	AllOf            []*Schema            `json:"allOf,omitempty" yaml:"allOf,omitempty"`
	OneOf            []*Schema            `json:"oneOf,omitempty" yaml:"oneOf,omitempty"`
}

// NewType returns a schema with only the type keyword set.
func NewType(typ string) *Schema {
	return &Schema{Type: Types{typ}}
}

// NewObject returns an empty object schema with an initialized property map.
func NewObject() *Schema {
	return &Schema{Type: Types{TypeObject}, Properties: NewOrderedMap[*Schema]()}
}

// NewArray returns an array schema over items.
func NewArray(items *Schema) *Schema {
	return &Schema{Type: Types{TypeArray}, Items: items}
}

// RefTo returns a $ref schema pointing at a component schema.
func RefTo(name string) *Schema {
	return &Schema{Ref: ComponentRef(name)}
}

// ComponentRef is the JSON pointer of a component schema.
func ComponentRef(name string) string {
	return "#/components/schemas/" + name
}

// SetProperty adds a property, creating the property map on first use.
func (s *Schema) SetProperty(name string, prop *Schema) {
	if s.Properties == nil {
		s.Properties = NewOrderedMap[*Schema]()
	}
	s.Properties.Set(name, prop)
}

// Property returns the named property schema, or nil.
func (s *Schema) Property(name string) *Schema {
	if s == nil {
		return nil
	}
	p, _ := s.Properties.Get(name)
	return p
}

// IsRequired reports whether name is listed in Required.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Fragment returns the schema as a loosely typed map, the shape legacy callers
// hand to the property mapper.
func (s *Schema) Fragment() map[string]any {
	if s == nil {
		return nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// Clone returns a deep copy of s.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	c := *s
	c.Type = append(Types(nil), s.Type...)
	c.Examples = append([]any(nil), s.Examples...)
	c.Enum = append([]any(nil), s.Enum...)
	c.Required = append([]string(nil), s.Required...)
	c.Minimum = cloneFloat(s.Minimum)
	c.Maximum = cloneFloat(s.Maximum)
	c.MinLength = cloneInt(s.MinLength)
	c.MaxLength = cloneInt(s.MaxLength)
	c.MinItems = cloneInt(s.MinItems)
	c.MaxItems = cloneInt(s.MaxItems)
	if s.Properties != nil {
		c.Properties = NewOrderedMap[*Schema]()
		s.Properties.Each(func(k string, v *Schema) { c.Properties.Set(k, v.Clone()) })
	}
	c.Items = s.Items.Clone()
	c.AllOf = cloneAll(s.AllOf)
	c.OneOf = cloneAll(s.OneOf)
	if len(c.Type) == 0 {
		c.Type = nil
	}
	if len(c.Examples) == 0 {
		c.Examples = nil
	}
	if len(c.Enum) == 0 {
		c.Enum = nil
	}
	if len(c.Required) == 0 {
		c.Required = nil
	}
	return &c
}

func cloneAll(in []*Schema) []*Schema {
	if in == nil {
		return nil
	}
	out := make([]*Schema, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
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

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
