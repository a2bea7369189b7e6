package generator

import (
	"fmt"
	"strings"

	"github.com/mark3labs/rulespec/internal/analysis"
	"github.com/mark3labs/rulespec/internal/rules"
	"github.com/mark3labs/rulespec/internal/schema"
	"github.com/mark3labs/rulespec/internal/spec"
)

var statusDescriptions = map[int]string{
	200: "Successful response",
	201: "Created",
	202: "Accepted",
	204: "No content",
}

func describeStatus(code int) string {
	if d, ok := statusDescriptions[code]; ok {
		return d
	}
	return "Response"
}

// SuccessStatus picks the success status of an operation: an explicit status
// wins, POST creates (201), DELETE without a body is 204, anything else 200.
func SuccessStatus(method spec.HttpMethod, explicit int, hasBody bool) int {
	switch {
	case explicit > 0:
		return explicit
	case method == spec.POST:
		return 201
	case method == spec.DELETE && !hasBody:
		return 204
	}
	return 200
}

// successResponse builds the single 2xx response of an operation.
func (p *pass) successResponse(method spec.HttpMethod, ca *analysis.ControllerAnalysis) (string, *spec.Response, error) {
	rt := ca.Response
	if rt != nil {
		switch strings.ToLower(rt.Type) {
		case "binary", "file", "download", "stream":
			code := rt.Status
			if code == 0 {
				code = 200
			}
			mime := rt.ContentType
			if mime == "" {
				mime = MediaBinary
			}
			body := spec.NewType(spec.TypeString)
			body.Format = "binary"
			return statusCode(code), &spec.Response{
				Description: nonEmpty(rt.Description, "File download"),
				Content:     spec.SingleContent(mime, body, nil),
			}, nil
		case "void", "none", "empty":
			code := rt.Status
			if code == 0 {
				code = 204
			}
			return statusCode(code), &spec.Response{Description: nonEmpty(rt.Description, describeStatus(code))}, nil
		}
	}

	body, custom, err := p.responseBody(ca)
	if err != nil {
		return "", nil, err
	}
	explicit := 0
	description := ""
	if rt != nil {
		explicit = rt.Status
		description = rt.Description
	}
	code := SuccessStatus(method, explicit, body != nil)
	if body == nil {
		if code == 204 {
			return statusCode(code), &spec.Response{Description: nonEmpty(description, describeStatus(code))}, nil
		}
		body = schema.UnknownObject()
	}
	ex := p.factory.Value("", body)
	if custom != nil {
		ex = custom(ex)
	}
	return statusCode(code), &spec.Response{
		Description: nonEmpty(description, describeStatus(code)),
		Content:     spec.JSONContent(body, ex),
	}, nil
}

// responseBody returns the response schema, or nil when nothing is known
// about it, plus a hook placing a resource's custom example into the
// generated one.
func (p *pass) responseBody(ca *analysis.ControllerAnalysis) (*spec.Schema, func(any) any, error) {
	pagination := PaginationNone
	classes := ca.ResourceClasses()
	if ca.Pagination != nil {
		pagination = NormalizePaginationType(ca.Pagination.Type)
		if len(classes) == 0 && ca.Pagination.Resource != "" {
			classes = []string{ca.Pagination.Resource}
		}
	}

	if len(classes) > 0 {
		var items []*spec.Schema
		var first *analysis.ResourceInfo
		for _, class := range classes {
			ref, info, err := p.resource(class)
			if err != nil {
				return nil, nil, fmt.Errorf("resource %s: %w", class, err)
			}
			if first == nil {
				first = info
			}
			items = append(items, ref)
		}
		item := items[0]
		if len(items) > 1 {
			item = &spec.Schema{OneOf: items}
		}
		key := p.g.cfg.Responses.Wrap
		if key == "" && first != nil && first.Fractal {
			key = "data"
		}
		collection := ca.ReturnsCollection
		body := WrapResource(item, pagination, collection, key)
		var custom func(any) any
		if first != nil && len(first.Example) > 0 && len(items) == 1 {
			custom = func(ex any) any { return placeExample(ex, first.Example, pagination, collection, key) }
		}
		return body, custom, nil
	}

	if rt := ca.Response; rt != nil {
		switch strings.ToLower(rt.Type) {
		case "array", "collection":
			item := schema.UnknownObject()
			if len(rt.Fields) > 0 {
				item = p.schemas.ResponseSchema(rules.NormalizeResource(rt.Fields))
			}
			return PaginationSchemaOrArray(pagination, item), nil, nil
		case "object", "json", "":
			if len(rt.Fields) > 0 {
				return p.schemas.ResponseSchema(rules.NormalizeResource(rt.Fields)), nil, nil
			}
			return schema.UnknownObject(), nil, nil
		}
	}
	return nil, nil, nil
}

// PaginationSchemaOrArray wraps item in a pagination envelope, or in a plain
// array when the strategy is "none".
func PaginationSchemaOrArray(pagination string, item *spec.Schema) *spec.Schema {
	if pagination == PaginationNone {
		return spec.NewArray(item)
	}
	return PaginationSchema(pagination, item)
}

// WrapResource shapes a resource response. Paginated collections use the
// pagination envelope; otherwise the item (or an array of items) is placed
// under key, or returned bare when key is empty.
func WrapResource(item *spec.Schema, pagination string, collection bool, key string) *spec.Schema {
	if pagination != PaginationNone {
		return PaginationSchema(pagination, item)
	}
	payload := item
	if collection {
		payload = spec.NewArray(item)
	}
	if key == "" {
		return payload
	}
	s := spec.NewObject()
	s.SetProperty(key, payload)
	s.Required = []string{key}
	return s
}

func placeExample(ex any, custom map[string]any, pagination string, collection bool, key string) any {
	var payload any = custom
	if collection || pagination != PaginationNone {
		payload = []any{custom}
	}
	if pagination != PaginationNone {
		key = "data"
	}
	if key == "" {
		return payload
	}
	m, ok := ex.(map[string]any)
	if !ok {
		return ex
	}
	m[key] = payload
	return m
}

// placeholderResponse stands in for a success response that could not be built.
func placeholderResponse() *spec.Response {
	return &spec.Response{
		Description: describeStatus(200),
		Content:     spec.JSONContent(schema.UnknownObject(), nil),
	}
}

func nonEmpty(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
