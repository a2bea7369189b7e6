package generator

import (
	"fmt"
	"strings"

	"github.com/mark3labs/rulespec/internal/analysis"
	"github.com/mark3labs/rulespec/internal/rules"
	"github.com/mark3labs/rulespec/internal/spec"
)

// callbacks builds operation callbacks. Entries without an expression are
// skipped; callbacks sharing a name are merged under it.
func (p *pass) callbacks(infos []analysis.CallbackInfo) (*spec.OrderedMap[*spec.Callback], error) {
	if len(infos) == 0 {
		return nil, nil
	}
	out := spec.NewOrderedMap[*spec.Callback]()
	for i, cb := range infos {
		expr := strings.TrimSpace(cb.Expression)
		if expr == "" {
			continue
		}
		method := spec.POST
		if cb.Method != "" {
			m, ok := spec.ParseMethod(cb.Method)
			if !ok {
				return nil, fmt.Errorf("callback %q: unsupported method %q", cb.Name, cb.Method)
			}
			method = m
		}

		op := &spec.Operation{
			Summary:   cb.Description,
			Responses: spec.NewOrderedMap[*spec.Response](),
		}
		op.Responses.Set("200", &spec.Response{Description: "Callback received"})

		var body *spec.Schema
		switch {
		case cb.Resource != "":
			ref, _, err := p.resource(cb.Resource)
			if err != nil {
				return nil, fmt.Errorf("callback %q: resource %s: %w", cb.Name, cb.Resource, err)
			}
			body = ref
		case len(cb.Fields) > 0:
			body = p.schemas.ResponseSchema(rules.NormalizeResource(cb.Fields))
		}
		if body != nil {
			op.RequestBody = &spec.RequestBody{
				Required: true,
				Content:  spec.JSONContent(body, p.factory.Value("", body)),
			}
		}

		name := strings.TrimSpace(cb.Name)
		if name == "" {
			name = fmt.Sprintf("callback%d", i+1)
		}
		callback, ok := out.Get(name)
		if !ok {
			callback = spec.NewOrderedMap[*spec.PathItem]()
			out.Set(name, callback)
		}
		item, ok := callback.Get(expr)
		if !ok {
			item = &spec.PathItem{}
			callback.Set(expr, item)
		}
		item.SetOperation(method, op)
	}
	if out.Len() == 0 {
		return nil, nil
	}
	return out, nil
}
