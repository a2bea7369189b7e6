package generator

import (
	"github.com/mark3labs/rulespec/internal/analysis"
	"github.com/mark3labs/rulespec/internal/rules"
	"github.com/mark3labs/rulespec/internal/schema"
	"github.com/mark3labs/rulespec/internal/spec"
)

// Request media types.
const (
	MediaJSON      = "application/json"
	MediaMultipart = "multipart/form-data"
	MediaBinary    = "application/octet-stream"
)

// requestBody builds the body of a mutating operation from a rule set. It
// returns nil when the rule set declares no fields, together with the fields
// validated by any branch for the 422 response.
func (p *pass) requestBody(rs *analysis.RuleSet) (*spec.RequestBody, []*rules.FieldDescriptor) {
	if rs.Empty() {
		return nil, nil
	}
	var (
		s         *spec.Schema
		fields    []*rules.FieldDescriptor
		multipart bool
	)
	if cond := rules.NormalizeConditional(rs); cond != nil {
		s = p.schemas.ConditionalSchema(cond)
		multipart = schema.ConditionalIsMultipart(cond)
		fields = unionFields(cond)
	} else {
		fields = rules.Normalize(rs.Rules)
		s = p.schemas.RequestSchema(fields)
		multipart = schema.IsMultipart(fields)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	mime := MediaJSON
	if multipart {
		mime = MediaMultipart
	}
	var ex any
	if len(s.OneOf) > 0 {
		// oneOf branches each carry their own example.
		for _, b := range s.OneOf {
			b.Example = p.factory.Object(b)
		}
	} else {
		ex = p.factory.Object(s)
	}
	return &spec.RequestBody{
		Required: true,
		Content:  spec.SingleContent(mime, s, ex),
	}, fields
}

// unionFields lists the fields of every branch once, first declaration wins.
func unionFields(cond *rules.ConditionalRuleSet) []*rules.FieldDescriptor {
	var out []*rules.FieldDescriptor
	seen := map[string]struct{}{}
	for _, b := range cond.Branches {
		for _, f := range b.Fields {
			if _, ok := seen[f.Name]; ok {
				continue
			}
			seen[f.Name] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}

// placeholderBody stands in for a request body that could not be analyzed.
func placeholderBody() *spec.RequestBody {
	return &spec.RequestBody{Content: spec.JSONContent(schema.UnknownObject(), nil)}
}

// hasBody reports whether validation rules of method describe a request body
// rather than query parameters.
func hasBody(method spec.HttpMethod) bool {
	switch method {
	case spec.POST, spec.PUT, spec.PATCH, spec.DELETE:
		return true
	}
	return false
}
