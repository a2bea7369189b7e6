package spec

import "strings"

// ConvertTo31 returns a copy of doc expressed in OpenAPI 3.1 form. The input
// document is not modified.
//
// The pass performs the following transformations:
//   - openapi: 3.0.x -> 3.1.0
//   - nullable: true -> "null" added to the type list (or to oneOf)
//   - schema example -> examples list
//   - format: binary -> contentMediaType: application/octet-stream
//   - format: byte -> contentEncoding: base64
func ConvertTo31(doc *Document) *Document {
	if doc == nil {
		return nil
	}
	out := *doc
	out.OpenAPI = Version31
	out.Servers = append([]Server(nil), doc.Servers...)
	out.Tags = append([]Tag(nil), doc.Tags...)
	out.TagGroups = append([]TagGroup(nil), doc.TagGroups...)
	out.Security = append(SecurityRequirements(nil), doc.Security...)

	out.Paths = convertPaths(doc.Paths)

	if doc.Components != nil {
		comps := &Components{SecuritySchemes: doc.Components.SecuritySchemes}
		if doc.Components.Schemas != nil {
			comps.Schemas = NewOrderedMap[*Schema]()
			doc.Components.Schemas.Each(func(name string, s *Schema) {
				comps.Schemas.Set(name, convertSchema(s))
			})
		}
		out.Components = comps
	}
	return &out
}

// IsVersion31 reports whether v names a 3.1.x document.
func IsVersion31(v string) bool {
	return strings.HasPrefix(strings.TrimSpace(v), "3.1")
}

func convertPaths(paths *OrderedMap[*PathItem]) *OrderedMap[*PathItem] {
	out := NewOrderedMap[*PathItem]()
	paths.Each(func(path string, item *PathItem) {
		out.Set(path, convertPathItem(item))
	})
	return out
}

func convertPathItem(item *PathItem) *PathItem {
	if item == nil {
		return nil
	}
	next := &PathItem{}
	for _, mo := range item.Operations() {
		next.SetOperation(mo.Method, convertOperation(mo.Operation))
	}
	return next
}

func convertOperation(op *Operation) *Operation {
	next := *op
	next.Tags = append([]string(nil), op.Tags...)
	if op.Parameters != nil {
		next.Parameters = make([]*Parameter, len(op.Parameters))
		for i, p := range op.Parameters {
			cp := *p
			cp.Schema = convertSchema(p.Schema)
			next.Parameters[i] = &cp
		}
	}
	if op.RequestBody != nil {
		rb := *op.RequestBody
		rb.Content = convertContent(op.RequestBody.Content)
		next.RequestBody = &rb
	}
	if op.Responses != nil {
		next.Responses = NewOrderedMap[*Response]()
		op.Responses.Each(func(code string, r *Response) {
			cr := *r
			cr.Content = convertContent(r.Content)
			next.Responses.Set(code, &cr)
		})
	}
	if op.Callbacks != nil {
		next.Callbacks = NewOrderedMap[*Callback]()
		op.Callbacks.Each(func(name string, cb *Callback) {
			next.Callbacks.Set(name, convertPaths(cb))
		})
	}
	return &next
}

func convertContent(content *OrderedMap[*MediaType]) *OrderedMap[*MediaType] {
	if content == nil {
		return nil
	}
	out := NewOrderedMap[*MediaType]()
	content.Each(func(mime string, mt *MediaType) {
		out.Set(mime, &MediaType{Schema: convertSchema(mt.Schema), Example: mt.Example})
	})
	return out
}

func convertSchema(s *Schema) *Schema {
	if s == nil {
		return nil
	}
	c := s.Clone()
	rewriteSchema31(c)
	return c
}

func rewriteSchema31(s *Schema) {
	if s == nil {
		return
	}
	if s.Nullable {
		s.Nullable = false
		switch {
		case len(s.Type) > 0:
			if !s.Type.Is(TypeNull) {
				s.Type = append(s.Type, TypeNull)
			}
		case len(s.OneOf) > 0:
			s.OneOf = append(s.OneOf, NewType(TypeNull))
		case len(s.AllOf) == 1:
			s.OneOf = []*Schema{s.AllOf[0], NewType(TypeNull)}
			s.AllOf = nil
		case len(s.AllOf) > 1:
			s.OneOf = []*Schema{{AllOf: s.AllOf}, NewType(TypeNull)}
			s.AllOf = nil
		case s.Ref != "":
			s.OneOf = []*Schema{{Ref: s.Ref}, NewType(TypeNull)}
			s.Ref = ""
		}
	}
	if s.Example != nil {
		s.Examples = append([]any{s.Example}, s.Examples...)
		s.Example = nil
	}
	if s.Type.Primary() == TypeString {
		switch s.Format {
		case "binary":
			s.Format = ""
			s.ContentMediaType = "application/octet-stream"
		case "byte":
			s.Format = ""
			s.ContentEncoding = "base64"
		}
	}
	s.Properties.Each(func(_ string, p *Schema) { rewriteSchema31(p) })
	rewriteSchema31(s.Items)
	for _, o := range s.AllOf {
		rewriteSchema31(o)
	}
	for _, o := range s.OneOf {
		rewriteSchema31(o)
	}
}
