package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mark3labs/rulespec/internal/rules"
	"github.com/mark3labs/rulespec/internal/spec"
)

// RefResolver returns the schema standing for a referenced class, usually a
// $ref issued by a Registry.
type RefResolver func(class string) *spec.Schema

// Generator composes object schemas from descriptors.
type Generator struct {
	resolve RefResolver
}

// NewGenerator returns a Generator resolving nested class references with
// resolve. A nil resolver renders references as plain objects.
func NewGenerator(resolve RefResolver) *Generator {
	return &Generator{resolve: resolve}
}

// RequestSchema builds the object schema of a request body. A field is
// required when it carries a required-family rule.
func (g *Generator) RequestSchema(fields []*rules.FieldDescriptor) *spec.Schema {
	return g.object(fields, requestRequired)
}

// ResponseSchema builds the object schema of a serialized resource. A field is
// required unless it is nullable or read-only.
func (g *Generator) ResponseSchema(fields []*rules.FieldDescriptor) *spec.Schema {
	return g.object(fields, responseRequired)
}

// ConditionalSchema builds a oneOf of the branch request schemas, each
// titled "<label> Request". Zero or one branch collapses to a plain object.
func (g *Generator) ConditionalSchema(cond *rules.ConditionalRuleSet) *spec.Schema {
	if cond == nil || len(cond.Branches) == 0 {
		return spec.NewObject()
	}
	if len(cond.Branches) == 1 {
		return g.RequestSchema(cond.Branches[0].Fields)
	}
	out := &spec.Schema{}
	for _, b := range cond.Branches {
		branch := g.RequestSchema(b.Fields)
		branch.Title = b.Label + " Request"
		out.OneOf = append(out.OneOf, branch)
	}
	return out
}

// IsMultipart reports whether any top-level field is a file upload.
func IsMultipart(fields []*rules.FieldDescriptor) bool {
	for _, f := range fields {
		if f.Type == rules.TypeFile {
			return true
		}
	}
	return false
}

// ConditionalIsMultipart reports whether any branch uploads a file.
func ConditionalIsMultipart(cond *rules.ConditionalRuleSet) bool {
	if cond == nil {
		return false
	}
	for _, b := range cond.Branches {
		if IsMultipart(b.Fields) {
			return true
		}
	}
	return false
}

// Field builds the schema of a single descriptor using request semantics.
func (g *Generator) Field(d *rules.FieldDescriptor) *spec.Schema {
	return g.property(d, requestRequired)
}

type requiredFunc func(*rules.FieldDescriptor) bool

func requestRequired(d *rules.FieldDescriptor) bool { return d.Required }

func responseRequired(d *rules.FieldDescriptor) bool { return !d.Nullable && !d.ReadOnly }

func (g *Generator) object(fields []*rules.FieldDescriptor, required requiredFunc) *spec.Schema {
	s := spec.NewObject()
	for _, f := range fields {
		key := f.Key()
		if s.Properties.Has(key) {
			continue
		}
		s.SetProperty(key, g.property(f, required))
		if required(f) {
			s.Required = append(s.Required, key)
		}
	}
	return s
}

func (g *Generator) property(d *rules.FieldDescriptor, required requiredFunc) *spec.Schema {
	if d.Ref != "" {
		if g.resolve != nil {
			if ref := g.resolve(d.Ref); ref != nil {
				return refProperty(ref, d)
			}
		}
		s := unknownObject(d.Description)
		s.Nullable, s.ReadOnly = d.Nullable, d.ReadOnly
		return s
	}

	s := MapField(d)
	switch d.Type {
	case rules.TypeObject:
		obj := g.object(d.Children, required)
		s.Properties = obj.Properties
		s.Required = obj.Required
	case rules.TypeArray:
		if d.Items != nil {
			s.Items = g.property(d.Items, required)
		} else {
			s.Items = spec.NewType(spec.TypeString)
		}
	case rules.TypeFile:
		s.Description = joinSentences(s.Description, FileDescription(d.File))
	}
	return s
}

// refProperty keeps a bare $ref unless the field carries its own keywords,
// which cannot sit next to $ref in 3.0 and go on an allOf wrapper instead.
func refProperty(ref *spec.Schema, d *rules.FieldDescriptor) *spec.Schema {
	if !d.Nullable && !d.ReadOnly && !d.WriteOnly && !d.Deprecated && d.Description == "" {
		return ref
	}
	return &spec.Schema{
		AllOf:       []*spec.Schema{ref},
		Description: d.Description,
		Nullable:    d.Nullable,
		ReadOnly:    d.ReadOnly,
		WriteOnly:   d.WriteOnly,
		Deprecated:  d.Deprecated,
	}
}

func unknownObject(description string) *spec.Schema {
	s := spec.NewType(spec.TypeObject)
	s.Description = description
	return s
}

// UnknownObject is the placeholder for shapes that could not be determined.
func UnknownObject() *spec.Schema {
	return unknownObject("")
}

// FileDescription renders upload constraints, e.g.
// "Allowed types: jpeg, png. Max size: 2MB".
func FileDescription(fc *rules.FileConstraints) string {
	if fc == nil {
		return ""
	}
	var parts []string
	if len(fc.Mimes) > 0 {
		parts = append(parts, "Allowed types: "+strings.Join(fc.Mimes, ", "))
	}
	if fc.MinSize > 0 {
		parts = append(parts, "Min size: "+HumanSize(fc.MinSize))
	}
	if fc.MaxSize > 0 {
		parts = append(parts, "Max size: "+HumanSize(fc.MaxSize))
	}
	if len(fc.Dimensions) > 0 {
		parts = append(parts, "Dimensions: "+strings.Join(fc.Dimensions, ", "))
	}
	return strings.Join(parts, ". ")
}

// HumanSize formats a byte count with a KB/MB/GB unit.
func HumanSize(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case bytes >= gb:
		return trimFloat(float64(bytes)/gb) + "GB"
	case bytes >= mb:
		return trimFloat(float64(bytes)/mb) + "MB"
	case bytes >= kb:
		return trimFloat(float64(bytes)/kb) + "KB"
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}

func joinSentences(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	if !strings.HasSuffix(a, ".") {
		a += "."
	}
	return a + " " + b
}
