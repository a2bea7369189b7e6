// Package rules normalizes raw validation rules and resource field lists into
// field descriptors.
package rules

import (
	"strings"
)

// Type is the inferred type of a field.
type Type string

const (
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
	TypeFile    Type = "file"
)

// Constraints are the bounds that apply to the resolved type.
type Constraints struct {
	Minimum   *float64
	Maximum   *float64
	MinLength *int
	MaxLength *int
	Pattern   string
	MinItems  *int
	MaxItems  *int
}

// FileConstraints describe an upload. Sizes are in bytes.
type FileConstraints struct {
	Mimes      []string
	MaxSize    int64
	MinSize    int64
	Dimensions []string
}

// FieldDescriptor is one validated or serialized field.
//
// Name is the full dotted path ("profile.bio", "items.*.name"). Objects carry
// their properties in Children in declaration order; arrays describe their
// single item shape in Items.
type FieldDescriptor struct {
	Name        string
	Type        Type
	Format      string
	Required    bool
	Nullable    bool
	ReadOnly    bool
	WriteOnly   bool
	Deprecated  bool
	Description string
	Example     any
	Default     any
	Enum        []any
	EnumType    string
	Constraints Constraints
	File        *FileConstraints
	Children    []*FieldDescriptor
	Items       *FieldDescriptor
	// Ref names a component schema the field points at instead of an inline shape.
	Ref string
	// Tokens are the rules the descriptor was built from.
	Tokens []Token
}

// Key is the last segment of the dotted name.
func (f *FieldDescriptor) Key() string {
	if i := strings.LastIndex(f.Name, "."); i >= 0 {
		return f.Name[i+1:]
	}
	return f.Name
}

// Child returns the direct child named key.
func (f *FieldDescriptor) Child(key string) *FieldDescriptor {
	for _, c := range f.Children {
		if c.Key() == key {
			return c
		}
	}
	return nil
}

// Has reports whether a rule named name was declared on the field.
func (f *FieldDescriptor) Has(name string) bool {
	for _, t := range f.Tokens {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Walk visits f and all nested descriptors depth-first.
func (f *FieldDescriptor) Walk(fn func(*FieldDescriptor)) {
	if f == nil {
		return
	}
	fn(f)
	for _, c := range f.Children {
		c.Walk(fn)
	}
	f.Items.Walk(fn)
}

// Branch is one alternative field set of a conditional rule set.
type Branch struct {
	Label  string
	Fields []*FieldDescriptor
}

// ConditionalRuleSet holds alternative field sets in declaration order.
type ConditionalRuleSet struct {
	Branches []Branch
}
