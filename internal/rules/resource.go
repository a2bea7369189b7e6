package rules

import (
	"strings"

	"github.com/mark3labs/rulespec/internal/analysis"
)

// NormalizeResource converts serialized resource fields into descriptors.
// Required is left unset; response schemas derive it from Nullable and ReadOnly.
func NormalizeResource(fields analysis.ResourceFields) []*FieldDescriptor {
	out := make([]*FieldDescriptor, 0, len(fields))
	for _, f := range fields {
		out = append(out, resourceField(f.Name, f))
	}
	return out
}

func resourceField(path string, f analysis.ResourceField) *FieldDescriptor {
	d := &FieldDescriptor{
		Name:        path,
		Nullable:    f.Nullable,
		ReadOnly:    f.ReadOnly,
		WriteOnly:   f.WriteOnly,
		Deprecated:  f.Deprecated,
		Description: f.Description,
		Example:     f.Example,
		Enum:        f.Enum,
	}
	d.Type, d.Format = resourceType(f.Type)
	if f.Format != "" {
		d.Format = f.Format
	}
	switch {
	case f.Resource != "" && f.Collection:
		d.Type = TypeArray
		d.Format = ""
		d.Items = &FieldDescriptor{Name: path + ".*", Type: TypeObject, Ref: f.Resource}
	case f.Resource != "":
		d.Type = TypeObject
		d.Format = ""
		d.Ref = f.Resource
	case len(f.Properties) > 0:
		d.Type = TypeObject
		for _, p := range f.Properties {
			d.Children = append(d.Children, resourceField(path+"."+p.Name, p))
		}
	}
	if d.Type == TypeArray && d.Items == nil {
		if f.Items != nil {
			d.Items = resourceField(path+".*", *f.Items)
		} else {
			d.Items = &FieldDescriptor{Name: path + ".*", Type: TypeString}
		}
	}
	if d.Type == TypeFile {
		d.Format = "binary"
	}
	return d
}

// resourceType maps loose type names found in resources and casts.
func resourceType(t string) (Type, string) {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "int", "integer", "bigint", "smallint":
		return TypeInteger, ""
	case "float", "double", "decimal", "number", "numeric", "real":
		return TypeNumber, ""
	case "bool", "boolean":
		return TypeBoolean, ""
	case "array", "collection", "list":
		return TypeArray, ""
	case "object", "json", "map":
		return TypeObject, ""
	case "datetime", "date-time", "timestamp", "immutable_datetime", "carbon":
		return TypeString, "date-time"
	case "date", "immutable_date":
		return TypeString, "date"
	case "email":
		return TypeString, "email"
	case "uuid":
		return TypeString, "uuid"
	case "url", "uri":
		return TypeString, "uri"
	case "file", "binary":
		return TypeFile, "binary"
	default:
		return TypeString, ""
	}
}
