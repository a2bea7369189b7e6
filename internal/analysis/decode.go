package analysis

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes a mapping of field -> rules keeping declaration order.
// A rule value is either a pipe-delimited string or a list whose items are
// strings or object rules.
func (m *RuleMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: rules must be a mapping", node.Line)
	}
	out := make(RuleMap, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		fr := FieldRules{Field: key.Value}
		switch val.Kind {
		case yaml.ScalarNode:
			if val.Value != "" {
				fr.Rules = []any{val.Value}
			}
		case yaml.SequenceNode:
			for _, item := range val.Content {
				var raw any
				if err := item.Decode(&raw); err != nil {
					return fmt.Errorf("line %d: rule for %q: %w", item.Line, key.Value, err)
				}
				if raw != nil {
					fr.Rules = append(fr.Rules, raw)
				}
			}
		case yaml.MappingNode:
			var raw map[string]any
			if err := val.Decode(&raw); err != nil {
				return fmt.Errorf("line %d: rule for %q: %w", val.Line, key.Value, err)
			}
			fr.Rules = []any{raw}
		default:
			return fmt.Errorf("line %d: unsupported rule value for %q", val.Line, key.Value)
		}
		out = append(out, fr)
	}
	*m = out
	return nil
}

// UnmarshalYAML decodes a mapping of field name -> type string or field
// object keeping declaration order.
func (f *ResourceFields) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: fields must be a mapping", node.Line)
	}
	out := make(ResourceFields, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		field, err := decodeResourceField(key.Value, val)
		if err != nil {
			return err
		}
		out = append(out, field)
	}
	*f = out
	return nil
}

// UnmarshalYAML accepts the short "type" scalar form for array items.
func (f *ResourceField) UnmarshalYAML(node *yaml.Node) error {
	field, err := decodeResourceField("", node)
	if err != nil {
		return err
	}
	*f = field
	return nil
}

// resourceFieldBody mirrors ResourceField without its custom decoder.
type resourceFieldBody ResourceField

func decodeResourceField(name string, node *yaml.Node) (ResourceField, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return ResourceField{Name: name, Type: node.Value}, nil
	case yaml.MappingNode:
		var body resourceFieldBody
		if err := node.Decode(&body); err != nil {
			return ResourceField{}, fmt.Errorf("line %d: field %q: %w", node.Line, name, err)
		}
		body.Name = name
		return ResourceField(body), nil
	default:
		return ResourceField{}, fmt.Errorf("line %d: unsupported definition for field %q", node.Line, name)
	}
}
