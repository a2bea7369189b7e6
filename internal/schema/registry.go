package schema

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mark3labs/rulespec/internal/spec"
)

// Registry holds the named component schemas of one generation pass and the
// names referenced through it.
//
// Names are class basenames, so two classes sharing a short name in
// different namespaces map to the same component and the later registration
// wins. Callers relying on distinct components must use distinct basenames.
type Registry struct {
	schemas map[string]*spec.Schema
	order   []string
	pending map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[string]*spec.Schema),
		pending: make(map[string]struct{}),
	}
}

// Register stores schema under name, replacing any earlier entry.
func (r *Registry) Register(name string, schema *spec.Schema) {
	if _, ok := r.schemas[name]; !ok {
		r.order = append(r.order, name)
	}
	r.schemas[name] = schema
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.schemas[name]
	return ok
}

// Get returns the schema registered under name.
func (r *Registry) Get(name string) (*spec.Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// Ref returns a $ref to name and records the reference, registered or not.
func (r *Registry) Ref(name string) *spec.Schema {
	r.pending[name] = struct{}{}
	return spec.RefTo(name)
}

// ValidateReferences returns the referenced names that were never
// registered, sorted.
func (r *Registry) ValidateReferences() []string {
	var missing []string
	for name := range r.pending {
		if _, ok := r.schemas[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Clear forgets every schema and reference.
func (r *Registry) Clear() {
	r.schemas = make(map[string]*spec.Schema)
	r.order = nil
	r.pending = make(map[string]struct{})
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int { return len(r.schemas) }

// Schemas returns the registered schemas sorted by name.
func (r *Registry) Schemas() *spec.OrderedMap[*spec.Schema] {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	out := spec.NewOrderedMap[*spec.Schema]()
	for _, n := range names {
		out.Set(n, r.schemas[n])
	}
	return out
}

var componentNameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ExtractSchemaName returns the short name of a fully qualified class:
// the segment after the last backslash, slash or dot. Characters that are not
// valid in a component name are replaced by underscores.
func ExtractSchemaName(class string) string {
	class = strings.TrimSpace(class)
	class = strings.TrimRight(class, `\/.`)
	if i := strings.LastIndexAny(class, `\/.`); i >= 0 {
		class = class[i+1:]
	}
	class = componentNameRe.ReplaceAllString(class, "_")
	if class == "" {
		return "Schema"
	}
	return class
}
