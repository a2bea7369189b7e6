// Package example synthesizes realistic example values for schemas.
package example

import (
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/mark3labs/rulespec/internal/spec"
)

// ReferenceTime anchors generated dates when a seed is set and no explicit
// time was configured, so seeded output does not drift with the clock.
var ReferenceTime = time.Date(2025, time.January, 15, 10, 30, 0, 0, time.UTC)

const maxDepth = 6

// Resolver looks up the component schema a $ref points at.
type Resolver func(name string) (*spec.Schema, bool)

// Factory produces example values. A Factory is not safe for concurrent use;
// give each generation pass its own.
type Factory struct {
	faker     *gofakeit.Faker
	seeded    bool
	locale    string
	inclusion InclusionStrategy
	now       time.Time
	resolve   Resolver
	patterns  []Pattern
}

// Option configures a Factory.
type Option func(*Factory)

// WithSeed makes output reproducible. Zero keeps the random seed.
func WithSeed(seed int64) Option {
	return func(f *Factory) {
		if seed != 0 {
			f.faker = gofakeit.New(seed)
			f.seeded = true
		}
	}
}

// WithLocale selects locale-aware formats, e.g. "ja" phone numbers.
func WithLocale(locale string) Option {
	return func(f *Factory) { f.locale = strings.ToLower(strings.TrimSpace(locale)) }
}

// WithInclusion sets how optional properties are chosen.
func WithInclusion(s InclusionStrategy) Option {
	return func(f *Factory) {
		if s != nil {
			f.inclusion = s
		}
	}
}

// WithNow fixes the reference time for relative dates.
func WithNow(t time.Time) Option {
	return func(f *Factory) { f.now = t.UTC() }
}

// WithResolver lets the factory follow $ref schemas.
func WithResolver(r Resolver) Option {
	return func(f *Factory) { f.resolve = r }
}

// WithPattern registers a name pattern ahead of the built-in ones.
func WithPattern(p Pattern) Option {
	return func(f *Factory) { f.patterns = append([]Pattern{p}, f.patterns...) }
}

// New returns a Factory with the built-in pattern registry.
func New(opts ...Option) *Factory {
	f := &Factory{
		faker:     gofakeit.New(0),
		inclusion: Randomized{},
		patterns:  DefaultPatterns(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.now.IsZero() {
		if f.seeded {
			f.now = ReferenceTime
		} else {
			f.now = time.Now().UTC().Truncate(time.Second)
		}
	}
	return f
}

// Rand exposes the factory's random source.
func (f *Factory) Rand() *rand.Rand { return f.faker.Rand }

// Faker exposes the underlying gofakeit instance.
func (f *Factory) Faker() *gofakeit.Faker { return f.faker }

// Now is the reference time for relative dates.
func (f *Factory) Now() time.Time { return f.now }

// Locale is the configured locale, lower-cased.
func (f *Factory) Locale() string { return f.locale }

// Value returns an example for a field called name with schema s.
func (f *Factory) Value(name string, s *spec.Schema) any {
	return f.value(name, s, 0)
}

// Object builds an example object for s, following $refs.
func (f *Factory) Object(s *spec.Schema) map[string]any {
	v, _ := f.value("", s, 0).(map[string]any)
	return v
}

// Context is what a resolver step sees.
type Context struct {
	Name       string
	Normalized string
	Schema     *spec.Schema
	Factory    *Factory
}

// Faker is shorthand for c.Factory.Faker().
func (c *Context) Faker() *gofakeit.Faker { return c.Factory.faker }

// step yields a value and true when it applies.
type step func(c *Context) (any, bool)

func (f *Factory) value(name string, s *spec.Schema, depth int) any {
	if s == nil || depth > maxDepth {
		return nil
	}
	if s.Ref != "" {
		target, ok := f.lookup(s.Ref)
		if !ok {
			return map[string]any{}
		}
		return f.value(name, target, depth+1)
	}
	if len(s.OneOf) > 0 {
		return f.value(name, s.OneOf[0], depth+1)
	}
	if len(s.AllOf) > 0 {
		return f.value(name, s.AllOf[0], depth+1)
	}

	switch s.Type.Primary() {
	case spec.TypeObject:
		if s.Example != nil {
			return s.Example
		}
		return f.object(s, depth)
	case spec.TypeArray:
		if s.Example != nil {
			return s.Example
		}
		return f.array(name, s, depth)
	}

	c := &Context{Name: name, Normalized: Normalize(name), Schema: s, Factory: f}
	for _, st := range []step{f.fromConst, f.fromExamples, f.fromEnum, f.fromDefault, f.fromPattern, f.fromFormat, f.fromType} {
		if v, ok := st(c); ok {
			return v
		}
	}
	return nil
}

func (f *Factory) lookup(ref string) (*spec.Schema, bool) {
	if f.resolve == nil {
		return nil, false
	}
	return f.resolve(strings.TrimPrefix(ref, "#/components/schemas/"))
}

func (f *Factory) object(s *spec.Schema, depth int) map[string]any {
	out := map[string]any{}
	s.Properties.Each(func(key string, prop *spec.Schema) {
		if !s.IsRequired(key) && !f.inclusion.IncludeOptional(f.faker.Rand) {
			return
		}
		v := f.value(key, prop, depth+1)
		if v == nil && !nullable(prop) {
			return
		}
		out[key] = v
	})
	return out
}

func (f *Factory) array(name string, s *spec.Schema, depth int) []any {
	n := 1
	if s.MinItems != nil && *s.MinItems > n {
		n = *s.MinItems
	}
	if s.MaxItems != nil && *s.MaxItems < n {
		n = *s.MaxItems
	}
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v := f.value(singular(name), s.Items, depth+1)
		if v == nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (f *Factory) fromConst(c *Context) (any, bool) {
	return c.Schema.Const, c.Schema.Const != nil
}

func (f *Factory) fromExamples(c *Context) (any, bool) {
	if c.Schema.Example != nil {
		return c.Schema.Example, true
	}
	if len(c.Schema.Examples) > 0 {
		return c.Schema.Examples[0], true
	}
	return nil, false
}

func (f *Factory) fromEnum(c *Context) (any, bool) {
	if len(c.Schema.Enum) == 0 {
		return nil, false
	}
	return c.Schema.Enum[f.faker.Rand.Intn(len(c.Schema.Enum))], true
}

func (f *Factory) fromDefault(c *Context) (any, bool) {
	return c.Schema.Default, c.Schema.Default != nil
}

func (f *Factory) fromPattern(c *Context) (any, bool) {
	if c.Name == "" {
		return nil, false
	}
	for _, p := range f.patterns {
		if !p.Match(c) {
			continue
		}
		v, ok := p.Generate(c)
		if !ok {
			continue
		}
		if v == nil {
			if nullable(c.Schema) {
				return nil, true
			}
			continue
		}
		if Conforms(v, c.Schema) {
			return v, true
		}
	}
	return nil, false
}

// Normalize lower-cases a field name and strips underscores and hyphens.
func Normalize(name string) string {
	name = strings.ToLower(name)
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(name)
}

func nullable(s *spec.Schema) bool {
	return s != nil && (s.Nullable || s.Type.Is(spec.TypeNull))
}

func singular(name string) string {
	switch {
	case strings.HasSuffix(name, "ies") && len(name) > 3:
		return name[:len(name)-3] + "y"
	case strings.HasSuffix(name, "ses"), strings.HasSuffix(name, "xes"):
		return name[:len(name)-2]
	case strings.HasSuffix(name, "s") && !strings.HasSuffix(name, "ss"):
		return name[:len(name)-1]
	}
	return name
}
