// Package config holds the generator configuration and its loader.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/mitchellh/mapstructure"
)

// Config is the full generator configuration.
type Config struct {
	// Input is the analysis manifest the document is generated from.
	Input             string            `koanf:"input" yaml:"input"`
	OpenAPIVersion    string            `koanf:"openapi_version" yaml:"openapi_version"`
	Title             string            `koanf:"title" yaml:"title"`
	Version           string            `koanf:"version" yaml:"version"`
	Description       string            `koanf:"description" yaml:"description"`
	TermsOfService    string            `koanf:"terms_of_service" yaml:"terms_of_service"`
	Contact           ContactConfig     `koanf:"contact" yaml:"contact"`
	License           LicenseConfig     `koanf:"license" yaml:"license"`
	Servers           []ServerConfig    `koanf:"servers" yaml:"servers"`
	Tags              []TagRule         `koanf:"tags" yaml:"tags"`
	TagDescriptions   map[string]string `koanf:"tag_descriptions" yaml:"tag_descriptions"`
	TagGroups         any               `koanf:"tag_groups" yaml:"tag_groups"`
	Authentication    AuthConfig        `koanf:"authentication" yaml:"authentication"`
	ExampleGeneration ExampleConfig     `koanf:"example_generation" yaml:"example_generation"`
	Responses         ResponsesConfig   `koanf:"responses" yaml:"responses"`
	Routes            RoutesConfig      `koanf:"routes" yaml:"routes"`
	ErrorResponses    ToggleConfig      `koanf:"error_responses" yaml:"error_responses"`
	Callbacks         ToggleConfig      `koanf:"callbacks" yaml:"callbacks"`
	Output            OutputConfig      `koanf:"output" yaml:"output"`
}

type ContactConfig struct {
	Name  string `koanf:"name" yaml:"name"`
	Email string `koanf:"email" yaml:"email"`
	URL   string `koanf:"url" yaml:"url"`
}

type LicenseConfig struct {
	Name       string `koanf:"name" yaml:"name"`
	Identifier string `koanf:"identifier" yaml:"identifier"`
	URL        string `koanf:"url" yaml:"url"`
}

type ServerConfig struct {
	URL         string `koanf:"url" yaml:"url"`
	Description string `koanf:"description" yaml:"description"`
}

// TagRule assigns Tag to routes whose URI matches Pattern (glob or ^regexp).
type TagRule struct {
	Pattern string `koanf:"pattern" yaml:"pattern"`
	Tag     string `koanf:"tag" yaml:"tag"`
}

// AuthConfig maps route middleware to security schemes.
type AuthConfig struct {
	Schemes    map[string]SchemeConfig `koanf:"schemes" yaml:"schemes"`
	Middleware []MiddlewareRule        `koanf:"middleware" yaml:"middleware"`
	// Global hoists a requirement shared by every route to the document level.
	Global bool `koanf:"global" yaml:"global"`
}

// MiddlewareRule binds a middleware name to a scheme, with optional scopes.
type MiddlewareRule struct {
	Name   string   `koanf:"name" yaml:"name"`
	Scheme string   `koanf:"scheme" yaml:"scheme"`
	Scopes []string `koanf:"scopes" yaml:"scopes"`
}

type SchemeConfig struct {
	Type             string       `koanf:"type" yaml:"type"`
	Description      string       `koanf:"description" yaml:"description"`
	Name             string       `koanf:"name" yaml:"name"`
	In               string       `koanf:"in" yaml:"in"`
	Scheme           string       `koanf:"scheme" yaml:"scheme"`
	BearerFormat     string       `koanf:"bearer_format" yaml:"bearer_format"`
	OpenIDConnectURL string       `koanf:"openid_connect_url" yaml:"openid_connect_url"`
	Flows            *FlowsConfig `koanf:"flows" yaml:"flows"`
}

type FlowsConfig struct {
	Implicit          *FlowConfig `koanf:"implicit" yaml:"implicit"`
	Password          *FlowConfig `koanf:"password" yaml:"password"`
	ClientCredentials *FlowConfig `koanf:"client_credentials" yaml:"client_credentials"`
	AuthorizationCode *FlowConfig `koanf:"authorization_code" yaml:"authorization_code"`
}

type FlowConfig struct {
	AuthorizationURL string            `koanf:"authorization_url" yaml:"authorization_url"`
	TokenURL         string            `koanf:"token_url" yaml:"token_url"`
	RefreshURL       string            `koanf:"refresh_url" yaml:"refresh_url"`
	Scopes           map[string]string `koanf:"scopes" yaml:"scopes"`
}

// ExampleConfig controls example synthesis.
type ExampleConfig struct {
	Seed   int64  `koanf:"seed" yaml:"seed"`
	Locale string `koanf:"locale" yaml:"locale"`
	// OptionalFields is "random" (default) or "always".
	OptionalFields      string  `koanf:"optional_fields" yaml:"optional_fields"`
	OptionalProbability float64 `koanf:"optional_probability" yaml:"optional_probability"`
	// Now is an RFC 3339 reference time for relative dates.
	Now string `koanf:"now" yaml:"now"`
}

type ResponsesConfig struct {
	// Wrap is the envelope key of resource responses; empty disables wrapping.
	Wrap string `koanf:"wrap" yaml:"wrap"`
}

type RoutesConfig struct {
	Include []string `koanf:"include" yaml:"include"`
	Exclude []string `koanf:"exclude" yaml:"exclude"`
	Methods []string `koanf:"methods" yaml:"methods"`
	Filter  string   `koanf:"filter" yaml:"filter"`
}

type ToggleConfig struct {
	Enabled bool `koanf:"enabled" yaml:"enabled"`
}

type OutputConfig struct {
	Path   string `koanf:"path" yaml:"path"`
	Format string `koanf:"format" yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		OpenAPIVersion: "3.0.3",
		Title:          "API Documentation",
		Version:        "1.0.0",
		ExampleGeneration: ExampleConfig{
			OptionalFields:      "random",
			OptionalProbability: 0.7,
		},
		Authentication: AuthConfig{Global: true},
		Responses:      ResponsesConfig{Wrap: "data"},
		ErrorResponses: ToggleConfig{Enabled: true},
		Callbacks:      ToggleConfig{Enabled: true},
		Output:         OutputConfig{Path: "openapi.json", Format: "json"},
	}
}

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return unmarshal(k)
}

// Parse reads YAML configuration content on top of the defaults.
func Parse(content []byte) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return unmarshal(k)
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	dropMalformed(k)
	cfg := Default()
	err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.TextUnmarshallerHookFunc()),
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			Result:           cfg,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// dropMalformed empties auxiliary sections whose shape is wrong, and drops
// malformed entries inside them, so that they degrade to no-ops. Unknown keys
// inside well-formed entries are still rejected by the decoder.
func dropMalformed(k *koanf.Koanf) {
	if k.Exists("authentication") {
		if _, ok := k.Get("authentication").(map[string]any); !ok {
			k.Delete("authentication")
		}
	}
	keepEntries(k, "servers")
	keepEntries(k, "tags")
	keepEntries(k, "authentication.middleware")
	keepValues(k, "tag_descriptions", isScalar)
	keepValues(k, "authentication.schemes", isMap)
}

// keepEntries keeps only the mapping entries of the list at path.
func keepEntries(k *koanf.Koanf, path string) {
	if !k.Exists(path) {
		return
	}
	list, ok := k.Get(path).([]any)
	var kept []any
	for _, item := range list {
		if isMap(item) {
			kept = append(kept, item)
		}
	}
	if ok && len(kept) == len(list) {
		return
	}
	k.Delete(path)
	if len(kept) > 0 {
		_ = k.Set(path, kept)
	}
}

// keepValues keeps the entries of the map at path whose values pass keep.
func keepValues(k *koanf.Koanf, path string, keep func(any) bool) {
	if !k.Exists(path) {
		return
	}
	m, ok := k.Get(path).(map[string]any)
	kept := make(map[string]any, len(m))
	for key, v := range m {
		if keep(v) {
			kept[key] = v
		}
	}
	if ok && len(kept) == len(m) {
		return
	}
	k.Delete(path)
	if len(kept) > 0 {
		_ = k.Set(path, kept)
	}
}

func isMap(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int64, float64:
		return true
	}
	return false
}

// Validate checks values that cannot be degraded silently.
func (c *Config) Validate() error {
	v := strings.TrimSpace(c.OpenAPIVersion)
	if !strings.HasPrefix(v, "3.0") && !strings.HasPrefix(v, "3.1") {
		return fmt.Errorf("config: openapi_version %q is not supported (allowed: 3.0.x, 3.1.x)", c.OpenAPIVersion)
	}
	switch c.ExampleGeneration.OptionalFields {
	case "", "random", "always":
	default:
		return fmt.Errorf("config: example_generation.optional_fields %q is not supported (allowed: random, always)", c.ExampleGeneration.OptionalFields)
	}
	if p := c.ExampleGeneration.OptionalProbability; p < 0 || p > 1 {
		return fmt.Errorf("config: example_generation.optional_probability %v must be within [0, 1]", p)
	}
	if _, err := c.ReferenceTime(); err != nil {
		return err
	}
	return nil
}

// ReferenceTime parses example_generation.now. The zero time means unset.
func (c *Config) ReferenceTime() (time.Time, error) {
	s := strings.TrimSpace(c.ExampleGeneration.Now)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("config: example_generation.now: %w", err)
	}
	return t, nil
}

// TagGroup is one parsed entry of tag_groups.
type TagGroup struct {
	Name string
	Tags []string
}

// ParsedTagGroups reads tag_groups leniently: anything that is not a list of
// {name, tags} maps yields no groups, and malformed entries are skipped.
func (c *Config) ParsedTagGroups() []TagGroup {
	list, ok := c.TagGroups.([]any)
	if !ok {
		return nil
	}
	var out []TagGroup
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		rawTags, ok := m["tags"].([]any)
		if strings.TrimSpace(name) == "" || !ok {
			continue
		}
		g := TagGroup{Name: name}
		for _, t := range rawTags {
			if s, ok := t.(string); ok && s != "" {
				g.Tags = append(g.Tags, s)
			}
		}
		out = append(out, g)
	}
	return out
}
