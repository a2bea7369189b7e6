package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Parse([]byte("title: Shop API\n"))
	require.NoError(t, err)
	assert.Equal(t, "Shop API", cfg.Title)
	assert.Equal(t, "1.0.0", cfg.Version)
	assert.Equal(t, "3.0.3", cfg.OpenAPIVersion)
	assert.Equal(t, "data", cfg.Responses.Wrap)
	assert.True(t, cfg.ErrorResponses.Enabled)
	assert.Equal(t, 0.7, cfg.ExampleGeneration.OptionalProbability)
}

func TestParseFullDocument(t *testing.T) {
	t.Parallel()
	content := `
openapi_version: 3.1.0
title: Shop
version: 2.0.0
servers:
  - url: https://api.example.com
    description: Production
tags:
  - pattern: "api/admin/*"
    tag: Admin
tag_descriptions:
  Users: User management
authentication:
  global: true
  schemes:
    bearerAuth:
      type: http
      scheme: bearer
      bearer_format: JWT
  middleware:
    - name: auth:sanctum
      scheme: bearerAuth
example_generation:
  seed: 42
  locale: ja_JP
  optional_fields: always
  now: "2024-06-01T00:00:00Z"
responses:
  wrap: ""
error_responses:
  enabled: false
routes:
  include: ["api/*"]
  filter: 'uri startsWith "api"'
`
	cfg, err := Parse([]byte(content))
	require.NoError(t, err)

	assert.Equal(t, "3.1.0", cfg.OpenAPIVersion)
	require.Len(t, cfg.Servers, 1)
	assert.Equal(t, "https://api.example.com", cfg.Servers[0].URL)
	require.Len(t, cfg.Tags, 1)
	assert.Equal(t, "Admin", cfg.Tags[0].Tag)
	assert.Equal(t, "User management", cfg.TagDescriptions["Users"])
	assert.True(t, cfg.Authentication.Global)
	assert.Equal(t, "JWT", cfg.Authentication.Schemes["bearerAuth"].BearerFormat)
	require.Len(t, cfg.Authentication.Middleware, 1)
	assert.Equal(t, "auth:sanctum", cfg.Authentication.Middleware[0].Name)
	assert.Equal(t, int64(42), cfg.ExampleGeneration.Seed)
	assert.Equal(t, "always", cfg.ExampleGeneration.OptionalFields)
	assert.Equal(t, "", cfg.Responses.Wrap)
	assert.False(t, cfg.ErrorResponses.Enabled)
	assert.Equal(t, []string{"api/*"}, cfg.Routes.Include)

	now, err := cfg.ReferenceTime()
	require.NoError(t, err)
	assert.True(t, now.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "rulespec.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 9.9.9\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9.9.9", cfg.Version)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()
	for name, content := range map[string]string{
		"version":     "openapi_version: 2.0\n",
		"optional":    "example_generation:\n  optional_fields: sometimes\n",
		"probability": "example_generation:\n  optional_probability: 1.5\n",
		"now":         "example_generation:\n  now: yesterday\n",
	} {
		_, err := Parse([]byte(content))
		assert.Error(t, err, name)
	}
}

func TestTagGroupsAreLenient(t *testing.T) {
	t.Parallel()
	cfg, err := Parse([]byte(`
tag_groups:
  - name: Accounts
    tags: [Users, Teams]
  - "not a group"
  - name: Empty
`))
	require.NoError(t, err)
	groups := cfg.ParsedTagGroups()
	require.Len(t, groups, 1)
	assert.Equal(t, "Accounts", groups[0].Name)
	assert.Equal(t, []string{"Users", "Teams"}, groups[0].Tags)

	cfg, err = Parse([]byte("tag_groups: nonsense\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.ParsedTagGroups())

	cfg, err = Parse([]byte("tag_groups:\n  oops: true\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.ParsedTagGroups())
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	_, err := Parse([]byte("titel: Typo\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "titel")

	_, err = Parse([]byte("routes:\n  includes: [\"api/*\"]\n"))
	assert.Error(t, err)
}

func TestParseSplitsCommaSeparatedLists(t *testing.T) {
	t.Parallel()
	cfg, err := Parse([]byte("input: manifest.yaml\nroutes:\n  methods: GET,POST\n"))
	require.NoError(t, err)
	assert.Equal(t, "manifest.yaml", cfg.Input)
	assert.Equal(t, []string{"GET", "POST"}, cfg.Routes.Methods)
}

func TestMalformedAuxiliarySectionsDegrade(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name:  "tags scalar",
			input: "tags: foo\n",
			check: func(t *testing.T, cfg *Config) { assert.Empty(t, cfg.Tags) },
		},
		{
			name:  "tags with stray entries",
			input: "tags:\n  - oops\n  - pattern: api/admin/*\n    tag: Admin\n  - [1, 2]\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []TagRule{{Pattern: "api/admin/*", Tag: "Admin"}}, cfg.Tags)
			},
		},
		{
			name:  "tag descriptions list",
			input: "tag_descriptions: [a, b]\n",
			check: func(t *testing.T, cfg *Config) { assert.Empty(t, cfg.TagDescriptions) },
		},
		{
			name:  "tag descriptions with nested value",
			input: "tag_descriptions:\n  User: Accounts\n  Order:\n    text: nested\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, map[string]string{"User": "Accounts"}, cfg.TagDescriptions)
			},
		},
		{
			name:  "middleware scalar",
			input: "authentication:\n  middleware: auth\n  global: false\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Empty(t, cfg.Authentication.Middleware)
				assert.False(t, cfg.Authentication.Global)
			},
		},
		{
			name:  "schemes list",
			input: "authentication:\n  schemes: [bearer]\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Empty(t, cfg.Authentication.Schemes)
				assert.True(t, cfg.Authentication.Global)
			},
		},
		{
			name:  "authentication scalar",
			input: "authentication: sanctum\ntitle: Shop\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, AuthConfig{Global: true}, cfg.Authentication)
				assert.Equal(t, "Shop", cfg.Title)
			},
		},
		{
			name:  "servers scalar",
			input: "servers: https://api.example.com\n",
			check: func(t *testing.T, cfg *Config) { assert.Empty(t, cfg.Servers) },
		},
		{
			name:  "servers with stray entries",
			input: "servers:\n  - https://old.example.com\n  - url: https://api.example.com\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []ServerConfig{{URL: "https://api.example.com"}}, cfg.Servers)
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestMalformedSectionsStillRejectUnknownKeys(t *testing.T) {
	t.Parallel()
	_, err := Parse([]byte("tags:\n  - patern: api/*\n    tag: Typo\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "patern")
}
