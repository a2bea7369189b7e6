package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/rulespec/internal/analysis"
	"github.com/mark3labs/rulespec/internal/config"
	"github.com/mark3labs/rulespec/internal/spec"
)

func route(uri string, middleware ...string) analysis.Route {
	return analysis.Route{URI: uri, Methods: []string{"GET"}, Middleware: middleware}
}

func TestSecurityDefaultMiddleware(t *testing.T) {
	t.Parallel()
	s := NewSecurity(config.AuthConfig{})

	assert.Equal(t, spec.SecurityRequirements{spec.NewSecurityRequirement(SchemeBearer)},
		s.Requirements(route("a", "web", "auth:sanctum")))
	assert.Equal(t, spec.SecurityRequirements{spec.NewSecurityRequirement(SchemeBasic)},
		s.Requirements(route("a", "auth.basic")))
	assert.Equal(t, spec.SecurityRequirements{spec.NewSecurityRequirement(SchemeBearer)},
		s.Requirements(route("a", "auth:web")))
	assert.Nil(t, s.Requirements(route("a", "throttle:60,1")))
}

func TestSecurityConfiguredRulesComeFirst(t *testing.T) {
	t.Parallel()
	s := NewSecurity(config.AuthConfig{
		Schemes: map[string]config.SchemeConfig{
			"apiKey": {Type: "apiKey", Name: "X-API-Key", In: "header"},
			"oauth": {Type: "oauth2", Flows: &config.FlowsConfig{
				ClientCredentials: &config.FlowConfig{TokenURL: "https://auth.example.com/token", Scopes: map[string]string{"orders:read": "Read orders"}},
			}},
		},
		Middleware: []config.MiddlewareRule{
			{Name: "auth:sanctum", Scheme: "apiKey"},
			{Name: "scopes", Scheme: "oauth", Scopes: []string{"orders:read"}},
			{Name: "ghost", Scheme: "missing"},
		},
	})

	assert.Equal(t, spec.SecurityRequirements{spec.NewSecurityRequirement("apiKey")},
		s.Requirements(route("a", "auth:sanctum")))
	assert.Equal(t, spec.SecurityRequirements{
		spec.NewSecurityRequirement("apiKey"),
		spec.NewSecurityRequirement("oauth", "orders:read"),
	}, s.Requirements(route("a", "auth:sanctum", "scopes:orders:read", "auth:sanctum")))
	assert.Nil(t, s.Requirements(route("a", "ghost")))

	schemes := s.Schemes()
	require.NotNil(t, schemes)
	assert.Equal(t, []string{"apiKey", "oauth"}, schemes.Keys())
	oauth, _ := schemes.Get("oauth")
	assert.Equal(t, "https://auth.example.com/token", oauth.Flows.ClientCredentials.TokenURL)
}

func TestSecurityHoistsSharedRequirement(t *testing.T) {
	t.Parallel()
	s := NewSecurity(config.AuthConfig{Global: true})
	routes := []analysis.Route{route("a", "auth:sanctum"), route("b", "auth:api")}
	plan := s.Analyze(routes)

	assert.Equal(t, spec.SecurityRequirements{spec.NewSecurityRequirement(SchemeBearer)}, plan.Global)
	assert.Nil(t, plan.OperationSecurity(0))
	assert.Nil(t, plan.OperationSecurity(1))
	assert.Equal(t, []string{SchemeBearer}, s.Schemes().Keys())
}

func TestSecurityPublicOverrideUnderGlobal(t *testing.T) {
	t.Parallel()
	plan := SecurityPlan{
		Global: spec.SecurityRequirements{spec.NewSecurityRequirement(SchemeBearer)},
		PerRoute: []spec.SecurityRequirements{
			{spec.NewSecurityRequirement(SchemeBearer)},
			nil,
			{spec.NewSecurityRequirement(SchemeBasic)},
		},
	}
	assert.Nil(t, plan.OperationSecurity(0))

	public := plan.OperationSecurity(1)
	require.NotNil(t, public)
	assert.Empty(t, *public)

	other := plan.OperationSecurity(2)
	require.NotNil(t, other)
	assert.Equal(t, spec.SecurityRequirements{spec.NewSecurityRequirement(SchemeBasic)}, *other)
}

func TestSecurityNoHoistingWhenDisabledOrMixed(t *testing.T) {
	t.Parallel()
	routes := []analysis.Route{route("a", "auth:sanctum"), route("b", "auth:sanctum")}
	plan := NewSecurity(config.AuthConfig{Global: false}).Analyze(routes)
	assert.Empty(t, plan.Global)
	require.NotNil(t, plan.OperationSecurity(0))

	mixed := []analysis.Route{route("a", "auth:sanctum"), route("b")}
	plan = NewSecurity(config.AuthConfig{Global: true}).Analyze(mixed)
	assert.Empty(t, plan.Global)
	assert.Nil(t, plan.OperationSecurity(1))
}

func TestSecuritySchemesNilWhenUnused(t *testing.T) {
	t.Parallel()
	s := NewSecurity(config.AuthConfig{Global: true})
	s.Analyze([]analysis.Route{route("a")})
	assert.Nil(t, s.Schemes())
}
