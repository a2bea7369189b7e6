package generator

import (
	"reflect"
	"sort"
	"strings"

	"github.com/mark3labs/rulespec/internal/analysis"
	"github.com/mark3labs/rulespec/internal/config"
	"github.com/mark3labs/rulespec/internal/spec"
)

// Built-in scheme names used by the default middleware mapping.
const (
	SchemeBearer = "bearerAuth"
	SchemeBasic  = "basicAuth"
)

var defaultSchemes = map[string]*spec.SecurityScheme{
	SchemeBearer: {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
	SchemeBasic:  {Type: "http", Scheme: "basic"},
}

var defaultMiddleware = []config.MiddlewareRule{
	{Name: "auth:sanctum", Scheme: SchemeBearer},
	{Name: "auth:api", Scheme: SchemeBearer},
	{Name: "auth.basic", Scheme: SchemeBasic},
	{Name: "auth.basic.once", Scheme: SchemeBasic},
	{Name: "auth", Scheme: SchemeBearer},
}

// Security maps route middleware to security requirements.
type Security struct {
	schemes map[string]*spec.SecurityScheme
	rules   []config.MiddlewareRule
	global  bool
	used    map[string]struct{}
}

// NewSecurity builds the mapping from the authentication config. Configured
// middleware rules are consulted before the built-in ones; rules naming a
// scheme that is neither configured nor built in are ignored.
func NewSecurity(cfg config.AuthConfig) *Security {
	s := &Security{
		schemes: map[string]*spec.SecurityScheme{},
		global:  cfg.Global,
		used:    map[string]struct{}{},
	}
	for name, sc := range defaultSchemes {
		cp := *sc
		s.schemes[name] = &cp
	}
	for name, sc := range cfg.Schemes {
		s.schemes[name] = schemeFromConfig(sc)
		s.used[name] = struct{}{}
	}
	for _, r := range append(append([]config.MiddlewareRule(nil), cfg.Middleware...), defaultMiddleware...) {
		if _, ok := s.schemes[r.Scheme]; ok && strings.TrimSpace(r.Name) != "" {
			s.rules = append(s.rules, r)
		}
	}
	return s
}

func schemeFromConfig(c config.SchemeConfig) *spec.SecurityScheme {
	out := &spec.SecurityScheme{
		Type:             c.Type,
		Description:      c.Description,
		Name:             c.Name,
		In:               c.In,
		Scheme:           c.Scheme,
		BearerFormat:     c.BearerFormat,
		OpenIDConnectURL: c.OpenIDConnectURL,
	}
	if out.Type == "" {
		out.Type = "http"
		if out.Scheme == "" {
			out.Scheme = "bearer"
		}
	}
	if f := c.Flows; f != nil {
		out.Flows = &spec.OAuthFlows{
			Implicit:          flowFromConfig(f.Implicit),
			Password:          flowFromConfig(f.Password),
			ClientCredentials: flowFromConfig(f.ClientCredentials),
			AuthorizationCode: flowFromConfig(f.AuthorizationCode),
		}
	}
	return out
}

func flowFromConfig(f *config.FlowConfig) *spec.OAuthFlow {
	if f == nil {
		return nil
	}
	scopes := f.Scopes
	if scopes == nil {
		scopes = map[string]string{}
	}
	return &spec.OAuthFlow{
		AuthorizationURL: f.AuthorizationURL,
		TokenURL:         f.TokenURL,
		RefreshURL:       f.RefreshURL,
		Scopes:           scopes,
	}
}

// Requirements returns the alternatives (OR) satisfying the route's
// middleware, or nil for a public route.
func (s *Security) Requirements(route analysis.Route) spec.SecurityRequirements {
	var out spec.SecurityRequirements
	seen := map[string]struct{}{}
	for _, m := range route.Middleware {
		r, ok := s.match(strings.TrimSpace(m))
		if !ok {
			continue
		}
		if _, dup := seen[r.Scheme]; dup {
			continue
		}
		seen[r.Scheme] = struct{}{}
		out = append(out, spec.NewSecurityRequirement(r.Scheme, r.Scopes...))
	}
	return out
}

// match prefers an exact middleware name, then a parameterized form such as
// "auth:web" for a rule named "auth".
func (s *Security) match(m string) (config.MiddlewareRule, bool) {
	for _, r := range s.rules {
		if r.Name == m {
			return r, true
		}
	}
	for _, r := range s.rules {
		if strings.HasPrefix(m, r.Name+":") {
			return r, true
		}
	}
	return config.MiddlewareRule{}, false
}

// SecurityPlan is the outcome of analyzing every route: the document-level
// requirement and the per-route overrides.
type SecurityPlan struct {
	Global   spec.SecurityRequirements
	PerRoute []spec.SecurityRequirements
}

// Analyze computes the requirement of each route. When hoisting is enabled
// and every route shares one non-empty requirement it becomes global.
func (s *Security) Analyze(routes []analysis.Route) SecurityPlan {
	plan := SecurityPlan{PerRoute: make([]spec.SecurityRequirements, len(routes))}
	for i, r := range routes {
		plan.PerRoute[i] = s.Requirements(r)
		for _, req := range plan.PerRoute[i] {
			for name := range req {
				s.used[name] = struct{}{}
			}
		}
	}
	if !s.global || len(routes) == 0 {
		return plan
	}
	first := plan.PerRoute[0]
	if len(first) == 0 {
		return plan
	}
	for _, req := range plan.PerRoute[1:] {
		if !reflect.DeepEqual(req, first) {
			return plan
		}
	}
	plan.Global = first
	return plan
}

// OperationSecurity returns the operation-level value for a route: nil to
// inherit the global requirement, an empty list to mark a public route when
// a global requirement exists.
func (p SecurityPlan) OperationSecurity(i int) *spec.SecurityRequirements {
	req := p.PerRoute[i]
	if len(p.Global) > 0 {
		if reflect.DeepEqual(req, p.Global) {
			return nil
		}
		if len(req) == 0 {
			empty := spec.SecurityRequirements{}
			return &empty
		}
	}
	if len(req) == 0 {
		return nil
	}
	return &req
}

// Schemes returns the configured schemes plus the built-in ones that are
// referenced, sorted by name. Nil when there are none.
func (s *Security) Schemes() *spec.OrderedMap[*spec.SecurityScheme] {
	if len(s.used) == 0 {
		return nil
	}
	names := make([]string, 0, len(s.used))
	for n := range s.used {
		names = append(names, n)
	}
	sort.Strings(names)
	out := spec.NewOrderedMap[*spec.SecurityScheme]()
	for _, n := range names {
		out.Set(n, s.schemes[n])
	}
	return out
}
