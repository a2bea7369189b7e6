package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// FilterOption configures which routes take part in generation.
type FilterOption func(*filterConfig)

type filterConfig struct {
	methods  map[string]struct{}
	include  []*regexp.Regexp
	exclude  []*regexp.Regexp
	programs []*vm.Program
	errs     []error
}

// WithMethods keeps only routes declaring at least one of the given HTTP methods.
func WithMethods(methods []string) FilterOption {
	return func(c *filterConfig) {
		for _, m := range methods {
			m = strings.ToUpper(strings.TrimSpace(m))
			if m == "" {
				continue
			}
			if c.methods == nil {
				c.methods = make(map[string]struct{}, len(methods))
			}
			c.methods[m] = struct{}{}
		}
	}
}

// WithIncludePatterns keeps only routes whose URI matches at least one of the
// given patterns. A pattern is a glob ("api/*") unless it starts with "^",
// in which case it is a regular expression.
func WithIncludePatterns(patterns []string) FilterOption {
	return func(c *filterConfig) {
		c.include = append(c.include, c.compile(patterns)...)
	}
}

// WithExcludePatterns drops routes whose URI matches any of the given patterns.
func WithExcludePatterns(patterns []string) FilterOption {
	return func(c *filterConfig) {
		c.exclude = append(c.exclude, c.compile(patterns)...)
	}
}

// WithExpression keeps only routes for which the boolean expression holds.
// The expression sees uri, methods, name, controller, action and middleware,
// e.g. `uri startsWith "api/" && !("internal" in middleware)`.
func WithExpression(src string) FilterOption {
	return func(c *filterConfig) {
		src = strings.TrimSpace(src)
		if src == "" {
			return
		}
		program, err := expr.Compile(src, expr.Env(routeEnv{}), expr.AsBool())
		if err != nil {
			c.errs = append(c.errs, fmt.Errorf("compile route filter %q: %w", src, err))
			return
		}
		c.programs = append(c.programs, program)
	}
}

func (c *filterConfig) compile(patterns []string) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := CompileURIPattern(p)
		if err != nil {
			c.errs = append(c.errs, err)
			continue
		}
		out = append(out, re)
	}
	return out
}

// CompileURIPattern turns a route pattern into a regular expression. Patterns
// starting with "^" are used verbatim, anything else is a glob where "*"
// matches any run of characters. A leading slash is ignored on both sides.
func CompileURIPattern(p string) (*regexp.Regexp, error) {
	if strings.HasPrefix(p, "^") {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid route pattern %q: %w", p, err)
		}
		return re, nil
	}
	p = strings.TrimPrefix(p, "/")
	parts := strings.Split(p, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.Compile("^" + strings.Join(parts, ".*") + "$")
}

type routeEnv struct {
	URI        string   `expr:"uri"`
	Methods    []string `expr:"methods"`
	Name       string   `expr:"name"`
	Controller string   `expr:"controller"`
	Action     string   `expr:"action"`
	Middleware []string `expr:"middleware"`
}

// FilterRoutes returns the routes accepted by every configured filter,
// preserving input order.
func FilterRoutes(routes []Route, opts ...FilterOption) ([]Route, error) {
	cfg := &filterConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.errs) > 0 {
		return nil, cfg.errs[0]
	}
	out := make([]Route, 0, len(routes))
	for _, r := range routes {
		ok, err := cfg.accept(r)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *filterConfig) accept(r Route) (bool, error) {
	uri := strings.TrimPrefix(r.URI, "/")
	if len(c.methods) > 0 {
		found := false
		for _, m := range r.Methods {
			if _, ok := c.methods[strings.ToUpper(m)]; ok {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}
	if len(c.include) > 0 && !matchAny(c.include, uri) {
		return false, nil
	}
	if matchAny(c.exclude, uri) {
		return false, nil
	}
	if len(c.programs) > 0 {
		env := routeEnv{
			URI:        uri,
			Methods:    upper(r.Methods),
			Name:       r.Name,
			Controller: r.Controller,
			Action:     r.Action,
			Middleware: r.Middleware,
		}
		for _, p := range c.programs {
			res, err := expr.Run(p, env)
			if err != nil {
				return false, fmt.Errorf("route filter on %s: %w", r.URI, err)
			}
			if b, _ := res.(bool); !b {
				return false, nil
			}
		}
	}
	return true, nil
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func upper(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(s)
	}
	return out
}
