// Package generator assembles OpenAPI documents from analyzed routes.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/rulespec/internal/analysis"
	"github.com/mark3labs/rulespec/internal/config"
	"github.com/mark3labs/rulespec/internal/example"
	"github.com/mark3labs/rulespec/internal/rules"
	"github.com/mark3labs/rulespec/internal/schema"
	"github.com/mark3labs/rulespec/internal/spec"
)

// Generation stages reported in OperationError.
const (
	StageAnalyze    = "analyze"
	StageParameters = "parameters"
	StageRequest    = "request"
	StageResponse   = "response"
	StageCallbacks  = "callbacks"
)

// OperationError records a stage of one operation that failed and was
// replaced by a placeholder.
type OperationError struct {
	Method string
	URI    string
	Stage  string
	Cause  error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", strings.ToUpper(e.Method), e.URI, e.Stage, e.Cause)
}

func (e *OperationError) Unwrap() error { return e.Cause }

// Result is the outcome of one Generate call.
type Result struct {
	Document *spec.Document
	// Warnings lists unresolved schema references, skipped routes and
	// document validation findings.
	Warnings []string
	// Failures lists the operation stages replaced by placeholders.
	Failures []*OperationError
}

// Generator builds documents. It owns one schema registry which is cleared
// at the start of every Generate call, so a Generator must not be used by
// several goroutines at once.
type Generator struct {
	cfg         *config.Config
	analyzer    analysis.Analyzer
	logger      *slog.Logger
	validate    bool
	exampleOpts []example.Option
	registry    *schema.Registry
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithValidation toggles structural validation of the generated document.
// Findings are reported as warnings. Enabled by default.
func WithValidation(enabled bool) Option {
	return func(g *Generator) { g.validate = enabled }
}

// WithExampleOptions appends options to the example factory of every pass,
// after the ones derived from the configuration.
func WithExampleOptions(opts ...example.Option) Option {
	return func(g *Generator) { g.exampleOpts = append(g.exampleOpts, opts...) }
}

// New returns a Generator. A nil cfg uses config.Default; a nil analyzer
// knows nothing beyond the routes themselves.
func New(cfg *config.Config, analyzer analysis.Analyzer, opts ...Option) *Generator {
	if cfg == nil {
		cfg = config.Default()
	}
	if analyzer == nil {
		analyzer = analysis.NewManifestAnalyzer(&analysis.Manifest{})
	}
	g := &Generator{
		cfg:      cfg,
		analyzer: analyzer,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		validate: true,
		registry: schema.NewRegistry(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// pass is the state of one Generate call.
type pass struct {
	g        *Generator
	ctx      context.Context
	registry *schema.Registry
	schemas  *schema.Generator
	factory  *example.Factory
	security *Security
	tagger   *Tagger
	ids      *OperationIDs
	infos    map[string]*analysis.ResourceInfo
	failed   map[string]error
	result   *Result
}

// Generate builds the document for routes. Failures of single operations
// are recorded in the result and never abort the document; an error is only
// returned when ctx is done.
func (g *Generator) Generate(ctx context.Context, routes []analysis.Route) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.registry.Clear()

	p := &pass{
		g:        g,
		ctx:      ctx,
		registry: g.registry,
		security: NewSecurity(g.cfg.Authentication),
		tagger:   NewTagger(g.cfg),
		ids:      NewOperationIDs(),
		infos:    map[string]*analysis.ResourceInfo{},
		failed:   map[string]error{},
		result:   &Result{},
	}
	p.schemas = schema.NewGenerator(p.nestedResource)
	p.factory = g.newFactory(g.registry.Get)

	plan := p.security.Analyze(routes)

	doc := spec.NewDocument(spec.Version30, g.info())
	for _, s := range g.cfg.Servers {
		if strings.TrimSpace(s.URL) != "" {
			doc.Servers = append(doc.Servers, spec.Server{URL: s.URL, Description: s.Description})
		}
	}
	doc.Security = plan.Global

	for i, route := range routes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.route(doc, route, plan.OperationSecurity(i), len(plan.PerRoute[i]) > 0)
	}

	doc.Tags, doc.TagGroups = p.tagger.Document()
	if g.registry.Len() > 0 {
		doc.Components.Schemas = g.registry.Schemas()
	}
	doc.Components.SecuritySchemes = p.security.Schemes()

	for _, name := range g.registry.ValidateReferences() {
		g.logger.Warn("unresolved schema reference", "schema", name)
		p.warn("unresolved schema reference: %s", name)
	}

	if g.validate {
		if err := spec.Validate(ctx, doc); err != nil {
			g.logger.Warn("document validation failed", "error", err)
			p.warn("document validation: %v", err)
		}
	}

	if spec.IsVersion31(g.cfg.OpenAPIVersion) {
		doc = spec.ConvertTo31(doc)
	}
	if v := strings.TrimSpace(g.cfg.OpenAPIVersion); v != "" {
		doc.OpenAPI = v
	}
	p.result.Document = doc
	g.logger.Debug("document generated",
		"paths", doc.Paths.Len(),
		"schemas", g.registry.Len(),
		"warnings", len(p.result.Warnings),
		"failures", len(p.result.Failures))
	return p.result, nil
}

func (g *Generator) info() spec.Info {
	info := spec.Info{
		Title:          nonEmpty(g.cfg.Title, "API Documentation"),
		Description:    g.cfg.Description,
		TermsOfService: g.cfg.TermsOfService,
		Version:        nonEmpty(g.cfg.Version, "1.0.0"),
	}
	if c := g.cfg.Contact; c.Name != "" || c.Email != "" || c.URL != "" {
		info.Contact = &spec.Contact{Name: c.Name, Email: c.Email, URL: c.URL}
	}
	if l := g.cfg.License; l.Name != "" {
		info.License = &spec.License{Name: l.Name, Identifier: l.Identifier, URL: l.URL}
	}
	return info
}

func (g *Generator) newFactory(resolve example.Resolver) *example.Factory {
	eg := g.cfg.ExampleGeneration
	opts := []example.Option{
		example.WithSeed(eg.Seed),
		example.WithLocale(eg.Locale),
		example.WithInclusion(example.ParseInclusion(eg.OptionalFields, eg.OptionalProbability)),
		example.WithResolver(resolve),
	}
	if now, err := g.cfg.ReferenceTime(); err == nil && !now.IsZero() {
		opts = append(opts, example.WithNow(now))
	}
	return example.New(append(opts, g.exampleOpts...)...)
}

// operationMethods parses the route methods in declaration order. HEAD is
// dropped when GET is declared too, since it shares GET's operation.
func operationMethods(methods []string) []spec.HttpMethod {
	var out []spec.HttpMethod
	seen := map[spec.HttpMethod]struct{}{}
	hasGet := false
	for _, m := range methods {
		if hm, ok := spec.ParseMethod(m); ok && hm == spec.GET {
			hasGet = true
		}
	}
	for _, m := range methods {
		hm, ok := spec.ParseMethod(m)
		if !ok || (hm == spec.HEAD && hasGet) {
			continue
		}
		if _, dup := seen[hm]; dup {
			continue
		}
		seen[hm] = struct{}{}
		out = append(out, hm)
	}
	return out
}

func (p *pass) route(doc *spec.Document, route analysis.Route, security *spec.SecurityRequirements, requiresAuth bool) {
	methods := operationMethods(route.Methods)
	if len(methods) == 0 {
		p.warn("route %s skipped: no supported methods in %v", route.URI, route.Methods)
		return
	}
	path := NormalizePath(route.URI)
	item, ok := doc.Paths.Get(path)
	if !ok {
		item = &spec.PathItem{}
		doc.Paths.Set(path, item)
	}

	ca, err := p.g.analyzer.AnalyzeController(p.ctx, route)
	if err == nil && ca == nil {
		ca = &analysis.ControllerAnalysis{}
	}

	for _, m := range methods {
		if item.Operation(m) != nil {
			p.warn("duplicate operation %s %s from %s skipped", strings.ToUpper(string(m)), path, route.Key())
			continue
		}
		p.g.logger.Debug("generating operation", "method", strings.ToUpper(string(m)), "path", path)
		item.SetOperation(m, p.operation(route, m, len(methods) > 1, ca, err, security, requiresAuth))
	}
}

func (p *pass) operation(route analysis.Route, method spec.HttpMethod, multiMethod bool, ca *analysis.ControllerAnalysis, analyzeErr error, security *spec.SecurityRequirements, requiresAuth bool) *spec.Operation {
	op := &spec.Operation{
		Tags:        p.tagger.Tags(route),
		Summary:     Summary(route, string(method), ca),
		OperationID: p.ids.Next(route, string(method), multiMethod),
		Responses:   spec.NewOrderedMap[*spec.Response](),
		Security:    security,
	}

	if analyzeErr != nil {
		p.fail(route, method, StageAnalyze, analyzeErr)
		op.Parameters = PathParameters(route, nil)
		if hasBody(method) {
			op.RequestBody = placeholderBody()
		}
		op.Responses.Set(statusCode(SuccessStatus(method, 0, true)), placeholderResponse())
		p.errorResponses(op, method, requiresAuth, nil, nil)
		return op
	}
	op.Description = ca.Description
	op.Deprecated = ca.Deprecated

	rs, rsErr := p.ruleSet(ca)
	var (
		validated []*rules.FieldDescriptor
		queryRule []*rules.FieldDescriptor
	)
	if rsErr == nil && !hasBody(method) && !rs.Empty() {
		queryRule = rules.Normalize(rs.Rules)
		validated = queryRule
	}

	p.guard(route, method, StageParameters, func() error {
		params := PathParameters(route, ca.EnumParameters)
		pagination := PaginationNone
		if ca.Pagination != nil {
			pagination = NormalizePaginationType(ca.Pagination.Type)
		}
		params = append(params, QueryParameters(ca, queryRule, p.includes(ca), pagination, p.schemas)...)
		op.Parameters = params
		return nil
	}, func() {
		op.Parameters = PathParameters(route, nil)
	})

	if hasBody(method) {
		p.guard(route, method, StageRequest, func() error {
			if rsErr != nil {
				return rsErr
			}
			body, fields := p.requestBody(rs)
			op.RequestBody = body
			validated = fields
			return nil
		}, func() {
			op.RequestBody = placeholderBody()
		})
	} else if rsErr != nil {
		p.fail(route, method, StageRequest, rsErr)
	}

	p.guard(route, method, StageResponse, func() error {
		code, resp, err := p.successResponse(method, ca)
		if err != nil {
			return err
		}
		op.Responses.Set(code, resp)
		return nil
	}, func() {
		op.Responses.Set(statusCode(SuccessStatus(method, 0, true)), placeholderResponse())
	})

	p.errorResponses(op, method, requiresAuth, validated, rs)

	if p.g.cfg.Callbacks.Enabled && len(ca.Callbacks) > 0 {
		p.guard(route, method, StageCallbacks, func() error {
			cbs, err := p.callbacks(ca.Callbacks)
			if err != nil {
				return err
			}
			op.Callbacks = cbs
			return nil
		}, func() {
			op.Callbacks = nil
		})
	}
	return op
}

func (p *pass) errorResponses(op *spec.Operation, method spec.HttpMethod, requiresAuth bool, validated []*rules.FieldDescriptor, rs *analysis.RuleSet) {
	if !p.g.cfg.ErrorResponses.Enabled {
		return
	}
	hasValidation := len(validated) > 0
	errs := DefaultErrorResponses(string(method), requiresAuth, hasValidation)
	if hasValidation {
		specific := spec.NewOrderedMap[*spec.Response]()
		specific.Set("422", ValidationErrorResponse(validated, rs))
		MergeResponses(errs, specific)
	}
	MergeResponses(op.Responses, errs)
}

// ruleSet returns the inline rules of an action, or those of its form
// request class.
func (p *pass) ruleSet(ca *analysis.ControllerAnalysis) (*analysis.RuleSet, error) {
	if !ca.Rules.Empty() {
		return ca.Rules, nil
	}
	if strings.TrimSpace(ca.FormRequest) == "" {
		return nil, nil
	}
	rs, err := p.g.analyzer.AnalyzeFormRequest(p.ctx, ca.FormRequest)
	if err != nil {
		return nil, fmt.Errorf("form request %s: %w", ca.FormRequest, err)
	}
	return rs, nil
}

// includes lists the Fractal includes offered by the action's resources.
func (p *pass) includes(ca *analysis.ControllerAnalysis) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, class := range ca.ResourceClasses() {
		_, info, err := p.resource(class)
		if err != nil || info == nil || !info.Fractal {
			continue
		}
		for _, inc := range info.AvailableIncludes {
			if _, ok := seen[inc]; !ok && inc != "" {
				seen[inc] = struct{}{}
				out = append(out, inc)
			}
		}
	}
	return out
}

// resource registers the component schema of a resource class on first use
// and returns a $ref to it. Analysis results, including failures, are cached
// for the pass.
func (p *pass) resource(class string) (*spec.Schema, *analysis.ResourceInfo, error) {
	name := schema.ExtractSchemaName(class)
	if err, ok := p.failed[class]; ok {
		return nil, nil, err
	}
	if info, ok := p.infos[class]; ok {
		return p.registry.Ref(name), info, nil
	}
	info, err := p.g.analyzer.AnalyzeResource(p.ctx, class)
	if err == nil && info == nil {
		err = analysis.ErrNotFound
	}
	if err != nil {
		p.failed[class] = err
		return nil, nil, err
	}
	p.infos[class] = info
	// Self-referencing resources resolve to the placeholder until the
	// schema below is complete.
	p.registry.Register(name, schema.UnknownObject())
	s := p.schemas.ResponseSchema(rules.NormalizeResource(info.FieldList()))
	s.Description = info.Description
	p.registry.Register(name, s)
	return p.registry.Ref(name), info, nil
}

// nestedResource resolves a class referenced from inside another schema. A
// class that cannot be analyzed is still referenced, which surfaces as an
// unresolved reference warning.
func (p *pass) nestedResource(class string) *spec.Schema {
	ref, _, err := p.resource(class)
	if err != nil {
		if !errors.Is(err, analysis.ErrNotFound) {
			p.g.logger.Warn("nested resource analysis failed", "class", class, "error", err)
		}
		return p.registry.Ref(schema.ExtractSchemaName(class))
	}
	return ref
}

// guard runs one stage. An error or panic is recorded as an OperationError
// and fallback installs the placeholder.
func (p *pass) guard(route analysis.Route, method spec.HttpMethod, stage string, fn func() error, fallback func()) {
	defer func() {
		if r := recover(); r != nil {
			p.fail(route, method, stage, fmt.Errorf("panic: %v", r))
			fallback()
		}
	}()
	if err := fn(); err != nil {
		p.fail(route, method, stage, err)
		fallback()
	}
}

func (p *pass) fail(route analysis.Route, method spec.HttpMethod, stage string, err error) {
	oe := &OperationError{Method: string(method), URI: route.URI, Stage: stage, Cause: err}
	p.g.logger.Warn("operation degraded",
		"method", strings.ToUpper(string(method)),
		"uri", route.URI,
		"stage", stage,
		"error", err)
	p.result.Failures = append(p.result.Failures, oe)
}

func (p *pass) warn(format string, args ...any) {
	p.result.Warnings = append(p.result.Warnings, fmt.Sprintf(format, args...))
}
