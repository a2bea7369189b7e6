package generator

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/rulespec/internal/analysis"
	"github.com/mark3labs/rulespec/internal/config"
	"github.com/mark3labs/rulespec/internal/spec"
)

const shopManifest = `
routes:
  - uri: api/products
    methods: [GET, HEAD]
    controller: ProductController
    action: index
    name: products.index
    middleware: [api, auth:sanctum]
  - uri: api/products
    methods: [POST]
    controller: ProductController
    action: store
    name: products.store
    middleware: [api, auth:sanctum]
  - uri: api/products/{product}
    methods: [PUT, PATCH]
    controller: ProductController
    action: update
    name: products.update
    middleware: [api, auth:sanctum]
    parameters:
      - name: product
        pattern: "[0-9]+"
  - uri: api/users/{user}
    methods: [GET]
    controller: UserController
    action: show
    middleware: [api, auth:sanctum]
  - uri: api/users/{user}/avatar
    methods: [POST]
    controller: AvatarController
    action: store
    middleware: [api, auth:sanctum]
controllers:
  ProductController@index:
    resource: App\Http\Resources\ProductResource
    returns_collection: true
    pagination:
      type: length_aware
    rules:
      rules:
        search: "nullable|string|max:100"
  ProductController@store:
    form_request: App\Http\Requests\StoreProductRequest
    resource: App\Http\Resources\ProductResource
  ProductController@update:
    form_request: App\Http\Requests\UpsertProductRequest
    resource: App\Http\Resources\ProductResource
  UserController@show:
    resource: App\Http\Resources\UserResource
  AvatarController@store:
    rules:
      rules:
        avatar: "required|file|mimes:jpeg,png|max:2048"
    response:
      type: void
requests:
  App\Http\Requests\StoreProductRequest:
    rules:
      name: "required|string|max:255"
      price: "required|numeric|min:0"
    messages:
      name.required: "A product needs a name."
    attributes:
      price: "unit price"
  App\Http\Requests\UpsertProductRequest:
    rules: {}
    conditional:
      - condition: POST
        label: Create Product (POST)
        rules:
          sku: "required|string"
      - condition: PUT
        label: Update Product (PUT)
        rules:
          sku: "nullable|string"
resources:
  App\Http\Resources\ProductResource:
    fields:
      id: integer
      name: string
      price: number
  App\Http\Resources\UserResource:
    description: A registered user.
    fields:
      id: integer
      name: string
      email:
        type: string
        format: email
      created_at:
        type: string
        format: date-time
      deleted_at:
        type: string
        format: date-time
        nullable: true
`

func loadManifest(t *testing.T, src string) *analysis.Manifest {
	t.Helper()
	m, err := analysis.ParseManifest([]byte(src))
	require.NoError(t, err)
	return m
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.ExampleGeneration.Seed = 42
	cfg.ExampleGeneration.OptionalFields = "always"
	return cfg
}

func generate(t *testing.T, cfg *config.Config, src string) *Result {
	t.Helper()
	m := loadManifest(t, src)
	res, err := New(cfg, analysis.NewManifestAnalyzer(m)).Generate(context.Background(), m.Routes)
	require.NoError(t, err)
	require.NotNil(t, res.Document)
	return res
}

func operation(t *testing.T, doc *spec.Document, path string, method spec.HttpMethod) *spec.Operation {
	t.Helper()
	item, ok := doc.Paths.Get(path)
	require.True(t, ok, "missing path %s", path)
	op := item.Operation(method)
	require.NotNil(t, op, "missing %s %s", method, path)
	return op
}

func media(t *testing.T, content *spec.OrderedMap[*spec.MediaType], mime string) *spec.MediaType {
	t.Helper()
	require.NotNil(t, content)
	mt, ok := content.Get(mime)
	require.True(t, ok, "missing media type %s, have %v", mime, content.Keys())
	return mt
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

func TestGenerateRequestBodyFromFormRequest(t *testing.T) {
	t.Parallel()
	res := generate(t, testConfig(), shopManifest)
	op := operation(t, res.Document, "/api/products", spec.POST)

	require.NotNil(t, op.RequestBody)
	assert.True(t, op.RequestBody.Required)
	mt := media(t, op.RequestBody.Content, MediaJSON)
	assert.JSONEq(t, `{
		"type": "object",
		"properties": {
			"name": {"type": "string", "maxLength": 255},
			"price": {"type": "number", "minimum": 0}
		},
		"required": ["name", "price"]
	}`, toJSON(t, mt.Schema))

	ex, ok := mt.Example.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, ex, "name")
	assert.Contains(t, ex, "price")

	assert.Equal(t, "201", op.Responses.Keys()[0])
	assert.Equal(t, "Create product", op.Summary)
	assert.Equal(t, "productsStore", op.OperationID)
	assert.Equal(t, []string{"Product"}, op.Tags)
}

func TestGenerateValidationResponseUsesCustomMessages(t *testing.T) {
	t.Parallel()
	res := generate(t, testConfig(), shopManifest)
	op := operation(t, res.Document, "/api/products", spec.POST)

	assert.Equal(t, []string{"201", "401", "403", "422", "500"}, op.Responses.Keys())
	resp, _ := op.Responses.Get("422")
	assert.Equal(t, "Validation Error", resp.Description)
	mt := media(t, resp.Content, MediaJSON)
	ex := mt.Example.(map[string]any)
	assert.Equal(t, "A product needs a name. (and 1 more error)", ex["message"])
	errs := ex["errors"].(map[string]any)
	assert.Equal(t, []any{"A product needs a name."}, errs["name"])
	assert.Equal(t, []any{"The unit price field is required."}, errs["price"])
}

func TestGenerateConditionalRulesBecomeOneOf(t *testing.T) {
	t.Parallel()
	res := generate(t, testConfig(), shopManifest)

	for _, method := range []spec.HttpMethod{spec.PUT, spec.PATCH} {
		op := operation(t, res.Document, "/api/products/{product}", method)
		require.NotNil(t, op.RequestBody)
		mt := media(t, op.RequestBody.Content, MediaJSON)
		require.Len(t, mt.Schema.OneOf, 2)
		assert.Nil(t, mt.Example)

		create, update := mt.Schema.OneOf[0], mt.Schema.OneOf[1]
		assert.Equal(t, "Create Product (POST) Request", create.Title)
		assert.Equal(t, "Update Product (PUT) Request", update.Title)
		assert.Equal(t, []string{"sku"}, create.Required)
		assert.Empty(t, update.Required)
		assert.NotNil(t, create.Example)
		assert.NotNil(t, update.Example)
	}

	put := operation(t, res.Document, "/api/products/{product}", spec.PUT)
	patch := operation(t, res.Document, "/api/products/{product}", spec.PATCH)
	assert.Equal(t, "productsUpdatePut", put.OperationID)
	assert.Equal(t, "productsUpdatePatch", patch.OperationID)

	require.Len(t, put.Parameters, 1)
	p := put.Parameters[0]
	assert.Equal(t, "product", p.Name)
	assert.Equal(t, "path", p.In)
	assert.True(t, p.Required)
	assert.Equal(t, spec.TypeInteger, p.Schema.Type.Primary())
}

func TestGenerateMultipartUpload(t *testing.T) {
	t.Parallel()
	res := generate(t, testConfig(), shopManifest)
	op := operation(t, res.Document, "/api/users/{user}/avatar", spec.POST)

	require.NotNil(t, op.RequestBody)
	assert.Equal(t, []string{MediaMultipart}, op.RequestBody.Content.Keys())
	mt := media(t, op.RequestBody.Content, MediaMultipart)
	avatar := mt.Schema.Property("avatar")
	require.NotNil(t, avatar)
	assert.Equal(t, spec.TypeString, avatar.Type.Primary())
	assert.Equal(t, "binary", avatar.Format)
	assert.Contains(t, avatar.Description, "Allowed types: jpeg, png")
	assert.Contains(t, avatar.Description, "Max size: 2MB")
	assert.True(t, mt.Schema.IsRequired("avatar"))

	ok, _ := op.Responses.Get("204")
	require.NotNil(t, ok)
	assert.Nil(t, ok.Content)
	assert.True(t, op.Responses.Has("422"))
}

func TestGeneratePaginatedCollection(t *testing.T) {
	t.Parallel()
	res := generate(t, testConfig(), shopManifest)
	op := operation(t, res.Document, "/api/products", spec.GET)

	item, _ := res.Document.Paths.Get("/api/products")
	assert.Nil(t, item.Operation(spec.HEAD))
	assert.Equal(t, "List products", op.Summary)
	assert.Equal(t, "productsIndex", op.OperationID)

	var names []string
	for _, p := range op.Parameters {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"search", "page", "per_page"}, names)

	resp, _ := op.Responses.Get("200")
	require.NotNil(t, resp)
	s := media(t, resp.Content, MediaJSON).Schema
	assert.True(t, s.Properties.Has("total"))
	assert.True(t, s.Properties.Has("current_page"))
	data := s.Property("data")
	require.NotNil(t, data)
	assert.Equal(t, spec.ComponentRef("ProductResource"), data.Items.Ref)

	assert.Equal(t, []string{"200", "401", "403", "404", "422", "500"}, op.Responses.Keys())
}

func TestGenerateResourceComponents(t *testing.T) {
	t.Parallel()
	res := generate(t, testConfig(), shopManifest)
	schemas := res.Document.Components.Schemas
	require.NotNil(t, schemas)
	assert.Equal(t, []string{"ProductResource", "UserResource"}, schemas.Keys())

	user, _ := schemas.Get("UserResource")
	assert.Equal(t, "A registered user.", user.Description)
	assert.Equal(t, []string{"id", "name", "email", "created_at"}, user.Required)
	assert.True(t, user.Property("deleted_at").Nullable)

	op := operation(t, res.Document, "/api/users/{user}", spec.GET)
	resp, _ := op.Responses.Get("200")
	mt := media(t, resp.Content, MediaJSON)
	assert.Equal(t, spec.ComponentRef("UserResource"), mt.Schema.Property("data").Ref)
	ex := mt.Example.(map[string]any)
	data, ok := ex["data"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data, "email")
	assert.Empty(t, res.Warnings)
}

func TestGenerateHoistsSharedSecurity(t *testing.T) {
	t.Parallel()
	res := generate(t, testConfig(), shopManifest)
	doc := res.Document

	assert.Equal(t, spec.SecurityRequirements{spec.NewSecurityRequirement(SchemeBearer)}, doc.Security)
	doc.Paths.Each(func(_ string, item *spec.PathItem) {
		for _, mo := range item.Operations() {
			assert.Nil(t, mo.Operation.Security)
		}
	})
	require.NotNil(t, doc.Components.SecuritySchemes)
	assert.Equal(t, []string{SchemeBearer}, doc.Components.SecuritySchemes.Keys())
}

func TestGenerateMixedSecurityStaysOnOperations(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	m := loadManifest(t, shopManifest)
	routes := append(m.Routes, analysis.Route{URI: "api/status", Methods: []string{"GET"}})

	res, err := New(cfg, analysis.NewManifestAnalyzer(m)).Generate(context.Background(), routes)
	require.NoError(t, err)
	assert.Empty(t, res.Document.Security)

	status := operation(t, res.Document, "/api/status", spec.GET)
	assert.Nil(t, status.Security)
	assert.False(t, status.Responses.Has("401"))

	store := operation(t, res.Document, "/api/products", spec.POST)
	require.NotNil(t, store.Security)
	assert.Equal(t, spec.SecurityRequirements{spec.NewSecurityRequirement(SchemeBearer)}, *store.Security)
}

func TestGenerateTagsAndGroups(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Tags = []config.TagRule{{Pattern: "api/users/*", Tag: "Accounts"}}
	cfg.TagDescriptions = map[string]string{"Accounts": "User accounts", "Billing": "Unused"}
	cfg.TagGroups = []any{
		map[string]any{"name": "Shop", "tags": []any{"Product", "Billing"}},
		map[string]any{"name": "Finance", "tags": []any{"Billing"}},
	}
	res := generate(t, cfg, shopManifest)

	assert.Equal(t, []spec.Tag{{Name: "Product"}, {Name: "Accounts", Description: "User accounts"}}, res.Document.Tags)
	assert.Equal(t, []spec.TagGroup{{Name: "Shop", Tags: []string{"Product"}}}, res.Document.TagGroups)
}

func TestGenerateIsDeterministic(t *testing.T) {
	t.Parallel()
	m := loadManifest(t, shopManifest)
	g := New(testConfig(), analysis.NewManifestAnalyzer(m))

	first, err := g.Generate(context.Background(), m.Routes)
	require.NoError(t, err)
	second, err := g.Generate(context.Background(), m.Routes)
	require.NoError(t, err)
	other, err := New(testConfig(), analysis.NewManifestAnalyzer(m)).Generate(context.Background(), m.Routes)
	require.NoError(t, err)

	a, err := spec.Encode(first.Document, spec.FormatJSON)
	require.NoError(t, err)
	b, err := spec.Encode(second.Document, spec.FormatJSON)
	require.NoError(t, err)
	c, err := spec.Encode(other.Document, spec.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, string(a), string(c))
}

func TestGenerateClearsRegistryBetweenCalls(t *testing.T) {
	t.Parallel()
	m := loadManifest(t, shopManifest)
	g := New(testConfig(), analysis.NewManifestAnalyzer(m))

	first, err := g.Generate(context.Background(), m.Routes)
	require.NoError(t, err)
	require.NotNil(t, first.Document.Components.Schemas)

	var avatarOnly []analysis.Route
	for _, r := range m.Routes {
		if strings.HasSuffix(r.URI, "avatar") {
			avatarOnly = append(avatarOnly, r)
		}
	}
	second, err := g.Generate(context.Background(), avatarOnly)
	require.NoError(t, err)
	assert.Nil(t, second.Document.Components.Schemas)
	assert.Equal(t, 1, second.Document.Paths.Len())
}

func TestGenerateDocumentPassesValidation(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.ExampleGeneration.OptionalFields = "random"
	res := generate(t, cfg, shopManifest)
	for _, w := range res.Warnings {
		assert.NotContains(t, w, "document validation")
	}
	assert.Empty(t, res.Failures)
	assert.NoError(t, spec.Validate(context.Background(), res.Document))
}

func TestGenerateOpenAPI31(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.OpenAPIVersion = "3.1.0"
	res := generate(t, cfg, shopManifest)

	assert.Equal(t, "3.1.0", res.Document.OpenAPI)
	user, ok := res.Document.Components.Schemas.Get("UserResource")
	require.True(t, ok)
	deleted := user.Property("deleted_at")
	assert.False(t, deleted.Nullable)
	assert.Equal(t, spec.Types{spec.TypeString, spec.TypeNull}, deleted.Type)

	op := operation(t, res.Document, "/api/users/{user}/avatar", spec.POST)
	avatar := media(t, op.RequestBody.Content, MediaMultipart).Schema.Property("avatar")
	assert.Empty(t, avatar.Format)
	assert.Equal(t, "application/octet-stream", avatar.ContentMediaType)
}

const brokenManifest = `
routes:
  - uri: api/orders
    methods: [POST]
    controller: OrderController
    action: store
  - uri: api/orders/{order}
    methods: [GET]
    controller: OrderController
    action: show
  - uri: api/orders/{order}/lines
    methods: [GET]
    controller: OrderLineController
    action: index
controllers:
  OrderController@store:
    form_request: App\Http\Requests\MissingRequest
  OrderController@show:
    resource: App\Http\Resources\MissingResource
  OrderLineController@index:
    resource: App\Http\Resources\OrderLineResource
    returns_collection: true
resources:
  App\Http\Resources\OrderLineResource:
    fields:
      id: integer
      product:
        resource: App\Http\Resources\GoneResource
`

func TestGenerateRecordsFailuresAndKeepsGoing(t *testing.T) {
	t.Parallel()
	res := generate(t, testConfig(), brokenManifest)
	assert.Equal(t, 3, res.Document.Paths.Len())

	stages := map[string]*OperationError{}
	for _, f := range res.Failures {
		stages[f.Method+" "+f.URI] = f
	}

	store := stages["post api/orders"]
	require.NotNil(t, store)
	assert.Equal(t, StageRequest, store.Stage)
	assert.ErrorIs(t, store, analysis.ErrNotFound)
	op := operation(t, res.Document, "/api/orders", spec.POST)
	require.NotNil(t, op.RequestBody)
	body := media(t, op.RequestBody.Content, MediaJSON).Schema
	assert.Equal(t, spec.TypeObject, body.Type.Primary())
	assert.Nil(t, body.Properties)

	show := stages["get api/orders/{order}"]
	require.NotNil(t, show)
	assert.Equal(t, StageResponse, show.Stage)
	op = operation(t, res.Document, "/api/orders/{order}", spec.GET)
	resp, ok := op.Responses.Get("200")
	require.True(t, ok)
	assert.Equal(t, spec.TypeObject, media(t, resp.Content, MediaJSON).Schema.Type.Primary())
	assert.True(t, op.Responses.Has("404"))

	assert.Nil(t, stages["get api/orders/{order}/lines"])
	assert.Contains(t, res.Warnings, "unresolved schema reference: GoneResource")
}

type panickingAnalyzer struct {
	*analysis.ManifestAnalyzer
}

func (panickingAnalyzer) AnalyzeResource(context.Context, string) (*analysis.ResourceInfo, error) {
	panic("resource parser crashed")
}

func TestGenerateRecoversFromPanics(t *testing.T) {
	t.Parallel()
	m := loadManifest(t, shopManifest)
	a := panickingAnalyzer{analysis.NewManifestAnalyzer(m)}
	res, err := New(testConfig(), a).Generate(context.Background(), m.Routes)
	require.NoError(t, err)

	var responseFailures int
	for _, f := range res.Failures {
		if f.Stage == StageResponse {
			responseFailures++
			assert.Contains(t, f.Error(), "panic: resource parser crashed")
		}
	}
	assert.Positive(t, responseFailures)

	op := operation(t, res.Document, "/api/users/{user}", spec.GET)
	assert.True(t, op.Responses.Has("200"))
}

func TestGenerateCallbacks(t *testing.T) {
	t.Parallel()
	src := `
routes:
  - uri: api/subscriptions
    methods: [POST]
    controller: SubscriptionController
    action: store
controllers:
  SubscriptionController@store:
    rules:
      rules:
        callback_url: "required|url"
    callbacks:
      - name: onEvent
        expression: "{$request.body#/callback_url}"
        fields:
          event: string
          occurred_at:
            type: string
            format: date-time
      - name: onEvent
        expression: "{$request.body#/callback_url}/retry"
        method: put
      - name: ignored
        expression: ""
`
	res := generate(t, testConfig(), src)
	op := operation(t, res.Document, "/api/subscriptions", spec.POST)
	require.NotNil(t, op.Callbacks)
	assert.Equal(t, []string{"onEvent"}, op.Callbacks.Keys())

	cb, _ := op.Callbacks.Get("onEvent")
	assert.Equal(t, []string{"{$request.body#/callback_url}", "{$request.body#/callback_url}/retry"}, cb.Keys())
	first, _ := cb.Get("{$request.body#/callback_url}")
	post := first.Operation(spec.POST)
	require.NotNil(t, post)
	require.NotNil(t, post.RequestBody)
	assert.True(t, media(t, post.RequestBody.Content, MediaJSON).Schema.Properties.Has("occurred_at"))
	retry, _ := cb.Get("{$request.body#/callback_url}/retry")
	assert.NotNil(t, retry.Operation(spec.PUT))

	cfg := testConfig()
	cfg.Callbacks.Enabled = false
	res = generate(t, cfg, src)
	assert.Nil(t, operation(t, res.Document, "/api/subscriptions", spec.POST).Callbacks)
}

func TestGenerateSkipsDuplicateOperations(t *testing.T) {
	t.Parallel()
	src := `
routes:
  - uri: api/items
    methods: [GET]
  - uri: /api/items/
    methods: [GET]
  - uri: api/items
    methods: [CONNECT]
`
	res := generate(t, testConfig(), src)
	assert.Equal(t, 1, res.Document.Paths.Len())
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "duplicate operation GET /api/items")
	assert.Contains(t, res.Warnings[1], "no supported methods")
}

func TestGenerateStopsOnCancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil, nil).Generate(ctx, []analysis.Route{{URI: "a", Methods: []string{"GET"}}})
	assert.ErrorIs(t, err, context.Canceled)
}
