package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const minimalManifestYAML = `
routes:
  - uri: api/hello
    methods: [GET]
    controller: HelloController
    action: index
  - uri: api/hello
    methods: [POST]
    controller: HelloController
    action: store
  - uri: internal/health
    methods: [GET]
controllers:
  HelloController@index:
    resource: App\Http\Resources\GreetingResource
  HelloController@store:
    rules:
      rules:
        message: "required|string|max:140"
    resource: App\Http\Resources\GreetingResource
resources:
  App\Http\Resources\GreetingResource:
    fields:
      id: integer
      message: string
`

func captureStdout(fn func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()
	fn()
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func writeManifest(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "manifest.yaml")
	if err := os.WriteFile(path, []byte(minimalManifestYAML), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestGeneratePipeline_DryRun(t *testing.T) {
	dir := t.TempDir()
	manifest := writeManifest(t, dir)
	out := filepath.Join(dir, "docs", "openapi.yaml")

	stdout := captureStdout(func() {
		if err := execute("generate", "--input", manifest, "--out", out, "--seed", "1", "--dry-run"); err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	if !strings.Contains(stdout, "Planned writes to") || !strings.Contains(stdout, "(yaml, ") {
		t.Fatalf("expected dry-run plan output, got: %s", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "docs")); err == nil {
		t.Fatalf("expected no writes on dry-run")
	}
}

func TestGeneratePipeline_WritesDocument(t *testing.T) {
	dir := t.TempDir()
	manifest := writeManifest(t, dir)
	out := filepath.Join(dir, "openapi.json")

	stdout := captureStdout(func() {
		err := execute("generate", "--input", manifest, "--out", out, "--seed", "1", "--include", "api/*", "--title", "Greeter")
		if err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	if !strings.Contains(stdout, "Wrote ") {
		t.Fatalf("expected summary output, got: %s", stdout)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var doc struct {
		OpenAPI string `json:"openapi"`
		Info    struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths      map[string]map[string]any `json:"paths"`
		Components struct {
			Schemas map[string]any `json:"schemas"`
		} `json:"components"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not json: %v", err)
	}
	if doc.OpenAPI != "3.0.3" || doc.Info.Title != "Greeter" {
		t.Fatalf("unexpected header: %s %q", doc.OpenAPI, doc.Info.Title)
	}
	hello, ok := doc.Paths["/api/hello"]
	if !ok || len(doc.Paths) != 1 {
		t.Fatalf("expected only /api/hello after filtering, got %v", doc.Paths)
	}
	if _, ok := hello["get"]; !ok {
		t.Fatalf("missing get operation")
	}
	if _, ok := hello["post"]; !ok {
		t.Fatalf("missing post operation")
	}
	if _, ok := doc.Components.Schemas["GreetingResource"]; !ok {
		t.Fatalf("missing GreetingResource component: %v", doc.Components.Schemas)
	}

	// A second run refuses to overwrite without --force.
	err = execute("generate", "--input", manifest, "--out", out)
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error for existing output, got %v", err)
	}
	captureStdout(func() {
		if err := execute("generate", "--input", manifest, "--out", out, "--force"); err != nil {
			t.Fatalf("execute with --force: %v", err)
		}
	})
}

func TestGeneratePipeline_OpenAPI31(t *testing.T) {
	dir := t.TempDir()
	manifest := writeManifest(t, dir)
	out := filepath.Join(dir, "openapi.yaml")

	captureStdout(func() {
		if err := execute("generate", "--input", manifest, "--out", out, "--openapi-version", "3.1.0"); err != nil {
			t.Fatalf("execute: %v", err)
		}
	})
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "openapi: 3.1.0") {
		t.Fatalf("expected a 3.1 yaml document, got:\n%s", data)
	}
}

func TestGeneratePipeline_MissingManifest(t *testing.T) {
	t.Parallel()
	err := execute("generate", "--input", filepath.Join(t.TempDir(), "missing.yaml"), "--dry-run")
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "manifest") {
		t.Fatalf("unexpected error text: %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected the not-exist cause to be kept, got %v", err)
	}
}

func TestGeneratePipeline_BadFilter(t *testing.T) {
	t.Parallel()
	manifest := writeManifest(t, t.TempDir())
	err := execute("generate", "--input", manifest, "--filter", "uri +", "--dry-run")
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}
