package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a referenced class is unknown to the analyzer.
var ErrNotFound = errors.New("not found")

// Analyzer supplies the static facts the generator needs for each route.
type Analyzer interface {
	AnalyzeController(ctx context.Context, route Route) (*ControllerAnalysis, error)
	AnalyzeFormRequest(ctx context.Context, class string) (*RuleSet, error)
	AnalyzeResource(ctx context.Context, class string) (*ResourceInfo, error)
}

// Manifest is a pre-computed analysis of an application: its route table and
// the controller actions, form requests and resources those routes reference.
type Manifest struct {
	Routes      []Route                        `yaml:"routes"`
	Controllers map[string]*ControllerAnalysis `yaml:"controllers"`
	Requests    map[string]*RuleSet            `yaml:"requests"`
	Resources   map[string]*ResourceInfo       `yaml:"resources"`
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseManifest decodes a YAML (or JSON) manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	for i, r := range m.Routes {
		if strings.TrimSpace(r.URI) == "" {
			return nil, fmt.Errorf("parse manifest: route %d has no uri", i)
		}
		if len(r.Methods) == 0 {
			return nil, fmt.Errorf("parse manifest: route %s has no methods", r.URI)
		}
	}
	return &m, nil
}

// ManifestAnalyzer answers analysis queries from a Manifest.
type ManifestAnalyzer struct {
	m *Manifest
}

var _ Analyzer = (*ManifestAnalyzer)(nil)

// NewManifestAnalyzer wraps m. A nil manifest behaves as an empty one.
func NewManifestAnalyzer(m *Manifest) *ManifestAnalyzer {
	if m == nil {
		m = &Manifest{}
	}
	return &ManifestAnalyzer{m: m}
}

// AnalyzeController returns the analysis recorded for the route's action. An
// action missing from the manifest yields an empty analysis.
func (a *ManifestAnalyzer) AnalyzeController(ctx context.Context, route Route) (*ControllerAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c, ok := a.m.Controllers[route.Key()]; ok && c != nil {
		return c, nil
	}
	return &ControllerAnalysis{}, nil
}

func (a *ManifestAnalyzer) AnalyzeFormRequest(ctx context.Context, class string) (*RuleSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r, ok := a.m.Requests[class]; ok && r != nil {
		return r, nil
	}
	return nil, fmt.Errorf("form request %q: %w", class, ErrNotFound)
}

func (a *ManifestAnalyzer) AnalyzeResource(ctx context.Context, class string) (*ResourceInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r, ok := a.m.Resources[class]; ok && r != nil {
		return r, nil
	}
	return nil, fmt.Errorf("resource %q: %w", class, ErrNotFound)
}
