package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mark3labs/rulespec/internal/analysis"
	"github.com/mark3labs/rulespec/internal/config"
	"github.com/mark3labs/rulespec/internal/emitter"
	"github.com/mark3labs/rulespec/internal/generator"
	"github.com/mark3labs/rulespec/internal/spec"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input          string
	Out            string
	Format         spec.Format
	ConfigPath     string
	DryRun         bool
	Force          bool
	Strict         bool
	SkipValidation bool
	Verbose        bool
	// Settings is the generator configuration with flag overrides applied.
	Settings *config.Config
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an OpenAPI document from an analysis manifest",
		Long: "Generate an OpenAPI document from an analysis manifest. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  rulespec generate --input manifest.yaml --out openapi.yaml
  rulespec --config rulespec.yaml generate --openapi-version 3.1.0 --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringP("input", "i", "", "Path to the analysis manifest (YAML or JSON)")
	flags.StringP("out", "o", "", "Output file (defaults to openapi.json)")
	flags.String("format", "", "Output format (json|yaml); inferred from --out when omitted")
	flags.String("openapi-version", "", "OpenAPI version to emit (3.0.x or 3.1.x)")
	flags.String("title", "", "Override info.title")
	flags.Int64("seed", 0, "Seed for example generation; 0 picks a random seed")
	flags.StringSlice("include", nil, "Only include routes whose URI matches these globs or ^regexps")
	flags.StringSlice("exclude", nil, "Exclude routes whose URI matches these globs or ^regexps")
	flags.StringSlice("methods", nil, "Only include routes declaring these HTTP methods")
	flags.String("filter", "", "Boolean expression over uri, methods, name, controller, action, middleware")
	flags.Bool("no-validate", false, "Skip structural validation of the generated document")
	flags.Bool("strict", false, "Fail when any operation degraded or a warning was reported")
	flags.Bool("dry-run", false, "Preview the planned write without touching the filesystem")
	flags.Bool("force", false, "Overwrite an existing output file")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)

	settings := config.Default()
	if configPath != "" {
		settings, err = config.Load(configPath)
		if err != nil {
			return nil, usageErrorf("read config file %q: %w", configPath, err)
		}
	}

	format, err := spec.ParseFormat(settings.Output.Format)
	if err != nil {
		return nil, usageErrorf("config field %q: %v", "output.format", err)
	}
	cfg := &GenerateConfig{
		Input:      settings.Input,
		Out:        settings.Output.Path,
		Format:     format,
		ConfigPath: configPath,
		Settings:   settings,
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	s := cfg.Settings
	if flags.Changed("input") {
		value, err := flags.GetString("input")
		if err != nil {
			return err
		}
		cfg.Input = strings.TrimSpace(value)
	}
	if flags.Changed("out") {
		value, err := flags.GetString("out")
		if err != nil {
			return err
		}
		cfg.Out = strings.TrimSpace(value)
		cfg.Format = emitter.FormatFor(cfg.Out)
	}
	if flags.Changed("format") {
		value, err := flags.GetString("format")
		if err != nil {
			return err
		}
		format, err := spec.ParseFormat(value)
		if err != nil {
			return usageErrorf("generate: unsupported --format %q (allowed: json, yaml)", value)
		}
		cfg.Format = format
	}
	if flags.Changed("openapi-version") {
		value, err := flags.GetString("openapi-version")
		if err != nil {
			return err
		}
		s.OpenAPIVersion = strings.TrimSpace(value)
	}
	if flags.Changed("title") {
		value, err := flags.GetString("title")
		if err != nil {
			return err
		}
		s.Title = strings.TrimSpace(value)
	}
	if flags.Changed("seed") {
		value, err := flags.GetInt64("seed")
		if err != nil {
			return err
		}
		s.ExampleGeneration.Seed = value
	}
	if flags.Changed("include") {
		value, err := flags.GetStringSlice("include")
		if err != nil {
			return err
		}
		s.Routes.Include = sanitizeList(value)
	}
	if flags.Changed("exclude") {
		value, err := flags.GetStringSlice("exclude")
		if err != nil {
			return err
		}
		s.Routes.Exclude = sanitizeList(value)
	}
	if flags.Changed("methods") {
		value, err := flags.GetStringSlice("methods")
		if err != nil {
			return err
		}
		s.Routes.Methods = sanitizeList(value)
	}
	if flags.Changed("filter") {
		value, err := flags.GetString("filter")
		if err != nil {
			return err
		}
		s.Routes.Filter = strings.TrimSpace(value)
	}
	for name, dst := range map[string]*bool{
		"no-validate": &cfg.SkipValidation,
		"strict":      &cfg.Strict,
		"dry-run":     &cfg.DryRun,
		"force":       &cfg.Force,
		"verbose":     &cfg.Verbose,
	} {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = value
	}

	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	if c.Out == "" {
		c.Out = config.Default().Output.Path
	}
	c.Settings.Routes.Include = sanitizeList(c.Settings.Routes.Include)
	c.Settings.Routes.Exclude = sanitizeList(c.Settings.Routes.Exclude)
	c.Settings.Routes.Methods = sanitizeList(c.Settings.Routes.Methods)
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: --input is required (set via flag or config file)")
	}
	if err := c.Settings.Validate(); err != nil {
		return usageErrorf("generate: %w", err)
	}

	overlap := intersect(c.Settings.Routes.Include, c.Settings.Routes.Exclude)
	if len(overlap) > 0 {
		return usageErrorf("generate: include/exclude patterns overlap: %s", strings.Join(overlap, ", "))
	}

	return nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// 1) Load the manifest and select routes
	manifest, err := analysis.LoadManifest(cfg.Input)
	if err != nil {
		return usageErrorf("manifest: %w", err)
	}
	routes, err := analysis.FilterRoutes(manifest.Routes,
		analysis.WithMethods(cfg.Settings.Routes.Methods),
		analysis.WithIncludePatterns(cfg.Settings.Routes.Include),
		analysis.WithExcludePatterns(cfg.Settings.Routes.Exclude),
		analysis.WithExpression(cfg.Settings.Routes.Filter),
	)
	if err != nil {
		return usageErrorf("routes: %w", err)
	}

	// 2) Build the document
	logger := newLogger(cfg.Verbose)
	logger.Debug("routes selected", "total", len(manifest.Routes), "selected", len(routes))
	gen := generator.New(cfg.Settings, analysis.NewManifestAnalyzer(manifest),
		generator.WithLogger(logger),
		generator.WithValidation(!cfg.SkipValidation),
	)
	res, err := gen.Generate(ctx, routes)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if cfg.Strict && (len(res.Failures) > 0 || len(res.Warnings) > 0) {
		return fmt.Errorf("generate: %d degraded operations and %d warnings (strict mode)", len(res.Failures), len(res.Warnings))
	}

	// 3) Write it
	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}
	out, err := emitter.Emit(ctx, res.Document, emitter.Options{
		Path:   cfg.Out,
		Format: cfg.Format,
		Force:  cfg.Force,
		DryRun: cfg.DryRun,
	})
	if err != nil {
		return wrapOutputError(err, absOut)
	}
	if cfg.DryRun {
		paths := make([]string, 0, len(out.Planned))
		for _, p := range out.Planned {
			paths = append(paths, fmt.Sprintf("%s (%s, %d bytes)", p.Path, out.Format, p.Size))
		}
		printPlan(absOut, paths)
		return nil
	}
	fmt.Fprintf(os.Stdout, "Wrote %s (%d paths, %d warnings, %d degraded operations)\n",
		absOut, res.Document.Paths.Len(), len(res.Warnings), len(res.Failures))
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func printPlan(out string, files []string) {
	fmt.Fprintf(os.Stdout, "Planned writes to %s (%d files):\n", out, len(files))
	for _, p := range files {
		fmt.Fprintf(os.Stdout, "- %s\n", p)
	}
}

func wrapOutputError(err error, out string) error {
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") ||
		strings.Contains(lower, "rename") || strings.Contains(lower, "exists") || strings.Contains(lower, "directory") {
		return usageErrorf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", out, msg)
	}
	return err
}

func sanitizeList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}
