package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const defaultConfigName = "rulespec.yaml"

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample rulespec configuration file",
		Long:  "Scaffold a commented rulespec configuration file that documents available options.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath: out,
				Force:      force,
				Verbose:    verbose,
			}
			return initRunner(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("out", defaultConfigName, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigName
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return usageErrorf("init: %q already exists (use --force to overwrite)", absPath)
		}
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return usageErrorf("init: cannot create parent directory: %w", err)
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"

	// Atomic write via temp + rename
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return usageErrorf("init: cannot write temp file: %w\nHint: choose a different --out or check directory permissions.", err)
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return usageErrorf("init: cannot place file at %s: %w", absPath, err)
	}
	fmt.Fprintf(os.Stdout, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML is a commented example config documenting available options.
const sampleConfigYAML = `# rulespec configuration (YAML)
# All fields are optional. Command-line flags override config values.

# Analysis manifest with routes, controllers, form requests and resources.
# input: ./manifest.yaml

# 3.0.x (validated) or 3.1.x.
openapi_version: 3.0.3

title: API Documentation
version: 1.0.0
# description: Public HTTP API
# terms_of_service: https://example.com/terms
# contact:
#   name: API Team
#   email: api@example.com
# license:
#   name: MIT

# servers:
#   - url: https://api.example.com
#     description: Production

# Tag rules: URI glob or ^regexp mapped to a tag. Unmatched routes are
# tagged from their first static path segment.
# tags:
#   - pattern: "api/admin/*"
#     tag: Admin
# tag_descriptions:
#   Admin: Back office endpoints
# tag_groups:
#   - name: Management
#     tags: [Admin]

authentication:
  # Hoist a requirement shared by every route to the document level.
  global: true
  # schemes:
  #   apiKey:
  #     type: apiKey
  #     name: X-API-Key
  #     in: header
  # middleware:
  #   - name: auth:sanctum
  #     scheme: apiKey

example_generation:
  # 0 picks a random seed; set one for reproducible output.
  seed: 0
  # random (uses optional_probability) or always.
  optional_fields: random
  optional_probability: 0.7
  # Reference time for date examples (RFC 3339).
  # now: "2024-01-01T00:00:00Z"

responses:
  # Envelope key of resource responses; empty disables wrapping.
  wrap: data

# routes:
#   include: ["api/*"]
#   exclude: ["^api/internal/.*"]
#   methods: [GET, POST]
#   filter: '!("internal" in middleware)'

error_responses:
  enabled: true

callbacks:
  enabled: true

output:
  path: openapi.json
  # json or yaml
  format: json
`
