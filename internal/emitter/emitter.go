package emitter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/rulespec/internal/spec"
)

// ErrExists is returned when the output file exists and Force is not set.
var ErrExists = errors.New("emitter: output file exists")

// Options controls how a document is written.
type Options struct {
	Path   string      // required; target file
	Format spec.Format // json or yaml; inferred from the extension when empty
	Force  bool        // overwrite an existing file
	DryRun bool        // don't write, only plan
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	Path string
	Size int
	Mode os.FileMode
}

// Result reports what was (or would be) written.
type Result struct {
	Format  spec.Format
	Planned []PlannedFile
	Written bool
}

// FormatFor infers the serialization from a file name. Unknown
// extensions fall back to JSON.
func FormatFor(path string) spec.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return spec.FormatYAML
	default:
		return spec.FormatJSON
	}
}

// Emit serializes doc and writes it to opts.Path.
func Emit(ctx context.Context, doc *spec.Document, opts Options) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("emitter: nil document")
	}
	if strings.TrimSpace(opts.Path) == "" {
		return nil, fmt.Errorf("emitter: Path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	format := opts.Format
	if format == "" {
		format = FormatFor(opts.Path)
	}
	content, err := spec.Encode(doc, format)
	if err != nil {
		return nil, fmt.Errorf("emitter: %w", err)
	}

	res := &Result{
		Format:  format,
		Planned: []PlannedFile{{Path: filepath.ToSlash(opts.Path), Size: len(content), Mode: 0o644}},
	}
	if opts.DryRun {
		return res, nil
	}
	if err := writeFile(opts.Path, content, opts.Force); err != nil {
		return nil, err
	}
	res.Written = true
	return res, nil
}

func writeFile(path string, content []byte, force bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if st, err := os.Stat(abs); err == nil {
		if st.IsDir() {
			return fmt.Errorf("emitter: output path %q is a directory", abs)
		}
		if !force {
			return fmt.Errorf("%w: %q (use --force to overwrite)", ErrExists, abs)
		}
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	// atomic write via temp file + rename
	tmp := abs + ".tmp-" + time.Now().Format("20060102150405")
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("write temp %s: %w", filepath.Base(abs), err)
	}
	if err := os.Rename(tmp, abs); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", filepath.Base(abs), err)
	}
	return nil
}
