// Package outputs implements the fcbot output pipeline: a registry of
// output-type runners, the object collection engine, and the write-verify-
// then-commit export protocol. Runners are constructed from validated config
// in the driver process, rendered to pure-data job descriptors, and
// rehydrated inside the host process for execution.
package outputs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/asymworks/fcbot/config"
	"github.com/asymworks/fcbot/document"
)

// Runner is one configured export step. Concrete runners embed Base and
// implement Execute (and usually CheckItem).
type Runner interface {
	// Name is the resolved step name used in log messages.
	Name() string
	// Comment is the optional long comment, logged once before the run.
	Comment() string
	// Filename is the configured output filename, relative to the base dir.
	Filename() string
	// OutputType is the configured type tag.
	OutputType() string
	// Selection describes which objects this step targets.
	Selection() config.Selection
	// Logger returns the step-scoped logger.
	Logger() *slog.Logger
	// CheckItem reports whether this runner can export the given object.
	CheckItem(obj document.Object) bool
	// Execute exports items to outFile using the host primitives. Errors
	// are local to this output and do not abort the batch.
	Execute(ctx context.Context, doc document.Document, host document.Host, items []document.Object, outFile string) error
	// OutputPath resolves and prepares the final output path.
	OutputPath() (string, error)
	// Descriptor renders the runner as a pure-data job descriptor.
	Descriptor() (Descriptor, error)
}

// Base carries the resolved spec and shared behavior for all runners.
type Base struct {
	spec    config.Output
	baseDir string
	logger  *slog.Logger
}

func newBase(spec config.Output, baseDir string, logger *slog.Logger) Base {
	return Base{
		spec:    spec,
		baseDir: baseDir,
		logger:  logger.With("output", spec.Name),
	}
}

func (b *Base) Name() string                { return b.spec.Name }
func (b *Base) Comment() string             { return b.spec.Comment }
func (b *Base) Filename() string            { return b.spec.Filename }
func (b *Base) OutputType() string          { return b.spec.Type }
func (b *Base) Selection() config.Selection { return b.spec.Objects }
func (b *Base) Logger() *slog.Logger        { return b.logger }

// CheckItem accepts everything by default.
func (b *Base) CheckItem(obj document.Object) bool { return true }

// OutputPath resolves the configured filename against the base directory,
// creating missing parent directories. A path that exists as anything but a
// regular file is rejected; an existing file logs an overwrite warning.
func (b *Base) OutputPath() (string, error) {
	fn := b.spec.Filename
	if b.baseDir != "" && !filepath.IsAbs(fn) {
		fn = filepath.Join(b.baseDir, fn)
	}
	abs, err := filepath.Abs(fn)
	if err != nil {
		return "", fmt.Errorf("outputs: resolve %s: %w", fn, err)
	}

	dir := filepath.Dir(abs)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		b.logger.Info("output directory does not exist and will be created", "dir", dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("outputs: create %s: %w", dir, err)
		}
	}

	if info, err := os.Stat(abs); err == nil {
		if !info.Mode().IsRegular() {
			b.logger.Error("output path exists and is not a file", "path", abs)
			return "", fmt.Errorf("outputs: output path %s is not a file", abs)
		}
		b.logger.Warn("output file exists and will be overwritten", "path", abs)
	}
	return abs, nil
}

// stage runs fn with a private temporary export directory that is removed on
// every exit path.
func (b *Base) stage(fn func(dir string) error) error {
	dir, err := os.MkdirTemp("", "fcbot-export-*")
	if err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	defer os.RemoveAll(dir)
	b.logger.Debug("using temporary export directory", "dir", dir)
	return fn(dir)
}

// commit verifies that the host produced the staged export file, then copies
// it to the final path and discards the staged copy. The final path is never
// touched unless the staged file verified.
func (b *Base) commit(staged, final string) error {
	info, err := os.Stat(staged)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("host did not generate export file %s", staged)
	}
	b.logger.Debug("committing export file", "from", staged, "to", final)
	if err := copyFile(staged, final); err != nil {
		return fmt.Errorf("commit %s: %w", final, err)
	}
	return os.Remove(staged)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Run drives one runner through its lifecycle: collect, resolve the output
// path, execute, report. Collection and path failures are fatal and returned
// as-is; Execute failures are logged and returned as *ExecError so the
// pipeline can skip this output and continue.
func Run(ctx context.Context, r Runner, doc document.Document, host document.Host) error {
	log := r.Logger()
	if c := r.Comment(); c != "" {
		log.Info("running output", "comment", c)
	} else {
		log.Info("running output")
	}

	items, err := collect(r, doc)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		log.Warn("no items were collected for processing")
		return nil
	}

	labels := make([]string, len(items))
	for i, obj := range items {
		labels[i] = obj.Label()
	}
	log.Debug("collected objects for processing", "count", len(items), "labels", labels)

	outFile, err := r.OutputPath()
	if err != nil {
		return err
	}

	if err := r.Execute(ctx, doc, host, items, outFile); err != nil {
		log.Error("output failed", "error", err)
		return &ExecError{Output: r.Name(), Err: err}
	}

	log.Info("completed")
	return nil
}
