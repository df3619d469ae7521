// Package job defines the manifest handed from the fcbot driver process to
// the CAD host process, and the executor that runs it inside the host. The
// manifest is pure data: a version, run metadata, and one job descriptor per
// configured output.
package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/asymworks/fcbot/document"
	"github.com/asymworks/fcbot/outputs"
	"github.com/asymworks/fcbot/runlog"
)

// ManifestVersion is the manifest format version this build emits and the
// highest version it accepts.
const ManifestVersion = 1

// ErrManifestVersion is returned when a manifest carries a version this
// build does not understand.
var ErrManifestVersion = errors.New("job: unsupported manifest version")

// Manifest is the unit of cross-process transfer: everything the host needs
// to reconstruct and run the configured outputs. Unknown fields from newer
// writers are ignored on read.
type Manifest struct {
	Version   int                  `json:"version"`
	Input     string               `json:"input"`
	OutputDir string               `json:"output_dir,omitempty"`
	LogLevel  string               `json:"log_level,omitempty"`
	Jobs      []outputs.Descriptor `json:"jobs"`
}

// New builds a manifest from constructed runners.
func New(input, outputDir, logLevel string, runners []outputs.Runner) (*Manifest, error) {
	m := &Manifest{
		Version:   ManifestVersion,
		Input:     input,
		OutputDir: outputDir,
		LogLevel:  logLevel,
		Jobs:      make([]outputs.Descriptor, 0, len(runners)),
	}
	for _, r := range runners {
		d, err := r.Descriptor()
		if err != nil {
			return nil, fmt.Errorf("job: describe %s: %w", r.Name(), err)
		}
		m.Jobs = append(m.Jobs, d)
	}
	return m, nil
}

// Write serializes the manifest to path.
func Write(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("job: marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("job: write manifest: %w", err)
	}
	return nil
}

// Read loads and version-checks a manifest file.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("job: read manifest: %w", err)
	}
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("job: parse manifest: %w", err)
	}
	if m.Version < 1 || m.Version > ManifestVersion {
		return nil, fmt.Errorf("%w: %d", ErrManifestVersion, m.Version)
	}
	return m, nil
}

// Executor runs a manifest against an open host document, one output at a
// time, strictly sequentially.
type Executor struct {
	logger *slog.Logger
	store  *runlog.Store
	runID  string
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the executor logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option { return func(e *Executor) { e.logger = l } }

// WithRunLog records per-output results to the given store.
func WithRunLog(s *runlog.Store) Option { return func(e *Executor) { e.store = s } }

// NewExecutor creates an executor with a fresh run ID.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		logger: slog.Default(),
		runID:  uuid.NewString(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// RunID returns the identifier under which this executor records results.
func (e *Executor) RunID() string { return e.runID }

// Execute reconstructs every runner from the manifest and runs them in
// order. All runners are rehydrated up front, so an unsupported type or a
// malformed spec aborts before any export starts. An output that fails
// during its own export is recorded and skipped; any other failure stops the
// batch and is returned.
func (e *Executor) Execute(ctx context.Context, doc document.Document, host document.Host, m *Manifest) error {
	runners := make([]outputs.Runner, 0, len(m.Jobs))
	for i, d := range m.Jobs {
		r, err := outputs.FromDescriptor(d, e.logger)
		if err != nil {
			return fmt.Errorf("job: jobs[%d]: %w", i, err)
		}
		runners = append(runners, r)
	}

	for _, r := range runners {
		start := time.Now()
		err := outputs.Run(ctx, r, doc, host)

		var execErr *outputs.ExecError
		switch {
		case err == nil:
			e.record(ctx, r, "ok", "", time.Since(start))
		case errors.As(err, &execErr):
			e.record(ctx, r, "failed", execErr.Err.Error(), time.Since(start))
		default:
			e.record(ctx, r, "aborted", err.Error(), time.Since(start))
			return err
		}
	}
	return nil
}

func (e *Executor) record(ctx context.Context, r outputs.Runner, status, detail string, d time.Duration) {
	if e.store == nil {
		return
	}
	err := e.store.Record(ctx, runlog.Entry{
		RunID:      e.runID,
		Output:     r.Name(),
		OutputType: r.OutputType(),
		Filename:   r.Filename(),
		Status:     status,
		Detail:     detail,
		Duration:   d,
	})
	if err != nil {
		// A failing history store never blocks the batch.
		e.logger.Warn("run log record failed", "output", r.Name(), "error", err)
	}
}
