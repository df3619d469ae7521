package outputs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/asymworks/fcbot/config"
	"github.com/asymworks/fcbot/document"
)

func init() {
	Register("step", newSTEPRunner)
	Register("stl", newSTLRunner)
}

// STEPRunner exports the full collected set into one STEP file.
type STEPRunner struct {
	Base
}

func newSTEPRunner(spec config.Output, baseDir string, logger *slog.Logger) (Runner, error) {
	return &STEPRunner{Base: newBase(spec, baseDir, logger)}, nil
}

// CheckItem accepts objects carrying solid part geometry.
func (r *STEPRunner) CheckItem(obj document.Object) bool {
	if !obj.Has(document.CapPartShape) {
		r.Logger().Debug("object does not seem to be a solid", "object", obj.Label())
		return false
	}
	return true
}

func (r *STEPRunner) Execute(ctx context.Context, doc document.Document, host document.Host, items []document.Object, outFile string) error {
	log := r.Logger()
	return r.stage(func(dir string) error {
		staged := filepath.Join(dir, "export.step")
		log.Info("exporting items as STEP", "count", len(items), "to", outFile)
		if err := host.ExportSTEP(items, staged); err != nil {
			return fmt.Errorf("export STEP: %w", err)
		}
		if info, err := os.Stat(staged); err == nil && info.Size() == 0 {
			return fmt.Errorf("host generated an empty export file %s", staged)
		}
		return r.commit(staged, outFile)
	})
}

// STLRunner exports exactly one object's geometry into an STL file.
type STLRunner struct {
	Base
}

func newSTLRunner(spec config.Output, baseDir string, logger *slog.Logger) (Runner, error) {
	return &STLRunner{Base: newBase(spec, baseDir, logger)}, nil
}

// CheckItem accepts objects exposing geometry directly.
func (r *STLRunner) CheckItem(obj document.Object) bool {
	if !obj.Has(document.CapShape) {
		r.Logger().Debug("object does not expose geometry", "object", obj.Label())
		return false
	}
	return true
}

func (r *STLRunner) Execute(ctx context.Context, doc document.Document, host document.Host, items []document.Object, outFile string) error {
	log := r.Logger()
	if len(items) > 1 {
		return fmt.Errorf("only one object may be output to STL at a time (got %d)", len(items))
	}
	return r.stage(func(dir string) error {
		staged := filepath.Join(dir, "export.stl")
		log.Info("exporting item as STL", "object", items[0].Label(), "to", outFile)
		if err := host.ExportSTL(items[0], staged); err != nil {
			return fmt.Errorf("export STL: %w", err)
		}
		return r.commit(staged, outFile)
	})
}
