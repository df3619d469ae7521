package outputs

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/asymworks/fcbot/config"
)

// Constructor builds a runner from a resolved output spec.
type Constructor func(spec config.Output, baseDir string, logger *slog.Logger) (Runner, error)

var registry = map[string]Constructor{}

// Register maps an output type tag to a constructor. Tags are matched
// case-insensitively. Built-in runners register themselves at init time.
func Register(tag string, ctor Constructor) {
	registry[strings.ToLower(tag)] = ctor
}

// New builds a runner for the given output spec. If the spec has no name it
// is assigned defaultName, once; the caller's spec is never modified. An
// empty type tag fails with ErrInvalidSpec and an unregistered one with
// ErrUnsupportedType, both before any host-side work starts.
func New(spec config.Output, defaultName, baseDir string, logger *slog.Logger) (Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if spec.Name == "" {
		spec.Name = defaultName
	}
	if spec.Type == "" {
		return nil, fmt.Errorf("%w: %s: type must be set to a string", ErrInvalidSpec, spec.Name)
	}
	ctor, ok := registry[strings.ToLower(spec.Type)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, spec.Type)
	}
	return ctor(spec, baseDir, logger)
}
