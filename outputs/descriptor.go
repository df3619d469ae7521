package outputs

import (
	"fmt"
	"log/slog"

	"github.com/asymworks/fcbot/config"
)

// DescriptorVersion is the job descriptor format version this build emits
// and the highest version it accepts.
const DescriptorVersion = 1

// Descriptor is the pure-data representation of a runner: the serialized
// output spec, the resolved name, and the owned base directory. It carries no
// object references and is the sole unit of cross-process job transfer: a
// runner built in the driver process is reconstructed from its descriptor
// inside the host process.
type Descriptor struct {
	Version int    `json:"version"`
	Config  string `json:"config"`
	Name    string `json:"name"`
	BaseDir string `json:"base_dir,omitempty"`
}

// Descriptor renders the runner's resolved spec as a job descriptor.
func (b *Base) Descriptor() (Descriptor, error) {
	cfg, err := b.spec.JSON()
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{
		Version: DescriptorVersion,
		Config:  cfg,
		Name:    b.spec.Name,
		BaseDir: b.baseDir,
	}, nil
}

// Load validates a serialized output spec and builds a ready-to-run runner.
// This is the reconstruction entry point the cross-process handoff depends
// on; its signature is stable across versions.
func Load(configJSON, defaultName, baseDir string, logger *slog.Logger) (Runner, error) {
	spec, err := config.ParseOutputJSON(configJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	return New(spec, defaultName, baseDir, logger)
}

// FromDescriptor reconstructs a functionally identical runner from a job
// descriptor emitted by Descriptor.
func FromDescriptor(d Descriptor, logger *slog.Logger) (Runner, error) {
	if d.Version < 1 || d.Version > DescriptorVersion {
		return nil, fmt.Errorf("%w: %d", ErrDescriptorVersion, d.Version)
	}
	return Load(d.Config, d.Name, d.BaseDir, logger)
}
