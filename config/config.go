// Package config loads and validates the fcbot YAML configuration.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the configuration schema version this build understands.
const CurrentVersion = 1

// Config holds the full fcbot configuration.
type Config struct {
	FCBot   Meta     `yaml:"fcbot"`
	Outputs []Output `yaml:"outputs"`
}

// Meta holds tool-level settings from the "fcbot" block.
type Meta struct {
	Command   string        `yaml:"freecad_cmd"`
	Args      []string      `yaml:"freecad_args"`
	OutputDir string        `yaml:"output_dir"`
	LogLevel  string        `yaml:"log_level"`
	Paths     []string      `yaml:"paths"`
	Timeout   time.Duration `yaml:"timeout"`
	Version   int           `yaml:"version"`
}

func (m *Meta) defaults() {
	if m.Command == "" {
		m.Command = "freecad"
	}
	if m.LogLevel == "" {
		m.LogLevel = "info"
	}
	if m.Timeout <= 0 {
		m.Timeout = 60 * time.Second
	}
}

// Output is one configured export step.
//
//	type:     output type tag, case-insensitive (pdf, step, stl, screenshot)
//	filename: output file, relative to the output directory
//	objects:  label list, {pages: all}, or {shapes: all}
//	name:     short name used in log messages; defaults to outputs[<index>]
//	comment:  longer comment, logged once before the step runs
//	options:  extra options specific to the output type
type Output struct {
	Type     string         `yaml:"type" json:"type"`
	Filename string         `yaml:"filename" json:"filename"`
	Objects  Selection      `yaml:"objects" json:"objects"`
	Name     string         `yaml:"name,omitempty" json:"name,omitempty"`
	Comment  string         `yaml:"comment,omitempty" json:"comment,omitempty"`
	Options  map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

// JSON renders the output as the JSON wire form used by job descriptors.
func (o Output) JSON() (string, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return "", fmt.Errorf("config: marshal output %q: %w", o.Name, err)
	}
	return string(data), nil
}

// ParseOutputJSON validates a serialized output block against the schema.
// This is the entry point the cross-process job descriptor depends on, so it
// tolerates unknown fields but rejects anything that fails validation.
func ParseOutputJSON(data string) (Output, error) {
	var o Output
	if err := json.Unmarshal([]byte(data), &o); err != nil {
		return Output{}, fmt.Errorf("config: parse output: %w", err)
	}
	if err := o.validate(-1); err != nil {
		return Output{}, err
	}
	return o, nil
}

func (o Output) validate(index int) error {
	at := o.Name
	if at == "" {
		at = fmt.Sprintf("outputs[%d]", index)
	}
	if o.Type == "" {
		return fmt.Errorf("config: %s: type is required", at)
	}
	if o.Filename == "" {
		return fmt.Errorf("config: %s: filename is required", at)
	}
	if o.Objects.Kind() == SelectNone {
		return fmt.Errorf("config: %s: objects is required", at)
	}
	return nil
}

// Validate checks that every output block is complete.
func (c *Config) Validate() error {
	for i, o := range c.Outputs {
		if err := o.validate(i); err != nil {
			return err
		}
	}
	return nil
}

// versionProbe reads just enough of the document to run the version ladder
// before the full schema decode.
type versionProbe struct {
	FCBot *struct {
		Version *int `yaml:"version"`
	} `yaml:"fcbot"`
}

// Load reads a YAML configuration file, applies defaults, and validates it.
// A missing fcbot block or version key is assumed to mean version 1 (with a
// warning); any other version is rejected.
func Load(path string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var probe versionProbe
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	version := CurrentVersion
	switch {
	case probe.FCBot == nil:
		logger.Warn("missing fcbot block in configuration, assuming version 1", "path", path)
	case probe.FCBot.Version == nil:
		logger.Warn("missing fcbot.version in configuration, assuming version 1", "path", path)
	default:
		version = *probe.FCBot.Version
	}
	if version != CurrentVersion {
		return nil, fmt.Errorf("config: version %d is not supported", version)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.FCBot.defaults()
	if cfg.FCBot.Version == 0 {
		cfg.FCBot.Version = version
	}
	return cfg, cfg.Validate()
}
