package outputs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/asymworks/fcbot/config"
	"github.com/asymworks/fcbot/document"
)

func init() {
	Register("screenshot", newScreenshotRunner)
}

// ViewPosition is an explicit 6-DOF camera placement. Accepted by the
// options schema but not yet supported at capture time.
type ViewPosition struct {
	X     float64 `yaml:"x" json:"x"`
	Y     float64 `yaml:"y" json:"y"`
	Z     float64 `yaml:"z" json:"z"`
	Yaw   float64 `yaml:"yaw" json:"yaw"`
	Pitch float64 `yaml:"pitch" json:"pitch"`
	Roll  float64 `yaml:"roll" json:"roll"`
}

// ViewOption is either a named view preset or an explicit position.
type ViewOption struct {
	Preset   document.ViewPreset
	Position *ViewPosition
}

func (v *ViewOption) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		p, err := document.ParsePreset(s)
		if err != nil {
			return err
		}
		v.Preset = p
		return nil
	case yaml.MappingNode:
		var pos ViewPosition
		if err := node.Decode(&pos); err != nil {
			return err
		}
		v.Position = &pos
		return nil
	default:
		return fmt.Errorf("view must be a preset name or a position mapping")
	}
}

// ScreenshotOptions is the options schema for the screenshot output type.
type ScreenshotOptions struct {
	Camera     document.Camera `yaml:"camera"`
	View       ViewOption      `yaml:"view"`
	Resolution []int           `yaml:"resolution"`
	Background string          `yaml:"background"`
}

func (o *ScreenshotOptions) validate() error {
	if !o.Camera.Valid() {
		return fmt.Errorf("camera must be %q or %q", document.CameraOrthographic, document.CameraPerspective)
	}
	if o.View.Position == nil && o.View.Preset == "" {
		return fmt.Errorf("view is required")
	}
	if len(o.Resolution) != 2 || o.Resolution[0] <= 0 || o.Resolution[1] <= 0 {
		return fmt.Errorf("resolution must be a [width, height] pair")
	}
	if o.Background == "" {
		o.Background = "transparent"
	}
	return nil
}

// decodeOptions maps the raw options block onto a typed options struct by
// round-tripping through YAML, so the same decoding rules apply whether the
// spec arrived from the config file or from a job descriptor.
func decodeOptions(raw map[string]any, out any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

// ScreenshotRunner captures an image of the selected solids from a transient
// viewport, hiding everything else for the duration of the capture.
type ScreenshotRunner struct {
	Base
	opts ScreenshotOptions
}

func newScreenshotRunner(spec config.Output, baseDir string, logger *slog.Logger) (Runner, error) {
	r := &ScreenshotRunner{Base: newBase(spec, baseDir, logger)}
	if spec.Options == nil {
		return nil, fmt.Errorf("%w: %s: screenshot output requires options", ErrInvalidSpec, spec.Name)
	}
	if err := decodeOptions(spec.Options, &r.opts); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSpec, spec.Name, err)
	}
	if err := r.opts.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSpec, spec.Name, err)
	}
	return r, nil
}

// Options returns the parsed screenshot options.
func (r *ScreenshotRunner) Options() ScreenshotOptions { return r.opts }

// CheckItem accepts objects carrying solid part geometry.
func (r *ScreenshotRunner) CheckItem(obj document.Object) bool {
	if !obj.Has(document.CapPartShape) {
		r.Logger().Debug("object does not seem to be a solid", "object", obj.Label())
		return false
	}
	return true
}

func (r *ScreenshotRunner) Execute(ctx context.Context, doc document.Document, host document.Host, items []document.Object, outFile string) error {
	log := r.Logger()

	targets := map[string]bool{}
	for _, obj := range items {
		targets[obj.Name()] = true
	}

	// Toggle visibility so only the target items show, recording each
	// object's prior state. The restore runs on every exit path and puts
	// back each object's own recorded value.
	prior := map[string]bool{}
	defer func() {
		for name, vis := range prior {
			if obj := doc.Object(name); obj != nil {
				obj.SetVisible(vis)
			}
		}
	}()

	log.Debug("hiding other objects from view")
	for _, obj := range collectShapes(r, doc) {
		want := targets[obj.Name()]
		if want != obj.Visible() {
			prior[obj.Name()] = obj.Visible()
			obj.SetVisible(want)
		}
	}

	return r.stage(func(dir string) error {
		ext := strings.TrimPrefix(filepath.Ext(r.Filename()), ".")
		if ext == "" {
			ext = "png"
		}
		staged := filepath.Join(dir, "export."+ext)

		view, err := host.NewView()
		if err != nil {
			return fmt.Errorf("create view: %w", err)
		}
		defer view.Close()

		log.Debug("setting camera type", "camera", r.opts.Camera)
		if err := view.SetCamera(r.opts.Camera); err != nil {
			return fmt.Errorf("set camera %s: %w", r.opts.Camera, err)
		}

		if r.opts.View.Position != nil {
			return fmt.Errorf("arbitrary camera positions are not supported yet")
		}
		log.Debug("applying view preset", "view", r.opts.View.Preset)
		if err := view.ApplyPreset(r.opts.View.Preset); err != nil {
			return fmt.Errorf("apply view %s: %w", r.opts.View.Preset, err)
		}

		width, height := r.opts.Resolution[0], r.opts.Resolution[1]
		log.Info("capturing screenshot", "count", len(items),
			"format", strings.ToUpper(ext), "to", outFile)
		view.FitAll()
		if err := view.SaveImage(staged, width, height, r.opts.Background); err != nil {
			return fmt.Errorf("save image: %w", err)
		}
		return r.commit(staged, outFile)
	})
}
