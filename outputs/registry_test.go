package outputs

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/asymworks/fcbot/config"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func mustRunner(t *testing.T, spec config.Output, baseDir string) Runner {
	t.Helper()
	r, err := New(spec, "outputs[0]", baseDir, discard())
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRegistryKnownTypes(t *testing.T) {
	tests := []struct {
		typ  string
		opts map[string]any
	}{
		{"pdf", nil},
		{"PDF", nil}, // case-insensitive
		{"step", nil},
		{"stl", nil},
		{"screenshot", map[string]any{
			"camera":     "orthographic",
			"view":       "isometric",
			"resolution": []any{800, 600},
		}},
	}
	for _, tt := range tests {
		spec := config.Output{
			Type:     tt.typ,
			Filename: "out.bin",
			Objects:  config.AllShapes(),
			Options:  tt.opts,
		}
		r, err := New(spec, "outputs[0]", "", discard())
		if err != nil {
			t.Errorf("New(%q): %v", tt.typ, err)
			continue
		}
		if r.OutputType() != tt.typ {
			t.Errorf("New(%q).OutputType() = %q", tt.typ, r.OutputType())
		}
	}
}

func TestRegistryUnsupportedType(t *testing.T) {
	spec := config.Output{Type: "dxf", Filename: "out.dxf", Objects: config.AllPages()}
	_, err := New(spec, "outputs[0]", "", discard())
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
}

func TestRegistryMissingType(t *testing.T) {
	spec := config.Output{Filename: "out.pdf", Objects: config.AllPages()}
	_, err := New(spec, "outputs[0]", "", discard())
	if !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("err = %v, want ErrInvalidSpec", err)
	}
}

func TestRegistryDefaultName(t *testing.T) {
	spec := config.Output{Type: "pdf", Filename: "out.pdf", Objects: config.AllPages()}
	r, err := New(spec, "outputs[3]", "", discard())
	if err != nil {
		t.Fatal(err)
	}
	if r.Name() != "outputs[3]" {
		t.Errorf("name = %q, want outputs[3]", r.Name())
	}
	// The caller's spec is never modified.
	if spec.Name != "" {
		t.Errorf("caller spec name = %q, want empty", spec.Name)
	}

	spec.Name = "drawings"
	r, err = New(spec, "outputs[3]", "", discard())
	if err != nil {
		t.Fatal(err)
	}
	if r.Name() != "drawings" {
		t.Errorf("name = %q, want drawings", r.Name())
	}
}
