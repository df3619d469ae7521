package outputs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/asymworks/fcbot/config"
	"github.com/asymworks/fcbot/document"
	"github.com/asymworks/fcbot/document/doctest"
)

func TestOutputPathCreatesParent(t *testing.T) {
	base := t.TempDir()
	r := mustRunner(t, config.Output{
		Type: "stl", Filename: filepath.Join("nested", "dir", "out.stl"),
		Objects: config.Labels("Box"),
	}, base)

	path, err := r.OutputPath()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(base, "nested", "dir", "out.stl")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	if info, err := os.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
		t.Error("parent directory was not created")
	}
}

func TestOutputPathNotAFile(t *testing.T) {
	base := t.TempDir()
	if err := os.Mkdir(filepath.Join(base, "out.stl"), 0o755); err != nil {
		t.Fatal(err)
	}
	r := mustRunner(t, config.Output{
		Type: "stl", Filename: "out.stl",
		Objects: config.Labels("Box"),
	}, base)

	if _, err := r.OutputPath(); err == nil {
		t.Fatal("expected error for output path that exists as a directory")
	}
}

func TestOutputPathOverwrite(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "out.stl")
	if err := os.WriteFile(target, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := mustRunner(t, config.Output{
		Type: "stl", Filename: "out.stl",
		Objects: config.Labels("Box"),
	}, base)

	path, err := r.OutputPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != target {
		t.Errorf("path = %q, want %q", path, target)
	}
}

func TestRunEmptyCollectionSucceeds(t *testing.T) {
	base := t.TempDir()
	doc := doctest.NewDocument()
	host := &doctest.Host{}

	r := mustRunner(t, config.Output{
		Type: "stl", Filename: "out.stl",
		Objects: config.Labels("Missing"),
	}, base)

	if err := Run(context.Background(), r, doc, host); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(host.STLCalls) != 0 {
		t.Error("export was attempted for an empty collection")
	}
	if _, err := os.Stat(filepath.Join(base, "out.stl")); !errors.Is(err, os.ErrNotExist) {
		t.Error("output file was produced for an empty collection")
	}
}

func TestRunWrapsExecuteFailure(t *testing.T) {
	base := t.TempDir()
	// Two solids given to the single-object STL runner: an execution
	// error, local to this output.
	doc := doctest.NewDocument(doctest.Solid("A", "A"), doctest.Solid("B", "B"))
	host := &doctest.Host{}

	r := mustRunner(t, config.Output{
		Type: "stl", Filename: "out.stl",
		Objects: config.Labels("A", "B"),
	}, base)

	err := Run(context.Background(), r, doc, host)
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("err = %v, want *ExecError", err)
	}
	if execErr.Output != "outputs[0]" {
		t.Errorf("ExecError.Output = %q", execErr.Output)
	}
	if _, err := os.Stat(filepath.Join(base, "out.stl")); !errors.Is(err, os.ErrNotExist) {
		t.Error("output file was produced despite the failure")
	}
}

func TestRunDoesNotClobberPriorOutput(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "out.stl")
	if err := os.WriteFile(target, []byte("prior valid output"), 0o644); err != nil {
		t.Fatal(err)
	}

	doc := doctest.NewDocument(doctest.Solid("Box", "Box"))
	host := &doctest.Host{
		// Export primitive that silently produces nothing.
		STLFunc: func(_ document.Object, _ string) error { return nil },
	}

	r := mustRunner(t, config.Output{
		Type: "stl", Filename: "out.stl",
		Objects: config.Labels("Box"),
	}, base)

	err := Run(context.Background(), r, doc, host)
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("err = %v, want *ExecError", err)
	}

	// The prior output is untouched: either the old file or a fully
	// verified new one, never a partial write.
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "prior valid output" {
		t.Errorf("prior output was clobbered: %q", data)
	}
}
