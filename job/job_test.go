package job

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/asymworks/fcbot/config"
	"github.com/asymworks/fcbot/document/doctest"
	"github.com/asymworks/fcbot/outputs"
	"github.com/asymworks/fcbot/runlog"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func buildRunners(t *testing.T, baseDir string, specs ...config.Output) []outputs.Runner {
	t.Helper()
	runners := make([]outputs.Runner, 0, len(specs))
	for i, spec := range specs {
		r, err := outputs.New(spec, "outputs["+string(rune('0'+i))+"]", baseDir, discard())
		if err != nil {
			t.Fatal(err)
		}
		runners = append(runners, r)
	}
	return runners
}

func TestManifestRoundTrip(t *testing.T) {
	base := t.TempDir()
	runners := buildRunners(t, base,
		config.Output{Type: "pdf", Filename: "a.pdf", Objects: config.AllPages(), Name: "drawings"},
		config.Output{Type: "stl", Filename: "b.stl", Objects: config.Labels("Body")},
	)

	m, err := New("/work/model.FCStd", base, "info", runners)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "job.json")
	if err := Write(path, m); err != nil {
		t.Fatal(err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}

	if got.Version != ManifestVersion || got.Input != "/work/model.FCStd" || got.OutputDir != base {
		t.Errorf("manifest header = %+v", got)
	}
	if len(got.Jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(got.Jobs))
	}
	if got.Jobs[0].Name != "drawings" || got.Jobs[1].Name != "outputs[1]" {
		t.Errorf("job names = %q, %q", got.Jobs[0].Name, got.Jobs[1].Name)
	}
}

func TestReadRejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.json")
	if err := os.WriteFile(path, []byte(`{"version": 2, "input": "x", "jobs": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); !errors.Is(err, ErrManifestVersion) {
		t.Fatalf("err = %v, want ErrManifestVersion", err)
	}
}

func TestExecuteContinuesPastLocalFailure(t *testing.T) {
	base := t.TempDir()
	doc := doctest.NewDocument(
		doctest.Solid("A", "A"),
		doctest.Solid("B", "B"),
		doctest.Page("Page001", "Sheet A"),
	)
	host := &doctest.Host{}

	runners := buildRunners(t, base,
		// Two objects into the single-object STL runner: fails locally.
		config.Output{Type: "stl", Filename: "bad.stl", Objects: config.Labels("A", "B"), Name: "bad"},
		config.Output{Type: "pdf", Filename: "good.pdf", Objects: config.AllPages(), Name: "good"},
	)
	m, err := New("/work/model.FCStd", base, "info", runners)
	if err != nil {
		t.Fatal(err)
	}

	store := runlog.NewStore(runlog.OpenMemory(t))
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	ex := NewExecutor(WithLogger(discard()), WithRunLog(store))

	if err := ex.Execute(context.Background(), doc, host, m); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// The failing output produced nothing, the next one still ran.
	if _, err := os.Stat(filepath.Join(base, "bad.stl")); !errors.Is(err, os.ErrNotExist) {
		t.Error("failed output produced a file")
	}
	if _, err := os.Stat(filepath.Join(base, "good.pdf")); err != nil {
		t.Error("subsequent output did not run")
	}

	entries, err := store.Runs(context.Background(), ex.RunID())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("run log entries = %d, want 2", len(entries))
	}
	if entries[0].Output != "bad" || entries[0].Status != "failed" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Output != "good" || entries[1].Status != "ok" {
		t.Errorf("entry 1 = %+v", entries[1])
	}
}

func TestExecuteFailsClosedOnUnsupportedType(t *testing.T) {
	base := t.TempDir()
	doc := doctest.NewDocument(doctest.Page("Page001", "Sheet A"))
	host := &doctest.Host{}

	m := &Manifest{
		Version: ManifestVersion,
		Input:   "/work/model.FCStd",
		Jobs: []outputs.Descriptor{
			{Version: outputs.DescriptorVersion, Name: "bad",
				Config: `{"type":"dxf","filename":"a.dxf","objects":["A"]}`},
			{Version: outputs.DescriptorVersion, Name: "good",
				Config: `{"type":"pdf","filename":"good.pdf","objects":{"pages":"all"}}`, BaseDir: base},
		},
	}

	ex := NewExecutor(WithLogger(discard()))
	err := ex.Execute(context.Background(), doc, host, m)
	if !errors.Is(err, outputs.ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}

	// Everything is rehydrated before anything runs: no export happened.
	if len(host.PageCalls) != 0 {
		t.Error("an export ran despite the configuration error")
	}
	if _, err := os.Stat(filepath.Join(base, "good.pdf")); !errors.Is(err, os.ErrNotExist) {
		t.Error("output file exists")
	}
}
