package outputs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/asymworks/fcbot/config"
	"github.com/asymworks/fcbot/document"
	"github.com/asymworks/fcbot/document/doctest"
)

func TestPDFSinglePage(t *testing.T) {
	base := t.TempDir()
	doc := doctest.NewDocument(doctest.Page("Page001", "Sheet A"))
	host := &doctest.Host{}

	r := mustRunner(t, config.Output{
		Type: "pdf", Filename: "sheet.pdf",
		Objects: config.AllPages(),
	}, base)

	if err := Run(context.Background(), r, doc, host); err != nil {
		t.Fatal(err)
	}
	if len(host.PageCalls) != 1 || host.PageCalls[0] != "Page001" {
		t.Errorf("page calls = %v", host.PageCalls)
	}

	out := filepath.Join(base, "sheet.pdf")
	n, err := api.PageCountFile(out)
	if err != nil {
		t.Fatalf("page count: %v", err)
	}
	if n != 1 {
		t.Errorf("page count = %d, want 1", n)
	}
}

func TestPDFMergesPagesInOrder(t *testing.T) {
	base := t.TempDir()
	doc := doctest.NewDocument(
		doctest.Page("Page001", "Sheet A"),
		doctest.Page("Page002", "Sheet B"),
		doctest.Page("Page003", "Sheet C"),
	)
	host := &doctest.Host{}

	r := mustRunner(t, config.Output{
		Type: "pdf", Filename: "drawings.pdf",
		Objects: config.AllPages(),
	}, base)

	if err := Run(context.Background(), r, doc, host); err != nil {
		t.Fatal(err)
	}

	want := []string{"Page001", "Page002", "Page003"}
	if len(host.PageCalls) != len(want) {
		t.Fatalf("page calls = %v", host.PageCalls)
	}
	for i, name := range want {
		if host.PageCalls[i] != name {
			t.Errorf("page call %d = %q, want %q", i, host.PageCalls[i], name)
		}
	}

	// Merging N single-page exports yields exactly N pages.
	n, err := api.PageCountFile(filepath.Join(base, "drawings.pdf"))
	if err != nil {
		t.Fatalf("page count: %v", err)
	}
	if n != 3 {
		t.Errorf("merged page count = %d, want 3", n)
	}
}

func TestPDFExportProducesNothing(t *testing.T) {
	base := t.TempDir()
	doc := doctest.NewDocument(doctest.Page("Page001", "Sheet A"))
	host := &doctest.Host{
		PageFunc: func(_ document.Object, _ string) error { return nil },
	}

	r := mustRunner(t, config.Output{
		Type: "pdf", Filename: "sheet.pdf",
		Objects: config.AllPages(),
	}, base)

	err := Run(context.Background(), r, doc, host)
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("err = %v, want *ExecError", err)
	}
	if _, err := os.Stat(filepath.Join(base, "sheet.pdf")); !errors.Is(err, os.ErrNotExist) {
		t.Error("output file exists despite export failure")
	}
}

func TestPDFRejectsNonPages(t *testing.T) {
	r := mustRunner(t, config.Output{
		Type: "pdf", Filename: "out.pdf",
		Objects: config.AllPages(),
	}, "")
	if r.CheckItem(doctest.Solid("Box", "Box")) {
		t.Error("CheckItem accepted a solid")
	}
	if !r.CheckItem(doctest.Page("Page001", "Sheet")) {
		t.Error("CheckItem rejected a page")
	}
}
