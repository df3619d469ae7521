package outputs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/asymworks/fcbot/config"
	"github.com/asymworks/fcbot/document"
)

func init() {
	Register("pdf", newPDFRunner)
}

// PDFRunner exports drawing pages to a PDF file. A single collected page is
// exported directly; multiple pages are exported one file each and merged
// into one document in collection order.
type PDFRunner struct {
	Base
}

func newPDFRunner(spec config.Output, baseDir string, logger *slog.Logger) (Runner, error) {
	return &PDFRunner{Base: newBase(spec, baseDir, logger)}, nil
}

// CheckItem accepts drawing pages only.
func (r *PDFRunner) CheckItem(obj document.Object) bool {
	if !obj.Has(document.CapPage) {
		r.Logger().Debug("object is not a drawing page", "object", obj.Label(), "type", obj.TypeID())
		return false
	}
	return true
}

func (r *PDFRunner) Execute(ctx context.Context, doc document.Document, host document.Host, items []document.Object, outFile string) error {
	log := r.Logger()
	return r.stage(func(dir string) error {
		if len(items) == 1 {
			staged := filepath.Join(dir, "export.pdf")
			log.Info("exporting page as PDF", "page", items[0].Label(), "to", outFile)
			if err := host.ExportPagePDF(items[0], staged); err != nil {
				return fmt.Errorf("export page %s: %w", items[0].Label(), err)
			}
			return r.commit(staged, outFile)
		}

		pageFiles := make([]string, 0, len(items))
		for i, page := range items {
			staged := filepath.Join(dir, fmt.Sprintf("page-%03d.pdf", i))
			log.Info("exporting page as PDF", "page", page.Label(), "file", filepath.Base(staged))
			if err := host.ExportPagePDF(page, staged); err != nil {
				return fmt.Errorf("export page %s: %w", page.Label(), err)
			}
			if _, err := os.Stat(staged); err != nil {
				return fmt.Errorf("host did not generate export file %s", staged)
			}
			pageFiles = append(pageFiles, staged)
		}

		// The merge assumes each export holds exactly one page.
		for i, fn := range pageFiles {
			n, err := api.PageCountFile(fn)
			if err != nil {
				return fmt.Errorf("page count of %s: %w", filepath.Base(fn), err)
			}
			if n != 1 {
				log.Warn("exported PDF file has more than one page",
					"page", items[i].Label(), "pages", n)
			}
		}

		log.Info("merging pages into single PDF", "count", len(pageFiles), "to", outFile)
		merged := filepath.Join(dir, "merged.pdf")
		if err := api.MergeCreateFile(pageFiles, merged, false, nil); err != nil {
			return fmt.Errorf("merge: %w", err)
		}
		return r.commit(merged, outFile)
	})
}
