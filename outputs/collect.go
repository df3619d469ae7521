package outputs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/asymworks/fcbot/config"
	"github.com/asymworks/fcbot/document"
)

// collect resolves the runner's object selection against the document. Label
// anomalies (missing, duplicate, ambiguous) are warnings; an unrecognized
// selection variant is a programming error and fatal.
func collect(r Runner, doc document.Document) ([]document.Object, error) {
	log := r.Logger()
	sel := r.Selection()
	switch sel.Kind() {
	case config.SelectLabels:
		log.Debug("collecting outputs by label")
		return collectLabels(r, doc, sel.LabelList()), nil
	case config.SelectAllPages:
		log.Debug("collecting all pages as output")
		return collectPages(r, doc), nil
	case config.SelectAllShapes:
		log.Debug("collecting all shapes as output")
		return collectShapes(r, doc), nil
	default:
		return nil, fmt.Errorf("outputs: %s: unexpected objects selection %q", r.Name(), sel.Kind())
	}
}

// collectLabels looks up objects by display label, in listed order. A label
// listed twice yields its matches twice; that is deliberate, with a warning.
func collectLabels(r Runner, doc document.Document, labels []string) []document.Object {
	log := r.Logger()
	requested := map[string]bool{}
	var items []document.Object

	for _, label := range labels {
		if requested[label] {
			log.Warn("duplicate label included for export", "label", label)
		}
		requested[label] = true

		objs := doc.ObjectsByLabel(label)
		if len(objs) == 0 {
			log.Warn("no object found with label", "label", label)
			continue
		}
		if len(objs) > 1 {
			log.Warn("multiple objects found with label", "label", label, "count", len(objs))
		}
		for _, obj := range objs {
			if r.CheckItem(obj) {
				items = append(items, obj)
			}
		}
	}
	return items
}

// collectPages returns every drawing page the runner accepts.
func collectPages(r Runner, doc document.Document) []document.Object {
	var items []document.Object
	for _, obj := range doc.Objects() {
		if !obj.Has(document.CapPage) {
			continue
		}
		if r.CheckItem(obj) {
			items = append(items, obj)
		}
	}
	return items
}

// collectShapes walks the ownership graph upward from every geometric object
// and returns the top parents, each at most once. Identity is always the
// unique object name, never the label.
func collectShapes(r Runner, doc document.Document) []document.Object {
	log := r.Logger()
	seen := map[string]bool{}
	var items []document.Object

	for _, obj := range doc.Objects() {
		if !obj.Has(document.CapShape) {
			continue
		}

		tops := topParents(obj, log)
		if log.Enabled(context.Background(), slog.LevelDebug) {
			names := make([]string, len(tops))
			for i, p := range tops {
				names[i] = p.Name()
			}
			log.Debug("found top parents", "object", obj.Name(), "parents", names)
		}

		for _, p := range tops {
			if seen[p.Name()] {
				continue
			}
			if r.CheckItem(p) {
				seen[p.Name()] = true
				items = append(items, p)
			}
		}
	}
	return items
}

const (
	colorWhite = iota
	colorGray
	colorBlack
)

// topParents returns the parentless ancestors of obj. The walk is an
// iterative depth-first traversal with three-color marking: revisiting a
// node still on the walk path means the ownership graph has a cycle, which
// is logged as a structural error and that branch skipped.
func topParents(obj document.Object, log *slog.Logger) []document.Object {
	type frame struct {
		obj document.Object
		idx int
	}
	color := map[string]int{obj.Name(): colorGray}
	stack := []frame{{obj: obj}}
	var tops []document.Object

	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		parents := f.obj.Parents()

		if len(parents) == 0 {
			tops = append(tops, f.obj)
			color[f.obj.Name()] = colorBlack
			stack = stack[:len(stack)-1]
			continue
		}
		if f.idx >= len(parents) {
			color[f.obj.Name()] = colorBlack
			stack = stack[:len(stack)-1]
			continue
		}

		p := parents[f.idx].Object
		f.idx++
		switch color[p.Name()] {
		case colorGray:
			log.Error("ownership cycle detected, skipping branch",
				"object", f.obj.Name(), "parent", p.Name())
		case colorBlack:
			// already explored through another ownership path
		default:
			color[p.Name()] = colorGray
			stack = append(stack, frame{obj: p})
		}
	}
	return tops
}
