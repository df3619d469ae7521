// Package doctest provides in-memory fakes of the document host contract for
// tests. The fakes record every export call and write real files so the
// write-verify-then-commit path can be exercised end to end.
package doctest

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/asymworks/fcbot/document"
)

// Object is a configurable fake document object.
type Object struct {
	ObjName      string
	ObjLabel     string
	ObjType      string
	Capabilities []document.Capability
	Vis          bool
	Owners       []document.Parent
}

func (o *Object) Name() string   { return o.ObjName }
func (o *Object) Label() string  { return o.ObjLabel }
func (o *Object) TypeID() string { return o.ObjType }
func (o *Object) Visible() bool  { return o.Vis }

func (o *Object) SetVisible(v bool) { o.Vis = v }

func (o *Object) Has(c document.Capability) bool {
	for _, have := range o.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

func (o *Object) Parents() []document.Parent { return o.Owners }

// Page returns a fake drawing page.
func Page(name, label string) *Object {
	return &Object{
		ObjName:      name,
		ObjLabel:     label,
		ObjType:      "TechDraw::DrawPage",
		Capabilities: []document.Capability{document.CapPage},
		Vis:          true,
	}
}

// Solid returns a fake solid object carrying part geometry.
func Solid(name, label string) *Object {
	return &Object{
		ObjName:      name,
		ObjLabel:     label,
		ObjType:      "Part::Feature",
		Capabilities: []document.Capability{document.CapShape, document.CapPartShape},
		Vis:          true,
	}
}

// Group returns a fake container object without geometry of its own.
func Group(name, label string) *Object {
	return &Object{
		ObjName:  name,
		ObjLabel: label,
		ObjType:  "App::DocumentObjectGroup",
		Vis:      true,
	}
}

// Own records parent as an owner of child.
func Own(child, parent *Object) {
	child.Owners = append(child.Owners, document.Parent{Object: parent})
}

// Document is an in-memory fake document.
type Document struct {
	Objs []*Object
}

// NewDocument builds a fake document over the given objects.
func NewDocument(objs ...*Object) *Document {
	return &Document{Objs: objs}
}

func (d *Document) Objects() []document.Object {
	out := make([]document.Object, len(d.Objs))
	for i, o := range d.Objs {
		out[i] = o
	}
	return out
}

func (d *Document) ObjectsByLabel(label string) []document.Object {
	var out []document.Object
	for _, o := range d.Objs {
		if o.ObjLabel == label {
			out = append(out, o)
		}
	}
	return out
}

func (d *Document) Object(name string) document.Object {
	for _, o := range d.Objs {
		if o.ObjName == name {
			return o
		}
	}
	return nil
}

// SavedImage records one View.SaveImage call.
type SavedImage struct {
	Path       string
	Width      int
	Height     int
	Background string
}

// View is a fake transient viewport.
type View struct {
	Cameras  []document.Camera
	Presets  []document.ViewPreset
	FitCalls int
	Saved    []SavedImage
	Closed   bool

	// SaveErr, when set, is returned by SaveImage without writing a file.
	SaveErr error
	// Hook, when set, runs at the start of SaveImage. Tests use it to
	// observe document state at capture time.
	Hook func(img SavedImage) error
}

func (v *View) SetCamera(c document.Camera) error {
	v.Cameras = append(v.Cameras, c)
	return nil
}

func (v *View) ApplyPreset(p document.ViewPreset) error {
	v.Presets = append(v.Presets, p)
	return nil
}

func (v *View) FitAll() { v.FitCalls++ }

func (v *View) SaveImage(path string, width, height int, background string) error {
	img := SavedImage{Path: path, Width: width, Height: height, Background: background}
	if v.Hook != nil {
		if err := v.Hook(img); err != nil {
			return err
		}
	}
	if v.SaveErr != nil {
		return v.SaveErr
	}
	v.Saved = append(v.Saved, img)
	return os.WriteFile(path, []byte("fake image data"), 0o644)
}

func (v *View) Close() error {
	v.Closed = true
	return nil
}

// Host is a fake export host. The default export functions write real files;
// set the corresponding *Func field to override a primitive (for example to
// simulate an export that produces nothing).
type Host struct {
	PageFunc func(page document.Object, path string) error
	STEPFunc func(objects []document.Object, path string) error
	STLFunc  func(object document.Object, path string) error
	ViewErr  error

	// ViewHook is copied onto every created View as its Hook.
	ViewHook func(img SavedImage) error

	PageCalls []string
	STEPCalls [][]string
	STLCalls  []string
	Views     []*View
}

func (h *Host) ExportPagePDF(page document.Object, path string) error {
	h.PageCalls = append(h.PageCalls, page.Name())
	if h.PageFunc != nil {
		return h.PageFunc(page, path)
	}
	return WritePDF(path, 1)
}

func (h *Host) ExportSTEP(objects []document.Object, path string) error {
	names := make([]string, len(objects))
	for i, o := range objects {
		names[i] = o.Name()
	}
	h.STEPCalls = append(h.STEPCalls, names)
	if h.STEPFunc != nil {
		return h.STEPFunc(objects, path)
	}
	return os.WriteFile(path, []byte("ISO-10303-21;\nEND-ISO-10303-21;\n"), 0o644)
}

func (h *Host) ExportSTL(object document.Object, path string) error {
	h.STLCalls = append(h.STLCalls, object.Name())
	if h.STLFunc != nil {
		return h.STLFunc(object, path)
	}
	return os.WriteFile(path, []byte("solid fake\nendsolid fake\n"), 0o644)
}

func (h *Host) NewView() (document.View, error) {
	if h.ViewErr != nil {
		return nil, h.ViewErr
	}
	v := &View{Hook: h.ViewHook}
	h.Views = append(h.Views, v)
	return v, nil
}

// WritePDF writes a minimal but structurally valid PDF with the given number
// of empty pages, with a correctly computed cross-reference table so pdfcpu
// can read and merge it.
func WritePDF(path string, pages int) error {
	if pages < 1 {
		pages = 1
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")

	var offsets []int
	addObj := func(body string) {
		offsets = append(offsets, b.Len())
		b.WriteString(body)
	}

	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}

	addObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	addObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		addObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>\nendobj\n", i+3))
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(offsets)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xref)

	return os.WriteFile(path, b.Bytes(), 0o644)
}
