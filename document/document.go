// Package document defines the contract between fcbot and the CAD host that
// owns the open document. The host process embeds runners and provides the
// Document, Host, and View implementations; fcbot never constructs these
// itself outside of tests.
package document

import "fmt"

// Capability is a named ability an object can be queried for. Runners filter
// on capabilities instead of probing attributes.
type Capability string

const (
	// CapPage marks a drawing page (TechDraw::DrawPage in FreeCAD terms).
	CapPage Capability = "page"
	// CapShape marks an object that exposes geometric data directly.
	CapShape Capability = "shape"
	// CapPartShape marks an object carrying solid part geometry, the
	// capability required for STEP export and screenshots.
	CapPartShape Capability = "part-shape"
)

// Parent is one ownership edge from an object to a parent. Sub is the
// host-specific relation path and is opaque to fcbot.
type Parent struct {
	Object Object
	Sub    string
}

// Object is one object in the host document.
//
// Name is the unique internal identifier and is the only valid identity for
// deduplication; Label is the display label and may collide across objects.
type Object interface {
	Name() string
	Label() string
	TypeID() string
	Has(c Capability) bool
	Visible() bool
	SetVisible(v bool)
	Parents() []Parent
}

// Document is the open host document.
type Document interface {
	// Objects returns every object in the document, in document order.
	Objects() []Object
	// ObjectsByLabel returns all objects sharing the given display label.
	ObjectsByLabel(label string) []Object
	// Object returns the object with the given unique name, or nil.
	Object(name string) Object
}

// Host exposes the export primitives of the CAD application.
type Host interface {
	// ExportPagePDF renders one drawing page to a PDF file.
	ExportPagePDF(page Object, path string) error
	// ExportSTEP encodes the given objects into one STEP file.
	ExportSTEP(objects []Object, path string) error
	// ExportSTL encodes one object's geometry into an STL file.
	ExportSTL(object Object, path string) error
	// NewView opens a transient 3-D viewport for image capture.
	NewView() (View, error)
}

// View is a transient 3-D viewport. Callers must Close it when done.
type View interface {
	SetCamera(c Camera) error
	ApplyPreset(p ViewPreset) error
	// FitAll frames all currently visible geometry.
	FitAll()
	// SaveImage captures the viewport to path at the given pixel size.
	// Background is a host-defined specifier such as "transparent".
	SaveImage(path string, width, height int, background string) error
	Close() error
}

// Camera selects the projection of a viewport.
type Camera string

const (
	CameraOrthographic Camera = "orthographic"
	CameraPerspective  Camera = "perspective"
)

// Valid reports whether c is a known camera projection.
func (c Camera) Valid() bool {
	return c == CameraOrthographic || c == CameraPerspective
}

// ViewPreset is one of the host's named standard views.
type ViewPreset string

const (
	ViewAxometric   ViewPreset = "axometric"
	ViewAxonometric ViewPreset = "axonometric"
	ViewBottom      ViewPreset = "bottom"
	ViewDimetric    ViewPreset = "dimetric"
	ViewFront       ViewPreset = "front"
	ViewIsometric   ViewPreset = "isometric"
	ViewLeft        ViewPreset = "left"
	ViewRear        ViewPreset = "rear"
	ViewRight       ViewPreset = "right"
	ViewTop         ViewPreset = "top"
	ViewTrimetric   ViewPreset = "trimetric"
)

var presets = map[ViewPreset]bool{
	ViewAxometric: true, ViewAxonometric: true, ViewBottom: true,
	ViewDimetric: true, ViewFront: true, ViewIsometric: true,
	ViewLeft: true, ViewRear: true, ViewRight: true,
	ViewTop: true, ViewTrimetric: true,
}

// Valid reports whether p is a known view preset.
func (p ViewPreset) Valid() bool { return presets[p] }

// ParsePreset returns the preset named by s.
func ParsePreset(s string) (ViewPreset, error) {
	p := ViewPreset(s)
	if !p.Valid() {
		return "", fmt.Errorf("document: unknown view preset %q", s)
	}
	return p, nil
}
