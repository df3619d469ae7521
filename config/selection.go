package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// SelectionKind identifies which variant of a Selection is populated.
type SelectionKind int

const (
	// SelectNone is the zero value of an undecoded Selection.
	SelectNone SelectionKind = iota
	// SelectLabels selects objects by an explicit, ordered label list.
	SelectLabels
	// SelectAllPages selects every drawing page in the document.
	SelectAllPages
	// SelectAllShapes selects the top parent of every geometric object.
	SelectAllShapes
)

func (k SelectionKind) String() string {
	switch k {
	case SelectLabels:
		return "labels"
	case SelectAllPages:
		return "all-pages"
	case SelectAllShapes:
		return "all-shapes"
	default:
		return "none"
	}
}

// Selection describes which document objects an output targets. Exactly one
// variant is populated. In YAML and JSON it is either a sequence of labels,
// the mapping {pages: all}, or the mapping {shapes: all}.
type Selection struct {
	kind   SelectionKind
	labels []string
}

// Labels returns a Selection over an explicit label list.
func Labels(labels ...string) Selection {
	return Selection{kind: SelectLabels, labels: labels}
}

// AllPages returns the all-pages Selection.
func AllPages() Selection { return Selection{kind: SelectAllPages} }

// AllShapes returns the all-shapes Selection.
func AllShapes() Selection { return Selection{kind: SelectAllShapes} }

// Kind reports the populated variant.
func (s Selection) Kind() SelectionKind { return s.kind }

// LabelList returns the label list of a SelectLabels Selection, nil otherwise.
func (s Selection) LabelList() []string {
	if s.kind != SelectLabels {
		return nil
	}
	return s.labels
}

// allMarker matches the {pages: all} / {shapes: all} mapping forms.
type allMarker struct {
	Pages  string `yaml:"pages,omitempty" json:"pages,omitempty"`
	Shapes string `yaml:"shapes,omitempty" json:"shapes,omitempty"`
}

func (s *Selection) fromMarker(m allMarker) error {
	switch {
	case m.Pages == "all" && m.Shapes == "":
		*s = AllPages()
	case m.Shapes == "all" && m.Pages == "":
		*s = AllShapes()
	default:
		return fmt.Errorf("config: objects mapping must be {pages: all} or {shapes: all}")
	}
	return nil
}

// UnmarshalYAML decodes the three accepted YAML forms.
func (s *Selection) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var labels []string
		if err := node.Decode(&labels); err != nil {
			return fmt.Errorf("config: objects label list: %w", err)
		}
		*s = Labels(labels...)
		return nil
	case yaml.MappingNode:
		var m allMarker
		if err := node.Decode(&m); err != nil {
			return fmt.Errorf("config: objects: %w", err)
		}
		return s.fromMarker(m)
	default:
		return fmt.Errorf("config: objects must be a label list, {pages: all}, or {shapes: all}")
	}
}

// MarshalYAML emits the same form UnmarshalYAML accepts.
func (s Selection) MarshalYAML() (any, error) {
	switch s.kind {
	case SelectLabels:
		return s.labels, nil
	case SelectAllPages:
		return allMarker{Pages: "all"}, nil
	case SelectAllShapes:
		return allMarker{Shapes: "all"}, nil
	default:
		return nil, fmt.Errorf("config: cannot marshal empty selection")
	}
}

// MarshalJSON emits the descriptor wire form of the selection.
func (s Selection) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case SelectLabels:
		if s.labels == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(s.labels)
	case SelectAllPages:
		return json.Marshal(allMarker{Pages: "all"})
	case SelectAllShapes:
		return json.Marshal(allMarker{Shapes: "all"})
	default:
		return nil, fmt.Errorf("config: cannot marshal empty selection")
	}
}

// UnmarshalJSON decodes the descriptor wire form of the selection.
func (s *Selection) UnmarshalJSON(data []byte) error {
	var labels []string
	if err := json.Unmarshal(data, &labels); err == nil {
		*s = Labels(labels...)
		return nil
	}
	var m allMarker
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("config: objects must be a label list, {pages: all}, or {shapes: all}")
	}
	return s.fromMarker(m)
}
