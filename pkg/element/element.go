// Package element implements the structural document tree: groups of
// elements, each tagged with the grammar symbol it instantiates and an
// optional generation back-reference to the placeholder that produced it.
package element

import (
	"github.com/google/uuid"

	"github.com/psaab/blockedit/pkg/grammar"
)

// Kind is the variant tag of an Element.
type Kind int

const (
	KindGroup     Kind = iota // ordered container
	KindSimple                // fixed terminal
	KindInput                 // editable terminal
	KindSelection             // placeholder offering alternative symbols
	KindNewLine               // row separator
	KindTab                   // one indentation level
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindSimple:
		return "simple"
	case KindInput:
		return "input"
	case KindSelection:
		return "select"
	case KindNewLine:
		return "newline"
	case KindTab:
		return "tab"
	default:
		return "unknown"
	}
}

// Element is a node of the document. Which fields are meaningful depends on
// Kind: children for groups, text/valid for inputs, alternatives for
// selections. Markers (newline, tab) carry no symbol reference.
type Element struct {
	id   string
	kind Kind
	ref  *grammar.SymbolRef

	parent      *Element
	generatedBy *Element

	children     []*Element
	text         string
	valid        bool
	alternatives []grammar.SymbolRef
}

func newElement(kind Kind, ref *grammar.SymbolRef) *Element {
	return &Element{
		id:    uuid.NewString(),
		kind:  kind,
		ref:   ref,
		valid: true,
	}
}

func refPtr(ref grammar.SymbolRef) *grammar.SymbolRef {
	return &ref
}

// NewGroup creates a group owning children.
func NewGroup(ref grammar.SymbolRef, children ...*Element) *Element {
	g := newElement(KindGroup, refPtr(ref))
	for _, c := range children {
		g.InsertAt(len(g.children), c)
	}
	return g
}

// NewSimple creates a fixed terminal block.
func NewSimple(ref grammar.SymbolRef) *Element {
	return newElement(KindSimple, refPtr(ref))
}

// NewInput creates an empty editable terminal block.
func NewInput(ref grammar.SymbolRef) *Element {
	return newElement(KindInput, refPtr(ref))
}

// NewSelection creates a placeholder offering alternatives.
func NewSelection(ref grammar.SymbolRef, alternatives []grammar.SymbolRef) *Element {
	e := newElement(KindSelection, refPtr(ref))
	e.alternatives = append([]grammar.SymbolRef(nil), alternatives...)
	return e
}

// NewNewLine creates a row separator.
func NewNewLine() *Element {
	return newElement(KindNewLine, nil)
}

// NewTab creates an indentation marker.
func NewTab() *Element {
	return newElement(KindTab, nil)
}

// ID returns the element's unique identifier.
func (e *Element) ID() string { return e.id }

// Kind returns the variant tag.
func (e *Element) Kind() Kind { return e.kind }

// Is reports whether e is non-nil and of kind k.
func (e *Element) Is(k Kind) bool { return e != nil && e.kind == k }

// IsMarker reports whether e is a newline or tab.
func (e *Element) IsMarker() bool {
	return e.kind == KindNewLine || e.kind == KindTab
}

// HasSymbol reports whether e carries a symbol reference.
func (e *Element) HasSymbol() bool { return e != nil && e.ref != nil }

// Symbol returns the element's mutable symbol reference, or nil for markers.
func (e *Element) Symbol() *grammar.SymbolRef { return e.ref }

// Parent returns the owning group, nil for roots and detached elements.
func (e *Element) Parent() *Element { return e.parent }

// GeneratedBy returns the element whose use produced e.
func (e *Element) GeneratedBy() *Element { return e.generatedBy }

// SetGeneratedBy links e to the placeholder that produced it.
func (e *Element) SetGeneratedBy(g *Element) { e.generatedBy = g }

// Text returns an input block's text.
func (e *Element) Text() string { return e.text }

// SetText replaces an input block's text.
func (e *Element) SetText(s string) { e.text = s }

// Valid reports whether the text passed its terminal validator.
func (e *Element) Valid() bool { return e.valid }

// SetValid records the validator outcome.
func (e *Element) SetValid(v bool) { e.valid = v }

// Alternatives returns the symbols a selection offers.
func (e *Element) Alternatives() []grammar.SymbolRef { return e.alternatives }

// Label is the display name: symbol alias or name, or the kind for markers.
func (e *Element) Label() string {
	if e.ref == nil {
		return e.kind.String()
	}
	return e.ref.Label()
}

// Lineage returns e followed by every element reachable through
// generatedBy links.
func (e *Element) Lineage() []*Element {
	var out []*Element
	for it := e; it != nil; it = it.generatedBy {
		out = append(out, it)
	}
	return out
}

// Clone returns a deep structural copy of e with fresh IDs. Symbol
// references are copied by value; parent and generatedBy links are not.
func (e *Element) Clone() *Element {
	c := &Element{
		id:    uuid.NewString(),
		kind:  e.kind,
		text:  e.text,
		valid: e.valid,
	}
	if e.ref != nil {
		c.ref = refPtr(*e.ref)
	}
	if e.alternatives != nil {
		c.alternatives = append([]grammar.SymbolRef(nil), e.alternatives...)
	}
	for _, child := range e.children {
		cc := child.Clone()
		cc.parent = c
		c.children = append(c.children, cc)
	}
	return c
}

// CloneLineage clones e like Clone and also clones every element of its
// generatedBy chain, linking the copies the same way. The lineage copies are
// detached.
func (e *Element) CloneLineage() *Element {
	c := e.Clone()
	for it, to := e.generatedBy, c; it != nil; it = it.generatedBy {
		g := it.Clone()
		to.generatedBy = g
		to = g
	}
	return c
}
