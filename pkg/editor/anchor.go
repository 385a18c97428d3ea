package editor

import "github.com/psaab/blockedit/pkg/element"

// Anchor is a pair of elements, one from each lineage, instantiating the
// same grammar symbol.
type Anchor struct {
	Source *element.Element
	Dest   *element.Element
}

// FindCommonAnchor walks a's generation chain (a first) against b's chain
// (b first) and returns the first pair sharing a grammar symbol. Elements
// without a symbol never match.
func FindCommonAnchor(a, b *element.Element) (Anchor, bool) {
	if !a.HasSymbol() || !b.HasSymbol() {
		return Anchor{}, false
	}
	for ia := a; ia != nil; ia = ia.GeneratedBy() {
		if !ia.HasSymbol() {
			continue
		}
		for ib := b; ib != nil; ib = ib.GeneratedBy() {
			if ib.HasSymbol() && ia.Symbol().Same(*ib.Symbol()) {
				return Anchor{Source: ia, Dest: ib}, true
			}
		}
	}
	return Anchor{}, false
}

// PasteTargets returns every element of the document source could be pasted
// onto, in document order.
func (e *Editor) PasteTargets(source *element.Element) []*element.Element {
	var out []*element.Element
	e.root.Walk(func(el *element.Element) bool {
		if droppable(el) {
			if _, ok := FindCommonAnchor(source, el); ok {
				out = append(out, el)
			}
		}
		return true
	})
	return out
}

func droppable(el *element.Element) bool {
	return el.Parent() != nil && !el.Is(element.KindTab)
}

// BeginDrag records source as the element being dragged.
func (e *Editor) BeginDrag(source *element.Element) {
	e.dragging = source
}

// EndDrag clears the drag state.
func (e *Editor) EndDrag() {
	e.dragging = nil
}

// Dragging returns the element being dragged, or nil.
func (e *Editor) Dragging() *element.Element { return e.dragging }

// CanDrop reports whether the dragged element may be dropped onto dest. When
// it can, dest becomes the selection.
func (e *Editor) CanDrop(dest *element.Element) bool {
	if e.dragging == nil || dest == nil || !droppable(dest) {
		return false
	}
	if _, ok := FindCommonAnchor(e.dragging, dest); !ok {
		return false
	}
	e.selected = dest
	return true
}
