package editor

import "github.com/psaab/blockedit/pkg/element"

// Layout records a marker inserted or removed by a layout edit.
type Layout struct {
	Marker   *element.Element
	Parent   *element.Element
	Index    int
	Inserted bool
}

// RevertLayout undoes Indent, Outdent or InsertNewLine.
func (e *Editor) RevertLayout(l Layout) {
	if l.Inserted {
		l.Parent.Remove(l.Marker)
		return
	}
	l.Parent.InsertAt(l.Index, l.Marker)
}

func (e *Editor) insertMarker(op string, at, marker *element.Element) (Layout, bool) {
	if at == nil || at.Parent() == nil {
		return Layout{}, e.refuse(op, at, "nothing selected in a group")
	}
	p := at.Parent()
	p.InsertBefore(at, marker)
	return Layout{Marker: marker, Parent: p, Index: p.IndexOf(marker), Inserted: true}, true
}

// Indent inserts a tab before the selection.
func (e *Editor) Indent() (Layout, bool) {
	return e.insertMarker("indent", e.selected, e.Tab())
}

// InsertNewLine inserts a row separator before the selection.
func (e *Editor) InsertNewLine() (Layout, bool) {
	return e.insertMarker("newline", e.selected, e.NewLine())
}

// Outdent removes the tab immediately before the selection.
func (e *Editor) Outdent() (Layout, bool) {
	at := e.selected
	if at == nil || at.Parent() == nil {
		return Layout{}, e.refuse("outdent", at, "nothing selected in a group")
	}
	p := at.Parent()
	prev := p.Previous(at)
	if !prev.Is(element.KindTab) {
		return Layout{}, e.refuse("outdent", at, "no indentation before selection")
	}
	l := Layout{Marker: prev, Parent: p, Index: p.IndexOf(prev)}
	p.Remove(prev)
	return l, true
}

// Backspace removes the element before the selection, subject to the same
// checks as Remove.
func (e *Editor) Backspace() (Removal, bool) {
	at := e.selected
	if at == nil || at.Parent() == nil {
		return Removal{}, e.refuse("backspace", at, "nothing selected in a group")
	}
	return e.Remove(at.Parent().Previous(at))
}
