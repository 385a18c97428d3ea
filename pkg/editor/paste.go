package editor

import "github.com/psaab/blockedit/pkg/element"

// Substitution records a Paste so it can be reverted.
type Substitution struct {
	Source *element.Element
	Dest   *element.Element
	Parent *element.Element
	Index  int
	Anchor Anchor

	Regrown   *element.Element // copy of a repeatable dest left for further use
	Separator *element.Element // newline inserted with Regrown

	prevGeneratedBy *element.Element
	prevRepeatable  bool
	prevAlias       string
	nextGeneratedBy *element.Element
	nextRepeatable  bool
	Selected        *element.Element
}

// Substitute replaces dest with the detached subtree source when their
// lineages share a grammar symbol, fixing up generation links so the pasted
// subtree stays deletable:
//
//   - onto a repeatable anchor with a non-repeatable source, a copy of dest
//     is left after it (with a row separator for non-terminals) when dest is
//     the anchor itself; a terminal source anchor is linked to the
//     destination anchor, a non-terminal one becomes repeatable.
//   - otherwise the source anchor takes over the destination anchor's
//     generation link.
//
// The destination anchor's alias is copied to the source anchor in all cases.
func (e *Editor) Substitute(source, dest *element.Element) (Substitution, bool) {
	if source == nil || dest == nil || dest.Parent() == nil {
		return Substitution{}, e.refuse("paste", dest, "destination is not in the document")
	}
	if source.Parent() != nil || source.Contains(dest) {
		return Substitution{}, e.refuse("paste", source, "source is attached")
	}
	anchor, ok := FindCommonAnchor(source, dest)
	if !ok {
		return Substitution{}, e.refuse("paste", dest, "no common grammar anchor")
	}

	parent := dest.Parent()
	src, dst := anchor.Source, anchor.Dest
	s := Substitution{
		Source:          source,
		Dest:            dest,
		Parent:          parent,
		Index:           parent.IndexOf(dest),
		Anchor:          anchor,
		prevGeneratedBy: src.GeneratedBy(),
		prevRepeatable:  src.Symbol().Repeatable,
		prevAlias:       src.Symbol().Alias,
		Selected:        e.selected,
	}

	destRepeatable := dst.Symbol().Repeatable
	sourceRepeatable := src.Symbol().Repeatable
	if destRepeatable && !sourceRepeatable {
		if dst == dest {
			s.Regrown = dest.Clone()
			parent.InsertAfter(dest, s.Regrown)
			if !dst.Symbol().Terminal {
				s.Separator = element.NewNewLine()
				parent.InsertAfter(dest, s.Separator)
			}
		}
		if dst.Symbol().Terminal {
			src.SetGeneratedBy(dst)
		} else {
			src.Symbol().Repeatable = true
		}
	} else {
		src.SetGeneratedBy(dst.GeneratedBy())
	}
	src.Symbol().Alias = dst.Symbol().Alias
	s.nextGeneratedBy = src.GeneratedBy()
	s.nextRepeatable = src.Symbol().Repeatable

	parent.InsertBefore(dest, source)
	parent.Remove(dest)
	if dest.Contains(e.selected) {
		e.selected = source
	}
	e.stats.Pasted++
	e.logger.Debug("element substituted", "source", source.ID(), "dest", dest.ID(), "anchor", dst.Label())
	return s, true
}

// Paste is Substitute reporting only success.
func (e *Editor) Paste(source, dest *element.Element) bool {
	_, ok := e.Substitute(source, dest)
	return ok
}

// RevertSubstitution undoes a Substitute.
func (e *Editor) RevertSubstitution(s Substitution) {
	s.Parent.Remove(s.Source)
	if s.Regrown != nil {
		s.Parent.Remove(s.Regrown)
	}
	if s.Separator != nil {
		s.Parent.Remove(s.Separator)
	}
	s.Parent.InsertAt(s.Index, s.Dest)

	src := s.Anchor.Source
	src.SetGeneratedBy(s.prevGeneratedBy)
	src.Symbol().Repeatable = s.prevRepeatable
	src.Symbol().Alias = s.prevAlias
	e.selected = s.Selected
}

// Copy puts a deep clone of el on the clipboard. Repeatable placeholders and
// markers cannot be copied.
func (e *Editor) Copy(el *element.Element) bool {
	if !el.HasSymbol() {
		return e.refuse("copy", el, "element has no symbol")
	}
	if el.Symbol().Repeatable {
		return e.refuse("copy", el, "repeatable placeholder")
	}
	e.clipboard = el.Clone()
	e.stats.Copied++
	return true
}

// PasteClipboard pastes a fresh copy of the clipboard onto the selection and
// selects the pasted element. Tabs are never paste targets.
func (e *Editor) PasteClipboard() (Substitution, bool) {
	if e.clipboard == nil {
		return Substitution{}, e.refuse("paste", nil, "clipboard is empty")
	}
	if e.selected == nil || e.selected.Is(element.KindTab) {
		return Substitution{}, e.refuse("paste", e.selected, "no paste target")
	}
	source := e.clipboard.Clone()
	s, ok := e.Substitute(source, e.selected)
	if ok {
		e.selected = source
	}
	return s, ok
}

// Drop places a dragged subtree onto dest and selects it.
func (e *Editor) Drop(source, dest *element.Element) (Substitution, bool) {
	if dest == nil || dest.Is(element.KindTab) {
		return Substitution{}, e.refuse("drop", dest, "tabs are not drop targets")
	}
	s, ok := e.Substitute(source, dest)
	if ok {
		e.selected = source
		e.dragging = nil
	}
	return s, ok
}
