package editor

import (
	"fmt"

	"github.com/psaab/blockedit/pkg/element"
	"github.com/psaab/blockedit/pkg/grammar"
)

// Generation records a resolved selection so it can be reverted.
type Generation struct {
	Selection *element.Element
	Elem      *element.Element
	Parent    *element.Element
	Separator *element.Element // newline added before a repeatable selection
	Consumed  bool             // the selection was removed
	Selected  *element.Element // selection before the resolve
}

// Resolve builds alternative choice of sel and inserts it before sel, linked
// back to it. A non-repeatable selection is consumed; a repeatable one stays
// behind a new row separator so the list can grow. The new element is
// selected.
func (e *Editor) Resolve(sel *element.Element, choice int) (Generation, error) {
	if !sel.Is(element.KindSelection) || sel.Parent() == nil {
		e.refuse("resolve", sel, "not an attached selection")
		return Generation{}, fmt.Errorf("%w: resolve needs an attached selection", ErrInvalidOperation)
	}
	alts := sel.Alternatives()
	if choice < 0 || choice >= len(alts) {
		e.refuse("resolve", sel, "choice out of range")
		return Generation{}, fmt.Errorf("%w: choice %d out of range (%d alternatives)",
			ErrInvalidOperation, choice, len(alts))
	}
	built, err := e.BuildElement(alts[choice])
	if err != nil {
		return Generation{}, err
	}

	parent := sel.Parent()
	g := Generation{Selection: sel, Elem: built, Parent: parent, Selected: e.selected}
	built.SetGeneratedBy(sel)
	parent.InsertBefore(sel, built)
	if sel.Symbol().Repeatable {
		g.Separator = element.NewNewLine()
		parent.InsertBefore(sel, g.Separator)
	} else {
		parent.Remove(sel)
		g.Consumed = true
	}
	e.selected = built
	e.stats.Resolved++
	e.logger.Debug("selection resolved", "elem", sel.ID(), "symbol", sel.Label(), "choice", alts[choice].Name)
	return g, nil
}

// ResolveSymbol resolves sel with the alternative named name.
func (e *Editor) ResolveSymbol(sel *element.Element, name string) (Generation, error) {
	if sel.Is(element.KindSelection) {
		for i, a := range sel.Alternatives() {
			if a.Name == name || a.Alias == name {
				return e.Resolve(sel, i)
			}
		}
	}
	e.refuse("resolve", sel, "unknown alternative")
	return Generation{}, fmt.Errorf("%w: %s offers no alternative %q", ErrInvalidOperation, sel.Label(), name)
}

// RevertGeneration undoes a Resolve.
func (e *Editor) RevertGeneration(g Generation) {
	idx := g.Parent.IndexOf(g.Elem)
	g.Parent.Remove(g.Elem)
	if g.Separator != nil {
		g.Parent.Remove(g.Separator)
	}
	if g.Consumed {
		g.Parent.InsertAt(idx, g.Selection)
	}
	e.selected = g.Selected
}

// InputResult describes the outcome of Input.
type InputResult struct {
	Target   *element.Element // block now holding the text
	Spawned  bool             // Target was cloned from a repeatable input
	Source   *element.Element // block Input was called on
	Text     string
	Previous string // Source text before the edit
	Selected *element.Element
	Warning  *ValidationWarning
}

// Input sets the text of an input block. Typing into a repeatable input
// spawns a non-repeatable copy before it that takes the text, leaving the
// original empty and reusable. Text failing the terminal's validator is
// stored anyway and reported as a warning.
func (e *Editor) Input(in *element.Element, text string) (InputResult, error) {
	if !in.Is(element.KindInput) {
		e.refuse("input", in, "not an input block")
		return InputResult{}, fmt.Errorf("%w: input needs an input block", ErrInvalidOperation)
	}
	res := InputResult{Target: in, Source: in, Text: text, Previous: in.Text(), Selected: e.selected}
	if in.Symbol().Repeatable {
		if in.Parent() == nil {
			e.refuse("input", in, "detached repeatable input")
			return InputResult{}, fmt.Errorf("%w: repeatable input is not in the document", ErrInvalidOperation)
		}
		vc := in.Clone()
		vc.Symbol().Repeatable = false
		vc.SetGeneratedBy(in)
		in.SetText("")
		in.SetValid(true)
		in.Parent().InsertBefore(in, vc)
		res.Target = vc
		res.Spawned = true
		e.selected = vc
		e.stats.Spawned++
	}

	target := res.Target
	target.SetText(text)
	target.SetValid(e.validate(target, text))
	if !target.Valid() {
		res.Warning = &ValidationWarning{Element: target, Type: e.terminalType(target), Text: text}
		e.stats.Warnings++
		e.logger.Debug("input failed validation", "elem", target.ID(), "symbol", target.Label(), "text", text)
	}
	e.stats.Inputs++
	return res, nil
}

// RevertInput undoes an Input.
func (e *Editor) RevertInput(r InputResult) {
	if r.Spawned {
		if p := r.Target.Parent(); p != nil {
			p.Remove(r.Target)
		}
	}
	r.Source.SetText(r.Previous)
	r.Source.SetValid(e.validate(r.Source, r.Previous))
	e.selected = r.Selected
}

func (e *Editor) terminalType(el *element.Element) grammar.TerminalType {
	sym, ok := e.lang.Symbol(el.Symbol().Name, el.Symbol().Terminal)
	if !ok {
		return grammar.String
	}
	return e.lang.TerminalType(sym)
}

func (e *Editor) validate(el *element.Element, text string) bool {
	if text == "" {
		return true
	}
	typ := e.terminalType(el)
	if v, ok := e.validators[typ]; ok {
		return v(text)
	}
	return typ.Valid(text)
}

// Removal records a deletion so it can be reverted.
type Removal struct {
	Elem      *element.Element
	Parent    *element.Element
	Index     int
	Restored  *element.Element // placeholder put back in Elem's place
	Separator *element.Element // row separator removed along with Elem
	Selected  *element.Element // selection before the removal
}

// Removable reports whether el may be deleted: it must be attached and
// either generated from a placeholder or a layout marker.
func Removable(el *element.Element) bool {
	if el == nil || el.Parent() == nil {
		return false
	}
	return el.GeneratedBy() != nil || el.IsMarker()
}

// RemoveWithChecks deletes el if Removable allows it.
func (e *Editor) RemoveWithChecks(el *element.Element) bool {
	_, ok := e.Remove(el)
	return ok
}

// Remove deletes el when Removable allows it. A detached non-repeatable
// placeholder that generated el is put back in its place and selected. When
// el was resolved from a repeatable selection, the row separator that
// followed it is removed with it. Otherwise, if the selection was inside el
// it moves to the next sibling, else to the parent, else it is cleared.
func (e *Editor) Remove(el *element.Element) (Removal, bool) {
	if !Removable(el) {
		e.refuse("remove", el, "element is anchored in the grammar")
		return Removal{}, false
	}
	parent := el.Parent()
	r := Removal{Elem: el, Parent: parent, Index: parent.IndexOf(el), Selected: e.selected}

	if g := el.GeneratedBy(); g != nil && g.HasSymbol() {
		switch {
		case !g.Symbol().Repeatable && g.Parent() == nil:
			parent.InsertAfter(el, g)
			r.Restored = g
			e.stats.Restored++
		case g.Symbol().Repeatable && g.Is(element.KindSelection):
			// Only Resolve inserts a separator; spawned inputs have none.
			if next := parent.Next(el); next.Is(element.KindNewLine) {
				r.Separator = next
			}
		}
	}

	if r.Restored != nil {
		e.selected = r.Restored
	} else if e.selected != nil && el.Contains(e.selected) {
		e.selected = el
		if !e.Right() && !e.Out() {
			e.selected = nil
		}
	}

	if r.Separator != nil {
		parent.Remove(r.Separator)
	}
	parent.Remove(el)
	e.stats.Removed++
	e.logger.Debug("element removed", "elem", el.ID(), "symbol", el.Label(), "restored", r.Restored != nil)
	return r, true
}

// Restore undoes a Remove.
func (e *Editor) Restore(r Removal) {
	if r.Restored != nil {
		if p := r.Restored.Parent(); p != nil {
			p.Remove(r.Restored)
		}
	}
	r.Parent.InsertAt(r.Index, r.Elem)
	if r.Separator != nil {
		r.Parent.InsertAt(r.Index+1, r.Separator)
	}
	e.selected = r.Selected
}
