// Package command wraps editor operations as reversible commands and keeps a
// bounded linear undo/redo history of them.
package command

import (
	"fmt"

	"github.com/psaab/blockedit/pkg/editor"
	"github.com/psaab/blockedit/pkg/element"
)

// Command is a reversible edit. Execute performs it the first time, Undo
// restores the structure and selection from before Execute, and Redo
// reapplies it after an Undo.
type Command interface {
	Name() string
	Execute() error
	Undo()
	Redo() error
}

func refused(op string, el *element.Element) error {
	if el == nil {
		return fmt.Errorf("%s: %w", op, editor.ErrInvalidOperation)
	}
	return fmt.Errorf("%s %s: %w", op, el.Label(), editor.ErrInvalidOperation)
}

// Delete removes an element with restoration.
type Delete struct {
	ed    *editor.Editor
	block *element.Element

	// captured at construction
	parent      *element.Element
	index       int
	generatedBy *element.Element
	selected    *element.Element

	separator *element.Element
}

// NewDelete records what is needed to reverse deleting block.
func NewDelete(ed *editor.Editor, block *element.Element) *Delete {
	d := &Delete{ed: ed, block: block, selected: ed.Selected()}
	if block != nil {
		d.parent = block.Parent()
		if d.parent != nil {
			d.index = d.parent.IndexOf(block)
		}
		if g := block.GeneratedBy(); g.HasSymbol() && !g.Symbol().Repeatable {
			d.generatedBy = g
		}
	}
	return d
}

func (d *Delete) Name() string { return "delete" }

func (d *Delete) Execute() error {
	r, ok := d.ed.Remove(d.block)
	if !ok {
		return refused("delete", d.block)
	}
	d.separator = r.Separator
	if r.Restored == nil {
		d.generatedBy = nil
	}
	return nil
}

// Undo takes out the placeholder restored by Execute, puts the block back
// at its recorded index and restores the selection.
func (d *Delete) Undo() {
	if d.generatedBy != nil {
		if p := d.generatedBy.Parent(); p != nil {
			p.Remove(d.generatedBy)
		}
	}
	d.parent.InsertAt(d.index, d.block)
	if d.separator != nil {
		d.parent.InsertAt(d.index+1, d.separator)
	}
	d.ed.Select(d.selected)
}

func (d *Delete) Redo() error { return d.Execute() }

// Backspace removes the element before the selection.
type Backspace struct {
	ed *editor.Editor
	r  editor.Removal
}

// NewBackspace creates a backspace command for the current selection.
func NewBackspace(ed *editor.Editor) *Backspace {
	return &Backspace{ed: ed}
}

func (c *Backspace) Name() string { return "backspace" }

func (c *Backspace) Execute() error {
	r, ok := c.ed.Backspace()
	if !ok {
		return refused("backspace", c.ed.Selected())
	}
	c.r = r
	return nil
}

func (c *Backspace) Undo() { c.ed.Restore(c.r) }

func (c *Backspace) Redo() error {
	c.ed.Select(c.r.Selected)
	r, ok := c.ed.Remove(c.r.Elem)
	if !ok {
		return refused("backspace", c.r.Elem)
	}
	c.r = r
	return nil
}

// Resolve chooses an alternative of a selection block.
type Resolve struct {
	ed     *editor.Editor
	sel    *element.Element
	choice string
	gen    editor.Generation
}

// NewResolve creates a command resolving sel with the alternative named
// choice.
func NewResolve(ed *editor.Editor, sel *element.Element, choice string) *Resolve {
	return &Resolve{ed: ed, sel: sel, choice: choice}
}

func (c *Resolve) Name() string { return "choose " + c.choice }

func (c *Resolve) Execute() error {
	g, err := c.ed.ResolveSymbol(c.sel, c.choice)
	if err != nil {
		return err
	}
	c.gen = g
	return nil
}

func (c *Resolve) Undo() { c.ed.RevertGeneration(c.gen) }

func (c *Resolve) Redo() error {
	c.ed.ReplayGeneration(c.gen)
	return nil
}

// Generated returns the element created by Execute.
func (c *Resolve) Generated() *element.Element { return c.gen.Elem }

// Input types text into an input block.
type Input struct {
	ed   *editor.Editor
	in   *element.Element
	text string
	res  editor.InputResult
}

// NewInput creates a command setting the text of in.
func NewInput(ed *editor.Editor, in *element.Element, text string) *Input {
	return &Input{ed: ed, in: in, text: text}
}

func (c *Input) Name() string { return "type" }

func (c *Input) Execute() error {
	r, err := c.ed.Input(c.in, c.text)
	if err != nil {
		return err
	}
	c.res = r
	return nil
}

func (c *Input) Undo() { c.ed.RevertInput(c.res) }

func (c *Input) Redo() error {
	c.ed.ReplayInput(c.res)
	return nil
}

// Result returns the outcome of Execute, including any validation warning.
func (c *Input) Result() editor.InputResult { return c.res }

// PasteMode selects how a Paste command places its source.
type PasteMode int

const (
	// PasteSubstitute replaces dest with source.
	PasteSubstitute PasteMode = iota
	// PasteClipboard pastes a copy of the clipboard onto the selection.
	PasteClipboard
	// PasteDrop drops source onto dest and selects it.
	PasteDrop
)

// Paste substitutes one subtree for another.
type Paste struct {
	ed     *editor.Editor
	mode   PasteMode
	source *element.Element
	dest   *element.Element
	sub    editor.Substitution
}

// NewPaste creates a paste command. Source and dest are ignored for
// PasteClipboard.
func NewPaste(ed *editor.Editor, mode PasteMode, source, dest *element.Element) *Paste {
	return &Paste{ed: ed, mode: mode, source: source, dest: dest}
}

func (c *Paste) Name() string {
	switch c.mode {
	case PasteClipboard:
		return "paste"
	case PasteDrop:
		return "drop"
	default:
		return "substitute"
	}
}

func (c *Paste) Execute() error {
	var (
		s  editor.Substitution
		ok bool
	)
	switch c.mode {
	case PasteClipboard:
		s, ok = c.ed.PasteClipboard()
	case PasteDrop:
		s, ok = c.ed.Drop(c.source, c.dest)
	default:
		s, ok = c.ed.Substitute(c.source, c.dest)
	}
	if !ok {
		return refused(c.Name(), c.dest)
	}
	c.sub = s
	return nil
}

func (c *Paste) Undo() { c.ed.RevertSubstitution(c.sub) }

func (c *Paste) Redo() error {
	c.ed.ReplaySubstitution(c.sub)
	return nil
}

// Pasted returns the element placed by Execute.
func (c *Paste) Pasted() *element.Element { return c.sub.Source }

// LayoutOp is a layout edit on the selection.
type LayoutOp int

const (
	Indent LayoutOp = iota
	Outdent
	NewLine
)

func (op LayoutOp) String() string {
	switch op {
	case Indent:
		return "indent"
	case Outdent:
		return "outdent"
	default:
		return "newline"
	}
}

// Layout inserts or removes a tab or newline next to the selection.
type Layout struct {
	ed       *editor.Editor
	op       LayoutOp
	layout   editor.Layout
	selected *element.Element
}

// NewLayout creates a layout command.
func NewLayout(ed *editor.Editor, op LayoutOp) *Layout {
	return &Layout{ed: ed, op: op}
}

func (c *Layout) Name() string { return c.op.String() }

func (c *Layout) Execute() error {
	c.selected = c.ed.Selected()
	var (
		l  editor.Layout
		ok bool
	)
	switch c.op {
	case Indent:
		l, ok = c.ed.Indent()
	case Outdent:
		l, ok = c.ed.Outdent()
	default:
		l, ok = c.ed.InsertNewLine()
	}
	if !ok {
		return refused(c.Name(), c.selected)
	}
	c.layout = l
	return nil
}

func (c *Layout) Undo() {
	c.ed.RevertLayout(c.layout)
	c.ed.Select(c.selected)
}

func (c *Layout) Redo() error {
	c.ed.ReplayLayout(c.layout)
	c.ed.Select(c.selected)
	return nil
}
