package command

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/psaab/blockedit/pkg/editor"
	"github.com/psaab/blockedit/pkg/element"
	"github.com/psaab/blockedit/pkg/grammar"
)

func newEditor(t *testing.T) *editor.Editor {
	t.Helper()
	g, err := grammar.MiniLang()
	if err != nil {
		t.Fatalf("MiniLang: %v", err)
	}
	start, _ := g.Start()
	ed, err := editor.New(g, start, editor.WithToolbox(g.Toolbox()))
	if err != nil {
		t.Fatalf("editor.New: %v", err)
	}
	return ed
}

func stmtList(ed *editor.Editor) *element.Element {
	r := ed.Root()
	return r.Child(r.Len() - 1)
}

func doResolve(t *testing.T, h *History, ed *editor.Editor, sel *element.Element, choice string) *element.Element {
	t.Helper()
	c := NewResolve(ed, sel, choice)
	if err := h.Do(c); err != nil {
		t.Fatalf("choose %s: %v", choice, err)
	}
	return c.Generated()
}

func TestDeleteUndoRedo(t *testing.T) {
	ed := newEditor(t)
	h := NewHistory(10)
	p := doResolve(t, h, ed, stmtList(ed), "print_stmt")
	n := doResolve(t, h, ed, p.Child(1), "number")
	v := n.GeneratedBy()

	ed.Select(n)
	withNumber := element.Encode(ed.Root())

	d := NewDelete(ed, n)
	if err := h.Do(d); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if p.Child(1) != v {
		t.Fatal("placeholder should be restored")
	}

	if _, err := h.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if p.Child(1) != n || v.Parent() != nil {
		t.Error("undo should remove the restored placeholder and reinsert the block")
	}
	if ed.Selected() != n {
		t.Error("undo should restore the selection")
	}
	if diff := cmp.Diff(withNumber, element.Encode(ed.Root())); diff != "" {
		t.Errorf("undo mismatch (-want +got):\n%s", diff)
	}

	if _, err := h.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if p.Child(1) != v {
		t.Error("redo should delete again")
	}
}

func TestDeleteRepeatableUndoKeepsSeparator(t *testing.T) {
	ed := newEditor(t)
	h := NewHistory(10)
	p := doResolve(t, h, ed, stmtList(ed), "print_stmt")
	before := element.Encode(ed.Root())

	if err := h.Do(NewDelete(ed, p)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ed.Root().Len() != 1 {
		t.Fatalf("statement and separator should be gone:\n%s", element.Outline(ed.Root(), nil))
	}
	h.Undo()
	if diff := cmp.Diff(before, element.Encode(ed.Root())); diff != "" {
		t.Errorf("undo mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteRefusedIsNotRecorded(t *testing.T) {
	ed := newEditor(t)
	h := NewHistory(10)
	err := h.Do(NewDelete(ed, stmtList(ed)))
	if !errors.Is(err, editor.ErrInvalidOperation) {
		t.Fatalf("err = %v, want ErrInvalidOperation", err)
	}
	if h.Len() != 0 {
		t.Error("refused command must not be recorded")
	}
	if err := h.Do(NewDelete(ed, nil)); !errors.Is(err, editor.ErrInvalidOperation) {
		t.Errorf("nil delete: %v", err)
	}
}

func TestUndoAllRedoAllKeepsIdentity(t *testing.T) {
	ed := newEditor(t)
	h := NewHistory(10)
	initial := element.Encode(ed.Root())

	fd := doResolve(t, h, ed, stmtList(ed), "funcdef")
	in := NewInput(ed, fd.Child(3), "x")
	if err := h.Do(in); err != nil {
		t.Fatalf("type: %v", err)
	}
	clone := in.Result().Target
	ed.Select(fd.Child(6))
	if err := h.Do(NewLayout(ed, Indent)); err != nil {
		t.Fatalf("indent: %v", err)
	}
	final := element.Encode(ed.Root())

	for h.CanUndo() {
		if _, err := h.Undo(); err != nil {
			t.Fatalf("Undo: %v", err)
		}
	}
	if diff := cmp.Diff(initial, element.Encode(ed.Root())); diff != "" {
		t.Errorf("undo all (-want +got):\n%s", diff)
	}
	if _, err := h.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo at start: %v", err)
	}

	for h.CanRedo() {
		if _, err := h.Redo(); err != nil {
			t.Fatalf("Redo: %v", err)
		}
	}
	if diff := cmp.Diff(final, element.Encode(ed.Root())); diff != "" {
		t.Errorf("redo all (-want +got):\n%s", diff)
	}
	if ed.Root().Child(0) != fd || fd.Child(3) != clone || clone.Text() != "x" {
		t.Error("redo must reuse the original elements")
	}
	if _, err := h.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo at end: %v", err)
	}
}

func TestPasteCommand(t *testing.T) {
	ed := newEditor(t)
	h := NewHistory(10)
	s := stmtList(ed)
	before := element.Encode(ed.Root())

	block, err := ed.Palette().Take("Statements", 1)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	c := NewPaste(ed, PasteDrop, block, s)
	if err := h.Do(c); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if c.Pasted() != block || ed.Selected() != block {
		t.Error("dropped block should be selected")
	}
	after := element.Encode(ed.Root())

	h.Undo()
	if diff := cmp.Diff(before, element.Encode(ed.Root())); diff != "" {
		t.Errorf("undo (-want +got):\n%s", diff)
	}
	if block.GeneratedBy().Symbol().Repeatable {
		t.Error("undo should restore the source anchor")
	}
	h.Redo()
	if diff := cmp.Diff(after, element.Encode(ed.Root())); diff != "" {
		t.Errorf("redo (-want +got):\n%s", diff)
	}

	bad, _ := ed.BuildElement(grammar.Ref("return", true))
	if err := h.Do(NewPaste(ed, PasteSubstitute, bad, block)); !errors.Is(err, editor.ErrInvalidOperation) {
		t.Errorf("unrelated paste: %v", err)
	}
}

func TestClipboardPasteCommand(t *testing.T) {
	ed := newEditor(t)
	h := NewHistory(10)
	p := doResolve(t, h, ed, stmtList(ed), "print_stmt")
	if !ed.Copy(p) {
		t.Fatal("Copy refused")
	}
	ed.Select(p)
	c := NewPaste(ed, PasteClipboard, nil, nil)
	if err := h.Do(c); err != nil {
		t.Fatalf("paste: %v", err)
	}
	if ed.Root().Child(0) != c.Pasted() {
		t.Error("clipboard copy not placed")
	}
	h.Undo()
	if ed.Root().Child(0) != p || ed.Selected() != p {
		t.Error("undo should put the original back and select it")
	}
}

func TestLayoutCommands(t *testing.T) {
	ed := newEditor(t)
	h := NewHistory(10)
	p := doResolve(t, h, ed, stmtList(ed), "print_stmt")
	ed.Select(p)

	if err := h.Do(NewLayout(ed, Outdent)); !errors.Is(err, editor.ErrInvalidOperation) {
		t.Errorf("outdent without tab: %v", err)
	}
	for _, op := range []LayoutOp{Indent, Indent, NewLine} {
		if err := h.Do(NewLayout(ed, op)); err != nil {
			t.Fatalf("%s: %v", op, err)
		}
	}
	if err := h.Do(NewLayout(ed, Outdent)); !errors.Is(err, editor.ErrInvalidOperation) {
		t.Errorf("outdent after newline: %v", err)
	}
	root := ed.Root()
	kinds := []element.Kind{root.Child(0).Kind(), root.Child(1).Kind(), root.Child(2).Kind()}
	want := []element.Kind{element.KindTab, element.KindTab, element.KindNewLine}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("markers (-want +got):\n%s", diff)
	}
	h.Undo()
	h.Undo()
	if root.Child(0).Kind() != element.KindTab || root.Child(1) != p {
		t.Errorf("after two undos:\n%s", element.Outline(root, nil))
	}
	if ed.Selected() != p {
		t.Error("layout undo should keep the selection")
	}
}

func TestHistoryBounds(t *testing.T) {
	ed := newEditor(t)
	h := NewHistory(2)
	ed.Select(stmtList(ed))
	for i := 0; i < 3; i++ {
		if err := h.Do(NewLayout(ed, Indent)); err != nil {
			t.Fatalf("indent: %v", err)
		}
	}
	if h.Len() != 2 || h.MaxSize() != 2 {
		t.Errorf("Len = %d, MaxSize = %d", h.Len(), h.MaxSize())
	}
	list := h.List()
	if len(list) != 2 || list[0].Command.Name() != "indent" || list[0].Timestamp.IsZero() {
		t.Errorf("List = %+v", list)
	}

	h.Undo()
	if !h.CanRedo() {
		t.Fatal("undone command should be redoable")
	}
	if err := h.Do(NewLayout(ed, NewLine)); err != nil {
		t.Fatalf("newline: %v", err)
	}
	if h.CanRedo() {
		t.Error("a new command must discard the redo stack")
	}

	h.Clear()
	if h.CanUndo() || h.CanRedo() {
		t.Error("Clear should empty the history")
	}
	if NewHistory(0).MaxSize() != 1 {
		t.Error("history size must be at least 1")
	}
}

func TestBackspaceCommand(t *testing.T) {
	ed := newEditor(t)
	h := NewHistory(10)
	doResolve(t, h, ed, stmtList(ed), "print_stmt")
	ed.Select(stmtList(ed))
	before := element.Encode(ed.Root())

	if err := h.Do(NewBackspace(ed)); err != nil {
		t.Fatalf("backspace: %v", err)
	}
	if ed.Root().Len() != 2 || ed.Root().Child(1) != stmtList(ed) {
		t.Fatalf("separator should be gone:\n%s", element.Outline(ed.Root(), nil))
	}
	h.Undo()
	if diff := cmp.Diff(before, element.Encode(ed.Root())); diff != "" {
		t.Errorf("undo mismatch (-want +got):\n%s", diff)
	}
	if _, err := h.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if ed.Root().Len() != 2 {
		t.Error("redo should remove the separator again")
	}

	ed.Select(ed.Root().Child(0))
	if err := h.Do(NewBackspace(ed)); !errors.Is(err, editor.ErrInvalidOperation) {
		t.Errorf("backspace at start of group: %v", err)
	}
}
