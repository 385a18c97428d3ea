package session

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/psaab/blockedit/pkg/command"
	"github.com/psaab/blockedit/pkg/config"
	"github.com/psaab/blockedit/pkg/editor"
	"github.com/psaab/blockedit/pkg/grammar"
	"github.com/psaab/blockedit/pkg/logging"
)

func newSession(t *testing.T, opts Options) *Session {
	t.Helper()
	g, err := grammar.MiniLang()
	if err != nil {
		t.Fatalf("MiniLang: %v", err)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s, err := New(g, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func mustExec(t *testing.T, s *Session, line string) string {
	t.Helper()
	out, err := s.Exec(line)
	if err != nil {
		t.Fatalf("%s: %v", line, err)
	}
	return out
}

func TestNewSelectsRoot(t *testing.T) {
	s := newSession(t, Options{})
	sel, ok := s.Selection()
	if !ok || sel.Path != "/" || sel.Label != "program" {
		t.Errorf("initial selection = %+v", sel)
	}
	if got := s.Source(); got != "<stmt>" {
		t.Errorf("Source = %q", got)
	}
}

func TestNewBadStart(t *testing.T) {
	g, _ := grammar.MiniLang()
	if _, err := New(g, Options{Start: "nope"}); err == nil {
		t.Error("unknown start symbol should fail")
	}
	s, err := New(g, Options{Start: "print_stmt"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := s.Source(); got != "print <value>" {
		t.Errorf("Source = %q", got)
	}
}

func TestExecEditingScript(t *testing.T) {
	s := newSession(t, Options{})

	steps := []struct {
		line string
		want string
	}{
		{"in", "0 select stmt [print_stmt | assign | funcdef | return_stmt]\n"},
		{"choose print_stmt", "0 group print_stmt\n"},
		{"in", "0.0 simple print\n"},
		{"right", "0.1 select value [number | real | ident | text | flag | sum | call]\n"},
		{"choose 0", "0.1 input number \"\"\n"},
		{"type 42", "0.1 input number \"42\"\n"},
		{"delete", "0.1 select value [number | real | ident | text | flag | sum | call]\n"},
		{"undo", "undid delete\n"},
		{"show selection", "0.1 input number \"42\"\n"},
	}
	for _, st := range steps {
		got := mustExec(t, s, st.line)
		if diff := cmp.Diff(st.want, got); diff != "" {
			t.Fatalf("%s (-want +got):\n%s", st.line, diff)
		}
	}
	if got := s.Source(); got != "print 42\n<stmt>" {
		t.Errorf("Source = %q", got)
	}

	out := mustExec(t, s, "show outline | match number")
	if !strings.Contains(out, "* 0.1") || strings.Count(out, "\n") != 1 {
		t.Errorf("filtered outline = %q", out)
	}
	if !strings.Contains(mustExec(t, s, "show history"), "choose print_stmt") {
		t.Error("history should list the resolve")
	}
}

func TestTypeWarning(t *testing.T) {
	s := newSession(t, Options{})
	mustExec(t, s, "in")
	mustExec(t, s, "choose print_stmt")
	mustExec(t, s, "choose number 0.1")
	mustExec(t, s, "select 0.1")

	out := mustExec(t, s, "type abc")
	if !strings.Contains(out, "(invalid)") || !strings.Contains(out, "warning:") {
		t.Errorf("type output = %q", out)
	}
	ev := s.Events().Latest(1)[0]
	if ev.Op != "type" || ev.Outcome != logging.OutcomeWarning || ev.Element != "0.1" {
		t.Errorf("event = %+v", ev)
	}
}

func TestRefusalsAreLogged(t *testing.T) {
	s := newSession(t, Options{})
	err := s.Delete("0")
	if !errors.Is(err, editor.ErrInvalidOperation) {
		t.Fatalf("delete anchored placeholder: %v", err)
	}
	ev := s.Events().Latest(1)[0]
	if ev.Op != "delete" || ev.Outcome != logging.OutcomeRefused || ev.Symbol != "stmt" {
		t.Errorf("event = %+v", ev)
	}
	if s.Stats().HistoryLen != 0 {
		t.Error("refused edits must not enter the history")
	}

	if _, err := s.Select("9.9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("bad path: %v", err)
	}
	if _, err := s.Select("no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("bad id: %v", err)
	}
	if _, err := s.Navigate("sideways"); err == nil {
		t.Error("bad direction should fail")
	}
	if _, err := s.Navigate("out"); !errors.Is(err, editor.ErrInvalidOperation) {
		t.Errorf("out of root: %v", err)
	}
	if _, err := s.Choose("0", "9"); !errors.Is(err, editor.ErrInvalidOperation) {
		t.Errorf("choice out of range: %v", err)
	}
	if _, err := s.Undo(); !errors.Is(err, command.ErrNothingToUndo) {
		t.Errorf("undo: %v", err)
	}
}

func TestSelectByID(t *testing.T) {
	s := newSession(t, Options{})
	p, err := s.Choose("0", "assign")
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	mustExec(t, s, "select /")
	got, err := s.Select(p.ID)
	if err != nil {
		t.Fatalf("Select(%s): %v", p.ID, err)
	}
	if got.Path != "0" || got.Label != "assign" {
		t.Errorf("selected %+v", got)
	}
}

func TestCopyPasteAndTargets(t *testing.T) {
	s := newSession(t, Options{})
	mustExec(t, s, "choose print_stmt 0")
	if _, err := s.Targets(""); err == nil {
		t.Error("targets with nothing copied should fail")
	}
	mustExec(t, s, "copy")
	if !strings.HasPrefix(s.Clipboard(), `group "print_stmt"`) {
		t.Errorf("clipboard = %q", s.Clipboard())
	}

	targets, err := s.Targets("")
	if err != nil {
		t.Fatalf("Targets: %v", err)
	}
	if len(targets) != 1 || targets[0].Path != "0" {
		t.Errorf("targets = %+v", targets)
	}

	before := s.Encode()
	pasted, err := s.Paste()
	if err != nil {
		t.Fatalf("Paste: %v", err)
	}
	if pasted.Path != "0" || pasted.Label != "print_stmt" {
		t.Errorf("pasted = %+v", pasted)
	}
	if diff := cmp.Diff(before, s.Encode()); diff != "" {
		t.Errorf("pasting an identical copy changed the document:\n%s", diff)
	}
}

func TestTakeDrop(t *testing.T) {
	s := newSession(t, Options{})
	initial := s.Encode()

	text, err := s.Take("Statements", 1)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if !strings.Contains(text, `from select "stmt"`) {
		t.Errorf("taken block should carry its lineage:\n%s", text)
	}
	if d, ok := s.Dragging(); !ok || d.Label != "print_stmt" {
		t.Errorf("dragging = %+v, %v", d, ok)
	}

	dropped, err := s.Drop("0", "")
	if err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if dropped.Label != "print_stmt" || dropped.Path == "" {
		t.Errorf("dropped = %+v", dropped)
	}
	if _, ok := s.Dragging(); ok {
		t.Error("drop should end the drag")
	}
	if src := s.Source(); !strings.HasPrefix(src, "print <value>") {
		t.Errorf("Source = %q", src)
	}

	if _, err := s.Drop("0", ""); !errors.Is(err, editor.ErrInvalidOperation) {
		t.Errorf("drop without drag: %v", err)
	}

	if err := s.Delete(dropped.Path); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if diff := cmp.Diff(initial, s.Encode()); diff != "" {
		t.Errorf("delete after drop (-want +got):\n%s", diff)
	}
}

func TestRefusedDropKeepsState(t *testing.T) {
	s := newSession(t, Options{})
	mustExec(t, s, "choose print_stmt 0")
	if _, err := s.Take("Statements", 1); err != nil {
		t.Fatalf("Take: %v", err)
	}
	mustExec(t, s, "select 0.0")
	before := s.Encode()

	// A statement does not fit the expression placeholder.
	if _, err := s.Drop("0.1", ""); !errors.Is(err, editor.ErrInvalidOperation) {
		t.Fatalf("drop statement onto expression: %v", err)
	}
	if sel, ok := s.Selection(); !ok || sel.Path != "0.0" {
		t.Errorf("selection = %+v, want 0.0", sel)
	}
	if d, ok := s.Dragging(); !ok || d.Label != "print_stmt" {
		t.Errorf("dragging = %+v, %v", d, ok)
	}
	if diff := cmp.Diff(before, s.Encode()); diff != "" {
		t.Errorf("document changed (-before +after):\n%s", diff)
	}

	text, err := s.Take("Expressions", 0)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	mustExec(t, s, "select 0.0")
	if _, err := s.Drop("0", text); !errors.Is(err, editor.ErrInvalidOperation) {
		t.Fatalf("drop expression text onto statement: %v", err)
	}
	if d, ok := s.Dragging(); !ok || d.Label != "expr" {
		t.Errorf("dragging after refused text drop = %+v, %v", d, ok)
	}
}

func TestPasteText(t *testing.T) {
	s := newSession(t, Options{})
	mustExec(t, s, "choose print_stmt 0")

	if _, err := s.PasteText("0.1", "group {"); err == nil {
		t.Error("garbage transfer text should fail")
	}

	sum, err := s.Take("Expressions", 1)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	s.CancelDrag()
	in, err := s.PasteText("0.1", sum)
	if err != nil {
		t.Fatalf("PasteText: %v", err)
	}
	if in.Label != "sum" || in.Path != "0.1" {
		t.Errorf("pasted = %+v", in)
	}
	if got, _ := s.Selection(); got.ID != in.ID {
		t.Error("pasted element should be selected")
	}
	if src := s.Source(); !strings.HasPrefix(src, "print <expr> + <expr>") {
		t.Errorf("Source = %q", src)
	}
}

func TestStorePalette(t *testing.T) {
	s := newSession(t, Options{})
	mustExec(t, s, "choose assign 0")
	before := len(s.Palette()[0].Blocks)
	mustExec(t, s, "store Statements 0")
	pal := s.Palette()
	if len(pal[0].Blocks) != before+1 || pal[0].Blocks[0] != "assign" {
		t.Errorf("palette = %+v", pal[0])
	}
	if err := s.Store("Nope", "", -1); err == nil {
		t.Error("unknown category should fail")
	}
	if got := s.Categories(); !cmp.Equal(got, []string{"Statements", "Expressions"}) {
		t.Errorf("Categories = %v", got)
	}
}

func TestLayoutAndBackspace(t *testing.T) {
	s := newSession(t, Options{})
	mustExec(t, s, "choose print_stmt 0")
	mustExec(t, s, "indent")
	if src := s.Source(); !strings.HasPrefix(src, "    print") {
		t.Errorf("Source after indent = %q", src)
	}
	mustExec(t, s, "backspace")
	if src := s.Source(); !strings.HasPrefix(src, "print") {
		t.Errorf("Source after backspace = %q", src)
	}
	if _, err := s.Exec("outdent"); !errors.Is(err, editor.ErrInvalidOperation) {
		t.Errorf("outdent without tab: %v", err)
	}
	mustExec(t, s, "undo")
	if src := s.Source(); !strings.HasPrefix(src, "    print") {
		t.Errorf("Source after undo = %q", src)
	}
	if _, err := ParseLayoutOp("dedent"); err == nil {
		t.Error("unknown layout op should fail")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.blk")
	s := newSession(t, Options{Document: path})
	mustExec(t, s, "choose funcdef 0")
	want := s.Encode()

	if _, err := s.Save(""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Stats().Dirty {
		t.Error("save should clear the dirty flag")
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if s.Encode() == want {
		t.Fatal("reset should start a new document")
	}
	if _, err := s.Load(""); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(want, s.Encode()); diff != "" {
		t.Errorf("load mismatch (-want +got):\n%s", diff)
	}
	if s.Stats().CanUndo {
		t.Error("load should clear the history")
	}

	// A session opened on the saved file starts from it.
	reopened := newSession(t, Options{Document: path})
	if diff := cmp.Diff(want, reopened.Encode()); diff != "" {
		t.Errorf("reopen mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	s := newSession(t, Options{})
	if _, err := s.Save(""); !errors.Is(err, ErrNoDocument) {
		t.Errorf("save without path: %v", err)
	}

	bad := filepath.Join(dir, "bad.blk")
	os.WriteFile(bad, []byte(`group "program" {`), 0644)
	if _, err := s.Load(bad); err == nil {
		t.Error("truncated document should fail")
	}

	other := filepath.Join(dir, "other.blk")
	os.WriteFile(other, []byte(`group "stmt" { }`), 0644)
	if _, err := s.Load(other); err == nil || !strings.Contains(err.Error(), "want group program") {
		t.Errorf("wrong root: %v", err)
	}

	g, _ := grammar.MiniLang()
	if _, err := New(g, Options{Document: bad}); err == nil {
		t.Error("New should fail on an unreadable document")
	}
}

func TestOpen(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.HistorySize = 3
	s, err := Open(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Grammar() == nil || s.Source() != "<stmt>" {
		t.Error("Open without a grammar file should use the built-in language")
	}

	cfg.Grammar = filepath.Join(t.TempDir(), "missing.hcl")
	if _, err := Open(cfg, nil); err == nil {
		t.Error("missing grammar file should fail")
	}
}

func TestOpenJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edits.jsonl")
	cfg := config.DefaultConfig()
	cfg.Journal.Path = path
	cfg.Journal.Outcome = logging.OutcomeRefused

	s, err := Open(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	mustExec(t, s, "show source")
	if err := s.Delete("0"); !errors.Is(err, editor.ErrInvalidOperation) {
		t.Fatalf("delete anchored placeholder: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	events, err := logging.ReadJournal(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Op != "delete" || events[0].Outcome != logging.OutcomeRefused {
		t.Errorf("journal = %+v", events)
	}
}

func TestExecErrors(t *testing.T) {
	s := newSession(t, Options{})
	for _, line := range []string{
		"bogus",
		"select",
		"take Statements x",
		"store",
		"show nothing",
		"show log -1",
		"redo",
	} {
		if _, err := s.Exec(line); err == nil {
			t.Errorf("%q should fail", line)
		}
	}
	if out := mustExec(t, s, "help"); !strings.Contains(out, "backspace") {
		t.Errorf("help = %q", out)
	}
	if out := mustExec(t, s, "show stats"); !strings.Contains(out, "Elements:") {
		t.Errorf("stats = %q", out)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := newSession(t, Options{})
	mustExec(t, s, "choose print_stmt 0")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				switch (i + j) % 4 {
				case 0:
					s.Exec("show outline")
				case 1:
					s.Navigate("in")
				case 2:
					s.Navigate("out")
				default:
					s.Stats()
				}
			}
		}(i)
	}
	wg.Wait()
	if s.Stats().Elements == 0 {
		t.Error("document lost")
	}
}
