// Package session implements the editing session shared by every front end:
// one grammar, one document, its undo history and the edit event log, all
// behind a single mutex.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/psaab/blockedit/pkg/command"
	"github.com/psaab/blockedit/pkg/config"
	"github.com/psaab/blockedit/pkg/editor"
	"github.com/psaab/blockedit/pkg/element"
	"github.com/psaab/blockedit/pkg/grammar"
	"github.com/psaab/blockedit/pkg/logging"
)

var (
	ErrNoSelection = errors.New("nothing selected")
	ErrNotFound    = errors.New("element not found")
	ErrNoDocument  = errors.New("no document path configured")
)

// Options configures a Session.
type Options struct {
	// Start overrides the grammar's start symbol.
	Start       string
	HistorySize int
	EventBuffer int
	// Document is loaded when it exists and is the default save target.
	Document   string
	Logger     *slog.Logger
	Validators map[grammar.TerminalType]editor.Validator
}

// Session is a mutex-guarded editor with history and event log.
type Session struct {
	mu      sync.Mutex
	gram    *grammar.Grammar
	ed      *editor.Editor
	history *command.History
	events  *logging.EventBuffer
	logger  *slog.Logger
	docPath string
	dirty   bool
	started time.Time
	journal *logging.Journal
}

// New creates a session editing a fresh document of g, or the document at
// opts.Document when that file exists.
func New(g *grammar.Grammar, opts Options) (*Session, error) {
	if opts.HistorySize <= 0 {
		opts.HistorySize = config.DefaultHistorySize
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = config.DefaultEventBuffer
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	start, err := g.Start()
	if err != nil {
		return nil, err
	}
	if opts.Start != "" {
		sym, ok := g.Symbol(opts.Start, false)
		if !ok {
			return nil, fmt.Errorf("start symbol %q is not a non-terminal of the grammar", opts.Start)
		}
		start = grammar.SymbolRef{Symbol: sym}
	}

	edOpts := []editor.Option{
		editor.WithLogger(opts.Logger),
		editor.WithToolbox(g.Toolbox()),
	}
	for t, v := range opts.Validators {
		edOpts = append(edOpts, editor.WithValidator(t, v))
	}
	ed, err := editor.New(g, start, edOpts...)
	if err != nil {
		return nil, fmt.Errorf("new editor: %w", err)
	}

	s := &Session{
		gram:    g,
		ed:      ed,
		history: command.NewHistory(opts.HistorySize),
		events:  logging.NewEventBuffer(opts.EventBuffer),
		logger:  opts.Logger,
		docPath: opts.Document,
		started: time.Now(),
	}
	if opts.Document != "" {
		if err := s.load(opts.Document); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	if s.ed.Selected() == nil {
		s.ed.Select(s.ed.Root())
	}
	return s, nil
}

// Open creates a session from the settings file: the configured grammar
// file, or the built-in language when none is set.
func Open(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	var (
		g   *grammar.Grammar
		err error
	)
	if cfg.Grammar != "" {
		g, err = grammar.LoadFile(cfg.Grammar)
	} else {
		g, err = grammar.MiniLang()
	}
	if err != nil {
		return nil, err
	}
	s, err := New(g, Options{
		Start:       cfg.Start,
		HistorySize: cfg.HistorySize,
		EventBuffer: cfg.EventBuffer,
		Document:    cfg.Document,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Journal.Path != "" {
		j, err := logging.NewJournal(logging.JournalConfig{
			Path:     cfg.Journal.Path,
			MaxSize:  cfg.Journal.MaxSize,
			MaxFiles: cfg.Journal.MaxFiles,
			Filter:   logging.EventFilter{Outcome: cfg.Journal.Outcome},
		})
		if err != nil {
			return nil, err
		}
		s.journal = j
		s.events.AddCallback(j.HandleEvent)
	}
	return s, nil
}

// Close releases the session's journal, if any.
func (s *Session) Close() error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Close()
}

// Events returns the edit event log.
func (s *Session) Events() *logging.EventBuffer { return s.events }

// Grammar returns the session's grammar.
func (s *Session) Grammar() *grammar.Grammar { return s.gram }

// Info describes an element for front ends. Path is empty for elements
// outside the document.
type Info struct {
	ID      string   `json:"id"`
	Path    string   `json:"path,omitempty"`
	Kind    string   `json:"kind"`
	Label   string   `json:"label"`
	Text    string   `json:"text,omitempty"`
	Valid   bool     `json:"valid"`
	Choices []string `json:"choices,omitempty"`
}

func (i Info) String() string {
	var b strings.Builder
	where := i.Path
	if where == "" {
		where = i.ID
	}
	fmt.Fprintf(&b, "%s %s %s", where, i.Kind, i.Label)
	if i.Kind == element.KindInput.String() {
		fmt.Fprintf(&b, " %q", i.Text)
		if !i.Valid {
			b.WriteString(" (invalid)")
		}
	}
	if len(i.Choices) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(i.Choices, " | "))
	}
	return b.String()
}

func (s *Session) info(el *element.Element) Info {
	if el == nil {
		return Info{}
	}
	in := Info{
		ID:    el.ID(),
		Kind:  el.Kind().String(),
		Label: el.Label(),
		Text:  el.Text(),
		Valid: el.Valid(),
	}
	if el.Root() == s.ed.Root() {
		in.Path = element.FormatPath(element.Path(el))
	}
	for _, a := range el.Alternatives() {
		in.Choices = append(in.Choices, a.Label())
	}
	return in
}

// lookup resolves an element reference: empty or "." is the selection, a
// dotted index list is a path from the root, anything else is an ID.
func (s *Session) lookup(ref string) (*element.Element, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "." {
		if sel := s.ed.Selected(); sel != nil {
			return sel, nil
		}
		return nil, ErrNoSelection
	}
	if isPath(ref) {
		path, err := element.ParsePath(ref)
		if err != nil {
			return nil, err
		}
		if el := element.At(s.ed.Root(), path); el != nil {
			return el, nil
		}
		return nil, fmt.Errorf("%w: path %s", ErrNotFound, ref)
	}
	if el := element.Find(s.ed.Root(), ref); el != nil {
		return el, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
}

func isPath(ref string) bool {
	return strings.Trim(ref, "/0123456789.") == ""
}

func (s *Session) record(op string, el *element.Element, err error) {
	s.events.Add(eventFor(op, s.info(el), err))
}

// do runs c through the history and records the outcome against target
// as it was before the edit.
func (s *Session) do(op string, target *element.Element, c command.Command) error {
	ti := s.info(target)
	err := s.history.Do(c)
	if err == nil {
		s.dirty = true
	}
	s.events.Add(eventFor(op, ti, err))
	return err
}

// eventFor builds an event from a description taken before the element
// may have left the document.
func eventFor(op string, target Info, err error) logging.EditEvent {
	ev := logging.EditEvent{Op: op, Element: target.Path, Symbol: target.Label, Outcome: logging.OutcomeOK}
	if ev.Element == "" {
		ev.Element = target.ID
	}
	if err != nil {
		ev.Outcome = logging.OutcomeError
		if errors.Is(err, editor.ErrInvalidOperation) {
			ev.Outcome = logging.OutcomeRefused
		}
		ev.Detail = err.Error()
	}
	return ev
}

// Selection returns the selected element.
func (s *Session) Selection() (Info, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.ed.Selected()
	return s.info(sel), sel != nil
}

// Select selects the element ref names.
func (s *Session) Select(ref string) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(ref) == "" {
		return Info{}, fmt.Errorf("select: element reference required")
	}
	el, err := s.lookup(ref)
	if err != nil {
		s.record("select", nil, err)
		return Info{}, err
	}
	s.ed.Select(el)
	s.record("select", el, nil)
	return s.info(el), nil
}

// Navigate moves the selection one step in direction dir.
func (s *Session) Navigate(dir string) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := editor.ParseDirection(dir)
	if err != nil {
		return Info{}, err
	}
	from := s.ed.Selected()
	if !s.ed.Navigate(d) {
		err := fmt.Errorf("move %s: %w", d, editor.ErrInvalidOperation)
		s.record("move", from, err)
		return s.info(from), err
	}
	sel := s.ed.Selected()
	s.record("move", sel, nil)
	return s.info(sel), nil
}

// Choices returns the alternatives of the selected placeholder.
func (s *Session) Choices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	if sel := s.ed.Selected(); sel != nil {
		for _, a := range sel.Alternatives() {
			out = append(out, a.Label())
		}
	}
	return out
}

// Categories returns the palette category names.
func (s *Session) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.ed.Palette().Categories() {
		out = append(out, c.Name)
	}
	return out
}

// Choose resolves the placeholder ref names with an alternative given by
// label or by index. The generated element becomes the selection.
func (s *Session) Choose(ref, choice string) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, err := s.lookup(ref)
	if err != nil {
		s.record("choose", nil, err)
		return Info{}, err
	}
	if i, err := strconv.Atoi(choice); err == nil {
		alts := sel.Alternatives()
		if i < 0 || i >= len(alts) {
			err := fmt.Errorf("choose %d: %w: %s has %d alternatives", i, editor.ErrInvalidOperation, sel.Label(), len(alts))
			s.record("choose", sel, err)
			return Info{}, err
		}
		choice = alts[i].Name
	}
	c := command.NewResolve(s.ed, sel, choice)
	if err := s.do("choose", sel, c); err != nil {
		return Info{}, err
	}
	return s.info(c.Generated()), nil
}

// Type sets the text of the input ref names. Text that does not match the
// terminal type is kept and reported through the event log and Info.Valid.
func (s *Session) Type(ref, text string) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, err := s.lookup(ref)
	if err != nil {
		s.record("type", nil, err)
		return Info{}, err
	}
	c := command.NewInput(s.ed, in, text)
	if err := s.history.Do(c); err != nil {
		s.record("type", in, err)
		return Info{}, err
	}
	s.dirty = true
	r := c.Result()
	ev := eventFor("type", s.info(r.Target), nil)
	if r.Warning != nil {
		ev.Outcome = logging.OutcomeWarning
		ev.Detail = r.Warning.Error()
	}
	s.events.Add(ev)
	return s.info(r.Target), nil
}

// Delete deletes the element ref names, putting back the placeholder it
// was generated from.
func (s *Session) Delete(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, err := s.lookup(ref)
	if err != nil {
		s.record("delete", nil, err)
		return err
	}
	return s.do("delete", el, command.NewDelete(s.ed, el))
}

// Backspace deletes the element before the selection.
func (s *Session) Backspace() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var prev *element.Element
	if sel := s.ed.Selected(); sel != nil && sel.Parent() != nil {
		prev = sel.Parent().Previous(sel)
	}
	return s.do("backspace", prev, command.NewBackspace(s.ed))
}

// Copy puts a copy of the element ref names on the clipboard.
func (s *Session) Copy(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, err := s.lookup(ref)
	if err == nil && !s.ed.Copy(el) {
		err = fmt.Errorf("copy %s: %w", el.Label(), editor.ErrInvalidOperation)
	}
	s.record("copy", el, err)
	return err
}

// Clipboard returns the clipboard in transfer format, or "" when empty.
func (s *Session) Clipboard() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.ed.Clipboard(); c != nil {
		return element.Encode(c)
	}
	return ""
}

// Paste pastes the clipboard onto the selection.
func (s *Session) Paste() (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dest := s.ed.Selected()
	c := command.NewPaste(s.ed, command.PasteClipboard, nil, nil)
	if err := s.do("paste", dest, c); err != nil {
		return Info{}, err
	}
	return s.info(c.Pasted()), nil
}

// PasteText decodes a transferred element and substitutes it for the
// element ref names.
func (s *Session) PasteText(ref, text string) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dest, err := s.lookup(ref)
	if err != nil {
		s.record("paste", nil, err)
		return Info{}, err
	}
	source, err := element.Decode(text)
	if err != nil {
		err = fmt.Errorf("paste: %w", err)
		s.record("paste", dest, err)
		return Info{}, err
	}
	c := command.NewPaste(s.ed, command.PasteSubstitute, source, dest)
	if err := s.do("paste", dest, c); err != nil {
		return Info{}, err
	}
	s.ed.Select(c.Pasted())
	return s.info(c.Pasted()), nil
}

// Take starts dragging a copy of block i of a palette category and returns
// it in transfer format.
func (s *Session) Take(category string, i int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	block, err := s.ed.Palette().Take(category, i)
	if err != nil {
		s.record("take", nil, err)
		return "", err
	}
	s.ed.BeginDrag(block)
	s.record("take", block, nil)
	return element.Encode(block), nil
}

// Dragging returns the block being dragged, if any.
func (s *Session) Dragging() (Info, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.ed.Dragging()
	return s.info(d), d != nil
}

// CancelDrag abandons the current drag.
func (s *Session) CancelDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ed.EndDrag()
}

// Drop drops onto the element ref names. The dropped element is text
// decoded from the transfer format, or the dragged block when text is
// empty.
func (s *Session) Drop(ref, text string) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dest, err := s.lookup(ref)
	if err != nil {
		s.record("drop", nil, err)
		return Info{}, err
	}
	source := s.ed.Dragging()
	if text != "" {
		if source, err = element.Decode(text); err != nil {
			err = fmt.Errorf("drop: %w", err)
			s.record("drop", dest, err)
			return Info{}, err
		}
	}
	if source == nil {
		err := fmt.Errorf("drop: %w: nothing is being dragged", editor.ErrInvalidOperation)
		s.record("drop", dest, err)
		return Info{}, err
	}
	// A refused drop leaves the selection and drag state alone.
	if _, ok := editor.FindCommonAnchor(source, dest); !ok || dest.Parent() == nil || dest.Is(element.KindTab) {
		err := fmt.Errorf("drop %s onto %s: %w", source.Label(), dest.Label(), editor.ErrInvalidOperation)
		s.record("drop", dest, err)
		return Info{}, err
	}
	c := command.NewPaste(s.ed, command.PasteDrop, source, dest)
	if err := s.do("drop", dest, c); err != nil {
		return Info{}, err
	}
	return s.info(c.Pasted()), nil
}

// Targets lists where source could be pasted. Source is decoded from text,
// or is the dragged block, or the clipboard.
func (s *Session) Targets(text string) ([]Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var source *element.Element
	switch {
	case text != "":
		var err error
		if source, err = element.Decode(text); err != nil {
			return nil, err
		}
	case s.ed.Dragging() != nil:
		source = s.ed.Dragging()
	case s.ed.Clipboard() != nil:
		source = s.ed.Clipboard()
	default:
		return nil, fmt.Errorf("targets: nothing dragged or copied")
	}
	var out []Info
	for _, el := range s.ed.PasteTargets(source) {
		out = append(out, s.info(el))
	}
	return out, nil
}

// Store adds a copy of the element ref names to a palette category before
// index before; a negative index appends.
func (s *Session) Store(category, ref string, before int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, err := s.lookup(ref)
	if err == nil {
		err = s.ed.Palette().Store(category, el, before)
	}
	s.record("store", el, err)
	return err
}

// PaletteCategory lists the blocks of one palette category.
type PaletteCategory struct {
	Name   string   `json:"name"`
	Icon   string   `json:"icon,omitempty"`
	Blocks []string `json:"blocks"`
}

// Palette returns the toolbox contents.
func (s *Session) Palette() []PaletteCategory {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []PaletteCategory
	for _, c := range s.ed.Palette().Categories() {
		pc := PaletteCategory{Name: c.Name, Icon: c.Icon}
		for _, b := range c.Blocks {
			pc.Blocks = append(pc.Blocks, b.Label())
		}
		out = append(out, pc)
	}
	return out
}

// Layout applies an indent, outdent or newline edit at the selection.
func (s *Session) Layout(op command.LayoutOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.do(op.String(), s.ed.Selected(), command.NewLayout(s.ed, op))
}

// ParseLayoutOp maps "indent", "outdent" and "newline" to a LayoutOp.
func ParseLayoutOp(name string) (command.LayoutOp, error) {
	for _, op := range []command.LayoutOp{command.Indent, command.Outdent, command.NewLine} {
		if op.String() == name {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown layout edit %q", name)
}

// Undo reverts the last edit and returns its name.
func (s *Session) Undo() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.history.Undo()
	if err != nil {
		return "", err
	}
	s.dirty = true
	s.events.Add(logging.EditEvent{Op: "undo", Outcome: logging.OutcomeOK, Detail: c.Name()})
	return c.Name(), nil
}

// Redo reapplies the last undone edit and returns its name.
func (s *Session) Redo() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.history.Redo()
	if err != nil {
		return "", err
	}
	s.dirty = true
	s.events.Add(logging.EditEvent{Op: "redo", Outcome: logging.OutcomeOK, Detail: c.Name()})
	return c.Name(), nil
}

// History returns the undoable command names, most recent first.
func (s *Session) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.history.List() {
		out = append(out, fmt.Sprintf("%s %s", e.Timestamp.Format("15:04:05"), e.Command.Name()))
	}
	return out
}

// Encode returns the document in transfer format.
func (s *Session) Encode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return element.Encode(s.ed.Root())
}

// Outline returns the element tree with paths, the selection marked.
func (s *Session) Outline() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return element.Outline(s.ed.Root(), s.ed.Selected())
}

// Source returns the document as program text.
func (s *Session) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return element.Source(s.ed.Root())
}

// JSON returns the document as indented JSON.
func (s *Session) JSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return element.MarshalJSON(s.ed.Root())
}

// Proto returns the document as a protobuf Struct.
func (s *Session) Proto() (*structpb.Struct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return element.ToProto(s.ed.Root())
}

// Save writes the document to path, or to the configured document path
// when path is empty.
func (s *Session) Save(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if path == "" {
		path = s.docPath
	}
	if path == "" {
		return "", ErrNoDocument
	}
	if err := os.WriteFile(path, []byte(element.Encode(s.ed.Root())), 0644); err != nil {
		s.record("save", nil, err)
		return "", fmt.Errorf("save document: %w", err)
	}
	s.docPath = path
	s.dirty = false
	s.events.Add(logging.EditEvent{Op: "save", Outcome: logging.OutcomeOK, Detail: path})
	return path, nil
}

// Load replaces the document with the one at path, or at the configured
// document path when path is empty. History is cleared.
func (s *Session) Load(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if path == "" {
		path = s.docPath
	}
	if path == "" {
		return "", ErrNoDocument
	}
	if err := s.load(path); err != nil {
		s.record("load", nil, err)
		return "", err
	}
	return path, nil
}

func (s *Session) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	root, err := element.Decode(string(data))
	if err != nil {
		return fmt.Errorf("parse document %s: %w", path, err)
	}
	if !root.Is(element.KindGroup) || root.Symbol().Name != s.startName() {
		return fmt.Errorf("document %s: root is %s %s, want group %s", path, root.Kind(), root.Label(), s.startName())
	}
	s.ed.Replace(root)
	s.ed.Select(root)
	s.history.Clear()
	s.docPath = path
	s.dirty = false
	s.events.Add(logging.EditEvent{Op: "load", Outcome: logging.OutcomeOK, Detail: path})
	s.logger.Info("document loaded", "path", path, "elements", root.Count())
	return nil
}

// Start returns the name of the document's root symbol.
func (s *Session) Start() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startName()
}

func (s *Session) startName() string {
	return s.ed.Root().Symbol().Name
}

// Reset starts a new document with the root selected. History is cleared.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.ed.Reset()
	if err == nil {
		s.ed.Select(s.ed.Root())
		s.history.Clear()
		s.dirty = false
	}
	s.record("reset", nil, err)
	return err
}

// Stats is a snapshot of the session counters.
type Stats struct {
	Editor      editor.Stats
	Elements    int
	HistoryLen  int
	CanUndo     bool
	CanRedo     bool
	Events      uint64
	Subscribers int
	Dirty       bool
	Uptime      time.Duration
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Editor:      s.ed.Stats(),
		Elements:    s.ed.Root().Count(),
		HistoryLen:  s.history.Len(),
		CanUndo:     s.history.CanUndo(),
		CanRedo:     s.history.CanRedo(),
		Events:      s.events.Total(),
		Subscribers: s.events.Subscribers(),
		Dirty:       s.dirty,
		Uptime:      time.Since(s.started),
	}
}
