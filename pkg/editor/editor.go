// Package editor implements the structural edit engine: building element
// trees from a grammar, resolving placeholders, deleting with restoration,
// substituting subtrees, and moving the selection.
//
// An Editor is not safe for concurrent use; pkg/session serializes access.
package editor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/psaab/blockedit/pkg/element"
	"github.com/psaab/blockedit/pkg/grammar"
)

// ErrInvalidOperation is wrapped by callers that turn a refused edit into an
// error. Engine methods report refusals with a false result and leave the
// tree unchanged.
var ErrInvalidOperation = errors.New("invalid operation")

// ValidationWarning flags input text that does not match its terminal type.
// It never blocks the edit.
type ValidationWarning struct {
	Element *element.Element
	Type    grammar.TerminalType
	Text    string
}

func (w *ValidationWarning) Error() string {
	return fmt.Sprintf("%q is not a valid %s for %s", w.Text, w.Type, w.Element.Label())
}

// Validator checks input text for one terminal type.
type Validator func(text string) bool

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger used for refused operations and warnings.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// WithValidator overrides the validator for a terminal type.
func WithValidator(t grammar.TerminalType, v Validator) Option {
	return func(e *Editor) { e.validators[t] = v }
}

// WithToolbox sets the palette categories offered for dragging.
func WithToolbox(cats []grammar.Category) Option {
	return func(e *Editor) { e.toolbox = cats }
}

// Editor is the document context: the tree, the selection, the clipboard and
// the in-progress drag.
type Editor struct {
	lang  grammar.Language
	start grammar.SymbolRef

	root      *element.Element
	selected  *element.Element
	clipboard *element.Element
	dragging  *element.Element

	toolbox    []grammar.Category
	palette    *Palette
	validators map[grammar.TerminalType]Validator
	logger     *slog.Logger
	stats      Stats
}

// New creates an editor whose document is a root group wrapping the
// expansion of start.
func New(lang grammar.Language, start grammar.SymbolRef, opts ...Option) (*Editor, error) {
	e := &Editor{
		lang:       lang,
		start:      start,
		validators: make(map[grammar.TerminalType]Validator),
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	if err := e.Reset(); err != nil {
		return nil, err
	}
	p, err := newPalette(e, e.toolbox)
	if err != nil {
		return nil, err
	}
	e.palette = p
	return e, nil
}

// Reset replaces the document with a fresh expansion of the start symbol.
func (e *Editor) Reset() error {
	body, err := e.BuildElement(e.start)
	if err != nil {
		return fmt.Errorf("build %s: %w", e.start.Name, err)
	}
	e.Replace(element.NewGroup(e.start, body))
	return nil
}

// Replace installs root as the document. Selection, clipboard and drag state
// belong to the old document and are cleared.
func (e *Editor) Replace(root *element.Element) {
	e.root = root
	e.selected = nil
	e.clipboard = nil
	e.dragging = nil
}

// Root returns the document root.
func (e *Editor) Root() *element.Element { return e.root }

// Language returns the grammar the editor builds from.
func (e *Editor) Language() grammar.Language { return e.lang }

// Selected returns the current selection, or nil.
func (e *Editor) Selected() *element.Element { return e.selected }

// Select sets the current selection. A nil element clears it.
func (e *Editor) Select(el *element.Element) {
	e.selected = el
}

// Clipboard returns the element held by Copy, or nil.
func (e *Editor) Clipboard() *element.Element { return e.clipboard }

// Palette returns the toolbox palette.
func (e *Editor) Palette() *Palette { return e.palette }

// Stats returns a snapshot of the operation counters.
func (e *Editor) Stats() Stats { return e.stats }

func (e *Editor) refuse(op string, el *element.Element, reason string) bool {
	e.stats.Refused++
	attrs := []any{"op", op, "reason", reason}
	if el != nil {
		attrs = append(attrs, "elem", el.ID(), "symbol", el.Label())
	}
	e.logger.Debug("edit refused", attrs...)
	return false
}

// Stats counts engine operations.
type Stats struct {
	Resolved    uint64
	Inputs      uint64
	Spawned     uint64
	Removed     uint64
	Restored    uint64
	Pasted      uint64
	Copied      uint64
	Navigations uint64
	Refused     uint64
	Warnings    uint64
}
