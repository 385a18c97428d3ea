package editor

import (
	"fmt"

	"github.com/psaab/blockedit/pkg/element"
	"github.com/psaab/blockedit/pkg/grammar"
)

// BuildElement expands ref into an element subtree.
//
// Terminals become simple or input blocks depending on their type. A
// non-terminal with one production expands its right-hand side; a single
// resulting element is returned as is, otherwise the elements are wrapped in
// a group tagged with ref. A non-terminal with several productions becomes a
// selection whose alternatives are expanded only when chosen, so recursive
// grammars terminate.
func (e *Editor) BuildElement(ref grammar.SymbolRef) (*element.Element, error) {
	sym, ok := e.lang.Symbol(ref.Name, ref.Terminal)
	if !ok {
		return nil, fmt.Errorf("unknown symbol %s", ref.Symbol)
	}

	if sym.Terminal {
		if e.lang.TerminalType(sym) == grammar.Static {
			return element.NewSimple(ref), nil
		}
		return element.NewInput(ref), nil
	}

	prods := e.lang.Productions(sym)
	switch len(prods) {
	case 0:
		return nil, fmt.Errorf("non-terminal %s has no productions", sym)
	case 1:
		elems := make([]*element.Element, 0, len(prods[0].RHS))
		for _, r := range prods[0].RHS {
			c, err := e.BuildElement(r)
			if err != nil {
				return nil, err
			}
			elems = append(elems, c)
		}
		if len(elems) == 1 {
			return elems[0], nil
		}
		return element.NewGroup(ref, elems...), nil
	default:
		alts := make([]grammar.SymbolRef, 0, len(prods))
		for i, p := range prods {
			if len(p.RHS) != 1 {
				err := &grammar.ShapeError{Symbol: sym, Production: i, Size: len(p.RHS)}
				e.logger.Error("malformed grammar", "symbol", sym.Name, "err", err)
				return nil, err
			}
			alts = append(alts, p.RHS[0])
		}
		return element.NewSelection(ref, alts), nil
	}
}

// NewLine creates a row separator.
func (e *Editor) NewLine() *element.Element { return element.NewNewLine() }

// Tab creates an indentation marker.
func (e *Editor) Tab() *element.Element { return element.NewTab() }
