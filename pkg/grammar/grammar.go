// Package grammar defines the read-only language interface consumed by the
// structural editor, and an in-memory implementation that is normally loaded
// from an HCL definition file.
package grammar

import (
	"fmt"
	"sort"
	"strings"
)

// Symbol identifies a point in the language definition. Two symbols are the
// same grammar point iff both fields are equal.
type Symbol struct {
	Name     string
	Terminal bool
}

func (s Symbol) String() string {
	if s.Terminal {
		return fmt.Sprintf("%q", s.Name)
	}
	return s.Name
}

// SymbolRef is an aliased reference to a grammar symbol. Alias and Repeatable
// are mutable and do not take part in identity.
type SymbolRef struct {
	Symbol
	Alias      string
	Repeatable bool
}

// Ref returns a plain reference to the named symbol.
func Ref(name string, terminal bool) SymbolRef {
	return SymbolRef{Symbol: Symbol{Name: name, Terminal: terminal}}
}

// Same reports whether r and o denote the same grammar point.
func (r SymbolRef) Same(o SymbolRef) bool {
	return r.Symbol == o.Symbol
}

// Label is the name shown for the reference: the alias when set.
func (r SymbolRef) Label() string {
	if r.Alias != "" {
		return r.Alias
	}
	return r.Name
}

func (r SymbolRef) String() string {
	var b strings.Builder
	b.WriteString(r.Symbol.String())
	if r.Repeatable {
		b.WriteByte('*')
	}
	if r.Alias != "" {
		fmt.Fprintf(&b, " as %s", r.Alias)
	}
	return b.String()
}

// Production maps a non-terminal to an ordered right-hand side.
type Production struct {
	LHS Symbol
	RHS []SymbolRef
}

// Language is the query surface the editor needs from a grammar.
type Language interface {
	// Symbol looks up a declared symbol.
	Symbol(name string, terminal bool) (Symbol, bool)
	// Productions returns the productions of a non-terminal in declaration order.
	Productions(sym Symbol) []Production
	// TerminalType classifies a terminal; non-terminals report Static.
	TerminalType(sym Symbol) TerminalType
}

// Grammar is an in-memory Language.
type Grammar struct {
	start        string
	terminals    map[string]TerminalType
	productions  map[string][]Production
	nonterminals []string // declaration order
	toolbox      []Category
}

// New creates an empty grammar.
func New() *Grammar {
	return &Grammar{
		terminals:   make(map[string]TerminalType),
		productions: make(map[string][]Production),
	}
}

// AddTerminal declares a terminal symbol of the given type.
func (g *Grammar) AddTerminal(name string, typ TerminalType) Symbol {
	g.terminals[name] = typ
	return Symbol{Name: name, Terminal: true}
}

// AddProduction appends a production lhs -> rhs, declaring lhs on first use.
func (g *Grammar) AddProduction(lhs string, rhs ...SymbolRef) Symbol {
	sym := Symbol{Name: lhs}
	if _, ok := g.productions[lhs]; !ok {
		g.nonterminals = append(g.nonterminals, lhs)
	}
	g.productions[lhs] = append(g.productions[lhs], Production{
		LHS: sym,
		RHS: append([]SymbolRef(nil), rhs...),
	})
	return sym
}

// SetStart sets the start non-terminal.
func (g *Grammar) SetStart(name string) {
	g.start = name
}

// Start returns a reference to the start symbol.
func (g *Grammar) Start() (SymbolRef, error) {
	if g.start == "" {
		return SymbolRef{}, fmt.Errorf("grammar: no start symbol")
	}
	sym, ok := g.Symbol(g.start, false)
	if !ok {
		return SymbolRef{}, fmt.Errorf("grammar: start symbol %q is not a declared non-terminal", g.start)
	}
	return SymbolRef{Symbol: sym}, nil
}

// Symbol implements Language.
func (g *Grammar) Symbol(name string, terminal bool) (Symbol, bool) {
	if terminal {
		_, ok := g.terminals[name]
		return Symbol{Name: name, Terminal: true}, ok
	}
	_, ok := g.productions[name]
	return Symbol{Name: name}, ok
}

// Productions implements Language.
func (g *Grammar) Productions(sym Symbol) []Production {
	if sym.Terminal {
		return nil
	}
	return g.productions[sym.Name]
}

// TerminalType implements Language.
func (g *Grammar) TerminalType(sym Symbol) TerminalType {
	if !sym.Terminal {
		return Static
	}
	return g.terminals[sym.Name]
}

// Symbols returns every declared symbol, non-terminals first in declaration
// order, then terminals sorted by name.
func (g *Grammar) Symbols() []Symbol {
	out := make([]Symbol, 0, len(g.nonterminals)+len(g.terminals))
	for _, name := range g.nonterminals {
		out = append(out, Symbol{Name: name})
	}
	names := make([]string, 0, len(g.terminals))
	for name := range g.terminals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, Symbol{Name: name, Terminal: true})
	}
	return out
}

// Toolbox returns the palette categories declared with the grammar.
func (g *Grammar) Toolbox() []Category {
	return g.toolbox
}

// AddCategory appends a palette category.
func (g *Grammar) AddCategory(c Category) {
	g.toolbox = append(g.toolbox, c)
}

// Validate checks that every referenced symbol is declared and that the
// start symbol exists. Selection shape is checked lazily by the editor.
func (g *Grammar) Validate() error {
	if _, err := g.Start(); err != nil {
		return err
	}
	for _, lhs := range g.nonterminals {
		for i, p := range g.productions[lhs] {
			for _, ref := range p.RHS {
				if _, ok := g.Symbol(ref.Name, ref.Terminal); !ok {
					return fmt.Errorf("grammar: %s production %d references undeclared symbol %s",
						lhs, i, ref.Symbol)
				}
			}
		}
	}
	for _, c := range g.toolbox {
		for _, t := range c.Blocks {
			if _, ok := g.Symbol(t.Symbol.Name, t.Symbol.Terminal); !ok {
				return fmt.Errorf("grammar: toolbox %q references undeclared symbol %s", c.Name, t.Symbol.Symbol)
			}
			if t.Via != nil {
				if _, ok := g.Symbol(t.Via.Name, t.Via.Terminal); !ok {
					return fmt.Errorf("grammar: toolbox %q block %s is via undeclared symbol %s",
						c.Name, t.Symbol.Symbol, t.Via.Symbol)
				}
			}
		}
	}
	return nil
}

// Category is a named group of palette templates.
type Category struct {
	Name   string
	Icon   string
	Blocks []Template
}

// Template describes one palette block. When Via is set the block is built as
// if it had been chosen from a placeholder of that symbol.
type Template struct {
	Symbol SymbolRef
	Via    *SymbolRef
}

// ShapeError reports a non-terminal whose alternatives cannot be offered as a
// selection: every production of a multi-production symbol must have exactly
// one right-hand-side symbol.
type ShapeError struct {
	Symbol     Symbol
	Production int
	Size       int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("grammar: %s alternative %d has %d symbols, selection alternatives need exactly one",
		e.Symbol, e.Production, e.Size)
}
