package grammar

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// hclGrammarFile is the top-level structure of a grammar definition file:
//
//	start = "program"
//
//	terminal "print" {}
//	terminal "ident" { type = "identifier" }
//
//	nonterminal "program" {
//	  production {
//	    symbol "stmt" { repeatable = true }
//	  }
//	}
//
//	toolbox "Statements" {
//	  block "print_stmt" { via = "stmt" }
//	}
type hclGrammarFile struct {
	Start        string            `hcl:"start,optional"`
	Terminals    []*hclTerminal    `hcl:"terminal,block"`
	NonTerminals []*hclNonTerminal `hcl:"nonterminal,block"`
	Toolbox      []*hclCategory    `hcl:"toolbox,block"`
}

type hclTerminal struct {
	Name string `hcl:"name,label"`
	Type string `hcl:"type,optional"`
}

type hclNonTerminal struct {
	Name        string           `hcl:"name,label"`
	Productions []*hclProduction `hcl:"production,block"`
}

type hclProduction struct {
	Symbols []*hclSymbol `hcl:"symbol,block"`
}

type hclSymbol struct {
	Name       string `hcl:"name,label"`
	Terminal   *bool  `hcl:"terminal,optional"`
	Alias      string `hcl:"alias,optional"`
	Repeatable bool   `hcl:"repeatable,optional"`
}

type hclCategory struct {
	Name   string      `hcl:"name,label"`
	Icon   string      `hcl:"icon,optional"`
	Blocks []*hclBlock `hcl:"block,block"`
}

type hclBlock struct {
	Symbol   string `hcl:"symbol,label"`
	Terminal *bool  `hcl:"terminal,optional"`
	Alias    string `hcl:"alias,optional"`
	Via      string `hcl:"via,optional"`
}

// LoadFile parses and validates a grammar definition file.
func LoadFile(path string) (*Grammar, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse grammar %s: %w", path, diags)
	}
	return decode(f, path)
}

// LoadSource parses and validates grammar definition source held in memory.
func LoadSource(src []byte, filename string) (*Grammar, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse grammar %s: %w", filename, diags)
	}
	return decode(f, filename)
}

func decode(f *hcl.File, filename string) (*Grammar, error) {
	var parsed hclGrammarFile
	if diags := gohcl.DecodeBody(f.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("decode grammar %s: %w", filename, diags)
	}

	g := New()
	nonterminals := make(map[string]bool, len(parsed.NonTerminals))
	for _, nt := range parsed.NonTerminals {
		nonterminals[nt.Name] = true
	}
	for _, t := range parsed.Terminals {
		typ, err := ParseTerminalType(t.Type)
		if err != nil {
			return nil, fmt.Errorf("grammar %s: terminal %q: %w", filename, t.Name, err)
		}
		g.AddTerminal(t.Name, typ)
	}

	// A reference without an explicit terminal flag names a non-terminal
	// unless only a terminal of that name exists.
	resolve := func(name string, terminal *bool) Symbol {
		if terminal != nil {
			return Symbol{Name: name, Terminal: *terminal}
		}
		if _, isTerm := g.terminals[name]; isTerm && !nonterminals[name] {
			return Symbol{Name: name, Terminal: true}
		}
		return Symbol{Name: name}
	}

	for _, nt := range parsed.NonTerminals {
		if len(nt.Productions) == 0 {
			return nil, fmt.Errorf("grammar %s: non-terminal %q has no productions", filename, nt.Name)
		}
		for _, p := range nt.Productions {
			rhs := make([]SymbolRef, 0, len(p.Symbols))
			for _, s := range p.Symbols {
				rhs = append(rhs, SymbolRef{
					Symbol:     resolve(s.Name, s.Terminal),
					Alias:      s.Alias,
					Repeatable: s.Repeatable,
				})
			}
			g.AddProduction(nt.Name, rhs...)
		}
	}

	for _, c := range parsed.Toolbox {
		cat := Category{Name: c.Name, Icon: c.Icon}
		for _, b := range c.Blocks {
			tmpl := Template{Symbol: SymbolRef{Symbol: resolve(b.Symbol, b.Terminal), Alias: b.Alias}}
			if b.Via != "" {
				via := SymbolRef{Symbol: Symbol{Name: b.Via}}
				tmpl.Via = &via
			}
			cat.Blocks = append(cat.Blocks, tmpl)
		}
		g.AddCategory(cat)
	}

	g.SetStart(parsed.Start)
	if g.start == "" && len(g.nonterminals) > 0 {
		g.start = g.nonterminals[0]
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return g, nil
}
