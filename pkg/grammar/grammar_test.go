package grammar

import (
	"errors"
	"strings"
	"testing"
)

func TestMiniLangLoads(t *testing.T) {
	g, err := MiniLang()
	if err != nil {
		t.Fatalf("MiniLang: %v", err)
	}

	start, err := g.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if start.Name != "program" || start.Terminal {
		t.Errorf("start = %v, want program", start)
	}

	stmt, ok := g.Symbol("stmt", false)
	if !ok {
		t.Fatal("stmt not declared")
	}
	if n := len(g.Productions(stmt)); n != 4 {
		t.Errorf("stmt productions = %d, want 4", n)
	}

	prog := g.Productions(Symbol{Name: "program"})
	if len(prog) != 1 || len(prog[0].RHS) != 1 {
		t.Fatalf("program productions = %+v", prog)
	}
	if !prog[0].RHS[0].Repeatable {
		t.Error("program -> stmt should be repeatable")
	}
}

func TestTerminalInference(t *testing.T) {
	g, err := MiniLang()
	if err != nil {
		t.Fatalf("MiniLang: %v", err)
	}
	assign := g.Productions(Symbol{Name: "assign"})[0]
	want := []SymbolRef{
		{Symbol: Symbol{Name: "ident", Terminal: true}, Alias: "target"},
		{Symbol: Symbol{Name: "=", Terminal: true}},
		{Symbol: Symbol{Name: "expr"}},
	}
	if len(assign.RHS) != len(want) {
		t.Fatalf("assign rhs = %v", assign.RHS)
	}
	for i := range want {
		if assign.RHS[i] != want[i] {
			t.Errorf("rhs[%d] = %+v, want %+v", i, assign.RHS[i], want[i])
		}
	}

	if typ := g.TerminalType(Symbol{Name: "ident", Terminal: true}); typ != Identifier {
		t.Errorf("ident type = %v, want identifier", typ)
	}
	if typ := g.TerminalType(Symbol{Name: "print", Terminal: true}); typ != Static {
		t.Errorf("print type = %v, want static", typ)
	}
}

func TestToolboxTemplates(t *testing.T) {
	g, err := MiniLang()
	if err != nil {
		t.Fatalf("MiniLang: %v", err)
	}
	tb := g.Toolbox()
	if len(tb) != 2 {
		t.Fatalf("toolbox categories = %d, want 2", len(tb))
	}
	if tb[0].Name != "Statements" {
		t.Errorf("first category = %q", tb[0].Name)
	}
	if tb[0].Blocks[0].Via != nil {
		t.Error("stmt block should not be via anything")
	}
	via := tb[0].Blocks[1].Via
	if via == nil || via.Name != "stmt" {
		t.Errorf("print_stmt via = %v, want stmt", via)
	}
}

func TestLoadSourceErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "undeclared",
			src: `
nonterminal "a" {
  production {
    symbol "missing" {}
  }
}`,
			want: "undeclared symbol",
		},
		{
			name: "bad type",
			src:  `terminal "x" { type = "complex" }`,
			want: "unknown terminal type",
		},
		{
			name: "no productions",
			src:  `nonterminal "a" {}`,
			want: "no productions",
		},
		{
			name: "syntax",
			src:  `nonterminal "a" {`,
			want: "parse grammar",
		},
		{
			name: "no start",
			src:  `terminal "x" {}`,
			want: "no start symbol",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSource([]byte(tt.src), tt.name+".hcl")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestProgrammaticGrammar(t *testing.T) {
	g := New()
	g.AddTerminal("x", Identifier)
	g.AddProduction("list", SymbolRef{Symbol: Symbol{Name: "x", Terminal: true}, Repeatable: true})
	g.SetStart("list")
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	syms := g.Symbols()
	if len(syms) != 2 || syms[0].Name != "list" || !syms[1].Terminal {
		t.Errorf("Symbols() = %v", syms)
	}
	if _, ok := g.Symbol("x", false); ok {
		t.Error("x must not resolve as a non-terminal")
	}
}

func TestSymbolRefIdentity(t *testing.T) {
	a := SymbolRef{Symbol: Symbol{Name: "expr"}, Alias: "lhs", Repeatable: true}
	b := Ref("expr", false)
	if !a.Same(b) {
		t.Error("alias and repeatable must not affect identity")
	}
	if a.Same(Ref("expr", true)) {
		t.Error("terminal flag is part of identity")
	}
	if a.Label() != "lhs" || b.Label() != "expr" {
		t.Errorf("labels = %q, %q", a.Label(), b.Label())
	}
}

func TestShapeError(t *testing.T) {
	var err error = &ShapeError{Symbol: Symbol{Name: "expr"}, Production: 2, Size: 3}
	var shape *ShapeError
	if !errors.As(err, &shape) || shape.Size != 3 {
		t.Fatalf("errors.As failed: %v", err)
	}
	if !strings.Contains(err.Error(), "expr alternative 2 has 3 symbols") {
		t.Errorf("message = %q", err)
	}
}

func TestParseTerminalType(t *testing.T) {
	for _, typ := range []TerminalType{Static, Integer, Float, Char, String, Bool, Identifier} {
		got, err := ParseTerminalType(typ.String())
		if err != nil || got != typ {
			t.Errorf("ParseTerminalType(%q) = %v, %v", typ.String(), got, err)
		}
	}
	if Static.Input() || !Identifier.Input() {
		t.Error("Input() classification wrong")
	}
}

func TestTerminalTypeValid(t *testing.T) {
	tests := []struct {
		typ  TerminalType
		text string
		want bool
	}{
		{Integer, "", true},
		{Integer, "42", true},
		{Integer, "-7", true},
		{Integer, "0x1f", true},
		{Integer, "3.0", true},
		{Integer, "3.5", false},
		{Integer, "abc", false},
		{Float, "3.5", true},
		{Float, "1e3", true},
		{Float, "Inf", false},
		{Float, "NaN", false},
		{Float, "x", false},
		{Char, "a", true},
		{Char, "é", true},
		{Char, "ab", false},
		{String, "anything at all", true},
		{Bool, "true", true},
		{Bool, "false", true},
		{Bool, "True", false},
		{Identifier, "_x1", true},
		{Identifier, "Name", true},
		{Identifier, "1x", false},
		{Identifier, "a-b", false},
		{Static, "whatever", true},
	}
	for _, tt := range tests {
		if got := tt.typ.Valid(tt.text); got != tt.want {
			t.Errorf("%s.Valid(%q) = %v, want %v", tt.typ, tt.text, got, tt.want)
		}
	}
}
