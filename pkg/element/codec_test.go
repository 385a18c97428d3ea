package element

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/psaab/blockedit/pkg/grammar"
)

func TestEncodeFormat(t *testing.T) {
	root, _, ident, _, _ := sampleTree(t)
	ident.SetText(`say "hi"`)
	ident.SetValid(false)

	want := `group "print_stmt" {
    simple "print" terminal;
    input "ident" terminal alias "value" text "say \"hi\"" invalid;
    newline;
    select "stmt" repeatable {
        option "print_stmt";
        option "assign";
    }
}
`
	if diff := cmp.Diff(want, Encode(root)); diff != "" {
		t.Errorf("Encode mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	root, print, ident, _, sel := sampleTree(t)
	ident.SetText("line1\nline2\t\\")
	gen := NewSelection(nonterm("stmt"), []grammar.SymbolRef{nonterm("print_stmt")})
	root.SetGeneratedBy(gen)
	print.SetGeneratedBy(NewSimple(term("print")))
	_ = sel

	text := Encode(root)
	got, err := Decode(text)
	if err != nil {
		t.Fatalf("Decode: %v\n%s", err, text)
	}
	if diff := cmp.Diff(text, Encode(got)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if got.GeneratedBy() == nil || got.GeneratedBy().Kind() != KindSelection {
		t.Fatal("generation link lost")
	}
	if got.GeneratedBy().Parent() != nil {
		t.Error("decoded lineage must be detached")
	}
	if got.Child(1).Text() != ident.Text() {
		t.Errorf("text = %q, want %q", got.Child(1).Text(), ident.Text())
	}
	if got.Child(0).GeneratedBy() == nil {
		t.Error("child generation link lost")
	}
	if got.Child(3).Parent() != got {
		t.Error("decoded children must be attached")
	}
}

func TestEncodeLineageOmitsChildren(t *testing.T) {
	src := NewGroup(nonterm("stmt"), NewSimple(term("print")))
	e := NewSimple(term("print"))
	e.SetGeneratedBy(src)

	want := `simple "print" terminal {
    from group "stmt" {
    }
}
`
	if diff := cmp.Diff(want, Encode(e)); diff != "" {
		t.Errorf("Encode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeMarkersAndComments(t *testing.T) {
	src := `
# a saved document
group program {
    tab;
    // comment
    input number terminal text "12";
    newline;
}
`
	e, err := Decode(src)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if e.Len() != 3 || !e.Child(0).Is(KindTab) || !e.Child(2).Is(KindNewLine) {
		t.Fatalf("decoded %s", Encode(e))
	}
	if e.Child(1).Symbol().Name != "number" || !e.Child(1).Symbol().Terminal {
		t.Errorf("input symbol = %v", e.Child(1).Symbol())
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"empty", "", "expected element kind"},
		{"unknown kind", "block x;", "unknown element kind"},
		{"missing semicolon", "simple x", "expected ';' or '{'"},
		{"unterminated", "group x {", "expected item"},
		{"trailing", "tab; tab;", "after element"},
		{"option outside select", "group x { option y; }", "option in group"},
		{"child in input", "input x { simple y; }", "child element in input"},
		{"text on simple", `simple x text "a";`, "text on simple"},
		{"bad string", `input x text "abc`, "unterminated string"},
		{"duplicate from", "simple x { from tab; from tab; }", "duplicate from"},
		{"marker with body", "newline {", "expected ';' after newline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not a ParseError", err)
			}
			if pe.Line < 1 {
				t.Errorf("line = %d", pe.Line)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestToProto(t *testing.T) {
	root, _, ident, _, _ := sampleTree(t)
	ident.SetText("x")
	gen := NewSelection(nonterm("stmt"), nil)
	root.SetGeneratedBy(gen)

	s, err := ToProto(root)
	if err != nil {
		t.Fatalf("ToProto: %v", err)
	}
	m := s.AsMap()
	if m["kind"] != "group" || m["symbol"] != "print_stmt" {
		t.Errorf("top = %v", m)
	}
	if m["generated_by"] != gen.ID() {
		t.Errorf("generated_by = %v", m["generated_by"])
	}
	children := m["children"].([]any)
	if len(children) != 4 {
		t.Fatalf("children = %d", len(children))
	}
	in := children[1].(map[string]any)
	if in["text"] != "x" || in["alias"] != "value" || in["valid"] != true {
		t.Errorf("input = %v", in)
	}
	sel := children[3].(map[string]any)
	if sel["repeatable"] != true {
		t.Errorf("select = %v", sel)
	}

	b, err := MarshalJSON(root)
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["id"] != root.ID() {
		t.Errorf("id = %v", decoded["id"])
	}
}

func TestOutlineAndSource(t *testing.T) {
	root, _, ident, _, _ := sampleTree(t)
	ident.SetText("x")
	outer := NewGroup(nonterm("program"), NewTab(), root)

	out := Outline(outer, ident)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("outline has %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[4], "* 1.1") || !strings.Contains(lines[4], `input value "x"`) {
		t.Errorf("selected line = %q", lines[4])
	}
	if !strings.Contains(lines[6], "[print_stmt | assign]") {
		t.Errorf("select line = %q", lines[6])
	}

	want := "    print x\n<stmt>"
	if got := Source(outer); got != want {
		t.Errorf("Source = %q, want %q", got, want)
	}
}
