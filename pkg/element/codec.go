package element

import (
	"fmt"
	"strings"

	"github.com/psaab/blockedit/pkg/grammar"
)

// The transfer format is a brace-delimited text form of an element subtree,
// used for the clipboard, drag and drop, and saved documents:
//
//	group "print_stmt" {
//	    simple "print" terminal;
//	    input "ident" terminal alias "value" text "x";
//	    from select "stmt" {
//	        option "print_stmt";
//	        option "assign";
//	    }
//	}
//
// A "from" item records the element's generation link. Linked elements are
// written without their children.

// ParseError reports a malformed transfer text.
type ParseError struct {
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Msg)
}

// Encode renders e and its subtree in the transfer format.
func Encode(e *Element) string {
	var b strings.Builder
	formatElement(&b, e, 0, false)
	return b.String()
}

func formatElement(b *strings.Builder, e *Element, indent int, shallow bool) {
	prefix := strings.Repeat("    ", indent)
	b.WriteString(prefix)
	b.WriteString(e.kind.String())
	if e.ref != nil {
		b.WriteByte(' ')
		writeRef(b, *e.ref)
	}
	if e.kind == KindInput {
		if e.text != "" {
			fmt.Fprintf(b, " text %s", quote(e.text))
		}
		if !e.valid {
			b.WriteString(" invalid")
		}
	}

	hasChildren := e.kind == KindGroup && !shallow
	if !hasChildren && e.kind != KindGroup && len(e.alternatives) == 0 && e.generatedBy == nil {
		b.WriteString(";\n")
		return
	}

	b.WriteString(" {\n")
	inner := strings.Repeat("    ", indent+1)
	for _, alt := range e.alternatives {
		b.WriteString(inner)
		b.WriteString("option ")
		writeRef(b, alt)
		b.WriteString(";\n")
	}
	if hasChildren {
		for _, c := range e.children {
			formatElement(b, c, indent+1, false)
		}
	}
	if e.generatedBy != nil {
		b.WriteString(inner)
		b.WriteString("from ")
		var nested strings.Builder
		formatElement(&nested, e.generatedBy, indent+1, true)
		b.WriteString(strings.TrimPrefix(nested.String(), inner))
	}
	b.WriteString(prefix)
	b.WriteString("}\n")
}

func writeRef(b *strings.Builder, ref grammar.SymbolRef) {
	b.WriteString(quote(ref.Name))
	if ref.Terminal {
		b.WriteString(" terminal")
	}
	if ref.Repeatable {
		b.WriteString(" repeatable")
	}
	if ref.Alias != "" {
		fmt.Fprintf(b, " alias %s", quote(ref.Alias))
	}
}

// Decode parses a single element written by Encode.
func Decode(src string) (*Element, error) {
	p := &parser{lex: NewLexer(src)}
	p.next()
	e, err := p.element()
	if err != nil {
		return nil, err
	}
	if p.tok.Type != TokenEOF {
		return nil, p.errorf("unexpected %s after element", p.tok)
	}
	return e, nil
}

type parser struct {
	lex *Lexer
	tok Token
}

func (p *parser) next() {
	p.tok = p.lex.Next()
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.tok.Line, Column: p.tok.Column, Msg: fmt.Sprintf(format, args...)}
}

func parseKind(s string) (Kind, bool) {
	for k := KindGroup; k <= KindTab; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

func (p *parser) element() (*Element, error) {
	if p.tok.Type == TokenError {
		return nil, p.errorf("%s", p.tok.Value)
	}
	if p.tok.Type != TokenIdentifier {
		return nil, p.errorf("expected element kind, got %s", p.tok)
	}
	kind, ok := parseKind(p.tok.Value)
	if !ok {
		return nil, p.errorf("unknown element kind %q", p.tok.Value)
	}
	p.next()

	if kind == KindNewLine || kind == KindTab {
		if p.tok.Type != TokenSemicolon {
			return nil, p.errorf("expected ';' after %s, got %s", kind, p.tok)
		}
		p.next()
		return newElement(kind, nil), nil
	}

	ref, err := p.ref()
	if err != nil {
		return nil, err
	}
	e := newElement(kind, &ref)

	for p.tok.Type == TokenIdentifier {
		switch p.tok.Value {
		case "text":
			p.next()
			if p.tok.Type != TokenString {
				return nil, p.errorf("expected string after text, got %s", p.tok)
			}
			e.text = p.tok.Value
			p.next()
		case "invalid":
			e.valid = false
			p.next()
		default:
			return nil, p.errorf("unexpected attribute %q", p.tok.Value)
		}
	}
	if (e.text != "" || !e.valid) && kind != KindInput {
		return nil, p.errorf("text on %s element", kind)
	}

	switch p.tok.Type {
	case TokenSemicolon:
		p.next()
		return e, nil
	case TokenLBrace:
		p.next()
	default:
		return nil, p.errorf("expected ';' or '{', got %s", p.tok)
	}

	for p.tok.Type != TokenRBrace {
		if p.tok.Type != TokenIdentifier {
			return nil, p.errorf("expected item, got %s", p.tok)
		}
		switch p.tok.Value {
		case "option":
			if kind != KindSelection {
				return nil, p.errorf("option in %s element", kind)
			}
			p.next()
			alt, err := p.ref()
			if err != nil {
				return nil, err
			}
			if p.tok.Type != TokenSemicolon {
				return nil, p.errorf("expected ';' after option, got %s", p.tok)
			}
			p.next()
			e.alternatives = append(e.alternatives, alt)
		case "from":
			if e.generatedBy != nil {
				return nil, p.errorf("duplicate from")
			}
			p.next()
			g, err := p.element()
			if err != nil {
				return nil, err
			}
			e.generatedBy = g
		default:
			if kind != KindGroup {
				return nil, p.errorf("child element in %s element", kind)
			}
			c, err := p.element()
			if err != nil {
				return nil, err
			}
			e.InsertAt(len(e.children), c)
		}
	}
	p.next()
	return e, nil
}

// ref parses NAME [terminal] [repeatable] [alias NAME].
func (p *parser) ref() (grammar.SymbolRef, error) {
	var ref grammar.SymbolRef
	if p.tok.Type != TokenString && p.tok.Type != TokenIdentifier {
		return ref, p.errorf("expected symbol name, got %s", p.tok)
	}
	ref.Name = p.tok.Value
	p.next()
	for p.tok.Type == TokenIdentifier {
		switch p.tok.Value {
		case "terminal":
			ref.Terminal = true
		case "repeatable":
			ref.Repeatable = true
		case "alias":
			p.next()
			if p.tok.Type != TokenString && p.tok.Type != TokenIdentifier {
				return ref, p.errorf("expected alias name, got %s", p.tok)
			}
			ref.Alias = p.tok.Value
		default:
			return ref, nil
		}
		p.next()
	}
	return ref, nil
}
