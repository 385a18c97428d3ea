package element

import (
	"fmt"
	"strings"
)

// Outline renders root's subtree one element per line with its path. The
// element equal to mark is flagged with '*'.
func Outline(root, mark *Element) string {
	var b strings.Builder
	outline(&b, root, mark, Path(root), 0)
	return b.String()
}

func outline(b *strings.Builder, e, mark *Element, path []int, depth int) {
	flag := ' '
	if e == mark {
		flag = '*'
	}
	fmt.Fprintf(b, "%c %-10s %s%s", flag, FormatPath(path), strings.Repeat("  ", depth), describe(e))
	b.WriteByte('\n')
	for i, c := range e.children {
		outline(b, c, mark, append(path[:len(path):len(path)], i), depth+1)
	}
}

func describe(e *Element) string {
	switch e.kind {
	case KindInput:
		s := fmt.Sprintf("%s %s %q", e.kind, e.Label(), e.text)
		if !e.valid {
			s += " (invalid)"
		}
		return s
	case KindSelection:
		labels := make([]string, len(e.alternatives))
		for i, a := range e.alternatives {
			labels[i] = a.Label()
		}
		return fmt.Sprintf("%s %s [%s]", e.kind, e.Label(), strings.Join(labels, " | "))
	case KindNewLine, KindTab:
		return e.kind.String()
	default:
		s := fmt.Sprintf("%s %s", e.kind, e.Label())
		if e.ref != nil && e.ref.Repeatable {
			s += "*"
		}
		return s
	}
}

// Source renders the tree as program text: terminals in document order,
// rows split at newlines, four spaces per tab. Placeholders appear as
// <label> and empty inputs as _.
func Source(root *Element) string {
	var b strings.Builder
	atLineStart := true
	root.Walk(func(e *Element) bool {
		var word string
		switch e.kind {
		case KindGroup:
			return true
		case KindNewLine:
			b.WriteByte('\n')
			atLineStart = true
			return false
		case KindTab:
			b.WriteString("    ")
			return false
		case KindSimple:
			word = e.ref.Name
		case KindInput:
			word = e.text
			if word == "" {
				word = "_"
			}
		case KindSelection:
			word = "<" + e.Label() + ">"
		}
		if !atLineStart && !strings.HasSuffix(b.String(), " ") {
			b.WriteByte(' ')
		}
		b.WriteString(word)
		atLineStart = false
		return false
	})
	return strings.TrimRight(b.String(), " ")
}
