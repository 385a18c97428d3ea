package element

import (
	"fmt"
	"strconv"
	"strings"
)

// Path returns the child indexes leading from e's root to e.
func Path(e *Element) []int {
	var rev []int
	for it := e; it.parent != nil; it = it.parent {
		rev = append(rev, it.parent.IndexOf(it))
	}
	out := make([]int, len(rev))
	for i, idx := range rev {
		out[len(rev)-1-i] = idx
	}
	return out
}

// At follows path from root. It returns nil if any index is out of range.
func At(root *Element, path []int) *Element {
	it := root
	for _, i := range path {
		it = it.Child(i)
		if it == nil {
			return nil
		}
	}
	return it
}

// Find returns the element with the given ID in root's subtree.
func Find(root *Element, id string) *Element {
	var found *Element
	root.Walk(func(e *Element) bool {
		if found != nil {
			return false
		}
		if e.id == id {
			found = e
			return false
		}
		return true
	})
	return found
}

// FormatPath renders a path as dotted indexes; the root is "/".
func FormatPath(path []int) string {
	if len(path) == 0 {
		return "/"
	}
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}

// ParsePath parses the output of FormatPath.
func ParsePath(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "/" {
		return nil, nil
	}
	parts := strings.Split(strings.TrimPrefix(s, "/"), ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid path %q", s)
		}
		out[i] = n
	}
	return out, nil
}
