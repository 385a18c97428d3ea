package element

// Len returns the number of children.
func (e *Element) Len() int { return len(e.children) }

// Child returns the i-th child, or nil when out of range.
func (e *Element) Child(i int) *Element {
	if i < 0 || i >= len(e.children) {
		return nil
	}
	return e.children[i]
}

// Children returns a copy of the child list.
func (e *Element) Children() []*Element {
	return append([]*Element(nil), e.children...)
}

// IndexOf returns the position of child, or -1.
func (e *Element) IndexOf(child *Element) int {
	for i, c := range e.children {
		if c == child {
			return i
		}
	}
	return -1
}

// InsertAt places child at index i (clamped to the valid range). A child that
// already has a parent is detached from it first.
func (e *Element) InsertAt(i int, child *Element) {
	if child.parent != nil {
		child.parent.Remove(child)
	}
	if i < 0 {
		i = 0
	}
	if i > len(e.children) {
		i = len(e.children)
	}
	e.children = append(e.children, nil)
	copy(e.children[i+1:], e.children[i:])
	e.children[i] = child
	child.parent = e
}

// InsertBefore places child immediately before ref. It reports false when ref
// is not a child of e.
func (e *Element) InsertBefore(ref, child *Element) bool {
	i := e.IndexOf(ref)
	if i < 0 {
		return false
	}
	e.InsertAt(i, child)
	return true
}

// InsertAfter places child immediately after ref.
func (e *Element) InsertAfter(ref, child *Element) bool {
	i := e.IndexOf(ref)
	if i < 0 {
		return false
	}
	e.InsertAt(i+1, child)
	return true
}

// Remove detaches child from e.
func (e *Element) Remove(child *Element) bool {
	i := e.IndexOf(child)
	if i < 0 {
		return false
	}
	e.children = append(e.children[:i], e.children[i+1:]...)
	child.parent = nil
	return true
}

// Previous returns the sibling before child, or nil.
func (e *Element) Previous(child *Element) *Element {
	return e.Child(e.IndexOf(child) - 1)
}

// Next returns the sibling after child, or nil.
func (e *Element) Next(child *Element) *Element {
	i := e.IndexOf(child)
	if i < 0 {
		return nil
	}
	return e.Child(i + 1)
}

// Walk visits e and its descendants in document order. Returning false from
// fn skips the element's children.
func (e *Element) Walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.children {
		c.Walk(fn)
	}
}

// Contains reports whether x is e or one of its descendants.
func (e *Element) Contains(x *Element) bool {
	for it := x; it != nil; it = it.parent {
		if it == e {
			return true
		}
	}
	return false
}

// Root returns the top of e's tree.
func (e *Element) Root() *Element {
	it := e
	for it.parent != nil {
		it = it.parent
	}
	return it
}

// Count returns the number of elements in e's subtree, e included.
func (e *Element) Count() int {
	n := 0
	e.Walk(func(*Element) bool {
		n++
		return true
	})
	return n
}
