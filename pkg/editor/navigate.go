package editor

import (
	"fmt"

	"github.com/psaab/blockedit/pkg/element"
)

// Direction is a navigation move.
type Direction int

const (
	In Direction = iota
	Out
	Left
	Right
	Up
	Down
)

var directionNames = [...]string{"in", "out", "left", "right", "up", "down"}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return "unknown"
	}
	return directionNames[d]
}

// ParseDirection converts a direction name.
func ParseDirection(s string) (Direction, error) {
	for i, n := range directionNames {
		if n == s {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Navigate moves the selection. It reports false, leaving the selection
// unchanged, when there is no target in that direction.
func (e *Editor) Navigate(d Direction) bool {
	var target *element.Element
	switch d {
	case In:
		target = e.inTarget()
	case Out:
		target = e.outTarget()
	case Left:
		target = e.sideTarget(-1)
	case Right:
		target = e.sideTarget(1)
	case Up:
		target = e.rowTarget(-1)
	case Down:
		target = e.rowTarget(1)
	}
	if target == nil {
		return false
	}
	e.selected = target
	e.stats.Navigations++
	return true
}

// In selects the first child of a selected group.
func (e *Editor) In() bool { return e.Navigate(In) }

// Out selects the parent of the selection.
func (e *Editor) Out() bool { return e.Navigate(Out) }

// Left selects the nearest previous sibling that is not a newline.
func (e *Editor) Left() bool { return e.Navigate(Left) }

// Right selects the nearest next sibling that is not a newline.
func (e *Editor) Right() bool { return e.Navigate(Right) }

// Up selects the last element of the nearest non-empty row above.
func (e *Editor) Up() bool { return e.Navigate(Up) }

// Down selects the first element of the nearest non-empty row below.
func (e *Editor) Down() bool { return e.Navigate(Down) }

func (e *Editor) inTarget() *element.Element {
	if !e.selected.Is(element.KindGroup) {
		return nil
	}
	return e.selected.Child(0)
}

func (e *Editor) outTarget() *element.Element {
	if e.selected == nil {
		return nil
	}
	return e.selected.Parent()
}

func (e *Editor) sideTarget(step int) *element.Element {
	if e.selected == nil || e.selected.Parent() == nil {
		return nil
	}
	p := e.selected.Parent()
	for i := p.IndexOf(e.selected) + step; i >= 0 && i < p.Len(); i += step {
		if c := p.Child(i); !c.Is(element.KindNewLine) {
			return c
		}
	}
	return nil
}

// rowTarget scans from the selection for a newline whose neighbour in the
// direction of travel is not another newline, and returns that neighbour.
func (e *Editor) rowTarget(step int) *element.Element {
	if e.selected == nil || e.selected.Parent() == nil {
		return nil
	}
	p := e.selected.Parent()
	for i := p.IndexOf(e.selected); i+step >= 0 && i+step < p.Len(); i += step {
		next := p.Child(i + step)
		if p.Child(i).Is(element.KindNewLine) && !next.Is(element.KindNewLine) {
			return next
		}
	}
	return nil
}
