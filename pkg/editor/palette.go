package editor

import (
	"fmt"

	"github.com/psaab/blockedit/pkg/element"
	"github.com/psaab/blockedit/pkg/grammar"
)

// Category is a named list of template blocks in the palette.
type Category struct {
	Name   string
	Icon   string
	Blocks []*element.Element
}

// Palette holds the toolbox templates blocks are dragged from.
type Palette struct {
	categories []*Category
}

func newPalette(e *Editor, cats []grammar.Category) (*Palette, error) {
	p := &Palette{}
	for _, c := range cats {
		pc := &Category{Name: c.Name, Icon: c.Icon}
		for _, t := range c.Blocks {
			b, err := e.buildTemplate(t)
			if err != nil {
				return nil, fmt.Errorf("toolbox %q: %w", c.Name, err)
			}
			pc.Blocks = append(pc.Blocks, b)
		}
		p.categories = append(p.categories, pc)
	}
	return p, nil
}

// buildTemplate expands a palette template. A template declared via a
// placeholder symbol is linked to a detached instance of that placeholder,
// the same lineage a block resolved in the document would have.
func (e *Editor) buildTemplate(t grammar.Template) (*element.Element, error) {
	b, err := e.BuildElement(t.Symbol)
	if err != nil {
		return nil, err
	}
	if t.Via != nil {
		via, err := e.BuildElement(*t.Via)
		if err != nil {
			return nil, err
		}
		b.SetGeneratedBy(via)
	}
	return b, nil
}

// Categories returns the palette categories.
func (p *Palette) Categories() []*Category {
	return p.categories
}

// Category looks up a category by name.
func (p *Palette) Category(name string) (*Category, bool) {
	for _, c := range p.categories {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Take returns a fresh copy of block i of the named category, lineage
// included, ready to be dropped.
func (p *Palette) Take(category string, i int) (*element.Element, error) {
	c, ok := p.Category(category)
	if !ok {
		return nil, fmt.Errorf("no palette category %q", category)
	}
	if i < 0 || i >= len(c.Blocks) {
		return nil, fmt.Errorf("palette category %q has no block %d", category, i)
	}
	return c.Blocks[i].CloneLineage(), nil
}

// Store adds a copy of el to the named category before block index before;
// an out-of-range index appends. Markers cannot be stored.
func (p *Palette) Store(category string, el *element.Element, before int) error {
	c, ok := p.Category(category)
	if !ok {
		return fmt.Errorf("no palette category %q", category)
	}
	if !el.HasSymbol() {
		return fmt.Errorf("%w: only grammar blocks can be stored in the palette", ErrInvalidOperation)
	}
	b := el.CloneLineage()
	if before < 0 || before >= len(c.Blocks) {
		c.Blocks = append(c.Blocks, b)
		return nil
	}
	c.Blocks = append(c.Blocks, nil)
	copy(c.Blocks[before+1:], c.Blocks[before:])
	c.Blocks[before] = b
	return nil
}
