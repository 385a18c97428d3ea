package editor

// The Replay functions reapply a reverted edit using the objects recorded
// the first time, so later history entries that refer to them stay valid.

// ReplayGeneration reapplies a reverted Resolve.
func (e *Editor) ReplayGeneration(g Generation) {
	g.Parent.InsertBefore(g.Selection, g.Elem)
	if g.Separator != nil {
		g.Parent.InsertBefore(g.Selection, g.Separator)
	}
	if g.Consumed {
		g.Parent.Remove(g.Selection)
	}
	e.selected = g.Elem
}

// ReplayInput reapplies a reverted Input.
func (e *Editor) ReplayInput(r InputResult) {
	if r.Spawned {
		r.Source.SetText("")
		r.Source.SetValid(true)
		r.Source.Parent().InsertBefore(r.Source, r.Target)
		e.selected = r.Target
	}
	r.Target.SetText(r.Text)
	r.Target.SetValid(r.Warning == nil)
}

// ReplaySubstitution reapplies a reverted Substitute.
func (e *Editor) ReplaySubstitution(s Substitution) {
	if s.Regrown != nil {
		s.Parent.InsertAfter(s.Dest, s.Regrown)
	}
	if s.Separator != nil {
		s.Parent.InsertAfter(s.Dest, s.Separator)
	}
	src := s.Anchor.Source
	src.SetGeneratedBy(s.nextGeneratedBy)
	src.Symbol().Repeatable = s.nextRepeatable
	src.Symbol().Alias = s.Anchor.Dest.Symbol().Alias
	s.Parent.InsertBefore(s.Dest, s.Source)
	s.Parent.Remove(s.Dest)
	e.selected = s.Source
}

// ReplayLayout reapplies a reverted layout edit.
func (e *Editor) ReplayLayout(l Layout) {
	if l.Inserted {
		l.Parent.InsertAt(l.Index, l.Marker)
		return
	}
	l.Parent.Remove(l.Marker)
}
