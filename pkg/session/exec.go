package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/psaab/blockedit/pkg/cmdtree"
)

// Exec runs one shell command line against the session and returns its
// output. Output may be filtered with a trailing "| match x" style pipe.
func (s *Session) Exec(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	if cmd, filter, arg, ok := cmdtree.SplitPipe(line); ok {
		out, err := s.Exec(cmd)
		return cmdtree.ApplyPipe(out, filter, arg), err
	}

	parts := strings.Fields(line)
	args := parts[1:]
	switch parts[0] {
	case "show":
		return s.execShow(args)

	case "select":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: select <path|id>")
		}
		return infoLine(s.Select(args[0]))

	case "move":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: move <direction>")
		}
		return infoLine(s.Navigate(args[0]))

	case "in", "out", "left", "right", "up", "down":
		return infoLine(s.Navigate(parts[0]))

	case "choose":
		if len(args) < 1 || len(args) > 2 {
			return "", fmt.Errorf("usage: choose <alternative|index> [path|id]")
		}
		return infoLine(s.Choose(optional(args, 1), args[0]))

	case "type":
		// Text is the rest of the line so it may contain spaces.
		text := strings.TrimSpace(strings.TrimPrefix(line, "type"))
		text = strings.Trim(text, `"`)
		in, err := s.Type("", text)
		if err != nil {
			return "", err
		}
		if !in.Valid {
			return in.String() + "\nwarning: text does not match the terminal type\n", nil
		}
		return in.String() + "\n", nil

	case "delete":
		if err := s.Delete(optional(args, 0)); err != nil {
			return "", err
		}
		return s.selectionLine(), nil

	case "backspace":
		if err := s.Backspace(); err != nil {
			return "", err
		}
		return s.selectionLine(), nil

	case "copy":
		if err := s.Copy(optional(args, 0)); err != nil {
			return "", err
		}
		return "copied\n", nil

	case "paste":
		return infoLine(s.Paste())

	case "take":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: take <category> <index>")
		}
		i, err := strconv.Atoi(args[1])
		if err != nil {
			return "", fmt.Errorf("take: bad index %q", args[1])
		}
		if _, err := s.Take(args[0], i); err != nil {
			return "", err
		}
		d, _ := s.Dragging()
		return "dragging " + d.Label + "\n", nil

	case "drop":
		return infoLine(s.Drop(optional(args, 0), ""))

	case "store":
		if len(args) < 1 || len(args) > 2 {
			return "", fmt.Errorf("usage: store <category> [before]")
		}
		before := -1
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return "", fmt.Errorf("store: bad index %q", args[1])
			}
			before = n
		}
		if err := s.Store(args[0], "", before); err != nil {
			return "", err
		}
		return "stored in " + args[0] + "\n", nil

	case "indent", "outdent", "newline":
		op, _ := ParseLayoutOp(parts[0])
		if err := s.Layout(op); err != nil {
			return "", err
		}
		return s.selectionLine(), nil

	case "undo":
		name, err := s.Undo()
		if err != nil {
			return "", err
		}
		return "undid " + name + "\n", nil

	case "redo":
		name, err := s.Redo()
		if err != nil {
			return "", err
		}
		return "redid " + name + "\n", nil

	case "save":
		path, err := s.Save(optional(args, 0))
		if err != nil {
			return "", err
		}
		return "saved " + path + "\n", nil

	case "load":
		path, err := s.Load(optional(args, 0))
		if err != nil {
			return "", err
		}
		return "loaded " + path + "\n", nil

	case "reset":
		if err := s.Reset(); err != nil {
			return "", err
		}
		return "new document\n", nil

	case "?", "help":
		return cmdtree.TreeHelp("Editor commands:", cmdtree.EditorTree, args...), nil

	default:
		return "", fmt.Errorf("unknown command: %s", parts[0])
	}
}

func (s *Session) execShow(args []string) (string, error) {
	if len(args) == 0 {
		return cmdtree.TreeHelp("show:", cmdtree.EditorTree, "show"), nil
	}
	switch args[0] {
	case "outline":
		return s.Outline(), nil
	case "source":
		return s.Source() + "\n", nil
	case "document":
		return s.Encode(), nil
	case "json":
		data, err := s.JSON()
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	case "selection":
		return s.selectionLine(), nil
	case "clipboard":
		if c := s.Clipboard(); c != "" {
			return c, nil
		}
		return "clipboard is empty\n", nil
	case "choices":
		var b strings.Builder
		for i, c := range s.Choices() {
			fmt.Fprintf(&b, "%3d  %s\n", i, c)
		}
		return b.String(), nil
	case "targets":
		targets, err := s.Targets("")
		if err != nil {
			return "", err
		}
		return infoLines(targets), nil
	case "palette":
		var b strings.Builder
		for _, c := range s.Palette() {
			fmt.Fprintf(&b, "%s:\n", c.Name)
			for i, blk := range c.Blocks {
				fmt.Fprintf(&b, "%5d  %s\n", i, blk)
			}
		}
		return b.String(), nil
	case "history":
		var b strings.Builder
		for i, h := range s.History() {
			fmt.Fprintf(&b, "%3d  %s\n", i, h)
		}
		return b.String(), nil
	case "log":
		n := 20
		if len(args) > 1 {
			v, err := strconv.Atoi(args[1])
			if err != nil || v <= 0 {
				return "", fmt.Errorf("show log: bad count %q", args[1])
			}
			n = v
		}
		var b strings.Builder
		for _, ev := range s.events.Latest(n) {
			b.WriteString(ev.String())
			b.WriteByte('\n')
		}
		return b.String(), nil
	case "stats":
		return formatStats(s.Stats()), nil
	default:
		return "", fmt.Errorf("unknown show target: %s", args[0])
	}
}

func (s *Session) selectionLine() string {
	sel, ok := s.Selection()
	if !ok {
		return "nothing selected\n"
	}
	return sel.String() + "\n"
}

func infoLine(in Info, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return in.String() + "\n", nil
}

func infoLines(ins []Info) string {
	var b strings.Builder
	for _, in := range ins {
		b.WriteString(in.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func optional(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func formatStats(st Stats) string {
	var b strings.Builder
	e := st.Editor
	fmt.Fprintf(&b, "Elements:      %d\n", st.Elements)
	fmt.Fprintf(&b, "Resolved:      %d\n", e.Resolved)
	fmt.Fprintf(&b, "Inputs:        %d (spawned %d, warnings %d)\n", e.Inputs, e.Spawned, e.Warnings)
	fmt.Fprintf(&b, "Removed:       %d (restored %d)\n", e.Removed, e.Restored)
	fmt.Fprintf(&b, "Pasted:        %d\n", e.Pasted)
	fmt.Fprintf(&b, "Copied:        %d\n", e.Copied)
	fmt.Fprintf(&b, "Navigations:   %d\n", e.Navigations)
	fmt.Fprintf(&b, "Refused:       %d\n", e.Refused)
	fmt.Fprintf(&b, "History:       %d (undo %v, redo %v)\n", st.HistoryLen, st.CanUndo, st.CanRedo)
	fmt.Fprintf(&b, "Events:        %d\n", st.Events)
	fmt.Fprintf(&b, "Unsaved:       %v\n", st.Dirty)
	return b.String()
}
