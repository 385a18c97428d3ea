// Package cmdtree defines the canonical command tree of the editor shell.
//
// The same tree drives:
//   - pkg/session (Exec dispatch and help)
//   - pkg/cli (local interactive shell)
//   - pkg/grpcapi (Complete RPC) and cmd/blockctl
//
// When adding a command, add it here so it appears in tab completion and
// '?' help in every shell.
package cmdtree

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Source provides the document-dependent values offered during completion.
type Source interface {
	// Choices returns the alternative labels of the selected placeholder.
	Choices() []string
	// Categories returns the palette category names.
	Categories() []string
}

// Node defines a completion tree node with description, children, and optional dynamic values.
type Node struct {
	Desc      string
	Children  map[string]*Node
	DynamicFn func(src Source) []string
}

// Candidate holds a command name and its description for display.
type Candidate struct {
	Name string
	Desc string
}

func choices(src Source) []string    { return src.Choices() }
func categories(src Source) []string { return src.Categories() }

func directions(Source) []string {
	return []string{"in", "out", "left", "right", "up", "down"}
}

// EditorTree is the command tree of the editor shell.
var EditorTree = map[string]*Node{
	"show": {Desc: "Show information", Children: map[string]*Node{
		"outline":   {Desc: "Show the element tree with paths"},
		"source":    {Desc: "Show the document as program text"},
		"document":  {Desc: "Show the document in transfer format"},
		"json":      {Desc: "Show the document as JSON"},
		"selection": {Desc: "Show the selected element"},
		"clipboard": {Desc: "Show the copied element"},
		"choices":   {Desc: "Show alternatives of the selected placeholder"},
		"targets":   {Desc: "Show where the dragged or copied element can go"},
		"palette":   {Desc: "Show toolbox categories and blocks"},
		"history":   {Desc: "Show undoable commands"},
		"log":       {Desc: "Show recent edit events"},
		"stats":     {Desc: "Show edit counters"},
	}},
	"select":    {Desc: "Select an element by path or ID"},
	"move":      {Desc: "Move the selection", DynamicFn: directions},
	"in":        {Desc: "Select the first child"},
	"out":       {Desc: "Select the parent"},
	"left":      {Desc: "Select the previous sibling"},
	"right":     {Desc: "Select the next sibling"},
	"up":        {Desc: "Select the element on the previous row"},
	"down":      {Desc: "Select the element on the next row"},
	"choose":    {Desc: "Resolve the selected placeholder", DynamicFn: choices},
	"type":      {Desc: "Set the text of the selected input"},
	"delete":    {Desc: "Delete the selected element"},
	"backspace": {Desc: "Delete the element before the selection"},
	"copy":      {Desc: "Copy the selected element"},
	"paste":     {Desc: "Paste the copied element onto the selection"},
	"take":      {Desc: "Start dragging a toolbox block", DynamicFn: categories},
	"drop":      {Desc: "Drop the dragged block onto the selection"},
	"store":     {Desc: "Add the selection to a toolbox category", DynamicFn: categories},
	"indent":    {Desc: "Insert a tab before the selection"},
	"outdent":   {Desc: "Remove the tab before the selection"},
	"newline":   {Desc: "Insert a row break before the selection"},
	"undo":      {Desc: "Undo the last edit"},
	"redo":      {Desc: "Redo the last undone edit"},
	"save":      {Desc: "Save the document"},
	"load":      {Desc: "Load a document"},
	"reset":     {Desc: "Start a new document"},
	"help":      {Desc: "Show available commands"},
	"quit":      {Desc: "Exit the shell"},
	"exit":      {Desc: "Exit the shell"},
}

// --- Helper functions ---

// KeysFromTree returns a sorted list of keys from a Node map.
func KeysFromTree(tree map[string]*Node) []string {
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HelpCandidates returns Candidates from a tree's children for help display.
func HelpCandidates(tree map[string]*Node) []Candidate {
	candidates := make([]Candidate, 0, len(tree))
	for name, node := range tree {
		candidates = append(candidates, Candidate{Name: name, Desc: node.Desc})
	}
	return candidates
}

// CompleteFromTree walks the tree to find completion candidates for the given words and partial.
func CompleteFromTree(tree map[string]*Node, words []string, partial string, src Source) []string {
	cands := CompleteFromTreeWithDesc(tree, words, partial, src)
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Name
	}
	sort.Strings(out)
	return out
}

// CompleteFromTreeWithDesc walks the tree returning name+description pairs.
func CompleteFromTreeWithDesc(tree map[string]*Node, words []string, partial string, src Source) []Candidate {
	current := tree
	var currentNode *Node
	dynamicConsumed := false
	for _, w := range words {
		dynamicConsumed = false
		node, ok := current[w]
		if !ok {
			// Not a static child: a dynamic value of the parent keeps us
			// at the same level.
			if currentNode != nil && currentNode.DynamicFn != nil {
				dynamicConsumed = true
				continue
			}
			return nil
		}
		currentNode = node
		if node.Children == nil {
			if node.DynamicFn != nil && src != nil && !dynamicConsumed {
				current = nil
				continue
			}
			return nil
		}
		current = node.Children
	}

	var candidates []Candidate
	for name, node := range current {
		if strings.HasPrefix(name, partial) {
			candidates = append(candidates, Candidate{Name: name, Desc: node.Desc})
		}
	}
	if !dynamicConsumed && currentNode != nil && currentNode.DynamicFn != nil && src != nil {
		for _, name := range currentNode.DynamicFn(src) {
			if strings.HasPrefix(name, partial) {
				candidates = append(candidates, Candidate{Name: name, Desc: "(document)"})
			}
		}
	}
	return candidates
}

// LookupDesc finds the description for a candidate name given the command path words.
func LookupDesc(words []string, name string) string {
	current := EditorTree
	var currentNode *Node
	for _, w := range words {
		node, ok := current[w]
		if !ok {
			if currentNode != nil && currentNode.DynamicFn != nil {
				continue
			}
			return ""
		}
		currentNode = node
		if node.Children == nil {
			return ""
		}
		current = node.Children
	}
	if node, ok := current[name]; ok {
		return node.Desc
	}
	return ""
}

// WriteHelp prints aligned completion candidates to w.
// The output is written in one call so readline refreshes once.
func WriteHelp(w io.Writer, candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Name < candidates[j].Name })
	maxWidth := 20
	for _, c := range candidates {
		if len(c.Name)+2 > maxWidth {
			maxWidth = len(c.Name) + 2
		}
	}
	var sb strings.Builder
	sb.WriteString("Possible completions:\n")
	for _, c := range candidates {
		if c.Desc != "" {
			fmt.Fprintf(&sb, "  %-*s %s\n", maxWidth, c.Name, c.Desc)
		} else {
			fmt.Fprintf(&sb, "  %s\n", c.Name)
		}
	}
	io.WriteString(w, sb.String())
}

// TreeHelp renders self-generating help for a tree path.
func TreeHelp(header string, tree map[string]*Node, path ...string) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteByte('\n')
	current := tree
	for _, p := range path {
		node, ok := current[p]
		if !ok || node.Children == nil {
			return sb.String()
		}
		current = node.Children
	}
	WriteHelp(&sb, HelpCandidates(current))
	return sb.String()
}

// CommonPrefix returns the longest shared prefix among the given strings.
func CommonPrefix(items []string) string {
	if len(items) == 0 {
		return ""
	}
	prefix := items[0]
	for _, s := range items[1:] {
		for !strings.HasPrefix(s, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}

// KeysOf returns an unsorted list of keys from a Node map.
func KeysOf(m map[string]*Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// FilterPrefix returns only items that start with the given prefix.
func FilterPrefix(items []string, prefix string) []string {
	if prefix == "" {
		return items
	}
	var result []string
	for _, item := range items {
		if strings.HasPrefix(item, prefix) {
			result = append(result, item)
		}
	}
	return result
}

// PipeFilters lists the output filters accepted after " | ".
var PipeFilters = []Candidate{
	{Name: "count", Desc: "Count occurrences"},
	{Name: "except", Desc: "Show only text that does not match a pattern"},
	{Name: "find", Desc: "Search for first occurrence of pattern"},
	{Name: "last", Desc: "Display end of output only"},
	{Name: "match", Desc: "Show only text that matches a pattern"},
}

// SplitPipe splits a line at the last "| <filter>" expression.
func SplitPipe(line string) (cmd, filter, arg string, ok bool) {
	idx := strings.LastIndex(line, " | ")
	if idx < 0 {
		return line, "", "", false
	}
	cmd = strings.TrimSpace(line[:idx])
	filter, arg, _ = strings.Cut(strings.TrimSpace(line[idx+3:]), " ")
	switch filter {
	case "match", "grep", "except", "find", "count", "last":
		return cmd, filter, strings.TrimSpace(arg), true
	}
	return line, "", "", false
}

// ApplyPipe filters command output line by line.
func ApplyPipe(output, filter, arg string) string {
	lines := strings.Split(output, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	lp := strings.ToLower(arg)
	var out []string
	switch filter {
	case "match", "grep":
		for _, line := range lines {
			if strings.Contains(strings.ToLower(line), lp) {
				out = append(out, line)
			}
		}
	case "except":
		for _, line := range lines {
			if !strings.Contains(strings.ToLower(line), lp) {
				out = append(out, line)
			}
		}
	case "find":
		found := false
		for _, line := range lines {
			if !found && strings.Contains(strings.ToLower(line), lp) {
				found = true
			}
			if found {
				out = append(out, line)
			}
		}
	case "count":
		return fmt.Sprintf("Count: %d lines\n", len(lines))
	case "last":
		n := 10
		if v, err := strconv.Atoi(arg); err == nil && v > 0 {
			n = v
		}
		start := len(lines) - n
		if start < 0 {
			start = 0
		}
		out = lines[start:]
	default:
		out = lines
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "\n") + "\n"
}

// Complete returns the sorted candidates for the word being typed at the
// end of line. After a "|" only pipe filters are offered.
func Complete(tree map[string]*Node, line string, src Source) []Candidate {
	words := strings.Fields(line)
	trailingSpace := len(line) > 0 && line[len(line)-1] == ' '

	var partial string
	if !trailingSpace && len(words) > 0 {
		partial = words[len(words)-1]
		words = words[:len(words)-1]
	}

	for i, w := range words {
		if w != "|" {
			continue
		}
		if len(words[i+1:]) > 0 {
			return nil
		}
		var out []Candidate
		for _, f := range PipeFilters {
			if strings.HasPrefix(f.Name, partial) {
				out = append(out, f)
			}
		}
		return out
	}

	cands := CompleteFromTreeWithDesc(tree, words, partial, src)
	sort.Slice(cands, func(i, j int) bool { return cands[i].Name < cands[j].Name })
	return cands
}
