package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/psaab/blockedit/pkg/cmdtree"
)

const completeTimeout = 2 * time.Second

// completer implements readline.AutoCompleter over a Backend.
type completer struct {
	backend Backend
	out     io.Writer
}

// partialWord returns the word being typed at the end of text.
func partialWord(text string) string {
	if text == "" || text[len(text)-1] == ' ' {
		return ""
	}
	words := strings.Fields(text)
	return words[len(words)-1]
}

func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	ctx, cancel := context.WithTimeout(context.Background(), completeTimeout)
	defer cancel()
	cands, err := c.backend.Complete(ctx, text)
	if err != nil || len(cands) == 0 {
		return nil, 0
	}

	partial := partialWord(text)
	if len(cands) == 1 {
		suffix := strings.TrimPrefix(cands[0].Name, partial)
		return [][]rune{[]rune(suffix + " ")}, len(partial)
	}

	// Multiple matches: show descriptions above prompt.
	cmdtree.WriteHelp(c.out, cands)

	names := make([]string, len(cands))
	for i, cand := range cands {
		names[i] = cand.Name
	}
	suffix := strings.TrimPrefix(cmdtree.CommonPrefix(names), partial)
	if suffix == "" {
		return nil, 0
	}
	return [][]rune{[]rune(suffix)}, len(partial)
}

// helpListener prints the candidates for the next word when '?' is typed
// and removes the '?' from the line.
func helpListener(b Backend, out io.Writer) readline.Listener {
	return readline.FuncListener(func(line []rune, pos int, key rune) ([]rune, int, bool) {
		if key != '?' || pos < 1 {
			return line, pos, false
		}
		// Strip the '?' that readline already inserted.
		clean := make([]rune, 0, len(line)-1)
		clean = append(clean, line[:pos-1]...)
		clean = append(clean, line[pos:]...)
		showHelp(b, out, string(clean[:pos-1]))
		return clean, pos - 1, true
	})
}

// showHelp writes the possible completions after text. A partial word is
// completed; otherwise the next word is listed.
func showHelp(b Backend, out io.Writer, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), completeTimeout)
	defer cancel()
	cands, err := b.Complete(ctx, text)
	if err != nil || len(cands) == 0 {
		fmt.Fprintln(out, "  (no help available)")
		return
	}
	fmt.Fprintln(out)
	cmdtree.WriteHelp(out, cands)
}
