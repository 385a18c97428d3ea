// Package cli implements the interactive editor shell. The same shell runs
// against a local session or, through the gRPC client, a remote one.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"github.com/psaab/blockedit/pkg/cmdtree"
	"github.com/psaab/blockedit/pkg/session"
)

// Backend executes shell commands and offers completions.
type Backend interface {
	Exec(ctx context.Context, line string) (string, error)
	Complete(ctx context.Context, line string) ([]cmdtree.Candidate, error)
}

// Local adapts a session to the Backend interface.
func Local(sess *session.Session) Backend {
	return localBackend{sess: sess}
}

type localBackend struct {
	sess *session.Session
}

func (b localBackend) Exec(_ context.Context, line string) (string, error) {
	return b.sess.Exec(line)
}

func (b localBackend) Complete(_ context.Context, line string) ([]cmdtree.Candidate, error) {
	return cmdtree.Complete(cmdtree.EditorTree, line, b.sess), nil
}

// Options configures a CLI.
type Options struct {
	Prompt      string // default "blockedit> "
	HistoryFile string // empty = no persistent history
	Banner      string
}

// CLI is the interactive command-line interface.
type CLI struct {
	rl      *readline.Instance
	backend Backend
	opts    Options

	cmdMu     sync.Mutex
	cmdCancel context.CancelFunc
}

// New creates a new CLI.
func New(b Backend, opts Options) *CLI {
	if opts.Prompt == "" {
		opts.Prompt = "blockedit> "
	}
	return &CLI{backend: b, opts: opts}
}

var errExit = errors.New("exit")

// Run starts the interactive CLI loop.
func (c *CLI) Run() error {
	var err error
	c.rl, err = readline.NewEx(&readline.Config{
		Prompt:          c.opts.Prompt,
		HistoryFile:     c.opts.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    &completer{backend: c.backend, out: os.Stdout},
		Listener:        helpListener(c.backend, os.Stdout),
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer c.rl.Close()

	if c.opts.Banner != "" {
		fmt.Println(c.opts.Banner)
	}
	fmt.Println("Type '?' for help")
	fmt.Println()

	// SIGINT while a command runs cancels it; at the prompt readline
	// reports it as ErrInterrupt.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		for range sigCh {
			if c.cancelCmd() {
				fmt.Fprintln(os.Stderr, "\n^C (command cancelled)")
			}
		}
	}()
	defer func() {
		signal.Stop(sigCh)
		close(sigCh)
	}()

	for {
		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				break
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := c.dispatch(line, c.rl.Stdout()); err != nil {
			if err == errExit {
				return nil
			}
			if errors.Is(err, context.Canceled) {
				continue
			}
			fmt.Fprintf(c.rl.Stderr(), "error: %v\n", err)
		}
	}
	return nil
}

// RunScript executes one command per line of r, writing output to w.
// Blank lines and lines starting with '#' are skipped. The first failing
// command stops the script.
func (c *CLI) RunScript(r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := c.dispatch(line, w); err != nil {
			if err == errExit {
				return nil
			}
			return fmt.Errorf("line %d: %s: %w", n, line, err)
		}
	}
	return sc.Err()
}

func (c *CLI) dispatch(line string, w io.Writer) error {
	switch line {
	case "quit", "exit":
		return errExit
	}

	ctx := c.startCmd()
	defer c.endCmd()
	out, err := c.backend.Exec(ctx, line)
	if err != nil {
		return err
	}
	io.WriteString(w, out)
	return nil
}

// startCmd creates a cancellable context for the current command.
// Must call endCmd() when the command finishes.
func (c *CLI) startCmd() context.Context {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	var ctx context.Context
	ctx, c.cmdCancel = context.WithCancel(context.Background())
	return ctx
}

// endCmd clears the per-command context.
func (c *CLI) endCmd() {
	c.cmdMu.Lock()
	if c.cmdCancel != nil {
		c.cmdCancel()
	}
	c.cmdCancel = nil
	c.cmdMu.Unlock()
}

// cancelCmd cancels any running command. Returns true if a command was cancelled.
func (c *CLI) cancelCmd() bool {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	if c.cmdCancel != nil {
		c.cmdCancel()
		return true
	}
	return false
}
