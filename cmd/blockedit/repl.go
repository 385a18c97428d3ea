package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/psaab/blockedit/pkg/cli"
)

var scriptFile string

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start the interactive editor shell",
	Long: `Starts the interactive editor shell on a local session.

With --script, commands are read from the file ("-" for stdin) instead,
one per line, and the first failing command stops the run.`,
	Args: cobra.NoArgs,
	RunE: runRepl,
}

func init() {
	replCmd.Flags().StringVar(&scriptFile, "script", "", "run commands from a file instead of interactively")
}

func runRepl(cmd *cobra.Command, args []string) error {
	_, sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	shell := cli.New(cli.Local(sess), cli.Options{
		HistoryFile: historyFile(),
		Banner:      fmt.Sprintf("blockedit - editing %s", sess.Start()),
	})

	if scriptFile != "" {
		in := os.Stdin
		if scriptFile != "-" {
			f, err := os.Open(scriptFile)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		return shell.RunScript(in, cmd.OutOrStdout())
	}
	return shell.Run()
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "blockedit_history")
}
