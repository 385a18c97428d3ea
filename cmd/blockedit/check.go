package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the grammar and document",
	Long: `Loads the configured grammar and document and reports the first
error found. Prints a summary when both are valid.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, sess, err := openSession()
		if err != nil {
			return err
		}
		st := sess.Stats()
		grammar := cfg.Grammar
		if grammar == "" {
			grammar = "(built-in)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "grammar %s: ok, start symbol %s\n", grammar, sess.Start())
		if cfg.Document != "" {
			if _, err := os.Stat(cfg.Document); errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintf(cmd.OutOrStdout(), "document %s: does not exist yet\n", cfg.Document)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "document %s: ok, %d elements\n", cfg.Document, st.Elements)
			}
		}
		return nil
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config <path>",
	Short: "Write a configuration file with the current settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := appConfig.Save(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
		return nil
	},
}
