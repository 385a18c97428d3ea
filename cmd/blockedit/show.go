package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showFormat string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the document",
	Long: `Loads the document and prints it.

Formats:
  source    program text with placeholders (default)
  outline   element tree with paths
  document  transfer format
  json      element tree as JSON`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showFormat, "format", "f", "source", "output format")
}

func runShow(cmd *cobra.Command, args []string) error {
	_, sess, err := openSession()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch showFormat {
	case "source":
		fmt.Fprintln(out, sess.Source())
	case "outline":
		fmt.Fprint(out, sess.Outline())
	case "document":
		fmt.Fprint(out, sess.Encode())
	case "json":
		data, err := sess.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	default:
		return fmt.Errorf("unknown format %q", showFormat)
	}
	return nil
}
