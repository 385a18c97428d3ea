// blockedit is the structural block editor.
//
// It edits programs of a configured grammar as trees of blocks, either in
// an interactive shell or as a server exposing the HTTP and gRPC APIs.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/psaab/blockedit/pkg/config"
	"github.com/psaab/blockedit/pkg/logging"
	"github.com/psaab/blockedit/pkg/session"
)

var (
	// Global flags
	configFile  string
	grammarFile string
	docFile     string
	startSymbol string
	debug       bool

	appConfig     *config.Config
	logger        *slog.Logger
	syslogClients []*logging.SyslogClient
)

var rootCmd = &cobra.Command{
	Use:   "blockedit",
	Short: "Structural block editor",
	Long: `blockedit edits programs as trees of grammar blocks.

Every edit keeps the document a valid derivation of the grammar: blocks
are chosen from the alternatives of placeholders, and dropped or pasted
only where the grammar accepts them.

Run without arguments to start the interactive shell.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		appConfig = cfg
		level := cfg.Level()
		if debug {
			level = slog.LevelDebug
		}
		logger = slog.New(newLogHandler(cfg, level))
		slog.SetDefault(logger)
		return nil
	},
	RunE: runRepl,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&grammarFile, "grammar", "g", "", "grammar file (HCL); default is the built-in language")
	rootCmd.PersistentFlags().StringVarP(&docFile, "document", "d", "", "document file to load and save")
	rootCmd.PersistentFlags().StringVar(&startSymbol, "start", "", "start symbol overriding the grammar's")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(initConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if grammarFile != "" {
		cfg.Grammar = grammarFile
	}
	if docFile != "" {
		cfg.Document = docFile
	}
	if startSymbol != "" {
		cfg.Start = startSymbol
	}
	return cfg, nil
}

// newLogHandler writes to stderr and copies records to the configured
// syslog servers. Unreachable servers are reported and skipped. Servers
// with events set also receive the session's edit events (see openSession).
func newLogHandler(cfg *config.Config, level slog.Level) slog.Handler {
	base := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	if len(cfg.Syslog) == 0 {
		return base
	}
	h := logging.NewSyslogHandler(base)
	syslogClients = nil
	for _, sl := range cfg.Syslog {
		c, err := logging.NewSyslogClient(sl.Host, sl.Port)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: syslog %s: %v\n", sl.Host, err)
			continue
		}
		c.MinSeverity = logging.ParseSeverity(sl.Severity)
		c.Events = sl.Events
		syslogClients = append(syslogClients, c)
	}
	h.SetClients(syslogClients)
	return h
}

// openSession opens an editing session on the loaded configuration.
func openSession() (*config.Config, *session.Session, error) {
	sess, err := session.Open(appConfig, logger)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range syslogClients {
		if c.Events {
			sess.Events().AddCallback(c.HandleEvent)
		}
	}
	return appConfig, sess, nil
}
