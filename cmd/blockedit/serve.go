package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/psaab/blockedit/pkg/api"
	"github.com/psaab/blockedit/pkg/grpcapi"
)

var (
	apiAddr  string
	grpcAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the editing session over HTTP and gRPC",
	Long: `Opens one editing session and serves it over the HTTP REST API
(with /metrics and an SSE event stream) and the gRPC API used by blockctl.

An empty address disables that listener.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&apiAddr, "api-addr", "", "HTTP API listen address (default from config)")
	serveCmd.Flags().StringVar(&grpcAddr, "grpc-addr", "", "gRPC API listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()
	if cmd.Flags().Changed("api-addr") {
		cfg.API.Addr = apiAddr
	}
	if cmd.Flags().Changed("grpc-addr") {
		cfg.GRPC.Addr = grpcAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	if cfg.API.Addr != "" {
		srv := api.NewServer(api.Config{
			Addr:    cfg.API.Addr,
			Auth:    api.NewAuthConfig(cfg.API),
			Session: sess,
			Logger:  logger,
		})
		g.Go(func() error { return srv.Run(ctx) })
	}
	if cfg.GRPC.Addr != "" {
		srv := grpcapi.NewServer(cfg.GRPC.Addr, grpcapi.Config{Session: sess, Logger: logger})
		g.Go(func() error { return srv.Run(ctx) })
	}

	err = g.Wait()
	if st := sess.Stats(); st.Dirty {
		logger.Warn("exiting with unsaved changes", "elements", st.Elements)
	}
	return err
}
