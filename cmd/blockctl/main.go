// blockctl is the remote shell for a blockedit server.
//
// It connects to the blockedit gRPC API and provides the same interactive
// shell as the local editor. With -e it runs one command and exits; with
// -watch it prints edit events as they happen.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"google.golang.org/grpc/status"

	"github.com/psaab/blockedit/pkg/cli"
	"github.com/psaab/blockedit/pkg/cmdtree"
	"github.com/psaab/blockedit/pkg/grpcapi"
	"github.com/psaab/blockedit/pkg/logging"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:50051", "blockedit gRPC address")
	execLine := flag.String("e", "", "run one command and exit")
	watch := flag.Bool("watch", false, "print edit events until interrupted")
	watchOp := flag.String("op", "", "with -watch, only events of this operation")
	flag.Parse()

	conn, err := grpcapi.Dial(*addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "blockctl: connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()
	client := grpcapi.NewClient(conn)

	// Verify connectivity
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_, err = client.Document(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "blockctl: cannot reach blockedit at %s: %v\n", *addr, message(err))
		os.Exit(1)
	}

	switch {
	case *watch:
		err = watchEvents(client, logging.EventFilter{Op: *watchOp})
	case *execLine != "":
		var out string
		out, err = client.Exec(context.Background(), *execLine)
		fmt.Print(out)
	default:
		err = cli.New(remote{client}, cli.Options{
			Prompt:      "blockctl> ",
			HistoryFile: filepath.Join(os.TempDir(), "blockctl_history"),
			Banner:      "blockctl - connected to " + *addr,
		}).Run()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "blockctl: %v\n", message(err))
		os.Exit(1)
	}
}

// remote adapts the gRPC client to the shell, reducing status errors to
// their message.
type remote struct {
	c *grpcapi.Client
}

func (r remote) Exec(ctx context.Context, line string) (string, error) {
	out, err := r.c.Exec(ctx, line)
	if err != nil {
		return "", fmt.Errorf("%s", message(err))
	}
	return out, nil
}

func (r remote) Complete(ctx context.Context, line string) ([]cmdtree.Candidate, error) {
	return r.c.Complete(ctx, line)
}

func message(err error) string {
	if st, ok := status.FromError(err); ok {
		return st.Message()
	}
	return err.Error()
}

func watchEvents(c *grpcapi.Client, f logging.EventFilter) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.Events(ctx, f, func(ev logging.EditEvent) {
		fmt.Println(ev.String())
	})
}
