// Package grpcapi implements the gRPC API server for an editing session.
package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/psaab/blockedit/pkg/cmdtree"
	"github.com/psaab/blockedit/pkg/command"
	"github.com/psaab/blockedit/pkg/editor"
	"github.com/psaab/blockedit/pkg/element"
	"github.com/psaab/blockedit/pkg/logging"
	"github.com/psaab/blockedit/pkg/session"
)

// Config configures the gRPC server.
type Config struct {
	Session *session.Session
	Logger  *slog.Logger
}

// Server implements the Editor gRPC service.
type Server struct {
	sess   *session.Session
	logger *slog.Logger
	addr   string
}

var _ EditorServer = (*Server)(nil)

// NewServer creates a new gRPC server.
func NewServer(addr string, cfg Config) *Server {
	s := &Server{
		sess:   cfg.Session,
		logger: cfg.Logger,
		addr:   addr,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Run starts the gRPC server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("gRPC listen: %w", err)
	}
	return s.Serve(ctx, lis)
}

// Serve serves on lis until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.UnaryInterceptor(s.logUnary))
	RegisterEditorServer(srv, s)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("gRPC server listening", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	srv.GracefulStop()
	return nil
}

func (s *Server) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug("gRPC call", "method", info.FullMethod,
		"duration", time.Since(start), "code", status.Code(err))
	return resp, err
}

// statusError maps session errors to gRPC status codes.
func statusError(err error) error {
	var pe *element.ParseError
	switch {
	case errors.Is(err, session.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, editor.ErrInvalidOperation),
		errors.Is(err, command.ErrNothingToUndo),
		errors.Is(err, command.ErrNothingToRedo):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.As(err, &pe):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Unknown, err.Error())
	}
}

// --- Shell RPCs ---

func (s *Server) Exec(_ context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	out, err := s.sess.Exec(req.GetValue())
	if err != nil {
		return nil, statusError(err)
	}
	return wrapperspb.String(out), nil
}

func (s *Server) Complete(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	text := req.GetFields()["line"].GetStringValue()
	if pos := int(req.GetFields()["pos"].GetNumberValue()); pos > 0 && pos < len(text) {
		text = text[:pos]
	}

	cands := cmdtree.Complete(cmdtree.EditorTree, text, s.sess)
	list := make([]any, 0, len(cands))
	for _, c := range cands {
		list = append(list, map[string]any{"name": c.Name, "desc": c.Desc})
	}
	resp, err := structpb.NewStruct(map[string]any{"candidates": list})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "%v", err)
	}
	return resp, nil
}

// --- Document RPCs ---

func (s *Server) Document(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	doc, err := s.sess.Proto()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "%v", err)
	}
	return doc, nil
}

// Events streams edit events as they are recorded until the client goes
// away. The request fields op, outcome and symbol filter the stream.
func (s *Server) Events(req *structpb.Struct, stream grpc.ServerStream) error {
	f := req.GetFields()
	filter := logging.EventFilter{
		Op:      f["op"].GetStringValue(),
		Outcome: f["outcome"].GetStringValue(),
		Symbol:  f["symbol"].GetStringValue(),
	}

	sub := s.sess.Events().Subscribe(128)
	defer sub.Close()

	// Headers tell the client the subscription is live.
	if err := stream.SendHeader(nil); err != nil {
		return err
	}

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-sub.C:
			if !filter.Matches(&ev) {
				continue
			}
			msg, err := eventToStruct(ev)
			if err != nil {
				continue
			}
			if err := stream.SendMsg(msg); err != nil {
				return err
			}
		}
	}
}

func eventToStruct(ev logging.EditEvent) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"seq":     float64(ev.Seq),
		"time":    ev.Time.Format(time.RFC3339Nano),
		"op":      ev.Op,
		"element": ev.Element,
		"symbol":  ev.Symbol,
		"outcome": ev.Outcome,
		"detail":  ev.Detail,
	})
}

func eventFromStruct(st *structpb.Struct) logging.EditEvent {
	f := st.GetFields()
	ev := logging.EditEvent{
		Seq:     uint64(f["seq"].GetNumberValue()),
		Op:      f["op"].GetStringValue(),
		Element: f["element"].GetStringValue(),
		Symbol:  f["symbol"].GetStringValue(),
		Outcome: f["outcome"].GetStringValue(),
		Detail:  f["detail"].GetStringValue(),
	}
	ev.Time, _ = time.Parse(time.RFC3339Nano, f["time"].GetStringValue())
	return ev
}
