package grpcapi

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/psaab/blockedit/pkg/cmdtree"
	"github.com/psaab/blockedit/pkg/logging"
)

// Client calls the Editor service over a gRPC connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial opens a plaintext connection to addr.
func Dial(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// Exec runs a shell command line on the server and returns its output.
func (c *Client) Exec(ctx context.Context, line string) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, execMethod, wrapperspb.String(line), out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// Complete returns completion candidates for the end of line.
func (c *Client) Complete(ctx context.Context, line string) ([]cmdtree.Candidate, error) {
	req, err := structpb.NewStruct(map[string]any{"line": line, "pos": float64(len(line))})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, completeMethod, req, out); err != nil {
		return nil, err
	}
	var cands []cmdtree.Candidate
	for _, v := range out.GetFields()["candidates"].GetListValue().GetValues() {
		f := v.GetStructValue().GetFields()
		cands = append(cands, cmdtree.Candidate{
			Name: f["name"].GetStringValue(),
			Desc: f["desc"].GetStringValue(),
		})
	}
	return cands, nil
}

// Document fetches the element tree.
func (c *Client) Document(ctx context.Context) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, documentMethod, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Events calls fn for each edit event matching filter until ctx is
// cancelled or the server ends the stream.
func (c *Client) Events(ctx context.Context, filter logging.EventFilter, fn func(logging.EditEvent)) error {
	stream, err := c.cc.NewStream(ctx, &editorServiceDesc.Streams[0], eventsMethod)
	if err != nil {
		return err
	}
	req, err := structpb.NewStruct(map[string]any{
		"op":      filter.Op,
		"outcome": filter.Outcome,
		"symbol":  filter.Symbol,
	})
	if err != nil {
		return err
	}
	if err := stream.SendMsg(req); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	// Wait for the server to subscribe before returning events.
	if _, err := stream.Header(); err != nil {
		return err
	}
	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		fn(eventFromStruct(msg))
	}
}
