package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "blockedit.v1.Editor"

const (
	execMethod     = "/" + ServiceName + "/Exec"
	completeMethod = "/" + ServiceName + "/Complete"
	documentMethod = "/" + ServiceName + "/Document"
	eventsMethod   = "/" + ServiceName + "/Events"
)

// EditorServer is the server API of the Editor service. Messages are
// protobuf well-known types so no generated code is needed.
//
//	Exec:     command line          -> command output
//	Complete: {line, pos}           -> {candidates: [{name, desc}]}
//	Document: empty                 -> element tree
//	Events:   {op, outcome, symbol} -> stream of edit events
type EditorServer interface {
	Exec(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	Complete(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Document(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Events(*structpb.Struct, grpc.ServerStream) error
}

// RegisterEditorServer registers srv with s.
func RegisterEditorServer(s grpc.ServiceRegistrar, srv EditorServer) {
	s.RegisterService(&editorServiceDesc, srv)
}

var editorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EditorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Exec", Handler: execHandler},
		{MethodName: "Complete", Handler: completeHandler},
		{MethodName: "Document", Handler: documentHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Events", Handler: eventsHandler, ServerStreams: true},
	},
	Metadata: "blockedit/v1/editor.proto",
}

func execHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EditorServer).Exec(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: execMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EditorServer).Exec(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func completeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EditorServer).Complete(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: completeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EditorServer).Complete(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func documentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EditorServer).Document(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: documentMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EditorServer).Document(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func eventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(EditorServer).Events(in, stream)
}
