package grpctp

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/hanpama/gqlclient/internal/graphql"
)

const (
	ServiceName       = "graphql.GraphQL"
	executeMethod     = "/" + ServiceName + "/Execute"
	subscribeMethod   = "/" + ServiceName + "/Subscribe"
	requestIDMetadata = "x-gqlclient-request-id"
)

var subscribeStream = grpc.StreamDesc{StreamName: "Subscribe", ServerStreams: true}

// ServiceDesc describes the graphql.GraphQL service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*graphql.Handler)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "Execute",
		Handler:    executeHandler,
	}},
	Streams: []grpc.StreamDesc{{
		StreamName:    "Subscribe",
		Handler:       subscribeHandler,
		ServerStreams: true,
	}},
}

// RegisterServer serves h as the graphql.GraphQL service on r.
func RegisterServer(r grpc.ServiceRegistrar, h graphql.Handler) {
	r.RegisterService(&ServiceDesc, h)
}

func executeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := &structpb.Struct{}
	if err := dec(in); err != nil {
		return nil, err
	}
	handle := func(ctx context.Context, in any) (any, error) {
		req, err := decodeRequest(in.(*structpb.Struct))
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		resp, err := srv.(graphql.Handler).Execute(ctx, req)
		if err != nil {
			return nil, err
		}
		return encodeResponse(resp)
	}
	if interceptor == nil {
		return handle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: executeMethod}
	return interceptor(ctx, in, info, handle)
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := &structpb.Struct{}
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	req, err := decodeRequest(in)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return srv.(graphql.Handler).Subscribe(stream.Context(), req, func(resp *graphql.Response) error {
		out, err := encodeResponse(resp)
		if err != nil {
			return err
		}
		return stream.SendMsg(out)
	})
}
