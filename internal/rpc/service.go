package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "peopledetector.v1.DetectorService"
	// ApplyActionMethod is the full method name of ApplyAction.
	ApplyActionMethod = "/" + ServiceName + "/ApplyAction"
	// GetStateMethod is the full method name of GetState.
	GetStateMethod = "/" + ServiceName + "/GetState"
)

// DetectorServiceServer is the server API of DetectorService.
type DetectorServiceServer interface {
	// ApplyAction feeds an action into the detection cycle and returns the resulting snapshot.
	ApplyAction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// GetState returns the current snapshot.
	GetState(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// DetectorServiceClient is the client API of DetectorService.
type DetectorServiceClient interface {
	ApplyAction(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetState(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

//nolint:gochecknoglobals // grpc.RegisterService requires a descriptor value.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DetectorServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ApplyAction",
			Handler:    applyActionHandler,
		},
		{
			MethodName: "GetState",
			Handler:    getStateHandler,
		},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterDetectorServiceServer registers srv on the gRPC server.
func RegisterDetectorServiceServer(registrar grpc.ServiceRegistrar, srv DetectorServiceServer) {
	registrar.RegisterService(&serviceDesc, srv)
}

// detectorServiceClient invokes DetectorService methods over a connection.
type detectorServiceClient struct {
	// cc is the underlying client connection.
	cc grpc.ClientConnInterface
}

// NewDetectorServiceClient returns a client bound to cc.
//
//nolint:ireturn // Mirrors generated gRPC constructors.
func NewDetectorServiceClient(cc grpc.ClientConnInterface) DetectorServiceClient {
	return &detectorServiceClient{cc: cc}
}

// ApplyAction calls DetectorService.ApplyAction.
func (c *detectorServiceClient) ApplyAction(
	ctx context.Context,
	req *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ApplyActionMethod, req, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// GetState calls DetectorService.GetState.
func (c *detectorServiceClient) GetState(
	ctx context.Context,
	req *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetStateMethod, req, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// applyActionHandler decodes the request and dispatches it to the server, through interceptor when set.
func applyActionHandler(
	srv any,
	ctx context.Context, //nolint:revive // Signature is fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	server, ok := srv.(DetectorServiceServer)
	if !ok {
		return nil, fmt.Errorf("unexpected server type %T", srv)
	}

	if interceptor == nil {
		return server.ApplyAction(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ApplyActionMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return server.ApplyAction(ctx, req.(*structpb.Struct)) //nolint:forcetypeassert // Request type is fixed above.
	}

	return interceptor(ctx, in, info, handler)
}

// getStateHandler decodes the request and dispatches it to the server, through interceptor when set.
func getStateHandler(
	srv any,
	ctx context.Context, //nolint:revive // Signature is fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	server, ok := srv.(DetectorServiceServer)
	if !ok {
		return nil, fmt.Errorf("unexpected server type %T", srv)
	}

	if interceptor == nil {
		return server.GetState(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetStateMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return server.GetState(ctx, req.(*structpb.Struct)) //nolint:forcetypeassert // Request type is fixed above.
	}

	return interceptor(ctx, in, info, handler)
}
