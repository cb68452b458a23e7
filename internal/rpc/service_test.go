package rpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// bufSize is the in-memory listener buffer size.
const bufSize = 1 << 20

// echoServer returns the request with the method name added.
type echoServer struct {
	// calls counts handled requests.
	calls int
}

// ApplyAction echoes the request.
func (e *echoServer) ApplyAction(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return e.echo(req, "ApplyAction"), nil
}

// GetState echoes the request.
func (e *echoServer) GetState(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return e.echo(req, "GetState"), nil
}

// echo tags req with method and returns it.
func (e *echoServer) echo(req *structpb.Struct, method string) *structpb.Struct {
	e.calls++

	if req.Fields == nil {
		req.Fields = make(map[string]*structpb.Value)
	}

	req.Fields["method"] = structpb.NewStringValue(method)

	return req
}

// TestServiceDesc_Dispatch exercises the hand-written descriptor over an in-memory connection.
func TestServiceDesc_Dispatch(t *testing.T) {
	t.Parallel()

	lis := bufconn.Listen(bufSize)

	var intercepted []string

	server := grpc.NewServer(grpc.UnaryInterceptor(func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		intercepted = append(intercepted, info.FullMethod)

		return handler(ctx, req)
	}))

	impl := new(echoServer)
	RegisterDetectorServiceServer(server, impl)

	go func() {
		_ = server.Serve(lis)
	}()

	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
	})

	client := NewDetectorServiceClient(conn)

	req, err := structpb.NewStruct(map[string]any{"action": "Trigger"})
	require.NoError(t, err)

	resp, err := client.ApplyAction(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "ApplyAction", resp.GetFields()["method"].GetStringValue())
	require.Equal(t, "Trigger", resp.GetFields()["action"].GetStringValue())

	req, err = EncodeStateRequest(nil)
	require.NoError(t, err)

	resp, err = client.GetState(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "GetState", resp.GetFields()["method"].GetStringValue())

	require.Equal(t, 2, impl.calls)
	require.Equal(t, []string{ApplyActionMethod, GetStateMethod}, intercepted)
}
