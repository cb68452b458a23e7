//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/oshokin/people-detector/internal/config"
	"github.com/oshokin/people-detector/internal/domain/detector"
	"github.com/oshokin/people-detector/internal/rpc"
)

// Client wraps the DetectorService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the detector server.
	conn *grpc.ClientConn
	// api is the DetectorService client.
	api rpc.DetectorServiceClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errSourceRequired is returned when an action is sent without a source.
	errSourceRequired = errors.New("source must be provided")
)

// Dial establishes a gRPC connection to the detector server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial detector server: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         rpc.NewDetectorServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// GetState retrieves the current detector snapshot.
func (c *Client) GetState(ctx context.Context, source *detector.Source) (*detector.Snapshot, error) {
	req, err := rpc.EncodeStateRequest(source)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetState(callCtx, req)
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}

	return rpc.DecodeSnapshot(resp)
}

// ApplyAction sends action to the detector and returns the resulting snapshot.
func (c *Client) ApplyAction(
	ctx context.Context,
	source *detector.Source,
	action detector.Action,
) (*detector.Snapshot, error) {
	if source == nil {
		return nil, errSourceRequired
	}

	req, err := rpc.EncodeApplyRequest(source, action)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ApplyAction(callCtx, req)
	if err != nil {
		return nil, fmt.Errorf("apply action: %w", err)
	}

	return rpc.DecodeSnapshot(resp)
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

// FormatSnapshot renders a snapshot for log messages.
func FormatSnapshot(snapshot *detector.Snapshot) string {
	if snapshot == nil {
		return "<nil state>"
	}

	timestamp := "<unknown>"
	if !snapshot.Timestamp.IsZero() {
		timestamp = snapshot.Timestamp.Format(time.RFC3339)
	}

	return fmt.Sprintf("%s after %s by %s (%s)", snapshot.State, snapshot.LastAction, snapshot.Source, timestamp)
}
