package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"

	api "github.com/oshokin/people-detector/internal/api/grpc/detector"
	"github.com/oshokin/people-detector/internal/config"
	"github.com/oshokin/people-detector/internal/logger"
	"github.com/oshokin/people-detector/internal/notify"
	repository "github.com/oshokin/people-detector/internal/repository/state"
	"github.com/oshokin/people-detector/internal/rpc"
	"github.com/oshokin/people-detector/internal/service/actuator"
)

// Options controls the detector-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// StateFile specifies the path to persist the detector snapshot.
	StateFile string
	// NoHooks disables state hooks on this host.
	NoHooks bool
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the gRPC server and blocks until context is canceled or server stops.
//
//nolint:funlen // Linear wiring of the server collaborators.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "detector-server")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	}

	// Use StateFile from config unless overridden by command line option.
	stateFile := settings.StateFile
	if opts.StateFile != "" {
		stateFile = opts.StateFile
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	publisher, err := notify.New(ctx, settings)
	if err != nil {
		return fmt.Errorf("initialise publisher: %w", err)
	}

	defer publisher.Close()

	deps := dependencies{
		repo:      repository.NewFileRepository(stateFile),
		publisher: publisher,
		timings:   settings.Detector.Timings(),
	}

	if !opts.NoHooks {
		deps.actuator = actuator.New(settings.Detector.HookCommands())
	}

	svc, err := newService(ctx, deps)
	if err != nil {
		return fmt.Errorf("initialise service: %w", err)
	}

	defer svc.Close()

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer()
	rpc.RegisterDetectorServiceServer(grpcServer, api.NewServer(svc))

	logger.InfoKV(
		ctx,
		"Detector server listening",
		"listen_address", listenAddress,
		"state_file", stateFile,
		"delay", settings.Detector.Delay.String(),
		"fire", settings.Detector.Fire.String(),
		"rearm", settings.Detector.Rearm.String(),
	)

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// An override is used as is; otherwise only the port of configAddr is kept
// so the server binds on all interfaces.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	return ":" + port, nil
}
