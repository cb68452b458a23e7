package detector

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/people-detector/internal/domain/detector"
	"github.com/oshokin/people-detector/internal/logger"
	"github.com/oshokin/people-detector/internal/rpc"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	ApplyAction(ctx context.Context, source *domain.Source, action domain.Action) (*domain.Snapshot, error)
	GetState(ctx context.Context) *domain.Snapshot
}

// Server implements the DetectorService gRPC API.
type Server struct {
	// service runs the detection cycle.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// ApplyAction feeds an action into the detection cycle.
func (s *Server) ApplyAction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	source, action, err := rpc.DecodeApplyRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if source == nil {
		return nil, status.Error(codes.InvalidArgument, "source is required")
	}

	snapshot, err := s.service.ApplyAction(ctx, source, action)
	if err != nil {
		logger.ErrorKV(ctx, "ApplyAction failed", "action", action.String(), "error", err)

		return nil, status.Error(codes.Internal, "unable to apply action")
	}

	return encode(snapshot)
}

// GetState returns the current snapshot.
func (s *Server) GetState(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if source := rpc.DecodeStateRequest(req); source != nil {
		logger.DebugKV(ctx, "State requested", "source", source.String())
	}

	return encode(s.service.GetState(ctx))
}

// encode converts a snapshot into the response message.
func encode(snapshot *domain.Snapshot) (*structpb.Struct, error) {
	resp, err := rpc.EncodeSnapshot(snapshot)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode state")
	}

	return resp, nil
}
