package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/people-detector/internal/config"
	"github.com/oshokin/people-detector/internal/domain/detector"
	"github.com/oshokin/people-detector/internal/rpc"
)

// Repository defines persistence operations for the detector snapshot.
type Repository interface {
	Load(ctx context.Context) (*detector.Snapshot, error)
	Save(ctx context.Context, snapshot *detector.Snapshot) error
}

// FileRepository persists the snapshot to a JSON file on disk.
// The file holds the same Struct form the gRPC API returns, written with protojson.
type FileRepository struct {
	// path is the filesystem location of the JSON state file.
	path string
	// mu protects concurrent access to the state file.
	mu sync.Mutex
}

// ErrNotFound is returned when the state file does not exist yet.
var ErrNotFound = errors.New("state not found")

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the snapshot from disk.
func (r *FileRepository) Load(_ context.Context) (*detector.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var msg structpb.Struct
	if err = protojson.Unmarshal(contents, &msg); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	snapshot, err := rpc.DecodeSnapshot(&msg)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	return snapshot, nil
}

// Save writes the snapshot to disk.
// The file is replaced atomically so a crash never leaves a truncated state.
func (r *FileRepository) Save(_ context.Context, snapshot *detector.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg, err := rpc.EncodeSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	marshalOptions := protojson.MarshalOptions{
		Multiline: true,
	}

	data, err := marshalOptions.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := r.path + ".tmp"
	if err = os.WriteFile(tmp, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	if err = os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}
