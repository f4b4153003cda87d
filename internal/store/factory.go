package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Aman-CERP/wikimg/internal/errors"
)

// Backend identifies a Store implementation.
type Backend string

const (
	// BackendMemory keeps entries in process memory (alias "mem").
	BackendMemory Backend = "memory"
	// BackendDisk keeps entries in SQLite files under DataDir.
	BackendDisk Backend = "disk"
	// BackendCloud keeps entries in DynamoDB tables.
	BackendCloud Backend = "cloud"
)

// ParseBackend maps a user-supplied backend name to a Backend.
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "memory", "mem":
		return BackendMemory, nil
	case "disk":
		return BackendDisk, nil
	case "cloud":
		return BackendCloud, nil
	default:
		return "", errors.New(errors.ErrCodeUnknownBackend,
			fmt.Sprintf("unknown store backend %q", name), nil).
			WithSuggestion("Use one of: memory, disk, cloud")
	}
}

// Options selects and configures the backend opened by a Factory.
type Options struct {
	Backend Backend

	// DataDir holds <name>.db files (disk).
	DataDir string
	// BatchSize is the number of puts per transaction (disk).
	BatchSize int

	// DynamoDB configures the client (cloud).
	DynamoDB DynamoDBOptions
	// TablePrefix is prepended to the namespace to form the table name (cloud).
	TablePrefix string
	// CreateTables creates missing tables on open (cloud).
	CreateTables bool

	// Client overrides the DynamoDB client, mainly for tests.
	Client DynamoDBClient
}

// Factory opens stores for one backend. The DynamoDB client is created on first
// use and shared by every store the factory opens.
type Factory struct {
	opts Options

	mu     sync.Mutex
	client DynamoDBClient
}

// NewFactory validates opts and returns a Factory.
func NewFactory(opts Options) (*Factory, error) {
	backend, err := ParseBackend(string(opts.Backend))
	if err != nil {
		return nil, err
	}
	opts.Backend = backend

	if backend == BackendDisk && opts.DataDir == "" {
		return nil, errors.ValidationError("data directory is required for the disk backend", nil)
	}

	return &Factory{opts: opts, client: opts.Client}, nil
}

// Backend returns the backend this factory opens.
func (f *Factory) Backend() Backend {
	return f.opts.Backend
}

// Open opens the store bound to namespace name.
func (f *Factory) Open(ctx context.Context, name string) (Store, error) {
	if name == "" {
		return nil, errors.ValidationError("store name must not be empty", nil)
	}

	switch f.opts.Backend {
	case BackendMemory:
		return NewMemoryStore(name), nil

	case BackendDisk:
		s, err := NewPersistentStore(filepath.Join(f.opts.DataDir, name+".db"), name, f.opts.BatchSize)
		if err != nil {
			return nil, err
		}
		return s, nil

	case BackendCloud:
		client, err := f.dynamoClient(ctx)
		if err != nil {
			return nil, err
		}
		s := NewRemoteStore(client, name, f.opts.TablePrefix+name)
		if f.opts.CreateTables {
			if err := s.EnsureTable(ctx); err != nil {
				return nil, err
			}
		}
		return s, nil

	default:
		return nil, errors.InternalError(fmt.Sprintf("unhandled backend %q", f.opts.Backend), nil)
	}
}

func (f *Factory) dynamoClient(ctx context.Context) (DynamoDBClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client != nil {
		return f.client, nil
	}
	client, err := NewDynamoDBClient(ctx, f.opts.DynamoDB)
	if err != nil {
		return nil, err
	}
	f.client = client
	return client, nil
}
