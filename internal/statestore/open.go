package statestore

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend    string
	SQLitePath string
	Redis      RedisOptions
}

// Open constructs the backend named by opts.Backend. An empty backend
// means memory.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		if opts.SQLitePath == "" {
			return nil, fmt.Errorf("statestore: sqlite backend requires a path")
		}
		return OpenSQLite(opts.SQLitePath)
	case BackendRedis:
		if opts.Redis.Addr == "" {
			return nil, fmt.Errorf("statestore: redis backend requires an address")
		}
		return DialRedis(ctx, opts.Redis)
	default:
		return nil, fmt.Errorf("statestore: unknown backend %q", opts.Backend)
	}
}
