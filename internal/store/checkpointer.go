package store

import (
	"context"
	"fmt"

	"github.com/soyeahso/prodbot/internal/config"
	"github.com/soyeahso/prodbot/internal/domain"
	"github.com/soyeahso/prodbot/internal/logging"
)

// Checkpointer persists the ordered message history of each thread.
// Appends for one thread are kept in call order; concurrent appends to the
// same thread are not coordinated.
type Checkpointer interface {
	// Load returns a thread's messages oldest first. Unknown threads yield an
	// empty slice and no error.
	Load(ctx context.Context, threadID string) ([]domain.Message, error)

	// Append adds messages to the end of a thread, creating it if needed.
	Append(ctx context.Context, threadID string, msgs ...domain.Message) error

	// Threads lists known threads, most recently updated first.
	Threads(ctx context.Context) ([]domain.ThreadInfo, error)

	Close() error
}

// Open builds the checkpointer selected by cfg. dbPath is used for the
// sqlite backend.
func Open(ctx context.Context, cfg config.CheckpointConfig, dbPath string, log *logging.Logger) (Checkpointer, error) {
	switch cfg.Store {
	case "", "memory":
		return NewMemoryCheckpointer(), nil
	case "sqlite":
		db, err := OpenDB(dbPath, log)
		if err != nil {
			return nil, err
		}
		return NewSQLiteCheckpointer(db), nil
	case "redis":
		return NewRedisCheckpointer(ctx, cfg.RedisURL, cfg.KeyPrefix, log)
	default:
		return nil, fmt.Errorf("unknown checkpoint store %q", cfg.Store)
	}
}
