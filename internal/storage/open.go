package storage

import (
	"context"
	"errors"
	"strings"

	logx "weeklybot/pkg/logx"
)

// Store is the persistence API used by dispatch and broadcast.
//
// Upsert is a merge: it creates or overwrites only the fields carried by
// TenantConfig, and repeated calls with identical arguments leave identical
// stored state. ReadAll returns rows in a deterministic order.
type Store interface {
	Upsert(ctx context.Context, cfg TenantConfig) error
	ReadAll(ctx context.Context) ([]TenantConfig, error)
	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
