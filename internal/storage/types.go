package storage

import (
	"errors"
	"fmt"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file (default)
//   - "memory": process-local map, lost on restart
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// TenantConfig is one guild's notification settings.
//
// GuildID is the primary key and is never empty once stored. ChannelID may
// be empty ("not yet configured"); broadcasts skip such rows.
type TenantConfig struct {
	GuildID        string
	ChannelID      string
	ShowBossBattle bool
}

// StoreError marks a persistence failure so callers can tell it apart from
// their own error kinds.
type StoreError struct {
	Op    string
	cause error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.cause) }
func (e *StoreError) Unwrap() error { return e.cause }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, cause: err}
}
