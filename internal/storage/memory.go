package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// Memory is a mutex-guarded map store. It backs tests and the explicit
// "memory" driver; nothing survives a restart.
type Memory struct {
	mu   sync.RWMutex
	rows map[string]TenantConfig

	// FailUpsert / FailReadAll make the next matching call fail.
	// Test hooks only.
	FailUpsert  error
	FailReadAll error
}

func NewMemory() *Memory {
	return &Memory{rows: map[string]TenantConfig{}}
}

func (m *Memory) Upsert(_ context.Context, cfg TenantConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpsert != nil {
		return storeErr("upsert", m.FailUpsert)
	}
	if strings.TrimSpace(cfg.GuildID) == "" {
		return storeErr("upsert", errors.New("guild id is empty"))
	}
	m.rows[cfg.GuildID] = cfg
	return nil
}

func (m *Memory) ReadAll(_ context.Context) ([]TenantConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailReadAll != nil {
		return nil, storeErr("read_all", m.FailReadAll)
	}
	out := make([]TenantConfig, 0, len(m.rows))
	for _, cfg := range m.rows {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GuildID < out[j].GuildID })
	return out, nil
}

func (m *Memory) Close() error { return nil }
