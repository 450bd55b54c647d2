package storage

// Package storage persists per-guild notification settings.
//
// It currently supports:
//   - SQLite database file (default)
//   - In-memory map (tests, or explicit "memory" driver)
