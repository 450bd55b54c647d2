package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	logx "weeklybot/pkg/logx"

	_ "modernc.org/sqlite"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Upsert(ctx context.Context, cfg TenantConfig) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if strings.TrimSpace(cfg.GuildID) == "" {
		return storeErr("upsert", errors.New("guild id is empty"))
	}
	// Explicit SET list keeps this a merge: columns not carried by
	// TenantConfig stay untouched if the table grows.
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO guild_configs(guild_id, channel_id, show_boss_battle, updated_at)
		 VALUES(?,?,?,?)
		 ON CONFLICT(guild_id) DO UPDATE SET
		   channel_id=excluded.channel_id,
		   show_boss_battle=excluded.show_boss_battle,
		   updated_at=excluded.updated_at`,
		cfg.GuildID, cfg.ChannelID, boolInt(cfg.ShowBossBattle), time.Now().UTC().Format(time.RFC3339Nano),
	)
	return storeErr("upsert", err)
}

func (s *sqliteStore) ReadAll(ctx context.Context) ([]TenantConfig, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT guild_id, channel_id, show_boss_battle FROM guild_configs ORDER BY guild_id`)
	if err != nil {
		return nil, storeErr("read_all", err)
	}
	defer rows.Close()

	var out []TenantConfig
	for rows.Next() {
		var cfg TenantConfig
		var show int
		if err := rows.Scan(&cfg.GuildID, &cfg.ChannelID, &show); err != nil {
			return nil, storeErr("read_all", err)
		}
		cfg.ShowBossBattle = show != 0
		out = append(out, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("read_all", err)
	}
	return out, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
