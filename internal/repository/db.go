package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	DSN             string // postgres:// DSN, a sqlite file path, or ":memory:"
	MaxConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// Open connects to the vault store. Postgres DSNs go through pgx; anything
// else is treated as a local SQLite file (the default single-user setup).
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var db *sql.DB
	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		logger.Info("connecting to database", "driver", "pgx")
		pc, err := pgx.ParseConfig(cfg.DSN)
		if err != nil {
			logger.Error("failed to parse database DSN", "error", err)
			return nil, err
		}
		pc.RuntimeParams["application_name"] = "mediread"
		db = stdlib.OpenDB(*pc)
		if cfg.MaxConns > 0 {
			db.SetMaxOpenConns(int(cfg.MaxConns))
		}
		db.SetConnMaxLifetime(cfg.MaxConnLifetime)
		db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)
	} else {
		logger.Info("opening vault file", "driver", "sqlite", "path", cfg.DSN)
		var err error
		db, err = sql.Open("sqlite", cfg.DSN)
		if err != nil {
			logger.Error("failed to open sqlite database", "error", err)
			return nil, err
		}
		// modernc sqlite: serialize access through a single connection
		db.SetMaxOpenConns(1)
	}

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Error("database ping failed", "error", err)
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the vault schema. All columns are TEXT so the same
// statements run on both sqlite and postgres; timestamps are RFC 3339
// strings and dates are YYYY-MM-DD, which sort correctly as text.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id             TEXT PRIMARY KEY,
			file_name      TEXT NOT NULL,
			file_type      TEXT NOT NULL,
			file_data      TEXT NOT NULL,
			file_mime_type TEXT NOT NULL,
			uploaded_at    TEXT NOT NULL,
			document_date  TEXT NOT NULL,
			raw_text       TEXT NOT NULL,
			extracted      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_by_date ON documents (document_date)`,
		`CREATE TABLE IF NOT EXISTS profile (
			id   TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			messages   TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_by_updated ON conversations (updated_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
