package database

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL and creates the account tables.
func ConnectPostgres(ctx context.Context, postgresURI string, log *slog.Logger) error {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return err
	}
	PostgresDB = db
	log.Info("✅ Connected to PostgreSQL")

	if err := InitPostgresTables(ctx, db); err != nil {
		return err
	}
	log.Info("✅ PostgreSQL tables initialized")
	return nil
}

var schema = []string{
	// Accounts hold the public username only; entries live in MongoDB.
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		username VARCHAR(20) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	`CREATE TABLE IF NOT EXISTS user_preferences (
		user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		notifications BOOLEAN NOT NULL DEFAULT TRUE,
		daily_reminder VARCHAR(5) NOT NULL DEFAULT '20:00',
		dark_mode BOOLEAN NOT NULL DEFAULT FALSE,
		timezone VARCHAR(64) NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users(LOWER(username))`,
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables(ctx context.Context, db *sql.DB) error {
	for _, query := range schema {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
