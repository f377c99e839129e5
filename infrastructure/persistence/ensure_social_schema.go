package persistence

import (
	"database/sql"
)

// EnsureAccountSchema creates the connected_accounts table if missing.
// Idempotent; called at startup (PostgreSQL).
func EnsureAccountSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS connected_accounts (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		platform TEXT NOT NULL,
		platform_account_id TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		access_token TEXT NOT NULL DEFAULT '',
		refresh_token TEXT,
		token_type TEXT,
		expires_at TIMESTAMPTZ,
		scopes TEXT,
		metadata TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		connected_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT connected_accounts_user_platform UNIQUE (user_id, platform)
	)`)
	return err
}

// EnsurePublishSchema creates the publish_jobs table if missing.
func EnsurePublishSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS publish_jobs (
		id TEXT PRIMARY KEY,
		account_id BIGINT NOT NULL,
		user_id TEXT NOT NULL,
		platform TEXT NOT NULL,
		content_text TEXT NOT NULL DEFAULT '',
		media_urls TEXT,
		scheduled_at TIMESTAMPTZ,
		state TEXT NOT NULL,
		container_id TEXT,
		platform_post_id TEXT,
		error_message TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS publish_jobs_state_idx ON publish_jobs (state, updated_at)`)
	return err
}

// EnsureUserSchema creates the user table consumed by the auth middleware.
func EnsureUserSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS public.user (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		user_name TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	return err
}
