package postgres

import (
	"context"
	"fmt"
)

// EnsureSchema creates the tables used by the service if they do not exist.
func EnsureSchema(ctx context.Context, config *RepositoryConfig) error {
	t := config.Tables
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				short_name VARCHAR(64) NOT NULL UNIQUE,
				name VARCHAR(255) NOT NULL,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, t.Companies),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				email VARCHAR(255) NOT NULL UNIQUE,
				first_name VARCHAR(255) NOT NULL DEFAULT '',
				last_name VARCHAR(255) NOT NULL DEFAULT '',
				password_hash VARCHAR(255) NOT NULL,
				verified BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, t.Users),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				user_id BIGINT NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				company_id BIGINT NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				PRIMARY KEY (user_id, company_id)
			)`, t.UserCompany, t.Users, t.Companies),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				company_id BIGINT NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				key VARCHAR(128) NOT NULL UNIQUE,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				last_used_at TIMESTAMPTZ
			)`, t.APIKeys, t.Companies),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				company_short_name VARCHAR(64) NOT NULL,
				auth_type VARCHAR(32) NOT NULL,
				outcome VARCHAR(16) NOT NULL,
				reason_code VARCHAR(64),
				user_identifier VARCHAR(255),
				request_path TEXT,
				source_ip VARCHAR(64),
				user_agent TEXT,
				duration_ms BIGINT NOT NULL DEFAULT 0,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, t.AccessLog),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_company_created_idx ON %s (company_short_name, created_at DESC)`,
			t.AccessLog, t.AccessLog),
	}

	for _, stmt := range statements {
		if _, err := config.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
