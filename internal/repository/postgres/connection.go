package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"tenantchat/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Companies   string
	Users       string
	UserCompany string
	APIKeys     string
	AccessLog   string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Companies:   fmt.Sprintf("%scompanies", prefix),
		Users:       fmt.Sprintf("%susers", prefix),
		UserCompany: fmt.Sprintf("%suser_company", prefix),
		APIKeys:     fmt.Sprintf("%sapi_keys", prefix),
		AccessLog:   fmt.Sprintf("%saccess_log", prefix),
	}
}

// CreateConnectionPool creates a pgx connection pool.
//
// Behind PgBouncer in transaction pooling mode (port 6543) prepared
// statements are unavailable, so the pool switches to
// QueryExecModeCacheDescribe unless the connection string already sets
// default_query_exec_mode. Dynamic table prefixes are interpolated before
// statements are sent, so each environment caches its own descriptions.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction stored in ctx, or the pool.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx, ok := repositories.TxFrom(ctx); ok {
		return tx
	}
	return pool
}

// IsNoRows reports whether err wraps pgx.ErrNoRows.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
