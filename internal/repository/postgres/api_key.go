package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"tenantchat/internal/domain/models"
	"tenantchat/internal/domain/repositories"
)

// PostgresAPIKeyRepository implements repositories.APIKeyRepository
type PostgresAPIKeyRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewAPIKeyRepository creates a new PostgresAPIKeyRepository
func NewAPIKeyRepository(config *RepositoryConfig) repositories.APIKeyRepository {
	return &PostgresAPIKeyRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetActiveByKey resolves an active key. Inactive and unknown keys return (nil, nil).
func (r *PostgresAPIKeyRepository) GetActiveByKey(ctx context.Context, key string) (*models.APIKey, error) {
	query := fmt.Sprintf(`
		SELECT id, company_id, key, active, created_at, last_used_at
		FROM %s
		WHERE key = $1 AND active = TRUE
	`, r.tables.APIKeys)

	var k models.APIKey
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, key).Scan(
		&k.ID,
		&k.CompanyID,
		&k.Key,
		&k.Active,
		&k.CreatedAt,
		&k.LastUsedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get api key: %w", err)
	}
	return &k, nil
}

// TouchLastUsed stamps the key's last use
func (r *PostgresAPIKeyRepository) TouchLastUsed(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`UPDATE %s SET last_used_at = NOW() WHERE id = $1`, r.tables.APIKeys)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("touch api key: %w", err)
	}
	return nil
}
