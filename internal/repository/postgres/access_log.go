package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"tenantchat/internal/domain/models"
	"tenantchat/internal/domain/repositories"
)

// PostgresAccessLogRepository implements repositories.AccessLogRepository
type PostgresAccessLogRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewAccessLogRepository creates a new PostgresAccessLogRepository
func NewAccessLogRepository(config *RepositoryConfig) repositories.AccessLogRepository {
	return &PostgresAccessLogRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create appends an entry and fills its ID
func (r *PostgresAccessLogRepository) Create(ctx context.Context, entry *models.AccessLogEntry) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			company_short_name, auth_type, outcome, reason_code, user_identifier,
			request_path, source_ip, user_agent, duration_ms, created_at
		)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, $10)
		RETURNING id
	`, r.tables.AccessLog)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		entry.CompanyShortName,
		string(entry.AuthType),
		entry.Outcome,
		entry.ReasonCode,
		entry.UserIdentifier,
		entry.RequestPath,
		entry.SourceIP,
		entry.UserAgent,
		entry.DurationMS,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("create access log entry: %w", err)
	}
	return nil
}
