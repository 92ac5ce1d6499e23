package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"tenantchat/internal/domain/models"
	"tenantchat/internal/domain/repositories"
)

// PostgresCompanyRepository implements repositories.CompanyRepository
type PostgresCompanyRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewCompanyRepository creates a new PostgresCompanyRepository
func NewCompanyRepository(config *RepositoryConfig) repositories.CompanyRepository {
	return &PostgresCompanyRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetByShortName retrieves a company by its short name
func (r *PostgresCompanyRepository) GetByShortName(ctx context.Context, shortName string) (*models.Company, error) {
	query := fmt.Sprintf(`
		SELECT id, short_name, name, active, created_at, updated_at
		FROM %s
		WHERE short_name = $1
	`, r.tables.Companies)

	return r.scanOne(ctx, query, shortName)
}

// GetByID retrieves a company by ID
func (r *PostgresCompanyRepository) GetByID(ctx context.Context, id int64) (*models.Company, error) {
	query := fmt.Sprintf(`
		SELECT id, short_name, name, active, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Companies)

	return r.scanOne(ctx, query, id)
}

// Upsert creates or renames a company keyed by short name. The active flag
// is only set on insert.
func (r *PostgresCompanyRepository) Upsert(ctx context.Context, company *models.Company) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (short_name, name, active, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (short_name) DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = NOW()
		RETURNING id, active, created_at, updated_at
	`, r.tables.Companies)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, company.ShortName, company.Name, company.Active).Scan(
		&company.ID,
		&company.Active,
		&company.CreatedAt,
		&company.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert company: %w", err)
	}
	return nil
}

func (r *PostgresCompanyRepository) scanOne(ctx context.Context, query string, arg interface{}) (*models.Company, error) {
	var c models.Company
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, arg).Scan(
		&c.ID,
		&c.ShortName,
		&c.Name,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}
