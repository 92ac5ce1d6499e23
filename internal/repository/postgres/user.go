package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"tenantchat/internal/domain/models"
	"tenantchat/internal/domain/repositories"
)

// PostgresUserRepository implements repositories.UserRepository
type PostgresUserRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewUserRepository creates a new PostgresUserRepository
func NewUserRepository(config *RepositoryConfig) repositories.UserRepository {
	return &PostgresUserRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetByEmail retrieves a user by email. Emails are stored lowercase.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, email, first_name, last_name, password_hash, verified, created_at
		FROM %s
		WHERE email = $1
	`, r.tables.Users)

	var u models.User
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, email).Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&u.Verified,
		&u.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// IsMember reports whether the user belongs to the company
func (r *PostgresUserRepository) IsMember(ctx context.Context, userID, companyID int64) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (SELECT 1 FROM %s WHERE user_id = $1 AND company_id = $2)
	`, r.tables.UserCompany)

	var member bool
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, userID, companyID).Scan(&member); err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return member, nil
}
