package seed

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"tenantchat/internal/repository/postgres"
)

// TenantSeeder provisions local users and API keys for companies that
// already have a row (see company.Directory.Sync).
type TenantSeeder struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewTenantSeeder creates a new tenant seeder
func NewTenantSeeder(pool *pgxpool.Pool, tables *postgres.TableNames, logger *slog.Logger) *TenantSeeder {
	return &TenantSeeder{
		pool:   pool,
		tables: tables,
		logger: logger,
	}
}

// LocalUser describes a user to create or update.
type LocalUser struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// SeedUser upserts a verified local user and makes it a member of the company.
// Returns the user ID.
func (s *TenantSeeder) SeedUser(ctx context.Context, companyShortName string, u LocalUser) (int64, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if email == "" || u.Password == "" {
		return 0, fmt.Errorf("email and password are required")
	}

	companyID, err := s.companyID(ctx, companyShortName)
	if err != nil {
		return 0, err
	}

	hash, err := HashPassword(u.Password)
	if err != nil {
		return 0, err
	}

	var userID int64
	query := `INSERT INTO ` + s.tables.Users + ` (email, first_name, last_name, password_hash, verified)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (email) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			password_hash = EXCLUDED.password_hash,
			verified = TRUE
		RETURNING id`
	if err := s.pool.QueryRow(ctx, query, email, u.FirstName, u.LastName, hash).Scan(&userID); err != nil {
		return 0, fmt.Errorf("upsert user: %w", err)
	}

	member := `INSERT INTO ` + s.tables.UserCompany + ` (user_id, company_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	if _, err := s.pool.Exec(ctx, member, userID, companyID); err != nil {
		return 0, fmt.Errorf("add membership: %w", err)
	}

	s.logger.Info("user seeded", "company", companyShortName, "email", email, "user_id", userID)
	return userID, nil
}

// SeedAPIKey stores an active API key for the company. An empty key is
// replaced by a random one. Returns the stored key.
func (s *TenantSeeder) SeedAPIKey(ctx context.Context, companyShortName, key string) (string, error) {
	companyID, err := s.companyID(ctx, companyShortName)
	if err != nil {
		return "", err
	}

	if key == "" {
		key, err = GenerateAPIKey()
		if err != nil {
			return "", err
		}
	}

	query := `INSERT INTO ` + s.tables.APIKeys + ` (company_id, key, active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (key) DO UPDATE SET company_id = EXCLUDED.company_id, active = TRUE`
	if _, err := s.pool.Exec(ctx, query, companyID, key); err != nil {
		return "", fmt.Errorf("insert api key: %w", err)
	}

	s.logger.Info("api key seeded", "company", companyShortName)
	return key, nil
}

// DropAllTables drops every service table, dependents first.
func (s *TenantSeeder) DropAllTables(ctx context.Context) error {
	for _, table := range []string{
		s.tables.AccessLog,
		s.tables.APIKeys,
		s.tables.UserCompany,
		s.tables.Users,
		s.tables.Companies,
	} {
		if _, err := s.pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
		s.logger.Info("table dropped", "table", table)
	}
	return nil
}

func (s *TenantSeeder) companyID(ctx context.Context, shortName string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `SELECT id FROM `+s.tables.Companies+` WHERE short_name = $1`, shortName).Scan(&id)
	if err != nil {
		if postgres.IsNoRows(err) {
			return 0, fmt.Errorf("company %q is not configured", shortName)
		}
		return 0, fmt.Errorf("lookup company: %w", err)
	}
	return id, nil
}

// HashPassword returns the bcrypt hash stored for local users.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// GenerateAPIKey returns a random 32-byte key, hex encoded.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
