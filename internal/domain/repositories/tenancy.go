package repositories

import (
	"context"

	"tenantchat/internal/domain/models"
)

// CompanyRepository persists tenants. Get methods return (nil, nil) when absent.
type CompanyRepository interface {
	GetByShortName(ctx context.Context, shortName string) (*models.Company, error)
	GetByID(ctx context.Context, id int64) (*models.Company, error)
	// Upsert inserts or updates by short name and fills the ID.
	Upsert(ctx context.Context, company *models.Company) error
}

// UserRepository persists local users.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// IsMember reports whether the user belongs to the company.
	IsMember(ctx context.Context, userID, companyID int64) (bool, error)
}

// APIKeyRepository resolves API keys.
type APIKeyRepository interface {
	// GetActiveByKey returns the active key record or (nil, nil).
	GetActiveByKey(ctx context.Context, key string) (*models.APIKey, error)
	TouchLastUsed(ctx context.Context, id int64) error
}

// AccessLogRepository appends to the authentication audit trail.
type AccessLogRepository interface {
	Create(ctx context.Context, entry *models.AccessLogEntry) error
}
