package company

import (
	"context"
	"fmt"
	"log/slog"

	"tenantchat/internal/domain"
	"tenantchat/internal/domain/models"
	"tenantchat/internal/domain/repositories"
	"tenantchat/internal/domain/services"
)

// Directory resolves tenants by joining the companies table with their YAML configuration.
type Directory struct {
	repo    repositories.CompanyRepository
	configs map[string]*models.CompanyConfig
	logger  *slog.Logger
}

// NewDirectory creates a directory over the loaded configurations.
func NewDirectory(repo repositories.CompanyRepository, configs []*models.CompanyConfig, logger *slog.Logger) *Directory {
	byName := make(map[string]*models.CompanyConfig, len(configs))
	for _, cfg := range configs {
		byName[cfg.ShortName] = cfg
	}
	return &Directory{repo: repo, configs: byName, logger: logger}
}

// Sync upserts a companies row for every configuration. Existing rows keep
// their active flag.
func (d *Directory) Sync(ctx context.Context) error {
	for shortName, cfg := range d.configs {
		company := &models.Company{ShortName: shortName, Name: cfg.Name, Active: true}
		if err := d.repo.Upsert(ctx, company); err != nil {
			return fmt.Errorf("sync company %s: %w", shortName, err)
		}
		d.logger.Debug("company synced", "company", shortName, "id", company.ID, "active", company.Active)
	}
	return nil
}

// Get returns the tenant profile, or a *domain.NotFoundError.
func (d *Directory) Get(ctx context.Context, shortName string) (*services.CompanyProfile, error) {
	cfg, ok := d.configs[shortName]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("company %q not found", shortName)}
	}

	company, err := d.repo.GetByShortName(ctx, shortName)
	if err != nil {
		return nil, fmt.Errorf("get company %s: %w", shortName, err)
	}
	if company == nil || !company.Active {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("company %q not found", shortName)}
	}

	return &services.CompanyProfile{Company: company, Config: cfg}, nil
}

var _ services.CompanyDirectory = (*Directory)(nil)
