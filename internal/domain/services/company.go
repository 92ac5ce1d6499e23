package services

import (
	"context"

	"tenantchat/internal/domain/models"
	domainllm "tenantchat/internal/domain/services/llm"
)

// CompanyCapability is the closed set of operations every tenant variant provides.
type CompanyCapability interface {
	HandleRequest(ctx context.Context, action string, params map[string]interface{}) (interface{}, error)
	GetCompanyContext(ctx context.Context) (string, error)
	GetUserInfo(ctx context.Context, userIdentifier string) (models.JSONMap, error)
	GetMetadataFromFilename(filename string) (models.JSONMap, error)
	// Tools lists the actions the model may invoke through HandleRequest.
	Tools() []domainllm.ToolDefinition
}

// Dispatcher routes capability calls to the tenant registered under a short name.
type Dispatcher interface {
	Dispatch(ctx context.Context, companyShortName, action string, params map[string]interface{}) (interface{}, error)
	GetCompanyContext(ctx context.Context, companyShortName string) (string, error)
	GetUserInfo(ctx context.Context, companyShortName, userIdentifier string) (models.JSONMap, error)
	GetMetadataFromFilename(companyShortName, filename string) (models.JSONMap, error)
	Tools(companyShortName string) []domainllm.ToolDefinition
}

// CompanyProfile joins the persisted tenant row with its configuration.
type CompanyProfile struct {
	Company *models.Company
	Config  *models.CompanyConfig
}

// CompanyDirectory resolves tenants by short name. Unknown or inactive
// tenants yield a *domain.NotFoundError.
type CompanyDirectory interface {
	Get(ctx context.Context, shortName string) (*CompanyProfile, error)
}
