package company

import (
	"context"

	"tenantchat/internal/domain/models"
	"tenantchat/internal/domain/services"
)

// Static users of the sample tenant
var sampleUsers = map[string]models.JSONMap{
	"User_1": {"role": "admin", "display_name": "Sample Admin"},
	"demo":   {"role": "analyst", "display_name": "Demo Analyst"},
}

// SampleCompany is a demo tenant with a fixed user directory.
type SampleCompany struct {
	*ConfiguredCompany
}

// NewSampleCompany wraps a configured tenant with static user info.
func NewSampleCompany(base *ConfiguredCompany) *SampleCompany {
	return &SampleCompany{ConfiguredCompany: base}
}

// GetUserInfo overlays the static directory on the configured defaults.
// Unknown users get the guest role.
func (s *SampleCompany) GetUserInfo(ctx context.Context, userIdentifier string) (models.JSONMap, error) {
	info, err := s.ConfiguredCompany.GetUserInfo(ctx, userIdentifier)
	if err != nil {
		return nil, err
	}

	known, ok := sampleUsers[userIdentifier]
	if !ok {
		info["role"] = "guest"
		info["display_name"] = userIdentifier
		return info, nil
	}
	for k, v := range known {
		info[k] = v
	}
	return info, nil
}

var _ services.CompanyCapability = (*SampleCompany)(nil)
