package seed

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/tradecove/catalog/modules/core/domain/entities/tenant"
	"github.com/tradecove/catalog/modules/core/infrastructure/persistence"
	"github.com/tradecove/catalog/pkg/composables"
	"github.com/tradecove/catalog/pkg/configuration"
)

const defaultTenantDomain = "default.localhost"

var defaultTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// CreateDefaultTenant makes sure the fixed development tenant exists so a
// fresh environment is usable without manual setup. Production deployments
// keep their tenant registry under their own control.
func CreateDefaultTenant(ctx context.Context) error {
	conf := configuration.Use()
	logger := conf.Logger()
	repo := persistence.NewTenantRepository()

	return composables.InTx(ctx, func(txCtx context.Context) error {
		existing, err := repo.GetByID(txCtx, defaultTenantID)
		if err == nil {
			if conf.GoAppEnvironment != configuration.Production &&
				strings.ToLower(strings.TrimSpace(existing.Domain())) != defaultTenantDomain {
				existing.SetDomain(defaultTenantDomain)
				if _, err := repo.Update(txCtx, existing); err != nil {
					return err
				}
				logger.WithField("domain", defaultTenantDomain).Info("updated default tenant domain")
			}
			return nil
		}

		logger.Info("creating default tenant")
		_, err = repo.Create(txCtx, tenant.New(
			"Default",
			tenant.WithID(defaultTenantID),
			tenant.WithDomain(defaultTenantDomain),
		))
		return err
	})
}
