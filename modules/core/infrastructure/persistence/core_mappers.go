package persistence

import (
	"github.com/google/uuid"

	"github.com/tradecove/catalog/modules/core/domain/entities/tenant"
	"github.com/tradecove/catalog/modules/core/infrastructure/persistence/models"
)

func toDomainTenant(row *models.Tenant) (*tenant.Tenant, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}

	return tenant.New(
		row.Name,
		tenant.WithID(id),
		tenant.WithDomain(row.Domain.String),
		tenant.WithIsActive(row.IsActive),
		tenant.WithCreatedAt(row.CreatedAt),
		tenant.WithUpdatedAt(row.UpdatedAt),
	), nil
}
