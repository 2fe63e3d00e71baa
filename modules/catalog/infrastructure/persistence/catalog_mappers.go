package persistence

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/tradecove/catalog/modules/catalog/domain/aggregates/category"
	"github.com/tradecove/catalog/modules/catalog/domain/entities/brand"
	"github.com/tradecove/catalog/modules/catalog/domain/entities/product"
	"github.com/tradecove/catalog/modules/catalog/infrastructure/persistence/models"
)

func toDomainCategory(row *models.Category) (*category.Category, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	tenantID, err := uuid.Parse(row.TenantID)
	if err != nil {
		return nil, err
	}
	parentID, err := parseNullableUUID(row.ParentID)
	if err != nil {
		return nil, err
	}
	brandID, err := parseNullableUUID(row.BrandID)
	if err != nil {
		return nil, err
	}

	return category.New(
		row.Name,
		category.WithID(id),
		category.WithTenantID(tenantID),
		category.WithParentID(parentID),
		category.WithBrandID(brandID),
		category.WithBounds(row.NLeft, row.NRight),
		category.WithCreatedAt(row.CreatedAt),
		category.WithUpdatedAt(row.UpdatedAt),
	), nil
}

func toDomainBrand(row *models.Brand) (*brand.Brand, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	tenantID, err := uuid.Parse(row.TenantID)
	if err != nil {
		return nil, err
	}

	return brand.New(
		row.Name,
		brand.WithID(id),
		brand.WithTenantID(tenantID),
		brand.WithCreatedAt(row.CreatedAt),
	), nil
}

func toDomainProduct(row *models.Product) (*product.Product, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	tenantID, err := uuid.Parse(row.TenantID)
	if err != nil {
		return nil, err
	}

	return product.New(
		row.SKU,
		row.Name,
		product.WithID(id),
		product.WithTenantID(tenantID),
		product.WithListPrice(row.ListPrice),
		product.WithIsActive(row.IsActive),
		product.WithCreatedAt(row.CreatedAt),
		product.WithUpdatedAt(row.UpdatedAt),
	), nil
}

func parseNullableUUID(v sql.NullString) (*uuid.UUID, error) {
	if !v.Valid {
		return nil, nil
	}
	id, err := uuid.Parse(v.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func nullableUUIDString(id *uuid.UUID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}
