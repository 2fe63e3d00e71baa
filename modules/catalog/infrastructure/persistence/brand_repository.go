package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/tradecove/catalog/modules/catalog/domain/entities/brand"
	"github.com/tradecove/catalog/modules/catalog/infrastructure/persistence/models"
	"github.com/tradecove/catalog/pkg/composables"
)

var (
	ErrBrandNotFound = fmt.Errorf("brand not found")
)

const (
	brandFindQuery = `SELECT id, tenant_id, name, created_at FROM brands`
)

type BrandRepository struct{}

func NewBrandRepository() brand.Repository {
	return &BrandRepository{}
}

func (r *BrandRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*brand.Brand, error) {
	query := brandFindQuery + " WHERE tenant_id = $1 AND id = $2"
	brands, err := r.queryBrands(ctx, query, tenantID.String(), id.String())
	if err != nil {
		return nil, err
	}
	if len(brands) == 0 {
		return nil, ErrBrandNotFound
	}
	return brands[0], nil
}

func (r *BrandRepository) List(ctx context.Context, tenantID uuid.UUID) ([]*brand.Brand, error) {
	return r.queryBrands(ctx, brandFindQuery+" WHERE tenant_id = $1 ORDER BY name", tenantID.String())
}

func (r *BrandRepository) Create(ctx context.Context, b *brand.Brand) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO brands (id, tenant_id, name, created_at)
		VALUES ($1, $2, $3, $4)`,
		b.ID().String(),
		b.TenantID().String(),
		b.Name(),
		b.CreatedAt(),
	); err != nil {
		return errors.Wrap(err, "failed to create brand")
	}
	return nil
}

func (r *BrandRepository) queryBrands(ctx context.Context, query string, args ...interface{}) ([]*brand.Brand, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query brands")
	}
	defer rows.Close()

	brands := make([]*brand.Brand, 0)
	for rows.Next() {
		var row models.Brand
		if err := rows.Scan(&row.ID, &row.TenantID, &row.Name, &row.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan brand")
		}

		entity, err := toDomainBrand(&row)
		if err != nil {
			return nil, err
		}
		brands = append(brands, entity)
	}

	return brands, rows.Err()
}
