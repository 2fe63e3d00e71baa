package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/tradecove/catalog/modules/catalog/domain/entities/product"
	"github.com/tradecove/catalog/modules/catalog/infrastructure/persistence/models"
	"github.com/tradecove/catalog/pkg/composables"
)

var (
	ErrProductNotFound = fmt.Errorf("product not found")
)

const (
	productFindQuery = `
		SELECT id, tenant_id, sku, name, list_price, is_active, created_at, updated_at
		FROM products`
)

type ProductRepository struct{}

func NewProductRepository() product.Repository {
	return &ProductRepository{}
}

func (r *ProductRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*product.Product, error) {
	query := productFindQuery + " WHERE tenant_id = $1 AND id = $2"
	products, err := r.queryProducts(ctx, query, tenantID.String(), id.String())
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrProductNotFound
	}
	return products[0], nil
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO products (id, tenant_id, sku, name, list_price, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID().String(),
		p.TenantID().String(),
		p.SKU(),
		p.Name(),
		p.ListPrice(),
		p.IsActive(),
		p.CreatedAt(),
		p.UpdatedAt(),
	); err != nil {
		return errors.Wrap(err, "failed to create product")
	}
	return nil
}

func (r *ProductRepository) Link(ctx context.Context, tenantID, productID, categoryID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO product_categories (tenant_id, product_id, category_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		tenantID.String(), productID.String(), categoryID.String(),
	); err != nil {
		return errors.Wrap(err, "failed to link product to category")
	}
	return nil
}

func (r *ProductRepository) Unlink(ctx context.Context, tenantID, productID, categoryID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM product_categories
		WHERE tenant_id = $1 AND product_id = $2 AND category_id = $3`,
		tenantID.String(), productID.String(), categoryID.String(),
	); err != nil {
		return errors.Wrap(err, "failed to unlink product from category")
	}
	return nil
}

// ListInSubtree resolves effective membership through interval containment:
// one range predicate against the target's bounds instead of a recursive
// walk, and DISTINCT collapses products linked to several categories in the
// same subtree.
func (r *ProductRepository) ListInSubtree(ctx context.Context, tenantID, categoryID uuid.UUID) ([]*product.Product, error) {
	query := `
		SELECT DISTINCT p.id, p.tenant_id, p.sku, p.name, p.list_price, p.is_active, p.created_at, p.updated_at
		FROM products p
		JOIN product_categories pc ON pc.tenant_id = p.tenant_id AND pc.product_id = p.id
		JOIN categories c ON c.tenant_id = pc.tenant_id AND c.id = pc.category_id
		JOIN categories t ON t.tenant_id = p.tenant_id AND t.id = $2
		WHERE p.tenant_id = $1 AND c.nleft >= t.nleft AND c.nright <= t.nright
		ORDER BY p.sku`
	return r.queryProducts(ctx, query, tenantID.String(), categoryID.String())
}

func (r *ProductRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*product.Product, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query products")
	}
	defer rows.Close()

	products := make([]*product.Product, 0)
	for rows.Next() {
		var row models.Product
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.SKU,
			&row.Name,
			&row.ListPrice,
			&row.IsActive,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan product")
		}

		entity, err := toDomainProduct(&row)
		if err != nil {
			return nil, err
		}
		products = append(products, entity)
	}

	return products, rows.Err()
}
