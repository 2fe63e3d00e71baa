package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tradecove/catalog/modules/catalog/domain/aggregates/category"
	"github.com/tradecove/catalog/modules/catalog/domain/nestedset"
	"github.com/tradecove/catalog/modules/catalog/infrastructure/persistence/models"
	"github.com/tradecove/catalog/pkg/composables"
)

var (
	ErrCategoryNotFound = fmt.Errorf("category not found")
)

const (
	categoryFindQuery = `
		SELECT id, tenant_id, name, parent_id, brand_id, nleft, nright, created_at, updated_at
		FROM categories`
)

type CategoryRepository struct{}

func NewCategoryRepository() category.Repository {
	return &CategoryRepository{}
}

func (r *CategoryRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*category.Category, error) {
	query := categoryFindQuery + " WHERE tenant_id = $1 AND id = $2"
	categories, err := r.queryCategories(ctx, query, tenantID.String(), id.String())
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, ErrCategoryNotFound
	}
	return categories[0], nil
}

func (r *CategoryRepository) GetByName(ctx context.Context, tenantID uuid.UUID, name string) (*category.Category, error) {
	query := categoryFindQuery + " WHERE tenant_id = $1 AND name = $2"
	categories, err := r.queryCategories(ctx, query, tenantID.String(), name)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, ErrCategoryNotFound
	}
	return categories[0], nil
}

// TenantOf intentionally skips tenant scoping. It exists so the service layer
// can distinguish "no such category anywhere" from "exists under another
// tenant" without ever returning the foreign row.
func (r *CategoryRepository) TenantOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	var tenantStr string
	err = tx.QueryRow(ctx, `SELECT tenant_id FROM categories WHERE id = $1`, id.String()).Scan(&tenantStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrCategoryNotFound
	}
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "failed to resolve category tenant")
	}

	return uuid.Parse(tenantStr)
}

// LockTenant takes the per-tenant advisory lock for the current transaction.
// Every structural mutation acquires it before reading bounds, so renumbering
// for one tenant is strictly serialized while other tenants proceed.
func (r *CategoryRepository) LockTenant(ctx context.Context, tenantID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, tenantID.String()); err != nil {
		return errors.Wrap(err, "failed to acquire tenant lock")
	}
	return nil
}

func (r *CategoryRepository) Snapshot(ctx context.Context, tenantID uuid.UUID) ([]nestedset.Node, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id, parent_id, nleft, nright
		FROM categories
		WHERE tenant_id = $1
		ORDER BY nleft
		FOR UPDATE`, tenantID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to snapshot categories")
	}
	defer rows.Close()

	nodes := make([]nestedset.Node, 0)
	for rows.Next() {
		var (
			idStr     string
			parentStr *string
			node      nestedset.Node
		)
		if err := rows.Scan(&idStr, &parentStr, &node.Left, &node.Right); err != nil {
			return nil, errors.Wrap(err, "failed to scan category bounds")
		}
		if node.ID, err = uuid.Parse(idStr); err != nil {
			return nil, err
		}
		if parentStr != nil {
			parentID, err := uuid.Parse(*parentStr)
			if err != nil {
				return nil, err
			}
			node.ParentID = &parentID
		}
		nodes = append(nodes, node)
	}

	return nodes, rows.Err()
}

func (r *CategoryRepository) Create(ctx context.Context, c *category.Category) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO categories (id, tenant_id, name, parent_id, brand_id, nleft, nright, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID().String(),
		c.TenantID().String(),
		c.Name(),
		nullableUUIDString(c.ParentID()),
		nullableUUIDString(c.BrandID()),
		c.Left(),
		c.Right(),
		c.CreatedAt(),
		c.UpdatedAt(),
	); err != nil {
		return errors.Wrap(err, "failed to create category")
	}
	return nil
}

func (r *CategoryRepository) ApplyChange(ctx context.Context, tenantID uuid.UUID, change nestedset.Change) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	// reparenting runs before row deletion so promoted children never point
	// at a deleted parent
	for _, node := range change.Updated {
		if _, err := tx.Exec(ctx, `
			UPDATE categories
			SET nleft = $1, nright = $2, parent_id = $3, updated_at = now()
			WHERE tenant_id = $4 AND id = $5`,
			node.Left,
			node.Right,
			nullableUUIDString(node.ParentID),
			tenantID.String(),
			node.ID.String(),
		); err != nil {
			return errors.Wrap(err, "failed to update category bounds")
		}
	}

	if len(change.Deleted) > 0 {
		ids := make([]string, 0, len(change.Deleted))
		for _, id := range change.Deleted {
			ids = append(ids, id.String())
		}
		if _, err := tx.Exec(ctx, `
			DELETE FROM product_categories
			WHERE tenant_id = $1 AND category_id = ANY($2)`, tenantID.String(), ids); err != nil {
			return errors.Wrap(err, "failed to unlink deleted categories")
		}
		if _, err := tx.Exec(ctx, `
			DELETE FROM categories
			WHERE tenant_id = $1 AND id = ANY($2)`, tenantID.String(), ids); err != nil {
			return errors.Wrap(err, "failed to delete categories")
		}
	}

	return nil
}

func (r *CategoryRepository) GetSubtree(ctx context.Context, tenantID, id uuid.UUID) ([]*category.Category, error) {
	query := `
		SELECT c.id, c.tenant_id, c.name, c.parent_id, c.brand_id, c.nleft, c.nright, c.created_at, c.updated_at
		FROM categories c
		JOIN categories t ON t.tenant_id = c.tenant_id AND t.id = $2
		WHERE c.tenant_id = $1 AND c.nleft >= t.nleft AND c.nright <= t.nright
		ORDER BY c.nleft`
	categories, err := r.queryCategories(ctx, query, tenantID.String(), id.String())
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		// the target would match its own interval, so an empty result means
		// the category does not exist for this tenant
		return nil, ErrCategoryNotFound
	}
	return categories, nil
}

func (r *CategoryRepository) GetAncestors(ctx context.Context, tenantID, id uuid.UUID) ([]*category.Category, error) {
	if _, err := r.GetByID(ctx, tenantID, id); err != nil {
		return nil, err
	}

	query := `
		SELECT c.id, c.tenant_id, c.name, c.parent_id, c.brand_id, c.nleft, c.nright, c.created_at, c.updated_at
		FROM categories c
		JOIN categories t ON t.tenant_id = c.tenant_id AND t.id = $2
		WHERE c.tenant_id = $1 AND c.nleft < t.nleft AND c.nright > t.nright
		ORDER BY c.nleft`
	return r.queryCategories(ctx, query, tenantID.String(), id.String())
}

func (r *CategoryRepository) Count(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM categories WHERE tenant_id = $1`, tenantID.String()).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count categories")
	}
	return count, nil
}

func (r *CategoryRepository) queryCategories(ctx context.Context, query string, args ...interface{}) ([]*category.Category, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query categories")
	}
	defer rows.Close()

	categories := make([]*category.Category, 0)
	for rows.Next() {
		var row models.Category
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.Name,
			&row.ParentID,
			&row.BrandID,
			&row.NLeft,
			&row.NRight,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan category")
		}

		entity, err := toDomainCategory(&row)
		if err != nil {
			return nil, err
		}
		categories = append(categories, entity)
	}

	return categories, rows.Err()
}
