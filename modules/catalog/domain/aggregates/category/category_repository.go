package category

import (
	"context"

	"github.com/google/uuid"

	"github.com/tradecove/catalog/modules/catalog/domain/nestedset"
)

// Repository is the hierarchy store's persistence contract. Mutating methods
// expect to run inside a transaction carried by the context; LockTenant must
// be called first on any path that rewrites the tenant's numbering space.
type Repository interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Category, error)
	GetByName(ctx context.Context, tenantID uuid.UUID, name string) (*Category, error)

	// TenantOf resolves a category's owning tenant without tenant scoping.
	// It backs the cross-tenant guard and must never be exposed upward.
	TenantOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

	// LockTenant serializes structural mutations of one tenant's forest.
	// Different tenants proceed in parallel.
	LockTenant(ctx context.Context, tenantID uuid.UUID) error

	// Snapshot loads the tenant's full forest as allocator nodes, ordered by
	// left bound.
	Snapshot(ctx context.Context, tenantID uuid.UUID) ([]nestedset.Node, error)

	Create(ctx context.Context, c *Category) error

	// ApplyChange persists an allocator changeset: bound/parent updates and
	// row deletions, all within the caller's transaction.
	ApplyChange(ctx context.Context, tenantID uuid.UUID, change nestedset.Change) error

	GetSubtree(ctx context.Context, tenantID, id uuid.UUID) ([]*Category, error)
	GetAncestors(ctx context.Context, tenantID, id uuid.UUID) ([]*Category, error)
	Count(ctx context.Context, tenantID uuid.UUID) (int64, error)
}
