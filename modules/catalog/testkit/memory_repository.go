// Package testkit provides in-memory doubles for exercising catalog services
// without a database.
package testkit

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tradecove/catalog/modules/catalog/domain/aggregates/category"
	"github.com/tradecove/catalog/modules/catalog/domain/entities/product"
	"github.com/tradecove/catalog/modules/catalog/domain/nestedset"
	"github.com/tradecove/catalog/modules/catalog/infrastructure/persistence"
)

// StubTx satisfies the transaction surface so service calls run without a
// database; the in-memory repositories never touch it.
type StubTx struct{}

func (StubTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("unexpected database access")
}

func (StubTx) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("unexpected database access")
}

func (StubTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("unexpected database access")
}

type MemoryCategoryRepository struct {
	mu       sync.Mutex
	byTenant map[uuid.UUID]map[uuid.UUID]*category.Category
}

func NewMemoryCategoryRepository() *MemoryCategoryRepository {
	return &MemoryCategoryRepository{byTenant: make(map[uuid.UUID]map[uuid.UUID]*category.Category)}
}

func (r *MemoryCategoryRepository) GetByID(_ context.Context, tenantID, id uuid.UUID) (*category.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byTenant[tenantID][id]; ok {
		return c, nil
	}
	return nil, persistence.ErrCategoryNotFound
}

func (r *MemoryCategoryRepository) GetByName(_ context.Context, tenantID uuid.UUID, name string) (*category.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byTenant[tenantID] {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, persistence.ErrCategoryNotFound
}

func (r *MemoryCategoryRepository) TenantOf(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for tenantID, categories := range r.byTenant {
		if _, ok := categories[id]; ok {
			return tenantID, nil
		}
	}
	return uuid.Nil, persistence.ErrCategoryNotFound
}

func (r *MemoryCategoryRepository) LockTenant(context.Context, uuid.UUID) error { return nil }

func (r *MemoryCategoryRepository) Snapshot(_ context.Context, tenantID uuid.UUID) ([]nestedset.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	nodes := make([]nestedset.Node, 0, len(r.byTenant[tenantID]))
	for _, c := range r.byTenant[tenantID] {
		nodes = append(nodes, nestedset.Node{ID: c.ID(), ParentID: c.ParentID(), Left: c.Left(), Right: c.Right()})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Left < nodes[j].Left })
	return nodes, nil
}

func (r *MemoryCategoryRepository) Create(_ context.Context, c *category.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byTenant[c.TenantID()] == nil {
		r.byTenant[c.TenantID()] = make(map[uuid.UUID]*category.Category)
	}
	r.byTenant[c.TenantID()][c.ID()] = c
	return nil
}

func (r *MemoryCategoryRepository) ApplyChange(_ context.Context, tenantID uuid.UUID, change nestedset.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range change.Deleted {
		delete(r.byTenant[tenantID], id)
	}
	for _, node := range change.Updated {
		if c, ok := r.byTenant[tenantID][node.ID]; ok {
			c.SetBounds(node.Left, node.Right)
			c.SetParentID(node.ParentID)
		}
	}
	return nil
}

func (r *MemoryCategoryRepository) GetSubtree(_ context.Context, tenantID, id uuid.UUID) ([]*category.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.byTenant[tenantID][id]
	if !ok {
		return nil, persistence.ErrCategoryNotFound
	}
	out := make([]*category.Category, 0)
	for _, c := range r.byTenant[tenantID] {
		if c.Left() >= target.Left() && c.Right() <= target.Right() {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Left() < out[j].Left() })
	return out, nil
}

func (r *MemoryCategoryRepository) GetAncestors(_ context.Context, tenantID, id uuid.UUID) ([]*category.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.byTenant[tenantID][id]
	if !ok {
		return nil, persistence.ErrCategoryNotFound
	}
	out := make([]*category.Category, 0)
	for _, c := range r.byTenant[tenantID] {
		if c.Left() < target.Left() && c.Right() > target.Right() {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Left() < out[j].Left() })
	return out, nil
}

func (r *MemoryCategoryRepository) Count(_ context.Context, tenantID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byTenant[tenantID])), nil
}

// MemoryProductRepository resolves subtree membership against the category
// repository's interval bounds, mirroring the containment join the SQL
// implementation runs.
type MemoryProductRepository struct {
	mu         sync.Mutex
	categories *MemoryCategoryRepository
	byTenant   map[uuid.UUID]map[uuid.UUID]*product.Product
	links      map[uuid.UUID]map[uuid.UUID]map[uuid.UUID]bool // tenant -> product -> categories
}

func NewMemoryProductRepository(categories *MemoryCategoryRepository) *MemoryProductRepository {
	return &MemoryProductRepository{
		categories: categories,
		byTenant:   make(map[uuid.UUID]map[uuid.UUID]*product.Product),
		links:      make(map[uuid.UUID]map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (r *MemoryProductRepository) GetByID(_ context.Context, tenantID, id uuid.UUID) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.byTenant[tenantID][id]; ok {
		return p, nil
	}
	return nil, persistence.ErrProductNotFound
}

func (r *MemoryProductRepository) Create(_ context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byTenant[p.TenantID()] == nil {
		r.byTenant[p.TenantID()] = make(map[uuid.UUID]*product.Product)
	}
	r.byTenant[p.TenantID()][p.ID()] = p
	return nil
}

func (r *MemoryProductRepository) Link(_ context.Context, tenantID, productID, categoryID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.links[tenantID] == nil {
		r.links[tenantID] = make(map[uuid.UUID]map[uuid.UUID]bool)
	}
	if r.links[tenantID][productID] == nil {
		r.links[tenantID][productID] = make(map[uuid.UUID]bool)
	}
	r.links[tenantID][productID][categoryID] = true
	return nil
}

func (r *MemoryProductRepository) Unlink(_ context.Context, tenantID, productID, categoryID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.links[tenantID][productID], categoryID)
	return nil
}

func (r *MemoryProductRepository) ListInSubtree(ctx context.Context, tenantID, categoryID uuid.UUID) ([]*product.Product, error) {
	target, err := r.categories.GetByID(ctx, tenantID, categoryID)
	if err != nil {
		// the SQL containment join yields zero rows for a missing target
		return []*product.Product{}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*product.Product, 0)
	for productID, categories := range r.links[tenantID] {
		for linkedID := range categories {
			linked, err := r.categories.GetByID(ctx, tenantID, linkedID)
			if err != nil {
				continue
			}
			if linked.Left() >= target.Left() && linked.Right() <= target.Right() {
				if p, ok := r.byTenant[tenantID][productID]; ok {
					out = append(out, p)
				}
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU() < out[j].SKU() })
	return out, nil
}
