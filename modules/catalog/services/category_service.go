package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tradecove/catalog/modules/catalog/domain/aggregates/category"
	"github.com/tradecove/catalog/modules/catalog/domain/nestedset"
	"github.com/tradecove/catalog/modules/catalog/infrastructure/cache"
	"github.com/tradecove/catalog/modules/catalog/infrastructure/persistence"
	"github.com/tradecove/catalog/pkg/composables"
	"github.com/tradecove/catalog/pkg/eventbus"
	"github.com/tradecove/catalog/pkg/metrics"
)

type CreateCategoryInput struct {
	Name     string
	ParentID *uuid.UUID
	BrandID  *uuid.UUID
}

// CategoryNode is the cached read shape for subtree and ancestor queries.
type CategoryNode struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	BrandID  *uuid.UUID `json:"brand_id,omitempty"`
	NLeft    int        `json:"nleft"`
	NRight   int        `json:"nright"`
}

// CategoryService owns the tenant-scoped category tree. Structural mutations
// run under the tenant's advisory lock inside one transaction, renumber the
// interval encoding through the allocator, and bump the tenant's cache
// generation before the call returns.
type CategoryService struct {
	repo            category.Repository
	publisher       eventbus.EventBus
	cache           *cache.Coordinator
	mutationTimeout time.Duration
}

func NewCategoryService(
	repo category.Repository,
	publisher eventbus.EventBus,
	coordinator *cache.Coordinator,
	mutationTimeout time.Duration,
) *CategoryService {
	return &CategoryService{
		repo:            repo,
		publisher:       publisher,
		cache:           coordinator,
		mutationTimeout: mutationTimeout,
	}
}

func (s *CategoryService) Create(ctx context.Context, tenantID uuid.UUID, input CreateCategoryInput) (*category.Category, error) {
	if tenantID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, CodeInvalidBody, "tenant_id is required", nil)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, newServiceError(http.StatusBadRequest, CodeInvalidBody, "name is required", nil)
	}

	mutCtx, cancel := context.WithTimeout(ctx, s.mutationTimeout)
	defer cancel()

	created, err := composables.InTxResult(mutCtx, func(txCtx context.Context) (*category.Category, error) {
		if err := s.repo.LockTenant(txCtx, tenantID); err != nil {
			return nil, err
		}
		if input.ParentID != nil {
			if _, err := s.resolveOwned(txCtx, tenantID, *input.ParentID); err != nil {
				return nil, err
			}
		}
		if err := s.checkNameFree(txCtx, tenantID, name); err != nil {
			return nil, err
		}

		snapshot, err := s.repo.Snapshot(txCtx, tenantID)
		if err != nil {
			return nil, err
		}
		forest := nestedset.NewForest(snapshot)

		id := uuid.New()
		change, err := forest.Insert(id, input.ParentID)
		if err != nil {
			return nil, mapTreeError(err)
		}

		if err := s.repo.ApplyChange(txCtx, tenantID, nestedset.Change{Updated: change.Updated}); err != nil {
			return nil, err
		}

		node := change.Inserted[0]
		entity := category.New(
			name,
			category.WithID(id),
			category.WithTenantID(tenantID),
			category.WithParentID(input.ParentID),
			category.WithBrandID(input.BrandID),
			category.WithBounds(node.Left, node.Right),
		)
		if err := s.repo.Create(txCtx, entity); err != nil {
			return nil, err
		}
		return entity, nil
	})
	if err != nil {
		return nil, mapPgError(err)
	}

	s.acknowledgeMutation(ctx, tenantID, "create")
	s.publisher.Publish(category.NewCreatedEvent(created))
	return created, nil
}

func (s *CategoryService) Move(ctx context.Context, tenantID, id uuid.UUID, newParentID *uuid.UUID) (*category.Category, error) {
	if tenantID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, CodeInvalidBody, "tenant_id is required", nil)
	}

	mutCtx, cancel := context.WithTimeout(ctx, s.mutationTimeout)
	defer cancel()

	type moveOut struct {
		moved       *category.Category
		oldParentID *uuid.UUID
	}
	out, err := composables.InTxResult(mutCtx, func(txCtx context.Context) (moveOut, error) {
		if err := s.repo.LockTenant(txCtx, tenantID); err != nil {
			return moveOut{}, err
		}
		current, err := s.resolveOwned(txCtx, tenantID, id)
		if err != nil {
			return moveOut{}, err
		}
		if newParentID != nil {
			if _, err := s.resolveOwned(txCtx, tenantID, *newParentID); err != nil {
				return moveOut{}, err
			}
		}

		snapshot, err := s.repo.Snapshot(txCtx, tenantID)
		if err != nil {
			return moveOut{}, err
		}
		forest := nestedset.NewForest(snapshot)

		change, err := forest.Move(id, newParentID)
		if err != nil {
			return moveOut{}, mapTreeError(err)
		}
		if err := s.repo.ApplyChange(txCtx, tenantID, change); err != nil {
			return moveOut{}, err
		}

		moved, err := s.repo.GetByID(txCtx, tenantID, id)
		if err != nil {
			return moveOut{}, err
		}
		return moveOut{moved: moved, oldParentID: current.ParentID()}, nil
	})
	if err != nil {
		return nil, mapPgError(err)
	}

	s.acknowledgeMutation(ctx, tenantID, "move")
	s.publisher.Publish(category.NewMovedEvent(out.moved, out.oldParentID))
	return out.moved, nil
}

// Delete removes a category. Non-leaf categories require an explicit policy:
// CASCADE removes the whole subtree, PROMOTE reattaches direct children to
// the deleted node's parent. It returns the ids of all removed categories.
func (s *CategoryService) Delete(ctx context.Context, tenantID, id uuid.UUID, policy nestedset.DeletePolicy) ([]uuid.UUID, error) {
	if tenantID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, CodeInvalidBody, "tenant_id is required", nil)
	}

	mutCtx, cancel := context.WithTimeout(ctx, s.mutationTimeout)
	defer cancel()

	removed, err := composables.InTxResult(mutCtx, func(txCtx context.Context) ([]uuid.UUID, error) {
		if err := s.repo.LockTenant(txCtx, tenantID); err != nil {
			return nil, err
		}
		if _, err := s.resolveOwned(txCtx, tenantID, id); err != nil {
			return nil, err
		}

		snapshot, err := s.repo.Snapshot(txCtx, tenantID)
		if err != nil {
			return nil, err
		}
		forest := nestedset.NewForest(snapshot)

		change, err := forest.Delete(id, policy)
		if err != nil {
			return nil, mapTreeError(err)
		}
		if err := s.repo.ApplyChange(txCtx, tenantID, change); err != nil {
			return nil, err
		}
		return change.Deleted, nil
	})
	if err != nil {
		return nil, mapPgError(err)
	}

	s.acknowledgeMutation(ctx, tenantID, "delete")
	s.publisher.Publish(category.NewDeletedEvent(tenantID, id, policy, removed))
	return removed, nil
}

func (s *CategoryService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*category.Category, error) {
	entity, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, s.mapLookupError(ctx, id, err)
	}
	return entity, nil
}

// GetSubtree returns the category and all its descendants in pre-order,
// served read-through from the cache.
func (s *CategoryService) GetSubtree(ctx context.Context, tenantID, id uuid.UUID) ([]CategoryNode, error) {
	return cache.GetOrLoad(ctx, s.cache, tenantID, "subtree", id.String(), func(ctx context.Context) ([]CategoryNode, error) {
		categories, err := s.repo.GetSubtree(ctx, tenantID, id)
		if err != nil {
			return nil, s.mapLookupError(ctx, id, err)
		}
		return toCategoryNodes(categories), nil
	})
}

// GetAncestors returns the path from the root down to the category's parent.
func (s *CategoryService) GetAncestors(ctx context.Context, tenantID, id uuid.UUID) ([]CategoryNode, error) {
	return cache.GetOrLoad(ctx, s.cache, tenantID, "ancestors", id.String(), func(ctx context.Context) ([]CategoryNode, error) {
		categories, err := s.repo.GetAncestors(ctx, tenantID, id)
		if err != nil {
			return nil, s.mapLookupError(ctx, id, err)
		}
		return toCategoryNodes(categories), nil
	})
}

func (s *CategoryService) Count(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.repo.Count(ctx, tenantID)
}

// acknowledgeMutation runs after commit and before the caller gets its
// response, so no read issued after the acknowledgement can observe the old
// tree. It deliberately ignores the mutation deadline: the commit already
// happened, the invalidation must not be skipped.
func (s *CategoryService) acknowledgeMutation(ctx context.Context, tenantID uuid.UUID, operation string) {
	s.cache.Invalidate(context.WithoutCancel(ctx), tenantID)
	metrics.StructuralMutations.WithLabelValues(operation).Inc()
}

// resolveOwned loads a category strictly within the caller's tenant. A hit
// under a different tenant is reported as cross-tenant without leaking the
// foreign row.
func (s *CategoryService) resolveOwned(ctx context.Context, tenantID, id uuid.UUID) (*category.Category, error) {
	entity, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, s.mapLookupError(ctx, id, err)
	}
	return entity, nil
}

func (s *CategoryService) mapLookupError(ctx context.Context, id uuid.UUID, err error) error {
	return mapCategoryLookup(ctx, s.repo, id, err)
}

// mapCategoryLookup turns a failed category lookup into a service error. A row
// that exists under another tenant is reported as cross-tenant without leaking
// the foreign row; anything else missing is a plain not-found.
func mapCategoryLookup(ctx context.Context, repo category.Repository, id uuid.UUID, err error) error {
	if !errors.Is(err, persistence.ErrCategoryNotFound) {
		return mapPgError(err)
	}
	if _, terr := repo.TenantOf(ctx, id); terr == nil {
		recordWriteConflict("cross_tenant")
		return newServiceError(http.StatusForbidden, CodeCrossTenant, "category belongs to another tenant", nil)
	}
	return newServiceError(http.StatusNotFound, CodeNotFound, "category not found", err)
}

func (s *CategoryService) checkNameFree(ctx context.Context, tenantID uuid.UUID, name string) error {
	_, err := s.repo.GetByName(ctx, tenantID, name)
	if err == nil {
		recordWriteConflict("unique")
		return newServiceError(http.StatusConflict, CodeDuplicateName, "category name already exists for tenant", nil)
	}
	if errors.Is(err, persistence.ErrCategoryNotFound) {
		return nil
	}
	return err
}

func mapTreeError(err error) error {
	switch {
	case errors.Is(err, nestedset.ErrCycle):
		recordWriteConflict("cycle")
		return newServiceError(http.StatusUnprocessableEntity, CodeCycle, "move would create a cycle", err)
	case errors.Is(err, nestedset.ErrNotEmpty):
		return newServiceError(http.StatusConflict, CodeNotEmpty, "category has children, pass a delete policy", err)
	case errors.Is(err, nestedset.ErrNotFound):
		return newServiceError(http.StatusNotFound, CodeNotFound, "category not found", err)
	default:
		return err
	}
}

func toCategoryNodes(categories []*category.Category) []CategoryNode {
	nodes := make([]CategoryNode, 0, len(categories))
	for _, c := range categories {
		nodes = append(nodes, CategoryNode{
			ID:       c.ID(),
			Name:     c.Name(),
			ParentID: c.ParentID(),
			BrandID:  c.BrandID(),
			NLeft:    c.Left(),
			NRight:   c.Right(),
		})
	}
	return nodes
}
