package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradecove/catalog/modules/catalog/domain/aggregates/category"
	"github.com/tradecove/catalog/modules/catalog/domain/entities/product"
	"github.com/tradecove/catalog/modules/catalog/infrastructure/cache"
	"github.com/tradecove/catalog/pkg/composables"
)

type CreateProductInput struct {
	SKU       string
	Name      string
	ListPrice decimal.Decimal
}

// ProductView is the cached read shape for subtree product listings.
type ProductView struct {
	ID        uuid.UUID       `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	ListPrice decimal.Decimal `json:"list_price"`
	IsActive  bool            `json:"is_active"`
}

type ProductService struct {
	repo            product.Repository
	categories      category.Repository
	cache           *cache.Coordinator
	mutationTimeout time.Duration
}

func NewProductService(
	repo product.Repository,
	categories category.Repository,
	coordinator *cache.Coordinator,
	mutationTimeout time.Duration,
) *ProductService {
	return &ProductService{
		repo:            repo,
		categories:      categories,
		cache:           coordinator,
		mutationTimeout: mutationTimeout,
	}
}

func (s *ProductService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*product.Product, error) {
	p, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, mapPgError(err)
	}
	return p, nil
}

func (s *ProductService) Create(ctx context.Context, tenantID uuid.UUID, input CreateProductInput) (*product.Product, error) {
	if tenantID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, CodeInvalidBody, "tenant_id is required", nil)
	}
	sku := strings.TrimSpace(input.SKU)
	name := strings.TrimSpace(input.Name)
	if sku == "" || name == "" {
		return nil, newServiceError(http.StatusBadRequest, CodeInvalidBody, "sku and name are required", nil)
	}
	if input.ListPrice.IsNegative() {
		return nil, newServiceError(http.StatusBadRequest, CodeInvalidBody, "list_price must not be negative", nil)
	}

	mutCtx, cancel := context.WithTimeout(ctx, s.mutationTimeout)
	defer cancel()

	created, err := composables.InTxResult(mutCtx, func(txCtx context.Context) (*product.Product, error) {
		entity := product.New(
			sku,
			name,
			product.WithTenantID(tenantID),
			product.WithListPrice(input.ListPrice),
		)
		if err := s.repo.Create(txCtx, entity); err != nil {
			return nil, err
		}
		return entity, nil
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return created, nil
}

// Link attaches a product to a category. Membership feeds the cached subtree
// listings, so the tenant's generation is bumped like any structural change.
func (s *ProductService) Link(ctx context.Context, tenantID, productID, categoryID uuid.UUID) error {
	return s.mutateLink(ctx, tenantID, func(txCtx context.Context) error {
		return s.repo.Link(txCtx, tenantID, productID, categoryID)
	})
}

func (s *ProductService) Unlink(ctx context.Context, tenantID, productID, categoryID uuid.UUID) error {
	return s.mutateLink(ctx, tenantID, func(txCtx context.Context) error {
		return s.repo.Unlink(txCtx, tenantID, productID, categoryID)
	})
}

func (s *ProductService) mutateLink(ctx context.Context, tenantID uuid.UUID, fn func(ctx context.Context) error) error {
	mutCtx, cancel := context.WithTimeout(ctx, s.mutationTimeout)
	defer cancel()

	if err := composables.InTx(mutCtx, fn); err != nil {
		return mapPgError(err)
	}
	s.cache.Invalidate(context.WithoutCancel(ctx), tenantID)
	return nil
}

// ListInSubtree returns every product linked anywhere inside the category's
// subtree, served read-through from the cache. The target category must exist
// under the caller's tenant; the containment query alone cannot distinguish an
// empty subtree from a missing one.
func (s *ProductService) ListInSubtree(ctx context.Context, tenantID, categoryID uuid.UUID) ([]ProductView, error) {
	return cache.GetOrLoad(ctx, s.cache, tenantID, "products", categoryID.String(), func(ctx context.Context) ([]ProductView, error) {
		if _, err := s.categories.GetByID(ctx, tenantID, categoryID); err != nil {
			return nil, mapCategoryLookup(ctx, s.categories, categoryID, err)
		}
		products, err := s.repo.ListInSubtree(ctx, tenantID, categoryID)
		if err != nil {
			return nil, mapPgError(err)
		}

		views := make([]ProductView, 0, len(products))
		for _, p := range products {
			views = append(views, ProductView{
				ID:        p.ID(),
				SKU:       p.SKU(),
				Name:      p.Name(),
				ListPrice: p.ListPrice(),
				IsActive:  p.IsActive(),
			})
		}
		return views, nil
	})
}
