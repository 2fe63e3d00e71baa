package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tradecove/catalog/modules/catalog/domain/entities/brand"
	"github.com/tradecove/catalog/pkg/composables"
)

type BrandService struct {
	repo brand.Repository
}

func NewBrandService(repo brand.Repository) *BrandService {
	return &BrandService{repo: repo}
}

func (s *BrandService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*brand.Brand, error) {
	b, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, mapPgError(err)
	}
	return b, nil
}

func (s *BrandService) List(ctx context.Context, tenantID uuid.UUID) ([]*brand.Brand, error) {
	return s.repo.List(ctx, tenantID)
}

func (s *BrandService) Create(ctx context.Context, tenantID uuid.UUID, name string) (*brand.Brand, error) {
	if tenantID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, CodeInvalidBody, "tenant_id is required", nil)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newServiceError(http.StatusBadRequest, CodeInvalidBody, "name is required", nil)
	}

	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (*brand.Brand, error) {
		entity := brand.New(name, brand.WithTenantID(tenantID))
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
