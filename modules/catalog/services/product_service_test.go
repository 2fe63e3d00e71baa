package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecove/catalog/modules/catalog/infrastructure/cache"
	"github.com/tradecove/catalog/modules/catalog/services"
	"github.com/tradecove/catalog/modules/catalog/testkit"
	"github.com/tradecove/catalog/pkg/composables"
	"github.com/tradecove/catalog/pkg/eventbus"
)

func setupProductService(t *testing.T) (context.Context, *services.CategoryService, *services.ProductService) {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	coordinator := cache.NewCoordinator(cache.NewMemoryStore(), time.Minute, log)
	categoryRepo := testkit.NewMemoryCategoryRepository()
	categorySvc := services.NewCategoryService(
		categoryRepo,
		eventbus.NewEventPublisher(log),
		coordinator,
		5*time.Second,
	)
	productSvc := services.NewProductService(
		testkit.NewMemoryProductRepository(categoryRepo),
		categoryRepo,
		coordinator,
		5*time.Second,
	)
	return composables.WithTx(context.Background(), testkit.StubTx{}), categorySvc, productSvc
}

func TestProductService_ListInSubtreeMissingCategory(t *testing.T) {
	ctx, _, svc := setupProductService(t)
	tenantID := uuid.New()

	_, err := svc.ListInSubtree(ctx, tenantID, uuid.New())
	requireServiceCode(t, err, services.CodeNotFound)
}

func TestProductService_ListInSubtreeCrossTenantCategory(t *testing.T) {
	ctx, categories, svc := setupProductService(t)
	tenantA := uuid.New()
	tenantB := uuid.New()

	foreign, err := categories.Create(ctx, tenantA, services.CreateCategoryInput{Name: "Electronics"})
	require.NoError(t, err)

	_, err = svc.ListInSubtree(ctx, tenantB, foreign.ID())
	requireServiceCode(t, err, services.CodeCrossTenant)
}

func TestProductService_LinkAndListInSubtree(t *testing.T) {
	ctx, categories, svc := setupProductService(t)
	tenantID := uuid.New()

	root, err := categories.Create(ctx, tenantID, services.CreateCategoryInput{Name: "Electronics"})
	require.NoError(t, err)
	rootID := root.ID()
	child, err := categories.Create(ctx, tenantID, services.CreateCategoryInput{Name: "Laptops", ParentID: &rootID})
	require.NoError(t, err)

	laptop, err := svc.Create(ctx, tenantID, services.CreateProductInput{
		SKU:       "LAP-001",
		Name:      "Workstation",
		ListPrice: decimal.NewFromInt(1999),
	})
	require.NoError(t, err)
	charger, err := svc.Create(ctx, tenantID, services.CreateProductInput{
		SKU:       "CHG-001",
		Name:      "Charger",
		ListPrice: decimal.NewFromInt(49),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Link(ctx, tenantID, laptop.ID(), child.ID()))
	require.NoError(t, svc.Link(ctx, tenantID, charger.ID(), rootID))
	// a second link inside the same subtree must not duplicate the product
	require.NoError(t, svc.Link(ctx, tenantID, laptop.ID(), rootID))

	views, err := svc.ListInSubtree(ctx, tenantID, rootID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "CHG-001", views[0].SKU)
	assert.Equal(t, "LAP-001", views[1].SKU)

	views, err = svc.ListInSubtree(ctx, tenantID, child.ID())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "LAP-001", views[0].SKU)
	assert.True(t, views[0].ListPrice.Equal(decimal.NewFromInt(1999)))
}

func TestProductService_UnlinkInvalidatesCachedListing(t *testing.T) {
	ctx, categories, svc := setupProductService(t)
	tenantID := uuid.New()

	root, err := categories.Create(ctx, tenantID, services.CreateCategoryInput{Name: "Electronics"})
	require.NoError(t, err)
	rootID := root.ID()

	p, err := svc.Create(ctx, tenantID, services.CreateProductInput{SKU: "SKU-1", Name: "Widget"})
	require.NoError(t, err)
	require.NoError(t, svc.Link(ctx, tenantID, p.ID(), rootID))

	// warm the cache
	views, err := svc.ListInSubtree(ctx, tenantID, rootID)
	require.NoError(t, err)
	require.Len(t, views, 1)

	require.NoError(t, svc.Unlink(ctx, tenantID, p.ID(), rootID))

	views, err = svc.ListInSubtree(ctx, tenantID, rootID)
	require.NoError(t, err)
	assert.Empty(t, views, "a read after the unlink's acknowledgement sees the new membership")
}

func TestProductService_CreateValidation(t *testing.T) {
	ctx, _, svc := setupProductService(t)
	tenantID := uuid.New()

	_, err := svc.Create(ctx, tenantID, services.CreateProductInput{SKU: " ", Name: "Widget"})
	requireServiceCode(t, err, services.CodeInvalidBody)

	_, err = svc.Create(ctx, tenantID, services.CreateProductInput{
		SKU:       "SKU-1",
		Name:      "Widget",
		ListPrice: decimal.NewFromInt(-1),
	})
	requireServiceCode(t, err, services.CodeInvalidBody)
}
