package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecove/catalog/modules/catalog/infrastructure/cache"
	"github.com/tradecove/catalog/modules/catalog/presentation/controllers"
	"github.com/tradecove/catalog/modules/catalog/services"
	"github.com/tradecove/catalog/modules/catalog/testkit"
	"github.com/tradecove/catalog/pkg/composables"
	"github.com/tradecove/catalog/pkg/eventbus"
)

func setupAPI(t *testing.T) (*mux.Router, uuid.UUID) {
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
	brandSvc := services.NewBrandService(nil)

	tenantID := uuid.New()
	router := mux.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := composables.WithTx(r.Context(), testkit.StubTx{})
			ctx = composables.WithTenantID(ctx, tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	controllers.NewCatalogAPIController(categorySvc, productSvc, brandSvc).Register(router)
	return router, tenantID
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type categoryPayload struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_id"`
	NLeft    int        `json:"nleft"`
	NRight   int        `json:"nright"`
}

func createCategory(t *testing.T, router *mux.Router, name string, parentID *uuid.UUID) categoryPayload {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/catalog/api/v1/categories", map[string]any{
		"name":      name,
		"parent_id": parentID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out categoryPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCatalogAPI_CreateAndReadSubtree(t *testing.T) {
	router, _ := setupAPI(t)

	electronics := createCategory(t, router, "Electronics", nil)
	createCategory(t, router, "Laptops", &electronics.ID)
	createCategory(t, router, "Phones", &electronics.ID)

	rec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/catalog/api/v1/categories/%s/subtree", electronics.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var nodes []categoryPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nodes))
	require.Len(t, nodes, 3)
	assert.Equal(t, "Electronics", nodes[0].Name)
	assert.Equal(t, 1, nodes[0].NLeft)
	assert.Equal(t, 6, nodes[0].NRight)
}

func TestCatalogAPI_DeleteNonLeafNeedsPolicy(t *testing.T) {
	router, _ := setupAPI(t)

	root := createCategory(t, router, "Root", nil)
	createCategory(t, router, "Child", &root.ID)

	rec := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/catalog/api/v1/categories/%s", root.ID), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), services.CodeNotEmpty)

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/catalog/api/v1/categories/%s?policy=CASCADE", root.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		RemovedIDs []uuid.UUID `json:"removed_ids"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.RemovedIDs, 2)
}

func TestCatalogAPI_MoveCycleRejected(t *testing.T) {
	router, _ := setupAPI(t)

	root := createCategory(t, router, "Root", nil)
	child := createCategory(t, router, "Child", &root.ID)

	rec := doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/catalog/api/v1/categories/%s:move", root.ID),
		map[string]any{"new_parent_id": child.ID})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), services.CodeCycle)
}

func TestCatalogAPI_BadRequests(t *testing.T) {
	router, _ := setupAPI(t)

	rec := doJSON(t, router, http.MethodGet, "/catalog/api/v1/categories/not-a-uuid/subtree", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/catalog/api/v1/categories", map[string]any{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	root := createCategory(t, router, "Root", nil)
	rec = doJSON(t, router, http.MethodDelete,
		fmt.Sprintf("/catalog/api/v1/categories/%s?policy=BOGUS", root.ID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogAPI_ProductsInSubtree(t *testing.T) {
	router, _ := setupAPI(t)

	root := createCategory(t, router, "Electronics", nil)
	child := createCategory(t, router, "Laptops", &root.ID)

	rec := doJSON(t, router, http.MethodPost, "/catalog/api/v1/products", map[string]any{
		"sku":        "LAP-001",
		"name":       "Workstation",
		"list_price": "1999.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, router, http.MethodPut,
		fmt.Sprintf("/catalog/api/v1/products/%s/categories/%s", created.ID, child.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet,
		fmt.Sprintf("/catalog/api/v1/categories/%s/products", root.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var views []struct {
		SKU string `json:"sku"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "LAP-001", views[0].SKU)

	// listing under a category that does not exist is an error, not an empty list
	rec = doJSON(t, router, http.MethodGet,
		fmt.Sprintf("/catalog/api/v1/categories/%s/products", uuid.New()), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), services.CodeNotFound)
}

func TestCatalogAPI_NotFound(t *testing.T) {
	router, _ := setupAPI(t)

	rec := doJSON(t, router, http.MethodGet,
		fmt.Sprintf("/catalog/api/v1/categories/%s/subtree", uuid.New()), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), services.CodeNotFound)
}
