package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/tradecove/catalog/modules/catalog/domain/aggregates/category"
	"github.com/tradecove/catalog/modules/catalog/domain/entities/brand"
	"github.com/tradecove/catalog/modules/catalog/domain/nestedset"
	"github.com/tradecove/catalog/modules/catalog/services"
	"github.com/tradecove/catalog/pkg/composables"
	"github.com/tradecove/catalog/pkg/constants"
)

type CatalogAPIController struct {
	categories *services.CategoryService
	products   *services.ProductService
	brands     *services.BrandService
	apiPrefix  string
}

func NewCatalogAPIController(
	categories *services.CategoryService,
	products *services.ProductService,
	brands *services.BrandService,
) *CatalogAPIController {
	return &CatalogAPIController{
		categories: categories,
		products:   products,
		brands:     brands,
		apiPrefix:  "/catalog/api/v1",
	}
}

func (c *CatalogAPIController) Key() string {
	return c.apiPrefix
}

func (c *CatalogAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/categories", c.CreateCategory).Methods(http.MethodPost)
	api.HandleFunc("/categories/{id}", c.GetCategory).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id}", c.DeleteCategory).Methods(http.MethodDelete)
	api.HandleFunc("/categories/{id}:move", c.MoveCategory).Methods(http.MethodPost)
	api.HandleFunc("/categories/{id}/subtree", c.GetSubtree).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id}/ancestors", c.GetAncestors).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id}/products", c.GetProductsInSubtree).Methods(http.MethodGet)

	api.HandleFunc("/products", c.CreateProduct).Methods(http.MethodPost)
	api.HandleFunc("/products/{id}/categories/{categoryID}", c.LinkProduct).Methods(http.MethodPut)
	api.HandleFunc("/products/{id}/categories/{categoryID}", c.UnlinkProduct).Methods(http.MethodDelete)

	api.HandleFunc("/brands", c.ListBrands).Methods(http.MethodGet)
	api.HandleFunc("/brands", c.CreateBrand).Methods(http.MethodPost)
}

type createCategoryRequest struct {
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	BrandID  *uuid.UUID `json:"brand_id,omitempty"`
}

type moveCategoryRequest struct {
	NewParentID *uuid.UUID `json:"new_parent_id,omitempty"`
}

type categoryResponse struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	BrandID  *uuid.UUID `json:"brand_id,omitempty"`
	NLeft    int        `json:"nleft"`
	NRight   int        `json:"nright"`
}

type deleteCategoryResponse struct {
	RemovedIDs []uuid.UUID `json:"removed_ids"`
}

type createProductRequest struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	ListPrice decimal.Decimal `json:"list_price"`
}

type productResponse struct {
	ID        uuid.UUID       `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	ListPrice decimal.Decimal `json:"list_price"`
	IsActive  bool            `json:"is_active"`
}

type createBrandRequest struct {
	Name string `json:"name"`
}

type brandResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func (c *CatalogAPIController) CreateCategory(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), services.CodeInvalidBody, "invalid request body")
		return
	}

	created, err := c.categories.Create(r.Context(), tenantID, services.CreateCategoryInput{
		Name:     req.Name,
		ParentID: req.ParentID,
		BrandID:  req.BrandID,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(created))
}

func (c *CatalogAPIController) GetCategory(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	found, err := c.categories.GetByID(r.Context(), tenantID, id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(found))
}

func (c *CatalogAPIController) MoveCategory(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req moveCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), services.CodeInvalidBody, "invalid request body")
		return
	}

	moved, err := c.categories.Move(r.Context(), tenantID, id, req.NewParentID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(moved))
}

func (c *CatalogAPIController) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	policy, err := nestedset.ParseDeletePolicy(r.URL.Query().Get("policy"))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), services.CodeInvalidBody, "policy must be CASCADE or PROMOTE")
		return
	}

	removed, err := c.categories.Delete(r.Context(), tenantID, id, policy)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteCategoryResponse{RemovedIDs: removed})
}

func (c *CatalogAPIController) GetSubtree(w http.ResponseWriter, r *http.Request) {
	c.respondNodes(w, r, c.categories.GetSubtree)
}

func (c *CatalogAPIController) GetAncestors(w http.ResponseWriter, r *http.Request) {
	c.respondNodes(w, r, c.categories.GetAncestors)
}

func (c *CatalogAPIController) respondNodes(
	w http.ResponseWriter,
	r *http.Request,
	query func(ctx context.Context, tenantID, id uuid.UUID) ([]services.CategoryNode, error),
) {
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	nodes, err := query(r.Context(), tenantID, id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nodes)
}

func (c *CatalogAPIController) GetProductsInSubtree(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	views, err := c.products.ListInSubtree(r.Context(), tenantID, id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (c *CatalogAPIController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), services.CodeInvalidBody, "invalid request body")
		return
	}

	created, err := c.products.Create(r.Context(), tenantID, services.CreateProductInput{
		SKU:       req.SKU,
		Name:      req.Name,
		ListPrice: req.ListPrice,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, productResponse{
		ID:        created.ID(),
		SKU:       created.SKU(),
		Name:      created.Name(),
		ListPrice: created.ListPrice(),
		IsActive:  created.IsActive(),
	})
}

func (c *CatalogAPIController) LinkProduct(w http.ResponseWriter, r *http.Request) {
	c.mutateLink(w, r, c.products.Link)
}

func (c *CatalogAPIController) UnlinkProduct(w http.ResponseWriter, r *http.Request) {
	c.mutateLink(w, r, c.products.Unlink)
}

func (c *CatalogAPIController) mutateLink(
	w http.ResponseWriter,
	r *http.Request,
	mutate func(ctx context.Context, tenantID, productID, categoryID uuid.UUID) error,
) {
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	productID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	categoryID, ok := pathUUID(w, r, "categoryID")
	if !ok {
		return
	}

	if err := mutate(r.Context(), tenantID, productID, categoryID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CatalogAPIController) ListBrands(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	brands, err := c.brands.List(r.Context(), tenantID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	out := make([]brandResponse, 0, len(brands))
	for _, b := range brands {
		out = append(out, toBrandResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *CatalogAPIController) CreateBrand(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(w, r)
	if !ok {
		return
	}

	var req createBrandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), services.CodeInvalidBody, "invalid request body")
		return
	}

	created, err := c.brands.Create(r.Context(), tenantID, req.Name)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBrandResponse(created))
}

func toCategoryResponse(c *category.Category) categoryResponse {
	return categoryResponse{
		ID:       c.ID(),
		Name:     c.Name(),
		ParentID: c.ParentID(),
		BrandID:  c.BrandID(),
		NLeft:    c.Left(),
		NRight:   c.Right(),
	}
}

func toBrandResponse(b *brand.Brand) brandResponse {
	return brandResponse{ID: b.ID(), Name: b.Name()}
}

func tenantFrom(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	tenantID, err := composables.UseTenantID(r.Context())
	if err != nil {
		writeAPIError(w, http.StatusUnauthorized, requestIDFrom(r), "CATALOG_NO_TENANT", "tenant is required")
		return uuid.Nil, false
	}
	return tenantID, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, requestIDFrom(r), services.CodeInvalidBody, name+" must be a uuid")
		return uuid.Nil, false
	}
	return id, true
}

func requestIDFrom(r *http.Request) string {
	if id, ok := r.Context().Value(constants.RequestIDKey).(string); ok {
		return id
	}
	return ""
}

func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		writeAPIError(w, svcErr.Status, requestIDFrom(r), svcErr.Code, svcErr.Message)
		return
	}
	composables.UseLogger(r.Context()).WithError(err).Error("unhandled service error")
	writeAPIError(w, http.StatusInternalServerError, requestIDFrom(r), services.CodeInternal, "internal error")
}

type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func writeAPIError(w http.ResponseWriter, status int, requestID, code, message string) {
	meta := map[string]string{}
	if requestID != "" {
		meta["request_id"] = requestID
	}
	writeJSON(w, status, apiError{Code: code, Message: message, Meta: meta})
}

func writeJSON[T any](w http.ResponseWriter, status int, payload T) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
