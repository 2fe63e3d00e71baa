package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/tradecove/catalog/modules/core/services"
	"github.com/tradecove/catalog/pkg/composables"
)

// RequireTenant resolves the caller's tenant from the X-Tenant-ID header,
// falling back to the request host for domain-mapped tenants, and binds it
// into the context. Handlers never see a request without a tenant.
func RequireTenant(tenants *services.TenantService) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, ok := resolveTenant(r, tenants)
			if !ok {
				writeTenantError(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(composables.WithTenantID(r.Context(), tenantID)))
		})
	}
}

func resolveTenant(r *http.Request, tenants *services.TenantService) (uuid.UUID, bool) {
	if header := r.Header.Get("X-Tenant-ID"); header != "" {
		id, err := uuid.Parse(header)
		if err != nil {
			return uuid.Nil, false
		}
		if _, err := tenants.GetByID(r.Context(), id); err != nil {
			return uuid.Nil, false
		}
		return id, true
	}

	host := r.Host
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	t, err := tenants.GetByDomain(r.Context(), host)
	if err != nil {
		return uuid.Nil, false
	}
	return t.ID(), true
}

func writeTenantError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "CATALOG_NO_TENANT",
		"message": "unknown or missing tenant",
	})
}
