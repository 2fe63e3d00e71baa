package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tradecove/catalog/pkg/constants"
)

var ErrNoTenant = errors.New("no tenant found in context")

func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.TenantIDKey, tenantID)
}

func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	v := ctx.Value(constants.TenantIDKey)
	if v == nil {
		return uuid.Nil, ErrNoTenant
	}
	tenantID, ok := v.(uuid.UUID)
	if !ok || tenantID == uuid.Nil {
		return uuid.Nil, ErrNoTenant
	}
	return tenantID, nil
}
