package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// mapPgError is the single place database failures become API errors. The
// unique constraints double as a backstop behind the in-transaction
// pre-checks: a concurrent writer that slips past the pre-check still
// surfaces as the same code the pre-check would have produced.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		recordWriteConflict("timeout")
		return newServiceError(http.StatusServiceUnavailable, CodeTimeout, "operation timed out", err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return newServiceError(http.StatusNotFound, CodeNotFound, "not found", err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		recordWriteConflict("unique")
		switch pgErr.ConstraintName {
		case "categories_tenant_id_name_key":
			return newServiceError(http.StatusConflict, CodeDuplicateName, "category name already exists for tenant", err)
		case "products_tenant_id_sku_key":
			return newServiceError(http.StatusConflict, CodeDuplicateSKU, "product sku already exists for tenant", err)
		default:
			return newServiceError(http.StatusConflict, CodeConflict, "unique constraint violated", err)
		}
	case "23503": // foreign_key_violation
		recordWriteConflict("foreign_key")
		return newServiceError(http.StatusUnprocessableEntity, CodeNotFound, "referenced row not found", err)
	case "55P03": // lock_not_available
		recordWriteConflict("lock")
		return newServiceError(http.StatusConflict, CodeConflict, "tenant is being modified, retry", err)
	case "57014": // query_canceled, statement hit the mutation deadline
		recordWriteConflict("timeout")
		return newServiceError(http.StatusServiceUnavailable, CodeTimeout, "operation timed out", err)
	default:
		return newServiceError(http.StatusInternalServerError, CodeInternal, fmt.Sprintf("database error (%s)", pgErr.Code), err)
	}
}
