package services

import (
	"fmt"

	"github.com/tradecove/catalog/pkg/metrics"
)

const (
	CodeDuplicateName = "CATALOG_DUPLICATE_NAME"
	CodeDuplicateSKU  = "CATALOG_DUPLICATE_SKU"
	CodeCycle         = "CATALOG_CYCLE"
	CodeNotEmpty      = "CATALOG_NOT_EMPTY"
	CodeNotFound      = "CATALOG_NOT_FOUND"
	CodeCrossTenant   = "CATALOG_CROSS_TENANT"
	CodeTimeout       = "CATALOG_TIMEOUT"
	CodeConflict      = "CATALOG_CONFLICT"
	CodeInvalidBody   = "CATALOG_INVALID_BODY"
	CodeInternal      = "CATALOG_INTERNAL"
)

type ServiceError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}

func recordWriteConflict(reason string) {
	metrics.WriteConflicts.WithLabelValues(reason).Inc()
}
