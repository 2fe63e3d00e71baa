package category

import (
	"github.com/google/uuid"

	"github.com/tradecove/catalog/modules/catalog/domain/nestedset"
)

// Structural mutation events. The category service publishes one after every
// committed mutation; the cache coordinator consumes them synchronously so
// invalidation completes before the mutation is acknowledged.

type CreatedEvent struct {
	Result *Category
}

type MovedEvent struct {
	Result      *Category
	OldParentID *uuid.UUID
}

type DeletedEvent struct {
	TenantID   uuid.UUID
	CategoryID uuid.UUID
	Policy     nestedset.DeletePolicy
	RemovedIDs []uuid.UUID
}

func NewCreatedEvent(result *Category) *CreatedEvent {
	return &CreatedEvent{Result: result}
}

func NewMovedEvent(result *Category, oldParentID *uuid.UUID) *MovedEvent {
	return &MovedEvent{Result: result, OldParentID: oldParentID}
}

func NewDeletedEvent(tenantID, categoryID uuid.UUID, policy nestedset.DeletePolicy, removed []uuid.UUID) *DeletedEvent {
	return &DeletedEvent{TenantID: tenantID, CategoryID: categoryID, Policy: policy, RemovedIDs: removed}
}
