package brand

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Brand struct {
	id        uuid.UUID
	tenantID  uuid.UUID
	name      string
	createdAt time.Time
}

type Option func(*Brand)

func WithID(id uuid.UUID) Option {
	return func(b *Brand) {
		b.id = id
	}
}

func WithTenantID(tenantID uuid.UUID) Option {
	return func(b *Brand) {
		b.tenantID = tenantID
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(b *Brand) {
		b.createdAt = createdAt
	}
}

func New(name string, opts ...Option) *Brand {
	b := &Brand{
		id:        uuid.New(),
		name:      name,
		createdAt: time.Now(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Brand) ID() uuid.UUID {
	return b.id
}

func (b *Brand) TenantID() uuid.UUID {
	return b.tenantID
}

func (b *Brand) Name() string {
	return b.name
}

func (b *Brand) CreatedAt() time.Time {
	return b.createdAt
}

type Repository interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Brand, error)
	Create(ctx context.Context, b *Brand) error
	List(ctx context.Context, tenantID uuid.UUID) ([]*Brand, error)
}
