package product

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	id        uuid.UUID
	tenantID  uuid.UUID
	sku       string
	name      string
	listPrice decimal.Decimal
	isActive  bool
	createdAt time.Time
	updatedAt time.Time
}

type Option func(*Product)

func WithID(id uuid.UUID) Option {
	return func(p *Product) {
		p.id = id
	}
}

func WithTenantID(tenantID uuid.UUID) Option {
	return func(p *Product) {
		p.tenantID = tenantID
	}
}

func WithListPrice(price decimal.Decimal) Option {
	return func(p *Product) {
		p.listPrice = price
	}
}

func WithIsActive(isActive bool) Option {
	return func(p *Product) {
		p.isActive = isActive
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(p *Product) {
		p.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(p *Product) {
		p.updatedAt = updatedAt
	}
}

func New(sku, name string, opts ...Option) *Product {
	p := &Product{
		id:        uuid.New(),
		sku:       sku,
		name:      name,
		listPrice: decimal.Zero,
		isActive:  true,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Product) ID() uuid.UUID {
	return p.id
}

func (p *Product) TenantID() uuid.UUID {
	return p.tenantID
}

func (p *Product) SKU() string {
	return p.sku
}

func (p *Product) Name() string {
	return p.name
}

func (p *Product) ListPrice() decimal.Decimal {
	return p.listPrice
}

func (p *Product) IsActive() bool {
	return p.isActive
}

func (p *Product) CreatedAt() time.Time {
	return p.createdAt
}

func (p *Product) UpdatedAt() time.Time {
	return p.updatedAt
}

// Repository reads and links products. Effective category membership for
// subtree queries goes through interval containment, not recursive joins.
type Repository interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Link(ctx context.Context, tenantID, productID, categoryID uuid.UUID) error
	Unlink(ctx context.Context, tenantID, productID, categoryID uuid.UUID) error

	// ListInSubtree returns every product linked to any category inside the
	// target category's interval, each product once.
	ListInSubtree(ctx context.Context, tenantID, categoryID uuid.UUID) ([]*Product, error)
}
