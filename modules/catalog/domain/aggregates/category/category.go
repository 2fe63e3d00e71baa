package category

import (
	"time"

	"github.com/google/uuid"
)

// Category is one node of a tenant's catalog tree. Its position is encoded
// twice: ParentID for the logical edge, and the [Left, Right] nested-set
// interval for range queries. The hierarchy store keeps both in sync.
type Category struct {
	id        uuid.UUID
	tenantID  uuid.UUID
	name      string
	parentID  *uuid.UUID
	brandID   *uuid.UUID
	left      int
	right     int
	createdAt time.Time
	updatedAt time.Time
}

type Option func(*Category)

func WithID(id uuid.UUID) Option {
	return func(c *Category) {
		c.id = id
	}
}

func WithTenantID(tenantID uuid.UUID) Option {
	return func(c *Category) {
		c.tenantID = tenantID
	}
}

func WithParentID(parentID *uuid.UUID) Option {
	return func(c *Category) {
		c.parentID = parentID
	}
}

func WithBrandID(brandID *uuid.UUID) Option {
	return func(c *Category) {
		c.brandID = brandID
	}
}

func WithBounds(left, right int) Option {
	return func(c *Category) {
		c.left = left
		c.right = right
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(c *Category) {
		c.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(c *Category) {
		c.updatedAt = updatedAt
	}
}

func New(name string, opts ...Option) *Category {
	c := &Category{
		id:        uuid.New(),
		name:      name,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Category) ID() uuid.UUID {
	return c.id
}

func (c *Category) TenantID() uuid.UUID {
	return c.tenantID
}

func (c *Category) Name() string {
	return c.name
}

func (c *Category) ParentID() *uuid.UUID {
	return c.parentID
}

func (c *Category) BrandID() *uuid.UUID {
	return c.brandID
}

func (c *Category) Left() int {
	return c.left
}

func (c *Category) Right() int {
	return c.right
}

func (c *Category) CreatedAt() time.Time {
	return c.createdAt
}

func (c *Category) UpdatedAt() time.Time {
	return c.updatedAt
}

// IsLeaf reports whether the category has no descendants.
func (c *Category) IsLeaf() bool {
	return c.right-c.left == 1
}

// SubtreeSize is the number of nodes in the subtree rooted here, itself
// included.
func (c *Category) SubtreeSize() int {
	return (c.right - c.left + 1) / 2
}

// Contains reports whether other lies strictly inside this category's
// interval, i.e. is a descendant.
func (c *Category) Contains(other *Category) bool {
	return c.left < other.left && other.right < c.right
}

func (c *Category) SetParentID(parentID *uuid.UUID) {
	c.parentID = parentID
	c.updatedAt = time.Now()
}

func (c *Category) SetBounds(left, right int) {
	c.left = left
	c.right = right
	c.updatedAt = time.Now()
}
