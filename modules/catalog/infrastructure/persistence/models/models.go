package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        string
	TenantID  string
	Name      string
	ParentID  sql.NullString
	BrandID   sql.NullString
	NLeft     int
	NRight    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Brand struct {
	ID        string
	TenantID  string
	Name      string
	CreatedAt time.Time
}

type Product struct {
	ID        string
	TenantID  string
	SKU       string
	Name      string
	ListPrice decimal.Decimal
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
