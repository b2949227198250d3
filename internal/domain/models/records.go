package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry (one bread type).
type Product struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	ListPrice decimal.Decimal `db:"price" json:"list_price"`
	IsActive  bool            `db:"is_active" json:"is_active"`
}

// ProductionRecord captures a batch produced during a shift.
type ProductionRecord struct {
	ID         string    `db:"id" json:"id"`
	ProductID  string    `db:"bread_id" json:"product_id"`
	Quantity   int       `db:"quantity" json:"quantity"`
	Shift      Shift     `db:"shift" json:"shift"`
	RecordedBy string    `db:"recorded_by" json:"recorded_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// SalesRecord captures one sales line. A nil UnitPrice means the product's
// list price applies; a nil Discount or Leftover counts as zero.
type SalesRecord struct {
	ID         string           `db:"id" json:"id"`
	ProductID  string           `db:"bread_id" json:"product_id"`
	Quantity   int              `db:"quantity" json:"quantity"`
	UnitPrice  *decimal.Decimal `db:"unit_price" json:"unit_price,omitempty"`
	Discount   *decimal.Decimal `db:"discount" json:"discount,omitempty"`
	Returned   bool             `db:"returned" json:"returned"`
	Leftover   *int             `db:"leftover" json:"leftover,omitempty"`
	Shift      Shift            `db:"shift" json:"shift"`
	RecordedBy string           `db:"recorded_by" json:"recorded_by"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
}

// RecordFilter selects records of one shift created inside [From, To).
type RecordFilter struct {
	Shift Shift
	From  time.Time
	To    time.Time
}

// FilterFor builds the record filter matching a window's fetch range.
func FilterFor(w ShiftWindow) RecordFilter {
	return RecordFilter{Shift: w.Shift, From: w.FetchStart, To: w.FetchEnd}
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
