package models

import "github.com/shopspring/decimal"

// ProductRollup aggregates one product's activity for a shift.
type ProductRollup struct {
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Produced      int             `json:"produced"`
	Sold          int             `json:"sold"`
	Revenue       decimal.Decimal `json:"revenue"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	Leftover      int             `json:"leftover"`
	Available     int             `json:"available"`
}

// ShiftTotals sums the rollups of one shift.
type ShiftTotals struct {
	Produced     int             `json:"produced"`
	Sold         int             `json:"sold"`
	Revenue      decimal.Decimal `json:"revenue"`
	Discounts    decimal.Decimal `json:"discounts"`
	Leftover     int             `json:"leftover"`
	TopProductID string          `json:"top_product_id,omitempty"`
}

// Aggregation is the result of reducing a shift's records.
type Aggregation struct {
	Rollups []ProductRollup `json:"rollups"`
	Totals  ShiftTotals     `json:"totals"`
	Skipped int             `json:"skipped_count"`
}

// Rollup returns the rollup for productID, if present.
func (a Aggregation) Rollup(productID string) (ProductRollup, bool) {
	for _, r := range a.Rollups {
		if r.ProductID == productID {
			return r, true
		}
	}
	return ProductRollup{}, false
}
