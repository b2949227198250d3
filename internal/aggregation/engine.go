// Package aggregation reduces a shift's production and sales records into
// per-product rollups and shift totals.
package aggregation

import (
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/bakery/internal/domain/models"
)

// Aggregate builds one rollup per active catalog product, in catalog order,
// from records already narrowed to a single shift window. Records that fail
// validation or reference a product outside the active catalog are skipped
// and counted; they never abort the aggregation.
func Aggregate(production []models.ProductionRecord, sales []models.SalesRecord, products []models.Product) models.Aggregation {
	result := models.Aggregation{
		Rollups: make([]models.ProductRollup, 0, len(products)),
		Totals: models.ShiftTotals{
			Revenue:   decimal.Zero,
			Discounts: decimal.Zero,
		},
	}

	index := make(map[string]int, len(products))
	prices := make(map[string]decimal.Decimal, len(products))
	for _, p := range products {
		if !p.IsActive {
			continue
		}
		if _, dup := index[p.ID]; dup {
			continue
		}
		index[p.ID] = len(result.Rollups)
		prices[p.ID] = p.ListPrice
		result.Rollups = append(result.Rollups, models.ProductRollup{
			ProductID:     p.ID,
			ProductName:   p.Name,
			Revenue:       decimal.Zero,
			DiscountTotal: decimal.Zero,
		})
	}

	for _, rec := range production {
		i, ok := index[rec.ProductID]
		if !ok || rec.Quantity < 0 {
			result.Skipped++
			continue
		}
		result.Rollups[i].Produced += rec.Quantity
	}

	for _, rec := range sales {
		i, ok := index[rec.ProductID]
		if !ok || !validSale(rec) {
			result.Skipped++
			continue
		}

		rollup := &result.Rollups[i]
		if rec.Leftover != nil {
			rollup.Leftover += *rec.Leftover
		}
		if rec.Returned {
			continue
		}

		price := prices[rec.ProductID]
		if rec.UnitPrice != nil {
			price = *rec.UnitPrice
		}
		discount := decimal.Zero
		if rec.Discount != nil {
			discount = *rec.Discount
		}

		rollup.Sold += rec.Quantity
		rollup.DiscountTotal = rollup.DiscountTotal.Add(AppliedDiscount(rec.Quantity, price, discount))
		rollup.Revenue = rollup.Revenue.Add(LineRevenue(rec.Quantity, price, discount))
	}

	topSold := 0
	for i := range result.Rollups {
		r := &result.Rollups[i]
		r.Available = r.Produced - r.Sold
		if r.Available < 0 {
			r.Available = 0
		}

		t := &result.Totals
		t.Produced += r.Produced
		t.Sold += r.Sold
		t.Leftover += r.Leftover
		t.Revenue = t.Revenue.Add(r.Revenue)
		t.Discounts = t.Discounts.Add(r.DiscountTotal)

		// strict comparison keeps the earliest catalog entry on ties
		if r.Sold > topSold {
			topSold = r.Sold
			t.TopProductID = r.ProductID
		}
	}

	return result
}

// LineRevenue is quantity*price-discount, never below zero.
func LineRevenue(quantity int, price, discount decimal.Decimal) decimal.Decimal {
	line := price.Mul(decimal.NewFromInt(int64(quantity))).Sub(discount)
	if line.IsNegative() {
		return decimal.Zero
	}
	return line
}

// AppliedDiscount is the part of discount that LineRevenue actually removed:
// discount capped at the gross line amount. Revenue plus applied discounts
// always equals gross sales.
func AppliedDiscount(quantity int, price, discount decimal.Decimal) decimal.Decimal {
	return decimal.Min(discount, price.Mul(decimal.NewFromInt(int64(quantity))))
}

func validSale(rec models.SalesRecord) bool {
	switch {
	case rec.Quantity < 0:
		return false
	case rec.Leftover != nil && *rec.Leftover < 0:
		return false
	case rec.UnitPrice != nil && rec.UnitPrice.IsNegative():
		return false
	case rec.Discount != nil && rec.Discount.IsNegative():
		return false
	}
	return true
}
