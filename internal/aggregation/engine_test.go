package aggregation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/bakery/internal/domain/models"
)

var (
	baguette = models.Product{ID: "p-baguette", Name: "Baguette", ListPrice: decimal.NewFromInt(100), IsActive: true}
	brioche  = models.Product{ID: "p-brioche", Name: "Brioche", ListPrice: decimal.NewFromInt(250), IsActive: true}
	pretzel  = models.Product{ID: "p-pretzel", Name: "Pretzel", ListPrice: decimal.NewFromInt(80), IsActive: false}
)

func money(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func intPtr(v int) *int { return &v }

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestAggregate_ReturnedSaleExcluded(t *testing.T) {
	production := []models.ProductionRecord{{ProductID: baguette.ID, Quantity: 10}}
	sales := []models.SalesRecord{
		{ProductID: baguette.ID, Quantity: 4, UnitPrice: money("100"), Discount: money("10")},
		{ProductID: baguette.ID, Quantity: 2, Returned: true},
	}

	got := Aggregate(production, sales, []models.Product{baguette})

	rollup, ok := got.Rollup(baguette.ID)
	require.True(t, ok)
	assert.Equal(t, 10, rollup.Produced)
	assert.Equal(t, 4, rollup.Sold)
	assert.Equal(t, 6, rollup.Available)
	assertMoney(t, "390", rollup.Revenue)
	assertMoney(t, "10", rollup.DiscountTotal)
	assert.Zero(t, got.Skipped)
}

func TestAggregate_EmptyInputsYieldZeroRollups(t *testing.T) {
	got := Aggregate(nil, nil, []models.Product{baguette, brioche})

	require.Len(t, got.Rollups, 2)
	assert.Equal(t, baguette.ID, got.Rollups[0].ProductID)
	assert.Equal(t, brioche.ID, got.Rollups[1].ProductID)
	for _, r := range got.Rollups {
		assert.Zero(t, r.Produced)
		assert.Zero(t, r.Sold)
		assert.Zero(t, r.Available)
		assertMoney(t, "0", r.Revenue)
	}
	assert.Empty(t, got.Totals.TopProductID)
}

func TestAggregate_MalformedRecordsAreCounted(t *testing.T) {
	production := []models.ProductionRecord{
		{ProductID: baguette.ID, Quantity: 5},
		{ProductID: "p-unknown", Quantity: 3},
		{ProductID: pretzel.ID, Quantity: 3},
		{ProductID: baguette.ID, Quantity: -2},
	}
	sales := []models.SalesRecord{
		{ProductID: baguette.ID, Quantity: -1},
		{ProductID: baguette.ID, Quantity: 1, Leftover: intPtr(-4)},
		{ProductID: baguette.ID, Quantity: 1, UnitPrice: money("-5")},
		{ProductID: baguette.ID, Quantity: 1, Discount: money("-5")},
		{ProductID: baguette.ID, Quantity: 2},
	}

	got := Aggregate(production, sales, []models.Product{baguette, pretzel})

	assert.Equal(t, 7, got.Skipped)
	require.Len(t, got.Rollups, 1, "inactive products are not listed")
	assert.Equal(t, 5, got.Rollups[0].Produced)
	assert.Equal(t, 2, got.Rollups[0].Sold)
	assertMoney(t, "200", got.Rollups[0].Revenue)
}

func TestAggregate_SingleNegativeSaleSkippedOnce(t *testing.T) {
	sales := []models.SalesRecord{{ProductID: baguette.ID, Quantity: -1}}

	got := Aggregate(nil, sales, []models.Product{baguette})

	assert.Equal(t, 1, got.Skipped)
	assert.Zero(t, got.Rollups[0].Sold)
}

func TestAggregate_PricingRules(t *testing.T) {
	sales := []models.SalesRecord{
		{ProductID: brioche.ID, Quantity: 2},
		{ProductID: brioche.ID, Quantity: 1, UnitPrice: money("200"), Discount: money("500")},
		{ProductID: brioche.ID, Quantity: 1, Discount: money("50")},
	}

	got := Aggregate(nil, sales, []models.Product{brioche})

	r := got.Rollups[0]
	assert.Equal(t, 4, r.Sold)
	// 2*250 + max(0, 200-500) + (250-50)
	assertMoney(t, "700", r.Revenue)
	// the 500 discount only removed the 200 line amount
	assertMoney(t, "250", r.DiscountTotal)
	assert.Zero(t, r.Available, "available is clamped at zero")
}

func TestAggregate_LeftoverAndTotals(t *testing.T) {
	production := []models.ProductionRecord{
		{ProductID: baguette.ID, Quantity: 30},
		{ProductID: baguette.ID, Quantity: 10},
		{ProductID: brioche.ID, Quantity: 12},
	}
	sales := []models.SalesRecord{
		{ProductID: baguette.ID, Quantity: 25, Leftover: intPtr(3)},
		{ProductID: brioche.ID, Quantity: 10, Leftover: intPtr(2)},
		{ProductID: brioche.ID, Quantity: 1, Returned: true, Leftover: intPtr(1)},
	}

	got := Aggregate(production, sales, []models.Product{baguette, brioche})

	assert.Equal(t, 52, got.Totals.Produced)
	assert.Equal(t, 35, got.Totals.Sold)
	assert.Equal(t, 6, got.Totals.Leftover)
	assertMoney(t, "5000", got.Totals.Revenue)
	assertMoney(t, "0", got.Totals.Discounts)
	assert.Equal(t, baguette.ID, got.Totals.TopProductID)

	brio, _ := got.Rollup(brioche.ID)
	assert.Equal(t, 2, brio.Available)
	assert.Equal(t, 3, brio.Leftover)
}

func TestAggregate_TopProductTieUsesCatalogOrder(t *testing.T) {
	sales := []models.SalesRecord{
		{ProductID: brioche.ID, Quantity: 5},
		{ProductID: baguette.ID, Quantity: 5},
	}

	got := Aggregate(nil, sales, []models.Product{brioche, baguette})
	assert.Equal(t, brioche.ID, got.Totals.TopProductID)

	got = Aggregate(nil, sales, []models.Product{baguette, brioche})
	assert.Equal(t, baguette.ID, got.Totals.TopProductID)
}

func TestAggregate_IsDeterministic(t *testing.T) {
	production := []models.ProductionRecord{{ProductID: baguette.ID, Quantity: 8}}
	sales := []models.SalesRecord{{ProductID: baguette.ID, Quantity: 3, Discount: money("12.50")}}
	catalog := []models.Product{baguette, brioche}

	assert.Equal(t, Aggregate(production, sales, catalog), Aggregate(production, sales, catalog))
}

func TestLineRevenue(t *testing.T) {
	assertMoney(t, "287.50", LineRevenue(3, decimal.NewFromInt(100), decimal.RequireFromString("12.50")))
	assertMoney(t, "0", LineRevenue(1, decimal.NewFromInt(10), decimal.NewFromInt(11)))
}

func TestAggregate_DiscountCappedAtLineAmount(t *testing.T) {
	sales := []models.SalesRecord{
		{ProductID: baguette.ID, Quantity: 1, UnitPrice: money("5"), Discount: money("10")},
		{ProductID: baguette.ID, Quantity: 2, UnitPrice: money("100"), Discount: money("20")},
	}

	got := Aggregate(nil, sales, []models.Product{baguette})

	assertMoney(t, "180", got.Totals.Revenue)
	assertMoney(t, "25", got.Totals.Discounts)
	assertMoney(t, "205", got.Totals.Revenue.Add(got.Totals.Discounts))
}

func TestAppliedDiscount(t *testing.T) {
	assertMoney(t, "12.50", AppliedDiscount(3, decimal.NewFromInt(100), decimal.RequireFromString("12.50")))
	assertMoney(t, "10", AppliedDiscount(1, decimal.NewFromInt(10), decimal.NewFromInt(11)))
	assertMoney(t, "0", AppliedDiscount(0, decimal.NewFromInt(10), decimal.NewFromInt(3)))
}
