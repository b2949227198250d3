package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShiftReport is the aggregated view of one shift window.
type ShiftReport struct {
	Window      ShiftWindow `json:"window"`
	Aggregation Aggregation `json:"aggregation"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// TopProductName resolves the top product's display name.
func (r ShiftReport) TopProductName() string {
	if r.Aggregation.Totals.TopProductID == "" {
		return ""
	}
	if rollup, ok := r.Aggregation.Rollup(r.Aggregation.Totals.TopProductID); ok {
		return rollup.ProductName
	}
	return ""
}

// ShiftReportDocument is the archived form of a closed shift stored in MongoDB.
type ShiftReportDocument struct {
	Policy     string           `bson:"policy" json:"policy"`
	Shift      Shift            `bson:"shift" json:"shift"`
	ShiftStart time.Time        `bson:"shift_start" json:"shift_start"`
	ShiftEnd   time.Time        `bson:"shift_end" json:"shift_end"`
	FetchStart time.Time        `bson:"fetch_start" json:"fetch_start"`
	FetchEnd   time.Time        `bson:"fetch_end" json:"fetch_end"`
	// Partial is set when the records were fetched over a range that does
	// not span the whole shift.
	Partial    bool             `bson:"partial" json:"partial"`
	Produced   int              `bson:"produced" json:"produced"`
	Sold       int              `bson:"sold" json:"sold"`
	Revenue    string           `bson:"revenue" json:"revenue"`
	Discounts  string           `bson:"discounts" json:"discounts"`
	Leftover   int              `bson:"leftover" json:"leftover"`
	TopProduct string           `bson:"top_product,omitempty" json:"top_product,omitempty"`
	Skipped    int              `bson:"skipped_count" json:"skipped_count"`
	Products   []ArchivedRollup `bson:"products" json:"products"`
	CreatedAt  time.Time        `bson:"created_at" json:"created_at"`
}

// ArchivedRollup is the per-product line of an archived report.
type ArchivedRollup struct {
	ProductID string `bson:"product_id" json:"product_id"`
	Name      string `bson:"name" json:"name"`
	Produced  int    `bson:"produced" json:"produced"`
	Sold      int    `bson:"sold" json:"sold"`
	Revenue   string `bson:"revenue" json:"revenue"`
	Leftover  int    `bson:"leftover" json:"leftover"`
	Available int    `bson:"available" json:"available"`
}

// NewShiftReportDocument flattens a report for archiving. Money is stored as
// decimal strings so no precision is lost in BSON.
func NewShiftReportDocument(r ShiftReport) ShiftReportDocument {
	doc := ShiftReportDocument{
		Policy:     r.Window.Policy,
		Shift:      r.Window.Shift,
		ShiftStart: r.Window.Start,
		ShiftEnd:   r.Window.End,
		FetchStart: r.Window.FetchStart,
		FetchEnd:   r.Window.FetchEnd,
		Partial:    !r.Window.CoversShift(),
		Produced:   r.Aggregation.Totals.Produced,
		Sold:       r.Aggregation.Totals.Sold,
		Revenue:    r.Aggregation.Totals.Revenue.StringFixed(2),
		Discounts:  r.Aggregation.Totals.Discounts.StringFixed(2),
		Leftover:   r.Aggregation.Totals.Leftover,
		TopProduct: r.TopProductName(),
		Skipped:    r.Aggregation.Skipped,
		CreatedAt:  r.GeneratedAt,
	}
	for _, p := range r.Aggregation.Rollups {
		doc.Products = append(doc.Products, ArchivedRollup{
			ProductID: p.ProductID,
			Name:      p.ProductName,
			Produced:  p.Produced,
			Sold:      p.Sold,
			Revenue:   p.Revenue.StringFixed(2),
			Leftover:  p.Leftover,
			Available: p.Available,
		})
	}
	return doc
}

// RevenueDecimal parses the archived revenue back into a decimal.
func (d ShiftReportDocument) RevenueDecimal() decimal.Decimal {
	v, err := decimal.NewFromString(d.Revenue)
	if err != nil {
		return decimal.Zero
	}
	return v
}
