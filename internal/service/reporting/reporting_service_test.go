package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/shift"
)

type mockRecords struct {
	products   []models.Product
	production []models.ProductionRecord
	sales      []models.SalesRecord
	filters    []models.RecordFilter
	err        error
}

func (m *mockRecords) ListProducts(context.Context, bool) ([]models.Product, error) {
	return m.products, m.err
}

func (m *mockRecords) ListProduction(_ context.Context, f models.RecordFilter) ([]models.ProductionRecord, error) {
	m.filters = append(m.filters, f)
	return m.production, m.err
}

func (m *mockRecords) ListSales(_ context.Context, f models.RecordFilter) ([]models.SalesRecord, error) {
	m.filters = append(m.filters, f)
	return m.sales, m.err
}

type mockArchive struct {
	saved   []models.ShiftReportDocument
	policy  string
	limit   int64
	saveErr error
}

func (m *mockArchive) SaveShiftReport(_ context.Context, doc models.ShiftReportDocument) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, doc)
	return nil
}

func (m *mockArchive) RecentShiftReports(_ context.Context, policy string, limit int64) ([]models.ShiftReportDocument, error) {
	m.policy = policy
	m.limit = limit
	return m.saved, nil
}

type mockSink struct {
	rows int
	err  error
}

func (m *mockSink) AppendShiftReport(context.Context, models.ShiftReportDocument) error {
	m.rows++
	return m.err
}

func fixtures() *mockRecords {
	return &mockRecords{
		products: []models.Product{
			{ID: "p1", Name: "Baguette", ListPrice: decimal.NewFromInt(100), IsActive: true},
			{ID: "p2", Name: "Brioche", ListPrice: decimal.NewFromInt(250), IsActive: true},
		},
		production: []models.ProductionRecord{
			{ID: "a", ProductID: "p1", Quantity: 40, Shift: models.ShiftMorning},
			{ID: "b", ProductID: "p2", Quantity: 12, Shift: models.ShiftMorning},
		},
		sales: []models.SalesRecord{
			{ID: "c", ProductID: "p1", Quantity: 25, Shift: models.ShiftMorning},
			{ID: "d", ProductID: "p2", Quantity: -1, Shift: models.ShiftMorning},
		},
	}
}

func newTestService(t *testing.T, records RecordSource, archive *mockArchive, sink *mockSink) *Service {
	t.Helper()
	resolver, err := shift.NewResolver(shift.DashboardPolicy(time.UTC))
	require.NoError(t, err)

	svc := NewService(records, resolver, nil, nil, nil)
	if archive != nil {
		svc.archive = archive
	}
	if sink != nil {
		svc.sink = sink
	}
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC) }
	return svc
}

func TestCurrentReportUsesWindowFilter(t *testing.T) {
	records := fixtures()
	svc := newTestService(t, records, nil, nil)

	report, err := svc.CurrentReport(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.ShiftMorning, report.Window.Shift)
	require.Len(t, records.filters, 2)
	want := models.RecordFilter{
		Shift: models.ShiftMorning,
		From:  time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		To:    time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, want, records.filters[0])
	assert.Equal(t, want, records.filters[1])

	totals := report.Aggregation.Totals
	assert.Equal(t, 52, totals.Produced)
	assert.Equal(t, 25, totals.Sold)
	assert.True(t, totals.Revenue.Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, 1, report.Aggregation.Skipped)
	assert.Equal(t, "Baguette", report.TopProductName())
}

func TestReportPropagatesSourceErrors(t *testing.T) {
	svc := newTestService(t, &mockRecords{err: errors.New("db down")}, nil, nil)

	_, err := svc.CurrentReport(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestCloseShiftArchivesAndMirrors(t *testing.T) {
	archive := &mockArchive{}
	sink := &mockSink{err: errors.New("quota exceeded")}
	svc := newTestService(t, fixtures(), archive, sink)

	window := svc.CurrentWindow(time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC))
	report, err := svc.CloseShift(context.Background(), window)
	require.NoError(t, err)

	require.Len(t, archive.saved, 1)
	doc := archive.saved[0]
	assert.Equal(t, "dashboard", doc.Policy)
	assert.Equal(t, window.Start, doc.ShiftStart)
	assert.Equal(t, "2500.00", doc.Revenue)
	assert.Equal(t, "Baguette", doc.TopProduct)
	assert.Len(t, doc.Products, 2)
	assert.Equal(t, 1, sink.rows)
	assert.Equal(t, 52, report.Aggregation.Totals.Produced)
}

func TestCloseShiftFailsWhenArchiveFails(t *testing.T) {
	archive := &mockArchive{saveErr: errors.New("mongo unavailable")}
	sink := &mockSink{}
	svc := newTestService(t, fixtures(), archive, sink)

	_, err := svc.CloseShift(context.Background(), svc.CurrentWindow(svc.now()))
	require.Error(t, err)
	assert.Equal(t, 0, sink.rows)
}

func TestHistory(t *testing.T) {
	archive := &mockArchive{saved: []models.ShiftReportDocument{{Policy: "dashboard"}}}
	svc := newTestService(t, fixtures(), archive, nil)

	docs, err := svc.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, "dashboard", archive.policy)
	assert.Equal(t, int64(defaultHistoryLimit), archive.limit)

	_, err = svc.History(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(maxHistoryLimit), archive.limit)
}

func TestHistoryWithoutArchive(t *testing.T) {
	svc := newTestService(t, fixtures(), nil, nil)

	docs, err := svc.History(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSummary(t *testing.T) {
	svc := newTestService(t, fixtures(), nil, nil)

	report, err := svc.CurrentReport(context.Background())
	require.NoError(t, err)

	want := "Morning shift 2024-03-10 (06:00-14:00)\n" +
		"Produced: 52 | Sold: 25 | Leftover: 0\n" +
		"Revenue: 2500.00\n" +
		"Top seller: Baguette"
	assert.Equal(t, want, svc.Summary(report))
}

func TestStockSummary(t *testing.T) {
	svc := newTestService(t, fixtures(), nil, nil)

	report, err := svc.CurrentReport(context.Background())
	require.NoError(t, err)

	want := "Stock (morning shift)\n" +
		"- Baguette: 15 available (40 made, 25 sold)\n" +
		"- Brioche: 12 available (12 made, 0 sold)"
	assert.Equal(t, want, svc.StockSummary(report))
}

// rangeRecords filters like the Postgres store: by shift label when one is
// given and by the half-open creation range.
type rangeRecords struct {
	products   []models.Product
	production []models.ProductionRecord
	sales      []models.SalesRecord
}

func (r *rangeRecords) ListProducts(context.Context, bool) ([]models.Product, error) {
	return r.products, nil
}

func matches(f models.RecordFilter, s models.Shift, at time.Time) bool {
	if f.Shift != "" && f.Shift != s {
		return false
	}
	return !at.Before(f.From) && at.Before(f.To)
}

func (r *rangeRecords) ListProduction(_ context.Context, f models.RecordFilter) ([]models.ProductionRecord, error) {
	var out []models.ProductionRecord
	for _, rec := range r.production {
		if matches(f, rec.Shift, rec.CreatedAt) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *rangeRecords) ListSales(_ context.Context, f models.RecordFilter) ([]models.SalesRecord, error) {
	var out []models.SalesRecord
	for _, rec := range r.sales {
		if matches(f, rec.Shift, rec.CreatedAt) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func TestInventoryReportSeesDashboardStampedRecords(t *testing.T) {
	dashboard, err := shift.NewResolver(shift.DashboardPolicy(time.UTC))
	require.NoError(t, err)
	inventory, err := shift.NewResolver(shift.InventoryPolicy(time.UTC))
	require.NoError(t, err)

	bakedAt := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	soldAt := time.Date(2024, 3, 10, 16, 0, 0, 0, time.UTC)
	store := &rangeRecords{
		products:   []models.Product{{ID: "p1", Name: "Baguette", ListPrice: decimal.NewFromInt(100), IsActive: true}},
		production: []models.ProductionRecord{{ID: "a", ProductID: "p1", Quantity: 30, Shift: dashboard.Resolve(bakedAt).Shift, CreatedAt: bakedAt}},
		sales:      []models.SalesRecord{{ID: "b", ProductID: "p1", Quantity: 4, Shift: dashboard.Resolve(soldAt).Shift, CreatedAt: soldAt}},
	}
	now := func() time.Time { return time.Date(2024, 3, 10, 16, 30, 0, 0, time.UTC) }

	svc := NewService(store, inventory, nil, nil, nil, RangeOnly())
	svc.now = now
	report, err := svc.CurrentReport(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.ShiftMorning, report.Window.Shift)
	assert.Equal(t, 30, report.Aggregation.Totals.Produced)
	assert.Equal(t, 4, report.Aggregation.Totals.Sold)
	assert.True(t, report.Aggregation.Totals.Revenue.Equal(decimal.NewFromInt(400)))

	// matching on the label would drop both records: they are stamped night
	labelled := NewService(store, inventory, nil, nil, nil)
	labelled.now = now
	report, err = labelled.CurrentReport(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Aggregation.Totals.Sold)
}

func TestCloseShiftFlagsPartialRange(t *testing.T) {
	archive := &mockArchive{}
	svc := newTestService(t, fixtures(), archive, nil)

	morning := svc.CurrentWindow(time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC))
	night := svc.CurrentWindow(time.Date(2024, 3, 11, 2, 0, 0, 0, time.UTC))

	_, err := svc.CloseShift(context.Background(), morning)
	require.NoError(t, err)
	_, err = svc.CloseShift(context.Background(), night)
	require.NoError(t, err)

	require.Len(t, archive.saved, 2)
	assert.False(t, archive.saved[0].Partial)
	assert.True(t, archive.saved[1].Partial, "a same-day range misses the evening before midnight")
	assert.Equal(t, night.FetchStart, archive.saved[1].FetchStart)
}
