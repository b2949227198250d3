package commands

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/bakery/internal/access"
	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/service/records"
)

type mockRecords struct {
	production []records.ProductionInput
	sales      []records.SaleInput
}

func (m *mockRecords) RecordProduction(_ context.Context, in records.ProductionInput) (models.ProductionRecord, error) {
	m.production = append(m.production, in)
	return models.ProductionRecord{ProductID: in.ProductID, Quantity: in.Quantity, Shift: models.ShiftMorning}, nil
}

func (m *mockRecords) RecordSale(_ context.Context, in records.SaleInput) (models.SalesRecord, error) {
	m.sales = append(m.sales, in)
	return models.SalesRecord{ProductID: in.ProductID, Quantity: in.Quantity, Returned: in.Returned, Shift: models.ShiftNight}, nil
}

type mockReporting struct {
	summary string
	calls   int
}

func (m *mockReporting) CurrentReport(context.Context) (models.ShiftReport, error) {
	m.calls++
	return models.ShiftReport{}, nil
}

func (m *mockReporting) Summary(models.ShiftReport) string      { return m.summary }
func (m *mockReporting) StockSummary(models.ShiftReport) string { return "stock:" + m.summary }

var manager = Sender{UserID: "u-1", Phone: "224600000001", Role: access.RoleManager}

func newTestService() (*Service, *mockRecords, *mockReporting, *mockReporting) {
	rec := &mockRecords{}
	dashboard := &mockReporting{summary: "dashboard"}
	inventory := &mockReporting{summary: "inventory"}
	return NewService(rec, dashboard, inventory, access.NewRoleChecker(), nil), rec, dashboard, inventory
}

func TestHandleProduce(t *testing.T) {
	svc, rec, _, _ := newTestService()

	reply, err := svc.HandleCommand(context.Background(), models.ParseCommand("/produce Pain de mie 20"), manager)
	require.NoError(t, err)

	require.Len(t, rec.production, 1)
	assert.Equal(t, "pain de mie", rec.production[0].ProductID)
	assert.Equal(t, 20, rec.production[0].Quantity)
	assert.Equal(t, "u-1", rec.production[0].RecordedBy)
	assert.Equal(t, "Production saved: 20 x pain de mie (morning shift).", reply)
}

func TestHandleSaleWithPriceAndDiscount(t *testing.T) {
	svc, rec, _, _ := newTestService()

	_, err := svc.HandleCommand(context.Background(), models.ParseCommand("sell baguette 3 90 20"), manager)
	require.NoError(t, err)

	require.Len(t, rec.sales, 1)
	in := rec.sales[0]
	assert.Equal(t, 3, in.Quantity)
	require.NotNil(t, in.UnitPrice)
	require.NotNil(t, in.Discount)
	assert.True(t, in.UnitPrice.Equal(decimal.NewFromInt(90)))
	assert.True(t, in.Discount.Equal(decimal.NewFromInt(20)))
	assert.False(t, in.Returned)
}

func TestHandleReturn(t *testing.T) {
	svc, rec, _, _ := newTestService()

	reply, err := svc.HandleCommand(context.Background(), models.ParseCommand("/return croissant 2"), manager)
	require.NoError(t, err)

	require.Len(t, rec.sales, 1)
	assert.True(t, rec.sales[0].Returned)
	assert.Nil(t, rec.sales[0].UnitPrice)
	assert.Equal(t, "Return saved: 2 x croissant (night shift).", reply)
}

func TestHandleReportAndStockUseTheirSchemes(t *testing.T) {
	svc, _, dashboard, inventory := newTestService()
	ctx := context.Background()

	reply, err := svc.HandleCommand(ctx, models.ParseCommand("/report"), manager)
	require.NoError(t, err)
	assert.Equal(t, "dashboard", reply)

	reply, err = svc.HandleCommand(ctx, models.ParseCommand("/stock"), manager)
	require.NoError(t, err)
	assert.Equal(t, "stock:inventory", reply)

	assert.Equal(t, 1, dashboard.calls)
	assert.Equal(t, 1, inventory.calls)
}

func TestHandleCommandErrors(t *testing.T) {
	svc, rec, _, _ := newTestService()
	ctx := context.Background()
	salesRep := Sender{UserID: "u-2", Role: access.RoleSalesRep}

	tests := []struct {
		name    string
		text    string
		sender  Sender
		wantErr error
	}{
		{"unknown", "/bake-off", manager, ErrUnsupportedCommand},
		{"missing quantity", "/produce baguette", manager, ErrInvalidArguments},
		{"missing product", "/produce 20", manager, ErrInvalidArguments},
		{"too many numbers", "/produce baguette 20 30", manager, ErrInvalidArguments},
		{"bad price", "/sale baguette 2 abc", manager, ErrInvalidArguments},
		{"sales rep cannot produce", "/produce baguette 20", salesRep, ErrForbidden},
		{"sales rep cannot report", "/report", salesRep, ErrForbidden},
		{"unregistered sender", "/sale baguette 1", Sender{}, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.HandleCommand(ctx, models.ParseCommand(tt.text), tt.sender)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, rec.production)
	assert.Empty(t, rec.sales)
}

func TestSalesRepCanSell(t *testing.T) {
	svc, rec, _, _ := newTestService()

	_, err := svc.HandleCommand(context.Background(), models.ParseCommand("/sale baguette 4"), Sender{UserID: "u-2", Role: access.RoleSalesRep})
	require.NoError(t, err)
	assert.Len(t, rec.sales, 1)
}
