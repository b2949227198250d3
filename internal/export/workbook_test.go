package export

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/bakery/internal/domain/models"
)

func sampleReport() models.ShiftReport {
	return models.ShiftReport{
		Window: models.ShiftWindow{
			Policy: "dashboard",
			Shift:  models.ShiftMorning,
			Start:  time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC),
			End:    time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC),
		},
		Aggregation: models.Aggregation{
			Rollups: []models.ProductRollup{
				{ProductID: "p1", ProductName: "Baguette", Produced: 40, Sold: 25, Revenue: decimal.NewFromInt(2500), Leftover: 3, Available: 15},
				{ProductID: "p2", ProductName: "Brioche", Produced: 12, Sold: 10, Revenue: decimal.NewFromInt(2500), Available: 2},
			},
			Totals: models.ShiftTotals{Produced: 52, Sold: 35, Revenue: decimal.NewFromInt(5000), Leftover: 3, TopProductID: "p1"},
		},
	}
}

func TestShiftWorkbook(t *testing.T) {
	buf, filename, err := ShiftWorkbook(sampleReport(), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "shift_dashboard_20240310_morning.xlsx", filename)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	title, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "morning shift, 2024-03-10 06:00-14:00", title)

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, headers, rows[1])
	assert.Equal(t, "Baguette", rows[2][0])
	assert.Equal(t, "40", rows[2][1])
	assert.Equal(t, "Total", rows[4][0])
	assert.Equal(t, "52", rows[4][1])
	assert.Equal(t, "5000", rows[4][3])
	assert.Equal(t, "17", rows[4][6])
}

func TestShiftWorkbookUsesLocation(t *testing.T) {
	_, filename, err := ShiftWorkbook(sampleReport(), time.FixedZone("UTC-8", -8*3600))
	require.NoError(t, err)
	assert.Equal(t, "shift_dashboard_20240309_morning.xlsx", filename)
}
