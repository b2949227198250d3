package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/bakery/internal/domain/models"
)

func TestReportRow(t *testing.T) {
	doc := models.ShiftReportDocument{
		Policy:     "dashboard",
		Shift:      models.ShiftMorning,
		ShiftStart: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Produced:   52,
		Sold:       35,
		Revenue:    "5000.00",
		Leftover:   6,
		TopProduct: "Baguette",
	}

	row := ReportRow(doc)

	assert.Equal(t, []interface{}{"2024-03-10 00:00", "morning", "dashboard", 52, 35, "5000.00", 6, "Baguette"}, row)
}

func TestReportRowWithUnparsableRevenue(t *testing.T) {
	row := ReportRow(models.ShiftReportDocument{Revenue: "n/a"})

	assert.Equal(t, "0.00", row[5])
}
