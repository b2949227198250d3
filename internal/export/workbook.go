package export

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/bakery/internal/domain/models"
)

const sheetName = "Shift report"

// ErrGenerateFailed is returned when the workbook cannot be serialized.
var ErrGenerateFailed = errors.New("failed to generate workbook")

var headers = []string{"Product", "Produced", "Sold", "Revenue", "Discounts", "Leftover", "Available"}

// ShiftWorkbook renders a report as an xlsx workbook: a title row, a header
// row, one row per product and a totals row. Times are shown in loc.
func ShiftWorkbook(report models.ShiftReport, loc *time.Location) (*bytes.Buffer, string, error) {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrGenerateFailed, err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 24)
	f.SetColWidth(sheetName, "B", colName(len(headers)-1), 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#F4B183"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	boldStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	w := report.Window
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s shift, %s %s-%s",
		w.Shift, w.Start.In(loc).Format("2006-01-02"), w.Start.In(loc).Format("15:04"), w.End.In(loc).Format("15:04")))
	f.MergeCell(sheetName, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	row := 2
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(headers)-1), row), headerStyle)

	row = 3
	for _, r := range report.Aggregation.Rollups {
		writeRow(f, row, r.ProductName, r.Produced, r.Sold, r.Revenue.InexactFloat64(), r.DiscountTotal.InexactFloat64(), r.Leftover, r.Available)
		row++
	}

	t := report.Aggregation.Totals
	writeRow(f, row, "Total", t.Produced, t.Sold, t.Revenue.InexactFloat64(), t.Discounts.InexactFloat64(), t.Leftover, availableTotal(report.Aggregation.Rollups))
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(headers)-1), row), boldStyle)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrGenerateFailed, err)
	}

	filename := fmt.Sprintf("shift_%s_%s_%s.xlsx", w.Policy, w.Start.In(loc).Format("20060102"), w.Shift)
	return buf, filename, nil
}

func writeRow(f *excelize.File, row int, values ...interface{}) {
	for i, v := range values {
		f.SetCellValue(sheetName, cell(colName(i), row), v)
	}
}

func availableTotal(rollups []models.ProductRollup) int {
	var total int
	for _, r := range rollups {
		total += r.Available
	}
	return total
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
