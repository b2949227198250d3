package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/bakery/internal/config"
	"github.com/mamadbah2/bakery/internal/domain/models"
)

// ReportSink mirrors closed shift reports into a spreadsheet.
type ReportSink interface {
	AppendShiftReport(ctx context.Context, doc models.ShiftReportDocument) error
}

// GoogleSheetRepository implements ReportSink using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	reportRange   string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed sink.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		reportRange:   cfg.ReportRange,
		logger:        logger,
	}, nil
}

// AppendShiftReport appends one summary row for the report.
func (r *GoogleSheetRepository) AppendShiftReport(ctx context.Context, doc models.ShiftReportDocument) error {
	return r.writeRow(ctx, r.reportRange, ReportRow(doc))
}

func (r *GoogleSheetRepository) writeRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", sheetRange))
	return nil
}

// ReportRow lays out the spreadsheet columns: date, shift, policy, produced,
// sold, revenue, leftover, top product.
func ReportRow(doc models.ShiftReportDocument) []interface{} {
	return []interface{}{
		doc.ShiftStart.Format("2006-01-02 15:04"),
		string(doc.Shift),
		doc.Policy,
		doc.Produced,
		doc.Sold,
		doc.RevenueDecimal().StringFixed(2),
		doc.Leftover,
		doc.TopProduct,
	}
}
