package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/aggregation"
	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/repository/mongodb"
	"github.com/mamadbah2/bakery/internal/repository/sheets"
	"github.com/mamadbah2/bakery/internal/shift"
)

const (
	clockLayout         = "15:04"
	dateLayout          = "2006-01-02"
	defaultHistoryLimit = 14
	maxHistoryLimit     = 100
)

// RecordSource is the read side of the records store.
type RecordSource interface {
	ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error)
	ListProduction(ctx context.Context, filter models.RecordFilter) ([]models.ProductionRecord, error)
	ListSales(ctx context.Context, filter models.RecordFilter) ([]models.SalesRecord, error)
}

// Service builds shift reports for one shift scheme.
type Service struct {
	records    RecordSource
	resolver   *shift.Resolver
	archive    mongodb.Archive
	sink       sheets.ReportSink
	logger     *zap.Logger
	now        func() time.Time
	matchShift bool
}

// Option customizes a Service.
type Option func(*Service)

// RangeOnly selects records by creation time alone. Use it for a scheme
// whose shift boundaries differ from the ones records are stamped with.
func RangeOnly() Option {
	return func(s *Service) {
		s.matchShift = false
	}
}

// NewService wires a reporting service bound to resolver. archive and sink
// may be nil.
func NewService(records RecordSource, resolver *shift.Resolver, archive mongodb.Archive, sink sheets.ReportSink, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		records:    records,
		resolver:   resolver,
		archive:    archive,
		sink:       sink,
		logger:     logger,
		now:        time.Now,
		matchShift: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PolicyName returns the name of the bound shift scheme.
func (s *Service) PolicyName() string {
	return s.resolver.Policy().Name
}

// Location is the time zone shift boundaries are computed in.
func (s *Service) Location() *time.Location {
	if loc := s.resolver.Policy().Location; loc != nil {
		return loc
	}
	return time.UTC
}

// CurrentWindow resolves the active shift window at now.
func (s *Service) CurrentWindow(now time.Time) models.ShiftWindow {
	return s.resolver.Resolve(now)
}

// Report aggregates the records inside window's fetch range.
func (s *Service) Report(ctx context.Context, window models.ShiftWindow) (models.ShiftReport, error) {
	filter := models.FilterFor(window)
	if !s.matchShift {
		filter.Shift = ""
	}

	products, err := s.records.ListProducts(ctx, true)
	if err != nil {
		return models.ShiftReport{}, fmt.Errorf("load catalog: %w", err)
	}

	production, err := s.records.ListProduction(ctx, filter)
	if err != nil {
		return models.ShiftReport{}, fmt.Errorf("load production records: %w", err)
	}

	sales, err := s.records.ListSales(ctx, filter)
	if err != nil {
		return models.ShiftReport{}, fmt.Errorf("load sales records: %w", err)
	}

	agg := aggregation.Aggregate(production, sales, products)
	if agg.Skipped > 0 {
		s.logger.Warn("malformed records skipped during aggregation",
			zap.String("policy", window.Policy),
			zap.String("shift", string(window.Shift)),
			zap.Int("skipped", agg.Skipped),
		)
	}

	return models.ShiftReport{
		Window:      window,
		Aggregation: agg,
		GeneratedAt: s.now().UTC(),
	}, nil
}

// CurrentReport reports on the shift active now.
func (s *Service) CurrentReport(ctx context.Context) (models.ShiftReport, error) {
	window := s.CurrentWindow(s.now())
	if window.ClockSkew {
		s.logger.Warn("clock outside sane range, shift window is best effort", zap.Time("start", window.Start))
	}
	return s.Report(ctx, window)
}

// CloseShift builds the final report for a finished window and archives it.
// A failing spreadsheet append is logged, not returned.
func (s *Service) CloseShift(ctx context.Context, window models.ShiftWindow) (models.ShiftReport, error) {
	report, err := s.Report(ctx, window)
	if err != nil {
		return models.ShiftReport{}, err
	}

	doc := models.NewShiftReportDocument(report)
	if doc.Partial {
		s.logger.Warn("archived shift report covers only part of the shift",
			zap.String("policy", window.Policy),
			zap.String("shift", string(window.Shift)),
			zap.Time("start", window.Start),
			zap.Time("end", window.End),
			zap.Time("fetch_start", window.FetchStart),
			zap.Time("fetch_end", window.FetchEnd),
		)
	}

	if s.archive != nil {
		if err := s.archive.SaveShiftReport(ctx, doc); err != nil {
			return report, fmt.Errorf("archive shift report: %w", err)
		}
	}

	if s.sink != nil {
		if err := s.sink.AppendShiftReport(ctx, doc); err != nil {
			s.logger.Warn("failed to mirror shift report to sheet", zap.Error(err))
		}
	}

	s.logger.Info("shift closed",
		zap.String("policy", window.Policy),
		zap.String("shift", string(window.Shift)),
		zap.Time("start", window.Start),
		zap.Int("produced", report.Aggregation.Totals.Produced),
		zap.Int("sold", report.Aggregation.Totals.Sold),
		zap.String("revenue", report.Aggregation.Totals.Revenue.StringFixed(2)),
	)
	return report, nil
}

// History returns the most recent archived reports of this scheme.
func (s *Service) History(ctx context.Context, limit int) ([]models.ShiftReportDocument, error) {
	if s.archive == nil {
		return []models.ShiftReportDocument{}, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	docs, err := s.archive.RecentShiftReports(ctx, s.PolicyName(), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("load report history: %w", err)
	}
	if docs == nil {
		docs = []models.ShiftReportDocument{}
	}
	return docs, nil
}

// Summary renders the report as a short chat message.
func (s *Service) Summary(report models.ShiftReport) string {
	loc := s.Location()
	w := report.Window
	totals := report.Aggregation.Totals

	var b strings.Builder
	fmt.Fprintf(&b, "%s shift %s (%s-%s)\n",
		titleCase(string(w.Shift)),
		w.Start.In(loc).Format(dateLayout),
		w.Start.In(loc).Format(clockLayout),
		w.End.In(loc).Format(clockLayout),
	)
	fmt.Fprintf(&b, "Produced: %d | Sold: %d | Leftover: %d\n", totals.Produced, totals.Sold, totals.Leftover)
	fmt.Fprintf(&b, "Revenue: %s", totals.Revenue.StringFixed(2))
	if !totals.Discounts.IsZero() {
		fmt.Fprintf(&b, " (discounts %s)", totals.Discounts.StringFixed(2))
	}
	if name := report.TopProductName(); name != "" {
		fmt.Fprintf(&b, "\nTop seller: %s", name)
	}
	if w.Fallback {
		b.WriteString("\nNote: shift settings unavailable, showing today so far.")
	}
	return b.String()
}

// StockSummary renders per-product availability.
func (s *Service) StockSummary(report models.ShiftReport) string {
	if len(report.Aggregation.Rollups) == 0 {
		return "No active products in the catalog."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Stock (%s shift)", string(report.Window.Shift))
	for _, r := range report.Aggregation.Rollups {
		fmt.Fprintf(&b, "\n- %s: %d available (%d made, %d sold)", r.ProductName, r.Available, r.Produced, r.Sold)
	}
	return b.String()
}

func titleCase(value string) string {
	if value == "" {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}
