package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportingService is what the shift and report endpoints need from one
// shift scheme.
type ReportingService interface {
	PolicyName() string
	Location() *time.Location
	CurrentWindow(now time.Time) models.ShiftWindow
	CurrentReport(ctx context.Context) (models.ShiftReport, error)
	History(ctx context.Context, limit int) ([]models.ShiftReportDocument, error)
}

// ShiftHandler serves shift windows, reports and inventory.
type ShiftHandler struct {
	dashboard ReportingService
	inventory ReportingService
	logger    *zap.Logger
	now       func() time.Time
}

// NewShiftHandler wires the dashboard and inventory schemes.
func NewShiftHandler(dashboard, inventory ReportingService, logger *zap.Logger) *ShiftHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShiftHandler{dashboard: dashboard, inventory: inventory, logger: logger, now: time.Now}
}

// pick selects the scheme named by ?policy=, defaulting to fallback.
func (h *ShiftHandler) pick(c *gin.Context, fallback ReportingService) (ReportingService, bool) {
	switch c.Query("policy") {
	case "":
		return fallback, true
	case h.dashboard.PolicyName():
		return h.dashboard, true
	case h.inventory.PolicyName():
		return h.inventory, true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "unknown policy"})
	return nil, false
}

// CurrentShift returns the active shift window.
func (h *ShiftHandler) CurrentShift(c *gin.Context) {
	svc, ok := h.pick(c, h.dashboard)
	if !ok {
		return
	}
	now := h.now()
	window := svc.CurrentWindow(now)
	c.JSON(http.StatusOK, gin.H{
		"window":            window,
		"remaining_seconds": int64(window.Remaining(now) / time.Second),
	})
}

// ShiftReport returns the aggregated report of the active shift.
func (h *ShiftHandler) ShiftReport(c *gin.Context) {
	svc, ok := h.pick(c, h.dashboard)
	if !ok {
		return
	}
	report, ok := h.currentReport(c, svc)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

// Inventory returns per-product availability for the inventory scheme.
func (h *ShiftHandler) Inventory(c *gin.Context) {
	report, ok := h.currentReport(c, h.inventory)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"window":   report.Window,
		"products": report.Aggregation.Rollups,
		"skipped":  report.Aggregation.Skipped,
	})
}

// ExportShiftReport streams the active shift report as an xlsx workbook.
func (h *ShiftHandler) ExportShiftReport(c *gin.Context) {
	svc, ok := h.pick(c, h.dashboard)
	if !ok {
		return
	}
	report, ok := h.currentReport(c, svc)
	if !ok {
		return
	}

	buf, filename, err := export.ShiftWorkbook(report, svc.Location())
	if err != nil {
		h.logger.Error("failed to build workbook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to export report"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// History lists archived shift reports.
func (h *ShiftHandler) History(c *gin.Context) {
	svc, ok := h.pick(c, h.dashboard)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}

	docs, err := svc.History(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to load history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": docs})
}

func (h *ShiftHandler) currentReport(c *gin.Context, svc ReportingService) (models.ShiftReport, bool) {
	report, err := svc.CurrentReport(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to build shift report", zap.String("policy", svc.PolicyName()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to build report"})
		return models.ShiftReport{}, false
	}
	return report, true
}
