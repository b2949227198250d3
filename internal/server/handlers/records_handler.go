package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/server/middleware"
	"github.com/mamadbah2/bakery/internal/service/records"
)

// RecordsService is what the records endpoints need.
type RecordsService interface {
	Products(ctx context.Context) ([]models.Product, error)
	RecordProduction(ctx context.Context, in records.ProductionInput) (models.ProductionRecord, error)
	RecordSale(ctx context.Context, in records.SaleInput) (models.SalesRecord, error)
}

// RecordsHandler serves the catalog and record logging endpoints.
type RecordsHandler struct {
	svc    RecordsService
	logger *zap.Logger
}

func NewRecordsHandler(svc RecordsService, logger *zap.Logger) *RecordsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordsHandler{svc: svc, logger: logger}
}

// Products lists the active catalog.
func (h *RecordsHandler) Products(c *gin.Context) {
	products, err := h.svc.Products(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to list products"})
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// CreateProduction logs a production batch.
func (h *RecordsHandler) CreateProduction(c *gin.Context) {
	var in records.ProductionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	in.RecordedBy = middleware.UserID(c)

	rec, err := h.svc.RecordProduction(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// CreateSale logs a sales line.
func (h *RecordsHandler) CreateSale(c *gin.Context) {
	var in records.SaleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	in.RecordedBy = middleware.UserID(c)

	rec, err := h.svc.RecordSale(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *RecordsHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, records.ErrInvalidArguments):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, records.ErrUnknownProduct):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Error("failed to store record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to store record"})
	}
}
