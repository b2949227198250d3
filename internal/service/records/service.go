package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/repository"
	"github.com/mamadbah2/bakery/internal/shift"
)

var (
	// ErrInvalidArguments is returned when an input fails validation.
	ErrInvalidArguments = errors.New("invalid arguments")
	// ErrUnknownProduct is returned when the product does not exist or is inactive.
	ErrUnknownProduct = errors.New("unknown product")
)

// Repository is the persistence the service writes through.
type Repository interface {
	ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error)
	ProductByID(ctx context.Context, id string) (models.Product, error)
	ProductByName(ctx context.Context, name string) (models.Product, error)
	InsertProduction(ctx context.Context, rec models.ProductionRecord) error
	InsertSale(ctx context.Context, rec models.SalesRecord) error
}

// ProductionInput is a request to log a production batch.
type ProductionInput struct {
	ProductID  string `json:"product_id" binding:"required"`
	Quantity   int    `json:"quantity"`
	Shift      string `json:"shift"`
	RecordedBy string `json:"-"`
}

// SaleInput is a request to log a sales line.
type SaleInput struct {
	ProductID  string           `json:"product_id" binding:"required"`
	Quantity   int              `json:"quantity"`
	UnitPrice  *decimal.Decimal `json:"unit_price"`
	Discount   *decimal.Decimal `json:"discount"`
	Returned   bool             `json:"returned"`
	Leftover   *int             `json:"leftover"`
	Shift      string           `json:"shift"`
	RecordedBy string           `json:"-"`
}

// Service validates and stores production and sales records.
type Service struct {
	repo     Repository
	resolver *shift.Resolver
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// NewService builds the records service. The resolver labels records whose
// caller did not name a shift.
func NewService(repo Repository, resolver *shift.Resolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Products lists the active catalog.
func (s *Service) Products(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.ListProducts(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// FindProduct resolves a product by id first, then by name.
func (s *Service) FindProduct(ctx context.Context, ref string) (models.Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Product{}, fmt.Errorf("%w: product is required", ErrInvalidArguments)
	}

	product, err := s.repo.ProductByID(ctx, ref)
	if errors.Is(err, repository.ErrNotFound) {
		product, err = s.repo.ProductByName(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Product{}, fmt.Errorf("%w: %s", ErrUnknownProduct, ref)
		}
		return models.Product{}, fmt.Errorf("lookup product: %w", err)
	}
	if !product.IsActive {
		return models.Product{}, fmt.Errorf("%w: %s is inactive", ErrUnknownProduct, product.Name)
	}
	return product, nil
}

// RecordProduction validates and stores a production batch.
func (s *Service) RecordProduction(ctx context.Context, in ProductionInput) (models.ProductionRecord, error) {
	if in.Quantity <= 0 {
		return models.ProductionRecord{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidArguments)
	}

	product, err := s.FindProduct(ctx, in.ProductID)
	if err != nil {
		return models.ProductionRecord{}, err
	}

	now := s.now()
	label, err := s.shiftFor(in.Shift, now)
	if err != nil {
		return models.ProductionRecord{}, err
	}

	rec := models.ProductionRecord{
		ID:         s.newID(),
		ProductID:  product.ID,
		Quantity:   in.Quantity,
		Shift:      label,
		RecordedBy: in.RecordedBy,
		CreatedAt:  now.UTC(),
	}
	if err := s.repo.InsertProduction(ctx, rec); err != nil {
		return models.ProductionRecord{}, fmt.Errorf("store production: %w", err)
	}

	s.logger.Info("production recorded",
		zap.String("product", product.Name),
		zap.Int("quantity", rec.Quantity),
		zap.String("shift", string(rec.Shift)),
	)
	return rec, nil
}

// RecordSale validates and stores a sales line.
func (s *Service) RecordSale(ctx context.Context, in SaleInput) (models.SalesRecord, error) {
	switch {
	case in.Quantity <= 0:
		return models.SalesRecord{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidArguments)
	case in.UnitPrice != nil && in.UnitPrice.IsNegative():
		return models.SalesRecord{}, fmt.Errorf("%w: unit price must not be negative", ErrInvalidArguments)
	case in.Discount != nil && in.Discount.IsNegative():
		return models.SalesRecord{}, fmt.Errorf("%w: discount must not be negative", ErrInvalidArguments)
	case in.Leftover != nil && *in.Leftover < 0:
		return models.SalesRecord{}, fmt.Errorf("%w: leftover must not be negative", ErrInvalidArguments)
	}

	product, err := s.FindProduct(ctx, in.ProductID)
	if err != nil {
		return models.SalesRecord{}, err
	}

	now := s.now()
	label, err := s.shiftFor(in.Shift, now)
	if err != nil {
		return models.SalesRecord{}, err
	}

	rec := models.SalesRecord{
		ID:         s.newID(),
		ProductID:  product.ID,
		Quantity:   in.Quantity,
		UnitPrice:  in.UnitPrice,
		Discount:   in.Discount,
		Returned:   in.Returned,
		Leftover:   in.Leftover,
		Shift:      label,
		RecordedBy: in.RecordedBy,
		CreatedAt:  now.UTC(),
	}
	if err := s.repo.InsertSale(ctx, rec); err != nil {
		return models.SalesRecord{}, fmt.Errorf("store sale: %w", err)
	}

	s.logger.Info("sale recorded",
		zap.String("product", product.Name),
		zap.Int("quantity", rec.Quantity),
		zap.Bool("returned", rec.Returned),
		zap.String("shift", string(rec.Shift)),
	)
	return rec, nil
}

func (s *Service) shiftFor(requested string, now time.Time) (models.Shift, error) {
	if strings.TrimSpace(requested) != "" {
		label, ok := models.ParseShift(requested)
		if !ok {
			return "", fmt.Errorf("%w: unknown shift %q", ErrInvalidArguments, requested)
		}
		return label, nil
	}
	return s.resolver.Resolve(now).Shift, nil
}
