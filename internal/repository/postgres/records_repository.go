package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/repository"
)

const (
	productsTable   = "breads"
	productionTable = "production_records"
	salesTable      = "sales_records"
)

var (
	productColumns    = []string{"id", "name", "price", "is_active"}
	productionColumns = []string{"id", "bread_id", "quantity", "shift", "recorded_by", "created_at"}
	salesColumns      = []string{"id", "bread_id", "quantity", "unit_price", "discount", "returned", "leftover", "shift", "recorded_by", "created_at"}
)

// RecordsRepository reads the catalog and writes production and sales records.
type RecordsRepository struct {
	db      DB
	builder squirrel.StatementBuilderType
}

// NewRecordsRepository builds a repository on top of the given pool.
func NewRecordsRepository(db DB) *RecordsRepository {
	return &RecordsRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ListProducts returns the catalog in display order.
func (r *RecordsRepository) ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	sql, args, err := r.productsQuery(activeOnly).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build products query: %w", err)
	}

	var products []models.Product
	if err := pgxscan.Select(ctx, r.db, &products, sql, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// ProductByID fetches a single catalog entry.
func (r *RecordsRepository) ProductByID(ctx context.Context, id string) (models.Product, error) {
	return r.getProduct(ctx, squirrel.Eq{"id": id})
}

// ProductByName matches a catalog entry case-insensitively.
func (r *RecordsRepository) ProductByName(ctx context.Context, name string) (models.Product, error) {
	return r.getProduct(ctx, squirrel.Expr("lower(name) = ?", strings.ToLower(strings.TrimSpace(name))))
}

func (r *RecordsRepository) getProduct(ctx context.Context, pred squirrel.Sqlizer) (models.Product, error) {
	var product models.Product
	sql, args, err := r.builder.Select(productColumns...).From(productsTable).Where(pred).Limit(1).ToSql()
	if err != nil {
		return product, fmt.Errorf("build product query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.db, &product, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return product, repository.ErrNotFound
		}
		return product, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// InsertProduction stores a production record.
func (r *RecordsRepository) InsertProduction(ctx context.Context, rec models.ProductionRecord) error {
	q := r.builder.Insert(productionTable).
		Columns(productionColumns...).
		Values(rec.ID, rec.ProductID, rec.Quantity, string(rec.Shift), rec.RecordedBy, rec.CreatedAt)
	return r.exec(ctx, q, "insert production record")
}

// InsertSale stores a sales record.
func (r *RecordsRepository) InsertSale(ctx context.Context, rec models.SalesRecord) error {
	q := r.builder.Insert(salesTable).
		Columns(salesColumns...).
		Values(rec.ID, rec.ProductID, rec.Quantity, rec.UnitPrice, rec.Discount, rec.Returned, rec.Leftover, string(rec.Shift), rec.RecordedBy, rec.CreatedAt)
	return r.exec(ctx, q, "insert sales record")
}

// ListProduction returns the production records matching the filter.
func (r *RecordsRepository) ListProduction(ctx context.Context, filter models.RecordFilter) ([]models.ProductionRecord, error) {
	sql, args, err := r.recordsQuery(productionTable, productionColumns, filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build production query: %w", err)
	}

	var records []models.ProductionRecord
	if err := pgxscan.Select(ctx, r.db, &records, sql, args...); err != nil {
		return nil, fmt.Errorf("list production records: %w", err)
	}
	return records, nil
}

// ListSales returns the sales records matching the filter.
func (r *RecordsRepository) ListSales(ctx context.Context, filter models.RecordFilter) ([]models.SalesRecord, error) {
	sql, args, err := r.recordsQuery(salesTable, salesColumns, filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sales query: %w", err)
	}

	var records []models.SalesRecord
	if err := pgxscan.Select(ctx, r.db, &records, sql, args...); err != nil {
		return nil, fmt.Errorf("list sales records: %w", err)
	}
	return records, nil
}

func (r *RecordsRepository) productsQuery(activeOnly bool) squirrel.SelectBuilder {
	q := r.builder.Select(productColumns...).From(productsTable)
	if activeOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	return q.OrderBy("created_at", "id")
}

// recordsQuery filters on shift and the half-open creation range. Zero
// bounds are left open.
func (r *RecordsRepository) recordsQuery(table string, columns []string, filter models.RecordFilter) squirrel.SelectBuilder {
	q := r.builder.Select(columns...).From(table)
	if filter.Shift != "" {
		q = q.Where(squirrel.Eq{"shift": string(filter.Shift)})
	}
	if !filter.From.IsZero() {
		q = q.Where(squirrel.GtOrEq{"created_at": filter.From})
	}
	if !filter.To.IsZero() {
		q = q.Where(squirrel.Lt{"created_at": filter.To})
	}
	return q.OrderBy("created_at", "id")
}

func (r *RecordsRepository) exec(ctx context.Context, q squirrel.Sqlizer, op string) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
