package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
	"github.com/angelmondragon/tubeshop-backend/pkg/pagination"
)

// Filter narrows the catalog listing. String filters match substrings.
type Filter struct {
	Warehouse        string
	ProductType      string
	GOST             string
	SteelGrade       string
	DiameterMin      *decimal.Decimal
	DiameterMax      *decimal.Decimal
	WallThicknessMin *decimal.Decimal
	WallThicknessMax *decimal.Decimal
	Page             pagination.Params
}

// Ranges holds the bounds of the numeric catalog filters.
type Ranges struct {
	DiameterMin      decimal.NullDecimal
	DiameterMax      decimal.NullDecimal
	WallThicknessMin decimal.NullDecimal
	WallThicknessMax decimal.NullDecimal
}

// Repository wires together all product persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySKU loads the product carrying the SKU.
func (r *Repository) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySKUForUpdate loads the product and locks its row on dialects that support it.
func (r *Repository) FindBySKUForUpdate(ctx context.Context, sku string) (*models.Product, error) {
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var product models.Product
	if err := q.First(&product, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns one page of in-stock products ordered by warehouse, type and diameter.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{}).Where("available_stock_tons > 0")
	q = applyContains(q, "warehouse", f.Warehouse)
	q = applyContains(q, "product_type", f.ProductType)
	q = applyContains(q, "gost", f.GOST)
	q = applyContains(q, "steel_grade", f.SteelGrade)
	if f.DiameterMin != nil {
		q = q.Where("diameter >= ?", *f.DiameterMin)
	}
	if f.DiameterMax != nil {
		q = q.Where("diameter <= ?", *f.DiameterMax)
	}
	if f.WallThicknessMin != nil {
		q = q.Where("wall_thickness >= ?", *f.WallThicknessMin)
	}
	if f.WallThicknessMax != nil {
		q = q.Where("wall_thickness <= ?", *f.WallThicknessMax)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := f.Page.Normalize()
	var rows []models.Product
	err := q.Order("warehouse ASC").
		Order("product_type ASC").
		Order("diameter ASC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func applyContains(q *gorm.DB, column, value string) *gorm.DB {
	value = strings.TrimSpace(value)
	if value == "" {
		return q
	}
	return q.Where(fmt.Sprintf("LOWER(%s) LIKE ?", column), "%"+strings.ToLower(value)+"%")
}

// DistinctValues returns the sorted distinct values of a text column.
func (r *Repository) DistinctValues(ctx context.Context, column string) ([]string, error) {
	switch column {
	case "warehouse", "product_type", "gost", "steel_grade":
	default:
		return nil, fmt.Errorf("unsupported distinct column %q", column)
	}
	var values []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Distinct().
		Order(column+" ASC").
		Pluck(column, &values).Error
	if err != nil {
		return nil, err
	}
	return values, nil
}

// Ranges returns the numeric filter bounds across the whole catalog.
func (r *Repository) Ranges(ctx context.Context) (Ranges, error) {
	var out Ranges
	row := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("MIN(diameter), MAX(diameter), MIN(wall_thickness), MAX(wall_thickness)").
		Row()
	if err := row.Scan(&out.DiameterMin, &out.DiameterMax, &out.WallThicknessMin, &out.WallThicknessMax); err != nil {
		return Ranges{}, err
	}
	return out, nil
}

// Count returns the number of catalog rows.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error
	return n, err
}

// Create inserts a product.
func (r *Repository) Create(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// CreateBatch inserts products in chunks.
func (r *Repository) CreateBatch(ctx context.Context, rows []models.Product) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 200).Error
}

// Save persists every column of p.
func (r *Repository) Save(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// SetPriceBySKU replaces the price of the product with the SKU and returns
// the number of rows changed.
func (r *Repository) SetPriceBySKU(ctx context.Context, sku string, price decimal.Decimal, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("sku = ?", sku).
		Updates(map[string]any{
			"price_per_ton":     price,
			"last_price_update": at,
		})
	return res.RowsAffected, res.Error
}

// DecrementStock subtracts the ordered amounts without any floor.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, tons, meters decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"available_stock_tons":   gorm.Expr("available_stock_tons - ?", tons),
			"available_stock_meters": gorm.Expr("available_stock_meters - ?", meters),
		}).Error
}

// DecrementStockIfAvailable subtracts the ordered amounts only while enough
// tons remain. It reports whether the row was updated.
func (r *Repository) DecrementStockIfAvailable(ctx context.Context, id uuid.UUID, tons, meters decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND available_stock_tons >= ?", id, tons).
		Updates(map[string]any{
			"available_stock_tons":   gorm.Expr("available_stock_tons - ?", tons),
			"available_stock_meters": gorm.Expr("available_stock_meters - ?", meters),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
