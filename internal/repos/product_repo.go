package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"shoptill/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// SaleInfo is what the settlement engine needs per line: the current catalog
// price and the linked stock record, read together at the start of a sale.
type SaleInfo struct {
	ProductID         string          `db:"id"`
	Name              string          `db:"name"`
	Price             decimal.Decimal `db:"price"`
	Quantity          int             `db:"qty"`
	LowStockThreshold int             `db:"low_stock_threshold"`
}

// GetForSale resolves a product id to its price and inventory inside the
// caller's transaction. Inactive and unknown products both surface as
// ErrProductNotFound.
func (r *ProductRepo) GetForSale(q sqlx.Queryer, productID string) (SaleInfo, error) {
	var info SaleInfo
	err := sqlx.Get(q, &info, `
		SELECT p.id, p.name, p.price, i.qty, i.low_stock_threshold
		FROM products p
		JOIN inventory i ON i.product_id = p.id
		WHERE p.id = ? AND p.active = 1
	`, productID)
	if err == sql.ErrNoRows {
		return SaleInfo{}, domain.ErrProductNotFound
	}
	return info, err
}

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `
		SELECT id, sku, name, COALESCE(description,'') AS description, price,
		       COALESCE(category_id,'') AS category_id, COALESCE(brand_id,'') AS brand_id,
		       COALESCE(supplier_id,'') AS supplier_id, active,
		       created_at, COALESCE(updated_at,'') AS updated_at
		FROM products
		WHERE id = ?
	`, id)
	if err == sql.ErrNoRows {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, err
}

func (r *ProductRepo) List(limit, offset int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
		SELECT id, sku, name, COALESCE(description,'') AS description, price,
		       COALESCE(category_id,'') AS category_id, COALESCE(brand_id,'') AS brand_id,
		       COALESCE(supplier_id,'') AS supplier_id, active,
		       created_at, COALESCE(updated_at,'') AS updated_at
		FROM products
		WHERE active = 1
		ORDER BY name
		LIMIT ? OFFSET ?
	`, limit, offset)
	return out, err
}

// Create inserts a product together with its inventory row.
func (r *ProductRepo) Create(p domain.Product, qty, threshold int) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		INSERT INTO products(id, sku, name, description, price, category_id, brand_id, supplier_id, active)
		VALUES (?, ?, ?, ?, ?, NULLIF(?,''), NULLIF(?,''), NULLIF(?,''), 1)
	`, p.ID, p.SKU, p.Name, p.Description, p.Price, p.CategoryID, p.BrandID, p.SupplierID); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		INSERT INTO inventory(product_id, qty, low_stock_threshold, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`, p.ID, qty, threshold); err != nil {
		return err
	}
	return tx.Commit()
}
