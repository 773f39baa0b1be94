package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"shoptill/internal/domain"
)

type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// ApplyDelta performs the atomic conditional read-modify-write on a
// product's stock. The WHERE clause keeps qty from ever going negative even
// under concurrent sales: a decrement that would overdraw matches zero rows.
// Returns the new quantity and threshold on success.
func (r *InventoryRepo) ApplyDelta(q sqlx.Ext, productID string, delta int) (qty, threshold int, err error) {
	res, err := q.Exec(`
		UPDATE inventory
		SET qty = qty + ?, updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND qty + ? >= 0
	`, delta, productID, delta)
	if err != nil {
		return 0, 0, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		// Either no inventory row or not enough stock; read to tell apart.
		var cur struct {
			Qty       int `db:"qty"`
			Threshold int `db:"low_stock_threshold"`
		}
		err := sqlx.Get(q, &cur, `SELECT qty, low_stock_threshold FROM inventory WHERE product_id = ?`, productID)
		if err == sql.ErrNoRows {
			return 0, 0, domain.ErrProductNotFound
		}
		if err != nil {
			return 0, 0, err
		}
		return 0, 0, &domain.InsufficientStockError{ProductID: productID, Requested: -delta, Available: cur.Qty}
	}

	var after struct {
		Qty       int `db:"qty"`
		Threshold int `db:"low_stock_threshold"`
	}
	if err := sqlx.Get(q, &after, `SELECT qty, low_stock_threshold FROM inventory WHERE product_id = ?`, productID); err != nil {
		return 0, 0, err
	}
	return after.Qty, after.Threshold, nil
}

// InsertAdjustment appends one audit row. Called in the same transaction as
// ApplyDelta so the trail and the mutation commit or roll back together.
func (r *InventoryRepo) InsertAdjustment(q sqlx.Ext, a domain.StockAdjustment) error {
	_, err := q.Exec(`
		INSERT INTO stock_adjustments(id, product_id, delta, adjustment_type, reason, adjusted_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, a.ID, a.ProductID, a.Delta, a.Type, a.Reason, a.AdjustedBy)
	return err
}

func (r *InventoryRepo) Qty(productID string) (int, error) {
	var qty int
	err := r.db.Get(&qty, `SELECT qty FROM inventory WHERE product_id = ?`, productID)
	return qty, err
}

func (r *InventoryRepo) Get(productID string) (domain.Inventory, error) {
	var inv domain.Inventory
	err := r.db.Get(&inv, `
		SELECT product_id, qty, low_stock_threshold, COALESCE(updated_at,'') AS updated_at
		FROM inventory WHERE product_id = ?
	`, productID)
	if err == sql.ErrNoRows {
		return domain.Inventory{}, domain.ErrProductNotFound
	}
	return inv, err
}

// Row used by the low-stock dashboard listing.
type LowStockRow struct {
	ProductID string `db:"product_id"`
	Name      string `db:"name"`
	Qty       int    `db:"qty"`
	Threshold int    `db:"low_stock_threshold"`
}

func (r *InventoryRepo) ListLowStock() ([]LowStockRow, error) {
	var rows []LowStockRow
	err := r.db.Select(&rows, `
		SELECT i.product_id, p.name, i.qty, i.low_stock_threshold
		FROM inventory i
		JOIN products p ON p.id = i.product_id
		WHERE p.active = 1 AND i.qty <= i.low_stock_threshold
		ORDER BY i.qty, p.name
	`)
	return rows, err
}

// Adjustment rows for the CSV export, newest first.
type AdjustmentRow struct {
	ID         string `db:"id"`
	ProductID  string `db:"product_id"`
	Product    string `db:"product_name"`
	Delta      int    `db:"delta"`
	Type       string `db:"adjustment_type"`
	Reason     string `db:"reason"`
	AdjustedBy string `db:"adjusted_by"`
	CreatedAt  string `db:"created_at"`
}

func (r *InventoryRepo) ListAdjustments(limit int) ([]AdjustmentRow, error) {
	if limit <= 0 {
		limit = 500
	}
	var rows []AdjustmentRow
	err := r.db.Select(&rows, `
		SELECT a.id, a.product_id, p.name AS product_name, a.delta, a.adjustment_type,
		       a.reason, a.adjusted_by, a.created_at
		FROM stock_adjustments a
		JOIN products p ON p.id = a.product_id
		ORDER BY datetime(a.created_at) DESC, a.id
		LIMIT ?
	`, limit)
	return rows, err
}

// CountAdjustments reports audit rows for a product; tests use it to assert
// one row per ledger mutation.
func (r *InventoryRepo) CountAdjustments(productID string) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM stock_adjustments WHERE product_id = ?`, productID)
	return n, err
}
