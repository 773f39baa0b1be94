package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"shoptill/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// Create inserts the order header in pending state with zero totals. The
// row exists first so items can reference it; totals and status are written
// by Finalize once payment has been validated.
func (r *OrderRepo) Create(q sqlx.Ext, orderID, customerID, salespersonID, assistantID string) error {
	_, err := q.Exec(`
		INSERT INTO orders(id, customer_id, salesperson_id, assistant_id, subtotal, tax, total, status, created_at)
		VALUES (?, NULLIF(?,''), ?, NULLIF(?,''), 0, 0, 0, 'pending', CURRENT_TIMESTAMP)
	`, orderID, customerID, salespersonID, assistantID)
	return err
}

func (r *OrderRepo) InsertItem(q sqlx.Ext, it domain.OrderItem) error {
	_, err := q.Exec(`
		INSERT INTO order_items(id, order_id, product_id, qty, price, status)
		VALUES (?, ?, ?, ?, ?, '')
	`, it.ID, it.OrderID, it.ProductID, it.Quantity, it.Price)
	return err
}

func (r *OrderRepo) InsertTransaction(q sqlx.Ext, t domain.Transaction) error {
	_, err := q.Exec(`
		INSERT INTO transactions(id, order_id, payment_method, amount_paid, change_amount, created_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, t.ID, t.OrderID, t.PaymentMethod, t.AmountPaid, t.ChangeAmount)
	return err
}

// Finalize writes the computed totals and flips the order to completed.
func (r *OrderRepo) Finalize(q sqlx.Ext, orderID string, subtotal, tax, total decimal.Decimal) error {
	_, err := q.Exec(`
		UPDATE orders SET subtotal = ?, tax = ?, total = ?, status = 'completed'
		WHERE id = ? AND status = 'pending'
	`, subtotal, tax, total, orderID)
	return err
}

func (r *OrderRepo) Get(q sqlx.Queryer, orderID string) (domain.Order, error) {
	var o domain.Order
	err := sqlx.Get(q, &o, `
		SELECT id, COALESCE(customer_id,'') AS customer_id, salesperson_id,
		       COALESCE(assistant_id,'') AS assistant_id,
		       subtotal, tax, total, status, created_at
		FROM orders WHERE id = ?
	`, orderID)
	if err == sql.ErrNoRows {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, err
}

func (r *OrderRepo) Items(q sqlx.Queryer, orderID string) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := sqlx.Select(q, &items, `
		SELECT id, order_id, product_id, qty, price, status
		FROM order_items
		WHERE order_id = ?
		ORDER BY id
	`, orderID)
	return items, err
}

// ItemsByID loads a subset of an order's items; ids not belonging to the
// order are simply absent from the result.
func (r *OrderRepo) ItemsByID(q sqlx.Queryer, orderID string, itemIDs []string) ([]domain.OrderItem, error) {
	query, args, err := sqlx.In(`
		SELECT id, order_id, product_id, qty, price, status
		FROM order_items
		WHERE order_id = ? AND id IN (?)
	`, orderID, itemIDs)
	if err != nil {
		return nil, err
	}
	var items []domain.OrderItem
	err = sqlx.Select(q, &items, query, args...)
	return items, err
}

func (r *OrderRepo) MarkItemReturned(q sqlx.Ext, itemID string) error {
	_, err := q.Exec(`UPDATE order_items SET status = 'returned' WHERE id = ?`, itemID)
	return err
}

// Convenience reads outside any transaction.
func (r *OrderRepo) GetByID(orderID string) (domain.Order, error) { return r.Get(r.db, orderID) }

func (r *OrderRepo) ItemsFor(orderID string) ([]domain.OrderItem, error) {
	return r.Items(r.db, orderID)
}

func (r *OrderRepo) GetTransaction(orderID string) (domain.Transaction, error) {
	var t domain.Transaction
	err := r.db.Get(&t, `
		SELECT id, order_id, payment_method, amount_paid, change_amount, created_at
		FROM transactions WHERE order_id = ?
	`, orderID)
	return t, err
}

// CompletedTotal sums the totals of a customer's completed orders. This is
// the source of truth the cached customer aggregate is derived from.
func (r *OrderRepo) CompletedTotal(q sqlx.Queryer, customerID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := sqlx.Get(q, &total, `
		SELECT COALESCE(SUM(total), 0)
		FROM orders
		WHERE customer_id = ? AND status = 'completed'
	`, customerID)
	return total, err
}

// Row used by the sales CSV export.
type OrderExportRow struct {
	ID            string          `db:"id"`
	CustomerName  string          `db:"customer_name"`
	Salesperson   string          `db:"salesperson"`
	Subtotal      decimal.Decimal `db:"subtotal"`
	Tax           decimal.Decimal `db:"tax"`
	Total         decimal.Decimal `db:"total"`
	PaymentMethod string          `db:"payment_method"`
	Status        string          `db:"status"`
	CreatedAt     string          `db:"created_at"`
}

func (r *OrderRepo) ListForExport(limit int) ([]OrderExportRow, error) {
	if limit <= 0 {
		limit = 1000
	}
	var rows []OrderExportRow
	err := r.db.Select(&rows, `
		SELECT o.id, COALESCE(c.name,'Walk-in') AS customer_name, u.name AS salesperson,
		       o.subtotal, o.tax, o.total, COALESCE(t.payment_method,'') AS payment_method,
		       o.status, o.created_at
		FROM orders o
		LEFT JOIN customers c ON c.id = o.customer_id
		JOIN users u ON u.id = o.salesperson_id
		LEFT JOIN transactions t ON t.order_id = o.id
		ORDER BY datetime(o.created_at) DESC, o.id
		LIMIT ?
	`, limit)
	return rows, err
}
