package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"shoptill/internal/domain"
)

type CustomerRepo struct{ db *sqlx.DB }

func NewCustomerRepo(db *sqlx.DB) *CustomerRepo { return &CustomerRepo{db: db} }

const customerCols = `id, name, COALESCE(email,'') AS email, COALESCE(phone,'') AS phone,
	total_purchase_value, created_at, COALESCE(updated_at,'') AS updated_at`

func (r *CustomerRepo) Get(q sqlx.Queryer, id string) (domain.Customer, error) {
	var c domain.Customer
	err := sqlx.Get(q, &c, `SELECT `+customerCols+` FROM customers WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return c, err
}

func (r *CustomerRepo) GetByID(id string) (domain.Customer, error) { return r.Get(r.db, id) }

func (r *CustomerRepo) List(limit, offset int) ([]domain.Customer, error) {
	var out []domain.Customer
	err := r.db.Select(&out, `
		SELECT `+customerCols+` FROM customers ORDER BY name LIMIT ? OFFSET ?
	`, limit, offset)
	return out, err
}

func (r *CustomerRepo) ListIDs(q sqlx.Queryer) ([]string, error) {
	var ids []string
	err := sqlx.Select(q, &ids, `SELECT id FROM customers ORDER BY id`)
	return ids, err
}

func (r *CustomerRepo) Create(c domain.Customer) error {
	_, err := r.db.Exec(`
		INSERT INTO customers(id, name, email, phone, total_purchase_value, created_at)
		VALUES (?, ?, NULLIF(?,''), NULLIF(?,''), 0, CURRENT_TIMESTAMP)
	`, c.ID, c.Name, c.Email, c.Phone)
	return err
}

// SetTotalPurchaseValue is the single write path for the cached aggregate.
// Only the customer service calls it.
func (r *CustomerRepo) SetTotalPurchaseValue(q sqlx.Ext, customerID string, v decimal.Decimal) error {
	res, err := q.Exec(`
		UPDATE customers SET total_purchase_value = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, v, customerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}
