package services

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"shoptill/internal/domain"
	"shoptill/internal/repos"
)

// CustomerService owns the cached total_purchase_value aggregate. Nothing
// else writes that field; settlement and refunds call Recompute explicitly
// rather than relying on save-time hooks.
type CustomerService struct {
	DB        *sqlx.DB
	Customers *repos.CustomerRepo
	Orders    *repos.OrderRepo
}

func NewCustomerService(db *sqlx.DB, customers *repos.CustomerRepo, orders *repos.OrderRepo) *CustomerService {
	return &CustomerService{DB: db, Customers: customers, Orders: orders}
}

// Exists reports whether a customer id resolves to a registered customer.
func (s *CustomerService) Exists(q sqlx.Queryer, customerID string) (bool, error) {
	_, err := s.Customers.Get(q, customerID)
	if err == domain.ErrCustomerNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Recompute derives the aggregate from the customer's completed orders and
// writes it back, all inside q. Idempotent: repeated calls over an
// unchanged order set produce the same value.
func (s *CustomerService) Recompute(q sqlx.Ext, customerID string) (decimal.Decimal, error) {
	total, err := s.Orders.CompletedTotal(q, customerID)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "sum completed orders")
	}
	if err := s.Customers.SetTotalPurchaseValue(q, customerID, total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// RecomputeAll is the batch reconciliation job: it rederives every
// customer's aggregate in one transaction and reports how many rows it
// touched.
func (s *CustomerService) RecomputeAll() (int, error) {
	tx, err := s.DB.Beginx()
	if err != nil {
		return 0, errors.Wrap(err, "begin reconcile")
	}
	defer func() { _ = tx.Rollback() }()

	ids, err := s.Customers.ListIDs(tx)
	if err != nil {
		return 0, errors.Wrap(err, "list customers")
	}
	updated := 0
	for _, id := range ids {
		if _, err := s.Recompute(tx, id); err != nil {
			return 0, err
		}
		updated++
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit reconcile")
	}
	return updated, nil
}
