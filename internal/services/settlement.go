package services

import (
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"shoptill/internal/domain"
	"shoptill/internal/repos"
)

// SettlementService turns a cart into a completed, paid, stock-adjusted
// order. The whole sequence runs inside one database transaction: either
// every write (order, items, inventory deltas, payment, customer aggregate)
// commits, or none do.
type SettlementService struct {
	DB        *sqlx.DB
	Products  *repos.ProductRepo
	Orders    *repos.OrderRepo
	Ledger    *Ledger
	Customers *CustomerService
	Pricer    Pricer
}

func NewSettlementService(db *sqlx.DB, products *repos.ProductRepo, orders *repos.OrderRepo,
	ledger *Ledger, customers *CustomerService, pricer Pricer) *SettlementService {
	return &SettlementService{
		DB: db, Products: products, Orders: orders,
		Ledger: ledger, Customers: customers, Pricer: pricer,
	}
}

type SaleLine struct {
	ProductID   string
	Quantity    int
	DiscountPct decimal.Decimal
}

type SettleRequest struct {
	CustomerID    string // empty = walk-in
	SalespersonID string
	AssistantID   string
	Lines         []SaleLine
	PaymentMethod string
	AmountPaid    decimal.Decimal
}

type SettleResult struct {
	OrderID  string
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	Change   decimal.Decimal
	// LowStock lists products that fell to or below their threshold during
	// this sale, for the caller to raise replenishment notices.
	LowStock []string
}

// Settle validates the cart, prices it, decrements stock, records the
// payment and promotes the order to completed, as one all-or-nothing unit.
func (s *SettlementService) Settle(req SettleRequest) (SettleResult, error) {
	if len(req.Lines) == 0 {
		return SettleResult{}, domain.ErrEmptyOrder
	}
	if !domain.ValidPaymentMethod(req.PaymentMethod) {
		return SettleResult{}, domain.ErrInvalidPayment
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return SettleResult{}, errors.Wrap(err, "begin settlement")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := s.settleTx(tx, req)
	if err != nil {
		return SettleResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return SettleResult{}, errors.Wrap(err, "commit settlement")
	}
	return res, nil
}

func (s *SettlementService) settleTx(tx *sqlx.Tx, req SettleRequest) (SettleResult, error) {
	// An unknown customer id degrades to a walk-in sale; the till keeps
	// selling when a loyalty lookup comes back stale.
	customerID := req.CustomerID
	if customerID != "" {
		known, err := s.Customers.Exists(tx, customerID)
		if err != nil {
			return SettleResult{}, errors.Wrap(err, "resolve customer")
		}
		if !known {
			customerID = ""
		}
	}

	// Order row first, pending with zero totals, so items have an id to
	// attach to.
	orderID := uuid.NewString()
	if err := s.Orders.Create(tx, orderID, customerID, req.SalespersonID, req.AssistantID); err != nil {
		return SettleResult{}, errors.Wrap(err, "create order")
	}

	// Catalog lookup per line, up front: pricing reflects catalog state at
	// sale time, and a stock shortfall aborts before anything is priced.
	priceIn := make([]LineInput, len(req.Lines))
	for i, ln := range req.Lines {
		if ln.Quantity < 1 {
			return SettleResult{}, domain.ErrEmptyOrder
		}
		info, err := s.Products.GetForSale(tx, ln.ProductID)
		if err != nil {
			return SettleResult{}, err
		}
		if ln.Quantity > info.Quantity {
			return SettleResult{}, &domain.InsufficientStockError{
				ProductID: ln.ProductID, Requested: ln.Quantity, Available: info.Quantity,
			}
		}
		priceIn[i] = LineInput{UnitPrice: info.Price, Quantity: ln.Quantity, DiscountPct: ln.DiscountPct}
	}

	totals, err := s.Pricer.PriceLines(priceIn)
	if err != nil {
		return SettleResult{}, err
	}

	// Payment validated before any stock moves.
	if req.AmountPaid.LessThan(totals.Total) {
		return SettleResult{}, domain.ErrInsufficientPayment
	}

	var lowStock []string
	for i, ln := range req.Lines {
		// Captured price: the discounted per-unit amount, frozen on the item.
		if err := s.Orders.InsertItem(tx, domain.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			ProductID: ln.ProductID,
			Quantity:  ln.Quantity,
			Price:     totals.UnitPrices[i],
		}); err != nil {
			return SettleResult{}, errors.Wrap(err, "insert order item")
		}

		adj, err := s.Ledger.Adjust(tx, ln.ProductID, -ln.Quantity, "", "sale", req.SalespersonID)
		if err != nil {
			return SettleResult{}, err
		}
		if adj.LowStock {
			lowStock = append(lowStock, ln.ProductID)
		}
	}

	change := req.AmountPaid.Sub(totals.Total)
	if err := s.Orders.InsertTransaction(tx, domain.Transaction{
		ID:            uuid.NewString(),
		OrderID:       orderID,
		PaymentMethod: req.PaymentMethod,
		AmountPaid:    req.AmountPaid,
		ChangeAmount:  change,
	}); err != nil {
		return SettleResult{}, errors.Wrap(err, "insert transaction")
	}

	if err := s.Orders.Finalize(tx, orderID, totals.Subtotal, totals.Tax, totals.Total); err != nil {
		return SettleResult{}, errors.Wrap(err, "finalize order")
	}

	if customerID != "" {
		if _, err := s.Customers.Recompute(tx, customerID); err != nil {
			return SettleResult{}, err
		}
	}

	return SettleResult{
		OrderID:  orderID,
		Subtotal: totals.Subtotal,
		Tax:      totals.Tax,
		Total:    totals.Total,
		Change:   change,
		LowStock: lowStock,
	}, nil
}

type RefundResult struct {
	OrderID       string
	ReturnedItems []string
	// Partial-item tracking: stock is restored and items flagged, but the
	// order's totals, completed status and original payment stay untouched.
	TotalsReversed bool
	LowStock       []string
}

// Refund restores stock for the selected items of a completed order, marks
// them returned and recomputes the customer aggregate. The audit trail
// survives: items are flagged, never deleted.
func (s *SettlementService) Refund(orderID string, itemIDs []string, reason, actorID string) (RefundResult, error) {
	if len(itemIDs) == 0 {
		return RefundResult{}, domain.ErrNoReturnItems
	}
	if strings.TrimSpace(reason) == "" {
		return RefundResult{}, domain.ErrInvalidAdjustment
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return RefundResult{}, errors.Wrap(err, "begin refund")
	}
	defer func() { _ = tx.Rollback() }()

	order, err := s.Orders.Get(tx, orderID)
	if err != nil {
		return RefundResult{}, err
	}
	if order.Status != domain.OrderCompleted {
		return RefundResult{}, domain.ErrOrderNotCompleted
	}

	items, err := s.Orders.ItemsByID(tx, orderID, itemIDs)
	if err != nil {
		return RefundResult{}, errors.Wrap(err, "load order items")
	}
	if len(items) != len(itemIDs) {
		return RefundResult{}, domain.ErrNoReturnItems
	}

	res := RefundResult{OrderID: orderID}
	for _, it := range items {
		if it.Status == "returned" {
			return RefundResult{}, domain.ErrItemReturned
		}
		adj, err := s.Ledger.Adjust(tx, it.ProductID, it.Quantity, domain.AdjustReturn, reason, actorID)
		if err != nil {
			return RefundResult{}, err
		}
		if adj.LowStock {
			res.LowStock = append(res.LowStock, it.ProductID)
		}
		if err := s.Orders.MarkItemReturned(tx, it.ID); err != nil {
			return RefundResult{}, errors.Wrap(err, "mark item returned")
		}
		res.ReturnedItems = append(res.ReturnedItems, it.ID)
	}

	if order.CustomerID != "" {
		if _, err := s.Customers.Recompute(tx, order.CustomerID); err != nil {
			return RefundResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return RefundResult{}, errors.Wrap(err, "commit refund")
	}
	return res, nil
}
