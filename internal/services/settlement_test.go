package services_test

import (
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"shoptill/internal/domain"
	"shoptill/internal/repos"
	"shoptill/internal/services"
)

// memdb opens the real schema in memory. Single connection: each sqlite
// :memory: connection is its own database.
func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:", false)
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type env struct {
	db     *sqlx.DB
	prods  *repos.ProductRepo
	inv    *repos.InventoryRepo
	orders *repos.OrderRepo
	custs  *repos.CustomerRepo
	ledger *services.Ledger
	aggr   *services.CustomerService
	settle *services.SettlementService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := memdb(t)

	e := &env{
		db:     db,
		prods:  repos.NewProductRepo(db),
		inv:    repos.NewInventoryRepo(db),
		orders: repos.NewOrderRepo(db),
		custs:  repos.NewCustomerRepo(db),
	}
	e.ledger = services.NewLedger(db, e.inv)
	e.aggr = services.NewCustomerService(db, e.custs, e.orders)
	e.settle = services.NewSettlementService(db, e.prods, e.orders, e.ledger, e.aggr, services.NewPricer(d("0.10")))

	// Fixture: one product with stock, one registered customer. Staff users
	// u-sam (SALES) and u-admin (ADMIN) come from the schema bootstrap.
	db.MustExec(`INSERT INTO products(id,sku,name,price) VALUES ('p1','TEA-001','Tea Tin 500g',100.00)`)
	db.MustExec(`INSERT INTO inventory(product_id,qty,low_stock_threshold) VALUES ('p1',10,3)`)
	db.MustExec(`INSERT INTO customers(id,name) VALUES ('c1','Mira')`)
	return e
}

func (e *env) qty(t *testing.T, productID string) int {
	t.Helper()
	q, err := e.inv.Qty(productID)
	if err != nil {
		t.Fatal(err)
	}
	return q
}

func (e *env) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	if err := e.db.Get(&n, query, args...); err != nil {
		t.Fatal(err)
	}
	return n
}

// Scenario: 2 x 100.00 at 10% tax, paid exactly 220.00.
func TestSettle_CompletedSale(t *testing.T) {
	e := newEnv(t)

	res, err := e.settle.Settle(services.SettleRequest{
		CustomerID:    "c1",
		SalespersonID: "u-sam",
		Lines:         []services.SaleLine{{ProductID: "p1", Quantity: 2}},
		PaymentMethod: domain.PayCash,
		AmountPaid:    d("220.00"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.OrderID == "" {
		t.Fatal("no order id")
	}
	if !res.Subtotal.Equal(d("200.00")) || !res.Tax.Equal(d("20.00")) || !res.Total.Equal(d("220.00")) {
		t.Fatalf("bad totals: %s/%s/%s", res.Subtotal, res.Tax, res.Total)
	}
	if !res.Change.IsZero() {
		t.Fatalf("want zero change, got %s", res.Change)
	}

	o, err := e.orders.GetByID(res.OrderID)
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.OrderCompleted {
		t.Fatalf("want completed, got %s", o.Status)
	}
	if !o.Total.Equal(o.Subtotal.Add(o.Tax)) {
		t.Fatalf("total %s != subtotal %s + tax %s", o.Total, o.Subtotal, o.Tax)
	}

	// stock decremented 10 -> 8, with one audit row
	if got := e.qty(t, "p1"); got != 8 {
		t.Fatalf("want qty=8, got %d", got)
	}
	if n, _ := e.inv.CountAdjustments("p1"); n != 1 {
		t.Fatalf("want 1 stock adjustment, got %d", n)
	}

	// payment recorded once
	tr, err := e.orders.GetTransaction(res.OrderID)
	if err != nil {
		t.Fatal(err)
	}
	if tr.PaymentMethod != domain.PayCash || !tr.AmountPaid.Equal(d("220.00")) || !tr.ChangeAmount.IsZero() {
		t.Fatalf("bad transaction: %+v", tr)
	}

	// customer aggregate updated
	cust, err := e.custs.GetByID("c1")
	if err != nil {
		t.Fatal(err)
	}
	if !cust.TotalPurchaseValue.Equal(d("220.00")) {
		t.Fatalf("want aggregate 220.00, got %s", cust.TotalPurchaseValue)
	}
}

func TestSettle_ChangeComputed(t *testing.T) {
	e := newEnv(t)

	res, err := e.settle.Settle(services.SettleRequest{
		SalespersonID: "u-sam",
		Lines:         []services.SaleLine{{ProductID: "p1", Quantity: 1}},
		PaymentMethod: domain.PayCash,
		AmountPaid:    d("150.00"),
	})
	if err != nil {
		t.Fatal(err)
	}
	// 100.00 + 10.00 tax = 110.00; change 40.00
	if !res.Change.Equal(d("40.00")) {
		t.Fatalf("want change 40.00, got %s", res.Change)
	}
}

// Scenario: payment short of the total leaves no trace of the attempt.
func TestSettle_InsufficientPaymentRollsBackEverything(t *testing.T) {
	e := newEnv(t)

	_, err := e.settle.Settle(services.SettleRequest{
		CustomerID:    "c1",
		SalespersonID: "u-sam",
		Lines:         []services.SaleLine{{ProductID: "p1", Quantity: 2}},
		PaymentMethod: domain.PayCard,
		AmountPaid:    d("200.00"), // total is 220.00
	})
	if !errors.Is(err, domain.ErrInsufficientPayment) {
		t.Fatalf("want ErrInsufficientPayment, got %v", err)
	}

	if got := e.qty(t, "p1"); got != 10 {
		t.Fatalf("stock must be untouched, got %d", got)
	}
	if n := e.count(t, `SELECT COUNT(*) FROM orders`); n != 0 {
		t.Fatalf("want no orders, got %d", n)
	}
	if n := e.count(t, `SELECT COUNT(*) FROM order_items`); n != 0 {
		t.Fatalf("want no order items, got %d", n)
	}
	if n := e.count(t, `SELECT COUNT(*) FROM stock_adjustments`); n != 0 {
		t.Fatalf("want no stock adjustments, got %d", n)
	}
	if n := e.count(t, `SELECT COUNT(*) FROM transactions`); n != 0 {
		t.Fatalf("want no transactions, got %d", n)
	}
}

// Scenario: requesting more than is on hand names the offending product.
func TestSettle_InsufficientStock(t *testing.T) {
	e := newEnv(t)
	e.db.MustExec(`UPDATE inventory SET qty=1 WHERE product_id='p1'`)

	_, err := e.settle.Settle(services.SettleRequest{
		SalespersonID: "u-sam",
		Lines:         []services.SaleLine{{ProductID: "p1", Quantity: 2}},
		PaymentMethod: domain.PayCash,
		AmountPaid:    d("500.00"),
	})
	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("want InsufficientStockError, got %v", err)
	}
	if stockErr.ProductID != "p1" || stockErr.Requested != 2 || stockErr.Available != 1 {
		t.Fatalf("bad error detail: %+v", stockErr)
	}

	if n := e.count(t, `SELECT COUNT(*) FROM orders`); n != 0 {
		t.Fatalf("want no rows written, got %d orders", n)
	}
	if got := e.qty(t, "p1"); got != 1 {
		t.Fatalf("stock must be untouched, got %d", got)
	}
}

// An unregistered customer id must not fail the sale; it degrades to walk-in.
func TestSettle_UnknownCustomerBecomesWalkIn(t *testing.T) {
	e := newEnv(t)

	res, err := e.settle.Settle(services.SettleRequest{
		CustomerID:    "ghost",
		SalespersonID: "u-sam",
		Lines:         []services.SaleLine{{ProductID: "p1", Quantity: 1}},
		PaymentMethod: domain.PayCash,
		AmountPaid:    d("110.00"),
	})
	if err != nil {
		t.Fatal(err)
	}

	o, err := e.orders.GetByID(res.OrderID)
	if err != nil {
		t.Fatal(err)
	}
	if o.CustomerID != "" {
		t.Fatalf("want walk-in order, got customer %q", o.CustomerID)
	}
	if o.Status != domain.OrderCompleted {
		t.Fatalf("want completed, got %s", o.Status)
	}
	if got := e.qty(t, "p1"); got != 9 {
		t.Fatalf("want qty=9, got %d", got)
	}
}

func TestSettle_RejectsEmptyCart(t *testing.T) {
	e := newEnv(t)

	_, err := e.settle.Settle(services.SettleRequest{
		SalespersonID: "u-sam",
		PaymentMethod: domain.PayCash,
		AmountPaid:    d("10.00"),
	})
	if !errors.Is(err, domain.ErrEmptyOrder) {
		t.Fatalf("want ErrEmptyOrder, got %v", err)
	}
}

func TestSettle_RejectsUnknownProduct(t *testing.T) {
	e := newEnv(t)

	_, err := e.settle.Settle(services.SettleRequest{
		SalespersonID: "u-sam",
		Lines:         []services.SaleLine{{ProductID: "ghost", Quantity: 1}},
		PaymentMethod: domain.PayCash,
		AmountPaid:    d("10.00"),
	})
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound, got %v", err)
	}
	if n := e.count(t, `SELECT COUNT(*) FROM orders`); n != 0 {
		t.Fatalf("want rollback, got %d orders", n)
	}
}

func TestSettle_RejectsInactiveProduct(t *testing.T) {
	e := newEnv(t)
	e.db.MustExec(`UPDATE products SET active=0 WHERE id='p1'`)

	_, err := e.settle.Settle(services.SettleRequest{
		SalespersonID: "u-sam",
		Lines:         []services.SaleLine{{ProductID: "p1", Quantity: 1}},
		PaymentMethod: domain.PayCash,
		AmountPaid:    d("200.00"),
	})
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound, got %v", err)
	}
}

func TestSettle_RejectsUnknownPaymentMethod(t *testing.T) {
	e := newEnv(t)

	_, err := e.settle.Settle(services.SettleRequest{
		SalespersonID: "u-sam",
		Lines:         []services.SaleLine{{ProductID: "p1", Quantity: 1}},
		PaymentMethod: "cheque",
		AmountPaid:    d("200.00"),
	})
	if !errors.Is(err, domain.ErrInvalidPayment) {
		t.Fatalf("want ErrInvalidPayment, got %v", err)
	}
}

// Captured line prices stay frozen when the catalog price changes later.
func TestSettle_CapturedPriceIsImmutable(t *testing.T) {
	e := newEnv(t)

	res, err := e.settle.Settle(services.SettleRequest{
		SalespersonID: "u-sam",
		Lines:         []services.SaleLine{{ProductID: "p1", Quantity: 1}},
		PaymentMethod: domain.PayCash,
		AmountPaid:    d("110.00"),
	})
	if err != nil {
		t.Fatal(err)
	}

	e.db.MustExec(`UPDATE products SET price=999.00 WHERE id='p1'`)

	items, err := e.orders.ItemsFor(res.OrderID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || !items[0].Price.Equal(d("100.00")) {
		t.Fatalf("captured price changed: %+v", items)
	}
}

func TestSettle_LowStockSignal(t *testing.T) {
	e := newEnv(t)
	e.db.MustExec(`UPDATE inventory SET qty=4, low_stock_threshold=3 WHERE product_id='p1'`)

	res, err := e.settle.Settle(services.SettleRequest{
		SalespersonID: "u-sam",
		Lines:         []services.SaleLine{{ProductID: "p1", Quantity: 1}},
		PaymentMethod: domain.PayCash,
		AmountPaid:    d("110.00"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.LowStock) != 1 || res.LowStock[0] != "p1" {
		t.Fatalf("want low-stock signal for p1, got %v", res.LowStock)
	}
}

func settleScenarioA(t *testing.T, e *env) services.SettleResult {
	t.Helper()
	res, err := e.settle.Settle(services.SettleRequest{
		CustomerID:    "c1",
		SalespersonID: "u-sam",
		Lines:         []services.SaleLine{{ProductID: "p1", Quantity: 2}},
		PaymentMethod: domain.PayCash,
		AmountPaid:    d("220.00"),
	})
	if err != nil {
		t.Fatal(err)
	}
	return res
}

// Scenario: returning one item restores stock and flags the item, but the
// order keeps its original totals and payment (partial-item tracking).
func TestRefund_RestoresStockAndKeepsTotals(t *testing.T) {
	e := newEnv(t)
	res := settleScenarioA(t, e) // stock now 8

	items, err := e.orders.ItemsFor(res.OrderID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("want 1 item, got %d", len(items))
	}

	ref, err := e.settle.Refund(res.OrderID, []string{items[0].ID}, "damaged box", "u-sam")
	if err != nil {
		t.Fatal(err)
	}
	if ref.TotalsReversed {
		t.Fatal("totals must not be reversed")
	}

	// the whole line (qty 2) comes back
	if got := e.qty(t, "p1"); got != 10 {
		t.Fatalf("want qty=10 after return, got %d", got)
	}

	items, _ = e.orders.ItemsFor(res.OrderID)
	if items[0].Status != "returned" {
		t.Fatalf("item not flagged returned: %+v", items[0])
	}

	// order totals and payment untouched
	o, _ := e.orders.GetByID(res.OrderID)
	if !o.Total.Equal(d("220.00")) || o.Status != domain.OrderCompleted {
		t.Fatalf("order mutated by refund: %+v", o)
	}
	if _, err := e.orders.GetTransaction(res.OrderID); err != nil {
		t.Fatalf("transaction missing after refund: %v", err)
	}

	// return leaves its own audit row (sale + return)
	if n, _ := e.inv.CountAdjustments("p1"); n != 2 {
		t.Fatalf("want 2 adjustments, got %d", n)
	}
	var typ string
	if err := e.db.Get(&typ, `SELECT adjustment_type FROM stock_adjustments WHERE delta > 0`); err != nil {
		t.Fatal(err)
	}
	if typ != domain.AdjustReturn {
		t.Fatalf("want return adjustment, got %s", typ)
	}
}

func TestRefund_RejectsDoubleReturn(t *testing.T) {
	e := newEnv(t)
	res := settleScenarioA(t, e)
	items, _ := e.orders.ItemsFor(res.OrderID)

	if _, err := e.settle.Refund(res.OrderID, []string{items[0].ID}, "damaged", "u-sam"); err != nil {
		t.Fatal(err)
	}
	_, err := e.settle.Refund(res.OrderID, []string{items[0].ID}, "damaged", "u-sam")
	if !errors.Is(err, domain.ErrItemReturned) {
		t.Fatalf("want ErrItemReturned, got %v", err)
	}
	if got := e.qty(t, "p1"); got != 10 {
		t.Fatalf("double return must not restock twice, got %d", got)
	}
}

func TestRefund_RequiresItemsAndReason(t *testing.T) {
	e := newEnv(t)
	res := settleScenarioA(t, e)
	items, _ := e.orders.ItemsFor(res.OrderID)

	_, err := e.settle.Refund(res.OrderID, nil, "damaged", "u-sam")
	if !errors.Is(err, domain.ErrNoReturnItems) {
		t.Fatalf("want ErrNoReturnItems, got %v", err)
	}
	_, err = e.settle.Refund(res.OrderID, []string{items[0].ID}, "  ", "u-sam")
	if !errors.Is(err, domain.ErrInvalidAdjustment) {
		t.Fatalf("want ErrInvalidAdjustment, got %v", err)
	}
}

func TestRefund_RejectsForeignItems(t *testing.T) {
	e := newEnv(t)
	res := settleScenarioA(t, e)

	_, err := e.settle.Refund(res.OrderID, []string{"not-an-item"}, "damaged", "u-sam")
	if !errors.Is(err, domain.ErrNoReturnItems) {
		t.Fatalf("want ErrNoReturnItems, got %v", err)
	}
}

func TestRefund_RejectsNonCompletedOrder(t *testing.T) {
	e := newEnv(t)
	e.db.MustExec(`INSERT INTO orders(id,salesperson_id,status) VALUES ('o-pending','u-sam','pending')`)
	e.db.MustExec(`INSERT INTO order_items(id,order_id,product_id,qty,price) VALUES ('it1','o-pending','p1',1,100.00)`)

	_, err := e.settle.Refund("o-pending", []string{"it1"}, "changed mind", "u-sam")
	if !errors.Is(err, domain.ErrOrderNotCompleted) {
		t.Fatalf("want ErrOrderNotCompleted, got %v", err)
	}
}

func TestRefund_RecomputesCustomerAggregate(t *testing.T) {
	e := newEnv(t)
	res := settleScenarioA(t, e)
	items, _ := e.orders.ItemsFor(res.OrderID)

	if _, err := e.settle.Refund(res.OrderID, []string{items[0].ID}, "damaged", "u-sam"); err != nil {
		t.Fatal(err)
	}

	// The order keeps its total and completed status, so the recomputed
	// aggregate still reflects it (the documented asymmetry).
	cust, err := e.custs.GetByID("c1")
	if err != nil {
		t.Fatal(err)
	}
	if !cust.TotalPurchaseValue.Equal(d("220.00")) {
		t.Fatalf("want aggregate 220.00, got %s", cust.TotalPurchaseValue)
	}
}
