package services_test

import (
	"errors"
	"testing"

	"shoptill/internal/domain"
)

func (e *env) aggregate(t *testing.T, customerID string) string {
	t.Helper()
	cust, err := e.custs.GetByID(customerID)
	if err != nil {
		t.Fatal(err)
	}
	return cust.TotalPurchaseValue.StringFixed(2)
}

func TestRecompute_SumsCompletedOrdersOnly(t *testing.T) {
	e := newEnv(t)
	e.db.MustExec(`INSERT INTO orders(id,customer_id,salesperson_id,subtotal,tax,total,status)
		VALUES ('o1','c1','u-sam',100.00,10.00,110.00,'completed'),
		       ('o2','c1','u-sam',50.00,5.00,55.00,'completed'),
		       ('o3','c1','u-sam',999.00,99.90,1098.90,'pending'),
		       ('o4','c1','u-sam',20.00,2.00,22.00,'cancelled')`)

	total, err := e.aggr.Recompute(e.db, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if total.StringFixed(2) != "165.00" {
		t.Fatalf("want 165.00, got %s", total)
	}
	if got := e.aggregate(t, "c1"); got != "165.00" {
		t.Fatalf("aggregate not persisted, got %s", got)
	}
}

func TestRecompute_Idempotent(t *testing.T) {
	e := newEnv(t)
	e.db.MustExec(`INSERT INTO orders(id,customer_id,salesperson_id,subtotal,tax,total,status)
		VALUES ('o1','c1','u-sam',100.00,10.00,110.00,'completed')`)

	for i := 0; i < 3; i++ {
		if _, err := e.aggr.Recompute(e.db, "c1"); err != nil {
			t.Fatal(err)
		}
	}
	if got := e.aggregate(t, "c1"); got != "110.00" {
		t.Fatalf("want 110.00 after repeated recompute, got %s", got)
	}
}

func TestRecompute_NoOrdersMeansZero(t *testing.T) {
	e := newEnv(t)
	e.db.MustExec(`UPDATE customers SET total_purchase_value=77.00 WHERE id='c1'`)

	total, err := e.aggr.Recompute(e.db, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if !total.IsZero() {
		t.Fatalf("want 0, got %s", total)
	}
}

func TestRecompute_UnknownCustomer(t *testing.T) {
	e := newEnv(t)

	_, err := e.aggr.Recompute(e.db, "ghost")
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("want ErrCustomerNotFound, got %v", err)
	}
}

// Reconciliation repairs an aggregate that drifted from its orders.
func TestRecomputeAll_FixesDrift(t *testing.T) {
	e := newEnv(t)
	e.db.MustExec(`INSERT INTO customers(id,name) VALUES ('c2','Joy')`)
	e.db.MustExec(`INSERT INTO orders(id,customer_id,salesperson_id,subtotal,tax,total,status)
		VALUES ('o1','c1','u-sam',100.00,10.00,110.00,'completed'),
		       ('o2','c2','u-sam',30.00,3.00,33.00,'completed')`)
	// drift both aggregates
	e.db.MustExec(`UPDATE customers SET total_purchase_value=5.00`)

	n, err := e.aggr.RecomputeAll()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("want 2 customers reconciled, got %d", n)
	}
	if got := e.aggregate(t, "c1"); got != "110.00" {
		t.Fatalf("c1 want 110.00, got %s", got)
	}
	if got := e.aggregate(t, "c2"); got != "33.00" {
		t.Fatalf("c2 want 33.00, got %s", got)
	}
}
