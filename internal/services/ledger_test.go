package services_test

import (
	"errors"
	"testing"

	"shoptill/internal/domain"
)

func TestLedger_ManualAddition(t *testing.T) {
	e := newEnv(t)

	res, err := e.ledger.ManualAdjust("p1", 5, false, "delivery from supplier", "u-admin")
	if err != nil {
		t.Fatal(err)
	}
	if res.NewQty != 15 {
		t.Fatalf("want qty=15, got %d", res.NewQty)
	}
	if res.LowStock {
		t.Fatal("15 over threshold 3 is not low stock")
	}

	var typ string
	if err := e.db.Get(&typ, `SELECT adjustment_type FROM stock_adjustments WHERE product_id='p1'`); err != nil {
		t.Fatal(err)
	}
	if typ != domain.AdjustAddition {
		t.Fatalf("want addition, got %s", typ)
	}
}

func TestLedger_ManualReduction(t *testing.T) {
	e := newEnv(t)

	res, err := e.ledger.ManualAdjust("p1", -4, false, "breakage on shelf 2", "u-admin")
	if err != nil {
		t.Fatal(err)
	}
	if res.NewQty != 6 {
		t.Fatalf("want qty=6, got %d", res.NewQty)
	}

	var typ string
	if err := e.db.Get(&typ, `SELECT adjustment_type FROM stock_adjustments WHERE product_id='p1'`); err != nil {
		t.Fatal(err)
	}
	if typ != domain.AdjustReduction {
		t.Fatalf("want reduction, got %s", typ)
	}
}

func TestLedger_CorrectionType(t *testing.T) {
	e := newEnv(t)

	if _, err := e.ledger.ManualAdjust("p1", -2, true, "annual recount", "u-admin"); err != nil {
		t.Fatal(err)
	}

	var typ string
	if err := e.db.Get(&typ, `SELECT adjustment_type FROM stock_adjustments WHERE product_id='p1'`); err != nil {
		t.Fatal(err)
	}
	if typ != domain.AdjustCorrection {
		t.Fatalf("want correction, got %s", typ)
	}
}

// A reduction past zero must leave both the quantity and the audit trail
// untouched.
func TestLedger_RefusesOverdraw(t *testing.T) {
	e := newEnv(t)

	_, err := e.ledger.ManualAdjust("p1", -11, false, "typo in recount", "u-admin")
	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("want InsufficientStockError, got %v", err)
	}
	if stockErr.Available != 10 {
		t.Fatalf("want available=10, got %d", stockErr.Available)
	}

	if got := e.qty(t, "p1"); got != 10 {
		t.Fatalf("qty must be untouched, got %d", got)
	}
	if n, _ := e.inv.CountAdjustments("p1"); n != 0 {
		t.Fatalf("want no audit rows, got %d", n)
	}
}

func TestLedger_RejectsZeroDeltaAndEmptyReason(t *testing.T) {
	e := newEnv(t)

	_, err := e.ledger.ManualAdjust("p1", 0, false, "no-op", "u-admin")
	if !errors.Is(err, domain.ErrInvalidAdjustment) {
		t.Fatalf("want ErrInvalidAdjustment, got %v", err)
	}
	_, err = e.ledger.ManualAdjust("p1", 3, false, "   ", "u-admin")
	if !errors.Is(err, domain.ErrInvalidAdjustment) {
		t.Fatalf("want ErrInvalidAdjustment, got %v", err)
	}
	if n, _ := e.inv.CountAdjustments("p1"); n != 0 {
		t.Fatalf("want no audit rows, got %d", n)
	}
}

func TestLedger_UnknownProduct(t *testing.T) {
	e := newEnv(t)

	_, err := e.ledger.ManualAdjust("ghost", 5, false, "delivery", "u-admin")
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound, got %v", err)
	}
}

func TestLedger_LowStockFlag(t *testing.T) {
	e := newEnv(t)

	// 10 - 7 = 3, exactly at the threshold
	res, err := e.ledger.ManualAdjust("p1", -7, false, "bulk order pickup", "u-admin")
	if err != nil {
		t.Fatal(err)
	}
	if !res.LowStock {
		t.Fatal("qty at threshold must flag low stock")
	}
}

func TestLedger_OneAuditRowPerMutation(t *testing.T) {
	e := newEnv(t)

	for i := 0; i < 3; i++ {
		if _, err := e.ledger.ManualAdjust("p1", 1, false, "restock", "u-admin"); err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := e.inv.CountAdjustments("p1"); n != 3 {
		t.Fatalf("want 3 audit rows, got %d", n)
	}
	if got := e.qty(t, "p1"); got != 13 {
		t.Fatalf("want qty=13, got %d", got)
	}
}
