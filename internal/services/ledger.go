package services

import (
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"shoptill/internal/domain"
	"shoptill/internal/repos"
)

// Ledger is the only write path to inventory quantities. Every mutation is
// an atomic conditional update paired with one stock_adjustments audit row,
// both inside the caller's transaction.
type Ledger struct {
	DB  *sqlx.DB
	Inv *repos.InventoryRepo
}

func NewLedger(db *sqlx.DB, inv *repos.InventoryRepo) *Ledger {
	return &Ledger{DB: db, Inv: inv}
}

type AdjustResult struct {
	NewQty int
	// LowStock signals the caller that the product fell to or below its
	// threshold. Raising a notification is the caller's business.
	LowStock bool
}

// Adjust applies delta to a product's stock within q. Fails with
// InsufficientStockError if the delta would drive the quantity negative,
// and with ErrInvalidAdjustment on a zero delta or a missing reason.
// typ may be empty, in which case it is inferred from the delta sign.
func (l *Ledger) Adjust(q sqlx.Ext, productID string, delta int, typ, reason, actorID string) (AdjustResult, error) {
	if delta == 0 || strings.TrimSpace(reason) == "" {
		return AdjustResult{}, domain.ErrInvalidAdjustment
	}
	if typ == "" {
		if delta > 0 {
			typ = domain.AdjustAddition
		} else {
			typ = domain.AdjustReduction
		}
	}

	qty, threshold, err := l.Inv.ApplyDelta(q, productID, delta)
	if err != nil {
		if domain.IsBusinessError(err) {
			return AdjustResult{}, err
		}
		return AdjustResult{}, errors.Wrap(err, "inventory update")
	}

	if err := l.Inv.InsertAdjustment(q, domain.StockAdjustment{
		ID:         uuid.NewString(),
		ProductID:  productID,
		Delta:      delta,
		Type:       typ,
		Reason:     reason,
		AdjustedBy: actorID,
	}); err != nil {
		return AdjustResult{}, errors.Wrap(err, "stock adjustment audit")
	}

	return AdjustResult{NewQty: qty, LowStock: qty <= threshold}, nil
}

// ManualAdjust runs a standalone stock edit (recounts, breakage, deliveries)
// in its own transaction. correction marks the row as an explicit recount
// instead of inferring addition/reduction from the sign.
func (l *Ledger) ManualAdjust(productID string, delta int, correction bool, reason, actorID string) (AdjustResult, error) {
	typ := ""
	if correction {
		typ = domain.AdjustCorrection
	}

	tx, err := l.DB.Beginx()
	if err != nil {
		return AdjustResult{}, errors.Wrap(err, "begin adjust")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := l.Adjust(tx, productID, delta, typ, reason, actorID)
	if err != nil {
		return AdjustResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return AdjustResult{}, errors.Wrap(err, "commit adjust")
	}
	return res, nil
}
