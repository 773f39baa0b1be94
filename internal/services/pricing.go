package services

import (
	"github.com/shopspring/decimal"

	"shoptill/internal/domain"
)

var (
	oneHundred = decimal.NewFromInt(100)
)

// Pricer computes line totals, subtotal, tax and total for a cart. All
// arithmetic is fixed-point decimal; every stored amount carries exactly
// two decimal places.
type Pricer struct {
	TaxRate decimal.Decimal
}

func NewPricer(taxRate decimal.Decimal) Pricer { return Pricer{TaxRate: taxRate} }

type LineInput struct {
	UnitPrice   decimal.Decimal
	Quantity    int
	DiscountPct decimal.Decimal // 0..100, post-discount price is taxed
}

type Totals struct {
	// UnitPrices are the post-discount per-unit prices, rounded to two
	// places. These are what settlement captures onto order items.
	UnitPrices []decimal.Decimal
	LineTotals []decimal.Decimal
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
}

// PriceLines prices a cart. Each line is rounded to two places before
// summation so long carts cannot accumulate cent drift.
func (p Pricer) PriceLines(lines []LineInput) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, domain.ErrEmptyOrder
	}

	t := Totals{
		UnitPrices: make([]decimal.Decimal, 0, len(lines)),
		LineTotals: make([]decimal.Decimal, 0, len(lines)),
		Subtotal:   decimal.Zero,
	}
	for _, ln := range lines {
		if ln.Quantity < 1 {
			return Totals{}, domain.ErrEmptyOrder
		}
		if ln.DiscountPct.IsNegative() || ln.DiscountPct.GreaterThan(oneHundred) {
			return Totals{}, domain.ErrInvalidDiscount
		}
		unit := ln.UnitPrice
		if !ln.DiscountPct.IsZero() {
			unit = unit.Mul(oneHundred.Sub(ln.DiscountPct)).Div(oneHundred)
		}
		unit = unit.Round(2)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(ln.Quantity)))
		t.UnitPrices = append(t.UnitPrices, unit)
		t.LineTotals = append(t.LineTotals, lineTotal)
		t.Subtotal = t.Subtotal.Add(lineTotal)
	}

	t.Subtotal = t.Subtotal.Round(2)
	t.Tax = t.Subtotal.Mul(p.TaxRate).Round(2)
	t.Total = t.Subtotal.Add(t.Tax)
	return t, nil
}
