// Package report renders read-only CSV exports for the dashboard and
// bookkeeping consumers. It imposes nothing on the settlement engine beyond
// field stability.
package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"shoptill/internal/repos"
)

func WriteOrdersCSV(w io.Writer, rows []repos.OrderExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"order_id", "customer", "salesperson", "subtotal", "tax", "total", "payment_method", "status", "created_at"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.ID, r.CustomerName, r.Salesperson,
			r.Subtotal.StringFixed(2), r.Tax.StringFixed(2), r.Total.StringFixed(2),
			r.PaymentMethod, r.Status, r.CreatedAt,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteAdjustmentsCSV(w io.Writer, rows []repos.AdjustmentRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "product_id", "product", "delta", "type", "reason", "adjusted_by", "created_at"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.ID, r.ProductID, r.Product, strconv.Itoa(r.Delta),
			r.Type, r.Reason, r.AdjustedBy, r.CreatedAt,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
