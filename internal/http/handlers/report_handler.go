package handlers

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	applog "shoptill/internal/log"
	"shoptill/internal/report"
	"shoptill/internal/repos"
)

type ReportHandler struct {
	Orders *repos.OrderRepo
	Inv    *repos.InventoryRepo
}

// SalesCSV exports recent orders: GET /admin/reports/sales.csv.
func (h *ReportHandler) SalesCSV(c *fiber.Ctx) error {
	rows, err := h.Orders.ListForExport(0)
	if err != nil {
		applog.Error(c, "report.sales", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not build report"})
	}
	var buf bytes.Buffer
	if err := report.WriteOrdersCSV(&buf, rows); err != nil {
		applog.Error(c, "report.sales", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not build report"})
	}
	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", `attachment; filename="sales.csv"`)
	return c.Send(buf.Bytes())
}

// AdjustmentsCSV exports the stock audit trail: GET /admin/reports/adjustments.csv.
func (h *ReportHandler) AdjustmentsCSV(c *fiber.Ctx) error {
	rows, err := h.Inv.ListAdjustments(0)
	if err != nil {
		applog.Error(c, "report.adjustments", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not build report"})
	}
	var buf bytes.Buffer
	if err := report.WriteAdjustmentsCSV(&buf, rows); err != nil {
		applog.Error(c, "report.adjustments", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not build report"})
	}
	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", `attachment; filename="stock_adjustments.csv"`)
	return c.Send(buf.Bytes())
}
