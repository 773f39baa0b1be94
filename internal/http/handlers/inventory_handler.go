package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"shoptill/internal/domain"
	applog "shoptill/internal/log"
	"shoptill/internal/services"
	"shoptill/internal/validate"
)

type InventoryHandler struct {
	Inv    *services.InventoryService
	Ledger *services.Ledger
}

// Check reports availability: GET /api/v1/availability?productId=...
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID := strings.TrimSpace(c.Query("productId"))
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing productId"})
	}

	avail, err := h.Inv.CheckAvailability(productID)
	if err != nil {
		applog.Error(c, "availability.check", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "availability check failed"})
	}
	return c.JSON(avail)
}

type adjustBody struct {
	ProductID  string `json:"product_id"`
	Delta      int    `json:"delta"`
	Correction bool   `json:"correction,omitempty"`
	Reason     string `json:"reason"`
}

// Adjust handles manual stock edits: POST /admin/stock/adjust. A non-empty
// reason is mandatory; a zero delta is rejected.
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	u, _ := c.Locals("user").(*domain.User)
	if u == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
	}

	var body adjustBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	productID, ok := validate.ID(body.ProductID)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product_id"})
	}
	reason, ok := validate.Reason(body.Reason)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "a reason is required"})
	}

	res, err := h.Ledger.ManualAdjust(productID, body.Delta, body.Correction, reason, u.ID)
	if err != nil {
		if domain.IsBusinessError(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		applog.Error(c, "stock.adjust.fail", err, map[string]any{"product_id": productID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not adjust stock"})
	}

	applog.Audit(c, "stock.adjust", map[string]any{
		"product_id": productID,
		"delta":      body.Delta,
		"new_qty":    res.NewQty,
	})
	if res.LowStock {
		applog.Audit(c, "stock.low", map[string]any{"product_id": productID})
	}
	return c.JSON(fiber.Map{"product_id": productID, "qty": res.NewQty, "low_stock": res.LowStock})
}

// LowStock lists products at or below their threshold: GET /admin/stock/low.
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	rows, err := h.Inv.LowStock()
	if err != nil {
		applog.Error(c, "stock.low.list", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not list low stock"})
	}
	return c.JSON(fiber.Map{"items": rows})
}
