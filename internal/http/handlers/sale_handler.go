package handlers

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"shoptill/internal/domain"
	applog "shoptill/internal/log"
	"shoptill/internal/repos"
	"shoptill/internal/services"
	"shoptill/internal/validate"
)

type SaleHandler struct {
	Settle     *services.SettlementService
	Orders     *repos.OrderRepo
	Assistants *repos.AssistantRepo
}

type saleLineBody struct {
	ProductID   string `json:"product_id"`
	Quantity    int    `json:"quantity"`
	DiscountPct string `json:"discount_pct,omitempty"`
}

type saleBody struct {
	CustomerID    string         `json:"customer_id,omitempty"`
	AssistantID   string         `json:"assistant_id,omitempty"`
	Items         []saleLineBody `json:"items"`
	PaymentMethod string         `json:"payment_method"`
	AmountPaid    string         `json:"amount_paid"`
}

// Complete settles a sale: POST /api/v1/sales. The acting salesperson comes
// from the session, never from the body.
func (h *SaleHandler) Complete(c *fiber.Ctx) error {
	u, _ := c.Locals("user").(*domain.User)
	if u == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
	}

	var body saleBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if len(body.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": domain.ErrEmptyOrder.Error()})
	}

	amountPaid, err := decimal.NewFromString(body.AmountPaid)
	if err != nil || amountPaid.IsNegative() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid amount_paid"})
	}

	// Invalid assistant ids degrade to none, mirroring how an unknown
	// customer id degrades to a walk-in sale during settlement.
	assistantID := ""
	if id, ok := validate.ID(body.AssistantID); ok {
		if _, err := h.Assistants.Get(id); err == nil {
			assistantID = id
		} else if err != sql.ErrNoRows {
			applog.Error(c, "sale.assistant.lookup", err, nil)
		}
	}

	req := services.SettleRequest{
		CustomerID:    body.CustomerID,
		SalespersonID: u.ID,
		AssistantID:   assistantID,
		PaymentMethod: body.PaymentMethod,
		AmountPaid:    amountPaid,
	}
	for _, it := range body.Items {
		qty := validate.Qty(it.Quantity)
		if qty == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid quantity"})
		}
		disc := decimal.Zero
		if it.DiscountPct != "" {
			if disc, err = decimal.NewFromString(it.DiscountPct); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid discount_pct"})
			}
		}
		req.Lines = append(req.Lines, services.SaleLine{
			ProductID:   it.ProductID,
			Quantity:    qty,
			DiscountPct: disc,
		})
	}

	res, err := h.Settle.Settle(req)
	if err != nil {
		if domain.IsBusinessError(err) {
			applog.Security(c, "sale.settle.reject", map[string]any{"error": err.Error()})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		applog.Error(c, "sale.settle.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not complete the sale"})
	}

	applog.Audit(c, "sale.settle", map[string]any{
		"order_id": res.OrderID,
		"total":    res.Total.StringFixed(2),
		"change":   res.Change.StringFixed(2),
	})
	for _, pid := range res.LowStock {
		applog.Audit(c, "stock.low", map[string]any{"product_id": pid})
	}

	return c.JSON(fiber.Map{
		"order_id": res.OrderID,
		"subtotal": res.Subtotal.StringFixed(2),
		"tax":      res.Tax.StringFixed(2),
		"total":    res.Total.StringFixed(2),
		"change":   res.Change.StringFixed(2),
	})
}

type refundBody struct {
	ItemIDs []string `json:"item_ids"`
	Reason  string   `json:"reason"`
}

// Refund processes a return: POST /api/v1/orders/:id/refund.
func (h *SaleHandler) Refund(c *fiber.Ctx) error {
	u, _ := c.Locals("user").(*domain.User)
	if u == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
	}
	orderID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}

	var body refundBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	reason, ok := validate.Reason(body.Reason)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "a reason is required"})
	}

	res, err := h.Settle.Refund(orderID, body.ItemIDs, reason, u.ID)
	if err != nil {
		if domain.IsBusinessError(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		applog.Error(c, "refund.fail", err, map[string]any{"order_id": orderID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not process the return"})
	}

	applog.Audit(c, "refund.process", map[string]any{
		"order_id": orderID,
		"items":    len(res.ReturnedItems),
	})
	return c.JSON(fiber.Map{
		"order_id":        res.OrderID,
		"returned_items":  res.ReturnedItems,
		"totals_reversed": res.TotalsReversed,
	})
}

// View returns an order with its items and payment: GET /api/v1/orders/:id.
func (h *SaleHandler) View(c *fiber.Ctx) error {
	orderID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}

	o, err := h.Orders.GetByID(orderID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	items, err := h.Orders.ItemsFor(orderID)
	if err != nil {
		applog.Error(c, "order.items.load", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load order"})
	}

	resp := fiber.Map{"order": o, "items": items}
	if t, err := h.Orders.GetTransaction(orderID); err == nil {
		resp["transaction"] = t
	}
	return c.JSON(resp)
}
