package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"shoptill/internal/domain"
	applog "shoptill/internal/log"
	"shoptill/internal/repos"
	"shoptill/internal/services"
	"shoptill/internal/validate"
)

type CustomerHandler struct {
	Customers *repos.CustomerRepo
	Aggregate *services.CustomerService
}

func (h *CustomerHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "customer not found"})
	}
	cust, err := h.Customers.GetByID(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "customer not found"})
	}
	return c.JSON(cust)
}

func (h *CustomerHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	const pageSize = 50
	customers, err := h.Customers.List(pageSize, (page-1)*pageSize)
	if err != nil {
		applog.Error(c, "customers.list", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not list customers"})
	}
	return c.JSON(fiber.Map{"customers": customers, "page": page})
}

type customerBody struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	var body customerBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	name, ok := validate.Name(body.Name)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name must be 1-100 characters"})
	}
	email := ""
	if body.Email != "" {
		var ok bool
		if email, ok = validate.Email(body.Email); !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid email"})
		}
	}
	phone, ok := validate.Phone(body.Phone)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid phone number"})
	}

	cust := domain.Customer{ID: uuid.NewString(), Name: name, Email: email, Phone: phone}
	if err := h.Customers.Create(cust); err != nil {
		applog.Error(c, "customer.create", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not create customer"})
	}
	applog.Audit(c, "customer.create", map[string]any{"customer_id": cust.ID})
	return c.Status(fiber.StatusCreated).JSON(cust)
}

// Recompute runs the batch aggregate reconciliation:
// POST /admin/customers/recompute.
func (h *CustomerHandler) Recompute(c *fiber.Ctx) error {
	n, err := h.Aggregate.RecomputeAll()
	if err != nil {
		applog.Error(c, "customers.recompute", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "reconciliation failed"})
	}
	applog.Audit(c, "customers.recompute", map[string]any{"updated": n})
	return c.JSON(fiber.Map{"updated": n})
}
