package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shoptill/internal/domain"
	applog "shoptill/internal/log"
	"shoptill/internal/repos"
	"shoptill/internal/services"
	"shoptill/internal/validate"
)

type ProductHandler struct {
	Catalog  *services.CatalogService
	Products *repos.ProductRepo
}

// Info serves the till screen lookup: GET /api/v1/products/:id.
func (h *ProductHandler) Info(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	info, err := h.Catalog.GetProductInfo(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	return c.JSON(info)
}

type productBody struct {
	SKU               string `json:"sku"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	Price             string `json:"price"`
	CategoryID        string `json:"category_id,omitempty"`
	BrandID           string `json:"brand_id,omitempty"`
	SupplierID        string `json:"supplier_id,omitempty"`
	Qty               int    `json:"qty"`
	LowStockThreshold int    `json:"low_stock_threshold,omitempty"`
}

// Create registers a product with its opening stock: POST /admin/products.
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var body productBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	sku, ok := validate.SKU(body.SKU)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid sku"})
	}
	name, ok := validate.Name(body.Name)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name must be 1-100 characters"})
	}
	price, err := decimal.NewFromString(body.Price)
	if err != nil || price.IsNegative() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid price"})
	}
	if body.Qty < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid qty"})
	}
	threshold := body.LowStockThreshold
	if threshold < 1 {
		threshold = 5
	}

	p := domain.Product{
		ID:          uuid.NewString(),
		SKU:         sku,
		Name:        name,
		Description: body.Description,
		Price:       price,
		CategoryID:  body.CategoryID,
		BrandID:     body.BrandID,
		SupplierID:  body.SupplierID,
		Active:      true,
	}
	if err := h.Products.Create(p, body.Qty, threshold); err != nil {
		applog.Error(c, "product.create", err, map[string]any{"sku": sku})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not create product"})
	}
	applog.Audit(c, "product.create", map[string]any{"product_id": p.ID, "sku": sku})
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	products, err := h.Catalog.ListProducts(page, 25)
	if err != nil {
		applog.Error(c, "products.list", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not list products"})
	}
	return c.JSON(fiber.Map{"products": products, "page": page})
}
