package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	applog "shoptill/internal/log"
	"shoptill/internal/services"
	"shoptill/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body loginBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	email, ok := validate.Email(body.Email)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid email"})
	}

	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
	}

	u, err := h.Auth.Login(sid, email, body.Password)
	if err != nil {
		applog.Security(c, "login.fail", map[string]any{"email": email})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid email or password"})
	}

	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false, // enable true behind TLS
	})
	applog.Audit(c, "login", map[string]any{"user_id": u.ID})
	return c.JSON(fiber.Map{"id": u.ID, "name": u.Name, "role": u.Role})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sid := c.Cookies("sid"); sid != "" {
		_ = h.Auth.Logout(sid)
	}
	c.ClearCookie("sid")
	applog.Info(c, "logout", nil)
	return c.JSON(fiber.Map{"ok": true})
}

type staffBody struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// CreateStaff registers a till account: POST /admin/staff.
func (h *AuthHandler) CreateStaff(c *fiber.Ctx) error {
	var body staffBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	email, ok := validate.Email(body.Email)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid email"})
	}
	name, ok := validate.Name(body.Name)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name must be 1-100 characters"})
	}
	if !validate.Password(body.Password) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "password must be 8-20 characters with upper, lower, digit and symbol",
		})
	}

	u, err := h.Auth.CreateStaff(email, name, body.Password, body.Role)
	if err != nil {
		if errors.Is(err, services.ErrBadRole) || errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		applog.Error(c, "staff.create", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not create staff account"})
	}

	applog.Audit(c, "staff.create", map[string]any{"user_id": u.ID, "role": u.Role})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": u.ID, "name": u.Name, "email": u.Email, "role": u.Role})
}
