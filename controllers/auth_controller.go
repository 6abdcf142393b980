package controller

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"newsletter/middleware"
	"newsletter/store"
	"newsletter/utils"
)

type AuthController struct {
	Store      *store.Store
	JWTSecret  string
	SessionTTL time.Duration
	Secure     bool
	Logger     *logrus.Entry
}

func NewAuthController(s *store.Store, secret string, ttl time.Duration, secure bool, logger *logrus.Entry) *AuthController {
	return &AuthController{
		Store:      s,
		JWTSecret:  secret,
		SessionTTL: ttl,
		Secure:     secure,
		Logger:     logger,
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	admin, err := ac.Store.FindAdminByUsername(c.UserContext(), req.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		utils.LogError("admin_login_lookup_failed", err, nil)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", nil)
	}
	if admin == nil || !admin.CheckPassword(req.Password) {
		ac.Logger.WithFields(logrus.Fields{
			"username": req.Username,
			"ip":       c.IP(),
		}).Warn("Failed admin login")
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid username or password", nil)
	}

	token, expiresAt, err := utils.GenerateAdminToken(admin.ID, admin.Username, ac.JWTSecret, ac.SessionTTL)
	if err != nil {
		utils.LogError("admin_token_failed", err, nil)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", nil)
	}

	if err := ac.Store.TouchAdminLogin(c.UserContext(), admin.ID); err != nil {
		ac.Logger.WithError(err).Warn("Failed to record last login")
	}

	c.Cookie(&fiber.Cookie{
		Name:     "admin_token",
		Value:    token,
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   ac.Secure,
		SameSite: "Strict",
	})

	utils.LogEvent("admin_login", map[string]interface{}{
		"admin_id": admin.ID,
		"ip":       c.IP(),
	})

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"token":      token,
		"expires_at": expiresAt,
		"admin":      admin,
	}))
}

func (ac *AuthController) Logout(c *fiber.Ctx) error {
	c.ClearCookie("admin_token")
	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Logged out"}))
}

func (ac *AuthController) Me(c *fiber.Ctx) error {
	return c.JSON(utils.SuccessResponse(middleware.CurrentAdmin(c)))
}
