package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"newsletter/models"
	"newsletter/utils"
)

// AdminFinder loads the admin named in a session token.
type AdminFinder interface {
	FindAdminByID(ctx context.Context, id uint) (*models.AdminUser, error)
}

// AdminProtected requires a valid admin session token, taken from the
// Authorization header or the admin_token cookie. The admin is stored in
// Locals under "admin".
func AdminProtected(secret string, admins AdminFinder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string
		authHeader := c.Get("Authorization")
		if authHeader != "" {
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"success": false,
					"error":   "Invalid authorization format",
				})
			}
			token = tokenParts[1]
		} else {
			token = c.Cookies("admin_token")
			if token == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"success": false,
					"error":   "Authorization required",
				})
			}
		}

		claims, err := utils.ParseAdminToken(token, secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid or expired token",
			})
		}

		admin, err := admins.FindAdminByID(c.UserContext(), claims.AdminID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Admin not found",
			})
		}

		c.Locals("admin", admin)
		c.Locals("adminID", admin.ID)

		return c.Next()
	}
}

// CurrentAdmin returns the admin set by AdminProtected, or nil.
func CurrentAdmin(c *fiber.Ctx) *models.AdminUser {
	admin, _ := c.Locals("admin").(*models.AdminUser)
	return admin
}
