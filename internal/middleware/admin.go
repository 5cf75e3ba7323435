package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// AdminRequired admits identities with the admin role or whose e-mail is in
// the comma-separated adminEmails list. It must run after Auth.Required.
func AdminRequired(adminEmails string) fiber.Handler {
	emails := parseCSV(strings.ToLower(adminEmails))

	return func(c *fiber.Ctx) error {
		id, ok := CurrentIdentity(c)
		if !ok {
			return authRequired(c)
		}
		if IsAdmin(id, emails) {
			return c.Next()
		}
		return forbidden(c)
	}
}

// IsAdmin reports whether id has admin rights: the stored user carries the
// admin role or its e-mail is allow-listed.
func IsAdmin(id *Identity, adminEmails []string) bool {
	if id == nil {
		return false
	}
	if id.User != nil && id.User.IsAdmin() {
		return true
	}
	return contains(adminEmails, strings.ToLower(id.Email))
}

func authRequired(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(
		dto.NewError(dto.CodeAuthRequired, "Access denied. Authentication required."))
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(
		dto.NewError(dto.CodeInsufficientPermissions, "Access denied. Insufficient permissions."))
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
