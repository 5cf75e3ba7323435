package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
)

const ownershipKey = "ownership"

// OwnershipCheck carries what a handler needs to compare a resource's owner
// with the caller. The comparison itself happens once the resource is
// loaded.
type OwnershipCheck struct {
	UserID     string
	ResourceID string
	Admin      bool
}

// Ownership requires an identity and a well-formed :id parameter and
// records the inputs of the ownership comparison.
func Ownership(adminEmails string) fiber.Handler {
	emails := parseCSV(strings.ToLower(adminEmails))

	return func(c *fiber.Ctx) error {
		id, ok := CurrentIdentity(c)
		if !ok {
			return authRequired(c)
		}

		resourceID := c.Params("id")
		if resourceID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(
				dto.NewError(dto.CodeResourceIDRequired, "Resource ID required."))
		}
		if !validation.ValidID(resourceID) {
			return c.Status(fiber.StatusBadRequest).JSON(
				dto.NewError(dto.CodeInvalidID, "Invalid application ID format"))
		}

		c.Locals(ownershipKey, &OwnershipCheck{
			UserID:     id.UserID,
			ResourceID: resourceID,
			Admin:      IsAdmin(id, emails),
		})
		return c.Next()
	}
}

func CurrentOwnership(c *fiber.Ctx) (*OwnershipCheck, bool) {
	check, ok := c.Locals(ownershipKey).(*OwnershipCheck)
	return check, ok && check != nil
}
