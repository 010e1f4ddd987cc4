package middleware

import (
	"strings"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/apperror"
	"go-inventory-ledger/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by RequireAuth
const (
	ActorKey      = "actor"
	UserIDKey     = "user_id"
	PrivilegesKey = "user_privileges"
)

func deny(c *fiber.Ctx, e *apperror.AppError) error {
	return c.Status(e.HTTPStatus).JSON(fiber.Map{
		"error":   e.Code,
		"message": e.Message,
	})
}

// RequireAuth validates the bearer token and puts the caller's actor and privileges into locals
func RequireAuth(tokens *jwt.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return deny(c, apperror.Unauthorized("missing authorization token"))
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return deny(c, apperror.Unauthorized("invalid authorization format, use: Bearer <token>"))
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			return deny(c, apperror.Unauthorized("invalid or expired token"))
		}

		c.Locals(ActorKey, model.Actor{
			ID:       claims.UserID,
			Name:     claims.Name,
			Email:    claims.Email,
			RoleCode: claims.RoleCode,
		})
		c.Locals(UserIDKey, claims.UserID.String())
		c.Locals(PrivilegesKey, claims.Privileges)

		return c.Next()
	}
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals(PrivilegesKey).([]string)
		if !ok {
			return deny(c, apperror.Forbidden("no privileges found"))
		}

		for _, p := range privileges {
			if p == requiredPrivilege {
				return c.Next()
			}
		}

		return deny(c, apperror.Forbidden("requires '"+requiredPrivilege+"' privilege"))
	}
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals(PrivilegesKey).([]string)
		if !ok {
			return deny(c, apperror.Forbidden("no privileges found"))
		}

		for _, userPriv := range privileges {
			for _, reqPriv := range requiredPrivileges {
				if userPriv == reqPriv {
					return c.Next()
				}
			}
		}

		return deny(c, apperror.Forbidden("requires one of "+strings.Join(requiredPrivileges, ", ")+" privileges"))
	}
}
