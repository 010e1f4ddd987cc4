package handler

import (
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

type RoleHandler struct {
	userService   service.UserService
	privilegeRepo repository.PrivilegeRepository
}

func NewRoleHandler(userService service.UserService, privilegeRepo repository.PrivilegeRepository) *RoleHandler {
	return &RoleHandler{userService: userService, privilegeRepo: privilegeRepo}
}

// GetRoles returns all available roles with their privileges
// GET /api/v1/roles
func (h *RoleHandler) GetRoles(c *fiber.Ctx) error {
	roles, err := h.userService.GetRoles(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(roles)
}

// GetPrivileges lists every privilege code
// GET /api/v1/privileges
func (h *RoleHandler) GetPrivileges(c *fiber.Ctx) error {
	privileges, err := h.privilegeRepo.FindAll(c.UserContext())
	if err != nil {
		return respondError(c, apperror.Internal(err))
	}
	return c.JSON(privileges)
}
