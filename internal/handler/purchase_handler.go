package handler

import (
	"go-inventory-ledger/internal/ledger"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type PurchaseHandler struct {
	service service.PurchaseService
}

func NewPurchaseHandler(s service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{service: s}
}

// GetPurchases lists purchases, newest first
// GET /api/v1/purchases?status=&supplier_id=&page=&page_size=
func (h *PurchaseHandler) GetPurchases(c *fiber.Ctx) error {
	supplierID, err := queryID(c, "supplier_id")
	if err != nil {
		return respondError(c, err)
	}
	filter := repository.PurchaseFilter{
		Status:     ledger.PurchaseStatus(c.Query("status")),
		SupplierID: supplierID,
		Page:       queryPage(c),
	}

	purchases, total, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return paginated(c, purchases, total, filter.Page)
}

// GET /api/v1/purchases/:id
func (h *PurchaseHandler) GetPurchase(c *fiber.Ctx) error {
	id, err := paramID(c, "purchase")
	if err != nil {
		return respondError(c, err)
	}
	purchase, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(purchase)
}

// POST /api/v1/purchases
func (h *PurchaseHandler) CreateDraft(c *fiber.Ctx) error {
	var req service.PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	purchase, err := h.service.CreateDraft(c.UserContext(), getActor(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Purchase draft created", "data": purchase})
}

// PUT /api/v1/purchases/:id
func (h *PurchaseHandler) UpdateDraft(c *fiber.Ctx) error {
	id, err := paramID(c, "purchase")
	if err != nil {
		return respondError(c, err)
	}
	var req service.PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	purchase, err := h.service.UpdateDraft(c.UserContext(), getActor(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Purchase draft updated", "data": purchase})
}

// DELETE /api/v1/purchases/:id
func (h *PurchaseHandler) DeleteDraft(c *fiber.Ctx) error {
	id, err := paramID(c, "purchase")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeleteDraft(c.UserContext(), getActor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Purchase draft deleted"})
}

// POST /api/v1/purchases/:id/post
func (h *PurchaseHandler) Post(c *fiber.Ctx) error {
	id, err := paramID(c, "purchase")
	if err != nil {
		return respondError(c, err)
	}
	purchase, err := h.service.Post(c.UserContext(), getActor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Purchase posted", "data": purchase})
}

// Cancel takes an optional {"reason": "..."} body
// POST /api/v1/purchases/:id/cancel
func (h *PurchaseHandler) Cancel(c *fiber.Ctx) error {
	id, err := paramID(c, "purchase")
	if err != nil {
		return respondError(c, err)
	}
	var req service.CancelPurchaseRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidJSON(c)
		}
	}

	purchase, err := h.service.Cancel(c.UserContext(), getActor(c), id, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Purchase cancelled", "data": purchase})
}
