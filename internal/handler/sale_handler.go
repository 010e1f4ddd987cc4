package handler

import (
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SaleHandler struct {
	service service.SaleService
}

func NewSaleHandler(s service.SaleService) *SaleHandler {
	return &SaleHandler{service: s}
}

// GET /api/v1/sales?from=&to=&page=&page_size=
func (h *SaleHandler) GetSales(c *fiber.Ctx) error {
	from, err := queryTime(c, "from", false)
	if err != nil {
		return respondError(c, err)
	}
	to, err := queryTime(c, "to", true)
	if err != nil {
		return respondError(c, err)
	}
	filter := repository.SaleFilter{From: from, To: to, Page: queryPage(c)}

	sales, total, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return paginated(c, sales, total, filter.Page)
}

// GET /api/v1/sales/:id
func (h *SaleHandler) GetSale(c *fiber.Ctx) error {
	id, err := paramID(c, "sale")
	if err != nil {
		return respondError(c, err)
	}
	sale, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sale)
}

// POST /api/v1/sales
func (h *SaleHandler) CreateSale(c *fiber.Ctx) error {
	var req service.SaleRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	sale, err := h.service.Create(c.UserContext(), getActor(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Sale recorded", "data": sale})
}

// PUT /api/v1/sales/:id
func (h *SaleHandler) UpdateSale(c *fiber.Ctx) error {
	id, err := paramID(c, "sale")
	if err != nil {
		return respondError(c, err)
	}
	var req service.SaleRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	sale, err := h.service.Update(c.UserContext(), getActor(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Sale updated", "data": sale})
}

// DELETE /api/v1/sales/:id
func (h *SaleHandler) DeleteSale(c *fiber.Ctx) error {
	id, err := paramID(c, "sale")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.Delete(c.UserContext(), getActor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Sale deleted"})
}
