package handler

import (
	"stockledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SupplierHandler struct {
	suppliers service.SupplierService
	reports   service.ReportService
}

func NewSupplierHandler(ss service.SupplierService, rs service.ReportService) *SupplierHandler {
	return &SupplierHandler{suppliers: ss, reports: rs}
}

// GetSuppliers lists active suppliers with product counts.
// Query params: search (name, contact person or email)
func (h *SupplierHandler) GetSuppliers(c *fiber.Ctx) error {
	suppliers, err := h.suppliers.List(c.UserContext(), c.Query("search"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(suppliers)
}

// GetSupplier returns the supplier rollup: products, their value and recent movements.
func (h *SupplierHandler) GetSupplier(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid supplier ID"})
	}
	summary, err := h.reports.SupplierRollup(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(summary)
}

func (h *SupplierHandler) CreateSupplier(c *fiber.Ctx) error {
	var req service.SupplierInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	supplier, err := h.suppliers.Create(c.UserContext(), req, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Supplier created", "data": supplier})
}

func (h *SupplierHandler) UpdateSupplier(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid supplier ID"})
	}
	var req service.SupplierInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	supplier, err := h.suppliers.Update(c.UserContext(), id, req, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Supplier updated", "data": supplier})
}

func (h *SupplierHandler) DeleteSupplier(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid supplier ID"})
	}
	if err := h.suppliers.Deactivate(c.UserContext(), id, actor(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Supplier deleted"})
}
