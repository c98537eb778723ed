package handler

import (
	"strconv"

	"stockledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type TransactionHandler struct {
	ledger service.LedgerService
}

func NewTransactionHandler(l service.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledger: l}
}

// CreateTransaction records a stock movement.
func (h *TransactionHandler) CreateTransaction(c *fiber.Ctx) error {
	var req service.MovementInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	entry, err := h.ledger.RecordMovement(c.UserContext(), req, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Transaction recorded", "data": entry})
}

// GetTransactions returns the journal, newest first.
// Query params: limit (default: all)
func (h *TransactionHandler) GetTransactions(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "0"))
	if err != nil || limit < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid limit"})
	}
	transactions, err := h.ledger.ListTransactions(c.UserContext(), limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(transactions)
}

func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}
	entry, err := h.ledger.GetTransaction(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(entry)
}
