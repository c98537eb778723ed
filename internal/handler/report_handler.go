package handler

import (
	"strconv"

	"stockledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

const defaultMovementDays = 7

type ReportHandler struct {
	reports  service.ReportService
	defaults service.ReportSettings
}

func NewReportHandler(rs service.ReportService, defaults service.ReportSettings) *ReportHandler {
	return &ReportHandler{reports: rs, defaults: defaults}
}

func (h *ReportHandler) GetDashboard(c *fiber.Ctx) error {
	dashboard, err := h.reports.Dashboard(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dashboard)
}

func (h *ReportHandler) GetStockReport(c *fiber.Ctx) error {
	report, err := h.reports.StockReport(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(report)
}

func (h *ReportHandler) GetLowStock(c *fiber.Ctx) error {
	products, err := h.reports.LowStock(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"count": len(products), "data": products})
}

// GetTopSelling ranks products by units sold.
// Query params: days, limit (defaults from configuration)
func (h *ReportHandler) GetTopSelling(c *fiber.Ctx) error {
	days := positiveQuery(c, "days", h.defaults.TopSellingWindowDays)
	limit := positiveQuery(c, "limit", h.defaults.TopSellingLimit)

	top, err := h.reports.TopSelling(c.UserContext(), days, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"period": days, "data": top})
}

// GetStockMovement returns stock movement data for charts
// Query params: days (default 7)
func (h *ReportHandler) GetStockMovement(c *fiber.Ctx) error {
	days := positiveQuery(c, "days", defaultMovementDays)

	data, err := h.reports.StockMovement(c.UserContext(), days)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"period": days, "data": data})
}

// positiveQuery falls back to def when the parameter is missing or not a positive integer.
func positiveQuery(c *fiber.Ctx, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
