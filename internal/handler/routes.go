package handler

import (
	"stockledger/internal/middleware"
	"stockledger/internal/model"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Products     *ProductHandler
	Categories   *CategoryHandler
	Suppliers    *SupplierHandler
	Transactions *TransactionHandler
	Reports      *ReportHandler
}

// RegisterRoutes mounts the API under router. Every route requires auth, writes also a privilege.
func RegisterRoutes(router fiber.Router, h Handlers, auth fiber.Handler) {
	protected := router.Group("", auth)
	priv := middleware.RequirePrivilege

	// Categories
	protected.Get("/categories", priv(model.PrivCategoryView), h.Categories.GetCategories)
	protected.Get("/categories/:id", priv(model.PrivCategoryView), h.Categories.GetCategory)
	protected.Post("/categories", priv(model.PrivCategoryManage), h.Categories.CreateCategory)
	protected.Put("/categories/:id", priv(model.PrivCategoryManage), h.Categories.UpdateCategory)
	protected.Delete("/categories/:id", priv(model.PrivCategoryManage), h.Categories.DeleteCategory)

	// Suppliers
	protected.Get("/suppliers", priv(model.PrivSupplierView), h.Suppliers.GetSuppliers)
	protected.Get("/suppliers/:id", priv(model.PrivSupplierView), h.Suppliers.GetSupplier)
	protected.Post("/suppliers", priv(model.PrivSupplierManage), h.Suppliers.CreateSupplier)
	protected.Put("/suppliers/:id", priv(model.PrivSupplierManage), h.Suppliers.UpdateSupplier)
	protected.Delete("/suppliers/:id", priv(model.PrivSupplierManage), h.Suppliers.DeleteSupplier)

	// Products
	protected.Get("/products", priv(model.PrivProductView), h.Products.GetProducts)
	protected.Get("/products/:id", priv(model.PrivProductView), h.Products.GetProduct)
	protected.Get("/products/:id/transactions",
		middleware.RequireAnyPrivilege(model.PrivTransactionView, model.PrivProductView),
		h.Products.GetProductTransactions)
	protected.Post("/products", priv(model.PrivProductCreate), h.Products.CreateProduct)
	protected.Put("/products/:id", priv(model.PrivProductUpdate), h.Products.UpdateProduct)
	protected.Delete("/products/:id", priv(model.PrivProductDelete), h.Products.DeleteProduct)

	// Transactions
	protected.Get("/transactions", priv(model.PrivTransactionView), h.Transactions.GetTransactions)
	protected.Get("/transactions/:id", priv(model.PrivTransactionView), h.Transactions.GetTransaction)
	protected.Post("/transactions", priv(model.PrivTransactionCreate), h.Transactions.CreateTransaction)

	// Reports
	protected.Get("/reports/dashboard", priv(model.PrivDashboardView), h.Reports.GetDashboard)
	protected.Get("/reports/stock-movement", priv(model.PrivDashboardView), h.Reports.GetStockMovement)
	protected.Get("/reports/low-stock", middleware.RequireAnyPrivilege(model.PrivDashboardView, model.PrivReportView), h.Reports.GetLowStock)
	protected.Get("/reports/stock", priv(model.PrivReportView), h.Reports.GetStockReport)
	protected.Get("/reports/top-selling", priv(model.PrivReportView), h.Reports.GetTopSelling)
}
