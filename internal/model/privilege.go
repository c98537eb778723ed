package model

// Privilege codes carried in the bearer token's privileges claim.
const (
	PrivProductView   = "product:view"
	PrivProductCreate = "product:create"
	PrivProductUpdate = "product:update"
	PrivProductDelete = "product:delete"

	PrivCategoryView   = "category:view"
	PrivCategoryManage = "category:manage"

	PrivSupplierView   = "supplier:view"
	PrivSupplierManage = "supplier:manage"

	PrivTransactionView   = "transaction:view"
	PrivTransactionCreate = "transaction:create"

	PrivDashboardView = "dashboard:view"
	PrivReportView    = "report:view"
)

// AllPrivileges lists every code the API checks.
var AllPrivileges = []string{
	PrivProductView, PrivProductCreate, PrivProductUpdate, PrivProductDelete,
	PrivCategoryView, PrivCategoryManage,
	PrivSupplierView, PrivSupplierManage,
	PrivTransactionView, PrivTransactionCreate,
	PrivDashboardView, PrivReportView,
}
