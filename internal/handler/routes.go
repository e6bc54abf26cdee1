package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tienbob/Tubex-sub003/internal/middleware"
	"github.com/tienbob/Tubex-sub003/internal/model"
)

// Handlers groups every handler mounted by RegisterRoutes.
type Handlers struct {
	Auth      *AuthHandler
	Users     *UserHandler
	Companies *CompanyHandler
	Catalog   *CatalogHandler
	Stock     *StockHandler
	Orders    *OrderHandler
	Health    *HealthHandler
}

// RegisterRoutes mounts /health, /metrics and the /api/v1 tree. Route guards
// reject obvious mismatches early; services enforce the full rules.
func RegisterRoutes(e *echo.Echo, h Handlers, tokens middleware.TokenValidator, metrics http.Handler) {
	e.GET("/health", h.Health.Health)
	e.GET("/metrics", echo.WrapHandler(metrics))

	api := e.Group("/api/v1")
	authn := middleware.Auth(tokens)
	manager := middleware.RequireRole(model.RoleManager)
	staff := middleware.RequireRole(model.RoleStaff)
	supplier := middleware.RequireSupplier()

	authAPI := api.Group("/auth")
	authAPI.POST("/register", h.Auth.Register)
	authAPI.POST("/login", h.Auth.Login)
	authAPI.POST("/accept-invitation", h.Auth.AcceptInvitation)
	authAPI.GET("/me", h.Auth.Me, authn)
	authAPI.POST("/change-password", h.Auth.ChangePassword, authn)

	users := api.Group("/users", authn)
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.POST("", h.Users.Create, manager)
	users.PUT("/:id", h.Users.Update)
	users.POST("/:id/deactivate", h.Users.Deactivate, manager)
	users.DELETE("/:id", h.Users.Delete, manager)
	users.GET("/:id/audit-logs", h.Users.AuditLogs)
	users.GET("/:id/activity", h.Users.Activity)

	invitations := api.Group("/invitations", authn, manager)
	invitations.GET("", h.Users.ListInvitations)
	invitations.POST("", h.Users.Invite)
	invitations.POST("/:id/revoke", h.Users.RevokeInvitation)
	invitations.POST("/:id/resend", h.Users.ResendInvitation)

	companies := api.Group("/companies", authn)
	companies.GET("/me", h.Companies.Mine)
	companies.PUT("/me", h.Companies.UpdateMine)
	companies.GET("/me/audit-trail", h.Companies.MyAuditTrail)

	categories := api.Group("/categories", authn)
	categories.GET("", h.Catalog.ListCategories)
	categories.GET("/:id", h.Catalog.GetCategory)
	categories.POST("", h.Catalog.CreateCategory, manager)
	categories.PUT("/:id", h.Catalog.UpdateCategory, manager)
	categories.DELETE("/:id", h.Catalog.DeleteCategory, manager)

	products := api.Group("/products", authn)
	products.GET("", h.Catalog.ListProducts)
	products.GET("/:id", h.Catalog.GetProduct)
	products.POST("", h.Catalog.CreateProduct, supplier, manager)
	products.PUT("/:id", h.Catalog.UpdateProduct, supplier, manager)
	products.DELETE("/:id", h.Catalog.DeleteProduct, supplier, manager)

	warehouses := api.Group("/warehouses", authn)
	warehouses.GET("", h.Stock.ListWarehouses)
	warehouses.GET("/:id", h.Stock.GetWarehouse)
	warehouses.POST("", h.Stock.CreateWarehouse, manager)
	warehouses.PUT("/:id", h.Stock.UpdateWarehouse, manager)
	warehouses.DELETE("/:id", h.Stock.DeleteWarehouse, middleware.RequireRole(model.RoleAdmin))

	inventory := api.Group("/inventory", authn)
	inventory.GET("", h.Stock.ListInventory)
	inventory.GET("/low-stock", h.Stock.LowStock)
	inventory.POST("/transfer", h.Stock.TransferInventory, staff)
	inventory.GET("/:id", h.Stock.GetInventory)
	inventory.POST("", h.Stock.CreateInventory, manager)
	inventory.PUT("/:id", h.Stock.UpdateInventory, manager)
	inventory.POST("/:id/adjust", h.Stock.AdjustInventory, staff)
	inventory.DELETE("/:id", h.Stock.DeleteInventory, manager)

	batches := api.Group("/batches", authn)
	batches.GET("", h.Stock.ListBatches)
	batches.GET("/expiring", h.Stock.ExpiringBatches)
	batches.GET("/:id", h.Stock.GetBatch)
	batches.POST("", h.Stock.CreateBatch, manager)
	batches.PUT("/:id", h.Stock.UpdateBatch, manager)
	batches.DELETE("/:id", h.Stock.DeleteBatch, manager)

	orders := api.Group("/orders", authn)
	orders.GET("", h.Orders.List)
	orders.POST("", h.Orders.Create)
	orders.GET("/summary", h.Orders.Summary, supplier)
	orders.GET("/:id", h.Orders.Get)
	orders.PUT("/:id/status", h.Orders.UpdateStatus, manager)
	orders.POST("/:id/cancel", h.Orders.Cancel)
	orders.PUT("/:id/payment", h.Orders.UpdatePayment, manager)
	orders.GET("/:id/history", h.Orders.History)
	orders.GET("/:id/invoice", h.Orders.Invoice)

	admin := api.Group("/admin", authn, middleware.RequirePlatformAdmin())
	admin.GET("/companies", h.Companies.List)
	admin.GET("/companies/:id", h.Companies.Get)
	admin.POST("/companies/:id/verify", h.Companies.Verify)
	admin.PUT("/companies/:id/status", h.Companies.SetStatus)
	admin.DELETE("/companies/:id", h.Companies.Delete)
	admin.GET("/companies/:id/audit-trail", h.Companies.AuditTrail)
	admin.GET("/audit-logs", h.Companies.UserAuditLogs)
	admin.GET("/orders/summary", h.Orders.PlatformSummary)
}
