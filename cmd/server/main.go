package main

import (
	"errors"
	"log"

	"marketpos-backend/internal/auth"
	"marketpos-backend/internal/cache"
	"marketpos-backend/internal/catalog"
	"marketpos-backend/internal/config"
	"marketpos-backend/internal/database"
	"marketpos-backend/internal/logger"
	"marketpos-backend/internal/purchase"
	"marketpos-backend/internal/reports"
	"marketpos-backend/internal/sales"
	"marketpos-backend/internal/users"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()

	database.Init(cfg)
	cache.Connect(cfg.RedisAddr)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
			}
			// Beklenmeyen hatalar loglanır, istemciye detay sızdırılmaz
			logger.LogError("http", c.Path(), err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Sunucu hatası",
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	api := app.Group("/api")

	// Açık uçlar
	api.Post("/login", auth.LoginHandler(cfg))
	api.Post("/register", auth.RegisterHandler())

	// Buradan sonrası JWT ister
	api.Use(auth.JWTMiddleware(cfg))

	api.Post("/logout", auth.LogoutHandler())
	api.Get("/get-user", auth.GetUserHandler())

	// Kullanıcı ve yetki yönetimi
	api.Get("/users", auth.RequirePermission("users.view"), users.ListUsersHandler())
	api.Get("/trashed-users", auth.RequirePermission("users.manage"), users.ListTrashedUsersHandler())
	api.Get("/users/:id", auth.RequirePermission("users.view"), users.GetUserHandler())
	api.Post("/users", auth.RequirePermission("users.manage"), users.CreateUserHandler())
	api.Put("/users/:id", auth.RequirePermission("users.manage"), users.UpdateUserHandler())
	api.Delete("/users/:id", auth.RequirePermission("users.manage"), users.DeleteUserHandler())
	api.Post("/users/:id/restore", auth.RequirePermission("users.manage"), users.RestoreUserHandler())
	api.Delete("/users/:id/force-delete", auth.RequirePermission("users.manage"), users.ForceDeleteUserHandler())
	api.Post("/users/:id/roles", auth.RequirePermission("users.manage"), users.AssignRolesHandler())
	api.Delete("/users/:id/roles/:roleId", auth.RequirePermission("users.manage"), users.RemoveUserRoleHandler())
	api.Post("/users/:id/permissions", auth.RequirePermission("users.manage"), users.AssignPermissionsHandler())
	api.Delete("/users/:id/permissions/:permissionId", auth.RequirePermission("users.manage"), users.RemoveUserPermissionHandler())

	api.Get("/roles", auth.RequirePermission("roles.view"), users.ListRolesHandler())
	api.Post("/roles", auth.RequirePermission("roles.manage"), users.CreateRoleHandler())
	api.Put("/roles/:id", auth.RequirePermission("roles.manage"), users.UpdateRoleHandler())
	api.Delete("/roles/:id", auth.RequirePermission("roles.manage"), users.DeleteRoleHandler())
	api.Post("/roles/:id/permissions", auth.RequirePermission("roles.manage"), users.AssignRolePermissionsHandler())
	api.Delete("/roles/:id/permissions/:permissionId", auth.RequirePermission("roles.manage"), users.RemoveRolePermissionHandler())

	api.Get("/permissions", auth.RequirePermission("roles.view"), users.ListPermissionsHandler())
	api.Post("/permissions", auth.RequirePermission("roles.manage"), users.CreatePermissionHandler())
	api.Put("/permissions/:id", auth.RequirePermission("roles.manage"), users.UpdatePermissionHandler())
	api.Delete("/permissions/:id", auth.RequirePermission("roles.manage"), users.DeletePermissionHandler())

	// Katalog
	api.Get("/categories", catalog.ListCategoriesHandler())
	api.Post("/categories", auth.RequirePermission("categories.manage"), catalog.CreateCategoryHandler())
	api.Put("/categories/:id", auth.RequirePermission("categories.manage"), catalog.UpdateCategoryHandler())
	api.Delete("/categories/:id", auth.RequirePermission("categories.manage"), catalog.DeleteCategoryHandler())

	api.Get("/products", catalog.ListProductsHandler())
	api.Get("/products/low-stock", catalog.ListLowStockProductsHandler())
	api.Get("/products/barcode/:barcode", catalog.GetProductByBarcodeHandler())
	api.Get("/products/:id", catalog.GetProductHandler())
	api.Post("/products", auth.RequirePermission("products.manage"), catalog.CreateProductHandler())
	api.Put("/products/:id", auth.RequirePermission("products.manage"), catalog.UpdateProductHandler())
	api.Delete("/products/:id", auth.RequirePermission("products.manage"), catalog.DeleteProductHandler())

	api.Get("/suppliers", catalog.ListSuppliersHandler())
	api.Get("/suppliers/:id", catalog.GetSupplierHandler())
	api.Post("/suppliers", auth.RequirePermission("suppliers.manage"), catalog.CreateSupplierHandler())
	api.Put("/suppliers/:id", auth.RequirePermission("suppliers.manage"), catalog.UpdateSupplierHandler())
	api.Delete("/suppliers/:id", auth.RequirePermission("suppliers.manage"), catalog.DeleteSupplierHandler())

	api.Get("/customers", catalog.ListCustomersHandler())
	api.Get("/customers/stats", catalog.CustomerStatsHandler())
	api.Get("/customers/:id", catalog.GetCustomerHandler())
	api.Get("/customers/:id/invoices", catalog.ListCustomerInvoicesHandler())
	api.Post("/customers", auth.RequirePermission("customers.manage"), catalog.CreateCustomerHandler())
	api.Put("/customers/:id", auth.RequirePermission("customers.manage"), catalog.UpdateCustomerHandler())
	api.Delete("/customers/:id", auth.RequirePermission("customers.manage"), catalog.DeleteCustomerHandler())

	// Alış faturaları
	api.Get("/purchase-invoices", auth.RequirePermission("purchases.view"), purchase.ListInvoicesHandler())
	api.Get("/purchase-invoices/last-invoice-number", auth.RequirePermission("purchases.view"), purchase.LastInvoiceNumberHandler())
	api.Get("/purchase-invoices/:id", auth.RequirePermission("purchases.view"), purchase.GetInvoiceHandler())
	api.Get("/purchase-invoices/:id/versions", auth.RequirePermission("purchases.view"), purchase.ListVersionsHandler())
	api.Post("/purchase-invoices", auth.RequirePermission("purchases.manage"), purchase.CreateInvoiceHandler())
	api.Put("/purchase-invoices/:id", auth.RequirePermission("purchases.manage"), purchase.UpdateInvoiceHandler())
	api.Patch("/purchase-invoices/:id/payment", auth.RequirePermission("purchases.manage"), purchase.UpdatePaymentHandler())
	api.Delete("/purchase-invoices/:id", auth.RequirePermission("purchases.manage"), purchase.DeleteInvoiceHandler())
	api.Post("/purchase-invoices/:id/items", auth.RequirePermission("purchases.manage"), purchase.AddItemHandler())
	api.Put("/purchase-invoices/:id/items/:itemId", auth.RequirePermission("purchases.manage"), purchase.UpdateItemHandler())
	api.Delete("/purchase-invoices/:id/items/:itemId", auth.RequirePermission("purchases.manage"), purchase.DeleteItemHandler())

	// Satış faturaları ve iadeler
	api.Get("/sales-invoices", auth.RequirePermission("sales.view"), sales.ListSalesHandler())
	api.Get("/sales-invoices/:id", auth.RequirePermission("sales.view"), sales.GetSaleHandler())
	api.Post("/sales-invoices", auth.RequirePermission("sales.manage"), sales.CreateSaleHandler())
	api.Patch("/sales-invoices/:id/payment", auth.RequirePermission("sales.manage"), sales.UpdateSalePaymentHandler())
	api.Delete("/sales-invoices/:id", auth.RequirePermission("sales.manage"), sales.DeleteSaleHandler())

	api.Get("/sales-invoice-items", auth.RequirePermission("sales.view"), sales.ListSaleItemsHandler())
	api.Get("/sales-invoice-items/:id", auth.RequirePermission("sales.view"), sales.GetSaleItemHandler())
	api.Post("/sales-invoice-items", auth.RequirePermission("sales.manage"), sales.AddSaleItemHandler())
	api.Put("/sales-invoice-items/:id", auth.RequirePermission("sales.manage"), sales.UpdateSaleItemHandler())
	api.Delete("/sales-invoice-items/:id", auth.RequirePermission("sales.manage"), sales.DeleteSaleItemHandler())

	api.Get("/sales-returns", auth.RequirePermission("sales.view"), sales.ListReturnsHandler())
	api.Get("/sales-returns/:id", auth.RequirePermission("sales.view"), sales.GetReturnHandler())
	api.Post("/sales-returns", auth.RequirePermission("sales.manage"), sales.CreateReturnHandler())
	api.Delete("/sales-returns/:id", auth.RequirePermission("sales.manage"), sales.DeleteReturnHandler())

	// Raporlar
	api.Get("/reports/sales-summary", auth.RequirePermission("reports.view"), reports.SalesSummaryHandler())
	api.Get("/reports/sales-summary/export", auth.RequirePermission("reports.view"), reports.ExportSalesSummaryHandler())
	api.Get("/reports/purchase-summary", auth.RequirePermission("reports.view"), reports.PurchaseSummaryHandler())
	api.Get("/reports/top-selling-products", auth.RequirePermission("reports.view"), reports.TopSellingProductsHandler())
	api.Get("/reports/inventory", auth.RequirePermission("reports.view"), reports.InventoryReportHandler())
	api.Get("/reports/profit-loss", auth.RequirePermission("reports.view"), reports.ProfitLossHandler())
	api.Get("/reports/employee-performance", auth.RequirePermission("reports.view"), reports.EmployeePerformanceHandler())
	api.Get("/dashboard/stats", reports.DashboardStatsHandler())

	log.Printf("Sunucu %s portunda dinliyor", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatalf("Sunucu başlatılamadı: %v", err)
	}
}
