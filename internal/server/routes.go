package server

import (
	"github.com/labstack/echo/v4"

	"example.com/fintrack/backend/internal/handlers"
)

func registerRoutes(
	e *echo.Echo,
	authHandler *handlers.AuthHandler,
	accountHandler *handlers.AccountHandler,
	categoryHandler *handlers.CategoryHandler,
	transactionHandler *handlers.TransactionHandler,
	billHandler *handlers.BillHandler,
	budgetHandler *handlers.BudgetHandler,
	assetHandler *handlers.AssetHandler,
	liabilityHandler *handlers.LiabilityHandler,
	networthHandler *handlers.NetworthHandler,
	statsHandler *handlers.StatsHandler,
	notificationHandler *handlers.NotificationHandler,
	authMiddleware echo.MiddlewareFunc,
	authRateLimiter echo.MiddlewareFunc,
) {
	e.GET("/health", handlers.Health)

	api := e.Group("/api/v1")
	authGroup := api.Group("/auth", authRateLimiter)

	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/me", authHandler.Me, authMiddleware)

	accounts := api.Group("/accounts", authMiddleware)
	accounts.POST("", accountHandler.Create)
	accounts.GET("", accountHandler.List)
	accounts.GET("/:id", accountHandler.Get)
	accounts.PUT("/:id", accountHandler.Update)
	accounts.PATCH("/:id/default", accountHandler.SetDefault)
	accounts.DELETE("/:id", accountHandler.Archive)

	categories := api.Group("/categories", authMiddleware)
	categories.POST("", categoryHandler.Create)
	categories.GET("", categoryHandler.List)
	categories.DELETE("/:id", categoryHandler.Archive)
	categories.POST("/:id/subcategories", categoryHandler.CreateSubCategory)
	categories.GET("/:id/subcategories", categoryHandler.ListSubCategories)
	categories.DELETE("/:id/subcategories/:subId", categoryHandler.ArchiveSubCategory)

	transactions := api.Group("/transactions", authMiddleware)
	transactions.POST("", transactionHandler.Create)
	transactions.GET("", transactionHandler.List)
	transactions.GET("/export/csv", transactionHandler.ExportCSV)
	transactions.GET("/:id", transactionHandler.Get)
	transactions.PUT("/:id", transactionHandler.Update)
	transactions.DELETE("/:id", transactionHandler.Delete)

	bills := api.Group("/bills", authMiddleware)
	bills.POST("", billHandler.Create)
	bills.GET("", billHandler.List)
	bills.GET("/:id", billHandler.Get)
	bills.PUT("/:id", billHandler.Update)
	bills.DELETE("/:id", billHandler.Delete)
	bills.POST("/:id/pay", billHandler.Pay)
	bills.GET("/:id/payments", billHandler.ListPayments)

	budgets := api.Group("/budgets", authMiddleware)
	budgets.GET("", budgetHandler.Get)
	budgets.POST("/:id/items", budgetHandler.CreateItem)
	budgets.PUT("/items/:itemId", budgetHandler.UpdateItem)
	budgets.DELETE("/items/:itemId", budgetHandler.DeleteItem)
	budgets.POST("/items/:itemId/pay", budgetHandler.PayItem)

	assets := api.Group("/assets", authMiddleware)
	assets.POST("", assetHandler.Create)
	assets.GET("", assetHandler.List)
	assets.GET("/:id", assetHandler.Get)
	assets.PUT("/:id", assetHandler.Update)
	assets.DELETE("/:id", assetHandler.Archive)

	liabilities := api.Group("/liabilities", authMiddleware)
	liabilities.POST("", liabilityHandler.Create)
	liabilities.GET("", liabilityHandler.List)
	liabilities.GET("/:id", liabilityHandler.Get)
	liabilities.PUT("/:id", liabilityHandler.Update)
	liabilities.DELETE("/:id", liabilityHandler.Archive)
	liabilities.POST("/:id/payments", liabilityHandler.RecordPayment)
	liabilities.GET("/:id/payments", liabilityHandler.ListPayments)

	networth := api.Group("/networth", authMiddleware)
	networth.GET("", networthHandler.Get)
	networth.POST("/snapshots", networthHandler.CreateSnapshot)
	networth.GET("/snapshots", networthHandler.ListSnapshots)

	stats := api.Group("/stats", authMiddleware)
	stats.GET("/spending", statsHandler.SpendingBreakdown)

	notifications := api.Group("/notifications", authMiddleware)
	notifications.GET("/stream", notificationHandler.Stream)
}
