package handlers

import (
	"battle-manager/middleware"
	"battle-manager/services"

	"github.com/gofiber/fiber/v2"
)

func SetupWalletRoutes(app *fiber.App, walletService *services.WalletService, jwtSecret string) {
	api := app.Group("/api", middleware.RequireAuth(jwtSecret))
	api.Get("/wallet", walletService.GetWallet)
	api.Post("/wallet/add-money", walletService.AddMoney)
	api.Post("/wallet/withdraw", walletService.Withdraw)

	admin := app.Group("/api/admin", middleware.RequireAuth(jwtSecret), middleware.RequireAdmin())
	admin.Get("/payments", walletService.ListPayments)
	admin.Post("/payments/:id/approve", walletService.ApprovePayment)
	admin.Post("/payments/:id/reject", walletService.RejectPayment)
	admin.Post("/users/:id/adjust", walletService.AdjustPoints)
}
