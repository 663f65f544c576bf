package handlers

import (
	"battle-manager/middleware"
	"battle-manager/services"

	"github.com/gofiber/fiber/v2"
)

func SetupNotificationRoutes(app *fiber.App, notificationService *services.NotificationService, jwtSecret string) {
	api := app.Group("/api", middleware.RequireAuth(jwtSecret))
	api.Get("/notifications", notificationService.List)
	api.Post("/notifications/read-all", notificationService.MarkAllRead)
	api.Patch("/notifications/:id/read", notificationService.MarkRead)

	admin := app.Group("/api/admin", middleware.RequireAuth(jwtSecret), middleware.RequireAdmin())
	admin.Post("/notifications/broadcast", notificationService.Broadcast)
}
