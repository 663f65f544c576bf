package handlers

import (
	"battle-manager/middleware"
	"battle-manager/services"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, userService *services.UserService, jwtSecret string) {
	admin := app.Group("/api/admin", middleware.RequireAuth(jwtSecret), middleware.RequireAdmin())
	admin.Get("/users", userService.ListUsers)
	admin.Get("/users/:id", userService.GetUserDetail)
	admin.Post("/users/:id/toggle-active", userService.ToggleActive)
}
