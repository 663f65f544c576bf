package handlers

import (
	"battle-manager/middleware"
	"battle-manager/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, authService *services.AuthService, jwtSecret string) {
	api := app.Group("/api")

	// 🔓 Public — OTP flow covers both signup and login
	api.Post("/send-otp", authService.SendOTP)
	api.Post("/verify-otp", authService.VerifyOTP)
	api.Post("/admin/login", authService.AdminLogin)

	// 🔐 Profile
	secured := api.Group("/", middleware.RequireAuth(jwtSecret))
	secured.Get("/me", authService.Me)
	secured.Put("/me", authService.UpdateMe)
}
