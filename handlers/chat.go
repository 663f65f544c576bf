package handlers

import (
	"battle-manager/middleware"
	"battle-manager/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func SetupChatRoutes(app *fiber.App, chatService *services.ChatService, jwtSecret string) {
	// 🔐 History & uploads over plain HTTP
	api := app.Group("/api", middleware.RequireAuth(jwtSecret))
	api.Get("/chat/global/history", chatService.GlobalHistory)
	api.Get("/chat/support/history", chatService.SupportHistory)
	api.Post("/chat/upload", chatService.UploadChatImage)

	admin := app.Group("/api/admin", middleware.RequireAuth(jwtSecret), middleware.RequireAdmin())
	admin.Get("/chat/threads", chatService.Threads)
	admin.Get("/chat/support/:user_id/history", chatService.AdminSupportHistory)

	// Live sockets. The session token rides in ?token= since browsers cannot
	// set headers on a websocket upgrade; RequireAuth reads both.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ws := app.Group("/ws", middleware.RequireAuth(jwtSecret))
	ws.Get("/chat/global", websocket.New(chatService.GlobalSocket))
	ws.Get("/chat/support", websocket.New(chatService.SupportSocket))
	ws.Get("/chat/support/:user_id", websocket.New(chatService.AdminSupportSocket))
}
