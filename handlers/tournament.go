package handlers

import (
	"battle-manager/middleware"
	"battle-manager/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTournamentRoutes(app *fiber.App, tournamentService *services.TournamentService, payoutService *services.PayoutService, jwtSecret string) {
	// 🔐 Player routes — browsing requires a session, balances are involved
	api := app.Group("/api", middleware.RequireAuth(jwtSecret))
	api.Get("/tournaments", tournamentService.ListTournaments)
	api.Get("/tournaments/completed", tournamentService.ListCompleted)
	api.Get("/tournaments/:id", tournamentService.GetTournament)
	api.Post("/tournaments/:id/enroll", tournamentService.Enroll)
	api.Get("/tournaments/:id/room", tournamentService.RoomCredentials)
	api.Get("/my/enrollments", tournamentService.MyEnrollments)

	// 🔐 Back office
	admin := app.Group("/api/admin", middleware.RequireAuth(jwtSecret), middleware.RequireAdmin())
	admin.Get("/tournaments", tournamentService.ListAll)
	admin.Post("/tournaments", tournamentService.CreateTournament)
	admin.Put("/tournaments/:id", tournamentService.UpdateTournament)
	admin.Patch("/tournaments/:id/status", tournamentService.UpdateStatus)
	admin.Post("/tournaments/:id/cancel", tournamentService.CancelTournament)
	admin.Delete("/tournaments/:id", tournamentService.DeleteTournament)

	// Kill list & payouts
	admin.Get("/tournaments/:id/kills", payoutService.GetKillList)
	admin.Put("/tournaments/:id/kills", payoutService.SetKills)
	admin.Post("/tournaments/:id/payout", payoutService.CreditAllPlayers)
	admin.Post("/tournaments/:id/payout/:user_id", payoutService.CreditPlayer)
}
