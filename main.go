package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"battle-manager/config"
	"battle-manager/handlers"
	"battle-manager/models"
	"battle-manager/services"
	"battle-manager/utils"
	"battle-manager/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	utils.InitLogger(cfg.Debug)

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Server.BodyLimitMB * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Server.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Tournament{},
		&models.Enrollment{},
		&models.KillEntry{},
		&models.Payment{},
		&models.ChatMessage{},
		&models.Notification{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	if err := utils.InitR2(cfg.R2.AccountID, cfg.R2.AccessKeyID, cfg.R2.AccessKeySecret, cfg.R2.Bucket, cfg.R2.CDNBaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize R2 client")
	}
	if !utils.R2Enabled() {
		if err := utils.EnsureUploadDir(); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure upload dir")
		}
		log.Warn().Msg("⚠️  R2 not configured, serving uploads from local disk")
	}

	if err := utils.InitCipher(cfg.CredentialsKey); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize credentials cipher")
	}

	rdb, err := utils.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	mailer := utils.NewMailer(cfg.Mail.APIURL, cfg.Mail.APIKey, cfg.Mail.From)
	hub := services.NewChatHub()

	authService := services.NewAuthService(db, rdb, mailer, cfg)
	tournamentService := services.NewTournamentService(db, cfg)
	payoutService := services.NewPayoutService(db)
	walletService := services.NewWalletService(db)
	userService := services.NewUserService(db)
	notificationService := services.NewNotificationService(db)
	chatService := services.NewChatService(db, hub)

	if err := authService.SeedAdmin(); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin account")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched, err := tournamentService.StartStatusScheduler()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start status scheduler")
	}

	retention := workers.NewChatRetentionWorker(db, cfg.Chat.RetentionMaxAge, cfg.Chat.RetentionKeep)
	go retention.Run(ctx, cfg.Chat.SweepInterval)

	handlers.SetupAuthRoutes(app, authService, cfg.JWTSecret)
	handlers.SetupTournamentRoutes(app, tournamentService, payoutService, cfg.JWTSecret)
	handlers.SetupWalletRoutes(app, walletService, cfg.JWTSecret)
	handlers.SetupUserRoutes(app, userService, cfg.JWTSecret)
	handlers.SetupNotificationRoutes(app, notificationService, cfg.JWTSecret)
	handlers.SetupChatRoutes(app, chatService, cfg.JWTSecret)

	if !utils.R2Enabled() {
		app.Static("/uploads", "./uploads")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	go func() {
		<-ctx.Done()
		log.Info().Msg("🛑 Shutting down")
		_ = sched.Shutdown()
		_ = app.Shutdown()
	}()

	log.Info().Int("port", cfg.Server.Port).Msg("🚀 BattleManager API listening")
	if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
