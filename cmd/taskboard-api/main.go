package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkovac/taskboard-api/internal/config"
	"github.com/dkovac/taskboard-api/internal/database"
	"github.com/dkovac/taskboard-api/internal/events"
	"github.com/dkovac/taskboard-api/internal/handlers"
	authmw "github.com/dkovac/taskboard-api/internal/middleware"
	"github.com/dkovac/taskboard-api/internal/services"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(db)
	tokenService := services.NewTokenService(db)
	workspaceService := services.NewWorkspaceService(db)
	invitationService := services.NewInvitationService(db, cfg.InvitationTTL)
	taskService := services.NewTaskService(db)
	activityService := services.NewActivityService(db)
	notificationService := services.NewNotificationService(db)
	dashboardService := services.NewDashboardService(db)
	teamService := services.NewTeamService(db)
	emailService := services.NewEmailService(cfg.SMTP)

	dispatcher := events.NewDispatcher(
		services.NewActivitySink(activityService),
		services.NewNotificationSink(notificationService, workspaceService),
	)
	go dispatcher.Run()
	defer dispatcher.Close()

	authHandler := handlers.NewAuthHandler(cfg, userService, workspaceService, tokenService, jwtService)
	userHandler := handlers.NewUserHandler(userService)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceService)
	invitationHandler := handlers.NewInvitationHandler(invitationService, workspaceService, userService, emailService, dispatcher, cfg.FrontendURL)
	taskHandler := handlers.NewTaskHandler(taskService, workspaceService, dispatcher)
	activityHandler := handlers.NewActivityHandler(activityService, workspaceService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, workspaceService)
	teamHandler := handlers.NewTeamHandler(teamService, workspaceService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/login", authHandler.Login)
	auth.Get("/:provider/consent", authHandler.GetConsentURL)
	auth.Get("/:provider/callback", authHandler.Callback)
	auth.Post("/exchange", authHandler.ExchangeCode)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)

	// Public token preview, no auth required
	api.Get("/invitations/:token", invitationHandler.Preview)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Post("/auth/logout-all", authHandler.LogoutAll)

	protected.Get("/users/me", userHandler.GetMe)
	protected.Patch("/users/me", userHandler.UpdateMe)
	protected.Put("/users/me/active-workspace", userHandler.SetActiveWorkspace)

	protected.Get("/notifications", notificationHandler.List)
	protected.Post("/notifications/:notificationId/read", notificationHandler.MarkRead)
	protected.Get("/users/me/notification-settings", notificationHandler.GetSettings)
	protected.Put("/users/me/notification-settings", notificationHandler.UpdateSettings)

	protected.Get("/workspaces", workspaceHandler.List)
	protected.Post("/workspaces", workspaceHandler.Create)
	protected.Post("/workspaces/personal", workspaceHandler.CreatePersonal)
	protected.Get("/workspaces/:workspaceId", workspaceHandler.Get)
	protected.Patch("/workspaces/:workspaceId", workspaceHandler.Update)
	protected.Delete("/workspaces/:workspaceId", workspaceHandler.Delete)
	protected.Post("/workspaces/:workspaceId/leave", workspaceHandler.Leave)
	protected.Get("/workspaces/:workspaceId/members", workspaceHandler.GetMembers)
	protected.Patch("/workspaces/:workspaceId/members/:userId", workspaceHandler.UpdateMemberRole)
	protected.Delete("/workspaces/:workspaceId/members/:userId", workspaceHandler.RemoveMember)

	protected.Post("/workspaces/:workspaceId/invitations", invitationHandler.Create)
	protected.Get("/workspaces/:workspaceId/invitations", invitationHandler.List)
	protected.Delete("/workspaces/:workspaceId/invitations/:invitationId", invitationHandler.Revoke)
	protected.Post("/invitations/accept", invitationHandler.Accept)

	protected.Get("/workspaces/:workspaceId/tasks", taskHandler.List)
	protected.Post("/workspaces/:workspaceId/tasks", taskHandler.Create)
	protected.Get("/workspaces/:workspaceId/tasks/:taskId", taskHandler.Get)
	protected.Patch("/workspaces/:workspaceId/tasks/:taskId", taskHandler.Update)
	protected.Delete("/workspaces/:workspaceId/tasks/:taskId", taskHandler.Delete)
	protected.Post("/workspaces/:workspaceId/tasks/:taskId/complete", taskHandler.Complete)
	protected.Post("/workspaces/:workspaceId/tasks/:taskId/reorder", taskHandler.Reorder)

	protected.Get("/workspaces/:workspaceId/activity", activityHandler.List)
	protected.Get("/workspaces/:workspaceId/my-day", dashboardHandler.MyDay)
	protected.Get("/workspaces/:workspaceId/team/overview", teamHandler.Overview)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			if purged, err := tokenService.CleanupExpired(context.Background()); err != nil {
				log.Printf("refresh token cleanup failed: %v", err)
			} else if purged > 0 {
				log.Printf("cleaned up %d expired refresh tokens", purged)
			}
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Server starting on %s", addr)
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}
