package main

import (
	"context"
	"fmt"
	"log"

	"github.com/dkovac/taskboard-api/internal/config"
	"github.com/dkovac/taskboard-api/internal/database"
	"github.com/dkovac/taskboard-api/internal/services"
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

	invitationService := services.NewInvitationService(db, cfg.InvitationTTL)

	purged, err := invitationService.PurgeExpired(ctx)
	if err != nil {
		log.Fatalf("Failed to purge invitations: %v", err)
	}

	fmt.Printf("Purged %d expired invitations\n", purged)
}
