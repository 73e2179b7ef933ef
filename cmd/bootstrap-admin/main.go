package main

import (
	"context"
	"fmt"
	"time"

	"github.com/stemsi/idcard-backend/internal/config"
	"github.com/stemsi/idcard-backend/internal/database"
	"github.com/stemsi/idcard-backend/internal/logger"
	"github.com/stemsi/idcard-backend/internal/notify"
	"github.com/stemsi/idcard-backend/internal/repository"
	"github.com/stemsi/idcard-backend/internal/service"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	authService := service.NewAuthService(cfg, repository.NewAdminRepository(pool), notify.NewInBandSender(log), log)

	fmt.Println("=== Bootstrap Default Admin ===")

	created, err := authService.BootstrapDefaultAdmin(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap default admin")
	}
	if !created {
		fmt.Printf("Admin '%s' already exists, nothing to do.\n", service.DefaultAdminUsername)
		return
	}

	fmt.Printf("Created superadmin '%s' <%s> with password '%s'.\n",
		service.DefaultAdminUsername, service.DefaultAdminEmail, service.DefaultAdminPassword)
	fmt.Println("Change this password immediately.")
}
