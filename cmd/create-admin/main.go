package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/stemsi/idcard-backend/internal/config"
	"github.com/stemsi/idcard-backend/internal/database"
	"github.com/stemsi/idcard-backend/internal/logger"
	"github.com/stemsi/idcard-backend/internal/model"
	"github.com/stemsi/idcard-backend/internal/notify"
	"github.com/stemsi/idcard-backend/internal/repository"
	"github.com/stemsi/idcard-backend/internal/service"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	authService := service.NewAuthService(cfg, repository.NewAdminRepository(pool), notify.NewInBandSender(log), log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Admin User ===")

	username := prompt(reader, "Enter Username: ")
	if username == "" {
		fmt.Println("Error: Username is required")
		return
	}

	email := prompt(reader, "Enter Email: ")
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	fullName := prompt(reader, "Enter Full Name (optional): ")

	// Password
	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input

	role := prompt(reader, "Enter Role [admin/superadmin] (default admin): ")

	// ─── Logic ─────────────────────────────────────────────────────────
	// No created_by: console access already implies operator trust.
	admin, err := authService.Signup(ctx, model.SignupInput{
		Username: username,
		Email:    email,
		Password: password,
		FullName: fullName,
		Role:     role,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrConflict):
			fmt.Printf("Error: %v\n", err)
			return
		default:
			log.Fatal().Err(err).Msg("Failed to create admin")
		}
	}

	fmt.Printf("\nSuccess! Admin '%s' (%s) created with role %s\n", admin.Username, admin.Email, admin.Role)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
