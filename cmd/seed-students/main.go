package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/stemsi/idcard-backend/internal/config"
	"github.com/stemsi/idcard-backend/internal/database"
	"github.com/stemsi/idcard-backend/internal/logger"
	"github.com/stemsi/idcard-backend/internal/model"
	"github.com/stemsi/idcard-backend/internal/repository"
	"github.com/stemsi/idcard-backend/internal/service"
)

func main() {
	var (
		count   int
		class   string
		section string
	)
	flag.IntVar(&count, "count", 50, "Number of registrations to seed")
	flag.StringVar(&class, "class", "10", "Class of the seeded students")
	flag.StringVar(&section, "section", "A", "Section of the seeded students")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	studentService := service.NewStudentService(repository.NewStudentRepository(pool), nil, log)

	fmt.Printf("=== Seeding %d Registrations (Class %s, Section %s) ===\n", count, class, section)

	created, skipped := 0, 0
	for i := 1; i <= count; i++ {
		roll := strconv.Itoa(i)
		_, err := studentService.Create(ctx, &model.Student{
			Name:             fmt.Sprintf("Seed Student %02d", i),
			FatherName:       fmt.Sprintf("Seed Parent %02d", i),
			Class:            class,
			Section:          section,
			RollNumber:       roll,
			DateOfBirth:      "2012-01-01",
			BloodGroup:       "O+",
			Address:          "Seed Street",
			PhoneNumber:      "0000000000",
			EmergencyContact: "0000000000",
		})
		var dup *service.DuplicateStudentError
		switch {
		case err == nil:
			created++
		case errors.As(err, &dup):
			// Re-running the seeder is harmless.
			skipped++
		default:
			log.Fatal().Err(err).Str("roll_number", roll).Msg("Failed to seed registration")
		}
	}

	fmt.Printf("Done. Created: %d, already present: %d\n", created, skipped)
}
