package db

import (
	"github.com/rs/zerolog/log"

	"github.com/bookly-app/bookly/models"
)

func Migrate() {
	// Initialize DB connection
	Init()

	// Run AutoMigrate only when explicitly called
	err := DB.AutoMigrate(
		&models.User{},
		&models.Business{},
		&models.Membership{},
		&models.Service{},
		&models.Appointment{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	log.Info().Msg("Migrations applied successfully")
}
