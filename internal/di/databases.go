package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/ratecast/internal/config"
	"github.com/aristath/ratecast/internal/database"
)

// InitializeDatabase opens the ratecast database and applies its schema
func InitializeDatabase(cfg *config.Config, log zerolog.Logger) (*database.DB, error) {
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath,
		Profile: database.DatabaseProfile(cfg.DatabaseProfile),
		Name:    "ratecast",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ratecast database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate ratecast database: %w", err)
	}

	log.Info().
		Str("path", db.Path()).
		Str("profile", string(db.Profile())).
		Msg("Database initialized")

	return db, nil
}
