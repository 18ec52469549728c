package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"tally/internal/config"
	"tally/internal/database"
	"tally/internal/logger"
	"tally/internal/services"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Migration error: %v", err)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: migrate <up|down|version|seed> [N]")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	command := os.Args[1]
	if command == "seed" {
		return seed(cfg)
	}
	if cfg.DBDriver == config.DriverSQLite {
		return autoMigrate(cfg, command)
	}

	m, err := migrate.New("file://"+cfg.MigrationsPath, cfg.MigrateURL())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Get().Warnf("migrate source close error: %v", srcErr)
		}
		if dbErr != nil {
			logger.Get().Warnf("migrate database close error: %v", dbErr)
		}
	}()

	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration up failed: %w", err)
		}
		logger.Get().Info("Migrations applied successfully")

	case "down":
		steps := 1
		if len(os.Args) > 2 {
			steps, err = strconv.Atoi(os.Args[2])
			if err != nil || steps < 1 {
				return fmt.Errorf("invalid step count: %s", os.Args[2])
			}
		}
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down failed: %w", err)
		}
		logger.Get().Infof("Rolled back %d migration(s)", steps)

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		logger.Get().Infof("Version: %d, Dirty: %v", version, dirty)

	default:
		return fmt.Errorf("unknown command: %s (use up, down, version, or seed)", command)
	}

	return nil
}

// autoMigrate handles the embedded sqlite store, which has no SQL migration history.
func autoMigrate(cfg *config.Config, command string) error {
	if command != "up" {
		return fmt.Errorf("command %q is only supported for the postgres driver", command)
	}

	dbManager, err := database.NewManager(cfg)
	if err != nil {
		return err
	}
	defer dbManager.Close()

	if err := dbManager.AutoMigrate(); err != nil {
		return err
	}
	logger.Get().Info("SQLite schema is up to date")
	return nil
}

// seed inserts the built-in categories and default settings that are missing.
func seed(cfg *config.Config) error {
	dbManager, err := database.NewManager(cfg)
	if err != nil {
		return err
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		return err
	}

	db := dbManager.DB()
	created, err := services.NewCategoryService(db, services.NewLogService(db)).SeedDefaults()
	if err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	logger.Get().Infof("Seeded %d categories", created)

	settings := services.NewSettingsService(db)
	defaults := []struct{ key, value string }{
		{services.SettingTimezone, services.DefaultTimezone},
		{services.SettingCurrency, cfg.DefaultCurrency},
		{services.SettingDateFormat, services.DefaultDateFormat},
	}
	for _, d := range defaults {
		current, err := settings.Get(d.key, "")
		if err != nil {
			return err
		}
		if current != "" {
			continue
		}
		if _, err := settings.Set(d.key, d.value); err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", d.key, err)
		}
		logger.Get().Infof("Seeded setting %s=%s", d.key, d.value)
	}

	return nil
}
