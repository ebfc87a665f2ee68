package main

import (
	"log/slog"
	"os"

	"studybuddy/backend/internal/config"
	"studybuddy/backend/internal/db"
	"studybuddy/backend/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(os.Stderr, cfg.LogLevel)

	if cfg.DBPath == db.MemoryPath {
		log.Warn("DB_PATH is in-memory, migrations will not persist")
	}

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Error("open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrations(database, log); err != nil {
		log.Error("run migrations", "error", err)
		os.Exit(1)
	}

	version, err := db.MigrationVersion(database)
	if err != nil {
		log.Error("read migration version", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied successfully", "version", version)
}
