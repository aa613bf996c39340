package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"quddle-backend/migrations"
	"quddle-backend/pkg/config"
	"quddle-backend/pkg/logger"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func main() {
	var (
		dir     = flag.String("dir", "migrations", "directory new migration files are created in")
		command = flag.String("command", "up", "migration command (up, down, redo, status, version, create)")
		name    = flag.String("name", "", "name for new migration (used with create command)")
	)
	flag.Parse()

	log := logger.New()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	if err := run(cfg, *dir, *command, *name, log); err != nil {
		log.Error("Migration command %q failed: %v", *command, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, dir, command, name string, log *logger.Logger) error {
	if command == "create" {
		if name == "" {
			return fmt.Errorf("name is required for create command")
		}
		if err := goose.Create(nil, dir, name, "sql"); err != nil {
			return err
		}
		log.Info("Created migration: %s", name)
		return nil
	}

	db, err := sql.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db, command); err != nil {
		return err
	}

	switch command {
	case "up":
		log.Info("Migrations applied successfully")
	case "down":
		log.Info("Migrations rolled back successfully")
	case "redo":
		log.Info("Latest migration re-applied")
	}
	return nil
}
