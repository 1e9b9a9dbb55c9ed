package main

import (
	"log"
	"os"

	"github.com/noah-isme/postgrad-supervision-api/internal/repository"
	"github.com/noah-isme/postgrad-supervision-api/pkg/config"
	"github.com/noah-isme/postgrad-supervision-api/pkg/database"
	"github.com/noah-isme/postgrad-supervision-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	cli := commandLine{
		users:   repository.NewUserRepository(db),
		migrate: gooseMigrator(db.DB),
		logger:  logr,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logr.Sugar().Errorw("admin command failed", "error", err)
		}
		db.Close()
		os.Exit(1)
	}
}
