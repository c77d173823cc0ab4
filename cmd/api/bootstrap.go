package main

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/example/assetdesk/internal/config"
	"github.com/example/assetdesk/internal/db"
	"github.com/example/assetdesk/internal/logger"
)

// bootstrap loads configuration, installs the logger and opens the database.
func bootstrap() (*config.Config, *slog.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Logger); err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	log := logger.Get()

	database, err := db.New(cfg.Database, logger.WithComponent("db"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, log, database, nil
}
