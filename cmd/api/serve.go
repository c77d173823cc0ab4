package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/example/assetdesk/internal/auth"
	"github.com/example/assetdesk/internal/db"
	httpserver "github.com/example/assetdesk/internal/http"
	"github.com/example/assetdesk/internal/logger"
	"github.com/example/assetdesk/internal/mq"
	"github.com/example/assetdesk/internal/notify"
	"github.com/example/assetdesk/internal/repository"
	"github.com/example/assetdesk/internal/service"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	cfg, log, database, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.Close(database)

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(database); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
	}

	var publisher mq.Publisher
	if cfg.MQ.URL != "" {
		rabbit, err := mq.NewRabbitPublisher(cfg.MQ.URL, cfg.MQ.Exchange, logger.WithComponent("mq"))
		if err != nil {
			log.Warn("rabbitmq unavailable, continuing without events", "error", err)
		} else {
			publisher = rabbit
			defer rabbit.Close()
		}
	}

	guard, err := auth.NewDefaultGuard()
	if err != nil {
		return err
	}
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	equipmentRepo := repository.NewEquipmentRepository(database)
	repairRepo := repository.NewRepairRepository(database)
	userRepo := repository.NewUserRepository(database)

	notifier := notify.FromConfig(cfg.Telegram, cfg.Email)
	if _, ok := notifier.(notify.Nop); ok {
		log.Info("no notification channel configured")
	}

	gin.SetMode(cfg.Server.Mode)
	api := httpserver.NewServer(httpserver.Deps{
		DB:        database,
		Repairs:   service.NewRepairService(repairRepo, equipmentRepo, publisher, notifier, nil, logger.WithComponent("repairs")),
		Equipment: service.NewEquipmentService(equipmentRepo, repairRepo, db.NewTransactionManager(database), publisher, cfg.Pagination.MaxPageSize, logger.WithComponent("equipment")),
		Reports:   service.NewReportService(equipmentRepo, repairRepo),
		Users:     service.NewUserService(userRepo, auth.NewPasswordHasher(cfg.Auth.BcryptCost), tokens, logger.WithComponent("users")),
		Tokens:    tokens,
		Guard:     guard,
		Log:       logger.WithComponent("http"),
	})

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: api.Engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info("shutdown initiated")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}
	log.Info("bye")
	return nil
}
