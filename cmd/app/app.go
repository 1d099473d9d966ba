package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mattraynor/fundraiser-api/internal/api"
	"github.com/mattraynor/fundraiser-api/internal/config"
	"github.com/mattraynor/fundraiser-api/internal/db"
	"github.com/mattraynor/fundraiser-api/internal/logger"
	"github.com/mattraynor/fundraiser-api/internal/mailer"
	"github.com/mattraynor/fundraiser-api/internal/payment"
	"github.com/mattraynor/fundraiser-api/internal/queue"
	"github.com/mattraynor/fundraiser-api/internal/repository"
	"github.com/mattraynor/fundraiser-api/internal/repository/dao"
	"github.com/mattraynor/fundraiser-api/internal/service"
	"github.com/mattraynor/fundraiser-api/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	if err = dao.InitTables(postgresDB); err != nil {
		return fmt.Errorf("failed to initialize tables -> %w", err)
	}

	provider := payment.NewStripeProvider(conf.Stripe.SecretKey, conf.Stripe.WebhookSecret)

	tasks, err := queue.NewRedisQueue(conf.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize task queue -> %w", err)
	}
	defer tasks.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startEmailWorker(ctx, conf, postgresDB, tasks)

	s := api.NewServer(conf, postgresDB, provider, tasks)

	addr := ":" + s.Config.API.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err = <-errCh:
		return fmt.Errorf("failed to start the server -> %w", err)
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down the server -> %w", err)
	}

	return nil
}

func startEmailWorker(ctx context.Context, conf *config.AppConfig, postgresDB *gorm.DB, tasks *queue.RedisQueue) {
	emailRepo := repository.NewEmailRepository(dao.NewEmailDAO(postgresDB))
	donationRepo := repository.NewDonationRepository(dao.NewDonationDAO(postgresDB))
	campaignRepo := repository.NewCampaignRepository(dao.NewCampaignDAO(postgresDB))
	sender := mailer.NewSMTPSender(conf.SMTP)
	emails := service.NewEmailService(emailRepo, donationRepo, campaignRepo, sender, conf.API)

	w := worker.NewEmailWorker(tasks, emails)
	go func() {
		if err := w.Start(ctx); err != nil {
			zap.L().Error("email worker stopped", zap.Error(err))
		}
	}()
}
