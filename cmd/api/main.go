package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tolujohnson/eventmanager-backend/api/controllers"
	"github.com/tolujohnson/eventmanager-backend/api/routes"
	"github.com/tolujohnson/eventmanager-backend/internal/checkin"
	"github.com/tolujohnson/eventmanager-backend/internal/events"
	"github.com/tolujohnson/eventmanager-backend/internal/ledger"
	"github.com/tolujohnson/eventmanager-backend/internal/payments"
	"github.com/tolujohnson/eventmanager-backend/internal/settings"
	"github.com/tolujohnson/eventmanager-backend/internal/tickets"
	"github.com/tolujohnson/eventmanager-backend/internal/users"
	"github.com/tolujohnson/eventmanager-backend/pkg/config"
	"github.com/tolujohnson/eventmanager-backend/pkg/db"
	"github.com/tolujohnson/eventmanager-backend/pkg/email"
	"github.com/tolujohnson/eventmanager-backend/pkg/lock"
	"github.com/tolujohnson/eventmanager-backend/pkg/logger"
	"github.com/tolujohnson/eventmanager-backend/pkg/migrate"
	"github.com/tolujohnson/eventmanager-backend/pkg/qr"
	"github.com/tolujohnson/eventmanager-backend/pkg/redis"
	"github.com/tolujohnson/eventmanager-backend/pkg/storage/local"
	"go.uber.org/multierr"
)

const shutdownTimeout = 15 * time.Second

// mailerFromSettings builds an SMTP sender from the stored site settings,
// falling back to a no-op sender when mail is not configured yet.
func mailerFromSettings(ctx context.Context, svc settings.Service, logg *logger.Logger) email.Sender {
	setting, err := svc.Get(ctx)
	if err != nil || setting.SMTPHost == nil || setting.SMTPFrom == nil {
		logg.Warn(ctx, "smtp not configured, ticket emails disabled")
		return email.Noop{}
	}

	cfg := email.SMTPConfig{
		Host: *setting.SMTPHost,
		Port: setting.SMTPPort,
		From: *setting.SMTPFrom,
	}
	if setting.SMTPUsername != nil {
		cfg.Username = *setting.SMTPUsername
	}
	if setting.SMTPPassword != nil {
		cfg.Password = *setting.SMTPPassword
	}

	sender, err := email.NewSMTPSender(cfg)
	if err != nil {
		logg.Warn(ctx, "invalid smtp settings, ticket emails disabled")
		return email.Noop{}
	}
	return sender
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	// Redis is optional: without it check-in serialization falls back to the
	// in-process locker, which is only safe for single-instance deployments.
	var redisClient *redis.Client
	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		locker, err = lock.NewRedisLocker(redisClient, "event")
		if err != nil {
			logg.Error(context.Background(), "failed to create redis locker", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "redis not configured, using in-process event locks")
	}

	proofStore, err := local.New(cfg.Uploads.ProofDir)
	if err != nil {
		logg.Error(context.Background(), "failed to create proof store", err)
		os.Exit(1)
	}

	settingsService, err := settings.NewService(settings.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	ticketService, err := tickets.NewService(tickets.NewRepository(dbClient.DB()), qr.NewRenderer(), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create ticket service", err)
		os.Exit(1)
	}

	checkinService, err := checkin.NewService(checkin.NewRepository(dbClient.DB()), dbClient, locker, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkin service", err)
		os.Exit(1)
	}

	mailer := mailerFromSettings(context.Background(), settingsService, logg)

	eventService, err := events.NewService(events.NewRepository(dbClient.DB()), settingsService, ledgerService, ticketService, mailer, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create event service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(payments.NewRepository(dbClient.DB()), ledgerService, proofStore, dbClient, logg, cfg.Payments.GatewayBaseURL)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(users.NewRepository(dbClient.DB()), cfg.Password, cfg.JWT, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	services := routes.Services{
		Settings: settingsService,
		Ledger:   ledgerService,
		Tickets:  ticketService,
		Checkin:  checkinService,
		Events:   eventService,
		Payments: paymentService,
		Users:    userService,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	var redisPinger controllers.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}
	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisPinger, services),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logg.Error(ctx, "api server stopped unexpectedly", err)
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
	if redisClient != nil {
		closeErr = multierr.Append(closeErr, redisClient.Close())
	}
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if closeErr != nil {
		logg.Error(ctx, "shutdown finished with errors", closeErr)
		os.Exit(1)
	}
	logg.Info(ctx, "shutdown complete")
}
