package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/access"
	"github.com/mamadbah2/bakery/internal/config"
	"github.com/mamadbah2/bakery/internal/repository/mongodb"
	"github.com/mamadbah2/bakery/internal/repository/postgres"
	"github.com/mamadbah2/bakery/internal/repository/sheets"
	"github.com/mamadbah2/bakery/internal/scheduler"
	"github.com/mamadbah2/bakery/internal/server/handlers"
	"github.com/mamadbah2/bakery/internal/server/router"
	commandsvc "github.com/mamadbah2/bakery/internal/service/commands"
	invitationsvc "github.com/mamadbah2/bakery/internal/service/invitations"
	notifysvc "github.com/mamadbah2/bakery/internal/service/notify"
	recordsvc "github.com/mamadbah2/bakery/internal/service/records"
	reportingsvc "github.com/mamadbah2/bakery/internal/service/reporting"
	"github.com/mamadbah2/bakery/internal/shift"
	whatsappclient "github.com/mamadbah2/bakery/pkg/clients/whatsapp"
	"github.com/mamadbah2/bakery/pkg/logger"
	"github.com/mamadbah2/bakery/pkg/redis"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		baseLogger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	recordsRepo := postgres.NewRecordsRepository(pool)
	invitationsRepo := postgres.NewInvitationsRepository(pool)
	subscribersRepo := postgres.NewSubscribersRepository(pool)

	mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	var sink sheets.ReportSink
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sink = sheetsRepo
	} else {
		baseLogger.Info("google sheets not configured, shift reports are archived in mongodb only")
	}

	var locker scheduler.Locker
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.NewClient(cfg.Redis, logger.Named(baseLogger, "redis"))
		if err != nil {
			baseLogger.Warn("redis unavailable, shift close is not deduplicated across instances", zap.Error(err))
		} else {
			defer func() { _ = redisClient.Close() }()
			locker = redisClient
		}
	}

	dashboardResolver, inventoryResolver := buildResolvers(cfg.Shift, baseLogger)

	checker := access.NewRoleChecker()

	recordsSvc := recordsvc.NewService(recordsRepo, dashboardResolver, logger.Named(baseLogger, "svc.records"))
	dashboardSvc := reportingsvc.NewService(recordsRepo, dashboardResolver, mongoRepo, sink, logger.Named(baseLogger, "svc.reporting.dashboard"))
	// records carry dashboard shift labels, so the inventory view selects by time only
	inventorySvc := reportingsvc.NewService(recordsRepo, inventoryResolver, nil, nil, logger.Named(baseLogger, "svc.reporting.inventory"), reportingsvc.RangeOnly())
	invitationSvc := invitationsvc.NewService(invitationsRepo, checker, cfg.Auth.InvitationTTL, logger.Named(baseLogger, "svc.invitations"))
	commandDispatcher := commandsvc.NewService(recordsSvc, dashboardSvc, inventorySvc, checker, logger.Named(baseLogger, "svc.commands"))

	var whatsClient whatsappclient.Client
	if cfg.WhatsApp.Enabled() {
		whatsClient = whatsappclient.NewClient(cfg.WhatsApp)
		baseLogger.Info("whatsapp messaging enabled")
	} else {
		baseLogger.Warn("whatsapp credentials missing, notifications disabled")
	}
	messagingSvc := notifysvc.NewService(cfg.WhatsApp, whatsClient, commandDispatcher, subscribersRepo, logger.Named(baseLogger, "svc.notify"))

	engine := router.New(router.Handlers{
		Webhook:     handlers.NewWebhookHandler(messagingSvc, logger.Named(baseLogger, "handlers.webhook")),
		Records:     handlers.NewRecordsHandler(recordsSvc, logger.Named(baseLogger, "handlers.records")),
		Shift:       handlers.NewShiftHandler(dashboardSvc, inventorySvc, logger.Named(baseLogger, "handlers.shift")),
		Invitations: handlers.NewInvitationHandler(invitationSvc, logger.Named(baseLogger, "handlers.invitations")),
	}, router.Options{
		JWTSecret:      cfg.Auth.JWTSecret,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Checker:        checker,
	}, logger.Named(baseLogger, "router"))

	sched := scheduler.NewScheduler(cfg.Scheduler, dashboardResolver, dashboardSvc, messagingSvc, locker, logger.Named(baseLogger, "scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-sigCtx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// buildResolvers builds both shift schemes from configuration. A scheme with
// unusable settings degrades to the fallback resolver instead of stopping
// the server.
func buildResolvers(cfg config.ShiftConfig, log *zap.Logger) (*shift.Resolver, *shift.Resolver) {
	loc, locErr := shift.LoadLocation(cfg.Timezone)
	if locErr != nil {
		log.Warn("invalid shift timezone", zap.String("timezone", cfg.Timezone), zap.Error(locErr))
	}

	dashboard := shift.DashboardPolicy(loc)
	dashboard.MorningStartHour = cfg.DashboardMorningHour
	dashboard.NightStartHour = cfg.DashboardNightHour

	inventory := shift.InventoryPolicy(loc)
	inventory.MorningStartHour = cfg.InventoryMorningHour
	inventory.NightStartHour = cfg.InventoryNightHour
	inventory.FetchOffsetHour = cfg.InventoryFetchOffset
	if mode, err := shift.ParseFetchMode(cfg.InventoryFetchMode); err == nil {
		inventory.FetchMode = mode
	} else {
		inventory.FetchMode = shift.FetchMode(cfg.InventoryFetchMode)
	}

	return resolverOrFallback(dashboard, loc, log), resolverOrFallback(inventory, loc, log)
}

func resolverOrFallback(policy shift.Policy, loc *time.Location, log *zap.Logger) *shift.Resolver {
	resolver, err := shift.NewResolver(policy)
	if err == nil {
		return resolver
	}

	var cfgErr *shift.ConfigurationError
	if errors.As(err, &cfgErr) {
		log.Warn("shift settings invalid, using fallback windows",
			zap.String("policy", policy.Name),
			zap.String("field", cfgErr.Field),
			zap.Error(err))
	} else {
		log.Warn("failed to build shift resolver, using fallback windows", zap.String("policy", policy.Name), zap.Error(err))
	}

	if loc == nil {
		loc = time.UTC
	}
	return shift.FallbackResolver(policy.Name, loc)
}
