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

	"gymdash/internal/adapters/cache"
	"gymdash/internal/adapters/email"
	web "gymdash/internal/adapters/http"
	"gymdash/internal/adapters/http/perf"
	"gymdash/internal/adapters/sms"
	"gymdash/internal/adapters/storage"
	accessLogStore "gymdash/internal/adapters/storage/accesslog"
	accountStore "gymdash/internal/adapters/storage/account"
	checkInStore "gymdash/internal/adapters/storage/checkin"
	franchiseStore "gymdash/internal/adapters/storage/franchise"
	memberStore "gymdash/internal/adapters/storage/member"
	outboxStore "gymdash/internal/adapters/storage/outbox"
	paymentStore "gymdash/internal/adapters/storage/payment"
	productStore "gymdash/internal/adapters/storage/product"
	saleStore "gymdash/internal/adapters/storage/sale"
	scheduleStore "gymdash/internal/adapters/storage/schedule"
	trainerStore "gymdash/internal/adapters/storage/trainer"
	"gymdash/internal/application/orchestrators"
	"gymdash/internal/config"
	"gymdash/internal/domain/outbox"
	"gymdash/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger not configured yet
		zap.NewExample().Fatal("failed to load configuration", zap.Error(err))
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format).With(zap.String("app", cfg.App.Name))
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialect := storage.ParseDialect(cfg.Database.Driver)
	db, err := storage.Open(ctx, dialect, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	if dialect == storage.DialectPostgres {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, storage.TimedDBConfig{
		Dialect:     dialect,
		Collector:   collector,
		Logger:      log,
		SlowQueryMs: cfg.Database.SlowQueryMs,
	})
	if err := storage.InitDB(ctx, timedDB); err != nil {
		return err
	}
	log.Info("database_ready", zap.String("driver", storage.DriverName(dialect)))

	stores := web.Stores{
		AccountStore:   accountStore.NewSQLiteStore(timedDB),
		MemberStore:    memberStore.NewSQLiteStore(timedDB),
		TrainerStore:   trainerStore.NewSQLiteStore(timedDB),
		CheckInStore:   checkInStore.NewSQLiteStore(timedDB),
		PaymentStore:   paymentStore.NewSQLiteStore(timedDB),
		ProductStore:   productStore.NewSQLiteStore(timedDB),
		SaleStore:      saleStore.NewSQLiteStore(timedDB),
		ScheduleStore:  scheduleStore.NewSQLiteStore(timedDB),
		AccessLogStore: accessLogStore.NewSQLiteStore(timedDB),
		FranchiseStore: franchiseStore.NewSQLiteStore(timedDB),
		OutboxStore:    outboxStore.NewSQLiteStore(timedDB),
	}

	var dashCache cache.Cache = cache.Noop{}
	if cfg.Redis.Enabled {
		rc := cache.NewRedis(cfg.Redis, "gymdash:", log)
		if err := rc.Ping(ctx); err != nil {
			log.Warn("redis_unavailable", zap.Error(err))
		} else {
			defer rc.Close()
			dashCache = rc
		}
	}

	if err := seed(ctx, cfg, stores, log); err != nil {
		return err
	}

	processor, err := newOutboxProcessor(ctx, cfg, stores, log)
	if err != nil {
		return err
	}
	stopOutbox := orchestrators.StartBackgroundWorker(ctx, processor, cfg.Alerts.OutboxInterval, log)
	defer stopOutbox()

	if cfg.Alerts.Enabled {
		stopSweep := orchestrators.StartScheduler(ctx, "overdue_sweep", cfg.Alerts.Interval, func(ctx context.Context) error {
			_, err := orchestrators.ExecuteOverdueSweep(ctx, cfg.Alerts.OverdueGrace, orchestrators.PaymentDeps{
				PaymentStore: stores.PaymentStore,
				MemberStore:  stores.MemberStore,
				Cache:        dashCache,
				Logger:       log,
			})
			return err
		}, log)
		defer stopSweep()

		stopAlerts := orchestrators.StartScheduler(ctx, "threshold_alerts", cfg.Alerts.Interval, func(ctx context.Context) error {
			_, err := orchestrators.ExecuteThresholdAlerts(ctx, orchestrators.AlertsDeps{
				ProductStore:  stores.ProductStore,
				PaymentStore:  stores.PaymentStore,
				MemberStore:   stores.MemberStore,
				ScheduleStore: stores.ScheduleStore,
				OutboxStore:   stores.OutboxStore,
				Config:        cfg.Alerts,
				Logger:        log,
			})
			return err
		}, log)
		defer stopAlerts()
	}

	mux, _, err := web.NewMux(web.Options{
		Stores:    stores,
		Config:    cfg,
		Cache:     dashCache,
		Collector: collector,
		Outbox:    processor,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.App.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server_listening",
			zap.String("addr", cfg.App.Addr),
			zap.String("environment", cfg.App.Environment),
			zap.String("version", version),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// seed creates the first admin account and, outside production, demo data.
func seed(ctx context.Context, cfg *config.Config, stores web.Stores, log *zap.Logger) error {
	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		created, err := orchestrators.ExecuteSeedAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, orchestrators.CreateAccountDeps{
			AccountStore: stores.AccountStore,
			Logger:       log,
		})
		if err != nil {
			return err
		}
		if created {
			log.Info("admin_seeded", zap.String("email", cfg.Auth.AdminEmail))
		}
	}

	if !cfg.App.SeedDemo {
		return nil
	}
	if cfg.App.IsProduction() {
		log.Warn("demo_seed_skipped", zap.String("reason", "production environment"))
		return nil
	}
	seeded, err := orchestrators.ExecuteSeedDemo(ctx, orchestrators.DemoSeedDeps{
		FranchiseStore: stores.FranchiseStore,
		MemberStore:    stores.MemberStore,
		TrainerStore:   stores.TrainerStore,
		ProductStore:   stores.ProductStore,
		ScheduleStore:  stores.ScheduleStore,
		PaymentStore:   stores.PaymentStore,
		CheckInStore:   stores.CheckInStore,
		Logger:         log,
	})
	if err != nil {
		return err
	}
	log.Info("demo_seed", zap.Bool("seeded", seeded))
	return nil
}

// newOutboxProcessor wires the configured email and SMS providers as outbox
// executors.
func newOutboxProcessor(ctx context.Context, cfg *config.Config, stores web.Stores, log *zap.Logger) (*orchestrators.OutboxProcessor, error) {
	mailer, err := email.NewSender(ctx, cfg.Email, log)
	if err != nil {
		return nil, err
	}
	texter, err := sms.NewSender(ctx, cfg.SMS, log)
	if err != nil {
		return nil, err
	}
	return orchestrators.NewOutboxProcessor(stores.OutboxStore, map[string]orchestrators.ActionExecutor{
		outbox.ActionTypeEmail: &orchestrators.EmailExecutor{Sender: mailer, From: cfg.Email.From, ReplyTo: cfg.Email.ReplyTo},
		outbox.ActionTypeSMS:   &orchestrators.SMSExecutor{Sender: texter},
	}, log), nil
}
