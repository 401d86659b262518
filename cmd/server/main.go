package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"squad-backend/internal/analytics"
	"squad-backend/internal/auth"
	"squad-backend/internal/blob"
	"squad-backend/internal/config"
	"squad-backend/internal/email"
	"squad-backend/internal/handlers"
	"squad-backend/internal/notify"
	"squad-backend/internal/state"
	"squad-backend/internal/state/sqlite"
	"squad-backend/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	health := map[string]handlers.HealthCheck{}

	// --- Persistence ---
	var s store.Store
	switch cfg.Mode() {
	case config.ModeDatabase:
		db, err := store.OpenPostgres(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("database handle: %w", err)
		}
		defer sqlDB.Close()

		g := store.NewGormStore(db)
		if err := g.Migrate(ctx); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		health["database"] = sqlDB.PingContext
		s = g
		logger.Info("connected to database")
	default:
		p, closeFn, err := openPersister(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		st := state.New(p, logger, state.NewMetrics(reg))
		health["state"] = func(ctx context.Context) error {
			_, err := st.Read(ctx)
			return err
		}
		s = store.NewLocalStore(st)
		logger.Info("local dev mode", "backend", cfg.StateBackend, "location", st.Location())
	}
	if err := s.SyncAccounts(ctx); err != nil {
		return fmt.Errorf("syncing player accounts: %w", err)
	}

	// --- Files ---
	files, err := blob.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening file storage: %w", err)
	}
	logger.Info("file storage ready", "driver", files.Driver())

	// --- Notifications ---
	mailer := &email.Config{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	}
	if !mailer.IsConfigured() {
		logger.Info("SMTP not configured, urgent notifications will not be mailed")
	}
	broker := notify.NewBroker()
	dispatcher := notify.NewDispatcher(s, broker, mailer, logger)

	authn := auth.New(s, auth.Admin{Email: cfg.LocalAdminEmail, Password: cfg.LocalAdminPassword}, cfg.JWTSecret, cfg.TokenTTL)

	// --- HTTP Server ---
	h := handlers.New(handlers.Deps{
		Store:      s,
		Auth:       authn,
		Notify:     dispatcher,
		Broker:     broker,
		Blob:       files,
		Registry:   reg,
		Health:     health,
		CORSOrigin: cfg.CORSOrigin,
		Logger:     logger,
	})
	srv := handlers.NewServer(cfg.HTTPAddr, h.Routes(), logger)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		return analytics.NewScheduler(s, cfg.AnalyticsInterval, logger).Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

// openPersister returns the local-dev persister selected by STATE_BACKEND.
func openPersister(ctx context.Context, cfg *config.Config) (state.Persister, func(), error) {
	noop := func() {}
	switch cfg.StateBackend {
	case "memory":
		return state.NewMemoryPersister(), noop, nil
	case "sqlite":
		p, err := sqlite.Open(filepath.Join(cfg.StateDir, "state.db"))
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite state: %w", err)
		}
		return p, func() { p.Close() }, nil
	case "firestore":
		p, err := state.NewFirestorePersister(ctx, cfg.GCPProjectID, cfg.FirestoreDatabase, cfg.FirestoreCollection, cfg.CredentialsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("opening firestore state: %w", err)
		}
		return p, func() { p.Close() }, nil
	default:
		p, err := state.NewFilePersister(cfg.StateDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening state directory: %w", err)
		}
		return p, noop, nil
	}
}
