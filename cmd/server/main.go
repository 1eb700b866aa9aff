package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/AnshRaj112/mindjournal-backend/internal/accounts"
	"github.com/AnshRaj112/mindjournal-backend/internal/config"
	"github.com/AnshRaj112/mindjournal-backend/internal/database"
	"github.com/AnshRaj112/mindjournal-backend/internal/handlers"
	"github.com/AnshRaj112/mindjournal-backend/internal/logger"
	"github.com/AnshRaj112/mindjournal-backend/internal/middleware"
	"github.com/AnshRaj112/mindjournal-backend/internal/routes"
	"github.com/AnshRaj112/mindjournal-backend/internal/services"
	"github.com/AnshRaj112/mindjournal-backend/internal/session"
	"github.com/AnshRaj112/mindjournal-backend/internal/store"
	"github.com/AnshRaj112/mindjournal-backend/pkg/utils"
)

const (
	credentialInterval = 5 * time.Second
	credentialBurst    = 5
	sweepInterval      = 5 * time.Minute
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log := logger.New(logger.Config{
		Environment: cfg.Environment,
		Level:       logger.ParseLevel(cfg.LogLevel),
	}).With(logger.Component, logger.ComponentApp)
	if envErr != nil {
		log.Debug("no .env file found")
	}

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", logger.Error, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", logger.Error, err)
		os.Exit(1)
	}
}

// backends are the storage components selected by STORE_BACKEND.
type backends struct {
	entries  store.Backend
	tokens   session.Tokens
	accounts accounts.Store
	limiter  middleware.Limiter
	close    func()
}

func connect(ctx context.Context, cfg *config.Config, log *slog.Logger) (*backends, error) {
	if cfg.StoreBackend == config.BackendMemory {
		log.Warn("using in-memory storage; nothing survives a restart")
		return &backends{
			entries:  store.NewMemoryBackend(),
			tokens:   session.NewMemoryTokens(),
			accounts: accounts.NewMemoryStore(),
			limiter:  middleware.NewLocalLimiter(cfg.RateLimitPerMinute),
			close:    func() {},
		}, nil
	}

	var cipher store.FieldCipher
	if cfg.EncryptionKey == "" {
		log.Warn("ENCRYPTION_KEY not set; journal content is stored unencrypted")
	} else {
		c, err := utils.NewCipher(cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		cipher = c
		log.Info("✅ Encryption key configured")
	}

	if err := database.ConnectPostgres(ctx, cfg.PostgresURI, log); err != nil {
		return nil, err
	}
	if err := database.ConnectRedis(ctx, cfg.RedisURI, log); err != nil {
		_ = database.DisconnectPostgres()
		return nil, err
	}
	if err := database.Connect(ctx, cfg.MongoURI, log); err != nil {
		_ = database.DisconnectRedis()
		_ = database.DisconnectPostgres()
		return nil, err
	}
	closeAll := func() {
		if err := database.Disconnect(); err != nil {
			log.Warn("mongo disconnect failed", logger.Error, err)
		}
		if err := database.DisconnectRedis(); err != nil {
			log.Warn("redis disconnect failed", logger.Error, err)
		}
		if err := database.DisconnectPostgres(); err != nil {
			log.Warn("postgres disconnect failed", logger.Error, err)
		}
	}

	notifier := store.NewRedisNotifier(database.RedisClient, log)
	entries := store.NewMongoBackend(database.DB, notifier, cipher, log)
	if err := entries.EnsureIndexes(ctx); err != nil {
		log.Warn("failed to ensure entry indexes", logger.Error, err)
	} else {
		log.Info("✅ MongoDB entry indexes ensured")
	}

	return &backends{
		entries:  entries,
		tokens:   session.NewTokenStore(database.RedisClient),
		accounts: accounts.NewCachedStore(accounts.NewPostgresStore(database.PostgresDB), services.NewRedisCache(database.RedisClient), log),
		limiter:  middleware.NewRedisLimiter(database.RedisClient, cfg.RateLimitPerMinute),
		close:    closeAll,
	}, nil
}

func archiveFor(cfg *config.Config, log *slog.Logger) services.Archive {
	if !cfg.CloudinaryEnabled() {
		log.Info("Cloudinary credentials not found; export archives are disabled")
		return services.Disabled{}
	}
	up, err := services.NewArchiveUploader(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		log.Warn("failed to initialize Cloudinary; export archives are disabled", logger.Error, err)
		return services.Disabled{}
	}
	log.Info("✅ Cloudinary archive initialized")
	return up
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	b, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	h := handlers.New(handlers.Deps{
		Backend:        b.entries,
		Tokens:         b.tokens,
		Accounts:       accounts.NewService(b.accounts, accounts.WithLogger(log), accounts.WithDefaultTimezone(cfg.Timezone)),
		Archive:        archiveFor(cfg, log),
		Location:       cfg.Location(),
		Logger:         log,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	credentials := middleware.NewLocalLimiterEvery(credentialInterval, credentialBurst)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(log, cfg.TrustProxy))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	r.Use(middleware.RateLimit(b.limiter, cfg.TrustProxy, log))
	r.Use(middleware.CredentialThrottle(credentials, cfg.TrustProxy))
	routes.SetupRoutes(r, h)

	_ = chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		log.Debug("route registered", logger.Method, method, logger.Path, route)
		return nil
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv.RegisterOnShutdown(h.CloseStreams)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("🚀 MindJournal backend running", "addr", srv.Addr, logger.Operation, logger.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		credentials.RunSweeper(gctx, sweepInterval)
		return nil
	})
	if local, ok := b.limiter.(*middleware.LocalLimiter); ok {
		g.Go(func() error {
			local.RunSweeper(gctx, sweepInterval)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", logger.Operation, logger.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
