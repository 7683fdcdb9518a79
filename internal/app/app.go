package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"bioguard/internal/config"
	"bioguard/internal/infra/telegram"
	"bioguard/internal/repo/memory"
	redisrepo "bioguard/internal/repo/redis"
	"bioguard/internal/services/audit"
	"bioguard/internal/services/biocache"
	"bioguard/internal/services/dispatch"
	"bioguard/internal/services/linkcheck"
	"bioguard/internal/services/moderation"
	"bioguard/internal/services/registry"
	"bioguard/internal/transport/http/handlers"
)

type App struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *goredis.Client
	tg     *telegram.Client
	server *http.Server

	engine    *moderation.Engine
	scheduler *dispatch.Scheduler
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st := openStores(ctx, cfg.Storage, logger)
	logger.Info("storage ready", "driver", st.driver)

	var cooldown moderation.CooldownStore = memory.NewCooldownRepo()
	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		client, err := redisrepo.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("redis unavailable, notify cooldown kept in memory", "error", err)
		} else {
			redisClient = client
			cooldown = redisrepo.NewCooldownRepo(client)
		}
	}

	chatRegistry := registry.NewService(st.chats)
	auditService := audit.NewService(st.deletions)
	verdictCache, err := biocache.NewService(st.verdicts, biocache.Options{
		Size: cfg.Moderation.VerdictCacheSize,
		TTL:  cfg.Moderation.VerdictTTL,
	})
	if err != nil {
		closeStores(st.db, redisClient, logger)
		return nil, fmt.Errorf("create verdict cache: %w", err)
	}

	app := &App{
		cfg:       cfg,
		logger:    logger,
		db:        st.db,
		redis:     redisClient,
		scheduler: dispatch.NewScheduler(logger),
	}

	app.tg, err = telegram.NewClient(cfg.BotToken, cfg.PollTimeoutSeconds, logger, app.routeUpdate)
	if err != nil {
		closeStores(st.db, redisClient, logger)
		return nil, fmt.Errorf("create telegram client: %w", err)
	}

	app.engine = moderation.NewEngine(moderation.Deps{
		Registry:   chatRegistry,
		Cache:      verdictCache,
		Audit:      auditService,
		Platform:   app.tg,
		Cooldown:   cooldown,
		Classifier: linkcheck.New(linkcheck.Options{DetectIPv4: cfg.Moderation.DetectIPv4}),
	}, moderation.Options{
		MaxInFlight:      int64(cfg.Moderation.MaxInFlight),
		NotifyCooldown:   cfg.Moderation.NotifyCooldown,
		MaxRateLimitWait: cfg.Moderation.MaxRateLimitWait,
		Logger:           logger,
	})

	if cfg.IsHTTPEnabled() {
		app.server = &http.Server{
			Addr: cfg.HTTP.Addr,
			Handler: handlers.NewRouter(
				handlers.NewHealthHandler(app.scheduler, verdictCache),
				handlers.NewReportHandler(chatRegistry, auditService, verdictCache, logger),
			),
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		}
	}

	return app, nil
}

// Run polls Telegram (and serves the admin HTTP endpoints when configured)
// until ctx is done, then drains queued moderation work.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer stop()
		return a.tg.Start(gctx)
	})

	if a.server != nil {
		g.Go(func() error {
			a.logger.Info("admin http listening", "addr", a.server.Addr)
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin http: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			return a.server.Shutdown(shutdownCtx)
		})
	}

	runErr := g.Wait()

	graceCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownGrace)
	defer cancel()
	if err := a.scheduler.Shutdown(graceCtx); err != nil {
		a.logger.Warn("moderation work cancelled at shutdown", "error", err)
	}

	return runErr
}

func (a *App) close() {
	closeStores(a.db, a.redis, a.logger)
}

func closeStores(db *sql.DB, redisClient *goredis.Client, logger *slog.Logger) {
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("close database", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis", "error", err)
		}
	}
}
