package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"

	"telegram-expiry-reminder/internal/config"
	"telegram-expiry-reminder/internal/domain/ports/adapter"
	"telegram-expiry-reminder/internal/domain/ports/repository"
	tele "telegram-expiry-reminder/internal/infra/adapters/telegram"
	pg "telegram-expiry-reminder/internal/infra/db/postgres"
	"telegram-expiry-reminder/internal/infra/db/sqlite"
	adminhttp "telegram-expiry-reminder/internal/infra/http"
	"telegram-expiry-reminder/internal/infra/i18n"
	"telegram-expiry-reminder/internal/infra/logging"
	"telegram-expiry-reminder/internal/infra/memory"
	"telegram-expiry-reminder/internal/infra/metrics"
	red "telegram-expiry-reminder/internal/infra/redis"
	"telegram-expiry-reminder/internal/infra/scheduler"
	"telegram-expiry-reminder/internal/usecase"
)

// set via -ldflags
var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted text)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("fatal")
	}
	logger.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit, cfg.Database.Driver)

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return err
	}
	// dates are calendar dates in the configured zone
	clock := func() time.Time { return time.Now().In(loc) }

	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Locale)
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}

	// ---- Product store ----
	var (
		products repository.ProductRepository
		pingers  []adminhttp.Pinger
	)
	switch strings.ToLower(cfg.Database.Driver) {
	case "postgres":
		pool, err := pg.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		if err := pg.EnsureSchema(ctx, pool); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		go pg.ReportPoolStats(ctx, pool, 15*time.Second, logger)
		products = pg.NewPostgresProductRepo(pool, loc)
		pingers = append(pingers, pool)
	case "sqlite":
		repo, err := sqlite.Open(ctx, cfg.Database.Path, loc)
		if err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		defer repo.Close()
		products = repo
		pingers = append(pingers, repo)
	default:
		logger.Warn().Msg("using in-memory product store; data is lost on restart")
		products = memory.NewProductRepo()
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("product store ready")

	// ---- Redis (optional) ----
	var redisClient *red.Client
	if cfg.UsesRedis() {
		redisClient, err = red.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer redisClient.Close()
		pingers = append(pingers, redisClient)
	}

	var states repository.StateRepository = memory.NewStateRepo()
	if strings.EqualFold(cfg.State.Backend, "redis") && redisClient != nil {
		states = red.NewStateRepo(redisClient)
	}

	// ---- Use cases ----
	productUC := usecase.NewProductUseCase(products, clock, logger)
	convUC := usecase.NewConversationUseCase(states, productUC, tr, logger)

	// ---- Telegram ----
	var (
		bot     adapter.TelegramBotAdapter
		realBot *tele.RealTelegramBotAdapter
	)
	switch strings.ToLower(cfg.Bot.Mode) {
	case "noop":
		bot = tele.NewNoopBotAdapter(logger)
	default:
		opts := tele.Options{Workers: cfg.Bot.Workers, Dev: cfg.Runtime.Dev}
		if redisClient != nil && cfg.RateLimit.PerMinute > 0 {
			opts.Limiter = red.NewRateLimiter(redisClient)
			opts.PerMinute = cfg.RateLimit.PerMinute
			opts.LimitKey = red.UserUpdateKey
		}
		realBot, err = tele.NewRealTelegramBotAdapter(cfg.Bot, convUC, tr, opts, logger)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		bot = realBot
	}
	if err := bot.SetMenuCommands(ctx, tele.MenuCommands(tr)); err != nil {
		logger.Warn().Err(err).Msg("failed to set menu commands")
	}

	// ---- Scheduler ----
	notifUC := usecase.NewNotificationUseCase(products, bot, tr, cfg.Notify.Recipients, clock, logger)
	trigger, err := scheduler.NewTrigger(cfg.Scheduler)
	if err != nil {
		return err
	}
	schedOpts := scheduler.Options{RunOnStart: cfg.Scheduler.RunOnStart}
	if redisClient != nil && cfg.Scheduler.LockTTL > 0 {
		schedOpts.Locker = red.NewLocker(redisClient)
		schedOpts.LockKey = red.NotifyLockKey
		schedOpts.LockTTL = cfg.Scheduler.LockTTL
	}
	if len(cfg.Notify.Recipients) == 0 {
		logger.Warn().Msg("notify.recipients is empty; reminders will not be delivered")
	}
	sched := scheduler.NewScheduler(trigger, notifUC, schedOpts, logger)
	sched.Start(ctx)
	defer sched.Stop()

	// ---- Admin HTTP ----
	var admin *adminhttp.Server
	if cfg.Admin.Port > 0 {
		admin = adminhttp.NewServer(productUC, cfg.Admin.APIKey, clock, logger, pingers...)
		go func() {
			if err := admin.Start(cfg.Admin.Port); err != nil {
				logger.Error().Err(err).Msg("admin http server error")
			}
		}()
	}

	// ---- Run until signalled ----
	if realBot != nil {
		if err := realBot.StartPolling(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	} else {
		<-ctx.Done()
	}
	logger.Info().Msg("shutdown requested")

	if admin != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := admin.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("admin http shutdown")
		}
	}
	return nil
}
