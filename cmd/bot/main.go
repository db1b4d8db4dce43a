package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fitgram/exercise-bot/internal/bot"
	"github.com/fitgram/exercise-bot/internal/catalog"
	"github.com/fitgram/exercise-bot/internal/database"
	"github.com/fitgram/exercise-bot/internal/dedupe"
	"github.com/fitgram/exercise-bot/internal/health"
	"github.com/fitgram/exercise-bot/internal/history"
	"github.com/fitgram/exercise-bot/internal/jobs"
	jobhandlers "github.com/fitgram/exercise-bot/internal/jobs/handlers"
	"github.com/fitgram/exercise-bot/internal/lifecycle"
	"github.com/fitgram/exercise-bot/internal/locale"
	"github.com/fitgram/exercise-bot/internal/ratelimit"
	"github.com/fitgram/exercise-bot/internal/session"
	"github.com/fitgram/exercise-bot/internal/state"
	"github.com/fitgram/exercise-bot/pkg/config"
	"github.com/fitgram/exercise-bot/pkg/graceful"
	"github.com/fitgram/exercise-bot/pkg/logger"
	"github.com/fitgram/exercise-bot/pkg/metrics"
	"github.com/fitgram/exercise-bot/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	botToken := flag.String("bot-token", "", "Telegram bot token (overrides config and BOT_TOKEN env)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, _, err := config.Load(*botToken)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)

	log.Info("starting exercise bot",
		slog.String("env", cfg.AppEnv),
		slog.String("history_backend", cfg.History.Backend),
		slog.Bool("redis", cfg.Redis.Enabled),
	)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			return fmt.Errorf("initialize sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	shutdown := lifecycle.NewShutdown(log)

	locales, err := locale.Load(cfg.Locale.Dir, cfg.Locale.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}

	if cfg.Locale.Watch {
		go func() {
			if err := locales.Watch(ctx, log); err != nil {
				log.Error("locale watcher stopped", slog.Any("error", err))
			}
		}()
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.New(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		shutdown.Register("redis", func(context.Context) error {
			return redisClient.Close()
		})
	}

	var (
		storage  state.Storage
		sessions session.Store
		limiter  ratelimit.Limiter
		deduper  dedupe.Deduper
		machine  state.Machine
	)
	if redisClient != nil {
		storage = state.NewRedisStorage(redisClient.Client)
		sessions = session.NewRedisStore(redisClient.Client, cfg.Locale.DefaultLanguage)
		limiter = ratelimit.NewRedisLimiter(redisClient.Client, log)
		deduper = dedupe.NewRedisDeduper(redisClient.Client, log, dedupe.DefaultTTL)
		machine = state.NewMachine(storage, log, redisClient.Client)
	} else {
		storage = state.NewMemoryStorage()
		sessions = session.NewMemoryStore(cfg.Locale.DefaultLanguage)
		limiter = ratelimit.NewMemoryLimiter(log)
		deduper = dedupe.NewMemoryDeduper(dedupe.DefaultTTL)
		machine = state.NewMachine(storage, log, nil)
	}

	store, err := buildHistoryStore(ctx, *cfg, log)
	if err != nil {
		return err
	}
	shutdown.Register("history", func(context.Context) error {
		return store.Close()
	})

	if cfg.History.Async && redisClient != nil {
		store = startAsyncHistory(*cfg, store, log, shutdown)
	}

	recorder := history.NewRecorder(store, log)
	catalogClient := catalog.New(cfg.Catalog, log)

	b, err := bot.New(*cfg, log, bot.Deps{
		Locales:  locales,
		Sessions: sessions,
		Machine:  machine,
		Catalog:  catalogClient,
		Recorder: recorder,
		Limiter:  limiter,
		Deduper:  deduper,
	})
	if err != nil {
		return fmt.Errorf("build bot: %w", err)
	}

	go metrics.NewStateCollector(machine).Run(ctx)

	checker := health.NewChecker(log)
	checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))
	checker.AddCheck("locales", health.NewLocaleChecker(locales))
	if redisClient != nil {
		checker.AddCheck("redis", health.NewRedisChecker(redisClient.Client))
	}
	if pg, ok := store.(*history.PostgresStore); ok {
		checker.AddCheck("database", health.NewDBChecker(pg.DB()))
	}

	srv := graceful.NewServer(log, &http.Server{
		Addr:    cfg.Server.Port,
		Handler: serveMux(checker),
	}, cfg.Server.ShutdownTimeout)

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil {
			log.Error("http server exited", slog.Any("error", err))
		}
	}()

	shutdown.Register("telegram", func(context.Context) error {
		b.Stop()
		return nil
	})

	go b.Start()

	log.Info("exercise bot is running")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return shutdown.Execute(shutdownCtx)
}

func buildHistoryStore(ctx context.Context, cfg config.Config, log *slog.Logger) (history.Store, error) {
	if cfg.History.Backend == "postgres" {
		store, err := history.NewPostgresStore(cfg.History.DSN, log)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}

		migrator := database.NewMigrator(store.DB(), log)
		if err := migrator.ApplyDir(ctx, cfg.History.MigrationsDir); err != nil {
			return nil, fmt.Errorf("apply migrations: %w", err)
		}

		return store, nil
	}

	store, err := history.NewFileStore(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open history file store: %w", err)
	}

	return store, nil
}

// startAsyncHistory puts the asynq queue in front of the real store and
// starts the single drain worker in-process.
func startAsyncHistory(cfg config.Config, store history.Store, log *slog.Logger, shutdown *lifecycle.Shutdown) history.Store {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	worker := jobs.NewWorker(redisOpt, map[string]int{jobs.QueueLow: 1}, log)
	worker.RegisterHandler(jobs.TaskTypeHistoryAppend, jobhandlers.NewHistoryAppendHandler(store, log))

	go func() {
		if err := worker.Run(); err != nil {
			log.Error("jobs worker exited", slog.Any("error", err))
		}
	}()
	shutdown.Register("jobs-worker", func(context.Context) error {
		worker.Shutdown()
		return nil
	})

	manager := jobs.NewManager(redisOpt, log)
	return history.NewAsyncStore(manager, store, log)
}

func serveMux(checker *health.Checker) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		results := checker.Check(r.Context())

		status := http.StatusOK
		for _, result := range results {
			if result != "OK" {
				status = http.StatusServiceUnavailable
				break
			}
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		for name, result := range results {
			fmt.Fprintf(w, "%s: %s\n", name, result)
		}
	})

	return logger.Middleware(mux)
}
