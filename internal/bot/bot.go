// Package bot wires the Telegram transport to the dialog flows: command
// routing, callback correlation, continuation dispatch, and the middleware
// chain every update passes through.
package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/fitgram/exercise-bot/internal/apperrors"
	"github.com/fitgram/exercise-bot/internal/bot/handlers"
	"github.com/fitgram/exercise-bot/internal/bot/keyboard"
	"github.com/fitgram/exercise-bot/internal/catalog"
	"github.com/fitgram/exercise-bot/internal/dedupe"
	"github.com/fitgram/exercise-bot/internal/history"
	"github.com/fitgram/exercise-bot/internal/locale"
	"github.com/fitgram/exercise-bot/internal/ratelimit"
	"github.com/fitgram/exercise-bot/internal/session"
	"github.com/fitgram/exercise-bot/internal/state"
	"github.com/fitgram/exercise-bot/pkg/config"
)

// Bot wraps telebot.Bot with the application dependencies required for
// handling updates.
type Bot struct {
	telebot    *telebot.Bot
	log        *slog.Logger
	cfg        config.Config
	router     *Router
	dispatcher *Dispatcher
	keyboard   *keyboard.Builder
	errHandler *apperrors.Handler
}

// Deps carries the services the dialog flows depend on.
type Deps struct {
	Locales  *locale.Manager
	Sessions session.Store
	Machine  state.Machine
	Catalog  catalog.Searcher
	Recorder *history.Recorder
	Limiter  ratelimit.Limiter
	Deduper  dedupe.Deduper
}

// New builds a telegram bot instance configured according to the application
// settings.
func New(cfg config.Config, log *slog.Logger, deps Deps) (*Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Server.Port,
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	kb := keyboard.NewBuilder(log)
	dispatcher := NewDispatcher(deps.Machine, log)
	router := NewRouter(dispatcher, log)
	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)

	b := &Bot{
		telebot:    tb,
		log:        log,
		cfg:        cfg,
		router:     router,
		dispatcher: dispatcher,
		keyboard:   kb,
		errHandler: errHandler,
	}

	b.setupRouter(deps)

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)

	return b, nil
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such
// as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) setupRouter(deps Deps) {
	b.router.Use(RecoveryMiddleware(b.log, b.errHandler))
	b.router.Use(DedupeMiddleware(deps.Deduper, b.log))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(MetricsMiddleware)
	b.router.Use(RateLimitMiddleware(deps.Limiter, b.cfg.RateLimit, b.log))

	help := handlers.NewHelpHandler(deps.Locales, deps.Sessions, deps.Recorder, b.log)
	b.router.RegisterCommand(CommandStart, help)
	b.router.RegisterCommand(CommandHelp, help)
	b.router.RegisterCommand(CommandLang, handlers.NewLangHandler(deps.Locales, deps.Sessions, deps.Recorder, b.keyboard, b.log))
	b.router.RegisterCommand(CommandPrimary, handlers.NewMuscleSearchHandler(state.FlowPrimary, deps.Catalog, deps.Locales, deps.Sessions, deps.Recorder, b.keyboard, b.log))
	b.router.RegisterCommand(CommandSecondary, handlers.NewMuscleSearchHandler(state.FlowSecondary, deps.Catalog, deps.Locales, deps.Sessions, deps.Recorder, b.keyboard, b.log))
	b.router.RegisterCommand(CommandSubstr, handlers.NewSubstrHandler(deps.Locales, deps.Sessions, deps.Recorder, deps.Machine, b.log))
	b.router.RegisterCommand(CommandHistory, handlers.NewHistoryHandler(deps.Locales, deps.Sessions, deps.Recorder, b.log))
	b.router.SetDefault(handlers.NewDefaultHandler(deps.Locales, deps.Sessions, deps.Recorder, b.log))

	b.router.RegisterCallback(keyboard.UniqueLangSelect, handlers.HandleLangSelect(deps.Locales, deps.Sessions, b.log))
	b.router.RegisterCallback(keyboard.UniquePrimaryMuscle, handlers.HandleMuscleSelect(state.FlowPrimary, deps.Locales, deps.Sessions, deps.Machine, b.log))
	b.router.RegisterCallback(keyboard.UniqueSecondaryMuscle, handlers.HandleMuscleSelect(state.FlowSecondary, deps.Locales, deps.Sessions, deps.Machine, b.log))
	b.router.RegisterCallback(keyboard.UniqueSubstrPick, handlers.HandleSubstrPick(deps.Catalog, deps.Locales, deps.Sessions, b.log))

	b.dispatcher.RegisterStateHandler(state.StateAwaitingLimit, handlers.NewLimitStateHandler(deps.Catalog, deps.Locales, deps.Sessions, deps.Machine, b.log))
	b.dispatcher.RegisterStateHandler(state.StateAwaitingQuery, handlers.NewQueryStateHandler(deps.Locales, deps.Sessions, deps.Machine, b.keyboard, b.log))
}
