package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/fitgram/exercise-bot/internal/apperrors"
	"github.com/fitgram/exercise-bot/internal/bot/handlers"
	"github.com/fitgram/exercise-bot/internal/bot/keyboard"
	"github.com/fitgram/exercise-bot/internal/dedupe"
	"github.com/fitgram/exercise-bot/internal/ratelimit"
	"github.com/fitgram/exercise-bot/pkg/config"
	"github.com/fitgram/exercise-bot/pkg/logger"
	"github.com/fitgram/exercise-bot/pkg/metrics"
)

// RecoveryMiddleware catches panics, reports them via the centralized
// handler, and notifies the user. A panic in one handler never takes down
// the dispatch loop.
func RecoveryMiddleware(log *slog.Logger, errHandler *apperrors.Handler) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered in handler", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))

					userMsg := "Произошла ошибка. Попробуйте позже"
					if errHandler != nil {
						panicErr := fmt.Errorf("panic recovered: %v", r)
						if msg, _ := errHandler.Handle(context.Background(), panicErr); msg != "" {
							userMsg = msg
						}
					}

					if c != nil {
						if sendErr := c.Send(userMsg); sendErr != nil {
							log.Error("failed to notify user about panic", slog.Any("error", sendErr))
						}
					}

					err = nil
				}
			}()

			return next(c)
		}
	}
}

// ErrorHandlingMiddleware centralizes error reporting and user messaging for
// handler failures. Handler errors stop here: the dispatch loop always sees
// nil.
func ErrorHandlingMiddleware(errHandler *apperrors.Handler) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				metrics.RecordError(appErr.Code, string(appErr.Severity))
			} else {
				metrics.RecordError("unknown", "unknown")
			}

			userMsg := "Произошла ошибка. Попробуйте позже"
			if errHandler != nil {
				if msg, _ := errHandler.Handle(contextFor(c), err); msg != "" {
					userMsg = msg
				}
			}

			if c != nil {
				_ = c.Send(userMsg)
			}

			return nil
		}
	}
}

// LoggingMiddleware logs basic telemetry about incoming updates, tagging
// each with a correlation ID.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			start := time.Now()
			userID := int64(0)
			if c != nil && c.Sender() != nil {
				userID = c.Sender().ID
			}

			action := actionOf(c)

			log.Info("handling update", slog.Int64("user_id", userID), slog.String("action", action))
			err := next(c)
			log.Info("handled update",
				slog.Int64("user_id", userID),
				slog.String("action", action),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}

// MetricsMiddleware records command counters and durations.
func MetricsMiddleware(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.RecordCommand(actionKind(c), status, time.Since(start))

		return err
	}
}

// RateLimitMiddleware enforces the per-user request budget. Whitelisted users
// bypass the limiter.
func RateLimitMiddleware(limiter ratelimit.Limiter, cfg config.RateLimitConfig, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	whitelist := make(map[int64]struct{}, len(cfg.Whitelist))
	for _, id := range cfg.Whitelist {
		whitelist[id] = struct{}{}
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			if !cfg.Enabled || limiter == nil || c == nil || c.Sender() == nil {
				return next(c)
			}

			userID := c.Sender().ID
			if _, ok := whitelist[userID]; ok {
				return next(c)
			}

			result, err := limiter.Check(contextFor(c), fmt.Sprintf("user:%d", userID), cfg.PerUser, cfg.Window)
			if err != nil {
				if errors.Is(err, ratelimit.ErrLimitExceeded) {
					retryAfter := int(time.Until(result.ResetAt).Seconds())
					if retryAfter < 1 {
						retryAfter = 1
					}
					appErr := apperrors.NewRateLimitError(retryAfter)
					return c.Send(appErr.UserMessage)
				}

				// A broken limiter backend fails open.
				log.Error("rate limiter check failed", slog.Int64("user_id", userID), slog.Any("error", err))
			}

			return next(c)
		}
	}
}

// DedupeMiddleware drops updates whose identity was already processed.
// Telegram redelivers updates after restarts; users double-tap buttons.
func DedupeMiddleware(deduper dedupe.Deduper, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			if deduper == nil || c == nil {
				return next(c)
			}

			key := updateKey(c)
			if key == "" {
				return next(c)
			}

			seen, err := deduper.Seen(contextFor(c), key)
			if err != nil {
				// Fail open: dropping fresh updates is worse than a repeat.
				log.Error("dedupe check failed", slog.Any("error", err))
				return next(c)
			}

			if seen {
				log.Info("dropping duplicate update", slog.String("key", key))
				if c.Callback() != nil {
					_ = c.Respond()
				}
				return nil
			}

			return next(c)
		}
	}
}

func updateKey(c telebot.Context) string {
	userID := int64(0)
	if c.Sender() != nil {
		userID = c.Sender().ID
	}

	if cb := c.Callback(); cb != nil {
		msgID := 0
		if cb.Message != nil {
			msgID = cb.Message.ID
		}
		return dedupe.Key("callback", userID, msgID, cb.Data)
	}

	return dedupe.Key("update", c.Update().ID)
}

func actionOf(c telebot.Context) string {
	if c == nil {
		return ""
	}
	if cb := c.Callback(); cb != nil {
		return cb.Data
	}
	return c.Text()
}

// actionKind collapses the action to a low-cardinality metric label: the
// command or callback unique, never free text.
func actionKind(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil {
		unique, _, err := keyboard.DecodeCallback(strings.TrimPrefix(cb.Data, "\f"))
		if err != nil {
			unique = "unknown"
		}
		return "callback:" + unique
	}

	if cmd := commandOf(c.Text()); cmd != "" {
		return cmd
	}

	return "text"
}

func contextFor(c telebot.Context) context.Context {
	return logger.WithCorrelationID(context.Background())
}
