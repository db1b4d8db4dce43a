package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/fitgram/exercise-bot/internal/apperrors"
	"github.com/fitgram/exercise-bot/internal/bot/keyboard"
	"github.com/fitgram/exercise-bot/internal/history"
	"github.com/fitgram/exercise-bot/internal/locale"
	"github.com/fitgram/exercise-bot/internal/session"
)

// NewLangHandler serves /lang with the language selection keyboard.
func NewLangHandler(locales *locale.Manager, sessions session.Store, recorder *history.Recorder, kb *keyboard.Builder, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		ctx := context.Background()
		userID := senderID(c)

		recorder.Record(ctx, userID, senderUsername(c), c.Text())

		bundle := bundleFor(ctx, locales, sessions, userID)
		return c.Send(bundle.Message("lang.1"), kb.LanguageMenu())
	}
}

// HandleLangSelect applies a language selection: the session switches first,
// then the confirmation help text already arrives in the new language.
func HandleLangSelect(locales *locale.Manager, sessions session.Store, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context, payload string) error {
		ctx := context.Background()
		userID := senderID(c)

		bundle, err := locales.Bundle(payload)
		if err != nil {
			return apperrors.NewLocaleError(payload)
		}

		if err := sessions.SetLanguage(ctx, userID, payload); err != nil {
			return err
		}

		if err := c.Respond(); err != nil {
			log.Warn("failed to answer callback query", slog.Any("error", err))
		}

		return c.Send(bundle.Message("help_text"))
	}
}
