package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/fitgram/exercise-bot/internal/history"
	"github.com/fitgram/exercise-bot/internal/locale"
	"github.com/fitgram/exercise-bot/internal/session"
)

// NewDefaultHandler answers any text the bot cannot interpret. The request is
// still journaled.
func NewDefaultHandler(locales *locale.Manager, sessions session.Store, recorder *history.Recorder, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		ctx := context.Background()
		userID := senderID(c)

		recorder.Record(ctx, userID, senderUsername(c), c.Text())

		bundle := bundleFor(ctx, locales, sessions, userID)
		return c.Send(bundle.Message("parse_error"))
	}
}
