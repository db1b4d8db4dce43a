package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/fitgram/exercise-bot/internal/history"
	"github.com/fitgram/exercise-bot/internal/locale"
	"github.com/fitgram/exercise-bot/internal/session"
)

const historyTimeFormat = "2006-01-02 15:04:05"

// NewHistoryHandler serves /history: the full journal for the sender, oldest
// first. The command is recorded before listing, so it shows up in its own
// output, same as every other request.
func NewHistoryHandler(locales *locale.Manager, sessions session.Store, recorder *history.Recorder, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		ctx := context.Background()
		userID := senderID(c)

		recorder.Record(ctx, userID, senderUsername(c), c.Text())

		entries, err := recorder.ListByUser(ctx, userID)
		if err != nil {
			return err
		}

		bundle := bundleFor(ctx, locales, sessions, userID)

		var sb strings.Builder
		sb.WriteString(bundle.Message("history.1"))
		sb.WriteString("\n")
		for _, entry := range entries {
			fmt.Fprintf(&sb, "\n[%s] %s", entry.Timestamp.Format(historyTimeFormat), entry.Description)
		}

		return c.Send(sb.String())
	}
}
