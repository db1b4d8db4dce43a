package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/fitgram/exercise-bot/internal/bot/keyboard"
	"github.com/fitgram/exercise-bot/internal/catalog"
	"github.com/fitgram/exercise-bot/internal/history"
	"github.com/fitgram/exercise-bot/internal/locale"
	"github.com/fitgram/exercise-bot/internal/session"
	"github.com/fitgram/exercise-bot/internal/state"
)

// NewSubstrHandler serves /substr: it opens the awaiting_query continuation
// and asks for free-text input.
func NewSubstrHandler(
	locales *locale.Manager,
	sessions session.Store,
	recorder *history.Recorder,
	machine state.Machine,
	log *slog.Logger,
) Handler {
	return func(c telebot.Context) error {
		ctx := context.Background()
		userID := senderID(c)

		recorder.Record(ctx, userID, senderUsername(c), c.Text())

		pending := &state.Pending{Current: state.StateAwaitingQuery}
		if err := machine.Register(ctx, userID, pending); err != nil {
			return err
		}

		bundle := bundleFor(ctx, locales, sessions, userID)
		return c.Send(bundle.Message("substr.1"))
	}
}

// NewQueryStateHandler consumes the awaiting_query continuation. The match
// runs over translated exercise names for the sender's language, so users
// search in the language they read.
func NewQueryStateHandler(
	locales *locale.Manager,
	sessions session.Store,
	machine state.Machine,
	kb *keyboard.Builder,
	log *slog.Logger,
) StateHandler {
	return func(c telebot.Context, pending *state.Pending) error {
		ctx := context.Background()
		userID := senderID(c)

		query := strings.TrimSpace(c.Text())
		if err := machine.Clear(ctx, userID); err != nil {
			return err
		}

		bundle := bundleFor(ctx, locales, sessions, userID)

		options := locale.SuggestExercises(bundle, query)
		if len(options) == 0 {
			return c.Send(bundle.Message("substr.3"))
		}

		return c.Send(bundle.Message("substr.2"), kb.SuggestionMenu(options))
	}
}

// HandleSubstrPick resolves a suggestion pick through the by-name catalog
// query and renders the full exercise block with strict localization.
func HandleSubstrPick(
	searcher catalog.Searcher,
	locales *locale.Manager,
	sessions session.Store,
	log *slog.Logger,
) CallbackHandler {
	return func(c telebot.Context, payload string) error {
		ctx := context.Background()
		userID := senderID(c)

		if err := c.Respond(); err != nil {
			log.Warn("failed to answer callback query", slog.Any("error", err))
		}

		bundle := bundleFor(ctx, locales, sessions, userID)

		rec, err := searcher.ByName(ctx, payload)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return c.Send(bundle.Message("substr.3"))
			}
			return err
		}

		localized, err := locale.LocalizeStrict(bundle, *rec)
		if err != nil {
			return err
		}

		if err := c.Send(renderExercise(bundle, localized), telebot.ModeHTML); err != nil {
			return err
		}

		return c.Send(bundle.Message("help_text"))
	}
}
