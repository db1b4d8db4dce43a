package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/fitgram/exercise-bot/internal/apperrors"
	"github.com/fitgram/exercise-bot/internal/bot/keyboard"
	"github.com/fitgram/exercise-bot/internal/catalog"
	"github.com/fitgram/exercise-bot/internal/history"
	"github.com/fitgram/exercise-bot/internal/locale"
	"github.com/fitgram/exercise-bot/internal/session"
	"github.com/fitgram/exercise-bot/internal/state"
)

func flowUnique(flow state.Flow) string {
	if flow == state.FlowSecondary {
		return keyboard.UniqueSecondaryMuscle
	}
	return keyboard.UniquePrimaryMuscle
}

// NewMuscleSearchHandler serves /primary or /secondary: it lists the catalog's
// muscle groups as localized selection buttons. The two flows share one
// implementation parameterized by flow.
func NewMuscleSearchHandler(
	flow state.Flow,
	searcher catalog.Searcher,
	locales *locale.Manager,
	sessions session.Store,
	recorder *history.Recorder,
	kb *keyboard.Builder,
	log *slog.Logger,
) Handler {
	return func(c telebot.Context) error {
		ctx := context.Background()
		userID := senderID(c)

		recorder.Record(ctx, userID, senderUsername(c), c.Text())

		muscles, err := searcher.Muscles(ctx)
		if err != nil {
			return err
		}

		bundle := bundleFor(ctx, locales, sessions, userID)
		options := locale.MuscleOptions(bundle, muscles)

		prompt := bundle.Message(string(flow) + ".1")
		return c.Send(prompt, kb.MuscleMenu(flowUnique(flow), options))
	}
}

// HandleMuscleSelect registers the awaiting_limit continuation for the chosen
// muscle and asks for the result limit. The payload carries the origin muscle
// name regardless of the button's display language.
func HandleMuscleSelect(
	flow state.Flow,
	locales *locale.Manager,
	sessions session.Store,
	machine state.Machine,
	log *slog.Logger,
) CallbackHandler {
	return func(c telebot.Context, payload string) error {
		ctx := context.Background()
		userID := senderID(c)

		pending := &state.Pending{
			Current: state.StateAwaitingLimit,
			Flow:    flow,
			Muscle:  payload,
		}
		if err := machine.Register(ctx, userID, pending); err != nil {
			return err
		}

		if err := c.Respond(); err != nil {
			log.Warn("failed to answer callback query", slog.Any("error", err))
		}

		bundle := bundleFor(ctx, locales, sessions, userID)
		label := locale.Capitalize(bundle.Lookup(locale.CategoryMuscles, payload))
		return c.Send(fmt.Sprintf(bundle.Message(string(flow)+".2"), label), telebot.ModeHTML)
	}
}

// NewLimitStateHandler consumes the awaiting_limit continuation. A reply that
// is not a positive integer re-prompts and keeps the continuation open; this
// is the only retry loop in the bot. A valid limit runs the catalog query.
func NewLimitStateHandler(
	searcher catalog.Searcher,
	locales *locale.Manager,
	sessions session.Store,
	machine state.Machine,
	log *slog.Logger,
) StateHandler {
	return func(c telebot.Context, pending *state.Pending) error {
		ctx := context.Background()
		userID := senderID(c)

		text := strings.TrimSpace(c.Text())
		bundle := bundleFor(ctx, locales, sessions, userID)

		limit, err := strconv.Atoi(text)
		if err != nil || limit < 1 {
			inputErr := apperrors.NewInputError(fmt.Sprintf("limit %q is not a positive integer", text))
			log.Info("limit input rejected", slog.String("code", inputErr.Code), slog.Int64("user_id", userID))

			retry := &state.Pending{
				Current: state.StateAwaitingLimit,
				Flow:    pending.Flow,
				Muscle:  pending.Muscle,
			}
			if err := machine.TransitionTo(ctx, userID, retry); err != nil {
				return err
			}

			if err := c.Send(bundle.Message(string(pending.Flow) + ".3")); err != nil {
				return err
			}

			label := locale.Capitalize(bundle.Lookup(locale.CategoryMuscles, pending.Muscle))
			return c.Send(fmt.Sprintf(bundle.Message(string(pending.Flow)+".2"), label), telebot.ModeHTML)
		}

		if err := machine.Clear(ctx, userID); err != nil {
			return err
		}

		var records []catalog.Record
		if pending.Flow == state.FlowSecondary {
			records, err = searcher.BySecondaryMuscle(ctx, pending.Muscle, limit)
		} else {
			records, err = searcher.ByPrimaryMuscle(ctx, pending.Muscle, limit)
		}
		if err != nil {
			return err
		}

		if len(records) == 0 {
			// The not-found message names the origin muscle and the closing
			// help text is still sent, same as the non-empty path.
			if err := c.Send(fmt.Sprintf(bundle.Message(string(pending.Flow)+".4"), pending.Muscle), telebot.ModeHTML); err != nil {
				return err
			}
		}

		for _, rec := range records {
			localized := locale.Localize(bundle, rec)
			if err := c.Send(renderExercise(bundle, localized), telebot.ModeHTML); err != nil {
				return err
			}
		}

		return c.Send(bundle.Message("help_text"))
	}
}
