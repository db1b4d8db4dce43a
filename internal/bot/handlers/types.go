// Package handlers implements the guided dialog flows of the bot.
package handlers

import (
	"context"

	telebot "gopkg.in/telebot.v3"

	"github.com/fitgram/exercise-bot/internal/locale"
	"github.com/fitgram/exercise-bot/internal/session"
	"github.com/fitgram/exercise-bot/internal/state"
)

// Handler processes bot commands and plain messages.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline button selections; payload is the decoded
// callback data after the flow unique.
type CallbackHandler func(c telebot.Context, payload string) error

// StateHandler consumes the pending continuation a text message resolves to.
type StateHandler func(c telebot.Context, pending *state.Pending) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// bundleFor resolves the sender's language bundle, falling back to the
// default bundle on any session or locale error.
func bundleFor(ctx context.Context, locales *locale.Manager, sessions session.Store, userID int64) *locale.Bundle {
	lang, err := sessions.Language(ctx, userID)
	if err != nil {
		return locales.Default()
	}

	bundle, err := locales.Bundle(lang)
	if err != nil {
		return locales.Default()
	}

	return bundle
}

func senderID(c telebot.Context) int64 {
	if c == nil || c.Sender() == nil {
		return 0
	}
	return c.Sender().ID
}

func senderUsername(c telebot.Context) string {
	if c == nil || c.Sender() == nil {
		return ""
	}
	return c.Sender().Username
}
