// Package keyboard builds the inline keyboards shown during dialog flows and
// encodes the callback data that routes a button press back to its flow.
package keyboard

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/fitgram/exercise-bot/internal/locale"
)

// Callback uniques identifying which flow a pressed button belongs to.
const (
	UniqueLangSelect      = "lang_select"
	UniquePrimaryMuscle   = "primary_muscle"
	UniqueSecondaryMuscle = "secondary_muscle"
	UniqueSubstrPick      = "substr_pick"
)

// Builder creates the inline keyboards used by the dialog flows.
type Builder struct {
	log *slog.Logger
}

func NewBuilder(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}

	return &Builder{log: log}
}

// LanguageMenu builds the /lang selection keyboard.
func (b *Builder) LanguageMenu() *telebot.ReplyMarkup {
	kb := NewInlineKeyboard().
		AddRow(InlineButton{Text: "Русский 🇷🇺", Unique: UniqueLangSelect, Data: "ru"}).
		AddRow(InlineButton{Text: "English 🇬🇧", Unique: UniqueLangSelect, Data: "en"})

	return kb.Build(b.encode)
}

// MuscleMenu builds a muscle selection keyboard for the given flow unique.
// Button labels are localized; payloads carry the origin muscle name.
func (b *Builder) MuscleMenu(unique string, options []locale.Option) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard()
	for _, opt := range options {
		kb.AddRow(InlineButton{Text: opt.Label, Unique: unique, Data: opt.Origin})
	}

	return kb.Build(b.encode)
}

// SuggestionMenu builds the substring match keyboard. Payloads carry the
// origin exercise name.
func (b *Builder) SuggestionMenu(options []locale.Option) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard()
	for _, opt := range options {
		kb.AddRow(InlineButton{Text: opt.Label, Unique: UniqueSubstrPick, Data: opt.Origin})
	}

	return kb.Build(b.encode)
}

// encode adapts EncodeCallback for the keyboard builder, dropping payloads
// that exceed the Telegram limit.
func (b *Builder) encode(unique, data string) string {
	payload, err := EncodeCallback(unique, data)
	if err != nil {
		b.log.Warn("dropping oversized callback payload", slog.String("unique", unique), slog.Any("error", err))
		return unique
	}

	return payload
}
