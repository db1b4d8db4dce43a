package keyboard

import (
	telebot "gopkg.in/telebot.v3"
)

// InlineButton is a lightweight button definition consumed by the builder.
type InlineButton struct {
	Text   string
	Unique string // Identifier that differentiates callback handlers.
	Data   string // Payload that will be encoded into callback data.
}

// InlineKeyboardBuilder accumulates rows of InlineButton definitions before
// rendering telebot markup.
type InlineKeyboardBuilder struct {
	rows [][]InlineButton
}

func NewInlineKeyboard() *InlineKeyboardBuilder {
	return &InlineKeyboardBuilder{rows: make([][]InlineButton, 0)}
}

// AddRow appends a new row of buttons.
func (b *InlineKeyboardBuilder) AddRow(buttons ...InlineButton) *InlineKeyboardBuilder {
	if len(buttons) == 0 {
		return b
	}

	row := make([]InlineButton, len(buttons))
	copy(row, buttons)
	b.rows = append(b.rows, row)
	return b
}

// Build renders telebot markup using the provided encoder to produce callback
// data strings.
func (b *InlineKeyboardBuilder) Build(encoder func(unique, data string) string) *telebot.ReplyMarkup {
	if encoder == nil {
		encoder = func(unique, data string) string {
			if data != "" {
				return data
			}
			return unique
		}
	}

	inlineKeyboard := make([][]telebot.InlineButton, len(b.rows))
	for i, row := range b.rows {
		inlineKeyboard[i] = make([]telebot.InlineButton, len(row))
		for j, btn := range row {
			// Unique stays off the telebot button: telebot would re-encode
			// the callback data with its own \f framing. The unique travels
			// inside the encoded Data instead.
			inlineKeyboard[i][j] = telebot.InlineButton{
				Text: btn.Text,
				Data: encoder(btn.Unique, btn.Data),
			}
		}
	}

	return &telebot.ReplyMarkup{InlineKeyboard: inlineKeyboard}
}
