// Package keyboard builds Telegram reply markups.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes a callback button. Unique routes the callback, Data is its payload.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

func (b InlineBtn) inline(m *tele.ReplyMarkup) tele.InlineButton {
	return *m.Data(b.Text, b.Unique, b.Data).Inline()
}

// InlineButtons stacks buttons vertically, one per row.
func InlineButtons(buttons ...InlineBtn) *tele.ReplyMarkup {
	rows := make([][]InlineBtn, len(buttons))
	for i, b := range buttons {
		rows[i] = []InlineBtn{b}
	}
	return InlineButtonsRows(rows...)
}

// InlineButtonsRows builds an inline keyboard with the given row layout. Empty rows are skipped.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		line := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			line = append(line, b.inline(m))
		}
		m.InlineKeyboard = append(m.InlineKeyboard, line)
	}
	return m
}

// RemoveKeyboard returns a markup that hides a reply keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}
