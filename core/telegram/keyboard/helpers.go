package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes a convenience wrapper for inline button properties.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// ReplyButtons builds a resized reply keyboard from rows of text.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	keyboard := make([]tele.Row, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tele.Btn, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

// InlineButtons builds an inline keyboard where each provided button is placed on its own row.
func InlineButtons(buttons []InlineBtn) *tele.ReplyMarkup {
	return InlineButtonsRows(Chunk(buttons, 1)...)
}

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = *markup.Data(btn.Text, btn.Unique, btn.Data).Inline()
		}
		inline[i] = r
	}
	markup.InlineKeyboard = inline
	return markup
}

// Chunk splits a flat list of buttons into rows with up to n buttons per row.
func Chunk(buttons []InlineBtn, n int) [][]InlineBtn {
	if n < 1 {
		n = 1
	}
	rows := make([][]InlineBtn, 0, (len(buttons)+n-1)/n)
	for i := 0; i < len(buttons); i += n {
		end := min(i+n, len(buttons))
		rows = append(rows, buttons[i:end])
	}
	return rows
}
