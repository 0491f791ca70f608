package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command is a slash command together with its menu entry and the
// reply-keyboard labels that trigger it as plain text.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands run for allow-listed operators only and appear only in their menu.
	AdminOnly bool
	// Hidden commands still run but are left out of every menu and /help.
	Hidden  bool
	Aliases []string
}

// Visible reports whether the command belongs in the menu of a user with the given role.
func (c Command) Visible(admin bool) bool {
	if c.Hidden {
		return false
	}
	return admin || !c.AdminOnly
}

// Entry returns the menu item for the command registered under name.
func (c Command) Entry(name string) tele.Command {
	return tele.Command{Text: name, Description: c.Description}
}
