package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command is a slash command bound in the registry.
// Hidden and AdminOnly commands still work but are left out of the Telegram menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}

// Listed reports whether the command belongs in the public command menu.
func (c Command) Listed() bool {
	return !c.Hidden && !c.AdminOnly
}
