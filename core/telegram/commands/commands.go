// Package commands describes slash commands shown in the Telegram menu.
package commands

import (
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are rejected for everyone but the configured admin.
	AdminOnly bool
	// Hidden commands are routed but left out of the command menu.
	Hidden  bool
	Aliases []string
}

// Normalize returns name with a leading slash and without surrounding space or case.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || strings.HasPrefix(name, "/") {
		return name
	}
	return "/" + name
}

// Validate checks that cmd can be registered under name.
func (cmd Command) Validate(name string) error {
	switch {
	case !strings.HasPrefix(strings.TrimSpace(name), "/"):
		return fmt.Errorf("command %q: missing slash prefix", name)
	case len(name) < 2:
		return errors.New("command name is empty")
	case cmd.Handler == nil:
		return fmt.Errorf("command %s: nil handler", name)
	case strings.TrimSpace(cmd.Description) == "":
		return fmt.Errorf("command %s: empty description", name)
	}
	return nil
}

// Names returns name followed by the normalized aliases.
func (cmd Command) Names(name string) []string {
	names := make([]string, 0, 1+len(cmd.Aliases))
	names = append(names, Normalize(name))
	for _, alias := range cmd.Aliases {
		if a := Normalize(alias); a != "" {
			names = append(names, a)
		}
	}
	return names
}

// Visible reports whether the command belongs in the public command menu.
func (cmd Command) Visible() bool {
	return !cmd.Hidden && !cmd.AdminOnly
}
