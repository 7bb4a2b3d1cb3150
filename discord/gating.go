package discord

import (
	"fmt"
	"strings"
)

// Mode is the per-command availability policy, read from config. It is
// plain data handed to the command layer; the resolvers never see it.
type Mode int

const (
	ModeEnabled Mode = iota
	ModeDisabled
	ModeAdminOnly
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "enabled", "on":
		return ModeEnabled, nil
	case "disabled", "off":
		return ModeDisabled, nil
	case "admin_only", "admin":
		return ModeAdminOnly, nil
	default:
		return ModeEnabled, fmt.Errorf("unknown command mode %q (want enabled, disabled, or admin_only)", s)
	}
}

// Gate decides whether a command runs for a caller. Unknown commands
// default to enabled so new commands do not need config changes to work.
type Gate struct {
	Modes map[string]Mode
}

func (g Gate) Allow(command string, isAdmin bool) (bool, string) {
	mode, ok := g.Modes[command]
	if !ok {
		return true, ""
	}
	switch mode {
	case ModeDisabled:
		return false, "This command is disabled on this bot."
	case ModeAdminOnly:
		if !isAdmin {
			return false, "This command is restricted to server administrators."
		}
	}
	return true, ""
}
