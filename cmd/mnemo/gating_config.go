package main

import (
	"log/slog"

	"github.com/spf13/viper"

	"github.com/lunateq/mnemo/discord"
)

// gateFromViper reads per-command modes from the `commands` config map:
//
//	commands:
//	  fetch: disabled
//	  model: admin_only
func gateFromViper(log *slog.Logger) discord.Gate {
	modes := make(map[string]discord.Mode)
	for name, raw := range viper.GetStringMapString("commands") {
		mode, err := discord.ParseMode(raw)
		if err != nil {
			log.Warn("invalid_command_mode", "command", name, "value", raw, "error", err.Error())
			continue
		}
		modes[name] = mode
	}
	return discord.Gate{Modes: modes}
}
