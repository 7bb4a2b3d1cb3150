package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lunateq/mnemo/contexts"
	"github.com/lunateq/mnemo/db"
	"github.com/lunateq/mnemo/discord"
	"github.com/lunateq/mnemo/fetch"
	"github.com/lunateq/mnemo/internal/clifmt"
	"github.com/lunateq/mnemo/internal/modelcache"
	"github.com/lunateq/mnemo/memory"
	"github.com/lunateq/mnemo/persona"
	"github.com/lunateq/mnemo/prefs"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and serve slash commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()

			gdb, err := db.Open(cmd.Context(), dbConfigFromViper())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}

			client := llmClientFromViper()

			cacheTTL := viper.GetDuration("models.cache_ttl")
			if cacheTTL <= 0 {
				cacheTTL = 10 * time.Minute
			}

			personaDoc, loaded := persona.Load(viper.GetString("persona.path"), log)
			if loaded {
				log.Info("persona_loaded", "name", personaDoc.Name)
			}

			bot, err := discord.New(discord.Config{
				Token:            viper.GetString("discord.token"),
				DevGuildID:       viper.GetString("discord.dev_guild_id"),
				BaseSystemPrompt: viper.GetString("prompt.system"),
				MemoryWindow:     viper.GetInt("memory.window"),
				RequestTimeout:   viper.GetDuration("discord.request_timeout"),
				Gate:             gateFromViper(log),
			}, log)
			if err != nil {
				return err
			}
			bot.Prefs = prefs.NewResolver(gdb, llmFallbackModelFromViper())
			bot.Prefs.Log = log
			bot.Contexts = contexts.NewResolver(gdb)
			bot.Memory = memory.NewLedger(gdb)
			bot.LLM = client
			bot.Models = modelcache.New(client, cacheTTL)
			bot.Fetcher = fetch.New()
			bot.Persona = personaDoc

			if err := bot.Start(); err != nil {
				return err
			}
			fmt.Println(clifmt.Success("mnemo is connected; press Ctrl-C to stop"))

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			fmt.Println(clifmt.Dim("shutting down"))
			bot.Stop()
			return nil
		},
	}
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models available from the configured endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			models, err := llmClientFromViper().ListModels(ctx)
			if err != nil {
				return err
			}
			fmt.Println(clifmt.Headerf("models at %s", llmEndpointFromViper()))
			for _, m := range models {
				fmt.Println("  " + m)
			}
			return nil
		},
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if viper.GetBool("log.debug") {
		level = slog.LevelDebug
	}
	var handler slog.Handler
	if viper.GetString("log.format") == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}
