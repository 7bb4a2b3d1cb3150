// Package discord is the command-dispatch layer: it registers slash
// commands, resolves the (guild, user) scope of each interaction, and
// routes between the state engine, the model API, and the platform.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/lunateq/mnemo/contexts"
	"github.com/lunateq/mnemo/fetch"
	"github.com/lunateq/mnemo/internal/modelcache"
	"github.com/lunateq/mnemo/llm"
	"github.com/lunateq/mnemo/memory"
	"github.com/lunateq/mnemo/persona"
	"github.com/lunateq/mnemo/prefs"
)

// MaxMessageLen is Discord's hard limit on message content.
const MaxMessageLen = 2000

type Config struct {
	Token            string
	DevGuildID       string
	BaseSystemPrompt string
	MemoryWindow     int
	RequestTimeout   time.Duration
	Gate             Gate
}

type Bot struct {
	Session  *discordgo.Session
	Prefs    *prefs.Resolver
	Contexts *contexts.Resolver
	Memory   *memory.Ledger
	LLM      llm.Client
	Models   *modelcache.Cache
	Fetcher  *fetch.Fetcher
	Persona  persona.Doc
	Log      *slog.Logger

	cfg        Config
	pool       *workerPool
	registered []*discordgo.ApplicationCommand
	sweepStop  chan struct{}
}

func New(cfg Config, log *slog.Logger) (*Bot, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("empty discord token")
	}
	if cfg.MemoryWindow <= 0 {
		cfg.MemoryWindow = 20
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 3 * time.Minute
	}
	if strings.TrimSpace(cfg.BaseSystemPrompt) == "" {
		cfg.BaseSystemPrompt = "You are a helpful assistant on a Discord server. Keep answers concise and use Markdown."
	}
	if log == nil {
		log = slog.Default()
	}

	session, err := discordgo.New("Bot " + strings.TrimSpace(cfg.Token))
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	return &Bot{
		Session:   session,
		Log:       log,
		cfg:       cfg,
		pool:      newWorkerPool(5 * time.Minute),
		sweepStop: make(chan struct{}),
	}, nil
}

// Start opens the gateway connection and registers slash commands. When
// DevGuildID is set commands register against that guild only, which makes
// them visible immediately instead of after Discord's global rollout.
func (b *Bot) Start() error {
	b.Session.AddHandler(b.onInteraction)

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}

	appID := b.Session.State.User.ID
	for _, def := range commandDefinitions() {
		cmd, err := b.Session.ApplicationCommandCreate(appID, b.cfg.DevGuildID, def)
		if err != nil {
			return fmt.Errorf("register command %s: %w", def.Name, err)
		}
		b.registered = append(b.registered, cmd)
	}
	b.Log.Info("discord_ready", "user", b.Session.State.User.Username, "commands", len(b.registered))

	go b.sweepLoop()
	return nil
}

func (b *Bot) Stop() {
	close(b.sweepStop)
	appID := b.Session.State.User.ID
	for _, cmd := range b.registered {
		if err := b.Session.ApplicationCommandDelete(appID, b.cfg.DevGuildID, cmd.ID); err != nil {
			b.Log.Warn("command_delete_failed", "command", cmd.Name, "error", err.Error())
		}
	}
	b.pool.Shutdown()
	if err := b.Session.Close(); err != nil {
		b.Log.Warn("gateway_close_failed", "error", err.Error())
	}
}

func (b *Bot) sweepLoop() {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			b.pool.Sweep()
		case <-b.sweepStop:
			return
		}
	}
}

// scope is the resolved identity of one interaction.
type scope struct {
	GuildID   string
	UserID    string
	ChannelID string
	IsAdmin   bool
	RequestID string
}

func (b *Bot) resolveScope(i *discordgo.InteractionCreate) scope {
	s := scope{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		RequestID: uuid.NewString(),
	}
	if i.Member != nil && i.Member.User != nil {
		s.UserID = i.Member.User.ID
		s.IsAdmin = i.Member.Permissions&discordgo.PermissionAdministrator != 0
	} else if i.User != nil {
		// Direct message: no guild scope, the user is their own admin.
		s.UserID = i.User.ID
		s.IsAdmin = true
	}
	return s
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.dispatchCommand(i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		b.dispatchAutocomplete(i)
	}
}

func (b *Bot) dispatchCommand(i *discordgo.InteractionCreate) {
	sc := b.resolveScope(i)
	data := i.ApplicationCommandData()
	log := b.Log.With("request_id", sc.RequestID, "command", data.Name, "guild_id", sc.GuildID, "user_id", sc.UserID)

	if ok, reason := b.cfg.Gate.Allow(data.Name, sc.IsAdmin); !ok {
		b.respondEphemeral(i, reason)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.RequestTimeout)
	defer cancel()

	var err error
	switch data.Name {
	case "chat":
		err = b.handleChat(ctx, i, sc, log)
	case "model":
		err = b.handleModel(ctx, i, sc, log)
	case "context":
		err = b.handleContext(ctx, i, sc, log)
	case "memory":
		err = b.handleMemory(ctx, i, sc, log)
	case "fetch":
		err = b.handleFetch(ctx, i, sc, log)
	default:
		log.Warn("unknown_command")
		return
	}
	if err != nil {
		log.Error("command_failed", "error", err.Error())
	}
}
