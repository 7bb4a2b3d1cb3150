package discord

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/lunateq/mnemo/contexts"
	"github.com/lunateq/mnemo/llm"
	"github.com/lunateq/mnemo/memory"
	"github.com/lunateq/mnemo/persona"
)

const maxAttachmentBytes = 1 << 20

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func stringOption(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if o, ok := m[name]; ok {
		return strings.TrimSpace(o.StringValue())
	}
	return ""
}

func boolOption(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) bool {
	if o, ok := m[name]; ok {
		return o.BoolValue()
	}
	return false
}

func (b *Bot) handleChat(ctx context.Context, i *discordgo.InteractionCreate, sc scope, log *slog.Logger) error {
	opts := optionMap(i.ApplicationCommandData().Options)
	prompt := stringOption(opts, "prompt")
	contextName := stringOption(opts, "context")
	modelOverride := stringOption(opts, "model")

	if err := b.deferResponse(i); err != nil {
		return fmt.Errorf("defer: %w", err)
	}

	model := modelOverride
	if model == "" {
		model = b.Prefs.ResolveModel(ctx, sc.GuildID, sc.UserID)
	}

	contextBody := ""
	if contextName != "" {
		it, ok, err := b.Contexts.Get(ctx, sc.GuildID, sc.UserID, contextName)
		if err != nil {
			b.followupFailure(i, sc)
			return fmt.Errorf("context lookup: %w", err)
		}
		if !ok {
			b.followupText(i, sc, fmt.Sprintf("No context named `%s` here. Use `/context list` to see what exists.", contextName))
			return nil
		}
		contextBody = it.Content
	}

	history, err := b.Memory.History(ctx, sc.UserID, b.cfg.MemoryWindow)
	if err != nil {
		b.followupFailure(i, sc)
		return fmt.Errorf("memory history: %w", err)
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    "system",
		Content: persona.SystemPrompt(b.cfg.BaseSystemPrompt, b.Persona, contextName, contextBody),
	})
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: memory.RoleUser, Content: prompt})

	res, err := b.LLM.Chat(ctx, llm.Request{Model: model, Messages: messages})
	if err != nil {
		b.followupFailure(i, sc)
		return fmt.Errorf("chat completion: %w", err)
	}
	log.Info("chat_completed",
		"model", model,
		"history_turns", len(history),
		"input_tokens", res.Usage.InputTokens,
		"output_tokens", res.Usage.OutputTokens,
		"duration_ms", res.Duration.Milliseconds(),
	)

	// The exchange is remembered even when delivery to Discord fails:
	// from the user's perspective the conversation happened.
	if err := b.Memory.Append(ctx, sc.UserID, memory.RoleUser, prompt, &model); err != nil {
		log.Warn("memory_append_failed", "role", memory.RoleUser, "error", err.Error())
	}
	if err := b.Memory.Append(ctx, sc.UserID, memory.RoleAssistant, res.Text, &model); err != nil {
		log.Warn("memory_append_failed", "role", memory.RoleAssistant, "error", err.Error())
	}

	b.followupText(i, sc, res.Text)
	return nil
}

func (b *Bot) handleModel(ctx context.Context, i *discordgo.InteractionCreate, sc scope, log *slog.Logger) error {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return errors.New("missing subcommand")
	}
	sub := data.Options[0]
	opts := optionMap(sub.Options)

	switch sub.Name {
	case "show":
		model := b.Prefs.ResolveModel(ctx, sc.GuildID, sc.UserID)
		b.respondEphemeral(i, fmt.Sprintf("Requests from you here use `%s`.", model))
		return nil

	case "set-server":
		if sc.GuildID == "" {
			b.respondEphemeral(i, "Server defaults can only be set inside a server.")
			return nil
		}
		if i.Member == nil || i.Member.Permissions&discordgo.PermissionManageServer == 0 {
			b.respondEphemeral(i, "You need the Manage Server permission to change the server default.")
			return nil
		}
		model := stringOption(opts, "model")
		if err := b.Prefs.SetGuildModel(ctx, sc.GuildID, model); err != nil {
			b.respondEphemeral(i, genericFailure)
			return fmt.Errorf("set guild model: %w", err)
		}
		log.Info("guild_model_set", "model", model)
		b.respondEphemeral(i, fmt.Sprintf("Server default model set to `%s`.", model))
		return nil

	case "set-user":
		model := stringOption(opts, "model")
		if err := b.Prefs.SetUserModel(ctx, sc.UserID, model); err != nil {
			b.respondEphemeral(i, genericFailure)
			return fmt.Errorf("set user model: %w", err)
		}
		log.Info("user_model_set", "model", model)
		b.respondEphemeral(i, fmt.Sprintf("Your default model is now `%s` on every server.", model))
		return nil
	}
	return fmt.Errorf("unknown model subcommand %q", sub.Name)
}

func (b *Bot) handleContext(ctx context.Context, i *discordgo.InteractionCreate, sc scope, log *slog.Logger) error {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return errors.New("missing subcommand")
	}
	if sc.GuildID == "" {
		b.respondEphemeral(i, "Contexts live inside a server; this command does not work in DMs.")
		return nil
	}
	sub := data.Options[0]
	opts := optionMap(sub.Options)

	switch sub.Name {
	case "add":
		return b.handleContextAdd(ctx, i, sc, opts, log)

	case "show":
		name := stringOption(opts, "name")
		it, ok, err := b.Contexts.Get(ctx, sc.GuildID, sc.UserID, name)
		if err != nil {
			b.respondEphemeral(i, genericFailure)
			return fmt.Errorf("context get: %w", err)
		}
		if !ok {
			b.respondEphemeral(i, fmt.Sprintf("No context named `%s` here.", name))
			return nil
		}
		scopeLabel := "server"
		if it.Personal {
			scopeLabel = "personal"
		}
		if err := b.deferResponse(i); err != nil {
			return fmt.Errorf("defer: %w", err)
		}
		b.followupText(i, sc, fmt.Sprintf("**%s** (%s, from `%s`)\n\n%s", it.Name, scopeLabel, it.SourceFilename, it.Content))
		return nil

	case "list":
		userID := ""
		if boolOption(opts, "personal") {
			userID = sc.UserID
		}
		items, err := b.Contexts.List(ctx, sc.GuildID, userID)
		if err != nil {
			b.respondEphemeral(i, genericFailure)
			return fmt.Errorf("context list: %w", err)
		}
		if len(items) == 0 {
			b.respondEphemeral(i, "No contexts in this scope yet. Add one with `/context add`.")
			return nil
		}
		var sb strings.Builder
		for _, it := range items {
			fmt.Fprintf(&sb, "• `%s` — %s, added %s\n", it.Name, it.FileType, time.Unix(it.CreatedAt, 0).UTC().Format("2006-01-02"))
		}
		b.respondEphemeral(i, sb.String())
		return nil

	case "remove":
		name := stringOption(opts, "name")
		userID := ""
		if boolOption(opts, "personal") {
			userID = sc.UserID
		}
		removed, err := b.Contexts.Remove(ctx, sc.GuildID, userID, name)
		if err != nil {
			b.respondEphemeral(i, genericFailure)
			return fmt.Errorf("context remove: %w", err)
		}
		if !removed {
			b.respondEphemeral(i, fmt.Sprintf("Nothing to remove: no context named `%s` in that scope.", name))
			return nil
		}
		log.Info("context_removed", "name", name, "personal", userID != "")
		b.respondEphemeral(i, fmt.Sprintf("Removed context `%s`.", name))
		return nil
	}
	return fmt.Errorf("unknown context subcommand %q", sub.Name)
}

func (b *Bot) handleContextAdd(ctx context.Context, i *discordgo.InteractionCreate, sc scope, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, log *slog.Logger) error {
	name := stringOption(opts, "name")
	userID := ""
	if boolOption(opts, "personal") {
		userID = sc.UserID
	}

	var attachment *discordgo.MessageAttachment
	if o, ok := opts["file"]; ok {
		id, _ := o.Value.(string)
		attachment = i.ApplicationCommandData().Resolved.Attachments[id]
	}
	if attachment == nil {
		b.respondEphemeral(i, "Attach a text file to create a context from.")
		return nil
	}
	if attachment.Size > maxAttachmentBytes {
		b.respondEphemeral(i, "That file is too large; contexts are capped at 1 MiB of text.")
		return nil
	}

	if err := b.deferResponse(i); err != nil {
		return fmt.Errorf("defer: %w", err)
	}

	content, err := downloadText(ctx, attachment.URL)
	if err != nil {
		b.followupFailure(i, sc)
		return fmt.Errorf("download attachment: %w", err)
	}

	fileType := strings.TrimPrefix(filepath.Ext(attachment.Filename), ".")
	if fileType == "" {
		fileType = "text"
	}

	err = b.Contexts.Add(ctx, sc.GuildID, userID, name, content, attachment.Filename, fileType)
	if errors.Is(err, contexts.ErrDuplicateName) {
		b.followupText(i, sc, fmt.Sprintf("A context named `%s` already exists in that scope. Remove it first with `/context remove`.", name))
		return nil
	}
	if err != nil {
		b.followupFailure(i, sc)
		return fmt.Errorf("context add: %w", err)
	}
	log.Info("context_added", "name", name, "personal", userID != "", "bytes", len(content))
	b.followupText(i, sc, fmt.Sprintf("Context `%s` saved (%d characters).", name, len([]rune(content))))
	return nil
}

func (b *Bot) handleMemory(ctx context.Context, i *discordgo.InteractionCreate, sc scope, log *slog.Logger) error {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return errors.New("missing subcommand")
	}

	switch data.Options[0].Name {
	case "show":
		turns, err := b.Memory.History(ctx, sc.UserID, 10)
		if err != nil {
			b.respondEphemeral(i, genericFailure)
			return fmt.Errorf("memory history: %w", err)
		}
		if len(turns) == 0 {
			b.respondEphemeral(i, "I don't remember any conversation with you yet.")
			return nil
		}
		var sb strings.Builder
		sb.WriteString("Your most recent remembered turns:\n")
		for _, turn := range turns {
			line := turn.Content
			if r := []rune(line); len(r) > 120 {
				line = string(r[:120]) + "…"
			}
			fmt.Fprintf(&sb, "**%s**: %s\n", turn.Role, line)
		}
		b.respondEphemeral(i, sb.String())
		return nil

	case "stats":
		st, err := b.Memory.Stats(ctx, sc.UserID)
		if err != nil {
			b.respondEphemeral(i, genericFailure)
			return fmt.Errorf("memory stats: %w", err)
		}
		if st.Count == 0 {
			b.respondEphemeral(i, "Your memory is empty.")
			return nil
		}
		b.respondEphemeral(i, fmt.Sprintf(
			"I remember %d turns, from %s to %s. Memory follows you across servers.",
			st.Count,
			time.Unix(*st.First, 0).UTC().Format("2006-01-02 15:04"),
			time.Unix(*st.Last, 0).UTC().Format("2006-01-02 15:04"),
		))
		return nil

	case "clear":
		deleted, err := b.Memory.Clear(ctx, sc.UserID)
		if err != nil {
			b.respondEphemeral(i, genericFailure)
			return fmt.Errorf("memory clear: %w", err)
		}
		log.Info("memory_cleared", "deleted", deleted)
		b.respondEphemeral(i, fmt.Sprintf("Forgot %d remembered turns.", deleted))
		return nil
	}
	return fmt.Errorf("unknown memory subcommand %q", data.Options[0].Name)
}

func (b *Bot) handleFetch(ctx context.Context, i *discordgo.InteractionCreate, sc scope, log *slog.Logger) error {
	opts := optionMap(i.ApplicationCommandData().Options)
	rawURL := stringOption(opts, "url")
	prompt := stringOption(opts, "prompt")
	if prompt == "" {
		prompt = "Summarize the following page."
	}

	if err := b.deferResponse(i); err != nil {
		return fmt.Errorf("defer: %w", err)
	}

	page, err := b.Fetcher.Text(ctx, rawURL)
	if err != nil {
		b.followupText(i, sc, "Couldn't fetch that page: "+err.Error())
		return nil
	}

	model := b.Prefs.ResolveModel(ctx, sc.GuildID, sc.UserID)
	res, err := b.LLM.Chat(ctx, llm.Request{
		Model: model,
		Messages: []llm.Message{
			{Role: "system", Content: b.cfg.BaseSystemPrompt},
			{Role: "user", Content: prompt + "\n\n" + page},
		},
	})
	if err != nil {
		b.followupFailure(i, sc)
		return fmt.Errorf("fetch summary: %w", err)
	}
	log.Info("fetch_completed", "url", rawURL, "model", model, "page_chars", len(page))
	b.followupText(i, sc, res.Text)
	return nil
}

func downloadText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d downloading attachment", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
