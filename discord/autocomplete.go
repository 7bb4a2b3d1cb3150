package discord

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/lunateq/mnemo/contexts"
)

const maxChoices = 25

func (b *Bot) dispatchAutocomplete(i *discordgo.InteractionCreate) {
	sc := b.resolveScope(i)
	data := i.ApplicationCommandData()

	name, partial := focusedOption(data.Options)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var choices []*discordgo.ApplicationCommandOptionChoice
	switch name {
	case "context", "name":
		choices = b.contextChoices(ctx, sc, partial)
	case "model":
		choices = b.modelChoices(ctx, partial)
	default:
		return
	}

	err := b.Session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		b.Log.Warn("autocomplete_respond_failed", "error", err.Error())
	}
}

// focusedOption digs through (possibly nested) options for the one the
// user is currently typing.
func focusedOption(opts []*discordgo.ApplicationCommandInteractionDataOption) (string, string) {
	for _, o := range opts {
		if o.Focused {
			return o.Name, strings.TrimSpace(o.StringValue())
		}
		if len(o.Options) > 0 {
			if name, partial := focusedOption(o.Options); name != "" {
				return name, partial
			}
		}
	}
	return "", ""
}

// contextChoices offers a merged view of personal and server contexts.
// The resolvers never merge scopes; de-duplicating by name with personal
// taking priority is presentation, so it lives here.
func (b *Bot) contextChoices(ctx context.Context, sc scope, partial string) []*discordgo.ApplicationCommandOptionChoice {
	personal, err := b.Contexts.List(ctx, sc.GuildID, sc.UserID)
	if err != nil {
		b.Log.Warn("autocomplete_list_failed", "scope", "personal", "error", err.Error())
	}
	server, err := b.Contexts.List(ctx, sc.GuildID, "")
	if err != nil {
		b.Log.Warn("autocomplete_list_failed", "scope", "server", "error", err.Error())
	}

	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, it := range mergeContextLists(personal, server) {
		if partial != "" && !strings.Contains(strings.ToLower(it.Name), strings.ToLower(partial)) {
			continue
		}
		label := it.Name
		if it.Personal {
			label += " (personal)"
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  label,
			Value: it.Name,
		})
		if len(choices) == maxChoices {
			break
		}
	}
	return choices
}

// mergeContextLists de-duplicates by name with the personal item winning.
// Relative order inside each list is preserved, personal items first.
func mergeContextLists(personal, server []contexts.Item) []contexts.Item {
	seen := make(map[string]bool, len(personal))
	out := make([]contexts.Item, 0, len(personal)+len(server))
	for _, it := range personal {
		if seen[it.Name] {
			continue
		}
		seen[it.Name] = true
		out = append(out, it)
	}
	for _, it := range server {
		if seen[it.Name] {
			continue
		}
		seen[it.Name] = true
		out = append(out, it)
	}
	return out
}

func (b *Bot) modelChoices(ctx context.Context, partial string) []*discordgo.ApplicationCommandOptionChoice {
	models, err := b.Models.Models(ctx)
	if err != nil {
		b.Log.Warn("autocomplete_models_failed", "error", err.Error())
		return nil
	}
	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, m := range models {
		if partial != "" && !strings.Contains(strings.ToLower(m), strings.ToLower(partial)) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: m, Value: m})
		if len(choices) == maxChoices {
			break
		}
	}
	return choices
}
