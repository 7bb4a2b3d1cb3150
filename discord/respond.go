package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/lunateq/mnemo/segment"
)

// genericFailure is what end users see when the store or the model API
// fails; details stay in the logs.
const genericFailure = "Something went wrong handling that. Please try again."

func (b *Bot) respondEphemeral(i *discordgo.InteractionCreate, content string) {
	err := b.Session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.Log.Warn("respond_failed", "error", err.Error())
	}
}

func (b *Bot) deferResponse(i *discordgo.InteractionCreate) error {
	return b.Session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

// followupText segments the text to Discord's message limit and enqueues
// the chunks on the channel's worker so they arrive in order.
func (b *Bot) followupText(i *discordgo.InteractionCreate, sc scope, text string) {
	if text == "" {
		text = "(empty response)"
	}
	interaction := i.Interaction
	for _, chunk := range segment.Split(text, MaxMessageLen) {
		chunk := chunk
		b.pool.Enqueue(sendJob{ChannelID: sc.ChannelID, Send: func() {
			_, err := b.Session.FollowupMessageCreate(interaction, true, &discordgo.WebhookParams{
				Content: chunk,
			})
			if err != nil {
				b.Log.Warn("followup_failed", "request_id", sc.RequestID, "error", err.Error())
			}
		}})
	}
}

func (b *Bot) followupFailure(i *discordgo.InteractionCreate, sc scope) {
	b.followupText(i, sc, genericFailure)
}
