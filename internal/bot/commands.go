package bot

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

const maxImproveTextLength = 500

type command struct {
	name string
	args string
}

// parseCommand extracts a prefix command from content. Both the configured
// prefix and a mention of the bot are accepted, and whitespace after either
// is ignored. Command names are case-insensitive.
func parseCommand(content, prefix, botID string) (command, bool) {
	var rest string
	switch {
	case prefix != "" && len(content) >= len(prefix) && strings.EqualFold(content[:len(prefix)], prefix):
		rest = content[len(prefix):]
	case botID != "" && strings.HasPrefix(content, "<@"+botID+">"):
		rest = strings.TrimPrefix(content, "<@"+botID+">")
	case botID != "" && strings.HasPrefix(content, "<@!"+botID+">"):
		rest = strings.TrimPrefix(content, "<@!"+botID+">")
	default:
		return command{}, false
	}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return command{}, false
	}

	name, args, _ := strings.Cut(rest, " ")
	return command{
		name: strings.ToLower(strings.TrimSpace(name)),
		args: strings.TrimSpace(args),
	}, true
}

type handlerResult struct {
	Content string
	Embed   *discordgo.MessageEmbed
}

func (b *Bot) handleMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	b.processMessage(m)
}

func (b *Bot) processMessage(m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	cmd, ok := parseCommand(m.Content, b.config.CommandPrefix, b.session.GetUserID())
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.config.EventTimeout)
	defer cancel()
	defer b.recoverPanic(ctx, "message_create")

	var result handlerResult
	switch cmd.name {
	case "help":
		result = b.handleHelp()
	case "improve":
		result = b.handleImprove(ctx, m.ChannelID, cmd.args)
	case "ping":
		b.handlePing(ctx, m.ChannelID)
		return
	default:
		return
	}

	b.reply(ctx, m.ChannelID, result)
}

func (b *Bot) handleHelp() handlerResult {
	cfg := b.incident.Config()
	return handlerResult{Embed: formatHelpEmbed(b.config.CommandPrefix, cfg.Emoji, cfg.GuildID, b.improver != nil)}
}

func (b *Bot) handleImprove(ctx context.Context, channelID, text string) handlerResult {
	if b.improver == nil {
		return handlerResult{Content: "❌ AI text improvement is not available (no LLM API key configured)"}
	}
	if text == "" {
		return handlerResult{Content: "❌ Usage: `" + b.config.CommandPrefix + "improve <text>`"}
	}
	if utf8.RuneCountInString(text) > maxImproveTextLength {
		return handlerResult{Content: "❌ Text too long (max 500 characters)"}
	}

	if err := b.session.ChannelTyping(channelID, discordgo.WithContext(ctx)); err != nil {
		b.log.DebugContext(ctx, "failed to send typing indicator", "error", err)
	}

	improved, err := b.improver.Improve(ctx, text)
	if err != nil {
		b.log.WarnContext(ctx, "improve command failed", "error", err, "channel_id", channelID)
		return handlerResult{Content: "❌ Failed to improve text. Please try again later."}
	}
	return handlerResult{Embed: formatImproveTestEmbed(text, improved)}
}

func (b *Bot) handlePing(ctx context.Context, channelID string) {
	start := time.Now()
	msg, err := b.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: "🏓 Pinging...",
	}, discordgo.WithContext(ctx))
	if err != nil {
		b.log.ErrorContext(ctx, "failed to send ping", "error", err, "channel_id", channelID)
		return
	}
	response := time.Since(start)

	content := ""
	embeds := []*discordgo.MessageEmbed{formatPingEmbed(b.session.HeartbeatLatency(), response, b.improver != nil)}
	_, err = b.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:      msg.ID,
		Channel: channelID,
		Content: &content,
		Embeds:  &embeds,
	}, discordgo.WithContext(ctx))
	if err != nil {
		b.log.ErrorContext(ctx, "failed to edit ping message", "error", err, "channel_id", channelID)
	}
}

func (b *Bot) reply(ctx context.Context, channelID string, result handlerResult) {
	send := &discordgo.MessageSend{Content: result.Content}
	if result.Embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{result.Embed}
	}
	if _, err := b.session.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx)); err != nil {
		b.log.ErrorContext(ctx, "failed to reply to command", "error", err, "channel_id", channelID)
	}
}
