package bot

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/jusunglee/shittracker/internal/incident"
	"github.com/samber/lo"
)

const (
	colorFlag        = 0xFF6B35
	colorImprovement = 0x00D4AA
	colorFailure     = 0xFF4444
	colorHelp        = 0x3498DB
	colorPing        = 0x2ECC71

	// Embed field values cap out at 1024 characters.
	maxFieldText = 1000
)

func codeBlock(text string) string {
	if utf8.RuneCountInString(text) > maxFieldText {
		text = string([]rune(text)[:maxFieldText-3]) + "..."
	}
	return "```" + text + "```"
}

func enabledText(enabled bool) string {
	return lo.Ternary(enabled, "Enabled", "Disabled")
}

func formatFlagEmbed(inc incident.Incident) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     "💩 Content Flagged",
		Color:     colorFlag,
		Timestamp: inc.Timestamp.Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📝 Original Message", Value: codeBlock(inc.Content)},
			{Name: "👤 Author", Value: fmt.Sprintf("%s\n`%s`", inc.Author.Mention, inc.Author.Name), Inline: true},
			{Name: "😡 Reactor", Value: fmt.Sprintf("%s\n`%s`", inc.Reactor.Mention, inc.Reactor.Name), Inline: true},
			{Name: "📍 Location", Value: fmt.Sprintf("#%s\n[Jump to Message](%s)", inc.ChannelName, inc.MessageURL), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "ID: " + inc.MessageID},
	}
}

func formatImprovementEmbed(improved string, now time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🤖 AI-Improved Version",
		Description: "Here's how this message could be improved:",
		Color:       colorImprovement,
		Timestamp:   now.UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "✨ Suggested Improvement", Value: codeBlock(improved)},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "AI suggestion • Use as guidance only"},
	}
}

func formatImprovementFailureEmbed(now time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🤖 AI Improvement",
		Description: "❌ Could not generate improved text for this message.",
		Color:       colorFailure,
		Timestamp:   now.UTC().Format(time.RFC3339),
	}
}

func formatHelpEmbed(prefix, emoji, guildID string, improvementEnabled bool) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🤖 Shit Tracker Bot",
		Description: "Content monitoring bot with AI-powered text improvement",
		Color:       colorHelp,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "📋 Commands",
				Value: fmt.Sprintf("`%shelp` - Show this help\n`%sping` - Check bot status\n`%simprove <text>` - Test AI text improvement",
					prefix, prefix, prefix),
			},
			{
				Name: "🎯 How it works",
				Value: fmt.Sprintf("React with %s to any message to flag it for review.\n"+
					"The bot will log the incident and provide an AI-improved version.", emoji),
			},
			{
				Name: "⚙️ Configuration",
				Value: fmt.Sprintf("• Target Server: `%s`\n• AI Improvement: `%s`",
					lo.Ternary(guildID != "", guildID, "All servers"), enabledText(improvementEnabled)),
			},
		},
	}
}

func formatImproveTestEmbed(original, improved string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "🤖 Text Improvement Test",
		Color: colorImprovement,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📝 Original", Value: codeBlock(original)},
			{Name: "✨ Improved", Value: codeBlock(improved)},
		},
	}
}

func formatPingEmbed(latency, response time.Duration, improvementEnabled bool) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "🏓 Pong!",
		Color: colorPing,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📡 WebSocket Latency", Value: formatMillis(latency), Inline: true},
			{Name: "⚡ Response Time", Value: formatMillis(response), Inline: true},
			{Name: "🤖 AI Status", Value: enabledText(improvementEnabled), Inline: true},
		},
	}
}

func formatMillis(d time.Duration) string {
	return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000)
}
