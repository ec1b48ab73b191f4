package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jusunglee/shittracker/internal/incident"
)

// discordIncidentSource resolves reactions through the Discord API.
type discordIncidentSource struct {
	session DiscordSession
	log     Logger
	now     func() time.Time
}

// NewIncidentSource creates an incident.Source backed by a Discord session
func NewIncidentSource(session DiscordSession, log Logger) incident.Source {
	return &discordIncidentSource{session: session, log: log, now: time.Now}
}

func (d *discordIncidentSource) Resolve(ctx context.Context, r incident.Reaction) (incident.Incident, error) {
	msg, err := d.session.ChannelMessage(r.ChannelID, r.MessageID, discordgo.WithContext(ctx))
	if err != nil {
		return incident.Incident{}, fmt.Errorf("fetching message %s: %w", r.MessageID, err)
	}

	channelName := r.ChannelID
	if ch, err := d.session.Channel(r.ChannelID, discordgo.WithContext(ctx)); err != nil {
		d.log.WarnContext(ctx, "channel lookup failed", "channel_id", r.ChannelID, "error", err)
	} else {
		channelName = ch.Name
	}

	guildName := r.GuildID
	if g, err := d.session.Guild(r.GuildID, discordgo.WithContext(ctx)); err != nil {
		d.log.WarnContext(ctx, "guild lookup failed", "guild_id", r.GuildID, "error", err)
	} else {
		guildName = g.Name
	}

	inc := incident.Incident{
		MessageID:   msg.ID,
		MessageURL:  messageURL(r.GuildID, r.ChannelID, msg.ID),
		ChannelID:   r.ChannelID,
		ChannelName: channelName,
		GuildID:     r.GuildID,
		GuildName:   guildName,
		Reactor: incident.Person{
			ID:      r.UserID,
			Name:    r.UserName,
			Mention: "<@" + r.UserID + ">",
		},
		Content:   msg.Content,
		Timestamp: d.now(),
	}
	if msg.Author != nil {
		inc.Author = incident.Person{
			ID:      msg.Author.ID,
			Name:    userTag(msg.Author),
			Mention: msg.Author.Mention(),
		}
	}
	return inc, nil
}

func messageURL(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

// userTag renders name#1234, or just the name for accounts migrated off
// discriminators.
func userTag(u *discordgo.User) string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

// discordNotifier posts incident notices as embeds in the incident's channel
type discordNotifier struct {
	session DiscordSession
	now     func() time.Time
}

// NewNotifier creates an incident.Notifier that uses Discord
func NewNotifier(session DiscordSession) incident.Notifier {
	return &discordNotifier{session: session, now: time.Now}
}

func (d *discordNotifier) sendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	_, err := d.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("sending embed to channel %s: %w", channelID, err)
	}
	return nil
}

func (d *discordNotifier) SendFlag(ctx context.Context, inc incident.Incident) error {
	return d.sendEmbed(ctx, inc.ChannelID, formatFlagEmbed(inc))
}

func (d *discordNotifier) SendImprovement(ctx context.Context, inc incident.Incident, improved string) error {
	return d.sendEmbed(ctx, inc.ChannelID, formatImprovementEmbed(improved, d.now()))
}

func (d *discordNotifier) SendImprovementFailure(ctx context.Context, inc incident.Incident) error {
	return d.sendEmbed(ctx, inc.ChannelID, formatImprovementFailureEmbed(d.now()))
}
