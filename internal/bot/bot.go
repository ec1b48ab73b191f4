package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jusunglee/shittracker/internal/incident"
	"github.com/jusunglee/shittracker/internal/metrics"
)

// Intents is what the bot needs: guild metadata, reactions, and message
// content for flagged messages and prefix commands.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsMessageContent

type Config struct {
	CommandPrefix string
	// EventTimeout bounds all network calls made for a single event.
	EventTimeout time.Duration
}

type Bot struct {
	log      Logger
	session  DiscordSession
	incident *incident.Handler
	improver incident.Improver
	config   Config
}

// New creates a Bot. improver may be nil when no LLM backend is configured;
// it should be the same one the incident handler was built with.
func New(
	log Logger,
	session DiscordSession,
	handler *incident.Handler,
	improver incident.Improver,
	config Config,
) *Bot {
	if config.EventTimeout <= 0 {
		config.EventTimeout = time.Minute
	}
	return &Bot{
		log:      log,
		session:  session,
		incident: handler,
		improver: improver,
		config:   config,
	}
}

func (b *Bot) Run(ctx context.Context) error {
	b.session.AddHandler(b.handleReady)
	b.session.AddHandler(b.handleReactionAdd)
	b.session.AddHandler(b.handleMessageCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening Discord connection: %w", err)
	}

	b.log.InfoContext(ctx, "bot is running, press Ctrl+C to stop")

	<-ctx.Done()
	b.log.Info("shutdown signal received")
	if err := b.session.Close(); err != nil {
		b.log.Warn("closing Discord session", "error", err)
	}
	b.log.Info("shut down complete")

	return nil
}

func (b *Bot) handleReady(_ *discordgo.Session, r *discordgo.Ready) {
	ctx := context.Background()
	b.log.InfoContext(ctx, "connected to Discord", "username", r.User.Username, "discriminator", r.User.Discriminator)
	b.log.InfoContext(ctx, "monitoring guilds", "count", len(r.Guilds))

	if b.improver != nil {
		b.log.InfoContext(ctx, "text improvement enabled")
	} else {
		b.log.WarnContext(ctx, "text improvement disabled (no LLM API key)")
	}

	if err := b.session.UpdateWatchStatus(0, b.incident.Config().Emoji+" reactions"); err != nil {
		b.log.WarnContext(ctx, "failed to set presence", "error", err)
	}
}

func (b *Bot) handleReactionAdd(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
	b.processReaction(r)
}

// processReaction is the boundary for a single reaction event. Nothing that
// goes wrong in here may take down the event loop.
func (b *Bot) processReaction(r *discordgo.MessageReactionAdd) {
	ctx, cancel := context.WithTimeout(context.Background(), b.config.EventTimeout)
	defer cancel()
	defer b.recoverPanic(ctx, "reaction_add")

	outcome := b.incident.Handle(ctx, b.toReaction(r))
	if outcome == incident.OutcomeHandled {
		b.log.DebugContext(ctx, "reaction handled", "message_id", r.MessageID, "user_id", r.UserID)
	}
}

func (b *Bot) toReaction(r *discordgo.MessageReactionAdd) incident.Reaction {
	reaction := incident.Reaction{
		Emoji:     r.Emoji.MessageFormat(),
		UserID:    r.UserID,
		UserName:  r.UserID,
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		UserIsBot: r.UserID == b.session.GetUserID(),
	}
	// Member is only present for guild reactions, which are the only ones
	// the pipeline handles anyway.
	if r.Member != nil && r.Member.User != nil {
		reaction.UserName = userTag(r.Member.User)
		reaction.UserIsBot = reaction.UserIsBot || r.Member.User.Bot
	}
	return reaction
}

func (b *Bot) recoverPanic(ctx context.Context, event string) {
	if rec := recover(); rec != nil {
		metrics.HandlerPanics.Inc()
		b.log.ErrorContext(ctx, "recovered panic in event handler", "event", event, "panic", rec, "stack", string(debug.Stack()))
	}
}
