package incident

import (
	"context"
	"log/slog"

	"github.com/jusunglee/shittracker/internal/metrics"
)

// Limiter decides whether a user has reacted too often. It returns true to
// reject; a false return has already recorded the action.
type Limiter interface {
	Limited(userID string) bool
}

// Source resolves a qualifying reaction into a full Incident.
type Source interface {
	Resolve(ctx context.Context, r Reaction) (Incident, error)
}

// Notifier posts notices to the channel the incident came from.
type Notifier interface {
	SendFlag(ctx context.Context, inc Incident) error
	SendImprovement(ctx context.Context, inc Incident, improved string) error
	SendImprovementFailure(ctx context.Context, inc Incident) error
}

type Improver interface {
	Improve(ctx context.Context, text string) (string, error)
}

type Config struct {
	// Emoji is the reaction that flags a message.
	Emoji string
	// GuildID limits handling to one guild. Empty means any guild.
	GuildID string
}

type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeRateLimited
	OutcomeFailed
	OutcomeHandled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeFailed:
		return "failed"
	case OutcomeHandled:
		return "handled"
	}
	return "unknown"
}

type Handler struct {
	log      *slog.Logger
	limiter  Limiter
	source   Source
	notifier Notifier
	improver Improver
	config   Config
}

// NewHandler wires the pipeline. improver may be nil, which turns the
// improvement step off.
func NewHandler(log *slog.Logger, limiter Limiter, source Source, notifier Notifier, improver Improver, config Config) *Handler {
	return &Handler{
		log:      log,
		limiter:  limiter,
		source:   source,
		notifier: notifier,
		improver: improver,
		config:   config,
	}
}

func (h *Handler) ImprovementEnabled() bool {
	return h.improver != nil
}

func (h *Handler) Config() Config {
	return h.config
}

func (h *Handler) Handle(ctx context.Context, r Reaction) Outcome {
	outcome := h.handle(ctx, r)
	metrics.ReactionsTotal.WithLabelValues(outcome.String()).Inc()
	return outcome
}

func (h *Handler) qualifies(ctx context.Context, r Reaction) bool {
	if r.Emoji != h.config.Emoji || r.UserIsBot {
		return false
	}
	if r.GuildID == "" {
		return false
	}
	if h.config.GuildID != "" && r.GuildID != h.config.GuildID {
		h.log.DebugContext(ctx, "reaction in non-target guild", "guild_id", r.GuildID)
		return false
	}
	return true
}

func (h *Handler) handle(ctx context.Context, r Reaction) Outcome {
	if !h.qualifies(ctx, r) {
		return OutcomeIgnored
	}

	if h.limiter.Limited(r.UserID) {
		metrics.RateLimitHits.Inc()
		h.log.DebugContext(ctx, "rate limited user", "user_id", r.UserID, "username", r.UserName)
		return OutcomeRateLimited
	}

	inc, err := h.source.Resolve(ctx, r)
	if err != nil {
		h.log.ErrorContext(ctx, "resolving incident", "error", err, "message_id", r.MessageID, "channel_id", r.ChannelID)
		return OutcomeFailed
	}
	inc = inc.Normalized()

	log := h.log.With("message_id", inc.MessageID, "channel_id", inc.ChannelID)

	h.send(ctx, log, "flag", func() error {
		return h.notifier.SendFlag(ctx, inc)
	})

	if h.improver != nil && inc.HasContent() {
		h.sendImprovement(ctx, log, inc)
	}

	log.InfoContext(ctx, "incident logged", "reactor", inc.Reactor.Name, "author", inc.Author.Name)
	return OutcomeHandled
}

func (h *Handler) sendImprovement(ctx context.Context, log *slog.Logger, inc Incident) {
	log.DebugContext(ctx, "requesting text improvement")
	improved, err := h.improver.Improve(ctx, inc.Content)
	if err != nil {
		log.WarnContext(ctx, "text improvement unavailable", "error", err)
		h.send(ctx, log, "improvement_failure", func() error {
			return h.notifier.SendImprovementFailure(ctx, inc)
		})
		return
	}

	h.send(ctx, log, "improvement", func() error {
		return h.notifier.SendImprovement(ctx, inc, improved)
	})
}

// send runs one notice. A failed send is logged and dropped so the next
// notice still goes out.
func (h *Handler) send(ctx context.Context, log *slog.Logger, kind string, fn func() error) {
	if err := fn(); err != nil {
		metrics.NoticesTotal.WithLabelValues(kind, "error").Inc()
		log.ErrorContext(ctx, "failed to send notice", "kind", kind, "error", err)
		return
	}
	metrics.NoticesTotal.WithLabelValues(kind, "success").Inc()
}
