package incident

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jusunglee/shittracker/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations

type MockSource struct {
	mock.Mock
}

func (m *MockSource) Resolve(ctx context.Context, r Reaction) (Incident, error) {
	ret := m.Called(ctx, r)
	return ret.Get(0).(Incident), ret.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendFlag(ctx context.Context, inc Incident) error {
	ret := m.Called(ctx, inc)
	return ret.Error(0)
}

func (m *MockNotifier) SendImprovement(ctx context.Context, inc Incident, improved string) error {
	ret := m.Called(ctx, inc, improved)
	return ret.Error(0)
}

func (m *MockNotifier) SendImprovementFailure(ctx context.Context, inc Incident) error {
	ret := m.Called(ctx, inc)
	return ret.Error(0)
}

type MockImprover struct {
	mock.Mock
}

func (m *MockImprover) Improve(ctx context.Context, text string) (string, error) {
	ret := m.Called(ctx, text)
	return ret.String(0), ret.Error(1)
}

const testEmoji = "💩"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func qualifyingReaction() Reaction {
	return Reaction{
		Emoji:     testEmoji,
		UserID:    "reactor-1",
		UserName:  "bob",
		GuildID:   "guild-1",
		ChannelID: "channel-1",
		MessageID: "message-1",
	}
}

func testIncident(content string) Incident {
	return Incident{
		MessageID:   "message-1",
		MessageURL:  "https://discord.com/channels/guild-1/channel-1/message-1",
		ChannelID:   "channel-1",
		ChannelName: "general",
		GuildID:     "guild-1",
		GuildName:   "Test Guild",
		Author:      Person{ID: "author-1", Name: "alice", Mention: "<@author-1>"},
		Reactor:     Person{ID: "reactor-1", Name: "bob", Mention: "<@reactor-1>"},
		Content:     content,
		Timestamp:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

type testDeps struct {
	limiter  *ratelimit.Limiter
	source   *MockSource
	notifier *MockNotifier
	improver *MockImprover
}

func newTestHandler(withImprover bool, cfg Config) (*Handler, testDeps) {
	deps := testDeps{
		limiter:  ratelimit.New(ratelimit.DefaultConfig()),
		source:   new(MockSource),
		notifier: new(MockNotifier),
		improver: new(MockImprover),
	}
	var improver Improver
	if withImprover {
		improver = deps.improver
	}
	return NewHandler(discardLogger(), deps.limiter, deps.source, deps.notifier, improver, cfg), deps
}

func TestHandleIgnoresNonQualifyingReactions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		cfg    Config
		modify func(r *Reaction)
	}{
		{
			name:   "emoji mismatch",
			cfg:    Config{Emoji: testEmoji},
			modify: func(r *Reaction) { r.Emoji = "👍" },
		},
		{
			name:   "bot actor",
			cfg:    Config{Emoji: testEmoji},
			modify: func(r *Reaction) { r.UserIsBot = true },
		},
		{
			name:   "direct message",
			cfg:    Config{Emoji: testEmoji},
			modify: func(r *Reaction) { r.GuildID = "" },
		},
		{
			name:   "non-target guild",
			cfg:    Config{Emoji: testEmoji, GuildID: "guild-2"},
			modify: func(r *Reaction) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, deps := newTestHandler(true, tt.cfg)
			r := qualifyingReaction()
			tt.modify(&r)

			assert.Equal(t, OutcomeIgnored, h.Handle(ctx, r))
			assert.Equal(t, 0, deps.limiter.Len(r.UserID), "limiter should not be consulted")
			deps.source.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
			deps.notifier.AssertNotCalled(t, "SendFlag", mock.Anything, mock.Anything)
		})
	}
}

func TestHandleSendsFlagOnly(t *testing.T) {
	ctx := context.Background()
	h, deps := newTestHandler(false, Config{Emoji: testEmoji})

	deps.source.On("Resolve", mock.Anything, qualifyingReaction()).Return(testIncident("you all suck"), nil)
	deps.notifier.On("SendFlag", mock.Anything, mock.MatchedBy(func(inc Incident) bool {
		return inc.MessageID == "message-1" && inc.Content == "you all suck"
	})).Return(nil).Once()

	assert.Equal(t, OutcomeHandled, h.Handle(ctx, qualifyingReaction()))
	assert.False(t, h.ImprovementEnabled())
	assert.Equal(t, 1, deps.limiter.Len("reactor-1"))
	deps.notifier.AssertExpectations(t)
	deps.notifier.AssertNotCalled(t, "SendImprovement", mock.Anything, mock.Anything, mock.Anything)
	deps.notifier.AssertNotCalled(t, "SendImprovementFailure", mock.Anything, mock.Anything)
}

func TestHandleImprovement(t *testing.T) {
	ctx := context.Background()

	t.Run("sends flag then improvement", func(t *testing.T) {
		h, deps := newTestHandler(true, Config{Emoji: testEmoji, GuildID: "guild-1"})

		var order []string
		deps.source.On("Resolve", mock.Anything, mock.Anything).Return(testIncident("you all suck"), nil)
		deps.notifier.On("SendFlag", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { order = append(order, "flag") }).Return(nil).Once()
		deps.improver.On("Improve", mock.Anything, "you all suck").Return("I disagree with you all.", nil).Once()
		deps.notifier.On("SendImprovement", mock.Anything, mock.Anything, "I disagree with you all.").
			Run(func(mock.Arguments) { order = append(order, "improvement") }).Return(nil).Once()

		assert.Equal(t, OutcomeHandled, h.Handle(ctx, qualifyingReaction()))
		assert.Equal(t, []string{"flag", "improvement"}, order)
		deps.notifier.AssertExpectations(t)
		deps.improver.AssertExpectations(t)
		deps.notifier.AssertNotCalled(t, "SendImprovementFailure", mock.Anything, mock.Anything)
	})

	t.Run("backend failure sends failure notice", func(t *testing.T) {
		h, deps := newTestHandler(true, Config{Emoji: testEmoji})

		deps.source.On("Resolve", mock.Anything, mock.Anything).Return(testIncident("you all suck"), nil)
		deps.notifier.On("SendFlag", mock.Anything, mock.Anything).Return(nil).Once()
		deps.improver.On("Improve", mock.Anything, mock.Anything).Return("", errors.New("status 500"))
		deps.notifier.On("SendImprovementFailure", mock.Anything, mock.Anything).Return(nil).Once()

		assert.Equal(t, OutcomeHandled, h.Handle(ctx, qualifyingReaction()))
		deps.notifier.AssertExpectations(t)
		deps.notifier.AssertNotCalled(t, "SendImprovement", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("placeholder content skips improvement", func(t *testing.T) {
		h, deps := newTestHandler(true, Config{Emoji: testEmoji})

		deps.source.On("Resolve", mock.Anything, mock.Anything).Return(testIncident(""), nil)
		deps.notifier.On("SendFlag", mock.Anything, mock.MatchedBy(func(inc Incident) bool {
			return inc.Content == NoContent
		})).Return(nil).Once()

		assert.Equal(t, OutcomeHandled, h.Handle(ctx, qualifyingReaction()))
		deps.notifier.AssertExpectations(t)
		deps.improver.AssertNotCalled(t, "Improve", mock.Anything, mock.Anything)
		deps.notifier.AssertNotCalled(t, "SendImprovement", mock.Anything, mock.Anything, mock.Anything)
		deps.notifier.AssertNotCalled(t, "SendImprovementFailure", mock.Anything, mock.Anything)
	})

	t.Run("whitespace content skips improvement", func(t *testing.T) {
		h, deps := newTestHandler(true, Config{Emoji: testEmoji})

		deps.source.On("Resolve", mock.Anything, mock.Anything).Return(testIncident(" \n\t "), nil)
		deps.notifier.On("SendFlag", mock.Anything, mock.Anything).Return(nil).Once()

		assert.Equal(t, OutcomeHandled, h.Handle(ctx, qualifyingReaction()))
		deps.notifier.AssertExpectations(t)
		deps.improver.AssertNotCalled(t, "Improve", mock.Anything, mock.Anything)
		deps.notifier.AssertNotCalled(t, "SendImprovementFailure", mock.Anything, mock.Anything)
	})

	t.Run("failed flag send still attempts improvement", func(t *testing.T) {
		h, deps := newTestHandler(true, Config{Emoji: testEmoji})

		deps.source.On("Resolve", mock.Anything, mock.Anything).Return(testIncident("you all suck"), nil)
		deps.notifier.On("SendFlag", mock.Anything, mock.Anything).Return(errors.New("missing permissions")).Once()
		deps.improver.On("Improve", mock.Anything, mock.Anything).Return("be nice", nil).Once()
		deps.notifier.On("SendImprovement", mock.Anything, mock.Anything, "be nice").Return(errors.New("missing permissions")).Once()

		assert.Equal(t, OutcomeHandled, h.Handle(ctx, qualifyingReaction()))
		deps.notifier.AssertExpectations(t)
		deps.improver.AssertExpectations(t)
	})
}

func TestHandleRateLimited(t *testing.T) {
	ctx := context.Background()
	h, deps := newTestHandler(false, Config{Emoji: testEmoji})

	deps.source.On("Resolve", mock.Anything, mock.Anything).Return(testIncident("spam"), nil).Times(ratelimit.DefaultMaxActions)
	deps.notifier.On("SendFlag", mock.Anything, mock.Anything).Return(nil).Times(ratelimit.DefaultMaxActions)

	for i := range ratelimit.DefaultMaxActions {
		require.Equal(t, OutcomeHandled, h.Handle(ctx, qualifyingReaction()), "reaction %d should be handled", i+1)
	}
	assert.Equal(t, OutcomeRateLimited, h.Handle(ctx, qualifyingReaction()))

	other := qualifyingReaction()
	other.UserID = "reactor-2"
	deps.source.On("Resolve", mock.Anything, other).Return(testIncident("spam"), nil).Once()
	deps.notifier.On("SendFlag", mock.Anything, mock.Anything).Return(nil).Once()
	assert.Equal(t, OutcomeHandled, h.Handle(ctx, other), "another user should not be affected")

	deps.source.AssertNumberOfCalls(t, "Resolve", ratelimit.DefaultMaxActions+1)
	deps.notifier.AssertNumberOfCalls(t, "SendFlag", ratelimit.DefaultMaxActions+1)
}

func TestHandleResolveError(t *testing.T) {
	ctx := context.Background()
	h, deps := newTestHandler(true, Config{Emoji: testEmoji})

	deps.source.On("Resolve", mock.Anything, mock.Anything).Return(Incident{}, errors.New("unknown message"))

	assert.Equal(t, OutcomeFailed, h.Handle(ctx, qualifyingReaction()))
	deps.notifier.AssertNotCalled(t, "SendFlag", mock.Anything, mock.Anything)
	deps.improver.AssertNotCalled(t, "Improve", mock.Anything, mock.Anything)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "ignored", OutcomeIgnored.String())
	assert.Equal(t, "rate_limited", OutcomeRateLimited.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "handled", OutcomeHandled.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
