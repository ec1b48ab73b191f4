// Package incident turns flag reactions into incidents: it gates them through
// the per-user rate limiter, posts a flag notice and, when a text improvement
// backend is configured, a suggested rewrite.
package incident

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// NoContent stands in for messages without text (attachments, embeds).
	NoContent = "*No text content*"
	// MaxContentLength is the longest content kept on an Incident, in runes.
	MaxContentLength = 1000
)

// Reaction is a reaction-added event with just enough information to decide
// whether it qualifies, before any platform lookups happen.
type Reaction struct {
	Emoji     string
	UserID    string
	UserName  string
	UserIsBot bool
	GuildID   string
	ChannelID string
	MessageID string
}

type Person struct {
	ID      string
	Name    string
	Mention string
}

// Incident is a snapshot of a flagged message. It lives only as long as it
// takes to send the notices for it.
type Incident struct {
	MessageID   string
	MessageURL  string
	ChannelID   string
	ChannelName string
	GuildID     string
	GuildName   string
	Author      Person
	Reactor     Person
	Content     string
	Timestamp   time.Time
}

// Normalized returns a copy with trimmed names, UTC timestamp, placeholder
// content for empty messages and content truncated to MaxContentLength.
func (i Incident) Normalized() Incident {
	i.Author.Name = strings.TrimSpace(i.Author.Name)
	i.Reactor.Name = strings.TrimSpace(i.Reactor.Name)
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
	i.Timestamp = i.Timestamp.UTC()
	if i.Content == "" {
		i.Content = NoContent
	}
	i.Content = truncate(i.Content, MaxContentLength)
	return i
}

// HasContent reports whether there is any text worth rewriting.
func (i Incident) HasContent() bool {
	text := strings.TrimSpace(i.Content)
	return text != "" && text != NoContent
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}
