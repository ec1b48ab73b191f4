package incident

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalized(t *testing.T) {
	t.Run("empty content gets placeholder", func(t *testing.T) {
		inc := Incident{}.Normalized()
		assert.Equal(t, NoContent, inc.Content)
		assert.False(t, inc.HasContent())
	})

	t.Run("long content is truncated", func(t *testing.T) {
		inc := Incident{Content: strings.Repeat("a", 1500)}.Normalized()
		assert.Equal(t, MaxContentLength, utf8.RuneCountInString(inc.Content))
		assert.True(t, strings.HasSuffix(inc.Content, "..."))
		assert.Equal(t, strings.Repeat("a", 997)+"...", inc.Content)
	})

	t.Run("content at the limit is kept", func(t *testing.T) {
		content := strings.Repeat("b", MaxContentLength)
		inc := Incident{Content: content}.Normalized()
		assert.Equal(t, content, inc.Content)
	})

	t.Run("truncation counts runes not bytes", func(t *testing.T) {
		content := strings.Repeat("💩", 1001)
		inc := Incident{Content: content}.Normalized()
		assert.Equal(t, strings.Repeat("💩", 997)+"...", inc.Content)
	})

	t.Run("names are trimmed and time is utc", func(t *testing.T) {
		loc := time.FixedZone("EST", -5*60*60)
		inc := Incident{
			Author:    Person{Name: "  alice "},
			Reactor:   Person{Name: "bob\n"},
			Content:   "hello",
			Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, loc),
		}.Normalized()
		assert.Equal(t, "alice", inc.Author.Name)
		assert.Equal(t, "bob", inc.Reactor.Name)
		assert.Equal(t, time.UTC, inc.Timestamp.Location())
		assert.True(t, inc.HasContent())
	})
}

func TestHasContent(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"hello", true},
		{"  hello  ", true},
		{"", false},
		{"   ", false},
		{"\n\t", false},
		{NoContent, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Incident{Content: tt.content}.HasContent(), "HasContent(%q)", tt.content)
	}
}
