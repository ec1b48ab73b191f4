package envsetup

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enter(t *testing.T, m model, value string) model {
	t.Helper()
	m.input.SetValue(value)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(model)
}

func TestWizardWritesEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.True(t, NeedsSetup(path))

	m := New(path)
	m = enter(t, m, "")
	assert.Equal(t, stepDiscord, m.step)

	m = enter(t, m, "")
	assert.Error(t, m.err, "token is required")
	assert.Equal(t, stepDiscord, m.step)

	m = enter(t, m, "discord-token-123456")
	assert.Equal(t, stepGuild, m.step)

	m = enter(t, m, "not-a-number")
	assert.Error(t, m.err)

	m = enter(t, m, "123456789")
	assert.Equal(t, stepLLMProvider, m.step)

	m = enter(t, m, "1")
	assert.Equal(t, stepLLMKey, m.step)
	assert.Equal(t, providerOpenRouter, m.llmProvider)

	m = enter(t, m, "sk-or-key")
	assert.Equal(t, stepConfirm, m.step)

	m = enter(t, m, "y")
	require.NoError(t, m.err)
	assert.Equal(t, stepDone, m.step)
	assert.False(t, NeedsSetup(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "DISCORD_BOT_TOKEN=discord-token-123456\nTARGET_GUILD_ID=123456789\nLLM_PROVIDER=openrouter\nOPENROUTER_API_KEY=sk-or-key\n", string(content))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestWizardSkipsLLM(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), ".env"))
	m = enter(t, m, "")
	m = enter(t, m, "discord-token")
	m = enter(t, m, "")
	m = enter(t, m, "none")
	assert.Equal(t, stepConfirm, m.step)
	assert.Equal(t, "DISCORD_BOT_TOKEN=discord-token\n", m.envContent())
}

func TestWizardRestartOnNo(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), ".env"))
	m = enter(t, m, "")
	m = enter(t, m, "discord-token")
	m = enter(t, m, "")
	m = enter(t, m, "4")
	m = enter(t, m, "n")
	assert.Equal(t, stepWelcome, m.step)
	assert.Empty(t, m.discordToken)
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"1", providerOpenRouter, true},
		{"OpenRouter", providerOpenRouter, true},
		{"2", providerAnthropic, true},
		{"google", providerGoogle, true},
		{"skip", providerNone, true},
		{"5", "", false},
	}
	for _, tt := range tests {
		got, ok := parseProvider(tt.input)
		assert.Equal(t, tt.ok, ok, "parseProvider(%q)", tt.input)
		assert.Equal(t, tt.want, got, "parseProvider(%q)", tt.input)
	}
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "****", maskToken("abcd"))
	assert.Equal(t, "abcd****mnop", maskToken("abcdefghmnop"))
}
