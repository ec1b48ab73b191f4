// envsetup provides a lightweight .env configuration wizard.
// It runs on first bot startup when no .env file exists, collecting the
// Discord token, an optional target guild, and optional LLM credentials.
package envsetup

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type step int

const (
	stepWelcome step = iota
	stepDiscord
	stepGuild
	stepLLMProvider
	stepLLMKey
	stepConfirm
	stepDone
)

const (
	providerNone       = "none"
	providerOpenRouter = "openrouter"
	providerAnthropic  = "anthropic"
	providerGoogle     = "google"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Underline(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

type model struct {
	step         step
	path         string
	discordToken string
	guildID      string
	llmProvider  string
	llmAPIKey    string
	input        textinput.Model
	err          error
}

func New(path string) model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.Focus()
	return model{
		step:  stepWelcome,
		path:  path,
		input: ti,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.handleEnter()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// resetInput clears the field and masks it when the next step asks for a secret.
func (m *model) resetInput() {
	m.input.SetValue("")
	m.input.EchoMode = textinput.EchoNormal
	if m.step == stepDiscord || m.step == stepLLMKey {
		m.input.EchoMode = textinput.EchoPassword
	}
}

func (m model) handleEnter() (tea.Model, tea.Cmd) {
	m.err = nil
	value := strings.TrimSpace(m.input.Value())

	switch m.step {
	case stepWelcome:
		m.step = stepDiscord

	case stepDiscord:
		if value == "" {
			m.err = fmt.Errorf("Discord bot token is required")
			return m, nil
		}
		m.discordToken = value
		m.step = stepGuild

	case stepGuild:
		if strings.Trim(value, "0123456789") != "" {
			m.err = fmt.Errorf("Guild ID must be numeric (or empty for all servers)")
			return m, nil
		}
		m.guildID = value
		m.step = stepLLMProvider

	case stepLLMProvider:
		provider, ok := parseProvider(value)
		if !ok {
			m.err = fmt.Errorf("Please enter 1 for OpenRouter, 2 for Anthropic, 3 for Google or 4 to skip")
			return m, nil
		}
		m.llmProvider = provider
		m.step = stepLLMKey
		if provider == providerNone {
			m.step = stepConfirm
		}

	case stepLLMKey:
		if value == "" {
			m.err = fmt.Errorf("API key is required")
			return m, nil
		}
		m.llmAPIKey = value
		m.step = stepConfirm

	case stepConfirm:
		choice := strings.ToLower(value)
		if choice == "y" || choice == "yes" || choice == "" {
			if err := m.writeEnvFile(); err != nil {
				m.err = err
				return m, nil
			}
			m.step = stepDone
			return m, tea.Quit
		} else if choice == "n" || choice == "no" {
			m = New(m.path)
			m.step = stepWelcome
		}
	}

	m.resetInput()
	return m, nil
}

func parseProvider(choice string) (string, bool) {
	switch strings.ToLower(choice) {
	case "1", providerOpenRouter:
		return providerOpenRouter, true
	case "2", providerAnthropic:
		return providerAnthropic, true
	case "3", providerGoogle:
		return providerGoogle, true
	case "4", providerNone, "skip":
		return providerNone, true
	}
	return "", false
}

func keyName(provider string) string {
	switch provider {
	case providerAnthropic:
		return "ANTHROPIC_API_KEY"
	case providerGoogle:
		return "GOOGLE_API_KEY"
	}
	return "OPENROUTER_API_KEY"
}

func (m model) envContent() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "DISCORD_BOT_TOKEN=%s\n", m.discordToken)
	if m.guildID != "" {
		fmt.Fprintf(&sb, "TARGET_GUILD_ID=%s\n", m.guildID)
	}
	if m.llmProvider != providerNone && m.llmProvider != "" {
		fmt.Fprintf(&sb, "LLM_PROVIDER=%s\n", m.llmProvider)
		fmt.Fprintf(&sb, "%s=%s\n", keyName(m.llmProvider), m.llmAPIKey)
	}
	return sb.String()
}

func (m model) writeEnvFile() error {
	return os.WriteFile(m.path, []byte(m.envContent()), 0600)
}

func (m model) View() string {
	var s strings.Builder

	switch m.step {
	case stepWelcome:
		s.WriteString(titleStyle.Render("Shit Tracker - Env Setup"))
		s.WriteString("\n\n")
		s.WriteString("This wizard will help you configure the bot.\n")
		s.WriteString("You'll need:\n\n")
		s.WriteString("  - A Discord bot token\n")
		s.WriteString("  - Optionally, the ID of the one server to watch\n")
		s.WriteString("  - Optionally, an LLM API key (OpenRouter, Anthropic or Google)\n")
		s.WriteString("\n")
		s.WriteString(dimStyle.Render("Press Enter to continue, Ctrl+C to exit"))

	case stepDiscord:
		s.WriteString(titleStyle.Render("Step 1: Discord Bot Token"))
		s.WriteString("\n\n")
		s.WriteString("To get your Discord bot token:\n\n")
		s.WriteString("  1. Go to " + linkStyle.Render("https://discord.com/developers/applications") + "\n")
		s.WriteString("  2. Create a new application (or select existing)\n")
		s.WriteString("  3. Go to the Bot section and click 'Reset Token'\n")
		s.WriteString("  4. Enable 'Message Content Intent' under Privileged Gateway Intents\n")
		s.WriteString("\n")
		s.WriteString(labelStyle.Render("Paste your Discord token here:"))

	case stepGuild:
		s.WriteString(titleStyle.Render("Step 2: Target Server (optional)"))
		s.WriteString("\n\n")
		s.WriteString("Right-click your server with Developer Mode on and choose 'Copy Server ID'.\n")
		s.WriteString("Leave empty to watch every server the bot is in.\n")
		s.WriteString("\n")
		s.WriteString(labelStyle.Render("Server ID:"))

	case stepLLMProvider:
		s.WriteString(titleStyle.Render("Step 3: Choose LLM Provider"))
		s.WriteString("\n\n")
		s.WriteString("Which provider should suggest improved messages?\n\n")
		s.WriteString("  1. OpenRouter\n")
		s.WriteString("  2. Anthropic (Claude)\n")
		s.WriteString("  3. Google (Gemini)\n")
		s.WriteString("  4. None (flag only)\n")
		s.WriteString("\n")
		s.WriteString(labelStyle.Render("Enter 1-4:"))

	case stepLLMKey:
		s.WriteString(titleStyle.Render("Step 4: LLM API Key"))
		s.WriteString("\n\n")
		switch m.llmProvider {
		case providerAnthropic:
			s.WriteString("Create a key at " + linkStyle.Render("https://console.anthropic.com") + "\n")
		case providerGoogle:
			s.WriteString("Create a key at " + linkStyle.Render("https://aistudio.google.com/apikey") + "\n")
		default:
			s.WriteString("Create a key at " + linkStyle.Render("https://openrouter.ai/keys") + "\n")
		}
		s.WriteString("\n")
		s.WriteString(labelStyle.Render("Paste your API key here:"))

	case stepConfirm:
		s.WriteString(titleStyle.Render("Configuration Complete"))
		s.WriteString("\n\n")
		s.WriteString("Your configuration:\n\n")
		s.WriteString("  Discord:      " + successStyle.Render(maskToken(m.discordToken)) + "\n")
		s.WriteString("  Server:       " + successStyle.Render(valueOr(m.guildID, "all servers")) + "\n")
		s.WriteString("  LLM Provider: " + successStyle.Render(m.llmProvider) + "\n")
		if m.llmProvider != providerNone {
			s.WriteString("  LLM API Key:  " + successStyle.Render(maskToken(m.llmAPIKey)) + "\n")
		}
		s.WriteString("\n")
		s.WriteString(labelStyle.Render("Save this configuration? [Y/n]:"))

	case stepDone:
		s.WriteString(successStyle.Render("Saved " + m.path))
		s.WriteString("\n")
		return s.String()
	}

	s.WriteString("\n")
	if m.step != stepWelcome {
		s.WriteString(m.input.View())
	}
	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()))
	}
	s.WriteString("\n")
	return s.String()
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

// Run starts the setup wizard and returns true if a .env file was written
func Run(path string) (bool, error) {
	p := tea.NewProgram(New(path))
	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	m := finalModel.(model)
	return m.step == stepDone, nil
}

// NeedsSetup checks if the .env file at path exists
func NeedsSetup(path string) bool {
	_, err := os.Stat(path)
	return os.IsNotExist(err)
}
