// envsetup provides a lightweight .env configuration wizard.
// It collects the model provider, its API key and an optional model name,
// which cmd/openeval later reads through ff's environment lookup.
package envsetup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type step int

const (
	stepWelcome step = iota
	stepProvider
	stepKey
	stepModel
	stepConfirm
)

type provider struct {
	name         string
	label        string
	keyVar       string
	defaultModel string
	keyURL       string
}

var providers = []provider{
	{name: "openai", label: "OpenAI (GPT)", keyVar: "OPENAI_API_KEY", defaultModel: "gpt-4-turbo-2024-04-09", keyURL: "https://platform.openai.com/api-keys"},
	{name: "anthropic", label: "Anthropic (Claude)", keyVar: "ANTHROPIC_API_KEY", defaultModel: "claude-sonnet-4-20250514", keyURL: "https://console.anthropic.com"},
	{name: "google", label: "Google (Gemini / Gemma)", keyVar: "GOOGLE_API_KEY", defaultModel: "gemini-2.0-flash", keyURL: "https://aistudio.google.com/apikey"},
}

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
	step     step
	provider *provider
	apiKey   string
	model    string
	input    textinput.Model
	path     string
	saved    bool
	err      error
}

// New starts a wizard that writes to path.
func New(path string) model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	return model{
		step:  stepWelcome,
		input: ti,
		path:  path,
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

func (m model) value() string {
	return strings.TrimSpace(m.input.Value())
}

func (m model) next(s step) model {
	m.step = s
	m.input.Reset()
	m.input.EchoMode = textinput.EchoNormal
	if s == stepKey {
		m.input.EchoMode = textinput.EchoPassword
	}
	return m
}

func (m model) handleEnter() (tea.Model, tea.Cmd) {
	m.err = nil

	switch m.step {
	case stepWelcome:
		m = m.next(stepProvider)

	case stepProvider:
		p := lookupProvider(strings.ToLower(m.value()))
		if p == nil {
			m.err = fmt.Errorf("Please enter 1, 2 or 3")
			return m, nil
		}
		m.provider = p
		m = m.next(stepKey)

	case stepKey:
		key := m.value()
		if key == "" {
			m.err = fmt.Errorf("API key is required")
			return m, nil
		}
		m.apiKey = key
		m = m.next(stepModel)

	case stepModel:
		m.model = m.value()
		if m.model == "" {
			m.model = m.provider.defaultModel
		}
		m = m.next(stepConfirm)

	case stepConfirm:
		choice := strings.ToLower(m.value())
		switch choice {
		case "y", "yes", "":
			if err := writeEnvFile(m.path, m.envContent()); err != nil {
				m.err = err
				return m, nil
			}
			m.saved = true
			return m, tea.Quit
		case "n", "no":
			m = m.next(stepWelcome)
			m.provider = nil
			m.apiKey = ""
			m.model = ""
		}
	}

	return m, nil
}

func lookupProvider(choice string) *provider {
	for i := range providers {
		if choice == fmt.Sprint(i+1) || choice == providers[i].name {
			return &providers[i]
		}
	}
	return nil
}

func (m model) envContent() string {
	return fmt.Sprintf("PROVIDER=%s\nMODEL=%s\n%s=%s\n",
		m.provider.name, m.model, m.provider.keyVar, m.apiKey)
}

func writeEnvFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (m model) View() string {
	var s strings.Builder

	switch m.step {
	case stepWelcome:
		s.WriteString(titleStyle.Render("openeval - Env Setup"))
		s.WriteString("\n\n")
		s.WriteString("This wizard writes the credentials used for benchmark runs.\n")
		s.WriteString("You'll need an API key for one of:\n\n")
		for _, p := range providers {
			s.WriteString("  - " + p.label + "\n")
		}
		s.WriteString("\n")
		s.WriteString(dimStyle.Render("Press Enter to continue, Ctrl+C to exit"))

	case stepProvider:
		s.WriteString(titleStyle.Render("Step 1: Choose Provider"))
		s.WriteString("\n\n")
		s.WriteString("Which provider should generate completions?\n\n")
		for i, p := range providers {
			fmt.Fprintf(&s, "  %d. %s\n", i+1, p.label)
		}
		s.WriteString("\n")
		s.WriteString(labelStyle.Render("Enter 1, 2 or 3:"))
		s.WriteString("\n")
		s.WriteString(m.input.View())

	case stepKey:
		s.WriteString(titleStyle.Render("Step 2: API Key"))
		s.WriteString("\n\n")
		s.WriteString("Create a key at " + linkStyle.Render(m.provider.keyURL) + "\n")
		s.WriteString("\n")
		s.WriteString(labelStyle.Render("Paste your " + m.provider.keyVar + " here:"))
		s.WriteString("\n")
		s.WriteString(m.input.View())

	case stepModel:
		s.WriteString(titleStyle.Render("Step 3: Model"))
		s.WriteString("\n\n")
		s.WriteString(labelStyle.Render("Model name (Enter for " + m.provider.defaultModel + "):"))
		s.WriteString("\n")
		s.WriteString(m.input.View())

	case stepConfirm:
		s.WriteString(titleStyle.Render("Configuration Complete"))
		s.WriteString("\n\n")
		s.WriteString("Your configuration:\n\n")
		s.WriteString("  Provider: " + successStyle.Render(m.provider.name) + "\n")
		s.WriteString("  Model:    " + successStyle.Render(m.model) + "\n")
		s.WriteString("  API Key:  " + successStyle.Render(maskToken(m.apiKey)) + "\n")
		s.WriteString("  File:     " + successStyle.Render(m.path) + "\n")
		s.WriteString("\n")
		s.WriteString(labelStyle.Render("Save this configuration? [Y/n]:"))
		s.WriteString("\n")
		s.WriteString(m.input.View())
	}

	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()))
	}
	s.WriteString("\n")
	return s.String()
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

// Run starts the setup wizard and reports whether a file was written.
func Run(path string) (bool, error) {
	p := tea.NewProgram(New(path))
	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	m := finalModel.(model)
	return m.saved, nil
}

// NeedsSetup reports whether path does not exist yet.
func NeedsSetup(path string) bool {
	_, err := os.Stat(path)
	return os.IsNotExist(err)
}
