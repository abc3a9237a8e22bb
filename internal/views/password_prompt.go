package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rhystmorgan/likeWallet/internal/models"
	"rhystmorgan/likeWallet/internal/security"
	"rhystmorgan/likeWallet/internal/utils"
)

// WalletUnlocker decrypts a stored wallet.
type WalletUnlocker interface {
	LoadWallet(id, password, prefix string) (*models.Wallet, error)
}

type PasswordPromptModel struct {
	wallet   *models.Wallet
	unlocker WalletUnlocker
	attempts *security.AttemptTracker
	prefix   string

	input       textinput.Model
	loading     bool
	error       string
	title       string
	description string
}

type PasswordVerificationMsg struct {
	Success bool
	Wallet  *models.Wallet
	Error   error
}

type PasswordCancelledMsg struct{}

func NewPasswordPromptModel(wallet *models.Wallet, unlocker WalletUnlocker, attempts *security.AttemptTracker, prefix string) PasswordPromptModel {
	input := textinput.New()
	input.Placeholder = "Wallet password"
	input.Prompt = "Password: "
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '*'
	input.CharLimit = 128
	input.Width = 36

	return PasswordPromptModel{
		wallet:   wallet,
		unlocker: unlocker,
		attempts: attempts,
		prefix:   prefix,
		input:    input,
		title:    "Unlock Wallet",
	}
}

func (m *PasswordPromptModel) SetText(title, description string) {
	m.title = title
	m.description = description
}

func (m *PasswordPromptModel) Focus() tea.Cmd {
	m.input.Reset()
	m.error = ""
	m.loading = false
	return m.input.Focus()
}

func (m PasswordPromptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m PasswordPromptModel) Update(msg tea.Msg) (PasswordPromptModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		switch msg.String() {
		case "esc":
			m.input.Reset()
			return m, func() tea.Msg { return PasswordCancelledMsg{} }

		case "enter":
			if m.input.Value() == "" {
				m.error = "Password cannot be empty"
				return m, nil
			}
			if remaining := m.attempts.RemainingLockout(m.wallet.ID); remaining > 0 {
				m.error = fmt.Sprintf("Too many failed attempts. Try again in %s", utils.FormatDuration(remaining))
				return m, nil
			}

			m.loading = true
			m.error = ""
			cmd := m.verifyPassword(m.input.Value())
			m.input.Reset()
			return m, cmd

		case "ctrl+u":
			m.input.Reset()
			return m, nil
		}

	case PasswordVerificationMsg:
		m.loading = false
		if msg.Success {
			m.attempts.RecordSuccess(m.wallet.ID)
			return m, nil
		}

		m.attempts.RecordFailure(m.wallet.ID)
		if remaining := m.attempts.RemainingLockout(m.wallet.ID); remaining > 0 {
			m.error = fmt.Sprintf("Too many failed attempts. Try again in %s", utils.FormatDuration(remaining))
		} else {
			m.error = fmt.Sprintf("Incorrect password (%d failed)", m.attempts.FailedAttempts(m.wallet.ID))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m PasswordPromptModel) View() string {
	overlayStyle := lipgloss.NewStyle().
		Width(60).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(utils.Colours.Blue)).
		Padding(1).
		Align(lipgloss.Center)

	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Blue)).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Text)).
		Margin(1, 0)

	inputStyle := lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(utils.Colours.Surface1)).
		Width(44)

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Red)).
		Bold(true)

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Subtext0)).
		Italic(true)

	var content strings.Builder

	content.WriteString(titleStyle.Render(m.title))
	content.WriteString("\n")

	if m.description != "" {
		content.WriteString(descStyle.Render(m.description))
		content.WriteString("\n")
	}

	if m.loading {
		content.WriteString(inputStyle.Render("Verifying password..."))
	} else {
		content.WriteString(inputStyle.Render(m.input.View()))
	}
	content.WriteString("\n\n")

	if m.error != "" {
		content.WriteString(errorStyle.Render(m.error))
		content.WriteString("\n\n")
	}

	if !m.loading {
		content.WriteString(helpStyle.Render("Enter: confirm • Esc: cancel • Ctrl+U: clear"))
	}

	return overlayStyle.Render(content.String())
}

func (m PasswordPromptModel) verifyPassword(password string) tea.Cmd {
	wallet, unlocker, prefix := m.wallet, m.unlocker, m.prefix
	return func() tea.Msg {
		unlocked, err := unlocker.LoadWallet(wallet.ID, password, prefix)
		if err != nil {
			return PasswordVerificationMsg{Error: err}
		}
		return PasswordVerificationMsg{Success: true, Wallet: unlocked}
	}
}
