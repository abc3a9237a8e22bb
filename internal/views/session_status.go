package views

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rhystmorgan/likeWallet/internal/security"
	"rhystmorgan/likeWallet/internal/utils"
)

// SessionStatusModel is the lock indicator in the dashboard header. It
// ticks once a second while the wallet is unlocked; "l" locks it again.
type SessionStatusModel struct {
	sessions  *security.SessionManager
	walletID  string
	status    security.SessionStatus
	remaining time.Duration
	ticking   bool
}

type sessionTickMsg struct {
	walletID string
}

func NewSessionStatusModel(sessions *security.SessionManager, walletID string) SessionStatusModel {
	m := SessionStatusModel{sessions: sessions, walletID: walletID}
	m.refresh()
	return m
}

func (m *SessionStatusModel) refresh() {
	if m.sessions == nil {
		m.status = security.SessionStatusInactive
		m.remaining = 0
		return
	}
	m.status = m.sessions.GetSessionStatus(m.walletID)
	m.remaining = m.sessions.GetTimeRemaining(m.walletID)
}

func (m SessionStatusModel) Unlocked() bool {
	return m.status == security.SessionStatusActive || m.status == security.SessionStatusExpiring
}

func (m SessionStatusModel) tick() tea.Cmd {
	walletID := m.walletID
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return sessionTickMsg{walletID: walletID}
	})
}

// Sync re-reads the session and starts ticking if it became unlocked.
func (m *SessionStatusModel) Sync() tea.Cmd {
	m.refresh()
	if m.Unlocked() && !m.ticking {
		m.ticking = true
		return m.tick()
	}
	return nil
}

func (m SessionStatusModel) Update(msg tea.Msg) (SessionStatusModel, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionTickMsg:
		if msg.walletID != m.walletID {
			return m, nil
		}
		m.refresh()
		if m.Unlocked() {
			return m, m.tick()
		}
		m.ticking = false

	case tea.KeyMsg:
		if msg.String() == "l" && m.sessions != nil && m.Unlocked() {
			_ = m.sessions.CloseSession(m.walletID)
			m.refresh()
		}
	}
	return m, nil
}

func (m SessionStatusModel) View() string {
	var text, colour string

	switch m.status {
	case security.SessionStatusActive:
		text, colour = "● Unlocked "+formatSessionDuration(m.remaining), utils.Colours.Green
	case security.SessionStatusExpiring:
		text, colour = "● Locking in "+formatSessionDuration(m.remaining), utils.Colours.Yellow
	case security.SessionStatusExpired:
		text, colour = "● Session expired", utils.Colours.Red
	default:
		text, colour = "○ Locked", utils.Colours.Subtext0
	}

	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(colour)).
		Bold(true).
		Render(text)
}

func formatSessionDuration(d time.Duration) string {
	if d <= 0 {
		return "expired"
	}

	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
