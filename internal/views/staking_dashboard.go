package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rhystmorgan/likeWallet/internal/audit"
	"rhystmorgan/likeWallet/internal/chain"
	"rhystmorgan/likeWallet/internal/chainstore"
	"rhystmorgan/likeWallet/internal/i18n"
	"rhystmorgan/likeWallet/internal/models"
	"rhystmorgan/likeWallet/internal/security"
	"rhystmorgan/likeWallet/internal/utils"
)

const (
	autoRefreshInterval = 30 * time.Second
	refreshTimeout      = 30 * time.Second
	refreshDebounce     = 2 * time.Second
)

// StatusReporter exposes the last known LCD connection state.
type StatusReporter interface {
	GetStatus() chain.NetworkStatus
}

type dashboardFocus int

const (
	focusDelegations dashboardFocus = iota
	focusValidators
)

// TxHistory reads the transaction journal.
type TxHistory interface {
	History(walletID string, limit int) ([]audit.Entry, error)
}

type HistoryLoadedMsg struct {
	Entries []audit.Entry
}

type ChainRefreshedMsg struct {
	Err error
}

type AutoRefreshMsg struct{}

type CopyAddressMsg struct {
	Err error
}

type StakingDashboardModel struct {
	wallet     *models.Wallet
	chain      *chainstore.Store
	status     StatusReporter
	translator *i18n.Translator

	loading     bool
	refreshErr  error
	lastRefresh time.Time
	lastRequest time.Time

	focus             dashboardFocus
	selectedDelegate  int
	selectedValidator int
	feedback          *FeedbackMessage
	networkStatus     chain.NetworkStatus
	session           SessionStatusModel
	journal           TxHistory
	recent            []audit.Entry

	width  int
	height int
}

func NewStakingDashboardModel(wallet *models.Wallet, store *chainstore.Store, status StatusReporter, translator *i18n.Translator) *StakingDashboardModel {
	return &StakingDashboardModel{
		wallet:     wallet,
		chain:      store,
		status:     status,
		translator: translator,
		session:    NewSessionStatusModel(nil, wallet.ID),
	}
}

func (m *StakingDashboardModel) SetSessionManager(sessions *security.SessionManager) {
	m.session = NewSessionStatusModel(sessions, m.wallet.ID)
}

func (m *StakingDashboardModel) SetJournal(journal TxHistory) {
	m.journal = journal
}

func (m *StakingDashboardModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *StakingDashboardModel) Init() tea.Cmd {
	m.loading = true
	return tea.Batch(m.refresh(false), m.loadHistory(), m.startAutoRefresh(), m.session.Sync())
}

// Refresh reloads chain state; force bypasses the balance cache.
func (m *StakingDashboardModel) Refresh(force bool) tea.Cmd {
	m.loading = true
	m.lastRequest = time.Now()
	return tea.Batch(m.refresh(force), m.loadHistory(), m.session.Sync())
}

func (m StakingDashboardModel) loadHistory() tea.Cmd {
	if m.journal == nil {
		return nil
	}
	journal, walletID := m.journal, m.wallet.ID
	return func() tea.Msg {
		entries, err := journal.History(walletID, 3)
		if err != nil {
			return nil
		}
		return HistoryLoadedMsg{Entries: entries}
	}
}

func (m StakingDashboardModel) refresh(force bool) tea.Cmd {
	store := m.chain
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		return ChainRefreshedMsg{Err: store.Refresh(ctx, force)}
	}
}

func (m StakingDashboardModel) startAutoRefresh() tea.Cmd {
	return tea.Tick(autoRefreshInterval, func(time.Time) tea.Msg {
		return AutoRefreshMsg{}
	})
}

func (m StakingDashboardModel) Update(msg tea.Msg) (StakingDashboardModel, tea.Cmd) {
	var cmds []tea.Cmd

	var sessionCmd tea.Cmd
	m.session, sessionCmd = m.session.Update(msg)
	cmds = append(cmds, sessionCmd)

	switch msg := msg.(type) {
	case HistoryLoadedMsg:
		m.recent = msg.Entries

	case tea.KeyMsg:
		switch msg.String() {
		case "tab":
			if m.focus == focusDelegations {
				m.focus = focusValidators
			} else {
				m.focus = focusDelegations
			}
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "u", "U":
			if m.focus != focusDelegations || m.selectedTarget() == "" {
				m.feedback = newFeedback(FeedbackWarning, "Select one of your delegations to unstake", 3*time.Second)
				cmds = append(cmds, feedbackTimeout(3*time.Second))
				break
			}
			return m, NavigateTo(ViewUndelegate, m.selectedTarget())
		case "d", "D", "enter":
			if target := m.selectedTarget(); target != "" {
				return m, NavigateTo(ViewDelegate, target)
			}
		case "r", "R":
			if time.Since(m.lastRequest) > refreshDebounce {
				m.feedback = newFeedback(FeedbackInfo, "Refreshing...", 2*time.Second)
				cmds = append(cmds, m.Refresh(true), feedbackTimeout(2*time.Second))
			} else {
				m.feedback = newFeedback(FeedbackWarning, "Please wait before refreshing again", 2*time.Second)
				cmds = append(cmds, feedbackTimeout(2*time.Second))
			}
		case "c", "C":
			cmds = append(cmds, m.copyAddress())
		case "esc":
			return m, NavigateTo(ViewWalletSelector, nil)
		}

	case ChainRefreshedMsg:
		m.loading = false
		m.refreshErr = msg.Err
		if msg.Err != nil {
			m.feedback = newFeedback(FeedbackError, fmt.Sprintf("Failed to refresh: %s", msg.Err), 5*time.Second)
			cmds = append(cmds, feedbackTimeout(5*time.Second))
		} else {
			m.lastRefresh = time.Now()
		}
		m.clampSelection()

	case AutoRefreshMsg:
		if !m.loading && time.Since(m.chain.LastUpdated()) > autoRefreshInterval {
			m.loading = true
			cmds = append(cmds, m.refresh(false))
		}
		cmds = append(cmds, m.startAutoRefresh())

	case CopyAddressMsg:
		if msg.Err != nil {
			m.feedback = newFeedback(FeedbackError, fmt.Sprintf("Failed to copy address: %s", msg.Err), 3*time.Second)
		} else {
			m.feedback = newFeedback(FeedbackSuccess, "Address copied to clipboard!", 3*time.Second)
		}
		cmds = append(cmds, feedbackTimeout(3*time.Second))

	case FeedbackTimeoutMsg:
		if m.feedback.Expired() {
			m.feedback = nil
		}
	}

	if m.status != nil {
		m.networkStatus = m.status.GetStatus()
	}

	return m, tea.Batch(cmds...)
}

func (m *StakingDashboardModel) move(delta int) {
	if m.focus == focusDelegations {
		m.selectedDelegate += delta
	} else {
		m.selectedValidator += delta
	}
	m.clampSelection()
}

func (m *StakingDashboardModel) clampSelection() {
	clamp := func(i, n int) int {
		if i >= n {
			i = n - 1
		}
		if i < 0 {
			i = 0
		}
		return i
	}
	m.selectedDelegate = clamp(m.selectedDelegate, len(m.chain.Delegations()))
	m.selectedValidator = clamp(m.selectedValidator, len(m.chain.Validators()))
}

func (m StakingDashboardModel) selectedTarget() string {
	if m.focus == focusDelegations {
		if delegations := m.chain.Delegations(); m.selectedDelegate < len(delegations) {
			return delegations[m.selectedDelegate].ValidatorAddress
		}
		return ""
	}
	if validators := m.chain.Validators(); m.selectedValidator < len(validators) {
		return validators[m.selectedValidator].OperatorAddress
	}
	return ""
}

func (m StakingDashboardModel) copyAddress() tea.Cmd {
	address := m.wallet.Address
	return func() tea.Msg {
		return CopyAddressMsg{Err: clipboard.WriteAll(address)}
	}
}

func (m StakingDashboardModel) View() string {
	containerStyle := lipgloss.NewStyle().
		Padding(1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(utils.Colours.Blue))

	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Blue)).
		Bold(true)

	addressStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Text)).
		Background(lipgloss.Color(utils.Colours.Surface0)).
		Padding(0, 1)

	var content strings.Builder
	content.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render(fmt.Sprintf("Wallet: %s", m.wallet.Name)),
		"  ",
		m.session.View(),
	))
	content.WriteString("\n\n")
	content.WriteString(addressStyle.Render(fmt.Sprintf("Address: %s", utils.FormatAddress(m.wallet.Address, 10, 8))))
	content.WriteString("\n\n")

	cards := []string{m.renderBalanceCard(), m.renderNetworkStatusCard()}
	if m.width > 0 && m.width < 80 {
		content.WriteString(lipgloss.JoinVertical(lipgloss.Left, cards[0], "", cards[1]))
	} else {
		content.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards[0], "  ", cards[1]))
	}
	content.WriteString("\n\n")

	content.WriteString(m.renderDelegations())
	content.WriteString("\n")
	content.WriteString(m.renderValidators())
	content.WriteString("\n")
	if recent := m.renderRecent(); recent != "" {
		content.WriteString(recent)
		content.WriteString("\n")
	}
	content.WriteString("\n")

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Subtext0)).
		Italic(true)
	content.WriteString(helpStyle.Render("Tab: switch list • ↑/↓: navigate • d/Enter: stake • u: unstake • r: refresh • c: copy address • l: lock • Esc: back"))

	if m.feedback != nil {
		content.WriteString("\n\n")
		content.WriteString(renderFeedback(m.feedback))
	}

	return containerStyle.Render(content.String())
}

func (m StakingDashboardModel) cardWidth(preferred int) int {
	if m.width > 0 && m.width < 80 {
		w := m.width - 10
		if w < 20 {
			w = 20
		}
		return w
	}
	return preferred
}

func (m StakingDashboardModel) renderBalanceCard() string {
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(utils.Colours.Green)).
		Padding(1).
		Width(m.cardWidth(36))

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Green)).
		Bold(true)

	ageStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Subtext0)).
		Italic(true)

	t := m.translator
	var content strings.Builder
	content.WriteString(headerStyle.Render("Balances"))
	content.WriteString("\n\n")

	updated := m.chain.LastUpdated()

	switch {
	case m.loading && updated.IsZero():
		content.WriteString("Loading...")
	case m.refreshErr != nil && updated.IsZero():
		content.WriteString("Unavailable")
	default:
		content.WriteString(t.T("dashboard.available", m.chain.FormatDenom(m.chain.AvailableBalance())))
		content.WriteString("\n")
		content.WriteString(t.T("dashboard.delegated", m.chain.FormatDenom(m.chain.TotalDelegated())))
	}
	content.WriteString("\n\n")

	content.WriteString(ageStyle.Render("Updated: " + utils.FormatTimeAgo(updated, time.Now())))

	return cardStyle.Render(content.String())
}

func (m StakingDashboardModel) renderNetworkStatusCard() string {
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(utils.Colours.Blue)).
		Padding(1).
		Width(m.cardWidth(30))

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Blue)).
		Bold(true)

	var content strings.Builder
	content.WriteString(headerStyle.Render("Network Status"))
	content.WriteString("\n\n")

	statusColor := utils.Colours.Red
	statusText := "● Disconnected"
	if m.networkStatus.Connected {
		statusColor = utils.Colours.Green
		statusText = "● Connected"
	}
	content.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(statusColor)).Render(statusText))
	content.WriteString("\n")

	if m.networkStatus.ChainID != "" {
		content.WriteString(m.networkStatus.ChainID)
		content.WriteString("\n")
	}
	if m.networkStatus.BlockHeight > 0 {
		content.WriteString(fmt.Sprintf("Block: %d", m.networkStatus.BlockHeight))
		content.WriteString("\n")
	}
	if !m.networkStatus.LastChecked.IsZero() {
		ageStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(utils.Colours.Subtext0)).
			Italic(true)
		content.WriteString("\n")
		content.WriteString(ageStyle.Render("Checked: " + utils.FormatTimeAgo(m.networkStatus.LastChecked, time.Now())))
	}

	return cardStyle.Render(content.String())
}

func (m StakingDashboardModel) listStyles(focused bool) (lipgloss.Style, lipgloss.Style, lipgloss.Style) {
	border := utils.Colours.Surface1
	if focused {
		border = utils.Colours.Mauve
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(0, 1)
	item := lipgloss.NewStyle().Padding(0, 1)
	selected := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Green)).
		Background(lipgloss.Color(utils.Colours.Surface0)).
		Padding(0, 1).
		Bold(true)
	return box, item, selected
}

func (m StakingDashboardModel) renderDelegations() string {
	focused := m.focus == focusDelegations
	box, item, selected := m.listStyles(focused)
	header := lipgloss.NewStyle().Foreground(lipgloss.Color(utils.Colours.Mauve)).Bold(true)

	var content strings.Builder
	content.WriteString(header.Render(m.translator.T("dashboard.delegations")))
	content.WriteString("\n")

	delegations := m.chain.Delegations()
	if len(delegations) == 0 {
		content.WriteString(item.Render(m.translator.T("dashboard.no_delegates")))
		return box.Render(content.String())
	}

	for i, d := range delegations {
		v, _ := m.chain.Validator(d.ValidatorAddress)
		line := fmt.Sprintf("%-24s %s", utils.TruncateString(v.DisplayName(), 24), m.chain.FormatDenom(d.Balance))
		if v.IsCivicLiker {
			line += " ★"
		}
		if focused && i == m.selectedDelegate {
			content.WriteString(selected.Render("> " + line))
		} else {
			content.WriteString(item.Render("  " + line))
		}
		content.WriteString("\n")
	}
	return box.Render(strings.TrimRight(content.String(), "\n"))
}

func (m StakingDashboardModel) renderValidators() string {
	focused := m.focus == focusValidators
	box, item, selected := m.listStyles(focused)
	header := lipgloss.NewStyle().Foreground(lipgloss.Color(utils.Colours.Mauve)).Bold(true)

	var content strings.Builder
	content.WriteString(header.Render(m.translator.T("dashboard.validators")))
	content.WriteString("\n")

	validators := m.chain.Validators()
	if len(validators) == 0 {
		content.WriteString(item.Render("Loading validators..."))
		return box.Render(content.String())
	}

	visible := 8
	if m.height > 0 {
		if v := m.height - 30; v > visible {
			visible = v
		}
	}
	start := 0
	if m.selectedValidator >= visible {
		start = m.selectedValidator - visible + 1
	}
	end := start + visible
	if end > len(validators) {
		end = len(validators)
	}

	for i := start; i < end; i++ {
		v := validators[i]
		line := fmt.Sprintf("%-24s %6s", utils.TruncateString(v.DisplayName(), 24), v.CommissionPercent())
		if v.Jailed {
			line += " (jailed)"
		}
		if v.IsCivicLiker {
			line += " ★"
		}
		if focused && i == m.selectedValidator {
			content.WriteString(selected.Render("> " + line))
		} else {
			content.WriteString(item.Render("  " + line))
		}
		content.WriteString("\n")
	}
	return box.Render(strings.TrimRight(content.String(), "\n"))
}

func (m StakingDashboardModel) renderRecent() string {
	if len(m.recent) == 0 {
		return ""
	}

	header := lipgloss.NewStyle().Foreground(lipgloss.Color(utils.Colours.Mauve)).Bold(true)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(utils.Colours.Subtext0))

	lines := []string{header.Render("Recent Activity")}
	now := time.Now()
	for _, e := range m.recent {
		v, _ := m.chain.Validator(e.Validator)
		line := fmt.Sprintf("%-10s %-11s %-20s %s", e.Kind, e.Action, utils.TruncateString(v.DisplayName(), 20), e.Amount)
		if e.TxHash != "" {
			line += " " + utils.FormatTxHash(e.TxHash)
		}
		lines = append(lines, line+" "+dim.Render(utils.FormatTimeAgo(e.Timestamp, now)))
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
}
