package views

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rhystmorgan/likeWallet/internal/audit"
	"rhystmorgan/likeWallet/internal/i18n"
)

func newDashboard(t *testing.T) StakingDashboardModel {
	t.Helper()

	wallet := watchOnlyWallet()
	dashboard := NewStakingDashboardModel(wallet, newChainStore(t, wallet), nil, i18n.New("en"))
	dashboard.SetSize(120, 40)
	return *dashboard
}

func navigation(t *testing.T, cmd tea.Cmd) NavigateMsg {
	t.Helper()
	require.NotNil(t, cmd)
	nav, ok := cmd().(NavigateMsg)
	require.True(t, ok)
	return nav
}

func TestDashboardUnstakeSelectedDelegation(t *testing.T) {
	m := newDashboard(t)

	_, cmd := m.Update(keyRunes("u"))

	nav := navigation(t, cmd)
	assert.Equal(t, ViewUndelegate, nav.State)
	assert.Equal(t, testValidatorA, nav.Data)
}

func TestDashboardStakeSelectedValidator(t *testing.T) {
	m := newDashboard(t)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})

	// validators are listed by voting power, Beta first
	_, cmd := m.Update(keyRunes("d"))
	nav := navigation(t, cmd)
	assert.Equal(t, ViewDelegate, nav.State)
	assert.Equal(t, testValidatorB, nav.Data)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	nav = navigation(t, cmd)
	assert.Equal(t, ViewDelegate, nav.State)
	assert.Equal(t, testValidatorA, nav.Data)

	// selection stays within the list
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd = m.Update(keyRunes("d"))
	assert.Equal(t, testValidatorA, navigation(t, cmd).Data)
}

func TestDashboardUnstakeNeedsDelegationFocus(t *testing.T) {
	m := newDashboard(t)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m, _ = m.Update(keyRunes("u"))

	require.NotNil(t, m.feedback)
	assert.Equal(t, FeedbackWarning, m.feedback.Type)
}

func TestDashboardEscReturnsToSelector(t *testing.T) {
	m := newDashboard(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewWalletSelector, navigation(t, cmd).State)
}

func TestDashboardRefreshFailureShowsError(t *testing.T) {
	m := newDashboard(t)
	m.loading = true

	m, _ = m.Update(ChainRefreshedMsg{Err: errors.New("node unavailable")})

	assert.False(t, m.loading)
	require.NotNil(t, m.feedback)
	assert.Equal(t, FeedbackError, m.feedback.Type)
	assert.Contains(t, m.feedback.Message, "node unavailable")
}

func TestDashboardRefreshIsDebounced(t *testing.T) {
	m := newDashboard(t)
	m.lastRequest = time.Now()

	m, _ = m.Update(keyRunes("r"))

	require.NotNil(t, m.feedback)
	assert.Equal(t, FeedbackWarning, m.feedback.Type)
}

func TestDashboardView(t *testing.T) {
	m := newDashboard(t)
	m, _ = m.Update(HistoryLoadedMsg{Entries: []audit.Entry{{
		WalletID:  "w1",
		Action:    audit.ActionBroadcast,
		Kind:      "delegate",
		Validator: testValidatorB,
		Amount:    "5",
		TxHash:    "ABC123",
		Timestamp: time.Now(),
	}}})

	view := m.View()
	assert.Contains(t, view, "Available: 100 LIKE")
	assert.Contains(t, view, "Staked: 50 LIKE")
	assert.Contains(t, view, "Alpha")
	assert.Contains(t, view, "Recent Activity")
	assert.Contains(t, view, "ABC123")
	assert.Contains(t, view, "Locked")
}
