package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	"github.com/sirupsen/logrus"

	"rhystmorgan/likeWallet/internal/audit"
	"rhystmorgan/likeWallet/internal/chain"
	"rhystmorgan/likeWallet/internal/chainstore"
	"rhystmorgan/likeWallet/internal/i18n"
	"rhystmorgan/likeWallet/internal/models"
	"rhystmorgan/likeWallet/internal/security"
	"rhystmorgan/likeWallet/internal/txstore"
	"rhystmorgan/likeWallet/internal/utils"
)

const broadcastTimeout = 30 * time.Second

type TxSigner interface {
	Sign(unsigned *chain.UnsignedTx, privKey cryptotypes.PrivKey) ([]byte, error)
}

type TxBroadcaster interface {
	Broadcast(ctx context.Context, txBytes []byte) (*chain.BroadcastResult, error)
}

// TxRecorder journals signing outcomes.
type TxRecorder interface {
	Record(entry audit.Entry) error
}

type SigningDeps struct {
	Signer      TxSigner
	Broadcaster TxBroadcaster
	Journal     TxRecorder
	Chain       *chainstore.Store
	Sessions    *security.SessionManager
	Attempts    *security.AttemptTracker
	Storage     WalletUnlocker
	Prefix      string
	Translator  *i18n.Translator
	Logger      *logrus.Logger
}

type SigningStep int

const (
	SigningReview SigningStep = iota
	SigningPassword
	SigningBroadcasting
	SigningDone
	SigningFailed
)

type BroadcastResultMsg struct {
	Result *chain.BroadcastResult
	Err    error
}

// SigningModel reviews a prepared staking transaction, unlocks the wallet if
// its session has expired, then signs and broadcasts.
type SigningModel struct {
	request SigningRequest
	wallet  *models.Wallet
	deps    SigningDeps

	step     SigningStep
	password PasswordPromptModel
	spinner  spinner.Model
	result   *chain.BroadcastResult
	err      error
}

func NewSigningModel(request SigningRequest, wallet *models.Wallet, deps SigningDeps) *SigningModel {
	password := NewPasswordPromptModel(wallet, deps.Storage, deps.Attempts, deps.Prefix)
	password.SetText("Unlock Wallet", fmt.Sprintf("Enter the password for %s to sign", wallet.Name))

	return &SigningModel{
		request:  request,
		wallet:   wallet,
		deps:     deps,
		step:     SigningReview,
		password: password,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(utils.Colours.Mauve))),
		),
	}
}

func (m SigningModel) Init() tea.Cmd {
	return nil
}

func (m SigningModel) Step() SigningStep {
	return m.step
}

func (m SigningModel) Update(msg tea.Msg) (SigningModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.step != SigningBroadcasting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case BroadcastResultMsg:
		return m.handleBroadcast(msg)

	case PasswordCancelledMsg:
		m.step = SigningReview
		return m, nil

	case PasswordVerificationMsg:
		var cmd tea.Cmd
		m.password, cmd = m.password.Update(msg)
		if !msg.Success {
			return m, cmd
		}
		if _, err := m.deps.Sessions.CreateSession(msg.Wallet); err != nil {
			m.deps.Logger.WithError(err).Warn("Failed to create wallet session")
		}
		return m.signAndBroadcast(msg.Wallet)

	case tea.KeyMsg:
		switch m.step {
		case SigningReview:
			switch msg.String() {
			case "enter", "y":
				if unlocked, ok := m.deps.Sessions.UnlockedWallet(m.wallet.ID); ok {
					return m.signAndBroadcast(unlocked)
				}
				m.step = SigningPassword
				return m, m.password.Focus()
			case "esc", "n":
				return m, NavigateTo(ViewStakingDashboard, nil)
			}
			return m, nil

		case SigningPassword:
			var cmd tea.Cmd
			m.password, cmd = m.password.Update(msg)
			return m, cmd

		case SigningDone, SigningFailed:
			switch msg.String() {
			case "enter", "esc":
				return m, NavigateTo(ViewStakingDashboard, true)
			}
		}
		return m, nil
	}

	if m.step == SigningPassword {
		var cmd tea.Cmd
		m.password, cmd = m.password.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m SigningModel) signAndBroadcast(unlocked *models.Wallet) (SigningModel, tea.Cmd) {
	txBytes, err := m.deps.Signer.Sign(m.request.Result.Tx, unlocked.PrivKey)
	if err != nil {
		m.deps.Logger.WithError(err).WithField("kind", m.request.Kind).Error("Failed to sign transaction")
		m.record(audit.ActionSignFailed, "", err)
		m.step = SigningFailed
		m.err = err
		return m, nil
	}

	m.step = SigningBroadcasting
	broadcaster := m.deps.Broadcaster
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), broadcastTimeout)
		defer cancel()
		result, err := broadcaster.Broadcast(ctx, txBytes)
		return BroadcastResultMsg{Result: result, Err: err}
	})
}

func (m SigningModel) handleBroadcast(msg BroadcastResultMsg) (SigningModel, tea.Cmd) {
	m.result = msg.Result
	fields := logrus.Fields{
		"kind":      m.request.Kind,
		"validator": m.request.Validator.OperatorAddress,
		"amount":    m.request.Amount.String(),
	}
	if msg.Result != nil {
		fields["tx_hash"] = msg.Result.TxHash
	}

	hash := ""
	if msg.Result != nil {
		hash = msg.Result.TxHash
	}

	if msg.Err != nil {
		m.deps.Logger.WithError(msg.Err).WithFields(fields).Error("Broadcast failed")
		m.record(audit.ActionRejected, hash, msg.Err)
		m.step = SigningFailed
		m.err = msg.Err
		return m, nil
	}

	m.deps.Logger.WithFields(fields).Info("Transaction broadcast")
	m.record(audit.ActionBroadcast, hash, nil)
	m.step = SigningDone

	store := m.deps.Chain
	logger := m.deps.Logger
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), broadcastTimeout)
		defer cancel()
		if err := store.Refresh(ctx, true); err != nil {
			logger.WithError(err).Debug("Post-broadcast refresh failed")
		}
		return nil
	}
}

func (m SigningModel) record(action audit.Action, hash string, err error) {
	if m.deps.Journal == nil {
		return
	}
	entry := audit.Entry{
		WalletID:  m.wallet.ID,
		Action:    action,
		Kind:      string(m.request.Kind),
		Validator: m.request.Validator.OperatorAddress,
		Amount:    m.request.Amount.String(),
		Fee:       m.request.Result.Fee.String(),
		TxHash:    hash,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if err := m.deps.Journal.Record(entry); err != nil {
		m.deps.Logger.WithError(err).Warn("Failed to journal transaction")
	}
}

func (m SigningModel) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Mauve)).
		Bold(true).
		Padding(1, 0)

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(utils.Colours.Surface1)).
		Padding(1, 2).
		Width(64)

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Subtext0)).
		Width(12)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Text))

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Subtext0)).
		Italic(true).
		Padding(1, 0)

	t := m.deps.Translator
	denom := m.deps.Chain

	var b strings.Builder
	b.WriteString(titleStyle.Render(t.T("signing.title")))
	b.WriteString("\n")

	action := "Unstake"
	if m.request.Kind == txstore.KindDelegate {
		action = "Stake"
	}

	rows := []struct{ label, value string }{
		{"Action", action},
		{"Validator", m.request.Validator.DisplayName()},
		{"Amount", denom.FormatDenom(m.request.Amount)},
		{"Fee", denom.FormatDenom(m.request.Result.Fee)},
		{"From", utils.FormatAddress(m.wallet.Address, 10, 6)},
	}
	var card strings.Builder
	for i, row := range rows {
		if i > 0 {
			card.WriteString("\n")
		}
		card.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(row.label), valueStyle.Render(row.value)))
	}
	b.WriteString(cardStyle.Render(card.String()))
	b.WriteString("\n\n")

	switch m.step {
	case SigningReview:
		b.WriteString(helpStyle.Render("Enter/y: sign and broadcast • Esc/n: cancel"))

	case SigningPassword:
		b.WriteString(m.password.View())

	case SigningBroadcasting:
		b.WriteString(m.spinner.View() + " " + t.T("signing.broadcasting"))

	case SigningDone:
		success := lipgloss.NewStyle().Foreground(lipgloss.Color(utils.Colours.Green)).Bold(true)
		hash := ""
		if m.result != nil {
			hash = m.result.TxHash
		}
		b.WriteString(success.Render(t.T("signing.success", utils.FormatTxHash(hash))))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("Enter: back to dashboard"))

	case SigningFailed:
		failure := lipgloss.NewStyle().Foreground(lipgloss.Color(utils.Colours.Red)).Bold(true)
		b.WriteString(failure.Render(t.T("signing.failed", m.err)))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("Enter: back to dashboard"))
	}

	return b.String()
}
