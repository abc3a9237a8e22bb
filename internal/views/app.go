package views

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"rhystmorgan/likeWallet/internal/audit"
	"rhystmorgan/likeWallet/internal/chain"
	"rhystmorgan/likeWallet/internal/chainstore"
	"rhystmorgan/likeWallet/internal/config"
	"rhystmorgan/likeWallet/internal/i18n"
	"rhystmorgan/likeWallet/internal/models"
	"rhystmorgan/likeWallet/internal/security"
	"rhystmorgan/likeWallet/internal/storage"
	"rhystmorgan/likeWallet/internal/txstore"
	"rhystmorgan/likeWallet/internal/utils"
)

type ViewState int

const (
	ViewWalletSelector ViewState = iota
	ViewWalletImport
	ViewStakingDashboard
	ViewUndelegate
	ViewDelegate
	ViewSigning
)

func (s ViewState) String() string {
	switch s {
	case ViewWalletSelector:
		return "wallet_selector"
	case ViewWalletImport:
		return "wallet_import"
	case ViewStakingDashboard:
		return "staking_dashboard"
	case ViewUndelegate:
		return "undelegate"
	case ViewDelegate:
		return "delegate"
	case ViewSigning:
		return "signing"
	default:
		return "unknown"
	}
}

// Dependencies are the long-lived services shared by every screen.
type Dependencies struct {
	Config     *config.Config
	Storage    *storage.Storage
	Client     *chain.Client
	Builder    *chain.TxBuilder
	Chain      *chainstore.Store
	Sessions   *security.SessionManager
	Attempts   *security.AttemptTracker
	Journal    *audit.Journal
	Translator *i18n.Translator
	Logger     *logrus.Logger
}

type AppModel struct {
	deps   Dependencies
	state  ViewState
	width  int
	height int

	currentWallet *models.Wallet
	wallets       []storage.EncryptedWallet

	undelegateStore *txstore.Store
	delegateStore   *txstore.Store

	walletSelector *WalletSelectorModel
	walletImport   *WalletImportModel
	dashboard      *StakingDashboardModel
	stakingInput   *StakingAmountInputModel
	signing        *SigningModel

	err error
}

type NavigateMsg struct {
	State ViewState
	Data  interface{}
}

type ErrorMsg struct {
	Err error
}

type WalletLoadedMsg struct {
	Wallet *models.Wallet
}

func NewAppModel(deps Dependencies) (*AppModel, error) {
	wallets, err := deps.Storage.ListWallets()
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}

	app := &AppModel{
		deps:            deps,
		state:           ViewWalletSelector,
		wallets:         wallets,
		undelegateStore: txstore.New(txstore.KindUndelegate, deps.Builder, deps.Chain, deps.Translator, deps.Logger),
		delegateStore:   txstore.New(txstore.KindDelegate, deps.Builder, deps.Chain, deps.Translator, deps.Logger),
		walletSelector:  NewWalletSelectorModel(wallets),
	}

	if settings, err := deps.Storage.LoadSettings(); err == nil && settings.LastWallet != "" {
		app.walletSelector.Focus(settings.LastWallet)
	}

	return app, nil
}

func (m AppModel) Init() tea.Cmd {
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.dashboard != nil {
			m.dashboard.SetSize(msg.Width, msg.Height)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.state == ViewWalletSelector || m.state == ViewStakingDashboard {
				return m, tea.Quit
			}
		}

	case NavigateMsg:
		return m.navigateTo(msg.State, msg.Data)

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case WalletSelectedMsg:
		return m, m.loadWallet(msg.ID)

	case WalletLoadedMsg:
		return m.openWallet(msg.Wallet)

	case WalletDeleteRequestedMsg:
		_ = m.deps.Sessions.CloseSession(msg.ID)
		if err := m.deps.Storage.DeleteWallet(msg.ID); err != nil {
			m.deps.Logger.WithError(err).WithField("wallet", msg.ID).Error("Failed to delete wallet")
			m.err = fmt.Errorf("failed to delete wallet: %w", err)
			return m, nil
		}
		m.deps.Logger.WithField("wallet", msg.ID).Info("Wallet removed")
		return m.navigateTo(ViewWalletSelector, nil)

	case WalletImportedMsg:
		wallets, err := m.deps.Storage.ListWallets()
		if err == nil {
			m.wallets = wallets
			m.walletSelector = NewWalletSelectorModel(wallets)
		}
		return m.openWallet(msg.Wallet)
	}

	switch m.state {
	case ViewWalletSelector:
		if m.walletSelector != nil {
			*m.walletSelector, cmd = m.walletSelector.Update(msg)
		}
	case ViewWalletImport:
		if m.walletImport != nil {
			*m.walletImport, cmd = m.walletImport.Update(msg)
		}
	case ViewStakingDashboard:
		if m.dashboard != nil {
			*m.dashboard, cmd = m.dashboard.Update(msg)
		}
	case ViewUndelegate, ViewDelegate:
		if m.stakingInput != nil {
			*m.stakingInput, cmd = m.stakingInput.Update(msg)
		}
	case ViewSigning:
		if m.signing != nil {
			*m.signing, cmd = m.signing.Update(msg)
		}
	}

	return m, cmd
}

func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content string

	switch m.state {
	case ViewWalletSelector:
		if m.walletSelector != nil {
			content = m.walletSelector.View()
		}
	case ViewWalletImport:
		if m.walletImport != nil {
			content = m.walletImport.View()
		}
	case ViewStakingDashboard:
		if m.dashboard != nil {
			content = m.dashboard.View()
		}
	case ViewUndelegate, ViewDelegate:
		if m.stakingInput != nil {
			content = m.stakingInput.View()
		}
	case ViewSigning:
		if m.signing != nil {
			content = m.signing.View()
		}
	default:
		content = "Unknown view"
	}

	if m.err != nil {
		errorStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(utils.Colours.Red)).
			Bold(true).
			Padding(1)
		content += "\n" + errorStyle.Render(fmt.Sprintf("Error: %s", m.err.Error()))
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m AppModel) navigateTo(state ViewState, data interface{}) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	// Leaving an amount screen pops it: its candidate transaction is discarded.
	if (m.state == ViewUndelegate || m.state == ViewDelegate) && m.stakingInput != nil {
		m.stakingInput.Close()
		m.stakingInput = nil
	}

	m.deps.Logger.WithFields(logrus.Fields{"from": m.state, "to": state}).Debug("Navigate")
	m.state = state
	m.err = nil

	switch state {
	case ViewWalletSelector:
		if m.currentWallet != nil {
			_ = m.deps.Sessions.CloseSession(m.currentWallet.ID)
			m.currentWallet = nil
		}
		if wallets, err := m.deps.Storage.ListWallets(); err == nil {
			m.wallets = wallets
		}
		m.walletSelector = NewWalletSelectorModel(m.wallets)

	case ViewWalletImport:
		m.walletImport = NewWalletImportModel(m.deps.Storage, m.deps.Config.Bech32Prefix)

	case ViewStakingDashboard:
		if m.dashboard == nil {
			m.state = ViewWalletSelector
			return m, nil
		}
		if refresh, ok := data.(bool); ok && refresh {
			cmd = m.dashboard.Refresh(true)
		}

	case ViewUndelegate, ViewDelegate:
		target, ok := data.(string)
		if !ok || target == "" || m.currentWallet == nil {
			m.state = ViewStakingDashboard
			return m, ShowError(fmt.Errorf("no validator selected"))
		}
		store := m.undelegateStore
		if state == ViewDelegate {
			store = m.delegateStore
		}
		m.stakingInput = NewStakingAmountInputModel(store, m.deps.Chain, m.deps.Translator, m.deps.Logger)
		cmd = m.stakingInput.Enter(target)

	case ViewSigning:
		request, ok := data.(SigningRequest)
		if !ok || m.currentWallet == nil {
			m.state = ViewStakingDashboard
			return m, ShowError(fmt.Errorf("nothing to sign"))
		}
		signingDeps := SigningDeps{
			Signer:      m.deps.Builder,
			Broadcaster: m.deps.Client,
			Chain:       m.deps.Chain,
			Sessions:    m.deps.Sessions,
			Attempts:    m.deps.Attempts,
			Storage:     m.deps.Storage,
			Prefix:      m.deps.Config.Bech32Prefix,
			Translator:  m.deps.Translator,
			Logger:      m.deps.Logger,
		}
		if m.deps.Journal != nil {
			signingDeps.Journal = m.deps.Journal
		}
		m.signing = NewSigningModel(request, m.currentWallet, signingDeps)
		cmd = m.signing.Init()
	}

	return m, cmd
}

func (m AppModel) openWallet(wallet *models.Wallet) (tea.Model, tea.Cmd) {
	m.currentWallet = wallet
	m.deps.Chain.SetWallet(wallet)

	settings, err := m.deps.Storage.LoadSettings()
	if err == nil {
		settings.LastWallet = wallet.ID
		settings.Network = m.deps.Config.Network
		settings.Locale = m.deps.Config.Locale
		if err := m.deps.Storage.SaveSettings(settings); err != nil {
			m.deps.Logger.WithError(err).Warn("Failed to save settings")
		}
	}

	m.dashboard = NewStakingDashboardModel(wallet, m.deps.Chain, m.deps.Client, m.deps.Translator)
	m.dashboard.SetSize(m.width, m.height)
	m.dashboard.SetSessionManager(m.deps.Sessions)
	if m.deps.Journal != nil {
		m.dashboard.SetJournal(m.deps.Journal)
	}

	model, cmd := m.navigateTo(ViewStakingDashboard, nil)
	app := model.(AppModel)
	return app, tea.Batch(cmd, app.dashboard.Init())
}

func (m AppModel) loadWallet(id string) tea.Cmd {
	return func() tea.Msg {
		wallet, err := m.deps.Storage.LoadPublicWallet(id)
		if err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to load wallet: %w", err)}
		}
		return WalletLoadedMsg{Wallet: wallet}
	}
}

func NavigateTo(state ViewState, data interface{}) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{State: state, Data: data}
	}
}

func ShowError(err error) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Err: err}
	}
}

func LoadWallet(wallet *models.Wallet) tea.Cmd {
	return func() tea.Msg {
		return WalletLoadedMsg{Wallet: wallet}
	}
}

// Shutdown locks every unlocked wallet.
func (m *AppModel) Shutdown() {
	m.deps.Sessions.CloseAllSessions()
	if m.stakingInput != nil {
		m.stakingInput.Close()
	}
}
