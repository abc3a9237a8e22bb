package views

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rhystmorgan/likeWallet/internal/storage"
	"rhystmorgan/likeWallet/internal/utils"
)

type WalletSelectedMsg struct {
	ID string
}

// WalletDeleteRequestedMsg asks the app to remove a stored wallet.
type WalletDeleteRequestedMsg struct {
	ID string
}

// WalletSelectorModel lists stored wallets with an "Import Wallet" row at the
// end. "x" followed by "y" removes the highlighted wallet.
type WalletSelectorModel struct {
	wallets  []storage.EncryptedWallet
	cursor   int
	deleting bool
}

func NewWalletSelectorModel(wallets []storage.EncryptedWallet) *WalletSelectorModel {
	return &WalletSelectorModel{wallets: wallets}
}

// Focus moves the cursor onto the wallet with the given id.
func (m *WalletSelectorModel) Focus(id string) {
	for i, wallet := range m.wallets {
		if wallet.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m WalletSelectorModel) onImportRow() bool {
	return m.cursor >= len(m.wallets)
}

func (m WalletSelectorModel) Init() tea.Cmd {
	return nil
}

func (m WalletSelectorModel) Update(msg tea.Msg) (WalletSelectorModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.deleting {
		m.deleting = false
		if key.String() == "y" && !m.onImportRow() {
			id := m.wallets[m.cursor].ID
			return m, func() tea.Msg { return WalletDeleteRequestedMsg{ID: id} }
		}
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if !m.onImportRow() {
			m.cursor++
		}
	case "enter", " ":
		if m.onImportRow() {
			return m, NavigateTo(ViewWalletImport, nil)
		}
		id := m.wallets[m.cursor].ID
		return m, func() tea.Msg { return WalletSelectedMsg{ID: id} }
	case "i":
		return m, NavigateTo(ViewWalletImport, nil)
	case "x":
		m.deleting = !m.onImportRow()
	}
	return m, nil
}

func (m WalletSelectorModel) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Blue)).
		Bold(true).
		Padding(1, 0)

	rowStyle := lipgloss.NewStyle().Padding(0, 2)
	selectedStyle := rowStyle.
		Foreground(lipgloss.Color(utils.Colours.Green)).
		Background(lipgloss.Color(utils.Colours.Surface0))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(utils.Colours.Subtext0))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(utils.Colours.Red)).Bold(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("LikeTerm - LikeCoin Staking Wallet"))
	b.WriteString("\n\n")

	if len(m.wallets) == 0 {
		b.WriteString(dimStyle.Render("No wallets yet. Import a LikeCoin wallet to start staking."))
		b.WriteString("\n\n")
	}

	now := time.Now()
	for i, wallet := range m.wallets {
		style, marker := rowStyle, " "
		if i == m.cursor {
			style, marker = selectedStyle, ">"
		}
		line := fmt.Sprintf("%s %-20s %s", marker, utils.TruncateString(wallet.Name, 20), utils.FormatAddress(wallet.Address, 10, 6))
		b.WriteString(style.Render(line))
		b.WriteString(" ")
		b.WriteString(dimStyle.Render("added " + utils.FormatTimeAgo(wallet.CreatedAt, now)))
		b.WriteString("\n")
	}
	if len(m.wallets) > 0 {
		b.WriteString("\n")
	}

	importStyle, marker := rowStyle, " "
	if m.onImportRow() {
		importStyle, marker = selectedStyle, ">"
	}
	b.WriteString(importStyle.Render(marker + " Import Wallet"))
	b.WriteString("\n\n")

	if m.deleting {
		name := m.wallets[m.cursor].Name
		b.WriteString(warnStyle.Render(fmt.Sprintf("Remove %s from this device? Its mnemonic cannot be recovered here. (y/N)", name)))
		b.WriteString("\n\n")
	}

	b.WriteString(dimStyle.Italic(true).Render("↑/↓: navigate • Enter: open • i: import • x: remove • q: quit"))
	return b.String()
}
