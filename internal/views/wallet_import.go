package views

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rhystmorgan/likeWallet/internal/models"
	"rhystmorgan/likeWallet/internal/storage"
	"rhystmorgan/likeWallet/internal/utils"
)

type WalletImportStep int

const (
	StepImportName WalletImportStep = iota
	StepMnemonicInput
	StepMnemonicValidation
	StepPasswordSetup
	StepPasswordConfirm
	StepImporting
)

// WalletStore persists imported wallets.
type WalletStore interface {
	ListWallets() ([]storage.EncryptedWallet, error)
	SaveWallet(wallet *models.Wallet, password string) error
}

type WalletImportModel struct {
	step           WalletImportStep
	store          WalletStore
	prefix         string
	name           string
	wordCount      int
	mnemonicWords  []string
	wordsValid     []bool
	currentWordIdx int
	password       string
	confirm        string
	previewAddress string

	nameValid     bool
	mnemonicValid bool
	passwordValid bool
	confirmValid  bool

	nameError     string
	mnemonicError string
	passwordError string
	confirmError  string

	err error
}

type WalletImportedMsg struct {
	Wallet *models.Wallet
}

type WalletValidatedMsg struct {
	Address string
}

type importFailedMsg struct {
	err error
}

func NewWalletImportModel(store WalletStore, prefix string) *WalletImportModel {
	m := &WalletImportModel{
		step:   StepImportName,
		store:  store,
		prefix: prefix,
	}
	m.setWordCount(12)
	return m
}

// setWordCount resizes the phrase grid, keeping words already typed.
func (m *WalletImportModel) setWordCount(n int) {
	words := make([]string, n)
	copy(words, m.mnemonicWords)
	m.mnemonicWords = words
	m.wordsValid = make([]bool, n)
	for i := range words {
		m.validateWord(i)
	}
	m.wordCount = n
	if m.currentWordIdx >= n {
		m.currentWordIdx = n - 1
	}
}

func (m WalletImportModel) Init() tea.Cmd {
	return nil
}

func (m WalletImportModel) Update(msg tea.Msg) (WalletImportModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.step == StepImporting {
			return m, nil
		}

		switch msg.String() {
		case "esc":
			if m.step == StepImportName {
				return m, NavigateTo(ViewWalletSelector, nil)
			}
			m.step--
			m.err = nil
			if m.step == StepMnemonicValidation {
				m.step = StepMnemonicInput
			}
			return m, nil

		case "enter":
			return m.handleEnter()

		case "backspace":
			return m.handleBackspace(), nil

		case "tab", " ":
			if m.step == StepMnemonicInput {
				m.currentWordIdx = (m.currentWordIdx + 1) % m.wordCount
				return m, nil
			}

		case "shift+tab":
			if m.step == StepMnemonicInput {
				m.currentWordIdx = (m.currentWordIdx - 1 + m.wordCount) % m.wordCount
				return m, nil
			}

		case "ctrl+w":
			if m.step == StepMnemonicInput {
				if m.wordCount == 12 {
					m.setWordCount(24)
				} else {
					m.setWordCount(12)
				}
				return m, nil
			}

		case "ctrl+v":
			if m.step == StepMnemonicInput {
				if text, err := clipboard.ReadAll(); err == nil {
					m.pastePhrase(text)
				}
				return m, nil
			}
		}

		switch msg.Type {
		case tea.KeyRunes:
			return m.handleCharInput(string(msg.Runes)), nil
		case tea.KeySpace:
			return m.handleCharInput(" "), nil
		}

	case WalletValidatedMsg:
		m.previewAddress = msg.Address
		m.mnemonicValid = true
		m.mnemonicError = ""
		return m, nil

	case importFailedMsg:
		m.err = msg.err
		switch m.step {
		case StepMnemonicValidation:
			m.mnemonicValid = false
			m.mnemonicError = msg.err.Error()
			m.err = nil
		case StepImporting:
			m.step = StepPasswordConfirm
		}
		return m, nil
	}

	return m, nil
}

func (m WalletImportModel) handleEnter() (WalletImportModel, tea.Cmd) {
	switch m.step {
	case StepImportName:
		if m.validateName() {
			m.step = StepMnemonicInput
		}

	case StepMnemonicInput:
		if m.validateAllWords() {
			m.step = StepMnemonicValidation
			m.mnemonicValid = false
			m.mnemonicError = ""
			return m, m.validateAndPreviewWallet()
		}
		m.mnemonicError = fmt.Sprintf("All %d words must be valid BIP39 words", m.wordCount)

	case StepMnemonicValidation:
		if m.mnemonicValid {
			m.step = StepPasswordSetup
		}

	case StepPasswordSetup:
		if m.validatePassword() {
			m.step = StepPasswordConfirm
		}

	case StepPasswordConfirm:
		if m.validateConfirmPassword() {
			m.step = StepImporting
			m.err = nil
			return m, m.importWallet()
		}
	}

	return m, nil
}

func (m WalletImportModel) handleBackspace() WalletImportModel {
	trim := func(s string) string {
		if r := []rune(s); len(r) > 0 {
			return string(r[:len(r)-1])
		}
		return s
	}

	switch m.step {
	case StepImportName:
		m.name = trim(m.name)
		m.validateName()
	case StepMnemonicInput:
		m.mnemonicWords[m.currentWordIdx] = trim(m.mnemonicWords[m.currentWordIdx])
		m.validateWord(m.currentWordIdx)
	case StepPasswordSetup:
		m.password = trim(m.password)
		m.validatePassword()
	case StepPasswordConfirm:
		m.confirm = trim(m.confirm)
		m.validateConfirmPassword()
	}
	return m
}

func (m WalletImportModel) handleCharInput(text string) WalletImportModel {
	switch m.step {
	case StepImportName:
		m.name += text
		m.validateName()

	case StepMnemonicInput:
		if strings.ContainsAny(text, " \n") {
			m.pastePhrase(text)
			break
		}
		m.mnemonicWords[m.currentWordIdx] += strings.ToLower(text)
		m.validateWord(m.currentWordIdx)

	case StepPasswordSetup:
		m.password += text
		m.validatePassword()

	case StepPasswordConfirm:
		m.confirm += text
		m.validateConfirmPassword()
	}
	return m
}

// pastePhrase fills the grid from a whole phrase, switching to 24 words when
// the phrase is that long.
func (m *WalletImportModel) pastePhrase(text string) {
	count := len(strings.Fields(text))
	if count > 12 && m.wordCount == 12 {
		m.setWordCount(24)
	}
	m.mnemonicWords = utils.SplitMnemonic(text, m.wordCount)
	for i := range m.mnemonicWords {
		m.validateWord(i)
	}
	m.currentWordIdx = count
	if m.currentWordIdx >= m.wordCount {
		m.currentWordIdx = m.wordCount - 1
	}
}

func (m *WalletImportModel) validateName() bool {
	issues := utils.ValidateWalletName(m.name)
	if len(issues) > 0 {
		m.nameError = issues[0]
		m.nameValid = false
		return false
	}
	m.nameError = ""
	m.nameValid = true
	return true
}

func (m *WalletImportModel) validateWord(index int) bool {
	word := strings.ToLower(strings.TrimSpace(m.mnemonicWords[index]))
	if word == "" {
		m.wordsValid[index] = false
		return false
	}
	m.wordsValid[index] = utils.ValidateMnemonicWords([]string{word})[0]
	return m.wordsValid[index]
}

func (m *WalletImportModel) validateAllWords() bool {
	allValid := true
	for i := range m.mnemonicWords {
		if !m.validateWord(i) {
			allValid = false
		}
	}
	return allValid
}

func (m *WalletImportModel) validatePassword() bool {
	strength, issues := utils.ValidatePassword(m.password)
	if strength == utils.PasswordWeak {
		m.passwordError = strings.Join(issues, ", ")
		m.passwordValid = false
		return false
	}
	if len(issues) > 0 {
		m.passwordError = "Medium strength: " + strings.Join(issues, ", ")
	} else {
		m.passwordError = "Strong password ✓"
	}
	m.passwordValid = true
	return true
}

func (m *WalletImportModel) validateConfirmPassword() bool {
	if m.password != m.confirm {
		m.confirmError = "Passwords do not match"
		m.confirmValid = false
		return false
	}
	m.confirmError = "Passwords match ✓"
	m.confirmValid = true
	return true
}

func (m WalletImportModel) mnemonic() string {
	return utils.JoinMnemonic(m.mnemonicWords)
}

func (m WalletImportModel) validateAndPreviewWallet() tea.Cmd {
	mnemonic, prefix, store := m.mnemonic(), m.prefix, m.store
	return func() tea.Msg {
		if !utils.ValidateMnemonic(mnemonic) {
			return importFailedMsg{err: fmt.Errorf("invalid mnemonic phrase: checksum verification failed")}
		}

		_, address, err := models.DeriveKey(mnemonic, prefix)
		if err != nil {
			return importFailedMsg{err: err}
		}

		wallets, err := store.ListWallets()
		if err != nil {
			return importFailedMsg{err: fmt.Errorf("failed to check existing wallets: %w", err)}
		}
		for _, wallet := range wallets {
			if wallet.Address == address {
				return importFailedMsg{err: fmt.Errorf("wallet with this address already exists: %s", address)}
			}
		}

		return WalletValidatedMsg{Address: address}
	}
}

func (m WalletImportModel) importWallet() tea.Cmd {
	name, mnemonic, password := strings.TrimSpace(m.name), m.mnemonic(), m.password
	prefix, store := m.prefix, m.store
	return func() tea.Msg {
		wallet, err := models.NewWallet(name, mnemonic, prefix)
		if err != nil {
			return importFailedMsg{err: fmt.Errorf("failed to create wallet: %w", err)}
		}

		if err := store.SaveWallet(wallet, password); err != nil {
			wallet.ClearSecrets()
			return importFailedMsg{err: fmt.Errorf("failed to save wallet: %w", err)}
		}

		// The dashboard only needs the public half until signing.
		wallet.ClearSecrets()
		return WalletImportedMsg{Wallet: wallet}
	}
}

func (m WalletImportModel) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Blue)).
		Bold(true).
		Padding(1, 0)

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Text)).
		Bold(true)

	inputStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Green)).
		Background(lipgloss.Color(utils.Colours.Surface0)).
		Padding(0, 1)

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Red))

	successStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Green))

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Subtext0)).
		Italic(true)

	var content strings.Builder
	content.WriteString(titleStyle.Render("Import Wallet") + "\n\n")
	content.WriteString(utils.FormatStepIndicator(int(m.step), 5, []string{"Name", "Phrase", "Verify", "Password", "Confirm"}))
	content.WriteString("\n\n")

	field := func(valid bool, msg string) {
		if msg == "" {
			return
		}
		if valid {
			content.WriteString(successStyle.Render("✓ "+msg) + "\n")
		} else {
			content.WriteString(errorStyle.Render("✗ "+msg) + "\n")
		}
	}

	switch m.step {
	case StepImportName:
		content.WriteString(labelStyle.Render("Wallet Name:") + "\n")
		content.WriteString(inputStyle.Render(m.name+"_") + "\n")
		field(m.nameValid, m.nameError)
		content.WriteString("\n" + helpStyle.Render("Enter a descriptive name for your wallet"))

	case StepMnemonicInput:
		content.WriteString(labelStyle.Render(fmt.Sprintf("Recovery Phrase (%d words):", m.wordCount)) + "\n\n")

		for row := 0; row < m.wordCount/4; row++ {
			for col := 0; col < 4; col++ {
				idx := row*4 + col
				word := m.mnemonicWords[idx]

				style := inputStyle
				if idx == m.currentWordIdx {
					style = style.Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(utils.Colours.Blue))
				}
				if word != "" {
					if m.wordsValid[idx] {
						style = style.Foreground(lipgloss.Color(utils.Colours.Green))
					} else {
						style = style.Foreground(lipgloss.Color(utils.Colours.Red))
					}
				}

				cursor := ""
				if idx == m.currentWordIdx {
					cursor = "_"
				}
				content.WriteString(style.Render(fmt.Sprintf("%2d. %-8s", idx+1, word+cursor)) + " ")
			}
			content.WriteString("\n")
		}

		if m.mnemonicError != "" {
			content.WriteString("\n" + errorStyle.Render("✗ "+m.mnemonicError) + "\n")
		}
		content.WriteString("\n" + helpStyle.Render("Tab/Space: next word • Ctrl+V: paste phrase • Ctrl+W: 12/24 words"))

	case StepMnemonicValidation:
		content.WriteString(labelStyle.Render("Validating Recovery Phrase...") + "\n\n")
		switch {
		case m.mnemonicValid:
			content.WriteString(successStyle.Render("✓ Valid recovery phrase") + "\n")
			content.WriteString(labelStyle.Render("Wallet Address Preview:") + "\n")
			content.WriteString(inputStyle.Render(m.previewAddress) + "\n\n")
			content.WriteString(helpStyle.Render("Press Enter to continue with password setup"))
		case m.mnemonicError != "":
			content.WriteString(errorStyle.Render("✗ "+m.mnemonicError) + "\n\n")
			content.WriteString(helpStyle.Render("Press Esc to go back and fix the recovery phrase"))
		default:
			content.WriteString(helpStyle.Render("Validating recovery phrase and checking for duplicates..."))
		}

	case StepPasswordSetup:
		content.WriteString(labelStyle.Render("Password:") + "\n")
		content.WriteString(inputStyle.Render(strings.Repeat("*", len([]rune(m.password)))+"_") + "\n")
		field(m.passwordValid, m.passwordError)
		content.WriteString("\n" + helpStyle.Render("Enter a strong password to encrypt your wallet"))

	case StepPasswordConfirm:
		content.WriteString(labelStyle.Render("Confirm Password:") + "\n")
		content.WriteString(inputStyle.Render(strings.Repeat("*", len([]rune(m.confirm)))+"_") + "\n")
		field(m.confirmValid, m.confirmError)
		content.WriteString("\n" + helpStyle.Render("Re-enter your password to confirm"))

	case StepImporting:
		content.WriteString(helpStyle.Render("Importing and encrypting your wallet..."))
	}

	if m.err != nil {
		content.WriteString("\n\n" + errorStyle.Render("Error: "+m.err.Error()))
	}

	content.WriteString("\n\n" + helpStyle.Render("Press Esc to go back"))

	return content.String()
}
