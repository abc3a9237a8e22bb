package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"rhystmorgan/likeWallet/internal/utils"
)

type AmountSuggestion struct {
	Label  string
	Amount decimal.Decimal
}

// AmountInputProps is everything the amount input renders. Labels arrive
// already localized and formatted.
type AmountInputProps struct {
	Title           string
	Value           string
	Amount          decimal.NullDecimal
	Max             decimal.Decimal
	MaxLabel        string
	FeeLabel        string
	LoadingLabel    string
	ErrorMessage    string
	IsLoading       bool
	Suggestions     []AmountSuggestion
	ShowSuggestions bool
}

type AmountInputHooks struct {
	OnChange            func(value string) tea.Cmd
	OnConfirm           func() tea.Cmd
	OnClose             func() tea.Cmd
	OnErrorExceedMax    func() tea.Cmd
	OnErrorLessThanZero func() tea.Cmd
}

// AmountInputModel is a reusable amount field with a maximum, suggestion
// chips and a confirm action that is disabled while loading.
type AmountInputModel struct {
	props      AmountInputProps
	hooks      AmountInputHooks
	input      textinput.Model
	spinner    spinner.Model
	suggestion int
}

func NewAmountInputModel(hooks AmountInputHooks) AmountInputModel {
	input := textinput.New()
	input.Placeholder = "0"
	input.Prompt = "> "
	input.CharLimit = 40
	input.Width = 30
	input.Focus()

	spin := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(utils.Colours.Blue))),
	)

	return AmountInputModel{
		hooks:      hooks,
		input:      input,
		spinner:    spin,
		suggestion: -1,
	}
}

// SetProps replaces the rendered state. The field text only changes when the
// caller's value differs, so the cursor is kept while typing.
func (m *AmountInputModel) SetProps(props AmountInputProps) {
	m.props = props
	if m.input.Value() != props.Value {
		m.input.SetValue(props.Value)
		m.input.CursorEnd()
	}
}

func (m AmountInputModel) Props() AmountInputProps {
	return m.props
}

func (m AmountInputModel) Value() string {
	return m.input.Value()
}

// StartSpinner returns the first spinner tick.
func (m AmountInputModel) StartSpinner() tea.Cmd {
	return m.spinner.Tick
}

func (m AmountInputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m AmountInputModel) Update(msg tea.Msg) (AmountInputModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.props.IsLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			return m, call(m.hooks.OnClose)
		case tea.KeyEnter:
			if m.props.IsLoading {
				return m, nil
			}
			return m, m.confirm()
		case tea.KeyTab:
			return m.nextSuggestion()
		case tea.KeyRunes:
			if !amountRunes(msg.Runes) {
				return m, nil
			}
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if value := m.input.Value(); value != before {
			m.suggestion = -1
			return m, tea.Batch(cmd, m.change(value))
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m AmountInputModel) confirm() tea.Cmd {
	switch utils.CheckAmountBounds(m.props.Amount, m.props.Max) {
	case utils.AmountAboveMax:
		return call(m.hooks.OnErrorExceedMax)
	case utils.AmountNotPositive:
		return call(m.hooks.OnErrorLessThanZero)
	default:
		return call(m.hooks.OnConfirm)
	}
}

func (m AmountInputModel) nextSuggestion() (AmountInputModel, tea.Cmd) {
	if !m.props.ShowSuggestions || len(m.props.Suggestions) == 0 {
		return m, nil
	}
	m.suggestion = (m.suggestion + 1) % len(m.props.Suggestions)
	value := m.props.Suggestions[m.suggestion].Amount.String()
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.change(value)
}

func (m AmountInputModel) change(value string) tea.Cmd {
	if m.hooks.OnChange == nil {
		return nil
	}
	return m.hooks.OnChange(value)
}

func (m AmountInputModel) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Blue)).
		Bold(true)

	inputStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Text)).
		Background(lipgloss.Color(utils.Colours.Surface0)).
		Padding(0, 1).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(utils.Colours.Surface1)).
		Width(36)

	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Subtext0))

	chipStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Blue)).
		Padding(0, 1).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(utils.Colours.Surface1))

	selectedChipStyle := chipStyle.
		Foreground(lipgloss.Color(utils.Colours.Green)).
		BorderForeground(lipgloss.Color(utils.Colours.Green))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Red))

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Subtext0)).
		Italic(true)

	var content strings.Builder
	content.WriteString(titleStyle.Render(m.props.Title))
	content.WriteString("\n\n")
	content.WriteString(inputStyle.Render(m.input.View()))
	content.WriteString("\n")

	if m.props.MaxLabel != "" {
		content.WriteString(infoStyle.Render(m.props.MaxLabel))
		content.WriteString("\n")
	}
	if m.props.FeeLabel != "" {
		content.WriteString(infoStyle.Render(m.props.FeeLabel))
		content.WriteString("\n")
	}

	if m.props.ShowSuggestions && len(m.props.Suggestions) > 0 {
		chips := make([]string, 0, len(m.props.Suggestions))
		for i, s := range m.props.Suggestions {
			style := chipStyle
			if i == m.suggestion {
				style = selectedChipStyle
			}
			chips = append(chips, style.Render(s.Label))
		}
		content.WriteString("\n")
		content.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, chips...))
		content.WriteString("\n")
	}

	if m.props.IsLoading {
		content.WriteString("\n")
		content.WriteString(m.spinner.View() + " " + m.props.LoadingLabel)
		content.WriteString("\n")
	} else if m.props.ErrorMessage != "" {
		content.WriteString("\n")
		content.WriteString(errorStyle.Render("✗ " + m.props.ErrorMessage))
		content.WriteString("\n")
	}

	content.WriteString("\n")
	help := "Enter: confirm • Esc: back"
	if m.props.ShowSuggestions {
		help = "Tab: suggestion • " + help
	}
	content.WriteString(helpStyle.Render(help))

	return content.String()
}

func call(hook func() tea.Cmd) tea.Cmd {
	if hook == nil {
		return nil
	}
	return hook()
}

func amountRunes(runes []rune) bool {
	for _, r := range runes {
		if (r < '0' || r > '9') && r != '.' && r != ',' && r != '-' {
			return false
		}
	}
	return true
}
