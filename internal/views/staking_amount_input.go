package views

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"rhystmorgan/likeWallet/internal/chainstore"
	"rhystmorgan/likeWallet/internal/i18n"
	"rhystmorgan/likeWallet/internal/models"
	"rhystmorgan/likeWallet/internal/txstore"
	"rhystmorgan/likeWallet/internal/utils"
)

const prepareTimeout = 60 * time.Second

// TxStateMsg carries a tx store change into the Bubble Tea loop.
type TxStateMsg struct {
	State txstore.State
}

type PreparedMsg struct {
	Result txstore.Result
}

// SigningRequest is handed to the signing screen once a transaction is
// prepared and affordable.
type SigningRequest struct {
	Kind      txstore.Kind
	Validator models.Validator
	Amount    decimal.Decimal
	Result    txstore.Result
}

// StakingAmountInputModel is the undelegate / delegate amount screen. It
// owns one screen instance of the tx store between Enter and Close.
type StakingAmountInputModel struct {
	store      *txstore.Store
	chain      *chainstore.Store
	translator *i18n.Translator
	logger     *logrus.Logger

	target    string
	validator models.Validator
	preset    chainstore.Preset
	pending   bool

	input AmountInputModel

	updates     chan txstore.State
	done        chan struct{}
	closeOnce   *sync.Once
	unsubscribe func()
}

func NewStakingAmountInputModel(store *txstore.Store, chain *chainstore.Store, translator *i18n.Translator, logger *logrus.Logger) *StakingAmountInputModel {
	m := &StakingAmountInputModel{
		store:      store,
		chain:      chain,
		translator: translator,
		logger:     logger,
		updates:    make(chan txstore.State, 16),
		done:       make(chan struct{}),
		closeOnce:  &sync.Once{},
	}
	m.input = NewAmountInputModel(m.hooks())
	return m
}

func (m *StakingAmountInputModel) hooks() AmountInputHooks {
	store := m.store
	chain := m.chain
	kind := store.Kind()

	return AmountInputHooks{
		OnChange: func(value string) tea.Cmd {
			store.SetAmount(value)
			return nil
		},
		OnConfirm: func() tea.Cmd {
			return prepare(store, chain)
		},
		OnClose: func() tea.Cmd {
			return NavigateTo(ViewStakingDashboard, nil)
		},
		OnErrorExceedMax: func() tea.Cmd {
			store.SetError(txstore.NewError(kind, txstore.AmountExceedsMax))
			return nil
		},
		OnErrorLessThanZero: func() tea.Cmd {
			store.SetError(txstore.NewError(kind, txstore.AmountBelowMinimum))
			return nil
		},
	}
}

func prepare(store *txstore.Store, chain *chainstore.Store) tea.Cmd {
	sender := chain.Address()
	available := chain.AvailableBalance()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), prepareTimeout)
		defer cancel()
		return PreparedMsg{Result: store.PrepareForSigning(ctx, sender, available)}
	}
}

// Enter initializes the store for target and starts listening to it.
func (m *StakingAmountInputModel) Enter(target string) tea.Cmd {
	m.target = target
	m.validator, _ = m.chain.Validator(target)

	preset := chainstore.PresetUndelegate
	if m.store.Kind() == txstore.KindDelegate {
		preset = chainstore.PresetDelegate
	}
	m.preset = m.chain.CivicLikerPreset(target, preset)

	m.store.Initialize(m.chain.DenomInfo())
	m.store.SetTarget(target)

	updates, done := m.updates, m.done
	m.unsubscribe = m.store.Subscribe(func(s txstore.State) {
		select {
		case updates <- s:
		case <-done:
		default:
		}
	})

	m.sync()
	return tea.Batch(m.input.Init(), m.waitForState())
}

// Close pops the screen: the subscription ends and any build in flight is
// abandoned.
func (m *StakingAmountInputModel) Close() {
	m.closeOnce.Do(func() {
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		close(m.done)
		m.store.Reset()
	})
}

func (m StakingAmountInputModel) Target() string {
	return m.target
}

func (m StakingAmountInputModel) waitForState() tea.Cmd {
	updates, done := m.updates, m.done
	return func() tea.Msg {
		select {
		case s := <-updates:
			return TxStateMsg{State: s}
		case <-done:
			return nil
		}
	}
}

func (m StakingAmountInputModel) Init() tea.Cmd {
	return m.waitForState()
}

func (m StakingAmountInputModel) Update(msg tea.Msg) (StakingAmountInputModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case TxStateMsg:
		cmds = append(cmds, m.sync(), m.waitForState())
		return m, tea.Batch(cmds...)

	case PreparedMsg:
		m.pending = false
		cmds = append(cmds, m.sync())
		if msg.Result.OK() {
			denom := m.chain.DenomInfo()
			request := SigningRequest{
				Kind:      m.store.Kind(),
				Validator: m.validator,
				Amount:    denom.FromBaseUnits(msg.Result.Tx.Amount),
				Result:    msg.Result,
			}
			cmds = append(cmds, NavigateTo(ViewSigning, request))
		} else if !errors.Is(msg.Result.Err, txstore.ErrAbandoned) {
			m.logger.WithFields(logrus.Fields{
				"kind":   m.store.Kind(),
				"target": m.target,
				"error":  msg.Result.Err.Kind,
			}).Debug("Transaction not ready for signing")
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter && m.pending {
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	// Enter on an in-bounds amount dispatched a prepare command.
	props := m.input.Props()
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter && cmd != nil &&
		utils.CheckAmountBounds(props.Amount, props.Max) == utils.AmountWithinBounds {
		m.pending = true
	}

	cmds = append(cmds, m.sync())
	return m, tea.Batch(cmds...)
}

// sync copies the store state into the input's props and starts the spinner
// when a build begins.
func (m *StakingAmountInputModel) sync() tea.Cmd {
	state := m.store.State()
	denom := m.chain.DenomInfo()
	max := m.maxAmount()
	wasLoading := m.input.Props().IsLoading
	loading := state.IsCreatingTx || m.pending

	props := AmountInputProps{
		Title:           m.title(),
		Value:           state.InputAmount,
		Amount:          state.Amount,
		Max:             max,
		MaxLabel:        m.translator.T("amount.max", denom.FormatDenom(max)),
		LoadingLabel:    m.translator.T("amount.preparing"),
		ErrorMessage:    state.ErrorMessage,
		IsLoading:       loading,
		Suggestions:     m.suggestions(max),
		ShowSuggestions: true,
	}
	if state.Fee.Valid {
		props.FeeLabel = m.translator.T("amount.fee", denom.FormatDenom(state.Fee.Decimal))
	}

	m.input.SetProps(props)

	if loading && !wasLoading {
		return m.input.StartSpinner()
	}
	return nil
}

func (m StakingAmountInputModel) title() string {
	if m.store.Kind() == txstore.KindDelegate {
		return m.translator.T("delegate.title", m.validator.DisplayName())
	}
	return m.translator.T("undelegate.title", m.validator.DisplayName())
}

func (m StakingAmountInputModel) maxAmount() decimal.Decimal {
	if m.store.Kind() == txstore.KindDelegate {
		return m.chain.MaxDelegateAmount()
	}
	return m.chain.MaxUndelegateAmount(m.target)
}

// suggestions offers quarters of the maximum plus the Civic Liker amount when
// the validator has a preset.
func (m StakingAmountInputModel) suggestions(max decimal.Decimal) []AmountSuggestion {
	var out []AmountSuggestion
	if !max.IsPositive() {
		return out
	}

	digits := int32(m.chain.DenomInfo().FractionDigits)
	for _, pct := range []int64{25, 50, 75} {
		amount := max.Mul(decimal.NewFromInt(pct)).Div(decimal.NewFromInt(100)).Truncate(digits)
		if amount.IsPositive() {
			out = append(out, AmountSuggestion{Label: decimal.NewFromInt(pct).String() + "%", Amount: amount})
		}
	}
	out = append(out, AmountSuggestion{Label: "Max", Amount: max})

	if m.preset != chainstore.PresetNone {
		if amount, ok := m.chain.CivicLikerSuggestion(m.preset, m.target); ok {
			key := "amount.civic_keep"
			if m.preset == chainstore.PresetDelegate {
				key = "amount.civic_reach"
			}
			out = append(out, AmountSuggestion{
				Label:  m.translator.T(key, m.chain.FormatDenom(amount)),
				Amount: amount,
			})
		}
	}
	return out
}

func (m StakingAmountInputModel) View() string {
	return m.input.View()
}
