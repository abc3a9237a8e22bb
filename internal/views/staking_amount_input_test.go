package views

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rhystmorgan/likeWallet/internal/chainstore"
	"rhystmorgan/likeWallet/internal/i18n"
	"rhystmorgan/likeWallet/internal/logging"
	"rhystmorgan/likeWallet/internal/txstore"
)

func newAmountScreen(t *testing.T, kind txstore.Kind, builder *fakeBuilder) (*StakingAmountInputModel, *txstore.Store, *chainstore.Store) {
	t.Helper()

	chain := newChainStore(t, watchOnlyWallet())
	store := newTxStore(kind, builder, chain)
	screen := NewStakingAmountInputModel(store, chain, i18n.New("en"), logging.Discard())
	t.Cleanup(screen.Close)
	return screen, store, chain
}

func TestAmountScreenEnterInitializesStore(t *testing.T) {
	screen, store, _ := newAmountScreen(t, txstore.KindUndelegate, &fakeBuilder{fee: likeInt(1)})

	screen.Enter(testValidatorA)

	state := store.State()
	assert.Equal(t, testValidatorA, state.Target)
	assert.Equal(t, txstore.StatusIdle, state.Status)
	assert.Empty(t, state.InputAmount)

	props := screen.input.Props()
	assert.Equal(t, "Unstake from Alpha", props.Title)
	assert.True(t, props.Max.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "Max: 50 LIKE", props.MaxLabel)
	assert.False(t, props.IsLoading)
}

func TestAmountScreenTypingUpdatesStore(t *testing.T) {
	screen, store, _ := newAmountScreen(t, txstore.KindUndelegate, &fakeBuilder{fee: likeInt(1)})
	screen.Enter(testValidatorA)

	model, _ := screen.Update(keyRunes("12.5"))

	state := store.State()
	assert.Equal(t, "12.5", state.InputAmount)
	require.True(t, state.Amount.Valid)
	assert.True(t, state.Amount.Decimal.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "12.5", model.input.Value())
}

func TestAmountScreenRejectsAmountAboveMax(t *testing.T) {
	screen, store, _ := newAmountScreen(t, txstore.KindUndelegate, &fakeBuilder{fee: likeInt(1)})
	screen.Enter(testValidatorA)

	model, _ := screen.Update(keyRunes("60"))
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, model.pending)
	assert.Empty(t, runCmd(cmd))

	state := store.State()
	assert.Equal(t, txstore.AmountExceedsMax, state.ErrorKind)
	assert.Equal(t, "The amount exceeds what you have staked with this validator.", state.ErrorMessage)
	assert.Equal(t, state.ErrorMessage, model.input.Props().ErrorMessage)
}

func TestAmountScreenRejectsNegativeAmount(t *testing.T) {
	screen, store, _ := newAmountScreen(t, txstore.KindDelegate, &fakeBuilder{fee: likeInt(1)})
	screen.Enter(testValidatorB)

	model, _ := screen.Update(keyRunes("-5"))
	assert.False(t, store.State().Amount.Valid)

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	state := store.State()
	assert.Equal(t, txstore.AmountBelowMinimum, state.ErrorKind)
	assert.Equal(t, "The amount must be greater than 0.", state.ErrorMessage)
	assert.False(t, model.pending)
}

func TestAmountScreenIgnoresLettersInAmount(t *testing.T) {
	screen, store, _ := newAmountScreen(t, txstore.KindUndelegate, &fakeBuilder{fee: likeInt(1)})
	screen.Enter(testValidatorA)

	model, _ := screen.Update(keyRunes("abc"))

	assert.Empty(t, model.input.Value())
	assert.Empty(t, store.State().InputAmount)
}

func TestAmountScreenConfirmNavigatesToSigning(t *testing.T) {
	screen, store, _ := newAmountScreen(t, txstore.KindUndelegate, &fakeBuilder{fee: likeInt(1)})
	screen.Enter(testValidatorA)

	model, _ := screen.Update(keyRunes("10"))
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, model.pending)
	assert.True(t, model.input.Props().IsLoading)

	// a second Enter while preparing does nothing
	_, again := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, again)

	prepared, ok := findMsg[PreparedMsg](runCmd(cmd))
	require.True(t, ok)
	require.True(t, prepared.Result.OK())

	model, cmd = model.Update(prepared)
	assert.False(t, model.pending)
	assert.Equal(t, "Estimated fee: 1 LIKE", model.input.Props().FeeLabel)

	nav, ok := findMsg[NavigateMsg](runCmd(cmd))
	require.True(t, ok)
	assert.Equal(t, ViewSigning, nav.State)

	request, ok := nav.Data.(SigningRequest)
	require.True(t, ok)
	assert.Equal(t, txstore.KindUndelegate, request.Kind)
	assert.Equal(t, testValidatorA, request.Validator.OperatorAddress)
	assert.True(t, request.Amount.Equal(decimal.NewFromInt(10)))
	assert.True(t, request.Result.Fee.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, txstore.StatusSuccess, store.State().Status)
}

func TestAmountScreenBuildFailureStaysOnScreen(t *testing.T) {
	screen, store, _ := newAmountScreen(t, txstore.KindDelegate, &fakeBuilder{err: errors.New("account sequence mismatch")})
	screen.Enter(testValidatorB)

	model, _ := screen.Update(keyRunes("10"))
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	prepared, ok := findMsg[PreparedMsg](runCmd(cmd))
	require.True(t, ok)
	require.False(t, prepared.Result.OK())

	model, cmd = model.Update(prepared)
	_, navigated := findMsg[NavigateMsg](runCmd(cmd))
	assert.False(t, navigated)
	assert.Equal(t, txstore.BuildFailure, store.State().ErrorKind)
	assert.NotEmpty(t, model.input.Props().ErrorMessage)
}

func TestAmountScreenSuggestions(t *testing.T) {
	screen, store, _ := newAmountScreen(t, txstore.KindUndelegate, &fakeBuilder{fee: likeInt(1)})
	screen.Enter(testValidatorA)

	suggestions := screen.input.Props().Suggestions
	require.Len(t, suggestions, 4)
	assert.Equal(t, "25%", suggestions[0].Label)
	assert.True(t, suggestions[0].Amount.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "Max", suggestions[3].Label)

	model, _ := screen.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "12.5", store.State().InputAmount)

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "25", store.State().InputAmount)
	assert.Equal(t, "25", model.input.Value())
}

func TestAmountScreenCivicLikerSuggestion(t *testing.T) {
	chain := newChainStoreWith(t, watchOnlyWallet(), chainstore.Options{
		FeeReserve:           decimal.NewFromInt(1),
		CivicLikerValidators: []string{testValidatorA},
		CivicLikerMinStake:   decimal.NewFromInt(20),
	})

	unstake := NewStakingAmountInputModel(
		newTxStore(txstore.KindUndelegate, &fakeBuilder{fee: likeInt(1)}, chain), chain, i18n.New("en"), logging.Discard())
	defer unstake.Close()
	unstake.Enter(testValidatorA)

	suggestions := unstake.input.Props().Suggestions
	last := suggestions[len(suggestions)-1]
	assert.Equal(t, "Keep Civic Liker status: 30 LIKE", last.Label)
	assert.True(t, last.Amount.Equal(decimal.NewFromInt(30)))

	// no preset for validators outside the Civic Liker list
	stake := NewStakingAmountInputModel(
		newTxStore(txstore.KindDelegate, &fakeBuilder{fee: likeInt(1)}, chain), chain, i18n.New("en"), logging.Discard())
	defer stake.Close()
	stake.Enter(testValidatorB)

	for _, s := range stake.input.Props().Suggestions {
		assert.NotContains(t, s.Label, "Civic Liker")
	}
}

func TestAmountScreenCloseResetsStore(t *testing.T) {
	screen, store, _ := newAmountScreen(t, txstore.KindUndelegate, &fakeBuilder{fee: likeInt(1)})
	screen.Enter(testValidatorA)
	screen.Update(keyRunes("10"))

	screen.Close()
	screen.Close()

	state := store.State()
	assert.Empty(t, state.Target)
	assert.Empty(t, state.InputAmount)

	// the store refuses to build once the screen is gone
	_, err := store.CreateUnbondingDelegateTx(context.Background(), testDelegator)
	assert.ErrorIs(t, err, txstore.ErrNotInitialized)
}

func TestAmountScreenEscReturnsToDashboard(t *testing.T) {
	screen, _, _ := newAmountScreen(t, txstore.KindUndelegate, &fakeBuilder{fee: likeInt(1)})
	screen.Enter(testValidatorA)

	_, cmd := screen.Update(tea.KeyMsg{Type: tea.KeyEsc})

	nav, ok := findMsg[NavigateMsg](runCmd(cmd))
	require.True(t, ok)
	assert.Equal(t, ViewStakingDashboard, nav.State)
}
