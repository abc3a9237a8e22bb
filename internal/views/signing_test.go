package views

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rhystmorgan/likeWallet/internal/audit"
	"rhystmorgan/likeWallet/internal/chain"
	"rhystmorgan/likeWallet/internal/i18n"
	"rhystmorgan/likeWallet/internal/logging"
	"rhystmorgan/likeWallet/internal/models"
	"rhystmorgan/likeWallet/internal/security"
	"rhystmorgan/likeWallet/internal/txstore"
)

type fakeUnlocker struct {
	wallet *models.Wallet
	err    error
}

func (f fakeUnlocker) LoadWallet(id, password, prefix string) (*models.Wallet, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.wallet, nil
}

type signingFixture struct {
	model    *SigningModel
	unlocked *models.Wallet
	sessions *security.SessionManager
	attempts *security.AttemptTracker
	journal  *fakeJournal
}

func newSigningFixture(t *testing.T, signer TxSigner, broadcaster TxBroadcaster, unlockErr error) signingFixture {
	t.Helper()

	unlocked, err := models.NewWallet("Main", testMnemonic, "like")
	require.NoError(t, err)
	locked := &models.Wallet{ID: unlocked.ID, Name: unlocked.Name, Address: unlocked.Address, PubKey: unlocked.PubKey}

	logger := logging.Discard()
	sessions := security.NewSessionManager(security.DefaultSessionConfig(), logger)
	attempts := security.NewAttemptTracker(3)
	journal := &fakeJournal{}

	request := SigningRequest{
		Kind:      txstore.KindUndelegate,
		Validator: models.Validator{OperatorAddress: testValidatorA, Moniker: "Alpha"},
		Amount:    decimal.NewFromInt(10),
		Result: txstore.Result{
			Tx: &chain.UnsignedTx{
				Type:      chain.TxTypeStakingUnbond,
				Delegator: unlocked.Address,
				Validator: testValidatorA,
				Amount:    likeInt(10),
				Fee:       likeInt(1),
			},
			Fee: decimal.NewFromInt(1),
		},
	}

	model := NewSigningModel(request, locked, SigningDeps{
		Signer:      signer,
		Broadcaster: broadcaster,
		Journal:     journal,
		Chain:       newChainStore(t, locked),
		Sessions:    sessions,
		Attempts:    attempts,
		Storage:     fakeUnlocker{wallet: unlocked, err: unlockErr},
		Prefix:      "like",
		Translator:  i18n.New("en"),
		Logger:      logger,
	})

	return signingFixture{model: model, unlocked: unlocked, sessions: sessions, attempts: attempts, journal: journal}
}

func TestSigningWithUnlockedSession(t *testing.T) {
	f := newSigningFixture(t, fakeSigner{}, fakeBroadcaster{result: &chain.BroadcastResult{TxHash: "ABC123", Height: 42}}, nil)
	_, err := f.sessions.CreateSession(f.unlocked)
	require.NoError(t, err)

	model, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, SigningBroadcasting, model.Step())

	result, ok := findMsg[BroadcastResultMsg](runCmd(cmd))
	require.True(t, ok)
	require.NoError(t, result.Err)

	model, _ = model.Update(result)
	assert.Equal(t, SigningDone, model.Step())
	assert.Contains(t, model.View(), "ABC123")

	entries := f.journal.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionBroadcast, entries[0].Action)
	assert.Equal(t, "ABC123", entries[0].TxHash)
	assert.Equal(t, "undelegate", entries[0].Kind)
	assert.Equal(t, testValidatorA, entries[0].Validator)
	assert.Equal(t, "10", entries[0].Amount)

	_, cmd = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	nav, ok := findMsg[NavigateMsg](runCmd(cmd))
	require.True(t, ok)
	assert.Equal(t, ViewStakingDashboard, nav.State)
	assert.Equal(t, true, nav.Data)
}

func TestSigningAsksForPasswordWithoutSession(t *testing.T) {
	f := newSigningFixture(t, fakeSigner{}, fakeBroadcaster{result: &chain.BroadcastResult{TxHash: "ABC123"}}, nil)

	model, _ := f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, SigningPassword, model.Step())

	model, _ = model.Update(keyRunes("correct horse"))
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	verified, ok := findMsg[PasswordVerificationMsg](runCmd(cmd))
	require.True(t, ok)
	require.True(t, verified.Success)

	model, _ = model.Update(verified)
	assert.Equal(t, SigningBroadcasting, model.Step())

	_, ok = f.sessions.UnlockedWallet(f.unlocked.ID)
	assert.True(t, ok, "unlocking should start a session")
}

func TestSigningWrongPasswordCountsAttempt(t *testing.T) {
	f := newSigningFixture(t, fakeSigner{}, fakeBroadcaster{}, errors.New("invalid password"))

	model, _ := f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model, _ = model.Update(keyRunes("wrong"))
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	verified, ok := findMsg[PasswordVerificationMsg](runCmd(cmd))
	require.True(t, ok)
	require.False(t, verified.Success)

	model, _ = model.Update(verified)
	assert.Equal(t, SigningPassword, model.Step())
	assert.Equal(t, 1, f.attempts.FailedAttempts(f.unlocked.ID))
	assert.Empty(t, f.journal.Entries())
}

func TestSigningPasswordCancelReturnsToReview(t *testing.T) {
	f := newSigningFixture(t, fakeSigner{}, fakeBroadcaster{}, nil)

	model, _ := f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEsc})

	cancelled, ok := findMsg[PasswordCancelledMsg](runCmd(cmd))
	require.True(t, ok)

	model, _ = model.Update(cancelled)
	assert.Equal(t, SigningReview, model.Step())
}

func TestSigningFailureIsJournaled(t *testing.T) {
	f := newSigningFixture(t, fakeSigner{err: errors.New("bad key")}, fakeBroadcaster{}, nil)
	_, err := f.sessions.CreateSession(f.unlocked)
	require.NoError(t, err)

	model, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, SigningFailed, model.Step())

	entries := f.journal.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionSignFailed, entries[0].Action)
	assert.Equal(t, "bad key", entries[0].Error)
}

func TestSigningBroadcastRejected(t *testing.T) {
	rejected := &chain.BroadcastResult{TxHash: "DEF456", Code: 5, RawLog: "insufficient funds"}
	f := newSigningFixture(t, fakeSigner{}, fakeBroadcaster{result: rejected, err: errors.New("insufficient funds")}, nil)
	_, err := f.sessions.CreateSession(f.unlocked)
	require.NoError(t, err)

	model, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	result, ok := findMsg[BroadcastResultMsg](runCmd(cmd))
	require.True(t, ok)

	model, _ = model.Update(result)
	assert.Equal(t, SigningFailed, model.Step())

	entries := f.journal.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionRejected, entries[0].Action)
	assert.Equal(t, "DEF456", entries[0].TxHash)
}

func TestSigningReviewEscGoesBack(t *testing.T) {
	f := newSigningFixture(t, fakeSigner{}, fakeBroadcaster{}, nil)

	_, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	nav, ok := findMsg[NavigateMsg](runCmd(cmd))
	require.True(t, ok)
	assert.Equal(t, ViewStakingDashboard, nav.State)
	assert.Nil(t, nav.Data)
}
