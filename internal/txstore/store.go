// Package txstore holds the candidate transaction of a staking amount screen:
// the parsed amount, the target validator, the prepared unsigned transaction
// and its fee, and the error shown to the user.
package txstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"rhystmorgan/likeWallet/internal/chain"
	"rhystmorgan/likeWallet/internal/i18n"
	"rhystmorgan/likeWallet/internal/metrics"
	"rhystmorgan/likeWallet/internal/utils"
)

// Kind is the staking transaction a store prepares.
type Kind string

const (
	KindUndelegate Kind = "undelegate"
	KindDelegate   Kind = "delegate"
)

// TxType maps the kind onto the chain message it builds.
func (k Kind) TxType() chain.TxType {
	if k == KindDelegate {
		return chain.TxTypeStakingDelegate
	}
	return chain.TxTypeStakingUnbond
}

func (k Kind) codePrefix() string {
	if k == KindDelegate {
		return "STAKE"
	}
	return "UNSTAKE"
}

// Status tracks the candidate through preparation.
type Status int

const (
	StatusIdle Status = iota
	StatusBuilding
	StatusSuccess
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusBuilding:
		return "building"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is a copy of the candidate transaction.
type State struct {
	Kind         Kind
	Target       string
	InputAmount  string
	Amount       decimal.NullDecimal
	Fee          decimal.NullDecimal
	ErrorKind    ErrorKind
	ErrorMessage string
	IsCreatingTx bool
	Status       Status
	Tx           *chain.UnsignedTx
}

// Builder prices and assembles unsigned staking transactions.
type Builder interface {
	BuildStakingTx(ctx context.Context, req chain.StakingTxRequest) (*chain.UnsignedTx, error)
}

// KeySource resolves the public key that will sign for an address.
type KeySource interface {
	PubKey(address string) ([]byte, error)
}

// Store owns one screen's candidate transaction. Every method is safe for
// concurrent use; observers are notified outside the lock.
type Store struct {
	kind       Kind
	builder    Builder
	keys       KeySource
	translator *i18n.Translator
	logger     *logrus.Logger

	mu          sync.Mutex
	state       State
	denom       chain.DenomInfo
	initialized bool
	generation  uint64
	observers   map[int]func(State)
	nextID      int
}

// New returns an uninitialized store. A nil translator falls back to English.
func New(kind Kind, builder Builder, keys KeySource, translator *i18n.Translator, logger *logrus.Logger) *Store {
	if translator == nil {
		translator = i18n.New("en")
	}
	return &Store{
		kind:       kind,
		builder:    builder,
		keys:       keys,
		translator: translator,
		logger:     logger,
		state:      State{Kind: kind},
		observers:  make(map[int]func(State)),
	}
}

func (s *Store) Kind() Kind {
	return s.kind
}

// Initialize resets the candidate for a freshly entered screen.
func (s *Store) Initialize(denom chain.DenomInfo) {
	s.mu.Lock()
	s.generation++
	s.denom = denom
	s.initialized = true
	s.state = State{Kind: s.kind}
	st := s.state
	s.mu.Unlock()

	s.notify(st)
}

// Reset discards the candidate when the screen is left. A build still in
// flight settles without touching the store.
func (s *Store) Reset() {
	s.mu.Lock()
	s.generation++
	s.initialized = false
	s.state = State{Kind: s.kind}
	st := s.state
	s.mu.Unlock()

	s.notify(st)
}

// SetTarget selects the validator. Changing it orphans an in-flight build.
func (s *Store) SetTarget(id string) {
	s.mu.Lock()
	if s.state.Target == id && s.state.Status == StatusBuilding {
		s.mu.Unlock()
		return
	}
	if s.state.Target != id {
		s.abandonLocked()
	}
	s.state.Target = id
	s.invalidateLocked()
	st := s.state
	s.mu.Unlock()

	s.notify(st)
}

// SetAmount records the raw input and its parsed value. Bounds are not
// checked here; calling it twice with the same text equals calling it once.
func (s *Store) SetAmount(text string) {
	s.mu.Lock()
	if s.state.InputAmount == text && s.state.Status == StatusBuilding {
		s.mu.Unlock()
		return
	}
	if s.state.InputAmount != text {
		s.abandonLocked()
	}
	s.state.InputAmount = text
	s.state.Amount = utils.ParseAmount(text, s.denom.FractionDigits)
	s.invalidateLocked()
	st := s.state
	s.mu.Unlock()

	s.notify(st)
}

// SetError records a displayable message for err and always returns false,
// so screen hooks can `return store.SetError(err)`.
func (s *Store) SetError(err error) bool {
	s.mu.Lock()
	generation := s.generation
	s.mu.Unlock()

	s.setErrorAt(generation, err)
	return false
}

// setErrorAt records err only while the candidate is still the one of
// generation, and reports whether it did.
func (s *Store) setErrorAt(generation uint64, err error) bool {
	if err == nil {
		return false
	}
	flowErr := Classify(err)
	message := s.message(flowErr)

	s.mu.Lock()
	if generation != s.generation {
		s.mu.Unlock()
		return false
	}
	s.state.ErrorKind = flowErr.Kind
	s.state.ErrorMessage = message
	s.state.Tx = nil
	if s.state.Status != StatusBuilding {
		s.state.Status = StatusFailed
	}
	st := s.state
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"kind":   s.kind,
		"error":  flowErr.Kind,
		"target": st.Target,
	}).Debug(err.Error())

	s.notify(st)
	return true
}

// State returns a snapshot of the candidate.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CheckBounds applies the screen's (0, max] rule to the current amount.
func (s *Store) CheckBounds(limit decimal.Decimal) *Error {
	s.mu.Lock()
	amount := s.state.Amount
	s.mu.Unlock()

	switch utils.CheckAmountBounds(amount, limit) {
	case utils.AmountNotPositive:
		return NewError(s.kind, AmountBelowMinimum)
	case utils.AmountAboveMax:
		return NewError(s.kind, AmountExceedsMax)
	default:
		return nil
	}
}

// Subscribe registers fn for every state change until the returned function
// is called. fn runs on the goroutine that changed the state.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(st State) {
	s.mu.Lock()
	observers := make([]func(State), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(st)
	}
}

// CreateUnbondingDelegateTx builds an undelegation from senderAddress to the
// current target. The store must be of KindUndelegate.
func (s *Store) CreateUnbondingDelegateTx(ctx context.Context, senderAddress string) (*chain.UnsignedTx, error) {
	unsigned, _, err := s.createTx(ctx, KindUndelegate, senderAddress)
	return unsigned, err
}

// CreateDelegateTx builds a delegation; the store must be of KindDelegate.
func (s *Store) CreateDelegateTx(ctx context.Context, senderAddress string) (*chain.UnsignedTx, error) {
	unsigned, _, err := s.createTx(ctx, KindDelegate, senderAddress)
	return unsigned, err
}

// createTx builds the candidate and returns the generation it belongs to.
// Errors raised before the build starts are not recorded on the store.
func (s *Store) createTx(ctx context.Context, kind Kind, sender string) (*chain.UnsignedTx, uint64, error) {
	s.mu.Lock()
	generation := s.generation
	if err := s.checkBuildableLocked(kind); err != nil {
		s.mu.Unlock()
		return nil, generation, err
	}

	amount, err := s.denom.ToBaseUnits(s.state.Amount.Decimal)
	if err != nil {
		s.mu.Unlock()
		return nil, generation, NewError(s.kind, AmountExceedsMax)
	}
	if !amount.IsPositive() {
		s.mu.Unlock()
		return nil, generation, ErrNoAmount
	}
	req := chain.StakingTxRequest{
		Type:      kind.TxType(),
		Delegator: sender,
		Validator: s.state.Target,
		Amount:    amount,
	}

	denom := s.denom
	s.state.Status = StatusBuilding
	s.state.IsCreatingTx = true
	s.state.ErrorKind = ErrorNone
	s.state.ErrorMessage = ""
	s.state.Tx = nil
	s.state.Fee = decimal.NullDecimal{}
	st := s.state
	s.mu.Unlock()

	s.notify(st)

	started := time.Now()
	unsigned, err := s.build(ctx, req)
	elapsed := time.Since(started)

	s.mu.Lock()
	if generation != s.generation {
		s.mu.Unlock()
		metrics.ObserveTxBuild(string(req.Type), "abandoned", elapsed)
		return nil, generation, ErrAbandoned
	}

	s.state.IsCreatingTx = false
	if err != nil {
		flowErr := Classify(err)
		s.state.Status = StatusFailed
		s.state.ErrorKind = flowErr.Kind
		s.state.ErrorMessage = s.message(flowErr)
	} else {
		s.state.Status = StatusSuccess
		s.state.Tx = unsigned
		s.state.Fee = decimal.NullDecimal{Decimal: denom.FromBaseUnits(unsigned.Fee), Valid: true}
	}
	st = s.state
	s.mu.Unlock()

	s.notify(st)

	fields := logrus.Fields{
		"type":      req.Type,
		"validator": req.Validator,
		"amount":    req.Amount.String(),
		"elapsed":   elapsed,
	}
	if err != nil {
		metrics.ObserveTxBuild(string(req.Type), "failure", elapsed)
		s.logger.WithFields(fields).WithError(err).Warn("Failed to prepare transaction")
		return nil, generation, &buildError{err}
	}

	metrics.ObserveTxBuild(string(req.Type), "success", elapsed)
	s.logger.WithFields(fields).WithField("fee", unsigned.Fee.String()).Info("Prepared transaction")
	return unsigned, generation, nil
}

// buildError marks a builder failure that createTx already recorded.
type buildError struct {
	err error
}

func (e *buildError) Error() string { return e.err.Error() }

func (e *buildError) Unwrap() error { return e.err }

func (s *Store) build(ctx context.Context, req chain.StakingTxRequest) (*chain.UnsignedTx, error) {
	pubKey, err := s.keys.PubKey(req.Delegator)
	if err != nil {
		return nil, err
	}
	req.PubKey = pubKey
	return s.builder.BuildStakingTx(ctx, req)
}

func (s *Store) checkBuildableLocked(kind Kind) error {
	switch {
	case kind != s.kind:
		return fmt.Errorf("%w: want %s, have %s", ErrWrongKind, kind, s.kind)
	case !s.initialized:
		return ErrNotInitialized
	case s.state.Status == StatusBuilding:
		return ErrBuildInProgress
	case s.state.Target == "":
		return ErrNoTarget
	case !s.state.Amount.Valid || !s.state.Amount.Decimal.IsPositive():
		return ErrNoAmount
	}
	return nil
}

// PrepareForSigning builds the transaction and checks that the wallet can
// pay for it. Any failure is recorded on the store before returning. If the
// candidate is reset or replaced meanwhile, the result is ErrAbandoned and
// the store is left alone.
func (s *Store) PrepareForSigning(ctx context.Context, senderAddress string, available decimal.Decimal) Result {
	abandoned := Result{Err: Classify(ErrAbandoned)}

	unsigned, generation, err := s.createTx(ctx, s.kind, senderAddress)
	var failed *buildError
	switch {
	case err == nil:
	case errors.Is(err, ErrAbandoned), errors.Is(err, ErrBuildInProgress):
		return Result{Err: Classify(err)}
	case errors.As(err, &failed):
		return Result{Err: Classify(failed.err)}
	default:
		if !s.setErrorAt(generation, err) {
			return abandoned
		}
		return Result{Err: Classify(err)}
	}

	s.mu.Lock()
	denom := s.denom
	s.mu.Unlock()

	fee := denom.FromBaseUnits(unsigned.Fee)
	required := fee
	if s.kind == KindDelegate {
		required = required.Add(denom.FromBaseUnits(unsigned.Amount))
	}

	if required.GreaterThan(available) {
		flowErr := NewError(s.kind, InsufficientFee)
		if !s.setErrorAt(generation, flowErr) {
			return abandoned
		}
		return Result{Fee: fee, Err: flowErr}
	}

	s.mu.Lock()
	current := generation == s.generation
	s.mu.Unlock()
	if !current {
		return abandoned
	}
	return Result{Tx: unsigned, Fee: fee}
}

// invalidateLocked drops anything derived from the previous input.
func (s *Store) invalidateLocked() {
	s.state.ErrorKind = ErrorNone
	s.state.ErrorMessage = ""
	s.state.Tx = nil
	s.state.Fee = decimal.NullDecimal{}
	if s.state.Status != StatusBuilding {
		s.state.Status = StatusIdle
	}
}

// abandonLocked starts a new candidate, so an in-flight build or a pending
// fee check settles without effect.
func (s *Store) abandonLocked() {
	s.generation++
	if s.state.Status == StatusBuilding {
		s.state.IsCreatingTx = false
		s.state.Status = StatusIdle
	}
}

func (s *Store) message(err *Error) string {
	if err.Kind == BuildFailure || err.Code == "" || !i18n.Has(err.Code) {
		return err.Error()
	}
	return s.translator.T(err.Code)
}
