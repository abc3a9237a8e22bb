// Package chainstore keeps the wallet's balance snapshot and the validator set
// that the staking screens read from.
package chainstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"rhystmorgan/likeWallet/internal/chain"
	"rhystmorgan/likeWallet/internal/models"
)

type Preset string

const (
	PresetNone       Preset = ""
	PresetUndelegate Preset = "undelegate"
	PresetDelegate   Preset = "delegate"
)

// ChainReader is the read side of the LCD client.
type ChainReader interface {
	GetBalance(ctx context.Context, address string) (sdkmath.Int, error)
	RefreshBalance(ctx context.Context, address string) (sdkmath.Int, error)
	GetDelegations(ctx context.Context, delegator string) ([]chain.DelegationResponse, error)
	GetValidators(ctx context.Context) ([]chain.ValidatorResponse, error)
}

type Options struct {
	Denom                chain.DenomInfo
	FeeReserve           decimal.Decimal
	CivicLikerValidators []string
	CivicLikerMinStake   decimal.Decimal
}

type Store struct {
	client ChainReader
	opts   Options
	civic  map[string]bool
	logger *logrus.Logger

	mu         sync.RWMutex
	wallet     *models.Wallet
	validators map[string]models.Validator
	refreshing bool
}

func New(client ChainReader, opts Options, logger *logrus.Logger) *Store {
	civic := make(map[string]bool, len(opts.CivicLikerValidators))
	for _, addr := range opts.CivicLikerValidators {
		civic[addr] = true
	}

	return &Store{
		client:     client,
		opts:       opts,
		civic:      civic,
		logger:     logger,
		validators: make(map[string]models.Validator),
	}
}

func (s *Store) SetWallet(wallet *models.Wallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallet = wallet
}

func (s *Store) Wallet() *models.Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallet
}

func (s *Store) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.wallet == nil {
		return ""
	}
	return s.wallet.Address
}

// PubKey returns the compressed public key of the active wallet when it owns
// address.
func (s *Store) PubKey(address string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.wallet == nil {
		return nil, fmt.Errorf("no wallet selected")
	}
	if s.wallet.Address != address {
		return nil, fmt.Errorf("address %s does not belong to wallet %s", address, s.wallet.Name)
	}
	if len(s.wallet.PubKey) == 0 {
		return nil, fmt.Errorf("wallet %s has no public key", s.wallet.Name)
	}
	return s.wallet.PubKey, nil
}

func (s *Store) snapshot() *models.BalanceSnapshot {
	if s.wallet == nil {
		return nil
	}
	return s.wallet.Snapshot
}

func (s *Store) AvailableBalance() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if snap := s.snapshot(); snap != nil {
		return snap.Available
	}
	return decimal.Zero
}

// LastUpdated is when the current snapshot was taken, zero before the first
// successful refresh.
func (s *Store) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if snap := s.snapshot(); snap != nil {
		return snap.LastUpdated
	}
	return time.Time{}
}

func (s *Store) GetDelegation(target string) models.Delegation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot().GetDelegation(target)
}

func (s *Store) Delegations() []models.Delegation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot().DelegationList()
}

func (s *Store) TotalDelegated() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot().TotalDelegated()
}

// Validators returns the bonded set, largest voting power first.
func (s *Store) Validators() []models.Validator {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]models.Validator, 0, len(s.validators))
	for _, v := range s.validators {
		list = append(list, v)
	}
	sort.Slice(list, func(i, j int) bool {
		if c := list[i].Tokens.Cmp(list[j].Tokens); c != 0 {
			return c > 0
		}
		return list[i].OperatorAddress < list[j].OperatorAddress
	})
	return list
}

// Validator looks up a validator; unknown (e.g. unbonded) ones get a stub.
func (s *Store) Validator(address string) (models.Validator, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.validators[address]; ok {
		return v, true
	}
	return models.Validator{OperatorAddress: address, IsCivicLiker: s.civic[address]}, false
}

func (s *Store) DenomInfo() chain.DenomInfo {
	return s.opts.Denom
}

func (s *Store) FormatDenom(amount decimal.Decimal) string {
	return s.opts.Denom.FormatDenom(amount)
}

func (s *Store) FeeReserve() decimal.Decimal {
	return s.opts.FeeReserve
}

// MaxUndelegateAmount is everything currently delegated to target.
func (s *Store) MaxUndelegateAmount(target string) decimal.Decimal {
	return s.GetDelegation(target).Balance
}

// MaxDelegateAmount keeps the fee reserve liquid.
func (s *Store) MaxDelegateAmount() decimal.Decimal {
	limit := s.AvailableBalance().Sub(s.opts.FeeReserve)
	if limit.IsNegative() {
		return decimal.Zero
	}
	return limit
}

func (s *Store) CivicLikerPreset(target string, preset Preset) Preset {
	v, _ := s.Validator(target)
	if !v.IsCivicLiker {
		return PresetNone
	}
	return preset
}

// CivicLikerSuggestion proposes an amount that keeps (undelegate) or reaches
// (delegate) the Civic Liker minimum stake with target.
func (s *Store) CivicLikerSuggestion(preset Preset, target string) (decimal.Decimal, bool) {
	minStake := s.opts.CivicLikerMinStake
	if !minStake.IsPositive() {
		return decimal.Zero, false
	}

	current := s.GetDelegation(target).Balance

	switch preset {
	case PresetUndelegate:
		if current.GreaterThan(minStake) {
			return current.Sub(minStake), true
		}
	case PresetDelegate:
		if current.LessThan(minStake) {
			need := minStake.Sub(current)
			if need.LessThanOrEqual(s.MaxDelegateAmount()) {
				return need, true
			}
		}
	}
	return decimal.Zero, false
}

// Refresh reloads balance, delegations and validators concurrently and swaps
// in the new snapshot only when all three succeed.
func (s *Store) Refresh(ctx context.Context, force bool) error {
	s.mu.Lock()
	if s.wallet == nil {
		s.mu.Unlock()
		return fmt.Errorf("no wallet selected")
	}
	if s.refreshing {
		s.mu.Unlock()
		return nil
	}
	s.refreshing = true
	address := s.wallet.Address
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.refreshing = false
		s.mu.Unlock()
	}()

	started := time.Now()

	var (
		balance     sdkmath.Int
		delegations []chain.DelegationResponse
		validators  []chain.ValidatorResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if force {
			balance, err = s.client.RefreshBalance(gctx, address)
		} else {
			balance, err = s.client.GetBalance(gctx, address)
		}
		if err != nil {
			return fmt.Errorf("failed to load balance: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		delegations, err = s.client.GetDelegations(gctx, address)
		if err != nil {
			return fmt.Errorf("failed to load delegations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		validators, err = s.client.GetValidators(gctx)
		if err != nil {
			return fmt.Errorf("failed to load validators: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.WithError(err).WithField("address", address).Warn("Chain refresh failed")
		return err
	}

	denom := s.opts.Denom
	modelDelegations := make([]models.Delegation, 0, len(delegations))
	for _, d := range delegations {
		modelDelegations = append(modelDelegations, models.Delegation{
			ValidatorAddress: d.ValidatorAddress,
			Shares:           d.Shares,
			Balance:          denom.FromBaseUnits(d.Balance),
		})
	}
	snapshot := models.NewBalanceSnapshot(address, denom.FromBaseUnits(balance), modelDelegations)

	validatorSet := make(map[string]models.Validator, len(validators))
	for _, v := range validators {
		commission, err := decimal.NewFromString(v.CommissionRate)
		if err != nil {
			commission = decimal.Zero
		}
		validatorSet[v.OperatorAddress] = models.Validator{
			OperatorAddress: v.OperatorAddress,
			Moniker:         v.Moniker,
			Website:         v.Website,
			Jailed:          v.Jailed,
			Status:          v.Status,
			Tokens:          denom.FromBaseUnits(v.Tokens),
			Commission:      commission,
			IsCivicLiker:    s.civic[v.OperatorAddress],
		}
	}

	s.mu.Lock()
	if s.wallet != nil && s.wallet.Address == address {
		s.wallet.SetSnapshot(snapshot)
	}
	s.validators = validatorSet
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"address":     address,
		"delegations": len(delegations),
		"validators":  len(validators),
		"elapsed":     time.Since(started),
	}).Debug("Chain state refreshed")

	return nil
}
