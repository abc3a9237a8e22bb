package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type Delegation struct {
	ValidatorAddress string
	Shares           string
	Balance          decimal.Decimal
}

// BalanceSnapshot is a read-only view of a wallet's balances in display units.
type BalanceSnapshot struct {
	Address     string
	Available   decimal.Decimal
	Delegations map[string]Delegation
	LastUpdated time.Time
}

func NewBalanceSnapshot(address string, available decimal.Decimal, delegations []Delegation) *BalanceSnapshot {
	s := &BalanceSnapshot{
		Address:     address,
		Available:   available,
		Delegations: make(map[string]Delegation, len(delegations)),
		LastUpdated: time.Now(),
	}
	for _, d := range delegations {
		s.Delegations[d.ValidatorAddress] = d
	}
	return s
}

// GetDelegation returns the delegation to target, or a zero-balance delegation.
func (s *BalanceSnapshot) GetDelegation(target string) Delegation {
	if s != nil {
		if d, ok := s.Delegations[target]; ok {
			return d
		}
	}
	return Delegation{ValidatorAddress: target, Balance: decimal.Zero}
}

func (s *BalanceSnapshot) TotalDelegated() decimal.Decimal {
	total := decimal.Zero
	if s == nil {
		return total
	}
	for _, d := range s.Delegations {
		total = total.Add(d.Balance)
	}
	return total
}

// DelegationList returns delegations ordered by balance, largest first.
func (s *BalanceSnapshot) DelegationList() []Delegation {
	if s == nil {
		return nil
	}
	list := make([]Delegation, 0, len(s.Delegations))
	for _, d := range s.Delegations {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool {
		if c := list[i].Balance.Cmp(list[j].Balance); c != 0 {
			return c > 0
		}
		return list[i].ValidatorAddress < list[j].ValidatorAddress
	})
	return list
}
