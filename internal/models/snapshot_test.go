package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSnapshotGetDelegation(t *testing.T) {
	snapshot := NewBalanceSnapshot("like1abc", decimal.NewFromInt(100), []Delegation{
		{ValidatorAddress: "validatorA", Balance: decimal.NewFromInt(60)},
		{ValidatorAddress: "validatorB", Balance: decimal.NewFromInt(40)},
	})

	if d := snapshot.GetDelegation("validatorA"); !d.Balance.Equal(decimal.NewFromInt(60)) {
		t.Errorf("Expected 60, got %s", d.Balance)
	}

	unknown := snapshot.GetDelegation("validatorC")
	if !unknown.Balance.IsZero() || unknown.ValidatorAddress != "validatorC" {
		t.Errorf("Expected zero delegation for unknown target, got %+v", unknown)
	}

	var empty *BalanceSnapshot
	if !empty.GetDelegation("validatorA").Balance.IsZero() {
		t.Error("Nil snapshot should report zero delegation")
	}
}

func TestSnapshotTotals(t *testing.T) {
	snapshot := NewBalanceSnapshot("like1abc", decimal.Zero, []Delegation{
		{ValidatorAddress: "b", Balance: decimal.NewFromInt(10)},
		{ValidatorAddress: "a", Balance: decimal.NewFromInt(10)},
		{ValidatorAddress: "c", Balance: decimal.NewFromInt(30)},
	})

	if !snapshot.TotalDelegated().Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected total 50, got %s", snapshot.TotalDelegated())
	}

	list := snapshot.DelegationList()
	order := []string{"c", "a", "b"}
	for i, d := range list {
		if d.ValidatorAddress != order[i] {
			t.Errorf("Position %d: expected %s, got %s", i, order[i], d.ValidatorAddress)
		}
	}
}

func TestValidatorDisplay(t *testing.T) {
	v := Validator{OperatorAddress: "likevaloper1xyz", Commission: decimal.RequireFromString("0.05")}

	if v.DisplayName() != "likevaloper1xyz" {
		t.Errorf("Expected operator address fallback, got %s", v.DisplayName())
	}
	v.Moniker = "Validator A"
	if v.DisplayName() != "Validator A" {
		t.Errorf("Expected moniker, got %s", v.DisplayName())
	}
	if v.CommissionPercent() != "5%" {
		t.Errorf("Expected 5%%, got %s", v.CommissionPercent())
	}
}
