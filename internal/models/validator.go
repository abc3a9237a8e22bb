package models

import (
	"github.com/shopspring/decimal"
)

type Validator struct {
	OperatorAddress string
	Moniker         string
	Website         string
	Jailed          bool
	Status          string
	Tokens          decimal.Decimal
	Commission      decimal.Decimal
	IsCivicLiker    bool
}

func (v Validator) DisplayName() string {
	if v.Moniker != "" {
		return v.Moniker
	}
	return v.OperatorAddress
}

// CommissionPercent renders the commission rate as e.g. "5%".
func (v Validator) CommissionPercent() string {
	return v.Commission.Mul(decimal.NewFromInt(100)).Round(2).String() + "%"
}
