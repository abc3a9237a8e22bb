package audit

import (
	"time"
)

// Action is what happened to a staking transaction.
type Action string

const (
	ActionBroadcast  Action = "broadcast"
	ActionRejected   Action = "rejected"
	ActionSignFailed Action = "sign_failed"
)

// Entry is one line of the transaction journal.
type Entry struct {
	ID        string    `json:"id"`
	WalletID  string    `json:"wallet_id"`
	Action    Action    `json:"action"`
	Kind      string    `json:"kind"`
	Validator string    `json:"validator"`
	Amount    string    `json:"amount"`
	Fee       string    `json:"fee,omitempty"`
	TxHash    string    `json:"tx_hash,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
