package models

import (
	"bytes"
	"fmt"
	"time"

	"github.com/cosmos/cosmos-sdk/crypto/hd"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/google/uuid"
	"github.com/tyler-smith/go-bip39"
)

// CosmosCoinType is the SLIP-44 coin type LikeCoin wallets derive under.
const CosmosCoinType = 118

type Wallet struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Address   string             `json:"address"`
	PubKey    []byte             `json:"pub_key"`
	Mnemonic  string             `json:"-"`
	PrivKey   *secp256k1.PrivKey `json:"-"`
	CreatedAt time.Time          `json:"created_at"`
	Snapshot  *BalanceSnapshot   `json:"-"`
	LastSync  time.Time          `json:"last_sync"`
}

func HDPath() string {
	return hd.CreateHDPath(CosmosCoinType, 0, 0).String()
}

// DeriveKey derives the first account key of mnemonic and its bech32 address.
func DeriveKey(mnemonic, prefix string) (*secp256k1.PrivKey, string, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, "", fmt.Errorf("invalid mnemonic phrase")
	}

	derived, err := hd.Secp256k1.Derive()(mnemonic, "", HDPath())
	if err != nil {
		return nil, "", fmt.Errorf("failed to derive key: %w", err)
	}

	privKey := &secp256k1.PrivKey{Key: derived}
	address, err := bech32.ConvertAndEncode(prefix, privKey.PubKey().Address())
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode address: %w", err)
	}

	return privKey, address, nil
}

func NewWallet(name, mnemonic, prefix string) (*Wallet, error) {
	privKey, address, err := DeriveKey(mnemonic, prefix)
	if err != nil {
		return nil, err
	}

	return &Wallet{
		ID:        uuid.NewString(),
		Name:      name,
		Address:   address,
		PubKey:    privKey.PubKey().Bytes(),
		Mnemonic:  mnemonic,
		PrivKey:   privKey,
		CreatedAt: time.Now(),
	}, nil
}

// Unlock restores the signing key from mnemonic, refusing a phrase that
// belongs to a different account.
func (w *Wallet) Unlock(mnemonic, prefix string) error {
	privKey, address, err := DeriveKey(mnemonic, prefix)
	if err != nil {
		return err
	}
	if address != w.Address {
		return fmt.Errorf("mnemonic does not match wallet %s", w.Name)
	}
	if len(w.PubKey) > 0 && !bytes.Equal(w.PubKey, privKey.PubKey().Bytes()) {
		return fmt.Errorf("public key mismatch for wallet %s", w.Name)
	}

	w.Mnemonic = mnemonic
	w.PrivKey = privKey
	w.PubKey = privKey.PubKey().Bytes()
	return nil
}

func (w *Wallet) IsLocked() bool {
	return w.PrivKey == nil
}

// ClearSecrets zeroes key material held in memory.
func (w *Wallet) ClearSecrets() {
	if w.PrivKey != nil {
		for i := range w.PrivKey.Key {
			w.PrivKey.Key[i] = 0
		}
		w.PrivKey = nil
	}
	w.Mnemonic = ""
}

func (w *Wallet) SetSnapshot(snapshot *BalanceSnapshot) {
	w.Snapshot = snapshot
	w.LastSync = time.Now()
}

func (w *Wallet) NeedsRefresh(ttl time.Duration) bool {
	if w.Snapshot == nil {
		return true
	}
	return time.Since(w.Snapshot.LastUpdated) > ttl
}

func (w *Wallet) GetBalanceAge() time.Duration {
	if w.Snapshot == nil {
		return time.Duration(0)
	}
	return time.Since(w.Snapshot.LastUpdated)
}
