package storage

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"rhystmorgan/likeWallet/internal/models"
)

const (
	walletsFile  = "wallets.json"
	settingsFile = "settings.json"
)

var ErrWalletNotFound = errors.New("wallet not found")

type Storage struct {
	dataDir string
}

type WalletStorage struct {
	Wallets []EncryptedWallet `json:"wallets"`
}

// EncryptedWallet keeps public metadata in clear so balances can be shown
// and transactions prepared before the wallet is unlocked.
type EncryptedWallet struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Address   string         `json:"address"`
	PubKey    string         `json:"pub_key"`
	CreatedAt time.Time      `json:"created_at"`
	Data      *EncryptedData `json:"data"`
}

type secretPayload struct {
	Mnemonic string `json:"mnemonic"`
}

type Settings struct {
	LastWallet string `json:"last_wallet,omitempty"`
	Network    string `json:"network"`
	Locale     string `json:"locale,omitempty"`
}

func NewStorage(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Storage{dataDir: dataDir}, nil
}

func (s *Storage) DataDir() string {
	return s.dataDir
}

func (s *Storage) SaveWallet(wallet *models.Wallet, password string) error {
	if wallet.Mnemonic == "" {
		return errors.New("wallet has no mnemonic to store")
	}

	payload, err := json.Marshal(secretPayload{Mnemonic: wallet.Mnemonic})
	if err != nil {
		return fmt.Errorf("failed to marshal wallet secret: %w", err)
	}

	encryptedData, err := Encrypt(payload, password, []byte(wallet.ID))
	if err != nil {
		return fmt.Errorf("failed to encrypt wallet: %w", err)
	}

	encWallet := EncryptedWallet{
		ID:        wallet.ID,
		Name:      wallet.Name,
		Address:   wallet.Address,
		PubKey:    hex.EncodeToString(wallet.PubKey),
		CreatedAt: wallet.CreatedAt,
		Data:      encryptedData,
	}

	storage, err := s.loadWalletStorage()
	if err != nil {
		return err
	}

	for i, existing := range storage.Wallets {
		if existing.ID == wallet.ID {
			storage.Wallets[i] = encWallet
			return s.saveWalletStorage(storage)
		}
		if existing.Address == wallet.Address {
			return fmt.Errorf("wallet %s already holds address %s", existing.Name, wallet.Address)
		}
	}

	storage.Wallets = append(storage.Wallets, encWallet)
	return s.saveWalletStorage(storage)
}

// LoadWallet decrypts the wallet and re-derives its signing key.
func (s *Storage) LoadWallet(id, password, prefix string) (*models.Wallet, error) {
	encWallet, err := s.findWallet(id)
	if err != nil {
		return nil, err
	}

	payload, err := Decrypt(encWallet.Data, password, []byte(encWallet.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt wallet: %w", err)
	}

	var secret secretPayload
	if err := json.Unmarshal(payload, &secret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}

	wallet, err := encWallet.PublicWallet()
	if err != nil {
		return nil, err
	}

	if err := wallet.Unlock(secret.Mnemonic, prefix); err != nil {
		return nil, err
	}

	return wallet, nil
}

// LoadPublicWallet returns the wallet without touching the encrypted part.
func (s *Storage) LoadPublicWallet(id string) (*models.Wallet, error) {
	encWallet, err := s.findWallet(id)
	if err != nil {
		return nil, err
	}
	return encWallet.PublicWallet()
}

func (s *Storage) VerifyPassword(id, password string) error {
	encWallet, err := s.findWallet(id)
	if err != nil {
		return err
	}
	_, err = Decrypt(encWallet.Data, password, []byte(encWallet.ID))
	return err
}

func (e EncryptedWallet) PublicWallet() (*models.Wallet, error) {
	pubKey, err := hex.DecodeString(e.PubKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key: %w", err)
	}

	return &models.Wallet{
		ID:        e.ID,
		Name:      e.Name,
		Address:   e.Address,
		PubKey:    pubKey,
		CreatedAt: e.CreatedAt,
	}, nil
}

func (s *Storage) ListWallets() ([]EncryptedWallet, error) {
	storage, err := s.loadWalletStorage()
	if err != nil {
		return nil, err
	}
	return storage.Wallets, nil
}

func (s *Storage) DeleteWallet(id string) error {
	storage, err := s.loadWalletStorage()
	if err != nil {
		return err
	}

	for i, wallet := range storage.Wallets {
		if wallet.ID == id {
			storage.Wallets = append(storage.Wallets[:i], storage.Wallets[i+1:]...)
			return s.saveWalletStorage(storage)
		}
	}

	return ErrWalletNotFound
}

func (s *Storage) SaveSettings(settings *Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	return s.writeFile(settingsFile, data)
}

func (s *Storage) LoadSettings() (*Settings, error) {
	filePath := filepath.Join(s.dataDir, settingsFile)

	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return &Settings{Network: "mainnet"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	return &settings, nil
}

func (s *Storage) findWallet(id string) (*EncryptedWallet, error) {
	storage, err := s.loadWalletStorage()
	if err != nil {
		return nil, err
	}

	for i := range storage.Wallets {
		if storage.Wallets[i].ID == id {
			return &storage.Wallets[i], nil
		}
	}

	return nil, ErrWalletNotFound
}

func (s *Storage) loadWalletStorage() (*WalletStorage, error) {
	filePath := filepath.Join(s.dataDir, walletsFile)

	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return &WalletStorage{Wallets: []EncryptedWallet{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read wallets file: %w", err)
	}

	var storage WalletStorage
	if err := json.Unmarshal(data, &storage); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet storage: %w", err)
	}

	return &storage, nil
}

func (s *Storage) saveWalletStorage(storage *WalletStorage) error {
	data, err := json.MarshalIndent(storage, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal wallet storage: %w", err)
	}

	return s.writeFile(walletsFile, data)
}

// writeFile replaces name atomically so a crash never leaves a truncated file.
func (s *Storage) writeFile(name string, data []byte) error {
	filePath := filepath.Join(s.dataDir, name)
	tmp := filePath + ".tmp"

	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
