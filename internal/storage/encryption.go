package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyLength         = 32
	nonceLength       = 12
	saltLength        = 32
	iterations        = 100000
	encryptionVersion = 1
)

var ErrInvalidPassword = errors.New("invalid password or corrupted data")

type EncryptedData struct {
	Version    int    `json:"version"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

func deriveAEAD(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, iterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}

// Encrypt seals data with a password-derived key. additionalData (the wallet
// id) is authenticated but not stored, so a ciphertext cannot be moved
// between wallet records.
func Encrypt(data []byte, password string, additionalData []byte) (*EncryptedData, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}

	aead, err := deriveAEAD(password, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return &EncryptedData{
		Version:    encryptionVersion,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, data, additionalData),
	}, nil
}

func Decrypt(encData *EncryptedData, password string, additionalData []byte) ([]byte, error) {
	if encData == nil {
		return nil, errors.New("encrypted data is nil")
	}
	if encData.Version != encryptionVersion {
		return nil, fmt.Errorf("unsupported encryption version %d", encData.Version)
	}

	aead, err := deriveAEAD(password, encData.Salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, encData.Nonce, encData.Ciphertext, additionalData)
	if err != nil {
		return nil, ErrInvalidPassword
	}

	return plaintext, nil
}
