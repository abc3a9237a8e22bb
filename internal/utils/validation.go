package utils

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/tyler-smith/go-bip39"
)

// PasswordStrength represents the strength level of a password
type PasswordStrength int

const (
	PasswordWeak PasswordStrength = iota
	PasswordMedium
	PasswordStrong
)

// ValidatePassword checks password strength and returns validation result
func ValidatePassword(password string) (PasswordStrength, []string) {
	var issues []string
	strength := PasswordStrong

	if len(password) < 8 {
		issues = append(issues, "Password must be at least 8 characters long")
		strength = PasswordWeak
	}

	hasUpper := false
	hasLower := false
	hasDigit := false
	hasSpecial := false

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if !hasUpper {
		issues = append(issues, "Password must contain at least one uppercase letter")
		if strength == PasswordStrong {
			strength = PasswordMedium
		}
	}

	if !hasLower {
		issues = append(issues, "Password must contain at least one lowercase letter")
		if strength == PasswordStrong {
			strength = PasswordMedium
		}
	}

	if !hasDigit {
		issues = append(issues, "Password must contain at least one number")
		if strength == PasswordStrong {
			strength = PasswordMedium
		}
	}

	if !hasSpecial {
		issues = append(issues, "Password should contain at least one special character")
		if strength == PasswordStrong {
			strength = PasswordMedium
		}
	}

	if len(issues) > 2 {
		strength = PasswordWeak
	}

	return strength, issues
}

// ValidateMnemonic validates a BIP39 mnemonic phrase
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

// ValidateMnemonicWords validates individual words against BIP39 wordlist
func ValidateMnemonicWords(words []string) []bool {
	wordList := bip39.GetWordList()
	wordMap := make(map[string]bool, len(wordList))
	for _, word := range wordList {
		wordMap[word] = true
	}

	results := make([]bool, len(words))
	for i, word := range words {
		results[i] = wordMap[strings.ToLower(strings.TrimSpace(word))]
	}
	return results
}

// ValidateWalletName validates wallet name format
func ValidateWalletName(name string) []string {
	var issues []string

	name = strings.TrimSpace(name)
	if len(name) == 0 {
		issues = append(issues, "Wallet name cannot be empty")
		return issues
	}

	if len(name) < 3 {
		issues = append(issues, "Wallet name must be at least 3 characters long")
	}

	if len(name) > 50 {
		issues = append(issues, "Wallet name must be less than 50 characters")
	}

	validName := regexp.MustCompile(`^[a-zA-Z0-9\s\-_]+$`)
	if !validName.MatchString(name) {
		issues = append(issues, "Wallet name can only contain letters, numbers, spaces, hyphens, and underscores")
	}

	return issues
}

// SplitMnemonic splits a mnemonic into exactly wordCount slots
func SplitMnemonic(mnemonic string, wordCount int) []string {
	words := strings.Fields(strings.TrimSpace(mnemonic))
	result := make([]string, wordCount)
	for i := 0; i < wordCount && i < len(words); i++ {
		result[i] = strings.ToLower(words[i])
	}
	return result
}

// JoinMnemonic joins mnemonic words into a single string
func JoinMnemonic(words []string) string {
	var validWords []string
	for _, word := range words {
		word = strings.TrimSpace(word)
		if word != "" {
			validWords = append(validWords, word)
		}
	}
	return strings.Join(validWords, " ")
}

// ParseAmount parses user input into a non-negative decimal with at most
// fractionDigits decimals. Anything else yields an absent amount.
func ParseAmount(input string, fractionDigits int) decimal.NullDecimal {
	input = strings.ReplaceAll(strings.TrimSpace(input), ",", "")
	if input == "" {
		return decimal.NullDecimal{}
	}

	amount, err := decimal.NewFromString(input)
	if err != nil || amount.IsNegative() {
		return decimal.NullDecimal{}
	}

	return decimal.NullDecimal{Decimal: amount.Truncate(int32(fractionDigits)), Valid: true}
}

type AmountBound int

const (
	AmountWithinBounds AmountBound = iota
	AmountAboveMax
	AmountNotPositive
)

// CheckAmountBounds classifies amount against (0, limit]. An absent amount is
// treated as not positive.
func CheckAmountBounds(amount decimal.NullDecimal, limit decimal.Decimal) AmountBound {
	switch {
	case !amount.Valid || !amount.Decimal.IsPositive():
		return AmountNotPositive
	case amount.Decimal.GreaterThan(limit):
		return AmountAboveMax
	default:
		return AmountWithinBounds
	}
}
