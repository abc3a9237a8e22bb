package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
		valid bool
	}{
		{"50", "50", true},
		{" 1,234.5 ", "1234.5", true},
		{"0.1234567899", "0.123456789", true},
		{"0", "0", true},
		{"-5", "", false},
		{"abc", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got := ParseAmount(tt.input, 9)
		if got.Valid != tt.valid {
			t.Errorf("ParseAmount(%q).Valid = %v, want %v", tt.input, got.Valid, tt.valid)
			continue
		}
		if tt.valid && !got.Decimal.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got.Decimal, tt.want)
		}
	}
}

func TestCheckAmountBounds(t *testing.T) {
	limit := decimal.NewFromInt(50)

	tests := []struct {
		input string
		want  AmountBound
	}{
		{"50", AmountWithinBounds},
		{"0.000000001", AmountWithinBounds},
		{"50.1", AmountAboveMax},
		{"0", AmountNotPositive},
		{"-5", AmountNotPositive},
		{"", AmountNotPositive},
	}

	for _, tt := range tests {
		if got := CheckAmountBounds(ParseAmount(tt.input, 9), limit); got != tt.want {
			t.Errorf("CheckAmountBounds(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSplitAndJoinMnemonic(t *testing.T) {
	words := SplitMnemonic("  Abandon abandon  about ", 4)
	if len(words) != 4 {
		t.Fatalf("Expected 4 slots, got %d", len(words))
	}
	if words[0] != "abandon" || words[2] != "about" || words[3] != "" {
		t.Errorf("Unexpected split result: %v", words)
	}
	if got := JoinMnemonic(words); got != "abandon abandon about" {
		t.Errorf("JoinMnemonic() = %q", got)
	}
}

func TestValidateWalletName(t *testing.T) {
	if issues := ValidateWalletName("Main Wallet"); len(issues) != 0 {
		t.Errorf("Expected no issues, got %v", issues)
	}
	if issues := ValidateWalletName("  "); len(issues) != 1 {
		t.Errorf("Expected empty name issue, got %v", issues)
	}
	if issues := ValidateWalletName("a$"); len(issues) != 2 {
		t.Errorf("Expected length and charset issues, got %v", issues)
	}
}

func TestValidatePassword(t *testing.T) {
	if strength, _ := ValidatePassword("Str0ng!Pass"); strength != PasswordStrong {
		t.Errorf("Expected strong password, got %v", strength)
	}
	if strength, _ := ValidatePassword("short"); strength != PasswordWeak {
		t.Errorf("Expected weak password, got %v", strength)
	}
}

func TestFormatAddress(t *testing.T) {
	addr := "like1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq"
	if got := FormatAddress(addr, 8, 4); got != "like1qqq...qqqq" {
		t.Errorf("FormatAddress() = %q", got)
	}
	if got := FormatAddress("like1", 8, 4); got != "like1" {
		t.Errorf("Short address should be unchanged, got %q", got)
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("Validator Moniker", 10); got != "Validat..." {
		t.Errorf("TruncateString() = %q", got)
	}
	if got := TruncateString("讚賞公民驗證人", 5); got != "讚賞..." {
		t.Errorf("TruncateString() = %q", got)
	}
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Time{}, "never"},
		{now.Add(-10 * time.Second), "just now"},
		{now.Add(-time.Minute), "1 min ago"},
		{now.Add(-5 * time.Minute), "5 mins ago"},
		{now.Add(-3 * time.Hour), "3 hours ago"},
		{now.Add(-48 * time.Hour), "2 days ago"},
	}

	for _, tt := range tests {
		if got := FormatTimeAgo(tt.at, now); got != tt.want {
			t.Errorf("FormatTimeAgo(%v) = %q, want %q", tt.at, got, tt.want)
		}
	}
}
