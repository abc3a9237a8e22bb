package security

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"

	"rhystmorgan/likeWallet/internal/logging"
	"rhystmorgan/likeWallet/internal/models"
)

func unlockedWallet(id string) *models.Wallet {
	return &models.Wallet{
		ID:       id,
		Name:     "Test Wallet " + id,
		Address:  "like1" + id,
		Mnemonic: "secret words",
		PrivKey:  secp256k1.GenPrivKey(),
	}
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestManager(config SessionConfig) (*SessionManager, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	sm := NewSessionManager(config, logging.Discard())
	sm.now = clock.Now
	return sm, clock
}

func TestSessionManager_CreateSession(t *testing.T) {
	sm, clock := newTestManager(SessionConfig{})

	wallet := unlockedWallet("w1")
	session, err := sm.CreateSession(wallet)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	if session.WalletID != wallet.ID {
		t.Errorf("Expected wallet ID %s, got %s", wallet.ID, session.WalletID)
	}

	if !session.IsActive {
		t.Error("Session should be active")
	}

	if want := clock.Now().Add(15 * time.Minute); !session.ExpiresAt.Equal(want) {
		t.Errorf("Expected expiry %v, got %v", want, session.ExpiresAt)
	}
}

func TestSessionManager_RejectsLockedWallet(t *testing.T) {
	sm, _ := newTestManager(SessionConfig{})

	if _, err := sm.CreateSession(&models.Wallet{ID: "locked"}); err == nil {
		t.Error("Expected error for a wallet without a private key")
	}
	if _, err := sm.CreateSession(nil); err == nil {
		t.Error("Expected error for a nil wallet")
	}
}

func TestSessionManager_UnlockedWalletExtends(t *testing.T) {
	sm, clock := newTestManager(SessionConfig{DefaultTimeout: time.Minute})

	wallet := unlockedWallet("w2")
	if _, err := sm.CreateSession(wallet); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	clock.Advance(50 * time.Second)
	got, ok := sm.UnlockedWallet(wallet.ID)
	if !ok || got != wallet {
		t.Fatal("Expected the unlocked wallet back")
	}

	clock.Advance(50 * time.Second)
	if _, ok := sm.GetSession(wallet.ID); !ok {
		t.Error("Session should have been extended by the lookup")
	}

	clock.Advance(2 * time.Minute)
	if _, ok := sm.UnlockedWallet(wallet.ID); ok {
		t.Error("Session should have expired")
	}
}

func TestSessionManager_CloseSessionClearsSecrets(t *testing.T) {
	sm, _ := newTestManager(SessionConfig{})

	wallet := unlockedWallet("w3")
	if _, err := sm.CreateSession(wallet); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	if err := sm.CloseSession(wallet.ID); err != nil {
		t.Fatalf("Failed to close session: %v", err)
	}

	if _, exists := sm.GetSession(wallet.ID); exists {
		t.Error("Session should not exist after closing")
	}

	if !wallet.IsLocked() || wallet.Mnemonic != "" {
		t.Error("Wallet secrets should be cleared after closing")
	}

	if err := sm.CloseSession(wallet.ID); err == nil {
		t.Error("Closing a missing session should fail")
	}
}

func TestSessionManager_MaxSessions(t *testing.T) {
	sm, _ := newTestManager(SessionConfig{MaxSessions: 2})

	for i := 0; i < 2; i++ {
		if _, err := sm.CreateSession(unlockedWallet(fmt.Sprintf("m%d", i))); err != nil {
			t.Fatalf("Failed to create session %d: %v", i, err)
		}
	}

	if _, err := sm.CreateSession(unlockedWallet("m2")); err == nil {
		t.Error("Creating third session should fail due to max sessions limit")
	}

	// Replacing an existing wallet's session does not count twice.
	if _, err := sm.CreateSession(unlockedWallet("m0")); err != nil {
		t.Errorf("Replacing a session should succeed: %v", err)
	}
}

func TestSessionManager_GetSessionStatus(t *testing.T) {
	sm, clock := newTestManager(SessionConfig{DefaultTimeout: 5 * time.Minute})

	wallet := unlockedWallet("w4")
	if status := sm.GetSessionStatus(wallet.ID); status != SessionStatusInactive {
		t.Errorf("Expected inactive, got %s", status)
	}

	if _, err := sm.CreateSession(wallet); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	if status := sm.GetSessionStatus(wallet.ID); status != SessionStatusActive {
		t.Errorf("Expected active, got %s", status)
	}

	clock.Advance(4 * time.Minute)
	if status := sm.GetSessionStatus(wallet.ID); status != SessionStatusExpiring {
		t.Errorf("Expected expiring, got %s", status)
	}
	if remaining := sm.GetTimeRemaining(wallet.ID); remaining != time.Minute {
		t.Errorf("Expected 1m remaining, got %v", remaining)
	}

	clock.Advance(2 * time.Minute)
	if status := sm.GetSessionStatus(wallet.ID); status != SessionStatusExpired {
		t.Errorf("Expected expired, got %s", status)
	}
	if remaining := sm.GetTimeRemaining(wallet.ID); remaining != 0 {
		t.Errorf("Expected no time remaining, got %v", remaining)
	}
}

func TestSessionManager_CleanupExpiredSessions(t *testing.T) {
	sm, clock := newTestManager(SessionConfig{DefaultTimeout: time.Minute})

	expired := unlockedWallet("old")
	if _, err := sm.CreateSession(expired); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	clock.Advance(30 * time.Second)
	fresh := unlockedWallet("new")
	if _, err := sm.CreateSession(fresh); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	clock.Advance(45 * time.Second)
	sm.cleanupExpiredSessions()

	active := sm.GetActiveSessions()
	if len(active) != 1 || active[0] != "new" {
		t.Errorf("Expected only the fresh session, got %v", active)
	}
	if !expired.IsLocked() {
		t.Error("Expired session should have cleared its wallet")
	}
	if fresh.IsLocked() {
		t.Error("Fresh session should keep its wallet unlocked")
	}
}

func TestSessionManager_RunClosesSessionsOnCancel(t *testing.T) {
	sm := NewSessionManager(SessionConfig{CleanupInterval: 10 * time.Millisecond}, logging.Discard())

	wallet := unlockedWallet("w5")
	if _, err := sm.CreateSession(wallet); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sm.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if len(sm.GetActiveSessions()) != 0 {
		t.Error("All sessions should be closed after Run returns")
	}
	if !wallet.IsLocked() {
		t.Error("Wallet should be locked after Run returns")
	}
}

func TestAttemptTracker(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	tracker := NewAttemptTracker(3)
	tracker.now = clock.Now

	for i := 0; i < 2; i++ {
		tracker.RecordFailure("w")
	}
	if tracker.IsLocked("w") {
		t.Error("Wallet should not be locked before the limit")
	}

	tracker.RecordFailure("w")
	if !tracker.IsLocked("w") {
		t.Fatal("Wallet should be locked after three failures")
	}
	if remaining := tracker.RemainingLockout("w"); remaining != time.Minute {
		t.Errorf("Expected 1m lockout, got %v", remaining)
	}

	clock.Advance(time.Minute + time.Second)
	if tracker.IsLocked("w") {
		t.Error("Lockout should have expired")
	}
	if tracker.FailedAttempts("w") != 3 {
		t.Errorf("Expected 3 failed attempts, got %d", tracker.FailedAttempts("w"))
	}

	tracker.RecordSuccess("w")
	if tracker.FailedAttempts("w") != 0 {
		t.Error("Success should reset the counter")
	}
}

func TestLockoutDuration(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{3, time.Minute},
		{5, 5 * time.Minute},
		{7, 15 * time.Minute},
		{9, time.Hour},
	}

	for _, tt := range tests {
		if got := lockoutDuration(tt.attempts); got != tt.want {
			t.Errorf("lockoutDuration(%d) = %v, want %v", tt.attempts, got, tt.want)
		}
	}
}
