package security

import (
	"sync"
	"time"
)

// AttemptTracker locks a wallet after repeated wrong passwords.
type AttemptTracker struct {
	attempts    map[string]*AttemptRecord
	maxAttempts int
	mu          sync.RWMutex
	now         func() time.Time
}

type AttemptRecord struct {
	Count       int
	LastAttempt time.Time
	LockedUntil time.Time
}

func NewAttemptTracker(maxAttempts int) *AttemptTracker {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &AttemptTracker{
		attempts:    make(map[string]*AttemptRecord),
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

func (at *AttemptTracker) IsLocked(walletID string) bool {
	return at.RemainingLockout(walletID) > 0
}

func (at *AttemptTracker) RecordFailure(walletID string) {
	at.mu.Lock()
	defer at.mu.Unlock()

	now := at.now()
	record, exists := at.attempts[walletID]
	if !exists {
		record = &AttemptRecord{}
		at.attempts[walletID] = record
	}

	record.Count++
	record.LastAttempt = now

	if record.Count >= at.maxAttempts {
		record.LockedUntil = now.Add(lockoutDuration(record.Count))
	}
}

func (at *AttemptTracker) RecordSuccess(walletID string) {
	at.mu.Lock()
	defer at.mu.Unlock()

	delete(at.attempts, walletID)
}

func (at *AttemptTracker) RemainingLockout(walletID string) time.Duration {
	at.mu.RLock()
	defer at.mu.RUnlock()

	record, exists := at.attempts[walletID]
	if !exists {
		return 0
	}

	remaining := record.LockedUntil.Sub(at.now())
	if remaining < 0 {
		return 0
	}

	return remaining
}

func (at *AttemptTracker) FailedAttempts(walletID string) int {
	at.mu.RLock()
	defer at.mu.RUnlock()

	if record, exists := at.attempts[walletID]; exists {
		return record.Count
	}
	return 0
}

func lockoutDuration(attemptCount int) time.Duration {
	switch {
	case attemptCount <= 3:
		return 1 * time.Minute
	case attemptCount <= 5:
		return 5 * time.Minute
	case attemptCount <= 7:
		return 15 * time.Minute
	default:
		return 1 * time.Hour
	}
}
