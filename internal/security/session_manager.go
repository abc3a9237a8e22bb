// Package security keeps unlocked wallets in memory for a limited time and
// throttles password attempts.
package security

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"rhystmorgan/likeWallet/internal/models"
)

type SessionManager struct {
	sessions map[string]*WalletSession
	config   SessionConfig
	logger   *logrus.Logger
	mu       sync.RWMutex
	now      func() time.Time
}

type WalletSession struct {
	WalletID       string
	UnlockedWallet *models.Wallet
	CreatedAt      time.Time
	LastActivity   time.Time
	ExpiresAt      time.Time
	IsActive       bool
}

type SessionConfig struct {
	DefaultTimeout  time.Duration
	MaxSessions     int
	CleanupInterval time.Duration
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		DefaultTimeout:  15 * time.Minute,
		MaxSessions:     5,
		CleanupInterval: 30 * time.Second,
	}
}

func NewSessionManager(config SessionConfig, logger *logrus.Logger) *SessionManager {
	defaults := DefaultSessionConfig()
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = defaults.DefaultTimeout
	}
	if config.MaxSessions <= 0 {
		config.MaxSessions = defaults.MaxSessions
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}

	return &SessionManager{
		sessions: make(map[string]*WalletSession),
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateSession keeps an unlocked wallet available for signing. A wallet
// that already has a session gets it replaced.
func (sm *SessionManager) CreateSession(wallet *models.Wallet) (*WalletSession, error) {
	if wallet == nil || wallet.IsLocked() {
		return nil, fmt.Errorf("wallet must be unlocked to start a session")
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if old, exists := sm.sessions[wallet.ID]; exists {
		if old.UnlockedWallet != wallet {
			clearSensitiveData(old)
		}
		delete(sm.sessions, wallet.ID)
	}

	if len(sm.sessions) >= sm.config.MaxSessions {
		return nil, fmt.Errorf("maximum number of sessions reached")
	}

	now := sm.now()
	session := &WalletSession{
		WalletID:       wallet.ID,
		UnlockedWallet: wallet,
		CreatedAt:      now,
		LastActivity:   now,
		ExpiresAt:      now.Add(sm.config.DefaultTimeout),
		IsActive:       true,
	}

	sm.sessions[wallet.ID] = session
	sm.logger.WithField("wallet", wallet.ID).Debug("Session started")
	return session, nil
}

func (sm *SessionManager) GetSession(walletID string) (*WalletSession, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[walletID]
	if !exists || !session.IsActive || sm.now().After(session.ExpiresAt) {
		return nil, false
	}

	return session, true
}

// UnlockedWallet returns the session's wallet and extends the session.
func (sm *SessionManager) UnlockedWallet(walletID string) (*models.Wallet, bool) {
	session, ok := sm.GetSession(walletID)
	if !ok {
		return nil, false
	}
	if err := sm.ExtendSession(walletID); err != nil {
		return nil, false
	}
	return session.UnlockedWallet, true
}

func (sm *SessionManager) ExtendSession(walletID string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, exists := sm.sessions[walletID]
	if !exists || !session.IsActive {
		return fmt.Errorf("session not found or inactive")
	}

	now := sm.now()
	session.LastActivity = now
	session.ExpiresAt = now.Add(sm.config.DefaultTimeout)

	return nil
}

func (sm *SessionManager) CloseSession(walletID string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, exists := sm.sessions[walletID]
	if !exists {
		return fmt.Errorf("session not found")
	}

	clearSensitiveData(session)
	delete(sm.sessions, walletID)

	return nil
}

func (sm *SessionManager) CloseAllSessions() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for walletID, session := range sm.sessions {
		clearSensitiveData(session)
		delete(sm.sessions, walletID)
	}
}

func (sm *SessionManager) GetActiveSessions() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	var activeWallets []string
	now := sm.now()
	for walletID, session := range sm.sessions {
		if session.IsActive && now.Before(session.ExpiresAt) {
			activeWallets = append(activeWallets, walletID)
		}
	}

	return activeWallets
}

func (sm *SessionManager) GetSessionStatus(walletID string) SessionStatus {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[walletID]
	if !exists || !session.IsActive {
		return SessionStatusInactive
	}

	remaining := session.ExpiresAt.Sub(sm.now())
	switch {
	case remaining <= 0:
		return SessionStatusExpired
	case remaining < 2*time.Minute:
		return SessionStatusExpiring
	default:
		return SessionStatusActive
	}
}

func (sm *SessionManager) GetTimeRemaining(walletID string) time.Duration {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[walletID]
	if !exists || !session.IsActive {
		return 0
	}

	remaining := session.ExpiresAt.Sub(sm.now())
	if remaining < 0 {
		return 0
	}

	return remaining
}

// Run expires sessions until ctx is done, then closes every session.
func (sm *SessionManager) Run(ctx context.Context) {
	ticker := time.NewTicker(sm.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sm.cleanupExpiredSessions()
		case <-ctx.Done():
			sm.CloseAllSessions()
			return
		}
	}
}

func (sm *SessionManager) cleanupExpiredSessions() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := sm.now()
	for walletID, session := range sm.sessions {
		if now.After(session.ExpiresAt) {
			clearSensitiveData(session)
			delete(sm.sessions, walletID)
			sm.logger.WithField("wallet", walletID).Debug("Session expired")
		}
	}
}

func clearSensitiveData(session *WalletSession) {
	session.IsActive = false
	if session.UnlockedWallet != nil {
		session.UnlockedWallet.ClearSecrets()
	}
}

type SessionStatus string

const (
	SessionStatusActive   SessionStatus = "active"
	SessionStatusExpiring SessionStatus = "expiring"
	SessionStatusExpired  SessionStatus = "expired"
	SessionStatusInactive SessionStatus = "inactive"
)
