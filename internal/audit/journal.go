// Package audit keeps an append-only JSON lines journal of signed staking
// transactions in the data directory.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const JournalFileName = "transactions.log"

// Journal batches entries and appends them to <dir>/transactions.log.
type Journal struct {
	logFile    string
	batchSize  int
	batchMu    sync.Mutex
	batch      []Entry
	fileMu     sync.Mutex
	flushTimer *time.Timer
}

func NewJournal(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	j := &Journal{
		logFile:   filepath.Join(dir, JournalFileName),
		batchSize: 10,
		batch:     make([]Entry, 0, 10),
	}

	j.flushTimer = time.AfterFunc(time.Minute, func() {
		_ = j.Flush()
	})

	return j, nil
}

// Record queues entry. Broadcasts are written through immediately so a crash
// right after submitting cannot lose the hash.
func (j *Journal) Record(entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	j.batchMu.Lock()
	j.batch = append(j.batch, entry)
	full := len(j.batch) >= j.batchSize
	j.batchMu.Unlock()

	if full || entry.Action == ActionBroadcast {
		return j.Flush()
	}
	return nil
}

func (j *Journal) Flush() error {
	j.batchMu.Lock()
	if len(j.batch) == 0 {
		j.batchMu.Unlock()
		return nil
	}
	if j.flushTimer != nil {
		j.flushTimer.Reset(time.Minute)
	}
	pending := make([]Entry, len(j.batch))
	copy(pending, j.batch)
	j.batch = j.batch[:0]
	j.batchMu.Unlock()

	j.fileMu.Lock()
	defer j.fileMu.Unlock()

	file, err := os.OpenFile(j.logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer file.Close()

	for _, entry := range pending {
		line, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal journal entry: %w", err)
		}
		if _, err := file.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("failed to write journal entry: %w", err)
		}
	}

	return nil
}

// History returns up to limit entries for walletID, newest first. A limit of
// zero returns everything.
func (j *Journal) History(walletID string, limit int) ([]Entry, error) {
	if err := j.Flush(); err != nil {
		return nil, err
	}

	j.fileMu.Lock()
	defer j.fileMu.Unlock()

	file, err := os.Open(j.logFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer file.Close()

	var entries []Entry
	decoder := json.NewDecoder(file)
	for {
		var entry Entry
		if err := decoder.Decode(&entry); err != nil {
			break
		}
		if entry.WalletID == walletID {
			entries = append(entries, entry)
		}
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Timestamp.After(entries[b].Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (j *Journal) Close() error {
	if j.flushTimer != nil {
		j.flushTimer.Stop()
	}
	return j.Flush()
}
