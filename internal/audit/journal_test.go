package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastIsWrittenImmediately(t *testing.T) {
	dir := t.TempDir()
	j, err := NewJournal(dir)
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Record(Entry{WalletID: "w1", Action: ActionBroadcast, Kind: "undelegate", TxHash: "ABCD"}))

	data, err := os.ReadFile(filepath.Join(dir, JournalFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tx_hash":"ABCD"`)
}

func TestHistoryFiltersAndOrders(t *testing.T) {
	j, err := NewJournal(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, j.Record(Entry{WalletID: "w1", Action: ActionSignFailed, Timestamp: base}))
	require.NoError(t, j.Record(Entry{WalletID: "w2", Action: ActionBroadcast, Timestamp: base.Add(time.Minute)}))
	require.NoError(t, j.Record(Entry{WalletID: "w1", Action: ActionRejected, Timestamp: base.Add(2 * time.Minute)}))

	history, err := j.History("w1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ActionRejected, history[0].Action)
	assert.Equal(t, ActionSignFailed, history[1].Action)
	assert.NotEmpty(t, history[0].ID)

	limited, err := j.History("w1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestHistoryWithoutFile(t *testing.T) {
	j, err := NewJournal(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	history, err := j.History("nobody", 5)
	require.NoError(t, err)
	assert.Empty(t, history)
}
