package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesToFile(t *testing.T) {
	dir := t.TempDir()

	logger, closer, err := NewLogger(Options{Dir: dir, Format: "json", Level: "debug"})
	require.NoError(t, err)

	logger.WithField("validator", "likevaloper1abc").Debug("building tx")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"validator":"likevaloper1abc"`))
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestNewLoggerRejectsBadOptions(t *testing.T) {
	_, _, err := NewLogger(Options{Dir: t.TempDir(), Format: "xml"})
	assert.Error(t, err)

	_, _, err = NewLogger(Options{Dir: t.TempDir(), Level: "loud"})
	assert.Error(t, err)
}
