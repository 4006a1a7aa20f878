package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "butik.log")

	logger, err := New("production", path)
	require.NoError(t, err)
	logger.Info("sale recorded")
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"sale recorded"`)
}

func TestNewDevelopmentWithoutFile(t *testing.T) {
	logger, err := New("development", "")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestStdoutEncoderFollowsMode(t *testing.T) {
	entry := zapcore.Entry{Level: zapcore.InfoLevel, Time: time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC), Message: "sale recorded"}

	buf, err := stdoutEncoder(zap.NewProductionConfig()).EncodeEntry(entry, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "{"), buf.String())
	assert.Contains(t, buf.String(), `"msg":"sale recorded"`)

	buf, err = stdoutEncoder(zap.NewDevelopmentConfig()).EncodeEntry(entry, nil)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(buf.String(), "{"), buf.String())
	assert.Contains(t, buf.String(), "sale recorded")
}
