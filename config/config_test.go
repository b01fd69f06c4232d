package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestGet_Defaults(t *testing.T) {
	cfg, err := Get(nil)
	require.NoError(t, err)

	assert.Equal(t, "accounts.json", cfg.DataFile)
	assert.Equal(t, "./wal/transfers", cfg.JournalDir)
	assert.Equal(t, 8, cfg.IDLength)
	assert.Equal(t, zapcore.WarnLevel, cfg.LogLevel.Level())
	assert.False(t, cfg.Accessible)
	assert.Equal(t, 5*time.Second, cfg.SaveTimeout)
}

func TestGet_Flags(t *testing.T) {
	cfg, err := Get([]string{"-data", "/tmp/x.json", "-idlength", "10", "-loglevel", "debug", "-accessible", "-savetimeout", "1s"})
	require.NoError(t, err)

	assert.Equal(t, "/tmp/x.json", cfg.DataFile)
	assert.Equal(t, 10, cfg.IDLength)
	assert.Equal(t, zapcore.DebugLevel, cfg.LogLevel.Level())
	assert.True(t, cfg.Accessible)
	assert.Equal(t, time.Second, cfg.SaveTimeout)
}

func TestGet_InvalidFlags(t *testing.T) {
	for _, args := range [][]string{
		{"-idlength", "abc"},
		{"-idlength", "0"},
		{"-idlength", "19"},
		{"-loglevel", "loud"},
		{"-unknown"},
	} {
		_, err := Get(args)
		assert.Error(t, err, "args %v", args)
	}
}

func TestGet_Yaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	payload := `
data_file: ./data/bank.json
journal_dir: ./data/journal
id_length: "6"
log_level: warn
accessible: true
save_timeout: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	cfg, err := Get([]string{"-config", path})
	require.NoError(t, err)

	assert.Equal(t, "./data/bank.json", cfg.DataFile)
	assert.Equal(t, "./data/journal", cfg.JournalDir)
	assert.Equal(t, 6, cfg.IDLength)
	assert.Equal(t, zapcore.WarnLevel, cfg.LogLevel.Level())
	assert.True(t, cfg.Accessible)
	assert.Equal(t, 2*time.Second, cfg.SaveTimeout)
}

func TestGet_YamlDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	cfg, err := Get([]string{"-config", path})
	require.NoError(t, err)

	assert.Equal(t, "accounts.json", cfg.DataFile)
	assert.Equal(t, 8, cfg.IDLength)
	assert.Equal(t, zapcore.WarnLevel, cfg.LogLevel.Level())
}

func TestGet_YamlErrors(t *testing.T) {
	_, err := Get([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("id_length: [1"), 0o644))
	_, err = Get([]string{"-config", path})
	assert.Error(t, err)
}
