package cmd

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/untergeek/es-checkpoint/pkg/storage"
)

func resetConfig(t *testing.T) {
	t.Helper()
	t.Cleanup(viper.Reset)
	viper.Reset()
	viper.Set("log_level", "warn")
}

func TestOpenBackendMemory(t *testing.T) {
	resetConfig(t)
	viper.Set("backend", "memory")

	backend, closer, err := openBackend(nil)
	require.NoError(t, err)
	defer func() { _ = closer() }()
	assert.IsType(t, &storage.MemoryBackend{}, backend)
}

func TestOpenBackendFile(t *testing.T) {
	resetConfig(t)
	viper.Set("backend", "file")
	viper.Set("path", t.TempDir())

	backend, closer, err := openBackend(nil)
	require.NoError(t, err)
	defer func() { _ = closer() }()
	assert.IsType(t, &storage.FileBackend{}, backend)
}

func TestOpenBackendBleve(t *testing.T) {
	resetConfig(t)
	viper.Set("backend", "bleve")
	viper.Set("path", t.TempDir())

	backend, closer, err := openBackend(nil)
	require.NoError(t, err)
	assert.IsType(t, &storage.BleveBackend{}, backend)
	assert.NoError(t, closer())
}

func TestOpenBackendUnknown(t *testing.T) {
	resetConfig(t)
	viper.Set("backend", "carrier-pigeon")

	_, _, err := openBackend(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestTrackingIndexDefault(t *testing.T) {
	resetConfig(t)
	viper.Set("tracking_index", "custom-tracking")
	assert.Equal(t, "custom-tracking", trackingIndex())
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	resetConfig(t)
	viper.Set("log_level", "shouty")
	_, err := newLogger()
	require.Error(t, err)
}
