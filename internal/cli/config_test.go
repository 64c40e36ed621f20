package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/bricklayers/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
layerHeight = 0.28
extrusionMultiplier = 1.05
nonPlanar = 1
wallOrder = "outer-first"
`)

	cfg, err := loadConfig(path, newLogger(io.Discard, log.InfoLevel))
	require.NoError(t, err)

	require.NotNil(t, cfg.LayerHeight)
	assert.InDelta(t, 0.28, *cfg.LayerHeight, 1e-12)
	require.NotNil(t, cfg.NonPlanar)
	assert.Equal(t, 1, *cfg.NonPlanar)
	require.NotNil(t, cfg.WallOrder)
	assert.Equal(t, "outer-first", *cfg.WallOrder)
	assert.Nil(t, cfg.Amplitude)
	assert.Nil(t, cfg.Dialect)
}

func TestLoadConfigUnknownKeys(t *testing.T) {
	path := writeConfig(t, "layerHeight = 0.2\nlayer_heigth = 0.3\n")

	var buf bytes.Buffer
	_, err := loadConfig(path, newLogger(&buf, log.InfoLevel))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "layer_heigth")
}

func TestLoadConfigInvalid(t *testing.T) {
	path := writeConfig(t, "layerHeight = \"thin\"\n")

	_, err := loadConfig(path, newLogger(io.Discard, log.InfoLevel))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidOption, errors.GetCode(err))
}

func TestLoadConfigMissing(t *testing.T) {
	logger := newLogger(io.Discard, log.InfoLevel)

	t.Run("explicit", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"), logger)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeFileNotFound, errors.GetCode(err))
	})

	t.Run("default", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		cfg, err := loadConfig("", logger)
		require.NoError(t, err)
		assert.Nil(t, cfg.LayerHeight)
	})
}

func TestLoadConfigDefaultPath(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	dir := filepath.Join(base, "bricklayers")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("amplitude = 0.05\n"), 0o644))

	cfg, err := loadConfig("", newLogger(io.Discard, log.InfoLevel))
	require.NoError(t, err)
	require.NotNil(t, cfg.Amplitude)
	assert.InDelta(t, 0.05, *cfg.Amplitude, 1e-12)
}

func TestResolveFlagsWin(t *testing.T) {
	path := writeConfig(t, "layerHeight = 0.28\nnonPlanar = 1\nfrequency = 2.5\n")

	f := defaultTransformFlags()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.register(fs)
	require.NoError(t, fs.Parse([]string{"--layerHeight", "0.16", "--config", path}))

	require.NoError(t, f.resolve(fs, newLogger(io.Discard, log.InfoLevel)))

	assert.InDelta(t, 0.16, f.layerHeight, 1e-12, "command line beats config file")
	assert.Equal(t, 1, f.nonPlanar)
	assert.InDelta(t, 2.5, f.frequency, 1e-12)
	assert.Equal(t, defaultTransformFlags().amplitude, f.amplitude)
}
