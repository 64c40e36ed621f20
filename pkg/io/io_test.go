package io

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/bricklayers/pkg/errors"
)

func TestReadGCode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "part.gcode")
	require.NoError(t, os.WriteFile(path, []byte("G1 X1\n"), 0o644))

	data, err := ReadGCode(path)
	require.NoError(t, err)
	assert.Equal(t, "G1 X1\n", string(data))

	tests := []struct {
		name string
		path string
		code errors.Code
	}{
		{"missing", filepath.Join(dir, "missing.gcode"), errors.ErrCodeFileNotFound},
		{"directory", dir, errors.ErrCodeInvalidPath},
		{"empty", "", errors.ErrCodeInvalidPath},
		{"binary", filepath.Join(dir, "part.bgcode"), errors.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadGCode(tt.path)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "part.gcode")

	require.NoError(t, WriteAtomic(context.Background(), path, []byte("first\n")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(data))

	require.NoError(t, os.Chmod(path, 0o600))
	require.NoError(t, WriteAtomic(context.Background(), path, []byte("second\n")))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriteAtomicMissingDir(t *testing.T) {
	err := WriteAtomic(context.Background(), filepath.Join(t.TempDir(), "nope", "part.gcode"), []byte("x"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidPath, errors.GetCode(err))
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFor("run.yaml"))
	assert.Equal(t, FormatYAML, FormatFor("RUN.YML"))
	assert.Equal(t, FormatJSON, FormatFor("run.json"))
	assert.Equal(t, FormatJSON, FormatFor("run"))
}

type sample struct {
	Name  string  `json:"name" yaml:"name"`
	Count int     `json:"count" yaml:"count"`
	Ratio float64 `json:"ratio" yaml:"ratio"`
}

func TestWriteReport(t *testing.T) {
	v := sample{Name: "cube", Count: 3, Ratio: 1.5}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, v, FormatJSON))
	assert.JSONEq(t, `{"name":"cube","count":3,"ratio":1.5}`, buf.String())

	buf.Reset()
	require.NoError(t, WriteReport(&buf, v, FormatYAML))
	assert.YAMLEq(t, "name: cube\ncount: 3\nratio: 1.5\n", buf.String())

	err := WriteReport(&buf, v, "xml")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidOption, errors.GetCode(err))
}

func TestExportReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yml")
	require.NoError(t, ExportReport(path, sample{Name: "cube"}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: cube")
}
