package io

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/bricklayers/pkg/errors"
)

// Report formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// WriteAtomic replaces path with data. The file keeps its mode; a new file
// is created with 0644. A locked target is retried briefly until ctx is
// done.
func WriteAtomic(ctx context.Context, path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create temporary file in %s", dir)
	}
	name := tmp.Name()
	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(name)
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	if err := rename(ctx, name, path); err != nil {
		os.Remove(name)
		return errors.Wrap(errors.ErrCodeInternal, err, "replace %s", path)
	}
	return nil
}

// FormatFor returns the report format for a file name.
func FormatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// WriteReport encodes v to w as JSON (indented) or YAML.
func WriteReport(w io.Writer, v any, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	default:
		return errors.ValidateChoice("format", format, FormatJSON, FormatYAML)
	}
}

// ExportReport writes v to path in the format its extension names.
func ExportReport(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	if err := WriteReport(f, v, FormatFor(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
