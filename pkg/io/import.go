package io

import (
	"os"

	"github.com/matzehuels/bricklayers/pkg/errors"
)

// ReadGCode reads the G-code file at path.
//
// The path is checked with [errors.ValidateGCodePath] first. A missing file
// returns an error with code FILE_NOT_FOUND, a directory INVALID_PATH.
func ReadGCode(path string) ([]byte, error) {
	if err := errors.ValidateGCodePath(path); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s does not exist", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "stat %s", path)
	}
	if info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "%s is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	return data, nil
}
