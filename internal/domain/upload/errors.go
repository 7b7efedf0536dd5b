package upload

import "errors"

var (
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	ErrEmptyFile    = errors.New("file is empty")
)
