package config

import (
	"errors"

	"github.com/dshills/neomirror/internal/config/loader"
)

// Errors returned by configuration operations.
var (
	// ErrInvalid indicates a setting has an unusable value.
	ErrInvalid = errors.New("invalid configuration")

	// ErrUnknownKey indicates a config file names a setting that does not exist.
	ErrUnknownKey = errors.New("unknown setting")

	// ErrTypeMismatch indicates the value type doesn't match the setting.
	ErrTypeMismatch = errors.New("type mismatch")
)

// ParseError represents an error while parsing a configuration file.
type ParseError = loader.ParseError
