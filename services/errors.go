package services

import (
	"errors"

	"github.com/cppla/matlog/gamify"
)

// Validation and lookup failures. Callers match them with errors.Is.
var (
	ErrInvalidDate         = gamify.ErrInvalidDate
	ErrInvalidSessionType  = errors.New("invalid session type")
	ErrInvalidClassLevel   = errors.New("invalid class level")
	ErrInvalidUsername     = errors.New("username must be 3-20 letters, digits, '_' or '-'")
	ErrInvalidGroup        = errors.New("invalid group id")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrUsernameRequired    = errors.New("username required")
	ErrSessionNotFound     = errors.New("session not found")
	ErrDuplicateSession    = errors.New("session already logged for this date and type")
	ErrEmptyMessage        = errors.New("message is empty")
	ErrMessageTooLong      = errors.New("message too long")
	ErrMigrationInProgress = errors.New("migration already in progress")
	ErrMigrationFailed     = errors.New("legacy migration failed")
)
