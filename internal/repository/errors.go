package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var ErrDBNotReady = errors.New("database not initialized")

// isDuplicateKey reports a unique-constraint violation. TranslateError covers the
// registered dialects; the message checks catch drivers without a translator.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
