package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsUniqueViolation reports whether the error references a unique constraint
// violation (Postgres "duplicate key value", SQLite "UNIQUE constraint failed").
// When constraintName is provided, the helper looks for it in the message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

// IsNotFound reports whether err is gorm's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
