package db

import (
	"errors"
	"strings"
)

// Sentinel errors shared by the repositories. Services translate these into
// API responses; nothing above this package matches on driver error strings.
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicatePackage = errors.New("package id already registered")
)

// isUniqueViolation sniffs driver errors for key collisions. Both stores
// surface them as text, so this stays a string check.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "23505")
}
