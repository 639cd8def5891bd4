package service

import "fmt"

// ValidationError marks a request the caller can fix. The API layer turns it
// into a 400 instead of a 500.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
