package capture

import (
	"errors"
	"fmt"
)

// Sentinel errors for capture files.
var (
	ErrBadCapture     = errors.New("capture: malformed capture")
	ErrRecordTooLarge = errors.New("capture: record too large")
)

// ParseError records the record field that failed to parse.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("capture: parse %s: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
