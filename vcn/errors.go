package vcn

import (
	"errors"
	"fmt"
)

// Sentinel errors for decoder setup and command building. Callers tell
// failure modes apart with errors.Is.
var (
	ErrUnsupportedCodec      = errors.New("vcn: unsupported codec")
	ErrUnsupportedVersion    = errors.New("vcn: unsupported hardware version")
	ErrUnsupportedParameters = errors.New("vcn: unsupported codec parameters")
	ErrUnsupportedTier       = errors.New("vcn: tier not supported by this session")
	ErrBufferTooSmall        = errors.New("vcn: buffer too small")
	ErrCommandOverflow       = errors.New("vcn: command buffer overflow")
	ErrCodecMismatch         = errors.New("vcn: codec parameters do not match session codec")
	ErrNoTables              = errors.New("vcn: default probability tables not configured")
	ErrBadSecureBuffer       = errors.New("vcn: malformed secure buffer")
	ErrNoSessionInit         = errors.New("vcn: codec has no session buffer initialization")
)

// BuildError records the stage of command building that failed. It
// wraps the underlying cause.
type BuildError struct {
	Stage string
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("vcn: %s: %v", e.Stage, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

func stageErr(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &BuildError{Stage: stage, Err: err}
}
