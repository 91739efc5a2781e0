package trajectory

import (
	"errors"
	"fmt"
)

// ErrFormat indicates a malformed or truncated trajectory record.
var ErrFormat = errors.New("trajectory: bad format")

// A FormatError reports the file and line where parsing failed.
type FormatError struct {
	Path string
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("trajectory: %s:%d: %s", e.Path, e.Line, e.Msg)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

func formatErr(path string, line int, format string, args ...interface{}) error {
	return &FormatError{Path: path, Line: line, Msg: fmt.Sprintf(format, args...)}
}
