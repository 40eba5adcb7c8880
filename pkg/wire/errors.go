package wire

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKind = errors.New("wire: unknown packet kind")
	ErrTruncated   = errors.New("wire: truncated buffer")
	ErrMalformed   = errors.New("wire: malformed packet")
)

// UnknownKindError is returned when no schema is registered for a header.
type UnknownKindError struct {
	Format uint16
	Kind   Kind
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("wire: no schema for format %d kind %d", e.Format, uint8(e.Kind))
}

func (e *UnknownKindError) Is(target error) bool {
	return target == ErrUnknownKind
}

// TruncatedError is returned when a buffer is shorter than the schema requires.
type TruncatedError struct {
	Kind Kind
	Need int
	Got  int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("wire: %s needs %d bytes, got %d", e.Kind, e.Need, e.Got)
}

func (e *TruncatedError) Is(target error) bool {
	return target == ErrTruncated
}
