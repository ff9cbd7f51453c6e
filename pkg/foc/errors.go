package foc

import (
	"errors"
	"fmt"
)

var (
	// ErrWrite indicates the bus write failed, no bytes are known to be
	// delivered.
	ErrWrite = errors.New("write error")
	// ErrRead indicates the bus read of a passive read failed.
	ErrRead = errors.New("read error")
	// ErrWriteRead indicates the write-then-read transaction failed.
	// The effect of the write on the device is unknown.
	ErrWriteRead = errors.New("write-read error")
	// ErrWriteReadMatch indicates the transaction completed but the
	// response echoes another id. The bus is out of sync.
	ErrWriteReadMatch = errors.New("write-read id mismatch")
	// ErrShortFrame indicates a buffer too small to hold a frame.
	ErrShortFrame = errors.New("short frame")
)

// TransportError wraps a failure reported by the Bus.
// Op is one of ErrWrite, ErrRead, ErrWriteRead.
type TransportError struct {
	Op   error
	Addr uint8
	ID   CommandID
	Err  error
}

// Error implements error.
func (e *TransportError) Error() string {
	if e.ID != UnknownCommand {
		return fmt.Sprintf("%v (addr=0x%02x id=%d): %v", e.Op, e.Addr, e.ID, e.Err)
	}
	return fmt.Sprintf("%v (addr=0x%02x): %v", e.Op, e.Addr, e.Err)
}

// Is matches the Op kind.
func (e *TransportError) Is(target error) bool {
	return target == e.Op
}

// Unwrap returns the bus error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// MatchError reports the id echoed by the device differs from the
// requested one.
type MatchError struct {
	Requested CommandID
	Received  CommandID
}

// Error implements error.
func (e *MatchError) Error() string {
	return fmt.Sprintf("%v: requested %d, received %d", ErrWriteReadMatch, e.Requested, e.Received)
}

// Is implements errors.Is for ErrWriteReadMatch.
func (e *MatchError) Is(target error) bool {
	return target == ErrWriteReadMatch
}

// UnknownCommandError indicates a name that can't be used for the
// requested operation.
type UnknownCommandError struct {
	Name string
}

// Error implements error.
func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Name)
}
