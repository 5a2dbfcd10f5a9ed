package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange is returned when an entry index is not below EntryCount.
	ErrIndexOutOfRange = errors.New("entry index out of range")

	// ErrCorruptEntry is matched by every CorruptEntryError.
	ErrCorruptEntry = errors.New("corrupt entry")

	// ErrUnknownBackend is returned by Registry.Open for an unregistered key.
	ErrUnknownBackend = errors.New("unknown backend")
)

// CorruptEntryError reports broken backend indexing for one entry.
type CorruptEntryError struct {
	Index  int
	Reason string
	Err    error
}

func (e *CorruptEntryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("entry %d: %s: %v", e.Index, e.Reason, e.Err)
	}
	return fmt.Sprintf("entry %d: %s", e.Index, e.Reason)
}

func (e *CorruptEntryError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCorruptEntry.
func (e *CorruptEntryError) Is(target error) bool {
	return target == ErrCorruptEntry
}

// Corrupt builds a CorruptEntryError.
func Corrupt(index int, reason string, err error) error {
	return &CorruptEntryError{Index: index, Reason: reason, Err: err}
}

// CheckIndex returns ErrIndexOutOfRange unless 0 <= index < count.
func CheckIndex(index, count int) error {
	if index < 0 || index >= count {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, count)
	}
	return nil
}
