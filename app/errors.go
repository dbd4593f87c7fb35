package app

import "fmt"

// StorageError wraps a persistence failure. A StorageError means the
// mutation was not committed; callers surface a retryable message to
// the user and must never report success.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// GenerationError wraps an upstream generation failure. The message
// text from the upstream is opaque; it downgrades to an apology to the
// user and never rolls back already-recorded quota.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
