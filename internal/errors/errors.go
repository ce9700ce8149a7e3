// Package errors provides sentinel errors and custom error types for stax.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions
var (
	// ErrNoStack indicates the branch has no managed patch stack
	ErrNoStack = errors.New("no patch stack")

	// ErrCorruptStack indicates the stored stack state violates its invariants
	ErrCorruptStack = errors.New("corrupt patch stack")

	// ErrConflict indicates a patch could not be applied or removed cleanly
	ErrConflict = errors.New("merge conflict")

	// ErrConflictPending indicates a previous conflict has not been resolved
	ErrConflictPending = errors.New("conflict resolution in progress")

	// ErrConcurrentModification indicates the branch moved underneath a transaction
	ErrConcurrentModification = errors.New("branch modified concurrently")

	// ErrStore indicates a failure in the underlying object store
	ErrStore = errors.New("object store failure")

	// ErrRefConflict indicates a compare-and-swap ref update observed an unexpected value
	ErrRefConflict = errors.New("ref update conflict")

	// ErrInvalidOperation indicates an operation rejected before any mutation
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrNothingToUndo indicates the undo log is exhausted
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo indicates the redo log is exhausted
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrLockHeld indicates another stax process holds the repository lock
	ErrLockHeld = errors.New("repository is locked by another stax process")
)

// NoStackError reports a branch without an initialized stack
type NoStackError struct {
	Branch string
}

func (e *NoStackError) Error() string {
	return fmt.Sprintf("branch %s has no patch stack (run 'stax init')", e.Branch)
}

// Is returns true if the target error is ErrNoStack
func (e *NoStackError) Is(target error) bool {
	return target == ErrNoStack
}

// NewNoStackError creates a new NoStackError
func NewNoStackError(branch string) *NoStackError {
	return &NoStackError{Branch: branch}
}

// CorruptStackError reports stack state that fails its load-time invariants
type CorruptStackError struct {
	Branch string
	Reason string
}

func (e *CorruptStackError) Error() string {
	return fmt.Sprintf("stack for branch %s is corrupt: %s", e.Branch, e.Reason)
}

// Is returns true if the target error is ErrCorruptStack
func (e *CorruptStackError) Is(target error) bool {
	return target == ErrCorruptStack
}

// NewCorruptStackError creates a new CorruptStackError
func NewCorruptStackError(branch, reason string) *CorruptStackError {
	return &CorruptStackError{Branch: branch, Reason: reason}
}

// ConflictError reports the patch and paths that failed to merge cleanly
type ConflictError struct {
	Patch string
	Paths []string
}

func (e *ConflictError) Error() string {
	if len(e.Paths) == 0 {
		return fmt.Sprintf("patch %s does not apply cleanly", e.Patch)
	}
	return fmt.Sprintf("patch %s conflicts on: %s", e.Patch, strings.Join(e.Paths, ", "))
}

// Is returns true if the target error is ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NewConflictError creates a new ConflictError
func NewConflictError(patch string, paths []string) *ConflictError {
	return &ConflictError{Patch: patch, Paths: paths}
}

// StoreError wraps a failure from the underlying object store
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("object store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrStore
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// NewStoreError creates a new StoreError
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// InvalidOperationError reports an operation rejected during validation
type InvalidOperationError struct {
	Message string
}

func (e *InvalidOperationError) Error() string {
	return e.Message
}

// Is returns true if the target error is ErrInvalidOperation
func (e *InvalidOperationError) Is(target error) bool {
	return target == ErrInvalidOperation
}

// NewInvalidOperationError creates a new InvalidOperationError
func NewInvalidOperationError(format string, args ...interface{}) *InvalidOperationError {
	return &InvalidOperationError{Message: fmt.Sprintf(format, args...)}
}
