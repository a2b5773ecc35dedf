// Package faults defines the typed failure classes shared by the install,
// migrate, repair, and uninstall engines. Callers map these to exit codes;
// the engines only classify.
package faults

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// PreconditionFailure reports an operation attempted against a root whose
// structure state does not allow it.
type PreconditionFailure struct {
	Root   string
	Reason string
}

func (e *PreconditionFailure) Error() string {
	return fmt.Sprintf("precondition failed for %s: %s", e.Root, e.Reason)
}

// SourceMissing reports a bundle source that is absent or not a directory.
type SourceMissing struct {
	Path   string
	Detail string
}

func (e *SourceMissing) Error() string {
	return fmt.Sprintf("bundle source %s: %s", e.Path, e.Detail)
}

// FilesystemFailure annotates a filesystem error with the attempted
// operation and the affected path.
type FilesystemFailure struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemFailure) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemFailure) Unwrap() error { return e.Err }

// IntegrityMismatch reports a file whose digest no longer matches the
// recorded value.
type IntegrityMismatch struct {
	Path string
	Want string
	Got  string
}

func (e *IntegrityMismatch) Error() string {
	return fmt.Sprintf("integrity mismatch for %s: recorded %s, found %s", e.Path, e.Want, e.Got)
}

// RollbackFailure reports that a rollback itself could not complete. It is
// the most severe class: the named backup set must be inspected manually.
type RollbackFailure struct {
	Root      string
	BackupRef string
	Err       error
}

func (e *RollbackFailure) Error() string {
	return fmt.Sprintf("rollback of %s failed: %v; manual intervention required, inspect backup %s", e.Root, e.Err, e.BackupRef)
}

func (e *RollbackFailure) Unwrap() error { return e.Err }

// IsPermission reports whether err is a permission-class failure anywhere in
// its chain. The CLI maps these to exit code 2.
func IsPermission(err error) bool {
	if errors.Is(err, fs.ErrPermission) || errors.Is(err, os.ErrPermission) {
		return true
	}
	var fsErr *FilesystemFailure
	if errors.As(err, &fsErr) {
		return errors.Is(fsErr.Err, fs.ErrPermission)
	}
	return false
}

// IsRollbackFailure reports whether err carries a RollbackFailure.
func IsRollbackFailure(err error) bool {
	var rb *RollbackFailure
	return errors.As(err, &rb)
}
