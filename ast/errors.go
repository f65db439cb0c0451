package ast

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds the core raises. All of them bubble to the caller unchanged —
// the engine never swallows or retries an error. Each is wrapped with
// github.com/pkg/errors so Cause() recovers the typed value while Error()
// still carries a stack trace for logs.

// InvalidOperation means the caller's request is structurally impossible:
// a disposed wrapper was touched, GetParentOrThrow was called on the root,
// a kind assertion failed, or a replacement targeted more nodes than the
// operation allows.
type InvalidOperation struct {
	Message string
}

func (e *InvalidOperation) Error() string { return e.Message }

func newInvalidOperation(format string, args ...any) error {
	return errors.WithStack(&InvalidOperation{Message: fmt.Sprintf(format, args...)})
}

// NotImplemented marks a structural case the core recognizes but does not
// handle. Distinct from InvalidOperation so a bug report can tell "the
// engine doesn't do this yet" apart from "this request can never succeed".
type NotImplemented struct {
	Message string
}

func (e *NotImplemented) Error() string { return e.Message }

func newNotImplemented(format string, args ...any) error {
	return errors.WithStack(&NotImplemented{Message: fmt.Sprintf(format, args...)})
}

// ArgumentError flags an out-of-range index or a negative position.
type ArgumentError struct {
	Message string
}

func (e *ArgumentError) Error() string { return e.Message }

func newArgumentError(format string, args ...any) error {
	return errors.WithStack(&ArgumentError{Message: fmt.Sprintf(format, args...)})
}

// TreeReplacementError means the reconciler found mismatched child counts
// or kinds between the old and new trees. It is fatal for the source file:
// the planner or the frontend violated the reparse invariant the
// reconciler depends on (see ast.insertIntoParent's doc comment).
type TreeReplacementError struct {
	Message string
}

func (e *TreeReplacementError) Error() string { return e.Message }

func newTreeReplacementError(format string, args ...any) error {
	return errors.WithStack(&TreeReplacementError{Message: fmt.Sprintf(format, args...)})
}

// FileNotFound flags a filesystem host contract violation.
type FileNotFound struct {
	Path string
}

func (e *FileNotFound) Error() string { return "file not found: " + e.Path }

func newFileNotFound(path string) error {
	return errors.WithStack(&FileNotFound{Path: path})
}
