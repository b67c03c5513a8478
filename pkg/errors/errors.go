// Package errors defines the error taxonomy used across ralph: a small set
// of kinds rather than a large set of distinct error types, so callers can
// switch on Kind() instead of sentinel comparison.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for exit-code selection and user messaging.
type Kind string

const (
	// Input kinds: bad request from the caller, never retryable.
	KindUnknownPackage      Kind = "unknown_package"
	KindNoMatchingVersion   Kind = "no_matching_version"
	KindBadVersionSyntax    Kind = "bad_version_syntax"
	KindBadRequirementSyntax Kind = "bad_requirement_syntax"
	KindBadArgument         Kind = "bad_argument"

	// State kinds: the operation conflicts with current database/source state.
	KindSourceAlreadyRegistered Kind = "source_already_registered"
	KindUnknownSource           Kind = "unknown_source"
	KindNotInstalled            Kind = "not_installed"
	KindDatabaseUnavailable     Kind = "database_unavailable"

	// I/O kinds: failures talking to the network, git, or the filesystem.
	KindNetwork      Kind = "network"
	KindGitFailure   Kind = "git_failure"
	KindFilesystem   Kind = "filesystem"
	KindSourceFormat Kind = "source_format"

	// Auth kinds.
	KindAuthRequired Kind = "auth_required"
	KindAuthFailed   Kind = "auth_failed"

	// Lifecycle kinds.
	KindCanceled Kind = "canceled"

	// Internal kinds: assertion-class, never recovered.
	KindLogic Kind = "logic"
)

// Error is the concrete error type carrying a Kind, a user-facing message
// and an optional wrapped cause.
type Error struct {
	kind    Kind
	message string
	cause   error

	// Code carries the GitFailure status/error code when kind is KindGitFailure.
	Code string
	// Path carries the offending file path when kind is KindSourceFormat.
	Path string
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.message, e.cause)
	}
	return e.message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the error's classification.
func (e *Error) Kind() Kind {
	return e.kind
}

// New builds a new *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an existing error, preserving it as
// the cause. Returns nil if err is nil.
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, message: msg, cause: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, kind Kind, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, message: fmt.Sprintf(format, args...), cause: err}
}

// GitFailure builds an I/O-kind error carrying the underlying git library's
// message and code, per the propagation rule that go-git failures surface
// as a named failure rather than a bare wrapped error.
func GitFailure(message, code string, cause error) *Error {
	return &Error{kind: KindGitFailure, message: message, cause: cause, Code: code}
}

// SourceFormat builds an I/O-kind error naming the malformed package file.
func SourceFormat(path string, cause error) *Error {
	return &Error{kind: KindSourceFormat, message: fmt.Sprintf("malformed package file %s", path), cause: cause, Path: path}
}

// Logic builds an Internal-kind error for violated invariants. Callers
// should never attempt to recover from a Logic error.
func Logic(format string, args ...interface{}) *Error {
	return &Error{kind: KindLogic, message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error, and
// KindLogic otherwise, since an error escaping the taxonomy is itself a
// programming mistake.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindLogic
}

// ExitCode maps a Kind to the CLI exit code convention: 0 never appears
// here (it is the no-error case), 1 for user-facing failures, -1 for
// internal/logic errors.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case KindLogic:
		return -1
	default:
		return 1
	}
}

// Is reports whether err's Kind equals kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
