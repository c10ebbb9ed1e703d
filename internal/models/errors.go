package models

import (
	"errors"
	"fmt"
)

// Code identifies a class of handled failure. Codes are stable strings so
// they can be rendered to operators and matched in tests without depending
// on error message wording.
type Code string

const (
	CodeInstallNotFound  Code = "InstallNotFound"
	CodeFileNotFound     Code = "FileNotFound"
	CodeAlreadyFixed     Code = "AlreadyFixed"
	CodeNotFixed         Code = "NotFixed"
	CodePermissionDenied Code = "PermissionDenied"
	CodePatchFailed      Code = "PatchFailed"
	CodeServiceError     Code = "ServiceError"
	CodeBackupNotFound   Code = "BackupNotFound"
	CodeLocked           Code = "Locked"
)

// Error is a tagged, operator-facing failure. Collaborator errors (filesystem,
// exec) are always wrapped with a Code and a human message, never passed
// through raw.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// NewError creates a tagged error with no underlying cause.
func NewError(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError tags an underlying error with a code and human message.
func WrapError(code Code, cause error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches two tagged errors by code, so sentinel comparisons like
// errors.Is(err, &Error{Code: CodeBackupNotFound}) work regardless of message.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return te.Code == e.Code
	}
	return false
}

// CodeOf extracts the tag from an error chain. Returns "" for untagged
// (unexpected) errors.
func CodeOf(err error) Code {
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// IsHandled reports whether err is a tagged failure the CLI should surface
// with exit code 1 rather than treat as a crash.
func IsHandled(err error) bool {
	var te *Error
	return errors.As(err, &te)
}
