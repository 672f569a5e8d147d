package core

import (
	"errors"
	"fmt"
)

// ErrMissingDependency is returned when a file expected inside an
// installed npm package cannot be found.
var ErrMissingDependency = errors.New("missing dependency")

// MissingDependencyError names the package and the file that could not
// be resolved from a project.
type MissingDependencyError struct {
	Package     string // npm package, e.g. "expo"
	File        string // conventional path, e.g. "expo/bundledNativeModules.json"
	ProjectRoot string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("the dependency map %s cannot be found, please ensure you have the package %q installed in your project (%s)",
		e.File, e.Package, e.ProjectRoot)
}

func (e *MissingDependencyError) Unwrap() error {
	return ErrMissingDependency
}

// Code is a stable error code reported by the CLI.
type Code string

const (
	EUsage             Code = "E_USAGE"
	EMissingDependency Code = "E_MISSING_DEPENDENCY"
	ENotAuthenticated  Code = "E_NOT_AUTHENTICATED"
	EDevServerDown     Code = "E_DEV_SERVER_NOT_RUNNING"
	EUnsupported       Code = "E_UNSUPPORTED"
	EInternal          Code = "E_INTERNAL"
)

// CommandError is a user-facing failure with a stable code.
type CommandError struct {
	Code  Code
	Msg   string
	Cause error
}

// Error returns "CODE: message".
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *CommandError) Unwrap() error {
	return e.Cause
}

// NewCommandError creates a CommandError.
func NewCommandError(code Code, msg string) error {
	return &CommandError{Code: code, Msg: msg}
}

// WrapCommandError creates a CommandError with an underlying cause.
func WrapCommandError(code Code, msg string, cause error) error {
	return &CommandError{Code: code, Msg: msg, Cause: cause}
}

// CodeOf extracts the code from err, or EInternal when err carries none.
func CodeOf(err error) Code {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Code
	}
	if errors.Is(err, ErrMissingDependency) {
		return EMissingDependency
	}
	return EInternal
}
