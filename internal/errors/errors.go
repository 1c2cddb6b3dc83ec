// Package errors provides structured error types for the webhostinit tool.
//
// Every failure in a provisioning run is fatal, so the error types here
// exist for diagnostics rather than recovery: each error carries a code
// identifying the failed stage plus the structured fields (path, mode,
// command, exit code, placeholder) needed to report exactly what was
// attempted.
//
// Creating errors:
//
//	return errors.Validation("invalid domain name: %s", domain)
//	return errors.FileSystem("chmod", path, mode, err)
//	return errors.Command(argv, exitCode)
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrRootRequired) { ... }
//
//	var perr *errors.ProvisionError
//	if errors.As(err, &perr) {
//	    fmt.Println(perr.Code, perr.Path)
//	}
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes errors by the stage that produced them.
type ErrorCode string

const (
	ErrCodeValidation ErrorCode = "VALIDATION" // Bad option, domain, or argument
	ErrCodePermission ErrorCode = "PERMISSION" // Missing root privileges
	ErrCodePath       ErrorCode = "PATH"       // Required root path did not resolve
	ErrCodeFileSystem ErrorCode = "FILESYSTEM" // mkdir/chmod/chown/symlink/read/write failed
	ErrCodeCommand    ErrorCode = "COMMAND"    // External process exited non-zero
	ErrCodeTemplate   ErrorCode = "TEMPLATE"   // Placeholder without a value
)

// ProvisionError is the structured error type used throughout the tool.
// Only the fields relevant to the failed operation are populated.
type ProvisionError struct {
	Code        ErrorCode
	Message     string
	Op          string // filesystem operation: create, chmod, chown, chgrp, symlink, read, write
	Path        string // filesystem path involved
	Mode        string // attempted permission bits, e.g. "0755"
	Owner       string // attempted owner
	Group       string // attempted group
	Command     string // external command line
	ExitCode    int    // external command exit code
	Placeholder string // undefined template placeholder name
	Err         error
}

// Error renders a single-line message, the only form the tool ever prints.
func (e *ProvisionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Op != "" && e.Path != "" {
		fmt.Fprintf(&b, ": %s %s", e.Op, e.Path)
		if e.Mode != "" {
			fmt.Fprintf(&b, " (mode %s)", e.Mode)
		}
		if e.Owner != "" {
			fmt.Fprintf(&b, " (owner %s)", e.Owner)
		}
		if e.Group != "" {
			fmt.Fprintf(&b, " (group %s)", e.Group)
		}
	} else if e.Path != "" {
		fmt.Fprintf(&b, ": %s", e.Path)
	}
	if e.Command != "" {
		fmt.Fprintf(&b, ": %s (exit %d)", e.Command, e.ExitCode)
	}
	if e.Placeholder != "" {
		fmt.Fprintf(&b, ": %%%s%%", e.Placeholder)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain traversal.
func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// Is matches on error code, so sentinel comparisons survive wrapping.
func (e *ProvisionError) Is(target error) bool {
	t, ok := target.(*ProvisionError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors for conditions callers branch on.
var (
	// ErrRootRequired indicates the tool was not run with root privileges.
	ErrRootRequired = &ProvisionError{Code: ErrCodePermission, Message: "root privileges required"}

	// ErrNoCertTool indicates no certificate tool candidate responded.
	ErrNoCertTool = &ProvisionError{Code: ErrCodeCommand, Message: "no usable certificate tool found"}
)

// Validation creates an input validation error.
func Validation(format string, args ...interface{}) error {
	return &ProvisionError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// PathResolution creates an error for a required path that did not resolve.
func PathResolution(path string, err error) error {
	return &ProvisionError{
		Code:    ErrCodePath,
		Message: "path does not resolve",
		Path:    path,
		Err:     err,
	}
}

// FileSystem creates an error for a failed filesystem operation.
// mode, owner, and group may be empty when not applicable.
func FileSystem(op, path, mode string, err error) error {
	return &ProvisionError{
		Code:    ErrCodeFileSystem,
		Message: "filesystem operation failed",
		Op:      op,
		Path:    path,
		Mode:    mode,
		Err:     err,
	}
}

// Ownership creates an error for a failed chown or chgrp.
func Ownership(op, path, owner, group string, err error) error {
	return &ProvisionError{
		Code:    ErrCodeFileSystem,
		Message: "filesystem operation failed",
		Op:      op,
		Path:    path,
		Owner:   owner,
		Group:   group,
		Err:     err,
	}
}

// Command creates an error for an external process that exited non-zero.
func Command(argv []string, exitCode int, err error) error {
	return &ProvisionError{
		Code:     ErrCodeCommand,
		Message:  "command failed",
		Command:  strings.Join(argv, " "),
		ExitCode: exitCode,
		Err:      err,
	}
}

// Template creates an error for a placeholder with no mapped value.
func Template(placeholder string) error {
	return &ProvisionError{
		Code:        ErrCodeTemplate,
		Message:     "undefined template variable",
		Placeholder: placeholder,
	}
}

// Is reports whether any error in err's chain matches target.
// Re-export of errors.Is for convenience.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
// Re-export of errors.As for convenience.
var As = errors.As
