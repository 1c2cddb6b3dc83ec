// Package executor runs external commands with argv-based invocation.
//
// Commands are always spawned directly from an argument vector, never
// through a shell, so argument values need no escaping and cannot be
// reinterpreted as shell syntax.
package executor

import (
	"os"
	"os/exec"

	"github.com/ksyq12/webhostinit/internal/errors"
)

// CommandRunner is the interface for executing system commands.
type CommandRunner interface {
	// Run executes a command with the child inheriting the parent's
	// standard streams. A non-zero exit is returned as a command error.
	Run(name string, args ...string) error

	// RunQuiet executes a command with all output discarded, surfacing
	// only success or failure. Used for probing candidate binaries.
	RunQuiet(name string, args ...string) error

	// LookPath searches for an executable in the directories named by PATH.
	LookPath(file string) (string, error)
}

// System implements CommandRunner using os/exec.
type System struct{}

// NewSystem creates a new System runner.
func NewSystem() *System {
	return &System{}
}

// Run executes a command with inherited stdio.
func (s *System) Run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return wrapRunError(cmd.Run(), name, args)
}

// RunQuiet executes a command with output discarded.
func (s *System) RunQuiet(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	return wrapRunError(cmd.Run(), name, args)
}

// LookPath searches for an executable.
func (s *System) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func wrapRunError(err error, name string, args []string) error {
	if err == nil {
		return nil
	}
	argv := append([]string{name}, args...)
	exitCode := -1
	if ee, ok := err.(*exec.ExitError); ok {
		exitCode = ee.ExitCode()
	}
	return errors.Command(argv, exitCode, err)
}

// CommandCall records a command execution for verification in tests.
type CommandCall struct {
	Name  string
	Args  []string
	Quiet bool
}

// Mock is a CommandRunner implementation for testing.
type Mock struct {
	RunFunc      func(name string, args ...string) error
	RunQuietFunc func(name string, args ...string) error
	LookPathFunc func(file string) (string, error)
	Calls        []CommandCall
}

// Run records the call and delegates to RunFunc when set.
func (m *Mock) Run(name string, args ...string) error {
	m.Calls = append(m.Calls, CommandCall{Name: name, Args: args})
	if m.RunFunc != nil {
		return m.RunFunc(name, args...)
	}
	return nil
}

// RunQuiet records the call and delegates to RunQuietFunc when set.
func (m *Mock) RunQuiet(name string, args ...string) error {
	m.Calls = append(m.Calls, CommandCall{Name: name, Args: args, Quiet: true})
	if m.RunQuietFunc != nil {
		return m.RunQuietFunc(name, args...)
	}
	return nil
}

// LookPath delegates to LookPathFunc when set.
func (m *Mock) LookPath(file string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(file)
	}
	return "/usr/bin/" + file, nil
}
