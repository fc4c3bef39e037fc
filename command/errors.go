package command

import (
	"errors"
	"fmt"
)

var (
	// ErrCommandNotFound is the error for an unregistered command name.
	ErrCommandNotFound = errors.New("command not found")
	// ErrGuildOnly is the error for a server command used in direct messages.
	ErrGuildOnly = errors.New("this command only works in servers")
	// ErrNotFound is returned by platform lookups of unknown members or
	// channels.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned by platform actions the bot is not allowed to
	// perform, such as kicking a member with a higher role.
	ErrForbidden = errors.New("forbidden")
)

// MissingPermissionError is the error for a member lacking the permission a
// command requires.
type MissingPermissionError struct {
	Command string
	Missing Perm
}

func (err *MissingPermissionError) Error() string {
	return fmt.Sprintf("%s requires permission %v", err.Command, err.Missing)
}

// MissingArgumentError is the error for an omitted required argument.
type MissingArgumentError struct {
	Command string
	Param   string
}

func (err *MissingArgumentError) Error() string {
	return fmt.Sprintf("%s is missing argument %s", err.Command, err.Param)
}

// BadArgumentError is the error for an argument that could not be converted.
type BadArgumentError struct {
	Command string
	Param   string
	Value   string
	Err     error
}

func (err *BadArgumentError) Error() string {
	return fmt.Sprintf("%s: bad argument %s %q: %v", err.Command, err.Param, err.Value, err.Err)
}

func (err *BadArgumentError) Unwrap() error {
	return err.Err
}

// HandlerError is the error for a command that failed while running.
type HandlerError struct {
	Command string
	Err     error
}

func (err *HandlerError) Error() string {
	return fmt.Sprintf("%s: %v", err.Command, err.Err)
}

func (err *HandlerError) Unwrap() error {
	return err.Err
}

// Describe converts an error from [Dispatcher.Dispatch] to a message for
// the user who invoked the command.
func Describe(prefix string, err error) string {
	var (
		perm    *MissingPermissionError
		missing *MissingArgumentError
		bad     *BadArgumentError
		fault   *HandlerError
	)
	switch {
	case errors.Is(err, ErrCommandNotFound):
		return fmt.Sprintf("❌ Command not found. Use `%shelp` for available commands.", prefix)
	case errors.As(err, &perm):
		return "❌ You don't have permission to use this command."
	case errors.As(err, &missing):
		return fmt.Sprintf("❌ Missing required argument. Use `%shelp %s`", prefix, missing.Command)
	case errors.As(err, &bad):
		return "❌ Invalid argument provided."
	case errors.As(err, &fault):
		return "❌ An error occurred: " + fault.Err.Error()
	default:
		return "❌ An error occurred: " + err.Error()
	}
}

// ErrorKind classifies an error from [Dispatcher.Dispatch] for logs and metrics.
func ErrorKind(err error) string {
	var (
		perm    *MissingPermissionError
		missing *MissingArgumentError
		bad     *BadArgumentError
	)
	switch {
	case errors.Is(err, ErrCommandNotFound):
		return "not_found"
	case errors.As(err, &perm):
		return "permission"
	case errors.As(err, &missing):
		return "missing_argument"
	case errors.As(err, &bad):
		return "bad_argument"
	default:
		return "handler"
	}
}
