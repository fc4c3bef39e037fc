package command

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"

	"github.com/zephyrtronium/warden/message"
)

// Dispatcher resolves and runs commands.
type Dispatcher struct {
	prefix string
	specs  []*Spec
	names  map[string]*Spec
}

// NewDispatcher creates a dispatcher for commands with the given prefix.
// Panics if two commands share a name or alias.
func NewDispatcher(prefix string, specs []Spec) *Dispatcher {
	d := Dispatcher{
		prefix: prefix,
		specs:  make([]*Spec, len(specs)),
		names:  make(map[string]*Spec, len(specs)),
	}
	for i := range specs {
		s := &specs[i]
		d.specs[i] = s
		for _, n := range append([]string{s.Name}, s.Aliases...) {
			if d.names[n] != nil {
				panic(fmt.Errorf("command: duplicate command name %q", n))
			}
			d.names[n] = s
		}
	}
	return &d
}

// Prefix returns the command prefix.
func (d *Dispatcher) Prefix() string {
	return d.prefix
}

// Lookup finds a command by name or alias.
func (d *Dispatcher) Lookup(name string) *Spec {
	return d.names[name]
}

// Specs returns the registered commands in registration order.
func (d *Dispatcher) Specs() []*Spec {
	return slices.Clone(d.specs)
}

// Dispatch runs the command in msg, if there is one. ok reports whether msg
// is a command invocation at all; name is the resolved command name, or
// empty if it was not found.
//
// Resolution, the permission check, and argument conversion all happen
// before the command runs, so a command that fails any of them changes
// nothing. Errors are of the types described by [Describe]. A panicking
// command is converted to a [*HandlerError].
func (d *Dispatcher) Dispatch(ctx context.Context, robo *Robot, msg *message.Received) (name string, ok bool, err error) {
	n, rest, ok := Parse(d.prefix, msg.Text)
	if !ok {
		return "", false, nil
	}
	spec := d.names[n]
	if spec == nil {
		return "", true, fmt.Errorf("%w: %q", ErrCommandNotFound, n)
	}
	if spec.GuildOnly && msg.Guild == 0 {
		return spec.Name, true, &HandlerError{Command: spec.Name, Err: ErrGuildOnly}
	}
	if spec.Perm != PermNone {
		if msg.Guild == 0 {
			return spec.Name, true, &MissingPermissionError{Command: spec.Name, Missing: spec.Perm}
		}
		have, err := robo.Platform.Permissions(ctx, msg.Guild, msg.Channel, msg.Author.ID)
		if err != nil {
			return spec.Name, true, &HandlerError{Command: spec.Name, Err: fmt.Errorf("couldn't get permissions: %w", err)}
		}
		if !have.Allows(spec.Perm) {
			return spec.Name, true, &MissingPermissionError{Command: spec.Name, Missing: spec.Perm &^ have}
		}
	}
	args, err := spec.args(ctx, robo.Platform, msg, rest)
	if err != nil {
		return spec.Name, true, err
	}
	call := Invocation{
		Spec:       spec,
		Message:    msg,
		Args:       args,
		Dispatcher: d,
	}
	return spec.Name, true, run(ctx, robo, spec, &call)
}

func run(ctx context.Context, robo *Robot, spec *Spec, call *Invocation) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		robo.Log.ErrorContext(ctx, "command panicked",
			slog.String("command", spec.Name),
			slog.Any("panic", r),
			slog.String("stack", string(debug.Stack())),
		)
		err = &HandlerError{Command: spec.Name, Err: fmt.Errorf("panic: %v", r)}
	}()
	if err := spec.Fn(ctx, robo, call); err != nil {
		return &HandlerError{Command: spec.Name, Err: err}
	}
	return nil
}
