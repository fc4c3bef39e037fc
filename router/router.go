// Package router reacts to chat platform events: connection lifecycle,
// members joining and leaving, and messages.
package router

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zephyrtronium/warden/command"
	"github.com/zephyrtronium/warden/message"
	"github.com/zephyrtronium/warden/metrics"
)

// idleWorkers is the most workers kept waiting for work.
const idleWorkers = 16

// Router routes platform events to the bot's components.
type Router struct {
	log      *slog.Logger
	robo     *command.Robot
	dispatch *command.Dispatcher
	metrics  metrics.Metrics
	presence *Presence

	// state is the current connection State.
	state atomic.Int32
	// self is the bot's own user ID, once known.
	self atomic.Int64
	// synced guards the command registry sync so it happens once.
	synced atomic.Bool

	works   chan chan func(context.Context)
	running sync.WaitGroup
}

// Info describes the bot's identity upon becoming ready.
type Info struct {
	// User is the bot's own account.
	User message.User
	// Guilds is the number of servers the bot is in.
	Guilds int
}

// New creates a router. m and presence may be nil.
func New(log *slog.Logger, robo *command.Robot, d *command.Dispatcher, m *metrics.Metrics, presence *Presence) *Router {
	r := &Router{
		log:      log,
		robo:     robo,
		dispatch: d,
		presence: presence,
		works:    make(chan chan func(context.Context), idleWorkers),
	}
	if m != nil {
		r.metrics = *m
	}
	for _, o := range []*metrics.Observer{
		&r.metrics.MessagesCount,
		&r.metrics.CommandCount,
		&r.metrics.CommandErrors,
		&r.metrics.MembersJoined,
		&r.metrics.CommandLatency,
	} {
		if *o == nil {
			*o = metrics.Discard
		}
	}
	return r
}

// State returns the current connection state.
func (r *Router) State() State {
	return State(r.state.Load())
}

// Connecting records that the connection is being established.
func (r *Router) Connecting() {
	r.state.Store(int32(Connecting))
	r.log.Info("connecting")
}

// Disconnected records that the connection was lost.
// Presence rotation continues; its failures while disconnected are logged.
func (r *Router) Disconnected() {
	r.state.Store(int32(Disconnected))
	r.log.Info("disconnected")
}

// Ready records that the connection is ready. The first time, it syncs the
// command registry and starts presence rotation, which runs until ctx ends.
// Later calls after reconnecting do neither again.
func (r *Router) Ready(ctx context.Context, info Info) {
	r.self.Store(info.User.ID)
	r.state.Store(int32(Ready))
	r.log.InfoContext(ctx, "connected",
		slog.String("name", info.User.Name),
		slog.Int64("id", info.User.ID),
		slog.Int("guilds", info.Guilds),
	)
	if !r.synced.CompareAndSwap(false, true) {
		return
	}
	n, err := r.robo.Platform.SyncCommands(ctx)
	if err != nil {
		r.log.WarnContext(ctx, "couldn't sync commands", slog.Any("err", err))
	} else {
		r.log.InfoContext(ctx, "synced commands", slog.Int("count", n))
	}
	if r.presence != nil {
		r.presence.Start(ctx)
	}
}

// Resumed records that a dropped connection was resumed. The gateway sends
// no ready event for a resumed session, so this is the other way back to
// the Ready state. Commands and presence are left as they were.
func (r *Router) Resumed(ctx context.Context) {
	r.state.Store(int32(Ready))
	r.log.InfoContext(ctx, "resumed")
}

// MemberJoin welcomes a new member and registers them.
func (r *Router) MemberJoin(ctx context.Context, m *message.Member) {
	r.enqueue(ctx, func(ctx context.Context) {
		r.memberJoin(ctx, m)
	})
}

func (r *Router) memberJoin(ctx context.Context, m *message.Member) {
	log := r.log.With(slog.Int64("user", m.ID), slog.Int64("guild", m.Guild))
	log.InfoContext(ctx, "member joined", slog.String("name", m.Name))
	r.metrics.MembersJoined.Observe(1)
	server := "the server"
	if g, err := r.robo.Platform.Guild(ctx, m.Guild); err == nil {
		server = g.Name
	}
	c := &message.Card{
		Title:       "Welcome to " + server + "!",
		Description: "Hi " + m.Mention() + "! Use `" + r.dispatch.Prefix() + "help` to see available commands.",
		Color:       message.Green,
		Thumbnail:   m.Avatar,
	}
	if err := r.robo.Platform.DirectMessage(ctx, m.ID, message.Sent{Card: c}); err != nil {
		// Members can disable direct messages. That's fine.
		log.DebugContext(ctx, "couldn't send welcome", slog.Any("err", err))
	}
	at := m.Joined
	if at.IsZero() {
		at = time.Now()
	}
	if err := r.robo.Points.Register(ctx, &m.User, at); err != nil {
		log.ErrorContext(ctx, "couldn't register member", slog.Any("err", err))
	}
}

// MemberLeave notes that a member left.
func (r *Router) MemberLeave(ctx context.Context, m *message.Member) {
	r.log.InfoContext(ctx, "member left",
		slog.String("name", m.Name),
		slog.Int64("user", m.ID),
		slog.Int64("guild", m.Guild),
	)
}

// Message scores a message and runs any command it contains.
// Messages from the bot itself are ignored.
func (r *Router) Message(ctx context.Context, msg *message.Received) {
	if msg.Author.ID == r.self.Load() {
		return
	}
	r.metrics.MessagesCount.Observe(1)
	r.enqueue(ctx, func(ctx context.Context) {
		r.message(ctx, msg)
	})
}

func (r *Router) message(ctx context.Context, msg *message.Received) {
	log := r.log.With(
		slog.Int64("trace", msg.ID),
		slog.Int64("in", msg.Channel),
		slog.Int64("user", msg.Author.ID),
	)
	if msg.Author.Bot {
		// Bots neither earn points nor run commands.
		return
	}
	if err := r.robo.Points.Observe(ctx, &msg.Author.User, msg.Time); err != nil {
		log.ErrorContext(ctx, "couldn't score message", slog.Any("err", err))
	}
	start := time.Now()
	name, ok, err := r.dispatch.Dispatch(ctx, r.robo, msg)
	if !ok {
		return
	}
	if name != "" {
		r.metrics.CommandCount.Observe(1, name)
		r.metrics.CommandLatency.Observe(time.Since(start).Seconds(), name)
		log.InfoContext(ctx, "command", slog.String("name", name))
	}
	if err != nil {
		r.CommandError(ctx, msg, name, err)
	}
}

// CommandError reports a failed command to its invoker.
func (r *Router) CommandError(ctx context.Context, msg *message.Received, name string, err error) {
	kind := command.ErrorKind(err)
	r.metrics.CommandErrors.Observe(1, kind)
	log := r.log.With(
		slog.Int64("trace", msg.ID),
		slog.String("command", name),
		slog.String("kind", kind),
		slog.Any("err", err),
	)
	switch kind {
	case "handler":
		if errors.Is(err, command.ErrGuildOnly) {
			log.DebugContext(ctx, "command failed")
			break
		}
		log.ErrorContext(ctx, "command failed")
	default:
		log.DebugContext(ctx, "command failed")
	}
	text := command.Describe(r.dispatch.Prefix(), err)
	if _, err := r.robo.Platform.Send(ctx, message.Sent{Channel: msg.Channel, Text: text}); err != nil {
		log.ErrorContext(ctx, "couldn't report command error", slog.Any("send", err))
	}
}

// Wait waits for all work in progress to finish. It should be called only
// after the context passed to the router's event methods is canceled.
func (r *Router) Wait() {
	r.running.Wait()
}
