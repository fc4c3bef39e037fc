// Package command implements the bot's prefix commands: parsing, permission
// checks, argument conversion, and the handlers themselves.
package command

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/zephyrtronium/warden/message"
	"github.com/zephyrtronium/warden/moderation"
	"github.com/zephyrtronium/warden/points"
)

// Platform is the chat service as visible to commands.
type Platform interface {
	// Send sends a message and returns its ID.
	Send(ctx context.Context, msg message.Sent) (int64, error)
	// DirectMessage sends a message privately to a user. The Channel field of
	// msg is ignored. Delivery commonly fails when users disable direct
	// messages, so callers should treat it as best-effort.
	DirectMessage(ctx context.Context, user int64, msg message.Sent) error
	// Delete deletes a message.
	Delete(ctx context.Context, channel, id int64) error
	// DeleteAfter deletes a message after a delay, unless the context is
	// canceled first. It does not block.
	DeleteAfter(ctx context.Context, channel, id int64, d time.Duration)
	// Purge deletes up to n of the most recent messages in a channel and
	// returns the number actually deleted.
	Purge(ctx context.Context, channel int64, n int) (int, error)
	// Kick removes a member from a server.
	Kick(ctx context.Context, guild, user int64, reason string) error
	// Ban bans a member from a server.
	Ban(ctx context.Context, guild, user int64, reason string) error
	// SetPresence sets the bot's displayed activity.
	SetPresence(ctx context.Context, a message.Activity) error
	// SyncCommands synchronizes the platform's command registry and returns
	// the number of registered commands.
	SyncCommands(ctx context.Context) (int, error)
	// Member looks up a server member by ID.
	Member(ctx context.Context, guild, user int64) (*message.Member, error)
	// FindMember looks up a server member by name.
	FindMember(ctx context.Context, guild int64, name string) (*message.Member, error)
	// Guild looks up a server.
	Guild(ctx context.Context, guild int64) (*message.Guild, error)
	// Channel looks up a channel by ID.
	Channel(ctx context.Context, channel int64) (*message.Channel, error)
	// FindChannel looks up a server's text channel by name.
	FindChannel(ctx context.Context, guild int64, name string) (*message.Channel, error)
	// Permissions returns a member's permissions in a channel.
	Permissions(ctx context.Context, guild, channel, user int64) (Perm, error)
	// Latency returns the platform connection's heartbeat latency.
	Latency() time.Duration
}

// Robot is the bot state as is visible to commands.
type Robot struct {
	Log        *slog.Logger
	Platform   Platform
	Points     *points.Engine
	Moderation *moderation.Log
	// Owner and Contact describe who runs the bot. Either may be empty.
	Owner   string
	Contact string
	// IntN returns a uniform random integer in [0, n).
	// If nil, commands use math/rand/v2.
	IntN func(n int) int
}

func (robo *Robot) intn(n int) int {
	if robo.IntN != nil {
		return robo.IntN(n)
	}
	return rand.IntN(n)
}

// reply sends a message to the channel where a command was invoked.
func (robo *Robot) reply(ctx context.Context, call *Invocation, m message.Sent) (int64, error) {
	m.Channel = call.Message.Channel
	return robo.Platform.Send(ctx, m)
}

// say sends plain text to the channel where a command was invoked.
func (robo *Robot) say(ctx context.Context, call *Invocation, text string) error {
	_, err := robo.reply(ctx, call, message.Sent{Text: text})
	return err
}

// card sends a card to the channel where a command was invoked.
func (robo *Robot) card(ctx context.Context, call *Invocation, c *message.Card) error {
	_, err := robo.reply(ctx, call, message.Sent{Card: c})
	return err
}

// Invocation is a command invocation. An Invocation and its fields must not
// be modified or retained by any command.
type Invocation struct {
	// Spec is the invoked command.
	Spec *Spec
	// Message is the message which triggered the invocation.
	Message *message.Received
	// Args is the converted arguments to the command.
	Args Args
	// Dispatcher is the dispatcher running the command.
	Dispatcher *Dispatcher
}

// Author returns the member who invoked the command.
func (call *Invocation) Author() *message.Member {
	return &call.Message.Author
}

// Func executes a command. Problems with the user's input are reported to
// the user by the command itself, which then returns nil. Returned errors
// are faults reported generically.
type Func func(ctx context.Context, robo *Robot, call *Invocation) error

// Spec describes a command.
type Spec struct {
	// Name is the command name, in lower case.
	Name string
	// Aliases are alternative names for the command.
	Aliases []string
	// Group is the help category of the command. Commands with no group are
	// not listed in help.
	Group string
	// Help is a short description of the command.
	Help string
	// Perm is the permission required to use the command.
	Perm Perm
	// GuildOnly indicates that the command cannot be used in direct messages.
	GuildOnly bool
	// Params is the command's parameters, in order.
	Params []Param
	// Fn executes the command.
	Fn Func
}

// Usage formats the command's invocation syntax.
func (s *Spec) Usage(prefix string) string {
	u := prefix + s.Name
	for _, p := range s.Params {
		if p.Optional {
			u += " [" + p.Name + "]"
		} else {
			u += " <" + p.Name + ">"
		}
	}
	return u
}

// Kind is the type of a command parameter.
type Kind int

const (
	// Word is a single word, or a double-quoted phrase.
	Word Kind = iota
	// Text is the remainder of the message.
	Text
	// Int is an integer.
	Int
	// Member is a server member by mention, ID, or name.
	Member
	// Channel is a text channel by mention, ID, or name.
	Channel
)

// Param is a command parameter.
type Param struct {
	Name     string
	Kind     Kind
	Optional bool
}

// Args is the converted arguments of a command. Absent optional arguments
// have no entry.
type Args map[string]any

// String returns a Word or Text argument.
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Int returns an Int argument and whether it was provided.
func (a Args) Int(name string) (int, bool) {
	n, ok := a[name].(int)
	return n, ok
}

// Member returns a Member argument, or nil if it was not provided.
func (a Args) Member(name string) *message.Member {
	m, _ := a[name].(*message.Member)
	return m
}

// Channel returns a Channel argument, or nil if it was not provided.
func (a Args) Channel(name string) *message.Channel {
	c, _ := a[name].(*message.Channel)
	return c
}
