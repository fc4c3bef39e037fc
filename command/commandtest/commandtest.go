// Package commandtest provides a fake chat platform for testing commands and
// the components that drive them.
package commandtest

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/zephyrtronium/warden/command"
	"github.com/zephyrtronium/warden/message"
)

// Platform is an in-memory [command.Platform] which records what is done
// through it. Fields may be set before use; the recorded fields should be
// read only once the code under test has finished with the platform, or
// through the methods which copy them.
type Platform struct {
	mu sync.Mutex

	Server   message.Guild
	Members  map[int64]*message.Member
	Channels map[int64]*message.Channel
	Perms    map[int64]command.Perm
	Ping     time.Duration

	// Forbid makes kicks and bans fail with ErrForbidden.
	Forbid bool
	// NoDM makes direct messages fail.
	NoDM bool
	// SyncErr is returned from SyncCommands.
	SyncErr error
	// Available caps the number of messages Purge reports deleting, as if
	// the channel held only that many. Zero means no cap.
	Available int

	Sent      []message.Sent
	DMs       map[int64][]message.Sent
	Deleted   []int64
	Later     []int64
	Purged    []int
	Kicked    []int64
	Banned    []int64
	Presences []message.Activity
	Syncs     int
	// Next is the ID of the most recently sent message.
	Next int64
}

// New creates a fake platform for a server with the given ID and name.
func New(guild int64, name string) *Platform {
	return &Platform{
		Server:   message.Guild{ID: guild, Name: name},
		Members:  make(map[int64]*message.Member),
		Channels: make(map[int64]*message.Channel),
		Perms:    make(map[int64]command.Perm),
		DMs:      make(map[int64][]message.Sent),
		Next:     1000,
	}
}

// AddMember adds a member to the server.
func (p *Platform) AddMember(id int64, name string, perm command.Perm) *message.Member {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := &message.Member{
		User:   message.User{ID: id, Name: name},
		Guild:  p.Server.ID,
		Joined: time.Unix(1700000000, 0),
	}
	p.Members[id] = m
	p.Perms[id] = perm
	p.Server.Members++
	return m
}

// AddChannel adds a channel, possibly in another server.
func (p *Platform) AddChannel(id, guild int64, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Channels[id] = &message.Channel{ID: id, Guild: guild, Name: name}
	if guild == p.Server.ID {
		p.Server.Channels++
	}
}

// Message creates a message in a channel of the server from a member.
func (p *Platform) Message(id, channel, from int64, text string) *message.Received {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &message.Received{
		ID:      id,
		Channel: channel,
		Guild:   p.Server.ID,
		Author:  *p.Members[from],
		Text:    text,
		Time:    time.Unix(1700000000, 0),
	}
}

func (p *Platform) Send(ctx context.Context, msg message.Sent) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Sent = append(p.Sent, msg)
	p.Next++
	return p.Next, nil
}

func (p *Platform) DirectMessage(ctx context.Context, user int64, msg message.Sent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.NoDM {
		return command.ErrForbidden
	}
	p.DMs[user] = append(p.DMs[user], msg)
	return nil
}

func (p *Platform) Delete(ctx context.Context, channel, id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Deleted = append(p.Deleted, id)
	return nil
}

func (p *Platform) DeleteAfter(ctx context.Context, channel, id int64, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Later = append(p.Later, id)
}

func (p *Platform) Purge(ctx context.Context, channel int64, n int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Purged = append(p.Purged, n)
	if p.Available > 0 && n > p.Available {
		return p.Available, nil
	}
	return n, nil
}

func (p *Platform) Kick(ctx context.Context, guild, user int64, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Forbid {
		return command.ErrForbidden
	}
	p.Kicked = append(p.Kicked, user)
	return nil
}

func (p *Platform) Ban(ctx context.Context, guild, user int64, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Forbid {
		return command.ErrForbidden
	}
	p.Banned = append(p.Banned, user)
	return nil
}

func (p *Platform) SetPresence(ctx context.Context, a message.Activity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Presences = append(p.Presences, a)
	return nil
}

func (p *Platform) SyncCommands(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Syncs++
	return 0, p.SyncErr
}

func (p *Platform) Member(ctx context.Context, guild, user int64) (*message.Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := p.Members[user]
	if m == nil || guild != p.Server.ID {
		return nil, command.ErrNotFound
	}
	r := *m
	return &r, nil
}

func (p *Platform) FindMember(ctx context.Context, guild int64, name string) (*message.Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if guild != p.Server.ID {
		return nil, command.ErrNotFound
	}
	for _, m := range p.Members {
		if m.Name == name {
			r := *m
			return &r, nil
		}
	}
	return nil, command.ErrNotFound
}

func (p *Platform) Guild(ctx context.Context, guild int64) (*message.Guild, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if guild != p.Server.ID {
		return nil, command.ErrNotFound
	}
	g := p.Server
	return &g, nil
}

func (p *Platform) Channel(ctx context.Context, channel int64) (*message.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.Channels[channel]
	if c == nil {
		return nil, command.ErrNotFound
	}
	r := *c
	return &r, nil
}

func (p *Platform) FindChannel(ctx context.Context, guild int64, name string) (*message.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.Channels {
		if c.Guild == guild && c.Name == name {
			r := *c
			return &r, nil
		}
	}
	return nil, command.ErrNotFound
}

func (p *Platform) Permissions(ctx context.Context, guild, channel, user int64) (command.Perm, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Perms[user], nil
}

func (p *Platform) Latency() time.Duration {
	return p.Ping
}

// Last returns the most recently sent message.
func (p *Platform) Last(t *testing.T) message.Sent {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Sent) == 0 {
		t.Fatal("nothing sent")
	}
	return p.Sent[len(p.Sent)-1]
}

// SentMessages returns a copy of the messages sent so far.
func (p *Platform) SentMessages() []message.Sent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.Sent)
}

// DirectMessages returns a copy of the direct messages sent to a user so far.
func (p *Platform) DirectMessages(user int64) []message.Sent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.DMs[user])
}

// PresenceUpdates returns a copy of the presences set so far.
func (p *Platform) PresenceUpdates() []message.Activity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.Presences)
}

// SyncCount returns the number of command syncs so far.
func (p *Platform) SyncCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Syncs
}

var _ command.Platform = (*Platform)(nil)
