package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"github.com/zephyrtronium/warden/command"
	"github.com/zephyrtronium/warden/message"
	"github.com/zephyrtronium/warden/router"
)

// intents are the gateway intents the bot needs. Message content and guild
// members are privileged and must be enabled for the application.
const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent |
	discordgo.IntentsDirectMessages

// discord is the Discord implementation of [command.Platform].
type discord struct {
	session *discordgo.Session
	// rate is the global rate limit for sending messages.
	rate *rate.Limiter
}

var _ command.Platform = (*discord)(nil)

func newDiscord(token string, lim *rate.Limiter) (*discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = intents
	// The router moves work off of the event loop itself.
	session.SyncEvents = true
	session.StateEnabled = true
	return &discord{session: session, rate: lim}, nil
}

// route registers event handlers which feed r. Handlers use ctx for all work.
func (d *discord) route(ctx context.Context, r *router.Router) {
	d.session.AddHandler(func(s *discordgo.Session, ev *discordgo.Connect) {
		r.Connecting()
	})
	d.session.AddHandler(func(s *discordgo.Session, ev *discordgo.Disconnect) {
		r.Disconnected()
	})
	d.session.AddHandler(func(s *discordgo.Session, ev *discordgo.Ready) {
		info := router.Info{
			User:   message.FromDiscordUser(ev.User),
			Guilds: len(ev.Guilds),
		}
		r.Ready(ctx, info)
	})
	d.session.AddHandler(func(s *discordgo.Session, ev *discordgo.Resumed) {
		r.Resumed(ctx)
	})
	d.session.AddHandler(func(s *discordgo.Session, ev *discordgo.GuildMemberAdd) {
		m := message.FromDiscordMember(ev.Member, nil)
		r.MemberJoin(ctx, &m)
	})
	d.session.AddHandler(func(s *discordgo.Session, ev *discordgo.GuildMemberRemove) {
		m := message.FromDiscordMember(ev.Member, nil)
		r.MemberLeave(ctx, &m)
	})
	d.session.AddHandler(func(s *discordgo.Session, ev *discordgo.MessageCreate) {
		r.Message(ctx, message.FromDiscord(ev.Message))
	})
}

// open connects to the gateway and closes the connection when ctx ends.
func (d *discord) open(ctx context.Context) error {
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("couldn't connect to Discord: %w", err)
	}
	<-ctx.Done()
	if err := d.session.Close(); err != nil {
		return fmt.Errorf("couldn't close Discord connection: %w", err)
	}
	return nil
}

// resterr translates a Discord API error to the platform errors commands
// understand.
func resterr(err error) error {
	var re *discordgo.RESTError
	if !errors.As(err, &re) || re.Response == nil {
		return err
	}
	switch re.Response.StatusCode {
	case http.StatusForbidden:
		return fmt.Errorf("%w: %w", command.ErrForbidden, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", command.ErrNotFound, err)
	default:
		return err
	}
}

func (d *discord) Send(ctx context.Context, msg message.Sent) (int64, error) {
	if err := d.rate.Wait(ctx); err != nil {
		return 0, err
	}
	m, err := d.session.ChannelMessageSendComplex(message.FormatID(msg.Channel), message.ToDiscord(msg), discordgo.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("couldn't send message: %w", resterr(err))
	}
	id, _ := message.ParseID(m.ID)
	return id, nil
}

func (d *discord) DirectMessage(ctx context.Context, user int64, msg message.Sent) error {
	ch, err := d.session.UserChannelCreate(message.FormatID(user), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("couldn't open direct message channel: %w", resterr(err))
	}
	msg.Channel, _ = message.ParseID(ch.ID)
	msg.Reply = 0
	_, err = d.Send(ctx, msg)
	return err
}

func (d *discord) Delete(ctx context.Context, channel, id int64) error {
	err := d.session.ChannelMessageDelete(message.FormatID(channel), message.FormatID(id), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("couldn't delete message: %w", resterr(err))
	}
	return nil
}

func (d *discord) DeleteAfter(ctx context.Context, channel, id int64, after time.Duration) {
	go func() {
		t := time.NewTimer(after)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		if err := d.Delete(ctx, channel, id); err != nil {
			slog.DebugContext(ctx, "couldn't delete message later", slog.Int64("id", id), slog.Any("err", err))
		}
	}()
}

func (d *discord) Purge(ctx context.Context, channel int64, n int) (int, error) {
	ch := message.FormatID(channel)
	msgs, err := d.session.ChannelMessages(ch, n, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("couldn't get messages: %w", resterr(err))
	}
	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	err = d.session.ChannelMessagesBulkDelete(ch, ids, discordgo.WithContext(ctx))
	if err == nil {
		return len(ids), nil
	}
	if errors.Is(resterr(err), command.ErrForbidden) {
		return 0, fmt.Errorf("couldn't delete messages: %w", resterr(err))
	}
	// Bulk deletion refuses messages older than two weeks. Fall back to
	// deleting one at a time.
	slog.DebugContext(ctx, "bulk delete failed", slog.Any("err", err))
	k := 0
	for _, id := range ids {
		if err := d.session.ChannelMessageDelete(ch, id, discordgo.WithContext(ctx)); err != nil {
			slog.DebugContext(ctx, "couldn't delete message", slog.String("id", id), slog.Any("err", err))
			continue
		}
		k++
	}
	return k, nil
}

func (d *discord) Kick(ctx context.Context, guild, user int64, reason string) error {
	err := d.session.GuildMemberDeleteWithReason(message.FormatID(guild), message.FormatID(user), reason, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("couldn't kick: %w", resterr(err))
	}
	return nil
}

func (d *discord) Ban(ctx context.Context, guild, user int64, reason string) error {
	err := d.session.GuildBanCreateWithReason(message.FormatID(guild), message.FormatID(user), reason, 0, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("couldn't ban: %w", resterr(err))
	}
	return nil
}

func (d *discord) SetPresence(ctx context.Context, a message.Activity) error {
	usd := discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{message.ToDiscordActivity(a)},
		Status:     string(discordgo.StatusOnline),
	}
	return d.session.UpdateStatusComplex(usd)
}

// SyncCommands clears the application's slash commands. All commands use the
// prefix, so the registry is kept empty to avoid stale entries.
func (d *discord) SyncCommands(ctx context.Context) (int, error) {
	u := d.session.State.User
	if u == nil {
		return 0, errors.New("no application identity")
	}
	cmds, err := d.session.ApplicationCommandBulkOverwrite(u.ID, "", []*discordgo.ApplicationCommand{}, discordgo.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("couldn't sync commands: %w", resterr(err))
	}
	return len(cmds), nil
}

func (d *discord) Member(ctx context.Context, guild, user int64) (*message.Member, error) {
	g, u := message.FormatID(guild), message.FormatID(user)
	m, err := d.session.State.Member(g, u)
	if err != nil {
		m, err = d.session.GuildMember(g, u, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("couldn't get member: %w", resterr(err))
		}
	}
	return d.member(g, m), nil
}

func (d *discord) FindMember(ctx context.Context, guild int64, name string) (*message.Member, error) {
	g := message.FormatID(guild)
	if sg, err := d.session.State.Guild(g); err == nil {
		for _, m := range sg.Members {
			if matchMember(m, name) {
				return d.member(g, m), nil
			}
		}
	}
	ms, err := d.session.GuildMembersSearch(g, name, 10, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("couldn't search members: %w", resterr(err))
	}
	for _, m := range ms {
		if matchMember(m, name) {
			return d.member(g, m), nil
		}
	}
	return nil, command.ErrNotFound
}

// matchMember reports whether a member is known by the given name.
func matchMember(m *discordgo.Member, name string) bool {
	if m.User == nil {
		return false
	}
	return strings.EqualFold(m.User.Username, name) ||
		strings.EqualFold(m.User.GlobalName, name) ||
		strings.EqualFold(m.Nick, name)
}

// member converts a member and fills in its color from the state cache.
func (d *discord) member(guild string, m *discordgo.Member) *message.Member {
	r := message.FromDiscordMember(m, nil)
	if r.Guild == 0 {
		r.Guild, _ = message.ParseID(guild)
	}
	g, err := d.session.State.Guild(guild)
	if err != nil {
		return &r
	}
	pos := -1
	for _, role := range g.Roles {
		if role.Color == 0 || role.Position <= pos {
			continue
		}
		for _, id := range m.Roles {
			if id == role.ID {
				r.Color, pos = role.Color, role.Position
				break
			}
		}
	}
	return &r
}

func (d *discord) Guild(ctx context.Context, guild int64) (*message.Guild, error) {
	id := message.FormatID(guild)
	g, err := d.session.State.Guild(id)
	if err != nil {
		g, err = d.session.GuildWithCounts(id, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("couldn't get server: %w", resterr(err))
		}
		if g.MemberCount == 0 {
			g.MemberCount = g.ApproximateMemberCount
		}
		if len(g.Channels) == 0 {
			g.Channels, _ = d.session.GuildChannels(id, discordgo.WithContext(ctx))
		}
	}
	return message.FromDiscordGuild(g), nil
}

func (d *discord) Channel(ctx context.Context, channel int64) (*message.Channel, error) {
	id := message.FormatID(channel)
	c, err := d.session.State.Channel(id)
	if err != nil {
		c, err = d.session.Channel(id, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("couldn't get channel: %w", resterr(err))
		}
	}
	return message.FromDiscordChannel(c), nil
}

func (d *discord) FindChannel(ctx context.Context, guild int64, name string) (*message.Channel, error) {
	g := message.FormatID(guild)
	var chs []*discordgo.Channel
	if sg, err := d.session.State.Guild(g); err == nil && len(sg.Channels) != 0 {
		chs = sg.Channels
	} else {
		chs, err = d.session.GuildChannels(g, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("couldn't get channels: %w", resterr(err))
		}
	}
	for _, c := range chs {
		if !textChannel(c.Type) {
			continue
		}
		if strings.EqualFold(c.Name, name) {
			return message.FromDiscordChannel(c), nil
		}
	}
	return nil, command.ErrNotFound
}

func textChannel(t discordgo.ChannelType) bool {
	return t == discordgo.ChannelTypeGuildText || t == discordgo.ChannelTypeGuildNews
}

func (d *discord) Permissions(ctx context.Context, guild, channel, user int64) (command.Perm, error) {
	p, err := d.session.UserChannelPermissions(message.FormatID(user), message.FormatID(channel), discordgo.WithContext(ctx))
	if err != nil {
		return command.PermNone, fmt.Errorf("couldn't get permissions: %w", resterr(err))
	}
	return perms(p), nil
}

// perms converts Discord permission bits to command permissions.
func perms(p int64) command.Perm {
	var r command.Perm
	m := []struct {
		discord int64
		perm    command.Perm
	}{
		{discordgo.PermissionAdministrator, command.PermAdmin},
		{discordgo.PermissionModerateMembers, command.PermModerate},
		{discordgo.PermissionKickMembers, command.PermKick},
		{discordgo.PermissionBanMembers, command.PermBan},
		{discordgo.PermissionManageMessages, command.PermManageMessages},
	}
	for _, b := range m {
		if p&b.discord != 0 {
			r |= b.perm
		}
	}
	return r
}

func (d *discord) Latency() time.Duration {
	return d.session.HeartbeatLatency()
}
