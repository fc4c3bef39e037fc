package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zephyrtronium/warden/message"
)

const dateFormat = "2006-01-02"

// Ping reports the platform connection latency.
// No arguments.
func Ping(ctx context.Context, robo *Robot, call *Invocation) error {
	ms := robo.Platform.Latency().Round(time.Millisecond).Milliseconds()
	c := &message.Card{Title: "🏓 Pong!", Color: message.Blue}
	c.Add("Latency", fmt.Sprintf("%dms", ms), true)
	return robo.card(ctx, call, c)
}

// Hello greets the invoker.
// No arguments.
func Hello(ctx context.Context, robo *Robot, call *Invocation) error {
	return robo.say(ctx, call, fmt.Sprintf("👋 Hello %s! How can I help you?", call.Author().Mention()))
}

// ServerInfo describes the server.
// No arguments.
func ServerInfo(ctx context.Context, robo *Robot, call *Invocation) error {
	g, err := robo.Platform.Guild(ctx, call.Message.Guild)
	if err != nil {
		return fmt.Errorf("couldn't get server: %w", err)
	}
	c := &message.Card{Title: g.Name + " Info", Color: message.Purple, Thumbnail: g.Icon}
	owner := message.User{ID: g.Owner}
	c.Add("Members", strconv.Itoa(g.Members), true).
		Add("Channels", strconv.Itoa(g.Channels), true).
		Add("Roles", strconv.Itoa(g.Roles), true).
		Add("Owner", owner.Mention(), true).
		Add("Created", g.Created.Format(dateFormat), true)
	return robo.card(ctx, call, c)
}

// target returns the member named by the user argument, defaulting to the
// invoker.
func target(call *Invocation) *message.Member {
	if m := call.Args.Member("user"); m != nil {
		return m
	}
	return call.Author()
}

// UserInfo describes a member.
//   - user: Member to describe. Defaults to the invoker.
func UserInfo(ctx context.Context, robo *Robot, call *Invocation) error {
	m := target(call)
	p, err := robo.Points.Points(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("couldn't get points: %w", err)
	}
	roles := strings.Join(m.RoleMentions(), ", ")
	if roles == "" {
		roles = "No roles"
	}
	c := &message.Card{Title: m.Name + "'s Profile", Color: m.Color, Thumbnail: m.Avatar}
	c.Add("ID", strconv.FormatInt(m.ID, 10), false).
		Add("Joined Server", m.Joined.Format(dateFormat), true).
		Add("Account Created", m.Created.Format(dateFormat), true).
		Add("Points", strconv.FormatInt(p, 10), true).
		Add("Roles", roles, true)
	return robo.card(ctx, call, c)
}

// Avatar shows a member's avatar.
//   - user: Member whose avatar to show. Defaults to the invoker.
func Avatar(ctx context.Context, robo *Robot, call *Invocation) error {
	m := target(call)
	c := &message.Card{Title: m.Name + "'s Avatar", Color: m.Color, Image: m.Avatar}
	return robo.card(ctx, call, c)
}
