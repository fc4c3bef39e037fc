package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/zephyrtronium/warden/message"
	"github.com/zephyrtronium/warden/moderation"
)

// maxFields is the most fields a card can hold.
const maxFields = 25

// Warn records a warning against a member and lets them know privately.
//   - user: Member to warn.
//   - reason: Reason for the warning.
func Warn(ctx context.Context, robo *Robot, call *Invocation) error {
	m := call.Args.Member("user")
	mod := call.Author()
	w, n, err := robo.Moderation.Warn(ctx, &m.User, &mod.User, call.Args.String("reason"), call.Message.Time)
	switch {
	case err == nil: // do nothing
	case errors.Is(err, moderation.ErrSelf):
		return robo.say(ctx, call, "❌ You can't warn yourself!")
	default:
		return err
	}
	robo.Log.InfoContext(ctx, "warned",
		slog.Int64("user", m.ID),
		slog.Int64("by", mod.ID),
		slog.Int64("warning", w.ID),
		slog.Int64("count", n),
	)
	c := &message.Card{Title: "⚠️ User Warned", Color: message.Orange}
	c.Add("User", m.Mention(), true).
		Add("Reason", w.Reason, true).
		Add("Total Warnings", strconv.FormatInt(n, 10), true)
	if err := robo.card(ctx, call, c); err != nil {
		return err
	}
	server := "the server"
	if g, err := robo.Platform.Guild(ctx, call.Message.Guild); err == nil {
		server = g.Name
	}
	dm := message.Format(0, "You have been warned in %s for: %s", server, w.Reason)
	if err := robo.Platform.DirectMessage(ctx, m.ID, dm); err != nil {
		// Members can disable direct messages. That's fine.
		robo.Log.DebugContext(ctx, "couldn't notify warned member", slog.Int64("user", m.ID), slog.Any("err", err))
	}
	return nil
}

// Warnings lists a member's warnings, newest first.
//   - user: Member whose warnings to list.
func Warnings(ctx context.Context, robo *Robot, call *Invocation) error {
	m := call.Args.Member("user")
	ws, err := robo.Moderation.Warnings(ctx, m.ID)
	if err != nil {
		return err
	}
	if len(ws) == 0 {
		return robo.say(ctx, call, m.Mention()+" has no warnings.")
	}
	c := &message.Card{Title: "⚠️ Warnings for " + m.Name, Color: message.Orange}
	for i, w := range ws {
		if i == maxFields {
			c.Footer = fmt.Sprintf("Showing %d of %d warnings", maxFields, len(ws))
			break
		}
		v := fmt.Sprintf("**Reason:** %s\n**Date:** %s", w.Reason, w.Time.Format(time.DateTime))
		c.Add(fmt.Sprintf("Warning #%d", i+1), v, false)
	}
	return robo.card(ctx, call, c)
}

// removal describes a kick or ban for shared handling.
type removal struct {
	verb  string
	title string
	color int
	do    func(ctx context.Context, guild, user int64, reason string) error
}

func remove(ctx context.Context, robo *Robot, call *Invocation, r removal) error {
	m := call.Args.Member("user")
	if m.ID == call.Author().ID {
		return robo.say(ctx, call, "❌ You can't "+r.verb+" yourself!")
	}
	reason := call.Args.String("reason")
	if reason == "" {
		reason = moderation.DefaultReason
	}
	err := r.do(ctx, call.Message.Guild, m.ID, reason)
	switch {
	case err == nil: // do nothing
	case errors.Is(err, ErrForbidden):
		return robo.say(ctx, call, "❌ I don't have permission to "+r.verb+" this user.")
	default:
		return err
	}
	robo.Log.InfoContext(ctx, r.verb,
		slog.Int64("user", m.ID),
		slog.Int64("by", call.Author().ID),
		slog.String("reason", reason),
	)
	c := &message.Card{Title: r.title, Color: r.color}
	c.Add("User", m.Mention(), true).Add("Reason", reason, true)
	return robo.card(ctx, call, c)
}

// Kick removes a member from the server.
//   - user: Member to kick.
//   - reason: Reason for the kick.
func Kick(ctx context.Context, robo *Robot, call *Invocation) error {
	return remove(ctx, robo, call, removal{
		verb:  "kick",
		title: "👢 User Kicked",
		color: message.Red,
		do:    robo.Platform.Kick,
	})
}

// Ban bans a member from the server.
//   - user: Member to ban.
//   - reason: Reason for the ban.
func Ban(ctx context.Context, robo *Robot, call *Invocation) error {
	return remove(ctx, robo, call, removal{
		verb:  "ban",
		title: "🔨 User Banned",
		color: message.DarkRed,
		do:    robo.Platform.Ban,
	})
}

// Purge limits.
const (
	PurgeMin = 1
	PurgeMax = 100
)

// ValidPurge reports whether n is an acceptable number of messages to purge.
func ValidPurge(n int) bool {
	return PurgeMin <= n && n <= PurgeMax
}

// purgeNotice is how long the purge confirmation stays visible.
const purgeNotice = 5 * time.Second

// Purge deletes recent messages in the channel, including the invocation.
//   - amount: Number of messages to delete, between 1 and 100.
func Purge(ctx context.Context, robo *Robot, call *Invocation) error {
	n, _ := call.Args.Int("amount")
	if !ValidPurge(n) {
		return robo.say(ctx, call, fmt.Sprintf("❌ Please provide a number between %d and %d.", PurgeMin, PurgeMax))
	}
	k, err := robo.Platform.Purge(ctx, call.Message.Channel, n)
	if err != nil {
		return fmt.Errorf("couldn't delete messages: %w", err)
	}
	robo.Log.InfoContext(ctx, "purged",
		slog.Int64("channel", call.Message.Channel),
		slog.Int("requested", n),
		slog.Int("deleted", k),
	)
	c := &message.Card{Title: "🗑️ Messages Deleted", Color: message.Red}
	c.Add("Count", strconv.Itoa(k), true)
	id, err := robo.reply(ctx, call, message.Sent{Card: c})
	if err != nil {
		return err
	}
	robo.Platform.DeleteAfter(ctx, call.Message.Channel, id, purgeNotice)
	return nil
}
