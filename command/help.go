package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/zephyrtronium/warden/message"
)

// Help lists the available commands, or describes one.
//   - command: Command to describe. If absent, all commands are listed.
func Help(ctx context.Context, robo *Robot, call *Invocation) error {
	d := call.Dispatcher
	prefix := d.Prefix()
	if n := call.Args.String("command"); n != "" {
		s := d.Lookup(strings.ToLower(strings.TrimPrefix(n, prefix)))
		if s == nil {
			return robo.say(ctx, call, Describe(prefix, ErrCommandNotFound))
		}
		c := &message.Card{
			Title:       s.Usage(prefix),
			Description: s.Help,
			Color:       message.Blue,
		}
		if len(s.Aliases) != 0 {
			c.Add("Aliases", strings.Join(s.Aliases, ", "), false)
		}
		if s.Perm != PermNone {
			c.Add("Requires", s.Perm.String(), false)
		}
		return robo.card(ctx, call, c)
	}
	c := &message.Card{
		Title:       "📖 Bot Commands",
		Description: fmt.Sprintf("Use `%shelp <command>` for details on a command.", prefix),
		Color:       message.Blue,
	}
	switch {
	case robo.Owner != "" && robo.Contact != "":
		c.Footer = fmt.Sprintf("Run by %s. Contact: %s", robo.Owner, robo.Contact)
	case robo.Owner != "":
		c.Footer = "Run by " + robo.Owner
	}
	specs := d.Specs()
	for _, g := range groups {
		var b strings.Builder
		for _, s := range specs {
			if s.Group != g {
				continue
			}
			fmt.Fprintf(&b, "`%s` - %s\n", s.Usage(prefix), s.Help)
		}
		if b.Len() != 0 {
			c.Add(g, strings.TrimSuffix(b.String(), "\n"), false)
		}
	}
	return robo.card(ctx, call, c)
}
