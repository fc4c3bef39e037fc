package command_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/zephyrtronium/warden/command"
	"github.com/zephyrtronium/warden/message"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name   string
		prefix string
		text   string
		cmd    string
		rest   string
		ok     bool
	}{
		{"empty", "!", "", "", "", false},
		{"plain", "!", "hello there", "", "", false},
		{"bare", "!", "!ping", "ping", "", true},
		{"args", "!", "!roll 6", "roll", "6", true},
		{"case", "!", "!PiNg", "ping", "", true},
		{"spaces", "!", "!warn   <@3>   spam  ", "warn", "<@3>   spam", true},
		{"prefix-only", "!", "!", "", "", false},
		{"prefix-space", "!", "! ping", "", "", false},
		{"long-prefix", "w!", "w!help", "help", "", true},
		{"wrong-prefix", "w!", "!help", "", "", false},
		{"no-prefix", "", "help", "", "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cmd, rest, ok := command.Parse(c.prefix, c.text)
			if cmd != c.cmd || rest != c.rest || ok != c.ok {
				t.Errorf("wrong parse of %q: want (%q, %q, %t), got (%q, %q, %t)", c.text, c.cmd, c.rest, c.ok, cmd, rest, ok)
			}
		})
	}
}

func TestNewDispatcherDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("no panic for duplicate names")
		}
	}()
	specs := []command.Spec{
		{Name: "a", Aliases: []string{"b"}},
		{Name: "b"},
	}
	command.NewDispatcher("!", specs)
}

func TestCommandsRegister(t *testing.T) {
	d := command.NewDispatcher("!", command.Commands())
	want := []string{
		"ping", "hello", "serverinfo", "userinfo", "avatar",
		"roll", "8ball", "coin", "joke", "meme", "choose",
		"points", "leaderboard",
		"warn", "warnings", "kick", "ban", "purge",
		"say", "embed", "announce",
		"help",
	}
	for _, n := range want {
		if d.Lookup(n) == nil {
			t.Errorf("command %q not registered", n)
		}
	}
	if got := len(d.Specs()); got != len(want) {
		t.Errorf("wrong number of commands: want %d, got %d", len(want), got)
	}
}

func TestDispatchNotCommand(t *testing.T) {
	robo, p := testRobot(t)
	d := command.NewDispatcher("!", command.Commands())
	name, ok, err := d.Dispatch(context.Background(), robo, msg(p, 3, "just chatting"))
	if name != "" || ok || err != nil {
		t.Errorf("wrong dispatch of non-command: got (%q, %t, %v)", name, ok, err)
	}
	if len(p.Sent) != 0 {
		t.Errorf("sent messages for non-command: %+v", p.Sent)
	}
}

func TestDispatchUnknown(t *testing.T) {
	ctx := context.Background()
	robo, p := testRobot(t)
	d := command.NewDispatcher("!", command.Commands())
	name, ok, err := d.Dispatch(ctx, robo, msg(p, 1, "!frobnicate now"))
	if !ok {
		t.Error("unknown command not recognized as an invocation")
	}
	if name != "" {
		t.Errorf("unknown command resolved to %q", name)
	}
	if !errors.Is(err, command.ErrCommandNotFound) {
		t.Errorf("wrong error: want %v, got %v", command.ErrCommandNotFound, err)
	}
	want := "❌ Command not found. Use `!help` for available commands."
	if got := command.Describe("!", err); got != want {
		t.Errorf("wrong description: want %q, got %q", want, got)
	}
	if len(p.Sent) != 0 {
		t.Errorf("unknown command sent messages: %+v", p.Sent)
	}
}

func TestDispatchPermission(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		from int64
		text string
		ok   bool
	}{
		{"none-warn", 3, "!warn ryou spam", false},
		{"none-kick", 3, "!kick ryou", false},
		{"none-say", 3, "!say hi", false},
		{"mod-warn", 2, "!warn bocchi spam", true},
		{"mod-kick", 2, "!kick bocchi", false},
		{"mod-purge", 2, "!purge 3", true},
		{"mod-say", 2, "!say hi", false},
		{"admin-kick", 1, "!kick bocchi", true},
		{"admin-ban", 1, "!ban bocchi", true},
		{"admin-say", 1, "!say hi", true},
		{"none-ping", 3, "!ping", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			robo, p := testRobot(t)
			d := command.NewDispatcher("!", command.Commands())
			_, _, err := d.Dispatch(ctx, robo, msg(p, c.from, c.text))
			var perm *command.MissingPermissionError
			denied := errors.As(err, &perm)
			if denied == c.ok {
				t.Errorf("wrong permission result: want allowed=%t, got err %v", c.ok, err)
			}
			if !c.ok {
				if len(p.Sent) != 0 || len(p.Kicked) != 0 || len(p.Deleted) != 0 {
					t.Errorf("denied command had effects: sent %+v kicked %v deleted %v", p.Sent, p.Kicked, p.Deleted)
				}
				want := "❌ You don't have permission to use this command."
				if got := command.Describe("!", err); got != want {
					t.Errorf("wrong description: want %q, got %q", want, got)
				}
			}
		})
	}
}

func TestDispatchDirectMessage(t *testing.T) {
	ctx := context.Background()
	robo, p := testRobot(t)
	d := command.NewDispatcher("!", command.Commands())
	m := msg(p, 1, "!serverinfo")
	m.Guild = 0
	_, _, err := d.Dispatch(ctx, robo, m)
	if !errors.Is(err, command.ErrGuildOnly) {
		t.Errorf("wrong error for server command in DM: want %v, got %v", command.ErrGuildOnly, err)
	}
	m = msg(p, 1, "!hello")
	m.Guild = 0
	if _, _, err := d.Dispatch(ctx, robo, m); err != nil {
		t.Errorf("couldn't say hello in DM: %v", err)
	}
}

func TestDispatchArguments(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		text string
		// kind is the expected error kind, or empty for success.
		kind string
	}{
		{"missing-user", "!warn", "missing_argument"},
		{"missing-amount", "!purge", "missing_argument"},
		{"bad-int", "!roll six", "bad_argument"},
		{"bad-amount", "!purge lots", "bad_argument"},
		{"unknown-member", "!warn nobody spam", "bad_argument"},
		{"unknown-channel", "!announce #nowhere hello", "bad_argument"},
		{"foreign-channel", "!announce <#30> hello", "bad_argument"},
		{"zero-mention", "!warnings <@0>", "bad_argument"},
		{"negative-mention", "!warnings <@!-3>", "bad_argument"},
		{"zero-channel", "!announce <#0> hello", "bad_argument"},
		{"mention", "!warnings <@3>", ""},
		{"mention-nick", "!warnings <@!3>", ""},
		{"id", "!warnings 3", ""},
		{"name", "!warnings bocchi", ""},
		{"channel-mention", "!announce <#21> hello everyone", ""},
		{"channel-name", "!announce #news hello everyone", ""},
		{"quoted", `!embed "big news" it is here`, ""},
		{"optional", "!roll", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			robo, p := testRobot(t)
			d := command.NewDispatcher("!", command.Commands())
			_, _, err := d.Dispatch(ctx, robo, msg(p, 1, c.text))
			if c.kind == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("no error")
			}
			if got := command.ErrorKind(err); got != c.kind {
				t.Errorf("wrong error kind: want %s, got %s (%v)", c.kind, got, err)
			}
			if len(p.Sent) != 0 {
				t.Errorf("failed conversion had effects: %+v", p.Sent)
			}
		})
	}
}

func TestDispatchPanic(t *testing.T) {
	robo, p := testRobot(t)
	specs := []command.Spec{{
		Name: "boom",
		Fn: func(ctx context.Context, robo *command.Robot, call *command.Invocation) error {
			panic("kaboom")
		},
	}}
	d := command.NewDispatcher("!", specs)
	name, ok, err := d.Dispatch(context.Background(), robo, msg(p, 3, "!boom"))
	if name != "boom" || !ok {
		t.Errorf("wrong resolution: got (%q, %t)", name, ok)
	}
	var fault *command.HandlerError
	if !errors.As(err, &fault) {
		t.Fatalf("panic not converted to handler error: %v", err)
	}
	if !strings.Contains(err.Error(), "kaboom") {
		t.Errorf("panic value lost: %v", err)
	}
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"not-found", command.ErrCommandNotFound, "❌ Command not found. Use `!help` for available commands."},
		{"permission", &command.MissingPermissionError{Command: "ban", Missing: command.PermBan}, "❌ You don't have permission to use this command."},
		{"missing", &command.MissingArgumentError{Command: "warn", Param: "user"}, "❌ Missing required argument. Use `!help warn`"},
		{"bad", &command.BadArgumentError{Command: "roll", Param: "num", Value: "x"}, "❌ Invalid argument provided."},
		{"handler", &command.HandlerError{Command: "ping", Err: errors.New("oops")}, "❌ An error occurred: oops"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := command.Describe("!", c.err); got != c.want {
				t.Errorf("wrong description: want %q, got %q", c.want, got)
			}
		})
	}
}

func TestPermAllows(t *testing.T) {
	cases := []struct {
		have, need command.Perm
		want       bool
	}{
		{command.PermNone, command.PermNone, true},
		{command.PermNone, command.PermKick, false},
		{command.PermKick, command.PermKick, true},
		{command.PermKick, command.PermBan, false},
		{command.PermKick | command.PermBan, command.PermBan, true},
		{command.PermAdmin, command.PermBan, true},
		{command.PermAdmin, command.PermManageMessages | command.PermModerate, true},
		{command.PermModerate, command.PermAdmin, false},
	}
	for _, c := range cases {
		if got := c.have.Allows(c.need); got != c.want {
			t.Errorf("%v allows %v: want %t, got %t", c.have, c.need, c.want, got)
		}
	}
}

func TestUsage(t *testing.T) {
	d := command.NewDispatcher("!", command.Commands())
	cases := map[string]string{
		"ping":     "!ping",
		"warn":     "!warn <user> [reason]",
		"announce": "!announce <channel> <message>",
		"roll":     "!roll [num]",
	}
	for n, want := range cases {
		if got := d.Lookup(n).Usage("!"); got != want {
			t.Errorf("wrong usage for %s: want %q, got %q", n, want, got)
		}
	}
}

func TestHelp(t *testing.T) {
	ctx := context.Background()
	robo, p := testRobot(t)
	d := command.NewDispatcher("!", command.Commands())
	if _, _, err := d.Dispatch(ctx, robo, msg(p, 3, "!help")); err != nil {
		t.Fatal(err)
	}
	c := p.Last(t).Card
	if c == nil {
		t.Fatal("help sent no card")
	}
	var names []string
	for _, f := range c.Fields {
		names = append(names, f.Name)
		if f.Inline {
			t.Errorf("help field %q is inline", f.Name)
		}
	}
	want := []string{"⚙️ Utility", "🎮 Fun", "⭐ Points", "🛡️ Moderation", "👑 Admin"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("wrong help groups (-want +got):\n%s", diff)
	}
	if !strings.Contains(c.Fields[3].Value, "!warn <user> [reason]") {
		t.Errorf("moderation group lacks warn usage: %q", c.Fields[3].Value)
	}

	if _, _, err := d.Dispatch(ctx, robo, msg(p, 3, "!help kick")); err != nil {
		t.Fatal(err)
	}
	c = p.Last(t).Card
	if c == nil || c.Title != "!kick <user> [reason]" {
		t.Errorf("wrong help for kick: %+v", c)
	}

	if _, _, err := d.Dispatch(ctx, robo, msg(p, 3, "!help frobnicate")); err != nil {
		t.Fatal(err)
	}
	if got := p.Last(t).Text; !strings.HasPrefix(got, "❌ Command not found.") {
		t.Errorf("wrong help for unknown command: %q", got)
	}
}

func TestSayDeletesInvocation(t *testing.T) {
	ctx := context.Background()
	robo, p := testRobot(t)
	d := command.NewDispatcher("!", command.Commands())
	if _, _, err := d.Dispatch(ctx, robo, msg(p, 1, "!say  we are   kessoku band")); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int64{500}, p.Deleted); diff != "" {
		t.Errorf("wrong deletions (-want +got):\n%s", diff)
	}
	want := message.Sent{Channel: 20, Text: "we are   kessoku band"}
	if diff := cmp.Diff(want, p.Last(t)); diff != "" {
		t.Errorf("wrong message (-want +got):\n%s", diff)
	}
}

func TestAnnounce(t *testing.T) {
	ctx := context.Background()
	robo, p := testRobot(t)
	d := command.NewDispatcher("!", command.Commands())
	if _, _, err := d.Dispatch(ctx, robo, msg(p, 1, "!announce #news live tonight")); err != nil {
		t.Fatal(err)
	}
	if len(p.Sent) != 2 {
		t.Fatalf("wrong number of messages: %+v", p.Sent)
	}
	a := p.Sent[0]
	if a.Channel != 21 || a.Card == nil || a.Card.Description != "live tonight" || a.Card.Footer != "Announced by kita" {
		t.Errorf("wrong announcement: %+v %+v", a, a.Card)
	}
	if ack := p.Sent[1]; ack.Channel != 20 || ack.Text != "✅ Announcement sent to <#21>" {
		t.Errorf("wrong acknowledgement: %+v", ack)
	}
}
