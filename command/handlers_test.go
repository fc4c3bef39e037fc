package command_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/zephyrtronium/warden/command"
)

func TestRoll(t *testing.T) {
	for _, n := range []int{0, -5} {
		if _, err := command.Roll(n, func(int) int { return 0 }); !errors.Is(err, command.ErrRollRange) {
			t.Errorf("wrong error for %d faces: want %v, got %v", n, command.ErrRollRange, err)
		}
	}
	for k := range 6 {
		r, err := command.Roll(6, func(n int) int { return k % n })
		if err != nil {
			t.Fatal(err)
		}
		if r < 1 || r > 6 {
			t.Errorf("roll %d out of range", r)
		}
		if r != k+1 {
			t.Errorf("wrong roll: want %d, got %d", k+1, r)
		}
	}
}

func TestChoose(t *testing.T) {
	cases := []struct {
		name string
		in   string
		opts []string
		err  error
	}{
		{"one", "a", nil, command.ErrTooFewChoices},
		{"empty", "", nil, command.ErrTooFewChoices},
		{"blanks", "a, ,", nil, command.ErrTooFewChoices},
		{"two", "a,b", []string{"a", "b"}, nil},
		{"spaces", " pizza ,  tacos  , sushi", []string{"pizza", "tacos", "sushi"}, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var got []string
			for k := range 3 {
				r, err := command.Choose(c.in, func(n int) int { return k % n })
				if !errors.Is(err, c.err) {
					t.Fatalf("wrong error: want %v, got %v", c.err, err)
				}
				if err != nil {
					return
				}
				if !slices.Contains(c.opts, r) {
					t.Errorf("chose %q, not among %q", r, c.opts)
				}
				got = append(got, r)
			}
			if got[0] != c.opts[0] {
				t.Errorf("first pick should be first option: want %q, got %q", c.opts[0], got[0])
			}
		})
	}
}

func TestRollCommand(t *testing.T) {
	ctx := context.Background()
	robo, p := testRobot(t)
	d := command.NewDispatcher("!", command.Commands())
	if _, _, err := d.Dispatch(ctx, robo, msg(p, 3, "!roll 0")); err != nil {
		t.Fatal(err)
	}
	if got, want := p.Last(t).Text, "❌ Number must be greater than 0!"; got != want {
		t.Errorf("wrong reply to zero faces: want %q, got %q", want, got)
	}
	if _, _, err := d.Dispatch(ctx, robo, msg(p, 3, "!roll 6")); err != nil {
		t.Fatal(err)
	}
	c := p.Last(t).Card
	if c == nil || len(c.Fields) != 1 || c.Fields[0].Value != "**6** (1-6)" {
		t.Errorf("wrong roll card: %+v", c)
	}
}

func TestWarn(t *testing.T) {
	ctx := context.Background()
	robo, p := testRobot(t)
	d := command.NewDispatcher("!", command.Commands())
	if _, _, err := d.Dispatch(ctx, robo, msg(p, 2, "!warn <@3> posting in #general")); err != nil {
		t.Fatal(err)
	}
	if _, _, err := d.Dispatch(ctx, robo, msg(p, 2, "!warn bocchi")); err != nil {
		t.Fatal(err)
	}
	c := p.Last(t).Card
	if c == nil {
		t.Fatal("no warning card")
	}
	want := []string{"<@3>", "No reason provided", "2"}
	var got []string
	for _, f := range c.Fields {
		got = append(got, f.Value)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("wrong warning card (-want +got):\n%s", diff)
	}
	dms := p.DMs[3]
	if len(dms) != 2 {
		t.Fatalf("wrong number of DMs: %+v", dms)
	}
	if got, want := dms[0].Text, "You have been warned in kessoku for: posting in #general"; got != want {
		t.Errorf("wrong DM: want %q, got %q", want, got)
	}
	ws, err := robo.Moderation.Warnings(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 2 || ws[0].Reason != "No reason provided" || ws[1].Reason != "posting in #general" || ws[0].By != 2 {
		t.Errorf("wrong stored warnings: %+v", ws)
	}

	if _, _, err := d.Dispatch(ctx, robo, msg(p, 2, "!warnings bocchi")); err != nil {
		t.Fatal(err)
	}
	c = p.Last(t).Card
	if c == nil || len(c.Fields) != 2 || c.Fields[0].Name != "Warning #1" {
		t.Fatalf("wrong warnings card: %+v", c)
	}
	if !strings.Contains(c.Fields[1].Value, "posting in #general") {
		t.Errorf("oldest warning not last: %+v", c.Fields)
	}
}

func TestWarnNoDM(t *testing.T) {
	ctx := context.Background()
	robo, p := testRobot(t)
	p.NoDM = true
	d := command.NewDispatcher("!", command.Commands())
	if _, _, err := d.Dispatch(ctx, robo, msg(p, 2, "!warn bocchi spam")); err != nil {
		t.Errorf("undeliverable DM failed the warning: %v", err)
	}
	n, err := robo.Moderation.Count(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("warning not recorded: count %d", n)
	}
}

func TestWarnSelf(t *testing.T) {
	ctx := context.Background()
	robo, p := testRobot(t)
	d := command.NewDispatcher("!", command.Commands())
	if _, _, err := d.Dispatch(ctx, robo, msg(p, 2, "!warn ryou testing")); err != nil {
		t.Fatal(err)
	}
	if got, want := p.Last(t).Text, "❌ You can't warn yourself!"; got != want {
		t.Errorf("wrong reply: want %q, got %q", want, got)
	}
	n, err := robo.Moderation.Count(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("self-warning recorded: count %d", n)
	}
	if len(p.DMs) != 0 {
		t.Errorf("self-warning sent DMs: %+v", p.DMs)
	}
}

func TestWarningsNone(t *testing.T) {
	ctx := context.Background()
	robo, p := testRobot(t)
	d := command.NewDispatcher("!", command.Commands())
	if _, _, err := d.Dispatch(ctx, robo, msg(p, 2, "!warnings kita")); err != nil {
		t.Fatal(err)
	}
	if got, want := p.Last(t).Text, "<@1> has no warnings."; got != want {
		t.Errorf("wrong reply: want %q, got %q", want, got)
	}
}

func TestKickBan(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		text   string
		forbid bool
		reply  string
		kicked []int64
		banned []int64
	}{
		{"kick", "!kick bocchi too loud", false, "", []int64{3}, nil},
		{"ban", "!ban bocchi", false, "", nil, []int64{3}},
		{"kick-self", "!kick kita", false, "❌ You can't kick yourself!", nil, nil},
		{"ban-self", "!ban <@1> bye", false, "❌ You can't ban yourself!", nil, nil},
		{"kick-forbidden", "!kick ryou", true, "❌ I don't have permission to kick this user.", nil, nil},
		{"ban-forbidden", "!ban ryou", true, "❌ I don't have permission to ban this user.", nil, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			robo, p := testRobot(t)
			p.Forbid = c.forbid
			d := command.NewDispatcher("!", command.Commands())
			if _, _, err := d.Dispatch(ctx, robo, msg(p, 1, c.text)); err != nil {
				t.Fatal(err)
			}
			if c.reply != "" {
				if got := p.Last(t).Text; got != c.reply {
					t.Errorf("wrong reply: want %q, got %q", c.reply, got)
				}
			} else if p.Last(t).Card == nil {
				t.Errorf("no confirmation card")
			}
			if diff := cmp.Diff(c.kicked, p.Kicked); diff != "" {
				t.Errorf("wrong kicks (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(c.banned, p.Banned); diff != "" {
				t.Errorf("wrong bans (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPurge(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		text   string
		avail  int
		purged []int
		reply  string
		// count is the deleted count shown on the confirmation card.
		count string
	}{
		{"zero", "!purge 0", 0, nil, "❌ Please provide a number between 1 and 100.", ""},
		{"over", "!purge 101", 0, nil, "❌ Please provide a number between 1 and 100.", ""},
		{"negative", "!purge -3", 0, nil, "❌ Please provide a number between 1 and 100.", ""},
		{"fifty", "!purge 50", 0, []int{50}, "", "50"},
		{"max", "!purge 100", 0, []int{100}, "", "100"},
		{"fewer", "!purge 50", 12, []int{50}, "", "12"},
		{"one", "!purge 1", 12, []int{1}, "", "1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			robo, p := testRobot(t)
			p.Available = c.avail
			d := command.NewDispatcher("!", command.Commands())
			if _, _, err := d.Dispatch(ctx, robo, msg(p, 2, c.text)); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(c.purged, p.Purged); diff != "" {
				t.Errorf("wrong purges (-want +got):\n%s", diff)
			}
			last := p.Last(t)
			if c.reply != "" {
				if last.Text != c.reply {
					t.Errorf("wrong reply: want %q, got %q", c.reply, last.Text)
				}
				if len(p.Later) != 0 {
					t.Errorf("scheduled deletions after rejected purge: %v", p.Later)
				}
				return
			}
			if last.Card == nil || len(last.Card.Fields) == 0 || last.Card.Fields[0].Value != c.count {
				t.Errorf("wrong purge card: %+v", last.Card)
			}
			if diff := cmp.Diff([]int64{p.Next}, p.Later); diff != "" {
				t.Errorf("confirmation not scheduled for deletion (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidPurge(t *testing.T) {
	for n := -2; n <= 102; n++ {
		want := n >= 1 && n <= 100
		if got := command.ValidPurge(n); got != want {
			t.Errorf("ValidPurge(%d): want %t, got %t", n, want, got)
		}
	}
}

func TestPointsLeaderboard(t *testing.T) {
	ctx := context.Background()
	robo, p := testRobot(t)
	d := command.NewDispatcher("!", command.Commands())
	if _, _, err := d.Dispatch(ctx, robo, msg(p, 3, "!leaderboard")); err != nil {
		t.Fatal(err)
	}
	if c := p.Last(t).Card; c == nil || len(c.Fields) != 0 || c.Description == "" {
		t.Errorf("wrong empty leaderboard: %+v", c)
	}
	for i, id := range []int64{1, 2, 2, 3, 3, 3} {
		m := msg(p, id, "hi")
		if err := robo.Points.Observe(ctx, &m.Author.User, m.Time); err != nil {
			t.Fatalf("couldn't observe message %d: %v", i, err)
		}
	}
	if _, _, err := d.Dispatch(ctx, robo, msg(p, 3, "!leaderboard")); err != nil {
		t.Fatal(err)
	}
	c := p.Last(t).Card
	if c == nil {
		t.Fatal("no leaderboard card")
	}
	want := []string{"1. bocchi", "3 points", "2. ryou", "2 points", "3. kita", "1 points"}
	var got []string
	for _, f := range c.Fields {
		got = append(got, f.Name, f.Value)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("wrong leaderboard (-want +got):\n%s", diff)
	}
	if _, _, err := d.Dispatch(ctx, robo, msg(p, 1, "!points ryou")); err != nil {
		t.Fatal(err)
	}
	if c := p.Last(t).Card; c == nil || !strings.Contains(c.Description, "**2**") {
		t.Errorf("wrong points card: %+v", c)
	}
}
