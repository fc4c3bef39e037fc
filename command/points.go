package command

import (
	"context"
	"fmt"
	"strconv"

	"github.com/zephyrtronium/warden/message"
)

// Points shows a member's points.
//   - user: Member whose points to show. Defaults to the invoker.
func Points(ctx context.Context, robo *Robot, call *Invocation) error {
	m := target(call)
	p, err := robo.Points.Points(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("couldn't get points: %w", err)
	}
	c := &message.Card{
		Title:       "⭐ User Points",
		Description: fmt.Sprintf("%s has **%d** points!", m.Mention(), p),
		Color:       message.Gold,
	}
	return robo.card(ctx, call, c)
}

// Leaderboard shows the members with the most points.
// No arguments.
func Leaderboard(ctx context.Context, robo *Robot, call *Invocation) error {
	r, err := robo.Points.Leaderboard(ctx)
	if err != nil {
		return fmt.Errorf("couldn't get leaderboard: %w", err)
	}
	c := &message.Card{Title: "🏆 Leaderboard", Color: message.Gold}
	if len(r) == 0 {
		c.Description = "No one has any points yet!"
	}
	for i, u := range r {
		c.Add(fmt.Sprintf("%d. %s", i+1, u.Name), strconv.FormatInt(u.Points, 10)+" points", false)
	}
	return robo.card(ctx, call, c)
}
