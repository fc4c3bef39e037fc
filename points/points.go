// Package points implements the per-message scoring of server members.
package points

import (
	"context"
	"fmt"
	"time"

	"github.com/zephyrtronium/warden/message"
	"github.com/zephyrtronium/warden/metrics"
	"github.com/zephyrtronium/warden/store"
)

// Leaderboard is the number of users shown on the leaderboard.
const Leaderboard = 10

// Engine awards points for messages.
type Engine struct {
	// Store holds users' points.
	Store store.Store
	// Awarded observes each point awarded. It may be nil.
	Awarded metrics.Observer
}

// New creates a scoring engine.
func New(s store.Store, awarded metrics.Observer) *Engine {
	return &Engine{Store: s, Awarded: awarded}
}

// Observe awards exactly one point to the author of a message sent at the
// given time, creating the user if needed. Messages from bots earn nothing.
func (e *Engine) Observe(ctx context.Context, u *message.User, at time.Time) error {
	if u.Bot {
		return nil
	}
	if err := e.Store.AddPoints(ctx, u.ID, u.Name, 1, at); err != nil {
		return fmt.Errorf("couldn't award point: %w", err)
	}
	if e.Awarded != nil {
		e.Awarded.Observe(1)
	}
	return nil
}

// Register records a user who joined at the given time without awarding any
// points. Registering an existing user only updates their name.
func (e *Engine) Register(ctx context.Context, u *message.User, at time.Time) error {
	if err := e.Store.EnsureUser(ctx, u.ID, u.Name, at); err != nil {
		return fmt.Errorf("couldn't register user: %w", err)
	}
	return nil
}

// Points returns a user's points.
func (e *Engine) Points(ctx context.Context, id int64) (int64, error) {
	return e.Store.Points(ctx, id)
}

// Top returns up to n users with the most points.
func (e *Engine) Top(ctx context.Context, n int) ([]store.Ranked, error) {
	return e.Store.Top(ctx, n)
}

// Leaderboard returns the top users for display.
func (e *Engine) Leaderboard(ctx context.Context) ([]store.Ranked, error) {
	return e.Store.Top(ctx, Leaderboard)
}
