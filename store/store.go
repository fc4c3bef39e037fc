// Package store defines the persistent records the bot keeps about server
// members: a points counter per user and an append-only log of warnings.
package store

import (
	"context"
	"errors"
	"time"
)

// User is a member the bot has observed.
type User struct {
	// ID is the platform identity of the user.
	ID int64
	// Name is the display name at the most recent observation.
	Name string
	// Points is the number of messages the user has sent.
	Points int64
	// Joined is the time of the first observation. It never changes.
	Joined time.Time
}

// Ranked is a single row of a leaderboard.
type Ranked struct {
	ID     int64
	Name   string
	Points int64
}

// Warning is a moderation warning issued to a user.
type Warning struct {
	// ID is assigned by the store when the warning is added.
	ID int64
	// User is the target of the warning.
	User int64
	// Reason is the moderator's explanation.
	Reason string
	// By is the moderator who issued the warning.
	By int64
	// Time is when the warning was issued.
	Time time.Time
}

// Store is persistent storage for users and warnings.
//
// Absence is never an error: lookups of unknown users report zero points, no
// user, and no warnings. All methods are safe to call concurrently.
type Store interface {
	// EnsureUser records a user if not already present. If the user exists,
	// only its name is updated; points and join time are preserved.
	EnsureUser(ctx context.Context, id int64, name string, joined time.Time) error
	// AddPoints ensures the user exists as by EnsureUser with the given time
	// and then atomically adds delta to its points. delta must be positive.
	AddPoints(ctx context.Context, id int64, name string, delta int64, at time.Time) error
	// Points returns the user's points, or 0 if the user is unknown.
	Points(ctx context.Context, id int64) (int64, error)
	// User returns a user's record, or nil if the user is unknown.
	User(ctx context.Context, id int64) (*User, error)
	// Top returns up to n users ordered by points descending. The order of
	// users with equal points is unspecified.
	Top(ctx context.Context, n int) ([]Ranked, error)
	// AddWarning appends a warning. It returns the new warning's ID and the
	// user's total number of warnings including it. The ID field of w is
	// ignored.
	AddWarning(ctx context.Context, w *Warning) (id, count int64, err error)
	// Warnings returns all of a user's warnings, newest first.
	Warnings(ctx context.Context, user int64) ([]Warning, error)
	// WarningCount returns the number of warnings the user has received.
	WarningCount(ctx context.Context, user int64) (int64, error)
	// Close releases the store's resources.
	Close() error
}

// ErrDelta is returned by AddPoints when the delta is not positive.
var ErrDelta = errors.New("point delta must be positive")
