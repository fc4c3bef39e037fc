// Package moderation keeps the log of warnings issued to server members.
package moderation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/zephyrtronium/warden/message"
	"github.com/zephyrtronium/warden/metrics"
	"github.com/zephyrtronium/warden/store"
)

// DefaultReason is the reason recorded when a moderator gives none.
const DefaultReason = "No reason provided"

// ErrSelf is the error returned when a moderator tries to warn themself.
var ErrSelf = errors.New("can't warn yourself")

// Log is the warning log.
type Log struct {
	// Store holds warnings.
	Store store.Store
	// Issued observes each warning issued. It may be nil.
	Issued metrics.Observer
}

// New creates a warning log.
func New(s store.Store, issued metrics.Observer) *Log {
	return &Log{Store: s, Issued: issued}
}

// Warn records a warning against target by moderator and returns the
// recorded warning along with target's total number of warnings.
// There is no escalation; the count is informational.
func (l *Log) Warn(ctx context.Context, target, moderator *message.User, reason string, at time.Time) (*store.Warning, int64, error) {
	if target.ID == moderator.ID {
		return nil, 0, ErrSelf
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultReason
	}
	w := store.Warning{
		User:   target.ID,
		Reason: reason,
		By:     moderator.ID,
		Time:   at,
	}
	id, n, err := l.Store.AddWarning(ctx, &w)
	if err != nil {
		return nil, 0, err
	}
	w.ID = id
	if l.Issued != nil {
		l.Issued.Observe(1)
	}
	return &w, n, nil
}

// Warnings returns a user's warnings, newest first. A user with no warnings
// has an empty history.
func (l *Log) Warnings(ctx context.Context, target int64) ([]store.Warning, error) {
	return l.Store.Warnings(ctx, target)
}

// Count returns the number of warnings a user has received.
func (l *Log) Count(ctx context.Context, target int64) (int64, error) {
	return l.Store.WarningCount(ctx, target)
}
