// Package storetest provides integration testing facilities for stores.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/zephyrtronium/warden/store"
)

// Test runs the integration test suite against stores produced by new.
//
// If a store cannot be created without error, new should call t.Fatal.
func Test(ctx context.Context, t *testing.T, new func(context.Context) store.Store) {
	t.Run("absent", testAbsent(ctx, new(ctx)))
	t.Run("ensure", testEnsure(ctx, new(ctx)))
	t.Run("points", testPoints(ctx, new(ctx)))
	t.Run("delta", testDelta(ctx, new(ctx)))
	t.Run("concurrent", testConcurrent(ctx, new(ctx)))
	t.Run("top", testTop(ctx, new(ctx)))
	t.Run("warnings", testWarnings(ctx, new(ctx)))
	t.Run("concurrentWarnings", testConcurrentWarnings(ctx, new(ctx)))
}

func testAbsent(ctx context.Context, s store.Store) func(t *testing.T) {
	return func(t *testing.T) {
		p, err := s.Points(ctx, 1)
		if err != nil {
			t.Errorf("couldn't get points of absent user: %v", err)
		}
		if p != 0 {
			t.Errorf("absent user has %d points", p)
		}
		u, err := s.User(ctx, 1)
		if err != nil {
			t.Errorf("couldn't get absent user: %v", err)
		}
		if u != nil {
			t.Errorf("absent user exists: %+v", u)
		}
		w, err := s.Warnings(ctx, 1)
		if err != nil {
			t.Errorf("couldn't get warnings of absent user: %v", err)
		}
		if len(w) != 0 {
			t.Errorf("absent user has warnings: %+v", w)
		}
		c, err := s.WarningCount(ctx, 1)
		if err != nil {
			t.Errorf("couldn't count warnings of absent user: %v", err)
		}
		if c != 0 {
			t.Errorf("absent user has %d warnings", c)
		}
		r, err := s.Top(ctx, 10)
		if err != nil {
			t.Errorf("couldn't get empty leaderboard: %v", err)
		}
		if len(r) != 0 {
			t.Errorf("empty store has leaderboard %+v", r)
		}
	}
}

func testEnsure(ctx context.Context, s store.Store) func(t *testing.T) {
	return func(t *testing.T) {
		first := time.Unix(1700000000, 0)
		later := first.Add(time.Hour)
		if err := s.EnsureUser(ctx, 2, "bocchi", first); err != nil {
			t.Fatalf("couldn't ensure user: %v", err)
		}
		if err := s.AddPoints(ctx, 2, "bocchi", 3, first); err != nil {
			t.Fatalf("couldn't add points: %v", err)
		}
		if err := s.EnsureUser(ctx, 2, "hitori", later); err != nil {
			t.Fatalf("couldn't ensure user again: %v", err)
		}
		u, err := s.User(ctx, 2)
		if err != nil {
			t.Fatalf("couldn't get user: %v", err)
		}
		want := &store.User{ID: 2, Name: "hitori", Points: 3, Joined: first}
		if diff := cmp.Diff(want, u); diff != "" {
			t.Errorf("wrong user after repeat observation (-want +got):\n%s", diff)
		}
	}
}

func testPoints(ctx context.Context, s store.Store) func(t *testing.T) {
	return func(t *testing.T) {
		at := time.Unix(1700000000, 0)
		const n = 25
		for i := range n {
			if err := s.AddPoints(ctx, 3, "ryou", 1, at.Add(time.Duration(i)*time.Second)); err != nil {
				t.Fatalf("couldn't add point %d: %v", i, err)
			}
		}
		p, err := s.Points(ctx, 3)
		if err != nil {
			t.Fatalf("couldn't get points: %v", err)
		}
		if p != n {
			t.Errorf("wrong points: want %d, got %d", n, p)
		}
		u, err := s.User(ctx, 3)
		if err != nil {
			t.Fatalf("couldn't get user: %v", err)
		}
		if !u.Joined.Equal(at) {
			t.Errorf("wrong join time: want %v, got %v", at, u.Joined)
		}
		if err := s.AddPoints(ctx, 3, "ryou", 5, at); err != nil {
			t.Fatalf("couldn't add several points: %v", err)
		}
		p, err = s.Points(ctx, 3)
		if err != nil {
			t.Fatalf("couldn't get points: %v", err)
		}
		if p != n+5 {
			t.Errorf("wrong points after larger delta: want %d, got %d", n+5, p)
		}
	}
}

func testDelta(ctx context.Context, s store.Store) func(t *testing.T) {
	return func(t *testing.T) {
		for _, d := range []int64{0, -1} {
			err := s.AddPoints(ctx, 4, "nijika", d, time.Unix(0, 0))
			if !errors.Is(err, store.ErrDelta) {
				t.Errorf("wrong error for delta %d: want %v, got %v", d, store.ErrDelta, err)
			}
		}
		u, err := s.User(ctx, 4)
		if err != nil {
			t.Fatalf("couldn't get user: %v", err)
		}
		if u != nil {
			t.Errorf("rejected delta created user %+v", u)
		}
	}
}

func testConcurrent(ctx context.Context, s store.Store) func(t *testing.T) {
	return func(t *testing.T) {
		const k = 32
		var wg sync.WaitGroup
		errs := make(chan error, k)
		for range k {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- s.AddPoints(ctx, 5, "kita", 1, time.Unix(1700000000, 0))
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Errorf("concurrent increment failed: %v", err)
			}
		}
		p, err := s.Points(ctx, 5)
		if err != nil {
			t.Fatalf("couldn't get points: %v", err)
		}
		if p != k {
			t.Errorf("lost updates: want %d points, got %d", k, p)
		}
	}
}

func testTop(ctx context.Context, s store.Store) func(t *testing.T) {
	return func(t *testing.T) {
		at := time.Unix(1700000000, 0)
		for i := int64(1); i <= 15; i++ {
			// Points are a permutation so that the order is fully determined.
			p := (i*7)%15 + 1
			if err := s.AddPoints(ctx, 100+i, "member", p, at); err != nil {
				t.Fatalf("couldn't add points for %d: %v", 100+i, err)
			}
		}
		r, err := s.Top(ctx, 10)
		if err != nil {
			t.Fatalf("couldn't get leaderboard: %v", err)
		}
		if len(r) != 10 {
			t.Fatalf("wrong leaderboard size: want 10, got %d", len(r))
		}
		for i, u := range r {
			if want := int64(15 - i); u.Points != want {
				t.Errorf("wrong points at rank %d: want %d, got %d", i+1, want, u.Points)
			}
		}
		all, err := s.Top(ctx, 100)
		if err != nil {
			t.Fatalf("couldn't get full leaderboard: %v", err)
		}
		if len(all) != 15 {
			t.Errorf("wrong full leaderboard size: want 15, got %d", len(all))
		}
		none, err := s.Top(ctx, 0)
		if err != nil {
			t.Fatalf("couldn't get empty leaderboard: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("Top(0) returned %d rows", len(none))
		}
	}
}

func testWarnings(ctx context.Context, s store.Store) func(t *testing.T) {
	return func(t *testing.T) {
		at := time.Unix(1700000000, 0)
		warns := []store.Warning{
			{User: 6, Reason: "spam", By: 1, Time: at},
			{User: 6, Reason: "more spam", By: 2, Time: at.Add(time.Minute)},
			{User: 7, Reason: "rude", By: 1, Time: at.Add(2 * time.Minute)},
			{User: 6, Reason: "still spam", By: 1, Time: at.Add(3 * time.Minute)},
		}
		counts := []int64{1, 2, 1, 3}
		var last int64
		for i := range warns {
			id, c, err := s.AddWarning(ctx, &warns[i])
			if err != nil {
				t.Fatalf("couldn't add warning %d: %v", i, err)
			}
			if id <= last {
				t.Errorf("warning id %d not greater than previous %d", id, last)
			}
			last = id
			warns[i].ID = id
			if c != counts[i] {
				t.Errorf("wrong count after warning %d: want %d, got %d", i, counts[i], c)
			}
		}
		got, err := s.Warnings(ctx, 6)
		if err != nil {
			t.Fatalf("couldn't get warnings: %v", err)
		}
		want := []store.Warning{warns[3], warns[1], warns[0]}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("wrong warnings (-want +got):\n%s", diff)
		}
		c, err := s.WarningCount(ctx, 6)
		if err != nil {
			t.Fatalf("couldn't count warnings: %v", err)
		}
		if c != 3 {
			t.Errorf("wrong warning count: want 3, got %d", c)
		}
		c, err = s.WarningCount(ctx, 7)
		if err != nil {
			t.Fatalf("couldn't count warnings: %v", err)
		}
		if c != 1 {
			t.Errorf("wrong warning count for other user: want 1, got %d", c)
		}
	}
}

func testConcurrentWarnings(ctx context.Context, s store.Store) func(t *testing.T) {
	return func(t *testing.T) {
		const k = 16
		var wg sync.WaitGroup
		var mu sync.Mutex
		seen := make(map[int64]bool)
		for i := range k {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := store.Warning{User: 8, Reason: "dogpile", By: int64(i), Time: time.Unix(int64(i), 0)}
				_, c, err := s.AddWarning(ctx, &w)
				if err != nil {
					t.Errorf("concurrent warning failed: %v", err)
					return
				}
				mu.Lock()
				defer mu.Unlock()
				if seen[c] {
					t.Errorf("count %d reported twice", c)
				}
				seen[c] = true
			}()
		}
		wg.Wait()
		c, err := s.WarningCount(ctx, 8)
		if err != nil {
			t.Fatalf("couldn't count warnings: %v", err)
		}
		if c != k {
			t.Errorf("wrong warning count: want %d, got %d", k, c)
		}
	}
}
