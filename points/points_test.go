package points_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/zephyrtronium/warden/message"
	"github.com/zephyrtronium/warden/points"
	"github.com/zephyrtronium/warden/store/kvstore"
)

func testEngine(t *testing.T) *points.Engine {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatal(err)
	}
	s, err := kvstore.New(db)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return points.New(s, nil)
}

func TestObserve(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)
	u := &message.User{ID: 1, Name: "bocchi"}
	at := time.Unix(1700000000, 0)
	const n = 12
	for i := range n {
		if err := e.Observe(ctx, u, at.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("couldn't observe message %d: %v", i, err)
		}
	}
	p, err := e.Points(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if p != n {
		t.Errorf("wrong points: want %d, got %d", n, p)
	}
	usr, err := e.Store.User(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !usr.Joined.Equal(at) {
		t.Errorf("join time moved: want %v, got %v", at, usr.Joined)
	}
}

func TestObserveBot(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)
	u := &message.User{ID: 2, Name: "robot", Bot: true}
	if err := e.Observe(ctx, u, time.Now()); err != nil {
		t.Fatal(err)
	}
	usr, err := e.Store.User(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if usr != nil {
		t.Errorf("bot was recorded: %+v", usr)
	}
}

func TestObserveConcurrent(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)
	u := &message.User{ID: 3, Name: "kita"}
	const k = 24
	var wg sync.WaitGroup
	for range k {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.Observe(ctx, u, time.Now()); err != nil {
				t.Errorf("concurrent observe failed: %v", err)
			}
		}()
	}
	wg.Wait()
	p, err := e.Points(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if p != k {
		t.Errorf("lost updates: want %d, got %d", k, p)
	}
}

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)
	for id := int64(1); id <= 14; id++ {
		u := &message.User{ID: id, Name: "member"}
		for range id {
			if err := e.Observe(ctx, u, time.Now()); err != nil {
				t.Fatal(err)
			}
		}
	}
	r, err := e.Leaderboard(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(r) != points.Leaderboard {
		t.Fatalf("wrong leaderboard size: want %d, got %d", points.Leaderboard, len(r))
	}
	for i := 1; i < len(r); i++ {
		if r[i].Points > r[i-1].Points {
			t.Errorf("leaderboard not sorted at %d: %d > %d", i, r[i].Points, r[i-1].Points)
		}
	}
	if r[0].ID != 14 {
		t.Errorf("wrong leader: want 14, got %d", r[0].ID)
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)
	first := time.Unix(1700000000, 0)
	u := &message.User{ID: 4, Name: "nijika"}
	if err := e.Register(ctx, u, first); err != nil {
		t.Fatal(err)
	}
	if err := e.Observe(ctx, u, first.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	u.Name = "ijichi"
	if err := e.Register(ctx, u, first.Add(2*time.Hour)); err != nil {
		t.Fatal(err)
	}
	got, err := e.Store.User(ctx, 4)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "ijichi" || got.Points != 1 || !got.Joined.Equal(first) {
		t.Errorf("re-registration changed points or join time: %+v", got)
	}
}
