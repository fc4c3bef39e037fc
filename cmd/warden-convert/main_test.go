package main

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/go-cmp/cmp"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/zephyrtronium/warden/store"
	"github.com/zephyrtronium/warden/store/kvstore"
)

const oldSchema = `
CREATE TABLE users (
	user_id INTEGER PRIMARY KEY,
	username TEXT,
	points INTEGER DEFAULT 0,
	joined_date TEXT
);
CREATE TABLE warnings (
	warning_id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER,
	reason TEXT,
	warned_by INTEGER,
	date TEXT
);
INSERT INTO users VALUES (1, 'kita', 12, '2024-03-01 10:00:00');
INSERT INTO users VALUES (2, 'bocchi', 0, NULL);
INSERT INTO users VALUES (3, 'ryou', 4, 'garbage');
INSERT INTO warnings (user_id, reason, warned_by, date) VALUES (2, 'too quiet', 1, '2024-03-02 11:30:00');
INSERT INTO warnings (user_id, reason, warned_by, date) VALUES (2, 'still quiet', 3, '2024-03-03 12:00:00');
`

func TestConvert(t *testing.T) {
	ctx := context.Background()
	src, err := sqlite.OpenConn(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { src.Close() })
	if err := sqlitex.ExecuteScript(src, oldSchema, nil); err != nil {
		t.Fatal(err)
	}
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatal(err)
	}
	dst, err := kvstore.New(db)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { dst.Close() })

	fallback := time.Unix(1700000000, 0)
	users, warns, err := convert(ctx, src, dst, fallback)
	if err != nil {
		t.Fatalf("couldn't convert: %v", err)
	}
	if users != 3 || warns != 2 {
		t.Errorf("wrong counts: want 3 users and 2 warnings, got %d and %d", users, warns)
	}

	day := func(s string) time.Time {
		t.Helper()
		r, err := time.ParseInLocation(time.DateTime, s, time.Local)
		if err != nil {
			t.Fatal(err)
		}
		return r
	}
	cases := []struct {
		id   int64
		want *store.User
	}{
		{1, &store.User{ID: 1, Name: "kita", Points: 12, Joined: day("2024-03-01 10:00:00")}},
		{2, &store.User{ID: 2, Name: "bocchi", Points: 0, Joined: fallback}},
		{3, &store.User{ID: 3, Name: "ryou", Points: 4, Joined: fallback}},
	}
	for _, c := range cases {
		got, err := dst.User(ctx, c.id)
		if err != nil {
			t.Errorf("couldn't get user %d: %v", c.id, err)
			continue
		}
		if diff := cmp.Diff(c.want, got, cmp.Comparer(time.Time.Equal)); diff != "" {
			t.Errorf("wrong user %d (-want +got):\n%s", c.id, diff)
		}
	}

	ws, err := dst.Warnings(ctx, 2)
	if err != nil {
		t.Fatalf("couldn't get warnings: %v", err)
	}
	if len(ws) != 2 {
		t.Fatalf("wrong number of warnings: want 2, got %+v", ws)
	}
	if ws[0].Reason != "still quiet" || ws[0].By != 3 || !ws[0].Time.Equal(day("2024-03-03 12:00:00")) {
		t.Errorf("wrong newest warning: %+v", ws[0])
	}
	if ws[1].Reason != "too quiet" || ws[1].By != 1 {
		t.Errorf("wrong oldest warning: %+v", ws[1])
	}
}
