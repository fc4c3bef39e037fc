// Package sqlstore implements user and warning storage in SQLite.
package sqlstore

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/zephyrtronium/warden/store"
)

// Store is a [store.Store] backed by an SQLite database.
type Store struct {
	db *sqlitex.Pool
}

var _ store.Store = (*Store)(nil)

//go:embed schema.sql
var schemaSQL string

// Init creates the users and warnings tables if they do not exist.
// For convenience, it accepts either a single connection or a pool.
func Init[DB *sqlite.Conn | *sqlitex.Pool](ctx context.Context, db DB) error {
	var conn *sqlite.Conn
	switch db := any(db).(type) {
	case *sqlite.Conn:
		conn = db
	case *sqlitex.Pool:
		var err error
		conn, err = db.Take(ctx)
		if err != nil {
			return fmt.Errorf("couldn't get connection from pool: %w", err)
		}
		defer db.Put(conn)
	}
	if err := sqlitex.ExecuteScript(conn, schemaSQL, nil); err != nil {
		return fmt.Errorf("couldn't initialize store schema: %w", err)
	}
	return nil
}

// Open initializes the schema in db if needed and returns a store using it.
// The pool must remain open for the lifetime of the store.
func Open(ctx context.Context, db *sqlitex.Pool) (*Store, error) {
	if err := Init(ctx, db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// RecommendedPrep is an [sqlitex.ConnPrepareFunc] that sets options
// recommended for a store.
func RecommendedPrep(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, p, nil); err != nil {
			return fmt.Errorf("couldn't run %s: %w", p, err)
		}
	}
	return nil
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) take(ctx context.Context, what string) (*sqlite.Conn, error) {
	conn, err := s.db.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("couldn't get connection to %s: %w", what, err)
	}
	return conn, nil
}

// EnsureUser records a user if not already present, otherwise updates only
// the user's name.
func (s *Store) EnsureUser(ctx context.Context, id int64, name string, joined time.Time) error {
	conn, err := s.take(ctx, "ensure user")
	if err != nil {
		return err
	}
	defer s.db.Put(conn)
	const upsert = `INSERT INTO users (user_id, username, joined_date) VALUES (:id, :name, :joined)
		ON CONFLICT (user_id) DO UPDATE SET username = excluded.username`
	opts := sqlitex.ExecOptions{
		Named: map[string]any{
			":id":     id,
			":name":   name,
			":joined": joined.UnixNano(),
		},
	}
	if err := sqlitex.Execute(conn, upsert, &opts); err != nil {
		return fmt.Errorf("couldn't ensure user %d: %w", id, err)
	}
	return nil
}

// AddPoints adds delta to a user's points, creating the user if needed.
// The insert and the increment are one statement, so concurrent increments
// for the same user are never lost.
func (s *Store) AddPoints(ctx context.Context, id int64, name string, delta int64, at time.Time) error {
	if delta <= 0 {
		return store.ErrDelta
	}
	conn, err := s.take(ctx, "add points")
	if err != nil {
		return err
	}
	defer s.db.Put(conn)
	const upsert = `INSERT INTO users (user_id, username, points, joined_date) VALUES (:id, :name, :delta, :joined)
		ON CONFLICT (user_id) DO UPDATE SET username = excluded.username, points = points + excluded.points`
	opts := sqlitex.ExecOptions{
		Named: map[string]any{
			":id":     id,
			":name":   name,
			":delta":  delta,
			":joined": at.UnixNano(),
		},
	}
	if err := sqlitex.Execute(conn, upsert, &opts); err != nil {
		return fmt.Errorf("couldn't add points for user %d: %w", id, err)
	}
	return nil
}

// Points returns a user's points, or 0 if the user is unknown.
func (s *Store) Points(ctx context.Context, id int64) (int64, error) {
	conn, err := s.take(ctx, "get points")
	if err != nil {
		return 0, err
	}
	defer s.db.Put(conn)
	var p int64
	opts := sqlitex.ExecOptions{
		Named: map[string]any{":id": id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			p = stmt.ColumnInt64(0)
			return nil
		},
	}
	if err := sqlitex.Execute(conn, `SELECT points FROM users WHERE user_id = :id`, &opts); err != nil {
		return 0, fmt.Errorf("couldn't get points for user %d: %w", id, err)
	}
	return p, nil
}

// User returns a user's record, or nil if the user is unknown.
func (s *Store) User(ctx context.Context, id int64) (*store.User, error) {
	conn, err := s.take(ctx, "get user")
	if err != nil {
		return nil, err
	}
	defer s.db.Put(conn)
	var u *store.User
	opts := sqlitex.ExecOptions{
		Named: map[string]any{":id": id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			u = &store.User{
				ID:     id,
				Name:   stmt.ColumnText(0),
				Points: stmt.ColumnInt64(1),
				Joined: time.Unix(0, stmt.ColumnInt64(2)),
			}
			return nil
		},
	}
	const sel = `SELECT username, points, joined_date FROM users WHERE user_id = :id`
	if err := sqlitex.Execute(conn, sel, &opts); err != nil {
		return nil, fmt.Errorf("couldn't get user %d: %w", id, err)
	}
	return u, nil
}

// Top returns up to n users ordered by points descending. Ties are ordered
// by user ID.
func (s *Store) Top(ctx context.Context, n int) ([]store.Ranked, error) {
	if n <= 0 {
		return nil, nil
	}
	conn, err := s.take(ctx, "get leaderboard")
	if err != nil {
		return nil, err
	}
	defer s.db.Put(conn)
	r := make([]store.Ranked, 0, min(n, 64))
	opts := sqlitex.ExecOptions{
		Named: map[string]any{":n": int64(n)},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			r = append(r, store.Ranked{
				ID:     stmt.ColumnInt64(0),
				Name:   stmt.ColumnText(1),
				Points: stmt.ColumnInt64(2),
			})
			return nil
		},
	}
	const sel = `SELECT user_id, username, points FROM users ORDER BY points DESC, user_id LIMIT :n`
	if err := sqlitex.Execute(conn, sel, &opts); err != nil {
		return nil, fmt.Errorf("couldn't get leaderboard: %w", err)
	}
	return r, nil
}

// AddWarning appends a warning and returns its ID along with the user's new
// warning count.
func (s *Store) AddWarning(ctx context.Context, w *store.Warning) (id, count int64, err error) {
	conn, err := s.take(ctx, "add warning")
	if err != nil {
		return 0, 0, err
	}
	defer s.db.Put(conn)
	defer sqlitex.Transaction(conn)(&err)

	const insert = `INSERT INTO warnings (user_id, reason, warned_by, date) VALUES (:user, :reason, :by, :date)`
	opts := sqlitex.ExecOptions{
		Named: map[string]any{
			":user":   w.User,
			":reason": w.Reason,
			":by":     w.By,
			":date":   w.Time.UnixNano(),
		},
	}
	if err := sqlitex.Execute(conn, insert, &opts); err != nil {
		return 0, 0, fmt.Errorf("couldn't insert warning for user %d: %w", w.User, err)
	}
	id = conn.LastInsertRowID()
	count, err = warningCount(conn, w.User)
	if err != nil {
		return 0, 0, err
	}
	return id, count, nil
}

// Warnings returns a user's warnings, newest first.
func (s *Store) Warnings(ctx context.Context, user int64) ([]store.Warning, error) {
	conn, err := s.take(ctx, "get warnings")
	if err != nil {
		return nil, err
	}
	defer s.db.Put(conn)
	r := []store.Warning{}
	opts := sqlitex.ExecOptions{
		Named: map[string]any{":user": user},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			r = append(r, store.Warning{
				ID:     stmt.ColumnInt64(0),
				User:   user,
				Reason: stmt.ColumnText(1),
				By:     stmt.ColumnInt64(2),
				Time:   time.Unix(0, stmt.ColumnInt64(3)),
			})
			return nil
		},
	}
	const sel = `SELECT warning_id, reason, warned_by, date FROM warnings WHERE user_id = :user ORDER BY date DESC, warning_id DESC`
	if err := sqlitex.Execute(conn, sel, &opts); err != nil {
		return nil, fmt.Errorf("couldn't get warnings for user %d: %w", user, err)
	}
	return r, nil
}

// WarningCount returns the number of warnings a user has received.
func (s *Store) WarningCount(ctx context.Context, user int64) (int64, error) {
	conn, err := s.take(ctx, "count warnings")
	if err != nil {
		return 0, err
	}
	defer s.db.Put(conn)
	return warningCount(conn, user)
}

func warningCount(conn *sqlite.Conn, user int64) (int64, error) {
	var n int64
	opts := sqlitex.ExecOptions{
		Named: map[string]any{":user": user},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			n = stmt.ColumnInt64(0)
			return nil
		},
	}
	if err := sqlitex.Execute(conn, `SELECT COUNT(*) FROM warnings WHERE user_id = :user`, &opts); err != nil {
		return 0, fmt.Errorf("couldn't count warnings for user %d: %w", user, err)
	}
	return n, nil
}
