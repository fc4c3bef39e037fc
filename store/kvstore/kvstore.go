// Package kvstore implements user and warning storage in a badger database.
package kvstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-json-experiment/json"

	"github.com/zephyrtronium/warden/store"
)

/*
Key structure:
- User: 'u' × be64(user id). Value is a JSON userRecord.
- Warning: 'w' × be64(user id) × be64(warning id). Value is a JSON warnRecord.
- Warning count: 'c' × be64(user id). Value is be64(count).

Points and counts are read-modify-write in a transaction. Badger detects
conflicting transactions and we retry them, so increments are never lost.
Warning counts live in their own key rather than being counted from the
warnings prefix so that concurrent warnings of one user conflict with each
other.
*/

// Store is a [store.Store] backed by badger.
type Store struct {
	db    *badger.DB
	users *badger.Sequence
	warns *badger.Sequence
}

var _ store.Store = (*Store)(nil)

type userRecord struct {
	Name   string `json:"name"`
	Points int64  `json:"points"`
	Joined int64  `json:"joined"`
	// Seq is the order in which the user was first observed.
	Seq uint64 `json:"seq"`
}

type warnRecord struct {
	Reason string `json:"reason"`
	By     int64  `json:"by"`
	Time   int64  `json:"time"`
}

// New returns a store using db. The store takes ownership of db; closing the
// store closes it.
func New(db *badger.DB) (*Store, error) {
	users, err := db.GetSequence([]byte("seq/users"), 64)
	if err != nil {
		return nil, fmt.Errorf("couldn't get user sequence: %w", err)
	}
	warns, err := db.GetSequence([]byte("seq/warnings"), 16)
	if err != nil {
		users.Release()
		return nil, fmt.Errorf("couldn't get warning sequence: %w", err)
	}
	return &Store{db: db, users: users, warns: warns}, nil
}

// Close releases the store's sequences and closes the database.
func (s *Store) Close() error {
	err := errors.Join(s.users.Release(), s.warns.Release())
	return errors.Join(err, s.db.Close())
}

func userKey(id int64) []byte {
	return binary.BigEndian.AppendUint64([]byte{'u'}, uint64(id))
}

func warnPrefix(user int64) []byte {
	return binary.BigEndian.AppendUint64([]byte{'w'}, uint64(user))
}

func warnKey(user int64, id uint64) []byte {
	return binary.BigEndian.AppendUint64(warnPrefix(user), id)
}

func countKey(user int64) []byte {
	return binary.BigEndian.AppendUint64([]byte{'c'}, uint64(user))
}

// update runs fn in a read-write transaction, retrying on conflicts.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(fn)
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return err
	}
}

// loadUser gets a user record within a transaction. The result is nil if the
// user does not exist.
func loadUser(txn *badger.Txn, id int64) (*userRecord, error) {
	item, err := txn.Get(userKey(id))
	switch {
	case err == nil: // do nothing
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, nil
	default:
		return nil, err
	}
	var r userRecord
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &r)
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't decode user %d: %w", id, err)
	}
	return &r, nil
}

func storeUser(txn *badger.Txn, id int64, r *userRecord) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("couldn't encode user %d: %w", id, err)
	}
	return txn.Set(userKey(id), b)
}

// observe updates or creates a user record within a transaction and adds
// delta to its points.
func (s *Store) observe(txn *badger.Txn, id int64, name string, delta int64, at time.Time) error {
	r, err := loadUser(txn, id)
	if err != nil {
		return err
	}
	if r == nil {
		seq, err := s.users.Next()
		if err != nil {
			return fmt.Errorf("couldn't get user sequence number: %w", err)
		}
		r = &userRecord{Joined: at.UnixNano(), Seq: seq}
	}
	r.Name = name
	r.Points += delta
	return storeUser(txn, id, r)
}

// EnsureUser records a user if not already present, otherwise updates only
// the user's name.
func (s *Store) EnsureUser(ctx context.Context, id int64, name string, joined time.Time) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		return s.observe(txn, id, name, 0, joined)
	})
	if err != nil {
		return fmt.Errorf("couldn't ensure user %d: %w", id, err)
	}
	return nil
}

// AddPoints adds delta to a user's points, creating the user if needed.
func (s *Store) AddPoints(ctx context.Context, id int64, name string, delta int64, at time.Time) error {
	if delta <= 0 {
		return store.ErrDelta
	}
	err := s.update(ctx, func(txn *badger.Txn) error {
		return s.observe(txn, id, name, delta, at)
	})
	if err != nil {
		return fmt.Errorf("couldn't add points for user %d: %w", id, err)
	}
	return nil
}

// Points returns a user's points, or 0 if the user is unknown.
func (s *Store) Points(ctx context.Context, id int64) (int64, error) {
	u, err := s.User(ctx, id)
	if err != nil {
		return 0, err
	}
	if u == nil {
		return 0, nil
	}
	return u.Points, nil
}

// User returns a user's record, or nil if the user is unknown.
func (s *Store) User(ctx context.Context, id int64) (*store.User, error) {
	var r *userRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		r, err = loadUser(txn, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't get user %d: %w", id, err)
	}
	if r == nil {
		return nil, nil
	}
	u := store.User{
		ID:     id,
		Name:   r.Name,
		Points: r.Points,
		Joined: time.Unix(0, r.Joined),
	}
	return &u, nil
}

// Top returns up to n users ordered by points descending. Ties are ordered
// by first observation.
func (s *Store) Top(ctx context.Context, n int) ([]store.Ranked, error) {
	if n <= 0 {
		return nil, nil
	}
	type ranked struct {
		store.Ranked
		seq uint64
	}
	var all []ranked
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte{'u'}
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			id := int64(binary.BigEndian.Uint64(item.Key()[1:]))
			var r userRecord
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			})
			if err != nil {
				return fmt.Errorf("couldn't decode user %d: %w", id, err)
			}
			all = append(all, ranked{store.Ranked{ID: id, Name: r.Name, Points: r.Points}, r.Seq})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't get leaderboard: %w", err)
	}
	slices.SortFunc(all, func(a, b ranked) int {
		if a.Points != b.Points {
			if a.Points > b.Points {
				return -1
			}
			return 1
		}
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	r := make([]store.Ranked, 0, min(n, len(all)))
	for _, u := range all[:min(n, len(all))] {
		r = append(r, u.Ranked)
	}
	return r, nil
}

// AddWarning appends a warning and returns its ID along with the user's new
// warning count.
func (s *Store) AddWarning(ctx context.Context, w *store.Warning) (id, count int64, err error) {
	n, err := s.warns.Next()
	if err != nil {
		return 0, 0, fmt.Errorf("couldn't get warning sequence number: %w", err)
	}
	// Sequences start at zero, but row IDs conventionally start at one.
	wid := n + 1
	rec := warnRecord{Reason: w.Reason, By: w.By, Time: w.Time.UnixNano()}
	b, err := json.Marshal(&rec)
	if err != nil {
		return 0, 0, fmt.Errorf("couldn't encode warning: %w", err)
	}
	err = s.update(ctx, func(txn *badger.Txn) error {
		c, err := loadCount(txn, w.User)
		if err != nil {
			return err
		}
		c++
		if err := txn.Set(warnKey(w.User, wid), b); err != nil {
			return err
		}
		if err := txn.Set(countKey(w.User), binary.BigEndian.AppendUint64(nil, uint64(c))); err != nil {
			return err
		}
		count = c
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("couldn't add warning for user %d: %w", w.User, err)
	}
	return int64(wid), count, nil
}

func loadCount(txn *badger.Txn, user int64) (int64, error) {
	item, err := txn.Get(countKey(user))
	switch {
	case err == nil: // do nothing
	case errors.Is(err, badger.ErrKeyNotFound):
		return 0, nil
	default:
		return 0, err
	}
	var c int64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("bad warning count encoding %x", val)
		}
		c = int64(binary.BigEndian.Uint64(val))
		return nil
	})
	return c, err
}

// Warnings returns a user's warnings, newest first.
func (s *Store) Warnings(ctx context.Context, user int64) ([]store.Warning, error) {
	r := []store.Warning{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = warnPrefix(user)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			id := int64(binary.BigEndian.Uint64(item.Key()[9:]))
			var w warnRecord
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &w)
			})
			if err != nil {
				return fmt.Errorf("couldn't decode warning %d: %w", id, err)
			}
			r = append(r, store.Warning{
				ID:     id,
				User:   user,
				Reason: w.Reason,
				By:     w.By,
				Time:   time.Unix(0, w.Time),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't get warnings for user %d: %w", user, err)
	}
	slices.SortFunc(r, func(a, b store.Warning) int {
		if c := b.Time.Compare(a.Time); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	return r, nil
}

// WarningCount returns the number of warnings a user has received.
func (s *Store) WarningCount(ctx context.Context, user int64) (int64, error) {
	var c int64
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		c, err = loadCount(txn, user)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("couldn't count warnings for user %d: %w", user, err)
	}
	return c, nil
}
