// warden-convert imports users and warnings from the discord_bot.db of the
// bot warden replaces into a warden store.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/urfave/cli/v3"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/zephyrtronium/warden/store"
	"github.com/zephyrtronium/warden/store/kvstore"
	"github.com/zephyrtronium/warden/store/sqlstore"
)

var app = cli.Command{
	Name:  "warden-convert",
	Usage: "Import users and warnings from an old discord_bot.db",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "in",
			Usage:    "Path to the old SQLite database",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "sql",
			Usage: "SQLite DSN of the destination sqlstore",
		},
		&cli.StringFlag{
			Name:  "kv",
			Usage: "Directory of the destination kvstore",
		},
	},
	Action: run,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	src, err := sqlite.OpenConn(cmd.String("in"), sqlite.OpenReadOnly, sqlite.OpenURI)
	if err != nil {
		return fmt.Errorf("couldn't open old database: %w", err)
	}
	defer src.Close()
	dst, err := open(ctx, cmd.String("sql"), cmd.String("kv"))
	if err != nil {
		return err
	}
	defer dst.Close()
	users, warns, err := convert(ctx, src, dst, time.Now())
	slog.InfoContext(ctx, "converted", slog.Int("users", users), slog.Int("warnings", warns))
	return err
}

func open(ctx context.Context, sql, kv string) (store.Store, error) {
	switch {
	case sql != "" && kv != "":
		return nil, errors.New("use exactly one of -sql and -kv")
	case sql != "":
		db, err := sqlitex.NewPool(sql, sqlitex.PoolOptions{PrepareConn: sqlstore.RecommendedPrep})
		if err != nil {
			return nil, fmt.Errorf("couldn't open sqlstore db: %w", err)
		}
		s, err := sqlstore.Open(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return s, nil
	case kv != "":
		opts := badger.DefaultOptions(kv).WithLogger(nil).WithCompression(options.None)
		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("couldn't open kvstore db: %w", err)
		}
		s, err := kvstore.New(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.New("one of -sql or -kv is required")
	}
}

// convert copies every user and warning from src into dst.
// Rows with missing or unparseable dates use fallback instead.
func convert(ctx context.Context, src *sqlite.Conn, dst store.Store, fallback time.Time) (users, warns int, err error) {
	err = sqlitex.ExecuteTransient(src, `SELECT user_id, username, points, joined_date FROM users`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			id := stmt.ColumnInt64(0)
			name := stmt.ColumnText(1)
			joined := oldTime(stmt, 3, fallback)
			if err := dst.EnsureUser(ctx, id, name, joined); err != nil {
				return fmt.Errorf("couldn't import user %d: %w", id, err)
			}
			if p := stmt.ColumnInt64(2); p > 0 {
				if err := dst.AddPoints(ctx, id, name, p, joined); err != nil {
					return fmt.Errorf("couldn't import points for user %d: %w", id, err)
				}
			}
			users++
			return nil
		},
	})
	if err != nil {
		return users, warns, err
	}
	err = sqlitex.ExecuteTransient(src, `SELECT user_id, reason, warned_by, date FROM warnings ORDER BY warning_id`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			w := store.Warning{
				User:   stmt.ColumnInt64(0),
				Reason: stmt.ColumnText(1),
				By:     stmt.ColumnInt64(2),
				Time:   oldTime(stmt, 3, fallback),
			}
			if _, _, err := dst.AddWarning(ctx, &w); err != nil {
				return fmt.Errorf("couldn't import warning for user %d: %w", w.User, err)
			}
			warns++
			return nil
		},
	})
	return users, warns, err
}

// oldTime reads a local "YYYY-MM-DD HH:MM:SS" timestamp from column col.
func oldTime(stmt *sqlite.Stmt, col int, fallback time.Time) time.Time {
	if stmt.ColumnType(col) == sqlite.TypeNull {
		return fallback
	}
	t, err := time.ParseInLocation(time.DateTime, stmt.ColumnText(col), time.Local)
	if err != nil {
		return fallback
	}
	return t
}
