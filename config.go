package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"gitlab.com/zephyrtronium/pick"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/zephyrtronium/warden/message"
	"github.com/zephyrtronium/warden/store"
	"github.com/zephyrtronium/warden/store/kvstore"
	"github.com/zephyrtronium/warden/store/sqlstore"
)

// Load loads the bot's TOML configuration.
func Load(ctx context.Context, r io.Reader) (*Config, *toml.MetaData, error) {
	var cfg Config
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't decode config: %w", err)
	}
	expandcfg(&cfg, os.Getenv)
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	return &cfg, &md, nil
}

// DefaultPrefix is the command prefix used when none is configured.
const DefaultPrefix = "!"

// loadStore opens the configured store backend.
func loadStore(ctx context.Context, cfg DBCfg) (store.Store, error) {
	if cfg.KV != "" && cfg.SQL != "" {
		return nil, fmt.Errorf("multiple store backends requested; use exactly one")
	}
	if cfg.KV == "" && cfg.SQL == "" {
		return nil, fmt.Errorf("no store backends requested; use exactly one")
	}

	if cfg.KV != "" {
		slog.DebugContext(ctx, "using kvstore", slog.String("path", cfg.KV), slog.String("flags", cfg.KVFlag))
		opts := badger.DefaultOptions(cfg.KV)
		opts = opts.WithLogger(nil)
		opts = opts.WithCompression(options.None)
		db, err := badger.Open(opts.FromSuperFlag(cfg.KVFlag))
		if err != nil {
			return nil, fmt.Errorf("couldn't open kvstore db: %w", err)
		}
		s, err := kvstore.New(db)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("couldn't open kvstore: %w", err)
		}
		return s, nil
	}
	slog.DebugContext(ctx, "using sqlstore", slog.String("path", cfg.SQL))
	db, err := sqlitex.NewPool(cfg.SQL, sqlitex.PoolOptions{PrepareConn: sqlstore.RecommendedPrep})
	if err != nil {
		return nil, fmt.Errorf("couldn't open sqlstore db: %w", err)
	}
	s, err := sqlstore.Open(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("couldn't open sqlstore: %w", err)
	}
	return s, nil
}

func fseconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Config is the marshaled structure of the bot's configuration.
type Config struct {
	// Prefix is the command prefix. Defaults to "!".
	Prefix string `toml:"prefix"`
	// Owner is the table of metadata about the owner.
	Owner Owner `toml:"owner"`
	// DB is the table of database connection strings.
	DB DBCfg `toml:"db"`
	// HTTP is the configuration of the HTTP API.
	HTTP HTTPCfg `toml:"http"`
	// Presence is the configuration of the bot's rotating activity.
	Presence PresenceCfg `toml:"presence"`
	// Rate is the global rate limit for sending messages.
	Rate Rate `toml:"rate"`
}

// Owner is metadata about the bot owner.
type Owner struct {
	// Name is the name of the owner. It does not need to be a username.
	Name string `toml:"name"`
	// Contact describes owner contact information.
	Contact string `toml:"contact"`
}

// DBCfg is the configuration of databases. Exactly one of SQL and KV must
// be set.
type DBCfg struct {
	// SQL is the SQLite connection string for the SQL store.
	SQL string `toml:"sql"`
	// KV is the directory of the badger store.
	KV string `toml:"kv"`
	// KVFlag is a badger superflag string of options for the KV store.
	KVFlag string `toml:"kvflag"`
}

// HTTPCfg is the configuration of the HTTP API.
type HTTPCfg struct {
	// Listen is the address to serve on. If empty, the API is not served.
	Listen string `toml:"listen"`
}

// PresenceCfg is the configuration of presence rotation.
type PresenceCfg struct {
	// Every is the time between activity changes in seconds.
	Every float64 `toml:"every"`
	// Activities is the activities to rotate among.
	Activities []ActivityCfg `toml:"activities"`
}

// ActivityCfg is a weighted presence activity.
type ActivityCfg struct {
	Kind   message.ActivityKind `toml:"kind"`
	Name   string               `toml:"name"`
	Weight int                  `toml:"weight"`
}

// Cases converts the configured activities to weighted choices.
// Activities with no weight count once.
func (cfg PresenceCfg) Cases() []pick.Case[message.Activity] {
	r := make([]pick.Case[message.Activity], 0, len(cfg.Activities))
	for _, a := range cfg.Activities {
		w := a.Weight
		if w <= 0 {
			w = 1
		}
		r = append(r, pick.Case[message.Activity]{E: message.Activity{Kind: a.Kind, Name: a.Name}, W: w})
	}
	return r
}

// Rate is a rate limit configuration.
type Rate struct {
	Every float64 `toml:"every"`
	Num   int     `toml:"num"`
}

func expandcfg(cfg *Config, expand func(s string) string) {
	fields := []*string{
		&cfg.Prefix,
		&cfg.Owner.Name,
		&cfg.Owner.Contact,
		&cfg.DB.SQL,
		&cfg.DB.KV,
		&cfg.DB.KVFlag,
		&cfg.HTTP.Listen,
	}
	for _, f := range fields {
		*f = os.Expand(*f, expand)
	}
	for i := range cfg.Presence.Activities {
		a := &cfg.Presence.Activities[i]
		a.Name = os.Expand(a.Name, expand)
	}
}
