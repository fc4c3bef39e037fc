package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/zephyrtronium/warden/message"
	"github.com/zephyrtronium/warden/moderation"
	"github.com/zephyrtronium/warden/points"
	"github.com/zephyrtronium/warden/store"
)

var app = cli.Command{
	Name:  "warden",
	Usage: "Discord community bot",

	Flags: []cli.Flag{
		&flagConfig,
		&flagLog,
		&flagLogFormat,
	},
	Commands: []*cli.Command{
		{
			Name:    "leaderboard",
			Aliases: []string{"top"},
			Usage:   "Print the members with the most points without serving",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "n",
					Usage: "Number of members to print",
					Value: points.Leaderboard,
				},
			},
			Action: cliLeaderboard,
		},
		{
			Name:  "warnings",
			Usage: "Print a member's warnings without serving",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "user",
					Usage:    "User ID of the member",
					Required: true,
				},
			},
			Action: cliWarnings,
		},
	},
	Action: cliRun,

	Authors: []any{
		"Branden J Brown  @zephyrtronium",
	},
	Copyright: "Copyright 2024 Branden J Brown",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	go func() {
		<-ctx.Done()
		stop()
	}()
	err := app.Run(ctx, os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// errNoToken is the error for a missing bot token.
var errNoToken = errors.New("DISCORD_TOKEN not set. Please set DISCORD_TOKEN in your environment or in a .env file.")

func cliRun(ctx context.Context, cmd *cli.Command) error {
	slog.SetDefault(loggerFromFlags(cmd))
	if err := godotenv.Load(); err != nil {
		slog.DebugContext(ctx, "no .env file", slog.Any("err", err))
	}
	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		slog.ErrorContext(ctx, "missing token")
		return errNoToken
	}
	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}
	s, err := loadStore(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer s.Close()
	robo, err := New(cfg, s, token)
	if err != nil {
		return err
	}
	return robo.Run(ctx, cfg.HTTP.Listen)
}

func cliLeaderboard(ctx context.Context, cmd *cli.Command) error {
	slog.SetDefault(loggerFromFlags(cmd))
	s, err := openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	r, err := points.New(s, nil).Top(ctx, int(cmd.Int("n")))
	if err != nil {
		return err
	}
	for i, u := range r {
		fmt.Printf("%d. %s (%d)\t%d points\n", i+1, u.Name, u.ID, u.Points)
	}
	return nil
}

func cliWarnings(ctx context.Context, cmd *cli.Command) error {
	slog.SetDefault(loggerFromFlags(cmd))
	id, err := message.ParseID(cmd.String("user"))
	if err != nil {
		return fmt.Errorf("bad user ID: %w", err)
	}
	s, err := openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	ws, err := moderation.New(s, nil).Warnings(ctx, id)
	if err != nil {
		return err
	}
	if len(ws) == 0 {
		fmt.Println("no warnings")
	}
	for i, w := range ws {
		fmt.Printf("#%d\t%s\tby %d\t%s\n", i+1, w.Time.Format("2006-01-02 15:04:05"), w.By, w.Reason)
	}
	return nil
}

func loadConfig(ctx context.Context, cmd *cli.Command) (*Config, error) {
	r, err := os.Open(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("couldn't open config file: %w", err)
	}
	defer r.Close()
	cfg, _, err := Load(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("couldn't load config: %w", err)
	}
	return cfg, nil
}

func openStore(ctx context.Context, cmd *cli.Command) (store.Store, error) {
	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return loadStore(ctx, cfg.DB)
}

var (
	flagConfig = cli.StringFlag{
		Name:       "config",
		Required:   true,
		Usage:      "TOML config file",
		Persistent: true,
		Action: func(ctx context.Context, cmd *cli.Command, s string) error {
			i, err := os.Stat(s)
			if err != nil {
				return err
			}
			if !i.Mode().IsRegular() {
				return errors.New("config must be a regular file")
			}
			return nil
		},
	}

	flagLog = cli.StringFlag{
		Name:       "log",
		Usage:      "Logging level, one of debug, info, warn, error",
		Value:      "info",
		Persistent: true,
		Action: func(ctx context.Context, c *cli.Command, s string) error {
			var l slog.Level
			return l.UnmarshalText([]byte(s))
		},
	}

	flagLogFormat = cli.StringFlag{
		Name:       "log-format",
		Usage:      "Logging format, either text or json",
		Value:      "text",
		Persistent: true,
		Action: func(ctx context.Context, c *cli.Command, s string) error {
			switch strings.ToLower(s) {
			case "text", "json":
				return nil
			default:
				return errors.New("unknown logging format")
			}
		},
	}
)

func loggerFromFlags(cmd *cli.Command) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(cmd.String("log"))); err != nil {
		panic(err)
	}
	var h slog.Handler
	switch strings.ToLower(cmd.String("log-format")) {
	case "text":
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	case "json":
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	}
	return slog.New(h)
}
