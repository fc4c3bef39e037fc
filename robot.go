package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/zephyrtronium/warden/command"
	"github.com/zephyrtronium/warden/metrics"
	"github.com/zephyrtronium/warden/moderation"
	"github.com/zephyrtronium/warden/points"
	"github.com/zephyrtronium/warden/router"
	"github.com/zephyrtronium/warden/store"
)

// Robot is the bot service. It is constructed once at startup.
type Robot struct {
	// store is the persistent store. The Robot does not own it.
	store store.Store
	// points is the scoring engine.
	points *points.Engine
	// moderation is the moderation log.
	moderation *moderation.Log
	// metrics is the bot's metrics.
	metrics *metrics.Metrics
	// discord is the Discord connection.
	discord *discord
	// router handles Discord events.
	router *router.Router
	// presence rotates the bot's activity.
	presence *router.Presence
	// dispatch runs commands.
	dispatch *command.Dispatcher
}

// New creates the bot from its configuration and store.
func New(cfg *Config, s store.Store, token string) (*Robot, error) {
	every, num := fseconds(cfg.Rate.Every), cfg.Rate.Num
	lim := rate.NewLimiter(rate.Inf, 1)
	if every > 0 && num > 0 {
		lim = rate.NewLimiter(rate.Every(every), num)
	}
	d, err := newDiscord(token, lim)
	if err != nil {
		return nil, err
	}
	m := metrics.New("warden")
	robo := &Robot{
		store:      s,
		points:     points.New(s, m.PointsAwarded),
		moderation: moderation.New(s, m.WarningsIssued),
		metrics:    m,
		discord:    d,
		dispatch:   command.NewDispatcher(cfg.Prefix, command.Commands()),
	}
	cr := &command.Robot{
		Log:        slog.Default(),
		Platform:   d,
		Points:     robo.points,
		Moderation: robo.moderation,
		Owner:      cfg.Owner.Name,
		Contact:    cfg.Owner.Contact,
	}
	robo.presence = router.NewPresence(slog.Default(), d, cfg.Presence.Cases(), fseconds(cfg.Presence.Every), m.PresenceUpdates)
	robo.router = router.New(slog.Default(), cr, robo.dispatch, m, robo.presence)
	return robo, nil
}

// Run connects to Discord and serves the HTTP API until ctx is canceled.
// If listen is empty, the API is not served.
func (robo *Robot) Run(ctx context.Context, listen string) error {
	group, ctx := errgroup.WithContext(ctx)
	robo.discord.route(ctx, robo.router)
	robo.router.Connecting()
	group.Go(func() error { return robo.discord.open(ctx) })
	if listen != "" {
		group.Go(func() error {
			return robo.api(ctx, listen, new(http.ServeMux), robo.metrics.Collectors())
		})
	}
	err := group.Wait()
	robo.presence.Stop()
	robo.router.Wait()
	if err != nil {
		return fmt.Errorf("bot stopped: %w", err)
	}
	return nil
}
