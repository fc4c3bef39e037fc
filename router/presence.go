package router

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"gitlab.com/zephyrtronium/pick"

	"github.com/zephyrtronium/warden/command"
	"github.com/zephyrtronium/warden/message"
	"github.com/zephyrtronium/warden/metrics"
)

// DefaultPresenceEvery is the default period of presence rotation.
const DefaultPresenceEvery = 30 * time.Minute

// DefaultActivities are the activities shown when none are configured.
var DefaultActivities = []pick.Case[message.Activity]{
	{E: message.Activity{Kind: message.Watching, Name: "!help"}, W: 1},
	{E: message.Activity{Kind: message.Playing, Name: "with commands"}, W: 1},
	{E: message.Activity{Kind: message.Listening, Name: "your messages"}, W: 1},
}

// Presence periodically changes the bot's displayed activity.
type Presence struct {
	log        *slog.Logger
	platform   command.Platform
	activities *pick.Dist[message.Activity]
	every      time.Duration
	updates    metrics.Observer

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPresence creates a presence rotation over the given activities.
// If activities is empty, DefaultActivities are used. If every is not
// positive, DefaultPresenceEvery is used. updates may be nil.
func NewPresence(log *slog.Logger, p command.Platform, activities []pick.Case[message.Activity], every time.Duration, updates metrics.Observer) *Presence {
	if len(activities) == 0 {
		activities = DefaultActivities
	}
	if every <= 0 {
		every = DefaultPresenceEvery
	}
	if updates == nil {
		updates = metrics.Discard
	}
	return &Presence{
		log:        log,
		platform:   p,
		activities: pick.New(activities),
		every:      every,
		updates:    updates,
	}
}

// Start begins rotating the presence, setting one immediately. It reports
// false without doing anything if the rotation is already running.
// The rotation ends when ctx is canceled or Stop is called.
func (p *Presence) Start(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return false
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
	return true
}

// Stop ends the rotation and waits for it to finish. Stop is a no-op if the
// rotation is not running. The rotation can be started again afterward.
func (p *Presence) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Presence) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	tick := time.NewTicker(p.every)
	defer tick.Stop()
	for {
		p.update(ctx)
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

func (p *Presence) update(ctx context.Context) {
	a := p.activities.Pick(rand.Uint32())
	if err := p.platform.SetPresence(ctx, a); err != nil {
		p.log.WarnContext(ctx, "couldn't set presence", slog.String("activity", a.String()), slog.Any("err", err))
		return
	}
	p.updates.Observe(1)
	p.log.DebugContext(ctx, "set presence", slog.String("activity", a.String()))
}
