package metrics

import "github.com/prometheus/client_golang/prometheus"

type Observer interface {
	Observe(val float64, labels ...string)

	// for now we will tightly couple to the prometheus collector type
	prometheus.Collector
}

type Metrics struct {
	MessagesCount   Observer
	CommandCount    Observer
	CommandErrors   Observer
	PointsAwarded   Observer
	WarningsIssued  Observer
	MembersJoined   Observer
	CommandLatency  Observer
	PresenceUpdates Observer
}

func (m Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.MessagesCount,
		m.CommandCount,
		m.CommandErrors,
		m.PointsAwarded,
		m.WarningsIssued,
		m.MembersJoined,
		m.CommandLatency,
		m.PresenceUpdates,
	}
}

// Discard is an Observer that records nothing. It is useful in tests and in
// offline tools that have no metrics endpoint.
var Discard Observer = discard{prometheus.NewCounter(prometheus.CounterOpts{Name: "discard"})}

type discard struct {
	prometheus.Collector
}

func (discard) Observe(val float64, labels ...string) {}

// New creates the bot's metrics under the given namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		MessagesCount: NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: namespace,
					Subsystem: "discord",
					Name:      "messages",
					Help:      "Number of messages received from Discord.",
				},
			),
		),
		CommandCount: NewPromCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Subsystem: "commands",
					Name:      "invocations",
					Help:      "Number of command invocations by command name.",
				},
				[]string{"command"},
			),
		),
		CommandErrors: NewPromCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Subsystem: "commands",
					Name:      "errors",
					Help:      "Number of command invocations that ended in an error, by kind.",
				},
				[]string{"kind"},
			),
		),
		PointsAwarded: NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: namespace,
					Subsystem: "points",
					Name:      "awarded",
					Help:      "Number of points awarded for messages.",
				},
			),
		),
		WarningsIssued: NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: namespace,
					Subsystem: "moderation",
					Name:      "warnings",
					Help:      "Number of warnings issued.",
				},
			),
		),
		MembersJoined: NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: namespace,
					Subsystem: "discord",
					Name:      "members_joined",
					Help:      "Number of members who joined a server while the bot was connected.",
				},
			),
		),
		CommandLatency: NewPromObserverVec(
			prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Buckets:   []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 5, 10},
					Namespace: namespace,
					Subsystem: "commands",
					Name:      "latency",
					Help:      "How long commands take to run in seconds",
				},
				[]string{"command"},
			),
		),
		PresenceUpdates: NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: namespace,
					Subsystem: "discord",
					Name:      "presence_updates",
					Help:      "Number of presence rotations attempted.",
				},
			),
		),
	}
}
