package app

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Option customizes a service.
type Option func(*options)

type options struct {
	now             func() time.Time
	newID           func() string
	logger          *slog.Logger
	hub             *LeaderboardHub
	leaderboardSize int
}

func defaultOptions() options {
	return options{
		now:             time.Now,
		newID:           uuid.NewString,
		logger:          slog.Default(),
		hub:             NewLeaderboardHub(),
		leaderboardSize: 10,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock allows deterministic timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces uuid generation.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithLeaderboardHub shares a hub between services.
func WithLeaderboardHub(hub *LeaderboardHub) Option {
	return func(o *options) { o.hub = hub }
}

// WithLeaderboardSize sets how many entries are pushed to live subscribers.
func WithLeaderboardSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.leaderboardSize = n
		}
	}
}
