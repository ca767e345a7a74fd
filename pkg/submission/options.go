package submission

import (
	"log/slog"
	"time"

	"github.com/goliatone/go-playerfeedback/pkg/device"
	"github.com/goliatone/go-playerfeedback/pkg/player"
)

// Scheduler runs fn after d and returns a function that cancels it.
type Scheduler func(d time.Duration, fn func()) (cancel func())

// Option customises a Workflow.
type Option func(*Workflow)

// WithTransport overrides the HTTP transport.
func WithTransport(t Transport) Option {
	return func(w *Workflow) {
		if t != nil {
			w.transport = t
		}
	}
}

// WithEnvironment sets the host environment reported with every submission.
func WithEnvironment(env device.Environment) Option {
	return func(w *Workflow) {
		w.environment = func() device.Environment { return env }
	}
}

// WithEnvironmentFunc reads the environment lazily at submit time.
func WithEnvironmentFunc(fn func() device.Environment) Option {
	return func(w *Workflow) {
		if fn != nil {
			w.environment = fn
		}
	}
}

// WithPlayer attaches the player whose last error is reported.
func WithPlayer(p player.Player) Option {
	return func(w *Workflow) {
		w.player = p
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithMetrics records submission outcomes.
func WithMetrics(m *Metrics) Option {
	return func(w *Workflow) {
		w.metrics = m
	}
}

// WithScheduler replaces time.AfterFunc for the success auto-close.
func WithScheduler(s Scheduler) Option {
	return func(w *Workflow) {
		if s != nil {
			w.schedule = s
		}
	}
}

func afterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
