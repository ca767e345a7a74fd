package playerfeedback

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-playerfeedback/pkg/device"
	"github.com/goliatone/go-playerfeedback/pkg/form"
	"github.com/goliatone/go-playerfeedback/pkg/model"
	"github.com/goliatone/go-playerfeedback/pkg/render"
	"github.com/goliatone/go-playerfeedback/pkg/submission"
)

// Option customises Init.
type Option func(*options)

type options struct {
	builder     []form.BuilderOption
	submission  []submission.Option
	logger      *slog.Logger
	registerer  prometheus.Registerer
	renderers   []render.Renderer
	defaultName string
	stylesheets []string

	themeSelector theme.ThemeSelector
	themeName     string
	themeVariant  string
}

// WithLogger sets the logger used by the widget and its workflow.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTransport replaces the HTTP transport.
func WithTransport(t submission.Transport) Option {
	return func(o *options) {
		o.submission = append(o.submission, submission.WithTransport(t))
	}
}

// WithEnvironment sets the client environment reported with submissions.
func WithEnvironment(env device.Environment) Option {
	return func(o *options) {
		o.submission = append(o.submission, submission.WithEnvironment(env))
	}
}

// WithEnvironmentFunc reads the client environment at submit time.
func WithEnvironmentFunc(fn func() device.Environment) Option {
	return func(o *options) {
		o.submission = append(o.submission, submission.WithEnvironmentFunc(fn))
	}
}

// WithScheduler replaces time.AfterFunc for the success auto-close.
func WithScheduler(s submission.Scheduler) Option {
	return func(o *options) {
		o.submission = append(o.submission, submission.WithScheduler(s))
	}
}

// WithMetrics registers submission metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithDecorators adds form model decorators.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(o *options) {
		o.builder = append(o.builder, form.WithDecorators(decorators...))
	}
}

// WithIDFunc overrides the form instance id generator.
func WithIDFunc(fn func() string) Option {
	return func(o *options) {
		o.builder = append(o.builder, form.WithIDFunc(fn))
	}
}

// WithRenderer registers an additional renderer.
func WithRenderer(r render.Renderer) Option {
	return func(o *options) {
		if r != nil {
			o.renderers = append(o.renderers, r)
		}
	}
}

// WithDefaultRenderer selects the renderer Render uses for an empty name.
func WithDefaultRenderer(name string) Option {
	return func(o *options) {
		o.defaultName = name
	}
}

// WithTheme resolves name/variant through selector for HTML rendering.
func WithTheme(selector theme.ThemeSelector, name, variant string) Option {
	return func(o *options) {
		o.themeSelector = selector
		o.themeName = name
		o.themeVariant = variant
	}
}

// WithStylesheet links href from the HTML rendering, e.g. the path
// AssetsHandler is mounted on.
func WithStylesheet(href string) Option {
	return func(o *options) {
		if href != "" {
			o.stylesheets = append(o.stylesheets, href)
		}
	}
}
