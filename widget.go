// Package playerfeedback is a feedback widget for video players: a form built
// from a list of issue categories and a workflow that posts the selection,
// with client environment and the player's last error, to a configured
// endpoint.
package playerfeedback

import (
	"context"
	"fmt"
	"log/slog"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-playerfeedback/pkg/contract"
	"github.com/goliatone/go-playerfeedback/pkg/form"
	"github.com/goliatone/go-playerfeedback/pkg/model"
	"github.com/goliatone/go-playerfeedback/pkg/player"
	"github.com/goliatone/go-playerfeedback/pkg/render"
	"github.com/goliatone/go-playerfeedback/pkg/renderers/tui"
	"github.com/goliatone/go-playerfeedback/pkg/renderers/vanilla"
	"github.com/goliatone/go-playerfeedback/pkg/submission"
	"github.com/goliatone/go-playerfeedback/pkg/view"
)

// DefaultRenderer is used by Render when no name is given.
const DefaultRenderer = "vanilla"

// Widget is one feedback form attached to one player. Each instance owns its
// form, UI surface and workflow; nothing is shared between instances.
type Widget struct {
	cfg      model.Config
	form     *form.Form
	surface  *view.Surface
	workflow *submission.Workflow
	player   player.Player

	renderers   *render.Registry
	defaultName string
	theme       *theme.RendererConfig
	stylesheets []string
	logger      *slog.Logger
}

// Init builds a widget for p from cfg. Missing configuration values take
// their defaults. p may be nil, in which case submissions report no player
// error.
func Init(p player.Player, cfg model.Config, opts ...Option) (*Widget, error) {
	o := options{
		logger:      slog.Default(),
		defaultName: DefaultRenderer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	cfg = model.WithDefaults(cfg)

	f, err := form.New(form.NewBuilder(o.builder...), cfg)
	if err != nil {
		return nil, fmt.Errorf("playerfeedback: build form: %w", err)
	}
	surface := view.NewSurface(f.Model().Placement)

	subOpts := []submission.Option{
		submission.WithLogger(o.logger),
		submission.WithPlayer(p),
	}
	if o.registerer != nil {
		metrics, err := submission.NewMetrics(o.registerer)
		if err != nil {
			return nil, fmt.Errorf("playerfeedback: register metrics: %w", err)
		}
		subOpts = append(subOpts, submission.WithMetrics(metrics))
	}
	subOpts = append(subOpts, o.submission...)

	html, err := vanilla.New()
	if err != nil {
		return nil, fmt.Errorf("playerfeedback: vanilla renderer: %w", err)
	}
	registry, err := render.NewRegistry(append([]render.Renderer{html, tui.NewRenderer()}, o.renderers...)...)
	if err != nil {
		return nil, fmt.Errorf("playerfeedback: renderers: %w", err)
	}

	themeCfg, err := render.ResolveTheme(o.themeSelector, o.themeName, o.themeVariant)
	if err != nil {
		return nil, fmt.Errorf("playerfeedback: %w", err)
	}

	w := &Widget{
		cfg:         cfg,
		form:        f,
		surface:     surface,
		workflow:    submission.New(f, surface, cfg, subOpts...),
		player:      p,
		renderers:   registry,
		defaultName: o.defaultName,
		theme:       themeCfg,
		stylesheets: o.stylesheets,
		logger:      o.logger,
	}

	if p != nil {
		p.OnError(func(e model.PlayerError) {
			w.logger.Info("playerfeedback: player reported error",
				"form_id", f.ID(),
				"code", e.Code,
				"message", e.Message,
			)
		})
	}

	w.logger.Debug("playerfeedback: widget ready",
		"form_id", f.ID(),
		"options", len(cfg.FeedbackOptions),
		"placement", f.Model().Placement,
	)
	return w, nil
}

// Form returns the live form state.
func (w *Widget) Form() *form.Form { return w.form }

// Config returns the effective configuration.
func (w *Widget) Config() model.Config { return w.cfg }

// Status returns the UI state.
func (w *Widget) Status() model.Status { return w.surface.Status() }

// Subscribe registers fn for UI state changes. fn runs on the goroutine that
// changed the state and must not call back into the widget.
func (w *Widget) Subscribe(fn func(model.Status)) (unsubscribe func()) {
	return w.surface.Subscribe(fn)
}

// Open shows the form.
func (w *Widget) Open() { w.surface.Open() }

// Close hides a modal form and clears outcome messages. A pending success
// auto-close is cancelled so it cannot close the form after a reopen.
func (w *Widget) Close() {
	w.workflow.Stop()
	w.surface.Close()
}

// Dismiss hides the failure message.
func (w *Widget) Dismiss() { w.workflow.DismissFailure() }

// Submit validates and sends the form. See submission.Workflow.Submit.
func (w *Widget) Submit(ctx context.Context) (<-chan submission.Outcome, error) {
	return w.workflow.Submit(ctx)
}

// Stop cancels pending timers. The widget stays usable.
func (w *Widget) Stop() { w.workflow.Stop() }

// Renderers lists the registered renderer names.
func (w *Widget) Renderers() []string { return w.renderers.List() }

// Render draws the widget in its current state with the named renderer, or
// the default renderer when name is empty. It returns the output and its
// content type.
func (w *Widget) Render(ctx context.Context, name string) ([]byte, string, error) {
	if name == "" {
		name = w.defaultName
	}
	r, err := w.renderers.Get(name)
	if err != nil {
		return nil, "", err
	}
	snap := w.form.Snapshot()
	out, err := r.Render(ctx, w.form.Model(), render.RenderOptions{
		Status:      w.surface.Status(),
		Form:        &snap,
		Theme:       w.theme,
		Stylesheets: w.stylesheets,
	})
	if err != nil {
		return nil, "", err
	}
	return out, r.ContentType(), nil
}

// Contract returns the OpenAPI description of the endpoint this widget posts
// to.
func (w *Widget) Contract(ctx context.Context) (*contract.Contract, error) {
	return contract.New(ctx, w.cfg)
}

var _ tui.Target = (*Widget)(nil)
