package submission

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-playerfeedback/pkg/device"
	"github.com/goliatone/go-playerfeedback/pkg/form"
	"github.com/goliatone/go-playerfeedback/pkg/model"
	"github.com/goliatone/go-playerfeedback/pkg/player"
)

// State is the workflow phase.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	default:
		return "idle"
	}
}

// Outcome is delivered once per accepted submission.
type Outcome struct {
	StatusCode int
	Body       string
	Err        error
	Duration   time.Duration
}

// Success reports whether the endpoint accepted the submission.
func (o Outcome) Success() bool { return o.Err == nil }

// Workflow drives validate, serialize, send and report for one form. At most
// one request is outstanding at a time.
type Workflow struct {
	mu    sync.Mutex
	state State

	form      *form.Form
	view      View
	cfg       model.Config
	transport Transport

	environment func() device.Environment
	player      player.Player
	logger      *slog.Logger
	metrics     *Metrics
	schedule    Scheduler

	successGen    uint64
	cancelSuccess func()
}

// New creates a workflow bound to f and view. cfg should already carry
// defaults (see model.WithDefaults).
func New(f *form.Form, view View, cfg model.Config, opts ...Option) *Workflow {
	w := &Workflow{
		form:        f,
		view:        view,
		cfg:         cfg,
		environment: func() device.Environment { return device.Environment{} },
		logger:      slog.Default(),
		schedule:    afterFunc,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	if w.transport == nil {
		w.transport = NewHTTPTransportWithTimeout(cfg.Timeout)
	}
	if w.view == nil {
		w.view = nopView{}
	}
	return w
}

// State returns the current phase.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Submit validates the form and, when valid, sends it asynchronously. The
// returned channel receives exactly one Outcome and is then closed.
//
// An empty form returns a *ValidationError without any network activity.
// A call made while a request is outstanding returns ErrInFlight. ctx bounds
// only the synchronous part; cancelling it never aborts the request.
func (w *Workflow) Submit(ctx context.Context) (<-chan Outcome, error) {
	w.mu.Lock()
	if w.state != StateIdle {
		w.mu.Unlock()
		return nil, ErrInFlight
	}
	if err := ctx.Err(); err != nil {
		w.mu.Unlock()
		return nil, err
	}

	w.state = StateValidating
	selections, err := w.form.ValidSelections()
	if err != nil {
		w.state = StateIdle
		msg := w.cfg.Messages.EmptyForm
		w.view.ShowValidationError(msg)
		w.mu.Unlock()

		w.metrics.Observe(ResultInvalid, 0)
		w.logger.Debug("submission: rejected empty form", "form_id", w.form.ID())
		return nil, &ValidationError{Message: msg, Err: err}
	}

	w.state = StateSubmitting
	w.view.ClearValidationError()
	w.clearSuccessLocked()
	w.view.DismissFailure()
	w.view.SetTriggerEnabled(false)
	w.view.ShowLoader()
	w.mu.Unlock()

	sc := NewContext(w.cfg, w.environment(), w.player)
	req, buildErr := w.request(selections, sc)

	done := make(chan Outcome, 1)
	go w.send(context.WithoutCancel(ctx), req, buildErr, done)
	return done, nil
}

// DismissFailure hides a failure message without other side effects.
func (w *Workflow) DismissFailure() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.view.DismissFailure()
}

// Stop cancels a pending success auto-close.
func (w *Workflow) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancelSuccess != nil {
		w.cancelSuccess()
		w.cancelSuccess = nil
	}
	w.successGen++
}

func (w *Workflow) request(selections []model.Selection, sc Context) (Request, error) {
	payload, err := BuildPayload(selections, sc)
	if err != nil {
		return Request{}, err
	}
	body, contentType, err := payload.Encode()
	if err != nil {
		return Request{}, err
	}
	return Request{URL: sc.TargetURL, ContentType: contentType, Body: body}, nil
}

func (w *Workflow) send(ctx context.Context, req Request, buildErr error, done chan<- Outcome) {
	start := time.Now()
	var outcome Outcome
	if buildErr != nil {
		outcome.Err = &TransportError{Err: buildErr}
	} else {
		resp, err := w.transport.Send(ctx, req)
		outcome.StatusCode = resp.StatusCode
		outcome.Body = resp.Body
		if err != nil {
			var terr *TransportError
			if !errors.As(err, &terr) {
				terr = &TransportError{Err: err}
				err = terr
			}
			outcome.Err = err
			outcome.StatusCode = terr.StatusCode
			outcome.Body = terr.Body
		}
	}
	outcome.Duration = time.Since(start)

	w.complete(outcome)
	done <- outcome
	close(done)
}

func (w *Workflow) complete(outcome Outcome) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.view.HideLoader()
	w.view.SetTriggerEnabled(true)
	w.form.Reset()

	if outcome.Success() {
		w.view.ShowSuccess(w.cfg.Messages.Success)
		w.successGen++
		gen := w.successGen
		delay := w.cfg.SuccessDelay
		if delay <= 0 {
			delay = model.DefaultSuccessDelay
		}
		w.cancelSuccess = w.schedule(delay, func() { w.expireSuccess(gen) })

		w.metrics.Observe(ResultSuccess, outcome.Duration)
		w.logger.Info("submission: sent",
			"form_id", w.form.ID(),
			"status", outcome.StatusCode,
			"duration", outcome.Duration,
		)
	} else {
		w.view.ShowFailure(w.failureMessage(outcome.Err))

		w.metrics.Observe(ResultFailure, outcome.Duration)
		w.logger.Warn("submission: failed",
			"form_id", w.form.ID(),
			"status", outcome.StatusCode,
			"error", outcome.Err,
		)
	}
	w.state = StateIdle
}

func (w *Workflow) expireSuccess(gen uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.successGen {
		return
	}
	w.cancelSuccess = nil
	w.view.HideSuccess()
	w.view.Close()
}

func (w *Workflow) clearSuccessLocked() {
	if w.cancelSuccess != nil {
		w.cancelSuccess()
		w.cancelSuccess = nil
	}
	w.successGen++
	w.view.HideSuccess()
}

func (w *Workflow) failureMessage(err error) string {
	detail := ""
	var terr *TransportError
	if errors.As(err, &terr) {
		detail = terr.Detail()
	} else if err != nil {
		detail = err.Error()
	}
	parts := []string{w.cfg.Messages.Failure}
	if detail != "" {
		parts = append(parts, w.cfg.Messages.FailureDetailPrefix, detail)
	}
	return strings.Join(parts, " ")
}

type nopView struct{}

func (nopView) SetTriggerEnabled(bool)     {}
func (nopView) ShowLoader()                {}
func (nopView) HideLoader()                {}
func (nopView) ShowValidationError(string) {}
func (nopView) ClearValidationError()      {}
func (nopView) ShowSuccess(string)         {}
func (nopView) HideSuccess()               {}
func (nopView) ShowFailure(string)         {}
func (nopView) DismissFailure()            {}
func (nopView) Close()                     {}
