package submission_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-playerfeedback/pkg/device"
	"github.com/goliatone/go-playerfeedback/pkg/form"
	"github.com/goliatone/go-playerfeedback/pkg/model"
	"github.com/goliatone/go-playerfeedback/pkg/player"
	"github.com/goliatone/go-playerfeedback/pkg/submission"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type recordingView struct {
	mu     sync.Mutex
	events []string
}

func (v *recordingView) record(event string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append(v.events, event)
}

func (v *recordingView) Events() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.events...)
}

func (v *recordingView) SetTriggerEnabled(enabled bool) {
	if enabled {
		v.record("trigger:on")
		return
	}
	v.record("trigger:off")
}
func (v *recordingView) ShowLoader()                    { v.record("loader:show") }
func (v *recordingView) HideLoader()                    { v.record("loader:hide") }
func (v *recordingView) ShowValidationError(msg string) { v.record("validation:" + msg) }
func (v *recordingView) ClearValidationError()          { v.record("validation:clear") }
func (v *recordingView) ShowSuccess(msg string)         { v.record("success:" + msg) }
func (v *recordingView) HideSuccess()                   { v.record("success:hide") }
func (v *recordingView) ShowFailure(msg string)         { v.record("failure:" + msg) }
func (v *recordingView) DismissFailure()                { v.record("failure:dismiss") }
func (v *recordingView) Close()                         { v.record("close") }

type manualScheduler struct {
	mu      sync.Mutex
	delays  []time.Duration
	pending []func()
}

func (s *manualScheduler) Schedule(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	s.pending = append(s.pending, fn)
	return func() {}
}

func (s *manualScheduler) Fire() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

type captured struct {
	mu     sync.Mutex
	values map[string][]string
	hits   int
}

func (c *captured) snapshot() (map[string][]string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values, c.hits
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *captured) {
	t.Helper()
	capture := &captured{}
	r := chi.NewRouter()
	r.Post("/feedback", func(w http.ResponseWriter, req *http.Request) {
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		capture.mu.Lock()
		capture.values = req.MultipartForm.Value
		capture.hits++
		capture.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, capture
}

func newWorkflow(t *testing.T, url string, opts ...submission.Option) (*submission.Workflow, *form.Form, *recordingView, *manualScheduler) {
	t.Helper()
	cfg := model.WithDefaults(model.Config{
		URL:    url,
		UserIP: "198.51.100.4",
		FeedbackOptions: []model.FeedbackOption{
			{ID: "froze", Label: "Video froze"},
			{ID: "audio", Label: "Audio out of sync"},
			{ID: "other", Label: "Other", RequiresFreeText: true},
		},
	})
	f := form.Build(cfg)
	view := &recordingView{}
	sched := &manualScheduler{}
	base := []submission.Option{
		submission.WithEnvironment(device.Environment{UserAgent: chromeUA}),
		submission.WithScheduler(sched.Schedule),
	}
	return submission.New(f, view, cfg, append(base, opts...)...), f, view, sched
}

func await(t *testing.T, ch <-chan submission.Outcome) submission.Outcome {
	t.Helper()
	select {
	case outcome, ok := <-ch:
		if !ok {
			t.Fatalf("outcome channel closed without a value")
		}
		return outcome
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for outcome")
	}
	return submission.Outcome{}
}

func TestWorkflow_EmptyFormNeverHitsNetwork(t *testing.T) {
	srv, capture := newServer(t, http.StatusOK, "ok")
	wf, _, view, _ := newWorkflow(t, srv.URL+"/feedback")

	ch, err := wf.Submit(context.Background())
	if ch != nil {
		t.Fatalf("expected no outcome channel")
	}
	var verr *submission.ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, form.ErrEmptyForm) {
		t.Fatalf("expected validation error, got %v", err)
	}

	want := []string{"validation:" + model.DefaultMessages().EmptyForm}
	if diff := cmp.Diff(want, view.Events()); diff != "" {
		t.Fatalf("view events mismatch (-want +got):\n%s", diff)
	}
	if _, hits := capture.snapshot(); hits != 0 {
		t.Fatalf("expected no requests, got %d", hits)
	}
	if wf.State() != submission.StateIdle {
		t.Fatalf("expected idle state, got %s", wf.State())
	}
}

func TestWorkflow_SuccessPostsPayloadAndAutoCloses(t *testing.T) {
	srv, capture := newServer(t, http.StatusOK, "stored")
	rec := player.NewRecorder()
	rec.Report(model.PlayerError{Code: 4, Message: "MEDIA_ERR_SRC_NOT_SUPPORTED"})
	wf, f, view, sched := newWorkflow(t, srv.URL+"/feedback", submission.WithPlayer(rec))

	_ = f.Select("audio")
	_ = f.Select("other")
	_ = f.SetText("other", "captions drift")

	ch, err := wf.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	outcome := await(t, ch)
	if !outcome.Success() || outcome.StatusCode != http.StatusOK || outcome.Body != "stored" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if _, open := <-ch; open {
		t.Fatalf("expected channel closed after outcome")
	}

	values, hits := capture.snapshot()
	if hits != 1 {
		t.Fatalf("expected one request, got %d", hits)
	}
	if diff := cmp.Diff([]string{"audio", "other"}, values["feedback[]"]); diff != "" {
		t.Fatalf("feedback mismatch (-want +got):\n%s", diff)
	}
	checks := map[string]string{
		"feedbackText[other]": "captions drift",
		"userAgent":           chromeUA,
		"platform":            "Win32",
		"userIp":              "198.51.100.4",
		"error[]":             `{"code":4,"message":"MEDIA_ERR_SRC_NOT_SUPPORTED"}`,
	}
	for name, want := range checks {
		if got := values[name]; len(got) != 1 || got[0] != want {
			t.Fatalf("field %s = %v, want %q", name, got, want)
		}
	}
	var info model.DeviceInfo
	if err := json.Unmarshal([]byte(values["deviceInfo"][0]), &info); err != nil {
		t.Fatalf("decode device info: %v", err)
	}
	if info.Browser != "Chrome" || info.UserAgent != chromeUA {
		t.Fatalf("unexpected device info %+v", info)
	}

	if !f.Snapshot().Empty() {
		t.Fatalf("expected form reset after success")
	}

	success := model.DefaultMessages().Success
	want := []string{
		"validation:clear", "success:hide", "failure:dismiss",
		"trigger:off", "loader:show",
		"loader:hide", "trigger:on", "success:" + success,
	}
	if diff := cmp.Diff(want, view.Events()); diff != "" {
		t.Fatalf("view events mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]time.Duration{model.DefaultSuccessDelay}, sched.delays); diff != "" {
		t.Fatalf("scheduled delays mismatch (-want +got):\n%s", diff)
	}
	sched.Fire()
	events := view.Events()
	if diff := cmp.Diff([]string{"success:hide", "close"}, events[len(events)-2:]); diff != "" {
		t.Fatalf("auto-close mismatch (-want +got):\n%s", diff)
	}
}

func TestWorkflow_FailureShowsRawDetail(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError, "database offline")
	wf, f, view, sched := newWorkflow(t, srv.URL+"/feedback")

	_ = f.Select("froze")
	ch, err := wf.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	outcome := await(t, ch)

	var terr *submission.TransportError
	if !errors.As(outcome.Err, &terr) || terr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected transport error, got %v", outcome.Err)
	}

	msgs := model.DefaultMessages()
	wantFailure := "failure:" + msgs.Failure + " " + msgs.FailureDetailPrefix + " database offline"
	events := view.Events()
	if got := events[len(events)-1]; got != wantFailure {
		t.Fatalf("last event = %q, want %q", got, wantFailure)
	}

	enabled := 0
	for _, e := range events {
		if e == "trigger:on" {
			enabled++
		}
	}
	if enabled != 1 {
		t.Fatalf("expected trigger re-enabled once, got %d", enabled)
	}
	if !f.Snapshot().Empty() {
		t.Fatalf("expected form reset after failure")
	}
	if len(sched.delays) != 0 {
		t.Fatalf("failure must not schedule auto-close")
	}

	wf.DismissFailure()
	events = view.Events()
	if events[len(events)-1] != "failure:dismiss" {
		t.Fatalf("expected dismiss event, got %v", events)
	}
}

func TestWorkflow_UnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	wf, f, view, _ := newWorkflow(t, url+"/feedback")
	_ = f.Select("froze")

	ch, err := wf.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	outcome := await(t, ch)
	if outcome.Success() {
		t.Fatalf("expected failure")
	}
	events := view.Events()
	last := events[len(events)-1]
	if !strings.HasPrefix(last, "failure:"+model.DefaultMessages().Failure) {
		t.Fatalf("unexpected last event %q", last)
	}
}

func TestWorkflow_RejectsConcurrentSubmit(t *testing.T) {
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	transport := submission.TransportFunc(func(ctx context.Context, req submission.Request) (submission.Response, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return submission.Response{StatusCode: http.StatusNoContent}, nil
	})
	wf, f, _, _ := newWorkflow(t, "http://feedback.invalid", submission.WithTransport(transport))

	_ = f.Select("froze")
	ch, err := wf.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if wf.State() != submission.StateSubmitting {
		t.Fatalf("expected submitting state, got %s", wf.State())
	}

	_ = f.Select("audio")
	if _, err := wf.Submit(context.Background()); !errors.Is(err, submission.ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}

	close(release)
	await(t, ch)

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected a single request, got %d", calls)
	}
}

func TestWorkflow_CancelledContextDoesNotAbortRequest(t *testing.T) {
	release := make(chan struct{})
	transport := submission.TransportFunc(func(ctx context.Context, req submission.Request) (submission.Response, error) {
		<-release
		if err := ctx.Err(); err != nil {
			return submission.Response{}, err
		}
		return submission.Response{StatusCode: http.StatusOK}, nil
	})
	wf, f, _, _ := newWorkflow(t, "http://feedback.invalid", submission.WithTransport(transport))
	_ = f.Select("froze")

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := wf.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	cancel()
	close(release)

	if outcome := await(t, ch); !outcome.Success() {
		t.Fatalf("expected success after caller cancel, got %v", outcome.Err)
	}
}

func TestWorkflow_ResubmitClearsPendingSuccess(t *testing.T) {
	transport := submission.TransportFunc(func(context.Context, submission.Request) (submission.Response, error) {
		return submission.Response{StatusCode: http.StatusOK}, nil
	})
	wf, f, view, sched := newWorkflow(t, "http://feedback.invalid", submission.WithTransport(transport))

	_ = f.Select("froze")
	ch, _ := wf.Submit(context.Background())
	await(t, ch)

	_ = f.Select("audio")
	ch, _ = wf.Submit(context.Background())
	await(t, ch)

	before := len(view.Events())
	sched.Fire()
	after := view.Events()[before:]
	if diff := cmp.Diff([]string{"success:hide", "close"}, after); diff != "" {
		t.Fatalf("only the latest timer should close (-want +got):\n%s", diff)
	}
}

func TestWorkflow_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := submission.NewMetrics(reg)
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	if again, err := submission.NewMetrics(reg); err != nil || again == nil {
		t.Fatalf("re-registering should reuse collectors: %v", err)
	}

	transport := submission.TransportFunc(func(context.Context, submission.Request) (submission.Response, error) {
		return submission.Response{StatusCode: http.StatusOK}, nil
	})
	wf, f, _, _ := newWorkflow(t, "http://feedback.invalid",
		submission.WithTransport(transport),
		submission.WithMetrics(metrics),
	)

	_, _ = wf.Submit(context.Background())
	_ = f.Select("froze")
	ch, _ := wf.Submit(context.Background())
	await(t, ch)

	expected := `
# HELP playerfeedback_submissions_total Feedback submissions by result.
# TYPE playerfeedback_submissions_total counter
playerfeedback_submissions_total{result="invalid"} 1
playerfeedback_submissions_total{result="success"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "playerfeedback_submissions_total"); err != nil {
		t.Fatalf("metrics mismatch: %v", err)
	}
}
