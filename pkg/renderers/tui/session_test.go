package tui_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-playerfeedback/pkg/form"
	"github.com/goliatone/go-playerfeedback/pkg/model"
	"github.com/goliatone/go-playerfeedback/pkg/render"
	"github.com/goliatone/go-playerfeedback/pkg/renderers/tui"
	"github.com/goliatone/go-playerfeedback/pkg/submission"
	"github.com/goliatone/go-playerfeedback/pkg/view"
)

type stubDriver struct {
	multiIdx   [][]int
	selectIdx  []int
	confirm    []bool
	textAreas  []string
	multiPos   int
	selectPos  int
	confirmPos int
	textPos    int

	infoMessages []string
	multiConfigs []tui.SelectConfig
}

func (s *stubDriver) Confirm(_ context.Context, _ tui.ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ tui.SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, cfg tui.SelectConfig) ([]int, error) {
	s.multiConfigs = append(s.multiConfigs, cfg)
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ tui.TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

type target struct {
	form     *form.Form
	surface  *view.Surface
	workflow *submission.Workflow
}

func (t *target) Form() *form.Form     { return t.form }
func (t *target) Status() model.Status { return t.surface.Status() }
func (t *target) Submit(ctx context.Context) (<-chan submission.Outcome, error) {
	return t.workflow.Submit(ctx)
}

func newTarget(t *testing.T, transport submission.Transport) (*target, *[]submission.Request) {
	t.Helper()
	cfg := model.WithDefaults(model.Config{
		Title: "Report a <b>problem</b>",
		URL:   "https://feedback.example.com",
		FeedbackOptions: []model.FeedbackOption{
			{ID: "froze", Label: "Video froze"},
			{ID: "audio", Label: "Audio", Subtext: "out of sync"},
			{ID: "low", Kind: model.OptionKindRadio, Label: "Low quality"},
			{ID: "other", Label: "Other", RequiresFreeText: true},
		},
	})
	f := form.Build(cfg)
	surface := view.NewSurface(cfg.Placement)

	var sent []submission.Request
	recording := submission.TransportFunc(func(ctx context.Context, req submission.Request) (submission.Response, error) {
		sent = append(sent, req)
		return transport.Send(ctx, req)
	})
	wf := submission.New(f, surface, cfg,
		submission.WithTransport(recording),
		submission.WithScheduler(func(time.Duration, func()) func() { return func() {} }),
	)
	return &target{form: f, surface: surface, workflow: wf}, &sent
}

func ok() submission.Transport {
	return submission.TransportFunc(func(context.Context, submission.Request) (submission.Response, error) {
		return submission.Response{StatusCode: http.StatusOK}, nil
	})
}

func TestSession_CollectsAndSubmits(t *testing.T) {
	tg, sent := newTarget(t, ok())
	driver := &stubDriver{
		multiIdx:  [][]int{{1, 2}},
		selectIdx: []int{1},
		textAreas: []string{"  lips out of sync  "},
		confirm:   []bool{true},
	}
	session, err := tui.NewSession(tg, tui.WithPromptDriver(driver), tui.WithTheme(tui.Theme{ErrorPrefix: "! "}))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	outcome, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !outcome.Success() {
		t.Fatalf("expected success, got %v", outcome.Err)
	}
	if len(*sent) != 1 {
		t.Fatalf("expected one request, got %d", len(*sent))
	}
	body := string((*sent)[0].Body)
	for _, want := range []string{"audio", "other", "low", "lips out of sync"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %q", want)
		}
	}

	wantOptions := []string{"Video froze", "Audio (out of sync)", "Other"}
	if diff := cmp.Diff(wantOptions, driver.multiConfigs[0].Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	wantInfo := []string{
		"Report a problem",
		"Loading...",
		model.DefaultMessages().Success,
	}
	if diff := cmp.Diff(wantInfo, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_EmptySelectionPromptsAgain(t *testing.T) {
	tg, sent := newTarget(t, ok())
	driver := &stubDriver{
		multiIdx:  [][]int{{}, {0}},
		selectIdx: []int{0, 0},
		confirm:   []bool{true, true},
	}
	session, _ := tui.NewSession(tg, tui.WithPromptDriver(driver), tui.WithTheme(tui.Theme{ErrorPrefix: "! "}))

	if _, err := session.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if driver.multiPos != 2 {
		t.Fatalf("expected a second prompt round, got %d", driver.multiPos)
	}
	if driver.infoMessages[1] != "! "+model.DefaultMessages().EmptyForm {
		t.Fatalf("expected validation message, got %v", driver.infoMessages)
	}
	if len(*sent) != 1 {
		t.Fatalf("expected exactly one request, got %d", len(*sent))
	}
}

func TestSession_FailureReportsDetail(t *testing.T) {
	failing := submission.TransportFunc(func(context.Context, submission.Request) (submission.Response, error) {
		return submission.Response{}, &submission.TransportError{StatusCode: http.StatusBadGateway, Body: "upstream down"}
	})
	tg, _ := newTarget(t, failing)
	driver := &stubDriver{
		multiIdx:  [][]int{{0}},
		selectIdx: []int{0},
		confirm:   []bool{true},
	}
	session, _ := tui.NewSession(tg, tui.WithPromptDriver(driver), tui.WithTheme(tui.Theme{ErrorPrefix: "! "}))

	outcome, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Success() {
		t.Fatalf("expected failure")
	}
	last := driver.infoMessages[len(driver.infoMessages)-1]
	if !strings.HasPrefix(last, "! Sorry!") || !strings.HasSuffix(last, "Error: upstream down") {
		t.Fatalf("unexpected failure line %q", last)
	}
}

func TestSession_Declined(t *testing.T) {
	tg, sent := newTarget(t, ok())
	driver := &stubDriver{
		multiIdx:  [][]int{{0}},
		selectIdx: []int{0},
		confirm:   []bool{false},
	}
	session, _ := tui.NewSession(tg, tui.WithPromptDriver(driver))

	if _, err := session.Run(context.Background()); !errors.Is(err, tui.ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
	if len(*sent) != 0 {
		t.Fatalf("declined session must not send")
	}
	if !tg.form.Snapshot().Empty() {
		t.Fatalf("expected form reset after decline")
	}
}

func TestNewSession_RequiresTarget(t *testing.T) {
	if _, err := tui.NewSession(nil); err == nil {
		t.Fatalf("expected error for nil target")
	}
}

func TestRenderer_Text(t *testing.T) {
	tg, _ := newTarget(t, ok())
	_ = tg.form.Select("audio")
	_ = tg.form.Select("low")
	_ = tg.form.Select("other")
	_ = tg.form.SetText("other", "buffering")
	snap := tg.form.Snapshot()

	out, err := tui.NewRenderer(tui.Theme{ErrorPrefix: "! "}).Render(context.Background(), tg.form.Model(), render.RenderOptions{
		Form:   &snap,
		Status: model.Status{FailureMessage: "Sorry! Error: 500"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	want := strings.Join([]string{
		"Report a problem",
		"",
		"[ ] Video froze",
		"[x] Audio (out of sync)",
		"(*) Low quality",
		"[x] Other",
		"    > buffering",
		"! Sorry! Error: 500",
		"",
	}, "\n")
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Fatalf("text mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_NoOptionsReturnsValidationError(t *testing.T) {
	cfg := model.WithDefaults(model.Config{
		URL:             "https://feedback.example.com",
		FeedbackOptions: []model.FeedbackOption{},
	})
	f := form.Build(cfg)
	surface := view.NewSurface(cfg.Placement)
	var requests int
	wf := submission.New(f, surface, cfg, submission.WithTransport(
		submission.TransportFunc(func(context.Context, submission.Request) (submission.Response, error) {
			requests++
			return submission.Response{StatusCode: http.StatusOK}, nil
		}),
	))
	driver := &stubDriver{confirm: []bool{true, true, true}}
	session, _ := tui.NewSession(&target{form: f, surface: surface, workflow: wf}, tui.WithPromptDriver(driver))

	_, err := session.Run(context.Background())
	var verr *submission.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if driver.confirmPos != 1 {
		t.Fatalf("expected a single confirm round, got %d", driver.confirmPos)
	}
	if requests != 0 {
		t.Fatalf("expected no requests, got %d", requests)
	}
}
