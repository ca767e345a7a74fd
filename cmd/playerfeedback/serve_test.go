package main

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	playerfeedback "github.com/goliatone/go-playerfeedback"
	"github.com/goliatone/go-playerfeedback/pkg/contract"
	"github.com/goliatone/go-playerfeedback/pkg/device"
	"github.com/goliatone/go-playerfeedback/pkg/model"
	"github.com/goliatone/go-playerfeedback/pkg/submission"
	"github.com/goliatone/go-playerfeedback/pkg/testsupport"
)

// lockedBuffer is written by handler goroutines and read by the test.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func demoServer(t *testing.T) (*httptest.Server, *prometheus.Registry, *lockedBuffer) {
	t.Helper()

	cfg := model.WithDefaults(model.Config{
		URL: collectorPath,
		FeedbackOptions: []model.FeedbackOption{
			{ID: "froze", Label: "Video froze"},
			{ID: "buffering", Label: "Endless buffering"},
		},
	})
	c, err := contract.New(testsupport.Context(), cfg)
	if err != nil {
		t.Fatalf("contract: %v", err)
	}
	reg := prometheus.NewRegistry()
	metrics, err := submission.NewMetrics(reg)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	logs := &lockedBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))

	srv := httptest.NewServer(newRouter(cfg, c, reg, metrics, logger))
	t.Cleanup(srv.Close)
	return srv, reg, logs
}

func TestServe_CollectsWidgetSubmission(t *testing.T) {
	srv, reg, logs := demoServer(t)

	w, err := playerfeedback.Init(nil, model.Config{
		URL: srv.URL + collectorPath,
		FeedbackOptions: []model.FeedbackOption{
			{ID: "froze", Label: "Video froze"},
			{ID: "buffering", Label: "Endless buffering"},
		},
	}, playerfeedback.WithEnvironment(device.Environment{UserAgent: "Mozilla/5.0 (X11; Linux x86_64)"}))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(w.Stop)

	_ = w.Form().Select("buffering")
	ch, err := w.Submit(testsupport.Context())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome := testsupport.AwaitOutcome(t, ch); !outcome.Success() {
		t.Fatalf("expected success, got %+v", outcome)
	}

	if !strings.Contains(logs.String(), "feedback received") {
		t.Fatalf("expected submission logged, got %q", logs.String())
	}
	want := `
# HELP playerfeedback_submissions_total Feedback submissions by result.
# TYPE playerfeedback_submissions_total counter
playerfeedback_submissions_total{result="success"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "playerfeedback_submissions_total"); err != nil {
		t.Fatalf("metrics mismatch: %v", err)
	}
}

func TestServe_RejectsUnknownOption(t *testing.T) {
	srv, _, _ := demoServer(t)

	payload := submission.Payload{
		Feedback:    []string{"unknown"},
		UserAgent:   "curl/8.0",
		PlayerError: "none",
		DeviceInfo:  "{}",
	}
	body, contentType, err := payload.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	resp, err := http.Post(srv.URL+collectorPath, contentType, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 422, got %d: %s", resp.StatusCode, data)
	}
}

func TestServe_RendersWidgetAndAssets(t *testing.T) {
	srv, _, _ := demoServer(t)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	for _, want := range []string{
		"Endless buffering",
		`<link rel="stylesheet" href="/assets/playerfeedback.css">`,
		`action="/submit"`,
		`enctype="multipart/form-data" novalidate>`,
	} {
		if !strings.Contains(string(page), want) {
			t.Fatalf("page missing %q:\n%s", want, page)
		}
	}

	resp, err = http.Get(srv.URL + assetsPrefix + "playerfeedback.css")
	if err != nil {
		t.Fatalf("get stylesheet: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected stylesheet served, got %d", resp.StatusCode)
	}
}

// postBrowserForm sends what the rendered form submits: only the checked
// feedback[] inputs and any filled textarea, as multipart/form-data.
func postBrowserForm(t *testing.T, url string, fields map[string][]string) (int, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, values := range fields {
		for _, value := range values {
			if err := mw.WriteField(name, value); err != nil {
				t.Fatalf("write field: %v", err)
			}
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("post form: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func TestServe_BrowserFormPostReachesCollector(t *testing.T) {
	srv, reg, logs := demoServer(t)

	status, page := postBrowserForm(t, srv.URL+submitPath, map[string][]string{
		submission.FieldFeedback: {"buffering"},
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d:\n%s", status, page)
	}
	if !strings.Contains(page, model.DefaultMessages().Success) {
		t.Fatalf("page missing success message:\n%s", page)
	}
	if !strings.Contains(logs.String(), "feedback received") {
		t.Fatalf("expected collector to log the submission, got %q", logs.String())
	}
	count, err := testutil.GatherAndCount(reg, "playerfeedback_submissions_total")
	if err != nil || count != 1 {
		t.Fatalf("expected one collected submission series, got %d (%v)", count, err)
	}
}

func TestServe_BrowserFormPostWithoutSelectionShowsValidation(t *testing.T) {
	srv, _, logs := demoServer(t)

	status, page := postBrowserForm(t, srv.URL+submitPath, nil)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
	if !strings.Contains(page, model.DefaultMessages().EmptyForm) {
		t.Fatalf("page missing validation message:\n%s", page)
	}
	if strings.Contains(logs.String(), "feedback received") {
		t.Fatalf("empty form must not reach the collector")
	}
}

func TestServe_BrowserFormPostWithUnknownOption(t *testing.T) {
	srv, _, _ := demoServer(t)

	status, _ := postBrowserForm(t, srv.URL+submitPath, map[string][]string{
		submission.FieldFeedback: {"tampered"},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}
