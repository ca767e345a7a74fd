package testsupport

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// FeedbackPath is the route FeedbackServer accepts submissions on.
const FeedbackPath = "/feedback"

// FeedbackServer is an httptest endpoint that records multipart submissions.
type FeedbackServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []map[string][]string
	status   int
	body     string
	check    func(*http.Request) error
}

// ServerOption configures a FeedbackServer.
type ServerOption func(*FeedbackServer)

// WithResponse sets the status code and body returned for every submission.
func WithResponse(status int, body string) ServerOption {
	return func(s *FeedbackServer) {
		s.status = status
		s.body = body
	}
}

// WithRequestCheck runs check before the multipart form is parsed. A non-nil
// error is answered with 422 and the error text.
func WithRequestCheck(check func(*http.Request) error) ServerOption {
	return func(s *FeedbackServer) {
		s.check = check
	}
}

// NewFeedbackServer starts a server closed on test cleanup. It answers 200 "ok"
// unless WithResponse says otherwise.
func NewFeedbackServer(t *testing.T, opts ...ServerOption) *FeedbackServer {
	t.Helper()

	s := &FeedbackServer{status: http.StatusOK, body: "ok"}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	r := chi.NewRouter()
	r.Post(FeedbackPath, s.handle)
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Server.Close)
	return s
}

// Endpoint returns the absolute submission URL.
func (s *FeedbackServer) Endpoint() string {
	return s.URL + FeedbackPath
}

// Requests returns the multipart values of every submission received.
func (s *FeedbackServer) Requests() []map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string][]string(nil), s.requests...)
}

// Hits returns the number of submissions received.
func (s *FeedbackServer) Hits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *FeedbackServer) handle(w http.ResponseWriter, r *http.Request) {
	if s.check != nil {
		if err := s.check(r); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
	}
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.requests = append(s.requests, r.MultipartForm.Value)
	s.mu.Unlock()

	w.WriteHeader(s.status)
	_, _ = w.Write([]byte(s.body))
}

// ManualScheduler records scheduled callbacks until Fire runs them. It
// satisfies submission.Scheduler through its Schedule method.
type ManualScheduler struct {
	mu      sync.Mutex
	delays  []time.Duration
	pending []func()
}

// Schedule queues fn. The returned cancel drops it if it has not fired yet.
func (s *ManualScheduler) Schedule(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	entry := &fn
	s.pending = append(s.pending, func() {
		s.mu.Lock()
		run := *entry
		s.mu.Unlock()
		if run != nil {
			run()
		}
	})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		*entry = nil
	}
}

// Delays returns the durations passed to Schedule.
func (s *ManualScheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// Fire runs and clears every pending callback.
func (s *ManualScheduler) Fire() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}
