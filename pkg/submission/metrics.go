package submission

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded by Metrics.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultInvalid = "invalid"
)

// Metrics counts submissions by result and observes request latency.
// A nil *Metrics records nothing.
type Metrics struct {
	submissions *prometheus.CounterVec
	duration    prometheus.Histogram
}

// NewMetrics registers the submission collectors on reg. Collectors already
// registered by another widget are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playerfeedback",
		Name:      "submissions_total",
		Help:      "Feedback submissions by result.",
	}, []string{"result"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "playerfeedback",
		Name:      "submission_duration_seconds",
		Help:      "Time spent delivering a feedback submission.",
		Buckets:   prometheus.DefBuckets,
	})

	var err error
	if submissions, err = register(reg, submissions); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &Metrics{submissions: submissions, duration: duration}, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Observe counts one submission result. Durations are kept for every result
// except ResultInvalid.
func (m *Metrics) Observe(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(result).Inc()
	if result != ResultInvalid {
		m.duration.Observe(elapsed.Seconds())
	}
}
