package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-playerfeedback/pkg/config"
	"github.com/goliatone/go-playerfeedback/pkg/model"
	"github.com/goliatone/go-playerfeedback/pkg/submission"
)

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// MustLoadConfig reads a JSON or YAML widget configuration fixture.
func MustLoadConfig(t *testing.T, path string) model.Config {
	t.Helper()

	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// AwaitOutcome waits for a submission outcome, failing the test after five
// seconds or when the channel closes empty.
func AwaitOutcome(t *testing.T, ch <-chan submission.Outcome) submission.Outcome {
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
