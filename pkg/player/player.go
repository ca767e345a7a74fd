// Package player describes the host playback component the widget reads
// errors from, and ships an in-memory implementation hosts can embed.
package player

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/goliatone/go-playerfeedback/pkg/model"
)

// NoErrorReported is posted in place of the error JSON when the player has
// not reported anything.
const NoErrorReported = "No error reported on player"

// Player is the host collaborator. The submission workflow only reads
// CurrentError at submit time; OnError is used for logging.
type Player interface {
	OnError(func(model.PlayerError))
	CurrentError() *model.PlayerError
}

// EncodeError renders the error[] payload value: JSON for a reported error,
// the NoErrorReported sentinel otherwise.
func EncodeError(err *model.PlayerError) string {
	if err == nil {
		return NoErrorReported
	}
	payload, marshalErr := json.Marshal(err)
	if marshalErr != nil {
		return NoErrorReported
	}
	return string(payload)
}

// Recorder is a Player that remembers the last reported error.
type Recorder struct {
	mu        sync.RWMutex
	current   *model.PlayerError
	listeners []func(model.PlayerError)
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// OnError registers a listener invoked for every reported error.
func (r *Recorder) OnError(fn func(model.PlayerError)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// CurrentError returns a copy of the last reported error, or nil.
func (r *Recorder) CurrentError() *model.PlayerError {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return nil
	}
	out := *r.current
	return &out
}

// Report records err as the current error and notifies listeners.
func (r *Recorder) Report(err model.PlayerError) {
	r.mu.Lock()
	r.current = &err
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(err)
	}
}

// Clear forgets the current error, e.g. after a new source loads.
func (r *Recorder) Clear() {
	r.mu.Lock()
	r.current = nil
	r.mu.Unlock()
}
