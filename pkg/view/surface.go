// Package view holds the UI state of one widget instance. A Surface is what
// the submission workflow drives and what renderers draw from.
package view

import (
	"sync"

	"github.com/goliatone/go-playerfeedback/pkg/model"
)

// Surface is an in-memory submission.View. Every change is published to
// subscribers with a copy of the new Status.
type Surface struct {
	mu          sync.Mutex
	placement   model.Placement
	status      model.Status
	subscribers map[int]func(model.Status)
	nextID      int
}

// NewSurface creates a surface for the placement. Inline forms start open;
// modal forms start closed behind the trigger button.
func NewSurface(placement model.Placement) *Surface {
	return &Surface{
		placement: placement,
		status: model.Status{
			Open:           placement == model.PlacementInline,
			TriggerEnabled: true,
		},
		subscribers: make(map[int]func(model.Status)),
	}
}

// Status returns the current state.
func (s *Surface) Status() model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Placement returns where the surface is attached.
func (s *Surface) Placement() model.Placement {
	return s.placement
}

// Subscribe registers fn for status changes and returns a function that
// removes it.
func (s *Surface) Subscribe(fn func(model.Status)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Open shows the form.
func (s *Surface) Open() {
	s.update(func(st *model.Status) { st.Open = true })
}

// Close hides a modal form and clears any outcome message. Inline forms stay
// visible.
func (s *Surface) Close() {
	s.update(func(st *model.Status) {
		if s.placement != model.PlacementInline {
			st.Open = false
		}
		st.SuccessMessage = ""
		st.FailureMessage = ""
		st.ValidationMessage = ""
	})
}

func (s *Surface) SetTriggerEnabled(enabled bool) {
	s.update(func(st *model.Status) { st.TriggerEnabled = enabled })
}

func (s *Surface) ShowLoader() {
	s.update(func(st *model.Status) { st.Loading = true })
}

func (s *Surface) HideLoader() {
	s.update(func(st *model.Status) { st.Loading = false })
}

func (s *Surface) ShowValidationError(message string) {
	s.update(func(st *model.Status) { st.ValidationMessage = message })
}

func (s *Surface) ClearValidationError() {
	s.update(func(st *model.Status) { st.ValidationMessage = "" })
}

func (s *Surface) ShowSuccess(message string) {
	s.update(func(st *model.Status) { st.SuccessMessage = message })
}

func (s *Surface) HideSuccess() {
	s.update(func(st *model.Status) { st.SuccessMessage = "" })
}

func (s *Surface) ShowFailure(message string) {
	s.update(func(st *model.Status) { st.FailureMessage = message })
}

func (s *Surface) DismissFailure() {
	s.update(func(st *model.Status) { st.FailureMessage = "" })
}

func (s *Surface) update(mutate func(*model.Status)) {
	s.mu.Lock()
	before := s.status
	mutate(&s.status)
	after := s.status
	var subscribers []func(model.Status)
	if after != before {
		subscribers = make([]func(model.Status), 0, len(s.subscribers))
		for _, fn := range s.subscribers {
			subscribers = append(subscribers, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(after)
	}
}
