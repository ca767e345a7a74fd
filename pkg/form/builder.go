package form

import (
	internalmodel "github.com/goliatone/go-playerfeedback/internal/model"
	"github.com/goliatone/go-playerfeedback/pkg/model"
)

// BuilderOption configures the builder behaviour.
type BuilderOption func(*internalmodel.Options)

// WithLabeler overrides how labels are derived for options that only declare
// an identifier.
func WithLabeler(labeler func(string) string) BuilderOption {
	return func(opts *internalmodel.Options) {
		opts.Labeler = labeler
	}
}

// WithSanitizer overrides the markup sanitiser applied to title and
// description.
func WithSanitizer(sanitizer func(string) string) BuilderOption {
	return func(opts *internalmodel.Options) {
		opts.Sanitizer = sanitizer
	}
}

// WithIDFunc overrides the form instance id generator (uuid by default).
func WithIDFunc(fn func() string) BuilderOption {
	return func(opts *internalmodel.Options) {
		opts.IDFunc = fn
	}
}

// WithDecorators appends decorators applied after the model is built.
func WithDecorators(decorators ...model.Decorator) BuilderOption {
	return func(opts *internalmodel.Options) {
		opts.Decorators = append(opts.Decorators, decorators...)
	}
}

// NewBuilder returns a model.Builder backed by the internal implementation.
func NewBuilder(options ...BuilderOption) model.Builder {
	opts := internalmodel.Options{}
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}
	return internalmodel.New(opts)
}
