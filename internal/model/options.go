package model

import (
	"github.com/google/uuid"

	pkgmodel "github.com/goliatone/go-playerfeedback/pkg/model"
)

// Options configures the behaviour of the Builder. Options are constructed by
// the public adapter in pkg/form and passed into New.
type Options struct {
	Labeler    func(string) string
	Sanitizer  func(string) string
	IDFunc     func() string
	Decorators []pkgmodel.Decorator
}

func defaultOptions() Options {
	return Options{
		Labeler:   DefaultLabeler,
		Sanitizer: SanitizeMarkup,
		IDFunc:    uuid.NewString,
	}
}

func (o Options) withDefaults() Options {
	def := defaultOptions()
	if o.Labeler == nil {
		o.Labeler = def.Labeler
	}
	if o.Sanitizer == nil {
		o.Sanitizer = def.Sanitizer
	}
	if o.IDFunc == nil {
		o.IDFunc = def.IDFunc
	}
	return o
}
