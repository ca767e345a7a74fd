package model

import "errors"

// Builder converts a widget configuration into a renderable form model.
type Builder interface {
	Build(cfg Config) (FormModel, error)
}

// BuilderFunc adapts a function into a Builder.
type BuilderFunc func(cfg Config) (FormModel, error)

// Build calls the underlying function.
func (fn BuilderFunc) Build(cfg Config) (FormModel, error) {
	if fn == nil {
		return FormModel{}, errors.New("model: builder func is nil")
	}
	return fn(cfg)
}
