// Package render defines the renderer contract for feedback forms and a
// registry renderers are looked up from.
package render

import (
	"context"

	"github.com/goliatone/go-playerfeedback/pkg/model"
)

// Renderer converts a FormModel into a byte representation (HTML, text, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form model.FormModel, options RenderOptions) ([]byte, error)
}
