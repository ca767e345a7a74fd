package render

import (
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-playerfeedback/pkg/model"
)

// RenderOptions carry per-request state that renderers draw without touching
// the form model.
type RenderOptions struct {
	// Status is the widget UI state: open/closed, loader, and the validation,
	// success and failure messages.
	Status model.Status
	// Form carries the live selections so re-renders keep checked inputs.
	Form *model.FeedbackForm
	// Theme is the resolved go-theme configuration, if any.
	Theme *theme.RendererConfig
	// Stylesheets are linked before the form markup.
	Stylesheets []string
	// OmitAssets skips inline styles and links, for fragment re-renders.
	OmitAssets bool
}
