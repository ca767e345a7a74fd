// Package tui renders the feedback form for terminals: a static text
// Renderer and an interactive Session built on survey prompts.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-playerfeedback/pkg/model"
	"github.com/goliatone/go-playerfeedback/pkg/render"
)

// Renderer draws the form and its status as plain text.
type Renderer struct {
	theme Theme
}

var _ render.Renderer = (*Renderer)(nil)

// NewRenderer creates the text renderer.
func NewRenderer(theme ...Theme) *Renderer {
	r := &Renderer{theme: DefaultTheme}
	if len(theme) > 0 {
		r.theme = theme[0]
	}
	return r
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

func (r *Renderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

func (r *Renderer) Render(ctx context.Context, form model.FormModel, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state := map[string]model.OptionState{}
	if opts.Form != nil {
		for _, opt := range opts.Form.Options {
			state[opt.Option.ID] = opt
		}
	}

	var b strings.Builder
	line := func(parts ...string) {
		b.WriteString(strings.Join(parts, ""))
		b.WriteByte('\n')
	}

	if title := plainText(form.Title); title != "" {
		line(title)
	}
	if desc := plainText(form.Description); desc != "" {
		line(desc)
	}
	if b.Len() > 0 {
		line()
	}

	for _, field := range form.Fields {
		opt := state[field.Value]
		mark := "[ ]"
		switch {
		case field.Kind == model.OptionKindRadio && opt.Selected:
			mark = "(*)"
		case field.Kind == model.OptionKindRadio:
			mark = "( )"
		case opt.Selected:
			mark = "[x]"
		}
		label := field.Label
		if field.Subtext != "" {
			label += " (" + field.Subtext + ")"
		}
		line(mark, " ", label)
		if field.FreeText != nil && opt.Text != "" {
			line("    > ", opt.Text)
		}
	}

	status := opts.Status
	if status.ValidationMessage != "" {
		line(r.theme.ErrorPrefix, status.ValidationMessage)
	}
	if status.Loading && form.Loading != "" {
		line(r.theme.InfoPrefix, form.Loading, "...")
	}
	if status.SuccessMessage != "" {
		line(r.theme.SuccessPrefix, status.SuccessMessage)
	}
	if status.FailureMessage != "" {
		line(r.theme.ErrorPrefix, status.FailureMessage)
	}
	return []byte(b.String()), nil
}
