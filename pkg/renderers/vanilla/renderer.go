// Package vanilla renders the feedback form as plain HTML: an inline form or
// a modal behind a floating trigger button, plus the status region the
// submission workflow updates.
package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-playerfeedback/pkg/model"
	"github.com/goliatone/go-playerfeedback/pkg/render"
	rendertemplate "github.com/goliatone/go-playerfeedback/pkg/render/template"
	gotemplate "github.com/goliatone/go-playerfeedback/pkg/render/template/gotemplate"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	stylesheets      []string
	inlineStyles     bool
}

// WithTemplatesFS supplies an alternate template bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithStylesheet links an extra stylesheet before the form.
func WithStylesheet(href string) Option {
	return func(cfg *config) {
		if href = strings.TrimSpace(href); href != "" {
			cfg.stylesheets = append(cfg.stylesheets, href)
		}
	}
}

// WithDefaultStyles inlines the bundled stylesheet.
func WithDefaultStyles() Option {
	return func(cfg *config) {
		cfg.inlineStyles = true
	}
}

type Renderer struct {
	templates    rendertemplate.TemplateRenderer
	stylesheets  []string
	inlineStyles bool
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{
		templates:    renderer,
		stylesheets:  cfg.stylesheets,
		inlineStyles: cfg.inlineStyles,
	}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render draws the whole widget for form in the state carried by options.
func (r *Renderer) Render(ctx context.Context, form model.FormModel, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	status, err := r.RenderStatus(ctx, form, options.Status)
	if err != nil {
		return nil, err
	}

	data := map[string]any{
		"form":        form,
		"modal":       form.Placement != model.PlacementInline,
		"status":      options.Status,
		"fields":      fieldViews(form.Fields, options.Form),
		"theme":       themeContext(options.Theme),
		"statusHTML":  string(status),
		"omitAssets":  options.OmitAssets,
		"stylesheets": r.stylesheetsFor(options),
	}
	if r.inlineStyles {
		data["inlineCSS"] = defaultStylesheet()
	}

	name := formTemplate
	if options.Theme != nil {
		if partial := strings.TrimSpace(options.Theme.Partials[ThemePartialForm]); partial != "" {
			name = partial
		}
	}

	out, err := r.templates.RenderTemplate(name, data)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(out), nil
}

// RenderStatus draws only the status region: validation message, submit
// button, loader, success and failure messages.
func (r *Renderer) RenderStatus(_ context.Context, form model.FormModel, status model.Status) ([]byte, error) {
	out, err := r.templates.RenderTemplate(statusTemplate, map[string]any{
		"form":   form,
		"status": status,
	})
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render status: %w", err)
	}
	return []byte(out), nil
}

func (r *Renderer) stylesheetsFor(options render.RenderOptions) []string {
	out := make([]string, 0, len(r.stylesheets)+len(options.Stylesheets)+1)
	if options.Theme != nil && options.Theme.AssetURL != nil {
		if href := options.Theme.AssetURL(ThemeAssetStylesheet); href != "" {
			out = append(out, href)
		}
	}
	out = append(out, r.stylesheets...)
	return append(out, options.Stylesheets...)
}

type fieldView struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Kind                string `json:"kind"`
	Value               string `json:"value"`
	Label               string `json:"label"`
	Subtext             string `json:"subtext,omitempty"`
	Checked             bool   `json:"checked"`
	FreeTextName        string `json:"freeTextName,omitempty"`
	FreeTextPlaceholder string `json:"freeTextPlaceholder,omitempty"`
	FreeTextValue       string `json:"freeTextValue,omitempty"`
}

func fieldViews(fields []model.Field, state *model.FeedbackForm) []fieldView {
	selected := map[string]model.OptionState{}
	if state != nil {
		for _, opt := range state.Options {
			selected[opt.Option.ID] = opt
		}
	}

	out := make([]fieldView, 0, len(fields))
	for _, field := range fields {
		view := fieldView{
			ID:      field.ID,
			Name:    field.Name,
			Kind:    string(field.Kind),
			Value:   field.Value,
			Label:   field.Label,
			Subtext: field.Subtext,
		}
		if opt, ok := selected[field.Value]; ok {
			view.Checked = opt.Selected
			view.FreeTextValue = opt.Text
		}
		if field.FreeText != nil {
			view.FreeTextName = field.FreeText.Name
			view.FreeTextPlaceholder = field.FreeText.Placeholder
		} else {
			view.FreeTextValue = ""
		}
		out = append(out, view)
	}
	return out
}

func themeContext(cfg *theme.RendererConfig) map[string]any {
	if cfg == nil {
		return map[string]any{}
	}
	return map[string]any{
		"name":    cfg.Theme,
		"variant": cfg.Variant,
		"cssVars": cfg.CSSVars,
	}
}
