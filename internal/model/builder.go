package model

import (
	"fmt"
	"net/http"
	"strings"

	pkgmodel "github.com/goliatone/go-playerfeedback/pkg/model"
)

const (
	// FeedbackFieldName is the multipart name shared by every option control.
	FeedbackFieldName = "feedback[]"

	multipartEnctype = "multipart/form-data"
)

// FreeTextFieldName returns the input name used for an option's free text.
func FreeTextFieldName(optionID string) string {
	return "feedbackText[" + optionID + "]"
}

// OptionValue resolves the identifier posted for an option. Options without an
// explicit id fall back to their label, which is what older configurations
// posted as the checkbox value.
func OptionValue(opt pkgmodel.FeedbackOption) string {
	if id := strings.TrimSpace(opt.ID); id != "" {
		return id
	}
	return strings.TrimSpace(opt.Label)
}

// Builder converts a widget configuration into a FormModel.
type Builder struct {
	opts Options
}

// New creates a Builder with the supplied options.
func New(options Options) *Builder {
	return &Builder{opts: options.withDefaults()}
}

// Build never fails for well-typed input; decorator errors are the only error
// source.
func (b *Builder) Build(cfg pkgmodel.Config) (pkgmodel.FormModel, error) {
	messages := cfg.Messages
	formID := b.opts.IDFunc()

	form := pkgmodel.FormModel{
		ID:          formID,
		Title:       b.opts.Sanitizer(cfg.Title),
		Description: b.opts.Sanitizer(cfg.Description),
		Action:      strings.TrimSpace(cfg.URL),
		Method:      http.MethodPost,
		Enctype:     multipartEnctype,
		Placement:   normalizePlacement(cfg.Placement),
		SubmitLabel: messages.SubmitLabel,
		OpenLabel:   messages.OpenLabel,
		OpenTitle:   messages.OpenTitle,
		Loading:     messages.Loading,
		Fields:      make([]pkgmodel.Field, 0, len(cfg.FeedbackOptions)),
	}

	for i, opt := range cfg.FeedbackOptions {
		form.Fields = append(form.Fields, b.field(formID, i, opt))
	}

	for _, decorator := range b.opts.Decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(&form); err != nil {
			return pkgmodel.FormModel{}, fmt.Errorf("model: decorate form: %w", err)
		}
	}

	return form, nil
}

func (b *Builder) field(formID string, index int, opt pkgmodel.FeedbackOption) pkgmodel.Field {
	value := OptionValue(opt)
	label := strings.TrimSpace(opt.Label)
	if label == "" {
		label = b.opts.Labeler(value)
	}

	kind := opt.Kind
	if !kind.Valid() {
		kind = pkgmodel.OptionKindCheckbox
	}

	field := pkgmodel.Field{
		ID:      fmt.Sprintf("%s-option-%d", formID, index),
		Name:    FeedbackFieldName,
		Kind:    kind,
		Value:   value,
		Label:   label,
		Subtext: strings.TrimSpace(opt.Subtext),
	}
	if opt.RequiresFreeText {
		field.FreeText = &pkgmodel.FreeTextField{
			Name: FreeTextFieldName(value),
		}
	}
	return field
}

func normalizePlacement(p pkgmodel.Placement) pkgmodel.Placement {
	switch pkgmodel.Placement(strings.ToLower(strings.TrimSpace(string(p)))) {
	case pkgmodel.PlacementInline:
		return pkgmodel.PlacementInline
	default:
		return pkgmodel.PlacementModal
	}
}
