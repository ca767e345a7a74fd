package tui

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-playerfeedback/pkg/form"
	"github.com/goliatone/go-playerfeedback/pkg/model"
	"github.com/goliatone/go-playerfeedback/pkg/submission"
)

// Target is the widget a session drives.
type Target interface {
	Form() *form.Form
	Status() model.Status
	Submit(ctx context.Context) (<-chan submission.Outcome, error)
}

// Session collects feedback in the terminal and submits it through Target.
type Session struct {
	target    Target
	driver    PromptDriver
	theme     Theme
	noneLabel string
}

// NewSession creates a session. Without WithPromptDriver it prompts through
// survey on stdin/stdout.
func NewSession(target Target, options ...Option) (*Session, error) {
	if target == nil {
		return nil, errors.New("tui: target is required")
	}
	s := &Session{
		target:    target,
		theme:     DefaultTheme,
		noneLabel: "none of these",
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(nil)
	}
	return s, nil
}

// Run prompts for selections, confirms and submits. An empty selection shows
// the validation message and prompts again; a form without options returns
// the *submission.ValidationError instead. The returned outcome is the result
// of the single request made.
func (s *Session) Run(ctx context.Context) (submission.Outcome, error) {
	f := s.target.Form()
	m := f.Model()

	if title := plainText(m.Title); title != "" {
		if err := s.driver.Info(ctx, s.theme.InfoPrefix+title); err != nil {
			return submission.Outcome{}, err
		}
	}
	if desc := plainText(m.Description); desc != "" {
		if err := s.driver.Info(ctx, s.theme.InfoPrefix+desc); err != nil {
			return submission.Outcome{}, err
		}
	}

	for {
		if err := s.collect(ctx, f, m); err != nil {
			return submission.Outcome{}, err
		}

		ok, err := s.driver.Confirm(ctx, ConfirmConfig{Message: confirmMessage(m.SubmitLabel), Default: true})
		if err != nil {
			return submission.Outcome{}, err
		}
		if !ok {
			f.Reset()
			return submission.Outcome{}, ErrDeclined
		}

		ch, err := s.target.Submit(ctx)
		var verr *submission.ValidationError
		if errors.As(err, &verr) {
			if err := s.driver.Info(ctx, s.theme.ErrorPrefix+verr.Message); err != nil {
				return submission.Outcome{}, err
			}
			if len(m.Fields) == 0 {
				// Nothing to pick: prompting again cannot make the form valid.
				return submission.Outcome{}, err
			}
			continue
		}
		if err != nil {
			return submission.Outcome{}, err
		}

		if m.Loading != "" {
			if err := s.driver.Info(ctx, s.theme.InfoPrefix+m.Loading+"..."); err != nil {
				return submission.Outcome{}, err
			}
		}

		var outcome submission.Outcome
		select {
		case outcome = <-ch:
		case <-ctx.Done():
			return submission.Outcome{}, ctx.Err()
		}

		status := s.target.Status()
		msg := s.theme.SuccessPrefix + status.SuccessMessage
		if !outcome.Success() {
			msg = s.theme.ErrorPrefix + status.FailureMessage
		}
		if err := s.driver.Info(ctx, msg); err != nil {
			return outcome, err
		}
		return outcome, nil
	}
}

func (s *Session) collect(ctx context.Context, f *form.Form, m model.FormModel) error {
	var checkboxes, radios []model.Field
	for _, field := range m.Fields {
		if field.Kind == model.OptionKindRadio {
			radios = append(radios, field)
			continue
		}
		checkboxes = append(checkboxes, field)
	}

	prompt := plainText(m.Title)
	if prompt == "" {
		prompt = "What went wrong?"
	}

	if len(checkboxes) > 0 {
		picked, err := s.driver.MultiSelect(ctx, SelectConfig{
			Message:  prompt,
			Options:  choiceLabels(checkboxes),
			Defaults: selectedIndices(f, checkboxes),
		})
		if err != nil {
			return err
		}
		chosen := make(map[int]bool, len(picked))
		for _, idx := range picked {
			chosen[idx] = true
		}
		for i, field := range checkboxes {
			if chosen[i] {
				err = f.Select(field.Value)
			} else {
				err = f.Deselect(field.Value)
			}
			if err != nil {
				return err
			}
		}
	}

	if len(radios) > 0 {
		choices := append([]string{s.noneLabel}, choiceLabels(radios)...)
		idx, err := s.driver.Select(ctx, SelectConfig{Message: prompt, Options: choices})
		if err != nil {
			return err
		}
		for i, field := range radios {
			if i == idx-1 {
				err = f.Select(field.Value)
			} else {
				err = f.Deselect(field.Value)
			}
			if err != nil {
				return err
			}
		}
	}

	state := optionStates(f)
	for _, field := range m.Fields {
		if field.FreeText == nil || !state[field.Value].Selected {
			continue
		}
		text, err := s.driver.TextArea(ctx, TextAreaConfig{
			Message: field.Label,
			Default: state[field.Value].Text,
			Help:    field.FreeText.Placeholder,
		})
		if err != nil {
			return err
		}
		if err := f.SetText(field.Value, text); err != nil {
			return err
		}
	}
	return nil
}

func choiceLabels(fields []model.Field) []string {
	out := make([]string, len(fields))
	for i, field := range fields {
		label := field.Label
		if field.Subtext != "" {
			label = fmt.Sprintf("%s (%s)", label, field.Subtext)
		}
		out[i] = label
	}
	return out
}

func selectedIndices(f *form.Form, fields []model.Field) []int {
	state := optionStates(f)
	var out []int
	for i, field := range fields {
		if state[field.Value].Selected {
			out = append(out, i)
		}
	}
	return out
}

func optionStates(f *form.Form) map[string]model.OptionState {
	snap := f.Snapshot()
	out := make(map[string]model.OptionState, len(snap.Options))
	for _, opt := range snap.Options {
		out[opt.Option.ID] = opt
	}
	return out
}

func confirmMessage(label string) string {
	if label == "" {
		return "Send?"
	}
	return strings.ToUpper(label[:1]) + label[1:] + "?"
}

var (
	stripOnce   sync.Once
	stripPolicy *bluemonday.Policy
)

// plainText drops markup from sanitized titles for terminal output.
func plainText(s string) string {
	stripOnce.Do(func() { stripPolicy = bluemonday.StrictPolicy() })
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}
