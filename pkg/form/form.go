package form

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	internalmodel "github.com/goliatone/go-playerfeedback/internal/model"
	"github.com/goliatone/go-playerfeedback/pkg/model"
)

var (
	// ErrEmptyForm reports a submission attempt with nothing selected.
	ErrEmptyForm = errors.New("form: no option selected")
	// ErrUnknownOption is returned for identifiers the form does not declare.
	ErrUnknownOption = errors.New("form: unknown option")
	// ErrNoFreeText is returned when text is set on an option without a text
	// input.
	ErrNoFreeText = errors.New("form: option does not accept free text")
)

// Form owns the live selection state of one widget instance. It is safe for
// concurrent use: the submission workflow resets it from its completion
// goroutine while the host keeps reading it.
type Form struct {
	mu sync.RWMutex

	model   model.FormModel
	options []model.FeedbackOption
	index   map[string]int

	selected   []bool
	texts      []string
	order      []int
	validation string
}

// Build creates a form from cfg using the default builder. Building never
// fails for well-typed configuration.
func Build(cfg model.Config) *Form {
	form, err := New(NewBuilder(), cfg)
	if err != nil {
		// The default builder carries no decorators, its only error source.
		panic(fmt.Sprintf("form: default builder failed: %v", err))
	}
	return form
}

// New creates a form from cfg using the supplied builder.
func New(builder model.Builder, cfg model.Config) (*Form, error) {
	if builder == nil {
		builder = NewBuilder()
	}
	formModel, err := builder.Build(cfg)
	if err != nil {
		return nil, err
	}

	options := make([]model.FeedbackOption, len(cfg.FeedbackOptions))
	index := make(map[string]int, len(cfg.FeedbackOptions))
	for i, opt := range cfg.FeedbackOptions {
		opt.ID = internalmodel.OptionValue(opt)
		if !opt.Kind.Valid() {
			opt.Kind = model.OptionKindCheckbox
		}
		options[i] = opt
		if _, exists := index[opt.ID]; !exists {
			index[opt.ID] = i
		}
	}

	return &Form{
		model:    formModel,
		options:  options,
		index:    index,
		selected: make([]bool, len(options)),
		texts:    make([]string, len(options)),
	}, nil
}

// ID returns the form instance id.
func (f *Form) ID() string {
	return f.model.ID
}

// Model returns the renderable form model.
func (f *Form) Model() model.FormModel {
	out := f.model
	out.Fields = append([]model.Field(nil), f.model.Fields...)
	return out
}

// Options returns the options in configuration order.
func (f *Form) Options() []model.FeedbackOption {
	return append([]model.FeedbackOption(nil), f.options...)
}

// Select marks an option as selected. Selecting a radio option clears the
// other radio options.
func (f *Form) Select(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx, err := f.lookup(id)
	if err != nil {
		return err
	}
	if f.options[idx].Kind == model.OptionKindRadio {
		for i, opt := range f.options {
			if i != idx && opt.Kind == model.OptionKindRadio && f.selected[i] {
				f.unselect(i)
			}
		}
	}
	if f.selected[idx] {
		return nil
	}
	f.selected[idx] = true
	f.order = append(f.order, idx)
	f.validation = ""
	return nil
}

// Deselect clears an option.
func (f *Form) Deselect(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx, err := f.lookup(id)
	if err != nil {
		return err
	}
	f.unselect(idx)
	return nil
}

// Toggle flips an option and reports its new state.
func (f *Form) Toggle(id string) (bool, error) {
	f.mu.RLock()
	idx, err := f.lookup(id)
	selected := err == nil && f.selected[idx]
	f.mu.RUnlock()
	if err != nil {
		return false, err
	}
	if selected {
		return false, f.Deselect(id)
	}
	return true, f.Select(id)
}

// SetText stores the free text of an option declared with RequiresFreeText.
func (f *Form) SetText(id, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx, err := f.lookup(id)
	if err != nil {
		return err
	}
	if !f.options[idx].RequiresFreeText {
		return fmt.Errorf("%w: %q", ErrNoFreeText, id)
	}
	f.texts[idx] = text
	return nil
}

// Selections returns the selected options in the order they were selected.
func (f *Form) Selections() []model.Selection {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.selections()
}

// Validate reports ErrEmptyForm when nothing is selected and records the
// outcome in the snapshot's validation state.
func (f *Form) Validate() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.order) == 0 {
		f.validation = ErrEmptyForm.Error()
		return ErrEmptyForm
	}
	f.validation = ""
	return nil
}

// ValidSelections validates the form and returns its selections under one
// lock, so a concurrent Deselect cannot empty the result after validation.
func (f *Form) ValidSelections() ([]model.Selection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.order) == 0 {
		f.validation = ErrEmptyForm.Error()
		return nil, ErrEmptyForm
	}
	f.validation = ""
	return f.selections(), nil
}

// Reset clears every selection, free text and validation state. Calling it
// on an already clear form is a no-op.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.selected {
		f.selected[i] = false
		f.texts[i] = ""
	}
	f.order = nil
	f.validation = ""
}

// Snapshot returns the current FeedbackForm.
func (f *Form) Snapshot() model.FeedbackForm {
	f.mu.RLock()
	defer f.mu.RUnlock()

	states := make([]model.OptionState, len(f.options))
	for i, opt := range f.options {
		states[i] = model.OptionState{
			Option:   opt,
			Selected: f.selected[i],
			Text:     f.texts[i],
		}
	}
	return model.FeedbackForm{
		FormID:          f.model.ID,
		Options:         states,
		Selections:      f.selections(),
		ValidationError: f.validation,
	}
}

func (f *Form) selections() []model.Selection {
	if len(f.order) == 0 {
		return nil
	}
	out := make([]model.Selection, 0, len(f.order))
	for _, idx := range f.order {
		sel := model.Selection{OptionID: f.options[idx].ID}
		if f.options[idx].RequiresFreeText {
			sel.Text = strings.TrimSpace(f.texts[idx])
		}
		out = append(out, sel)
	}
	return out
}

func (f *Form) lookup(id string) (int, error) {
	idx, ok := f.index[strings.TrimSpace(id)]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrUnknownOption, id)
	}
	return idx, nil
}

func (f *Form) unselect(idx int) {
	if !f.selected[idx] {
		return
	}
	f.selected[idx] = false
	for i, candidate := range f.order {
		if candidate == idx {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
}
