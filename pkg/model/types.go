package model

import "time"

// OptionKind enumerates the input control used for a feedback option.
type OptionKind string

const (
	OptionKindCheckbox OptionKind = "checkbox"
	OptionKindRadio    OptionKind = "radio"
)

// Valid reports whether the kind is one of the supported controls.
func (k OptionKind) Valid() bool {
	return k == OptionKindCheckbox || k == OptionKindRadio
}

// Placement selects where the rendered form is attached on the host page.
type Placement string

const (
	PlacementModal  Placement = "modal"
	PlacementInline Placement = "inline"
)

// FeedbackOption is one selectable category of issue. Options are immutable
// once loaded; their order in Config.FeedbackOptions is the render order.
type FeedbackOption struct {
	ID               string     `json:"id" yaml:"id"`
	Kind             OptionKind `json:"kind" yaml:"kind"`
	Label            string     `json:"label" yaml:"label"`
	Subtext          string     `json:"subtext,omitempty" yaml:"subtext,omitempty"`
	RequiresFreeText bool       `json:"requiresFreeText,omitempty" yaml:"requiresFreeText,omitempty"`
}

// Messages holds the user-facing strings of the widget.
type Messages struct {
	EmptyForm           string `json:"emptyForm,omitempty" yaml:"emptyForm,omitempty"`
	Success             string `json:"success,omitempty" yaml:"success,omitempty"`
	Failure             string `json:"failure,omitempty" yaml:"failure,omitempty"`
	FailureDetailPrefix string `json:"failureDetailPrefix,omitempty" yaml:"failureDetailPrefix,omitempty"`
	Loading             string `json:"loading,omitempty" yaml:"loading,omitempty"`
	SubmitLabel         string `json:"submitLabel,omitempty" yaml:"submitLabel,omitempty"`
	OpenLabel           string `json:"openLabel,omitempty" yaml:"openLabel,omitempty"`
	OpenTitle           string `json:"openTitle,omitempty" yaml:"openTitle,omitempty"`
}

// Config is the configuration surface consumed from the host.
type Config struct {
	Title           string           `json:"title" yaml:"title"`
	Description     string           `json:"description" yaml:"description"`
	URL             string           `json:"url" yaml:"url"`
	UserIP          string           `json:"userIp" yaml:"userIp"`
	FeedbackOptions []FeedbackOption `json:"feedbackOptions" yaml:"feedbackOptions"`

	Placement    Placement     `json:"placement,omitempty" yaml:"placement,omitempty"`
	SuccessDelay time.Duration `json:"successDelay,omitempty" yaml:"successDelay,omitempty"`
	Timeout      time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Messages     Messages      `json:"messages,omitempty" yaml:"messages,omitempty"`
}

// DeviceInfo is a read-only snapshot of the host environment. JSON names
// match the payload the feedback endpoints already consume.
type DeviceInfo struct {
	Browser        string `json:"browser"`
	Product        string `json:"device"`
	UserAgent      string `json:"deviceUserAgent"`
	BrowserVersion string `json:"browserVersion"`
	RenderEngine   string `json:"renderEngine"`
	OS             string `json:"os"`
	OSVersion      string `json:"osVersion"`
	Manufacturer   string `json:"deviceManufacturer"`
	Description    string `json:"deviceDescription"`
}

// PlayerError is the last error surfaced by the playback component. A nil
// *PlayerError means no error was reported.
type PlayerError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// FreeTextField describes the text input attached to an option that asks for
// additional details.
type FreeTextField struct {
	Name        string `json:"name"`
	Placeholder string `json:"placeholder,omitempty"`
}

// Field is one renderable option control.
type Field struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Kind     OptionKind     `json:"kind"`
	Value    string         `json:"value"`
	Label    string         `json:"label"`
	Subtext  string         `json:"subtext,omitempty"`
	FreeText *FreeTextField `json:"freeText,omitempty"`
}

// FormModel is the renderable representation of the feedback form.
type FormModel struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Action      string    `json:"action"`
	Method      string    `json:"method"`
	Enctype     string    `json:"enctype"`
	Placement   Placement `json:"placement"`
	Fields      []Field   `json:"fields"`
	SubmitLabel string    `json:"submitLabel"`
	OpenLabel   string    `json:"openLabel,omitempty"`
	OpenTitle   string    `json:"openTitle,omitempty"`
	Loading     string    `json:"loading,omitempty"`
}

// Selection is one selected option plus its free text, if any.
type Selection struct {
	OptionID string `json:"optionId"`
	Text     string `json:"text,omitempty"`
}

// OptionState pairs an option with its live selection state.
type OptionState struct {
	Option   FeedbackOption `json:"option"`
	Selected bool           `json:"selected"`
	Text     string         `json:"text,omitempty"`
}

// FeedbackForm is a point-in-time snapshot of a form instance.
type FeedbackForm struct {
	FormID          string        `json:"formId"`
	Options         []OptionState `json:"options"`
	Selections      []Selection   `json:"selections"`
	ValidationError string        `json:"validationError,omitempty"`
}

// Empty reports whether no option is selected.
func (f FeedbackForm) Empty() bool {
	return len(f.Selections) == 0
}

// Status is the UI state of one widget instance.
type Status struct {
	Open              bool   `json:"open"`
	TriggerEnabled    bool   `json:"triggerEnabled"`
	Loading           bool   `json:"loading"`
	ValidationMessage string `json:"validationMessage,omitempty"`
	SuccessMessage    string `json:"successMessage,omitempty"`
	FailureMessage    string `json:"failureMessage,omitempty"`
}
