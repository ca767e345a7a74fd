package model

import (
	"strings"
	"time"
)

const (
	DefaultSuccessDelay = 5 * time.Second
	DefaultTimeout      = 30 * time.Second
)

// DefaultMessages returns the stock English strings.
func DefaultMessages() Messages {
	return Messages{
		EmptyForm:           "Form is empty. Please select an option and try again.",
		Success:             "Your feedback was sent successfully. Thank you for taking your time to let us know.",
		Failure:             "Sorry! There was a problem and your feedback could not be submitted. Perhaps try again later?",
		FailureDetailPrefix: "Error:",
		Loading:             "Loading",
		SubmitLabel:         "send feedback",
		OpenLabel:           "open feedback",
		OpenTitle:           "Problem? Send us some details!",
	}
}

// DefaultConfig returns the configuration used when the host supplies none:
// empty title, description, url and user IP plus a single empty checkbox.
func DefaultConfig() Config {
	return Config{
		FeedbackOptions: []FeedbackOption{
			{Kind: OptionKindCheckbox},
		},
		Placement:    PlacementModal,
		SuccessDelay: DefaultSuccessDelay,
		Timeout:      DefaultTimeout,
		Messages:     DefaultMessages(),
	}
}

// Merge applies override on top of base. Non-empty scalars win; the option
// list is replaced wholesale whenever the override declares one, so an
// explicit empty list yields a form without options.
func Merge(base, override Config) Config {
	out := base
	if override.Title != "" {
		out.Title = override.Title
	}
	if override.Description != "" {
		out.Description = override.Description
	}
	if override.URL != "" {
		out.URL = strings.TrimSpace(override.URL)
	}
	if override.UserIP != "" {
		out.UserIP = override.UserIP
	}
	if override.FeedbackOptions != nil {
		out.FeedbackOptions = cloneOptions(override.FeedbackOptions)
	} else if base.FeedbackOptions != nil {
		out.FeedbackOptions = cloneOptions(base.FeedbackOptions)
	}
	if override.Placement != "" {
		out.Placement = override.Placement
	}
	if override.SuccessDelay > 0 {
		out.SuccessDelay = override.SuccessDelay
	}
	if override.Timeout > 0 {
		out.Timeout = override.Timeout
	}
	out.Messages = mergeMessages(base.Messages, override.Messages)
	return out
}

// WithDefaults merges cfg on top of DefaultConfig.
func WithDefaults(cfg Config) Config {
	return Merge(DefaultConfig(), cfg)
}

func mergeMessages(base, override Messages) Messages {
	out := base
	pick := func(dst *string, value string) {
		if strings.TrimSpace(value) != "" {
			*dst = value
		}
	}
	pick(&out.EmptyForm, override.EmptyForm)
	pick(&out.Success, override.Success)
	pick(&out.Failure, override.Failure)
	pick(&out.FailureDetailPrefix, override.FailureDetailPrefix)
	pick(&out.Loading, override.Loading)
	pick(&out.SubmitLabel, override.SubmitLabel)
	pick(&out.OpenLabel, override.OpenLabel)
	pick(&out.OpenTitle, override.OpenTitle)
	return out
}

// cloneOptions copies opts, keeping an empty non-nil slice non-nil.
func cloneOptions(opts []FeedbackOption) []FeedbackOption {
	out := make([]FeedbackOption, len(opts))
	copy(out, opts)
	return out
}
