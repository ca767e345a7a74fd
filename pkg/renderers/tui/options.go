package tui

// Theme captures message prefixes the session prints with.
type Theme struct {
	InfoPrefix    string
	SuccessPrefix string
	ErrorPrefix   string
}

// DefaultTheme is used when no theme is supplied.
var DefaultTheme = Theme{
	InfoPrefix:    "",
	SuccessPrefix: "✔ ",
	ErrorPrefix:   "✖ ",
}

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the survey driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}

// WithNoneLabel sets the choice shown to skip the radio group.
func WithNoneLabel(label string) Option {
	return func(s *Session) {
		if label != "" {
			s.noneLabel = label
		}
	}
}
