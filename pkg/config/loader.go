// Package config loads widget configuration from JSON or YAML files and
// overlays PLAYERFEEDBACK_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-playerfeedback/pkg/model"
)

// Environment variable names read by ApplyEnv.
const (
	EnvURL          = "PLAYERFEEDBACK_URL"
	EnvUserIP       = "PLAYERFEEDBACK_USER_IP"
	EnvTitle        = "PLAYERFEEDBACK_TITLE"
	EnvDescription  = "PLAYERFEEDBACK_DESCRIPTION"
	EnvPlacement    = "PLAYERFEEDBACK_PLACEMENT"
	EnvSuccessDelay = "PLAYERFEEDBACK_SUCCESS_DELAY"
	EnvTimeout      = "PLAYERFEEDBACK_TIMEOUT"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type documentFile struct {
	Title           string          `json:"title" yaml:"title"`
	Description     string          `json:"description" yaml:"description"`
	URL             string          `json:"url" yaml:"url"`
	UserIP          string          `json:"userIp" yaml:"userIp"`
	FeedbackOptions []optionFile    `json:"feedbackOptions" yaml:"feedbackOptions"`
	Placement       string          `json:"placement" yaml:"placement"`
	SuccessDelay    string          `json:"successDelay" yaml:"successDelay"`
	Timeout         string          `json:"timeout" yaml:"timeout"`
	Messages        *model.Messages `json:"messages" yaml:"messages"`
}

// optionFile accepts both current keys and the keys older player
// configurations used (optionType, text, shouldHaveATextarea).
type optionFile struct {
	ID               string `json:"id" yaml:"id"`
	Kind             string `json:"kind" yaml:"kind"`
	Label            string `json:"label" yaml:"label"`
	Subtext          string `json:"subtext" yaml:"subtext"`
	RequiresFreeText bool   `json:"requiresFreeText" yaml:"requiresFreeText"`

	OptionType          string `json:"optionType" yaml:"optionType"`
	Text                string `json:"text" yaml:"text"`
	ShouldHaveATextarea bool   `json:"shouldHaveATextarea" yaml:"shouldHaveATextarea"`
}

// Parse decodes a configuration document. The result holds only what the
// document sets; combine it with model.WithDefaults.
func Parse(data []byte, source string) (model.Config, error) {
	doc, err := parseDocument(data, source)
	if err != nil {
		return model.Config{}, err
	}
	return normaliseDocument(doc, source)
}

// LoadFile reads and parses a configuration file.
func LoadFile(path string) (model.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// LoadFS reads and parses name from fsys.
func LoadFS(fsys fs.FS, name string) (model.Config, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return model.Config{}, fmt.Errorf("config: read %s: %w", name, err)
	}
	return Parse(data, name)
}

// Resolve builds the effective configuration: defaults, then the file at
// path (skipped when empty), then the process environment.
func Resolve(path string) (model.Config, error) {
	cfg := model.DefaultConfig()
	if strings.TrimSpace(path) != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return model.Config{}, err
		}
		cfg = model.Merge(cfg, fileCfg)
	}
	return ApplyEnv(cfg, os.LookupEnv)
}

// ApplyEnv overlays non-empty PLAYERFEEDBACK_* variables on cfg.
func ApplyEnv(cfg model.Config, lookup LookupFunc) (model.Config, error) {
	if lookup == nil {
		return cfg, nil
	}
	get := func(key string) string {
		value, ok := lookup(key)
		if !ok {
			return ""
		}
		return strings.TrimSpace(value)
	}

	override := model.Config{
		URL:         get(EnvURL),
		UserIP:      get(EnvUserIP),
		Title:       get(EnvTitle),
		Description: get(EnvDescription),
		Placement:   model.Placement(get(EnvPlacement)),
	}
	var err error
	if override.SuccessDelay, err = parseDuration(get(EnvSuccessDelay), EnvSuccessDelay); err != nil {
		return model.Config{}, err
	}
	if override.Timeout, err = parseDuration(get(EnvTimeout), EnvTimeout); err != nil {
		return model.Config{}, err
	}
	return model.Merge(cfg, override), nil
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("config: file %s is empty", source)
	}
	jsonErr := json.Unmarshal(data, &doc)
	if jsonErr == nil {
		return doc, nil
	}
	doc = documentFile{}
	yamlErr := yaml.Unmarshal(data, &doc)
	if yamlErr == nil {
		return doc, nil
	}
	// Report the decoder matching the document's shape so its position
	// information survives.
	if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		return documentFile{}, fmt.Errorf("config: parse %s as JSON: %w", source, jsonErr)
	}
	return documentFile{}, fmt.Errorf("config: parse %s as YAML: %w", source, yamlErr)
}

func normaliseDocument(doc documentFile, source string) (model.Config, error) {
	cfg := model.Config{
		Title:       doc.Title,
		Description: doc.Description,
		URL:         strings.TrimSpace(doc.URL),
		UserIP:      strings.TrimSpace(doc.UserIP),
	}

	switch placement := model.Placement(strings.ToLower(strings.TrimSpace(doc.Placement))); placement {
	case "", model.PlacementModal, model.PlacementInline:
		cfg.Placement = placement
	default:
		return model.Config{}, fmt.Errorf("config: %s: unknown placement %q", source, doc.Placement)
	}

	var err error
	if cfg.SuccessDelay, err = parseDuration(doc.SuccessDelay, source+": successDelay"); err != nil {
		return model.Config{}, err
	}
	if cfg.Timeout, err = parseDuration(doc.Timeout, source+": timeout"); err != nil {
		return model.Config{}, err
	}
	if doc.Messages != nil {
		cfg.Messages = *doc.Messages
	}

	if doc.FeedbackOptions != nil {
		cfg.FeedbackOptions = make([]model.FeedbackOption, 0, len(doc.FeedbackOptions))
		for i, raw := range doc.FeedbackOptions {
			opt, err := normaliseOption(raw)
			if err != nil {
				return model.Config{}, fmt.Errorf("config: %s: feedbackOptions[%d]: %w", source, i, err)
			}
			cfg.FeedbackOptions = append(cfg.FeedbackOptions, opt)
		}
	}
	return cfg, nil
}

func normaliseOption(raw optionFile) (model.FeedbackOption, error) {
	kind := strings.ToLower(strings.TrimSpace(firstNonEmpty(raw.Kind, raw.OptionType)))
	if kind == "" {
		kind = string(model.OptionKindCheckbox)
	}
	if !model.OptionKind(kind).Valid() {
		return model.FeedbackOption{}, fmt.Errorf("unknown kind %q", kind)
	}
	return model.FeedbackOption{
		ID:               strings.TrimSpace(raw.ID),
		Kind:             model.OptionKind(kind),
		Label:            strings.TrimSpace(firstNonEmpty(raw.Label, raw.Text)),
		Subtext:          strings.TrimSpace(raw.Subtext),
		RequiresFreeText: raw.RequiresFreeText || raw.ShouldHaveATextarea,
	}, nil
}

func parseDuration(value, source string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", source, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: %s: negative duration %s", source, value)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
