// Package contract describes the feedback endpoint as an OpenAPI 3 document
// derived from the widget configuration, and validates submissions against
// it with kin-openapi.
package contract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	internalmodel "github.com/goliatone/go-playerfeedback/internal/model"
	"github.com/goliatone/go-playerfeedback/pkg/model"
	"github.com/goliatone/go-playerfeedback/pkg/submission"
)

const (
	multipartMediaType = "multipart/form-data"
	defaultPath        = "/"
	maxMemory          = 1 << 20
)

// ErrNoSchema is returned when the loaded document lacks the request body
// schema of the feedback operation.
var ErrNoSchema = errors.New("contract: feedback request schema missing")

// Contract is the loaded and validated OpenAPI description.
type Contract struct {
	spec   *openapi3.T
	raw    []byte
	path   string
	arrays map[string]bool
}

// New builds the document for cfg, loads it through kin-openapi and
// validates it.
func New(ctx context.Context, cfg model.Config) (*Contract, error) {
	server, path := splitURL(cfg.URL)
	raw, err := json.MarshalIndent(document(cfg, server, path), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("contract: encode document: %w", err)
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("contract: load document: %w", err)
	}
	if err := spec.Validate(ctx); err != nil {
		return nil, fmt.Errorf("contract: validate: %w", err)
	}

	return &Contract{
		spec: spec,
		raw:  raw,
		path: path,
		arrays: map[string]bool{
			submission.FieldFeedback: true,
		},
	}, nil
}

// Spec returns the parsed document.
func (c *Contract) Spec() *openapi3.T { return c.spec }

// Path returns the operation path.
func (c *Contract) Path() string { return c.path }

// JSON returns the document as indented JSON.
func (c *Contract) JSON() []byte { return append([]byte(nil), c.raw...) }

// YAML returns the document as YAML.
func (c *Contract) YAML() ([]byte, error) {
	var doc any
	if err := json.Unmarshal(c.raw, &doc); err != nil {
		return nil, fmt.Errorf("contract: decode document: %w", err)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("contract: encode yaml: %w", err)
	}
	return out, nil
}

// ValidateFields checks an ordered multipart payload against the request
// schema.
func (c *Contract) ValidateFields(fields []submission.Field) error {
	values := make(map[string][]string, len(fields))
	for _, f := range fields {
		values[f.Name] = append(values[f.Name], f.Value)
	}
	return c.validate(values)
}

// ValidateRequest parses a multipart request and validates its fields.
func (c *Contract) ValidateRequest(r *http.Request) error {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return fmt.Errorf("contract: parse multipart: %w", err)
	}
	return c.validate(r.MultipartForm.Value)
}

func (c *Contract) validate(values map[string][]string) error {
	schema, err := c.requestSchema()
	if err != nil {
		return err
	}

	body := make(map[string]any, len(values))
	for name, vals := range values {
		if c.arrays[name] {
			items := make([]any, len(vals))
			for i, v := range vals {
				items[i] = v
			}
			body[name] = items
			continue
		}
		if len(vals) > 0 {
			body[name] = vals[len(vals)-1]
		}
	}
	if err := schema.VisitJSON(body); err != nil {
		return fmt.Errorf("contract: payload does not match schema: %w", err)
	}
	return nil
}

func (c *Contract) requestSchema() (*openapi3.Schema, error) {
	if c.spec == nil || c.spec.Paths == nil {
		return nil, ErrNoSchema
	}
	item, ok := c.spec.Paths.Map()[c.path]
	if !ok || item == nil || item.Post == nil || item.Post.RequestBody == nil || item.Post.RequestBody.Value == nil {
		return nil, ErrNoSchema
	}
	media, ok := item.Post.RequestBody.Value.Content[multipartMediaType]
	if !ok || media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil, ErrNoSchema
	}
	return media.Schema.Value, nil
}

func splitURL(raw string) (server, path string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", defaultPath
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", defaultPath
	}
	path = u.EscapedPath()
	if path == "" {
		path = defaultPath
	}
	if u.Scheme != "" && u.Host != "" {
		server = u.Scheme + "://" + u.Host
	}
	return server, path
}

type object = map[string]any

func document(cfg model.Config, server, path string) object {
	ids := make([]any, 0, len(cfg.FeedbackOptions))
	properties := object{}
	for _, opt := range cfg.FeedbackOptions {
		id := internalmodel.OptionValue(opt)
		if id == "" {
			continue
		}
		ids = append(ids, id)
		if opt.RequiresFreeText {
			properties[internalmodel.FreeTextFieldName(id)] = object{
				"type":        "string",
				"description": "Free text for " + id,
			}
		}
	}

	items := object{"type": "string"}
	if len(ids) > 0 {
		items["enum"] = ids
	}
	properties[submission.FieldFeedback] = object{
		"type":        "array",
		"items":       items,
		"minItems":    1,
		"description": "Selected option identifiers in selection order.",
	}
	properties[submission.FieldUserAgent] = object{"type": "string"}
	properties[submission.FieldPlatform] = object{"type": "string"}
	properties[submission.FieldUserIP] = object{"type": "string"}
	properties[submission.FieldError] = object{
		"type":        "string",
		"description": "JSON-encoded player error, or a fixed sentinel when none was reported.",
	}
	properties[submission.FieldDeviceInfo] = object{
		"type":        "string",
		"description": "JSON-encoded device information.",
	}

	doc := object{
		"openapi": "3.0.3",
		"info": object{
			"title":   "Player feedback",
			"version": "1.0.0",
		},
		"paths": object{
			path: object{
				"post": object{
					"operationId": "submitFeedback",
					"summary":     "Submit player feedback",
					"requestBody": object{
						"required": true,
						"content": object{
							multipartMediaType: object{
								"schema": object{
									"type":       "object",
									"properties": properties,
									"required": []any{
										submission.FieldFeedback,
										submission.FieldUserAgent,
										submission.FieldPlatform,
										submission.FieldUserIP,
										submission.FieldError,
										submission.FieldDeviceInfo,
									},
								},
							},
						},
					},
					"responses": object{
						"200": object{"description": "Feedback stored"},
						"default": object{
							"description": "Submission rejected; the body is shown to the user verbatim.",
							"content": object{
								"text/plain": object{"schema": object{"type": "string"}},
							},
						},
					},
				},
			},
		},
	}
	if server != "" {
		doc["servers"] = []any{object{"url": server}}
	}
	return doc
}
