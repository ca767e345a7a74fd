package submission

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"

	internalmodel "github.com/goliatone/go-playerfeedback/internal/model"
	"github.com/goliatone/go-playerfeedback/pkg/device"
	"github.com/goliatone/go-playerfeedback/pkg/model"
	"github.com/goliatone/go-playerfeedback/pkg/player"
)

// Multipart field names posted to the feedback endpoint.
const (
	FieldFeedback   = internalmodel.FeedbackFieldName
	FieldUserAgent  = "userAgent"
	FieldPlatform   = "platform"
	FieldUserIP     = "userIp"
	FieldError      = "error[]"
	FieldDeviceInfo = "deviceInfo"
)

// Context is the environment metadata captured at submit time.
type Context struct {
	TargetURL   string
	ClientIP    string
	UserAgent   string
	Platform    string
	DeviceInfo  model.DeviceInfo
	PlayerError *model.PlayerError
}

// NewContext captures the submission context from configuration, the host
// environment and the player. A nil player reports no error.
func NewContext(cfg model.Config, env device.Environment, p player.Player) Context {
	env = env.Resolve()
	ctx := Context{
		TargetURL:  cfg.URL,
		ClientIP:   cfg.UserIP,
		UserAgent:  env.UserAgent,
		Platform:   env.Platform,
		DeviceInfo: env.Snapshot(),
	}
	if p != nil {
		ctx.PlayerError = p.CurrentError()
	}
	return ctx
}

// Field is one ordered multipart entry.
type Field struct {
	Name  string
	Value string
}

// FreeText is the trimmed text typed for an option.
type FreeText struct {
	OptionID string
	Text     string
}

// Payload is the serialized submission.
type Payload struct {
	Feedback    []string
	FreeText    []FreeText
	UserAgent   string
	Platform    string
	UserIP      string
	PlayerError string
	DeviceInfo  string
}

// BuildPayload serializes selections and context. Selection order is kept;
// free text is only included when non-empty.
func BuildPayload(selections []model.Selection, sc Context) (Payload, error) {
	info, err := json.Marshal(sc.DeviceInfo)
	if err != nil {
		return Payload{}, fmt.Errorf("submission: encode device info: %w", err)
	}

	p := Payload{
		Feedback:    make([]string, 0, len(selections)),
		UserAgent:   sc.UserAgent,
		Platform:    sc.Platform,
		UserIP:      sc.ClientIP,
		PlayerError: player.EncodeError(sc.PlayerError),
		DeviceInfo:  string(info),
	}
	for _, sel := range selections {
		p.Feedback = append(p.Feedback, sel.OptionID)
		if sel.Text != "" {
			p.FreeText = append(p.FreeText, FreeText{OptionID: sel.OptionID, Text: sel.Text})
		}
	}
	return p, nil
}

// Fields returns the entries in wire order.
func (p Payload) Fields() []Field {
	fields := make([]Field, 0, len(p.Feedback)+len(p.FreeText)+5)
	for _, value := range p.Feedback {
		fields = append(fields, Field{Name: FieldFeedback, Value: value})
	}
	for _, text := range p.FreeText {
		fields = append(fields, Field{Name: internalmodel.FreeTextFieldName(text.OptionID), Value: text.Text})
	}
	return append(fields,
		Field{Name: FieldUserAgent, Value: p.UserAgent},
		Field{Name: FieldPlatform, Value: p.Platform},
		Field{Name: FieldUserIP, Value: p.UserIP},
		Field{Name: FieldError, Value: p.PlayerError},
		Field{Name: FieldDeviceInfo, Value: p.DeviceInfo},
	)
}

// Encode writes the payload as multipart/form-data and returns the body with
// its content type.
func (p Payload) Encode() ([]byte, string, error) {
	return p.encode("")
}

func (p Payload) encode(boundary string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if boundary != "" {
		if err := w.SetBoundary(boundary); err != nil {
			return nil, "", fmt.Errorf("submission: set boundary: %w", err)
		}
	}
	for _, field := range p.Fields() {
		if err := w.WriteField(field.Name, field.Value); err != nil {
			return nil, "", fmt.Errorf("submission: write field %s: %w", field.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("submission: close multipart: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
