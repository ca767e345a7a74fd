package submission_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-playerfeedback/pkg/model"
	"github.com/goliatone/go-playerfeedback/pkg/player"
	"github.com/goliatone/go-playerfeedback/pkg/submission"
)

func TestBuildPayload_FieldOrder(t *testing.T) {
	sc := submission.Context{
		ClientIP:    "203.0.113.7",
		UserAgent:   "test-agent",
		Platform:    "Linux x86_64",
		DeviceInfo:  model.DeviceInfo{Browser: "Firefox"},
		PlayerError: &model.PlayerError{Code: 3, Message: "decode"},
	}
	selections := []model.Selection{
		{OptionID: "other", Text: "no subtitles"},
		{OptionID: "froze"},
	}

	payload, err := submission.BuildPayload(selections, sc)
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}

	info, _ := json.Marshal(sc.DeviceInfo)
	want := []submission.Field{
		{Name: "feedback[]", Value: "other"},
		{Name: "feedback[]", Value: "froze"},
		{Name: "feedbackText[other]", Value: "no subtitles"},
		{Name: "userAgent", Value: "test-agent"},
		{Name: "platform", Value: "Linux x86_64"},
		{Name: "userIp", Value: "203.0.113.7"},
		{Name: "error[]", Value: `{"code":3,"message":"decode"}`},
		{Name: "deviceInfo", Value: string(info)},
	}
	if diff := cmp.Diff(want, payload.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPayload_NoPlayerErrorUsesSentinel(t *testing.T) {
	payload, err := submission.BuildPayload([]model.Selection{{OptionID: "froze"}}, submission.Context{})
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	if payload.PlayerError != player.NoErrorReported {
		t.Fatalf("expected sentinel, got %q", payload.PlayerError)
	}
	if len(payload.FreeText) != 0 {
		t.Fatalf("expected no free text, got %+v", payload.FreeText)
	}
}

func TestPayload_EncodeMultipart(t *testing.T) {
	payload, err := submission.BuildPayload([]model.Selection{{OptionID: "a"}, {OptionID: "b"}}, submission.Context{UserAgent: "ua"})
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	body, contentType, err := payload.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("unexpected content type %q: %v", contentType, err)
	}

	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	var got []submission.Field
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next part: %v", err)
		}
		value, _ := io.ReadAll(part)
		got = append(got, submission.Field{Name: part.FormName(), Value: string(value)})
	}
	if diff := cmp.Diff(payload.Fields(), got); diff != "" {
		t.Fatalf("decoded parts mismatch (-want +got):\n%s", diff)
	}
}
