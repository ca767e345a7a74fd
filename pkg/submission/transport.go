package submission

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBody = 64 << 10

// Request is one outbound submission.
type Request struct {
	URL         string
	ContentType string
	Body        []byte
}

// Response is a 2xx reply. Failures are reported as *TransportError.
type Response struct {
	StatusCode int
	Body       string
}

// Transport delivers a submission. Implementations make exactly one attempt.
type Transport interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req Request) (Response, error)

func (fn TransportFunc) Send(ctx context.Context, req Request) (Response, error) {
	return fn(ctx, req)
}

// HTTPTransport posts submissions with net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport returns a transport using client. A nil client gets one
// with the default timeout.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPTransport{client: client}
}

// NewHTTPTransportWithTimeout returns a transport whose client gives up after
// timeout.
func NewHTTPTransportWithTimeout(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		return NewHTTPTransport(nil)
	}
	return NewHTTPTransport(&http.Client{Timeout: timeout})
}

func (t *HTTPTransport) Send(ctx context.Context, req Request) (Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return Response{}, &TransportError{Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", req.ContentType)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return Response{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return Response{}, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, &TransportError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return Response{StatusCode: resp.StatusCode, Body: string(body)}, nil
}
