package submit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Request is a transport independent description of the single submit call.
type Request struct {
	Method      string
	Path        string
	ContentType string
	Body        io.Reader
	RequestID   string
}

// Response is what the pipeline needs from the server reply.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Transport performs one request. Implementations must not retry.
type Transport interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req Request) (Response, error)

func (f TransportFunc) Do(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// maxResponseBody bounds how much of a reply is kept for error mapping.
const maxResponseBody = 1 << 20

// HTTPTransport sends requests with net/http against a base URL.
type HTTPTransport struct {
	client  *http.Client
	baseURL string
	headers http.Header
}

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient replaces the default client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(t *HTTPTransport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithHeader adds a static header sent with every request.
func WithHeader(key, value string) HTTPOption {
	return func(t *HTTPTransport) {
		if strings.TrimSpace(key) != "" {
			t.headers.Set(key, value)
		}
	}
}

// NewHTTPTransport returns a transport rooted at baseURL.
func NewHTTPTransport(baseURL string, opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		client:  http.DefaultClient,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		headers: make(http.Header),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// Do issues the request once.
func (t *HTTPTransport) Do(ctx context.Context, req Request) (Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}
	target := t.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	httpReq, err := http.NewRequestWithContext(ctx, method, target, req.Body)
	if err != nil {
		return Response{}, fmt.Errorf("submit: build request: %w", err)
	}
	for key, values := range t.headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.RequestID != "" {
		httpReq.Header.Set("X-Request-ID", req.RequestID)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("submit: %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return Response{Status: resp.StatusCode, Header: resp.Header}, fmt.Errorf("submit: read response: %w", err)
	}
	return Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}
