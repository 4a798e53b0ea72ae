package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	jsoniter "github.com/json-iterator/go"

	"github.com/arfordweb/redux-auto-api/pkg/collection"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// HTTP is a Transport speaking JSON over REST: GET with query parameters,
// POST/PATCH/DELETE with the payload as a JSON body.
type HTTP struct {
	client *http.Client
	header http.Header
}

// HTTPOption configures the HTTP transport.
type HTTPOption func(*HTTP)

// WithClient sets the underlying http.Client (default http.DefaultClient).
func WithClient(c *http.Client) HTTPOption {
	return func(t *HTTP) {
		t.client = c
	}
}

// WithHeader adds a header to every request, e.g. an Authorization token.
func WithHeader(key, value string) HTTPOption {
	return func(t *HTTP) {
		t.header.Set(key, value)
	}
}

// NewHTTP creates an HTTP transport.
func NewHTTP(opts ...HTTPOption) *HTTP {
	t := &HTTP{
		client: http.DefaultClient,
		header: http.Header{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *HTTP) Get(ctx context.Context, endpoint string, params Params) (Response, error) {
	target := endpoint
	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		target = endpoint + "?" + q.Encode()
	}
	return t.do(ctx, http.MethodGet, target, nil)
}

func (t *HTTP) Post(ctx context.Context, endpoint string, payload any) (Response, error) {
	return t.do(ctx, http.MethodPost, endpoint, payload)
}

func (t *HTTP) Patch(ctx context.Context, endpoint string, payload any) (Response, error) {
	return t.do(ctx, http.MethodPatch, endpoint, payload)
}

func (t *HTTP) Delete(ctx context.Context, endpoint string, payload any) (Response, error) {
	return t.do(ctx, http.MethodDelete, endpoint, payload)
}

func (t *HTTP) do(ctx context.Context, method, target string, payload any) (Response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Response{}, fmt.Errorf("encode %s payload: %w", method, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Response{}, err
	}
	for k, vs := range t.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, &StatusError{
			Method: method,
			URL:    target,
			Code:   resp.StatusCode,
			Body:   string(raw),
		}
	}

	return decodeBody(raw)
}

// decodeBody normalizes a JSON body into Response. Accepted shapes:
// a top-level array of records, a single record object, or an envelope
// object with a "data" field holding either of those. An object is only
// treated as an envelope when "data" holds an array, or when "data" is
// its sole key; a record that merely carries a "data" field among others
// is kept whole.
func decodeBody(raw []byte) (Response, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Response{}, nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Response{}, fmt.Errorf("decode response body: %w", err)
	}

	payload := decoded
	if envelope, ok := decoded.(map[string]any); ok {
		if inner, ok := envelope["data"]; ok {
			switch inner.(type) {
			case []any:
				payload = inner
			case map[string]any:
				if len(envelope) == 1 {
					payload = inner
				}
			}
		}
	}

	return Response{Data: normalize(payload), Raw: decoded}, nil
}

func normalize(payload any) []collection.Resource {
	switch v := payload.(type) {
	case []any:
		out := make([]collection.Resource, 0, len(v))
		for _, item := range v {
			if record, ok := item.(map[string]any); ok {
				out = append(out, collection.Resource(record))
			}
		}
		return out
	case map[string]any:
		return []collection.Resource{collection.Resource(v)}
	default:
		return nil
	}
}
