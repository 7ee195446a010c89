package httprpc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/mnehpets/rpcschema/codec"
	"github.com/mnehpets/rpcschema/jsonrpc"
)

type transport struct {
	url    string
	client *http.Client
	codec  codec.Codec
	header http.Header
}

// TransportOption configures Transport.
type TransportOption func(*transport)

// WithHTTPClient sets the client used to send requests. The default is
// http.DefaultClient.
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *transport) {
		if c != nil {
			t.client = c
		}
	}
}

// WithCodec selects the request encoding. The default is JSON.
func WithCodec(c codec.Codec) TransportOption {
	return func(t *transport) {
		if c != nil {
			t.codec = c
		}
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) TransportOption {
	return func(t *transport) { t.header.Add(key, value) }
}

// Transport returns a jsonrpc.Transport posting payloads to url.
//
// A 204 No Content reply yields a nil payload. Any status other than 200 and
// 204 is an error.
func Transport(url string, opts ...TransportOption) jsonrpc.Transport {
	t := &transport{
		url:    url,
		client: http.DefaultClient,
		codec:  codec.JSON,
		header: make(http.Header),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t.roundTrip
}

func (t *transport) roundTrip(ctx context.Context, payload any) (any, error) {
	var body bytes.Buffer
	if err := t.codec.Encode(&body, payload); err != nil {
		return nil, fmt.Errorf("httprpc: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, &body)
	if err != nil {
		return nil, err
	}
	for k, v := range t.header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", t.codec.ContentType())
	req.Header.Set("Accept", t.codec.ContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		return nil, nil
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("httprpc: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	c, ok := codec.ForContentType(resp.Header.Get("Content-Type"))
	if !ok {
		c = t.codec
	}
	v, err := c.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httprpc: decode: %w", err)
	}
	return v, nil
}
