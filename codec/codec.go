// Package codec encodes and decodes JSON-RPC payloads for byte-oriented
// transports.
//
// Decoding always produces generic values (maps, slices, strings, numbers),
// which is what the jsonrpc package parses. Encoding accepts the jsonrpc
// message types directly.
package codec

import (
	"fmt"
	"io"
	"mime"
	"reflect"
	"strings"
)

// Codec converts between payload values and their wire representation.
type Codec interface {
	// Name is the short name used in configuration ("json", "cbor").
	Name() string
	// ContentType is the media type written to Content-Type headers.
	ContentType() string
	Encode(w io.Writer, v any) error
	// Decode reads exactly one value from r. Trailing data is an error.
	Decode(r io.Reader) (any, error)
}

var codecs = []Codec{JSON, CBOR}

// ByName returns the codec registered under name.
func ByName(name string) (Codec, error) {
	for _, c := range codecs {
		if strings.EqualFold(c.Name(), name) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("codec: unknown codec %q", name)
}

// ForContentType returns the codec for a Content-Type header value. An empty
// header selects JSON.
func ForContentType(header string) (Codec, bool) {
	if header == "" {
		return JSON, true
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return nil, false
	}
	for _, c := range codecs {
		if c.ContentType() == mediaType {
			return c, true
		}
	}
	return nil, false
}

type mapper interface {
	Map() map[string]any
}

type payloader interface {
	Payload() any
}

// wire rewrites jsonrpc messages into plain maps and slices so that encoders
// that do not honor json.Marshaler produce the protocol shape.
func wire(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case payloader:
		return wire(x.Payload())
	case mapper:
		if rv := reflect.ValueOf(x); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil
		}
		return x.Map()
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return v
	}
	if !rv.Type().Elem().Implements(reflect.TypeFor[mapper]()) {
		return v
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = wire(rv.Index(i).Interface())
	}
	return out
}
