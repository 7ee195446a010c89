package codec

import (
	"encoding/json"
	"errors"
	"io"
)

type jsonCodec struct{}

// JSON is the default codec.
var JSON Codec = jsonCodec{}

func (jsonCodec) Name() string        { return "json" }
func (jsonCodec) ContentType() string { return "application/json" }

func (jsonCodec) Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (jsonCodec) Decode(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	// Numbers stay exact: an id such as 9007199254740993 must be echoed as sent.
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("codec: unexpected data after JSON value")
	}
	return v, nil
}
