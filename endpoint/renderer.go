package endpoint

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/mnehpets/rpcschema/codec"
)

// StringRenderer writes a string body. ContentType defaults to
// "text/plain; charset=utf-8" unless a Content-Type header is already set.
type StringRenderer struct {
	Status      int
	Body        string
	ContentType string
}

func (sr *StringRenderer) Render(w http.ResponseWriter, _ *http.Request) error {
	if w.Header().Get("Content-Type") == "" {
		ct := sr.ContentType
		if ct == "" {
			ct = "text/plain; charset=utf-8"
		}
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(statusOr(sr.Status, http.StatusOK))
	if sr.Body == "" {
		return nil
	}
	_, err := w.Write([]byte(sr.Body))
	return err
}

// NoContentRenderer writes a status with no body. Status defaults to 204.
type NoContentRenderer struct {
	Status int
}

func (ncr *NoContentRenderer) Render(w http.ResponseWriter, _ *http.Request) error {
	w.WriteHeader(statusOr(ncr.Status, http.StatusNoContent))
	return nil
}

// PayloadRenderer encodes Value with Codec, JSON when nil.
//
// The value is encoded before the status is written, so an encoding failure
// is returned as an error and results in a 500 rather than a truncated body.
type PayloadRenderer struct {
	Status int
	Codec  codec.Codec
	Value  any
}

func (pr *PayloadRenderer) Render(w http.ResponseWriter, _ *http.Request) error {
	c := pr.Codec
	if c == nil {
		c = codec.JSON
	}
	var buf bytes.Buffer
	if err := c.Encode(&buf, pr.Value); err != nil {
		return err
	}
	w.Header().Set("Content-Type", c.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(statusOr(pr.Status, http.StatusOK))
	_, err := w.Write(buf.Bytes())
	return err
}

func statusOr(status, def int) int {
	if status == 0 {
		return def
	}
	return status
}
