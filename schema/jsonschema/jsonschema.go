// Package jsonschema adapts compiled JSON Schema documents to schema.Schema.
//
// JSON Schema never transforms values, so a successful validation returns the
// input unchanged.
package jsonschema

import (
	"bytes"
	"errors"
	"strings"

	js "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mnehpets/rpcschema/schema"
)

var printer = message.NewPrinter(language.English)

// Schema is a compiled JSON Schema document.
type Schema struct {
	url      string
	compiled *js.Schema
}

// Compile parses document and compiles it under the given resource URL.
func Compile(url string, document []byte) (*Schema, error) {
	doc, err := js.UnmarshalJSON(bytes.NewReader(document))
	if err != nil {
		return nil, err
	}
	c := js.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, err
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, err
	}
	return &Schema{url: url, compiled: compiled}, nil
}

// MustCompile is like Compile but panics on error. It is meant for schemas
// embedded in source code.
func MustCompile(url, document string) *Schema {
	s, err := Compile(url, []byte(document))
	if err != nil {
		panic("jsonschema: " + err.Error())
	}
	return s
}

// Validate implements schema.Schema.
func (s *Schema) Validate(input any) schema.Result {
	err := s.compiled.Validate(input)
	if err == nil {
		return schema.Valid(input)
	}
	var verr *js.ValidationError
	if !errors.As(err, &verr) {
		return schema.Invalid(schema.Issue{Message: err.Error(), Code: schema.CodeInvalidType})
	}
	return schema.Invalid(leaves(verr, nil)...)
}

// leaves flattens the cause tree; only leaf errors describe concrete failures.
func leaves(verr *js.ValidationError, out []schema.Issue) []schema.Issue {
	if len(verr.Causes) > 0 {
		for _, c := range verr.Causes {
			out = leaves(c, out)
		}
		return out
	}
	path := make([]any, len(verr.InstanceLocation))
	for i, p := range verr.InstanceLocation {
		path[i] = p
	}
	return append(out, schema.Issue{
		Path:    path,
		Message: verr.ErrorKind.LocalizedString(printer),
		Code:    strings.Join(verr.ErrorKind.KeywordPath(), "/"),
	})
}
