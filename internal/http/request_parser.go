// Package http exposes the finboard JSON API.
//
// This file implements request body parsing. Bodies are JSON objects; form
// encoded bodies are accepted too so simple clients and curl work.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

const maxBodyBytes = 1 << 20

// badRequest is a malformed request, as opposed to invalid field values.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func errBadRequest(msg string) error { return &badRequest{msg: msg} }

// RequestBodyParser reads the body once and exposes typed field accessors.
// Typed accessors return *core.ValidationError naming the field.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if p.err != nil {
		p.err = errBadRequest("request body too large or unreadable")
	}
	return p
}

// Parse decodes the body as JSON or form data. An empty body parses as an
// empty object.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.jsonData = nil
			p.err = errBadRequest("request body must be a JSON object")
			return p.err
		}
		return nil
	}

	form, err := url.ParseQuery(string(trimmed))
	if err != nil {
		p.err = errBadRequest("malformed form body")
		return p.err
	}
	p.formData = form
	return nil
}

// Has reports whether the field was sent at all, even if empty.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		v, ok := p.jsonData[key]
		return ok && v != nil
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// Get returns a sanitized string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// OptString returns a pointer to the value when the field was sent.
func (p *RequestBodyParser) OptString(key string) *string {
	if !p.Has(key) {
		return nil
	}
	v := p.Get(key)
	return &v
}

func (p *RequestBodyParser) Amount(key string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(p.Get(key))
	if err != nil {
		return decimal.Zero, &core.ValidationError{Field: key, Err: core.ErrInvalidAmount}
	}
	return d, nil
}

func (p *RequestBodyParser) OptAmount(key string) (*decimal.Decimal, error) {
	if !p.Has(key) {
		return nil, nil
	}
	d, err := p.Amount(key)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (p *RequestBodyParser) Date(key string) (core.Date, error) {
	d, err := core.ParseDate(p.Get(key))
	if err != nil {
		return core.Date{}, &core.ValidationError{Field: key, Err: core.ErrInvalidDate}
	}
	return d, nil
}

func (p *RequestBodyParser) OptDate(key string) (*core.Date, error) {
	if !p.Has(key) {
		return nil, nil
	}
	d, err := p.Date(key)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (p *RequestBodyParser) OptCategory(key string) (*core.Category, error) {
	if !p.Has(key) {
		return nil, nil
	}
	c, err := core.ParseCategory(p.Get(key))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

var errNotBoolean = errors.New("must be true or false")

func (p *RequestBodyParser) Bool(key string) (bool, error) {
	if p.jsonData != nil {
		if b, ok := p.jsonData[key].(bool); ok {
			return b, nil
		}
	}
	b, err := strconv.ParseBool(p.Get(key))
	if err != nil {
		return false, &core.ValidationError{Field: key, Err: errNotBoolean}
	}
	return b, nil
}

// Decode unmarshals the raw JSON body into v. Used where the body maps
// directly onto a type, like settings.
func (p *RequestBodyParser) Decode(v any) error {
	if p.err != nil {
		return p.err
	}
	if len(bytes.TrimSpace(p.body)) == 0 {
		return errBadRequest("request body is required")
	}
	if err := json.Unmarshal(p.body, v); err != nil {
		return errBadRequest("request body must be a JSON object")
	}
	return nil
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput strips control characters other than tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
