package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finboard/internal/core"
)

func newParser(t *testing.T, contentType, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return p
}

func TestRequestBodyParser_JSON(t *testing.T) {
	p := newParser(t, "application/json", `{"description":"  Rent\u0007 ","amount":1200.50,"flag":true,"empty":"","nothing":null}`)

	if !p.IsJSON() {
		t.Fatal("expected JSON body")
	}
	if got := p.Get("description"); got != "Rent" {
		t.Errorf("Get(description) = %q", got)
	}
	amount, err := p.Amount("amount")
	if err != nil || amount.String() != "1200.5" {
		t.Errorf("Amount() = %v, %v", amount, err)
	}
	if b, err := p.Bool("flag"); err != nil || !b {
		t.Errorf("Bool() = %v, %v", b, err)
	}

	tests := []struct {
		key string
		has bool
	}{
		{"description", true},
		{"empty", true},
		{"nothing", false},
		{"missing", false},
	}
	for _, tt := range tests {
		if got := p.Has(tt.key); got != tt.has {
			t.Errorf("Has(%q) = %v, want %v", tt.key, got, tt.has)
		}
	}
}

func TestRequestBodyParser_Form(t *testing.T) {
	p := newParser(t, "application/x-www-form-urlencoded", "amount=12%2C34&category=food&completed=false")

	if p.IsJSON() {
		t.Fatal("form body parsed as JSON")
	}
	amount, err := p.Amount("amount")
	if err != nil || amount.String() != "12.34" {
		t.Errorf("Amount() = %v, %v", amount, err)
	}
	cat, err := p.OptCategory("category")
	if err != nil || cat == nil || *cat != core.Food {
		t.Errorf("OptCategory() = %v, %v", cat, err)
	}
	if b, err := p.Bool("completed"); err != nil || b {
		t.Errorf("Bool() = %v, %v", b, err)
	}
}

func TestRequestBodyParser_OptionalFields(t *testing.T) {
	p := newParser(t, "application/json", `{"title":"Trip","target_date":"2027-05-01"}`)

	if p.OptString("missing") != nil {
		t.Error("OptString on missing field should be nil")
	}
	if got := p.OptString("title"); got == nil || *got != "Trip" {
		t.Errorf("OptString(title) = %v", got)
	}
	if amt, err := p.OptAmount("target_amount"); amt != nil || err != nil {
		t.Errorf("OptAmount on missing field = %v, %v", amt, err)
	}
	d, err := p.OptDate("target_date")
	if err != nil || d == nil || d.String() != "2027-05-01" {
		t.Errorf("OptDate() = %v, %v", d, err)
	}
}

func TestRequestBodyParser_FieldErrors(t *testing.T) {
	p := newParser(t, "application/json", `{"amount":"abc","date":"yesterday","category":"Pets","completed":"maybe"}`)

	tests := []struct {
		name  string
		call  func() error
		field string
	}{
		{"amount", func() error { _, err := p.Amount("amount"); return err }, "amount"},
		{"date", func() error { _, err := p.Date("date"); return err }, "date"},
		{"category", func() error { _, err := p.OptCategory("category"); return err }, "category"},
		{"bool", func() error { _, err := p.Bool("completed"); return err }, "completed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ve *core.ValidationError
			if err := tt.call(); !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("error = %v, want validation error on %q", err, tt.field)
			}
		})
	}
}

func TestRequestBodyParser_Malformed(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"broken json", "application/json", `{"a":`},
		{"json array", "application/json", `[1,2]`},
		{"bad form escape", "application/x-www-form-urlencoded", "a=%zz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			p := NewRequestBodyParser(httptest.NewRecorder(), req)
			var br *badRequest
			if err := p.Parse(); !errors.As(err, &br) {
				t.Fatalf("Parse() error = %v, want bad request", err)
			}
		})
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	p := newParser(t, "", "")
	if p.Has("anything") || p.Get("anything") != "" {
		t.Fatal("empty body should behave like an empty object")
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  plain  ", "plain"},
		{"a\x00b\x1fc", "abc"},
		{"line\nbreak\ttab", "line\nbreak\ttab"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
