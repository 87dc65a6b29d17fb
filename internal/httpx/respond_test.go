package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/AnshRaj112/solace-backend/pkg/logger"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"domain", services.Conflict("SLOT_UNAVAILABLE", "taken"), http.StatusConflict, "SLOT_UNAVAILABLE"},
		{"wrapped domain", fmt.Errorf("book: %w", services.Forbidden("no")), http.StatusForbidden, "FORBIDDEN"},
		{"not found sentinel", fmt.Errorf("get: %w", services.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, "SERVER_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code, _, _ := MapError(tc.err)
			if status != tc.status || code != tc.code {
				t.Fatalf("MapError = %d %s, want %d %s", status, code, tc.status, tc.code)
			}
		})
	}
}

func TestFailHidesServerErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	Fail(rec, req, logger.Nop(), errors.New("secret dsn leaked"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Fatalf("body leaks error detail: %s", rec.Body.String())
	}
	var body struct {
		Error ErrorBody `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error.Code != "SERVER_ERROR" {
		t.Fatalf("body = %s (%v)", rec.Body.String(), err)
	}
}

func TestWriteJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]int{"n": 1})
	if rec.Code != http.StatusCreated || strings.TrimSpace(rec.Body.String()) != `{"data":{"n":1}}` {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestDecodeBody(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	cases := map[string]bool{
		`{"name":"a"}`:           true,
		``:                       false,
		`{"name":"a","extra":1}`: false,
		`{"name":"a"}{}`:         false,
		`not json`:               false,
	}
	for body, ok := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		err := DecodeBody(httptest.NewRecorder(), req, &v)
		if (err == nil) != ok {
			t.Errorf("DecodeBody(%q) err = %v, want ok=%v", body, err, ok)
		}
	}
}
