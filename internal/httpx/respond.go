// Package httpx holds the JSON envelope helpers shared by handlers and middleware.
package httpx

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/AnshRaj112/solace-backend/internal/services"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type envelope struct {
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

// WriteJSON writes {"data": payload}.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Data: payload})
}

// WriteError writes {"error": {"code", "message", "details"?}}.
func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: &ErrorBody{Code: code, Message: message, Details: details}})
}

// DecodeBody decodes a JSON body, rejecting unknown fields and trailing data.
func DecodeBody(w http.ResponseWriter, r *http.Request, target any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body must be at most %d bytes", MaxBodyBytes)
		}
		return fmt.Errorf("invalid JSON body: %v", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// MapError resolves an error to the response it should produce.
func MapError(err error) (status int, code, message string, details any) {
	var de *services.DomainError
	if errors.As(err, &de) {
		return de.Status, de.Code, de.Message, de.Details
	}
	if errors.Is(err, services.ErrNotFound) || errors.Is(err, sql.ErrNoRows) || errors.Is(err, mongo.ErrNoDocuments) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Something went wrong", nil
}

// Fail writes the mapped error. Server errors are logged and never leak detail.
func Fail(w http.ResponseWriter, r *http.Request, log *zap.SugaredLogger, err error) {
	status, code, message, details := MapError(err)
	if status >= http.StatusInternalServerError {
		log.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "request_id", RequestID(r.Context()), "error", err)
	}
	WriteError(w, status, code, message, details)
}

// BadRequest reports a malformed request body or parameter.
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "BAD_REQUEST", message, nil)
}
