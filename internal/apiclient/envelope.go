package apiclient

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	apperrors "github.com/Nachiket-Roy/LMS-sub000/internal/errors"
)

// Envelope is the backend's response convention: {success, data, message}.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// Response is a 2xx backend reply with its raw body.
type Response struct {
	Status    int
	Header    http.Header
	Body      []byte
	RequestID string
}

// Decode unmarshals the raw body into v.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return apperrors.New(apperrors.ErrCodeInvalidResponse, apperrors.MsgInvalidBody)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInvalidResponse, apperrors.MsgInvalidBody)
	}
	return nil
}

// DecodeEnvelope validates the envelope and returns its data and message.
// A success:false body becomes a validation error carrying the backend message.
func DecodeEnvelope[T any](r *Response) (T, string, error) {
	var env Envelope[T]
	if err := r.Decode(&env); err != nil {
		var zero T
		return zero, "", err
	}
	if !env.Success {
		var zero T
		msg := strings.TrimSpace(env.Message)
		if msg == "" {
			msg = apperrors.MsgInvalidRequest
		}
		e := apperrors.Validation(msg)
		e.Status = r.Status
		return zero, env.Message, e
	}
	return env.Data, env.Message, nil
}

// serverMessage pulls a human-readable message from an error body, if any.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	switch e := payload.Error.(type) {
	case string:
		return e
	case map[string]any:
		if m, ok := e["message"].(string); ok {
			return m
		}
	}
	return ""
}
