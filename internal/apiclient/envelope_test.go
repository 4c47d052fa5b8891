package apiclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Nachiket-Roy/LMS-sub000/internal/errors"
)

func TestServerMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"success":false,"message":"Book not available"}`, "Book not available"},
		{"error string", `{"error":"Email required"}`, "Email required"},
		{"error object", `{"error":{"message":"Rate limit"}}`, "Rate limit"},
		{"no message", `{"success":false}`, ""},
		{"not json", `Bad Gateway`, ""},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serverMessage([]byte(tt.body)))
		})
	}
}

func TestDecodeEnvelope(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		resp := &Response{Status: 200, Body: []byte(`{"success":true,"data":{"count":3},"message":"ok"}`)}
		data, msg, err := DecodeEnvelope[struct {
			Count int `json:"count"`
		}](resp)
		require.NoError(t, err)
		assert.Equal(t, 3, data.Count)
		assert.Equal(t, "ok", msg)
	})

	t.Run("unsuccessful without message", func(t *testing.T) {
		resp := &Response{Status: 200, Body: []byte(`{"success":false}`)}
		_, _, err := DecodeEnvelope[map[string]any](resp)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Equal(t, apperrors.MsgInvalidRequest, apperrors.UserMessage(err))
		assert.Equal(t, 200, apperrors.GetStatus(err))
	})

	t.Run("empty body", func(t *testing.T) {
		_, _, err := DecodeEnvelope[map[string]any](&Response{Status: 204})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidResponse, apperrors.GetCode(err))
	})

	t.Run("wrong shape", func(t *testing.T) {
		resp := &Response{Status: 200, Body: []byte(`{"success":true,"data":"not a list"}`)}
		_, _, err := DecodeEnvelope[[]string](resp)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidResponse, apperrors.GetCode(err))
	})
}

func TestCallRetry(t *testing.T) {
	call := Get("/books")
	assert.True(t, call.refreshable())
	assert.Equal(t, 0, call.Attempt())

	replay := call.retry()
	assert.False(t, replay.refreshable())
	assert.Equal(t, 1, replay.Attempt())
	assert.Equal(t, 0, call.Attempt(), "retry must not mutate the original")

	assert.False(t, Post(PathLogin, nil).NoRefresh().refreshable())
}
