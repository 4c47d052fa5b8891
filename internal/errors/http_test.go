package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		serverMsg  string
		wantCode   ErrorCode
		wantMsg    string
		wantCauses bool
	}{
		{name: "400 default", status: http.StatusBadRequest, wantCode: ErrCodeValidation, wantMsg: MsgInvalidRequest},
		{
			name:       "400 with server detail",
			status:     http.StatusBadRequest,
			serverMsg:  "Email is already registered",
			wantCode:   ErrCodeValidation,
			wantMsg:    "Email is already registered",
			wantCauses: true,
		},
		{name: "401", status: http.StatusUnauthorized, wantCode: ErrCodeUnauthorized, wantMsg: MsgSessionExpired},
		{name: "403 ignores server text", status: http.StatusForbidden, serverMsg: "nope", wantCode: ErrCodeForbidden, wantMsg: MsgForbidden, wantCauses: true},
		{name: "404", status: http.StatusNotFound, wantCode: ErrCodeNotFound, wantMsg: MsgNotFound},
		{name: "429", status: http.StatusTooManyRequests, wantCode: ErrCodeRateLimited, wantMsg: MsgRateLimited},
		{name: "500", status: http.StatusInternalServerError, wantCode: ErrCodeInternal, wantMsg: MsgServer},
		{name: "503", status: http.StatusServiceUnavailable, wantCode: ErrCodeInternal, wantMsg: MsgServer},
		{name: "409 uses server text", status: http.StatusConflict, serverMsg: "Book already borrowed", wantCode: ErrCodeInternal, wantMsg: "Book already borrowed", wantCauses: true},
		{name: "418 without text", status: http.StatusTeapot, wantCode: ErrCodeInternal, wantMsg: MsgUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromStatus(tt.status, tt.serverMsg)
			assert.Equal(t, tt.wantCode, err.Code)
			assert.Equal(t, tt.wantMsg, err.Message)
			assert.Equal(t, tt.status, err.Status)
			assert.Equal(t, tt.wantCauses, err.Cause != nil)
		})
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestFromTransport(t *testing.T) {
	assert.Nil(t, FromTransport(nil))

	deadline := FromTransport(fmt.Errorf("get: %w", context.DeadlineExceeded))
	assert.Equal(t, ErrCodeTimeout, deadline.Code)
	assert.Equal(t, MsgTimeout, deadline.Message)

	netTimeout := FromTransport(timeoutErr{})
	assert.Equal(t, ErrCodeTimeout, netTimeout.Code)

	canceled := FromTransport(context.Canceled)
	assert.Equal(t, ErrCodeCanceled, canceled.Code)

	refused := FromTransport(errors.New("dial tcp 127.0.0.1:3000: connect: connection refused"))
	assert.Equal(t, ErrCodeTransport, refused.Code)
	assert.Equal(t, MsgTransport, refused.Message)
	assert.Zero(t, refused.Status)

	existing := New(ErrCodeForbidden, MsgForbidden)
	assert.Same(t, existing, FromTransport(fmt.Errorf("wrapped: %w", existing)))
}

func TestSessionTerminated(t *testing.T) {
	cause := FromStatus(http.StatusUnauthorized, "refresh token expired")
	err := SessionTerminated(cause)

	assert.True(t, IsSessionTerminated(err))
	assert.Equal(t, http.StatusUnauthorized, err.Status)
	assert.Equal(t, MsgSessionExpired, err.Message)
	assert.True(t, errors.Is(err, cause))
}
