package errors

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

// User-facing messages attached to normalized errors.
const (
	MsgInvalidRequest = "Invalid request"
	MsgSessionExpired = "Your session has expired. Please log in again."
	MsgForbidden      = "You do not have permission to perform this action."
	MsgNotFound       = "The requested resource was not found."
	MsgRateLimited    = "Too many requests. Please try again later."
	MsgServer         = "Server error. Please try again later."
	MsgUnexpected     = "An unexpected error occurred."
	MsgTimeout        = "Request timed out. Please try again."
	MsgTransport      = "Unable to connect to the server. Please check your connection."
	MsgCanceled       = "Request was canceled."
	MsgInvalidBody    = "Received an invalid response from the server."
)

// FromStatus maps a non-2xx backend response to an AppError.
// serverMessage is the message the backend supplied, if any; it is only
// surfaced where the status alone says too little (400 and unmapped codes).
func FromStatus(status int, serverMessage string) *AppError {
	serverMessage = strings.TrimSpace(serverMessage)
	e := &AppError{Status: status}

	switch {
	case status == http.StatusBadRequest:
		e.Code = ErrCodeValidation
		e.Message = fallback(serverMessage, MsgInvalidRequest)
	case status == http.StatusUnauthorized:
		e.Code = ErrCodeUnauthorized
		e.Message = MsgSessionExpired
	case status == http.StatusForbidden:
		e.Code = ErrCodeForbidden
		e.Message = MsgForbidden
	case status == http.StatusNotFound:
		e.Code = ErrCodeNotFound
		e.Message = MsgNotFound
	case status == http.StatusTooManyRequests:
		e.Code = ErrCodeRateLimited
		e.Message = MsgRateLimited
	case status >= http.StatusInternalServerError:
		e.Code = ErrCodeInternal
		e.Message = MsgServer
	default:
		e.Code = ErrCodeInternal
		e.Message = fallback(serverMessage, MsgUnexpected)
	}

	if serverMessage != "" {
		e.Cause = errors.New(serverMessage)
	}
	return e
}

// FromTransport maps a failure that produced no response (dial error, timeout,
// cancellation) to an AppError.
func FromTransport(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded) || isNetTimeout(err):
		return Wrap(err, ErrCodeTimeout, MsgTimeout)
	case errors.Is(err, context.Canceled):
		return Wrap(err, ErrCodeCanceled, MsgCanceled)
	default:
		return Wrap(err, ErrCodeTransport, MsgTransport)
	}
}

// SessionTerminated wraps the error that made a session refresh fail.
func SessionTerminated(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeSessionTerminated,
		Message: MsgSessionExpired,
		Status:  GetStatus(cause),
		Cause:   cause,
	}
}

func isNetTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
