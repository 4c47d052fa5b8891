package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/Nachiket-Roy/LMS-sub000/internal/errors"
)

func TestClassify(t *testing.T) {
	assert.Empty(t, Classify(nil))
	assert.Equal(t, "rate_limited", Classify(fmt.Errorf("login: %w", apperrors.FromStatus(429, ""))))
	assert.Equal(t, "net_operror", Classify(&net.OpError{Op: "dial"}))
	assert.Equal(t, "errors_errorstring", Classify(errors.New("plain")))
	assert.Equal(t, "timeout", Classify(apperrors.FromTransport(context.DeadlineExceeded)))
}
