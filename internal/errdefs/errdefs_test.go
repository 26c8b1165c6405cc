package errdefs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   Kind
	}{
		{400, KindValidation},
		{401, KindAuth},
		{403, KindAuth},
		{402, KindInsufficientFunds},
		{404, KindNotFound},
		{409, KindUnavailable},
		{422, KindUnavailable},
		{429, KindRateLimit},
		{500, KindServer},
		{503, KindServer},
		{418, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FromHTTPStatus(tt.status))
		})
	}
}

func TestKindOf_ThroughWrapping(t *testing.T) {
	t.Parallel()

	base := New(KindRateLimit, "check availability", "slow down")
	wrapped := fmt.Errorf("step failed: %w", base)

	assert.Equal(t, KindRateLimit, KindOf(wrapped))
	assert.True(t, IsTransient(wrapped))
	assert.Contains(t, wrapped.Error(), "slow down")
}

func TestKindOf_NetError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("dial: %w", &net.OpError{Op: "dial", Err: errors.New("connection refused")})
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.True(t, IsTransient(err))
}

func TestKindOf_ContextIsNotTransient(t *testing.T) {
	t.Parallel()

	assert.False(t, IsTransient(context.DeadlineExceeded))
	assert.False(t, IsTransient(context.Canceled))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestTransientKinds(t *testing.T) {
	t.Parallel()

	transient := []Kind{KindNetwork, KindServer, KindRateLimit}
	terminal := []Kind{KindAuth, KindNotFound, KindUnavailable, KindValidation,
		KindInsufficientFunds, KindUnsupported, KindTimeout, KindTerminalState, KindUnknown}

	for _, k := range transient {
		assert.True(t, k.Transient(), k.String())
	}
	for _, k := range terminal {
		assert.False(t, k.Transient(), k.String())
	}
}

func TestError_Message(t *testing.T) {
	t.Parallel()

	err := Wrap(KindNetwork, "list domains", errors.New("connection reset"))
	assert.Equal(t, "list domains: connection reset", err.Error())

	httpErr := HTTPError("purchase", 422, "domain taken")
	assert.Equal(t, "purchase: HTTP 422: domain taken", httpErr.Error())
	assert.Equal(t, 422, httpErr.StatusCode)
	assert.True(t, IsUnavailable(httpErr))

	assert.Nil(t, Wrap(KindAuth, "noop", nil))
}
