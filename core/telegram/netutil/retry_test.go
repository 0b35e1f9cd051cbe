package netutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	dial := &net.OpError{Op: "dial", Err: errors.New("refused")}

	assert.False(t, ShouldRetry(nil))
	assert.False(t, ShouldRetry(errors.New("bad request")))
	assert.False(t, ShouldRetry(context.Canceled))
	assert.True(t, ShouldRetry(timeoutErr{}))
	assert.True(t, ShouldRetry(dial))
	assert.True(t, ShouldRetry(&url.Error{Op: "Post", URL: "https://api.telegram.org", Err: dial}))
	assert.True(t, ShouldRetry(fmt.Errorf("read: %w", syscall.ECONNRESET)))
	assert.True(t, ShouldRetry(&url.Error{Op: "Post", URL: "https://api.telegram.org", Err: io.ErrUnexpectedEOF}))
	assert.False(t, ShouldRetry(&url.Error{Op: "Post", URL: "https://api.telegram.org", Err: errors.New("tls: bad certificate")}))
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Duration(0), Backoff(0, 3))
	assert.Equal(t, time.Duration(0), Backoff(time.Second, 0))
	assert.Equal(t, 3*time.Second, Backoff(time.Second, 3))
}

func TestWait(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, Wait(ctx, 0), context.Canceled)
}
