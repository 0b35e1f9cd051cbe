package telegram

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/quizbot/core/config"
)

type scriptedTransport struct {
	errs   []error
	calls  int
	bodies []string
}

func (s *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.calls++
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		s.bodies = append(s.bodies, string(b))
	}
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}"))}, nil
}

var errDial = &net.OpError{Op: "dial", Err: errors.New("connection refused")}

func newRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, "https://api.telegram.org/botTOKEN/sendMessage", strings.NewReader(body))
	require.NoError(t, err)
	return req
}

func TestRetryTransportReplaysBody(t *testing.T) {
	next := &scriptedTransport{errs: []error{errDial, errDial}}
	rt := &retryTransport{next: next, retries: 3, backoff: time.Millisecond}

	resp, err := rt.RoundTrip(newRequest(t, "chat_id=1"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 3, next.calls)
	assert.Equal(t, []string{"chat_id=1", "chat_id=1", "chat_id=1"}, next.bodies)
}

func TestRetryTransportGivesUp(t *testing.T) {
	next := &scriptedTransport{errs: []error{errDial, errDial, errDial}}
	rt := &retryTransport{next: next, retries: 1, backoff: time.Millisecond}
	_, err := rt.RoundTrip(newRequest(t, ""))
	assert.ErrorIs(t, err, errDial)
	assert.Equal(t, 2, next.calls)

	permanent := &scriptedTransport{errs: []error{errors.New("tls: bad certificate")}}
	rt = &retryTransport{next: permanent, retries: 3, backoff: time.Millisecond}
	_, err = rt.RoundTrip(newRequest(t, ""))
	assert.Error(t, err)
	assert.Equal(t, 1, permanent.calls)
}

func TestHTTPOptionsDefaults(t *testing.T) {
	o := HTTPOptions{}.withDefaults()
	assert.Equal(t, defaultHTTPTimeout, o.Timeout)
	assert.Equal(t, 3, o.MaxRetries)
	assert.Equal(t, 0, HTTPOptions{MaxRetries: -1}.withDefaults().MaxRetries)

	client := BuildHTTPClient(HTTPOptions{Timeout: time.Minute})
	assert.Equal(t, time.Minute, client.Timeout)
	assert.IsType(t, &retryTransport{}, client.Transport)
}

func TestHTTPTimeoutCoversLongPoll(t *testing.T) {
	assert.Equal(t, defaultHTTPTimeout, httpTimeout(coreconfig.TelegramConfig{}))
	assert.Equal(t, 70*time.Second, httpTimeout(coreconfig.TelegramConfig{HTTPTimeoutSeconds: 5, LongPollTimeoutSeconds: 60}))
	assert.Equal(t, 2*time.Minute, httpTimeout(coreconfig.TelegramConfig{HTTPTimeoutSeconds: 120}))
}

func TestDefaultMiddlewares(t *testing.T) {
	names := func(mws []Middleware) []string {
		out := make([]string, len(mws))
		for i, m := range mws {
			out[i] = m.Name
		}
		return out
	}
	assert.Equal(t, []string{"recover", "logger", "metrics"}, names(DefaultMiddlewares(nil, nil)))

	cfg := &coreconfig.Config{RateLimit: coreconfig.RateLimitConfig{IntervalMS: 500, ExcludeUpdates: []string{"callback", ""}}}
	assert.Equal(t, []string{"recover", "logger", "rate_limit", "metrics"}, names(DefaultMiddlewares(cfg, nil)))

	opts := rateLimitOptions(cfg, nil)
	assert.Equal(t, 500*time.Millisecond, opts.Interval)
	assert.Equal(t, map[string]struct{}{"callback": {}}, opts.Exclude)
}
