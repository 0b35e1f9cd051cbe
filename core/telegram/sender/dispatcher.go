// Package sender delivers outbound Telegram calls off the update goroutine.
// Jobs for the same chat always run on the same lane, so replies keep their order.
package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

const component = "tg.sender"

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the lane is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	// QueueSize is the buffer of each lane.
	QueueSize int
	// Workers is the number of lanes.
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
	// EnqueueWait bounds how long Enqueue blocks on a full lane.
	EnqueueWait time.Duration
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound Telegram calls asynchronously with retries.
type Dispatcher struct {
	opts   Options
	lanes  []chan job
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	errs   atomic.Uint64
	sent   atomic.Uint64
}

// NewDispatcher starts a dispatcher, filling zero options with defaults.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}
	if opts.EnqueueWait <= 0 {
		opts.EnqueueWait = 5 * time.Second
	}

	d := &Dispatcher{
		opts:  opts,
		lanes: make([]chan job, opts.Workers),
	}
	d.wg.Add(opts.Workers)
	for i := range d.lanes {
		d.lanes[i] = make(chan job, opts.QueueSize)
		go d.worker(d.lanes[i])
	}
	return d
}

// Enqueue schedules run on the lane owned by chatID. A full lane blocks the
// caller until a slot frees up, EnqueueWait passes or ctx is done; the job is
// then rejected with ErrQueueFull and never run out of order.
// The run closure must be idempotent if retries are desired.
func (d *Dispatcher) Enqueue(ctx context.Context, chatID int64, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}

	j := job{ctx: ctx, action: action, endpoint: endpoint, run: run}
	lane := d.lanes[d.lane(chatID)]
	select {
	case lane <- j:
		return nil
	default:
	}

	if ctx == nil {
		ctx = context.Background()
	}
	timer := time.NewTimer(d.opts.EnqueueWait)
	defer timer.Stop()
	select {
	case lane <- j:
		return nil
	case <-timer.C:
		return ErrQueueFull
	case <-ctx.Done():
		return errors.Join(ErrQueueFull, ctx.Err())
	}
}

func (d *Dispatcher) lane(chatID int64) int {
	if chatID < 0 {
		chatID = -chatID
	}
	return int(chatID % int64(len(d.lanes)))
}

// ErrorCount returns the number of failed jobs.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// SentCount returns the number of delivered jobs.
func (d *Dispatcher) SentCount() uint64 {
	return d.sent.Load()
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, l := range d.lanes {
		close(l)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker(jobs <-chan job) {
	defer d.wg.Done()
	for j := range jobs {
		d.handleJob(j)
	}
}

func (d *Dispatcher) handleJob(j job) {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	deadlineCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := d.opts.MaxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		err := j.run()
		if err == nil {
			d.sent.Add(1)
			attrs := sendLogAttrs(j, slog.Duration("duration", logger.Took(start)))
			if attempt > 1 {
				attrs = append(attrs, slog.Int("attempts", attempt))
			}
			logger.Debug(ctx, component, "send", append(attrs, slog.String("status", "ok"))...)
			return
		}
		lastErr = err
		if !retryable(err) || attempt == attempts {
			break
		}

		delay := retryDelay(err, d.opts.RetryBackoff, attempt)
		logger.Debug(ctx, component, "send",
			sendLogAttrs(j,
				slog.String("status", "retry"),
				slog.Int("attempts", attempt),
				slog.Duration("duration", delay),
			)...,
		)
		if err := netutil.Wait(deadlineCtx, delay); err != nil {
			lastErr = errors.Join(lastErr, err)
			break
		}
	}

	d.errs.Add(1)
	logger.Error(ctx, component, "send",
		sendLogAttrs(j,
			slog.String("status", "fail"),
			slog.String("err", sanitizeErrorMessage(lastErr)),
			slog.String("err_code", classifyError(lastErr)),
			slog.Duration("duration", logger.Took(start)),
		)...,
	)
}

func sendLogAttrs(j job, extra ...slog.Attr) []slog.Attr {
	attrs := []slog.Attr{slog.String("op", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("handler", j.endpoint))
	}
	return append(attrs, extra...)
}

// retryable extends the transport check with Telegram flood control and 5xx replies.
func retryable(err error) bool {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return true
	}
	if status := httpStatusFromError(err); status >= 500 {
		return true
	}
	return netutil.ShouldRetry(err)
}

func retryDelay(err error, backoff time.Duration, attempt int) time.Duration {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second
	}
	return netutil.Backoff(backoff, attempt)
}

func classifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "TIMEOUT"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return "TIMEOUT"
		}
		return "DNS"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "TIMEOUT"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return "DIAL"
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return "TIMEOUT"
	}

	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return "TLS"
	}

	status := httpStatusFromError(err)
	switch {
	case status == http.StatusTooManyRequests:
		return "FLOOD"
	case status >= 500:
		return "HTTP_5XX"
	case status >= 400:
		return "HTTP_4XX"
	}
	return "UNKNOWN"
}

// sanitizeErrorMessage keeps bot tokens out of logs.
func sanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}

func httpStatusFromError(err error) int {
	if err == nil {
		return 0
	}

	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}

	var floodErr tele.FloodError
	if errors.As(err, &floodErr) {
		return http.StatusTooManyRequests
	}

	var groupErr tele.GroupError
	if errors.As(err, &groupErr) {
		return http.StatusBadRequest
	}
	return 0
}
