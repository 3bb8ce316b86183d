package sender

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func waitOutcome(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("job outcome not observed")
		return nil
	}
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	outcome := make(chan error, 1)
	d := NewDispatcher(Options{
		Workers:      1,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
		Observe:      func(_ string, err error) { outcome <- err },
	})
	defer d.Close()

	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "notify", "sendMessage", func() error {
		if calls.Add(1) < 3 {
			return timeoutErr{}
		}
		return nil
	}))

	assert.NoError(t, waitOutcome(t, outcome))
	assert.Equal(t, int32(3), calls.Load())
	stats := d.Stats()
	assert.Zero(t, stats.Failed)
	assert.Equal(t, uint64(2), stats.Retried)
}

func TestDispatcherDoesNotRetryPermanentErrors(t *testing.T) {
	outcome := make(chan error, 1)
	d := NewDispatcher(Options{
		Workers:      1,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
		Observe:      func(_ string, err error) { outcome <- err },
	})
	defer d.Close()

	var calls atomic.Int32
	permanent := errors.New("telegram: chat not found (400)")
	require.NoError(t, d.Enqueue(context.Background(), "notify", "sendMessage", func() error {
		calls.Add(1)
		return permanent
	}))

	assert.ErrorIs(t, waitOutcome(t, outcome), permanent)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, uint64(1), d.Stats().Failed)
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()
	err := d.Enqueue(context.Background(), "notify", "sendMessage", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestDispatcherObservesActionName(t *testing.T) {
	actions := make(chan string, 1)
	d := NewDispatcher(Options{
		Workers: 1,
		Observe: func(action string, _ error) { actions <- action },
	})
	defer d.Close()

	require.NoError(t, d.Enqueue(context.Background(), ActionNotify, "sendMessage", func() error { return nil }))
	select {
	case got := <-actions:
		assert.Equal(t, "notify.subscription", got)
	case <-time.After(2 * time.Second):
		t.Fatal("job outcome not observed")
	}
	assert.Equal(t, uint64(1), d.Stats().Sent)
}

func TestDispatcherStopsAtDeadline(t *testing.T) {
	outcome := make(chan error, 1)
	d := NewDispatcher(Options{
		Workers:      1,
		MaxRetries:   5,
		RetryBackoff: time.Hour,
		MaxDuration:  20 * time.Millisecond,
		Observe:      func(_ string, err error) { outcome <- err },
	})
	defer d.Close()

	require.NoError(t, d.Enqueue(context.Background(), ActionReply, "sendMessage", func() error { return timeoutErr{} }))
	assert.ErrorIs(t, waitOutcome(t, outcome), context.DeadlineExceeded)
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, "timeout", classifyError(context.DeadlineExceeded))
	assert.Equal(t, "timeout", classifyError(timeoutErr{}))
	assert.Equal(t, "http_4xx", classifyError(errors.New("telegram: chat not found (400)")))
	assert.Equal(t, "http_5xx", classifyError(&tele.Error{Code: 502, Description: "Bad Gateway"}))
	assert.Equal(t, "flood_wait", classifyError(tele.FloodError{RetryAfter: 5}))
	assert.Equal(t, "unknown", classifyError(errors.New("boom")))
	assert.Equal(t, "bot<redacted>", redact(errors.New("bot123456:ABC-def_ghi")))
}

func TestRetryDelayHonoursFloodWait(t *testing.T) {
	d := &Dispatcher{opts: Options{RetryBackoff: 100 * time.Millisecond}}

	delay, ok := d.retryDelay(tele.FloodError{RetryAfter: 3}, 1)
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, delay)

	delay, ok = d.retryDelay(timeoutErr{}, 2)
	assert.True(t, ok)
	assert.Equal(t, 200*time.Millisecond, delay)

	delay, ok = d.retryDelay(errors.New("telegram: bad gateway (502)"), 1)
	assert.True(t, ok)
	assert.Equal(t, 100*time.Millisecond, delay)

	_, ok = d.retryDelay(errors.New("telegram: chat not found (400)"), 1)
	assert.False(t, ok)
}
