package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBroker = errors.New("broker unavailable")

// fakeClock 可手动推进的时钟
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(cfg Config) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	cb := New("loan-events", cfg)
	cb.now = clock.Now
	cb.expiry = time.Time{}
	if cfg.Interval > 0 {
		cb.expiry = clock.Now().Add(cfg.Interval)
	}
	return cb, clock
}

func fail() error    { return errBroker }
func succeed() error { return nil }

func TestClosedStatePassesThrough(t *testing.T) {
	cb, _ := newTestBreaker(Config{ReadyToTrip: ConsecutiveFailures(3), Timeout: time.Second})

	for i := 0; i < 5; i++ {
		require.NoError(t, cb.Execute(succeed))
	}
	assert.Equal(t, StateClosed, cb.State())
	assert.EqualValues(t, 5, cb.Counts().TotalSuccesses)
}

func TestTripsAfterConsecutiveFailures(t *testing.T) {
	cb, _ := newTestBreaker(Config{ReadyToTrip: ConsecutiveFailures(3), Timeout: time.Minute})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(fail), errBroker)
	}
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpenState)
	assert.False(t, called, "熔断时不应调用下游")
}

func TestSuccessResetsConsecutiveFailures(t *testing.T) {
	cb, _ := newTestBreaker(Config{ReadyToTrip: ConsecutiveFailures(3), Timeout: time.Minute})

	_ = cb.Execute(fail)
	_ = cb.Execute(fail)
	_ = cb.Execute(succeed)
	_ = cb.Execute(fail)
	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenRecovers(t *testing.T) {
	cb, clock := newTestBreaker(Config{ReadyToTrip: ConsecutiveFailures(1), Timeout: 30 * time.Second})

	_ = cb.Execute(fail)
	require.Equal(t, StateOpen, cb.State())

	clock.Advance(31 * time.Second)
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(succeed))
	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(Config{ReadyToTrip: ConsecutiveFailures(1), Timeout: 30 * time.Second})

	_ = cb.Execute(fail)
	clock.Advance(31 * time.Second)
	require.Equal(t, StateHalfOpen, cb.State())

	_ = cb.Execute(fail)
	assert.Equal(t, StateOpen, cb.State())
}

func TestHalfOpenLimitsTrialRequests(t *testing.T) {
	cb, clock := newTestBreaker(Config{MaxRequests: 1, ReadyToTrip: ConsecutiveFailures(1), Timeout: time.Second})

	_ = cb.Execute(fail)
	clock.Advance(2 * time.Second)

	// 第一个探测请求执行期间，第二个请求被拒绝
	err := cb.Execute(func() error {
		assert.ErrorIs(t, cb.Execute(succeed), ErrOpenState)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestIntervalResetsCounts(t *testing.T) {
	cb, clock := newTestBreaker(Config{
		Interval:    10 * time.Second,
		Timeout:     time.Minute,
		ReadyToTrip: ConsecutiveFailures(3),
	})

	_ = cb.Execute(fail)
	_ = cb.Execute(fail)
	clock.Advance(11 * time.Second)
	_ = cb.Execute(fail)

	assert.Equal(t, StateClosed, cb.State())
	assert.EqualValues(t, 1, cb.Counts().ConsecutiveFailures)
}

func TestStateChangeCallback(t *testing.T) {
	var transitions []string
	cb, clock := newTestBreaker(Config{
		ReadyToTrip: ConsecutiveFailures(2),
		Timeout:     5 * time.Second,
		OnStateChange: func(name string, from, to State) {
			assert.Equal(t, "loan-events", name)
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = cb.Execute(fail)
	_ = cb.Execute(fail)
	clock.Advance(6 * time.Second)
	_ = cb.Execute(succeed)

	assert.Equal(t, []string{"CLOSED->OPEN", "OPEN->HALF_OPEN", "HALF_OPEN->CLOSED"}, transitions)
}

func TestFailureRateStrategy(t *testing.T) {
	cb, _ := newTestBreaker(Config{
		Timeout: time.Minute,
		ReadyToTrip: func(c Counts) bool {
			return c.Requests >= 4 && c.FailureRate() >= 0.5
		},
	})

	_ = cb.Execute(succeed)
	_ = cb.Execute(fail)
	_ = cb.Execute(succeed)
	assert.Equal(t, StateClosed, cb.State())

	_ = cb.Execute(fail)
	assert.Equal(t, StateOpen, cb.State())
}

func TestExecuteContextIgnoresCallerCancellation(t *testing.T) {
	cb, _ := newTestBreaker(Config{ReadyToTrip: ConsecutiveFailures(1), Timeout: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	err := cb.ExecuteContext(ctx, func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, cb.State())

	err = cb.ExecuteContext(context.Background(), func(context.Context) error { return errBroker })
	assert.ErrorIs(t, err, errBroker)
	assert.Equal(t, StateOpen, cb.State())
}

func TestDefaults(t *testing.T) {
	cb := New("defaults", Config{Timeout: time.Minute})
	for i := 0; i < 4; i++ {
		_ = cb.Execute(fail)
	}
	assert.Equal(t, StateClosed, cb.State())
	_ = cb.Execute(fail)
	assert.Equal(t, StateOpen, cb.State())
}
