package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("broker down")

// fakeClock 手动推进的时钟
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(transitions *[]string) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker("book-events", Config{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 3 },
		OnStateChange: func(_ string, from, to State) {
			if transitions != nil {
				*transitions = append(*transitions, from.String()+"->"+to.String())
			}
		},
	})
	cb.now = clock.now
	cb.toNewGeneration(clock.now())
	return cb, clock
}

func fail() error    { return errDown }
func succeed() error { return nil }

func TestCircuitBreaker_ClosedPassesThrough(t *testing.T) {
	cb, _ := newTestBreaker(nil)

	for i := 0; i < 10; i++ {
		require.NoError(t, cb.Execute(succeed))
	}
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(10), cb.Counts().TotalSuccesses)

	// 非连续失败不熔断
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, cb.Execute(fail), errDown)
		require.NoError(t, cb.Execute(succeed))
	}
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_Lifecycle(t *testing.T) {
	var transitions []string
	cb, clock := newTestBreaker(&transitions)

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(fail), errDown)
	}
	assert.Equal(t, StateOpen, cb.State())

	// 打开状态下不调用下游
	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpenState)
	assert.False(t, called)

	// 超时后半开,探测失败重新打开
	clock.advance(31 * time.Second)
	assert.Equal(t, StateHalfOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(fail), errDown)
	assert.Equal(t, StateOpen, cb.State())

	// 再次半开,探测成功关闭
	clock.advance(31 * time.Second)
	require.NoError(t, cb.Execute(succeed))
	assert.Equal(t, StateClosed, cb.State())

	assert.Equal(t, []string{
		"CLOSED->OPEN",
		"OPEN->HALF_OPEN",
		"HALF_OPEN->OPEN",
		"OPEN->HALF_OPEN",
		"HALF_OPEN->CLOSED",
	}, transitions)
}

func TestCircuitBreaker_HalfOpenLimitsProbes(t *testing.T) {
	cb, clock := newTestBreaker(nil)
	for i := 0; i < 3; i++ {
		_ = cb.Execute(fail)
	}
	clock.advance(31 * time.Second)

	// 第一个探测请求执行期间,其它请求被拒绝
	var inner error
	err := cb.Execute(func() error {
		inner = cb.Execute(succeed)
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, inner, ErrOpenState)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_IntervalResetsCounts(t *testing.T) {
	cb, clock := newTestBreaker(nil)

	_ = cb.Execute(fail)
	_ = cb.Execute(fail)
	clock.advance(2 * time.Minute)

	// 窗口过期后计数清零,再失败一次不会熔断
	_ = cb.Execute(fail)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(1), cb.Counts().ConsecutiveFailures)
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker("defaults", Config{Timeout: time.Minute})
	assert.Equal(t, "defaults", cb.Name())

	for i := 0; i < 4; i++ {
		_ = cb.Execute(fail)
	}
	assert.Equal(t, StateClosed, cb.State())
	_ = cb.Execute(fail)
	assert.Equal(t, StateOpen, cb.State(), "缺省连续失败5次熔断")
}
