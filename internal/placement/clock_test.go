package placement

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockExpiresExactlyOnce(t *testing.T) {
	var expiries int32
	var lastTick int32 = -1

	c := startClockEvery(3, time.Millisecond,
		func(remaining int) { atomic.StoreInt32(&lastTick, int32(remaining)) },
		func() { atomic.AddInt32(&expiries, 1) })

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&expiries) == 1
	}, time.Second, time.Millisecond)

	// Give a broken implementation time to double-fire.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&expiries))
	assert.Equal(t, int32(0), atomic.LoadInt32(&lastTick))
	assert.Equal(t, 0, c.Remaining())
}

func TestClockCancelSuppressesExpiry(t *testing.T) {
	var expiries int32
	c := startClockEvery(10, time.Millisecond, nil,
		func() { atomic.AddInt32(&expiries, 1) })

	c.Cancel()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&expiries))
}

// Cancel returning is a barrier: a callback that already started may finish,
// but once Cancel is back no further callback runs. Race many short clocks
// against Cancel and check the count never moves after Cancel returns.
func TestClockCancelReturnIsCallbackBarrier(t *testing.T) {
	for i := 0; i < 50; i++ {
		var fires int32
		c := startClockEvery(1, time.Millisecond, nil,
			func() { atomic.AddInt32(&fires, 1) })

		time.Sleep(time.Millisecond) // land close to the expiry tick
		c.Cancel()
		after := atomic.LoadInt32(&fires)

		time.Sleep(5 * time.Millisecond)
		assert.Equal(t, after, atomic.LoadInt32(&fires))
	}
}

func TestClockCancelIsIdempotent(t *testing.T) {
	c := startClockEvery(10, time.Millisecond, nil, nil)
	c.Cancel()
	c.Cancel()

	// Cancelling after natural expiry must also be safe.
	done := startClockEvery(1, time.Millisecond, nil, nil)
	require.Eventually(t, func() bool { return done.Remaining() == 0 }, time.Second, time.Millisecond)
	done.Cancel()
}

func TestClockCountsDown(t *testing.T) {
	var ticks int32
	c := startClockEvery(5, time.Millisecond,
		func(int) { atomic.AddInt32(&ticks, 1) },
		nil)

	require.Eventually(t, func() bool { return atomic.LoadInt32(&ticks) == 5 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, c.Remaining())
}
