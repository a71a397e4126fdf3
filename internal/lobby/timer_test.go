package lobby

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaunchTimerFires(t *testing.T) {
	fired := make(chan struct{})
	newLaunchTimer(10*time.Millisecond, func() {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
}

func TestLaunchTimerStopPreventsFiring(t *testing.T) {
	var fired atomic.Bool
	lt := newLaunchTimer(20*time.Millisecond, func() {
		fired.Store(true)
	})
	lt.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestLaunchTimerStopIsIdempotent(t *testing.T) {
	lt := newLaunchTimer(time.Hour, func() {
		t.Error("must not fire")
	})
	require.NotPanics(t, func() {
		lt.Stop()
		lt.Stop()
	})
}

func TestLaunchTimerFiresOnce(t *testing.T) {
	var count atomic.Int32
	newLaunchTimer(5*time.Millisecond, func() {
		count.Add(1)
	})

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), count.Load())
}
