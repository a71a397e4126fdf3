package lobby

import (
	"sync"
	"time"
)

// launchTimer fires a callback once after a duration unless stopped. Each
// pending game in a phased mode owns at most one; the timer firing is the
// only path from LoadoutSelecting to launch.
type launchTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// newLaunchTimer starts a timer that calls onFire after duration, in a
// separate goroutine.
//
// Precondition: duration > 0; onFire must not be nil.
func newLaunchTimer(duration time.Duration, onFire func()) *launchTimer {
	lt := &launchTimer{}
	lt.timer = time.AfterFunc(duration, func() {
		lt.mu.Lock()
		stopped := lt.stopped
		lt.mu.Unlock()
		if !stopped {
			onFire()
		}
	})
	return lt
}

// Stop prevents the callback from firing. Safe to call multiple times.
func (lt *launchTimer) Stop() {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.stopped = true
	lt.timer.Stop()
}
