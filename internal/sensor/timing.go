package sensor

import (
	"time"

	"github.com/benbjohnson/clock"
)

// gate evaluates one of the three datasheet timing windows: warm-up after
// power, stabilization after wake, completion after a measurement request.
type gate struct {
	clock    clock.Clock
	duration time.Duration
}

// open reports whether the window has elapsed since ts. An unset timestamp
// means the window was never started, so the gate never opens - this is what
// distinguishes "timer not started" from "timer elapsed".
func (g gate) open(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}

	return g.clock.Now().Sub(ts) >= g.duration
}

// wait blocks until the window has elapsed. The calling goroutine sleeps for
// the remaining window and re-checks, so it returns no sooner than the
// modeled hardware delay. Waiting on an unset timestamp returns immediately:
// such a gate can never open and the corresponding lifecycle step already
// failed.
func (g gate) wait(ts time.Time) {
	if ts.IsZero() {
		return
	}

	for !g.open(ts) {
		remaining := g.duration - g.clock.Now().Sub(ts)
		if remaining <= 0 {
			// Clock moved between the open check and now.
			continue
		}
		g.clock.Sleep(remaining)
	}
}
