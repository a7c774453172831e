package sensor

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

func TestGateZeroTimestampNeverOpens(t *testing.T) {
	mock := clock.NewMock()

	for _, d := range []time.Duration{0, time.Millisecond, 10 * time.Second} {
		g := gate{clock: mock, duration: d}
		assert.False(t, g.open(time.Time{}), "duration %v", d)

		mock.Add(time.Hour)
		assert.False(t, g.open(time.Time{}), "duration %v after advancing", d)
	}
}

func TestGateBoundary(t *testing.T) {
	mock := clock.NewMock()
	g := gate{clock: mock, duration: 500 * time.Millisecond}

	ts := mock.Now()

	mock.Add(499 * time.Millisecond)
	assert.False(t, g.open(ts), "499ms elapsed of 500ms window")

	mock.Add(time.Millisecond)
	assert.True(t, g.open(ts), "500ms elapsed of 500ms window")
}

func TestGateZeroDurationOpensImmediately(t *testing.T) {
	mock := clock.NewMock()
	g := gate{clock: mock, duration: 0}

	assert.True(t, g.open(mock.Now()))
}

func TestGateWaitBlocksForWindow(t *testing.T) {
	c := clock.New()
	g := gate{clock: c, duration: 30 * time.Millisecond}

	ts := c.Now()
	g.wait(ts)

	assert.GreaterOrEqual(t, c.Now().Sub(ts), 30*time.Millisecond)
}

func TestGateWaitUnsetTimestampReturns(t *testing.T) {
	c := clock.New()
	g := gate{clock: c, duration: time.Hour}

	start := c.Now()
	g.wait(time.Time{})

	assert.Less(t, c.Now().Sub(start), time.Second,
		"waiting on an unset timestamp must return immediately")
}

func TestGateWaitAlreadyElapsed(t *testing.T) {
	c := clock.New()
	g := gate{clock: c, duration: 5 * time.Millisecond}

	ts := c.Now().Add(-time.Second)
	start := c.Now()
	g.wait(ts)

	assert.Less(t, c.Now().Sub(start), time.Second)
}
