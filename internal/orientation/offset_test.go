package orientation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOffsetTrackerZero(t *testing.T) {
	o := NewOffsetTracker(1)
	var c ContinuousAngle

	for _, raw := range []float64{40, 45, 47} {
		c.Update(raw)
		o.Update(raw)
	}
	before := c.Angle()

	o.Zero()
	assert.InDelta(t, 0.0, o.Apply(47), 1e-9)

	c.Update(50)
	o.Update(50)
	assert.InDelta(t, 3.0, o.Apply(50), 1e-9)
	// Zeroing rebases yaw only; the rotation total keeps accumulating.
	assert.InDelta(t, before+3, c.Angle(), 1e-9)
}

func TestOffsetTrackerWrapsResult(t *testing.T) {
	o := NewOffsetTracker(1)
	o.Update(170)
	o.Zero()
	assert.InDelta(t, 20.0, o.Apply(-170), 1e-9)
	assert.InDelta(t, -170.0, o.Apply(0), 1e-9)
}

func TestOffsetTrackerAveragesWindow(t *testing.T) {
	o := NewOffsetTracker(4)
	for _, raw := range []float64{1, 2, 3, 4, 5, 6} {
		o.Update(raw)
	}
	o.Zero()
	// Last four samples: 3, 4, 5, 6.
	assert.InDelta(t, 4.5, o.Offset(), 1e-9)
}

func TestOffsetTrackerAveragesAcrossSeam(t *testing.T) {
	o := NewOffsetTracker(2)
	o.Update(179)
	o.Update(-179)
	o.Zero()
	assert.InDelta(t, 180.0, o.Offset(), 1e-9)
}

func TestOffsetTrackerEmptyAndReset(t *testing.T) {
	o := NewOffsetTracker(0)
	o.Zero()
	assert.Zero(t, o.Offset())

	o.Update(30)
	o.Zero()
	assert.InDelta(t, 30.0, o.Offset(), 1e-9)

	o.Reset()
	assert.Zero(t, o.Offset())
	assert.InDelta(t, 30.0, o.Apply(30), 1e-9)
}
