package orientation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContinuousAngleSeed(t *testing.T) {
	var c ContinuousAngle
	c.Update(350)
	assert.Zero(t, c.Angle())
	assert.Zero(t, c.Rate())
}

func TestContinuousAngleForwardWrap(t *testing.T) {
	var c ContinuousAngle
	c.Update(350)
	c.Update(10)
	assert.InDelta(t, 20.0, c.Angle(), 1e-9)
	assert.InDelta(t, 20.0, c.Rate(), 1e-9)
}

func TestContinuousAngleBackwardWrap(t *testing.T) {
	var c ContinuousAngle
	c.Update(10)
	c.Update(350)
	assert.InDelta(t, -20.0, c.Angle(), 1e-9)
}

func TestContinuousAngleSignedRange(t *testing.T) {
	// Yaw in (-180, 180] crossing the ±180 seam.
	var c ContinuousAngle
	c.Update(170)
	c.Update(-170)
	assert.InDelta(t, 20.0, c.Angle(), 1e-9)
}

func TestContinuousAngleMultipleRevolutions(t *testing.T) {
	var c ContinuousAngle
	prev := c.Angle()
	for i := 0; i <= 3*36; i++ {
		c.Update(float64((i * 10) % 360))
		if i > 0 {
			assert.Greater(t, c.Angle(), prev)
		}
		prev = c.Angle()
	}
	assert.InDelta(t, 1080.0, c.Angle(), 1e-9)
}

func TestContinuousAngleHalfTurnIsPositive(t *testing.T) {
	var c ContinuousAngle
	c.Update(0)
	c.Update(180)
	assert.InDelta(t, 180.0, c.Angle(), 1e-9)

	c.Reset()
	c.Update(180)
	c.Update(0)
	assert.InDelta(t, 180.0, c.Angle(), 1e-9)
}

func TestContinuousAngleReset(t *testing.T) {
	var c ContinuousAngle
	c.Update(0)
	c.Update(90)
	c.Reset()
	c.Update(45)
	assert.Zero(t, c.Angle())
	c.Update(50)
	assert.InDelta(t, 5.0, c.Angle(), 1e-9)
}

func TestWrap180(t *testing.T) {
	cases := map[float64]float64{
		0: 0, 180: 180, -180: 180, 190: -170, -190: 170, 360: 0, 540: 180, -45: -45, 725: 5,
	}
	for in, want := range cases {
		assert.InDelta(t, want, Wrap180(in), 1e-9, "Wrap180(%v)", in)
	}
}

func TestComputePoseFromAccel(t *testing.T) {
	p := ComputePoseFromAccel(0, 0, 1)
	assert.InDelta(t, 0.0, p.Roll, 1e-9)
	assert.InDelta(t, 0.0, p.Pitch, 1e-9)

	p = ComputePoseFromAccel(0, 1, 0)
	assert.InDelta(t, 90.0, p.Roll, 1e-9)

	p = ComputePoseFromAccel(-1, 0, 0)
	assert.InDelta(t, 90.0, p.Pitch, 1e-9)
}

