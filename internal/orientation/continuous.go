// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

// ContinuousAngle turns a bounded heading into an unbounded rotation total.
//
// Each update adds the shortest-path difference from the previous heading,
// so crossing 0/360 (or ±180) moves the total by the small step actually
// rotated. A step of exactly 180 degrees has no direction; it is counted as
// +180. The zero value is ready to use.
type ContinuousAngle struct {
	seeded bool
	last   float64
	total  float64
	delta  float64
}

// Update feeds the newest bounded heading. The first sample after
// construction or Reset only seeds the tracker.
func (c *ContinuousAngle) Update(angle float64) {
	if !c.seeded {
		c.seeded = true
		c.last = angle
		c.total = 0
		c.delta = 0
		return
	}
	c.delta = Wrap180(angle - c.last)
	c.total += c.delta
	c.last = angle
}

// Angle returns the accumulated signed rotation in degrees.
func (c *ContinuousAngle) Angle() float64 { return c.total }

// Rate returns the last per-sample change in degrees.
func (c *ContinuousAngle) Rate() float64 { return c.delta }

// Reset clears the total; the next Update reseeds.
func (c *ContinuousAngle) Reset() { *c = ContinuousAngle{} }
