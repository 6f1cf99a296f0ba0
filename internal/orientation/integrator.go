// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import "github.com/golang/geo/r3"

// StandardGravity converts g to m/s².
const StandardGravity = 9.80665

// Integrator double-integrates world-frame linear acceleration into
// velocity (m/s) and displacement (m) on the horizontal X and Y axes.
// Z is never integrated. The zero value is ready to use.
type Integrator struct {
	velocity     r3.Vector
	displacement r3.Vector
}

// Update advances one sample of dt seconds. accelG is in g. When moving is
// false the velocity is held at zero for the sample so the noise floor does
// not build up a standing velocity; displacement still advances by it.
func (in *Integrator) Update(accelG r3.Vector, dt float64, moving bool) {
	if moving {
		in.velocity.X += accelG.X * StandardGravity * dt
		in.velocity.Y += accelG.Y * StandardGravity * dt
	} else {
		in.velocity = r3.Vector{}
	}
	in.displacement.X += in.velocity.X * dt
	in.displacement.Y += in.velocity.Y * dt
}

func (in *Integrator) Velocity() r3.Vector { return in.velocity }

func (in *Integrator) Displacement() r3.Vector { return in.displacement }

// Reset zeroes velocity and displacement.
func (in *Integrator) Reset() {
	in.velocity = r3.Vector{}
	in.displacement = r3.Vector{}
}
