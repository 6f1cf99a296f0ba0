// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import "github.com/golang/geo/r3"

// Raw holds one sample of the board's unprocessed sensor axes, as read from
// the register block. Units are device counts.
type Raw struct {
	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`

	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Mx int16 `json:"mx"` // magnetometer (calibrated)
	My int16 `json:"my"`
	Mz int16 `json:"mz"`
}

// Gyro returns the gyro axes as a vector.
func (r Raw) Gyro() r3.Vector {
	return r3.Vector{X: float64(r.Gx), Y: float64(r.Gy), Z: float64(r.Gz)}
}

// Accel returns the accelerometer axes as a vector.
func (r Raw) Accel() r3.Vector {
	return r3.Vector{X: float64(r.Ax), Y: float64(r.Ay), Z: float64(r.Az)}
}

// Mag returns the magnetometer axes as a vector.
func (r Raw) Mag() r3.Vector {
	return r3.Vector{X: float64(r.Mx), Y: float64(r.My), Z: float64(r.Mz)}
}
