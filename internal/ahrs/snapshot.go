// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ahrs

import (
	"time"

	"github.com/golang/geo/r3"

	"github.com/relabs-tech/navx_ahrs/internal/frame"
	"github.com/relabs-tech/navx_ahrs/internal/orientation"
)

// Snapshot is everything derived from one acquisition cycle. Published
// snapshots are never modified; Registers must be treated as read-only.
type Snapshot struct {
	Frame frame.Frame `json:"frame"`

	// Yaw is the board yaw rebased on the current zero offset.
	Yaw float64 `json:"yaw"`
	// Angle is the continuous yaw rotation total in degrees, Rate its
	// latest change in degrees per second.
	Angle float64 `json:"angle"`
	Rate  float64 `json:"rate"`

	Velocity     r3.Vector `json:"velocity"`
	Displacement r3.Vector `json:"displacement"`

	// AccelTilt is roll and pitch computed from the raw accelerometer only.
	AccelTilt orientation.Pose `json:"accel_tilt"`

	LastUpdate  time.Time `json:"last_update"`
	ByteCount   uint64    `json:"byte_count"`
	UpdateCount uint64    `json:"update_count"`

	Registers []byte `json:"registers,omitempty"`
}
