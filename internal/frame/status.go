// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package frame

import "fmt"

// Moving reports whether the board detected linear motion this sample.
func (f Frame) Moving() bool { return f.SensorStatus&StatusMoving != 0 }

// Rotating reports whether yaw is still changing.
func (f Frame) Rotating() bool { return f.SensorStatus&StatusYawStable == 0 }

func (f Frame) AltitudeValid() bool { return f.SensorStatus&StatusAltitudeValid != 0 }

func (f Frame) MagneticDisturbance() bool { return f.SensorStatus&StatusMagDisturbance != 0 }

func (f Frame) FusedHeadingValid() bool { return f.SensorStatus&StatusFusedHeadingValid != 0 }

func (f Frame) MagnetometerCalibrated() bool { return f.CalStatus&CalMagComplete != 0 }

// Calibrating is true until the board finishes its startup IMU
// calibration. Yaw is not meaningful before that.
func (f Frame) Calibrating() bool { return f.CalStatus&CalIMUStateMask != CalIMUComplete }

// FirmwareVersion returns "major.minor".
func (f Frame) FirmwareVersion() string {
	return fmt.Sprintf("%d.%d", f.Board.FWMajor, f.Board.FWMinor)
}

// Axis names a board axis.
type Axis string

const (
	AxisX Axis = "X"
	AxisY Axis = "Y"
	AxisZ Axis = "Z"
)

// YawAxis is the board axis that yaw rotates about, and whether that axis
// points up.
type YawAxis struct {
	Axis Axis `json:"axis"`
	Up   bool `json:"up"`
}

func (y YawAxis) String() string {
	if y.Up {
		return string(y.Axis) + " up"
	}
	return string(y.Axis) + " down"
}

// Omnimount settings held in bits 3-5 of the capability flags.
const (
	mountDefault = iota
	mountXUp
	mountXDown
	mountYUp
	mountYDown
	mountZUp
	mountZDown
)

// YawAxis decodes the omnimount configuration. Boards without omnimount,
// or with an unknown setting, rotate about Z up.
func (f Frame) YawAxis() YawAxis {
	if f.Capability&CapOmniMount == 0 {
		return YawAxis{Axis: AxisZ, Up: true}
	}
	switch (f.Capability & CapOmniMountConfig) >> 3 {
	case mountXUp:
		return YawAxis{Axis: AxisX, Up: true}
	case mountXDown:
		return YawAxis{Axis: AxisX}
	case mountYUp:
		return YawAxis{Axis: AxisY, Up: true}
	case mountYDown:
		return YawAxis{Axis: AxisY}
	case mountZDown:
		return YawAxis{Axis: AxisZ}
	default:
		return YawAxis{Axis: AxisZ, Up: true}
	}
}

// OmniMountBits returns the capability bits that select y, for boards
// that support omnimount.
func OmniMountBits(y YawAxis) uint16 {
	var m uint16
	switch y.Axis {
	case AxisX:
		m = mountXUp
	case AxisY:
		m = mountYUp
	default:
		m = mountZUp
	}
	if !y.Up {
		m++
	}
	return CapOmniMount | m<<3
}
