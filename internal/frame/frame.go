// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package frame decodes the AHRS board's register block into typed
// telemetry.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/relabs-tech/navx_ahrs/internal/imu"
)

var (
	// ErrShortFrame is returned for a block that is not exactly Length bytes.
	ErrShortFrame = errors.New("frame has wrong length")
	// ErrBadMarker is returned when the WHOAMI byte is not WhoAmI.
	ErrBadMarker = errors.New("frame marker mismatch")
)

// BoardID carries the identification bytes at the start of the block.
type BoardID struct {
	WhoAmI  byte `json:"who_am_i"`
	HWRev   byte `json:"hw_rev"`
	FWMajor byte `json:"fw_major"`
	FWMinor byte `json:"fw_minor"`
}

// Quaternion is the board's fused orientation, normalized.
type Quaternion struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Frame is one decoded register block. Angles are degrees, temperatures
// Celsius, linear acceleration in g, altitude metres, pressure millibar.
type Frame struct {
	Board BoardID `json:"board"`

	UpdateRateHz   uint8  `json:"update_rate_hz"`
	AccelFSRG      uint8  `json:"accel_fsr_g"`
	GyroFSRDPS     uint16 `json:"gyro_fsr_dps"`
	OpStatus       uint8  `json:"op_status"`
	CalStatus      uint8  `json:"cal_status"`
	SelfTestStatus uint8  `json:"self_test_status"`
	Capability     uint16 `json:"capability"`
	SensorStatus   uint16 `json:"sensor_status"`
	Timestamp      uint32 `json:"timestamp"`

	Yaw            float64 `json:"yaw"`
	Roll           float64 `json:"roll"`
	Pitch          float64 `json:"pitch"`
	CompassHeading float64 `json:"compass_heading"`
	FusedHeading   float64 `json:"fused_heading"`

	Altitude    float64    `json:"altitude"`
	LinearAccel r3.Vector  `json:"linear_accel"`
	Quaternion  Quaternion `json:"quaternion"`
	MPUTempC    float64    `json:"mpu_temp_c"`

	Raw imu.Raw `json:"raw"`

	Pressure      float64 `json:"pressure"`
	PressureTempC float64 `json:"pressure_temp_c"`
}

// Decode parses a register block read from RegWhoAmI. It never returns a
// partially populated frame.
func Decode(b []byte) (Frame, error) {
	if len(b) != Length {
		return Frame{}, fmt.Errorf("%w: got %d bytes, want %d", ErrShortFrame, len(b), Length)
	}
	if b[RegWhoAmI] != WhoAmI {
		return Frame{}, fmt.Errorf("%w: WHOAMI 0x%02X, want 0x%02X", ErrBadMarker, b[RegWhoAmI], WhoAmI)
	}

	f := Frame{
		Board: BoardID{
			WhoAmI:  b[RegWhoAmI],
			HWRev:   b[RegHWRev],
			FWMajor: b[RegFWMajor],
			FWMinor: b[RegFWMinor],
		},
		UpdateRateHz:   b[RegUpdateRateHz],
		AccelFSRG:      b[RegAccelFSRG],
		GyroFSRDPS:     u16(b, RegGyroFSRDPS),
		OpStatus:       b[RegOpStatus],
		CalStatus:      b[RegCalStatus],
		SelfTestStatus: b[RegSelfTestStatus],
		Capability:     u16(b, RegCapability),
		SensorStatus:   u16(b, RegSensorStatus),
		Timestamp:      binary.LittleEndian.Uint32(b[RegTimestamp:]),

		Yaw:            hundredths(b, RegYaw),
		Roll:           hundredths(b, RegRoll),
		Pitch:          hundredths(b, RegPitch),
		CompassHeading: float64(u16(b, RegCompassHeading)) / 100,
		FusedHeading:   float64(u16(b, RegFusedHeading)) / 100,

		Altitude: q1616(b, RegAltitude),
		LinearAccel: r3.Vector{
			X: float64(s16(b, RegLinearAccelX)) / 1000,
			Y: float64(s16(b, RegLinearAccelY)) / 1000,
			Z: float64(s16(b, RegLinearAccelZ)) / 1000,
		},
		Quaternion: normalize(quat.Number{
			Real: float64(s16(b, RegQuatW)) / q14,
			Imag: float64(s16(b, RegQuatX)) / q14,
			Jmag: float64(s16(b, RegQuatY)) / q14,
			Kmag: float64(s16(b, RegQuatZ)) / q14,
		}),
		MPUTempC: hundredths(b, RegMPUTemp),

		Raw: imu.Raw{
			Gx: s16(b, RegGyroX), Gy: s16(b, RegGyroY), Gz: s16(b, RegGyroZ),
			Ax: s16(b, RegAccelX), Ay: s16(b, RegAccelY), Az: s16(b, RegAccelZ),
			Mx: s16(b, RegMagX), My: s16(b, RegMagY), Mz: s16(b, RegMagZ),
		},

		Pressure:      q1616(b, RegPressure),
		PressureTempC: hundredths(b, RegPressureTemp),
	}
	return f, nil
}

const q14 = 16384

// normalize scales q to unit length. A zero quaternion is returned as is.
func normalize(q quat.Number) Quaternion {
	if n := quat.Abs(q); n > 0 {
		q = quat.Scale(1/n, q)
	}
	return Quaternion{W: q.Real, X: q.Imag, Y: q.Jmag, Z: q.Kmag}
}

func u16(b []byte, reg int) uint16 { return binary.LittleEndian.Uint16(b[reg:]) }

func s16(b []byte, reg int) int16 { return int16(u16(b, reg)) }

func hundredths(b []byte, reg int) float64 { return float64(s16(b, reg)) / 100 }

func q1616(b []byte, reg int) float64 {
	return float64(int32(binary.LittleEndian.Uint32(b[reg:]))) / 65536
}
