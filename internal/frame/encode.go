// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package frame

import (
	"encoding/binary"
	"math"
)

// Encode lays f out as a register block, the inverse of Decode up to the
// register resolution. Out-of-range values saturate. A zero Board.WhoAmI
// is written as WhoAmI.
func Encode(f Frame) []byte {
	b := make([]byte, Length)
	b[RegWhoAmI] = f.Board.WhoAmI
	if b[RegWhoAmI] == 0 {
		b[RegWhoAmI] = WhoAmI
	}
	b[RegHWRev] = f.Board.HWRev
	b[RegFWMajor] = f.Board.FWMajor
	b[RegFWMinor] = f.Board.FWMinor
	b[RegUpdateRateHz] = f.UpdateRateHz
	b[RegAccelFSRG] = f.AccelFSRG
	putU16(b, RegGyroFSRDPS, f.GyroFSRDPS)
	b[RegOpStatus] = f.OpStatus
	b[RegCalStatus] = f.CalStatus
	b[RegSelfTestStatus] = f.SelfTestStatus
	putU16(b, RegCapability, f.Capability)
	putU16(b, RegSensorStatus, f.SensorStatus)
	binary.LittleEndian.PutUint32(b[RegTimestamp:], f.Timestamp)

	putS16(b, RegYaw, f.Yaw*100)
	putS16(b, RegRoll, f.Roll*100)
	putS16(b, RegPitch, f.Pitch*100)
	putU16(b, RegCompassHeading, saturateU16(f.CompassHeading*100))
	putU16(b, RegFusedHeading, saturateU16(f.FusedHeading*100))

	putQ1616(b, RegAltitude, f.Altitude)
	putS16(b, RegLinearAccelX, f.LinearAccel.X*1000)
	putS16(b, RegLinearAccelY, f.LinearAccel.Y*1000)
	putS16(b, RegLinearAccelZ, f.LinearAccel.Z*1000)
	putS16(b, RegQuatW, f.Quaternion.W*q14)
	putS16(b, RegQuatX, f.Quaternion.X*q14)
	putS16(b, RegQuatY, f.Quaternion.Y*q14)
	putS16(b, RegQuatZ, f.Quaternion.Z*q14)
	putS16(b, RegMPUTemp, f.MPUTempC*100)

	raw := []struct {
		reg int
		v   int16
	}{
		{RegGyroX, f.Raw.Gx}, {RegGyroY, f.Raw.Gy}, {RegGyroZ, f.Raw.Gz},
		{RegAccelX, f.Raw.Ax}, {RegAccelY, f.Raw.Ay}, {RegAccelZ, f.Raw.Az},
		{RegMagX, f.Raw.Mx}, {RegMagY, f.Raw.My}, {RegMagZ, f.Raw.Mz},
	}
	for _, r := range raw {
		putU16(b, r.reg, uint16(r.v))
	}

	putQ1616(b, RegPressure, f.Pressure)
	putS16(b, RegPressureTemp, f.PressureTempC*100)
	return b
}

func putU16(b []byte, reg int, v uint16) { binary.LittleEndian.PutUint16(b[reg:], v) }

func putS16(b []byte, reg int, v float64) {
	v = math.Round(v)
	v = math.Max(math.MinInt16, math.Min(math.MaxInt16, v))
	putU16(b, reg, uint16(int16(v)))
}

func saturateU16(v float64) uint16 {
	return uint16(math.Max(0, math.Min(math.MaxUint16, math.Round(v))))
}

func putQ1616(b []byte, reg int, v float64) {
	v = math.Round(v * 65536)
	v = math.Max(math.MinInt32, math.Min(math.MaxInt32, v))
	binary.LittleEndian.PutUint32(b[reg:], uint32(int32(v)))
}
