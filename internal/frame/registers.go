// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package frame

// Register addresses of the board's little-endian register map.
const (
	RegWhoAmI         = 0x00
	RegHWRev          = 0x01
	RegFWMajor        = 0x02
	RegFWMinor        = 0x03
	RegUpdateRateHz   = 0x04
	RegAccelFSRG      = 0x05
	RegGyroFSRDPS     = 0x06 // 2 bytes
	RegOpStatus       = 0x08
	RegCalStatus      = 0x09
	RegSelfTestStatus = 0x0A
	RegCapability     = 0x0B // 2 bytes
	RegSensorStatus   = 0x10 // 2 bytes
	RegTimestamp      = 0x12 // 4 bytes, ms
	RegYaw            = 0x16
	RegRoll           = 0x18
	RegPitch          = 0x1A
	RegCompassHeading = 0x1C
	RegFusedHeading   = 0x1E
	RegAltitude       = 0x20 // Q16.16
	RegLinearAccelX   = 0x24
	RegLinearAccelY   = 0x26
	RegLinearAccelZ   = 0x28
	RegQuatW          = 0x2A
	RegQuatX          = 0x2C
	RegQuatY          = 0x2E
	RegQuatZ          = 0x30
	RegMPUTemp        = 0x32
	RegGyroX          = 0x34
	RegGyroY          = 0x36
	RegGyroZ          = 0x38
	RegAccelX         = 0x3A
	RegAccelY         = 0x3C
	RegAccelZ         = 0x3E
	RegMagX           = 0x40
	RegMagY           = 0x42
	RegMagZ           = 0x44
	RegPressure       = 0x46 // Q16.16, millibar
	RegPressureTemp   = 0x4A

	// Length is the size of the block read from RegWhoAmI every cycle.
	Length = 0x4C
)

// WhoAmI is the identification byte every genuine board reports.
const WhoAmI = 0x32

// Calibration status bits.
const (
	CalIMUStateMask = 0x03
	CalIMUComplete  = 0x02
	CalMagComplete  = 0x04
	CalBaroComplete = 0x08
)

// Sensor status bits.
const (
	StatusMoving            = 0x0001
	StatusYawStable         = 0x0002
	StatusMagDisturbance    = 0x0004
	StatusAltitudeValid     = 0x0008
	StatusSeaLevelPressSet  = 0x0010
	StatusFusedHeadingValid = 0x0020
)

// Capability flags.
const (
	CapOmniMount       = 0x0004
	CapOmniMountConfig = 0x0038
	CapVelDisp         = 0x0040
	CapYawReset        = 0x0080
)
