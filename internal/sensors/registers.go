// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// BitField describes a named bit range inside a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo is the metadata of one (possibly multi-byte) register.
type RegisterInfo struct {
	Address     string     `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "RW"
	Size        int        `json:"size"`   // bytes, little-endian
	Default     string     `json:"default,omitempty"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// BoardRegisterMap returns metadata for every register in the block the
// acquisition loop reads each cycle.
func BoardRegisterMap() []RegisterInfo {
	return []RegisterInfo{
		// Identification and configuration
		{Address: "0x00", Name: "WHOAMI", Description: "Board identifier", Access: "R", Size: 1, Default: "0x32"},
		{Address: "0x01", Name: "HW_REV", Description: "Hardware revision", Access: "R", Size: 1},
		{Address: "0x02", Name: "FW_VER_MAJOR", Description: "Firmware major version", Access: "R", Size: 1},
		{Address: "0x03", Name: "FW_VER_MINOR", Description: "Firmware minor version", Access: "R", Size: 1},
		{Address: "0x04", Name: "UPDATE_RATE_HZ", Description: "Sample and fusion update rate", Access: "RW", Size: 1,
			BitFields: []BitField{
				{Bits: "7:0", Name: "RATE", Description: "Requested rate in Hz; the board rounds to the nearest rate it supports", Values: "4-200"},
			}},
		{Address: "0x05", Name: "ACCEL_FSR_G", Description: "Accelerometer full scale range", Access: "R", Size: 1, Default: "0x02"},
		{Address: "0x06", Name: "GYRO_FSR_DPS", Description: "Gyroscope full scale range", Access: "R", Size: 2, Default: "0x07D0"},
		{Address: "0x08", Name: "OP_STATUS", Description: "Operational status", Access: "R", Size: 1,
			BitFields: []BitField{
				{Bits: "7:0", Name: "OP_STATUS", Description: "Board state", Values: "0=Initializing, 1=Selftest in progress, 2=Error, 3=IMU autocal in progress, 4=Normal"},
			}},
		{Address: "0x09", Name: "CAL_STATUS", Description: "Calibration status", Access: "R", Size: 1,
			BitFields: []BitField{
				{Bits: "1:0", Name: "IMU_CAL_STATE", Description: "Startup gyro/accel calibration", Values: "0=In progress, 1=Accumulating, 2=Complete"},
				{Bits: "2", Name: "MAG_CAL_COMPLETE", Description: "Magnetometer calibration stored", Values: "0=No, 1=Yes"},
				{Bits: "3", Name: "BARO_CAL_COMPLETE", Description: "Barometer calibration stored", Values: "0=No, 1=Yes"},
			}},
		{Address: "0x0A", Name: "SELFTEST_STATUS", Description: "Self-test results", Access: "R", Size: 1,
			BitFields: []BitField{
				{Bits: "0", Name: "GYRO_PASSED", Description: "Gyroscope self-test", Values: "0=Failed, 1=Passed"},
				{Bits: "1", Name: "ACCEL_PASSED", Description: "Accelerometer self-test", Values: "0=Failed, 1=Passed"},
				{Bits: "2", Name: "MAG_PASSED", Description: "Magnetometer self-test", Values: "0=Failed, 1=Passed"},
				{Bits: "3", Name: "BARO_PASSED", Description: "Barometer self-test", Values: "0=Failed, 1=Passed"},
				{Bits: "7", Name: "COMPLETE", Description: "Self-test finished", Values: "0=Running, 1=Done"},
			}},
		{Address: "0x0B", Name: "CAPABILITY_FLAGS", Description: "Board capabilities", Access: "R", Size: 2,
			BitFields: []BitField{
				{Bits: "2", Name: "OMNIMOUNT", Description: "Mounting orientation is configurable", Values: "0=No, 1=Yes"},
				{Bits: "5:3", Name: "OMNIMOUNT_CONFIG", Description: "Yaw axis", Values: "0=Default(Z up), 1=X up, 2=X down, 3=Y up, 4=Y down, 5=Z up, 6=Z down"},
				{Bits: "6", Name: "VEL_AND_DISP", Description: "On-board velocity and displacement integration", Values: "0=No, 1=Yes"},
				{Bits: "7", Name: "YAW_RESET", Description: "On-board yaw reset", Values: "0=No, 1=Yes"},
			}},

		// Status and orientation
		{Address: "0x10", Name: "SENSOR_STATUS", Description: "Sensor status flags", Access: "R", Size: 2,
			BitFields: []BitField{
				{Bits: "0", Name: "MOVING", Description: "Linear motion detected", Values: "0=Still, 1=Moving"},
				{Bits: "1", Name: "YAW_STABLE", Description: "Yaw is not changing", Values: "0=Rotating, 1=Stable"},
				{Bits: "2", Name: "MAG_DISTURBANCE", Description: "Magnetic field differs from calibration", Values: "0=No, 1=Yes"},
				{Bits: "3", Name: "ALTITUDE_VALID", Description: "Barometric altitude is usable", Values: "0=No, 1=Yes"},
				{Bits: "4", Name: "SEALEVEL_PRESS_SET", Description: "Sea level pressure has been set", Values: "0=No, 1=Yes"},
				{Bits: "5", Name: "FUSED_HEADING_VALID", Description: "Fused heading is usable", Values: "0=No, 1=Yes"},
			}},
		{Address: "0x12", Name: "TIMESTAMP", Description: "Sensor timestamp in ms", Access: "R", Size: 4},
		{Address: "0x16", Name: "YAW", Description: "Yaw, signed hundredths of a degree", Access: "R", Size: 2},
		{Address: "0x18", Name: "ROLL", Description: "Roll, signed hundredths of a degree", Access: "R", Size: 2},
		{Address: "0x1A", Name: "PITCH", Description: "Pitch, signed hundredths of a degree", Access: "R", Size: 2},
		{Address: "0x1C", Name: "HEADING", Description: "Compass heading, unsigned hundredths of a degree", Access: "R", Size: 2},
		{Address: "0x1E", Name: "FUSED_HEADING", Description: "Fused heading, unsigned hundredths of a degree", Access: "R", Size: 2},
		{Address: "0x20", Name: "ALTITUDE", Description: "Altitude in metres, signed Q16.16", Access: "R", Size: 4},

		// World-frame linear acceleration
		{Address: "0x24", Name: "LINEAR_ACC_X", Description: "Linear acceleration X, signed thousandths of g", Access: "R", Size: 2},
		{Address: "0x26", Name: "LINEAR_ACC_Y", Description: "Linear acceleration Y, signed thousandths of g", Access: "R", Size: 2},
		{Address: "0x28", Name: "LINEAR_ACC_Z", Description: "Linear acceleration Z, signed thousandths of g", Access: "R", Size: 2},

		// Quaternion, Q14
		{Address: "0x2A", Name: "QUAT_W", Description: "Quaternion W, value/16384", Access: "R", Size: 2},
		{Address: "0x2C", Name: "QUAT_X", Description: "Quaternion X, value/16384", Access: "R", Size: 2},
		{Address: "0x2E", Name: "QUAT_Y", Description: "Quaternion Y, value/16384", Access: "R", Size: 2},
		{Address: "0x30", Name: "QUAT_Z", Description: "Quaternion Z, value/16384", Access: "R", Size: 2},

		// Raw sensor data
		{Address: "0x32", Name: "MPU_TEMP_C", Description: "IMU temperature, signed hundredths of a degree C", Access: "R", Size: 2},
		{Address: "0x34", Name: "GYRO_X", Description: "Raw gyroscope X", Access: "R", Size: 2},
		{Address: "0x36", Name: "GYRO_Y", Description: "Raw gyroscope Y", Access: "R", Size: 2},
		{Address: "0x38", Name: "GYRO_Z", Description: "Raw gyroscope Z", Access: "R", Size: 2},
		{Address: "0x3A", Name: "ACC_X", Description: "Raw accelerometer X", Access: "R", Size: 2},
		{Address: "0x3C", Name: "ACC_Y", Description: "Raw accelerometer Y", Access: "R", Size: 2},
		{Address: "0x3E", Name: "ACC_Z", Description: "Raw accelerometer Z", Access: "R", Size: 2},
		{Address: "0x40", Name: "MAG_X", Description: "Calibrated magnetometer X", Access: "R", Size: 2},
		{Address: "0x42", Name: "MAG_Y", Description: "Calibrated magnetometer Y", Access: "R", Size: 2},
		{Address: "0x44", Name: "MAG_Z", Description: "Calibrated magnetometer Z", Access: "R", Size: 2},

		// Barometer
		{Address: "0x46", Name: "PRESSURE", Description: "Barometric pressure in millibar, signed Q16.16", Access: "R", Size: 4},
		{Address: "0x4A", Name: "PRESSURE_TEMP_C", Description: "Pressure sensor temperature, signed hundredths of a degree C", Access: "R", Size: 2},
	}
}

// RegisterValue is a register's metadata plus the value read from it.
type RegisterValue struct {
	RegisterInfo
	Raw   uint32 `json:"raw"`
	Value string `json:"value"` // hex, sized to the register
}

// DumpRegisters pairs every mapped register with its value in regs, a
// block read starting at register 0x00. Registers past the end of regs are
// left out.
func DumpRegisters(regs []byte) ([]RegisterValue, error) {
	var out []RegisterValue
	for _, info := range BoardRegisterMap() {
		addr, err := strconv.ParseUint(info.Address, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("register %s: bad address %q: %w", info.Name, info.Address, err)
		}
		end := int(addr) + info.Size
		if end > len(regs) {
			continue
		}
		var buf [4]byte
		copy(buf[:], regs[addr:end])
		raw := binary.LittleEndian.Uint32(buf[:])
		out = append(out, RegisterValue{
			RegisterInfo: info,
			Raw:          raw,
			Value:        fmt.Sprintf("0x%0*X", info.Size*2, raw),
		})
	}
	return out, nil
}
