// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"

	"github.com/relabs-tech/navx_ahrs/internal/bus"
	"github.com/relabs-tech/navx_ahrs/internal/frame"
	"github.com/relabs-tech/navx_ahrs/internal/imu"
)

// MockBoard is a bus.Transport that simulates an AHRS board slowly
// turning and tilting. Yaw sweeps through a full revolution every 12 s,
// roll and pitch swing sinusoidally, and the board reports motion on and
// off in 4 s periods.
type MockBoard struct {
	mu    sync.Mutex
	clk   clock.Clock
	start time.Time
	regs  [256]byte
	open  bool
}

// NewMockBoard returns a simulated board driven by clk.
func NewMockBoard(clk clock.Clock) *MockBoard {
	m := &MockBoard{clk: clk}
	m.regs[frame.RegUpdateRateHz] = 50
	return m
}

func (m *MockBoard) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.start = m.clk.Now()
	m.open = true
	return nil
}

// Write stores value. Only the update rate register is writable.
func (m *MockBoard) Write(ctx context.Context, reg, value byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return bus.ErrNotInitialized
	}
	if reg != frame.RegUpdateRateHz {
		return fmt.Errorf("%w: register 0x%02X is read-only", bus.ErrTransport, reg)
	}
	m.regs[reg] = value
	return nil
}

// Read renders the board state at the current clock time and copies the
// requested span.
func (m *MockBoard) Read(ctx context.Context, first byte, buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return bus.ErrNotInitialized
	}
	if int(first)+len(buf) > len(m.regs) {
		return fmt.Errorf("%w: read of %d bytes from 0x%02X overruns the register map", bus.ErrTransport, len(buf), first)
	}
	copy(m.regs[:frame.Length], frame.Encode(m.sample(m.clk.Since(m.start))))
	copy(buf, m.regs[first:])
	return nil
}

func (m *MockBoard) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
	return nil
}

func (m *MockBoard) String() string { return "mock" }

// sample builds the frame the board would report after elapsed.
func (m *MockBoard) sample(elapsed time.Duration) frame.Frame {
	t := elapsed.Seconds()

	yaw := math.Mod(t*30, 360)
	if yaw > 180 {
		yaw -= 360
	}
	roll := 20 * math.Sin(t)
	pitch := 15 * math.Cos(t*0.7)
	moving := math.Mod(t, 8) < 4

	var status uint16 = frame.StatusAltitudeValid | frame.StatusFusedHeadingValid
	if moving {
		status |= frame.StatusMoving
	}

	// Gravity seen by the accelerometer for the current tilt, 16384 counts/g.
	rr, pr := roll*math.Pi/180, pitch*math.Pi/180
	g := r3.Vector{X: -math.Sin(pr), Y: math.Sin(rr) * math.Cos(pr), Z: math.Cos(rr) * math.Cos(pr)}

	var accel r3.Vector
	if moving {
		accel = r3.Vector{X: 0.05 * math.Sin(t*math.Pi/2), Y: 0.02 * math.Cos(t*math.Pi/2)}
	}

	heading := yaw
	if heading < 0 {
		heading += 360
	}
	half := yaw * math.Pi / 360

	return frame.Frame{
		Board:          frame.BoardID{WhoAmI: frame.WhoAmI, HWRev: 33, FWMajor: 3, FWMinor: 1},
		UpdateRateHz:   m.regs[frame.RegUpdateRateHz],
		AccelFSRG:      2,
		GyroFSRDPS:     2000,
		CalStatus:      frame.CalIMUComplete | frame.CalMagComplete,
		Capability:     frame.CapVelDisp | frame.CapYawReset,
		SensorStatus:   status,
		Timestamp:      uint32(elapsed.Milliseconds()),
		Yaw:            yaw,
		Roll:           roll,
		Pitch:          pitch,
		CompassHeading: heading,
		FusedHeading:   heading,
		Altitude:       120 + 0.5*math.Sin(t/5),
		LinearAccel:    accel,
		Quaternion:     frame.Quaternion{W: math.Cos(half), Z: math.Sin(half)},
		MPUTempC:       31.5,
		Raw: imu.Raw{
			Gz: 492, // 30 dps at 16.4 LSB/dps
			Ax: int16(g.X * 16384), Ay: int16(g.Y * 16384), Az: int16(g.Z * 16384),
			Mx: int16(200 * math.Cos(-yaw*math.Pi/180)), My: int16(200 * math.Sin(-yaw*math.Pi/180)), Mz: -400,
		},
		Pressure:      1013.25 - 0.12*(0.5*math.Sin(t/5)),
		PressureTempC: 29.8,
	}
}
