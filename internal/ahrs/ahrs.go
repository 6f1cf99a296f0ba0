// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package ahrs runs the acquisition loop for an AHRS board and exposes the
// latest derived orientation and motion state.
//
// A single background goroutine owns the bus. It reads the register block
// every 1/UpdateRateHz, decodes it, feeds the continuous-angle, yaw-offset
// and motion trackers, then publishes an immutable Snapshot. Readers load
// the latest snapshot without locking and never see fields from two
// different cycles.
package ahrs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"go.uber.org/multierr"

	"github.com/relabs-tech/navx_ahrs/internal/bus"
	"github.com/relabs-tech/navx_ahrs/internal/frame"
)

// Sensor is the liveness and lifetime surface of a device.
type Sensor interface {
	IsConnected() bool
	Close() error
}

// TelemetrySource exposes a flat set of named values for dashboards and
// logs.
type TelemetrySource interface {
	Telemetry() map[string]any
}

// FeedbackSource is a single-value process variable for a control loop:
// a position and its rate of change.
type FeedbackSource interface {
	Angle() float64
	Rate() float64
}

var (
	_ Sensor          = (*AHRS)(nil)
	_ TelemetrySource = (*AHRS)(nil)
	_ FeedbackSource  = (*AHRS)(nil)
)

// AHRS is a running acquisition loop plus its read and control surface.
type AHRS struct {
	l       *loop
	clk     clock.Clock
	timeout time.Duration

	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New initializes tr and starts the acquisition loop. The AHRS owns tr from
// here on: if New fails tr has already been shut down, otherwise Close shuts
// it down. Cancelling ctx also stops the loop.
func New(ctx context.Context, tr bus.Transport, cfg Config) (*AHRS, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, multierr.Append(fmt.Errorf("ahrs: %w", err), tr.Shutdown())
	}
	if err := tr.Init(ctx); err != nil {
		return nil, multierr.Append(fmt.Errorf("ahrs: transport init: %w", err), tr.Shutdown())
	}

	l := newLoop(tr, cfg)
	runCtx, cancel := context.WithCancel(ctx)
	a := &AHRS{
		l:       l,
		clk:     cfg.Clock,
		timeout: cfg.ConnectTimeout,
		cancel:  cancel,
	}
	cfg.Logger.Infow("ahrs: started", "transport", fmt.Sprint(tr), "rate_hz", cfg.UpdateRateHz)
	go l.run(runCtx)
	return a, nil
}

// Close stops the loop at the next cycle boundary, waits for it and
// returns the transport shutdown error. Later calls return the same error.
func (a *AHRS) Close() error {
	a.closeOnce.Do(a.cancel)
	<-a.l.done
	return a.l.shutdownErr
}

// Done is closed once the loop has exited and the transport is shut down.
func (a *AHRS) Done() <-chan struct{} { return a.l.done }

func (a *AHRS) snap() *Snapshot { return a.l.snapshot() }

// Snapshot returns the latest published snapshot.
func (a *AHRS) Snapshot() Snapshot { return *a.snap() }

func (a *AHRS) State() State { return a.l.State() }

// FailureCount is the number of failed cycles since start.
func (a *AHRS) FailureCount() uint64 { return a.l.failures.Load() }

// IsConnected reports whether a sample arrived within the connect timeout.
func (a *AHRS) IsConnected() bool {
	last := a.snap().LastUpdate
	return !last.IsZero() && a.clk.Since(last) < a.timeout
}

// ZeroYaw makes the current heading read as zero. The continuous angle is
// not affected.
func (a *AHRS) ZeroYaw() { a.l.zeroYaw() }

// ResetDisplacement zeroes integrated velocity and displacement.
func (a *AHRS) ResetDisplacement() { a.l.resetDisplacement() }

// Reset zeroes yaw, integration, the continuous angle and the byte and
// update counters.
func (a *AHRS) Reset() { a.l.reset() }

// Yaw is the zero-offset adjusted yaw in (-180, 180] degrees.
func (a *AHRS) Yaw() float64 { return a.snap().Yaw }

func (a *AHRS) Pitch() float64 { return a.snap().Frame.Pitch }

func (a *AHRS) Roll() float64 { return a.snap().Frame.Roll }

// CompassHeading is the tilt-compensated magnetometer heading in [0, 360).
func (a *AHRS) CompassHeading() float64 { return a.snap().Frame.CompassHeading }

// FusedHeading blends gyro and magnetometer data; only meaningful when the
// magnetometer is calibrated and undisturbed.
func (a *AHRS) FusedHeading() float64 { return a.snap().Frame.FusedHeading }

func (a *AHRS) Quaternion() frame.Quaternion { return a.snap().Frame.Quaternion }

// WorldLinearAccel is gravity-compensated acceleration in g.
func (a *AHRS) WorldLinearAccel() r3.Vector { return a.snap().Frame.LinearAccel }

func (a *AHRS) RawGyro() r3.Vector { return a.snap().Frame.Raw.Gyro() }

func (a *AHRS) RawAccel() r3.Vector { return a.snap().Frame.Raw.Accel() }

func (a *AHRS) RawMag() r3.Vector { return a.snap().Frame.Raw.Mag() }

// Pressure in millibar.
func (a *AHRS) Pressure() float64 { return a.snap().Frame.Pressure }

// Altitude in metres; check IsAltitudeValid.
func (a *AHRS) Altitude() float64 { return a.snap().Frame.Altitude }

func (a *AHRS) IsAltitudeValid() bool { return a.snap().Frame.AltitudeValid() }

// TempC is the IMU die temperature.
func (a *AHRS) TempC() float64 { return a.snap().Frame.MPUTempC }

func (a *AHRS) PressureTempC() float64 { return a.snap().Frame.PressureTempC }

func (a *AHRS) IsMoving() bool { return a.snap().Frame.Moving() }

func (a *AHRS) IsRotating() bool { return a.snap().Frame.Rotating() }

func (a *AHRS) IsCalibrating() bool { return a.snap().Frame.Calibrating() }

func (a *AHRS) IsMagnetometerCalibrated() bool { return a.snap().Frame.MagnetometerCalibrated() }

func (a *AHRS) IsMagneticDisturbance() bool { return a.snap().Frame.MagneticDisturbance() }

// Velocity in m/s on X and Y.
func (a *AHRS) Velocity() r3.Vector { return a.snap().Velocity }

// Displacement in metres on X and Y.
func (a *AHRS) Displacement() r3.Vector { return a.snap().Displacement }

func (a *AHRS) ByteCount() uint64 { return a.snap().ByteCount }

func (a *AHRS) UpdateCount() uint64 { return a.snap().UpdateCount }

// ActualUpdateRate is the rate the board reports it is running at, which
// may differ from the requested one.
func (a *AHRS) ActualUpdateRate() uint8 { return a.snap().Frame.UpdateRateHz }

func (a *AHRS) FirmwareVersion() string { return a.snap().Frame.FirmwareVersion() }

func (a *AHRS) BoardYawAxis() frame.YawAxis { return a.snap().Frame.YawAxis() }

// Angle is the continuous yaw total in degrees; it does not wrap.
func (a *AHRS) Angle() float64 { return a.snap().Angle }

// Rate is the yaw rate in degrees per second.
func (a *AHRS) Rate() float64 { return a.snap().Rate }

// Telemetry returns the latest snapshot as flat named values.
func (a *AHRS) Telemetry() map[string]any {
	s := a.snap()
	f := s.Frame
	return map[string]any{
		"State":                    a.State().String(),
		"IsConnected":              a.IsConnected(),
		"Yaw":                      s.Yaw,
		"Pitch":                    f.Pitch,
		"Roll":                     f.Roll,
		"CompassHeading":           f.CompassHeading,
		"FusedHeading":             f.FusedHeading,
		"Angle":                    s.Angle,
		"Rate":                     s.Rate,
		"LinearWorldAccelX":        f.LinearAccel.X,
		"LinearWorldAccelY":        f.LinearAccel.Y,
		"LinearWorldAccelZ":        f.LinearAccel.Z,
		"QuaternionW":              f.Quaternion.W,
		"QuaternionX":              f.Quaternion.X,
		"QuaternionY":              f.Quaternion.Y,
		"QuaternionZ":              f.Quaternion.Z,
		"VelocityX":                s.Velocity.X,
		"VelocityY":                s.Velocity.Y,
		"DisplacementX":            s.Displacement.X,
		"DisplacementY":            s.Displacement.Y,
		"Altitude":                 f.Altitude,
		"IsAltitudeValid":          f.AltitudeValid(),
		"Pressure":                 f.Pressure,
		"TempC":                    f.MPUTempC,
		"PressureTempC":            f.PressureTempC,
		"IsMoving":                 f.Moving(),
		"IsRotating":               f.Rotating(),
		"IsCalibrating":            f.Calibrating(),
		"IsMagnetometerCalibrated": f.MagnetometerCalibrated(),
		"IsMagneticDisturbance":    f.MagneticDisturbance(),
		"ByteCount":                s.ByteCount,
		"UpdateCount":              s.UpdateCount,
		"FailureCount":             a.FailureCount(),
		"FirmwareVersion":          f.FirmwareVersion(),
		"BoardYawAxis":             f.YawAxis().String(),
	}
}
