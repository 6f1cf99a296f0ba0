// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ahrs

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/relabs-tech/navx_ahrs/internal/bus"
	"github.com/relabs-tech/navx_ahrs/internal/frame"
	"github.com/relabs-tech/navx_ahrs/internal/orientation"
)

// loop owns the transport and the trackers. Only the loop goroutine touches
// the transport; control calls reach the trackers through mu.
type loop struct {
	tr     bus.Transport
	log    *zap.SugaredLogger
	clk    clock.Clock
	rateHz uint8
	dt     float64
	period time.Duration

	buf         []byte
	rateWritten bool

	mu         sync.Mutex
	angle      orientation.ContinuousAngle
	offset     *orientation.OffsetTracker
	motion     orientation.Integrator
	last       frame.Frame
	haveFrame  bool
	regs       []byte
	lastUpdate time.Time
	byteCount  uint64
	updates    uint64

	snap     atomic.Pointer[Snapshot]
	state    atomic.Int32
	failures atomic.Uint64

	shutdownErr error
	done        chan struct{}
}

func newLoop(tr bus.Transport, cfg Config) *loop {
	l := &loop{
		tr:     tr,
		log:    cfg.Logger,
		clk:    cfg.Clock,
		rateHz: cfg.UpdateRateHz,
		dt:     1 / float64(cfg.UpdateRateHz),
		period: cfg.period(),
		buf:    make([]byte, frame.Length),
		offset: orientation.NewOffsetTracker(cfg.YawHistoryLength),
		done:   make(chan struct{}),
	}
	l.snap.Store(&Snapshot{})
	l.state.Store(int32(Initializing))
	return l
}

// run drives one cycle per tick until ctx is cancelled, then shuts the
// transport down. Cancellation is only observed between cycles.
func (l *loop) run(ctx context.Context) {
	defer close(l.done)

	ticker := l.clk.Ticker(l.period)
	defer ticker.Stop()

	// Bus transactions are never interrupted halfway.
	ioCtx := context.WithoutCancel(ctx)
	for ctx.Err() == nil {
		l.cycle(ioCtx)

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
	l.shutdown()
}

func (l *loop) shutdown() {
	// Under mu so no control call can publish once the state has flipped.
	l.mu.Lock()
	l.state.Store(int32(Shutdown))
	l.mu.Unlock()
	l.shutdownErr = l.tr.Shutdown()
	if l.shutdownErr != nil {
		l.log.Warnw("ahrs: transport shutdown failed", "err", l.shutdownErr)
		return
	}
	l.log.Infow("ahrs: stopped", "updates", l.snapshot().UpdateCount, "failures", l.failures.Load())
}

// cycle performs one read-decode-publish step.
func (l *loop) cycle(ctx context.Context) {
	if !l.rateWritten {
		if err := l.tr.Write(ctx, frame.RegUpdateRateHz, l.rateHz); err != nil {
			l.fail(err)
			return
		}
		l.rateWritten = true
		l.log.Debugw("ahrs: update rate requested", "hz", l.rateHz)
	}

	if err := l.tr.Read(ctx, frame.RegWhoAmI, l.buf); err != nil {
		l.fail(err)
		return
	}
	f, err := frame.Decode(l.buf)
	if err != nil {
		l.fail(err)
		return
	}
	l.ingest(f, l.buf)

	if prev := State(l.state.Swap(int32(Streaming))); prev != Streaming {
		l.log.Infow("ahrs: streaming",
			"from", prev.String(),
			"firmware", f.FirmwareVersion(),
			"board_rate_hz", f.UpdateRateHz,
			"yaw_axis", f.YawAxis().String(),
		)
	}
}

func (l *loop) fail(err error) {
	n := l.failures.Inc()
	if l.state.CompareAndSwap(int32(Streaming), int32(Degraded)) {
		l.log.Warnw("ahrs: degraded", "err", err, "failures", n)
		return
	}
	l.log.Debugw("ahrs: cycle failed", "state", l.State().String(), "err", err, "failures", n)
}

// ingest feeds a decoded frame through the trackers and publishes the
// result. A frame repeating the previous sensor timestamp only refreshes
// connection health.
func (l *loop) ingest(f frame.Frame, raw []byte) {
	now := l.clk.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastUpdate = now
	l.byteCount += uint64(len(raw))
	repeat := l.haveFrame && f.Timestamp == l.last.Timestamp
	l.last = f
	l.haveFrame = true
	l.regs = bytes.Clone(raw)

	if !repeat {
		l.angle.Update(f.Yaw)
		l.offset.Update(f.Yaw)
		l.motion.Update(f.LinearAccel, l.dt, f.Moving())
		l.updates++
	}
	l.publishLocked()
}

func (l *loop) publishLocked() {
	if l.State() == Shutdown {
		return
	}
	f := l.last
	l.snap.Store(&Snapshot{
		Frame:        f,
		Yaw:          l.offset.Apply(f.Yaw),
		Angle:        l.angle.Angle(),
		Rate:         l.angle.Rate() * float64(l.rateHz),
		Velocity:     l.motion.Velocity(),
		Displacement: l.motion.Displacement(),
		AccelTilt:    orientation.ComputePoseFromAccel(float64(f.Raw.Ax), float64(f.Raw.Ay), float64(f.Raw.Az)),
		LastUpdate:   l.lastUpdate,
		ByteCount:    l.byteCount,
		UpdateCount:  l.updates,
		Registers:    l.regs,
	})
}

func (l *loop) zeroYaw() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.offset.Zero()
	l.publishLocked()
}

func (l *loop) resetDisplacement() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.motion.Reset()
	l.publishLocked()
}

// reset zeroes yaw, clears integration, reseeds the continuous angle and
// restarts the health counters.
func (l *loop) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.offset.Zero()
	l.motion.Reset()
	l.angle.Reset()
	l.byteCount = 0
	l.updates = 0
	l.publishLocked()
}

func (l *loop) snapshot() *Snapshot { return l.snap.Load() }

func (l *loop) State() State { return State(l.state.Load()) }
