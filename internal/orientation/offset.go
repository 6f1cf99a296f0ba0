// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import "gonum.org/v1/gonum/stat"

// OffsetTracker rebases yaw so that "now" can be declared zero.
//
// It keeps a short window of raw yaw samples. Zero captures their mean as
// the offset; Apply subtracts it and wraps back into (-180, 180].
type OffsetTracker struct {
	history []float64
	next    int
	filled  int
	offset  float64
}

// NewOffsetTracker returns a tracker averaging the last n samples when
// zeroing. n below 1 means 1.
func NewOffsetTracker(n int) *OffsetTracker {
	if n < 1 {
		n = 1
	}
	return &OffsetTracker{history: make([]float64, n)}
}

// Update records a raw yaw sample.
func (o *OffsetTracker) Update(raw float64) {
	o.history[o.next] = raw
	o.next = (o.next + 1) % len(o.history)
	if o.filled < len(o.history) {
		o.filled++
	}
}

// Zero makes the averaged recent raw yaw the new zero. With no samples yet
// the offset is cleared.
func (o *OffsetTracker) Zero() {
	if o.filled == 0 {
		o.offset = 0
		return
	}
	// Unwrap around the first sample so 179 and -179 average to 180, not 0.
	ref := o.history[0]
	window := make([]float64, o.filled)
	for i, v := range o.history[:o.filled] {
		window[i] = ref + Wrap180(v-ref)
	}
	o.offset = Wrap180(stat.Mean(window, nil))
}

// Apply returns raw rebased on the current offset.
func (o *OffsetTracker) Apply(raw float64) float64 { return Wrap180(raw - o.offset) }

func (o *OffsetTracker) Offset() float64 { return o.offset }

// Reset drops the offset and the sample history.
func (o *OffsetTracker) Reset() {
	clear(o.history)
	o.next, o.filled, o.offset = 0, 0, 0
}
