// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ahrs

import "fmt"

// State is the acquisition loop's lifecycle stage.
type State int32

const (
	// Initializing: the update rate has not been set or no valid frame has
	// been decoded yet.
	Initializing State = iota
	// Streaming: the last cycle produced a frame.
	Streaming
	// Degraded: the last cycle failed after streaming had started. The last
	// good snapshot stays readable.
	Degraded
	// Shutdown is terminal.
	Shutdown
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Streaming:
		return "streaming"
	case Degraded:
		return "degraded"
	case Shutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
