// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ahrs

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Update rate limits accepted by the board firmware.
const (
	MinUpdateRateHz     = 4
	MaxUpdateRateHz     = 200
	DefaultUpdateRateHz = 50
)

// DefaultConnectTimeout is how long after the last good sample the board
// still counts as connected.
const DefaultConnectTimeout = time.Second

// Config holds the acquisition settings. Zero fields take defaults.
type Config struct {
	UpdateRateHz     uint8
	ConnectTimeout   time.Duration
	YawHistoryLength int

	Logger *zap.SugaredLogger
	Clock  clock.Clock
}

func (c Config) withDefaults() Config {
	if c.UpdateRateHz == 0 {
		c.UpdateRateHz = DefaultUpdateRateHz
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.YawHistoryLength < 1 {
		c.YawHistoryLength = 1
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop().Sugar()
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	return c
}

// Validate checks the update rate against the firmware limits.
func (c Config) Validate() error {
	if c.UpdateRateHz < MinUpdateRateHz || c.UpdateRateHz > MaxUpdateRateHz {
		return fmt.Errorf("update rate %d Hz out of range [%d, %d]", c.UpdateRateHz, MinUpdateRateHz, MaxUpdateRateHz)
	}
	return nil
}

func (c Config) period() time.Duration {
	return time.Second / time.Duration(c.UpdateRateHz)
}
