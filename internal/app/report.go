// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/relabs-tech/navx_ahrs/internal/ahrs"
)

// Report is the message published on TOPIC_AHRS: the latest snapshot plus
// the loop health that is not part of it.
type Report struct {
	ahrs.Snapshot
	State        string `json:"state"`
	Connected    bool   `json:"connected"`
	FailureCount uint64 `json:"failure_count"`
}

// reporter is the part of the facade a report is built from.
type reporter interface {
	Snapshot() ahrs.Snapshot
	State() ahrs.State
	IsConnected() bool
	FailureCount() uint64
}

func newReport(a reporter) Report {
	return Report{
		Snapshot:     a.Snapshot(),
		State:        a.State().String(),
		Connected:    a.IsConnected(),
		FailureCount: a.FailureCount(),
	}
}

// Control actions accepted on TOPIC_AHRS_CONTROL and POST /api/control.
const (
	ActionZeroYaw           = "zero_yaw"
	ActionResetDisplacement = "reset_displacement"
	ActionReset             = "reset"
)

// ControlCommand is the JSON body of a control message.
type ControlCommand struct {
	Action string `json:"action"`
}

// controller is the control surface of the facade.
type controller interface {
	ZeroYaw()
	ResetDisplacement()
	Reset()
}

// parseControl decodes and validates a control message.
func parseControl(payload []byte) (ControlCommand, error) {
	var cmd ControlCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return cmd, fmt.Errorf("invalid control message: %w", err)
	}
	cmd.Action = strings.ToLower(strings.TrimSpace(cmd.Action))
	switch cmd.Action {
	case ActionZeroYaw, ActionResetDisplacement, ActionReset:
		return cmd, nil
	default:
		return cmd, fmt.Errorf("unknown control action %q", cmd.Action)
	}
}

// applyControl runs the action named in payload against c.
func applyControl(c controller, payload []byte) (string, error) {
	cmd, err := parseControl(payload)
	if err != nil {
		return "", err
	}
	switch cmd.Action {
	case ActionZeroYaw:
		c.ZeroYaw()
	case ActionResetDisplacement:
		c.ResetDisplacement()
	case ActionReset:
		c.Reset()
	}
	return cmd.Action, nil
}

// formatReport renders one console line.
func formatReport(r Report) string {
	f := r.Frame
	motion := "still"
	if f.Moving() {
		motion = "moving"
	}
	return fmt.Sprintf(
		"[AHRS %-12s] YAW=%7.2f ROLL=%7.2f PITCH=%7.2f  ANGLE=%9.2f RATE=%7.2f  HDG=%6.2f  VEL=(%.3f, %.3f) DISP=(%.3f, %.3f) %s  upd=%d fail=%d",
		r.State,
		r.Yaw, f.Roll, f.Pitch,
		r.Angle, r.Rate,
		f.FusedHeading,
		r.Velocity.X, r.Velocity.Y,
		r.Displacement.X, r.Displacement.Y,
		motion,
		r.UpdateCount, r.FailureCount,
	)
}
