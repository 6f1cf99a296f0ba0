// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/relabs-tech/navx_ahrs/internal/config"
)

// RunConsole runs the facade in-process and prints a report line to out
// every CONSOLE_LOG_INTERVAL until ctx is cancelled.
func RunConsole(ctx context.Context, log *zap.SugaredLogger, out io.Writer, useMock bool) error {
	cfg := config.Get()

	a, err := openAHRS(ctx, cfg, log, useMock)
	if err != nil {
		return fmt.Errorf("failed to start AHRS: %w", err)
	}
	defer a.Close()

	err = printLoop(ctx, clock.New(), time.Duration(cfg.ConsoleLogInterval)*time.Millisecond, a, out)
	if err != nil {
		return err
	}
	return a.Close()
}

func printLoop(ctx context.Context, clk clock.Clock, interval time.Duration, a liveReporter, out io.Writer) error {
	ticker := clk.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.Done():
			return fmt.Errorf("AHRS loop stopped")
		case <-ticker.C:
			if _, err := fmt.Fprintln(out, formatReport(newReport(a))); err != nil {
				return err
			}
		}
	}
}
