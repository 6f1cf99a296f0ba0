// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/relabs-tech/navx_ahrs/internal/config"
)

// RunRegisterDebug is the standalone register viewer: it owns the board
// directly, without MQTT, and serves the same HTTP surface as RunWeb on
// addr. Control requests are applied to the local facade.
func RunRegisterDebug(ctx context.Context, log *zap.SugaredLogger, addr, staticDir string, useMock bool) error {
	cfg := config.Get()

	a, err := openAHRS(ctx, cfg, log, useMock)
	if err != nil {
		return fmt.Errorf("failed to start AHRS: %w", err)
	}
	defer a.Close()

	s := newWebServer(log, func(payload []byte) error {
		_, err := applyControl(a, payload)
		return err
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go feedLoop(ctx, clock.New(), time.Duration(cfg.PublishInterval)*time.Millisecond, a, s)

	log.Infof("open http://localhost%s in your browser", addr)
	return serve(ctx, log, addr, s.routes(staticDir))
}

// feedLoop copies a fresh report from a into s on every tick.
func feedLoop(ctx context.Context, clk clock.Clock, interval time.Duration, a liveReporter, s *webServer) {
	ticker := clk.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.Done():
			return
		case <-ticker.C:
			if r := newReport(a); r.UpdateCount > 0 {
				s.update(r)
			}
		}
	}
}
