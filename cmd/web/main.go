// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/relabs-tech/navx_ahrs/internal/app"
	"github.com/relabs-tech/navx_ahrs/internal/config"
)

func main() {
	configPath := flag.String("config", "./ahrs_config.txt", "path to configuration file")
	staticDir := flag.String("static", "web", "directory served at /")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Info("starting AHRS web server (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		sugar.Fatalf("failed to load config: %v", err)
	}

	sugar.Info("Note: live data requires the AHRS producer to be running (sudo ./ahrs_producer)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunWeb(ctx, sugar, *staticDir); err != nil {
		sugar.Fatalf("fatal: %v", err)
	}
}
