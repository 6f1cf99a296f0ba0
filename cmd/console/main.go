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
	useMock := flag.Bool("mock", false, "use the simulated board instead of TRANSPORT")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Info("starting AHRS console (in-process)")

	if err := config.InitGlobal(*configPath); err != nil {
		sugar.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunConsole(ctx, sugar, os.Stdout, *useMock); err != nil {
		sugar.Fatalf("fatal: %v", err)
	}
}
