// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/navx_ahrs/internal/ahrs"
	"github.com/relabs-tech/navx_ahrs/internal/config"
	"github.com/relabs-tech/navx_ahrs/internal/sensors"
)

// openAHRS builds the configured transport and starts the facade on it.
// useMock forces the simulated board whatever TRANSPORT says.
func openAHRS(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger, useMock bool) (*ahrs.AHRS, error) {
	if useMock {
		c := *cfg
		c.Transport = config.TransportMock
		cfg = &c
	}
	tr, err := sensors.NewTransport(cfg, log)
	if err != nil {
		return nil, err
	}
	return ahrs.New(ctx, tr, ahrs.Config{
		UpdateRateHz:     uint8(cfg.UpdateRateHz),
		ConnectTimeout:   cfg.ConnectTimeout(),
		YawHistoryLength: cfg.YawHistoryLength,
		Logger:           log,
	})
}

// RunAHRSProducer runs the facade and publishes a Report on TOPIC_AHRS
// every PUBLISH_INTERVAL until ctx is cancelled. Control messages on
// TOPIC_AHRS_CONTROL are applied as they arrive.
func RunAHRSProducer(ctx context.Context, log *zap.SugaredLogger, useMock bool) error {
	cfg := config.Get()
	log.Infow("starting AHRS producer", "transport", cfg.Transport, "mock", useMock, "rate_hz", cfg.UpdateRateHz)

	a, err := openAHRS(ctx, cfg, log, useMock)
	if err != nil {
		return fmt.Errorf("failed to start AHRS: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warnw("AHRS shutdown", "error", err)
		}
	}()

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	defer client.Disconnect(250)

	token := client.Subscribe(cfg.TopicAHRSControl, 1, func(_ mqtt.Client, msg mqtt.Message) {
		action, err := applyControl(a, msg.Payload())
		if err != nil {
			log.Warnw("control message rejected", "topic", msg.Topic(), "error", err)
			return
		}
		log.Infow("control applied", "action", action)
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT subscribe %s: %w", cfg.TopicAHRSControl, token.Error())
	}
	log.Infow("connected to MQTT, starting publish loop", "broker", cfg.MQTTBroker, "topic", cfg.TopicAHRS)

	return publishLoop(ctx, clock.New(), time.Duration(cfg.PublishInterval)*time.Millisecond, a, log,
		func(payload []byte) error {
			if token := client.Publish(cfg.TopicAHRS, 0, true, payload); token.Wait() && token.Error() != nil {
				return token.Error()
			}
			return nil
		})
}

// liveReporter is a reporter whose loop can stop underneath it.
type liveReporter interface {
	reporter
	Done() <-chan struct{}
}

// publishLoop hands a marshalled Report of a to publish on every tick.
// Publish errors are logged and the loop keeps going. It returns when ctx
// is done or the facade stops.
func publishLoop(ctx context.Context, clk clock.Clock, interval time.Duration, a liveReporter, log *zap.SugaredLogger, publish func([]byte) error) error {
	ticker := clk.Ticker(interval)
	defer ticker.Stop()

	lastState := ""
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.Done():
			return fmt.Errorf("AHRS loop stopped")
		case <-ticker.C:
		}

		r := newReport(a)
		if r.State != lastState {
			log.Infow("AHRS state", "state", r.State, "failures", r.FailureCount)
			lastState = r.State
		}
		if r.UpdateCount == 0 {
			continue
		}

		payload, err := json.Marshal(r)
		if err != nil {
			log.Errorw("json marshal error", "error", err)
			continue
		}
		if err := publish(payload); err != nil {
			log.Warnw("MQTT publish error", "error", err)
		}
	}
}
