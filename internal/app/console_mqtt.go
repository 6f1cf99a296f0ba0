// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/navx_ahrs/internal/config"
)

// RunConsoleMQTT prints one line per Report received on TOPIC_AHRS until
// ctx is cancelled.
func RunConsoleMQTT(ctx context.Context, log *zap.SugaredLogger) error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Infof("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicAHRS, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r Report
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Warnf("console: report unmarshal error: %v", err)
			return
		}
		fmt.Println(formatReport(r))
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Infof("console: subscribed to %s", cfg.TopicAHRS)

	<-ctx.Done()
	log.Info("console: shutting down")
	return nil
}
