// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gps_logger/internal/config"
	"github.com/relabs-tech/gps_logger/internal/gps"
)

// RunConsoleMQTT prints every sample published by the logger until Ctrl+C.
func RunConsoleMQTT() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicSample, 0, func(_ mqtt.Client, msg mqtt.Message) {
		s, err := DecodeSample(msg.Payload())
		if err != nil {
			log.Printf("console: %v", err)
			return
		}
		fmt.Println(FormatSample(s))
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicSample)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

// FormatSample renders one console line. Unknown fields print as "-".
func FormatSample(s gps.Sample) string {
	opt := func(p *float64, format string) string {
		if p == nil {
			return "-"
		}
		return fmt.Sprintf(format, *p)
	}
	sats := "-"
	if s.Satellites != nil {
		sats = fmt.Sprintf("%d", *s.Satellites)
	}
	return fmt.Sprintf(
		"[GPS ] %s lat=%.6f lon=%.6f alt=%sm speed=%.1fkm/h course=%s° sats=%s hdop=%s fix=%d",
		s.Timestamp.Format("15:04:05.000"), s.Latitude, s.Longitude,
		opt(s.Altitude, "%.1f"), s.SpeedKmh, opt(s.Course, "%.1f"),
		sats, opt(s.HDOP, "%.1f"), s.FixQuality,
	)
}
