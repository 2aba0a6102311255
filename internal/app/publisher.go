// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gps_logger/internal/gps"
	"github.com/relabs-tech/gps_logger/internal/logstore"
)

// connectMQTT connects a client and waits for the result.
func connectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", broker, token.Error())
	}
	return client, nil
}

// Publisher is an ingest sink that publishes every accepted sample as a
// retained JSON record. Publish failures are logged, never fatal.
type Publisher struct {
	client mqtt.Client
	topic  string
}

func NewPublisher(client mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

func (p *Publisher) Write(s gps.Sample) error {
	payload, err := json.Marshal(logstore.RecordFromSample(s))
	if err != nil {
		log.Printf("gps_logger: sample JSON marshal error: %v", err)
		return nil
	}

	token := p.client.Publish(p.topic, 0, true, payload)
	token.Wait()
	if token.Error() != nil {
		log.Printf("gps_logger: publish error on %s: %v", p.topic, token.Error())
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

// DecodeSample is the inverse of what Publisher puts on the wire.
func DecodeSample(payload []byte) (gps.Sample, error) {
	var r logstore.Record
	if err := json.Unmarshal(payload, &r); err != nil {
		return gps.Sample{}, fmt.Errorf("invalid sample payload: %w", err)
	}
	return r.Sample(), nil
}
