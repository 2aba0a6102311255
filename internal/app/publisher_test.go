// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gps_logger/internal/gps"
	"github.com/relabs-tech/gps_logger/internal/logstore"
)

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type published struct {
	topic    string
	retained bool
	payload  []byte
}

// fakeClient records publishes; the embedded interface panics on anything else.
type fakeClient struct {
	mqtt.Client
	sent         []published
	err          error
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return doneToken{err: c.err}
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestPublisher_RoundTrip(t *testing.T) {
	client := &fakeClient{}
	pub := NewPublisher(client, "gps/sample")

	s := drive(1)[0]
	require.NoError(t, pub.Write(s))
	require.Len(t, client.sent, 1)
	assert.Equal(t, "gps/sample", client.sent[0].topic)
	assert.True(t, client.sent[0].retained)

	got, err := DecodeSample(client.sent[0].payload)
	require.NoError(t, err)
	assert.Equal(t, logstore.RecordFromSample(s).Row(), logstore.RecordFromSample(got).Row())

	pub.Close()
	assert.True(t, client.disconnected)
}

func TestPublisher_FailureIsNotFatal(t *testing.T) {
	client := &fakeClient{err: errors.New("not connected")}
	pub := NewPublisher(client, "gps/sample")
	assert.NoError(t, pub.Write(drive(1)[0]))
}

func TestDecodeSample_Invalid(t *testing.T) {
	_, err := DecodeSample([]byte("{"))
	assert.Error(t, err)
}

func TestFormatSample(t *testing.T) {
	line := FormatSample(drive(1)[0])
	assert.True(t, strings.HasPrefix(line, "[GPS ] 08:00:00.000 lat=43.073100 lon=-89.401200"), line)
	assert.Contains(t, line, "alt=260.0m")
	assert.Contains(t, line, "sats=10")

	sparse := FormatSample(gps.Sample{Latitude: 1, Longitude: 2})
	assert.Contains(t, sparse, "alt=-m")
	assert.Contains(t, sparse, "sats=-")
	assert.Contains(t, sparse, "hdop=-")
}
