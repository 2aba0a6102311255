// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// DefaultPath is the config file the binaries load from their working directory.
const DefaultPath = "gps_logger_config.txt"

// GPS sources.
const (
	SourceSerial = "serial"
	SourceFile   = "file"
	SourceSim    = "sim"
)

// Web track sources.
const (
	TrackFromSQLite = "sqlite"
	TrackFromMQTT   = "mqtt"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTEnable          bool
	MQTTBroker          string
	MQTTClientIDLogger  string
	MQTTClientIDWeb     string
	MQTTClientIDConsole string

	// Topics
	TopicSample string

	// GPS input
	GPSSource     string // "serial", "file" or "sim"
	GPSSerialPort string
	GPSBaudRate   int
	NMEAInputFile string

	// Persistence
	LogDir    string
	CSVEnable bool
	DBPath    string

	// Web Server
	WebServerPort   int
	WebTrackSource  string // "sqlite" or "mqtt"
	WebPushInterval int    // milliseconds

	// Simulator
	SimScenario string // optional YAML file
	SimInterval int    // milliseconds, 0 keeps the scenario's value
}

// Defaults returns the values used for keys absent from the file.
func Defaults() *Config {
	return &Config{
		MQTTEnable:          false,
		MQTTBroker:          "tcp://localhost:1883",
		MQTTClientIDLogger:  "gps-logger",
		MQTTClientIDWeb:     "gps-logger-web",
		MQTTClientIDConsole: "gps-logger-console",
		TopicSample:         "gps/sample",
		GPSSource:           SourceSerial,
		GPSSerialPort:       "/dev/serial0",
		GPSBaudRate:         9600,
		NMEAInputFile:       "data/output.nmea",
		LogDir:              "logs",
		CSVEnable:           true,
		DBPath:              "data/gps_logger.db",
		WebServerPort:       8080,
		WebTrackSource:      TrackFromSQLite,
		WebPushInterval:     1000,
	}
}

// Package-level singleton state. InitGlobal sets it once; Get reads it
// under the read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads KEY=VALUE lines over Defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Defaults()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_ENABLE":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid MQTT_ENABLE %q: %w", value, err)
		}
		c.MQTTEnable = b
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_LOGGER":
		c.MQTTClientIDLogger = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_SAMPLE":
		c.TopicSample = value

	// GPS input
	case "GPS_SOURCE":
		switch value {
		case SourceSerial, SourceFile, SourceSim:
			c.GPSSource = value
		default:
			return fmt.Errorf("GPS_SOURCE must be serial, file or sim, got %q", value)
		}
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		if rate <= 0 {
			return fmt.Errorf("GPS_BAUD_RATE must be positive, got %d", rate)
		}
		c.GPSBaudRate = rate
	case "NMEA_INPUT_FILE":
		c.NMEAInputFile = value

	// Persistence
	case "LOG_DIR":
		c.LogDir = value
	case "CSV_ENABLE":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid CSV_ENABLE %q: %w", value, err)
		}
		c.CSVEnable = b
	case "DB_PATH":
		c.DBPath = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", port)
		}
		c.WebServerPort = port
	case "WEB_TRACK_SOURCE":
		switch value {
		case TrackFromSQLite, TrackFromMQTT:
			c.WebTrackSource = value
		default:
			return fmt.Errorf("WEB_TRACK_SOURCE must be sqlite or mqtt, got %q", value)
		}
	case "WEB_PUSH_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_PUSH_INTERVAL %q: %w", value, err)
		}
		if interval <= 0 {
			return fmt.Errorf("WEB_PUSH_INTERVAL must be positive, got %d", interval)
		}
		c.WebPushInterval = interval

	// Simulator
	case "SIM_SCENARIO":
		c.SimScenario = value
	case "SIM_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SIM_INTERVAL %q: %w", value, err)
		}
		if interval < 0 {
			return fmt.Errorf("SIM_INTERVAL must not be negative, got %d", interval)
		}
		c.SimInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks the combinations a single key cannot.
func (c *Config) validate() error {
	if c.MQTTEnable && c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required when MQTT_ENABLE is true")
	}
	if c.MQTTEnable && c.TopicSample == "" {
		return fmt.Errorf("TOPIC_SAMPLE is required when MQTT_ENABLE is true")
	}
	if c.GPSSource == SourceSerial && c.GPSSerialPort == "" {
		return fmt.Errorf("GPS_SERIAL_PORT is required for GPS_SOURCE=serial")
	}
	if c.GPSSource == SourceFile && c.NMEAInputFile == "" {
		return fmt.Errorf("NMEA_INPUT_FILE is required for GPS_SOURCE=file")
	}
	if c.CSVEnable && c.LogDir == "" {
		return fmt.Errorf("LOG_DIR is required when CSV_ENABLE is true")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.WebTrackSource == TrackFromMQTT && c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required for WEB_TRACK_SOURCE=mqtt")
	}
	return nil
}

// InitGlobal loads the configuration once; later calls do nothing.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
