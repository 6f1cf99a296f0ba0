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
	"time"
)

// Transport kinds accepted by TRANSPORT.
const (
	TransportSPI    = "spi"
	TransportI2C    = "i2c"
	TransportSerial = "serial"
	TransportMock   = "mock"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string

	// Topics
	TopicAHRS        string
	TopicAHRSControl string

	// Board transport: spi, i2c, serial or mock
	Transport string

	// SPI
	SPIDevice    string
	SPIClockHz   int
	SPIChunkSize int // 0 = whole block in one burst

	// I2C
	I2CBus       string
	I2CAddr      uint16
	I2CClockHz   int // 0 = leave bus speed alone
	I2CChunkSize int

	// Serial
	SerialPort     string
	SerialBaudRate int
	SerialDataMode string // "processed" or "raw"

	// Acquisition
	UpdateRateHz     int // 4-200
	ConnectTimeoutMS int
	YawHistoryLength int

	// Timing
	PublishInterval    int // milliseconds
	ConsoleLogInterval int // milliseconds

	// Web Server
	WebServerPort int
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through Get, so nothing modifies the
//     configuration without holding configMu.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock (Lock) for initialization,
//     read lock (RLock) for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used for every key the file leaves out.
func Default() *Config {
	return &Config{
		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDProducer: "ahrs-producer",
		MQTTClientIDConsole:  "ahrs-console",
		MQTTClientIDWeb:      "ahrs-web",
		TopicAHRS:            "inertial/ahrs",
		TopicAHRSControl:     "inertial/ahrs/control",
		Transport:            TransportSPI,
		SPIDevice:            "/dev/spidev0.0",
		SPIClockHz:           200000,
		I2CBus:               "",
		I2CAddr:              0x32,
		I2CChunkSize:         7,
		SerialPort:           "/dev/ttyACM0",
		SerialBaudRate:       57600,
		SerialDataMode:       "processed",
		UpdateRateHz:         50,
		ConnectTimeoutMS:     1000,
		YawHistoryLength:     1,
		PublishInterval:      100,
		ConsoleLogInterval:   500,
		WebServerPort:        8080,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines on top of Default(). Blank lines and lines
// starting with # are ignored.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
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

// intInRange parses value as a base-10 integer within [lo, hi].
func intInRange(key, value string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, lo, hi, v)
	}
	return v, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	// Topics
	case "TOPIC_AHRS":
		c.TopicAHRS = value
	case "TOPIC_AHRS_CONTROL":
		c.TopicAHRSControl = value

	// Transport
	case "TRANSPORT":
		switch v := strings.ToLower(value); v {
		case TransportSPI, TransportI2C, TransportSerial, TransportMock:
			c.Transport = v
		default:
			return fmt.Errorf("TRANSPORT must be spi, i2c, serial or mock, got %q", value)
		}

	// SPI
	case "SPI_DEVICE":
		c.SPIDevice = value
	case "SPI_CLOCK_HZ":
		c.SPIClockHz, err = intInRange(key, value, 1, 10000000)
	case "SPI_CHUNK_SIZE":
		c.SPIChunkSize, err = intInRange(key, value, 0, 255)

	// I2C
	case "I2C_BUS":
		c.I2CBus = value
	case "I2C_ADDR":
		addr, perr := strconv.ParseUint(value, 0, 7)
		if perr != nil {
			return fmt.Errorf("invalid I2C_ADDR %q: %w", value, perr)
		}
		c.I2CAddr = uint16(addr)
	case "I2C_CLOCK_HZ":
		c.I2CClockHz, err = intInRange(key, value, 0, 3400000)
	case "I2C_CHUNK_SIZE":
		c.I2CChunkSize, err = intInRange(key, value, 1, 255)

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		c.SerialBaudRate, err = intInRange(key, value, 1200, 921600)
	case "SERIAL_DATA_MODE":
		switch v := strings.ToLower(value); v {
		case "processed", "raw":
			c.SerialDataMode = v
		default:
			return fmt.Errorf("SERIAL_DATA_MODE must be processed or raw, got %q", value)
		}

	// Acquisition
	case "UPDATE_RATE_HZ":
		c.UpdateRateHz, err = intInRange(key, value, 4, 200)
	case "CONNECT_TIMEOUT_MS":
		c.ConnectTimeoutMS, err = intInRange(key, value, 1, 60000)
	case "YAW_HISTORY_LENGTH":
		c.YawHistoryLength, err = intInRange(key, value, 1, 256)

	// Timing
	case "PUBLISH_INTERVAL":
		c.PublishInterval, err = intInRange(key, value, 1, 60000)
	case "CONSOLE_LOG_INTERVAL":
		c.ConsoleLogInterval, err = intInRange(key, value, 1, 60000)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = intInRange(key, value, 1, 65535)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks that the settings the selected transport needs are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicAHRS == "" {
		return fmt.Errorf("TOPIC_AHRS is required")
	}
	switch c.Transport {
	case TransportSPI:
		if c.SPIDevice == "" {
			return fmt.Errorf("SPI_DEVICE is required for TRANSPORT=spi")
		}
	case TransportSerial:
		if c.SerialPort == "" {
			return fmt.Errorf("SERIAL_PORT is required for TRANSPORT=serial")
		}
	}
	return nil
}

// ConnectTimeout returns CONNECT_TIMEOUT_MS as a duration.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMS) * time.Millisecond
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
// Acquires write lock (configMu.Lock) during initialization to prevent concurrent access.
// This is the only function that can set globalConfig.
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
