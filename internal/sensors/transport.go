// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"io"

	"github.com/benbjohnson/clock"
	serial "github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/navx_ahrs/internal/bus"
	"github.com/relabs-tech/navx_ahrs/internal/config"
)

// NewTransport builds the board transport selected by cfg.Transport. The
// returned transport is not initialized yet; ahrs.New does that.
func NewTransport(cfg *config.Config, log *zap.SugaredLogger) (bus.Transport, error) {
	switch cfg.Transport {
	case config.TransportMock:
		log.Infow("transport: simulated board")
		return NewMockBoard(clock.New()), nil

	case config.TransportSPI:
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("periph host init: %w", err)
		}
		port, err := spireg.Open(cfg.SPIDevice)
		if err != nil {
			return nil, fmt.Errorf("open SPI port %s: %w", cfg.SPIDevice, err)
		}
		opts := bus.SPIOpts{
			Speed:     physic.Frequency(cfg.SPIClockHz) * physic.Hertz,
			ChunkSize: cfg.SPIChunkSize,
		}
		log.Infow("transport: SPI", "device", cfg.SPIDevice, "speed", opts.Speed.String(), "chunk", opts.ChunkSize)
		return bus.NewSPI(port, opts), nil

	case config.TransportI2C:
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("periph host init: %w", err)
		}
		b, err := i2creg.Open(cfg.I2CBus)
		if err != nil {
			return nil, fmt.Errorf("open I2C bus %q: %w", cfg.I2CBus, err)
		}
		opts := bus.I2COpts{
			Addr:      cfg.I2CAddr,
			ChunkSize: cfg.I2CChunkSize,
			Speed:     physic.Frequency(cfg.I2CClockHz) * physic.Hertz,
		}
		log.Infow("transport: I2C", "bus", b.String(), "addr", fmt.Sprintf("0x%02X", opts.Addr), "chunk", opts.ChunkSize)
		return bus.NewI2C(b, opts), nil

	case config.TransportSerial:
		mode, err := bus.ParseDataMode(cfg.SerialDataMode)
		if err != nil {
			return nil, err
		}
		log.Infow("transport: serial", "port", cfg.SerialPort, "baud", cfg.SerialBaudRate, "mode", mode.String())
		return bus.NewSerial(bus.SerialOpts{
			Open:         serialOpener(cfg.SerialPort, cfg.SerialBaudRate),
			Mode:         mode,
			UpdateRateHz: uint8(cfg.UpdateRateHz),
		}), nil

	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

// serialOpener opens the port 8N1. A read gives up after 1 s of silence.
func serialOpener(portName string, baud int) func() (io.ReadWriteCloser, error) {
	return func() (io.ReadWriteCloser, error) {
		return serial.Open(serial.OpenOptions{
			PortName:              portName,
			BaudRate:              uint(baud),
			DataBits:              8,
			StopBits:              1,
			MinimumReadSize:       0,
			ParityMode:            serial.PARITY_NONE,
			InterCharacterTimeout: 1000,
		})
	}
}
