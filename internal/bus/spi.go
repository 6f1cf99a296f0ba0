// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bus

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// DefaultSPISpeed is the highest clock the board's SPI slave accepts.
const DefaultSPISpeed = 200 * physic.KiloHertz

// spiSettle is how long the board needs between a read command and the
// response burst.
const spiSettle = 200 * time.Microsecond

// SPIOpts holds SPI transport options. ChunkSize of zero reads each span
// in one burst.
type SPIOpts struct {
	Speed     physic.Frequency
	ChunkSize int
}

// SPI talks to the board over an SPI port. Commands and responses carry a
// trailing CRC byte.
type SPI struct {
	mu     sync.Mutex
	port   spi.Port
	conn   spi.Conn
	speed  physic.Frequency
	chunk  int
	closer io.Closer
}

// NewSPI returns a transport on port. If port also implements io.Closer it
// is closed by Shutdown.
func NewSPI(port spi.Port, opts SPIOpts) *SPI {
	speed := opts.Speed
	if speed == 0 {
		speed = DefaultSPISpeed
	}
	t := &SPI{port: port, speed: speed, chunk: opts.ChunkSize}
	if c, ok := port.(io.Closer); ok {
		t.closer = c
	}
	return t
}

// Init connects to the port in mode 3, 8 bits per word.
func (t *SPI) Init(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, err := t.port.Connect(t.speed, spi.Mode3, 8)
	if err != nil {
		return fmt.Errorf("%w: spi connect at %s: %w", ErrTransport, t.speed, err)
	}
	t.conn = c
	return nil
}

// Write stores value in register reg.
func (t *SPI) Write(ctx context.Context, reg, value byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return ErrNotInitialized
	}
	cmd := []byte{reg | WriteBit, value, 0}
	cmd[2] = CRC(cmd[:2])
	if err := t.conn.Tx(cmd, nil); err != nil {
		return fmt.Errorf("%w: spi write 0x%02X: %w", ErrTransport, reg, err)
	}
	return nil
}

// Read fills buf starting at register first.
func (t *SPI) Read(ctx context.Context, first byte, buf []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return ErrNotInitialized
	}
	return readChunked(ctx, first, buf, t.chunk, t.burst)
}

func (t *SPI) burst(reg byte, chunk []byte) error {
	cmd := []byte{reg, byte(len(chunk)), 0}
	cmd[2] = CRC(cmd[:2])
	if err := t.conn.Tx(cmd, nil); err != nil {
		return fmt.Errorf("command: %w", err)
	}
	time.Sleep(spiSettle)

	rx := make([]byte, len(chunk)+1)
	if err := t.conn.Tx(make([]byte, len(rx)), rx); err != nil {
		return fmt.Errorf("response: %w", err)
	}
	data, crc := rx[:len(chunk)], rx[len(chunk)]
	if got := CRC(data); got != crc {
		return fmt.Errorf("%w: got 0x%02X want 0x%02X", ErrCRC, crc, got)
	}
	copy(chunk, data)
	return nil
}

// Shutdown closes the port when the transport owns it.
func (t *SPI) Shutdown() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conn = nil
	if t.closer == nil {
		return nil
	}
	err := t.closer.Close()
	t.closer = nil
	return err
}

func (t *SPI) String() string {
	return fmt.Sprintf("spi(%s@%s)", t.port, t.speed)
}
