// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bus

import (
	"context"
	"fmt"
	"io"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// DefaultI2CAddr is the board's 7-bit I2C address.
const DefaultI2CAddr = 0x32

// I2COpts holds I2C transport options.
//
// ChunkSize caps the bytes moved per read transaction; zero means
// DefaultI2CChunkSize. Speed, when non-zero, is applied to the bus in Init.
type I2COpts struct {
	Addr      uint16
	ChunkSize int
	Speed     physic.Frequency
}

// I2C talks to the board over an I2C bus.
type I2C struct {
	mu     sync.Mutex
	bus    i2c.Bus
	dev    i2c.Dev
	chunk  int
	speed  physic.Frequency
	closer io.Closer
	ready  bool
}

// NewI2C returns a transport for the board at opts.Addr on b. If b also
// implements io.Closer it is closed by Shutdown.
func NewI2C(b i2c.Bus, opts I2COpts) *I2C {
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultI2CAddr
	}
	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = DefaultI2CChunkSize
	}
	t := &I2C{
		bus:   b,
		dev:   i2c.Dev{Addr: addr, Bus: b},
		chunk: chunk,
		speed: opts.Speed,
	}
	if c, ok := b.(io.Closer); ok {
		t.closer = c
	}
	return t
}

// Init applies the configured bus speed, if any.
func (t *I2C) Init(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.speed != 0 {
		if err := t.bus.SetSpeed(t.speed); err != nil {
			return fmt.Errorf("%w: i2c set speed %s: %w", ErrTransport, t.speed, err)
		}
	}
	t.ready = true
	return nil
}

// Write stores value in register reg.
func (t *I2C) Write(ctx context.Context, reg, value byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return ErrNotInitialized
	}
	if err := t.dev.Tx([]byte{reg | WriteBit, value}, nil); err != nil {
		return fmt.Errorf("%w: i2c write 0x%02X: %w", ErrTransport, reg, err)
	}
	return nil
}

// Read fills buf starting at register first, in chunks of at most the
// configured chunk size. The bus lock is held across all chunks.
func (t *I2C) Read(ctx context.Context, first byte, buf []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return ErrNotInitialized
	}
	return readChunked(ctx, first, buf, t.chunk, func(reg byte, chunk []byte) error {
		if err := t.dev.Tx([]byte{reg, byte(len(chunk))}, nil); err != nil {
			return fmt.Errorf("set pointer: %w", err)
		}
		if err := t.dev.Tx(nil, chunk); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		return nil
	})
}

// Shutdown closes the bus when the transport owns it.
func (t *I2C) Shutdown() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ready = false
	if t.closer == nil {
		return nil
	}
	err := t.closer.Close()
	t.closer = nil
	return err
}

func (t *I2C) String() string {
	return fmt.Sprintf("i2c(%s@0x%02X)", t.bus, t.dev.Addr)
}
