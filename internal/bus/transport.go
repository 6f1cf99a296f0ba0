// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package bus moves register bytes between the host and the AHRS board over
// SPI, I2C or a streaming serial link.
package bus

import (
	"context"
	"errors"
	"fmt"
)

// WriteBit is OR-ed into the register address of every write access. A
// plain address on the wire sets the read pointer instead.
const WriteBit = 0x80

// DefaultI2CChunkSize is the largest register span a single I2C read
// transaction may carry.
const DefaultI2CChunkSize = 7

var (
	// ErrTransport is wrapped by every failed bus transaction.
	ErrTransport = errors.New("bus transaction failed")
	// ErrCRC reports a response whose checksum did not match its payload.
	ErrCRC = errors.New("bus crc mismatch")
	// ErrNotInitialized is returned when Read or Write run before Init.
	ErrNotInitialized = errors.New("bus not initialized")
)

// Transport is the capability every physical medium provides. The
// acquisition loop depends on nothing else.
type Transport interface {
	// Init prepares the medium. It is called once before any Read or Write.
	Init(ctx context.Context) error
	// Write stores value in register reg.
	Write(ctx context.Context, reg, value byte) error
	// Read fills buf with len(buf) consecutive registers starting at first.
	// On error buf is left unmodified.
	Read(ctx context.Context, first byte, buf []byte) error
	// Shutdown releases the medium.
	Shutdown() error
}

// chunkFunc performs one capped transaction, filling chunk with the
// registers starting at reg.
type chunkFunc func(reg byte, chunk []byte) error

// readChunked splits a register read into transactions of at most size
// bytes. Data is staged privately and copied into buf only when every chunk
// succeeded, so a failed read never exposes a partially filled buffer.
// A size of zero or less reads the whole span in one transaction.
//
// TODO: a bounded per-chunk retry would let a single glitched transaction
// recover without dropping the whole cycle.
func readChunked(ctx context.Context, first byte, buf []byte, size int, tx chunkFunc) error {
	if int(first)+len(buf) > 256 {
		return fmt.Errorf("%w: read of %d bytes from 0x%02X overruns the register map", ErrTransport, len(buf), first)
	}
	if size <= 0 || size > len(buf) {
		size = len(buf)
	}
	staging := make([]byte, len(buf))
	for offset := 0; offset < len(buf); {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(size, len(buf)-offset)
		reg := first + byte(offset)
		if err := tx(reg, staging[offset:offset+n]); err != nil {
			return fmt.Errorf("%w: chunk at 0x%02X (%d bytes): %w", ErrTransport, reg, n, err)
		}
		offset += n
	}
	copy(buf, staging)
	return nil
}
