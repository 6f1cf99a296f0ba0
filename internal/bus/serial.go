// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bus

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Serial message framing: '!' kind payload crc '\r' '\n'.
const (
	msgStart   = '!'
	kindStream = 'S'
	kindWrite  = 'W'
	kindBlock  = 'B'

	// maxScan bounds how many bytes are skipped while hunting for a message
	// start before the read gives up.
	maxScan = 1024

	defaultMaxMessages = 8
)

var errFraming = errors.New("bad message framing")

// DataMode selects what the board streams over the serial link.
type DataMode byte

const (
	// ProcessedData streams 6/9-axis fused data (the default).
	ProcessedData DataMode = 0
	// RawData streams unprocessed data from each individual sensor.
	RawData DataMode = 1
)

func (m DataMode) String() string {
	switch m {
	case ProcessedData:
		return "processed"
	case RawData:
		return "raw"
	default:
		return fmt.Sprintf("DataMode(%d)", byte(m))
	}
}

// ParseDataMode accepts "processed" or "raw".
func ParseDataMode(s string) (DataMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "processed":
		return ProcessedData, nil
	case "raw":
		return RawData, nil
	default:
		return 0, fmt.Errorf("unknown serial data mode %q: expected processed or raw", s)
	}
}

// SerialOpts configures the streaming transport.
//
// Open returns the underlying port; it is called by Init. MaxMessages bounds
// how many streamed messages one Read consumes looking for the requested
// span.
type SerialOpts struct {
	Open         func() (io.ReadWriteCloser, error)
	Mode         DataMode
	UpdateRateHz uint8
	MaxMessages  int
}

// Serial receives register blocks streamed by the board over a serial link.
type Serial struct {
	mu          sync.Mutex
	open        func() (io.ReadWriteCloser, error)
	port        io.ReadWriteCloser
	rd          *bufio.Reader
	mode        DataMode
	rate        uint8
	maxMessages int
}

// NewSerial returns a streaming transport. Nothing is opened until Init.
func NewSerial(opts SerialOpts) *Serial {
	limit := opts.MaxMessages
	if limit <= 0 {
		limit = defaultMaxMessages
	}
	return &Serial{
		open:        opts.Open,
		mode:        opts.Mode,
		rate:        opts.UpdateRateHz,
		maxMessages: limit,
	}
}

// Init opens the port and asks the board to start streaming.
func (t *Serial) Init(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open == nil {
		return fmt.Errorf("%w: serial transport has no port opener", ErrTransport)
	}
	port, err := t.open()
	if err != nil {
		return fmt.Errorf("%w: serial open: %w", ErrTransport, err)
	}
	t.port = port
	t.rd = bufio.NewReader(port)
	if err := t.send(kindStream, []byte{byte(t.mode), t.rate}); err != nil {
		port.Close()
		t.port, t.rd = nil, nil
		return fmt.Errorf("%w: serial stream config: %w", ErrTransport, err)
	}
	return nil
}

// Write stores value in register reg.
func (t *Serial) Write(ctx context.Context, reg, value byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return ErrNotInitialized
	}
	if err := t.send(kindWrite, []byte{reg | WriteBit, value}); err != nil {
		return fmt.Errorf("%w: serial write 0x%02X: %w", ErrTransport, reg, err)
	}
	return nil
}

// Read consumes streamed register blocks until one covers the requested
// span, then returns the newest covering block already buffered. Corrupt
// messages are skipped but still count against the limit.
func (t *Serial) Read(ctx context.Context, first byte, buf []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return ErrNotInitialized
	}
	lo, hi := int(first), int(first)+len(buf)
	var lastErr error
	for i := 0; i < t.maxMessages; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		start, data, err := t.nextBlock()
		if errors.Is(err, ErrCRC) || errors.Is(err, errFraming) {
			lastErr = err
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: serial read: %w", ErrTransport, err)
		}
		if covers(start, data, lo, hi) {
			copy(buf, data[lo-int(start):hi-int(start)])
			t.skipToNewest(lo, hi, buf)
			return nil
		}
		lastErr = fmt.Errorf("block 0x%02X+%d does not cover 0x%02X+%d", start, len(data), first, len(buf))
	}
	return fmt.Errorf("%w: no usable block in %d messages: %v", ErrTransport, t.maxMessages, lastErr)
}

// skipToNewest drains the blocks already buffered behind the one just
// copied and keeps the newest that covers [lo, hi). A board streaming
// faster than it is polled would otherwise be served further and further
// behind.
func (t *Serial) skipToNewest(lo, hi int, buf []byte) {
	for t.rd.Buffered() > 0 {
		start, data, err := t.nextBlock()
		if errors.Is(err, ErrCRC) || errors.Is(err, errFraming) {
			continue
		}
		if err != nil {
			return
		}
		if covers(start, data, lo, hi) {
			copy(buf, data[lo-int(start):hi-int(start)])
		}
	}
}

func covers(start byte, data []byte, lo, hi int) bool {
	return int(start) <= lo && hi <= int(start)+len(data)
}

// Shutdown closes the port.
func (t *Serial) Shutdown() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port, t.rd = nil, nil
	return err
}

func (t *Serial) String() string {
	return fmt.Sprintf("serial(%s@%dHz)", t.mode, t.rate)
}

func (t *Serial) send(kind byte, payload []byte) error {
	msg := encodeMessage(kind, payload)
	n, err := t.port.Write(msg)
	if err != nil {
		return err
	}
	if n != len(msg) {
		return io.ErrShortWrite
	}
	return nil
}

// nextBlock returns the next register block message on the stream.
func (t *Serial) nextBlock() (byte, []byte, error) {
	for i := 0; i < maxScan; i++ {
		b, err := t.rd.ReadByte()
		if err != nil {
			return 0, nil, err
		}
		if b != msgStart {
			continue
		}
		kind, err := t.rd.ReadByte()
		if err != nil {
			return 0, nil, err
		}
		if kind != kindBlock {
			continue
		}

		var hdr [2]byte
		if _, err := io.ReadFull(t.rd, hdr[:]); err != nil {
			return 0, nil, err
		}
		n := int(hdr[1])
		rest := make([]byte, n+3)
		if _, err := io.ReadFull(t.rd, rest); err != nil {
			return 0, nil, err
		}
		if rest[n+1] != '\r' || rest[n+2] != '\n' {
			return 0, nil, errFraming
		}
		payload := append(hdr[:], rest[:n]...)
		if got := CRC(payload); got != rest[n] {
			return 0, nil, fmt.Errorf("%w: block 0x%02X", ErrCRC, hdr[0])
		}
		return hdr[0], rest[:n], nil
	}
	return 0, nil, fmt.Errorf("no message start in %d bytes", maxScan)
}

func encodeMessage(kind byte, payload []byte) []byte {
	msg := make([]byte, 0, len(payload)+5)
	msg = append(msg, msgStart, kind)
	msg = append(msg, payload...)
	msg = append(msg, CRC(payload), '\r', '\n')
	return msg
}

// EncodeBlock frames a register block the way the board streams it.
func EncodeBlock(first byte, data []byte) []byte {
	payload := append([]byte{first, byte(len(data))}, data...)
	return encodeMessage(kindBlock, payload)
}
