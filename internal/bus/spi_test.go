package bus

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

type fakeSPIPort struct {
	conn      *fakeSPIConn
	speed     physic.Frequency
	mode      spi.Mode
	bits      int
	closed    bool
	connectFn func() error
}

func (p *fakeSPIPort) String() string { return "fakespi" }

func (p *fakeSPIPort) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	if p.connectFn != nil {
		if err := p.connectFn(); err != nil {
			return nil, err
		}
	}
	p.speed, p.mode, p.bits = f, mode, bits
	return p.conn, nil
}

func (p *fakeSPIPort) Close() error {
	p.closed = true
	return nil
}

// fakeSPIConn answers read commands from a register image.
type fakeSPIConn struct {
	regs     [256]byte
	cmdReg   byte
	cmdLen   int
	commands [][]byte
	bursts   int
	corrupt  bool
}

func (c *fakeSPIConn) String() string { return "fakespi.0" }

func (c *fakeSPIConn) Halt() error { return nil }

func (c *fakeSPIConn) Duplex() conn.Duplex { return conn.Full }

func (c *fakeSPIConn) TxPackets([]spi.Packet) error { return errors.New("not supported") }

func (c *fakeSPIConn) Tx(w, r []byte) error {
	if r == nil {
		c.commands = append(c.commands, bytes.Clone(w))
		if CRC(w[:2]) != w[2] {
			return errors.New("bad command crc")
		}
		if w[0]&WriteBit != 0 {
			c.regs[w[0]&^WriteBit] = w[1]
			return nil
		}
		c.cmdReg, c.cmdLen = w[0], int(w[1])
		return nil
	}
	c.bursts++
	data := c.regs[int(c.cmdReg) : int(c.cmdReg)+c.cmdLen]
	copy(r, data)
	r[c.cmdLen] = CRC(data)
	if c.corrupt {
		r[c.cmdLen] ^= 0xFF
	}
	return nil
}

func newFakeSPI() *fakeSPIPort {
	c := &fakeSPIConn{}
	for i := range c.regs {
		c.regs[i] = byte(255 - i)
	}
	return &fakeSPIPort{conn: c}
}

func TestSPIInitConnectsMode3(t *testing.T) {
	p := newFakeSPI()
	tr := NewSPI(p, SPIOpts{})
	require.NoError(t, tr.Init(context.Background()))
	assert.Equal(t, DefaultSPISpeed, p.speed)
	assert.Equal(t, spi.Mode3, p.mode)
	assert.Equal(t, 8, p.bits)
}

func TestSPIInitFailure(t *testing.T) {
	p := newFakeSPI()
	p.connectFn = func() error { return errors.New("no such device") }
	tr := NewSPI(p, SPIOpts{})
	assert.ErrorIs(t, tr.Init(context.Background()), ErrTransport)
	assert.ErrorIs(t, tr.Read(context.Background(), 0, make([]byte, 4)), ErrNotInitialized)
}

func TestSPIReadSingleBurst(t *testing.T) {
	ctx := context.Background()
	p := newFakeSPI()
	tr := NewSPI(p, SPIOpts{})
	require.NoError(t, tr.Init(ctx))

	buf := make([]byte, 76)
	require.NoError(t, tr.Read(ctx, 0x00, buf))
	assert.Equal(t, p.conn.regs[:76], buf)
	assert.Equal(t, 1, p.conn.bursts)

	cmd := p.conn.commands[0]
	assert.Equal(t, []byte{0x00, 76}, cmd[:2])
	assert.Equal(t, CRC(cmd[:2]), cmd[2])
}

func TestSPIReadChunked(t *testing.T) {
	ctx := context.Background()
	p := newFakeSPI()
	tr := NewSPI(p, SPIOpts{ChunkSize: 32})
	require.NoError(t, tr.Init(ctx))

	buf := make([]byte, 76)
	require.NoError(t, tr.Read(ctx, 0x00, buf))
	assert.Equal(t, p.conn.regs[:76], buf)
	assert.Equal(t, 3, p.conn.bursts)
}

func TestSPIReadCRCMismatch(t *testing.T) {
	ctx := context.Background()
	p := newFakeSPI()
	p.conn.corrupt = true
	tr := NewSPI(p, SPIOpts{})
	require.NoError(t, tr.Init(ctx))

	buf := make([]byte, 8)
	err := tr.Read(ctx, 0x10, buf)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, ErrCRC)
	assert.Equal(t, make([]byte, 8), buf)
}

func TestSPIWrite(t *testing.T) {
	ctx := context.Background()
	p := newFakeSPI()
	tr := NewSPI(p, SPIOpts{})
	require.NoError(t, tr.Init(ctx))
	require.NoError(t, tr.Write(ctx, 0x04, 100))

	cmd := p.conn.commands[0]
	assert.Equal(t, byte(0x84), cmd[0])
	assert.Equal(t, byte(100), cmd[1])
	assert.Equal(t, byte(100), p.conn.regs[0x04])

	require.NoError(t, tr.Shutdown())
	assert.True(t, p.closed)
	assert.ErrorIs(t, tr.Write(ctx, 0x04, 1), ErrNotInitialized)
}

func TestCRCKnownValues(t *testing.T) {
	assert.Equal(t, byte(0), CRC(nil))
	msg := []byte{0x04, 0x32, 0x10}
	// Appending the CRC of a message yields a zero remainder.
	assert.Equal(t, byte(0), CRC(append(msg, CRC(msg))))
}
