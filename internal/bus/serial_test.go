package bus

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopPort feeds a canned board stream and records host writes.
type loopPort struct {
	in     *bytes.Buffer
	out    bytes.Buffer
	closed bool
}

func (p *loopPort) Read(b []byte) (int, error)  { return p.in.Read(b) }
func (p *loopPort) Write(b []byte) (int, error) { return p.out.Write(b) }

func (p *loopPort) Close() error {
	p.closed = true
	return nil
}

func openSerial(t *testing.T, stream []byte, opts SerialOpts) (*Serial, *loopPort) {
	t.Helper()
	p := &loopPort{in: bytes.NewBuffer(stream)}
	opts.Open = func() (io.ReadWriteCloser, error) { return p, nil }
	tr := NewSerial(opts)
	require.NoError(t, tr.Init(context.Background()))
	return tr, p
}

func registerImage(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i + 1)
	}
	return data
}

func TestSerialInitSendsStreamConfig(t *testing.T) {
	_, p := openSerial(t, nil, SerialOpts{Mode: RawData, UpdateRateHz: 50})
	want := []byte{'!', 'S', byte(RawData), 50, CRC([]byte{byte(RawData), 50}), '\r', '\n'}
	assert.Equal(t, want, p.out.Bytes())
}

func TestSerialInitOpenFailure(t *testing.T) {
	tr := NewSerial(SerialOpts{Open: func() (io.ReadWriteCloser, error) {
		return nil, errors.New("no such port")
	}})
	assert.ErrorIs(t, tr.Init(context.Background()), ErrTransport)
	assert.ErrorIs(t, tr.Read(context.Background(), 0, make([]byte, 2)), ErrNotInitialized)
}

func TestSerialReadCoveringBlock(t *testing.T) {
	img := registerImage(76)
	tr, _ := openSerial(t, EncodeBlock(0x00, img), SerialOpts{})

	buf := make([]byte, 10)
	require.NoError(t, tr.Read(context.Background(), 0x16, buf))
	assert.Equal(t, img[0x16:0x20], buf)
}

func TestSerialSkipsNoiseAndCorruptBlocks(t *testing.T) {
	img := registerImage(76)
	bad := EncodeBlock(0x00, img)
	bad[10] ^= 0x55

	var stream []byte
	stream = append(stream, "garbage!X"...)
	stream = append(stream, bad...)
	stream = append(stream, EncodeBlock(0x00, img)...)
	tr, _ := openSerial(t, stream, SerialOpts{})

	buf := make([]byte, 76)
	require.NoError(t, tr.Read(context.Background(), 0x00, buf))
	assert.Equal(t, img, buf)
}

func TestSerialReadReturnsNewestQueuedBlock(t *testing.T) {
	var stream []byte
	for tag := byte(1); tag <= 3; tag++ {
		img := registerImage(76)
		img[0x12] = tag
		stream = append(stream, EncodeBlock(0x00, img)...)
	}
	// A corrupt block at the tail does not replace a good one.
	bad := EncodeBlock(0x00, registerImage(76))
	bad[0x12+4] = 9
	stream = append(stream, bad...)
	tr, _ := openSerial(t, stream, SerialOpts{})

	buf := make([]byte, 76)
	require.NoError(t, tr.Read(context.Background(), 0x00, buf))
	assert.Equal(t, byte(3), buf[0x12])

	// The backlog is gone.
	err := tr.Read(context.Background(), 0x00, buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestSerialReadNoCoveringBlock(t *testing.T) {
	img := registerImage(16)
	var stream []byte
	for i := 0; i < 3; i++ {
		stream = append(stream, EncodeBlock(0x00, img)...)
	}
	tr, _ := openSerial(t, stream, SerialOpts{MaxMessages: 3})

	buf := bytes.Repeat([]byte{0xAA}, 8)
	err := tr.Read(context.Background(), 0x20, buf)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, bytes.Repeat([]byte{0xAA}, 8), buf)
}

func TestSerialReadEndOfStream(t *testing.T) {
	tr, _ := openSerial(t, nil, SerialOpts{})
	err := tr.Read(context.Background(), 0x00, make([]byte, 4))
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, io.EOF)
}

func TestSerialWriteAndShutdown(t *testing.T) {
	tr, p := openSerial(t, nil, SerialOpts{})
	p.out.Reset()

	require.NoError(t, tr.Write(context.Background(), 0x04, 100))
	want := []byte{'!', 'W', 0x84, 100, CRC([]byte{0x84, 100}), '\r', '\n'}
	assert.Equal(t, want, p.out.Bytes())

	require.NoError(t, tr.Shutdown())
	assert.True(t, p.closed)
	assert.ErrorIs(t, tr.Write(context.Background(), 0x04, 1), ErrNotInitialized)
}

func TestParseDataMode(t *testing.T) {
	for in, want := range map[string]DataMode{"": ProcessedData, "processed": ProcessedData, " RAW ": RawData} {
		got, err := ParseDataMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDataMode("fused")
	assert.Error(t, err)
	assert.Equal(t, "raw", RawData.String())
}
