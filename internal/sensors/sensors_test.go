package sensors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/relabs-tech/navx_ahrs/internal/ahrs"
	"github.com/relabs-tech/navx_ahrs/internal/bus"
	"github.com/relabs-tech/navx_ahrs/internal/config"
	"github.com/relabs-tech/navx_ahrs/internal/frame"
)

func newMockClock() *clock.Mock {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC))
	return mock
}

func TestMockBoardRequiresInit(t *testing.T) {
	m := NewMockBoard(newMockClock())
	err := m.Read(context.Background(), 0, make([]byte, frame.Length))
	assert.ErrorIs(t, err, bus.ErrNotInitialized)
}

func TestMockBoardFrames(t *testing.T) {
	ctx := context.Background()
	mock := newMockClock()
	m := NewMockBoard(mock)
	require.NoError(t, m.Init(ctx))
	require.NoError(t, m.Write(ctx, frame.RegUpdateRateHz, 100))
	assert.ErrorIs(t, m.Write(ctx, frame.RegYaw, 1), bus.ErrTransport)

	buf := make([]byte, frame.Length)
	require.NoError(t, m.Read(ctx, 0, buf))
	f, err := frame.Decode(buf)
	require.NoError(t, err)
	assert.EqualValues(t, 100, f.UpdateRateHz)
	assert.Zero(t, f.Timestamp)
	assert.InDelta(t, 0.0, f.Yaw, 0.01)
	assert.True(t, f.Moving())
	assert.False(t, f.Calibrating())

	mock.Add(2 * time.Second)
	require.NoError(t, m.Read(ctx, 0, buf))
	f, err = frame.Decode(buf)
	require.NoError(t, err)
	assert.EqualValues(t, 2000, f.Timestamp)
	assert.InDelta(t, 60.0, f.Yaw, 0.01)

	// A partial read sees the same registers.
	yaw := make([]byte, 2)
	require.NoError(t, m.Read(ctx, frame.RegYaw, yaw))
	assert.Equal(t, buf[frame.RegYaw:frame.RegYaw+2], yaw)

	mock.Add(3 * time.Second)
	require.NoError(t, m.Read(ctx, 0, buf))
	f, err = frame.Decode(buf)
	require.NoError(t, err)
	// 150 degrees of travel, reported in (-180, 180].
	assert.InDelta(t, 150.0, f.Yaw, 0.01)
	assert.False(t, f.Moving())

	require.NoError(t, m.Shutdown())
	assert.ErrorIs(t, m.Read(ctx, 0, buf), bus.ErrNotInitialized)
}

func TestAHRSOverMockBoard(t *testing.T) {
	mock := newMockClock()
	a, err := ahrs.New(context.Background(), NewMockBoard(mock), ahrs.Config{
		UpdateRateHz: 50,
		Logger:       zaptest.NewLogger(t).Sugar(),
		Clock:        mock,
	})
	require.NoError(t, err)
	defer a.Close()

	require.Eventually(t, func() bool { return a.State() == ahrs.Streaming }, time.Second, time.Millisecond)
	assert.True(t, a.IsConnected())
	assert.Equal(t, "3.1", a.FirmwareVersion())

	// Half a revolution of simulated yaw at 30 dps.
	require.Eventually(t, func() bool {
		mock.Add(100 * time.Millisecond)
		return a.Angle() > 90
	}, 5*time.Second, time.Millisecond)
	assert.Greater(t, a.UpdateCount(), uint64(1))
}

func TestNewTransport(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()
	cfg := config.Default()

	cfg.Transport = config.TransportMock
	tr, err := NewTransport(cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &MockBoard{}, tr)

	cfg.Transport = config.TransportSerial
	cfg.SerialDataMode = "raw"
	tr, err = NewTransport(cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &bus.Serial{}, tr)

	cfg.SerialDataMode = "bogus"
	_, err = NewTransport(cfg, log)
	assert.Error(t, err)

	cfg.Transport = "can"
	_, err = NewTransport(cfg, log)
	assert.Error(t, err)
}

func TestBoardRegisterMapCoversFrame(t *testing.T) {
	covered := make([]int, frame.Length)
	for _, r := range BoardRegisterMap() {
		var addr int
		_, err := fmt.Sscanf(r.Address, "0x%X", &addr)
		require.NoError(t, err, r.Name)
		require.Contains(t, []int{1, 2, 4}, r.Size, r.Name)
		for i := addr; i < addr+r.Size; i++ {
			require.Less(t, i, frame.Length, r.Name)
			covered[i]++
		}
	}
	// 0x0D-0x0F are reserved.
	reserved := map[int]bool{0x0D: true, 0x0E: true, 0x0F: true}
	for i, n := range covered {
		if reserved[i] {
			assert.Zero(t, n, "register 0x%02X", i)
			continue
		}
		assert.Equal(t, 1, n, "register 0x%02X", i)
	}
}

func TestDumpRegisters(t *testing.T) {
	f := frame.Frame{
		Board:     frame.BoardID{WhoAmI: frame.WhoAmI, FWMajor: 3},
		Timestamp: 0x01020304,
		Yaw:       -1,
	}
	dump, err := DumpRegisters(frame.Encode(f))
	require.NoError(t, err)
	require.Len(t, dump, len(BoardRegisterMap()))

	byName := map[string]RegisterValue{}
	for _, v := range dump {
		byName[v.Name] = v
	}
	assert.Equal(t, "0x32", byName["WHOAMI"].Value)
	assert.Equal(t, "0x03", byName["FW_VER_MAJOR"].Value)
	assert.Equal(t, "0x01020304", byName["TIMESTAMP"].Value)
	assert.Equal(t, "0xFF9C", byName["YAW"].Value)

	short, err := DumpRegisters(frame.Encode(f)[:0x14])
	require.NoError(t, err)
	for _, v := range short {
		assert.NotEqual(t, "TIMESTAMP", v.Name)
	}
}
