package ahrs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"go.uber.org/zap/zaptest"

	"github.com/relabs-tech/navx_ahrs/internal/bus"
	"github.com/relabs-tech/navx_ahrs/internal/frame"
)

type regWrite struct {
	reg, value byte
}

// fakeTransport serves whatever block the test put in it.
type fakeTransport struct {
	mu        sync.Mutex
	block     []byte
	readErr   error
	writeErr  error
	initErr   error
	writes    []regWrite
	reads     int
	inits     int
	shutdowns int
}

func (f *fakeTransport) Init(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inits++
	return f.initErr
}

func (f *fakeTransport) Write(_ context.Context, reg, value byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, regWrite{reg, value})
	return nil
}

func (f *fakeTransport) Read(_ context.Context, first byte, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.readErr != nil {
		return f.readErr
	}
	if f.block == nil {
		return errors.New("no data")
	}
	copy(buf, f.block[first:])
	return nil
}

func (f *fakeTransport) Shutdown() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdowns++
	return nil
}

func (f *fakeTransport) serve(fr frame.Frame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.block = frame.Encode(fr)
	f.readErr = nil
}

func (f *fakeTransport) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readErr = err
}

func (f *fakeTransport) shutdownCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shutdowns
}

var _ bus.Transport = (*fakeTransport)(nil)

var errBus = errors.New("bus glitch")

func boardFrame(ts uint32, yaw float64) frame.Frame {
	return frame.Frame{
		Board:        frame.BoardID{WhoAmI: frame.WhoAmI, FWMajor: 3, FWMinor: 1},
		UpdateRateHz: 50,
		CalStatus:    frame.CalIMUComplete,
		SensorStatus: frame.StatusYawStable,
		Timestamp:    ts,
		Yaw:          yaw,
		Quaternion:   frame.Quaternion{W: 1},
		Raw:          rawLevel,
	}
}

func movingFrame(ts uint32, accel r3.Vector) frame.Frame {
	f := boardFrame(ts, 0)
	f.SensorStatus = frame.StatusMoving
	f.LinearAccel = accel
	return f
}

func testConfig(t *testing.T) (Config, *clock.Mock) {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC))
	return Config{
		UpdateRateHz: 50,
		Logger:       zaptest.NewLogger(t).Sugar(),
		Clock:        mock,
	}.withDefaults(), mock
}

// newTestAHRS wires a facade to a loop that the test steps by hand.
func newTestAHRS(t *testing.T, tr *fakeTransport) (*AHRS, *clock.Mock) {
	cfg, mock := testConfig(t)
	return &AHRS{
		l:       newLoop(tr, cfg),
		clk:     mock,
		timeout: cfg.ConnectTimeout,
	}, mock
}

func (a *AHRS) step() { a.l.cycle(context.Background()) }
