package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader("# only comments\n\n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, time.Second, cfg.ConnectTimeout())
}

func TestParseOverrides(t *testing.T) {
	in := `
MQTT_BROKER=tcp://broker:1883
TOPIC_AHRS = robot/ahrs
TRANSPORT=I2C
I2C_BUS=1
I2C_ADDR=0x33
I2C_CHUNK_SIZE=7
UPDATE_RATE_HZ=100
CONNECT_TIMEOUT_MS=250
YAW_HISTORY_LENGTH=5
SERIAL_DATA_MODE=Raw
`
	cfg, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTTBroker)
	assert.Equal(t, "robot/ahrs", cfg.TopicAHRS)
	assert.Equal(t, TransportI2C, cfg.Transport)
	assert.Equal(t, "1", cfg.I2CBus)
	assert.Equal(t, uint16(0x33), cfg.I2CAddr)
	assert.Equal(t, 100, cfg.UpdateRateHz)
	assert.Equal(t, 250*time.Millisecond, cfg.ConnectTimeout())
	assert.Equal(t, 5, cfg.YawHistoryLength)
	assert.Equal(t, "raw", cfg.SerialDataMode)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"UPDATE_RATE_HZ=3":     "UPDATE_RATE_HZ must be 4-200",
		"UPDATE_RATE_HZ=201":   "UPDATE_RATE_HZ must be 4-200",
		"UPDATE_RATE_HZ=fast":  "invalid UPDATE_RATE_HZ",
		"TRANSPORT=can":        "TRANSPORT must be",
		"SERIAL_DATA_MODE=9ax": "SERIAL_DATA_MODE must be",
		"I2C_ADDR=0x80":        "invalid I2C_ADDR",
		"NO_SUCH_KEY=1":        "unknown config key",
		"JUSTAKEY":             "invalid config line 2",
		"SPI_DEVICE=":          "SPI_DEVICE is required",
	}
	for in, want := range cases {
		_, err := Parse(strings.NewReader("# header\n" + in))
		require.Error(t, err, in)
		assert.Contains(t, err.Error(), want, in)
	}
}

func TestParseErrorNamesLine(t *testing.T) {
	_, err := Parse(strings.NewReader("UPDATE_RATE_HZ=50\n\nWEB_SERVER_PORT=0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config line 3")
}

func TestLoadAndGlobal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ahrs.conf")
	require.NoError(t, os.WriteFile(path, []byte("TRANSPORT=mock\nPUBLISH_INTERVAL=20\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TransportMock, cfg.Transport)

	require.NoError(t, InitGlobal(path))
	require.NotNil(t, Get())
	assert.Equal(t, 20, Get().PublishInterval)

	_, err = Load(filepath.Join(t.TempDir(), "missing.conf"))
	assert.Error(t, err)
}

func TestShippedConfigMatchesDefaults(t *testing.T) {
	cfg, err := Load("../../ahrs_config.txt")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
