package client

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dougsko/dsss/pkg/config"
	"github.com/dougsko/dsss/pkg/engine"
	"github.com/dougsko/dsss/pkg/logging"
)

func startEngine(t *testing.T) *SocketClient {
	t.Helper()
	logging.SetGlobalLogger(logging.NewWriterLogger(io.Discard, logging.LevelError, false))

	tempDir, err := os.MkdirTemp("", "dsss-client-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	socketPath := filepath.Join(tempDir, "dsssd.sock")
	e, err := engine.NewCoreEngine(config.Default(), socketPath)
	require.NoError(t, err)
	require.NoError(t, e.Start())
	t.Cleanup(func() { e.Stop() })

	return NewSocketClient(socketPath)
}

func TestSocketClient(t *testing.T) {
	c := startEngine(t)
	require.True(t, c.IsConnected())

	info, err := c.SetCode("1011")
	require.NoError(t, err)
	assert.Equal(t, "0100", info.CodeFlip)

	info, err = c.SetMessage("101")
	require.NoError(t, err)
	assert.Equal(t, "101101001011", info.Packet)
	assert.Equal(t, 12, info.PacketLength)

	status, err := c.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Stale)

	t.Run("Spectrum Before Transmit", func(t *testing.T) {
		_, err := c.GetSpectrum()
		assert.Error(t, err)
	})

	t.Run("Summary Transmit", func(t *testing.T) {
		result, err := c.Transmit(false)
		require.NoError(t, err)
		assert.Equal(t, 900, result.Samples)
		assert.Equal(t, 6.0, result.Duration)
		assert.Nil(t, result.Waveform)
	})

	t.Run("Full Transmit", func(t *testing.T) {
		result, err := c.Transmit(true)
		require.NoError(t, err)
		require.NotNil(t, result.Waveform)
		assert.Len(t, result.Waveform.Carrier.Samples, 900)
		assert.Equal(t, []float64{1.2, 1.2, -1.2, 1.2}, result.Waveform.Message.Samples)
	})

	t.Run("Spectrum", func(t *testing.T) {
		s, err := c.GetSpectrum()
		require.NoError(t, err)
		assert.Len(t, s.Bins, 450)
		assert.Greater(t, s.OccupiedBandwidth, 0.0)
	})

	t.Run("Walsh", func(t *testing.T) {
		info, err := c.SetWalshCode(4, 1)
		require.NoError(t, err)
		assert.Equal(t, "1010", info.Code)

		_, err = c.SetWalshCode(5, 1)
		assert.Error(t, err)

		packet, err := c.GetPacket()
		require.NoError(t, err)
		assert.Equal(t, "101001011010", packet.Packet)
	})
}

func TestSocketClientNotConnected(t *testing.T) {
	c := NewSocketClient("/nonexistent/dsssd.sock")
	assert.False(t, c.IsConnected())
	_, err := c.GetStatus()
	assert.Error(t, err)
}
