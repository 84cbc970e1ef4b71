package engine

import (
	"bufio"
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dougsko/dsss/pkg/config"
	"github.com/dougsko/dsss/pkg/dsss"
	"github.com/dougsko/dsss/pkg/logging"
	"github.com/dougsko/dsss/pkg/protocol"
)

func TestMain(m *testing.M) {
	logging.SetGlobalLogger(logging.NewWriterLogger(io.Discard, logging.LevelError, false))
	os.Exit(m.Run())
}

func newTestEngine(t *testing.T, code, message string) *CoreEngine {
	t.Helper()
	cfg := config.Default()
	cfg.Transmitter.Code = code
	cfg.Transmitter.Message = message

	tempDir, err := os.MkdirTemp("", "dsss-engine-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	e, err := NewCoreEngine(cfg, filepath.Join(tempDir, "test.sock"))
	require.NoError(t, err)
	return e
}

func command(t *testing.T, text string) *protocol.Command {
	t.Helper()
	cmd, err := protocol.ParseCommand(text)
	require.NoError(t, err)
	return cmd
}

func TestNewCoreEngine(t *testing.T) {
	e := newTestEngine(t, "1011", "101")

	status := e.Status()
	assert.Equal(t, "1011", status.Code)
	assert.Equal(t, "0100", status.CodeFlip)
	assert.Equal(t, "101101001011", status.Packet)
	assert.Equal(t, 12, status.PacketLength)
	assert.Equal(t, "BPSK", status.Modulation)
	assert.Equal(t, 300, status.SymbolSamples)
	assert.True(t, status.Stale)
	assert.Equal(t, 0, status.Samples)
	assert.Equal(t, Version, status.Version)

	t.Run("Invalid Config", func(t *testing.T) {
		cfg := config.Default()
		cfg.Transmitter.Strict = true
		cfg.Transmitter.Code = "1x"
		_, err := NewCoreEngine(cfg, "/tmp/unused.sock")
		assert.ErrorIs(t, err, dsss.ErrInvalidBit)
	})
}

func TestHandleCommand(t *testing.T) {
	e := newTestEngine(t, "", "")

	t.Run("Code Then Message", func(t *testing.T) {
		resp := e.HandleCommand(command(t, "CODE:1011"))
		require.True(t, resp.Success, resp.Error)
		assert.Equal(t, "", resp.Data["packet"])

		resp = e.HandleCommand(command(t, "MESSAGE:101"))
		require.True(t, resp.Success, resp.Error)
		assert.Equal(t, "101101001011", resp.Data["packet"])
		assert.Equal(t, 12, resp.Data["packet_length"])
	})

	t.Run("Spectrum Before Transmit", func(t *testing.T) {
		resp := e.HandleCommand(command(t, "SPECTRUM"))
		assert.False(t, resp.Success)
		assert.Equal(t, ErrNoWaveform.Error(), resp.Error)
	})

	t.Run("Transmit", func(t *testing.T) {
		resp := e.HandleCommand(command(t, "TRANSMIT"))
		require.True(t, resp.Success, resp.Error)
		assert.Equal(t, 900, resp.Data["samples"])
		assert.Equal(t, 6.0, resp.Data["duration"])
		assert.NotContains(t, resp.Data, "waveform")

		resp = e.HandleCommand(command(t, "TRANSMIT:full"))
		require.True(t, resp.Success, resp.Error)
		w, ok := resp.Data["waveform"].(*dsss.Waveform)
		require.True(t, ok)
		assert.InDelta(t, -1.0, w.Carrier.Samples[0], 1e-9)
	})

	t.Run("Spectrum After Transmit", func(t *testing.T) {
		resp := e.HandleCommand(command(t, "SPECTRUM"))
		require.True(t, resp.Success, resp.Error)
		assert.Contains(t, resp.Data, "spectrum")
	})

	t.Run("Walsh", func(t *testing.T) {
		resp := e.HandleCommand(command(t, "WALSH:4:3"))
		require.True(t, resp.Success, resp.Error)
		assert.Equal(t, "1001", resp.Data["code"])
		assert.True(t, e.Status().Stale)

		resp = e.HandleCommand(command(t, "WALSH:3:0"))
		assert.False(t, resp.Success)
	})

	t.Run("Ping And Unknown", func(t *testing.T) {
		assert.True(t, e.HandleCommand(command(t, "PING")).Success)
		resp := e.HandleCommand(&protocol.Command{Type: "SEND"})
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "unknown command")
	})
}

func TestWaveformStaleness(t *testing.T) {
	e := newTestEngine(t, "1011", "101")

	w, err := e.Transmit()
	require.NoError(t, err)

	current, stale := e.Waveform()
	assert.Same(t, w, current)
	assert.False(t, stale)
	assert.Equal(t, 900, e.Status().Samples)

	require.NoError(t, e.SetMessage("1"))
	current, stale = e.Waveform()
	assert.Same(t, w, current, "waveform must not be recomputed on mutation")
	assert.True(t, stale)
}

func TestSubscribe(t *testing.T) {
	e := newTestEngine(t, "10", "11")

	ch := e.Subscribe()
	w, err := e.Transmit()
	require.NoError(t, err)

	select {
	case got := <-ch:
		assert.Same(t, w, got)
	case <-time.After(time.Second):
		t.Fatal("expected waveform on subscription")
	}

	// A full buffer drops rather than blocks
	_, err = e.Transmit()
	require.NoError(t, err)
	_, err = e.Transmit()
	require.NoError(t, err)

	e.Unsubscribe(ch)
	for range ch {
	}
	e.Unsubscribe(ch)
}

func TestConcurrentAccess(t *testing.T) {
	e := newTestEngine(t, "1011", "101")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				e.SetMessage("0110")
			} else {
				e.Transmit()
			}
			status := e.Status()
			if len(status.Packet) != len(status.Message)*len(status.Code) {
				t.Errorf("inconsistent packet %q for message %q", status.Packet, status.Message)
			}
		}(i)
	}
	wg.Wait()
}

func TestSocketServer(t *testing.T) {
	e := newTestEngine(t, "1011", "")
	require.NoError(t, e.Start())
	defer e.Stop()

	conn, err := net.DialTimeout("unix", e.socketPath, time.Second)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	reader := bufio.NewReader(conn)
	send := func(line string) protocol.Response {
		_, err := conn.Write([]byte(line + "\n"))
		require.NoError(t, err)
		text, err := reader.ReadString('\n')
		require.NoError(t, err)
		var resp protocol.Response
		require.NoError(t, json.Unmarshal([]byte(text), &resp))
		return resp
	}

	resp := send("MESSAGE:101")
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "101101001011", resp.Data["packet"])

	resp = send("NOPE:1")
	assert.False(t, resp.Success)

	resp = send("WALSH:8")
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "parse error")

	resp = send("TRANSMIT")
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, float64(900), resp.Data["samples"])

	resp = send("QUIT")
	assert.True(t, resp.Success)
}
