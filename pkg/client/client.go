package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/dougsko/dsss/pkg/dsss"
	"github.com/dougsko/dsss/pkg/protocol"
	"github.com/dougsko/dsss/pkg/spectrum"
)

// maxResponseSize bounds a single response line (full waveforms are large)
const maxResponseSize = 16 * 1024 * 1024

// SocketClient represents a client connection to the core engine
type SocketClient struct {
	socketPath string
	timeout    time.Duration
}

// PacketInfo is the encoder state returned by CODE, MESSAGE, WALSH and PACKET
type PacketInfo struct {
	Code         string `json:"code"`
	CodeFlip     string `json:"code_flip"`
	Message      string `json:"message"`
	Packet       string `json:"packet"`
	PacketLength int    `json:"packet_length"`
}

// TransmitResult summarizes a synthesis; Waveform is set for full requests
type TransmitResult struct {
	Samples    int            `json:"samples"`
	Duration   float64        `json:"duration"`
	SampleRate float64        `json:"sample_rate"`
	Waveform   *dsss.Waveform `json:"waveform,omitempty"`
}

// NewSocketClient creates a new socket client
func NewSocketClient(socketPath string) *SocketClient {
	return &SocketClient{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// SendCommand sends a command and returns the response
func (c *SocketClient) SendCommand(cmd string) (*protocol.Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to socket: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	if _, err := conn.Write([]byte(cmd + "\n")); err != nil {
		return nil, fmt.Errorf("send error: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxResponseSize)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		return nil, fmt.Errorf("no response received")
	}

	var response protocol.Response
	if err := json.Unmarshal(scanner.Bytes(), &response); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	return &response, nil
}

// call sends cmd and decodes the data of a successful response into out
func (c *SocketClient) call(cmd string, out interface{}) error {
	resp, err := c.SendCommand(cmd)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s error: %s", cmd, resp.Error)
	}
	if out == nil {
		return nil
	}

	// Convert to JSON and back to parse properly
	data, _ := json.Marshal(resp.Data)
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", cmd, err)
	}
	return nil
}

// GetStatus gets the current transmitter status
func (c *SocketClient) GetStatus() (*protocol.Status, error) {
	var data struct {
		Status *protocol.Status `json:"status"`
	}
	if err := c.call(protocol.CmdStatus, &data); err != nil {
		return nil, err
	}
	if data.Status == nil {
		return nil, fmt.Errorf("status not found in response")
	}
	return data.Status, nil
}

// SetCode sets the spreading code
func (c *SocketClient) SetCode(code string) (*PacketInfo, error) {
	var info PacketInfo
	if err := c.call(fmt.Sprintf("%s:%s", protocol.CmdCode, code), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SetMessage sets the message bits
func (c *SocketClient) SetMessage(message string) (*PacketInfo, error) {
	var info PacketInfo
	if err := c.call(fmt.Sprintf("%s:%s", protocol.CmdMessage, message), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SetWalshCode selects a Walsh-Hadamard row as the spreading code
func (c *SocketClient) SetWalshCode(order, index int) (*PacketInfo, error) {
	var info PacketInfo
	if err := c.call(fmt.Sprintf("%s:%d:%d", protocol.CmdWalsh, order, index), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetPacket returns the current encoder state
func (c *SocketClient) GetPacket() (*PacketInfo, error) {
	var info PacketInfo
	if err := c.call(protocol.CmdPacket, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Transmit asks the engine to synthesize the waveform
func (c *SocketClient) Transmit(full bool) (*TransmitResult, error) {
	cmd := protocol.CmdTransmit
	if full {
		cmd += ":full"
	}
	var result TransmitResult
	if err := c.call(cmd, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSpectrum returns the spectrum of the last transmission
func (c *SocketClient) GetSpectrum() (*spectrum.Spectrum, error) {
	var data struct {
		Spectrum *spectrum.Spectrum `json:"spectrum"`
	}
	if err := c.call(protocol.CmdSpectrum, &data); err != nil {
		return nil, err
	}
	if data.Spectrum == nil {
		return nil, fmt.Errorf("spectrum not found in response")
	}
	return data.Spectrum, nil
}

// Ping tests the connection
func (c *SocketClient) Ping() error {
	return c.call(protocol.CmdPing, nil)
}

// IsConnected tests if the daemon is reachable
func (c *SocketClient) IsConnected() bool {
	return c.Ping() == nil
}
