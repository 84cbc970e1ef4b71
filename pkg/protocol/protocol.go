package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Command represents a command sent to the core engine
type Command struct {
	Type string                 `json:"type"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// Response represents a response from the core engine
type Response struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Status represents the current transmitter state
type Status struct {
	Code          string    `json:"code"`
	CodeFlip      string    `json:"code_flip"`
	Message       string    `json:"message"`
	Packet        string    `json:"packet"`
	PacketLength  int       `json:"packet_length"`
	Modulation    string    `json:"modulation"`
	SymbolPeriod  float64   `json:"symbol_period"`
	SymbolSamples int       `json:"symbol_samples"`
	Strict        bool      `json:"strict"`
	Samples       int       `json:"samples"` // carrier samples of the last synthesis
	Stale         bool      `json:"stale"`
	Uptime        string    `json:"uptime"`
	StartTime     time.Time `json:"start_time"`
	Version       string    `json:"version"`
}

// Protocol commands
const (
	CmdStatus   = "STATUS"
	CmdCode     = "CODE"
	CmdMessage  = "MESSAGE"
	CmdWalsh    = "WALSH"
	CmdPacket   = "PACKET"
	CmdTransmit = "TRANSMIT"
	CmdSpectrum = "SPECTRUM"
	CmdPing     = "PING"
	CmdQuit     = "QUIT"
)

// ParseCommand parses a text command such as "CODE:1011" into a Command
func ParseCommand(text string) (*Command, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty command")
	}
	parts := strings.SplitN(text, ":", 2)

	cmd := &Command{
		Type: strings.ToUpper(strings.TrimSpace(parts[0])),
		Args: make(map[string]interface{}),
	}

	var args string
	hasArgs := len(parts) > 1
	if hasArgs {
		args = strings.TrimSpace(parts[1])
	}

	switch cmd.Type {
	case CmdCode:
		// CODE:1011 (CODE: clears the code)
		if !hasArgs {
			return nil, fmt.Errorf("CODE requires a bit string")
		}
		cmd.Args["code"] = args

	case CmdMessage:
		// MESSAGE:101
		if !hasArgs {
			return nil, fmt.Errorf("MESSAGE requires a bit string")
		}
		cmd.Args["message"] = args

	case CmdWalsh:
		// WALSH:8:3
		walshParts := strings.Split(args, ":")
		if !hasArgs || len(walshParts) != 2 {
			return nil, fmt.Errorf("WALSH requires <order>:<index>")
		}
		order, err := strconv.Atoi(walshParts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid walsh order %q: %w", walshParts[0], err)
		}
		index, err := strconv.Atoi(walshParts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid walsh index %q: %w", walshParts[1], err)
		}
		cmd.Args["order"] = order
		cmd.Args["index"] = index

	case CmdTransmit:
		// TRANSMIT or TRANSMIT:full to include the sample arrays
		if args == "full" {
			cmd.Args["full"] = true
		}
	}

	return cmd, nil
}

// String converts a Response to a JSON line
func (r *Response) String() string {
	data, _ := json.Marshal(r)
	return string(data)
}

// NewSuccessResponse creates a successful response
func NewSuccessResponse(data map[string]interface{}) *Response {
	return &Response{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(err string) *Response {
	return &Response{
		Success: false,
		Error:   err,
	}
}
