package dsss

import (
	"fmt"
	"io"
)

// Transmitter is a single user on a DSSS link. It owns a spreading code and a
// message and keeps the packet consistent with both: every setter recomputes
// the packet before returning. The waveform is only produced by
// CalculateTransmission and is not refreshed by later setter calls.
//
// A Transmitter is not safe for concurrent use.
type Transmitter struct {
	params Params

	code     string
	codeFlip string
	message  string
	packet   string

	waveform *Waveform
	stale    bool
}

// NewTransmitter creates a transmitter with the given timing and an optional
// initial code and message (pass "" for none).
func NewTransmitter(params Params, code, message string) (*Transmitter, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	t := &Transmitter{params: params}
	if err := t.SetCode(code); err != nil {
		return nil, err
	}
	if err := t.SetMessage(message); err != nil {
		return nil, err
	}
	return t, nil
}

// SetCode replaces the spreading code and recomputes its complement and the packet
func (t *Transmitter) SetCode(code string) error {
	if t.params.Strict {
		if err := ValidateBits(code); err != nil {
			return fmt.Errorf("code: %w", err)
		}
	}

	t.code = code
	t.codeFlip = Complement(code)
	t.CalculatePacket()
	return nil
}

// SetMessage replaces the message and recomputes the packet
func (t *Transmitter) SetMessage(message string) error {
	if t.params.Strict {
		if err := ValidateBits(message); err != nil {
			return fmt.Errorf("message: %w", err)
		}
	}

	t.message = message
	t.CalculatePacket()
	return nil
}

// CalculatePacket spreads the current message with the current code
func (t *Transmitter) CalculatePacket() {
	t.packet = Spread(t.code, t.codeFlip, t.message)
	t.stale = true
}

// CalculateTransmission synthesizes the waveform for the current packet and
// keeps it until the next call.
func (t *Transmitter) CalculateTransmission() (*Waveform, error) {
	if t.params.Strict && len(t.code) == 0 {
		return nil, ErrEmptyCode
	}

	t.waveform = Synthesize(t.params, len(t.code), t.message, t.packet)
	t.stale = false
	return t.waveform, nil
}

// Params returns the transmitter's timing configuration
func (t *Transmitter) Params() Params {
	return t.params
}

// Code returns the current spreading code
func (t *Transmitter) Code() string {
	return t.code
}

// CodeFlip returns the bit-complement of the current code
func (t *Transmitter) CodeFlip() string {
	return t.codeFlip
}

// Message returns the current message
func (t *Transmitter) Message() string {
	return t.message
}

// Packet returns the spread bit sequence for the current code and message
func (t *Transmitter) Packet() string {
	return t.packet
}

// Waveform returns the result of the last CalculateTransmission, or nil
func (t *Transmitter) Waveform() *Waveform {
	return t.waveform
}

// Stale reports whether code or message changed since the last synthesis
func (t *Transmitter) Stale() bool {
	return t.waveform == nil || t.stale
}

func (t *Transmitter) PrintCode(w io.Writer) {
	fmt.Fprintln(w, t.code)
}

func (t *Transmitter) PrintMessage(w io.Writer) {
	fmt.Fprintln(w, t.message)
}

func (t *Transmitter) PrintPacket(w io.Writer) {
	fmt.Fprintln(w, t.packet)
}
