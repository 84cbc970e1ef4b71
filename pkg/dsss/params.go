package dsss

import (
	"errors"
	"fmt"
	"strings"
)

// ModulationBPSK is the only supported modulation
const ModulationBPSK = "BPSK"

// Default timing
const (
	DefaultSymbolPeriod  = 2.0
	DefaultSymbolSamples = 300
)

// ErrInvalidParams is returned by Params.Validate
var ErrInvalidParams = errors.New("invalid transmitter parameters")

// Params holds the per-transmitter modulation and timing configuration
type Params struct {
	Modulation    string  `json:"modulation"`
	SymbolPeriod  float64 `json:"symbol_period"`  // time units per message bit
	SymbolSamples int     `json:"symbol_samples"` // carrier samples per message bit
	Strict        bool    `json:"strict"`         // reject non-binary input and empty codes
}

// DefaultParams returns BPSK with a symbol period of 2 and 300 samples per symbol
func DefaultParams() Params {
	return Params{
		Modulation:    ModulationBPSK,
		SymbolPeriod:  DefaultSymbolPeriod,
		SymbolSamples: DefaultSymbolSamples,
	}
}

// Validate checks that the parameters can drive the synthesizer
func (p Params) Validate() error {
	if !strings.EqualFold(p.Modulation, ModulationBPSK) {
		return fmt.Errorf("%w: unsupported modulation %q", ErrInvalidParams, p.Modulation)
	}
	if p.SymbolPeriod <= 0 {
		return fmt.Errorf("%w: symbol period must be positive, got %g", ErrInvalidParams, p.SymbolPeriod)
	}
	if p.SymbolSamples <= 0 {
		return fmt.Errorf("%w: symbol samples must be positive, got %d", ErrInvalidParams, p.SymbolSamples)
	}
	return nil
}

// SampleRate returns carrier samples per time unit
func (p Params) SampleRate() float64 {
	return float64(p.SymbolSamples) / p.SymbolPeriod
}
