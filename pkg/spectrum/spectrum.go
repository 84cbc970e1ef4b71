package spectrum

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// DefaultOccupiedFraction is the share of total power used for OccupiedBandwidth
const DefaultOccupiedFraction = 0.99

// floorDB is reported for bins with no energy
const floorDB = -100.0

// Spectrum represents FFT analysis of a carrier
type Spectrum struct {
	SampleRate        float64   `json:"sample_rate"`
	FFTSize           int       `json:"fft_size"`
	Bins              []float64 `json:"bins"`      // Power spectrum in dB, positive frequencies
	FreqStep          float64   `json:"freq_step"` // Frequency per bin
	PeakFrequency     float64   `json:"peak_frequency"`
	OccupiedBandwidth float64   `json:"occupied_bandwidth"`
	LowerEdge         float64   `json:"lower_edge"`
	UpperEdge         float64   `json:"upper_edge"`
}

// Analyzer computes windowed power spectra of synthesized carriers
type Analyzer struct {
	fftSize          int
	occupiedFraction float64
}

// NewAnalyzer creates an analyzer. An fftSize of 0 analyzes the whole signal
// in one transform; an occupiedFraction outside (0,1) uses the default.
func NewAnalyzer(fftSize int, occupiedFraction float64) *Analyzer {
	if fftSize < 0 {
		fftSize = 0
	}
	if occupiedFraction <= 0 || occupiedFraction >= 1 {
		occupiedFraction = DefaultOccupiedFraction
	}
	return &Analyzer{
		fftSize:          fftSize,
		occupiedFraction: occupiedFraction,
	}
}

// FFTSize returns the configured transform size (0 = signal length)
func (a *Analyzer) FFTSize() int {
	return a.fftSize
}

// makeHannWindow creates a Hann window function for FFT
func makeHannWindow(size int) []float64 {
	window := make([]float64, size)
	if size == 1 {
		window[0] = 1
		return window
	}
	for i := 0; i < size; i++ {
		window[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(size-1)))
	}
	return window
}

// Analyze returns the power spectrum of samples taken at sampleRate. Signals
// longer than the FFT size are truncated, shorter ones are zero padded.
func (a *Analyzer) Analyze(samples []float64, sampleRate float64) Spectrum {
	size := a.fftSize
	if size == 0 {
		size = len(samples)
	}
	result := Spectrum{SampleRate: sampleRate, FFTSize: size}
	if size == 0 || len(samples) == 0 {
		result.Bins = []float64{}
		return result
	}

	n := len(samples)
	if n > size {
		n = size
	}
	window := makeHannWindow(n)
	buf := make([]float64, size)
	for i := 0; i < n; i++ {
		buf[i] = samples[i] * window[i]
	}

	fftResult := fft.FFTReal(buf)

	numBins := size / 2
	if numBins == 0 {
		numBins = 1
	}
	power := make([]float64, numBins)
	result.Bins = make([]float64, numBins)
	result.FreqStep = sampleRate / float64(size)

	peak := 0
	total := 0.0
	for i := 0; i < numBins; i++ {
		magnitude := cmplx.Abs(fftResult[i])
		power[i] = magnitude * magnitude
		total += power[i]

		if power[i] > 0 {
			result.Bins[i] = 10.0 * math.Log10(power[i])
		} else {
			result.Bins[i] = floorDB
		}
		if power[i] > power[peak] {
			peak = i
		}
	}
	result.PeakFrequency = float64(peak) * result.FreqStep

	if total > 0 {
		lower, upper := occupiedBand(power, total, a.occupiedFraction)
		result.LowerEdge = float64(lower) * result.FreqStep
		result.UpperEdge = float64(upper) * result.FreqStep
		result.OccupiedBandwidth = float64(upper-lower+1) * result.FreqStep
	}

	return result
}

// occupiedBand returns the bin range holding fraction of total power, with
// equal shares of the remainder cut from either end.
func occupiedBand(power []float64, total, fraction float64) (int, int) {
	lowCut := total * (1 - fraction) / 2
	highCut := total - lowCut

	lower, upper := 0, len(power)-1
	cumulative := 0.0
	foundLower := false
	for i, p := range power {
		cumulative += p
		if !foundLower && cumulative > lowCut {
			lower = i
			foundLower = true
		}
		if cumulative >= highCut {
			upper = i
			break
		}
	}
	return lower, upper
}
