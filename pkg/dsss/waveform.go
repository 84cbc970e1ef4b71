package dsss

import "math"

// Step-plot amplitudes
const (
	MessageAmplitude = 1.2
	PacketAmplitude  = 0.25
)

// Series is a sample array paired with its time axis
type Series struct {
	Time    []float64 `json:"time"`
	Samples []float64 `json:"samples"`
}

// Len returns the number of points in the series
func (s Series) Len() int {
	return len(s.Samples)
}

// Waveform holds the three time-aligned series produced by one synthesis
type Waveform struct {
	Carrier    Series  `json:"carrier"`
	Message    Series  `json:"message"`
	Packet     Series  `json:"packet"`
	Duration   float64 `json:"duration"`
	SampleRate float64 `json:"sample_rate"`
}

// Synthesize generates the BPSK carrier for packet together with step series
// for the message and packet bits.
//
// Carrier sample i carries packet bit floor(i*codeLength/SymbolSamples), so
// each chip spans SymbolSamples/codeLength samples. A '1' chip inverts the
// carrier phase. An empty code yields a constant carrier since no chip can be
// read.
func Synthesize(p Params, codeLength int, message, packet string) *Waveform {
	msgLength := len(message)
	duration := float64(msgLength) * p.SymbolPeriod

	numSamples := 0
	if p.SymbolSamples > 0 {
		numSamples = msgLength * p.SymbolSamples
	}

	w := &Waveform{
		Duration: duration,
		Carrier: Series{
			Time:    make([]float64, numSamples),
			Samples: make([]float64, numSamples),
		},
	}
	if p.SymbolPeriod > 0 {
		w.SampleRate = p.SampleRate()
	}

	if numSamples > 0 {
		omega := 2 * math.Pi * float64(codeLength) / float64(p.SymbolSamples)
		step := duration / float64(numSamples)
		for i := 0; i < numSamples; i++ {
			phase := 0.0
			if chipAt(packet, i*codeLength/p.SymbolSamples) == BitOne {
				phase = math.Pi
			}
			w.Carrier.Time[i] = float64(i) * step
			w.Carrier.Samples[i] = math.Cos(omega*float64(i) + phase)
		}
	}

	w.Message = stepSeries(message, MessageAmplitude, duration)
	w.Packet = stepSeries(packet, PacketAmplitude, duration)
	return w
}

func chipAt(packet string, index int) byte {
	if index < 0 || index >= len(packet) {
		return BitZero
	}
	return packet[index]
}

// stepSeries returns len(bits)+1 points on the boundaries of [0, duration].
// Values are shifted right by one and the first value is repeated so a step
// plot holds each bit until the next transition.
func stepSeries(bits string, amplitude, duration float64) Series {
	n := len(bits)
	s := Series{
		Time:    make([]float64, n+1),
		Samples: make([]float64, n+1),
	}

	for k := 1; k <= n; k++ {
		s.Time[k] = float64(k) * duration / float64(n)
		s.Samples[k] = bitLevel(bits[k-1], amplitude)
	}
	if n > 0 {
		s.Samples[0] = s.Samples[1]
	}
	return s
}

func bitLevel(bit byte, amplitude float64) float64 {
	if bit == BitOne {
		return amplitude
	}
	return -amplitude
}
