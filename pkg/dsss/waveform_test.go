package dsss

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func TestSynthesizeReference(t *testing.T) {
	p := DefaultParams()
	code, message := "1011", "101"
	packet := Spread(code, Complement(code), message)

	w := Synthesize(p, len(code), message, packet)

	require.Equal(t, 900, w.Carrier.Len())
	require.Len(t, w.Carrier.Time, 900)
	assert.InDelta(t, 6.0, w.Duration, tolerance)
	assert.InDelta(t, 150.0, w.SampleRate, tolerance)

	// Sample 0 reads packet bit 0 = '1', phase pi
	assert.InDelta(t, -1.0, w.Carrier.Samples[0], tolerance)

	t.Run("Time Axis", func(t *testing.T) {
		assert.Equal(t, 0.0, w.Carrier.Time[0])
		step := w.Duration / 900
		for i := 1; i < len(w.Carrier.Time); i++ {
			if d := w.Carrier.Time[i] - w.Carrier.Time[i-1]; math.Abs(d-step) > tolerance {
				t.Fatalf("non-uniform time step at %d: %g", i, d)
			}
		}
		assert.Less(t, w.Carrier.Time[899], w.Duration)
	})

	t.Run("Chip Per Sample", func(t *testing.T) {
		omega := 2 * math.Pi * 4 / 300
		samplesPerChip := 300 / 4
		for i, got := range w.Carrier.Samples {
			phase := 0.0
			if packet[i/samplesPerChip] == '1' {
				phase = math.Pi
			}
			want := math.Cos(omega*float64(i) + phase)
			if math.Abs(got-want) > tolerance {
				t.Fatalf("sample %d: expected %g, got %g", i, want, got)
			}
		}
	})

	t.Run("Message Steps", func(t *testing.T) {
		assert.Equal(t, []float64{1.2, 1.2, -1.2, 1.2}, w.Message.Samples)
		assert.InDeltaSlice(t, []float64{0, 2, 4, 6}, w.Message.Time, tolerance)
	})

	t.Run("Packet Steps", func(t *testing.T) {
		require.Equal(t, len(packet)+1, w.Packet.Len())
		assert.Equal(t, 0.25, w.Packet.Samples[0])
		for k := 1; k <= len(packet); k++ {
			want := -0.25
			if packet[k-1] == '1' {
				want = 0.25
			}
			assert.Equal(t, want, w.Packet.Samples[k], "packet step %d", k)
		}
		assert.InDelta(t, 0.0, w.Packet.Time[0], tolerance)
		assert.InDelta(t, 6.0, w.Packet.Time[len(packet)], tolerance)
		assert.InDelta(t, 0.5, w.Packet.Time[1], tolerance)
	})
}

func TestSynthesizeFloorIndexing(t *testing.T) {
	// 3 chips over 10 samples: chip boundaries fall between samples
	p := Params{Modulation: ModulationBPSK, SymbolPeriod: 1, SymbolSamples: 10}
	code := "100"
	w := Synthesize(p, len(code), "1", code)

	omega := 2 * math.Pi * 3 / 10
	for i := 0; i < 10; i++ {
		chip := i * 3 / 10
		phase := 0.0
		if code[chip] == '1' {
			phase = math.Pi
		}
		assert.InDelta(t, math.Cos(omega*float64(i)+phase), w.Carrier.Samples[i], tolerance, "sample %d", i)
	}
	// samples 0..3 belong to chip 0
	assert.InDelta(t, -1.0, w.Carrier.Samples[0], tolerance)
	assert.InDelta(t, -math.Cos(omega*3), w.Carrier.Samples[3], tolerance)
	assert.InDelta(t, math.Cos(omega*4), w.Carrier.Samples[4], tolerance)
}

func TestSynthesizeDegenerate(t *testing.T) {
	p := DefaultParams()

	t.Run("Empty Message", func(t *testing.T) {
		w := Synthesize(p, 4, "", "")
		assert.Equal(t, 0, w.Carrier.Len())
		assert.Empty(t, w.Carrier.Time)
		assert.Equal(t, 0.0, w.Duration)
		assert.Equal(t, []float64{0}, w.Message.Samples)
		assert.Equal(t, []float64{0}, w.Packet.Samples)
	})

	t.Run("Empty Code", func(t *testing.T) {
		w := Synthesize(p, 0, "10", "")
		require.Equal(t, 600, w.Carrier.Len())
		for i, s := range w.Carrier.Samples {
			if s != 1.0 {
				t.Fatalf("sample %d: expected constant carrier 1.0, got %g", i, s)
			}
		}
		assert.Equal(t, []float64{1.2, 1.2, -1.2}, w.Message.Samples)
		assert.Equal(t, []float64{0}, w.Packet.Samples)
	})

	t.Run("Non-binary Chips Are In Phase", func(t *testing.T) {
		w := Synthesize(Params{Modulation: ModulationBPSK, SymbolPeriod: 1, SymbolSamples: 4}, 1, "x", "x")
		assert.InDelta(t, 1.0, w.Carrier.Samples[0], tolerance)
		assert.Equal(t, []float64{-1.2, -1.2}, w.Message.Samples)
	})
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())

	bad := []Params{
		{Modulation: "QPSK", SymbolPeriod: 2, SymbolSamples: 300},
		{Modulation: ModulationBPSK, SymbolPeriod: 0, SymbolSamples: 300},
		{Modulation: ModulationBPSK, SymbolPeriod: 2, SymbolSamples: 0},
	}
	for _, p := range bad {
		err := p.Validate()
		require.Error(t, err, "params %+v", p)
		assert.ErrorIs(t, err, ErrInvalidParams)
	}
}
