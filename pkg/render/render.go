// Package render hands synthesized waveforms to presentation sinks. Sinks do
// no computation; they serialize the three aligned series in a form a plotting
// tool can draw directly.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/dougsko/dsss/pkg/dsss"
)

// Sink consumes a synthesized waveform
type Sink interface {
	Render(w *dsss.Waveform) error
}

// Style describes how a series is meant to be drawn
type Style struct {
	Kind      string  `json:"kind"` // "line" or "step"
	Dash      string  `json:"dash,omitempty"`
	Color     string  `json:"color"`
	LineWidth float64 `json:"line_width"`
}

// Default plot styles: thin dashed black carrier, blue message steps, red packet steps
var (
	CarrierStyle = Style{Kind: "line", Dash: "--", Color: "black", LineWidth: 1}
	MessageStyle = Style{Kind: "step", Color: "blue", LineWidth: 1.5}
	PacketStyle  = Style{Kind: "step", Color: "red", LineWidth: 1.5}
)

// Trace is one styled series
type Trace struct {
	Name  string `json:"name"`
	Style Style  `json:"style"`
	dsss.Series
}

// Plot is the sink-neutral description of a transmission plot
type Plot struct {
	Duration float64 `json:"duration"`
	Traces   []Trace `json:"traces"`
}

// NewPlot arranges a waveform as carrier, message and packet traces
func NewPlot(w *dsss.Waveform) Plot {
	return Plot{
		Duration: w.Duration,
		Traces: []Trace{
			{Name: "carrier", Style: CarrierStyle, Series: w.Carrier},
			{Name: "message", Style: MessageStyle, Series: w.Message},
			{Name: "packet", Style: PacketStyle, Series: w.Packet},
		},
	}
}

// JSONSink writes the plot as a single JSON document
type JSONSink struct {
	w      io.Writer
	indent bool
}

// NewJSONSink creates a JSON sink over w
func NewJSONSink(w io.Writer, indent bool) *JSONSink {
	return &JSONSink{w: w, indent: indent}
}

func (s *JSONSink) Render(w *dsss.Waveform) error {
	if w == nil {
		return fmt.Errorf("no waveform to render")
	}
	enc := json.NewEncoder(s.w)
	if s.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(NewPlot(w)); err != nil {
		return fmt.Errorf("failed to encode plot: %w", err)
	}
	return nil
}

// CSVSink writes one "series,time,value" row per point
type CSVSink struct {
	w io.Writer
}

// NewCSVSink creates a CSV sink over w
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: w}
}

func (s *CSVSink) Render(w *dsss.Waveform) error {
	if w == nil {
		return fmt.Errorf("no waveform to render")
	}

	out := csv.NewWriter(s.w)
	if err := out.Write([]string{"series", "time", "value"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, trace := range NewPlot(w).Traces {
		for i := range trace.Samples {
			row := []string{
				trace.Name,
				strconv.FormatFloat(trace.Time[i], 'g', -1, 64),
				strconv.FormatFloat(trace.Samples[i], 'g', -1, 64),
			}
			if err := out.Write(row); err != nil {
				return fmt.Errorf("failed to write %s row %d: %w", trace.Name, i, err)
			}
		}
	}
	out.Flush()
	return out.Error()
}

// NewSink returns the sink for format ("json" or "csv")
func NewSink(format string, w io.Writer) (Sink, error) {
	switch format {
	case "json", "":
		return NewJSONSink(w, false), nil
	case "csv":
		return NewCSVSink(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
