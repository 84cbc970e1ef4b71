package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/dougsko/dsss/pkg/dsss"
	"github.com/dougsko/dsss/pkg/render"
	"github.com/dougsko/dsss/pkg/spectrum"
)

var (
	header = color.New(color.Bold, color.FgCyan)
	okMark = color.New(color.FgGreen)
	chipHi = color.New(color.FgHiWhite)
	chipLo = color.New(color.FgHiBlack)
)

func main() {
	var (
		code      = flag.String("code", "1011", "Spreading code bits")
		message   = flag.String("message", "101", "Message bits")
		walsh     = flag.String("walsh", "", "Use a Walsh-Hadamard row as the code, as order:index (e.g. 8:3)")
		period    = flag.Float64("period", dsss.DefaultSymbolPeriod, "Symbol period in time units")
		samples   = flag.Int("samples", dsss.DefaultSymbolSamples, "Carrier samples per message bit")
		strict    = flag.Bool("strict", false, "Reject non-binary input and empty codes")
		format    = flag.String("format", "json", "Plot output format (json, csv)")
		output    = flag.String("output", "", "Write the plot to this file ('-' for stdout)")
		showSpec  = flag.Bool("spectrum", false, "Show spectrum summary of the carrier")
		showChips = flag.Bool("chips", false, "Show the packet as a chip sequence")
	)
	flag.Parse()

	if *walsh != "" {
		order, index, err := parseWalsh(*walsh)
		if err != nil {
			fatalf("Invalid -walsh value: %v\n", err)
		}
		if *code, err = dsss.WalshCode(order, index); err != nil {
			fatalf("Walsh code error: %v\n", err)
		}
	}

	params := dsss.DefaultParams()
	params.SymbolPeriod = *period
	params.SymbolSamples = *samples
	params.Strict = *strict

	tx, err := dsss.NewTransmitter(params, *code, *message)
	if err != nil {
		fatalf("Transmitter error: %v\n", err)
	}

	// Keep stdout clean for the plot when it is written there
	out := io.Writer(os.Stdout)
	if *output == "-" {
		out = os.Stderr
	}

	header.Fprintf(out, "DSSS Transmission\n")
	header.Fprintf(out, "=================\n")
	tx.PrintCode(out)
	fmt.Fprintf(out, "Code flip: %s\n", tx.CodeFlip())
	tx.PrintMessage(out)
	tx.PrintPacket(out)
	fmt.Fprintf(out, "Modulation: %s, period %g, %d samples/bit\n", params.Modulation, params.SymbolPeriod, params.SymbolSamples)
	fmt.Fprintln(out)

	if *showChips {
		printChips(out, tx.Packet(), len(tx.Code()))
	}

	w, err := tx.CalculateTransmission()
	if err != nil {
		fatalf("Synthesis failed: %v\n", err)
	}

	okMark.Fprintf(out, "✓ ")
	fmt.Fprintf(out, "Synthesized %d carrier samples (%.2f time units, %g samples/unit)\n",
		w.Carrier.Len(), w.Duration, w.SampleRate)
	fmt.Fprintf(out, "  Message steps: %d points\n", w.Message.Len())
	fmt.Fprintf(out, "  Packet steps:  %d points\n", w.Packet.Len())

	if *showSpec {
		s := spectrum.NewAnalyzer(0, spectrum.DefaultOccupiedFraction).Analyze(w.Carrier.Samples, w.SampleRate)
		fmt.Fprintln(out)
		header.Fprintf(out, "Spectrum\n")
		header.Fprintf(out, "========\n")
		fmt.Fprintf(out, "  Resolution:         %.4f per unit\n", s.FreqStep)
		fmt.Fprintf(out, "  Peak frequency:     %.4f\n", s.PeakFrequency)
		fmt.Fprintf(out, "  Occupied bandwidth: %.4f (%.4f to %.4f)\n", s.OccupiedBandwidth, s.LowerEdge, s.UpperEdge)
	}

	if *output == "" {
		return
	}

	dest := io.Writer(os.Stdout)
	if *output != "-" {
		file, err := os.Create(*output)
		if err != nil {
			fatalf("Failed to create output file: %v\n", err)
		}
		defer file.Close()
		dest = file
	}

	sink, err := render.NewSink(*format, dest)
	if err != nil {
		fatalf("Output error: %v\n", err)
	}
	if err := sink.Render(w); err != nil {
		fatalf("Render failed: %v\n", err)
	}

	if *output != "-" {
		okMark.Fprintf(out, "✓ ")
		fmt.Fprintf(out, "Wrote %s plot to %s\n", *format, *output)
	}
}

// parseWalsh parses "order:index"
func parseWalsh(value string) (int, int, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected order:index, got %q", value)
	}
	order, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid order: %w", err)
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid index: %w", err)
	}
	return order, index, nil
}

// printChips draws the packet as +/- chips, one group per message bit
func printChips(out io.Writer, packet string, codeLength int) {
	fmt.Fprint(out, "Chips: ")
	for i := 0; i < len(packet); i++ {
		if packet[i] == dsss.BitOne {
			chipHi.Fprint(out, "+")
		} else {
			chipLo.Fprint(out, "-")
		}
		if codeLength > 0 && (i+1)%codeLength == 0 {
			fmt.Fprint(out, " ")
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
