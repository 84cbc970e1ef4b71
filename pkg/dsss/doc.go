// Package dsss simulates a single Direct-Sequence Spread-Spectrum transmitter.
//
// A binary message is spread by a binary code: every '1' message bit becomes
// a copy of the code and every other bit becomes the code's complement. The
// resulting packet is BPSK modulated onto a carrier sampled SymbolSamples
// times per message bit, where a '1' chip selects phase π and a '0' chip
// selects phase 0.
//
//	tx, _ := dsss.NewTransmitter(dsss.DefaultParams(), "1011", "101")
//	tx.Packet()                       // "101101001011"
//	wave, _ := tx.CalculateTransmission()
//	wave.Carrier.Samples[0]           // -1.0
//
// Input is lenient by default: characters other than '1' are treated as '0'.
// Params.Strict rejects them with ErrInvalidBit instead.
package dsss
