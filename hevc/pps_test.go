// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package hevc

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestParsePPS(t *testing.T) {
	c := qt.New(t)

	// Real PPS payload (its two-byte NAL unit header 68, 1 stripped),
	// emulation-prevention bytes already removed.
	payload := []byte{193, 114, 176, 98, 64}

	pps, err := ParsePPS(payload, ParsePPSOptions{})
	c.Assert(err, qt.IsNil)
	c.Assert(pps, qt.IsNotNil)
}

func TestParsePPSShortPayloadFails(t *testing.T) {
	c := qt.New(t)

	// Too short to hold the full grammar: guaranteed to fail, whether
	// by an explicit rejection or simply running out of bits.
	payload := []byte{0b11000000, 0b01011110, 0b00000011}
	_, err := ParsePPS(payload, ParsePPSOptions{})
	c.Assert(err, qt.IsNotNil)
}

func TestParsePPSTruncatedPayloadFails(t *testing.T) {
	c := qt.New(t)
	_, err := ParsePPS([]byte{0x00}, ParsePPSOptions{})
	c.Assert(err, qt.IsNotNil)
}
