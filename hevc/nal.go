// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package hevc implements the HEVC (H.265) NAL-unit and bitstream
// layer: Annex-B framing, emulation-prevention removal, and the
// VPS/SPS/PPS and Slice Segment Header grammars.
package hevc

import (
	"bufio"
	"io"

	"github.com/go-heif/heif/bitstream"
	"github.com/go-heif/heif/herr"
)

// NAL unit type constants relevant to this reader.
const (
	NalBlaWLP        uint8 = 16
	NalBlaWRadl      uint8 = 17
	NalBlaNLP        uint8 = 18
	NalIdrWRadl      uint8 = 19
	NalIdrNLP        uint8 = 20
	NalCraNut        uint8 = 21
	NalRsvIrapVcl22  uint8 = 22
	NalRsvIrapVcl23  uint8 = 23
	NalVpsNut        uint8 = 32
	NalSpsNut        uint8 = 33
	NalPpsNut        uint8 = 34
)

// IsIRAP reports whether a NAL unit type falls in the IRAP range
// [NalBlaWLP, NalRsvIrapVcl23].
func IsIRAP(nalType uint8) bool {
	return nalType >= NalBlaWLP && nalType <= NalRsvIrapVcl23
}

// NalUnitHeader is the two-byte header preceding every NAL unit's
// payload.
type NalUnitHeader struct {
	ForbiddenZeroBit   bool
	Type               uint8
	NuhLayerID         uint8
	NuhTemporalIDPlus1 uint8
}

// ParseNalUnitHeader decodes the fixed 2-byte NAL unit header.
func ParseNalUnitHeader(b *[2]byte) (NalUnitHeader, error) {
	br := bitstream.NewFixed2(b)

	forbidden, err := br.ReadBool()
	if err != nil {
		return NalUnitHeader{}, herr.Structural("nal_unit_header", "%v", err)
	}
	typ, err := br.ReadU8(6)
	if err != nil {
		return NalUnitHeader{}, herr.Structural("nal_unit_header", "%v", err)
	}
	layerID, err := br.ReadU8(6)
	if err != nil {
		return NalUnitHeader{}, herr.Structural("nal_unit_header", "%v", err)
	}
	tidPlus1, err := br.ReadU8(3)
	if err != nil {
		return NalUnitHeader{}, herr.Structural("nal_unit_header", "%v", err)
	}
	if err := br.Done(); err != nil {
		return NalUnitHeader{}, herr.Structural("nal_unit_header", "%v", err)
	}
	if forbidden {
		return NalUnitHeader{}, herr.Structural("nal_unit_header", "forbidden_zero_bit set")
	}

	return NalUnitHeader{
		ForbiddenZeroBit:   forbidden,
		Type:               typ,
		NuhLayerID:         layerID,
		NuhTemporalIDPlus1: tidPlus1,
	}, nil
}

// NalReader frames an Annex-B byte stream into NAL unit payloads,
// removing start codes and emulation-prevention bytes as it goes.
//
// It ported the lookback-window state machine: as each new byte
// arrives, the two most-recently-seen bytes decide whether the new
// byte starts a start code (0x00 0x00 0x01, ending the current NAL),
// an emulation-prevention byte (0x00 0x00 0x03, whose 0x03 is
// dropped), or an ordinary payload byte.
type NalReader struct {
	r     *bufio.Reader
	first, second byte
	havePending   bool // at least one NAL has started accumulating
	eof           bool
}

// NewNalReader wraps r.
func NewNalReader(r io.Reader) *NalReader {
	return &NalReader{r: bufio.NewReader(r)}
}

// UnescapeRBSP strips emulation-prevention bytes from a NAL unit
// payload that has already been delimited by its caller (the hvcC
// array and length-prefixed bitstream framings both hand over payload
// bytes with no Annex-B start codes, only the 0x00 0x00 0x03
// emulation-prevention pattern to undo).
func UnescapeRBSP(nal []byte) []byte {
	out := make([]byte, 0, len(nal))
	first, second := byte(0xFF), byte(0xFF)
	for _, b := range nal {
		if first == 0 && second == 0 && b == 0x03 {
			first, second = 0, 0x03
			continue
		}
		out = append(out, b)
		first, second = second, b
	}
	return out
}

// ReadNAL returns the next NAL unit payload, or io.EOF once the
// stream is exhausted.
func (n *NalReader) ReadNAL() ([]byte, error) {
	if n.eof {
		return nil, io.EOF
	}

	var out []byte
	n.first, n.second = 0xFF, 0xFF
	sawAny := false

	for {
		b, err := n.r.ReadByte()
		if err != nil {
			n.eof = true
			if !sawAny {
				return nil, io.EOF
			}
			return out, nil
		}
		sawAny = true

		if n.first == 0 && n.second == 0 && b == 0x01 {
			// The last two bytes pushed were the 0x00 0x00 of a
			// start code; drop them, the start code itself is never
			// part of a payload.
			if len(out) >= 2 {
				out = out[:len(out)-2]
			} else {
				out = out[:0]
			}
			n.first, n.second = 0, 0
			return out, nil
		}
		if n.first == 0 && n.second == 0 && b == 0x03 {
			// Emulation-prevention byte: suppress it, but set the
			// window to (0, 0x03) rather than clearing it, so a
			// second consecutive 0x03 after 0x00 0x00 is rejected
			// as not itself an escape of an escape.
			n.second = 0x03
			continue
		}

		out = append(out, b)
		n.first = n.second
		n.second = b
	}
}
