// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package hevc

import (
	"bytes"
	"io"
	"testing"

	qt "github.com/frankban/quicktest"
)

func readAllNALs(t *testing.T, data []byte) [][]byte {
	t.Helper()
	r := NewNalReader(bytes.NewReader(data))
	var nals [][]byte
	for {
		nal, err := r.ReadNAL()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadNAL: %v", err)
		}
		nals = append(nals, nal)
	}
	return nals
}

func TestNalReaderNoStartCode(t *testing.T) {
	c := qt.New(t)
	nals := readAllNALs(t, []byte("hello"))
	c.Assert(nals, qt.HasLen, 1)
	c.Assert(string(nals[0]), qt.Equals, "hello")
}

func TestNalReaderTwoNALs(t *testing.T) {
	c := qt.New(t)
	nals := readAllNALs(t, []byte("hello\x00\x00\x01bye"))
	c.Assert(nals, qt.HasLen, 2)
	c.Assert(string(nals[0]), qt.Equals, "hello")
	c.Assert(string(nals[1]), qt.Equals, "bye")
}

func TestNalReaderTrailingStartCode(t *testing.T) {
	c := qt.New(t)
	nals := readAllNALs(t, []byte("hello\x00\x00\x01"))
	c.Assert(nals, qt.HasLen, 1)
	c.Assert(string(nals[0]), qt.Equals, "hello")
}

func TestNalReaderStartCodeOnly(t *testing.T) {
	c := qt.New(t)
	nals := readAllNALs(t, []byte{0, 0, 1})
	c.Assert(nals, qt.HasLen, 1)
	c.Assert(nals[0], qt.HasLen, 0)
}

func TestNalReaderEmulationPrevention(t *testing.T) {
	c := qt.New(t)

	nals := readAllNALs(t, []byte{0, 0, 3})
	c.Assert(nals, qt.HasLen, 1)
	c.Assert(nals[0], qt.DeepEquals, []byte{0, 0})

	nals = readAllNALs(t, []byte{0, 0, 3, 7})
	c.Assert(nals, qt.HasLen, 1)
	c.Assert(nals[0], qt.DeepEquals, []byte{0, 0, 7})
}

func TestParseNalUnitHeaderRejectsForbiddenBit(t *testing.T) {
	c := qt.New(t)

	b := [2]byte{0x80, 0x00} // forbidden_zero_bit=1
	_, err := ParseNalUnitHeader(&b)
	c.Assert(err, qt.IsNotNil)
}

func TestParseNalUnitHeaderFields(t *testing.T) {
	c := qt.New(t)

	// type=33 (SPS_NUT): 0b0_100001_0 ... let's encode explicitly.
	// forbidden(1)=0, type(6)=33=0b100001, layer_id(6)=0, tid+1(3)=1
	// bits: 0 100001 000000 001 -> pack into 2 bytes (16 bits)
	b := [2]byte{0b0_100001_0, 0b00000_001}
	hdr, err := ParseNalUnitHeader(&b)
	c.Assert(err, qt.IsNil)
	c.Assert(hdr.Type, qt.Equals, NalSpsNut)
	c.Assert(hdr.NuhTemporalIDPlus1, qt.Equals, uint8(1))
}

func TestIsIRAPRange(t *testing.T) {
	c := qt.New(t)
	c.Assert(IsIRAP(NalBlaWLP), qt.IsTrue)
	c.Assert(IsIRAP(NalRsvIrapVcl23), qt.IsTrue)
	c.Assert(IsIRAP(NalSpsNut), qt.IsFalse)
}
