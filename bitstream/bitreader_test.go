// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package bitstream

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestReadBoolOneByte(t *testing.T) {
	c := qt.New(t)

	r := New([]byte{0b1100_0100})
	var got []bool
	for i := 0; i < 8; i++ {
		b, err := r.ReadBool()
		c.Assert(err, qt.IsNil)
		got = append(got, b)
	}
	c.Assert(got, qt.DeepEquals, []bool{true, true, false, false, false, true, false, false})
}

func TestReadBitsSubByte(t *testing.T) {
	c := qt.New(t)

	r := New([]byte{0b1100_0100})

	v, err := r.ReadBits(4)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint64(0b1100))

	v, err = r.ReadBits(2)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint64(0b01))

	v, err = r.ReadBits(2)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint64(0b00))
}

func TestReadU8MultipleBytes(t *testing.T) {
	c := qt.New(t)

	r := New([]byte("abc"))
	for _, want := range []byte("abc") {
		v, err := r.ReadU8(8)
		c.Assert(err, qt.IsNil)
		c.Assert(v, qt.Equals, want)
	}
}

func TestReadU32Word(t *testing.T) {
	c := qt.New(t)

	r := New([]byte{0x3A, 0xDE, 0x68, 0xB1}) // 987654321
	v, err := r.ReadU32(32)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint32(987654321))
}

func TestFixedReadersAssertFullConsumption(t *testing.T) {
	c := qt.New(t)

	var b22 [22]byte
	r := NewFixed22(&b22)
	_, err := r.ReadBits(8)
	c.Assert(err, qt.IsNil)
	c.Assert(r.Done(), qt.IsNotNil)

	_, err = r.ReadBits(22*8 - 8)
	c.Assert(err, qt.IsNil)
	c.Assert(r.Done(), qt.IsNil)
}

func TestUnsignedExpGolomb(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		bits string
		want uint64
	}{
		{"1", 0},
		{"010", 1},
		{"011", 2},
		{"00100", 3},
		{"00111", 6},
	}
	for _, tc := range cases {
		r := New(bitsFromString(tc.bits))
		got, err := r.UE()
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.Equals, tc.want, qt.Commentf("bits %q", tc.bits))
	}
}

func TestSignedExpGolomb(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		bits string
		want int64
	}{
		{"1", 0},
		{"010", 1},
		{"011", -1},
		{"00100", 2},
		{"00101", -2},
	}
	for _, tc := range cases {
		r := New(bitsFromString(tc.bits))
		got, err := r.SE()
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.Equals, tc.want, qt.Commentf("bits %q", tc.bits))
	}
}

func TestExpGolombOverflow(t *testing.T) {
	c := qt.New(t)

	// 64 leading zero bits with no terminating one: must fail rather
	// than hang or silently overflow.
	zeros := make([]byte, 9)
	r := New(zeros)
	_, err := r.UE()
	c.Assert(err, qt.IsNotNil)
}

// bitsFromString packs a string of '0'/'1' characters into bytes,
// padding the final byte with zero bits.
func bitsFromString(s string) []byte {
	out := make([]byte, (len(s)+7)/8)
	for i, ch := range s {
		if ch == '1' {
			out[i/8] |= 1 << uint(7-(i%8))
		}
	}
	return out
}
