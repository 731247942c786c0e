// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package isobmff implements the ISO Base Media File Format box layer:
// box headers, ftyp, and the meta box tree (hdlr, pitm, iloc, iinf,
// iprp) that resolves an HEIF file's item-to-data mapping.
package isobmff

import "encoding/binary"

// FourCC is a four-character box, brand, or handler tag packed as a
// big-endian 32-bit integer.
type FourCC uint32

// NewFourCC packs a 4-byte ASCII tag into a FourCC. Panics if b is not
// exactly 4 bytes — callers always have a fixed-size box-type field.
func NewFourCC(b []byte) FourCC {
	if len(b) != 4 {
		panic("isobmff: FourCC requires exactly 4 bytes")
	}
	return FourCC(binary.BigEndian.Uint32(b))
}

// Bytes returns the 4 ASCII bytes this tag packs.
func (f FourCC) Bytes() [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(f))
	return b
}

// String renders the tag as a quoted four-character string, matching
// the debug representation the box layer is tested against.
func (f FourCC) String() string {
	b := f.Bytes()
	return "\"" + string(b[:]) + "\""
}

// fourCC is a small helper for building the package's well-known tag
// constants from literal ASCII at package init time.
func fourCC(s string) FourCC {
	return NewFourCC([]byte(s))
}

// Well-known box, brand, and handler tags this reader recognizes.
var (
	TypeFtyp = fourCC("ftyp")
	TypeMeta = fourCC("meta")
	TypeHdlr = fourCC("hdlr")
	TypePitm = fourCC("pitm")
	TypeIloc = fourCC("iloc")
	TypeIinf = fourCC("iinf")
	TypeInfe = fourCC("infe")
	TypeIprp = fourCC("iprp")
	TypeIpco = fourCC("ipco")
	TypeIpma = fourCC("ipma")
	TypeIspe = fourCC("ispe")
	TypeHvcC = fourCC("hvcC")

	BrandHeic = fourCC("heic")
)
