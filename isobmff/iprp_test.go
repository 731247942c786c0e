// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package isobmff

import (
	"bytes"
	"testing"

	qt "github.com/frankban/quicktest"
)

func hvcCFixedHeaderBytes() []byte {
	// 22 bytes: configuration_version=1, profile space/tier/idc, flags,
	// etc. Values are arbitrary but well-formed.
	return []byte{
		1,          // configuration_version
		0x21,       // profile_space(2)=0, tier(1)=1, profile_idc(5)=1
		0, 0, 0, 0, // profile_compatibility_flags
		0, 0, 0, 0, 0, 0, // constraint_indicator_flags (48 bits)
		120,        // level_idc
		0x00, 0x00, // reserved(4)+min_spatial_seg(12)
		0xC0,       // reserved(6)+parallelism_type(2)
		0x00,       // reserved(6)+chroma_format(2)
		0x00,       // reserved(5)+bit_depth_luma_minus8(3)
		0x00,       // reserved(5)+bit_depth_chroma_minus8(3)
		0, 30,      // avg_frame_rate
		0x0F,       // constant_frame_rate(2) num_temporal_layers(3) temporal_id_nested(1) length_size_minus_one(2)
	}
}

func TestParseHvcCMasksReservedBit(t *testing.T) {
	c := qt.New(t)

	var buf bytes.Buffer
	buf.Write(hvcCFixedHeaderBytes())
	buf.WriteByte(1) // num_of_arrays
	buf.WriteByte(0b11100001)
	buf.Write([]byte{0, 0}) // num_nal_units = 0

	cfg, err := parseHvcC(&buf, uint64(22+1+1+2))
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.ConfigurationVersion, qt.Equals, uint8(1))
	c.Assert(cfg.NaluArrays, qt.HasLen, 1)
	c.Assert(cfg.NaluArrays[0].NALUnitType <= 63, qt.IsTrue)
}

func TestParseIpmaWideIndexAndEssentialBit(t *testing.T) {
	c := qt.New(t)

	var buf bytes.Buffer
	buf.WriteByte(1)            // version
	buf.Write([]byte{0, 0, 1})  // flags, bit 0 set => 15-bit index width
	buf.Write([]byte{0, 0, 0, 1}) // entry_count = 1
	buf.Write([]byte{0, 0, 0, 9}) // item_id = 9 (version>=1 => u32)
	buf.WriteByte(1)            // association_count = 1
	buf.Write([]byte{0x80, 0x05}) // essential bit + index=5

	entries, err := parseIpma(&buf)
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.HasLen, 1)
	c.Assert(entries[0].ItemID, qt.Equals, uint32(9))
	c.Assert(entries[0].Associations[0].Essential, qt.IsTrue)
	c.Assert(entries[0].Associations[0].PropertyIndex, qt.Equals, uint16(5))
}
