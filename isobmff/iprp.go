// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package isobmff

import (
	"encoding/binary"
	"io"

	"github.com/go-heif/heif/bitstream"
	"github.com/go-heif/heif/herr"
)

func parseIprp(r io.Reader, dataSize uint64) ([]Property, []ItemPropertyAssociation, error) {
	section := NewLimitedSection(r, int64(dataSize))

	var props []Property
	var assocs []ItemPropertyAssociation
	var sawIpco, sawIpma bool

	for section.Remaining() > 0 {
		hdr, err := ReadBoxHeader(section)
		if err != nil {
			return nil, nil, err
		}
		child := NewLimitedSection(section, int64(hdr.DataSize()))

		switch hdr.Type {
		case TypeIpco:
			if sawIpco {
				return nil, nil, herr.Structural("iprp", "more than one ipco child")
			}
			p, err := parseIpco(child, hdr.DataSize())
			if err != nil {
				return nil, nil, err
			}
			props = p
			sawIpco = true
		case TypeIpma:
			if sawIpma {
				return nil, nil, herr.Structural("iprp", "more than one ipma child")
			}
			a, err := parseIpma(child)
			if err != nil {
				return nil, nil, err
			}
			assocs = a
			sawIpma = true
		default:
			if err := child.Skip(); err != nil {
				return nil, nil, err
			}
		}

		if err := child.Done(hdr.Type.String()); err != nil {
			return nil, nil, err
		}
	}

	if !sawIpco {
		return nil, nil, herr.Structural("iprp", "missing required ipco child")
	}
	if !sawIpma {
		return nil, nil, herr.Structural("iprp", "missing required ipma child")
	}

	return props, assocs, nil
}

func parseIpco(r io.Reader, dataSize uint64) ([]Property, error) {
	section := NewLimitedSection(r, int64(dataSize))

	var props []Property
	for section.Remaining() > 0 {
		hdr, err := ReadBoxHeader(section)
		if err != nil {
			return nil, err
		}
		child := NewLimitedSection(section, int64(hdr.DataSize()))

		var prop Property
		switch hdr.Type {
		case TypeIspe:
			sz, err := parseIspe(child)
			if err != nil {
				return nil, err
			}
			prop = sz
		case TypeHvcC:
			cfg, err := parseHvcC(child, hdr.DataSize())
			if err != nil {
				return nil, err
			}
			prop = cfg
		default:
			prop = UnknownProperty{Tag: hdr.Type}
			if err := child.Skip(); err != nil {
				return nil, err
			}
		}

		if err := child.Done(hdr.Type.String()); err != nil {
			return nil, err
		}
		props = append(props, prop)
	}

	return props, nil
}

func parseIspe(r io.Reader) (Size, error) {
	if _, err := ReadFullBoxHeader(r); err != nil {
		return Size{}, err
	}
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return Size{}, herr.Wrap("ispe", err)
	}
	return Size{
		Width:  binary.BigEndian.Uint32(b[0:4]),
		Height: binary.BigEndian.Uint32(b[4:8]),
	}, nil
}

func parseHvcC(r io.Reader, dataSize uint64) (HvcConfig, error) {
	if dataSize < 23 {
		return HvcConfig{}, herr.Structural("hvcC", "data size %d below minimum 23", dataSize)
	}

	var fixed [22]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return HvcConfig{}, herr.Wrap("hvcC", err)
	}

	br := bitstream.NewFixed22(&fixed)
	cfg, err := decodeHvcCFixedHeader(br)
	if err != nil {
		return HvcConfig{}, err
	}
	if err := br.Done(); err != nil {
		return HvcConfig{}, herr.Structural("hvcC", "%v", err)
	}

	var numArraysBuf [1]byte
	if _, err := io.ReadFull(r, numArraysBuf[:]); err != nil {
		return HvcConfig{}, herr.Wrap("hvcC", err)
	}
	numArrays := numArraysBuf[0]

	for i := uint8(0); i < numArrays; i++ {
		var head [1]byte
		if _, err := io.ReadFull(r, head[:]); err != nil {
			return HvcConfig{}, herr.Wrap("hvcC", err)
		}
		masked := head[0] & 0b1011_1111
		arr := HvcNaluArray{
			ArrayCompleteness: head[0]&0x80 != 0,
			NALUnitType:       masked & 0b0011_1111,
		}

		var countBuf [2]byte
		if _, err := io.ReadFull(r, countBuf[:]); err != nil {
			return HvcConfig{}, herr.Wrap("hvcC", err)
		}
		count := binary.BigEndian.Uint16(countBuf[:])

		for j := uint16(0); j < count; j++ {
			var lenBuf [2]byte
			if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
				return HvcConfig{}, herr.Wrap("hvcC", err)
			}
			n := binary.BigEndian.Uint16(lenBuf[:])
			nal := make([]byte, n)
			if _, err := io.ReadFull(r, nal); err != nil {
				return HvcConfig{}, herr.Wrap("hvcC", err)
			}
			arr.NALUs = append(arr.NALUs, nal)
		}

		cfg.NaluArrays = append(cfg.NaluArrays, arr)
	}

	return cfg, nil
}

func decodeHvcCFixedHeader(br *bitstream.BitReader) (HvcConfig, error) {
	var cfg HvcConfig
	var err error
	read := func(n int) uint64 {
		if err != nil {
			return 0
		}
		var v uint64
		v, err = br.ReadBits(n)
		return v
	}

	cfg.ConfigurationVersion = uint8(read(8))
	cfg.GeneralProfileSpace = uint8(read(2))
	cfg.GeneralTierFlag = read(1) == 1
	cfg.GeneralProfileIDC = uint8(read(5))
	cfg.GeneralProfileCompatibilityFlags = uint32(read(32))
	cfg.GeneralConstraintIndicatorFlags = read(48)
	cfg.GeneralLevelIDC = uint8(read(8))
	read(4) // reserved
	cfg.MinSpatialSegmentationIDC = uint16(read(12))
	read(6) // reserved
	cfg.ParallelismType = uint8(read(2))
	read(6) // reserved
	cfg.ChromaFormat = uint8(read(2))
	read(5) // reserved
	cfg.BitDepthLumaMinus8 = uint8(read(3))
	read(5) // reserved
	cfg.BitDepthChromaMinus8 = uint8(read(3))
	cfg.AvgFrameRate = uint16(read(16))
	cfg.ConstantFrameRate = uint8(read(2))
	cfg.NumTemporalLayers = uint8(read(3))
	cfg.TemporalIDNested = read(1) == 1
	cfg.LengthSizeMinusOne = uint8(read(2))

	if err != nil {
		return HvcConfig{}, herr.Structural("hvcC", "%v", err)
	}
	return cfg, nil
}

func parseIpma(r io.Reader) ([]ItemPropertyAssociation, error) {
	fb, err := ReadFullBoxHeader(r)
	if err != nil {
		return nil, err
	}

	var cb [4]byte
	if _, err := io.ReadFull(r, cb[:]); err != nil {
		return nil, herr.Wrap("ipma", err)
	}
	entryCount := binary.BigEndian.Uint32(cb[:])

	entries := make([]ItemPropertyAssociation, 0, entryCount)
	for i := uint32(0); i < entryCount; i++ {
		var entry ItemPropertyAssociation

		if fb.Version < 1 {
			var b [2]byte
			if _, err := io.ReadFull(r, b[:]); err != nil {
				return nil, herr.Wrap("ipma", err)
			}
			entry.ItemID = uint32(binary.BigEndian.Uint16(b[:]))
		} else {
			var b [4]byte
			if _, err := io.ReadFull(r, b[:]); err != nil {
				return nil, herr.Wrap("ipma", err)
			}
			entry.ItemID = binary.BigEndian.Uint32(b[:])
		}

		var assocCountBuf [1]byte
		if _, err := io.ReadFull(r, assocCountBuf[:]); err != nil {
			return nil, herr.Wrap("ipma", err)
		}
		assocCount := assocCountBuf[0]

		for j := uint8(0); j < assocCount; j++ {
			var assoc Association
			if fb.Flags&1 != 0 {
				var b [2]byte
				if _, err := io.ReadFull(r, b[:]); err != nil {
					return nil, herr.Wrap("ipma", err)
				}
				v := binary.BigEndian.Uint16(b[:])
				assoc.Essential = v&0b1000_0000_0000_0000 != 0
				assoc.PropertyIndex = v & 0b0111_1111_1111_1111
			} else {
				var b [1]byte
				if _, err := io.ReadFull(r, b[:]); err != nil {
					return nil, herr.Wrap("ipma", err)
				}
				assoc.Essential = b[0]&0b1000_0000 != 0
				assoc.PropertyIndex = uint16(b[0] & 0b0111_1111)
			}
			entry.Associations = append(entry.Associations, assoc)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
