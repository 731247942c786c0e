// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package isobmff

import (
	"io"

	"github.com/go-heif/heif/herr"
)

// ParseMeta reads the meta box's full-box header, then dispatches its
// children (hdlr, pitm, iloc, iinf, iprp) by FourCC until the section
// is exhausted.
func ParseMeta(r io.Reader, dataSize uint64) (RawMeta, error) {
	section := NewLimitedSection(r, int64(dataSize))

	if _, err := ReadFullBoxHeader(section); err != nil {
		return RawMeta{}, err
	}

	var raw RawMeta
	var sawHdlr, sawPitm, sawIloc, sawIinf, sawIprp bool

	for section.Remaining() > 0 {
		hdr, err := ReadBoxHeader(section)
		if err != nil {
			return RawMeta{}, err
		}
		child := NewLimitedSection(section, int64(hdr.DataSize()))

		switch hdr.Type {
		case TypeHdlr:
			if sawHdlr {
				return RawMeta{}, herr.Structural("meta", "duplicate hdlr child")
			}
			handler, err := parseHdlr(child, hdr.DataSize())
			if err != nil {
				return RawMeta{}, err
			}
			raw.Handler = handler
			sawHdlr = true
		case TypePitm:
			if sawPitm {
				return RawMeta{}, herr.Structural("meta", "duplicate pitm child")
			}
			id, err := parsePitm(child)
			if err != nil {
				return RawMeta{}, err
			}
			raw.PrimaryItem = id
			sawPitm = true
		case TypeIloc:
			if sawIloc {
				return RawMeta{}, herr.Structural("meta", "duplicate iloc child")
			}
			locs, err := parseIloc(child, hdr.DataSize())
			if err != nil {
				return RawMeta{}, err
			}
			raw.Locations = locs
			sawIloc = true
		case TypeIinf:
			if sawIinf {
				return RawMeta{}, herr.Structural("meta", "duplicate iinf child")
			}
			infos, err := parseIinf(child, hdr.DataSize())
			if err != nil {
				return RawMeta{}, err
			}
			raw.Infos = infos
			sawIinf = true
		case TypeIprp:
			if sawIprp {
				return RawMeta{}, herr.Structural("meta", "duplicate iprp child")
			}
			props, assocs, err := parseIprp(child, hdr.DataSize())
			if err != nil {
				return RawMeta{}, err
			}
			raw.Properties = props
			raw.Associations = assocs
			sawIprp = true
		default:
			if err := child.Skip(); err != nil {
				return RawMeta{}, err
			}
		}

		if err := child.Done(hdr.Type.String()); err != nil {
			return RawMeta{}, err
		}
	}

	if !sawHdlr {
		return RawMeta{}, herr.Structural("meta", "missing required hdlr child")
	}
	if !sawPitm {
		return RawMeta{}, herr.Structural("meta", "missing required pitm child")
	}
	if !sawIloc {
		return RawMeta{}, herr.Structural("meta", "missing required iloc child")
	}
	if !sawIinf {
		return RawMeta{}, herr.Structural("meta", "missing required iinf child")
	}
	if !sawIprp {
		return RawMeta{}, herr.Structural("meta", "missing required iprp child")
	}

	return raw, nil
}

func parseHdlr(r io.Reader, dataSize uint64) (FourCC, error) {
	if dataSize < 16 {
		return 0, herr.Structural("hdlr", "data size %d below minimum 16", dataSize)
	}
	fb, err := ReadFullBoxHeader(r)
	if err != nil {
		return 0, err
	}
	if fb.Version != 0 {
		return 0, herr.Version("hdlr", fb.Version)
	}
	var skip [4]byte
	if _, err := io.ReadFull(r, skip[:]); err != nil { // pre_defined
		return 0, herr.Wrap("hdlr", err)
	}
	var typ [4]byte
	if _, err := io.ReadFull(r, typ[:]); err != nil {
		return 0, herr.Wrap("hdlr", err)
	}
	rest := int64(dataSize) - 4 /*fullbox*/ - 4 /*pre_defined*/ - 4 /*handler_type*/
	if rest > 0 {
		if _, err := io.CopyN(io.Discard, r, rest); err != nil {
			return 0, herr.Wrap("hdlr", err)
		}
	}
	return NewFourCC(typ[:]), nil
}

func parsePitm(r io.Reader) (uint32, error) {
	fb, err := ReadFullBoxHeader(r)
	if err != nil {
		return 0, err
	}
	if fb.Version != 0 {
		return 0, herr.Version("pitm", fb.Version)
	}
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, herr.Wrap("pitm", err)
	}
	return uint32(buf[0])<<8 | uint32(buf[1]), nil
}
