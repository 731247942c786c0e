// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package heif implements a read-only HEIF (High Efficiency Image File
// Format) still-image container reader with embedded HEVC (H.265)
// coded picture data. It resolves a file's item table (pitm/iinf/iloc
// and the ipco/ipma property associations) and decodes the HEVC
// sequence and picture parameter sets (SPS/PPS) an hvcC property
// carries, but stops
// short of CABAC-coded residual and prediction decoding.
package heif

import (
	"errors"
	"io"
	"sort"

	"github.com/go-heif/heif/herr"
	"github.com/go-heif/heif/hevc"
	"github.com/go-heif/heif/isobmff"
)

// FourCC is the four-character box, brand, or handler tag type used
// throughout this package's external surface.
type FourCC = isobmff.FourCC

// Error is the single error type every fallible operation in this
// module returns.
type Error = herr.Error

// ErrorKind classifies why a parse failed.
type ErrorKind = herr.Kind

// Sentinel errors a caller can match against with errors.Is — each
// carries only a Kind, and *Error's Is method compares on Kind alone
// so the wrapped cause and message never need to match.
var (
	ErrStructural  = herr.New(herr.KindStructural, "", "")
	ErrVersion     = herr.New(herr.KindVersion, "", "")
	ErrRange       = herr.New(herr.KindRange, "", "")
	ErrUnsupported = herr.New(herr.KindUnsupported, "", "")
	ErrIO          = herr.New(herr.KindIO, "", "")
)

// Heif is a resolved HEIF file: its brand, item table, and property
// associations. It holds no reference to the backing reader between
// calls — OpenItemData is passed a reader each time so callers control
// the file handle's lifetime, and the parameter-set finders read only
// the hvcC data already held in the resolved model.
type Heif struct {
	model *isobmff.Model
}

// Open reads r's ftyp and meta boxes and resolves its item table. r's
// position after Open returns is unspecified; callers that need to
// read item data afterwards should use OpenItemData, which seeks
// independently.
func Open(r io.ReadSeeker) (*Heif, error) {
	ft, err := readFileType(r)
	if err != nil {
		return nil, err
	}
	if !ft.IsHEIC() {
		return nil, herr.Structural("ftyp", "major/compatible brands do not include heic")
	}

	raw, err := readMeta(r)
	if err != nil {
		return nil, err
	}

	model, err := isobmff.Resolve(raw)
	if err != nil {
		return nil, err
	}

	return &Heif{model: model}, nil
}

func readFileType(r io.ReadSeeker) (isobmff.FileType, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return isobmff.FileType{}, herr.Wrap("ftyp", err)
	}
	hdr, err := isobmff.ReadBoxHeader(r)
	if err != nil {
		return isobmff.FileType{}, err
	}
	if hdr.Type != isobmff.TypeFtyp {
		return isobmff.FileType{}, herr.Structural("ftyp", "expected first box to be ftyp, got %s", hdr.Type)
	}
	return isobmff.ParseFileType(io.LimitReader(r, int64(hdr.DataSize())), hdr.DataSize())
}

// readMeta scans top-level boxes from the current position (just past
// ftyp) until it finds meta, skipping everything else (mdat, free,
// and any box this reader doesn't care about).
func readMeta(r io.ReadSeeker) (isobmff.RawMeta, error) {
	for {
		pos, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return isobmff.RawMeta{}, herr.Wrap("meta", err)
		}
		hdr, err := isobmff.ReadBoxHeader(r)
		if err != nil && errors.Is(err, io.EOF) {
			return isobmff.RawMeta{}, herr.Structural("meta", "no meta box found")
		}
		if err != nil {
			return isobmff.RawMeta{}, err
		}
		if hdr.Type == isobmff.TypeMeta {
			return isobmff.ParseMeta(io.LimitReader(r, int64(hdr.DataSize())), hdr.DataSize())
		}
		if hdr.TotalSize == 0 {
			return isobmff.RawMeta{}, herr.Structural("meta", "box %s extends to EOF before a meta box was found", hdr.Type)
		}
		if _, err := r.Seek(pos+int64(hdr.TotalSize), io.SeekStart); err != nil {
			return isobmff.RawMeta{}, herr.Wrap("meta", err)
		}
	}
}

// PrimaryItemID returns the id the pitm box designated as the file's
// primary item.
func (h *Heif) PrimaryItemID() uint32 {
	return h.model.PrimaryItemID
}

// ItemIDs returns every item id in the file, sorted ascending.
func (h *Heif) ItemIDs() []uint32 {
	ids := make([]uint32, 0, len(h.model.Items))
	for id := range h.model.Items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ItemType returns the infe item_type of itemID, and whether it
// exists.
func (h *Heif) ItemType(itemID uint32) (FourCC, bool) {
	item, ok := h.model.Items[itemID]
	if !ok {
		return 0, false
	}
	return item.Info.ItemType, true
}

// OpenItemData returns a reader over itemID's raw bytes, resolved
// against its iloc extents, reading from r.
func (h *Heif) OpenItemData(r io.ReadSeeker, itemID uint32) (*isobmff.ExtentsReader, error) {
	item, ok := h.model.Items[itemID]
	if !ok {
		return nil, herr.Structural("iloc", "item %d not found", itemID)
	}
	if item.Location.ConstructionMethod != 0 {
		return nil, herr.Unsupported("iloc", "construction_method %d not supported", item.Location.ConstructionMethod)
	}
	return isobmff.NewExtentsReader(r, item.Location.BaseOffset, item.Location.Extents)
}

// hvcConfigForItem walks itemID's associated properties looking for
// an hvcC. Only items carrying one can have their parameter sets
// inspected.
func (h *Heif) hvcConfigForItem(itemID uint32) (*isobmff.HvcConfig, error) {
	if _, ok := h.model.Items[itemID]; !ok {
		return nil, herr.Structural("iprp", "item %d not found", itemID)
	}
	for _, pa := range h.model.Properties {
		if !pa.Items[itemID] {
			continue
		}
		if cfg, ok := pa.Property.(isobmff.HvcConfig); ok {
			return &cfg, nil
		}
	}
	return nil, herr.Structural("hvcC", "item %d has no associated hvcC property", itemID)
}

// firstNalOfType returns the first RBSP-unescaped NAL payload of
// nalType across cfg's parameter-set arrays.
func firstNalOfType(cfg *isobmff.HvcConfig, nalType uint8) ([]byte, bool) {
	for _, arr := range cfg.NaluArrays {
		if arr.NALUnitType != nalType {
			continue
		}
		for _, nal := range arr.NALUs {
			if len(nal) < 2 {
				continue
			}
			return hevc.UnescapeRBSP(nal[2:]), true
		}
	}
	return nil, false
}

// FindSPS locates itemID's hvcC property and decodes its first SPS
// NAL unit.
func (h *Heif) FindSPS(itemID uint32) (*hevc.SPS, error) {
	cfg, err := h.hvcConfigForItem(itemID)
	if err != nil {
		return nil, err
	}
	payload, ok := firstNalOfType(cfg, hevc.NalSpsNut)
	if !ok {
		return nil, herr.Structural("sps", "item %d's hvcC carries no sps nal unit", itemID)
	}
	return hevc.ParseSPS(payload)
}

// FindPPS locates itemID's hvcC property and decodes its first PPS
// NAL unit.
func (h *Heif) FindPPS(itemID uint32) (*hevc.PPS, error) {
	cfg, err := h.hvcConfigForItem(itemID)
	if err != nil {
		return nil, err
	}
	payload, ok := firstNalOfType(cfg, hevc.NalPpsNut)
	if !ok {
		return nil, herr.Structural("pps", "item %d's hvcC carries no pps nal unit", itemID)
	}
	return hevc.ParsePPS(payload, hevc.ParsePPSOptions{})
}
