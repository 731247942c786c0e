// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package hevc

import (
	"github.com/go-heif/heif/bitstream"
	"github.com/go-heif/heif/herr"
)

// PPS is the decoded Picture Parameter Set. Tiles and the deblocking
// filter override block are fully decoded, unlike the draft parser
// this one supersedes, which gave up on both.
type PPS struct {
	ID                  uint64
	SpsID               uint64

	DependentSliceSegmentsEnabled bool
	OutputFlagPresent             bool
	NumExtraSliceHeaderBits       uint8
	SignDataHidingEnabled         bool
	CabacInitPresent              bool

	NumRefIdxL0DefaultActiveMinus1 uint64
	NumRefIdxL1DefaultActiveMinus1 uint64
	InitQpMinus26                  int64

	ConstrainedIntraPred bool
	TransformSkipEnabled bool

	CuQpDeltaEnabled    bool
	DiffCuQpDeltaDepth  uint64

	PpsCbQpOffset int64
	PpsCrQpOffset int64

	SliceChromaQpOffsetsPresent bool
	WeightedPred                bool
	WeightedBipred              bool
	TransquantBypassEnabled     bool

	TilesEnabled               bool
	EntropyCodingSyncEnabled   bool
	NumTileColumnsMinus1       uint64
	NumTileRowsMinus1          uint64
	UniformSpacing             bool
	ColumnWidthMinus1          []uint64
	RowHeightMinus1            []uint64
	LoopFilterAcrossTilesEnabled bool

	LoopFilterAcrossSlicesEnabled bool

	DeblockingFilterControlPresent bool
	DeblockingFilterOverrideEnabled bool
	DeblockingFilterDisabled        bool
	BetaOffsetDiv2                  int64
	TcOffsetDiv2                    int64

	ListsModificationPresent bool
	Log2ParallelMergeLevelMinus2 uint64

	SliceSegmentHeaderExtensionPresent bool
}

// ParsePPSOptions configures ParsePPS.
type ParsePPSOptions struct {
	// Strict requires rbsp_trailing_bits() to be well-formed. A
	// real-world encoder has been observed to truncate a PPS before
	// its trailing bits; default false tolerates that.
	Strict bool
}

// ParsePPS decodes a Picture Parameter Set from an already-unescaped
// payload.
func ParsePPS(payload []byte, opts ParsePPSOptions) (*PPS, error) {
	br := bitstream.New(payload)
	p := &PPS{}
	var err error

	boolOf := func() bool {
		if err != nil {
			return false
		}
		var b bool
		b, err = br.ReadBool()
		return b
	}
	u := func(n int) uint64 {
		if err != nil {
			return 0
		}
		var v uint64
		v, err = br.ReadBits(n)
		return v
	}
	ue := func() uint64 {
		if err != nil {
			return 0
		}
		var v uint64
		v, err = br.UE()
		return v
	}
	se := func() int64 {
		if err != nil {
			return 0
		}
		var v int64
		v, err = br.SE()
		return v
	}

	p.ID = ue()
	p.SpsID = ue()
	p.DependentSliceSegmentsEnabled = boolOf()
	p.OutputFlagPresent = boolOf()
	p.NumExtraSliceHeaderBits = uint8(u(3))
	p.SignDataHidingEnabled = boolOf()
	p.CabacInitPresent = boolOf()
	p.NumRefIdxL0DefaultActiveMinus1 = ue()
	p.NumRefIdxL1DefaultActiveMinus1 = ue()
	p.InitQpMinus26 = se()
	p.ConstrainedIntraPred = boolOf()
	p.TransformSkipEnabled = boolOf()
	p.CuQpDeltaEnabled = boolOf()
	if p.CuQpDeltaEnabled {
		p.DiffCuQpDeltaDepth = ue()
	}
	p.PpsCbQpOffset = se()
	p.PpsCrQpOffset = se()
	p.SliceChromaQpOffsetsPresent = boolOf()
	p.WeightedPred = boolOf()
	p.WeightedBipred = boolOf()
	p.TransquantBypassEnabled = boolOf()
	p.TilesEnabled = boolOf()
	p.EntropyCodingSyncEnabled = boolOf()
	if err != nil {
		return nil, herr.Structural("pps", "%v", err)
	}

	if p.TilesEnabled {
		p.NumTileColumnsMinus1 = ue()
		p.NumTileRowsMinus1 = ue()
		p.UniformSpacing = boolOf()
		if !p.UniformSpacing {
			for i := uint64(0); i < p.NumTileColumnsMinus1; i++ {
				p.ColumnWidthMinus1 = append(p.ColumnWidthMinus1, ue())
			}
			for i := uint64(0); i < p.NumTileRowsMinus1; i++ {
				p.RowHeightMinus1 = append(p.RowHeightMinus1, ue())
			}
		}
		p.LoopFilterAcrossTilesEnabled = boolOf()
		if err != nil {
			return nil, herr.Structural("pps", "%v", err)
		}
	}

	p.LoopFilterAcrossSlicesEnabled = boolOf()
	p.DeblockingFilterControlPresent = boolOf()
	if err != nil {
		return nil, herr.Structural("pps", "%v", err)
	}
	if p.DeblockingFilterControlPresent {
		p.DeblockingFilterOverrideEnabled = boolOf()
		p.DeblockingFilterDisabled = boolOf()
		if !p.DeblockingFilterDisabled {
			p.BetaOffsetDiv2 = se()
			p.TcOffsetDiv2 = se()
		}
		if err != nil {
			return nil, herr.Structural("pps", "%v", err)
		}
	}

	scalingListPresent := boolOf()
	if err != nil {
		return nil, herr.Structural("pps", "%v", err)
	}
	if scalingListPresent {
		return nil, herr.Unsupported("pps", "scaling_list_data present")
	}

	p.ListsModificationPresent = boolOf()
	p.Log2ParallelMergeLevelMinus2 = ue()
	p.SliceSegmentHeaderExtensionPresent = boolOf()
	if err != nil {
		return nil, herr.Structural("pps", "%v", err)
	}

	ppsExtensionPresent := boolOf()
	if err != nil {
		return nil, herr.Structural("pps", "%v", err)
	}
	if ppsExtensionPresent {
		return nil, herr.Unsupported("pps", "pps_extension_present_flag set")
	}

	if err := consumeRBSPTrailingBits(br, opts.Strict); err != nil {
		return nil, err
	}

	return p, nil
}
