// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package hevc

import (
	"math/bits"

	"github.com/go-heif/heif/bitstream"
	"github.com/go-heif/heif/herr"
)

// Slice types as coded in slice_segment_header().
const (
	SliceTypeB uint8 = 0
	SliceTypeP uint8 = 1
	SliceTypeI uint8 = 2
)

// LongTermRefPicEntry is one entry of the long-term reference-picture
// lists optionally present in the slice segment header.
type LongTermRefPicEntry struct {
	PocLsb         uint64
	UsedByCurrPic  bool
	DeltaPocMsbPresent bool
	DeltaPocMsbCycleLt uint64
}

// SliceSegmentHeader is the decoded subset of slice_segment_header()
// this reader exposes: enough to identify what kind of slice this is
// and how its parameter sets applied, not enough to decode pixels.
type SliceSegmentHeader struct {
	FirstSliceSegmentInPic bool
	NoOutputOfPriorPics    bool

	PicParameterSetID uint64

	DependentSliceSegment bool
	SliceSegmentAddress   uint64

	SliceType uint8

	PicOutputFlag bool
	ColourPlaneID uint8

	SlicePicOrderCntLsb      uint64
	ShortTermRefPicSetSpsFlag bool
	ShortTermRefPicSetIdx    uint64
	NumLongTermSps           uint64
	NumLongTermPics          uint64
	LongTermRefPics          []LongTermRefPicEntry
	SliceTemporalMvpEnabled  bool

	SliceSaoLuma   bool
	SliceSaoChroma bool

	NumRefIdxActiveOverride bool
	NumRefIdxL0ActiveMinus1 uint64
	NumRefIdxL1ActiveMinus1 uint64
	MvdL1Zero               bool
	CabacInit                bool
	CollocatedFromL0         bool
	CollocatedRefIdx         uint64
	FiveMinusMaxNumMergeCand uint64

	SliceQpDelta          int64
	SliceCbQpOffset       int64
	SliceCrQpOffset       int64
	DeblockingFilterOverride bool
	SliceDeblockingFilterDisabled bool
	SliceBetaOffsetDiv2   int64
	SliceTcOffsetDiv2     int64
	SliceLoopFilterAcrossSlicesEnabled bool

	NumEntryPointOffsets uint64
	OffsetLenMinus1      uint64
	EntryPointOffsets    []uint64
}

// ParseSliceSegmentHeader decodes slice_segment_header() for the given
// NAL unit type against its resolved PPS and SPS. Sub-grammars this
// reader does not implement (reference-list modification, weighted
// prediction, HRD parameters, scaling lists, an inline short-term RPS)
// fail cleanly rather than silently mis-parsing the rest of the
// header.
func ParseSliceSegmentHeader(nalType uint8, br *bitstream.BitReader, pps *PPS, sps *SPS) (*SliceSegmentHeader, error) {
	h := &SliceSegmentHeader{}
	var err error
	var numPicTotalCurr uint64

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

	// Step 1.
	h.FirstSliceSegmentInPic = boolOf()
	if IsIRAP(nalType) {
		h.NoOutputOfPriorPics = boolOf()
	}
	if err != nil {
		return nil, herr.Structural("slice_segment_header", "%v", err)
	}

	// Step 2.
	h.PicParameterSetID = ue()
	if err != nil {
		return nil, herr.Structural("slice_segment_header", "%v", err)
	}
	if !h.FirstSliceSegmentInPic {
		if pps.DependentSliceSegmentsEnabled {
			h.DependentSliceSegment = boolOf()
		}
		h.SliceSegmentAddress = ue()
		if err != nil {
			return nil, herr.Structural("slice_segment_header", "%v", err)
		}
	}

	// Step 3.
	if !h.DependentSliceSegment {
		for i := uint8(0); i < pps.NumExtraSliceHeaderBits; i++ {
			u(1)
		}
		h.SliceType = uint8(ue())
		if err != nil {
			return nil, herr.Structural("slice_segment_header", "%v", err)
		}
		if h.SliceType > SliceTypeI {
			return nil, herr.Range("slice_segment_header", "slice_type %d out of range", h.SliceType)
		}

		// Step 4.
		if pps.OutputFlagPresent {
			h.PicOutputFlag = boolOf()
		}
		if sps.SeparateColourPlane {
			h.ColourPlaneID = uint8(u(2))
		}
		if err != nil {
			return nil, herr.Structural("slice_segment_header", "%v", err)
		}

		// Step 5.
		isIdr := nalType == NalIdrWRadl || nalType == NalIdrNLP
		if !isIdr {
			pocBits := int(sps.Log2MaxPicOrderCntLsbMinus4 + 4)
			h.SlicePicOrderCntLsb = u(pocBits)
			h.ShortTermRefPicSetSpsFlag = boolOf()
			if err != nil {
				return nil, herr.Structural("slice_segment_header", "%v", err)
			}
			if !h.ShortTermRefPicSetSpsFlag {
				return nil, herr.Unsupported("slice_segment_header", "inline short_term_ref_pic_set")
			}
			if len(sps.ShortTermRefPicSets) > 1 {
				h.ShortTermRefPicSetIdx = u(ceilLog2(len(sps.ShortTermRefPicSets)))
				if err != nil {
					return nil, herr.Structural("slice_segment_header", "%v", err)
				}
				if h.ShortTermRefPicSetIdx >= uint64(len(sps.ShortTermRefPicSets)) {
					return nil, herr.Range("slice_segment_header", "short_term_ref_pic_set_idx %d out of range", h.ShortTermRefPicSetIdx)
				}
			}
			if int(h.ShortTermRefPicSetIdx) < len(sps.ShortTermRefPicSets) {
				rps := sps.ShortTermRefPicSets[h.ShortTermRefPicSetIdx]
				for _, used := range rps.UsedByCurrPicS0 {
					if used {
						numPicTotalCurr++
					}
				}
				for _, used := range rps.UsedByCurrPicS1 {
					if used {
						numPicTotalCurr++
					}
				}
			}
			if sps.LongTermRefPicsPresent && sps.NumLongTermRefPicsSps > 0 {
				h.NumLongTermSps = ue()
				if err != nil {
					return nil, herr.Structural("slice_segment_header", "%v", err)
				}
				if h.NumLongTermSps > sps.NumLongTermRefPicsSps {
					return nil, herr.Range("slice_segment_header", "num_long_term_sps %d exceeds sps value %d", h.NumLongTermSps, sps.NumLongTermRefPicsSps)
				}
			}
			h.NumLongTermPics = ue()
			if err != nil {
				return nil, herr.Structural("slice_segment_header", "%v", err)
			}
			if h.NumLongTermPics > 255 {
				return nil, herr.Range("slice_segment_header", "num_long_term_pics %d exceeds implementation cap 255", h.NumLongTermPics)
			}
			pocBitsLt := int(sps.Log2MaxPicOrderCntLsbMinus4 + 4)
			total := h.NumLongTermSps + h.NumLongTermPics
			for i := uint64(0); i < total; i++ {
				var e LongTermRefPicEntry
				if i < h.NumLongTermSps {
					return nil, herr.Unsupported("slice_segment_header", "lt_idx_sps")
				}
				e.PocLsb = u(pocBitsLt)
				e.UsedByCurrPic = boolOf()
				e.DeltaPocMsbPresent = boolOf()
				if e.DeltaPocMsbPresent {
					e.DeltaPocMsbCycleLt = ue()
				}
				if err != nil {
					return nil, herr.Structural("slice_segment_header", "%v", err)
				}
				h.LongTermRefPics = append(h.LongTermRefPics, e)
				if e.UsedByCurrPic {
					numPicTotalCurr++
				}
			}
			if sps.TemporalMvpEnabled {
				h.SliceTemporalMvpEnabled = boolOf()
			}
			if err != nil {
				return nil, herr.Structural("slice_segment_header", "%v", err)
			}
		}

		// Step 6.
		if sps.SampleAdaptiveOffset {
			h.SliceSaoLuma = boolOf()
			if h.SliceType != SliceTypeI {
				h.SliceSaoChroma = boolOf()
			} else {
				h.SliceSaoChroma = h.SliceSaoLuma
			}
			if err != nil {
				return nil, herr.Structural("slice_segment_header", "%v", err)
			}
		}

		// Step 7.
		if h.SliceType == SliceTypeP || h.SliceType == SliceTypeB {
			h.NumRefIdxActiveOverride = boolOf()
			refIdxL0ActiveMinus1 := pps.NumRefIdxL0DefaultActiveMinus1
			refIdxL1ActiveMinus1 := pps.NumRefIdxL1DefaultActiveMinus1
			if h.NumRefIdxActiveOverride {
				h.NumRefIdxL0ActiveMinus1 = ue()
				refIdxL0ActiveMinus1 = h.NumRefIdxL0ActiveMinus1
				if h.SliceType == SliceTypeB {
					h.NumRefIdxL1ActiveMinus1 = ue()
					refIdxL1ActiveMinus1 = h.NumRefIdxL1ActiveMinus1
				}
			}
			if err != nil {
				return nil, herr.Structural("slice_segment_header", "%v", err)
			}

			if pps.ListsModificationPresent && numPicTotalCurr > 1 {
				return nil, herr.Unsupported("slice_segment_header", "ref_pic_lists_modification")
			}

			if h.SliceType == SliceTypeB {
				h.MvdL1Zero = boolOf()
			}
			if pps.CabacInitPresent {
				h.CabacInit = boolOf()
			}
			if err != nil {
				return nil, herr.Structural("slice_segment_header", "%v", err)
			}

			collocatedFromL0 := true
			if h.SliceTemporalMvpEnabled {
				if h.SliceType == SliceTypeB {
					h.CollocatedFromL0 = boolOf()
					collocatedFromL0 = h.CollocatedFromL0
				} else {
					h.CollocatedFromL0 = true
				}
				if (collocatedFromL0 && refIdxL0ActiveMinus1 > 0) || (!collocatedFromL0 && refIdxL1ActiveMinus1 > 0) {
					h.CollocatedRefIdx = ue()
				}
			}
			if err != nil {
				return nil, herr.Structural("slice_segment_header", "%v", err)
			}

			if (pps.WeightedPred && h.SliceType == SliceTypeP) || (pps.WeightedBipred && h.SliceType == SliceTypeB) {
				return nil, herr.Unsupported("slice_segment_header", "pred_weight_table")
			}

			h.FiveMinusMaxNumMergeCand = ue()
			if err != nil {
				return nil, herr.Structural("slice_segment_header", "%v", err)
			}
		}

		// Step 8.
		h.SliceQpDelta = se()
		if err != nil {
			return nil, herr.Structural("slice_segment_header", "%v", err)
		}
		if pps.SliceChromaQpOffsetsPresent {
			h.SliceCbQpOffset = se()
			h.SliceCrQpOffset = se()
		}
		if err != nil {
			return nil, herr.Structural("slice_segment_header", "%v", err)
		}
		if pps.DeblockingFilterControlPresent {
			if pps.DeblockingFilterOverrideEnabled {
				h.DeblockingFilterOverride = boolOf()
			}
			if h.DeblockingFilterOverride {
				h.SliceDeblockingFilterDisabled = boolOf()
				if !h.SliceDeblockingFilterDisabled {
					h.SliceBetaOffsetDiv2 = se()
					h.SliceTcOffsetDiv2 = se()
				}
			} else {
				h.SliceDeblockingFilterDisabled = pps.DeblockingFilterDisabled
				h.SliceBetaOffsetDiv2 = pps.BetaOffsetDiv2
				h.SliceTcOffsetDiv2 = pps.TcOffsetDiv2
			}
		}
		if err != nil {
			return nil, herr.Structural("slice_segment_header", "%v", err)
		}
		if pps.LoopFilterAcrossSlicesEnabled && (h.SliceSaoLuma || h.SliceSaoChroma || !h.SliceDeblockingFilterDisabled) {
			h.SliceLoopFilterAcrossSlicesEnabled = boolOf()
		} else {
			h.SliceLoopFilterAcrossSlicesEnabled = pps.LoopFilterAcrossSlicesEnabled
		}
		if err != nil {
			return nil, herr.Structural("slice_segment_header", "%v", err)
		}
	}

	// Step 9.
	if pps.TilesEnabled || pps.EntropyCodingSyncEnabled {
		h.NumEntryPointOffsets = ue()
		if err != nil {
			return nil, herr.Structural("slice_segment_header", "%v", err)
		}
		if h.NumEntryPointOffsets > 0 {
			h.OffsetLenMinus1 = ue()
			if err != nil {
				return nil, herr.Structural("slice_segment_header", "%v", err)
			}
			if h.OffsetLenMinus1+1 > 32 {
				return nil, herr.Range("slice_segment_header", "offset_len %d exceeds 32", h.OffsetLenMinus1+1)
			}
			width := int(h.OffsetLenMinus1 + 1)
			for i := uint64(0); i < h.NumEntryPointOffsets; i++ {
				h.EntryPointOffsets = append(h.EntryPointOffsets, u(width))
			}
			if err != nil {
				return nil, herr.Structural("slice_segment_header", "%v", err)
			}
		}
	}

	// Step 10.
	if pps.SliceSegmentHeaderExtensionPresent {
		extLen := ue()
		if err != nil {
			return nil, herr.Structural("slice_segment_header", "%v", err)
		}
		for i := uint64(0); i < extLen; i++ {
			u(8)
		}
		if err != nil {
			return nil, herr.Structural("slice_segment_header", "%v", err)
		}
	}

	// Step 11.
	if err := consumeRBSPTrailingBits(br, true); err != nil {
		return nil, err
	}

	return h, nil
}

// ceilLog2 returns Ceil(Log2(n)) for n >= 1, the u(v) width the
// standard specifies for short_term_ref_pic_set_idx.
func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}
