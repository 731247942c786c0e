// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package hevc

import (
	"github.com/go-heif/heif/bitstream"
	"github.com/go-heif/heif/herr"
)

// SubLayerOrderingInfo is one sps_max_dec_pic_buffering_minus1 /
// sps_max_num_reorder_pics / sps_max_latency_increase_plus1 triple.
type SubLayerOrderingInfo struct {
	MaxDecPicBufferingMinus1 uint64
	MaxNumReorderPics        uint64
	MaxLatencyIncreasePlus1  uint64
}

// ShortTermRPS is one decoded short_term_ref_pic_set() entry.
type ShortTermRPS struct {
	NumNegativePics int
	NumPositivePics int
	DeltaPocS0      []int64
	UsedByCurrPicS0 []bool
	DeltaPocS1      []int64
	UsedByCurrPicS1 []bool
	NumDeltaPocs    int
}

// SPS is the decoded Sequence Parameter Set.
type SPS struct {
	VpsID                 uint8
	MaxSubLayersMinus1     uint8
	TemporalIDNestingFlag  bool
	ProfileTierLevel       ProfileTierLevel

	ID                    uint64
	ChromaFormatIDC       uint64
	SeparateColourPlane   bool
	PicWidthInLumaSamples  uint64
	PicHeightInLumaSamples uint64

	ConformanceWindow bool
	ConfWinLeftOffset, ConfWinRightOffset, ConfWinTopOffset, ConfWinBottomOffset uint64

	BitDepthLumaMinus8   uint64
	BitDepthChromaMinus8 uint64

	Log2MaxPicOrderCntLsbMinus4 uint64

	SubLayerOrderingInfoPresent bool
	SubLayerOrderingInfos       []SubLayerOrderingInfo

	Log2MinLumaCodingBlockSizeMinus3     uint64
	Log2DiffMaxMinLumaCodingBlockSize    uint64
	Log2MinLumaTransformBlockSizeMinus2  uint64
	Log2DiffMaxMinLumaTransformBlockSize uint64
	MaxTransformHierarchyDepthInter      uint64
	MaxTransformHierarchyDepthIntra      uint64

	ScalingListEnabled bool

	AmpEnabled               bool
	SampleAdaptiveOffset     bool
	PCMEnabled               bool
	PCMSampleBitDepthLumaMinus1   uint8
	PCMSampleBitDepthChromaMinus1 uint8
	Log2MinPCMLumaCodingBlockSizeMinus3  uint64
	Log2DiffMaxMinPCMLumaCodingBlockSize uint64
	PCMLoopFilterDisabled    bool

	ShortTermRefPicSets []ShortTermRPS

	LongTermRefPicsPresent bool
	NumLongTermRefPicsSps  uint64

	TemporalMvpEnabled         bool
	StrongIntraSmoothingEnabled bool

	VUIParametersPresent bool
	VUI                  *VUIParameters
}

// ParseSPS decodes a Sequence Parameter Set from an already-unescaped
// payload.
func ParseSPS(payload []byte) (*SPS, error) {
	br := bitstream.New(payload)
	s := &SPS{}
	var err error

	u8 := func(n int) uint8 {
		if err != nil {
			return 0
		}
		var v uint8
		v, err = br.ReadU8(n)
		return v
	}
	boolOf := func() bool { return u8(1) != 0 }
	ue := func() uint64 {
		if err != nil {
			return 0
		}
		var v uint64
		v, err = br.UE()
		return v
	}

	s.VpsID = u8(4)
	s.MaxSubLayersMinus1 = u8(3)
	s.TemporalIDNestingFlag = boolOf()
	if err != nil {
		return nil, herr.Structural("sps", "%v", err)
	}

	ptl, err2 := parseProfileTierLevel(br, s.MaxSubLayersMinus1)
	if err2 != nil {
		return nil, err2
	}
	s.ProfileTierLevel = ptl

	s.ID = ue()
	s.ChromaFormatIDC = ue()
	if s.ChromaFormatIDC == 3 {
		s.SeparateColourPlane = boolOf()
	}
	s.PicWidthInLumaSamples = ue()
	s.PicHeightInLumaSamples = ue()
	s.ConformanceWindow = boolOf()
	if s.ConformanceWindow {
		s.ConfWinLeftOffset = ue()
		s.ConfWinRightOffset = ue()
		s.ConfWinTopOffset = ue()
		s.ConfWinBottomOffset = ue()
	}
	s.BitDepthLumaMinus8 = ue()
	s.BitDepthChromaMinus8 = ue()
	s.Log2MaxPicOrderCntLsbMinus4 = ue()
	if err != nil {
		return nil, herr.Structural("sps", "%v", err)
	}
	if s.Log2MaxPicOrderCntLsbMinus4 > 12 {
		return nil, herr.Range("sps", "log2_max_pic_order_cnt_lsb_minus4 %d exceeds 12", s.Log2MaxPicOrderCntLsbMinus4)
	}

	s.SubLayerOrderingInfoPresent = boolOf()
	start := s.MaxSubLayersMinus1
	if s.SubLayerOrderingInfoPresent {
		start = 0
	}
	for i := start; i <= s.MaxSubLayersMinus1; i++ {
		s.SubLayerOrderingInfos = append(s.SubLayerOrderingInfos, SubLayerOrderingInfo{
			MaxDecPicBufferingMinus1: ue(),
			MaxNumReorderPics:        ue(),
			MaxLatencyIncreasePlus1:  ue(),
		})
		if i == 255 {
			break // defensive: u8 loop variable wraps, grammar never reaches this in practice
		}
	}
	if err != nil {
		return nil, herr.Structural("sps", "%v", err)
	}

	s.Log2MinLumaCodingBlockSizeMinus3 = ue()
	s.Log2DiffMaxMinLumaCodingBlockSize = ue()
	s.Log2MinLumaTransformBlockSizeMinus2 = ue()
	s.Log2DiffMaxMinLumaTransformBlockSize = ue()
	s.MaxTransformHierarchyDepthInter = ue()
	s.MaxTransformHierarchyDepthIntra = ue()
	if err != nil {
		return nil, herr.Structural("sps", "%v", err)
	}

	s.ScalingListEnabled = boolOf()
	if s.ScalingListEnabled {
		scalingListPresent := boolOf()
		if err != nil {
			return nil, herr.Structural("sps", "%v", err)
		}
		if scalingListPresent {
			return nil, herr.Unsupported("sps", "scaling_list_data present")
		}
	}

	s.AmpEnabled = boolOf()
	s.SampleAdaptiveOffset = boolOf()
	s.PCMEnabled = boolOf()
	if err != nil {
		return nil, herr.Structural("sps", "%v", err)
	}
	if s.PCMEnabled {
		s.PCMSampleBitDepthLumaMinus1 = u8(4)
		s.PCMSampleBitDepthChromaMinus1 = u8(4)
		s.Log2MinPCMLumaCodingBlockSizeMinus3 = ue()
		s.Log2DiffMaxMinPCMLumaCodingBlockSize = ue()
		s.PCMLoopFilterDisabled = boolOf()
		if err != nil {
			return nil, herr.Structural("sps", "%v", err)
		}
	}

	numShortTerm := ue()
	if err != nil {
		return nil, herr.Structural("sps", "%v", err)
	}
	if numShortTerm > 64 {
		return nil, herr.Range("sps", "num_short_term_ref_pic_sets %d exceeds 64", numShortTerm)
	}
	s.ShortTermRefPicSets = make([]ShortTermRPS, 0, numShortTerm)
	for i := uint64(0); i < numShortTerm; i++ {
		rps, err := parseShortTermRefPicSet(br, s.ShortTermRefPicSets, int(i), int(numShortTerm))
		if err != nil {
			return nil, err
		}
		s.ShortTermRefPicSets = append(s.ShortTermRefPicSets, rps)
	}

	s.LongTermRefPicsPresent = boolOf()
	if err != nil {
		return nil, herr.Structural("sps", "%v", err)
	}
	if s.LongTermRefPicsPresent {
		s.NumLongTermRefPicsSps = ue()
		if err != nil {
			return nil, herr.Structural("sps", "%v", err)
		}
		if s.NumLongTermRefPicsSps > 32 {
			return nil, herr.Range("sps", "num_long_term_ref_pics_sps %d exceeds 32", s.NumLongTermRefPicsSps)
		}
		pocBits := int(s.Log2MaxPicOrderCntLsbMinus4 + 4)
		for i := uint64(0); i < s.NumLongTermRefPicsSps; i++ {
			if _, e := br.ReadBits(pocBits); e != nil {
				return nil, herr.Structural("sps", "%v", e)
			}
			if _, e := br.ReadBool(); e != nil {
				return nil, herr.Structural("sps", "%v", e)
			}
		}
	}

	s.TemporalMvpEnabled = boolOf()
	s.StrongIntraSmoothingEnabled = boolOf()
	s.VUIParametersPresent = boolOf()
	if err != nil {
		return nil, herr.Structural("sps", "%v", err)
	}
	if s.VUIParametersPresent {
		vui, err := parseVUIParameters(br, s.MaxSubLayersMinus1)
		if err != nil {
			return nil, err
		}
		s.VUI = vui
	}

	spsExtensionPresent := boolOf()
	if err != nil {
		return nil, herr.Structural("sps", "%v", err)
	}
	if spsExtensionPresent {
		return nil, herr.Unsupported("sps", "sps_extension_present_flag set")
	}

	if err := consumeRBSPTrailingBits(br, true); err != nil {
		return nil, err
	}

	return s, nil
}

// parseShortTermRefPicSet decodes short_term_ref_pic_set(stRpsIdx),
// including the inter-prediction branch (delta-coded against a
// previously parsed set) that an earlier HEVC parser this one was
// grounded on left unimplemented.
func parseShortTermRefPicSet(br *bitstream.BitReader, prior []ShortTermRPS, stRpsIdx, numShortTermRefPicSets int) (ShortTermRPS, error) {
	var rps ShortTermRPS
	var err error

	boolOf := func() bool {
		if err != nil {
			return false
		}
		var b bool
		b, err = br.ReadBool()
		return b
	}
	ue := func() uint64 {
		if err != nil {
			return 0
		}
		var v uint64
		v, err = br.UE()
		return v
	}

	interPred := false
	if stRpsIdx != 0 {
		interPred = boolOf()
	}
	if err != nil {
		return ShortTermRPS{}, herr.Structural("short_term_ref_pic_set", "%v", err)
	}

	if interPred {
		deltaIdxMinus1 := uint64(0)
		if stRpsIdx == numShortTermRefPicSets {
			deltaIdxMinus1 = ue()
		}
		deltaRpsSign := boolOf()
		absDeltaRpsMinus1 := ue()
		if err != nil {
			return ShortTermRPS{}, herr.Structural("short_term_ref_pic_set", "%v", err)
		}

		refIdx := stRpsIdx - 1 - int(deltaIdxMinus1)
		if refIdx < 0 || refIdx >= len(prior) {
			return ShortTermRPS{}, herr.Structural("short_term_ref_pic_set", "inter-ref index %d out of range", refIdx)
		}
		ref := prior[refIdx]

		deltaRps := int64(absDeltaRpsMinus1 + 1)
		if deltaRpsSign {
			deltaRps = -deltaRps
		}

		usedByCurr := make([]bool, ref.NumDeltaPocs+1)
		useDelta := make([]bool, ref.NumDeltaPocs+1)
		for j := 0; j <= ref.NumDeltaPocs; j++ {
			usedByCurr[j] = boolOf()
			if !usedByCurr[j] {
				useDelta[j] = boolOf()
			} else {
				useDelta[j] = true
			}
		}
		if err != nil {
			return ShortTermRPS{}, herr.Structural("short_term_ref_pic_set", "%v", err)
		}

		refNegPocs, refPosPocs := splitDeltaPocs(ref)
		var negPocs, posPocs []int64
		var negUsed, posUsed []bool

		for j := len(ref.DeltaPocS1) - 1; j >= 0; j-- {
			dPoc := refPosPocs[j] + deltaRps
			if dPoc < 0 && useDelta[len(ref.DeltaPocS0)+j] {
				negPocs = append(negPocs, dPoc)
				negUsed = append(negUsed, usedByCurr[len(ref.DeltaPocS0)+j])
			}
		}
		if deltaRps < 0 && useDelta[ref.NumDeltaPocs] {
			negPocs = append(negPocs, deltaRps)
			negUsed = append(negUsed, usedByCurr[ref.NumDeltaPocs])
		}
		for j := 0; j < len(ref.DeltaPocS0); j++ {
			dPoc := refNegPocs[j] + deltaRps
			if dPoc < 0 && useDelta[j] {
				negPocs = append(negPocs, dPoc)
				negUsed = append(negUsed, usedByCurr[j])
			}
		}

		for j := len(ref.DeltaPocS0) - 1; j >= 0; j-- {
			dPoc := refNegPocs[j] + deltaRps
			if dPoc > 0 && useDelta[j] {
				posPocs = append(posPocs, dPoc)
				posUsed = append(posUsed, usedByCurr[j])
			}
		}
		if deltaRps > 0 && useDelta[ref.NumDeltaPocs] {
			posPocs = append(posPocs, deltaRps)
			posUsed = append(posUsed, usedByCurr[ref.NumDeltaPocs])
		}
		for j := 0; j < len(ref.DeltaPocS1); j++ {
			dPoc := refPosPocs[j] + deltaRps
			if dPoc > 0 && useDelta[len(ref.DeltaPocS0)+j] {
				posPocs = append(posPocs, dPoc)
				posUsed = append(posUsed, usedByCurr[len(ref.DeltaPocS0)+j])
			}
		}

		rps.DeltaPocS0, rps.UsedByCurrPicS0 = negPocs, negUsed
		rps.DeltaPocS1, rps.UsedByCurrPicS1 = posPocs, posUsed
		rps.NumNegativePics = len(negPocs)
		rps.NumPositivePics = len(posPocs)
		rps.NumDeltaPocs = rps.NumNegativePics + rps.NumPositivePics
		return rps, nil
	}

	numNeg := ue()
	numPos := ue()
	if err != nil {
		return ShortTermRPS{}, herr.Structural("short_term_ref_pic_set", "%v", err)
	}
	rps.NumNegativePics = int(numNeg)
	rps.NumPositivePics = int(numPos)

	var prevPoc int64
	for i := uint64(0); i < numNeg; i++ {
		deltaMinus1 := ue()
		used := boolOf()
		if err != nil {
			return ShortTermRPS{}, herr.Structural("short_term_ref_pic_set", "%v", err)
		}
		prevPoc -= int64(deltaMinus1 + 1)
		rps.DeltaPocS0 = append(rps.DeltaPocS0, prevPoc)
		rps.UsedByCurrPicS0 = append(rps.UsedByCurrPicS0, used)
	}
	prevPoc = 0
	for i := uint64(0); i < numPos; i++ {
		deltaMinus1 := ue()
		used := boolOf()
		if err != nil {
			return ShortTermRPS{}, herr.Structural("short_term_ref_pic_set", "%v", err)
		}
		prevPoc += int64(deltaMinus1 + 1)
		rps.DeltaPocS1 = append(rps.DeltaPocS1, prevPoc)
		rps.UsedByCurrPicS1 = append(rps.UsedByCurrPicS1, used)
	}
	rps.NumDeltaPocs = rps.NumNegativePics + rps.NumPositivePics

	return rps, nil
}

// splitDeltaPocs returns the already-decoded negative and positive
// delta POC lists of a reference set, used as the base for
// inter-prediction delta coding.
func splitDeltaPocs(rps ShortTermRPS) (neg, pos []int64) {
	return rps.DeltaPocS0, rps.DeltaPocS1
}

// consumeRBSPTrailingBits reads the rbsp_trailing_bits() sequence: one
// 1 bit then zero bits to byte alignment. When strict is false, a
// mismatch is tolerated (used for PPS, where a real-world encoder has
// been observed to omit them).
func consumeRBSPTrailingBits(br *bitstream.BitReader, strict bool) error {
	stop, err := br.ReadBool()
	if err != nil {
		if strict {
			return herr.Structural("rbsp_trailing_bits", "%v", err)
		}
		return nil
	}
	if !stop && strict {
		return herr.Structural("rbsp_trailing_bits", "rbsp_stop_one_bit not set")
	}
	for !br.IsByteAligned() {
		if _, err := br.ReadBool(); err != nil {
			if strict {
				return herr.Structural("rbsp_trailing_bits", "%v", err)
			}
			return nil
		}
	}
	return nil
}
