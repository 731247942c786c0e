// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package hevc

import (
	"github.com/go-heif/heif/bitstream"
	"github.com/go-heif/heif/herr"
)

// BitstreamRestrictions is the optional tail of vui_parameters().
type BitstreamRestrictions struct {
	TilesFixedStructureFlag     bool
	MotionVectorsOverPicBoundariesFlag bool
	RestrictedRefPicListsFlag  bool
	MinSpatialSegmentationIDC  uint64
	MaxBytesPerPicDenom        uint64
	MaxBitsPerMinCuDenom       uint64
	Log2MaxMvLengthHorizontal uint64
	Log2MaxMvLengthVertical   uint64
}

// VUIParameters is the decoded vui_parameters() block. HRD parameters
// are not decoded: when hrd_parameters_present_flag is set, parsing
// fails with a KindUnsupported error.
type VUIParameters struct {
	AspectRatioInfoPresent bool
	AspectRatioIDC         uint8
	SarWidth               uint64
	SarHeight              uint64

	OverscanInfoPresent  bool
	OverscanAppropriate  bool

	VideoSignalTypePresent bool
	VideoFormat            uint8
	VideoFullRange         bool
	ColourDescriptionPresent bool
	ColourPrimaries        uint8
	TransferCharacteristics uint8
	MatrixCoefficients     uint8

	ChromaLocInfoPresent           bool
	ChromaSampleLocTypeTopField    uint64
	ChromaSampleLocTypeBottomField uint64

	NeutralChromaIndication bool
	FieldSeq                bool
	FrameFieldInfoPresent   bool

	DefaultDisplayWindowPresent bool
	DefDispWinLeftOffset        uint64
	DefDispWinRightOffset       uint64
	DefDispWinTopOffset         uint64
	DefDispWinBottomOffset      uint64

	TimingInfoPresent       bool
	NumUnitsInTick          uint64
	TimeScale               uint64
	PocProportionalToTiming bool
	NumTicksPocDiffOneMinus1 uint64
	HrdParametersPresent    bool

	BitstreamRestrictionPresent bool
	BitstreamRestrictions       *BitstreamRestrictions
}

const extendedSAR = 255

func parseVUIParameters(br *bitstream.BitReader, maxSubLayersMinus1 uint8) (*VUIParameters, error) {
	_ = maxSubLayersMinus1 // reserved for HRD parsing, which this decoder does not implement

	vui := &VUIParameters{}
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

	vui.AspectRatioInfoPresent = boolOf()
	if vui.AspectRatioInfoPresent {
		vui.AspectRatioIDC = uint8(u(8))
		if vui.AspectRatioIDC == extendedSAR {
			vui.SarWidth = u(16)
			vui.SarHeight = u(16)
		}
	}
	vui.OverscanInfoPresent = boolOf()
	if vui.OverscanInfoPresent {
		vui.OverscanAppropriate = boolOf()
	}
	vui.VideoSignalTypePresent = boolOf()
	if vui.VideoSignalTypePresent {
		vui.VideoFormat = uint8(u(3))
		vui.VideoFullRange = boolOf()
		vui.ColourDescriptionPresent = boolOf()
		if vui.ColourDescriptionPresent {
			vui.ColourPrimaries = uint8(u(8))
			vui.TransferCharacteristics = uint8(u(8))
			vui.MatrixCoefficients = uint8(u(8))
		}
	}
	vui.ChromaLocInfoPresent = boolOf()
	if vui.ChromaLocInfoPresent {
		vui.ChromaSampleLocTypeTopField = ue()
		vui.ChromaSampleLocTypeBottomField = ue()
	}
	vui.NeutralChromaIndication = boolOf()
	vui.FieldSeq = boolOf()
	vui.FrameFieldInfoPresent = boolOf()
	vui.DefaultDisplayWindowPresent = boolOf()
	if vui.DefaultDisplayWindowPresent {
		vui.DefDispWinLeftOffset = ue()
		vui.DefDispWinRightOffset = ue()
		vui.DefDispWinTopOffset = ue()
		vui.DefDispWinBottomOffset = ue()
	}
	vui.TimingInfoPresent = boolOf()
	if vui.TimingInfoPresent {
		vui.NumUnitsInTick = u(32)
		vui.TimeScale = u(32)
		vui.PocProportionalToTiming = boolOf()
		if vui.PocProportionalToTiming {
			vui.NumTicksPocDiffOneMinus1 = ue()
		}
		vui.HrdParametersPresent = boolOf()
		if err != nil {
			return nil, herr.Structural("vui_parameters", "%v", err)
		}
		if vui.HrdParametersPresent {
			return nil, herr.Unsupported("vui_parameters", "hrd_parameters present")
		}
	}
	if err != nil {
		return nil, herr.Structural("vui_parameters", "%v", err)
	}

	vui.BitstreamRestrictionPresent = boolOf()
	if vui.BitstreamRestrictionPresent {
		br := &BitstreamRestrictions{}
		br.TilesFixedStructureFlag = boolOf()
		br.MotionVectorsOverPicBoundariesFlag = boolOf()
		br.RestrictedRefPicListsFlag = boolOf()
		br.MinSpatialSegmentationIDC = ue()
		br.MaxBytesPerPicDenom = ue()
		br.MaxBitsPerMinCuDenom = ue()
		br.Log2MaxMvLengthHorizontal = ue()
		br.Log2MaxMvLengthVertical = ue()
		vui.BitstreamRestrictions = br
	}
	if err != nil {
		return nil, herr.Structural("vui_parameters", "%v", err)
	}

	return vui, nil
}
