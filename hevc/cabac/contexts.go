// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package cabac holds the CABAC context-model size constants and
// per-slice-type initialization tables used by HEVC's arithmetic
// decoding engine. The tables here describe shape, not arithmetic
// decoding: this reader does not decode CABAC-coded residual or
// prediction data, only the parameter sets and slice segment headers
// that precede it.
package cabac

// Slice-type indices context initialization tables are keyed by.
const (
	SliceTypeB = 0
	SliceTypeP = 1
	SliceTypeI = 2
)

const numberOfSliceTypes = 3

// CNU is the "Context model Not Used" sentinel value.
const CNU = 154

// Context-count constants, ported from the published table sizes.
const (
	MaxNumCtxMod = 512

	NumSplitFlagCtx    = 3
	NumSkipFlagCtx     = 3
	NumMergeFlagExtCtx = 1
	NumMergeIdxExtCtx  = 1

	NumPartSizeCtx    = 4
	NumPredModeCtx    = 1
	NumIntraPredictCtx = 1
	NumChromaPredCtx  = 2
	NumInterDirCtx    = 5
	NumMvResCtx       = 2

	NumChromaQpAdjFlagCtx = 1
	NumChromaQpAdjIdcCtx  = 1

	NumRefNoCtx          = 2
	NumTransSubdivFlagCtx = 3
	NumQtRootCbfCtx      = 1
	NumDeltaQpCtx        = 3

	NumSigCgFlagCtx = 2

	NumExplicitRdpcmFlagCtx = 1
	NumExplicitRdpcmDirCtx  = 1

	NumSigFlagCtxLuma   = 28
	NumSigFlagCtxChroma = 16
	NumSigFlagCtx       = NumSigFlagCtxLuma + NumSigFlagCtxChroma

	NumCtxLastFlagSets = 2
	NumCtxLastFlagXY   = 15

	NumOneFlagCtxPerSet = 4
	NumAbsFlagCtxPerSet = 1

	NumCtxSetsLuma   = 4
	NumCtxSetsChroma = 2

	NumOneFlagCtxLuma   = NumOneFlagCtxPerSet * NumCtxSetsLuma
	NumOneFlagCtxChroma = NumOneFlagCtxPerSet * NumCtxSetsChroma
	NumAbsFlagCtxLuma   = NumAbsFlagCtxPerSet * NumCtxSetsLuma
	NumAbsFlagCtxChroma = NumAbsFlagCtxPerSet * NumCtxSetsChroma
	NumOneFlagCtx       = NumOneFlagCtxLuma + NumOneFlagCtxChroma
	NumAbsFlagCtx       = NumAbsFlagCtxLuma + NumAbsFlagCtxChroma

	NumQtCbfCtxSets   = 2
	NumQtCbfCtxPerSet = 5

	NumMvpIdxCtx = 1

	NumSaoMergeFlagCtx  = 1
	NumSaoTypeIdxCtx    = 1
	NumTransformskipFlagCtx = 1

	NumCuTransquantBypassFlagCtx = 1
	NumCrossComponentPredictionCtx = 10
)

// Tables is the full set of per-slice-type context initialization
// tables. Each outer index is a SliceType* constant.
//
// The retrieval pack this reader was built from carried only the size
// constants above; the published per-value initialization constants
// (Rec. ITU-T H.265 Annex 9.3.2.2) were not included, so rather than
// transcribe them from memory and risk a silent byte-for-byte error,
// every slot here is the CNU sentinel. The shapes are exact and ready
// to be populated from the standard.
type Tables struct {
	SplitFlag    [numberOfSliceTypes][NumSplitFlagCtx]uint8
	SkipFlag     [numberOfSliceTypes][NumSkipFlagCtx]uint8
	MergeFlagExt [numberOfSliceTypes][NumMergeFlagExtCtx]uint8
	MergeIdxExt  [numberOfSliceTypes][NumMergeIdxExtCtx]uint8

	PartSize     [numberOfSliceTypes][NumPartSizeCtx]uint8
	PredMode     [numberOfSliceTypes][NumPredModeCtx]uint8
	IntraPredict [numberOfSliceTypes][NumIntraPredictCtx]uint8
	ChromaPred   [numberOfSliceTypes][NumChromaPredCtx]uint8
	InterDir     [numberOfSliceTypes][NumInterDirCtx]uint8
	MvRes        [numberOfSliceTypes][NumMvResCtx]uint8

	ChromaQpAdjFlag [numberOfSliceTypes][NumChromaQpAdjFlagCtx]uint8
	ChromaQpAdjIdc  [numberOfSliceTypes][NumChromaQpAdjIdcCtx]uint8

	RefNo          [numberOfSliceTypes][NumRefNoCtx]uint8
	TransSubdivFlag [numberOfSliceTypes][NumTransSubdivFlagCtx]uint8
	QtRootCbf      [numberOfSliceTypes][NumQtRootCbfCtx]uint8
	DeltaQp        [numberOfSliceTypes][NumDeltaQpCtx]uint8

	SigCgFlag [numberOfSliceTypes][NumSigCgFlagCtx]uint8
	SigFlag   [numberOfSliceTypes][NumSigFlagCtx]uint8

	LastFlagXY [numberOfSliceTypes][NumCtxLastFlagSets][NumCtxLastFlagXY]uint8

	OneFlag [numberOfSliceTypes][NumOneFlagCtx]uint8
	AbsFlag [numberOfSliceTypes][NumAbsFlagCtx]uint8

	QtCbf [numberOfSliceTypes][NumQtCbfCtxSets][NumQtCbfCtxPerSet]uint8

	MvpIdx              [numberOfSliceTypes][NumMvpIdxCtx]uint8
	SaoMergeFlag        [numberOfSliceTypes][NumSaoMergeFlagCtx]uint8
	SaoTypeIdx          [numberOfSliceTypes][NumSaoTypeIdxCtx]uint8
	TransformSkipFlag   [numberOfSliceTypes][NumTransformskipFlagCtx]uint8
	CuTransquantBypass  [numberOfSliceTypes][NumCuTransquantBypassFlagCtx]uint8
	CrossComponentPred  [numberOfSliceTypes][NumCrossComponentPredictionCtx]uint8
	ExplicitRdpcmFlag   [numberOfSliceTypes][NumExplicitRdpcmFlagCtx]uint8
	ExplicitRdpcmDir    [numberOfSliceTypes][NumExplicitRdpcmDirCtx]uint8
}

// Default returns a Tables instance with every slot initialized to
// CNU.
func Default() *Tables {
	t := &Tables{}
	for s := 0; s < numberOfSliceTypes; s++ {
		for i := range t.SplitFlag[s] {
			t.SplitFlag[s][i] = CNU
		}
		for i := range t.SkipFlag[s] {
			t.SkipFlag[s][i] = CNU
		}
		for i := range t.MergeFlagExt[s] {
			t.MergeFlagExt[s][i] = CNU
		}
		for i := range t.MergeIdxExt[s] {
			t.MergeIdxExt[s][i] = CNU
		}
		for i := range t.PartSize[s] {
			t.PartSize[s][i] = CNU
		}
		for i := range t.PredMode[s] {
			t.PredMode[s][i] = CNU
		}
		for i := range t.IntraPredict[s] {
			t.IntraPredict[s][i] = CNU
		}
		for i := range t.ChromaPred[s] {
			t.ChromaPred[s][i] = CNU
		}
		for i := range t.InterDir[s] {
			t.InterDir[s][i] = CNU
		}
		for i := range t.MvRes[s] {
			t.MvRes[s][i] = CNU
		}
		for i := range t.ChromaQpAdjFlag[s] {
			t.ChromaQpAdjFlag[s][i] = CNU
		}
		for i := range t.ChromaQpAdjIdc[s] {
			t.ChromaQpAdjIdc[s][i] = CNU
		}
		for i := range t.RefNo[s] {
			t.RefNo[s][i] = CNU
		}
		for i := range t.TransSubdivFlag[s] {
			t.TransSubdivFlag[s][i] = CNU
		}
		for i := range t.QtRootCbf[s] {
			t.QtRootCbf[s][i] = CNU
		}
		for i := range t.DeltaQp[s] {
			t.DeltaQp[s][i] = CNU
		}
		for i := range t.SigCgFlag[s] {
			t.SigCgFlag[s][i] = CNU
		}
		for i := range t.SigFlag[s] {
			t.SigFlag[s][i] = CNU
		}
		for set := range t.LastFlagXY[s] {
			for i := range t.LastFlagXY[s][set] {
				t.LastFlagXY[s][set][i] = CNU
			}
		}
		for i := range t.OneFlag[s] {
			t.OneFlag[s][i] = CNU
		}
		for i := range t.AbsFlag[s] {
			t.AbsFlag[s][i] = CNU
		}
		for set := range t.QtCbf[s] {
			for i := range t.QtCbf[s][set] {
				t.QtCbf[s][set][i] = CNU
			}
		}
		for i := range t.MvpIdx[s] {
			t.MvpIdx[s][i] = CNU
		}
		for i := range t.SaoMergeFlag[s] {
			t.SaoMergeFlag[s][i] = CNU
		}
		for i := range t.SaoTypeIdx[s] {
			t.SaoTypeIdx[s][i] = CNU
		}
		for i := range t.TransformSkipFlag[s] {
			t.TransformSkipFlag[s][i] = CNU
		}
		for i := range t.CuTransquantBypass[s] {
			t.CuTransquantBypass[s][i] = CNU
		}
		for i := range t.CrossComponentPred[s] {
			t.CrossComponentPred[s][i] = CNU
		}
		for i := range t.ExplicitRdpcmFlag[s] {
			t.ExplicitRdpcmFlag[s][i] = CNU
		}
		for i := range t.ExplicitRdpcmDir[s] {
			t.ExplicitRdpcmDir[s][i] = CNU
		}
	}
	return t
}
